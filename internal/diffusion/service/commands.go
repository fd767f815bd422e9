package service

import (
	"parcours/internal/diffusion/models"
	id "parcours/pkg/domain"
)

type EncodeForm struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	models.Form
}

type SubmitForm struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	models.Form
}

// Review is a signatory verdict. The signatory is the authenticated actor.
type Review struct {
	DoctorateID     id.DoctorateID `json:"doctorate_id" validate:"required"`
	Reason          string         `json:"reason"`
	InternalComment string         `json:"internal_comment"`
	ExternalComment string         `json:"external_comment"`
}

type PromoterApprove struct{ Review }

type PromoterRefuse struct{ Review }

type ADREApprove struct{ Review }

type ADRERefuse struct{ Review }

type SCEBApprove struct{ Review }

type SCEBRefuse struct{ Review }
