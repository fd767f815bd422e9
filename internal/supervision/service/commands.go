package service

import (
	"parcours/internal/supervision/models"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/signature"
)

type RequestSignatures struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
}

type AddMember struct {
	DoctorateID id.DoctorateID        `json:"doctorate_id" validate:"required"`
	Role        signature.Role        `json:"role" validate:"required,oneof=PROMOTEUR MEMBRE_CA"`
	Matricule   id.Matricule          `json:"matricule"`
	External    models.ExternalPerson `json:"external"`
}

type RemoveMember struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.SignatoryID `json:"member_id" validate:"required"`
}

type ModifyExternalMember struct {
	DoctorateID id.DoctorateID        `json:"doctorate_id" validate:"required"`
	MemberID    id.SignatoryID        `json:"member_id" validate:"required"`
	External    models.ExternalPerson `json:"external"`
}

type DesignateReferencePromoter struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.SignatoryID `json:"member_id" validate:"required"`
}

type ApproveProposition struct {
	DoctorateID     id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID        id.SignatoryID `json:"member_id" validate:"required"`
	InternalComment string         `json:"internal_comment"`
	ExternalComment string         `json:"external_comment"`
	// Institute is the thesis institute the lead promoter names when the
	// student did not propose one.
	Institute string `json:"institute"`
}

type ApprovePropositionByPDF struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.SignatoryID `json:"member_id" validate:"required"`
	PDF         []string       `json:"pdf" validate:"required,min=1"`
}

type RefuseProposition struct {
	DoctorateID     id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID        id.SignatoryID `json:"member_id" validate:"required"`
	Reason          string         `json:"reason"`
	InternalComment string         `json:"internal_comment"`
	ExternalComment string         `json:"external_comment"`
}

type ResendInvitation struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.SignatoryID `json:"member_id" validate:"required"`
}
