package service

import (
	"time"

	"parcours/internal/doctorate/models"
	id "parcours/pkg/domain"
)

type InitializeDoctorate struct {
	// DoctorateID is optional; a new id is generated when empty.
	DoctorateID         id.DoctorateID          `json:"doctorate_id"`
	AdmissionID         string                  `json:"admission_id" validate:"required"`
	AdmissionType       string                  `json:"admission_type"`
	Student             models.Student          `json:"student" validate:"required"`
	Training            models.Training         `json:"training" validate:"required"`
	ProximityCommission string                  `json:"proximity_commission"`
	Project             models.Project          `json:"project"`
	Funding             models.Funding          `json:"funding"`
	Cotutelle           models.Cotutelle        `json:"cotutelle"`
	PreviousResearch    models.PreviousResearch `json:"previous_research"`
}

type ModifyProject struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Project     models.Project `json:"project"`
}

type ModifyFunding struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Funding     models.Funding `json:"funding"`
}

type ModifyCotutelle struct {
	DoctorateID id.DoctorateID   `json:"doctorate_id" validate:"required"`
	Cotutelle   models.Cotutelle `json:"cotutelle"`
}

type ModifyPreviousResearch struct {
	DoctorateID      id.DoctorateID          `json:"doctorate_id" validate:"required"`
	PreviousResearch models.PreviousResearch `json:"previous_research"`
}

type ModifyDefenseInfo struct {
	DoctorateID         id.DoctorateID       `json:"doctorate_id" validate:"required"`
	ProposedThesisTitle string               `json:"proposed_thesis_title"`
	Method              models.DefenseMethod `json:"defense_method" validate:"required"`
	Language            string               `json:"language"`
	Datetime            *time.Time           `json:"datetime"`
	Place               string               `json:"place"`
}

type LockDiploma struct {
	DoctorateID    id.DoctorateID `json:"doctorate_id" validate:"required"`
	CollectionDate *time.Time     `json:"collection_date"`
}

type SendMessage struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Subject     string         `json:"subject" validate:"required"`
	Body        string         `json:"body" validate:"required"`
	CCPromoters bool           `json:"cc_promoters"`
	CCCAMembers bool           `json:"cc_ca_members"`
	CCJury      bool           `json:"cc_jury"`
}
