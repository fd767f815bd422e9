package models

import (
	"slices"
	"time"

	id "parcours/pkg/domain"
)

// DoctorateDTO is the read projection of a doctorate.
type DoctorateDTO struct {
	ID                    id.DoctorateID   `json:"id"`
	Reference             string           `json:"reference"`
	Status                Status           `json:"status"`
	AdmissionID           string           `json:"admission_id"`
	AdmissionType         string           `json:"admission_type,omitempty"`
	Training              Training         `json:"training"`
	Student               Student          `json:"student"`
	ProximityCommission   string           `json:"proximity_commission,omitempty"`
	Project               Project          `json:"project"`
	Funding               Funding          `json:"funding"`
	Cotutelle             Cotutelle        `json:"cotutelle"`
	PreviousResearch      PreviousResearch `json:"previous_research"`
	ProposedThesisTitle   string           `json:"proposed_thesis_title,omitempty"`
	DefenseMethod         DefenseMethod    `json:"defense_method,omitempty"`
	DefenseLanguage       string           `json:"defense_language,omitempty"`
	DefenseDatetime       *time.Time       `json:"defense_datetime,omitempty"`
	DefensePlace          string           `json:"defense_place,omitempty"`
	PublicDefense         PublicDefense    `json:"public_defense"`
	DiplomaCollectionDate *time.Time       `json:"diploma_collection_date,omitempty"`
	CurrentConfirmation   string           `json:"current_confirmation_paper,omitempty"`
	CurrentPrivateDefense string           `json:"current_private_defense,omitempty"`
	CurrentAdmissibility  string           `json:"current_admissibility,omitempty"`
	Timeline              []StatusChange   `json:"timeline,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

func optionalID[T interface {
	IsNil() bool
	String() string
}](v T) string {
	if v.IsNil() {
		return ""
	}
	return v.String()
}

// ToDTO projects the aggregate.
func (d *Doctorate) ToDTO() DoctorateDTO {
	return DoctorateDTO{
		ID:                    d.ID,
		Reference:             d.Reference,
		Status:                d.Status,
		AdmissionID:           d.AdmissionID,
		AdmissionType:         d.AdmissionType,
		Training:              d.Training,
		Student:               d.Student,
		ProximityCommission:   d.ProximityCommission,
		Project:               d.Project,
		Funding:               d.Funding,
		Cotutelle:             d.Cotutelle,
		PreviousResearch:      d.PreviousResearch,
		ProposedThesisTitle:   d.ProposedThesisTitle,
		DefenseMethod:         d.DefenseMethod,
		DefenseLanguage:       d.DefenseLanguage,
		DefenseDatetime:       d.DefenseDatetime,
		DefensePlace:          d.DefensePlace,
		PublicDefense:         d.PublicDefense,
		DiplomaCollectionDate: d.DiplomaCollectionDate,
		CurrentConfirmation:   optionalID(d.ConfirmationPapers.Current),
		CurrentPrivateDefense: optionalID(d.PrivateDefenses.Current),
		CurrentAdmissibility:  optionalID(d.Admissibilities.Current),
		Timeline:              slices.Clone(d.Timeline),
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}
