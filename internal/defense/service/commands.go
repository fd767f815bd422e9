package service

import (
	"time"

	id "parcours/pkg/domain"
)

type SubmitPrivateDefense struct {
	DoctorateID              id.DoctorateID `json:"doctorate_id" validate:"required"`
	ThesisTitle              string         `json:"thesis_title"`
	Datetime                 *time.Time     `json:"datetime"`
	Place                    string         `json:"place"`
	ManuscriptSubmissionDate *time.Time     `json:"manuscript_submission_date"`
}

type AuthorizePrivateDefense struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
}

type SubmitPrivateDefenseMinutes struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Minutes     []string       `json:"minutes" validate:"required,min=1"`
}

// PrivateDefenseDecision closes the active private defense.
type PrivateDefenseDecision struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
}

type RecordPrivateDefenseSuccess struct {
	PrivateDefenseDecision
}

type RecordPrivateDefenseFailure struct {
	PrivateDefenseDecision
}

type RecordPrivateDefenseRetry struct {
	PrivateDefenseDecision
}

type SubmitAdmissibility struct {
	DoctorateID              id.DoctorateID `json:"doctorate_id" validate:"required"`
	ThesisTitle              string         `json:"thesis_title"`
	DecisionDate             *time.Time     `json:"decision_date"`
	ManuscriptSubmissionDate *time.Time     `json:"manuscript_submission_date"`
}

type SubmitAdmissibilityMinutes struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Minutes     []string       `json:"minutes" validate:"required,min=1"`
	JuryOpinion []string       `json:"jury_opinion"`
}

type RecordAdmissibilityDecision struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Passed      bool           `json:"passed"`
}

type ModifyPublicDefense struct {
	DoctorateID  id.DoctorateID `json:"doctorate_id" validate:"required"`
	Language     string         `json:"language"`
	Datetime     *time.Time     `json:"datetime"`
	Place        string         `json:"place"`
	RoomNotes    string         `json:"room_notes"`
	Announcement string         `json:"announcement" validate:"max=5000"`
	Photo        []string       `json:"photo"`
}

type SubmitPublicDefense struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
}

type AuthorizePublicDefense struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
}

type SubmitPublicDefenseMinutes struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Minutes     []string       `json:"minutes" validate:"required,min=1"`
}

type RecordDefenseSuccess struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
}
