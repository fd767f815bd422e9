package service

import (
	"time"

	id "parcours/pkg/domain"
)

type SubmitConfirmation struct {
	DoctorateID      id.DoctorateID `json:"doctorate_id" validate:"required"`
	Date             *time.Time     `json:"date"`
	ResearchReport   []string       `json:"research_report"`
	SupervisorReport []string       `json:"supervisor_report"`
	SupervisorCanvas []string       `json:"supervisor_canvas"`
	RenewalOpinion   []string       `json:"renewal_opinion"`
}

type CompleteBySupervisor struct {
	DoctorateID    id.DoctorateID `json:"doctorate_id" validate:"required"`
	Report         []string       `json:"report"`
	RenewalOpinion []string       `json:"renewal_opinion"`
}

type ModifyByCDD struct {
	DoctorateID      id.DoctorateID `json:"doctorate_id" validate:"required"`
	Deadline         time.Time      `json:"deadline" validate:"required"`
	Date             *time.Time     `json:"date"`
	ResearchReport   []string       `json:"research_report"`
	SupervisorReport []string       `json:"supervisor_report"`
	RenewalOpinion   []string       `json:"renewal_opinion"`
}

type RequestExtension struct {
	DoctorateID         id.DoctorateID `json:"doctorate_id" validate:"required"`
	NewDeadline         time.Time      `json:"new_deadline"`
	Justification       string         `json:"justification"`
	JustificationLetter []string       `json:"justification_letter"`
}

type RecordCDDOpinion struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Opinion     string         `json:"opinion"`
}

type UploadRenewalOpinion struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Opinion     []string       `json:"opinion" validate:"required,min=1"`
}

// Decision is the CDD outcome of the current confirmation paper with the
// message sent to the student.
type Decision struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	Certificate []string       `json:"certificate"`
	Subject     string         `json:"subject" validate:"required"`
	Body        string         `json:"body" validate:"required"`
	CCPromoters bool           `json:"cc_promoters"`
	CCCAMembers bool           `json:"cc_ca_members"`
}

type RecordSuccess struct {
	Decision
}

type RecordFailure struct {
	Decision
}

// RecordRetry asks the student to present a new confirmation before the
// given deadline.
type RecordRetry struct {
	Decision
	NewDeadline time.Time `json:"new_deadline" validate:"required"`
}
