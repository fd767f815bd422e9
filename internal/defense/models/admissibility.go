package models

import (
	"slices"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

const (
	CodeAdmissibilityNotFound   = "RECEVABILITE-1"
	CodeAdmissibilityIncomplete = "RECEVABILITE-2"
	CodeAdmissibilityInactive   = "RECEVABILITE-3"
	CodeDecisionIncomplete      = "RECEVABILITE-4"
)

// Admissibility is the formula 2 step preceding the combined defense.
type Admissibility struct {
	ID                       id.AdmissibilityID `json:"id"`
	DoctorateID              id.DoctorateID     `json:"doctorate_id"`
	Active                   bool               `json:"active"`
	DecisionDate             *time.Time         `json:"decision_date,omitempty"`
	ManuscriptSubmissionDate *time.Time         `json:"manuscript_submission_date,omitempty"`
	JuryOpinion              []string           `json:"jury_opinion,omitempty"`
	Minutes                  []string           `json:"minutes,omitempty"`
	MinutesCanvas            []string           `json:"minutes_canvas,omitempty"`
	CreatedAt                time.Time          `json:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at"`
}

func NewAdmissibility(admissibilityID id.AdmissibilityID, doctorateID id.DoctorateID, now time.Time) (*Admissibility, error) {
	if admissibilityID.IsNil() || doctorateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admissibility requires ids")
	}
	return &Admissibility{ID: admissibilityID, DoctorateID: doctorateID, Active: true, CreatedAt: now, UpdatedAt: now}, nil
}

// AdmissibilityForm is what the student submits.
type AdmissibilityForm struct {
	ThesisTitle              string     `json:"thesis_title"`
	DecisionDate             *time.Time `json:"decision_date"`
	ManuscriptSubmissionDate *time.Time `json:"manuscript_submission_date,omitempty"`
}

// SubmitForm stores the planned decision date.
func (a *Admissibility) SubmitForm(f AdmissibilityForm, now time.Time) error {
	err := validation.Validate(
		validation.Require(f.DecisionDate != nil && f.ThesisTitle != "", dErrors.Violation{
			Code: CodeAdmissibilityIncomplete, Message: "the thesis title and the decision date are required",
		}),
		isActive(a.Active, CodeAdmissibilityInactive),
	)
	if err != nil {
		return err
	}
	a.DecisionDate = f.DecisionDate
	a.ManuscriptSubmissionDate = f.ManuscriptSubmissionDate
	a.UpdatedAt = now
	return nil
}

// SubmitMinutes stores the minutes and the jury opinion.
func (a *Admissibility) SubmitMinutes(minutes, juryOpinion []string, now time.Time) (bool, error) {
	if err := validation.Validate(isActive(a.Active, CodeAdmissibilityInactive)); err != nil {
		return false, err
	}
	if slices.Equal(a.Minutes, minutes) && slices.Equal(a.JuryOpinion, juryOpinion) {
		return false, nil
	}
	a.Minutes = slices.Clone(minutes)
	a.JuryOpinion = slices.Clone(juryOpinion)
	a.UpdatedAt = now
	return true, nil
}

// VerifyForDecision checks a decision can be recorded on this instance.
func (a *Admissibility) VerifyForDecision() error {
	return validation.Validate(
		isActive(a.Active, CodeAdmissibilityInactive),
		validation.Require(a.DecisionDate != nil && len(a.Minutes) > 0, dErrors.Violation{
			Code: CodeDecisionIncomplete, Message: "the decision date and the minutes are required",
		}),
	)
}

// RecordDecision checks the instance and stamps it. The outcome itself is a
// doctorate transition.
func (a *Admissibility) RecordDecision(now time.Time) error {
	if err := a.VerifyForDecision(); err != nil {
		return err
	}
	a.UpdatedAt = now
	return nil
}

func (a *Admissibility) Deactivate(now time.Time) {
	a.Active = false
	a.UpdatedAt = now
}

func (a *Admissibility) Clone() *Admissibility {
	c := *a
	c.JuryOpinion = slices.Clone(a.JuryOpinion)
	c.Minutes = slices.Clone(a.Minutes)
	c.MinutesCanvas = slices.Clone(a.MinutesCanvas)
	return &c
}
