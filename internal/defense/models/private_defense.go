package models

import (
	"slices"
	"strings"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

const (
	CodePrivateDefenseNotFound     = "DEFENSE-PRIVEE-1"
	CodePrivateDefenseIncomplete   = "DEFENSE-PRIVEE-2"
	CodePrivateDefenseInactive     = "DEFENSE-PRIVEE-3"
	CodeStatusNotDefenseSubmitted  = "DEFENSE-PRIVEE-4"
	CodeStatusNotDefenseAuthorized = "DEFENSE-PRIVEE-5"
)

// PrivateDefense is one private defense round. Only the active instance of a
// doctorate can be edited; retries archive it and start a new one.
type PrivateDefense struct {
	ID                       id.PrivateDefenseID `json:"id"`
	DoctorateID              id.DoctorateID      `json:"doctorate_id"`
	Active                   bool                `json:"active"`
	Datetime                 *time.Time          `json:"datetime,omitempty"`
	Place                    string              `json:"place,omitempty"`
	ManuscriptSubmissionDate *time.Time          `json:"manuscript_submission_date,omitempty"`
	Minutes                  []string            `json:"minutes,omitempty"`
	MinutesCanvas            []string            `json:"minutes_canvas,omitempty"`
	CreatedAt                time.Time           `json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`
}

// NewPrivateDefense starts an active, empty private defense.
func NewPrivateDefense(defenseID id.PrivateDefenseID, doctorateID id.DoctorateID, now time.Time) (*PrivateDefense, error) {
	if defenseID.IsNil() || doctorateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "private defense requires ids")
	}
	return &PrivateDefense{ID: defenseID, DoctorateID: doctorateID, Active: true, CreatedAt: now, UpdatedAt: now}, nil
}

func isActive(active bool, code string) validation.Rule {
	return validation.Require(active, dErrors.Violation{Code: code, Message: "this instance is no longer active"})
}

// PrivateDefenseForm is what the student submits.
type PrivateDefenseForm struct {
	ThesisTitle              string     `json:"thesis_title"`
	Datetime                 *time.Time `json:"datetime"`
	Place                    string     `json:"place"`
	ManuscriptSubmissionDate *time.Time `json:"manuscript_submission_date,omitempty"`
}

// VerifySubmission checks the form can be submitted on this instance.
func (p *PrivateDefense) VerifySubmission(f PrivateDefenseForm) error {
	return validation.Validate(
		validation.Require(f.Datetime != nil && strings.TrimSpace(f.ThesisTitle) != "", dErrors.Violation{
			Code: CodePrivateDefenseIncomplete, Message: "the thesis title and the defense date are required",
		}),
		isActive(p.Active, CodePrivateDefenseInactive),
	)
}

// SubmitForm stores the defense date and place.
func (p *PrivateDefense) SubmitForm(f PrivateDefenseForm, now time.Time) error {
	if err := p.VerifySubmission(f); err != nil {
		return err
	}
	p.Datetime = f.Datetime
	p.Place = f.Place
	p.ManuscriptSubmissionDate = f.ManuscriptSubmissionDate
	p.UpdatedAt = now
	return nil
}

// SubmitMinutes stores the minutes of the active defense. Submitting the same
// files again reports no change.
func (p *PrivateDefense) SubmitMinutes(minutes []string, now time.Time) (bool, error) {
	if err := validation.Validate(isActive(p.Active, CodePrivateDefenseInactive)); err != nil {
		return false, err
	}
	if slices.Equal(p.Minutes, minutes) {
		return false, nil
	}
	p.Minutes = slices.Clone(minutes)
	p.UpdatedAt = now
	return true, nil
}

// Deactivate archives the defense.
func (p *PrivateDefense) Deactivate(now time.Time) {
	p.Active = false
	p.UpdatedAt = now
}

func (p *PrivateDefense) Clone() *PrivateDefense {
	c := *p
	c.Minutes = slices.Clone(p.Minutes)
	c.MinutesCanvas = slices.Clone(p.MinutesCanvas)
	return &c
}
