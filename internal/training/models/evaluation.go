package models

import (
	"strings"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
)

// Evaluation is the mark a teacher encodes for an enrollment.
type Evaluation struct {
	ID            id.EvaluationID `json:"id"`
	EnrollmentID  id.EnrollmentID `json:"enrollment_id"`
	DoctorateID   id.DoctorateID  `json:"doctorate_id"`
	ActivityID    id.ActivityID   `json:"activity_id"`
	SubmittedMark string          `json:"submitted_mark,omitempty"`
	CorrectedMark string          `json:"corrected_mark,omitempty"`
	EncodedAt     *time.Time      `json:"encoded_at,omitempty"`
}

// NewEvaluation opens the evaluation of an active enrollment.
func NewEvaluation(evaluationID id.EvaluationID, e *Enrollment) (*Evaluation, error) {
	if evaluationID.IsNil() || e == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evaluation requires an id and an enrollment")
	}
	if !e.IsActive() {
		return nil, dErrors.NewViolations(dErrors.Violation{
			Code: CodeEnrollmentCancelled, Message: "the enrollment is cancelled", EntityID: e.ID.String(),
		})
	}
	return &Evaluation{ID: evaluationID, EnrollmentID: e.ID, DoctorateID: e.DoctorateID, ActivityID: e.ActivityID}, nil
}

// EncodeMark records the submitted mark on the evaluation and the enrollment
// and completes the linked UCL course when the mark passes. It reports
// whether the course got completed.
func (ev *Evaluation) EncodeMark(mark string, enrollment *Enrollment, course *Activity, now time.Time) (bool, error) {
	mark = strings.TrimSpace(mark)
	if mark == "" {
		return false, dErrors.NewViolations(dErrors.Violation{Code: CodeIncomplete, Field: "mark", Message: "the mark is required"})
	}
	if enrollment == nil || enrollment.ID != ev.EnrollmentID || course == nil || course.ID != ev.ActivityID {
		return false, dErrors.New(dErrors.CodeInvariantViolation, "evaluation does not match its enrollment or course")
	}
	ev.SubmittedMark = mark
	ev.EncodedAt = &now
	enrollment.SubmittedMark = mark
	enrollment.UpdatedAt = now
	return course.EncodeUCLCourseMark(mark, now), nil
}

// CorrectMark records a corrected mark after deliberation.
func (ev *Evaluation) CorrectMark(mark string, enrollment *Enrollment, course *Activity, now time.Time) bool {
	ev.CorrectedMark = strings.TrimSpace(mark)
	if enrollment != nil {
		enrollment.CorrectedMark = ev.CorrectedMark
		enrollment.UpdatedAt = now
	}
	if course == nil {
		return false
	}
	return course.EncodeUCLCourseMark(ev.CorrectedMark, now)
}
