package models

import (
	"fmt"
	"strings"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

// Session is an assessment session of the academic year.
type Session string

const (
	SessionJanuary   Session = "JANVIER"
	SessionJune      Session = "JUIN"
	SessionSeptember Session = "SEPTEMBRE"
)

func (s Session) IsValid() bool {
	switch s {
	case SessionJanuary, SessionJune, SessionSeptember:
		return true
	}
	return false
}

// EnrollmentStatus is the state of an assessment enrollment.
type EnrollmentStatus string

const (
	EnrollmentAccepted     EnrollmentStatus = "ACCEPTEE"
	EnrollmentUnsubscribed EnrollmentStatus = "DESINSCRITE"
)

// privateDefenseMargin is how long before the private defense teachers must
// have encoded the mark.
const privateDefenseMargin = 2 * 24 * time.Hour

// EncodingPeriod is the window during which teachers encode marks for a
// session.
type EncodingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EnrollmentKey identifies an enrollment in the course catalogue.
type EnrollmentKey struct {
	Year          int          `json:"year"`
	Session       Session      `json:"session"`
	CourseAcronym string       `json:"course_acronym"`
	Student       id.Matricule `json:"student"`
}

func (k EnrollmentKey) String() string {
	return fmt.Sprintf("%d/%s/%s/%s", k.Year, k.Session, strings.ToUpper(k.CourseAcronym), k.Student)
}

// Enrollment registers a student to a course assessment session. The linked
// activity is the UCL_COURSE activity the mark completes.
type Enrollment struct {
	ID               id.EnrollmentID  `json:"id"`
	DoctorateID      id.DoctorateID   `json:"doctorate_id"`
	ActivityID       id.ActivityID    `json:"activity_id"`
	Key              EnrollmentKey    `json:"key"`
	Status           EnrollmentStatus `json:"status"`
	LateEnrollment   bool             `json:"late_enrollment"`
	LateUnenrollment bool             `json:"late_unenrollment"`
	SubmittedMark    string           `json:"submitted_mark,omitempty"`
	CorrectedMark    string           `json:"corrected_mark,omitempty"`
	TeacherDeadline  *time.Time       `json:"teacher_deadline,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Enroll registers the student. late is set when the enrollment happens
// outside the regular enrollment window.
func Enroll(enrollmentID id.EnrollmentID, activity *Activity, key EnrollmentKey, late bool, now time.Time) (*Enrollment, error) {
	if enrollmentID.IsNil() || activity == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "enrollment requires an id and an activity")
	}
	err := validation.List{
		Contract: []validation.Rule{
			validation.Require(key.Session.IsValid(), dErrors.Violation{
				Code: CodeIncomplete, Field: "session", Message: "unknown assessment session",
			}),
			validation.Require(!blank(key.CourseAcronym) && key.Year > 0 && !key.Student.IsZero(), dErrors.Violation{
				Code: CodeIncomplete, Field: "key", Message: "course, year and student are required",
			}),
		},
		Invariants: []validation.Rule{
			validation.Require(activity.Category == CategoryUCLCourse, dErrors.Violation{
				Code: CodeInvalidParent, Field: "activity_id", Message: "only a UCL course can be assessed",
				EntityID: activity.ID.String(),
			}),
		},
	}.Validate()
	if err != nil {
		return nil, err
	}
	return &Enrollment{
		ID:             enrollmentID,
		DoctorateID:    activity.DoctorateID,
		ActivityID:     activity.ID,
		Key:            key,
		Status:         EnrollmentAccepted,
		LateEnrollment: late,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsActive reports whether the student is still enrolled.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentAccepted
}

// TeacherDeadline is the last day teachers may encode the mark: two days
// before the private defense, bounded by the end of the encoding period.
// It is nil when neither date is known.
func TeacherDeadline(period *EncodingPeriod, privateDefense *time.Time) *time.Time {
	var deadline *time.Time
	if privateDefense != nil {
		d := dateOnly(privateDefense.Add(-privateDefenseMargin))
		deadline = &d
	}
	if period != nil {
		end := dateOnly(period.End)
		if deadline == nil || end.Before(*deadline) {
			deadline = &end
		}
	}
	return deadline
}

// IsLateUnenrollment reports whether unenrolling at now happens once the
// encoding period has started.
func IsLateUnenrollment(period *EncodingPeriod, now time.Time) bool {
	return period != nil && !dateOnly(now).Before(dateOnly(period.Start))
}

// Unenroll cancels the enrollment and records whether it came late.
func (e *Enrollment) Unenroll(period *EncodingPeriod, privateDefense *time.Time, now time.Time) error {
	err := validation.Validate(validation.Require(e.IsActive(), dErrors.Violation{
		Code: CodeEnrollmentCancelled, Message: "the enrollment is already cancelled", EntityID: e.ID.String(),
	}))
	if err != nil {
		return err
	}
	e.Status = EnrollmentUnsubscribed
	e.LateUnenrollment = IsLateUnenrollment(period, now)
	e.TeacherDeadline = TeacherDeadline(period, privateDefense)
	e.UpdatedAt = now
	return nil
}

// Reenroll restores a cancelled enrollment.
func (e *Enrollment) Reenroll(late bool, now time.Time) error {
	err := validation.Validate(validation.Require(!e.IsActive(), dErrors.Violation{
		Code: CodeEnrollmentActive, Message: "the student is already enrolled", EntityID: e.ID.String(),
	}))
	if err != nil {
		return err
	}
	e.Status = EnrollmentAccepted
	e.LateEnrollment = late
	e.LateUnenrollment = false
	e.UpdatedAt = now
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
