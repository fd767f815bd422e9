package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

// Context is the training programme an activity counts towards.
type Context string

const (
	ContextDoctoralTraining      Context = "DOCTORAL_TRAINING"
	ContextComplementaryTraining Context = "COMPLEMENTARY_TRAINING"
	ContextFreeCourse            Context = "FREE_COURSE"
)

func (c Context) IsValid() bool {
	switch c {
	case ContextDoctoralTraining, ContextComplementaryTraining, ContextFreeCourse:
		return true
	}
	return false
}

// Category is the kind of activity.
type Category string

const (
	CategoryConference    Category = "CONFERENCE"
	CategoryCommunication Category = "COMMUNICATION"
	CategoryPublication   Category = "PUBLICATION"
	CategoryService       Category = "SERVICE"
	CategorySeminar       Category = "SEMINAR"
	CategoryResidency     Category = "RESIDENCY"
	CategoryCourse        Category = "COURSE"
	CategoryPaper         Category = "PAPER"
	CategoryUCLCourse     Category = "UCL_COURSE"
	CategoryValorisation  Category = "VALORISATION"
	CategoryVAE           Category = "VAE"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryConference, CategoryCommunication, CategoryPublication, CategoryService, CategorySeminar,
		CategoryResidency, CategoryCourse, CategoryPaper, CategoryUCLCourse, CategoryValorisation, CategoryVAE:
		return true
	}
	return false
}

// Status is the review status of an activity.
type Status string

const (
	StatusNotSubmitted Status = "NON_SOUMISE"
	StatusSubmitted    Status = "SOUMISE"
	StatusAccepted     Status = "ACCEPTEE"
	StatusRefused      Status = "REFUSEE"
)

const (
	CodeIncomplete          = "FORMATION-1"
	CodeAlreadySubmitted    = "FORMATION-2"
	CodeActivityNotFound    = "FORMATION-3"
	CodeMustBeNotSubmitted  = "FORMATION-4"
	CodeMustBeSubmitted     = "FORMATION-5"
	CodeRemarkRequired      = "FORMATION-6"
	CodeMustBeReviewed      = "FORMATION-7"
	CodeECTSNegative        = "FORMATION-8"
	CodeEnrollmentNotFound  = "FORMATION-9"
	CodeCourseNotCompleted  = "FORMATION-10"
	CodeInvalidParent       = "FORMATION-11"
	CodeEnrollmentCancelled = "FORMATION-12"
	CodeEnrollmentActive    = "FORMATION-13"
)

// Activity is a doctoral training activity. Seminars, conferences and
// residencies may hold child activities (communications, publications).
type Activity struct {
	ID              id.ActivityID   `json:"id"`
	DoctorateID     id.DoctorateID  `json:"doctorate_id"`
	ParentID        id.ActivityID   `json:"parent_id"`
	ParentCategory  Category        `json:"parent_category,omitempty"`
	Context         Context         `json:"context"`
	Category        Category        `json:"category"`
	Status          Status          `json:"status"`
	ECTS            decimal.Decimal `json:"ects"`
	CourseCompleted bool            `json:"course_completed"`

	Title             string     `json:"title,omitempty"`
	Subtype           string     `json:"subtype,omitempty"`
	Participation     string     `json:"participation,omitempty"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	City              string     `json:"city,omitempty"`
	Country           string     `json:"country,omitempty"`
	Organizer         string     `json:"organizer,omitempty"`
	Website           string     `json:"website,omitempty"`
	Authors           string     `json:"authors,omitempty"`
	Journal           string     `json:"journal,omitempty"`
	PublicationStatus string     `json:"publication_status,omitempty"`
	Hours             string     `json:"hours,omitempty"`
	Summary           string     `json:"summary,omitempty"`
	CourseAcronym     string     `json:"course_acronym,omitempty"`
	AcademicYear      int        `json:"academic_year,omitempty"`
	Documents         []string   `json:"documents,omitempty"`

	SupervisorApproval *bool  `json:"supervisor_approval,omitempty"`
	SupervisorComment  string `json:"supervisor_comment,omitempty"`
	ManagerComment     string `json:"manager_comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewActivity creates an unsubmitted activity. A child takes its parent
// category so completeness and refusal rules can depend on it.
func NewActivity(activityID id.ActivityID, doctorateID id.DoctorateID, ctx Context, category Category, parent *Activity, now time.Time) (*Activity, error) {
	if activityID.IsNil() || doctorateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "activity requires ids")
	}
	if !ctx.IsValid() || !category.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid activity context or category")
	}
	a := &Activity{
		ID:          activityID,
		DoctorateID: doctorateID,
		Context:     ctx,
		Category:    category,
		Status:      StatusNotSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if parent != nil {
		if parent.DoctorateID != doctorateID || !parent.ParentID.IsNil() {
			return nil, dErrors.NewViolations(dErrors.Violation{
				Code: CodeInvalidParent, Message: "the parent activity must be a top-level activity of the same doctorate",
			})
		}
		a.ParentID = parent.ID
		a.ParentCategory = parent.Category
		a.Context = parent.Context
	}
	return a, nil
}

// IsChild reports whether the activity belongs to a parent activity.
func (a *Activity) IsChild() bool {
	return !a.ParentID.IsNil()
}

// Submit marks the activity as submitted. Callers check submittability first.
func (a *Activity) Submit(now time.Time) {
	a.Status = StatusSubmitted
	a.UpdatedAt = now
}

// Accept validates a submitted activity. A UCL course is accepted only once
// its assessment is completed.
func (a *Activity) Accept(now time.Time) error {
	err := validation.Validate(
		validation.Require(a.Status == StatusSubmitted, dErrors.Violation{
			Code: CodeMustBeSubmitted, Message: "this activity must be submitted",
		}),
		validation.Require(a.Category != CategoryUCLCourse || a.CourseCompleted, dErrors.Violation{
			Code: CodeCourseNotCompleted, Message: "the related course assessment is not completed",
		}),
	)
	if err != nil {
		return err
	}
	a.Status = StatusAccepted
	a.UpdatedAt = now
	return nil
}

// Refuse rejects a submitted activity. With modification the student can
// correct and resubmit it. The remark is kept as manager comment except for
// seminar communications, which share the seminar's review.
func (a *Activity) Refuse(withModification bool, remark string, now time.Time) error {
	err := validation.Validate(
		validation.Require(a.Status == StatusSubmitted, dErrors.Violation{
			Code: CodeMustBeSubmitted, Message: "this activity must be submitted",
		}),
		validation.Require(!blank(remark), dErrors.Violation{
			Code: CodeRemarkRequired, Field: "remark", Message: "a comment is required",
		}),
	)
	if err != nil {
		return err
	}
	if withModification {
		a.Status = StatusNotSubmitted
	} else {
		a.Status = StatusRefused
	}
	if a.ParentCategory != CategorySeminar {
		a.ManagerComment = remark
	}
	a.UpdatedAt = now
	return nil
}

// RevertToSubmitted puts a reviewed activity back to submitted.
func (a *Activity) RevertToSubmitted(now time.Time) error {
	err := validation.Validate(validation.Require(a.Status == StatusAccepted || a.Status == StatusRefused, dErrors.Violation{
		Code: CodeMustBeReviewed, Message: "this activity must be either accepted or refused",
	}))
	if err != nil {
		return err
	}
	a.Status = StatusSubmitted
	a.UpdatedAt = now
	return nil
}

// RecordSupervisorOpinion stores the lead promoter's opinion.
func (a *Activity) RecordSupervisorOpinion(approval bool, comment string, now time.Time) {
	a.SupervisorApproval = &approval
	a.SupervisorComment = comment
	a.UpdatedAt = now
}

// PassingMark is the lowest mark completing a UCL course.
var PassingMark = decimal.NewFromInt(10)

// EncodeUCLCourseMark flips CourseCompleted when the mark is a decimal of at
// least 10. Non numeric marks such as "S" leave the activity unchanged.
func (a *Activity) EncodeUCLCourseMark(mark string, now time.Time) bool {
	m, err := decimal.NewFromString(mark)
	if err != nil || m.LessThan(PassingMark) {
		return false
	}
	if !a.CourseCompleted {
		a.CourseCompleted = true
		a.UpdatedAt = now
	}
	return true
}

// CheckDeletable rejects deleting a submitted activity or one whose children
// were submitted. Every offending child is reported.
func (a *Activity) CheckDeletable(children []*Activity) error {
	rules := []validation.Rule{validation.Require(a.Status == StatusNotSubmitted, dErrors.Violation{
		Code: CodeAlreadySubmitted, Message: "this activity has been submitted", EntityID: a.ID.String(),
	})}
	for _, c := range children {
		rules = append(rules, validation.Require(c.Status == StatusNotSubmitted, dErrors.Violation{
			Code: CodeAlreadySubmitted, Message: "a child activity has been submitted", EntityID: c.ID.String(),
		}))
	}
	return validation.Validate(rules...)
}

// TotalECTS sums the credits of accepted doctoral-training activities.
func TotalECTS(activities []*Activity) decimal.Decimal {
	total := decimal.Zero
	for _, a := range activities {
		if a.Status == StatusAccepted && a.Context == ContextDoctoralTraining {
			total = total.Add(a.ECTS)
		}
	}
	return total
}

// ParseECTS reads a credit amount with one fractional digit.
func ParseECTS(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "invalid ECTS amount")
	}
	if d.IsNegative() {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "ECTS must be positive")
	}
	return d.Round(1), nil
}
