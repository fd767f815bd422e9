package service

import (
	"time"

	"parcours/internal/training/models"
	id "parcours/pkg/domain"
)

// ActivityFields are the editable fields of an activity. Which ones are
// required depends on the category.
type ActivityFields struct {
	ECTS              string     `json:"ects" validate:"omitempty,numeric"`
	Title             string     `json:"title"`
	Subtype           string     `json:"subtype"`
	Participation     string     `json:"participation"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	City              string     `json:"city"`
	Country           string     `json:"country"`
	Organizer         string     `json:"organizer"`
	Website           string     `json:"website" validate:"omitempty,url"`
	Authors           string     `json:"authors"`
	Journal           string     `json:"journal"`
	PublicationStatus string     `json:"publication_status"`
	Hours             string     `json:"hours"`
	Summary           string     `json:"summary"`
	CourseAcronym     string     `json:"course_acronym"`
	AcademicYear      int        `json:"academic_year"`
	Documents         []string   `json:"documents"`
}

type CreateActivity struct {
	DoctorateID id.DoctorateID  `json:"doctorate_id" validate:"required"`
	Context     models.Context  `json:"context" validate:"required"`
	Category    models.Category `json:"category" validate:"required"`
	ParentID    id.ActivityID   `json:"parent_id"`
	ActivityFields
}

type ModifyActivity struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	ActivityID  id.ActivityID  `json:"activity_id" validate:"required"`
	ActivityFields
}

type DeleteActivity struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	ActivityID  id.ActivityID  `json:"activity_id" validate:"required"`
}

type SubmitActivities struct {
	DoctorateID id.DoctorateID  `json:"doctorate_id" validate:"required"`
	ActivityIDs []id.ActivityID `json:"activity_ids" validate:"required,min=1"`
}

type AcceptActivities struct {
	DoctorateID id.DoctorateID  `json:"doctorate_id" validate:"required"`
	ActivityIDs []id.ActivityID `json:"activity_ids" validate:"required,min=1"`
}

type RefuseActivity struct {
	DoctorateID      id.DoctorateID `json:"doctorate_id" validate:"required"`
	ActivityID       id.ActivityID  `json:"activity_id" validate:"required"`
	WithModification bool           `json:"with_modification"`
	Remark           string         `json:"remark"`
}

type RevertActivity struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	ActivityID  id.ActivityID  `json:"activity_id" validate:"required"`
}

type RecordSupervisorOpinion struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	ActivityID  id.ActivityID  `json:"activity_id" validate:"required"`
	Approval    bool           `json:"approval"`
	Comment     string         `json:"comment"`
}

type Enroll struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	ActivityID  id.ActivityID  `json:"activity_id" validate:"required"`
	Year        int            `json:"year" validate:"required,gt=0"`
	Session     models.Session `json:"session" validate:"required,oneof=JANVIER JUIN SEPTEMBRE"`
	Late        bool           `json:"late"`
}

// Unenroll cancels an enrollment. The encoding period of the session comes
// from the academic calendar and is optional.
type Unenroll struct {
	DoctorateID    id.DoctorateID         `json:"doctorate_id" validate:"required"`
	EnrollmentID   id.EnrollmentID        `json:"enrollment_id" validate:"required"`
	EncodingPeriod *models.EncodingPeriod `json:"encoding_period"`
}

type Reenroll struct {
	DoctorateID  id.DoctorateID  `json:"doctorate_id" validate:"required"`
	EnrollmentID id.EnrollmentID `json:"enrollment_id" validate:"required"`
	Late         bool            `json:"late"`
}

type EncodeMark struct {
	DoctorateID  id.DoctorateID  `json:"doctorate_id" validate:"required"`
	EnrollmentID id.EnrollmentID `json:"enrollment_id" validate:"required"`
	Mark         string          `json:"mark" validate:"required"`
}

type CorrectMark struct {
	DoctorateID  id.DoctorateID  `json:"doctorate_id" validate:"required"`
	EnrollmentID id.EnrollmentID `json:"enrollment_id" validate:"required"`
	Mark         string          `json:"mark" validate:"required"`
}
