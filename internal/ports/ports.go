// Package ports declares what the workflow services need from the outside
// world: repositories, the transaction boundary, the person directory and the
// notification and history sinks.
package ports

//go:generate mockgen -destination=mocks/mocks.go -package=mocks parcours/internal/ports Notifier,Directory,History,ReferenceSequence

import (
	"context"

	confirmation "parcours/internal/confirmation/models"
	defense "parcours/internal/defense/models"
	diffusion "parcours/internal/diffusion/models"
	doctorate "parcours/internal/doctorate/models"
	jury "parcours/internal/jury/models"
	supervision "parcours/internal/supervision/models"
	training "parcours/internal/training/models"
	id "parcours/pkg/domain"
)

// Repositories return sentinel.ErrNotFound (possibly wrapped) for unknown ids.

type DoctorateRepository interface {
	Get(ctx context.Context, doctorateID id.DoctorateID) (*doctorate.Doctorate, error)
	// Save assigns the reference on first save.
	Save(ctx context.Context, d *doctorate.Doctorate) error
	GetDTO(ctx context.Context, doctorateID id.DoctorateID) (doctorate.DoctorateDTO, error)
	List(ctx context.Context, filter doctorate.ListFilter) ([]doctorate.DoctorateDTO, error)
}

type SupervisionGroupRepository interface {
	GetByDoctorate(ctx context.Context, doctorateID id.DoctorateID) (*supervision.Group, error)
	Save(ctx context.Context, g *supervision.Group) error
}

type ConfirmationPaperRepository interface {
	Get(ctx context.Context, paperID id.ConfirmationPaperID) (*confirmation.Paper, error)
	ListByDoctorate(ctx context.Context, doctorateID id.DoctorateID) ([]*confirmation.Paper, error)
	GetActive(ctx context.Context, doctorateID id.DoctorateID) (*confirmation.Paper, error)
	Save(ctx context.Context, p *confirmation.Paper) error
}

type ActivityRepository interface {
	Get(ctx context.Context, activityID id.ActivityID) (*training.Activity, error)
	GetMany(ctx context.Context, activityIDs []id.ActivityID) ([]*training.Activity, error)
	ListChildren(ctx context.Context, parentID id.ActivityID) ([]*training.Activity, error)
	ListByDoctorate(ctx context.Context, doctorateID id.DoctorateID) ([]*training.Activity, error)
	Save(ctx context.Context, a *training.Activity) error
	Delete(ctx context.Context, activityID id.ActivityID) error
}

type EnrollmentRepository interface {
	Get(ctx context.Context, enrollmentID id.EnrollmentID) (*training.Enrollment, error)
	ListByDoctorate(ctx context.Context, doctorateID id.DoctorateID) ([]*training.Enrollment, error)
	Save(ctx context.Context, e *training.Enrollment) error
}

type EvaluationRepository interface {
	Get(ctx context.Context, evaluationID id.EvaluationID) (*training.Evaluation, error)
	GetByEnrollment(ctx context.Context, enrollmentID id.EnrollmentID) (*training.Evaluation, error)
	Save(ctx context.Context, e *training.Evaluation) error
}

type JuryRepository interface {
	Get(ctx context.Context, juryID id.JuryID) (*jury.Jury, error)
	GetByDoctorate(ctx context.Context, doctorateID id.DoctorateID) (*jury.Jury, error)
	Save(ctx context.Context, j *jury.Jury) error
}

type AuthorizationRepository interface {
	Get(ctx context.Context, authID id.AuthorizationID) (*diffusion.Authorization, error)
	GetByDoctorate(ctx context.Context, doctorateID id.DoctorateID) (*diffusion.Authorization, error)
	Save(ctx context.Context, a *diffusion.Authorization) error
}

type PrivateDefenseRepository interface {
	GetActive(ctx context.Context, doctorateID id.DoctorateID) (*defense.PrivateDefense, error)
	List(ctx context.Context, doctorateID id.DoctorateID) ([]*defense.PrivateDefense, error)
	Save(ctx context.Context, p *defense.PrivateDefense) error
}

type AdmissibilityRepository interface {
	GetActive(ctx context.Context, doctorateID id.DoctorateID) (*defense.Admissibility, error)
	List(ctx context.Context, doctorateID id.DoctorateID) ([]*defense.Admissibility, error)
	Save(ctx context.Context, a *defense.Admissibility) error
}

// Stores is the set of repositories bound to one transaction.
type Stores struct {
	Doctorates      DoctorateRepository
	Groups          SupervisionGroupRepository
	Papers          ConfirmationPaperRepository
	Activities      ActivityRepository
	Enrollments     EnrollmentRepository
	Evaluations     EvaluationRepository
	Juries          JuryRepository
	Authorizations  AuthorizationRepository
	PrivateDefenses PrivateDefenseRepository
	Admissibilities AdmissibilityRepository
	Notifier        Notifier
	History         History
}

// UnitOfWork runs fn in one transaction. Any error returned by fn rolls back
// every write, notifications and history entries included.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(stores Stores) error) error
}
