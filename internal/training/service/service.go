// Package service runs the doctoral training workflow: activities and their
// review, course assessment enrollments and marks.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/ports"
	"parcours/internal/training/models"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/sentinel"
	"parcours/pkg/requestcontext"
)

const aggregate = "formation"

type Service struct {
	uow    ports.UnitOfWork
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(uow ports.UnitOfWork, opts ...Option) *Service {
	s := &Service{uow: uow, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type state struct {
	stores ports.Stores
	d      *doctorate.Doctorate
	now    time.Time
}

// activity loads an activity and checks it belongs to the doctorate.
func (st *state) activity(ctx context.Context, activityID id.ActivityID) (*models.Activity, error) {
	a, err := st.stores.Activities.Get(ctx, activityID)
	if err == nil && a.DoctorateID != st.d.ID {
		err = sentinel.ErrNotFound
	}
	if err != nil {
		return nil, ports.Lookup(err, "activity", models.CodeActivityNotFound)
	}
	return a, nil
}

func (st *state) enrollment(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error) {
	e, err := st.stores.Enrollments.Get(ctx, enrollmentID)
	if err == nil && e.DoctorateID != st.d.ID {
		err = sentinel.ErrNotFound
	}
	if err != nil {
		return nil, ports.Lookup(err, "enrollment", models.CodeEnrollmentNotFound)
	}
	return e, nil
}

func (st *state) children(ctx context.Context, a *models.Activity) ([]*models.Activity, error) {
	children, err := st.stores.Activities.ListChildren(ctx, a.ID)
	if err != nil {
		return nil, ports.Lookup(err, "activity", "")
	}
	return children, nil
}

// run loads the doctorate, applies fn and records a history entry. Training
// steps never change the doctorate status.
func (s *Service) run(ctx context.Context, doctorateID id.DoctorateID, step, message string,
	fn func(ctx context.Context, st *state) error) error {
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		st := &state{stores: stores, d: d, now: requestcontext.Now(ctx)}
		if err := fn(ctx, st); err != nil {
			return err
		}
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), st.now, message, false, aggregate, step)
	})
	if err == nil {
		s.logger.DebugContext(ctx, "training step recorded", "doctorate_id", doctorateID.String(), "step", step)
	}
	return err
}

func (f ActivityFields) apply(a *models.Activity, now time.Time) error {
	ects := decimal.Zero
	if f.ECTS != "" {
		parsed, err := models.ParseECTS(f.ECTS)
		if err != nil {
			return err
		}
		ects = parsed
	}
	a.ECTS = ects
	a.Title = f.Title
	a.Subtype = f.Subtype
	a.Participation = f.Participation
	a.StartDate = f.StartDate
	a.EndDate = f.EndDate
	a.City = f.City
	a.Country = f.Country
	a.Organizer = f.Organizer
	a.Website = f.Website
	a.Authors = f.Authors
	a.Journal = f.Journal
	a.PublicationStatus = f.PublicationStatus
	a.Hours = f.Hours
	a.Summary = f.Summary
	a.CourseAcronym = f.CourseAcronym
	a.AcademicYear = f.AcademicYear
	a.Documents = f.Documents
	a.UpdatedAt = now
	return nil
}

func (s *Service) CreateActivity(ctx context.Context, cmd CreateActivity) (models.Activity, error) {
	var out models.Activity
	err := s.run(ctx, cmd.DoctorateID, "activity-created", "a training activity has been created",
		func(ctx context.Context, st *state) error {
			var parent *models.Activity
			if !cmd.ParentID.IsNil() {
				p, err := st.activity(ctx, cmd.ParentID)
				if err != nil {
					return err
				}
				parent = p
			}
			a, err := models.NewActivity(id.NewActivityID(), st.d.ID, cmd.Context, cmd.Category, parent, st.now)
			if err != nil {
				return err
			}
			if err := cmd.apply(a, st.now); err != nil {
				return err
			}
			out = *a
			return ports.Persist(st.stores.Activities.Save(ctx, a), "activity")
		})
	return out, err
}

// ModifyActivity replaces the fields of an unsubmitted activity.
func (s *Service) ModifyActivity(ctx context.Context, cmd ModifyActivity) (models.Activity, error) {
	var out models.Activity
	err := s.run(ctx, cmd.DoctorateID, "activity-modified", "a training activity has been modified",
		func(ctx context.Context, st *state) error {
			a, err := st.activity(ctx, cmd.ActivityID)
			if err != nil {
				return err
			}
			if a.Status != models.StatusNotSubmitted {
				return dErrors.NewViolations(dErrors.Violation{
					Code: models.CodeMustBeNotSubmitted, Message: "this activity must be unsubmitted", EntityID: a.ID.String(),
				})
			}
			if err := cmd.apply(a, st.now); err != nil {
				return err
			}
			out = *a
			return ports.Persist(st.stores.Activities.Save(ctx, a), "activity")
		})
	return out, err
}

// DeleteActivity removes an unsubmitted activity and its children.
func (s *Service) DeleteActivity(ctx context.Context, cmd DeleteActivity) error {
	return s.run(ctx, cmd.DoctorateID, "activity-deleted", "a training activity has been deleted",
		func(ctx context.Context, st *state) error {
			a, err := st.activity(ctx, cmd.ActivityID)
			if err != nil {
				return err
			}
			children, err := st.children(ctx, a)
			if err != nil {
				return err
			}
			if err := a.CheckDeletable(children); err != nil {
				return err
			}
			for _, c := range children {
				if err := ports.Persist(st.stores.Activities.Delete(ctx, c.ID), "activity"); err != nil {
					return err
				}
			}
			return ports.Persist(st.stores.Activities.Delete(ctx, a.ID), "activity")
		})
}

func (st *state) batch(ctx context.Context, ids []id.ActivityID) ([]*models.Activity, error) {
	activities, err := st.stores.Activities.GetMany(ctx, ids)
	if err != nil {
		return nil, ports.Lookup(err, "activity", models.CodeActivityNotFound)
	}
	for _, a := range activities {
		if a.DoctorateID != st.d.ID {
			return nil, ports.Lookup(sentinel.ErrNotFound, "activity", models.CodeActivityNotFound)
		}
	}
	return activities, nil
}

// SubmitActivities submits a batch. Every offending activity is reported at
// once; seminar children are submitted with their seminar.
func (s *Service) SubmitActivities(ctx context.Context, cmd SubmitActivities) ([]models.Activity, error) {
	var out []models.Activity
	err := s.run(ctx, cmd.DoctorateID, "activities-submitted", "training activities have been submitted",
		func(ctx context.Context, st *state) error {
			batch, err := st.batch(ctx, cmd.ActivityIDs)
			if err != nil {
				return err
			}
			children := map[id.ActivityID][]*models.Activity{}
			var lookupErr error
			err = models.VerifySubmission(batch, func(a *models.Activity) []*models.Activity {
				c, err := st.children(ctx, a)
				if err != nil {
					lookupErr = errors.Join(lookupErr, err)
				}
				children[a.ID] = c
				return c
			})
			if lookupErr != nil {
				return lookupErr
			}
			if err != nil {
				return err
			}
			submitted := make([]*models.Activity, 0, len(batch))
			for _, a := range batch {
				submitted = append(submitted, a)
				for _, c := range children[a.ID] {
					if c.Status == models.StatusNotSubmitted {
						submitted = append(submitted, c)
					}
				}
			}
			for _, a := range submitted {
				a.Submit(st.now)
				if err := ports.Persist(st.stores.Activities.Save(ctx, a), "activity"); err != nil {
					return err
				}
				out = append(out, *a)
			}
			g, err := st.stores.Groups.GetByDoctorate(ctx, st.d.ID)
			if err != nil {
				return ports.Lookup(err, "supervision group", "")
			}
			return st.stores.Notifier.NotifyActivitiesSubmitted(ctx, st.d.ToDTO(), g, batch)
		})
	return out, err
}

// AcceptActivities accepts a batch of submitted activities.
func (s *Service) AcceptActivities(ctx context.Context, cmd AcceptActivities) ([]models.Activity, error) {
	var out []models.Activity
	err := s.run(ctx, cmd.DoctorateID, "activities-accepted", "training activities have been accepted",
		func(ctx context.Context, st *state) error {
			batch, err := st.batch(ctx, cmd.ActivityIDs)
			if err != nil {
				return err
			}
			errs := &dErrors.Violations{}
			for _, a := range batch {
				if v, ok := dErrors.AsViolations(a.Accept(st.now)); ok {
					for _, item := range v.List {
						errs.Add(item.WithEntity(a.ID.String()))
					}
				}
			}
			if err := errs.ErrOrNil(); err != nil {
				return err
			}
			for _, a := range batch {
				if err := ports.Persist(st.stores.Activities.Save(ctx, a), "activity"); err != nil {
					return err
				}
				if err := st.stores.Notifier.NotifyActivityReviewed(ctx, st.d.ToDTO(), a); err != nil {
					return err
				}
				out = append(out, *a)
			}
			return nil
		})
	return out, err
}

func (s *Service) RefuseActivity(ctx context.Context, cmd RefuseActivity) (models.Activity, error) {
	return s.review(ctx, cmd.DoctorateID, cmd.ActivityID, "activity-refused", "a training activity has been refused", true,
		func(a *models.Activity, now time.Time) error {
			return a.Refuse(cmd.WithModification, cmd.Remark, now)
		})
}

func (s *Service) RevertActivity(ctx context.Context, cmd RevertActivity) (models.Activity, error) {
	return s.review(ctx, cmd.DoctorateID, cmd.ActivityID, "activity-reverted", "a training activity review has been cancelled", false,
		func(a *models.Activity, now time.Time) error {
			return a.RevertToSubmitted(now)
		})
}

func (s *Service) RecordSupervisorOpinion(ctx context.Context, cmd RecordSupervisorOpinion) (models.Activity, error) {
	return s.review(ctx, cmd.DoctorateID, cmd.ActivityID, "supervisor-opinion", "the lead promoter gave an opinion", false,
		func(a *models.Activity, now time.Time) error {
			a.RecordSupervisorOpinion(cmd.Approval, cmd.Comment, now)
			return nil
		})
}

func (s *Service) review(ctx context.Context, doctorateID id.DoctorateID, activityID id.ActivityID, step, message string,
	notify bool, fn func(a *models.Activity, now time.Time) error) (models.Activity, error) {
	var out models.Activity
	err := s.run(ctx, doctorateID, step, message, func(ctx context.Context, st *state) error {
		a, err := st.activity(ctx, activityID)
		if err != nil {
			return err
		}
		if err := fn(a, st.now); err != nil {
			return err
		}
		if err := ports.Persist(st.stores.Activities.Save(ctx, a), "activity"); err != nil {
			return err
		}
		out = *a
		if notify {
			return st.stores.Notifier.NotifyActivityReviewed(ctx, st.d.ToDTO(), a)
		}
		return nil
	})
	return out, err
}

// Enroll registers the student to the assessment of a UCL course activity.
func (s *Service) Enroll(ctx context.Context, cmd Enroll) (models.Enrollment, error) {
	var out models.Enrollment
	err := s.run(ctx, cmd.DoctorateID, "enrollment", "the student enrolled to a course assessment",
		func(ctx context.Context, st *state) error {
			a, err := st.activity(ctx, cmd.ActivityID)
			if err != nil {
				return err
			}
			e, err := models.Enroll(id.NewEnrollmentID(), a, models.EnrollmentKey{
				Year: cmd.Year, Session: cmd.Session, CourseAcronym: a.CourseAcronym, Student: st.d.Student.Matricule,
			}, cmd.Late, st.now)
			if err != nil {
				return err
			}
			out = *e
			return ports.Persist(st.stores.Enrollments.Save(ctx, e), "enrollment")
		})
	return out, err
}

// privateDefenseDate returns the date of the active private defense, if any.
func (st *state) privateDefenseDate(ctx context.Context) (*time.Time, error) {
	p, err := st.stores.PrivateDefenses.GetActive(ctx, st.d.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, ports.Lookup(err, "private defense", "")
	}
	return p.Datetime, nil
}

// Unenroll cancels an enrollment and computes the teacher deadline from the
// encoding period and the active private defense.
func (s *Service) Unenroll(ctx context.Context, cmd Unenroll) (models.Enrollment, error) {
	var out models.Enrollment
	err := s.run(ctx, cmd.DoctorateID, "unenrollment", "the student unenrolled from a course assessment",
		func(ctx context.Context, st *state) error {
			e, err := st.enrollment(ctx, cmd.EnrollmentID)
			if err != nil {
				return err
			}
			defenseDate, err := st.privateDefenseDate(ctx)
			if err != nil {
				return err
			}
			if err := e.Unenroll(cmd.EncodingPeriod, defenseDate, st.now); err != nil {
				return err
			}
			if err := ports.Persist(st.stores.Enrollments.Save(ctx, e), "enrollment"); err != nil {
				return err
			}
			out = *e
			return st.stores.Notifier.NotifyUnenrollment(ctx, st.d.ToDTO(), e)
		})
	return out, err
}

func (s *Service) Reenroll(ctx context.Context, cmd Reenroll) (models.Enrollment, error) {
	var out models.Enrollment
	err := s.run(ctx, cmd.DoctorateID, "reenrollment", "the student enrolled again to a course assessment",
		func(ctx context.Context, st *state) error {
			e, err := st.enrollment(ctx, cmd.EnrollmentID)
			if err != nil {
				return err
			}
			if err := e.Reenroll(cmd.Late, st.now); err != nil {
				return err
			}
			out = *e
			return ports.Persist(st.stores.Enrollments.Save(ctx, e), "enrollment")
		})
	return out, err
}

// MarkResult is the outcome of a mark encoding.
type MarkResult struct {
	Evaluation      models.Evaluation `json:"evaluation"`
	CourseCompleted bool              `json:"course_completed"`
}

func (s *Service) mark(ctx context.Context, doctorateID id.DoctorateID, enrollmentID id.EnrollmentID, step, message string,
	fn func(ev *models.Evaluation, e *models.Enrollment, course *models.Activity, now time.Time) (bool, error)) (MarkResult, error) {
	var out MarkResult
	err := s.run(ctx, doctorateID, step, message, func(ctx context.Context, st *state) error {
		e, err := st.enrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}
		course, err := st.activity(ctx, e.ActivityID)
		if err != nil {
			return err
		}
		ev, err := st.stores.Evaluations.GetByEnrollment(ctx, e.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			ev, err = models.NewEvaluation(id.NewEvaluationID(), e)
		}
		if err != nil {
			return ports.Lookup(err, "evaluation", "")
		}
		completed, err := fn(ev, e, course, st.now)
		if err != nil {
			return err
		}
		if err := ports.Persist(st.stores.Evaluations.Save(ctx, ev), "evaluation"); err != nil {
			return err
		}
		if err := ports.Persist(st.stores.Enrollments.Save(ctx, e), "enrollment"); err != nil {
			return err
		}
		if err := ports.Persist(st.stores.Activities.Save(ctx, course), "activity"); err != nil {
			return err
		}
		out = MarkResult{Evaluation: *ev, CourseCompleted: completed}
		return st.stores.Notifier.NotifyMarkEncodingToProgramManagers(ctx, st.d.ToDTO(), course, ev.SubmittedMark)
	})
	return out, err
}

// EncodeMark records the teacher's mark. A passing decimal mark completes the
// linked UCL course.
func (s *Service) EncodeMark(ctx context.Context, cmd EncodeMark) (MarkResult, error) {
	return s.mark(ctx, cmd.DoctorateID, cmd.EnrollmentID, "mark-encoded", "a course mark has been encoded",
		func(ev *models.Evaluation, e *models.Enrollment, course *models.Activity, now time.Time) (bool, error) {
			return ev.EncodeMark(cmd.Mark, e, course, now)
		})
}

func (s *Service) CorrectMark(ctx context.Context, cmd CorrectMark) (MarkResult, error) {
	return s.mark(ctx, cmd.DoctorateID, cmd.EnrollmentID, "mark-corrected", "a course mark has been corrected",
		func(ev *models.Evaluation, e *models.Enrollment, course *models.Activity, now time.Time) (bool, error) {
			return ev.CorrectMark(cmd.Mark, e, course, now), nil
		})
}

// Summary lists the activities of a doctorate with the accepted doctoral
// training credits.
type Summary struct {
	Activities  []models.Activity   `json:"activities"`
	Enrollments []models.Enrollment `json:"enrollments"`
	TotalECTS   decimal.Decimal     `json:"total_ects"`
}

func (s *Service) Summary(ctx context.Context, doctorateID id.DoctorateID) (Summary, error) {
	var out Summary
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		if _, err := ports.LoadDoctorate(ctx, stores, doctorateID); err != nil {
			return err
		}
		activities, err := stores.Activities.ListByDoctorate(ctx, doctorateID)
		if err != nil {
			return ports.Lookup(err, "activity", "")
		}
		enrollments, err := stores.Enrollments.ListByDoctorate(ctx, doctorateID)
		if err != nil {
			return ports.Lookup(err, "enrollment", "")
		}
		out.TotalECTS = models.TotalECTS(activities)
		for _, a := range activities {
			out.Activities = append(out.Activities, *a)
		}
		for _, e := range enrollments {
			out.Enrollments = append(out.Enrollments, *e)
		}
		return nil
	})
	return out, err
}
