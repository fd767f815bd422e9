// Package service drives the defense path once the jury is approved: the
// private defense and the public defense for formula 1, the admissibility and
// the combined defense for formula 2.
package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"parcours/internal/defense/models"
	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/platform/metrics"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/sentinel"
	"parcours/pkg/requestcontext"
)

const (
	tagPrivateDefense = "defense-privee"
	tagAdmissibility  = "recevabilite"
	tagPublicDefense  = "soutenance-publique"
)

type Service struct {
	uow     ports.UnitOfWork
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(uow ports.UnitOfWork, opts ...Option) *Service {
	s := &Service{uow: uow, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View is the defense state of a doctorate: its active instances and the
// public defense data.
type View struct {
	DoctorateID    id.DoctorateID          `json:"doctorate_id"`
	Status         doctorate.Status        `json:"status"`
	DefenseMethod  doctorate.DefenseMethod `json:"defense_method,omitempty"`
	ThesisTitle    string                  `json:"thesis_title,omitempty"`
	PrivateDefense *models.PrivateDefense  `json:"private_defense,omitempty"`
	Admissibility  *models.Admissibility   `json:"admissibility,omitempty"`
	PublicDefense  doctorate.PublicDefense `json:"public_defense"`
}

type state struct {
	stores        ports.Stores
	d             *doctorate.Doctorate
	private       *models.PrivateDefense
	admissibility *models.Admissibility
	now           time.Time
}

func (st *state) group(ctx context.Context) (*supervision.Group, error) {
	g, err := st.stores.Groups.GetByDoctorate(ctx, st.d.ID)
	if err != nil {
		return nil, ports.Lookup(err, "supervision group", "")
	}
	return g, nil
}

// activePrivateDefense loads the current private defense into the state.
func (st *state) activePrivateDefense(ctx context.Context) error {
	p, err := st.stores.PrivateDefenses.GetActive(ctx, st.d.ID)
	if err != nil {
		return ports.Lookup(err, "private defense", models.CodePrivateDefenseNotFound)
	}
	st.private = p
	return nil
}

func (st *state) activeAdmissibility(ctx context.Context) error {
	a, err := st.stores.Admissibilities.GetActive(ctx, st.d.ID)
	if err != nil {
		return ports.Lookup(err, "admissibility", models.CodeAdmissibilityNotFound)
	}
	st.admissibility = a
	return nil
}

// openPrivateDefense returns the instance a submission writes to. A
// resubmission or an instance never submitted is reused. Otherwise the
// current instance is archived and saved before a new one is started.
func (st *state) openPrivateDefense(ctx context.Context, resubmission bool) (*models.PrivateDefense, error) {
	current, err := st.stores.PrivateDefenses.GetActive(ctx, st.d.ID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return nil, ports.Lookup(err, "private defense", "")
	case resubmission || current.Datetime == nil:
		return current, nil
	default:
		current.Deactivate(st.now)
		if err := ports.Persist(st.stores.PrivateDefenses.Save(ctx, current), "private defense"); err != nil {
			return nil, err
		}
	}
	return models.NewPrivateDefense(id.NewPrivateDefenseID(), st.d.ID, st.now)
}

// openAdmissibility reuses the active instance only on a resubmission. Any
// other submission archives it and starts a new one.
func (st *state) openAdmissibility(ctx context.Context, resubmission bool) (*models.Admissibility, error) {
	current, err := st.stores.Admissibilities.GetActive(ctx, st.d.ID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return nil, ports.Lookup(err, "admissibility", "")
	case resubmission:
		return current, nil
	default:
		current.Deactivate(st.now)
		if err := ports.Persist(st.stores.Admissibilities.Save(ctx, current), "admissibility"); err != nil {
			return nil, err
		}
	}
	return models.NewAdmissibility(id.NewAdmissibilityID(), st.d.ID, st.now)
}

func requireStatus(d *doctorate.Doctorate, code, message string, allowed ...doctorate.Status) error {
	if slices.Contains(allowed, d.Status) {
		return nil
	}
	return dErrors.NewViolations(dErrors.Violation{Code: code, Field: "status", Message: message})
}

// view fills the instances fn did not touch.
func view(ctx context.Context, stores ports.Stores, d *doctorate.Doctorate,
	private *models.PrivateDefense, admissibility *models.Admissibility) (View, error) {
	if private == nil {
		p, err := stores.PrivateDefenses.GetActive(ctx, d.ID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return View{}, ports.Lookup(err, "private defense", "")
		}
		private = p
	}
	if admissibility == nil {
		a, err := stores.Admissibilities.GetActive(ctx, d.ID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return View{}, ports.Lookup(err, "admissibility", "")
		}
		admissibility = a
	}
	return View{
		DoctorateID:    d.ID,
		Status:         d.Status,
		DefenseMethod:  d.DefenseMethod,
		ThesisTitle:    d.ProposedThesisTitle,
		PrivateDefense: private,
		Admissibility:  admissibility,
		PublicDefense:  d.PublicDefense,
	}, nil
}

// run loads the doctorate, applies fn and saves the instances fn touched
// before the doctorate.
func (s *Service) run(ctx context.Context, doctorateID id.DoctorateID, tag, step, message string,
	fn func(ctx context.Context, st *state) error) (View, error) {
	var out View
	var before, after doctorate.Status
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		before = d.Status
		st := &state{stores: stores, d: d, now: requestcontext.Now(ctx)}
		if err := fn(ctx, st); err != nil {
			return err
		}
		if st.private != nil {
			if err := ports.Persist(stores.PrivateDefenses.Save(ctx, st.private), "private defense"); err != nil {
				return err
			}
		}
		if st.admissibility != nil {
			if err := ports.Persist(stores.Admissibilities.Save(ctx, st.admissibility), "admissibility"); err != nil {
				return err
			}
		}
		if err := ports.SaveDoctorate(ctx, stores, d); err != nil {
			return err
		}
		after = d.Status
		if out, err = view(ctx, stores, d, st.private, st.admissibility); err != nil {
			return err
		}
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), st.now,
			message, before != after, tag, step)
	})
	if err != nil {
		return View{}, err
	}
	if before != after {
		s.logger.InfoContext(ctx, "doctorate status changed",
			"doctorate_id", doctorateID.String(), "step", step, "status", after)
		if s.metrics != nil {
			s.metrics.IncrementTransition(after.String())
		}
	}
	return out, nil
}

// Get returns the defense state of a doctorate.
func (s *Service) Get(ctx context.Context, doctorateID id.DoctorateID) (View, error) {
	var out View
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		out, err = view(ctx, stores, d, nil, nil)
		return err
	})
	return out, err
}

// -----------------------------------------------------------------------------
// Private defense
// -----------------------------------------------------------------------------

// SubmitPrivateDefense stores the form on the active private defense and
// notifies the supervisors. Under formula 2 this submits the combined
// defense.
func (s *Service) SubmitPrivateDefense(ctx context.Context, cmd SubmitPrivateDefense) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPrivateDefense, "submission", "the private defense has been submitted",
		func(ctx context.Context, st *state) error {
			resubmission := st.d.Status == doctorate.StatusPrivateDefenseSubmitted ||
				st.d.Status == doctorate.StatusDefensesSubmitted
			p, err := st.openPrivateDefense(ctx, resubmission)
			if err != nil {
				return err
			}
			err = p.SubmitForm(models.PrivateDefenseForm{
				ThesisTitle:              cmd.ThesisTitle,
				Datetime:                 cmd.Datetime,
				Place:                    cmd.Place,
				ManuscriptSubmissionDate: cmd.ManuscriptSubmissionDate,
			}, st.now)
			if err != nil {
				return err
			}
			st.d.ProposeThesisTitle(cmd.ThesisTitle, st.now)
			if err := st.d.SubmitPrivateDefense(p.ID, st.now); err != nil {
				return err
			}
			st.private = p
			g, err := st.group(ctx)
			if err != nil {
				return err
			}
			return st.stores.Notifier.NotifyPrivateDefenseSubmitted(ctx, st.d.ToDTO(), g, p.Datetime)
		})
}

func (s *Service) AuthorizePrivateDefense(ctx context.Context, cmd AuthorizePrivateDefense) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPrivateDefense, "authorization", "the private defense has been authorized",
		func(ctx context.Context, st *state) error {
			err := requireStatus(st.d, models.CodeStatusNotDefenseSubmitted, "the private defense has not been submitted",
				doctorate.StatusPrivateDefenseSubmitted, doctorate.StatusDefensesSubmitted)
			if err != nil {
				return err
			}
			if err := st.activePrivateDefense(ctx); err != nil {
				return err
			}
			return st.d.AuthorizePrivateDefense(st.now)
		})
}

func (s *Service) SubmitPrivateDefenseMinutes(ctx context.Context, cmd SubmitPrivateDefenseMinutes) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPrivateDefense, "minutes", "the private defense minutes have been uploaded",
		func(ctx context.Context, st *state) error {
			err := requireStatus(st.d, models.CodeStatusNotDefenseAuthorized, "the private defense has not been authorized",
				doctorate.StatusPrivateDefenseAuthorized, doctorate.StatusDefensesAuthorized)
			if err != nil {
				return err
			}
			if err := st.activePrivateDefense(ctx); err != nil {
				return err
			}
			_, err = st.private.SubmitMinutes(cmd.Minutes, st.now)
			return err
		})
}

func (s *Service) RecordPrivateDefenseSuccess(ctx context.Context, cmd RecordPrivateDefenseSuccess) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPrivateDefense, "success", "the private defense has succeeded",
		func(ctx context.Context, st *state) error {
			if err := st.activePrivateDefense(ctx); err != nil {
				return err
			}
			return st.d.RecordPrivateDefenseSuccess(st.now)
		})
}

func (s *Service) RecordPrivateDefenseFailure(ctx context.Context, cmd RecordPrivateDefenseFailure) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPrivateDefense, "failure", "the private defense has failed",
		func(ctx context.Context, st *state) error {
			if err := st.activePrivateDefense(ctx); err != nil {
				return err
			}
			return st.d.RecordPrivateDefenseFailure(st.now)
		})
}

// RecordPrivateDefenseRetry archives the active private defense and opens a
// new one. The archived instance is saved first so at most one is active.
func (s *Service) RecordPrivateDefenseRetry(ctx context.Context, cmd RecordPrivateDefenseRetry) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPrivateDefense, "retry", "a new private defense is required",
		func(ctx context.Context, st *state) error {
			if err := st.activePrivateDefense(ctx); err != nil {
				return err
			}
			next, err := models.NewPrivateDefense(id.NewPrivateDefenseID(), st.d.ID, st.now)
			if err != nil {
				return err
			}
			if err := st.d.RecordPrivateDefenseRetry(next.ID, st.now); err != nil {
				return err
			}
			st.private.Deactivate(st.now)
			if err := ports.Persist(st.stores.PrivateDefenses.Save(ctx, st.private), "private defense"); err != nil {
				return err
			}
			st.private = next
			return nil
		})
}

// ListPrivateDefenses returns every private defense round, archived ones
// included.
func (s *Service) ListPrivateDefenses(ctx context.Context, doctorateID id.DoctorateID) ([]*models.PrivateDefense, error) {
	var out []*models.PrivateDefense
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		if _, err := ports.LoadDoctorate(ctx, stores, doctorateID); err != nil {
			return err
		}
		var err error
		out, err = stores.PrivateDefenses.List(ctx, doctorateID)
		return ports.Lookup(err, "private defense", "")
	})
	return out, err
}

// -----------------------------------------------------------------------------
// Admissibility
// -----------------------------------------------------------------------------

// SubmitAdmissibility stores the form on the admissibility being submitted.
// Entering the step again archives the previous instance.
func (s *Service) SubmitAdmissibility(ctx context.Context, cmd SubmitAdmissibility) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagAdmissibility, "submission", "the admissibility has been submitted",
		func(ctx context.Context, st *state) error {
			a, err := st.openAdmissibility(ctx, st.d.Status == doctorate.StatusAdmissibilitySubmitted)
			if err != nil {
				return err
			}
			err = a.SubmitForm(models.AdmissibilityForm{
				ThesisTitle:              cmd.ThesisTitle,
				DecisionDate:             cmd.DecisionDate,
				ManuscriptSubmissionDate: cmd.ManuscriptSubmissionDate,
			}, st.now)
			if err != nil {
				return err
			}
			st.d.ProposeThesisTitle(cmd.ThesisTitle, st.now)
			if err := st.d.SubmitAdmissibility(a.ID, st.now); err != nil {
				return err
			}
			st.admissibility = a
			g, err := st.group(ctx)
			if err != nil {
				return err
			}
			return st.stores.Notifier.NotifyAdmissibilitySubmitted(ctx, st.d.ToDTO(), g, a.DecisionDate)
		})
}

func (s *Service) SubmitAdmissibilityMinutes(ctx context.Context, cmd SubmitAdmissibilityMinutes) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagAdmissibility, "minutes", "the admissibility minutes have been uploaded",
		func(ctx context.Context, st *state) error {
			if err := st.activeAdmissibility(ctx); err != nil {
				return err
			}
			_, err := st.admissibility.SubmitMinutes(cmd.Minutes, cmd.JuryOpinion, st.now)
			return err
		})
}

// RecordAdmissibilityDecision closes the admissibility. The decision date
// and the minutes must be known.
func (s *Service) RecordAdmissibilityDecision(ctx context.Context, cmd RecordAdmissibilityDecision) (View, error) {
	step, message := "failure", "the admissibility has failed"
	if cmd.Passed {
		step, message = "success", "the admissibility has succeeded"
	}
	return s.run(ctx, cmd.DoctorateID, tagAdmissibility, step, message,
		func(ctx context.Context, st *state) error {
			if err := st.activeAdmissibility(ctx); err != nil {
				return err
			}
			if err := st.admissibility.RecordDecision(st.now); err != nil {
				return err
			}
			if cmd.Passed {
				return st.d.RecordAdmissibilitySuccess(st.now)
			}
			return st.d.RecordAdmissibilityFailure(st.now)
		})
}

func (s *Service) ListAdmissibilities(ctx context.Context, doctorateID id.DoctorateID) ([]*models.Admissibility, error) {
	var out []*models.Admissibility
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		if _, err := ports.LoadDoctorate(ctx, stores, doctorateID); err != nil {
			return err
		}
		var err error
		out, err = stores.Admissibilities.List(ctx, doctorateID)
		return ports.Lookup(err, "admissibility", "")
	})
	return out, err
}

// -----------------------------------------------------------------------------
// Public defense
// -----------------------------------------------------------------------------

func (s *Service) ModifyPublicDefense(ctx context.Context, cmd ModifyPublicDefense) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPublicDefense, "modification", "the public defense has been modified",
		func(_ context.Context, st *state) error {
			return st.d.ModifyPublicDefense(doctorate.PublicDefense{
				Language:     cmd.Language,
				Datetime:     cmd.Datetime,
				Place:        cmd.Place,
				RoomNotes:    cmd.RoomNotes,
				Announcement: cmd.Announcement,
				Photo:        cmd.Photo,
			}, st.now)
		})
}

func (s *Service) SubmitPublicDefense(ctx context.Context, cmd SubmitPublicDefense) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPublicDefense, "submission", "the public defense has been submitted",
		func(_ context.Context, st *state) error {
			return st.d.SubmitPublicDefense(st.now)
		})
}

func (s *Service) AuthorizePublicDefense(ctx context.Context, cmd AuthorizePublicDefense) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPublicDefense, "authorization", "the public defense has been authorized",
		func(_ context.Context, st *state) error {
			return st.d.AuthorizePublicDefense(st.now)
		})
}

func (s *Service) SubmitPublicDefenseMinutes(ctx context.Context, cmd SubmitPublicDefenseMinutes) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPublicDefense, "minutes", "the public defense minutes have been uploaded",
		func(_ context.Context, st *state) error {
			return st.d.SubmitPublicDefenseMinutes(cmd.Minutes, st.now)
		})
}

func (s *Service) RecordDefenseSuccess(ctx context.Context, cmd RecordDefenseSuccess) (View, error) {
	return s.run(ctx, cmd.DoctorateID, tagPublicDefense, "success", "the defense has succeeded",
		func(_ context.Context, st *state) error {
			return st.d.RecordDefenseSuccess(st.now)
		})
}
