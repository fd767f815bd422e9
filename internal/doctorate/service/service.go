// Package service holds the doctorate use cases: creation from an admission,
// edition of the project data, graduation and manager messages.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	confirmation "parcours/internal/confirmation/models"
	"parcours/internal/doctorate/models"
	"parcours/internal/platform/metrics"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/sentinel"
	"parcours/pkg/requestcontext"
)

const aggregate = "doctorate"

// Service orchestrates the doctorate aggregate.
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

func (s *Service) observeTransition(before models.Status, after models.Status) {
	if s.metrics != nil && before != after {
		s.metrics.IncrementTransition(after.String())
	}
}

// InitializeDoctorate creates the doctorate of an admitted student together
// with its empty supervision group and its first confirmation paper.
func (s *Service) InitializeDoctorate(ctx context.Context, cmd InitializeDoctorate) (models.DoctorateDTO, error) {
	now := requestcontext.Now(ctx)
	doctorateID := cmd.DoctorateID
	if doctorateID.IsNil() {
		doctorateID = id.NewDoctorateID()
	}
	var out models.DoctorateDTO
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := models.NewDoctorate(doctorateID, cmd.AdmissionID, cmd.Student, cmd.Training, now)
		if err != nil {
			return err
		}
		d.AdmissionType = cmd.AdmissionType
		d.ProximityCommission = cmd.ProximityCommission
		d.Project = cmd.Project
		d.Funding = cmd.Funding
		d.Cotutelle = cmd.Cotutelle
		d.PreviousResearch = cmd.PreviousResearch

		group, err := supervision.NewGroup(id.NewSupervisionGroupID(), doctorateID, now)
		if err != nil {
			return err
		}
		paper, err := confirmation.NewPaper(id.NewConfirmationPaperID(), doctorateID, confirmation.InitialDeadline(now), now)
		if err != nil {
			return err
		}
		d.RegisterConfirmationPaper(paper.ID, now)

		if err := ports.SaveDoctorate(ctx, stores, d); err != nil {
			return err
		}
		if err := ports.Persist(stores.Groups.Save(ctx, group), "supervision group"); err != nil {
			return err
		}
		if err := ports.Persist(stores.Papers.Save(ctx, paper), "confirmation paper"); err != nil {
			return err
		}
		out = d.ToDTO()
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), now,
			"the doctorate has been initialized", true, aggregate, "initialization")
	})
	if err != nil {
		return models.DoctorateDTO{}, err
	}
	s.logger.InfoContext(ctx, "doctorate initialized",
		"doctorate_id", out.ID.String(),
		"reference", out.Reference,
	)
	s.observeTransition("", out.Status)
	return out, nil
}

// modify loads the doctorate, applies change and records one history entry.
func (s *Service) modify(ctx context.Context, doctorateID id.DoctorateID, step, message string,
	change func(d *models.Doctorate, now time.Time) error) (models.DoctorateDTO, error) {
	now := requestcontext.Now(ctx)
	var out models.DoctorateDTO
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		if err := change(d, now); err != nil {
			return err
		}
		if err := ports.SaveDoctorate(ctx, stores, d); err != nil {
			return err
		}
		out = d.ToDTO()
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), now, message, false, aggregate, step)
	})
	if err != nil {
		return models.DoctorateDTO{}, err
	}
	return out, nil
}

func (s *Service) ModifyProject(ctx context.Context, cmd ModifyProject) (models.DoctorateDTO, error) {
	return s.modify(ctx, cmd.DoctorateID, "project", "the project has been modified",
		func(d *models.Doctorate, now time.Time) error {
			return d.ModifyProject(cmd.Project, now)
		})
}

func (s *Service) ModifyFunding(ctx context.Context, cmd ModifyFunding) (models.DoctorateDTO, error) {
	return s.modify(ctx, cmd.DoctorateID, "funding", "the funding has been modified",
		func(d *models.Doctorate, now time.Time) error {
			return d.ModifyFunding(cmd.Funding, now)
		})
}

func (s *Service) ModifyCotutelle(ctx context.Context, cmd ModifyCotutelle) (models.DoctorateDTO, error) {
	return s.modify(ctx, cmd.DoctorateID, "cotutelle", "the cotutelle has been modified",
		func(d *models.Doctorate, now time.Time) error {
			return d.ModifyCotutelle(cmd.Cotutelle, now)
		})
}

func (s *Service) ModifyPreviousResearch(ctx context.Context, cmd ModifyPreviousResearch) (models.DoctorateDTO, error) {
	return s.modify(ctx, cmd.DoctorateID, "previous-research", "the previous research has been modified",
		func(d *models.Doctorate, now time.Time) error {
			return d.ModifyPreviousResearch(cmd.PreviousResearch, now)
		})
}

func (s *Service) ModifyDefenseInfo(ctx context.Context, cmd ModifyDefenseInfo) (models.DoctorateDTO, error) {
	return s.modify(ctx, cmd.DoctorateID, "defense-info", "the defense information has been modified",
		func(d *models.Doctorate, now time.Time) error {
			return d.ModifyDefenseInfo(models.DefenseInfo{
				ProposedThesisTitle: cmd.ProposedThesisTitle,
				Method:              cmd.Method,
				Language:            cmd.Language,
				Datetime:            cmd.Datetime,
				Place:               cmd.Place,
			}, now)
		})
}

// LockDiploma moves a successful doctorate to graduation once the library
// validated the thesis distribution.
func (s *Service) LockDiploma(ctx context.Context, cmd LockDiploma) (models.DoctorateDTO, error) {
	now := requestcontext.Now(ctx)
	var out models.DoctorateDTO
	var before models.Status
	err := ports.InTx(ctx, s.uow, cmd.DoctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, cmd.DoctorateID)
		if err != nil {
			return err
		}
		before = d.Status
		distributed := false
		auth, err := stores.Authorizations.GetByDoctorate(ctx, d.ID)
		switch {
		case err == nil:
			distributed = auth.IsDistributed()
		case !errors.Is(err, sentinel.ErrNotFound):
			return ports.Lookup(err, "thesis distribution authorization", "")
		}
		if err := d.LockDiploma(distributed, cmd.CollectionDate, now); err != nil {
			return err
		}
		if err := ports.SaveDoctorate(ctx, stores, d); err != nil {
			return err
		}
		out = d.ToDTO()
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), now,
			"the diploma has been locked", true, aggregate, "graduation")
	})
	if err != nil {
		return models.DoctorateDTO{}, err
	}
	s.observeTransition(before, out.Status)
	return out, nil
}

// SendMessage sends a manager's message to the student, copying the groups
// the message selects.
func (s *Service) SendMessage(ctx context.Context, cmd SendMessage) error {
	now := requestcontext.Now(ctx)
	return ports.InTx(ctx, s.uow, cmd.DoctorateID, func(stores ports.Stores) error {
		d, err := stores.Doctorates.GetDTO(ctx, cmd.DoctorateID)
		if err != nil {
			return ports.Lookup(err, "doctorate", "")
		}
		group, err := stores.Groups.GetByDoctorate(ctx, d.ID)
		if err != nil {
			return ports.Lookup(err, "supervision group", "")
		}
		j, err := stores.Juries.GetByDoctorate(ctx, d.ID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return ports.Lookup(err, "jury", "")
		}
		msg := ports.Message{
			Sender:      requestcontext.Actor(ctx),
			Subject:     cmd.Subject,
			Body:        cmd.Body,
			CCPromoters: cmd.CCPromoters,
			CCCAMembers: cmd.CCCAMembers,
			CCJury:      cmd.CCJury,
		}
		if err := stores.Notifier.SendMessage(ctx, d, group, j, msg); err != nil {
			return err
		}
		return ports.Record(ctx, stores.History, d.ID, msg.Sender, now,
			"a message has been sent to the student: "+cmd.Subject, false, aggregate, "message")
	})
}
