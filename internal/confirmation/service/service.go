// Package service handles the confirmation paper: submission, extension
// requests, CDD opinion and the final decision.
package service

import (
	"context"
	"log/slog"
	"time"

	"parcours/internal/confirmation/models"
	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/platform/metrics"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	id "parcours/pkg/domain"
	"parcours/pkg/requestcontext"
)

const aggregate = "confirmation"

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

type state struct {
	stores ports.Stores
	d      *doctorate.Doctorate
	paper  *models.Paper
	now    time.Time
}

func (st *state) group(ctx context.Context) (*supervision.Group, error) {
	g, err := st.stores.Groups.GetByDoctorate(ctx, st.d.ID)
	if err != nil {
		return nil, ports.Lookup(err, "supervision group", "")
	}
	return g, nil
}

// run loads the doctorate and its current paper, applies fn and saves both.
func (s *Service) run(ctx context.Context, doctorateID id.DoctorateID, step, message string,
	fn func(ctx context.Context, st *state) error) (models.PaperDTO, error) {
	var out models.PaperDTO
	var before, after doctorate.Status
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		paper, err := stores.Papers.GetActive(ctx, doctorateID)
		if err != nil {
			return ports.Lookup(err, "confirmation paper", models.CodePaperNotFound)
		}
		before = d.Status
		st := &state{stores: stores, d: d, paper: paper, now: requestcontext.Now(ctx)}
		if err := fn(ctx, st); err != nil {
			return err
		}
		if err := ports.Persist(stores.Papers.Save(ctx, st.paper), "confirmation paper"); err != nil {
			return err
		}
		if err := ports.SaveDoctorate(ctx, stores, d); err != nil {
			return err
		}
		after = d.Status
		out = st.paper.ToDTO(d.ConfirmationPapers.IsActive(st.paper.ID))
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), st.now,
			message, before != after, aggregate, step)
	})
	if err != nil {
		return models.PaperDTO{}, err
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

// SubmitConfirmation records the student's submission and notifies the
// supervisors and the managers. A submission made while the paper is already
// submitted counts as a resubmission.
func (s *Service) SubmitConfirmation(ctx context.Context, cmd SubmitConfirmation) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "submission", "the confirmation paper has been submitted",
		func(ctx context.Context, st *state) error {
			first := st.d.Status != doctorate.StatusConfirmationSubmitted
			err := st.paper.Submit(models.Submission{
				Date:             cmd.Date,
				ResearchReport:   cmd.ResearchReport,
				SupervisorReport: cmd.SupervisorReport,
				SupervisorCanvas: cmd.SupervisorCanvas,
				RenewalOpinion:   cmd.RenewalOpinion,
			}, st.now)
			if err != nil {
				return err
			}
			if err := st.d.SubmitConfirmation(st.now); err != nil {
				return err
			}
			g, err := st.group(ctx)
			if err != nil {
				return err
			}
			return st.stores.Notifier.NotifyConfirmationSubmitted(ctx, st.d.ToDTO(), g, st.paper, first)
		})
}

func (s *Service) CompleteBySupervisor(ctx context.Context, cmd CompleteBySupervisor) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "supervisor-report", "the supervisory panel report has been uploaded",
		func(_ context.Context, st *state) error {
			return st.paper.CompleteBySupervisor(cmd.Report, cmd.RenewalOpinion, st.now)
		})
}

func (s *Service) ModifyByCDD(ctx context.Context, cmd ModifyByCDD) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "cdd-modification", "the confirmation paper has been modified by the CDD",
		func(_ context.Context, st *state) error {
			return st.paper.ModifyByCDD(models.CDDModification{
				Deadline:         cmd.Deadline,
				Date:             cmd.Date,
				ResearchReport:   cmd.ResearchReport,
				SupervisorReport: cmd.SupervisorReport,
				RenewalOpinion:   cmd.RenewalOpinion,
			}, st.now)
		})
}

func (s *Service) RequestExtension(ctx context.Context, cmd RequestExtension) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "extension-request", "an extension of the deadline has been requested",
		func(ctx context.Context, st *state) error {
			if err := st.paper.RecordExtensionRequest(cmd.NewDeadline, cmd.Justification, cmd.JustificationLetter, st.now); err != nil {
				return err
			}
			g, err := st.group(ctx)
			if err != nil {
				return err
			}
			return st.stores.Notifier.NotifyExtensionRequest(ctx, st.d.ToDTO(), g, st.paper)
		})
}

func (s *Service) RecordCDDOpinion(ctx context.Context, cmd RecordCDDOpinion) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "cdd-opinion", "the CDD gave its opinion on the extension request",
		func(_ context.Context, st *state) error {
			return st.paper.RecordCDDOpinion(cmd.Opinion, st.now)
		})
}

func (s *Service) UploadRenewalOpinion(ctx context.Context, cmd UploadRenewalOpinion) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "renewal-opinion", "the mandate renewal opinion has been uploaded",
		func(_ context.Context, st *state) error {
			return st.paper.UploadRenewalOpinion(cmd.Opinion, st.now)
		})
}

func (s *Service) notifyDecision(ctx context.Context, st *state, dec Decision) error {
	g, err := st.group(ctx)
	if err != nil {
		return err
	}
	return st.stores.Notifier.NotifyConfirmationDecision(ctx, st.d.ToDTO(), g, ports.Message{
		Sender:      requestcontext.Actor(ctx),
		Subject:     dec.Subject,
		Body:        dec.Body,
		CCPromoters: dec.CCPromoters,
		CCCAMembers: dec.CCCAMembers,
	})
}

func (s *Service) RecordSuccess(ctx context.Context, cmd RecordSuccess) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "success", "the confirmation paper has succeeded",
		func(ctx context.Context, st *state) error {
			if err := st.paper.RecordDecision(true, cmd.Certificate, st.now); err != nil {
				return err
			}
			if err := st.d.RecordConfirmationSuccess(st.now); err != nil {
				return err
			}
			return s.notifyDecision(ctx, st, cmd.Decision)
		})
}

func (s *Service) RecordFailure(ctx context.Context, cmd RecordFailure) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "failure", "the confirmation paper has failed",
		func(ctx context.Context, st *state) error {
			if err := st.paper.RecordDecision(false, cmd.Certificate, st.now); err != nil {
				return err
			}
			if err := st.d.RecordConfirmationFailure(st.now); err != nil {
				return err
			}
			return s.notifyDecision(ctx, st, cmd.Decision)
		})
}

// RecordRetry archives the current paper and opens a new one the student
// presents before the new deadline. The archived paper is saved first so at
// most one paper is ever active.
func (s *Service) RecordRetry(ctx context.Context, cmd RecordRetry) (models.PaperDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "retry", "a new confirmation paper is required",
		func(ctx context.Context, st *state) error {
			if err := st.paper.RecordDecision(false, cmd.Certificate, st.now); err != nil {
				return err
			}
			next, err := models.NewPaper(id.NewConfirmationPaperID(), st.d.ID, cmd.NewDeadline, st.now)
			if err != nil {
				return err
			}
			if err := st.d.RecordConfirmationRetry(next.ID, st.now); err != nil {
				return err
			}
			st.paper.Archive(st.now)
			if err := ports.Persist(st.stores.Papers.Save(ctx, st.paper), "confirmation paper"); err != nil {
				return err
			}
			if err := s.notifyDecision(ctx, st, cmd.Decision); err != nil {
				return err
			}
			st.paper = next
			return nil
		})
}

// List returns every paper of a doctorate, the active one flagged.
func (s *Service) List(ctx context.Context, doctorateID id.DoctorateID) ([]models.PaperDTO, error) {
	var out []models.PaperDTO
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		papers, err := stores.Papers.ListByDoctorate(ctx, doctorateID)
		if err != nil {
			return ports.Lookup(err, "confirmation paper", "")
		}
		out = make([]models.PaperDTO, 0, len(papers))
		for _, p := range papers {
			out = append(out, p.ToDTO(d.ConfirmationPapers.IsActive(p.ID)))
		}
		return nil
	})
	return out, err
}
