// Package service drives the thesis distribution authorization through the
// reference promoter, ADRE and SCEB approvals.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parcours/internal/diffusion/models"
	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/ports"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/sentinel"
	"parcours/pkg/requestcontext"
)

const aggregate = "autorisation-diffusion-these"

type Service struct {
	uow       ports.UnitOfWork
	directory ports.Directory
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(uow ports.UnitOfWork, directory ports.Directory, opts ...Option) *Service {
	s := &Service{uow: uow, directory: directory, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type state struct {
	stores ports.Stores
	d      *doctorate.Doctorate
	auth   *models.Authorization
	now    time.Time
}

func authorization(ctx context.Context, stores ports.Stores, doctorateID id.DoctorateID, now time.Time) (*models.Authorization, error) {
	a, err := stores.Authorizations.GetByDoctorate(ctx, doctorateID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewAuthorization(id.NewAuthorizationID(), doctorateID, now)
	}
	if err != nil {
		return nil, ports.Lookup(err, "authorization", models.CodeAuthorizationNotFound)
	}
	return a, nil
}

func (s *Service) run(ctx context.Context, doctorateID id.DoctorateID, step, message string,
	fn func(ctx context.Context, st *state) error) (models.Authorization, error) {
	var out models.Authorization
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		a, err := authorization(ctx, stores, doctorateID, now)
		if err != nil {
			return err
		}
		before := a.Status
		st := &state{stores: stores, d: d, auth: a, now: now}
		if err := fn(ctx, st); err != nil {
			return err
		}
		if err := ports.Persist(stores.Authorizations.Save(ctx, a), "authorization"); err != nil {
			return err
		}
		out = *a.Clone()
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), now,
			message, before != a.Status, aggregate, step)
	})
	if err != nil {
		return models.Authorization{}, err
	}
	s.logger.InfoContext(ctx, "thesis distribution updated",
		"doctorate_id", doctorateID.String(), "step", step, "status", out.Status)
	return out, nil
}

// Get returns the authorization of a doctorate, an empty one when the
// student never encoded it.
func (s *Service) Get(ctx context.Context, doctorateID id.DoctorateID) (models.Authorization, error) {
	var out models.Authorization
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		if _, err := ports.LoadDoctorate(ctx, stores, doctorateID); err != nil {
			return err
		}
		a, err := authorization(ctx, stores, doctorateID, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		out = *a
		return nil
	})
	return out, err
}

func (s *Service) person(ctx context.Context, matricule id.Matricule) (ports.Person, error) {
	p, err := s.directory.Person(ctx, matricule)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ports.Person{Matricule: matricule}, nil
	}
	if err != nil {
		return ports.Person{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve a signatory")
	}
	return p, nil
}

// manager resolves the staff member who signs after the current step.
func (s *Service) manager(ctx context.Context, role ports.ManagerRole) (ports.Person, error) {
	managers, err := s.directory.Managers(ctx, role, "")
	if err != nil {
		return ports.Person{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve the next signatory")
	}
	if len(managers) == 0 {
		return ports.Person{}, dErrors.NewViolations(dErrors.Violation{
			Code: models.CodeSignatoryUnknown, Message: "no " + string(role) + " manager is known",
		})
	}
	return managers[0], nil
}

func (s *Service) referencePromoter(ctx context.Context, st *state) (ports.Person, error) {
	group, err := st.stores.Groups.GetByDoctorate(ctx, st.d.ID)
	if err != nil {
		return ports.Person{}, ports.Lookup(err, "supervision group", "")
	}
	for _, p := range group.Promoters() {
		if !p.IsExternal() && group.IsReferencePromoter(p.Matricule) {
			return s.person(ctx, p.Matricule)
		}
	}
	return ports.Person{}, dErrors.NewViolations(dErrors.Violation{
		Code: models.CodeSignatoryUnknown, Message: "the doctorate has no internal reference promoter",
	})
}

func (s *Service) EncodeForm(ctx context.Context, cmd EncodeForm) (models.Authorization, error) {
	return s.run(ctx, cmd.DoctorateID, "encoding", "the thesis distribution form has been encoded",
		func(_ context.Context, st *state) error {
			return st.auth.EncodeForm(cmd.Form, st.now)
		})
}

// SubmitForm sends a complete form to the reference promoter.
func (s *Service) SubmitForm(ctx context.Context, cmd SubmitForm) (models.Authorization, error) {
	return s.run(ctx, cmd.DoctorateID, "submission", "the thesis distribution form has been submitted",
		func(ctx context.Context, st *state) error {
			promoter, err := s.referencePromoter(ctx, st)
			if err != nil {
				return err
			}
			if err := st.auth.SubmitToReferencePromoter(cmd.Form, promoter.Matricule, st.now); err != nil {
				return err
			}
			return st.stores.Notifier.InviteThesisSignatory(ctx, st.d.ToDTO(), st.auth, models.ActorReferencePromoter, promoter)
		})
}

// approval records the actor's approval and invites the next signatory,
// if any.
func (s *Service) approval(ctx context.Context, cmd Review, step, message string, next models.Actor, nextRole ports.ManagerRole,
	approve func(a *models.Authorization, actor, nextSignatory id.Matricule, now time.Time) error) (models.Authorization, error) {
	return s.run(ctx, cmd.DoctorateID, step, message, func(ctx context.Context, st *state) error {
		var signatory ports.Person
		if nextRole != "" {
			p, err := s.manager(ctx, nextRole)
			if err != nil {
				return err
			}
			signatory = p
		}
		if err := approve(st.auth, requestcontext.Actor(ctx), signatory.Matricule, st.now); err != nil {
			return err
		}
		if nextRole == "" {
			return st.stores.Notifier.NotifyThesisDistributed(ctx, st.d.ToDTO(), st.auth)
		}
		return st.stores.Notifier.InviteThesisSignatory(ctx, st.d.ToDTO(), st.auth, next, signatory)
	})
}

func (s *Service) refusal(ctx context.Context, cmd Review, step, message string, by models.Actor,
	refuse func(a *models.Authorization, actor id.Matricule, now time.Time) error) (models.Authorization, error) {
	return s.run(ctx, cmd.DoctorateID, step, message, func(ctx context.Context, st *state) error {
		if err := refuse(st.auth, requestcontext.Actor(ctx), st.now); err != nil {
			return err
		}
		return st.stores.Notifier.NotifyThesisRefusal(ctx, st.d.ToDTO(), st.auth, by, cmd.Reason)
	})
}

func (s *Service) PromoterApprove(ctx context.Context, cmd PromoterApprove) (models.Authorization, error) {
	return s.approval(ctx, cmd.Review, "promoter-approval", "the reference promoter approved the thesis distribution",
		models.ActorADRE, ports.ManagerADRE,
		func(a *models.Authorization, actor, adre id.Matricule, now time.Time) error {
			return a.PromoterApprove(actor, cmd.InternalComment, cmd.ExternalComment, adre, now)
		})
}

func (s *Service) PromoterRefuse(ctx context.Context, cmd PromoterRefuse) (models.Authorization, error) {
	return s.refusal(ctx, cmd.Review, "promoter-refusal", "the reference promoter refused the thesis distribution",
		models.ActorReferencePromoter,
		func(a *models.Authorization, actor id.Matricule, now time.Time) error {
			return a.PromoterRefuse(actor, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, now)
		})
}

func (s *Service) ADREApprove(ctx context.Context, cmd ADREApprove) (models.Authorization, error) {
	return s.approval(ctx, cmd.Review, "adre-approval", "the ADRE approved the thesis distribution",
		models.ActorSCEB, ports.ManagerSCEB,
		func(a *models.Authorization, actor, sceb id.Matricule, now time.Time) error {
			return a.ADREApprove(actor, cmd.InternalComment, cmd.ExternalComment, sceb, now)
		})
}

func (s *Service) ADRERefuse(ctx context.Context, cmd ADRERefuse) (models.Authorization, error) {
	return s.refusal(ctx, cmd.Review, "adre-refusal", "the ADRE refused the thesis distribution",
		models.ActorADRE,
		func(a *models.Authorization, actor id.Matricule, now time.Time) error {
			return a.ADRERefuse(actor, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, now)
		})
}

// SCEBApprove is the last approval: the thesis can be distributed.
func (s *Service) SCEBApprove(ctx context.Context, cmd SCEBApprove) (models.Authorization, error) {
	return s.approval(ctx, cmd.Review, "sceb-approval", "the SCEB approved the thesis distribution",
		"", "",
		func(a *models.Authorization, actor, _ id.Matricule, now time.Time) error {
			return a.SCEBApprove(actor, cmd.InternalComment, cmd.ExternalComment, now)
		})
}

func (s *Service) SCEBRefuse(ctx context.Context, cmd SCEBRefuse) (models.Authorization, error) {
	return s.refusal(ctx, cmd.Review, "sceb-refusal", "the SCEB refused the thesis distribution",
		models.ActorSCEB,
		func(a *models.Authorization, actor id.Matricule, now time.Time) error {
			return a.SCEBRefuse(actor, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, now)
		})
}
