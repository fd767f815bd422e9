// Package service runs the supervision group use cases: composing the group,
// requesting signatures and collecting approvals and refusals.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/platform/metrics"
	"parcours/internal/ports"
	"parcours/internal/supervision/models"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
	"parcours/pkg/requestcontext"
)

const aggregate = "supervision"

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

// GroupDTO is the supervision group returned to callers.
type GroupDTO struct {
	DoctorateStatus doctorate.Status `json:"doctorate_status"`
	Group           *models.Group    `json:"group"`
}

type state struct {
	stores ports.Stores
	d      *doctorate.Doctorate
	group  *models.Group
	now    time.Time
}

// run loads the doctorate and its group, applies fn and saves both.
func (s *Service) run(ctx context.Context, doctorateID id.DoctorateID, step, message string,
	fn func(ctx context.Context, st *state) error) (GroupDTO, error) {
	var out GroupDTO
	var before doctorate.Status
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		group, err := stores.Groups.GetByDoctorate(ctx, doctorateID)
		if err != nil {
			return ports.Lookup(err, "supervision group", "")
		}
		st := &state{stores: stores, d: d, group: group, now: requestcontext.Now(ctx)}
		before = d.Status
		if err := fn(ctx, st); err != nil {
			return err
		}
		if err := ports.Persist(stores.Groups.Save(ctx, group), "supervision group"); err != nil {
			return err
		}
		if err := ports.SaveDoctorate(ctx, stores, d); err != nil {
			return err
		}
		out = GroupDTO{DoctorateStatus: d.Status, Group: group}
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), st.now,
			message, d.Status != before, aggregate, step)
	})
	if err != nil {
		return GroupDTO{}, err
	}
	if out.DoctorateStatus != before {
		s.logger.InfoContext(ctx, "doctorate status changed",
			"doctorate_id", doctorateID.String(), "step", step, "status", out.DoctorateStatus)
		if s.metrics != nil {
			s.metrics.IncrementTransition(out.DoctorateStatus.String())
		}
	}
	return out, nil
}

func (s *Service) AddMember(ctx context.Context, cmd AddMember) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "member-added", "a member has been added to the supervision group",
		func(_ context.Context, st *state) error {
			if err := st.group.VerifySignaturesNotSent(); err != nil {
				return err
			}
			return st.group.Identify(id.NewSignatoryID(), cmd.Role, cmd.Matricule, cmd.External, st.now)
		})
}

func (s *Service) RemoveMember(ctx context.Context, cmd RemoveMember) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "member-removed", "a member has been removed from the supervision group",
		func(_ context.Context, st *state) error {
			if err := st.group.VerifySignaturesNotSent(); err != nil {
				return err
			}
			m, err := st.group.Member(cmd.MemberID)
			if err != nil {
				return err
			}
			if m.Role == models.RolePromoter {
				return st.group.RemovePromoter(cmd.MemberID, st.now)
			}
			return st.group.RemoveCAMember(cmd.MemberID, st.now)
		})
}

func (s *Service) ModifyExternalMember(ctx context.Context, cmd ModifyExternalMember) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "member-modified", "a supervision group member has been modified",
		func(_ context.Context, st *state) error {
			return st.group.ModifyExternalMember(cmd.MemberID, cmd.External, st.now)
		})
}

func (s *Service) DesignateReferencePromoter(ctx context.Context, cmd DesignateReferencePromoter) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "reference-promoter", "the lead supervisor has been designated",
		func(_ context.Context, st *state) error {
			return st.group.DesignateReferencePromoter(cmd.MemberID, st.now)
		})
}

// RequestSignatures checks the proposition is complete, locks the project
// and invites every pending signatory. Every failing rule is reported.
func (s *Service) RequestSignatures(ctx context.Context, cmd RequestSignatures) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "signatures-requested", "signatures have been requested",
		func(ctx context.Context, st *state) error {
			errs := &dErrors.Violations{}
			errs.Merge(st.group.VerifySignaturesNotSent())
			errs.Merge(st.group.VerifyPromoters(st.d.Cotutelle.IsActive()))
			errs.Merge(st.group.VerifySignatories())
			errs.Merge(validation.Validate(st.d.ProjectCompleteness()...))
			if err := errs.ErrOrNil(); err != nil {
				return err
			}
			if err := st.d.LockForSignature(st.now); err != nil {
				return err
			}
			st.group.Lock(st.now)
			invited := st.group.InviteToSign(st.now)
			return st.stores.Notifier.InviteSignatories(ctx, st.d.ToDTO(), invited)
		})
}

// complete unlocks the project once every signatory approved.
func complete(ctx context.Context, st *state) error {
	if st.group.VerifyEveryoneApproved() != nil {
		return nil
	}
	if err := st.d.UnlockAfterSignatures(st.now); err != nil {
		return err
	}
	st.group.Unlock(st.now)
	return st.stores.Notifier.NotifySupervisionApproved(ctx, st.d.ToDTO(), st.group)
}

func (s *Service) ApproveProposition(ctx context.Context, cmd ApproveProposition) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "approval", "a member approved the proposition",
		func(ctx context.Context, st *state) error {
			err := st.group.VerifyReferencePromoterInstitute(cmd.MemberID, st.d.Project.Institute, cmd.Institute)
			if err != nil {
				return err
			}
			if err := st.group.Approve(cmd.MemberID, cmd.InternalComment, cmd.ExternalComment, st.now); err != nil {
				return err
			}
			if cmd.MemberID == st.group.ReferencePromoter && cmd.Institute != "" {
				st.d.Project.Institute = cmd.Institute
				st.d.UpdatedAt = st.now
			}
			return complete(ctx, st)
		})
}

func (s *Service) ApprovePropositionByPDF(ctx context.Context, cmd ApprovePropositionByPDF) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "approval", "an approval has been uploaded",
		func(ctx context.Context, st *state) error {
			if err := st.group.ApproveByPDF(cmd.MemberID, cmd.PDF, st.now); err != nil {
				return err
			}
			return complete(ctx, st)
		})
}

// RefuseProposition records a refusal and unlocks the project so the
// student can correct it.
func (s *Service) RefuseProposition(ctx context.Context, cmd RefuseProposition) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "refusal", "a member refused the proposition",
		func(ctx context.Context, st *state) error {
			err := validation.Validate(validation.Require(strings.TrimSpace(cmd.Reason) != "", dErrors.Violation{
				Code: models.CodeRefusalReasonRequired, Field: "reason", Message: "a reason is required",
			}))
			if err != nil {
				return err
			}
			m, err := st.group.Refuse(cmd.MemberID, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, st.now)
			if err != nil {
				return err
			}
			if st.d.Status == doctorate.StatusAwaitingSignatures {
				if err := st.d.UnlockAfterSignatures(st.now); err != nil {
					return err
				}
			}
			st.group.Unlock(st.now)
			return st.stores.Notifier.NotifySupervisionRefusal(ctx, st.d.ToDTO(), st.group, m, cmd.Reason)
		})
}

func (s *Service) ResendInvitation(ctx context.Context, cmd ResendInvitation) (GroupDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "invitation-resent", "an invitation has been sent again",
		func(ctx context.Context, st *state) error {
			m, err := st.group.ResendInvitation(cmd.MemberID)
			if err != nil {
				return err
			}
			return st.stores.Notifier.InviteSignatories(ctx, st.d.ToDTO(), []models.Member{m})
		})
}
