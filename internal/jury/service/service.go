// Package service composes the defense jury and collects its signatures,
// then the CDD and ADRE approvals.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/jury/models"
	"parcours/internal/platform/metrics"
	"parcours/internal/ports"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/sentinel"
	"parcours/pkg/platform/signature"
	"parcours/pkg/requestcontext"
)

const aggregate = "jury"

type Service struct {
	uow       ports.UnitOfWork
	directory ports.Directory
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

func New(uow ports.UnitOfWork, directory ports.Directory, opts ...Option) *Service {
	s := &Service{uow: uow, directory: directory, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JuryDTO is the jury together with the doctorate status it drives.
type JuryDTO struct {
	DoctorateStatus doctorate.Status `json:"doctorate_status"`
	Jury            *models.Jury     `json:"jury"`
}

type state struct {
	stores ports.Stores
	d      *doctorate.Doctorate
	jury   *models.Jury
	now    time.Time
}

// jury loads the jury of the doctorate. The first access creates it with
// the promoters of the supervision group.
func (s *Service) jury(ctx context.Context, stores ports.Stores, d *doctorate.Doctorate, now time.Time) (*models.Jury, error) {
	j, err := stores.Juries.GetByDoctorate(ctx, d.ID)
	if err == nil {
		return j, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, ports.Lookup(err, "jury", "")
	}
	j, err = models.NewJury(id.NewJuryID(), d.ID, now)
	if err != nil {
		return nil, err
	}
	j.ProposedTitle = d.Project.Title
	group, err := stores.Groups.GetByDoctorate(ctx, d.ID)
	if err != nil {
		return nil, ports.Lookup(err, "supervision group", "")
	}
	for _, p := range group.Promoters() {
		err := j.AddPromoter(models.Member{
			ID:                  id.NewMemberID(),
			IsReferencePromoter: !p.IsExternal() && group.IsReferencePromoter(p.Matricule),
			Matricule:           p.Matricule,
			Institution:         p.External.Institution,
			Country:             p.External.Country,
			LastName:            p.External.LastName,
			FirstName:           p.External.FirstName,
			Email:               p.External.Email,
			Language:            p.External.Language,
			Title:               promoterTitle(p.External.IsDoctor, p.IsExternal()),
		}, now)
		if err != nil {
			return nil, err
		}
	}
	return j, nil
}

func promoterTitle(doctor, external bool) models.Title {
	switch {
	case !external:
		return ""
	case doctor:
		return models.TitleDoctor
	}
	return models.TitleNonDoctor
}

func (s *Service) run(ctx context.Context, doctorateID id.DoctorateID, step, message string,
	fn func(ctx context.Context, st *state) error) (JuryDTO, error) {
	var out JuryDTO
	var before, after doctorate.Status
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		j, err := s.jury(ctx, stores, d, now)
		if err != nil {
			return err
		}
		before = d.Status
		st := &state{stores: stores, d: d, jury: j, now: now}
		if err := fn(ctx, st); err != nil {
			return err
		}
		if err := ports.Persist(stores.Juries.Save(ctx, j), "jury"); err != nil {
			return err
		}
		if err := ports.SaveDoctorate(ctx, stores, d); err != nil {
			return err
		}
		after = d.Status
		out = JuryDTO{DoctorateStatus: d.Status, Jury: j.Clone()}
		return ports.Record(ctx, stores.History, d.ID, requestcontext.Actor(ctx), now,
			message, before != after, aggregate, step)
	})
	if err != nil {
		return JuryDTO{}, err
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

// Get returns the jury, creating it on first access.
func (s *Service) Get(ctx context.Context, doctorateID id.DoctorateID) (JuryDTO, error) {
	var out JuryDTO
	err := ports.InTx(ctx, s.uow, doctorateID, func(stores ports.Stores) error {
		d, err := ports.LoadDoctorate(ctx, stores, doctorateID)
		if err != nil {
			return err
		}
		j, err := s.jury(ctx, stores, d, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		out = JuryDTO{DoctorateStatus: d.Status, Jury: j}
		return nil
	})
	return out, err
}

func (s *Service) ModifyJury(ctx context.Context, cmd ModifyJury) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "modification", "the jury has been modified",
		func(_ context.Context, st *state) error {
			st.jury.Modify(models.Details{
				ProposedTitle:   cmd.ProposedTitle,
				DefenseMethod:   cmd.DefenseMethod,
				IndicativeDate:  cmd.IndicativeDate,
				WritingLanguage: cmd.WritingLanguage,
				DefenseLanguage: cmd.DefenseLanguage,
				Comment:         cmd.Comment,
			}, st.now)
			return nil
		})
}

func (s *Service) AddMember(ctx context.Context, cmd AddMember) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "member-added", "a member has been added to the jury",
		func(_ context.Context, st *state) error {
			return st.jury.AddMember(cmd.member(id.NewMemberID()), st.now)
		})
}

func (s *Service) ModifyMember(ctx context.Context, cmd ModifyMember) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "member-modified", "a member of the jury has been modified",
		func(_ context.Context, st *state) error {
			return st.jury.ModifyMember(cmd.member(cmd.MemberID), st.now)
		})
}

func (s *Service) RemoveMember(ctx context.Context, cmd RemoveMember) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "member-removed", "a member has been removed from the jury",
		func(_ context.Context, st *state) error {
			return st.jury.RemoveMember(cmd.MemberID, st.now)
		})
}

func (s *Service) ChangeRole(ctx context.Context, cmd ChangeRole) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "role-changed", "the role of a jury member has been changed",
		func(_ context.Context, st *state) error {
			return st.jury.ChangeRole(cmd.MemberID, cmd.Role, st.now)
		})
}

// verifier resolves the auditor of the doctorate's CDD. An unknown auditor
// yields an empty member, which the jury rejects.
func (s *Service) verifier(ctx context.Context, d *doctorate.Doctorate) (models.Member, error) {
	auditors, err := s.directory.Managers(ctx, ports.ManagerAuditor, d.Training.CDD)
	if err != nil {
		return models.Member{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve the jury auditor")
	}
	if len(auditors) == 0 {
		return models.Member{}, nil
	}
	return models.Member{ID: id.NewMemberID(), Matricule: auditors[0].Matricule}, nil
}

// manager turns the acting manager into a jury signatory.
func (s *Service) manager(ctx context.Context) (models.Member, error) {
	actor := requestcontext.Actor(ctx)
	p, err := s.directory.Person(ctx, actor)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Member{ID: id.NewMemberID(), Matricule: actor}, nil
	}
	if err != nil {
		return models.Member{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve the manager")
	}
	return models.Member{ID: id.NewMemberID(), Matricule: p.Matricule}, nil
}

// RequestSignatures checks the jury composition, locks it and invites every
// pending juror with the auditor.
func (s *Service) RequestSignatures(ctx context.Context, cmd RequestSignatures) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "signatures-requested", "the jury has been submitted for signature",
		func(ctx context.Context, st *state) error {
			errs := &dErrors.Violations{}
			errs.Merge(st.jury.VerifySignatureConditions())
			errs.Merge(st.jury.VerifyRolesAssigned())
			if err := errs.ErrOrNil(); err != nil {
				return err
			}
			verifier, err := s.verifier(ctx, st.d)
			if err != nil {
				return err
			}
			invited, err := st.jury.RequestSignatures(verifier, st.now)
			if err != nil {
				return err
			}
			if err := st.d.LockJuryForSignature(st.now); err != nil {
				return err
			}
			return st.stores.Notifier.InviteJuryMembers(ctx, st.d.ToDTO(), invited)
		})
}

func (s *Service) ResendInvitation(ctx context.Context, cmd ResendInvitation) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "invitation-resent", "a jury invitation has been sent again",
		func(ctx context.Context, st *state) error {
			m, err := st.jury.ResendInvitation(cmd.MemberID, st.now)
			if err != nil {
				return err
			}
			return st.stores.Notifier.InviteJuryMembers(ctx, st.d.ToDTO(), []models.Member{m})
		})
}

// approved moves the doctorate forward once every juror and the auditor
// signed.
func approved(st *state, all bool) error {
	if !all {
		return nil
	}
	return st.d.ApproveJuryByCA(st.now)
}

func (s *Service) Approve(ctx context.Context, cmd Approve) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "approval", "a jury member approved the jury",
		func(_ context.Context, st *state) error {
			all, err := st.jury.Approve(cmd.MemberID, cmd.InternalComment, cmd.ExternalComment, st.now)
			if err != nil {
				return err
			}
			return approved(st, all)
		})
}

func (s *Service) ApproveByPDF(ctx context.Context, cmd ApproveByPDF) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "approval", "a signed jury approval has been uploaded",
		func(_ context.Context, st *state) error {
			all, err := st.jury.ApproveByPDF(cmd.MemberID, cmd.PDF, st.now)
			if err != nil {
				return err
			}
			return approved(st, all)
		})
}

// Refuse records a juror's refusal and takes the doctorate back to
// CONFIRMATION_REUSSIE.
func (s *Service) Refuse(ctx context.Context, cmd Refuse) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, "refusal", "a jury member refused the jury",
		func(ctx context.Context, st *state) error {
			m, err := st.jury.Refuse(cmd.MemberID, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, st.now)
			if err != nil {
				return err
			}
			if err := st.d.ResetJury(st.now); err != nil {
				return err
			}
			return st.stores.Notifier.NotifyJuryRefusal(ctx, st.d.ToDTO(), st.jury, m, cmd.Reason)
		})
}

type decision struct {
	role     signature.Role
	approved bool
	step     string
	message  string
	record   func(j *models.Jury, manager models.Member, cmd ManagerDecision, now time.Time) error
	advance  func(d *doctorate.Doctorate, now time.Time) error
}

func (s *Service) decide(ctx context.Context, cmd ManagerDecision, dec decision) (JuryDTO, error) {
	return s.run(ctx, cmd.DoctorateID, dec.step, dec.message, func(ctx context.Context, st *state) error {
		manager, err := s.manager(ctx)
		if err != nil {
			return err
		}
		if err := dec.record(st.jury, manager, cmd, st.now); err != nil {
			return err
		}
		if err := dec.advance(st.d, st.now); err != nil {
			return err
		}
		return st.stores.Notifier.NotifyJuryDecision(ctx, st.d.ToDTO(), st.jury, dec.role, dec.approved)
	})
}

func (s *Service) CDDApprove(ctx context.Context, cmd CDDApprove) (JuryDTO, error) {
	return s.decide(ctx, cmd.ManagerDecision, decision{
		role: models.RoleCDD, approved: true, step: "cdd-approval", message: "the CDD approved the jury",
		record: func(j *models.Jury, m models.Member, c ManagerDecision, now time.Time) error {
			return j.CDDApprove(m, c.InternalComment, c.ExternalComment, now)
		},
		advance: (*doctorate.Doctorate).CDDApproveJury,
	})
}

func (s *Service) CDDRefuse(ctx context.Context, cmd CDDRefuse) (JuryDTO, error) {
	return s.decide(ctx, cmd.ManagerDecision, decision{
		role: models.RoleCDD, step: "cdd-refusal", message: "the CDD refused the jury",
		record: func(j *models.Jury, m models.Member, c ManagerDecision, now time.Time) error {
			return j.CDDRefuse(m, c.Reason, c.InternalComment, c.ExternalComment, now)
		},
		advance: (*doctorate.Doctorate).CDDRefuseJury,
	})
}

func (s *Service) ADREApprove(ctx context.Context, cmd ADREApprove) (JuryDTO, error) {
	return s.decide(ctx, cmd.ManagerDecision, decision{
		role: models.RoleADRE, approved: true, step: "adre-approval", message: "the ADRE approved the jury",
		record: func(j *models.Jury, m models.Member, c ManagerDecision, now time.Time) error {
			return j.ADREApprove(m, c.InternalComment, c.ExternalComment, now)
		},
		advance: (*doctorate.Doctorate).ADREApproveJury,
	})
}

func (s *Service) ADRERefuse(ctx context.Context, cmd ADRERefuse) (JuryDTO, error) {
	return s.decide(ctx, cmd.ManagerDecision, decision{
		role: models.RoleADRE, step: "adre-refusal", message: "the ADRE refused the jury",
		record: func(j *models.Jury, m models.Member, c ManagerDecision, now time.Time) error {
			return j.ADRERefuse(m, c.Reason, c.InternalComment, c.ExternalComment, now)
		},
		advance: (*doctorate.Doctorate).ADRERefuseJury,
	})
}
