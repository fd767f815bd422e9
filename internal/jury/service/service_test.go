package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/jury/models"
	"parcours/internal/ports"
	"parcours/internal/storage/memory"
	supervision "parcours/internal/supervision/models"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/signature"
	"parcours/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	now         time.Time
	ctx         context.Context
	wf          *testutil.Workflow
	service     *Service
	doctorateID id.DoctorateID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = testutil.CommandContext(s.now, "CDD1")
	s.wf = testutil.NewWorkflow(s.T())
	dir := memory.NewDirectory()
	dir.AddManager(ports.ManagerAuditor, "CDSC", ports.Person{Matricule: "AUD1", LastName: "Audit"})
	dir.AddPerson(ports.Person{Matricule: "CDD1", LastName: "Manager"})
	s.service = New(s.wf.UoW, dir)

	s.doctorateID = id.NewDoctorateID()
	s.wf.Seed(s.T(), func(ctx context.Context, st ports.Stores) error {
		d, err := doctorate.NewDoctorate(s.doctorateID, "ADM-1",
			doctorate.Student{Matricule: "S1", FirstName: "Ada", LastName: "Lovelace"},
			doctorate.Training{Acronym: "SC3DP", CDD: "CDSC", Year: 2022}, s.now)
		if err != nil {
			return err
		}
		d.Status = doctorate.StatusConfirmationPassed
		d.Project.Title = "Graphs"
		g, err := supervision.NewGroup(id.NewSupervisionGroupID(), s.doctorateID, s.now)
		if err != nil {
			return err
		}
		p1 := id.NewSignatoryID()
		for _, err := range []error{
			g.AddPromoter(p1, "P1", supervision.ExternalPerson{}, s.now),
			g.AddPromoter(id.NewSignatoryID(), "P2", supervision.ExternalPerson{}, s.now),
			g.DesignateReferencePromoter(p1, s.now),
			st.Doctorates.Save(ctx, d),
		} {
			if err != nil {
				return err
			}
		}
		return st.Groups.Save(ctx, g)
	})
}

func (s *ServiceSuite) byMatricule(j *models.Jury, matricule id.Matricule) models.Member {
	for _, m := range j.Members {
		if m.Matricule == matricule {
			return m
		}
	}
	s.FailNow("member not found", string(matricule))
	return models.Member{}
}

func (s *ServiceSuite) byRole(j *models.Jury, role signature.Role) models.Member {
	members := j.MembersWithRole(role)
	s.Require().Len(members, 1)
	return members[0]
}

// compose builds a jury ready for signature: two promoters, an internal
// president and an external secretary.
func (s *ServiceSuite) compose() JuryDTO {
	_, err := s.service.ModifyJury(s.ctx, ModifyJury{DoctorateID: s.doctorateID, ProposedTitle: "Graphs", DefenseMethod: "FORMULE_1"})
	s.Require().NoError(err)
	_, err = s.service.AddMember(s.ctx, AddMember{DoctorateID: s.doctorateID, MemberIdentity: MemberIdentity{Matricule: "M1"}})
	s.Require().NoError(err)
	out, err := s.service.AddMember(s.ctx, AddMember{DoctorateID: s.doctorateID, MemberIdentity: MemberIdentity{
		Institution: "ULB", Country: "BE", LastName: "Doe", FirstName: "Jane", Title: models.TitleDoctor,
		Gender: models.GenderFemale, Language: "FR", Email: "jane@example.org",
	}})
	s.Require().NoError(err)
	var external models.Member
	for _, m := range out.Jury.Members {
		if m.IsExternal() {
			external = m
		}
	}
	_, err = s.service.ChangeRole(s.ctx, ChangeRole{DoctorateID: s.doctorateID, MemberID: s.byMatricule(out.Jury, "M1").ID, Role: models.RolePresident})
	s.Require().NoError(err)
	out, err = s.service.ChangeRole(s.ctx, ChangeRole{DoctorateID: s.doctorateID, MemberID: external.ID, Role: models.RoleSecretary})
	s.Require().NoError(err)
	return out
}

func (s *ServiceSuite) requestSignatures() JuryDTO {
	s.compose()
	s.wf.Notifier.EXPECT().InviteJuryMembers(gomock.Any(), gomock.Any(), gomock.Len(5)).Return(nil)
	out, err := s.service.RequestSignatures(s.ctx, RequestSignatures{DoctorateID: s.doctorateID})
	s.Require().NoError(err)
	return out
}

func (s *ServiceSuite) TestJuryStartsWithThePromoters() {
	out, err := s.service.Get(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Len(out.Jury.Members, 2)
	s.True(s.byMatricule(out.Jury, "P1").IsReferencePromoter)
	s.True(s.byMatricule(out.Jury, "P2").IsPromoter)
	s.Equal("Graphs", out.Jury.ProposedTitle)

	_, err = s.service.RemoveMember(s.ctx, RemoveMember{DoctorateID: s.doctorateID, MemberID: s.byMatricule(out.Jury, "P1").ID})
	s.True(dErrors.HasViolation(err, models.CodePromoterRemoved))
}

func (s *ServiceSuite) TestRequestSignaturesReportsEveryViolation() {
	_, err := s.service.RequestSignatures(s.ctx, RequestSignatures{DoctorateID: s.doctorateID})
	v, ok := dErrors.AsViolations(err)
	s.Require().True(ok)
	s.True(v.Has(models.CodeNotEnoughMembers))
	s.True(v.Has(models.CodeDefenseMethodMissing))
	s.True(v.Has(models.CodeRolesNotAssigned))
}

func (s *ServiceSuite) TestApprovalChain() {
	out := s.requestSignatures()
	s.Equal(doctorate.StatusJurySubmitted, out.DoctorateStatus)
	verifier := s.byRole(out.Jury, models.RoleVerifier)
	s.Equal(id.Matricule("AUD1"), verifier.Matricule)

	for _, m := range out.Jury.Jurors() {
		out, err := s.service.Approve(s.ctx, Approve{DoctorateID: s.doctorateID, MemberID: m.ID})
		s.Require().NoError(err)
		s.Equal(doctorate.StatusJurySubmitted, out.DoctorateStatus)
	}
	out, err := s.service.ApproveByPDF(s.ctx, ApproveByPDF{DoctorateID: s.doctorateID, MemberID: verifier.ID, PDF: []string{"signed.pdf"}})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusJuryApprovedCA, out.DoctorateStatus)

	s.wf.Notifier.EXPECT().NotifyJuryDecision(gomock.Any(), gomock.Any(), gomock.Any(), models.RoleCDD, true).Return(nil)
	out, err = s.service.CDDApprove(s.ctx, CDDApprove{ManagerDecision{DoctorateID: s.doctorateID}})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusJuryApprovedCDD, out.DoctorateStatus)
	s.Equal(id.Matricule("CDD1"), s.byRole(out.Jury, models.RoleCDD).Matricule)

	s.wf.Notifier.EXPECT().NotifyJuryDecision(gomock.Any(), gomock.Any(), gomock.Any(), models.RoleADRE, true).Return(nil)
	out, err = s.service.ADREApprove(s.ctx, ADREApprove{ManagerDecision{DoctorateID: s.doctorateID}})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusJuryApprovedADRE, out.DoctorateStatus)
	s.Len(s.wf.History.List(s.doctorateID, aggregate, ports.TagStatusChanged), 4)
}

func (s *ServiceSuite) TestRefusalResetsTheJury() {
	out := s.requestSignatures()
	secretary := s.byRole(out.Jury, models.RoleSecretary)

	_, err := s.service.Refuse(s.ctx, Refuse{DoctorateID: s.doctorateID, MemberID: secretary.ID})
	s.True(dErrors.HasViolation(err, models.CodeRefusalReasonRequired))

	s.wf.Notifier.EXPECT().NotifyJuryRefusal(gomock.Any(), gomock.Any(), gomock.Any(),
		gomock.Cond(func(m models.Member) bool { return m.ID == secretary.ID }), "date conflict").Return(nil)
	out, err = s.service.Refuse(s.ctx, Refuse{DoctorateID: s.doctorateID, MemberID: secretary.ID, Reason: "date conflict"})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusConfirmationPassed, out.DoctorateStatus)
	s.Equal(models.StatusInProgress, out.Jury.Status)
}

func (s *ServiceSuite) TestCDDRefusalNeedsAReason() {
	s.requestSignatures()
	_, err := s.service.CDDRefuse(s.ctx, CDDRefuse{ManagerDecision{DoctorateID: s.doctorateID}})
	s.True(dErrors.HasViolation(err, models.CodeRefusalReasonRequired))
}

func (s *ServiceSuite) TestResendInvitation() {
	out := s.requestSignatures()
	president := s.byRole(out.Jury, models.RolePresident)
	s.wf.Notifier.EXPECT().InviteJuryMembers(gomock.Any(), gomock.Any(), gomock.Len(1)).Return(nil)
	_, err := s.service.ResendInvitation(s.ctx, ResendInvitation{DoctorateID: s.doctorateID, MemberID: president.ID})
	s.Require().NoError(err)
}
