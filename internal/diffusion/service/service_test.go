package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"parcours/internal/diffusion/models"
	doctorate "parcours/internal/doctorate/models"
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
	wf          *testutil.Workflow
	service     *Service
	doctorateID id.DoctorateID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.wf = testutil.NewWorkflow(s.T())
	dir := memory.NewDirectory()
	dir.AddPerson(ports.Person{Matricule: "P1", LastName: "Promoter", Email: "p1@example.org"})
	dir.AddManager(ports.ManagerADRE, "", ports.Person{Matricule: "ADRE1", LastName: "Adre", Email: "adre@example.org"})
	dir.AddManager(ports.ManagerSCEB, "", ports.Person{Matricule: "SCEB1", LastName: "Sceb"})
	s.service = New(s.wf.UoW, dir)

	s.doctorateID = id.NewDoctorateID()
	s.wf.Seed(s.T(), func(ctx context.Context, st ports.Stores) error {
		d, err := doctorate.NewDoctorate(s.doctorateID, "ADM-1",
			doctorate.Student{Matricule: "S1", FirstName: "Ada", LastName: "Lovelace"},
			doctorate.Training{Acronym: "SC3DP", CDD: "CDSC", Year: 2021}, s.now)
		if err != nil {
			return err
		}
		g, err := supervision.NewGroup(id.NewSupervisionGroupID(), s.doctorateID, s.now)
		if err != nil {
			return err
		}
		p1 := id.NewSignatoryID()
		for _, err := range []error{
			g.AddPromoter(p1, "P1", supervision.ExternalPerson{}, s.now),
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

func (s *ServiceSuite) as(actor id.Matricule) context.Context {
	return testutil.CommandContext(s.now, actor)
}

func form() models.Form {
	return models.Form{
		FundingSources: "FNRS", EnglishSummary: "Summary", ThesisLanguage: "EN",
		Keywords: []string{"graphs", " graphs "}, ConditionsType: models.ConditionsFree, AcceptedConditions: "I accept",
	}
}

func (s *ServiceSuite) submit() models.Authorization {
	s.wf.Notifier.EXPECT().InviteThesisSignatory(gomock.Any(), gomock.Any(), gomock.Any(), models.ActorReferencePromoter,
		gomock.Cond(func(p ports.Person) bool { return p.Email == "p1@example.org" })).Return(nil)
	out, err := s.service.SubmitForm(s.as("S1"), SubmitForm{DoctorateID: s.doctorateID, Form: form()})
	s.Require().NoError(err)
	return out
}

func (s *ServiceSuite) state(a models.Authorization, role signature.Role) signature.State {
	sig, ok := a.Signatory(role)
	s.Require().True(ok)
	return sig.Signature.State
}

func (s *ServiceSuite) TestEncodeAndSubmit() {
	out, err := s.service.EncodeForm(s.as("S1"), EncodeForm{DoctorateID: s.doctorateID, Form: models.Form{ThesisLanguage: "EN"}})
	s.Require().NoError(err)
	s.Equal(models.StatusNotSubmitted, out.Status)

	_, err = s.service.SubmitForm(s.as("S1"), SubmitForm{DoctorateID: s.doctorateID, Form: models.Form{ThesisLanguage: "EN"}})
	v, ok := dErrors.AsViolations(err)
	s.Require().True(ok)
	s.True(v.Has(models.CodeFundingSourcesMissing))
	s.True(v.Has(models.CodeKeywordsMissing))

	out = s.submit()
	s.Equal(models.StatusSubmitted, out.Status)
	s.Equal([]string{"graphs"}, out.Keywords)
	s.Equal(signature.StateInvited, s.state(out, models.RolePromoter))
}

func (s *ServiceSuite) TestPromoterApprovalInvitesADRE() {
	s.submit()
	s.wf.Notifier.EXPECT().InviteThesisSignatory(gomock.Any(), gomock.Any(), gomock.Any(), models.ActorADRE,
		gomock.Cond(func(p ports.Person) bool { return p.Matricule == "ADRE1" })).Return(nil)

	out, err := s.service.PromoterApprove(s.as("P1"), PromoterApprove{Review{DoctorateID: s.doctorateID, ExternalComment: "OK"}})
	s.Require().NoError(err)
	s.Equal(models.StatusPromoterApproved, out.Status)
	s.Equal(signature.StateInvited, s.state(out, models.RoleADRE))
	s.Len(s.wf.History.List(s.doctorateID, aggregate, "promoter-approval", ports.TagStatusChanged), 1)
}

func (s *ServiceSuite) TestOnlyTheInvitedSignatoryDecides() {
	s.submit()
	_, err := s.service.PromoterApprove(s.as("P2"), PromoterApprove{Review{DoctorateID: s.doctorateID}})
	s.True(dErrors.HasViolation(err, models.CodeSignatoryNotInvited))

	_, err = s.service.ADREApprove(s.as("ADRE1"), ADREApprove{Review{DoctorateID: s.doctorateID}})
	s.True(dErrors.HasViolation(err, models.CodeNotEditableByADRE))
}

func (s *ServiceSuite) TestFullChain() {
	s.submit()
	s.wf.Notifier.EXPECT().InviteThesisSignatory(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	_, err := s.service.PromoterApprove(s.as("P1"), PromoterApprove{Review{DoctorateID: s.doctorateID}})
	s.Require().NoError(err)
	out, err := s.service.ADREApprove(s.as("ADRE1"), ADREApprove{Review{DoctorateID: s.doctorateID}})
	s.Require().NoError(err)
	s.Equal(models.StatusADREApproved, out.Status)
	s.Equal(signature.StateInvited, s.state(out, models.RoleSCEB))

	s.wf.Notifier.EXPECT().NotifyThesisDistributed(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	out, err = s.service.SCEBApprove(s.as("SCEB1"), SCEBApprove{Review{DoctorateID: s.doctorateID}})
	s.Require().NoError(err)
	s.True(out.IsDistributed())
}

func (s *ServiceSuite) TestRefusalReopensTheForm() {
	s.submit()
	_, err := s.service.PromoterRefuse(s.as("P1"), PromoterRefuse{Review{DoctorateID: s.doctorateID}})
	s.True(dErrors.HasViolation(err, models.CodeRefusalReasonRequired))

	s.wf.Notifier.EXPECT().NotifyThesisRefusal(gomock.Any(), gomock.Any(), gomock.Any(), models.ActorReferencePromoter, "summary too short").Return(nil)
	out, err := s.service.PromoterRefuse(s.as("P1"), PromoterRefuse{Review{DoctorateID: s.doctorateID, Reason: "summary too short"}})
	s.Require().NoError(err)
	s.Equal(models.StatusPromoterRefused, out.Status)

	s.submit()
}
