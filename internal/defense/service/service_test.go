package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"parcours/internal/defense/models"
	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	now     time.Time
	ctx     context.Context
	wf      *testutil.Workflow
	service *Service

	doctorateID id.DoctorateID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	s.ctx = testutil.CommandContext(s.now, "S1")
	s.wf = testutil.NewWorkflow(s.T())
	s.service = New(s.wf.UoW)
	s.doctorateID = id.NewDoctorateID()
}

// seed stores a doctorate whose jury was approved by the ADRE, with the
// given defense method. extra runs before the doctorate is saved.
func (s *ServiceSuite) seed(method doctorate.DefenseMethod, extra func(ctx context.Context, st ports.Stores, d *doctorate.Doctorate) error) {
	s.wf.Seed(s.T(), func(ctx context.Context, st ports.Stores) error {
		d, err := doctorate.NewDoctorate(s.doctorateID, "ADM-1",
			doctorate.Student{Matricule: "S1", FirstName: "Ada", LastName: "Lovelace"},
			doctorate.Training{Acronym: "SC3DP", CDD: "CDSC", Year: 2021}, s.now)
		if err != nil {
			return err
		}
		d.Status = doctorate.StatusJuryApprovedADRE
		d.DefenseMethod = method
		d.ProposedThesisTitle = "On computable numbers"
		g, err := supervision.NewGroup(id.NewSupervisionGroupID(), s.doctorateID, s.now)
		if err != nil {
			return err
		}
		if err := st.Groups.Save(ctx, g); err != nil {
			return err
		}
		if extra != nil {
			if err := extra(ctx, st, d); err != nil {
				return err
			}
		}
		return st.Doctorates.Save(ctx, d)
	})
}

func (s *ServiceSuite) status() doctorate.Status {
	var status doctorate.Status
	s.wf.Read(s.T(), func(ctx context.Context, st ports.Stores) {
		d, err := st.Doctorates.Get(ctx, s.doctorateID)
		s.Require().NoError(err)
		status = d.Status
	})
	return status
}

func (s *ServiceSuite) at(day int) *time.Time {
	t := time.Date(2025, 6, day, 14, 0, 0, 0, time.UTC)
	return &t
}

func (s *ServiceSuite) submitPrivateDefense() View {
	s.wf.Notifier.EXPECT().NotifyPrivateDefenseSubmitted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	out, err := s.service.SubmitPrivateDefense(s.ctx, SubmitPrivateDefense{
		DoctorateID: s.doctorateID, ThesisTitle: "On computable numbers", Datetime: s.at(12), Place: "Room A",
	})
	s.Require().NoError(err)
	return out
}

func (s *ServiceSuite) TestAdmissibilityResubmissionArchivesPrevious() {
	previous := id.NewAdmissibilityID()
	s.seed(doctorate.DefenseMethodF2, func(ctx context.Context, st ports.Stores, d *doctorate.Doctorate) error {
		a, err := models.NewAdmissibility(previous, s.doctorateID, s.now)
		if err != nil {
			return err
		}
		a.DecisionDate = s.at(1)
		d.Admissibilities.Replace(a.ID)
		return st.Admissibilities.Save(ctx, a)
	})

	decision := s.at(20)
	s.wf.Notifier.EXPECT().NotifyAdmissibilitySubmitted(gomock.Any(), gomock.Any(), gomock.Any(), decision).Return(nil)
	out, err := s.service.SubmitAdmissibility(s.ctx, SubmitAdmissibility{
		DoctorateID: s.doctorateID, ThesisTitle: "Revised title", DecisionDate: decision,
	})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusAdmissibilitySubmitted, out.Status)
	s.Equal("Revised title", out.ThesisTitle)
	s.Require().NotNil(out.Admissibility)
	s.NotEqual(previous, out.Admissibility.ID)

	all, err := s.service.ListAdmissibilities(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	for _, a := range all {
		s.Equal(a.ID != previous, a.Active)
	}
}

func (s *ServiceSuite) TestAdmissibilityWithoutDecisionDateIsArchived() {
	previous := id.NewAdmissibilityID()
	s.seed(doctorate.DefenseMethodF2, func(ctx context.Context, st ports.Stores, d *doctorate.Doctorate) error {
		a, err := models.NewAdmissibility(previous, s.doctorateID, s.now)
		if err != nil {
			return err
		}
		d.Admissibilities.Replace(a.ID)
		return st.Admissibilities.Save(ctx, a)
	})

	s.wf.Notifier.EXPECT().NotifyAdmissibilitySubmitted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	out, err := s.service.SubmitAdmissibility(s.ctx, SubmitAdmissibility{
		DoctorateID: s.doctorateID, ThesisTitle: "Revised title", DecisionDate: s.at(20),
	})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusAdmissibilitySubmitted, out.Status)
	s.Require().NotNil(out.Admissibility)
	s.NotEqual(previous, out.Admissibility.ID)

	all, err := s.service.ListAdmissibilities(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	for _, a := range all {
		s.Equal(a.ID != previous, a.Active)
	}
}

func (s *ServiceSuite) TestAdmissibilityResubmissionKeepsInstance() {
	s.seed(doctorate.DefenseMethodF2, nil)
	s.wf.Notifier.EXPECT().NotifyAdmissibilitySubmitted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	first, err := s.service.SubmitAdmissibility(s.ctx, SubmitAdmissibility{
		DoctorateID: s.doctorateID, ThesisTitle: "T", DecisionDate: s.at(20),
	})
	s.Require().NoError(err)
	second, err := s.service.SubmitAdmissibility(s.ctx, SubmitAdmissibility{
		DoctorateID: s.doctorateID, ThesisTitle: "T2", DecisionDate: s.at(21),
	})
	s.Require().NoError(err)
	s.Equal(first.Admissibility.ID, second.Admissibility.ID)

	all, err := s.service.ListAdmissibilities(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ServiceSuite) TestFormula1HasNoAdmissibility() {
	s.seed(doctorate.DefenseMethodF1, nil)
	_, err := s.service.SubmitAdmissibility(s.ctx, SubmitAdmissibility{
		DoctorateID: s.doctorateID, ThesisTitle: "T", DecisionDate: s.at(20),
	})
	s.True(dErrors.HasViolation(err, doctorate.CodeDefenseMethodMismatch))
}

func (s *ServiceSuite) TestAdmissibilityIncompleteForm() {
	s.seed(doctorate.DefenseMethodF2, nil)
	_, err := s.service.SubmitAdmissibility(s.ctx, SubmitAdmissibility{DoctorateID: s.doctorateID, ThesisTitle: "T"})
	s.True(dErrors.HasViolation(err, models.CodeAdmissibilityIncomplete))
	s.Equal(doctorate.StatusJuryApprovedADRE, s.status())
}

func (s *ServiceSuite) TestAdmissibilityDecisionNeedsMinutes() {
	s.seed(doctorate.DefenseMethodF2, nil)
	s.wf.Notifier.EXPECT().NotifyAdmissibilitySubmitted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	_, err := s.service.SubmitAdmissibility(s.ctx, SubmitAdmissibility{
		DoctorateID: s.doctorateID, ThesisTitle: "T", DecisionDate: s.at(20),
	})
	s.Require().NoError(err)

	_, err = s.service.RecordAdmissibilityDecision(s.ctx, RecordAdmissibilityDecision{DoctorateID: s.doctorateID, Passed: true})
	s.True(dErrors.HasViolation(err, models.CodeDecisionIncomplete))

	_, err = s.service.SubmitAdmissibilityMinutes(s.ctx, SubmitAdmissibilityMinutes{
		DoctorateID: s.doctorateID, Minutes: []string{"pv.pdf"}, JuryOpinion: []string{"opinion.pdf"},
	})
	s.Require().NoError(err)
	out, err := s.service.RecordAdmissibilityDecision(s.ctx, RecordAdmissibilityDecision{DoctorateID: s.doctorateID, Passed: true})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusAdmissibilityPassed, out.Status)
	s.Equal([]string{"opinion.pdf"}, out.Admissibility.JuryOpinion)
}

func (s *ServiceSuite) TestPrivateDefenseRetry() {
	s.seed(doctorate.DefenseMethodF1, nil)
	first := s.submitPrivateDefense()
	s.Equal(doctorate.StatusPrivateDefenseSubmitted, first.Status)
	s.Require().NotNil(first.PrivateDefense)

	_, err := s.service.SubmitPrivateDefenseMinutes(s.ctx, SubmitPrivateDefenseMinutes{
		DoctorateID: s.doctorateID, Minutes: []string{"pv.pdf"},
	})
	s.True(dErrors.HasViolation(err, models.CodeStatusNotDefenseAuthorized))

	_, err = s.service.AuthorizePrivateDefense(s.ctx, AuthorizePrivateDefense{DoctorateID: s.doctorateID})
	s.Require().NoError(err)
	_, err = s.service.SubmitPrivateDefenseMinutes(s.ctx, SubmitPrivateDefenseMinutes{
		DoctorateID: s.doctorateID, Minutes: []string{"pv.pdf"},
	})
	s.Require().NoError(err)

	out, err := s.service.RecordPrivateDefenseRetry(s.ctx, RecordPrivateDefenseRetry{
		PrivateDefenseDecision{DoctorateID: s.doctorateID},
	})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusPrivateDefenseFailed, out.Status)
	s.Require().NotNil(out.PrivateDefense)
	s.NotEqual(first.PrivateDefense.ID, out.PrivateDefense.ID)
	s.Nil(out.PrivateDefense.Datetime)

	again := s.submitPrivateDefense()
	s.Equal(out.PrivateDefense.ID, again.PrivateDefense.ID)
	s.Equal(doctorate.StatusPrivateDefenseSubmitted, again.Status)

	all, err := s.service.ListPrivateDefenses(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *ServiceSuite) TestAuthorizeNeedsSubmission() {
	s.seed(doctorate.DefenseMethodF1, nil)
	_, err := s.service.AuthorizePrivateDefense(s.ctx, AuthorizePrivateDefense{DoctorateID: s.doctorateID})
	s.True(dErrors.HasViolation(err, models.CodeStatusNotDefenseSubmitted))
}

func (s *ServiceSuite) TestFormula1ToDefenseSuccess() {
	s.seed(doctorate.DefenseMethodF1, nil)
	s.submitPrivateDefense()
	_, err := s.service.AuthorizePrivateDefense(s.ctx, AuthorizePrivateDefense{DoctorateID: s.doctorateID})
	s.Require().NoError(err)
	_, err = s.service.RecordPrivateDefenseSuccess(s.ctx, RecordPrivateDefenseSuccess{
		PrivateDefenseDecision{DoctorateID: s.doctorateID},
	})
	s.Require().NoError(err)

	_, err = s.service.SubmitPublicDefense(s.ctx, SubmitPublicDefense{DoctorateID: s.doctorateID})
	s.True(dErrors.HasViolation(err, doctorate.CodePublicDefenseIncomplete))

	_, err = s.service.ModifyPublicDefense(s.ctx, ModifyPublicDefense{
		DoctorateID: s.doctorateID, Language: "FR", Datetime: s.at(28), Place: "Aula Magna",
	})
	s.Require().NoError(err)
	out, err := s.service.SubmitPublicDefense(s.ctx, SubmitPublicDefense{DoctorateID: s.doctorateID})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusPublicDefenseSubmitted, out.Status)
	s.Equal("Aula Magna", out.PublicDefense.Place)

	_, err = s.service.AuthorizePublicDefense(s.ctx, AuthorizePublicDefense{DoctorateID: s.doctorateID})
	s.Require().NoError(err)
	_, err = s.service.SubmitPublicDefenseMinutes(s.ctx, SubmitPublicDefenseMinutes{
		DoctorateID: s.doctorateID, Minutes: []string{"public.pdf"},
	})
	s.Require().NoError(err)
	out, err = s.service.RecordDefenseSuccess(s.ctx, RecordDefenseSuccess{DoctorateID: s.doctorateID})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusDefensePassed, out.Status)
	s.Equal([]string{"public.pdf"}, out.PublicDefense.Minutes)
}

func (s *ServiceSuite) TestFormula2CombinedDefense() {
	s.seed(doctorate.DefenseMethodF2, func(_ context.Context, _ ports.Stores, d *doctorate.Doctorate) error {
		d.Status = doctorate.StatusAdmissibilityPassed
		return nil
	})
	out := s.submitPrivateDefense()
	s.Equal(doctorate.StatusDefensesSubmitted, out.Status)

	_, err := s.service.AuthorizePrivateDefense(s.ctx, AuthorizePrivateDefense{DoctorateID: s.doctorateID})
	s.Require().NoError(err)
	out, err = s.service.RecordPrivateDefenseSuccess(s.ctx, RecordPrivateDefenseSuccess{
		PrivateDefenseDecision{DoctorateID: s.doctorateID},
	})
	s.Require().NoError(err)
	s.Equal(doctorate.StatusDefensePassed, out.Status)
}

func (s *ServiceSuite) TestGetUnknownDoctorate() {
	_, err := s.service.Get(s.ctx, id.NewDoctorateID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
