package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"parcours/internal/confirmation/models"
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
	paperID     id.ConfirmationPaperID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = testutil.CommandContext(s.now, "S1")
	s.wf = testutil.NewWorkflow(s.T())
	s.service = New(s.wf.UoW)

	s.doctorateID = id.NewDoctorateID()
	s.paperID = id.NewConfirmationPaperID()
	s.wf.Seed(s.T(), func(ctx context.Context, st ports.Stores) error {
		d, err := doctorate.NewDoctorate(s.doctorateID, "ADM-1",
			doctorate.Student{Matricule: "S1", FirstName: "Ada", LastName: "Lovelace"},
			doctorate.Training{Acronym: "SC3DP", CDD: "CDSC", Year: 2023}, s.now)
		if err != nil {
			return err
		}
		g, err := supervision.NewGroup(id.NewSupervisionGroupID(), s.doctorateID, s.now)
		if err != nil {
			return err
		}
		p, err := models.NewPaper(s.paperID, s.doctorateID, day(2024, 12, 31), s.now)
		if err != nil {
			return err
		}
		d.RegisterConfirmationPaper(p.ID, s.now)
		for _, err := range []error{st.Doctorates.Save(ctx, d), st.Groups.Save(ctx, g), st.Papers.Save(ctx, p)} {
			if err != nil {
				return err
			}
		}
		return nil
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

func (s *ServiceSuite) submit() models.PaperDTO {
	date := day(2024, 10, 1)
	s.wf.Notifier.EXPECT().NotifyConfirmationSubmitted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), true).Return(nil)
	out, err := s.service.SubmitConfirmation(s.ctx, SubmitConfirmation{
		DoctorateID: s.doctorateID, Date: &date, ResearchReport: []string{"report.pdf"},
	})
	s.Require().NoError(err)
	return out
}

func (s *ServiceSuite) decision() Decision {
	return Decision{DoctorateID: s.doctorateID, Certificate: []string{"cert.pdf"}, Subject: "Confirmation", Body: "Result"}
}

func (s *ServiceSuite) TestSubmitConfirmation() {
	out := s.submit()
	s.True(out.IsActive)
	s.Equal(doctorate.StatusConfirmationSubmitted, s.status())
	s.Len(s.wf.History.List(s.doctorateID, aggregate, "submission", ports.TagStatusChanged), 1)

	s.Run("date after deadline", func() {
		late := day(2025, 1, 2)
		_, err := s.service.SubmitConfirmation(s.ctx, SubmitConfirmation{DoctorateID: s.doctorateID, Date: &late})
		s.True(dErrors.HasViolation(err, models.CodeDateAfterDeadline))
	})
}

func (s *ServiceSuite) TestResubmissionIsFlagged() {
	s.submit()
	date := day(2024, 10, 15)
	s.wf.Notifier.EXPECT().NotifyConfirmationSubmitted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), false).Return(nil)
	out, err := s.service.SubmitConfirmation(s.ctx, SubmitConfirmation{
		DoctorateID: s.doctorateID, Date: &date, ResearchReport: []string{"report-v2.pdf"},
	})
	s.Require().NoError(err)
	s.True(out.IsActive)
	s.Equal(doctorate.StatusConfirmationSubmitted, s.status())
}

func (s *ServiceSuite) TestSubmitUnknownDoctorate() {
	date := day(2024, 10, 1)
	_, err := s.service.SubmitConfirmation(s.ctx, SubmitConfirmation{DoctorateID: id.NewDoctorateID(), Date: &date})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestExtensionRequest() {
	s.Run("opinion before request", func() {
		_, err := s.service.RecordCDDOpinion(s.ctx, RecordCDDOpinion{DoctorateID: s.doctorateID, Opinion: "ok"})
		s.True(dErrors.HasViolation(err, models.CodeExtensionMissing))
	})

	s.wf.Notifier.EXPECT().NotifyExtensionRequest(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	out, err := s.service.RequestExtension(s.ctx, RequestExtension{
		DoctorateID: s.doctorateID, NewDeadline: day(2025, 3, 31), Justification: "illness",
	})
	s.Require().NoError(err)
	s.Require().NotNil(out.Extension)

	out, err = s.service.RecordCDDOpinion(s.ctx, RecordCDDOpinion{DoctorateID: s.doctorateID, Opinion: "favourable"})
	s.Require().NoError(err)
	s.Equal("favourable", out.Extension.CDDOpinion)
}

func (s *ServiceSuite) TestSuccess() {
	s.submit()
	_, err := s.service.RecordSuccess(s.ctx, RecordSuccess{Decision: s.decision()})
	s.True(dErrors.HasViolation(err, models.CodeDecisionIncomplete))

	_, err = s.service.CompleteBySupervisor(s.ctx, CompleteBySupervisor{DoctorateID: s.doctorateID, Report: []string{"ca.pdf"}})
	s.Require().NoError(err)

	s.wf.Notifier.EXPECT().NotifyConfirmationDecision(gomock.Any(), gomock.Any(), gomock.Any(),
		gomock.Cond(func(m ports.Message) bool { return m.Sender == "S1" && m.Subject == "Confirmation" })).Return(nil)
	out, err := s.service.RecordSuccess(s.ctx, RecordSuccess{Decision: s.decision()})
	s.Require().NoError(err)
	s.Equal([]string{"cert.pdf"}, out.SuccessCertificate)
	s.Equal(doctorate.StatusConfirmationPassed, s.status())
}

func (s *ServiceSuite) TestRetryArchivesThePaper() {
	s.submit()
	_, err := s.service.CompleteBySupervisor(s.ctx, CompleteBySupervisor{DoctorateID: s.doctorateID, Report: []string{"ca.pdf"}})
	s.Require().NoError(err)

	s.wf.Notifier.EXPECT().NotifyConfirmationDecision(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	out, err := s.service.RecordRetry(s.ctx, RecordRetry{Decision: s.decision(), NewDeadline: day(2025, 6, 30)})
	s.Require().NoError(err)
	s.NotEqual(s.paperID, out.ID)
	s.True(out.IsActive)
	s.Equal(day(2025, 6, 30), out.Deadline)
	s.Equal(doctorate.StatusConfirmationRepeat, s.status())

	papers, err := s.service.List(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Require().Len(papers, 2)
	for _, p := range papers {
		if p.ID == s.paperID {
			s.True(p.Archived)
			s.False(p.IsActive)
			s.Equal([]string{"cert.pdf"}, p.FailureCertificate)
		}
	}
}

func (s *ServiceSuite) TestModifyByCDD() {
	out, err := s.service.ModifyByCDD(s.ctx, ModifyByCDD{DoctorateID: s.doctorateID, Deadline: day(2025, 2, 28)})
	s.Require().NoError(err)
	s.Equal(day(2025, 2, 28), out.Deadline)
	s.Equal(doctorate.StatusAdmitted, s.status())
	s.Len(s.wf.History.List(s.doctorateID, aggregate, "cdd-modification"), 1)
}
