package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	defense "parcours/internal/defense/models"
	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	"parcours/internal/training/models"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
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

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2021, 1, 13, 10, 0, 0, 0, time.UTC)
	s.ctx = testutil.CommandContext(s.now, "S1")
	s.wf = testutil.NewWorkflow(s.T())
	s.service = New(s.wf.UoW)

	s.doctorateID = id.NewDoctorateID()
	s.wf.Seed(s.T(), func(ctx context.Context, st ports.Stores) error {
		d, err := doctorate.NewDoctorate(s.doctorateID, "ADM-1",
			doctorate.Student{Matricule: "S1", FirstName: "Ada", LastName: "Lovelace"},
			doctorate.Training{Acronym: "SC3DP", CDD: "CDSC", Year: 2020}, s.now)
		if err != nil {
			return err
		}
		g, err := supervision.NewGroup(id.NewSupervisionGroupID(), s.doctorateID, s.now)
		if err != nil {
			return err
		}
		if err := st.Doctorates.Save(ctx, d); err != nil {
			return err
		}
		return st.Groups.Save(ctx, g)
	})
}

func (s *ServiceSuite) create(cmd CreateActivity) models.Activity {
	cmd.DoctorateID = s.doctorateID
	if cmd.Context == "" {
		cmd.Context = models.ContextDoctoralTraining
	}
	a, err := s.service.CreateActivity(s.ctx, cmd)
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) seminar() models.Activity {
	start, end := day(2020, 10, 1), day(2020, 12, 1)
	return s.create(CreateActivity{Category: models.CategorySeminar, ActivityFields: ActivityFields{
		Title: "Seminar", StartDate: &start, EndDate: &end, Hours: "12", ECTS: "2.5",
	}})
}

func (s *ServiceSuite) expectSubmission() {
	s.wf.Notifier.EXPECT().NotifyActivitiesSubmitted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
}

func (s *ServiceSuite) TestDeleteRejectsSubmittedChild() {
	seminar := s.seminar()
	child := s.create(CreateActivity{Category: models.CategoryCommunication, ParentID: seminar.ID,
		ActivityFields: ActivityFields{Title: "Talk"}})

	s.expectSubmission()
	_, err := s.service.SubmitActivities(s.ctx, SubmitActivities{DoctorateID: s.doctorateID, ActivityIDs: []id.ActivityID{seminar.ID}})
	s.Require().NoError(err)

	err = s.service.DeleteActivity(s.ctx, DeleteActivity{DoctorateID: s.doctorateID, ActivityID: seminar.ID})
	v, ok := dErrors.AsViolations(err)
	s.Require().True(ok)
	s.Contains(v.Codes(), models.CodeAlreadySubmitted)
	var entities []string
	for _, item := range v.List {
		entities = append(entities, item.EntityID)
	}
	s.Contains(entities, child.ID.String())
}

func (s *ServiceSuite) TestDeleteRemovesChildren() {
	seminar := s.seminar()
	child := s.create(CreateActivity{Category: models.CategoryCommunication, ParentID: seminar.ID})

	s.Require().NoError(s.service.DeleteActivity(s.ctx, DeleteActivity{DoctorateID: s.doctorateID, ActivityID: seminar.ID}))
	_, err := s.service.ModifyActivity(s.ctx, ModifyActivity{DoctorateID: s.doctorateID, ActivityID: child.ID})
	s.True(dErrors.HasViolation(err, models.CodeActivityNotFound))
}

func (s *ServiceSuite) TestSubmissionReportsEveryActivity() {
	conference := s.create(CreateActivity{Category: models.CategoryConference, ActivityFields: ActivityFields{Title: "Conf"}})
	paper := s.create(CreateActivity{Category: models.CategoryPaper})

	_, err := s.service.SubmitActivities(s.ctx, SubmitActivities{
		DoctorateID: s.doctorateID, ActivityIDs: []id.ActivityID{conference.ID, paper.ID},
	})
	v, ok := dErrors.AsViolations(err)
	s.Require().True(ok)
	s.Len(v.List, 2)
	s.Equal([]string{models.CodeIncomplete, models.CodeIncomplete}, v.Codes())
}

func (s *ServiceSuite) TestReview() {
	paper := s.create(CreateActivity{Category: models.CategoryPaper, ActivityFields: ActivityFields{Subtype: "ARTICLE", ECTS: "3"}})
	other := s.create(CreateActivity{Category: models.CategoryPaper, ActivityFields: ActivityFields{Subtype: "ARTICLE", ECTS: "1"}})
	s.expectSubmission()
	_, err := s.service.SubmitActivities(s.ctx, SubmitActivities{DoctorateID: s.doctorateID, ActivityIDs: []id.ActivityID{paper.ID, other.ID}})
	s.Require().NoError(err)

	s.wf.Notifier.EXPECT().NotifyActivityReviewed(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	_, err = s.service.AcceptActivities(s.ctx, AcceptActivities{DoctorateID: s.doctorateID, ActivityIDs: []id.ActivityID{paper.ID}})
	s.Require().NoError(err)
	refused, err := s.service.RefuseActivity(s.ctx, RefuseActivity{
		DoctorateID: s.doctorateID, ActivityID: other.ID, WithModification: true, Remark: "fix it",
	})
	s.Require().NoError(err)
	s.Equal(models.StatusNotSubmitted, refused.Status)

	summary, err := s.service.Summary(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(3).Equal(summary.TotalECTS))

	reverted, err := s.service.RevertActivity(s.ctx, RevertActivity{DoctorateID: s.doctorateID, ActivityID: paper.ID})
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, reverted.Status)
}

func (s *ServiceSuite) TestActivityOfAnotherDoctorate() {
	paper := s.create(CreateActivity{Category: models.CategoryPaper})
	otherID := id.NewDoctorateID()
	s.wf.Seed(s.T(), func(ctx context.Context, st ports.Stores) error {
		d, err := doctorate.NewDoctorate(otherID, "ADM-2", doctorate.Student{Matricule: "S2"},
			doctorate.Training{Acronym: "SC3DP", CDD: "CDSC", Year: 2020}, s.now)
		if err != nil {
			return err
		}
		return st.Doctorates.Save(ctx, d)
	})
	_, err := s.service.RecordSupervisorOpinion(s.ctx, RecordSupervisorOpinion{DoctorateID: otherID, ActivityID: paper.ID})
	s.True(dErrors.HasViolation(err, models.CodeActivityNotFound))
}

func (s *ServiceSuite) course() models.Activity {
	return s.create(CreateActivity{Category: models.CategoryUCLCourse, ActivityFields: ActivityFields{
		CourseAcronym: "LINFO1121", AcademicYear: 2020,
	}})
}

func (s *ServiceSuite) TestLateUnenrollment() {
	course := s.course()
	e, err := s.service.Enroll(s.ctx, Enroll{DoctorateID: s.doctorateID, ActivityID: course.ID, Year: 2020, Session: models.SessionJanuary})
	s.Require().NoError(err)
	s.Equal(id.Matricule("S1"), e.Key.Student)

	s.wf.Seed(s.T(), func(ctx context.Context, st ports.Stores) error {
		p, err := defense.NewPrivateDefense(id.NewPrivateDefenseID(), s.doctorateID, s.now)
		if err != nil {
			return err
		}
		at := time.Date(2021, 1, 15, 14, 0, 0, 0, time.UTC)
		p.Datetime = &at
		return st.PrivateDefenses.Save(ctx, p)
	})

	s.wf.Notifier.EXPECT().NotifyUnenrollment(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	out, err := s.service.Unenroll(s.ctx, Unenroll{
		DoctorateID: s.doctorateID, EnrollmentID: e.ID,
		EncodingPeriod: &models.EncodingPeriod{Start: day(2021, 1, 1), End: day(2021, 1, 30)},
	})
	s.Require().NoError(err)
	s.True(out.LateUnenrollment)
	s.Require().NotNil(out.TeacherDeadline)
	s.Equal(day(2021, 1, 13), *out.TeacherDeadline)
	s.Equal(models.EnrollmentUnsubscribed, out.Status)

	out, err = s.service.Reenroll(s.ctx, Reenroll{DoctorateID: s.doctorateID, EnrollmentID: e.ID, Late: true})
	s.Require().NoError(err)
	s.True(out.IsActive())
	s.True(out.LateEnrollment)
}

func (s *ServiceSuite) TestEncodeMark() {
	course := s.course()
	e, err := s.service.Enroll(s.ctx, Enroll{DoctorateID: s.doctorateID, ActivityID: course.ID, Year: 2020, Session: models.SessionJune})
	s.Require().NoError(err)

	s.wf.Notifier.EXPECT().NotifyMarkEncodingToProgramManagers(gomock.Any(), gomock.Any(), gomock.Any(), "9.99").Return(nil)
	out, err := s.service.EncodeMark(s.ctx, EncodeMark{DoctorateID: s.doctorateID, EnrollmentID: e.ID, Mark: "9.99"})
	s.Require().NoError(err)
	s.False(out.CourseCompleted)

	s.wf.Notifier.EXPECT().NotifyMarkEncodingToProgramManagers(gomock.Any(), gomock.Any(), gomock.Any(), "10").Return(nil)
	out, err = s.service.EncodeMark(s.ctx, EncodeMark{DoctorateID: s.doctorateID, EnrollmentID: e.ID, Mark: "10"})
	s.Require().NoError(err)
	s.True(out.CourseCompleted)
	s.Equal("10", out.Evaluation.SubmittedMark)

	summary, err := s.service.Summary(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Require().Len(summary.Activities, 1)
	s.True(summary.Activities[0].CourseCompleted)
	s.Equal("10", summary.Enrollments[0].SubmittedMark)
}
