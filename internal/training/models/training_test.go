package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
)

type TrainingSuite struct {
	suite.Suite
	now         time.Time
	doctorateID id.DoctorateID
}

func TestTrainingSuite(t *testing.T) {
	suite.Run(t, new(TrainingSuite))
}

func (s *TrainingSuite) SetupTest() {
	s.now = time.Date(2021, 1, 13, 10, 0, 0, 0, time.UTC)
	s.doctorateID = id.NewDoctorateID()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *TrainingSuite) activity(category Category, parent *Activity) *Activity {
	a, err := NewActivity(id.NewActivityID(), s.doctorateID, ContextDoctoralTraining, category, parent, s.now)
	s.Require().NoError(err)
	return a
}

func (s *TrainingSuite) seminar() *Activity {
	a := s.activity(CategorySeminar, nil)
	start, end := day(2020, 10, 1), day(2020, 12, 1)
	a.Title, a.StartDate, a.EndDate, a.Hours = "Seminar", &start, &end, "12"
	return a
}

func (s *TrainingSuite) TestDeleteRejectsSubmittedChild() {
	seminar := s.seminar()
	child := s.activity(CategoryCommunication, seminar)
	child.Status = StatusSubmitted

	err := seminar.CheckDeletable([]*Activity{child})
	v, ok := dErrors.AsViolations(err)
	s.Require().True(ok)
	s.Require().Len(v.List, 1)
	s.Equal(CodeAlreadySubmitted, v.List[0].Code)
	s.Equal(child.ID.String(), v.List[0].EntityID)

	child.Status = StatusNotSubmitted
	s.NoError(seminar.CheckDeletable([]*Activity{child}))
}

func (s *TrainingSuite) TestChildInheritsParent() {
	seminar := s.seminar()
	seminar.Context = ContextComplementaryTraining
	child := s.activity(CategoryCommunication, seminar)
	s.Equal(CategorySeminar, child.ParentCategory)
	s.Equal(ContextComplementaryTraining, child.Context)

	_, err := NewActivity(id.NewActivityID(), s.doctorateID, ContextDoctoralTraining, CategoryPublication, child, s.now)
	s.True(dErrors.HasViolation(err, CodeInvalidParent))
}

func (s *TrainingSuite) TestSubmissionReportsOffendingActivities() {
	seminar := s.seminar()
	child := s.activity(CategoryCommunication, seminar)
	conference := s.activity(CategoryConference, nil)
	conference.ECTS = decimal.NewFromInt(-1)
	done := s.activity(CategoryPaper, nil)
	done.Subtype = "ARTICLE"
	done.Status = StatusAccepted

	children := map[id.ActivityID][]*Activity{seminar.ID: {child}}
	err := VerifySubmission([]*Activity{seminar, conference, done}, func(a *Activity) []*Activity {
		return children[a.ID]
	})
	v, ok := dErrors.AsViolations(err)
	s.Require().True(ok)

	byEntity := map[string][]string{}
	for _, viol := range v.List {
		byEntity[viol.EntityID] = append(byEntity[viol.EntityID], viol.Code)
	}
	s.Equal([]string{CodeIncomplete}, byEntity[child.ID.String()], "seminar validation covers the child")
	s.ElementsMatch([]string{CodeIncomplete, CodeECTSNegative}, byEntity[conference.ID.String()])
	s.Equal([]string{CodeMustBeNotSubmitted}, byEntity[done.ID.String()])
	s.Empty(byEntity[seminar.ID.String()])

	child.Title = "Talk"
	s.NoError(VerifySubmission([]*Activity{seminar}, func(a *Activity) []*Activity { return children[a.ID] }))
}

func (s *TrainingSuite) TestReview() {
	s.Run("refusal needs a remark", func() {
		a := s.activity(CategoryPaper, nil)
		a.Submit(s.now)
		s.True(dErrors.HasViolation(a.Refuse(true, " ", s.now), CodeRemarkRequired))
	})

	s.Run("refusal with modification reopens the activity", func() {
		a := s.activity(CategoryPaper, nil)
		a.Submit(s.now)
		s.Require().NoError(a.Refuse(true, "fix the title", s.now))
		s.Equal(StatusNotSubmitted, a.Status)
		s.Equal("fix the title", a.ManagerComment)
	})

	s.Run("seminar children keep no manager comment", func() {
		child := s.activity(CategoryCommunication, s.seminar())
		child.Submit(s.now)
		s.Require().NoError(child.Refuse(false, "no", s.now))
		s.Equal(StatusRefused, child.Status)
		s.Empty(child.ManagerComment)
	})

	s.Run("revert needs a review", func() {
		a := s.activity(CategoryPaper, nil)
		s.True(dErrors.HasViolation(a.RevertToSubmitted(s.now), CodeMustBeReviewed))
		a.Submit(s.now)
		s.Require().NoError(a.Accept(s.now))
		s.Require().NoError(a.RevertToSubmitted(s.now))
		s.Equal(StatusSubmitted, a.Status)
	})

	s.Run("UCL course accepted once completed", func() {
		a := s.activity(CategoryUCLCourse, nil)
		a.Submit(s.now)
		s.True(dErrors.HasViolation(a.Accept(s.now), CodeCourseNotCompleted))
		a.CourseCompleted = true
		s.NoError(a.Accept(s.now))
	})
}

func (s *TrainingSuite) TestTotalECTS() {
	accepted := s.activity(CategoryPaper, nil)
	accepted.Status, accepted.ECTS = StatusAccepted, decimal.RequireFromString("2.5")
	other := s.activity(CategoryPaper, nil)
	other.Status, other.ECTS = StatusSubmitted, decimal.NewFromInt(5)
	complementary, err := NewActivity(id.NewActivityID(), s.doctorateID, ContextComplementaryTraining, CategoryCourse, nil, s.now)
	s.Require().NoError(err)
	complementary.Status, complementary.ECTS = StatusAccepted, decimal.NewFromInt(3)

	s.True(decimal.RequireFromString("2.5").Equal(TotalECTS([]*Activity{accepted, other, complementary})))
}

func (s *TrainingSuite) enrollment(course *Activity) *Enrollment {
	e, err := Enroll(id.NewEnrollmentID(), course, EnrollmentKey{
		Year: 2020, Session: SessionJanuary, CourseAcronym: "LDROI1001", Student: "0123456",
	}, false, s.now)
	s.Require().NoError(err)
	return e
}

func (s *TrainingSuite) TestUnenroll() {
	course := s.activity(CategoryUCLCourse, nil)
	period := &EncodingPeriod{Start: day(2021, 1, 1), End: day(2021, 1, 30)}
	privateDefense := time.Date(2021, 1, 15, 14, 0, 0, 0, time.UTC)

	s.Run("within the encoding period with a private defense", func() {
		e := s.enrollment(course)
		s.Require().NoError(e.Unenroll(period, &privateDefense, s.now))
		s.True(e.LateUnenrollment)
		s.Require().NotNil(e.TeacherDeadline)
		s.Equal(day(2021, 1, 13), *e.TeacherDeadline)
		s.True(dErrors.HasViolation(e.Unenroll(period, nil, s.now), CodeEnrollmentCancelled))
	})

	s.Run("the day before the period starts", func() {
		e := s.enrollment(course)
		s.Require().NoError(e.Unenroll(period, nil, day(2020, 12, 31)))
		s.False(e.LateUnenrollment)
		s.Equal(day(2021, 1, 30), *e.TeacherDeadline)
	})

	s.Run("on the first day of the period", func() {
		s.True(IsLateUnenrollment(period, day(2021, 1, 1)))
	})

	s.Run("without encoding period", func() {
		e := s.enrollment(course)
		s.Require().NoError(e.Unenroll(nil, &privateDefense, s.now))
		s.False(e.LateUnenrollment)
		s.Equal(day(2021, 1, 13), *e.TeacherDeadline)
		s.Nil(TeacherDeadline(nil, nil))
	})

	s.Run("reenroll", func() {
		e := s.enrollment(course)
		s.True(dErrors.HasViolation(e.Reenroll(false, s.now), CodeEnrollmentActive))
		s.Require().NoError(e.Unenroll(period, nil, s.now))
		s.Require().NoError(e.Reenroll(true, s.now))
		s.True(e.IsActive())
		s.True(e.LateEnrollment)
	})
}

func (s *TrainingSuite) TestEnrollRequiresUCLCourse() {
	_, err := Enroll(id.NewEnrollmentID(), s.activity(CategoryPaper, nil), EnrollmentKey{
		Year: 2020, Session: SessionJune, CourseAcronym: "X", Student: "1",
	}, false, s.now)
	s.True(dErrors.HasViolation(err, CodeInvalidParent))
}

func (s *TrainingSuite) TestEncodeMark() {
	for _, tc := range []struct {
		mark      string
		completed bool
	}{
		{"9.99", false},
		{"10", true},
		{"S", false},
		{"18.5", true},
	} {
		s.Run(tc.mark, func() {
			course := s.activity(CategoryUCLCourse, nil)
			e := s.enrollment(course)
			ev, err := NewEvaluation(id.NewEvaluationID(), e)
			s.Require().NoError(err)

			completed, err := ev.EncodeMark(tc.mark, e, course, s.now)
			s.Require().NoError(err)
			s.Equal(tc.completed, completed)
			s.Equal(tc.completed, course.CourseCompleted)
			s.Equal(tc.mark, e.SubmittedMark)
		})
	}
}
