package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
)

type DefenseSuite struct {
	suite.Suite
	now time.Time
}

func TestDefenseSuite(t *testing.T) {
	suite.Run(t, new(DefenseSuite))
}

func (s *DefenseSuite) SetupTest() {
	s.now = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
}

func (s *DefenseSuite) TestPrivateDefenseForm() {
	p, err := NewPrivateDefense(id.NewPrivateDefenseID(), id.NewDoctorateID(), s.now)
	s.Require().NoError(err)

	s.True(dErrors.HasViolation(p.SubmitForm(PrivateDefenseForm{Place: "Room"}, s.now), CodePrivateDefenseIncomplete))

	at := s.now.AddDate(0, 1, 0)
	s.Require().NoError(p.SubmitForm(PrivateDefenseForm{ThesisTitle: "Thesis", Datetime: &at, Place: "Room"}, s.now))
	s.Equal("Room", p.Place)

	p.Deactivate(s.now)
	err = p.SubmitForm(PrivateDefenseForm{ThesisTitle: "Thesis", Datetime: &at}, s.now)
	s.True(dErrors.HasViolation(err, CodePrivateDefenseInactive))
}

func (s *DefenseSuite) TestPrivateDefenseMinutesIdempotent() {
	p, err := NewPrivateDefense(id.NewPrivateDefenseID(), id.NewDoctorateID(), s.now)
	s.Require().NoError(err)

	changed, err := p.SubmitMinutes([]string{"pv.pdf"}, s.now)
	s.Require().NoError(err)
	s.True(changed)

	later := s.now.Add(time.Hour)
	changed, err = p.SubmitMinutes([]string{"pv.pdf"}, later)
	s.Require().NoError(err)
	s.False(changed)
	s.Equal(s.now, p.UpdatedAt)

	p.Deactivate(later)
	_, err = p.SubmitMinutes([]string{"other.pdf"}, later)
	s.True(dErrors.HasViolation(err, CodePrivateDefenseInactive))
}

func (s *DefenseSuite) TestAdmissibilityDecision() {
	a, err := NewAdmissibility(id.NewAdmissibilityID(), id.NewDoctorateID(), s.now)
	s.Require().NoError(err)
	s.True(dErrors.HasViolation(a.RecordDecision(s.now), CodeDecisionIncomplete))

	date := s.now.AddDate(0, 0, 10)
	s.Require().NoError(a.SubmitForm(AdmissibilityForm{ThesisTitle: "Thesis", DecisionDate: &date}, s.now))
	_, err = a.SubmitMinutes([]string{"pv.pdf"}, []string{"opinion.pdf"}, s.now)
	s.Require().NoError(err)
	s.NoError(a.RecordDecision(s.now))

	a.Deactivate(s.now)
	s.True(dErrors.HasViolation(a.RecordDecision(s.now), CodeAdmissibilityInactive))
}
