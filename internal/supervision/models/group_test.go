package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/signature"
)

type GroupSuite struct {
	suite.Suite
	now   time.Time
	group *Group
	p1    id.SignatoryID
	p2    id.SignatoryID
	c1    id.SignatoryID
	c2    id.SignatoryID
}

func TestGroupSuite(t *testing.T) {
	suite.Run(t, new(GroupSuite))
}

func (s *GroupSuite) SetupTest() {
	s.now = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	g, err := NewGroup(id.NewSupervisionGroupID(), id.NewDoctorateID(), s.now)
	s.Require().NoError(err)
	s.group = g
	s.p1, s.p2, s.c1, s.c2 = id.NewSignatoryID(), id.NewSignatoryID(), id.NewSignatoryID(), id.NewSignatoryID()
	s.Require().NoError(g.AddPromoter(s.p1, "P1", ExternalPerson{}, s.now))
	s.Require().NoError(g.AddPromoter(s.p2, "P2", ExternalPerson{}, s.now))
	s.Require().NoError(g.AddCAMember(s.c1, "C1", ExternalPerson{}, s.now))
	s.Require().NoError(g.AddCAMember(s.c2, "C2", ExternalPerson{}, s.now))
}

func (s *GroupSuite) state(memberID id.SignatoryID) signature.State {
	sig, ok := s.group.SignatureOf(memberID)
	s.Require().True(ok)
	return sig.State
}

func (s *GroupSuite) TestIdentify() {
	s.Run("internal xor external", func() {
		err := s.group.AddCAMember(id.NewSignatoryID(), "X1", ExternalPerson{FirstName: "Jane"}, s.now)
		s.True(dErrors.HasViolation(err, CodeMemberInternalXorExt))

		err = s.group.AddPromoter(id.NewSignatoryID(), "", ExternalPerson{FirstName: "Jane"}, s.now)
		s.True(dErrors.HasViolation(err, CodeMemberInternalXorExt))
	})

	s.Run("external member with every field", func() {
		ext := ExternalPerson{
			FirstName: "Jane", LastName: "Doe", Email: "jane@example.org", Institution: "ULB",
			City: "Brussels", Country: "BE", Language: "FR",
		}
		s.NoError(s.group.AddPromoter(id.NewSignatoryID(), "", ext, s.now))
		err := s.group.AddPromoter(id.NewSignatoryID(), "", ext, s.now)
		s.True(dErrors.HasViolation(err, CodeAlreadyMember))
	})

	s.Run("duplicate internal member", func() {
		err := s.group.AddCAMember(id.NewSignatoryID(), "P1", ExternalPerson{}, s.now)
		s.True(dErrors.HasViolation(err, CodeAlreadyMember))
	})

	s.Run("capacity", func() {
		s.Require().NoError(s.group.AddCAMember(id.NewSignatoryID(), "C3", ExternalPerson{}, s.now))
		err := s.group.AddCAMember(id.NewSignatoryID(), "C4", ExternalPerson{}, s.now)
		s.True(dErrors.HasViolation(err, CodeCAMembersFull))
	})
}

func (s *GroupSuite) TestReferencePromoter() {
	s.True(dErrors.HasViolation(s.group.DesignateReferencePromoter(s.c1, s.now), CodePromoterNotFound))

	s.Require().NoError(s.group.DesignateReferencePromoter(s.p1, s.now))
	s.True(s.group.IsReferencePromoter("P1"))
	s.False(s.group.IsReferencePromoter("P2"))

	s.Require().NoError(s.group.RemovePromoter(s.p1, s.now))
	s.False(s.group.HasReferencePromoter(), "removing the lead promoter clears the pointer")
}

func (s *GroupSuite) TestInviteToSignIsIdempotent() {
	invited := s.group.InviteToSign(s.now)
	s.Len(invited, 4)
	s.Empty(s.group.InviteToSign(s.now))
	s.Equal(signature.StateInvited, s.state(s.p1))
}

func (s *GroupSuite) TestPromoterRefusal() {
	s.group.Lock(s.now)
	s.group.InviteToSign(s.now)
	s.Require().NoError(s.group.Approve(s.p2, "", "", s.now))

	_, err := s.group.Refuse(s.p1, "R", "", "", s.now)
	s.Require().NoError(err)

	s.Equal(signature.StateDeclined, s.state(s.p1))
	s.Equal(signature.StateNotInvited, s.state(s.p2))
	s.Equal(signature.StateInvited, s.state(s.c1))
	s.Equal(StatusInProgress, s.group.Status)

	sig, _ := s.group.SignatureOf(s.p1)
	s.Equal("R", sig.RefusalReason)
}

func (s *GroupSuite) TestCAMemberRefusalRemovesMember() {
	s.group.InviteToSign(s.now)
	_, err := s.group.Refuse(s.c1, "", "", "", s.now)
	s.Require().NoError(err)
	s.Len(s.group.CAMembers(), 1)
	_, ok := s.group.SignatureOf(s.c1)
	s.False(ok)
}

func (s *GroupSuite) TestRequestSignaturesResetsDeclinedNotApproved() {
	s.group.InviteToSign(s.now)
	s.Require().NoError(s.group.Approve(s.c1, "", "", s.now))
	_, err := s.group.Refuse(s.p1, "R", "", "", s.now)
	s.Require().NoError(err)

	s.group.InviteToSign(s.now)
	s.Equal(signature.StateInvited, s.state(s.p1))
	s.Equal(signature.StateInvited, s.state(s.p2))
	s.Equal(signature.StateApproved, s.state(s.c1))
}

func (s *GroupSuite) TestApprovalRules() {
	s.True(dErrors.HasViolation(s.group.Approve(s.p1, "", "", s.now), CodeSignatoryNotInvited))
	s.True(dErrors.HasViolation(s.group.Approve(id.NewSignatoryID(), "", "", s.now), CodeSignatoryNotFound))

	err := s.group.VerifyEveryoneApproved()
	v, ok := dErrors.AsViolations(err)
	s.Require().True(ok)
	s.Equal([]string{CodeSigningNotStarted, CodePromotersNotApproved, CodeCAMembersNotApproved}, v.Codes())

	s.group.Lock(s.now)
	s.group.InviteToSign(s.now)
	for _, m := range []id.SignatoryID{s.p1, s.p2, s.c1} {
		s.Require().NoError(s.group.Approve(m, "", "ok", s.now))
	}
	s.Require().NoError(s.group.ApproveByPDF(s.c2, []string{"signed.pdf"}, s.now))
	s.NoError(s.group.VerifyEveryoneApproved())
}

func (s *GroupSuite) TestVerifySignatories() {
	err := s.group.VerifySignatories()
	s.True(dErrors.HasViolation(err, CodeReferencePromoterUnset))

	s.Require().NoError(s.group.DesignateReferencePromoter(s.p1, s.now))
	s.NoError(s.group.VerifySignatories())

	s.NoError(s.group.VerifyPromoters(false))
	s.True(dErrors.HasViolation(s.group.VerifyPromoters(true), CodeExternalPromoterMissing))
}

func (s *GroupSuite) TestReferencePromoterInstitute() {
	s.Require().NoError(s.group.DesignateReferencePromoter(s.p1, s.now))
	s.True(dErrors.HasViolation(s.group.VerifyReferencePromoterInstitute(s.p1, "", ""), CodeThesisInstituteMissing))
	s.NoError(s.group.VerifyReferencePromoterInstitute(s.p1, "", "INST"))
	s.NoError(s.group.VerifyReferencePromoterInstitute(s.p2, "", ""))
}

func (s *GroupSuite) TestModifyExternalMemberBlockedWhileSigning() {
	s.group.Lock(s.now)
	err := s.group.ModifyExternalMember(s.p1, ExternalPerson{}, s.now)
	s.True(dErrors.HasViolation(err, CodeSigningAlreadyStarted))
}
