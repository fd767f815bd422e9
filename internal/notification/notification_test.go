package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	confirmation "parcours/internal/confirmation/models"
	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/ports"
	"parcours/internal/ports/mocks"
	supervision "parcours/internal/supervision/models"
	training "parcours/internal/training/models"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/outbox"
	"parcours/pkg/requestcontext"
)

type NotificationSuite struct {
	suite.Suite
	ctx       context.Context
	directory *mocks.MockDirectory
	out       *outbox.MemoryStore
	notifier  *OutboxNotifier
	dto       doctorate.DoctorateDTO
	group     *supervision.Group
}

func TestNotificationSuite(t *testing.T) {
	suite.Run(t, new(NotificationSuite))
}

func (s *NotificationSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.directory = mocks.NewMockDirectory(ctrl)
	s.out = outbox.NewMemoryStore()
	s.notifier = NewOutboxNotifier(s.out, s.directory, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), now)
	s.dto = doctorate.DoctorateDTO{
		ID:        id.NewDoctorateID(),
		Reference: "M-CDSC25-0000001",
		Student:   doctorate.Student{Matricule: "S1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.org"},
		Training:  doctorate.Training{Acronym: "SC3DP", CDD: "CDSC", Year: 2025},
	}

	g, err := supervision.NewGroup(id.NewSupervisionGroupID(), s.dto.ID, now)
	s.Require().NoError(err)
	s.Require().NoError(g.AddPromoter(id.NewSignatoryID(), "P1", supervision.ExternalPerson{}, now))
	s.Require().NoError(g.AddCAMember(id.NewSignatoryID(), "", supervision.ExternalPerson{
		FirstName: "Jane", LastName: "Doe", Email: "jane@ulb.example", Institution: "ULB",
		City: "Brussels", Country: "BE", Language: "FR",
	}, now))
	s.group = g
}

func (s *NotificationSuite) emails() []Email {
	var out []Email
	for _, e := range s.out.All() {
		if e.EventType != eventEmail {
			continue
		}
		var m Email
		s.Require().NoError(json.Unmarshal(e.Payload, &m))
		out = append(out, m)
	}
	return out
}

func (s *NotificationSuite) webs() []Web {
	var out []Web
	for _, e := range s.out.All() {
		if e.EventType != eventWeb {
			continue
		}
		var w Web
		s.Require().NoError(json.Unmarshal(e.Payload, &w))
		out = append(out, w)
	}
	return out
}

func (s *NotificationSuite) TestRecipients() {
	s.Run("supervision members by role", func() {
		promoters := SupervisionMembers(s.group, supervision.RolePromoter)
		s.Require().Len(promoters, 1)
		s.Equal(id.Matricule("P1"), promoters[0].Matricule)

		all := SupervisionMembers(s.group)
		s.Len(all, len(s.group.Members))
	})

	s.Run("message copies are deduplicated", func() {
		cc := MessageRecipients(s.group, nil, ports.Message{CCPromoters: true, CCCAMembers: true})
		keys := map[string]int{}
		for _, r := range cc {
			keys[r.key()]++
		}
		for k, n := range keys {
			s.Equal(1, n, k)
		}
		s.Empty(MessageRecipients(s.group, nil, ports.Message{}))
	})

	s.Run("tokens carry the doctorate and extras", func() {
		t := Tokens(s.dto, map[string]string{"reason": "late"})
		s.Equal("M-CDSC25-0000001", t["reference"])
		s.Equal("Ada", t["student_first_name"])
		s.Equal("late", t["reason"])
	})
}

func (s *NotificationSuite) TestInviteSignatoriesResolvesInternalMembers() {
	s.directory.EXPECT().Person(gomock.Any(), id.Matricule("P1")).
		Return(ports.Person{Matricule: "P1", FirstName: "Paul", LastName: "Promo", Email: "p1@uclouvain.example"}, nil)

	err := s.notifier.InviteSignatories(s.ctx, s.dto, s.group.Promoters())
	s.Require().NoError(err)

	emails := s.emails()
	s.Require().Len(emails, 1)
	s.Equal(TemplateSignatureInvitation, emails[0].Template)
	s.Equal("p1@uclouvain.example", emails[0].To[0].Email)
	s.Equal(string(supervision.RolePromoter), emails[0].Tokens["role"])
}

func (s *NotificationSuite) TestUnresolvableRecipientIsSkipped() {
	s.directory.EXPECT().Person(gomock.Any(), id.Matricule("P1")).Return(ports.Person{}, errors.New("directory down"))

	err := s.notifier.InviteSignatories(s.ctx, s.dto, s.group.Promoters())
	s.Require().NoError(err)
	s.Empty(s.out.All())
}

func (s *NotificationSuite) TestSupervisionRefusalGoesToStudentAndPromoters() {
	s.directory.EXPECT().Person(gomock.Any(), id.Matricule("P1")).
		Return(ports.Person{Matricule: "P1", Email: "p1@uclouvain.example"}, nil)
	refuser := s.group.CAMembers()[0]

	s.Require().NoError(s.notifier.NotifySupervisionRefusal(s.ctx, s.dto, s.group, refuser, "not my field"))

	emails := s.emails()
	s.Require().Len(emails, 2)
	s.Equal("ada@example.org", emails[0].To[0].Email)
	s.Equal("p1@uclouvain.example", emails[1].To[0].Email)
	s.Equal("not my field", emails[0].Tokens["reason"])
	s.Equal("Jane", emails[0].Tokens["refuser_first_name"])
}

func (s *NotificationSuite) TestMarkEncodingNotifiesProgramManagers() {
	s.directory.EXPECT().Managers(gomock.Any(), ports.ManagerProgram, "CDSC").Return([]ports.Person{
		{Matricule: "G1", Email: "g1@uclouvain.example"},
		{Matricule: "G2", Email: "g2@uclouvain.example"},
	}, nil)

	err := s.notifier.NotifyMarkEncodingToProgramManagers(s.ctx, s.dto, &training.Activity{CourseAcronym: "LDROI1001"}, "15")
	s.Require().NoError(err)

	webs := s.webs()
	s.Require().Len(webs, 2)
	s.Equal(id.Matricule("G1"), webs[0].Matricule)
	s.Equal("15", webs[0].Tokens["mark"])
	for _, e := range s.out.All() {
		s.Equal(outbox.TopicNotification, e.Topic)
		s.Equal(s.dto.ID.String(), e.AggregateID)
	}
}

func (s *NotificationSuite) confirmationPaper() *confirmation.Paper {
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return &confirmation.Paper{Date: &date, Deadline: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *NotificationSuite) TestFirstConfirmationSubmission() {
	s.directory.EXPECT().Person(gomock.Any(), id.Matricule("P1")).
		Return(ports.Person{Matricule: "P1", Email: "p1@uclouvain.example"}, nil)
	s.directory.EXPECT().Managers(gomock.Any(), ports.ManagerADRE, "").Return([]ports.Person{
		{Matricule: "A1", Email: "adre@uclouvain.example"},
	}, nil)
	s.directory.EXPECT().Managers(gomock.Any(), ports.ManagerCDD, "CDSC").Return([]ports.Person{
		{Matricule: "G1", Email: "g1@uclouvain.example"},
		{Matricule: "G2", Email: "g2@uclouvain.example"},
	}, nil)

	err := s.notifier.NotifyConfirmationSubmitted(s.ctx, s.dto, s.group, s.confirmationPaper(), true)
	s.Require().NoError(err)

	webs := s.webs()
	s.Require().Len(webs, 2)
	for i, m := range []id.Matricule{"G1", "G2"} {
		s.Equal(m, webs[i].Matricule)
		s.Equal(TemplateConfirmationSubmitted, webs[i].Template)
		s.Equal("01/04/2025", webs[i].Tokens["confirmation_date"])
	}

	var adre []Email
	for _, e := range s.emails() {
		if e.Template == TemplateConfirmationSubmittedADRE {
			adre = append(adre, e)
		}
	}
	s.Require().Len(adre, 1)
	s.Equal("adre@uclouvain.example", adre[0].To[0].Email)
}

func (s *NotificationSuite) TestConfirmationResubmissionSkipsADRE() {
	s.directory.EXPECT().Person(gomock.Any(), id.Matricule("P1")).
		Return(ports.Person{Matricule: "P1", Email: "p1@uclouvain.example"}, nil)
	s.directory.EXPECT().Managers(gomock.Any(), ports.ManagerCDD, "CDSC").Return([]ports.Person{
		{Matricule: "G1", Email: "g1@uclouvain.example"},
	}, nil)

	err := s.notifier.NotifyConfirmationSubmitted(s.ctx, s.dto, s.group, s.confirmationPaper(), false)
	s.Require().NoError(err)

	webs := s.webs()
	s.Require().Len(webs, 1)
	s.Equal(TemplateConfirmationResubmitted, webs[0].Template)
	for _, e := range s.emails() {
		s.NotEqual(TemplateConfirmationSubmittedADRE, e.Template)
	}
}

func (s *NotificationSuite) TestManagerLookupFailureIsReturned() {
	s.directory.EXPECT().Managers(gomock.Any(), ports.ManagerProgram, "CDSC").Return(nil, errors.New("directory down"))

	err := s.notifier.NotifyMarkEncodingToProgramManagers(s.ctx, s.dto, &training.Activity{CourseAcronym: "LDROI1001"}, "15")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.out.All())
}

func (s *NotificationSuite) TestSendMessageCopiesSelectedGroups() {
	s.directory.EXPECT().Person(gomock.Any(), id.Matricule("P1")).
		Return(ports.Person{Matricule: "P1", Email: "p1@uclouvain.example"}, nil)

	err := s.notifier.SendMessage(s.ctx, s.dto, s.group, nil, ports.Message{
		Subject: "Decision", Body: "Congratulations", CCPromoters: true,
	})
	s.Require().NoError(err)

	emails := s.emails()
	s.Require().Len(emails, 1)
	s.Equal("ada@example.org", emails[0].To[0].Email)
	s.Require().Len(emails[0].CC, 1)
	s.Equal("p1@uclouvain.example", emails[0].CC[0].Email)
	s.Equal("Decision", emails[0].Tokens["subject"])
}
