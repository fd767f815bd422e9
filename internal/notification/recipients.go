// Package notification turns workflow intents into email and web
// notification envelopes. Recipient lists are composed by pure functions;
// the notifier resolves addresses and queues the envelopes in the outbox.
package notification

import (
	"fmt"
	"slices"

	doctorate "parcours/internal/doctorate/models"
	jury "parcours/internal/jury/models"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/signature"
)

// Recipient is someone to notify. Internal people only carry a matricule
// until the directory resolves them.
type Recipient struct {
	Matricule id.Matricule `json:"matricule,omitempty"`
	FirstName string       `json:"first_name,omitempty"`
	LastName  string       `json:"last_name,omitempty"`
	Email     string       `json:"email,omitempty"`
	Language  string       `json:"language,omitempty"`
}

func (r Recipient) resolved() bool {
	return r.Email != ""
}

func (r Recipient) key() string {
	if !r.Matricule.IsZero() {
		return "m:" + r.Matricule.String()
	}
	return "e:" + r.Email
}

// FromPerson converts a directory entry.
func FromPerson(p ports.Person) Recipient {
	return Recipient{Matricule: p.Matricule, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email, Language: p.Language}
}

func Student(d doctorate.DoctorateDTO) Recipient {
	return Recipient{
		Matricule: d.Student.Matricule,
		FirstName: d.Student.FirstName,
		LastName:  d.Student.LastName,
		Email:     d.Student.Email,
	}
}

func SupervisionMember(m supervision.Member) Recipient {
	if m.IsExternal() {
		return Recipient{
			FirstName: m.External.FirstName,
			LastName:  m.External.LastName,
			Email:     m.External.Email,
			Language:  m.External.Language,
		}
	}
	return Recipient{Matricule: m.Matricule}
}

// SupervisionMembers lists the members of g holding one of roles, every
// member when none is given.
func SupervisionMembers(g *supervision.Group, roles ...signature.Role) []Recipient {
	if g == nil {
		return nil
	}
	var out []Recipient
	for _, m := range g.Members {
		if len(roles) == 0 || slices.Contains(roles, m.Role) {
			out = append(out, SupervisionMember(m))
		}
	}
	return out
}

func JuryMember(m jury.Member) Recipient {
	return Recipient{
		Matricule: m.Matricule,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Language:  m.Language,
	}
}

// JuryMembers lists the jurors of j. Managers holding CDD or ADRE
// signatures are not part of the jury.
func JuryMembers(j *jury.Jury) []Recipient {
	if j == nil {
		return nil
	}
	out := make([]Recipient, 0, len(j.Members))
	for _, m := range j.Jurors() {
		out = append(out, JuryMember(m))
	}
	return out
}

// MessageRecipients composes the copy list of a manager message.
func MessageRecipients(g *supervision.Group, j *jury.Jury, msg ports.Message) []Recipient {
	var cc []Recipient
	if msg.CCPromoters {
		cc = append(cc, SupervisionMembers(g, supervision.RolePromoter)...)
	}
	if msg.CCCAMembers {
		cc = append(cc, SupervisionMembers(g, supervision.RoleCAMember)...)
	}
	if msg.CCJury {
		cc = append(cc, JuryMembers(j)...)
	}
	return Dedupe(cc)
}

// Dedupe drops repeated recipients, keeping the first occurrence.
func Dedupe(rs []Recipient) []Recipient {
	seen := make(map[string]struct{}, len(rs))
	out := make([]Recipient, 0, len(rs))
	for _, r := range rs {
		k := r.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Tokens returns the template bindings shared by every message about d.
func Tokens(d doctorate.DoctorateDTO, extra map[string]string) map[string]string {
	t := map[string]string{
		"student_first_name": d.Student.FirstName,
		"student_last_name":  d.Student.LastName,
		"reference":          d.Reference,
		"training_acronym":   d.Training.Acronym,
		"training_title":     d.Training.Title,
		"cdd":                d.Training.CDD,
		"thesis_title":       d.ProposedThesisTitle,
		"doctorate_link":     fmt.Sprintf("/doctorates/%s", d.ID),
	}
	for k, v := range extra {
		t[k] = v
	}
	return t
}
