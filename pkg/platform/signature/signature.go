// Package signature models the invitation/approval/refusal process shared by
// the supervision group, the jury and the thesis distribution authorization.
//
// A Process is a bag of role-tagged signatories. Each signatory carries one
// Signature whose state follows NOT_INVITED -> INVITED -> APPROVED | DECLINED.
// Aggregates decide which roles take part and translate the package errors
// into their own rule violations.
package signature

import (
	"errors"
	"slices"
	"time"
)

// State of a single signature.
type State string

const (
	StateNotInvited State = "NOT_INVITED"
	StateInvited    State = "INVITED"
	StateApproved   State = "APPROVED"
	StateDeclined   State = "DECLINED"
)

func (s State) IsValid() bool {
	switch s {
	case StateNotInvited, StateInvited, StateApproved, StateDeclined:
		return true
	}
	return false
}

// Role tags a signatory inside a process. Each aggregate defines its own set.
type Role string

var (
	ErrSignatoryNotFound = errors.New("signatory not found")
	ErrNotInvited        = errors.New("signatory is not invited")
	ErrDuplicate         = errors.New("signatory already present")
)

// Signature is the value recorded for one signatory.
type Signature struct {
	State           State      `json:"state"`
	Date            *time.Time `json:"date,omitempty"`
	InternalComment string     `json:"internal_comment,omitempty"`
	ExternalComment string     `json:"external_comment,omitempty"`
	RefusalReason   string     `json:"refusal_reason,omitempty"`
	PDF             []string   `json:"pdf,omitempty"`
}

// NotInvited is the initial signature.
func NotInvited() Signature {
	return Signature{State: StateNotInvited}
}

// Pending reports whether the signature still has to be requested.
func (s Signature) Pending() bool {
	return s.State == "" || s.State == StateNotInvited || s.State == StateDeclined
}

// Signatory is a role-tagged participant identified by Key.
type Signatory struct {
	Key       string    `json:"key"`
	Role      Role      `json:"role"`
	Signature Signature `json:"signature"`
}

// Process holds the signatories in insertion order.
type Process struct {
	Signatories []Signatory `json:"signatories"`
}

func (p *Process) index(key string) int {
	return slices.IndexFunc(p.Signatories, func(s Signatory) bool { return s.Key == key })
}

// Get returns the signatory with the given key.
func (p *Process) Get(key string) (Signatory, bool) {
	i := p.index(key)
	if i < 0 {
		return Signatory{}, false
	}
	return p.Signatories[i], true
}

// Has reports whether key takes part in the process.
func (p *Process) Has(key string) bool {
	return p.index(key) >= 0
}

// Add appends a signatory in NOT_INVITED state.
func (p *Process) Add(key string, role Role) error {
	if p.Has(key) {
		return ErrDuplicate
	}
	p.Signatories = append(p.Signatories, Signatory{Key: key, Role: role, Signature: NotInvited()})
	return nil
}

// Upsert adds the signatory or replaces its role, keeping its signature.
func (p *Process) Upsert(key string, role Role) {
	if i := p.index(key); i >= 0 {
		p.Signatories[i].Role = role
		return
	}
	p.Signatories = append(p.Signatories, Signatory{Key: key, Role: role, Signature: NotInvited()})
}

// Remove drops the signatory; it reports whether it was present.
func (p *Process) Remove(key string) bool {
	i := p.index(key)
	if i < 0 {
		return false
	}
	p.Signatories = slices.Delete(p.Signatories, i, i+1)
	return true
}

// RemoveRole drops every signatory holding one of roles.
func (p *Process) RemoveRole(roles ...Role) {
	p.Signatories = slices.DeleteFunc(p.Signatories, func(s Signatory) bool {
		return slices.Contains(roles, s.Role)
	})
}

// WithRole lists the signatories holding one of roles, or all when none given.
func (p *Process) WithRole(roles ...Role) []Signatory {
	out := make([]Signatory, 0, len(p.Signatories))
	for _, s := range p.Signatories {
		if len(roles) == 0 || slices.Contains(roles, s.Role) {
			out = append(out, s)
		}
	}
	return out
}

// InvitePending moves every NOT_INVITED or DECLINED signatory of roles (all
// roles when none given) to INVITED and clears their previous comments.
// Already invited or approved signatories are left untouched. It returns the
// keys that were invited.
func (p *Process) InvitePending(roles ...Role) []string {
	var invited []string
	for i := range p.Signatories {
		s := &p.Signatories[i]
		if len(roles) > 0 && !slices.Contains(roles, s.Role) {
			continue
		}
		if !s.Signature.Pending() {
			continue
		}
		s.Signature = Signature{State: StateInvited, PDF: s.Signature.PDF}
		invited = append(invited, s.Key)
	}
	return invited
}

// Invite forces a single signatory to INVITED.
func (p *Process) Invite(key string) error {
	i := p.index(key)
	if i < 0 {
		return ErrSignatoryNotFound
	}
	p.Signatories[i].Signature = Signature{State: StateInvited}
	return nil
}

// CheckInvited returns nil when key is present and INVITED.
func (p *Process) CheckInvited(key string) error {
	i := p.index(key)
	if i < 0 {
		return ErrSignatoryNotFound
	}
	if p.Signatories[i].Signature.State != StateInvited {
		return ErrNotInvited
	}
	return nil
}

// Approve records an approval with comments.
func (p *Process) Approve(key string, now time.Time, internal, external string) error {
	if err := p.CheckInvited(key); err != nil {
		return err
	}
	s := &p.Signatories[p.index(key)]
	s.Signature.State = StateApproved
	s.Signature.Date = &now
	s.Signature.InternalComment = internal
	s.Signature.ExternalComment = external
	return nil
}

// ApproveByPDF records an approval carried by a signed document.
func (p *Process) ApproveByPDF(key string, now time.Time, pdf []string) error {
	if err := p.CheckInvited(key); err != nil {
		return err
	}
	s := &p.Signatories[p.index(key)]
	s.Signature.State = StateApproved
	s.Signature.Date = &now
	s.Signature.PDF = slices.Clone(pdf)
	return nil
}

// Decline records a refusal.
func (p *Process) Decline(key string, now time.Time, reason, internal, external string) error {
	if err := p.CheckInvited(key); err != nil {
		return err
	}
	s := &p.Signatories[p.index(key)]
	s.Signature.State = StateDeclined
	s.Signature.Date = &now
	s.Signature.RefusalReason = reason
	s.Signature.InternalComment = internal
	s.Signature.ExternalComment = external
	return nil
}

// Reset puts every signatory of roles (all when none given) back to NOT_INVITED,
// except the one identified by keep.
func (p *Process) Reset(keep string, roles ...Role) {
	for i := range p.Signatories {
		s := &p.Signatories[i]
		if s.Key == keep {
			continue
		}
		if len(roles) > 0 && !slices.Contains(roles, s.Role) {
			continue
		}
		s.Signature = NotInvited()
	}
}

// AllApproved reports whether every signatory of roles approved. An empty
// selection is not approved.
func (p *Process) AllApproved(roles ...Role) bool {
	selected := p.WithRole(roles...)
	if len(selected) == 0 {
		return false
	}
	for _, s := range selected {
		if s.Signature.State != StateApproved {
			return false
		}
	}
	return true
}

// AnyInState reports whether a signatory of roles is in state.
func (p *Process) AnyInState(state State, roles ...Role) bool {
	for _, s := range p.WithRole(roles...) {
		if s.Signature.State == state {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p Process) Clone() Process {
	out := Process{Signatories: make([]Signatory, len(p.Signatories))}
	for i, s := range p.Signatories {
		s.Signature.PDF = slices.Clone(s.Signature.PDF)
		if s.Signature.Date != nil {
			d := *s.Signature.Date
			s.Signature.Date = &d
		}
		out.Signatories[i] = s
	}
	return out
}
