package domainerrors

import (
	"errors"
	"strings"
)

// Violation is a single broken business rule. Code is stable and meant for
// clients; Field is the form path the violation attaches to, when any;
// EntityID identifies the offending entity inside a batch.
type Violation struct {
	Code     string `json:"code"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	EntityID string `json:"entity_id,omitempty"`
}

func (v Violation) Error() string {
	if v.Field != "" {
		return v.Code + " (" + v.Field + "): " + v.Message
	}
	return v.Code + ": " + v.Message
}

// WithEntity returns a copy of the violation tagged with the given entity id.
func (v Violation) WithEntity(entityID string) Violation {
	v.EntityID = entityID
	return v
}

// Violations aggregates every rule broken by a single business action so the
// caller can surface all of them at once.
type Violations struct {
	List []Violation
}

// NewViolations builds an aggregate from individual violations.
func NewViolations(vs ...Violation) *Violations {
	return &Violations{List: append([]Violation(nil), vs...)}
}

func (v *Violations) Error() string {
	msgs := make([]string, 0, len(v.List))
	for _, item := range v.List {
		msgs = append(msgs, item.Error())
	}
	return "business rules violated: " + strings.Join(msgs, "; ")
}

// Add appends violations.
func (v *Violations) Add(vs ...Violation) {
	v.List = append(v.List, vs...)
}

// Merge appends the violations carried by err, if any. Other errors are ignored.
func (v *Violations) Merge(err error) {
	if other, ok := AsViolations(err); ok {
		v.List = append(v.List, other.List...)
	}
}

// Empty reports whether nothing was collected.
func (v *Violations) Empty() bool {
	return v == nil || len(v.List) == 0
}

// Codes lists the violation codes in order.
func (v *Violations) Codes() []string {
	out := make([]string, 0, len(v.List))
	for _, item := range v.List {
		out = append(out, item.Code)
	}
	return out
}

// Has reports whether a violation with the given code was collected.
func (v *Violations) Has(code string) bool {
	for _, item := range v.List {
		if item.Code == code {
			return true
		}
	}
	return false
}

// ErrOrNil returns v as an error, or nil when nothing was collected.
func (v *Violations) ErrOrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

// AsViolations extracts the aggregated violations from an error chain.
func AsViolations(err error) (*Violations, bool) {
	var v *Violations
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// HasViolation reports whether err carries a violation with the given code.
func HasViolation(err error, code string) bool {
	v, ok := AsViolations(err)
	return ok && v.Has(code)
}
