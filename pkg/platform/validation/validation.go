// Package validation composes single-rule validators into per-action lists.
//
// A List runs in two steps. Data-contract rules run first; invariant rules run
// only when the contract holds, so invariants may assume well-formed input.
// Every rule of a step runs and all violations are returned together as one
// *dErrors.Violations, letting forms surface every error at once.
package validation

import (
	dErrors "parcours/pkg/domain-errors"
)

// Rule is a single business rule. Check returns nil when the rule holds.
type Rule interface {
	Check() *dErrors.Violation
}

// RuleFunc adapts a function to Rule.
type RuleFunc func() *dErrors.Violation

func (f RuleFunc) Check() *dErrors.Violation {
	return f()
}

// Require returns a rule that fails with v unless ok holds.
func Require(ok bool, v dErrors.Violation) Rule {
	return RuleFunc(func() *dErrors.Violation {
		if ok {
			return nil
		}
		return &v
	})
}

// Fail returns a rule that always fails with v.
func Fail(v dErrors.Violation) Rule {
	return Require(false, v)
}

// ForEntity tags every violation raised by rules with the given entity id.
func ForEntity(entityID string, rules ...Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		r := r
		out = append(out, RuleFunc(func() *dErrors.Violation {
			v := r.Check()
			if v == nil {
				return nil
			}
			tagged := v.WithEntity(entityID)
			return &tagged
		}))
	}
	return out
}

// List groups the rules of one business action.
type List struct {
	Contract   []Rule
	Invariants []Rule
}

// Validate runs the list and returns the aggregated violations, or nil.
func (l List) Validate() error {
	if v := run(l.Contract); !v.Empty() {
		return v
	}
	return run(l.Invariants).ErrOrNil()
}

// Validate is shorthand for a list made of invariant rules only.
func Validate(rules ...Rule) error {
	return List{Invariants: rules}.Validate()
}

func run(rules []Rule) *dErrors.Violations {
	out := &dErrors.Violations{}
	for _, r := range rules {
		if r == nil {
			continue
		}
		if v := r.Check(); v != nil {
			out.Add(*v)
		}
	}
	return out
}
