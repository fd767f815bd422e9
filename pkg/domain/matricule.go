package domain

import (
	"strings"

	dErrors "parcours/pkg/domain-errors"
)

// Matricule is the institutional person identifier used for students,
// supervisors, committee and jury members, and managers.
//
// Usage: construct via ParseMatricule at trust boundaries; the zero value
// means "no internal person" (external actors have no matricule).
type Matricule string

// maxMatriculeLength bounds identifiers coming from external input.
const maxMatriculeLength = 32

// ParseMatricule constructs a Matricule from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, too long or
// contains characters other than ASCII letters and digits.
func ParseMatricule(s string) (Matricule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "matricule cannot be empty")
	}
	if len(s) > maxMatriculeLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "matricule is too long")
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return "", dErrors.New(dErrors.CodeInvalidInput, "matricule contains invalid characters")
		}
	}
	return Matricule(s), nil
}

// IsZero reports whether no matricule is set.
func (m Matricule) IsZero() bool {
	return m == ""
}

func (m Matricule) String() string {
	return string(m)
}
