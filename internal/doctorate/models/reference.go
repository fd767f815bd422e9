package models

import (
	"fmt"
	"strings"
)

// FormatReference renders M-<CDD><YY>-<7-digit sequence>. The sequence is
// allocated per academic year and CDD by the doctorate repository.
func FormatReference(cdd string, year int, seq int64) string {
	return fmt.Sprintf("M-%s%02d-%07d", strings.ToUpper(cdd), year%100, seq)
}

// ReferenceScope is the counter key a sequence is allocated under.
func ReferenceScope(cdd string, year int) string {
	return fmt.Sprintf("%s:%d", strings.ToUpper(cdd), year)
}
