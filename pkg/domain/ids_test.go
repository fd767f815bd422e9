package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "parcours/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDoctorateID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseDoctorateID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseDoctorateID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseDoctorateID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, DoctorateID(validUUID), id)
		assert.Equal(t, validUUID.String(), id.String())
	})
}

// TestTypeDistinction verifies distinct identity types stay distinct values.
func TestTypeDistinction(t *testing.T) {
	doctorateID := NewDoctorateID()
	juryID := NewJuryID()

	// var _ DoctorateID = juryID would not compile.
	assert.NotEqual(t, uuid.UUID(doctorateID), uuid.UUID(juryID))
}

func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE doctorates;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMemberID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	parsers := map[string]func(string) error{
		"doctorate":       func(s string) error { _, err := ParseDoctorateID(s); return err },
		"group":           func(s string) error { _, err := ParseSupervisionGroupID(s); return err },
		"paper":           func(s string) error { _, err := ParseConfirmationPaperID(s); return err },
		"activity":        func(s string) error { _, err := ParseActivityID(s); return err },
		"enrollment":      func(s string) error { _, err := ParseEnrollmentID(s); return err },
		"evaluation":      func(s string) error { _, err := ParseEvaluationID(s); return err },
		"jury":            func(s string) error { _, err := ParseJuryID(s); return err },
		"member":          func(s string) error { _, err := ParseMemberID(s); return err },
		"authorization":   func(s string) error { _, err := ParseAuthorizationID(s); return err },
		"signatory":       func(s string) error { _, err := ParseSignatoryID(s); return err },
		"private defense": func(s string) error { _, err := ParsePrivateDefenseID(s); return err },
		"admissibility":   func(s string) error { _, err := ParseAdmissibilityID(s); return err },
	}
	validUUID := uuid.New().String()

	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, parse(validUUID))
			for _, input := range []string{"", "invalid", uuid.Nil.String()} {
				require.Error(t, parse(input), "input %q", input)
			}
		})
	}
}

func TestParseMatricule(t *testing.T) {
	t.Run("trims and accepts alphanumerics", func(t *testing.T) {
		m, err := ParseMatricule(" 0123456789 ")
		require.NoError(t, err)
		assert.Equal(t, Matricule("0123456789"), m)
	})

	t.Run("rejects empty and punctuation", func(t *testing.T) {
		for _, input := range []string{"", "  ", "12-34", strings.Repeat("9", 40)} {
			_, err := ParseMatricule(input)
			require.Error(t, err, "input %q", input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}
