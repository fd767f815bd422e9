package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPaper(t *testing.T) *Paper {
	t.Helper()
	p, err := NewPaper(id.NewConfirmationPaperID(), id.NewDoctorateID(), day(2024, 12, 31), day(2024, 1, 1))
	require.NoError(t, err)
	return p
}

func TestSubmit(t *testing.T) {
	now := day(2024, 10, 1)

	t.Run("date on the deadline is accepted", func(t *testing.T) {
		p := newPaper(t)
		date := day(2024, 12, 31)
		require.NoError(t, p.Submit(Submission{Date: &date, ResearchReport: []string{"r"}}, now))
		assert.Equal(t, []string{"r"}, p.ResearchReport)
	})

	t.Run("date after the deadline is rejected", func(t *testing.T) {
		p := newPaper(t)
		date := day(2025, 1, 1)
		err := p.Submit(Submission{Date: &date}, now)
		assert.True(t, dErrors.HasViolation(err, CodeDateAfterDeadline))
	})

	t.Run("missing date", func(t *testing.T) {
		p := newPaper(t)
		err := p.Submit(Submission{}, now)
		v, ok := dErrors.AsViolations(err)
		require.True(t, ok)
		assert.Equal(t, []string{CodeDateMissing}, v.Codes())
	})

	t.Run("archived paper cannot change", func(t *testing.T) {
		p := newPaper(t)
		p.Archive(now)
		date := day(2024, 11, 1)
		assert.True(t, dErrors.HasViolation(p.Submit(Submission{Date: &date}, now), CodePaperArchived))
		assert.False(t, p.ToDTO(true).IsActive)
	})
}

func TestExtension(t *testing.T) {
	now := day(2024, 10, 1)

	t.Run("new deadline must follow the current one", func(t *testing.T) {
		p := newPaper(t)
		err := p.RecordExtensionRequest(day(2024, 12, 31), "late data", nil, now)
		assert.True(t, dErrors.HasViolation(err, CodeExtensionNotAfter))
	})

	t.Run("justification is checked before the deadline", func(t *testing.T) {
		p := newPaper(t)
		err := p.RecordExtensionRequest(day(2024, 1, 1), " ", nil, now)
		v, ok := dErrors.AsViolations(err)
		require.True(t, ok)
		assert.Equal(t, []string{CodeExtensionIncomplete}, v.Codes())
	})

	t.Run("CDD opinion needs a request", func(t *testing.T) {
		p := newPaper(t)
		assert.True(t, dErrors.HasViolation(p.RecordCDDOpinion("ok", now), CodeExtensionMissing))

		require.NoError(t, p.RecordExtensionRequest(day(2025, 3, 31), "late data", []string{"letter"}, now))
		require.NoError(t, p.RecordCDDOpinion("favourable", now))
		assert.Equal(t, "favourable", p.Extension.CDDOpinion)
	})
}

func TestDecision(t *testing.T) {
	now := day(2024, 10, 1)
	p := newPaper(t)
	assert.True(t, dErrors.HasViolation(p.RecordDecision(true, nil, now), CodeDecisionIncomplete))

	date := day(2024, 9, 30)
	require.NoError(t, p.Submit(Submission{Date: &date}, now))
	require.NoError(t, p.CompleteBySupervisor([]string{"pv"}, nil, now))
	require.NoError(t, p.RecordDecision(true, []string{"cert"}, now))
	assert.Equal(t, []string{"cert"}, p.SuccessCertificate)
}

func TestInitialDeadline(t *testing.T) {
	assert.Equal(t, day(2026, 9, 15), InitialDeadline(time.Date(2024, 9, 15, 13, 0, 0, 0, time.UTC)))
}
