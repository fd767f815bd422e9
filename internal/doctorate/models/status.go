package models

import (
	"slices"

	dErrors "parcours/pkg/domain-errors"
)

// Status is the lifecycle status of a doctorate. Names are stable: they are
// stored and sent on the wire as-is.
type Status string

const (
	StatusAdmitted              Status = "ADMIS"
	StatusAwaitingSignatures    Status = "EN_ATTENTE_DE_SIGNATURE"
	StatusConfirmationSubmitted Status = "CONFIRMATION_SOUMISE"
	StatusConfirmationPassed    Status = "CONFIRMATION_REUSSIE"
	StatusConfirmationRepeat    Status = "CONFIRMATION_A_REPRESENTER"
	StatusNotAllowedToContinue  Status = "NON_AUTORISE_A_POURSUIVRE"

	StatusJurySubmitted    Status = "JURY_SOUMIS"
	StatusJuryApprovedCA   Status = "JURY_APPROUVE_CA"
	StatusJuryApprovedCDD  Status = "JURY_APPROUVE_CDD"
	StatusJuryRefusedCDD   Status = "JURY_REFUSE_CDD"
	StatusJuryApprovedADRE Status = "JURY_APPROUVE_ADRE"
	StatusJuryRefusedADRE  Status = "JURY_REFUSE_ADRE"

	StatusPrivateDefenseSubmitted  Status = "DEFENSE_PRIVEE_SOUMISE"
	StatusPrivateDefenseAuthorized Status = "DEFENSE_PRIVEE_AUTORISEE"
	StatusPrivateDefensePassed     Status = "DEFENSE_PRIVEE_REUSSIE"
	StatusPrivateDefenseFailed     Status = "DEFENSE_PRIVEE_EN_ECHEC"
	StatusPublicDefenseSubmitted   Status = "SOUTENANCE_PUBLIQUE_SOUMISE"
	StatusPublicDefenseAuthorized  Status = "SOUTENANCE_PUBLIQUE_AUTORISEE"

	StatusAdmissibilitySubmitted Status = "RECEVABILITE_SOUMISE"
	StatusAdmissibilityPassed    Status = "RECEVABILITE_REUSSIE"
	StatusAdmissibilityFailed    Status = "RECEVABILITE_EN_ECHEC"
	StatusDefensesSubmitted      Status = "DEFENSE_ET_SOUTENANCE_SOUMISES"
	StatusDefensesAuthorized     Status = "DEFENSE_ET_SOUTENANCE_AUTORISEES"

	StatusDefensePassed Status = "DEFENSE_REUSSIE"
	StatusGraduation    Status = "DIPLOMATION"
)

// transitions is the documented transition graph. Self edges are resubmissions
// of the same step. Edges back to CONFIRMATION_REUSSIE are jury resets; the
// edge CONFIRMATION_SOUMISE -> CONFIRMATION_A_REPRESENTER is the confirmation
// retry.
var transitions = map[Status][]Status{
	StatusAdmitted:              {StatusAwaitingSignatures, StatusConfirmationSubmitted},
	StatusAwaitingSignatures:    {StatusAdmitted},
	StatusConfirmationSubmitted: {StatusConfirmationSubmitted, StatusConfirmationPassed, StatusConfirmationRepeat, StatusNotAllowedToContinue},
	StatusConfirmationRepeat:    {StatusConfirmationSubmitted},
	StatusConfirmationPassed:    {StatusJurySubmitted},

	StatusJurySubmitted:    {StatusJuryApprovedCA, StatusConfirmationPassed},
	StatusJuryApprovedCA:   {StatusJuryApprovedCDD, StatusJuryRefusedCDD, StatusConfirmationPassed},
	StatusJuryRefusedCDD:   {StatusJurySubmitted, StatusConfirmationPassed},
	StatusJuryApprovedCDD:  {StatusJuryApprovedADRE, StatusJuryRefusedADRE, StatusConfirmationPassed},
	StatusJuryRefusedADRE:  {StatusJurySubmitted, StatusConfirmationPassed},
	StatusJuryApprovedADRE: {StatusPrivateDefenseSubmitted, StatusAdmissibilitySubmitted},

	StatusPrivateDefenseSubmitted:  {StatusPrivateDefenseSubmitted, StatusPrivateDefenseAuthorized},
	StatusPrivateDefenseAuthorized: {StatusPrivateDefensePassed, StatusPrivateDefenseFailed},
	StatusPrivateDefenseFailed:     {StatusPrivateDefenseSubmitted, StatusDefensesSubmitted},
	StatusPrivateDefensePassed:     {StatusPublicDefenseSubmitted},
	StatusPublicDefenseSubmitted:   {StatusPublicDefenseSubmitted, StatusPublicDefenseAuthorized},
	StatusPublicDefenseAuthorized:  {StatusDefensePassed},

	StatusAdmissibilitySubmitted: {StatusAdmissibilitySubmitted, StatusAdmissibilityPassed, StatusAdmissibilityFailed},
	StatusAdmissibilityFailed:    {StatusAdmissibilitySubmitted},
	StatusAdmissibilityPassed:    {StatusDefensesSubmitted},
	StatusDefensesSubmitted:      {StatusDefensesSubmitted, StatusDefensesAuthorized},
	StatusDefensesAuthorized:     {StatusDefensePassed, StatusPrivateDefenseFailed},

	StatusDefensePassed: {StatusGraduation},
}

var allStatuses = []Status{
	StatusAdmitted, StatusAwaitingSignatures, StatusConfirmationSubmitted, StatusConfirmationPassed,
	StatusConfirmationRepeat, StatusNotAllowedToContinue, StatusJurySubmitted, StatusJuryApprovedCA,
	StatusJuryApprovedCDD, StatusJuryRefusedCDD, StatusJuryApprovedADRE, StatusJuryRefusedADRE,
	StatusPrivateDefenseSubmitted, StatusPrivateDefenseAuthorized, StatusPrivateDefensePassed,
	StatusPrivateDefenseFailed, StatusPublicDefenseSubmitted, StatusPublicDefenseAuthorized,
	StatusAdmissibilitySubmitted, StatusAdmissibilityPassed, StatusAdmissibilityFailed,
	StatusDefensesSubmitted, StatusDefensesAuthorized, StatusDefensePassed, StatusGraduation,
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return slices.Clone(allStatuses)
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid doctorate status")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	return slices.Contains(allStatuses, s)
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the graph has an edge from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// IsTerminal reports whether no edge leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Successors lists the statuses reachable in one step.
func (s Status) Successors() []Status {
	return slices.Clone(transitions[s])
}

// ConfirmationInProgress is the set of statuses in which the confirmation
// step is still open.
func (s Status) ConfirmationInProgress() bool {
	switch s {
	case StatusAdmitted, StatusConfirmationSubmitted, StatusConfirmationRepeat:
		return true
	}
	return false
}

// JuryInProgress reports whether the jury can still be edited or signed.
func (s Status) JuryInProgress() bool {
	switch s {
	case StatusConfirmationPassed, StatusJurySubmitted, StatusJuryApprovedCA,
		StatusJuryRefusedCDD, StatusJuryApprovedCDD, StatusJuryRefusedADRE:
		return true
	}
	return false
}

// ReachableFromAdmitted reports whether target is reachable from ADMIS
// through the documented graph.
func ReachableFromAdmitted(target Status) bool {
	seen := map[Status]bool{StatusAdmitted: true}
	queue := []Status{StatusAdmitted}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			return true
		}
		for _, next := range transitions[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
