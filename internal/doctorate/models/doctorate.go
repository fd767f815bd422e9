package models

import (
	"fmt"
	"slices"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

// DefenseMethod selects the defense path once the jury is approved.
type DefenseMethod string

const (
	// DefenseMethodF1 is a private defense followed by a public defense.
	DefenseMethodF1 DefenseMethod = "FORMULE_1"
	// DefenseMethodF2 is an admissibility step followed by a combined
	// private and public defense.
	DefenseMethodF2 DefenseMethod = "FORMULE_2"
)

func (m DefenseMethod) IsValid() bool {
	return m == DefenseMethodF1 || m == DefenseMethodF2
}

// Student is the frozen admission snapshot of the student.
type Student struct {
	Matricule id.Matricule `json:"matricule"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	NOMA      string       `json:"noma,omitempty"`
}

// Training is the doctoral training the doctorate belongs to.
type Training struct {
	Acronym string `json:"acronym"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	CDD     string `json:"cdd"`
	Sector  string `json:"sector,omitempty"`
}

// PublicDefense carries the public defense data for formula 1 and the
// combined defense of formula 2.
type PublicDefense struct {
	Language     string     `json:"language,omitempty"`
	Datetime     *time.Time `json:"datetime,omitempty"`
	Place        string     `json:"place,omitempty"`
	RoomNotes    string     `json:"room_notes,omitempty"`
	Announcement string     `json:"announcement,omitempty"`
	Photo        []string   `json:"photo,omitempty"`
	Minutes      []string   `json:"minutes,omitempty"`
}

// StatusChange is one entry of the status timeline.
type StatusChange struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

// Doctorate is the root of the doctoral lifecycle.
//
// Invariants:
//   - Status is always reachable from ADMIS through the transition graph
//   - Student matricule, training acronym and CDD are set at creation and never change
//   - Reference is assigned once, at first save, and never changes
//   - At most one confirmation paper, private defense and admissibility is current
type Doctorate struct {
	ID            id.DoctorateID `json:"id"`
	Reference     string         `json:"reference,omitempty"`
	ReferenceSeq  int64          `json:"reference_seq,omitempty"`
	Status        Status         `json:"status"`
	AdmissionID   string         `json:"admission_id"`
	AdmissionType string         `json:"admission_type,omitempty"`
	Training      Training       `json:"training"`
	Student       Student        `json:"student"`

	ProximityCommission string           `json:"proximity_commission,omitempty"`
	Project             Project          `json:"project"`
	Funding             Funding          `json:"funding"`
	Cotutelle           Cotutelle        `json:"cotutelle"`
	PreviousResearch    PreviousResearch `json:"previous_research"`

	ProposedThesisTitle   string        `json:"proposed_thesis_title,omitempty"`
	DefenseMethod         DefenseMethod `json:"defense_method,omitempty"`
	DefenseLanguage       string        `json:"defense_language,omitempty"`
	DefenseDatetime       *time.Time    `json:"defense_datetime,omitempty"`
	DefensePlace          string        `json:"defense_place,omitempty"`
	DefenseMinutes        []string      `json:"defense_minutes,omitempty"`
	PublicDefense         PublicDefense `json:"public_defense"`
	DiplomaCollectionDate *time.Time    `json:"diploma_collection_date,omitempty"`

	ConfirmationPapers Track[id.ConfirmationPaperID] `json:"confirmation_papers"`
	PrivateDefenses    Track[id.PrivateDefenseID]    `json:"private_defenses"`
	Admissibilities    Track[id.AdmissibilityID]     `json:"admissibilities"`

	Timeline  []StatusChange `json:"timeline,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewDoctorate creates a doctorate from the admission snapshot. It starts in ADMIS.
func NewDoctorate(doctorateID id.DoctorateID, admissionID string, student Student, training Training, now time.Time) (*Doctorate, error) {
	if doctorateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "doctorate id is required")
	}
	if admissionID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admission id is required")
	}
	if student.Matricule.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "student matricule is required")
	}
	if training.Acronym == "" || training.CDD == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "training acronym and CDD are required")
	}
	return &Doctorate{
		ID:          doctorateID,
		Status:      StatusAdmitted,
		AdmissionID: admissionID,
		Training:    training,
		Student:     student,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AssignReference sets the reference once; later calls are ignored.
func (d *Doctorate) AssignReference(seq int64) {
	if d.Reference != "" {
		return
	}
	d.ReferenceSeq = seq
	d.Reference = FormatReference(d.Training.CDD, d.Training.Year, seq)
}

// IsFormula2 reports whether the defense goes through admissibility.
func (d *Doctorate) IsFormula2() bool {
	return d.DefenseMethod == DefenseMethodF2
}

// CanTransitionTo returns CodeInvalidTransition when the graph has no edge
// from the current status to next.
func (d *Doctorate) CanTransitionTo(next Status) error {
	if !d.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("doctorate cannot move from %s to %s", d.Status, next))
	}
	return nil
}

// ApplyTransition records the new status. Call CanTransitionTo first.
func (d *Doctorate) ApplyTransition(next Status, now time.Time) {
	d.Timeline = append(d.Timeline, StatusChange{From: d.Status, To: next, At: now})
	d.Status = next
	d.UpdatedAt = now
}

func (d *Doctorate) transition(next Status, now time.Time) error {
	if err := d.CanTransitionTo(next); err != nil {
		return err
	}
	d.ApplyTransition(next, now)
	return nil
}

// ReachedAt returns when the doctorate last entered status.
func (d *Doctorate) ReachedAt(status Status) (time.Time, bool) {
	for i := len(d.Timeline) - 1; i >= 0; i-- {
		if d.Timeline[i].To == status {
			return d.Timeline[i].At, true
		}
	}
	if status == StatusAdmitted {
		return d.CreatedAt, true
	}
	return time.Time{}, false
}

// -----------------------------------------------------------------------------
// Content
// -----------------------------------------------------------------------------

func (d *Doctorate) checkEditable() error {
	if d.Status == StatusAwaitingSignatures {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodeProjectLocked, Message: "the project is locked while signatures are requested",
		})
	}
	if d.Status.IsTerminal() || d.Status == StatusNotAllowedToContinue || d.Status == StatusDefensePassed {
		return dErrors.New(dErrors.CodeInvalidTransition, fmt.Sprintf("doctorate in %s cannot be modified", d.Status))
	}
	return nil
}

// ModifyProject replaces the research project.
func (d *Doctorate) ModifyProject(p Project, now time.Time) error {
	if err := d.checkEditable(); err != nil {
		return err
	}
	d.Project = p
	d.UpdatedAt = now
	return nil
}

// ModifyFunding replaces the funding after checking its consistency.
func (d *Doctorate) ModifyFunding(f Funding, now time.Time) error {
	if err := d.checkEditable(); err != nil {
		return err
	}
	if err := (validation.List{Contract: FundingConsistent(f)}).Validate(); err != nil {
		return err
	}
	d.Funding = f
	d.UpdatedAt = now
	return nil
}

// ModifyCotutelle replaces the cotutelle after checking it is complete.
func (d *Doctorate) ModifyCotutelle(c Cotutelle, now time.Time) error {
	if err := d.checkEditable(); err != nil {
		return err
	}
	if err := validation.Validate(CotutelleComplete(c)); err != nil {
		return err
	}
	d.Cotutelle = c
	d.UpdatedAt = now
	return nil
}

// ModifyPreviousResearch replaces the previous research experience.
func (d *Doctorate) ModifyPreviousResearch(r PreviousResearch, now time.Time) error {
	if err := d.checkEditable(); err != nil {
		return err
	}
	d.PreviousResearch = r
	d.UpdatedAt = now
	return nil
}

// DefenseInfo is the defense data set alongside the jury.
type DefenseInfo struct {
	ProposedThesisTitle string
	Method              DefenseMethod
	Language            string
	Datetime            *time.Time
	Place               string
}

// ModifyDefenseInfo sets the proposed title and defense method. The method
// cannot change once the defense path has started.
func (d *Doctorate) ModifyDefenseInfo(info DefenseInfo, now time.Time) error {
	if !info.Method.IsValid() {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodeDefenseMethodMismatch, Field: "defense_method", Message: "unknown defense method",
		})
	}
	if d.Status != StatusAdmitted && !d.Status.ConfirmationInProgress() && !d.Status.JuryInProgress() &&
		info.Method != d.DefenseMethod {
		return dErrors.New(dErrors.CodeInvalidTransition, "defense method cannot change once the defense has started")
	}
	d.ProposedThesisTitle = info.ProposedThesisTitle
	d.DefenseMethod = info.Method
	d.DefenseLanguage = info.Language
	d.DefenseDatetime = info.Datetime
	d.DefensePlace = info.Place
	d.UpdatedAt = now
	return nil
}

// ProjectCompleteness returns the rules that must hold before signatures
// are requested.
func (d *Doctorate) ProjectCompleteness() []validation.Rule {
	rules := []validation.Rule{ProjectComplete(d.Project, d.Funding, d.PreviousResearch), CotutelleComplete(d.Cotutelle)}
	return append(rules, FundingConsistent(d.Funding)...)
}

// -----------------------------------------------------------------------------
// Supervision signatures
// -----------------------------------------------------------------------------

// LockForSignature freezes the project while the supervision group signs.
func (d *Doctorate) LockForSignature(now time.Time) error {
	return d.transition(StatusAwaitingSignatures, now)
}

// UnlockAfterSignatures returns to ADMIS once signatures are complete or refused.
func (d *Doctorate) UnlockAfterSignatures(now time.Time) error {
	return d.transition(StatusAdmitted, now)
}

// -----------------------------------------------------------------------------
// Confirmation
// -----------------------------------------------------------------------------

// RegisterConfirmationPaper makes paperID the current confirmation paper.
func (d *Doctorate) RegisterConfirmationPaper(paperID id.ConfirmationPaperID, now time.Time) {
	d.ConfirmationPapers.Replace(paperID)
	d.UpdatedAt = now
}

func (d *Doctorate) SubmitConfirmation(now time.Time) error {
	return d.transition(StatusConfirmationSubmitted, now)
}

func (d *Doctorate) RecordConfirmationSuccess(now time.Time) error {
	return d.transition(StatusConfirmationPassed, now)
}

func (d *Doctorate) RecordConfirmationFailure(now time.Time) error {
	return d.transition(StatusNotAllowedToContinue, now)
}

// RecordConfirmationRetry sends the doctorate back to the confirmation step
// with a new current paper.
func (d *Doctorate) RecordConfirmationRetry(newPaper id.ConfirmationPaperID, now time.Time) error {
	if err := d.transition(StatusConfirmationRepeat, now); err != nil {
		return err
	}
	d.ConfirmationPapers.Replace(newPaper)
	return nil
}

// -----------------------------------------------------------------------------
// Jury
// -----------------------------------------------------------------------------

func (d *Doctorate) LockJuryForSignature(now time.Time) error {
	if d.Status == StatusJurySubmitted {
		return nil
	}
	return d.transition(StatusJurySubmitted, now)
}

func (d *Doctorate) ApproveJuryByCA(now time.Time) error {
	return d.transition(StatusJuryApprovedCA, now)
}

// ResetJury rolls back to CONFIRMATION_REUSSIE. It is a no-op when the jury
// was never submitted.
func (d *Doctorate) ResetJury(now time.Time) error {
	if d.Status == StatusConfirmationPassed {
		return nil
	}
	return d.transition(StatusConfirmationPassed, now)
}

func (d *Doctorate) CDDApproveJury(now time.Time) error {
	return d.transition(StatusJuryApprovedCDD, now)
}

func (d *Doctorate) CDDRefuseJury(now time.Time) error {
	return d.transition(StatusJuryRefusedCDD, now)
}

func (d *Doctorate) ADREApproveJury(now time.Time) error {
	return d.transition(StatusJuryApprovedADRE, now)
}

func (d *Doctorate) ADRERefuseJury(now time.Time) error {
	return d.transition(StatusJuryRefusedADRE, now)
}

// -----------------------------------------------------------------------------
// Defense
// -----------------------------------------------------------------------------

func (d *Doctorate) requireMethod(m DefenseMethod) error {
	if d.DefenseMethod != m {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodeDefenseMethodMismatch, Field: "defense_method",
			Message: fmt.Sprintf("this step requires defense method %s", m),
		})
	}
	return nil
}

// ProposeThesisTitle sets the title carried by the defense forms.
func (d *Doctorate) ProposeThesisTitle(title string, now time.Time) {
	d.ProposedThesisTitle = title
	d.UpdatedAt = now
}

// SubmitPrivateDefense registers a new private defense. Under formula 2 it
// submits the combined private and public defense.
func (d *Doctorate) SubmitPrivateDefense(defenseID id.PrivateDefenseID, now time.Time) error {
	if d.ProposedThesisTitle == "" {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodeThesisTitleMissing, Field: "proposed_thesis_title", Message: "the thesis title is required",
		})
	}
	next := StatusPrivateDefenseSubmitted
	if d.IsFormula2() {
		next = StatusDefensesSubmitted
	} else if err := d.requireMethod(DefenseMethodF1); err != nil {
		return err
	}
	if err := d.transition(next, now); err != nil {
		return err
	}
	if !d.PrivateDefenses.IsActive(defenseID) {
		d.PrivateDefenses.Replace(defenseID)
	}
	return nil
}

func (d *Doctorate) AuthorizePrivateDefense(now time.Time) error {
	if d.IsFormula2() {
		return d.transition(StatusDefensesAuthorized, now)
	}
	return d.transition(StatusPrivateDefenseAuthorized, now)
}

// RecordPrivateDefenseSuccess closes the private defense. Under formula 2 the
// combined defense succeeds as a whole.
func (d *Doctorate) RecordPrivateDefenseSuccess(now time.Time) error {
	if d.IsFormula2() {
		return d.transition(StatusDefensePassed, now)
	}
	return d.transition(StatusPrivateDefensePassed, now)
}

func (d *Doctorate) RecordPrivateDefenseFailure(now time.Time) error {
	return d.transition(StatusPrivateDefenseFailed, now)
}

// RecordPrivateDefenseRetry fails the current private defense and opens a new
// one the student submits again.
func (d *Doctorate) RecordPrivateDefenseRetry(next id.PrivateDefenseID, now time.Time) error {
	if err := d.transition(StatusPrivateDefenseFailed, now); err != nil {
		return err
	}
	d.PrivateDefenses.Replace(next)
	return nil
}

// SubmitAdmissibility registers a new admissibility instance, formula 2 only.
func (d *Doctorate) SubmitAdmissibility(admissibilityID id.AdmissibilityID, now time.Time) error {
	if err := d.requireMethod(DefenseMethodF2); err != nil {
		return err
	}
	if err := d.transition(StatusAdmissibilitySubmitted, now); err != nil {
		return err
	}
	if !d.Admissibilities.IsActive(admissibilityID) {
		d.Admissibilities.Replace(admissibilityID)
	}
	return nil
}

func (d *Doctorate) RecordAdmissibilitySuccess(now time.Time) error {
	return d.transition(StatusAdmissibilityPassed, now)
}

func (d *Doctorate) RecordAdmissibilityFailure(now time.Time) error {
	return d.transition(StatusAdmissibilityFailed, now)
}

// ModifyPublicDefense replaces the public defense data.
func (d *Doctorate) ModifyPublicDefense(p PublicDefense, now time.Time) error {
	if d.Status.IsTerminal() || d.Status == StatusDefensePassed {
		return dErrors.New(dErrors.CodeInvalidTransition, fmt.Sprintf("doctorate in %s cannot be modified", d.Status))
	}
	p.Minutes = d.PublicDefense.Minutes
	d.PublicDefense = p
	d.UpdatedAt = now
	return nil
}

// SubmitPublicDefense submits the public defense, formula 1 only.
func (d *Doctorate) SubmitPublicDefense(now time.Time) error {
	if err := d.requireMethod(DefenseMethodF1); err != nil {
		return err
	}
	err := validation.Validate(
		validation.Require(!blank(d.PublicDefense.Language), dErrors.Violation{
			Code: CodePublicDefenseIncomplete, Field: "public_defense.language", Message: "the defense language is required",
		}),
		validation.Require(d.PublicDefense.Datetime != nil, dErrors.Violation{
			Code: CodePublicDefenseIncomplete, Field: "public_defense.datetime", Message: "the defense date is required",
		}),
		validation.Require(!blank(d.PublicDefense.Place), dErrors.Violation{
			Code: CodePublicDefenseIncomplete, Field: "public_defense.place", Message: "the defense place is required",
		}),
	)
	if err != nil {
		return err
	}
	return d.transition(StatusPublicDefenseSubmitted, now)
}

func (d *Doctorate) AuthorizePublicDefense(now time.Time) error {
	return d.transition(StatusPublicDefenseAuthorized, now)
}

// SubmitPublicDefenseMinutes stores the minutes. Submitting the same files
// again changes nothing.
func (d *Doctorate) SubmitPublicDefenseMinutes(minutes []string, now time.Time) error {
	switch d.Status {
	case StatusPublicDefenseAuthorized, StatusDefensesAuthorized, StatusDefensePassed:
	default:
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("public defense minutes cannot be submitted in %s", d.Status))
	}
	if slices.Equal(d.PublicDefense.Minutes, minutes) {
		return nil
	}
	d.PublicDefense.Minutes = slices.Clone(minutes)
	d.UpdatedAt = now
	return nil
}

// RecordDefenseSuccess closes the public defense.
func (d *Doctorate) RecordDefenseSuccess(now time.Time) error {
	return d.transition(StatusDefensePassed, now)
}

// LockDiploma moves a successful doctorate to graduation. The thesis
// distribution must have been validated by the library first.
func (d *Doctorate) LockDiploma(thesisDistributed bool, collectionDate *time.Time, now time.Time) error {
	if err := d.CanTransitionTo(StatusGraduation); err != nil {
		return err
	}
	if !thesisDistributed {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodeThesisNotDistributed, Message: "the thesis distribution must be validated before graduation",
		})
	}
	d.DiplomaCollectionDate = collectionDate
	d.ApplyTransition(StatusGraduation, now)
	return nil
}
