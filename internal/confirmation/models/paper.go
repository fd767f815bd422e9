package models

import (
	"slices"
	"strings"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

const (
	CodePaperNotFound       = "EPREUVE-CONFIRMATION-1"
	CodeDateMissing         = "EPREUVE-CONFIRMATION-2"
	CodeDateAfterDeadline   = "EPREUVE-CONFIRMATION-3"
	CodeExtensionIncomplete = "EPREUVE-CONFIRMATION-4"
	CodeExtensionNotAfter   = "EPREUVE-CONFIRMATION-5"
	CodeExtensionMissing    = "EPREUVE-CONFIRMATION-6"
	CodeOpinionMissing      = "EPREUVE-CONFIRMATION-7"
	CodeDecisionIncomplete  = "EPREUVE-CONFIRMATION-8"
	CodePaperArchived       = "EPREUVE-CONFIRMATION-9"
	CodeStatusNotInProgress = "EPREUVE-CONFIRMATION-10"
)

// DefaultDeadlineMonths is how long after admission the first confirmation must
// take place.
const DefaultDeadlineMonths = 24

// ExtensionRequest asks the CDD to postpone the deadline.
type ExtensionRequest struct {
	NewDeadline         time.Time `json:"new_deadline"`
	Justification       string    `json:"justification"`
	JustificationLetter []string  `json:"justification_letter,omitempty"`
	CDDOpinion          string    `json:"cdd_opinion,omitempty"`
}

// Paper is one confirmation attempt. The doctorate tracks which paper is
// current; a retry archives the current paper and starts a new one.
type Paper struct {
	ID                 id.ConfirmationPaperID `json:"id"`
	DoctorateID        id.DoctorateID         `json:"doctorate_id"`
	Deadline           time.Time              `json:"deadline"`
	Date               *time.Time             `json:"date,omitempty"`
	ResearchReport     []string               `json:"research_report,omitempty"`
	SupervisorReport   []string               `json:"supervisor_report,omitempty"`
	SupervisorCanvas   []string               `json:"supervisor_canvas,omitempty"`
	RenewalOpinion     []string               `json:"renewal_opinion,omitempty"`
	Extension          *ExtensionRequest      `json:"extension,omitempty"`
	SuccessCertificate []string               `json:"success_certificate,omitempty"`
	FailureCertificate []string               `json:"failure_certificate,omitempty"`
	Archived           bool                   `json:"archived"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// NewPaper starts a confirmation attempt with the given deadline.
func NewPaper(paperID id.ConfirmationPaperID, doctorateID id.DoctorateID, deadline, now time.Time) (*Paper, error) {
	if paperID.IsNil() || doctorateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "confirmation paper requires ids")
	}
	if deadline.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "confirmation paper requires a deadline")
	}
	return &Paper{ID: paperID, DoctorateID: doctorateID, Deadline: deadline, CreatedAt: now, UpdatedAt: now}, nil
}

// InitialDeadline returns the deadline of the first paper of a doctorate
// admitted at admittedAt.
func InitialDeadline(admittedAt time.Time) time.Time {
	y, m, d := admittedAt.AddDate(0, DefaultDeadlineMonths, 0).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (p *Paper) checkActive() error {
	if p.Archived {
		return dErrors.NewViolations(dErrors.Violation{Code: CodePaperArchived, Message: "the confirmation paper is archived"})
	}
	return nil
}

// DateWithinDeadline checks the confirmation date is set and not after the
// deadline.
func DateWithinDeadline(date *time.Time, deadline time.Time) []validation.Rule {
	return []validation.Rule{
		validation.Require(date != nil, dErrors.Violation{
			Code: CodeDateMissing, Field: "date", Message: "the confirmation date is required",
		}),
		validation.Require(date == nil || !dateOnly(*date).After(dateOnly(deadline)), dErrors.Violation{
			Code: CodeDateAfterDeadline, Field: "date", Message: "the confirmation date must not be after the deadline",
		}),
	}
}

// Submission is the content the student submits.
type Submission struct {
	Date             *time.Time
	ResearchReport   []string
	SupervisorReport []string
	SupervisorCanvas []string
	RenewalOpinion   []string
}

// Submit records the student's confirmation content.
func (p *Paper) Submit(sub Submission, now time.Time) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	if err := validation.Validate(DateWithinDeadline(sub.Date, p.Deadline)...); err != nil {
		return err
	}
	p.Date = sub.Date
	p.ResearchReport = slices.Clone(sub.ResearchReport)
	p.SupervisorReport = slices.Clone(sub.SupervisorReport)
	p.SupervisorCanvas = slices.Clone(sub.SupervisorCanvas)
	p.RenewalOpinion = slices.Clone(sub.RenewalOpinion)
	p.UpdatedAt = now
	return nil
}

// CompleteBySupervisor records the supervisory panel report and the
// research mandate renewal opinion.
func (p *Paper) CompleteBySupervisor(report, renewalOpinion []string, now time.Time) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	p.SupervisorReport = slices.Clone(report)
	p.RenewalOpinion = slices.Clone(renewalOpinion)
	p.UpdatedAt = now
	return nil
}

// CDDModification is a correction made by the CDD.
type CDDModification struct {
	Deadline         time.Time
	Date             *time.Time
	ResearchReport   []string
	SupervisorReport []string
	RenewalOpinion   []string
}

// ModifyByCDD lets the CDD correct the deadline and content.
func (p *Paper) ModifyByCDD(mod CDDModification, now time.Time) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	if mod.Deadline.IsZero() {
		return dErrors.NewViolations(dErrors.Violation{Code: CodeDateMissing, Field: "deadline", Message: "the deadline is required"})
	}
	p.Deadline = mod.Deadline
	p.Date = mod.Date
	p.ResearchReport = slices.Clone(mod.ResearchReport)
	p.SupervisorReport = slices.Clone(mod.SupervisorReport)
	p.RenewalOpinion = slices.Clone(mod.RenewalOpinion)
	p.UpdatedAt = now
	return nil
}

// RecordExtensionRequest stores a request to postpone the deadline. The new
// deadline must follow the current one.
func (p *Paper) RecordExtensionRequest(newDeadline time.Time, justification string, letter []string, now time.Time) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	err := validation.List{
		Contract: []validation.Rule{
			validation.Require(!newDeadline.IsZero() && strings.TrimSpace(justification) != "", dErrors.Violation{
				Code: CodeExtensionIncomplete, Field: "extension", Message: "the new deadline and a justification are required",
			}),
		},
		Invariants: []validation.Rule{
			validation.Require(dateOnly(newDeadline).After(dateOnly(p.Deadline)), dErrors.Violation{
				Code: CodeExtensionNotAfter, Field: "extension.new_deadline", Message: "the new deadline must follow the current deadline",
			}),
		},
	}.Validate()
	if err != nil {
		return err
	}
	p.Extension = &ExtensionRequest{NewDeadline: newDeadline, Justification: justification, JustificationLetter: slices.Clone(letter)}
	p.UpdatedAt = now
	return nil
}

// RecordCDDOpinion stores the CDD opinion on the extension request.
func (p *Paper) RecordCDDOpinion(opinion string, now time.Time) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	err := validation.Validate(
		validation.Require(p.Extension != nil, dErrors.Violation{
			Code: CodeExtensionMissing, Message: "no extension request was made",
		}),
		validation.Require(strings.TrimSpace(opinion) != "", dErrors.Violation{
			Code: CodeOpinionMissing, Field: "cdd_opinion", Message: "the CDD opinion is required",
		}),
	)
	if err != nil {
		return err
	}
	p.Extension.CDDOpinion = opinion
	p.UpdatedAt = now
	return nil
}

// UploadRenewalOpinion replaces the research mandate renewal opinion.
func (p *Paper) UploadRenewalOpinion(opinion []string, now time.Time) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	p.RenewalOpinion = slices.Clone(opinion)
	p.UpdatedAt = now
	return nil
}

// VerifyForDecision checks a decision can be recorded: the confirmation took
// place and the CA minutes are available.
func (p *Paper) VerifyForDecision() error {
	if err := p.checkActive(); err != nil {
		return err
	}
	return validation.Validate(validation.Require(p.Date != nil && len(p.SupervisorReport) > 0, dErrors.Violation{
		Code: CodeDecisionIncomplete, Message: "the confirmation date and the supervisory panel report are required",
	}))
}

// RecordDecision stores the certificate produced by a success or failure.
func (p *Paper) RecordDecision(success bool, certificate []string, now time.Time) error {
	if err := p.VerifyForDecision(); err != nil {
		return err
	}
	if success {
		p.SuccessCertificate = slices.Clone(certificate)
		p.FailureCertificate = nil
	} else {
		p.FailureCertificate = slices.Clone(certificate)
		p.SuccessCertificate = nil
	}
	p.UpdatedAt = now
	return nil
}

// Archive marks the paper as a historical attempt.
func (p *Paper) Archive(now time.Time) {
	p.Archived = true
	p.UpdatedAt = now
}

// PaperDTO is the read projection of a paper.
type PaperDTO struct {
	Paper
	IsActive bool `json:"is_active"`
}

// ToDTO projects the paper; active tells whether the doctorate tracks it as current.
func (p *Paper) ToDTO(active bool) PaperDTO {
	return PaperDTO{Paper: *p, IsActive: active && !p.Archived}
}
