package ports

import (
	"context"
	"time"

	confirmation "parcours/internal/confirmation/models"
	diffusion "parcours/internal/diffusion/models"
	doctorate "parcours/internal/doctorate/models"
	jury "parcours/internal/jury/models"
	supervision "parcours/internal/supervision/models"
	training "parcours/internal/training/models"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/signature"
)

// Message is a free-form message a manager sends about a decision.
type Message struct {
	Sender      id.Matricule `json:"sender"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	CCPromoters bool         `json:"cc_promoters"`
	CCCAMembers bool         `json:"cc_ca_members"`
	CCJury      bool         `json:"cc_jury"`
}

// Notifier sends the emails and web notifications of the workflow. Methods
// are named after the business intent. Implementations queue their output and
// only fail when queueing itself fails.
type Notifier interface {
	InviteSignatories(ctx context.Context, d doctorate.DoctorateDTO, invited []supervision.Member) error
	NotifySupervisionRefusal(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, refuser supervision.Member, reason string) error
	NotifySupervisionApproved(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group) error

	NotifyConfirmationSubmitted(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, paper *confirmation.Paper, first bool) error
	NotifyExtensionRequest(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, paper *confirmation.Paper) error
	NotifyConfirmationDecision(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, msg Message) error

	NotifyActivitiesSubmitted(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, activities []*training.Activity) error
	NotifyActivityReviewed(ctx context.Context, d doctorate.DoctorateDTO, activity *training.Activity) error
	NotifyMarkEncodingToProgramManagers(ctx context.Context, d doctorate.DoctorateDTO, activity *training.Activity, mark string) error
	NotifyUnenrollment(ctx context.Context, d doctorate.DoctorateDTO, enrollment *training.Enrollment) error

	InviteJuryMembers(ctx context.Context, d doctorate.DoctorateDTO, invited []jury.Member) error
	NotifyJuryRefusal(ctx context.Context, d doctorate.DoctorateDTO, j *jury.Jury, refuser jury.Member, reason string) error
	NotifyJuryDecision(ctx context.Context, d doctorate.DoctorateDTO, j *jury.Jury, role signature.Role, approved bool) error

	InviteThesisSignatory(ctx context.Context, d doctorate.DoctorateDTO, a *diffusion.Authorization, role diffusion.Actor, signatory Person) error
	NotifyThesisRefusal(ctx context.Context, d doctorate.DoctorateDTO, a *diffusion.Authorization, by diffusion.Actor, reason string) error
	NotifyThesisDistributed(ctx context.Context, d doctorate.DoctorateDTO, a *diffusion.Authorization) error

	NotifyPrivateDefenseSubmitted(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, at *time.Time) error
	NotifyAdmissibilitySubmitted(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, decisionDate *time.Time) error
	// SendMessage delivers a manager's message to the student, copying the
	// groups the message selects.
	SendMessage(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, j *jury.Jury, msg Message) error
}
