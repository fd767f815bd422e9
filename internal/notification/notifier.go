package notification

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	confirmation "parcours/internal/confirmation/models"
	diffusion "parcours/internal/diffusion/models"
	doctorate "parcours/internal/doctorate/models"
	jury "parcours/internal/jury/models"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	training "parcours/internal/training/models"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/outbox"
	"parcours/pkg/platform/signature"
	"parcours/pkg/requestcontext"
)

const (
	eventEmail = "email"
	eventWeb   = "web_notification"

	aggregateDoctorate = "doctorate"

	// maxLookups bounds concurrent directory calls for one message.
	maxLookups = 4
)

// OutboxNotifier queues the workflow's messages in the outbox. Recipients the
// directory cannot resolve are logged and skipped. A failed manager lookup
// fails the command.
type OutboxNotifier struct {
	out       outbox.Appender
	directory ports.Directory
	logger    *slog.Logger
}

type Option func(*OutboxNotifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *OutboxNotifier) {
		n.logger = logger
	}
}

func NewOutboxNotifier(out outbox.Appender, directory ports.Directory, opts ...Option) *OutboxNotifier {
	n := &OutboxNotifier{out: out, directory: directory, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ ports.Notifier = (*OutboxNotifier)(nil)

// resolve fills in the contact card of internal recipients. Order is kept;
// unresolvable recipients are dropped.
func (n *OutboxNotifier) resolve(ctx context.Context, rs []Recipient) []Recipient {
	rs = Dedupe(rs)
	out := make([]Recipient, len(rs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for i, r := range rs {
		if r.resolved() || r.Matricule.IsZero() {
			out[i] = r
			continue
		}
		g.Go(func() error {
			p, err := n.directory.Person(gctx, r.Matricule)
			if err != nil {
				n.logger.WarnContext(ctx, "recipient lookup failed",
					"matricule", r.Matricule.String(),
					"error", err,
				)
				return nil
			}
			out[i] = FromPerson(p)
			return nil
		})
	}
	_ = g.Wait()
	resolved := out[:0]
	for _, r := range out {
		if r.resolved() {
			resolved = append(resolved, r)
		}
	}
	return resolved
}

func (n *OutboxNotifier) managers(ctx context.Context, role ports.ManagerRole, cdd string) ([]Recipient, error) {
	people, err := n.directory.Managers(ctx, role, cdd)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up "+string(role)+" managers")
	}
	out := make([]Recipient, 0, len(people))
	for _, p := range people {
		out = append(out, FromPerson(p))
	}
	return out, nil
}

// webManagers queues an in-app notification for every manager with role.
func (n *OutboxNotifier) webManagers(ctx context.Context, d doctorate.DoctorateDTO, template string,
	role ports.ManagerRole, cdd string, tokens map[string]string) error {
	to, err := n.managers(ctx, role, cdd)
	if err != nil {
		return err
	}
	return n.web(ctx, d, template, to, tokens)
}

// email queues one email per recipient in to, each copying cc.
func (n *OutboxNotifier) email(ctx context.Context, d doctorate.DoctorateDTO, template string,
	to, cc []Recipient, tokens map[string]string) error {
	to = n.resolve(ctx, to)
	if len(to) == 0 {
		n.logger.WarnContext(ctx, "notification has no recipient",
			"template", template,
			"doctorate_id", d.ID.String(),
		)
		return nil
	}
	cc = n.resolve(ctx, cc)
	now := requestcontext.Now(ctx)
	entries := make([]outbox.Entry, 0, len(to))
	for _, r := range to {
		e, err := outbox.NewEntry(outbox.TopicNotification, aggregateDoctorate, d.ID.String(), eventEmail,
			Email{Template: template, To: []Recipient{r}, CC: cc, Tokens: Tokens(d, tokens)}, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build email")
		}
		entries = append(entries, e)
	}
	return n.append(ctx, entries...)
}

// web queues an in-app notification for every internal recipient.
func (n *OutboxNotifier) web(ctx context.Context, d doctorate.DoctorateDTO, template string,
	to []Recipient, tokens map[string]string) error {
	now := requestcontext.Now(ctx)
	var entries []outbox.Entry
	for _, r := range Dedupe(to) {
		if r.Matricule.IsZero() {
			continue
		}
		e, err := outbox.NewEntry(outbox.TopicNotification, aggregateDoctorate, d.ID.String(), eventWeb,
			Web{Template: template, Matricule: r.Matricule, Tokens: Tokens(d, tokens)}, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build web notification")
		}
		entries = append(entries, e)
	}
	return n.append(ctx, entries...)
}

func (n *OutboxNotifier) append(ctx context.Context, entries ...outbox.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := n.out.Append(ctx, entries...); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue notification")
	}
	return nil
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

func (n *OutboxNotifier) InviteSignatories(ctx context.Context, d doctorate.DoctorateDTO, invited []supervision.Member) error {
	for _, m := range invited {
		err := n.email(ctx, d, TemplateSignatureInvitation, []Recipient{SupervisionMember(m)}, nil,
			map[string]string{"role": string(m.Role), "signatory_id": m.ID.String()})
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *OutboxNotifier) NotifySupervisionRefusal(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group,
	refuser supervision.Member, reason string) error {
	by := SupervisionMember(refuser)
	to := append([]Recipient{Student(d)}, SupervisionMembers(group, supervision.RolePromoter)...)
	return n.email(ctx, d, TemplateSupervisionRefused, to, nil, map[string]string{
		"refuser_first_name": by.FirstName,
		"refuser_last_name":  by.LastName,
		"reason":             reason,
	})
}

func (n *OutboxNotifier) NotifySupervisionApproved(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group) error {
	return n.email(ctx, d, TemplateSupervisionApproved, []Recipient{Student(d)}, SupervisionMembers(group), nil)
}

// NotifyConfirmationSubmitted tells the supervisors and the CDD managers. The
// ADRE is only emailed on the first submission.
func (n *OutboxNotifier) NotifyConfirmationSubmitted(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group,
	paper *confirmation.Paper, first bool) error {
	tokens := map[string]string{"confirmation_date": date(paper.Date), "confirmation_deadline": paper.Deadline.Format("02/01/2006")}
	if err := n.email(ctx, d, TemplateConfirmationSubmitted, SupervisionMembers(group), nil, tokens); err != nil {
		return err
	}
	if !first {
		return n.webManagers(ctx, d, TemplateConfirmationResubmitted, ports.ManagerCDD, d.Training.CDD, tokens)
	}
	adre, err := n.managers(ctx, ports.ManagerADRE, "")
	if err != nil {
		return err
	}
	if err := n.email(ctx, d, TemplateConfirmationSubmittedADRE, adre, nil, tokens); err != nil {
		return err
	}
	return n.webManagers(ctx, d, TemplateConfirmationSubmitted, ports.ManagerCDD, d.Training.CDD, tokens)
}

func (n *OutboxNotifier) NotifyExtensionRequest(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group,
	paper *confirmation.Paper) error {
	tokens := map[string]string{}
	if paper.Extension != nil {
		tokens["new_deadline"] = paper.Extension.NewDeadline.Format("02/01/2006")
		tokens["justification"] = paper.Extension.Justification
	}
	to := SupervisionMembers(group, supervision.RolePromoter)
	if err := n.email(ctx, d, TemplateExtensionRequest, to, nil, tokens); err != nil {
		return err
	}
	return n.webManagers(ctx, d, TemplateExtensionRequest, ports.ManagerCDD, d.Training.CDD, tokens)
}

func (n *OutboxNotifier) NotifyConfirmationDecision(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group,
	msg ports.Message) error {
	return n.SendMessage(ctx, d, group, nil, msg)
}

func (n *OutboxNotifier) NotifyActivitiesSubmitted(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group,
	activities []*training.Activity) error {
	var reference []Recipient
	if group != nil {
		if m, err := group.Member(group.ReferencePromoter); err == nil {
			reference = append(reference, SupervisionMember(m))
		}
	}
	tokens := map[string]string{"activity_count": strconv.Itoa(len(activities))}
	return n.web(ctx, d, TemplateActivitiesSubmitted, reference, tokens)
}

func (n *OutboxNotifier) NotifyActivityReviewed(ctx context.Context, d doctorate.DoctorateDTO, activity *training.Activity) error {
	tokens := map[string]string{
		"activity_title":  activity.Title,
		"activity_status": string(activity.Status),
		"manager_comment": activity.ManagerComment,
	}
	return n.web(ctx, d, TemplateActivityReviewed, []Recipient{Student(d)}, tokens)
}

func (n *OutboxNotifier) NotifyMarkEncodingToProgramManagers(ctx context.Context, d doctorate.DoctorateDTO,
	activity *training.Activity, mark string) error {
	tokens := map[string]string{"course_acronym": activity.CourseAcronym, "mark": mark}
	return n.webManagers(ctx, d, TemplateMarkEncoded, ports.ManagerProgram, d.Training.CDD, tokens)
}

func (n *OutboxNotifier) NotifyUnenrollment(ctx context.Context, d doctorate.DoctorateDTO, enrollment *training.Enrollment) error {
	tokens := map[string]string{
		"course":            enrollment.Key.CourseAcronym,
		"late_unenrollment": boolToken(enrollment.LateUnenrollment),
		"teacher_deadline":  date(enrollment.TeacherDeadline),
	}
	if err := n.email(ctx, d, TemplateUnenrollment, []Recipient{Student(d)}, nil, tokens); err != nil {
		return err
	}
	if !enrollment.LateUnenrollment {
		return nil
	}
	return n.webManagers(ctx, d, TemplateUnenrollment, ports.ManagerProgram, d.Training.CDD, tokens)
}

func (n *OutboxNotifier) InviteJuryMembers(ctx context.Context, d doctorate.DoctorateDTO, invited []jury.Member) error {
	for _, m := range invited {
		err := n.email(ctx, d, TemplateJuryInvitation, []Recipient{JuryMember(m)}, nil,
			map[string]string{"role": string(m.Role), "member_id": m.ID.String()})
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *OutboxNotifier) NotifyJuryRefusal(ctx context.Context, d doctorate.DoctorateDTO, j *jury.Jury, refuser jury.Member,
	reason string) error {
	var promoters []Recipient
	for _, m := range j.Members {
		if m.IsPromoter {
			promoters = append(promoters, JuryMember(m))
		}
	}
	return n.email(ctx, d, TemplateJuryRefused, append([]Recipient{Student(d)}, promoters...), nil, map[string]string{
		"refuser_first_name": refuser.FirstName,
		"refuser_last_name":  refuser.LastName,
		"reason":             reason,
	})
}

func (n *OutboxNotifier) NotifyJuryDecision(ctx context.Context, d doctorate.DoctorateDTO, j *jury.Jury, role signature.Role,
	approved bool) error {
	tokens := map[string]string{"decider": string(role), "approved": boolToken(approved)}
	if err := n.email(ctx, d, TemplateJuryDecision, []Recipient{Student(d)}, JuryMembers(j), tokens); err != nil {
		return err
	}
	if approved && role == jury.RoleCDD {
		return n.webManagers(ctx, d, TemplateJuryDecision, ports.ManagerADRE, "", tokens)
	}
	return nil
}

func (n *OutboxNotifier) InviteThesisSignatory(ctx context.Context, d doctorate.DoctorateDTO, a *diffusion.Authorization,
	role diffusion.Actor, signatory ports.Person) error {
	tokens := map[string]string{"actor": string(role), "authorization_status": string(a.Status)}
	return n.email(ctx, d, TemplateThesisInvitation, []Recipient{FromPerson(signatory)}, nil, tokens)
}

func (n *OutboxNotifier) NotifyThesisRefusal(ctx context.Context, d doctorate.DoctorateDTO, a *diffusion.Authorization,
	by diffusion.Actor, reason string) error {
	tokens := map[string]string{"actor": string(by), "reason": reason}
	return n.email(ctx, d, TemplateThesisRefused, []Recipient{Student(d)}, nil, tokens)
}

func (n *OutboxNotifier) NotifyThesisDistributed(ctx context.Context, d doctorate.DoctorateDTO, a *diffusion.Authorization) error {
	tokens := map[string]string{"conditions_type": string(a.ConditionsType)}
	return n.email(ctx, d, TemplateThesisDistributed, []Recipient{Student(d)}, nil, tokens)
}

func (n *OutboxNotifier) NotifyPrivateDefenseSubmitted(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group,
	at *time.Time) error {
	tokens := map[string]string{"private_defense_date": date(at)}
	if err := n.email(ctx, d, TemplatePrivateDefenseSubmited, SupervisionMembers(group, supervision.RolePromoter), nil, tokens); err != nil {
		return err
	}
	return n.webManagers(ctx, d, TemplatePrivateDefenseSubmited, ports.ManagerCDD, d.Training.CDD, tokens)
}

func (n *OutboxNotifier) NotifyAdmissibilitySubmitted(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group,
	decisionDate *time.Time) error {
	tokens := map[string]string{"decision_date": date(decisionDate)}
	if err := n.email(ctx, d, TemplateAdmissibilitySubmitted, SupervisionMembers(group, supervision.RolePromoter), nil, tokens); err != nil {
		return err
	}
	return n.webManagers(ctx, d, TemplateAdmissibilitySubmitted, ports.ManagerCDD, d.Training.CDD, tokens)
}

func (n *OutboxNotifier) SendMessage(ctx context.Context, d doctorate.DoctorateDTO, group *supervision.Group, j *jury.Jury,
	msg ports.Message) error {
	tokens := map[string]string{"subject": msg.Subject, "body": msg.Body}
	cc := MessageRecipients(group, j, msg)
	if !msg.Sender.IsZero() {
		cc = append(cc, Recipient{Matricule: msg.Sender})
	}
	return n.email(ctx, d, TemplateManagerMessage, []Recipient{Student(d)}, cc, tokens)
}

func boolToken(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
