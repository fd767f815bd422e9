package models

import (
	"errors"
	"slices"
	"strings"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/signature"
	"parcours/pkg/platform/validation"
)

// SignatureStatus tells whether the group is collecting signatures.
type SignatureStatus string

const (
	StatusInProgress        SignatureStatus = "IN_PROGRESS"
	StatusSigningInProgress SignatureStatus = "SIGNING_IN_PROGRESS"
)

const (
	RolePromoter signature.Role = "PROMOTEUR"
	RoleCAMember signature.Role = "MEMBRE_CA"
)

const (
	MaxPromoters = 5
	MaxCAMembers = 3
	MinCAMembers = 2
)

const (
	CodePromoterNotFound        = "PARCOURS-DOCTORAL-2"
	CodeCAMemberNotFound        = "PARCOURS-DOCTORAL-3"
	CodeSignatoryNotFound       = "PARCOURS-DOCTORAL-4"
	CodeSignatoryAlreadyInvited = "PARCOURS-DOCTORAL-5"
	CodeSignatoryNotInvited     = "PARCOURS-DOCTORAL-6"
	CodeMemberInternalXorExt    = "PARCOURS-DOCTORAL-7"
	CodeAlreadyMember           = "PARCOURS-DOCTORAL-8"
	CodeSigningNotStarted       = "PARCOURS-DOCTORAL-9"
	CodePromotersNotApproved    = "PARCOURS-DOCTORAL-10"
	CodeCAMembersNotApproved    = "PARCOURS-DOCTORAL-11"
	CodePromoterMissing         = "PARCOURS-DOCTORAL-12"
	CodeCAMemberMissing         = "PARCOURS-DOCTORAL-13"
	CodeSigningAlreadyStarted   = "PARCOURS-DOCTORAL-14"
	CodeReferencePromoterUnset  = "PARCOURS-DOCTORAL-16"
	CodePromotersFull           = "PARCOURS-DOCTORAL-17"
	CodeCAMembersFull           = "PARCOURS-DOCTORAL-18"
	CodeExternalPromoterMissing = "PARCOURS-DOCTORAL-31"
	CodeThesisInstituteMissing  = "PARCOURS-DOCTORAL-32"
	CodeRefusalReasonRequired   = "PARCOURS-DOCTORAL-33"
)

// ExternalPerson holds the identity of a member from another institution.
type ExternalPerson struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Institution string `json:"institution"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Language    string `json:"language"`
	IsDoctor    bool   `json:"is_doctor"`
}

func (p ExternalPerson) fields() []string {
	return []string{p.FirstName, p.LastName, p.Email, p.Institution, p.City, p.Country, p.Language}
}

// Member is a promoter or CA member, either internal (matricule) or external.
type Member struct {
	ID        id.SignatoryID `json:"id"`
	Role      signature.Role `json:"role"`
	Matricule id.Matricule   `json:"matricule,omitempty"`
	External  ExternalPerson `json:"external"`
}

// IsExternal reports whether the member comes from another institution.
func (m Member) IsExternal() bool {
	return m.Matricule.IsZero()
}

// InternalXorExternal checks a member has a matricule and no external
// field, or no matricule and every external field.
func InternalXorExternal(matricule id.Matricule, ext ExternalPerson) validation.Rule {
	return validation.RuleFunc(func() *dErrors.Violation {
		filled := 0
		for _, f := range ext.fields() {
			if strings.TrimSpace(f) != "" {
				filled++
			}
		}
		internal := !matricule.IsZero() && filled == 0
		external := matricule.IsZero() && filled == len(ext.fields())
		if internal || external {
			return nil
		}
		return &dErrors.Violation{
			Code:    CodeMemberInternalXorExt,
			Message: "a member should be either internal or external, please check the fields",
		}
	})
}

// Group is the supervision group of a doctorate.
//
// Invariants:
//   - at most one reference promoter, and it is one of the promoters
//   - no member appears twice
//   - each member has exactly one signature
type Group struct {
	ID                id.SupervisionGroupID `json:"id"`
	DoctorateID       id.DoctorateID        `json:"doctorate_id"`
	Members           []Member              `json:"members"`
	Signatures        signature.Process     `json:"signatures"`
	Status            SignatureStatus       `json:"status"`
	ReferencePromoter id.SignatoryID        `json:"reference_promoter"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// NewGroup creates an empty group.
func NewGroup(groupID id.SupervisionGroupID, doctorateID id.DoctorateID, now time.Time) (*Group, error) {
	if groupID.IsNil() || doctorateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "supervision group requires ids")
	}
	return &Group{ID: groupID, DoctorateID: doctorateID, Status: StatusInProgress, UpdatedAt: now}, nil
}

func (g *Group) member(memberID id.SignatoryID) (Member, bool) {
	i := slices.IndexFunc(g.Members, func(m Member) bool { return m.ID == memberID })
	if i < 0 {
		return Member{}, false
	}
	return g.Members[i], true
}

// Member returns the member with the given id.
func (g *Group) Member(memberID id.SignatoryID) (Member, error) {
	m, ok := g.member(memberID)
	if !ok {
		return Member{}, dErrors.NewViolations(dErrors.Violation{
			Code: CodeSignatoryNotFound, Message: "member of supervision group not found",
		})
	}
	return m, nil
}

// MembersWithRole lists members holding role.
func (g *Group) MembersWithRole(role signature.Role) []Member {
	var out []Member
	for _, m := range g.Members {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// Promoters lists the promoters.
func (g *Group) Promoters() []Member {
	return g.MembersWithRole(RolePromoter)
}

// CAMembers lists the CA members.
func (g *Group) CAMembers() []Member {
	return g.MembersWithRole(RoleCAMember)
}

// SignatureOf returns the signature of a member.
func (g *Group) SignatureOf(memberID id.SignatoryID) (signature.Signature, bool) {
	s, ok := g.Signatures.Get(memberID.String())
	return s.Signature, ok
}

func (g *Group) isMember(matricule id.Matricule, ext ExternalPerson) bool {
	for _, m := range g.Members {
		if !matricule.IsZero() && m.Matricule == matricule {
			return true
		}
		if matricule.IsZero() && m.IsExternal() && ext.Email != "" && strings.EqualFold(m.External.Email, ext.Email) {
			return true
		}
	}
	return false
}

// Identify adds a new promoter or CA member after checking capacity,
// internal/external exclusivity and duplicates.
func (g *Group) Identify(memberID id.SignatoryID, role signature.Role, matricule id.Matricule, ext ExternalPerson, now time.Time) error {
	var capacity validation.Rule
	switch role {
	case RolePromoter:
		capacity = validation.Require(len(g.Promoters()) < MaxPromoters, dErrors.Violation{
			Code: CodePromotersFull, Message: "there can be no more promoters in the supervision group",
		})
	case RoleCAMember:
		capacity = validation.Require(len(g.CAMembers()) < MaxCAMembers, dErrors.Violation{
			Code: CodeCAMembersFull, Message: "there can be no more CA members in the supervision group",
		})
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown supervision role")
	}
	err := validation.Validate(
		capacity,
		InternalXorExternal(matricule, ext),
		validation.Require(!g.isMember(matricule, ext), dErrors.Violation{Code: CodeAlreadyMember, Message: "already a member"}),
		validation.Require(!g.Signatures.Has(memberID.String()), dErrors.Violation{Code: CodeAlreadyMember, Message: "already a member"}),
	)
	if err != nil {
		return err
	}
	g.Members = append(g.Members, Member{ID: memberID, Role: role, Matricule: matricule, External: ext})
	if err := g.Signatures.Add(memberID.String(), role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "signature already present")
	}
	g.UpdatedAt = now
	return nil
}

// AddPromoter identifies a new promoter.
func (g *Group) AddPromoter(memberID id.SignatoryID, matricule id.Matricule, ext ExternalPerson, now time.Time) error {
	return g.Identify(memberID, RolePromoter, matricule, ext, now)
}

// AddCAMember identifies a new CA member.
func (g *Group) AddCAMember(memberID id.SignatoryID, matricule id.Matricule, ext ExternalPerson, now time.Time) error {
	return g.Identify(memberID, RoleCAMember, matricule, ext, now)
}

func (g *Group) requireRole(memberID id.SignatoryID, role signature.Role) error {
	m, ok := g.member(memberID)
	if ok && m.Role == role {
		return nil
	}
	code, msg := CodePromoterNotFound, "supervisor not found"
	if role == RoleCAMember {
		code, msg = CodeCAMemberNotFound, "CA member not found"
	}
	return dErrors.NewViolations(dErrors.Violation{Code: code, Message: msg})
}

func (g *Group) remove(memberID id.SignatoryID, now time.Time) {
	g.Members = slices.DeleteFunc(g.Members, func(m Member) bool { return m.ID == memberID })
	g.Signatures.Remove(memberID.String())
	if g.ReferencePromoter == memberID {
		g.ReferencePromoter = id.SignatoryID{}
	}
	g.UpdatedAt = now
}

// RemovePromoter drops a promoter and clears the reference pointer when it
// designated them.
func (g *Group) RemovePromoter(memberID id.SignatoryID, now time.Time) error {
	if err := g.requireRole(memberID, RolePromoter); err != nil {
		return err
	}
	g.remove(memberID, now)
	return nil
}

// RemoveCAMember drops a CA member.
func (g *Group) RemoveCAMember(memberID id.SignatoryID, now time.Time) error {
	if err := g.requireRole(memberID, RoleCAMember); err != nil {
		return err
	}
	g.remove(memberID, now)
	return nil
}

// ModifyExternalMember updates the identity of an external member before
// signatures are sent.
func (g *Group) ModifyExternalMember(memberID id.SignatoryID, ext ExternalPerson, now time.Time) error {
	if err := g.VerifySignaturesNotSent(); err != nil {
		return err
	}
	i := slices.IndexFunc(g.Members, func(m Member) bool { return m.ID == memberID })
	if i < 0 {
		return dErrors.NewViolations(dErrors.Violation{Code: CodeSignatoryNotFound, Message: "member of supervision group not found"})
	}
	if err := validation.Validate(InternalXorExternal(g.Members[i].Matricule, ext)); err != nil {
		return err
	}
	g.Members[i].External = ext
	g.UpdatedAt = now
	return nil
}

// DesignateReferencePromoter sets the lead promoter.
func (g *Group) DesignateReferencePromoter(memberID id.SignatoryID, now time.Time) error {
	if err := g.requireRole(memberID, RolePromoter); err != nil {
		return err
	}
	g.ReferencePromoter = memberID
	g.UpdatedAt = now
	return nil
}

// HasReferencePromoter reports whether a lead promoter is designated.
func (g *Group) HasReferencePromoter() bool {
	return !g.ReferencePromoter.IsNil()
}

// IsReferencePromoter reports whether matricule designates the lead promoter.
func (g *Group) IsReferencePromoter(matricule id.Matricule) bool {
	if !g.HasReferencePromoter() || matricule.IsZero() {
		return false
	}
	m, ok := g.member(g.ReferencePromoter)
	return ok && m.Matricule == matricule
}

// Lock marks the group as collecting signatures.
func (g *Group) Lock(now time.Time) {
	g.Status = StatusSigningInProgress
	g.UpdatedAt = now
}

// Unlock returns the group to edition.
func (g *Group) Unlock(now time.Time) {
	g.Status = StatusInProgress
	g.UpdatedAt = now
}

// InviteToSign invites every NOT_INVITED or DECLINED signatory. Already
// invited or approved signatories are untouched, so repeated calls are
// idempotent. It returns the invited members.
func (g *Group) InviteToSign(now time.Time) []Member {
	keys := g.Signatures.InvitePending()
	out := make([]Member, 0, len(keys))
	for _, k := range keys {
		for _, m := range g.Members {
			if m.ID.String() == k {
				out = append(out, m)
			}
		}
	}
	if len(out) > 0 {
		g.UpdatedAt = now
	}
	return out
}

// ResendInvitation re-invites a signatory that is already invited.
func (g *Group) ResendInvitation(memberID id.SignatoryID) (Member, error) {
	m, err := g.Member(memberID)
	if err != nil {
		return Member{}, err
	}
	if err := g.Signatures.CheckInvited(memberID.String()); err != nil {
		return Member{}, signatureViolation(err)
	}
	return m, nil
}

func signatureViolation(err error) error {
	switch {
	case errors.Is(err, signature.ErrSignatoryNotFound):
		return dErrors.NewViolations(dErrors.Violation{Code: CodeSignatoryNotFound, Message: "member of supervision group not found"})
	case errors.Is(err, signature.ErrNotInvited):
		return dErrors.NewViolations(dErrors.Violation{Code: CodeSignatoryNotInvited, Message: "member of supervision group not invited"})
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "signature process failed")
}

// Approve records the approval of an invited signatory.
func (g *Group) Approve(memberID id.SignatoryID, internal, external string, now time.Time) error {
	if err := g.Signatures.Approve(memberID.String(), now, internal, external); err != nil {
		return signatureViolation(err)
	}
	g.UpdatedAt = now
	return nil
}

// ApproveByPDF records an approval carried by a signed document.
func (g *Group) ApproveByPDF(memberID id.SignatoryID, pdf []string, now time.Time) error {
	if err := g.Signatures.ApproveByPDF(memberID.String(), now, pdf); err != nil {
		return signatureViolation(err)
	}
	g.UpdatedAt = now
	return nil
}

// Refuse records a refusal. A refusing promoter is DECLINED and every other
// promoter goes back to NOT_INVITED; a refusing CA member leaves the group.
// CA members keep their signatures either way.
func (g *Group) Refuse(memberID id.SignatoryID, reason, internal, external string, now time.Time) (Member, error) {
	m, ok := g.member(memberID)
	if !ok {
		return Member{}, signatureViolation(signature.ErrSignatoryNotFound)
	}
	if err := g.Signatures.CheckInvited(memberID.String()); err != nil {
		return Member{}, signatureViolation(err)
	}
	if m.Role == RolePromoter {
		if err := g.Signatures.Decline(memberID.String(), now, reason, internal, external); err != nil {
			return Member{}, signatureViolation(err)
		}
		g.Signatures.Reset(memberID.String(), RolePromoter)
	} else {
		g.remove(memberID, now)
	}
	g.Status = StatusInProgress
	g.UpdatedAt = now
	return m, nil
}

// VerifySignaturesNotSent fails once signatures have been requested.
func (g *Group) VerifySignaturesNotSent() error {
	return validation.Validate(validation.Require(g.Status != StatusSigningInProgress, dErrors.Violation{
		Code: CodeSigningAlreadyStarted, Message: "the signature request procedure is already in progress",
	}))
}

// VerifySignatories checks the group can be sent for signature.
func (g *Group) VerifySignatories() error {
	return validation.Validate(
		validation.Require(len(g.CAMembers()) >= MinCAMembers, dErrors.Violation{
			Code: CodeCAMemberMissing, Message: "you must add at least two CA members in order to request signatures",
		}),
		validation.Require(g.HasReferencePromoter(), dErrors.Violation{
			Code: CodeReferencePromoterUnset, Message: "you must set a lead supervisor",
		}),
	)
}

// VerifyPromoters checks at least one internal promoter is present and, for a
// cotutelle, at least one external promoter.
func (g *Group) VerifyPromoters(cotutelle bool) error {
	internal, external := 0, 0
	for _, m := range g.Promoters() {
		if m.IsExternal() {
			external++
		} else {
			internal++
		}
	}
	return validation.Validate(
		validation.Require(internal > 0, dErrors.Violation{
			Code: CodePromoterMissing, Message: "you must add at least one internal supervisor in order to request signatures",
		}),
		validation.Require(!cotutelle || external > 0, dErrors.Violation{
			Code: CodeExternalPromoterMissing, Message: "a cotutelle requires an external supervisor",
		}),
	)
}

// VerifyEveryoneApproved checks the procedure is running and every
// signatory approved.
func (g *Group) VerifyEveryoneApproved() error {
	return validation.Validate(
		validation.Require(g.Status == StatusSigningInProgress, dErrors.Violation{
			Code: CodeSigningNotStarted, Message: "the signature request procedure isn't in progress",
		}),
		validation.Require(g.Signatures.AllApproved(RolePromoter), dErrors.Violation{
			Code: CodePromotersNotApproved, Message: "all supervisors must have approved the proposition",
		}),
		validation.Require(g.Signatures.AllApproved(RoleCAMember), dErrors.Violation{
			Code: CodeCAMembersNotApproved, Message: "all CA members must have approved the proposition",
		}),
	)
}

// VerifyReferencePromoterInstitute checks the lead promoter names the thesis
// institute when approving and none was proposed.
func (g *Group) VerifyReferencePromoterInstitute(memberID id.SignatoryID, proposedInstitute, givenInstitute string) error {
	return validation.Validate(validation.Require(
		memberID != g.ReferencePromoter || proposedInstitute != "" || givenInstitute != "",
		dErrors.Violation{Code: CodeThesisInstituteMissing, Field: "institute", Message: "the lead supervisor must specify the thesis institute"},
	))
}

// Clone returns a deep copy.
func (g *Group) Clone() *Group {
	out := *g
	out.Members = slices.Clone(g.Members)
	out.Signatures = g.Signatures.Clone()
	return &out
}
