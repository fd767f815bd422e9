package models

import (
	"errors"
	"slices"
	"strings"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/signature"
	pstrings "parcours/pkg/platform/strings"
	"parcours/pkg/platform/validation"
)

// Status of a thesis distribution authorization.
type Status string

const (
	StatusNotSubmitted     Status = "DIFFUSION_NON_SOUMISE"
	StatusSubmitted        Status = "DIFFUSION_SOUMISE"
	StatusPromoterApproved Status = "DIFFUSION_VALIDEE_PROMOTEUR"
	StatusPromoterRefused  Status = "DIFFUSION_REFUSEE_PROMOTEUR"
	StatusADREApproved     Status = "DIFFUSION_VALIDEE_ADRE"
	StatusADRERefused      Status = "DIFFUSION_REFUSEE_ADRE"
	StatusSCEBApproved     Status = "DIFFUSION_VALIDEE_SCEB"
	StatusSCEBRefused      Status = "DIFFUSION_REFUSEE_SCEB"
)

// Signatory roles of the authorization chain.
const (
	RolePromoter signature.Role = "PROMOTEUR"
	RoleADRE     signature.Role = "ADRE"
	RoleSCEB     signature.Role = "SCEB"
)

// ConditionsType is how the thesis may be distributed.
type ConditionsType string

const (
	ConditionsFree       ConditionsType = "ACCES_LIBRE"
	ConditionsRestricted ConditionsType = "ACCES_RESTREINT"
	ConditionsForbidden  ConditionsType = "ACCES_INTERDIT"
	ConditionsEmbargo    ConditionsType = "ACCES_EMBARGO"
)

func (c ConditionsType) IsValid() bool {
	switch c {
	case ConditionsFree, ConditionsRestricted, ConditionsForbidden, ConditionsEmbargo:
		return true
	}
	return false
}

const (
	CodeFundingSourcesMissing = "AUTORISATION-DIFFUSION-THESE-1"
	CodeEnglishSummaryMissing = "AUTORISATION-DIFFUSION-THESE-2"
	CodeThesisLanguageMissing = "AUTORISATION-DIFFUSION-THESE-3"
	CodeKeywordsMissing       = "AUTORISATION-DIFFUSION-THESE-4"
	CodeConditionsTypeMissing = "AUTORISATION-DIFFUSION-THESE-5"
	CodeEmbargoDateMissing    = "AUTORISATION-DIFFUSION-THESE-6"
	CodeConditionsNotAccepted = "AUTORISATION-DIFFUSION-THESE-7"
	CodeAuthorizationNotFound = "AUTORISATION-DIFFUSION-THESE-8"
	CodeNotEditableByStudent  = "AUTORISATION-DIFFUSION-THESE-9"
	CodeNotEditableByPromoter = "AUTORISATION-DIFFUSION-THESE-10"
	CodeNotEditableByADRE     = "AUTORISATION-DIFFUSION-THESE-11"
	CodeNotEditableBySCEB     = "AUTORISATION-DIFFUSION-THESE-12"
	CodeRefusalReasonRequired = "AUTORISATION-DIFFUSION-THESE-13"
	CodeSignatoryNotInvited   = "AUTORISATION-DIFFUSION-THESE-14"
	CodeSignatoryUnknown      = "AUTORISATION-DIFFUSION-THESE-15"
	CodeSignatoryAlreadyUsed  = "AUTORISATION-DIFFUSION-THESE-16"
)

// Actor is who edits the authorization at a given step.
type Actor string

const (
	ActorStudent           Actor = "DOCTORANT"
	ActorReferencePromoter Actor = "PROMOTEUR_REFERENCE"
	ActorADRE              Actor = "ADRE"
	ActorSCEB              Actor = "SCEB"
)

// editableBy lists the statuses each actor may act upon.
var editableBy = map[Actor][]Status{
	ActorStudent:           {StatusNotSubmitted, StatusPromoterRefused, StatusADRERefused, StatusSCEBRefused},
	ActorReferencePromoter: {StatusSubmitted},
	ActorADRE:              {StatusPromoterApproved},
	ActorSCEB:              {StatusADREApproved},
}

var notEditableCode = map[Actor]string{
	ActorStudent:           CodeNotEditableByStudent,
	ActorReferencePromoter: CodeNotEditableByPromoter,
	ActorADRE:              CodeNotEditableByADRE,
	ActorSCEB:              CodeNotEditableBySCEB,
}

// EditableBy reports whether actor may act on an authorization in status s.
func (s Status) EditableBy(actor Actor) bool {
	return slices.Contains(editableBy[actor], s)
}

// Form is the content the student fills in.
type Form struct {
	FundingSources        string         `json:"funding_sources"`
	EnglishSummary        string         `json:"english_summary"`
	OtherLanguageSummary  string         `json:"other_language_summary"`
	ThesisLanguage        string         `json:"thesis_language"`
	Keywords              []string       `json:"keywords"`
	ConditionsType        ConditionsType `json:"conditions_type,omitempty" validate:"omitempty,oneof=ACCES_LIBRE ACCES_RESTREINT ACCES_INTERDIT ACCES_EMBARGO"`
	EmbargoDate           *time.Time     `json:"embargo_date,omitempty"`
	AdditionalLimitations string         `json:"additional_limitations"`
	AcceptedConditions    string         `json:"accepted_conditions"`
}

// Authorization is the thesis distribution authorization of a doctorate.
type Authorization struct {
	ID          id.AuthorizationID `json:"id"`
	DoctorateID id.DoctorateID     `json:"doctorate_id"`
	Status      Status             `json:"status"`
	Form
	AcceptedOn *time.Time        `json:"accepted_on,omitempty"`
	Signatures signature.Process `json:"signatures"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewAuthorization creates an unsubmitted authorization.
func NewAuthorization(authID id.AuthorizationID, doctorateID id.DoctorateID, now time.Time) (*Authorization, error) {
	if authID.IsNil() || doctorateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "authorization requires ids")
	}
	return &Authorization{ID: authID, DoctorateID: doctorateID, Status: StatusNotSubmitted, UpdatedAt: now}, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// CheckEditableBy fails unless actor may act in the current status.
func (a *Authorization) CheckEditableBy(actor Actor) error {
	return validation.Validate(validation.Require(a.Status.EditableBy(actor), dErrors.Violation{
		Code: notEditableCode[actor], Message: "the authorization cannot be changed at this step",
	}))
}

// Complete checks the form can be sent to the reference promoter.
func Complete(f Form, acceptedOn *time.Time) []validation.Rule {
	return []validation.Rule{
		validation.Require(!blank(f.FundingSources), dErrors.Violation{
			Code: CodeFundingSourcesMissing, Field: "funding_sources", Message: "the sources of funding must be specified",
		}),
		validation.Require(!blank(f.EnglishSummary), dErrors.Violation{
			Code: CodeEnglishSummaryMissing, Field: "english_summary", Message: "the summary in english must be specified",
		}),
		validation.Require(!blank(f.ThesisLanguage), dErrors.Violation{
			Code: CodeThesisLanguageMissing, Field: "thesis_language", Message: "the thesis language must be specified",
		}),
		validation.Require(len(f.Keywords) > 0, dErrors.Violation{
			Code: CodeKeywordsMissing, Field: "keywords", Message: "at least one keyword must be specified",
		}),
		validation.Require(f.ConditionsType != "", dErrors.Violation{
			Code: CodeConditionsTypeMissing, Field: "conditions_type", Message: "the distribution conditions type must be specified",
		}),
		validation.Require(f.ConditionsType != ConditionsEmbargo || f.EmbargoDate != nil, dErrors.Violation{
			Code: CodeEmbargoDateMissing, Field: "embargo_date", Message: "the embargo date must be specified",
		}),
		validation.Require(!blank(f.AcceptedConditions) && acceptedOn != nil, dErrors.Violation{
			Code: CodeConditionsNotAccepted, Field: "accepted_conditions", Message: "the distribution conditions must be accepted",
		}),
	}
}

// EncodeForm stores the student's content. Accepting the conditions records
// today as acceptance date.
func (a *Authorization) EncodeForm(f Form, now time.Time) error {
	if err := a.CheckEditableBy(ActorStudent); err != nil {
		return err
	}
	if err := validation.Validate(validation.Tags(CodeConditionsTypeMissing, f)...); err != nil {
		return err
	}
	f.Keywords = pstrings.Keywords(f.Keywords)
	a.Form = f
	a.AcceptedOn = nil
	if !blank(f.AcceptedConditions) {
		today := dateOnly(now)
		a.AcceptedOn = &today
	}
	a.UpdatedAt = now
	return nil
}

// SubmitToReferencePromoter stores the form, checks it is complete and
// invites the reference promoter. Signatures from a previous round are
// dropped.
func (a *Authorization) SubmitToReferencePromoter(f Form, promoter id.Matricule, now time.Time) error {
	if promoter.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "submission requires the reference promoter")
	}
	if err := a.EncodeForm(f, now); err != nil {
		return err
	}
	if err := validation.Validate(Complete(a.Form, a.AcceptedOn)...); err != nil {
		return err
	}
	a.Signatures = signature.Process{}
	if err := a.invite(promoter, RolePromoter); err != nil {
		return err
	}
	a.Status = StatusSubmitted
	return nil
}

// checkInvitable rejects a signatory already signing under another role.
func (a *Authorization) checkInvitable(matricule id.Matricule, role signature.Role) error {
	if s, ok := a.Signatures.Get(matricule.String()); ok && s.Role != role {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodeSignatoryAlreadyUsed, Field: "signatory",
			Message: "the signatory already signs this authorization under another role",
		})
	}
	return nil
}

func (a *Authorization) invite(matricule id.Matricule, role signature.Role) error {
	if err := a.checkInvitable(matricule, role); err != nil {
		return err
	}
	a.Signatures.RemoveRole(role)
	if err := a.Signatures.Add(matricule.String(), role); err != nil {
		return signatureViolation(err)
	}
	if err := a.Signatures.Invite(matricule.String()); err != nil {
		return signatureViolation(err)
	}
	return nil
}

// Signatory returns the signatory of role, if any.
func (a *Authorization) Signatory(role signature.Role) (signature.Signatory, bool) {
	s := a.Signatures.WithRole(role)
	if len(s) == 0 {
		return signature.Signatory{}, false
	}
	return s[0], true
}

func (a *Authorization) checkSignatory(actor Actor, role signature.Role, matricule id.Matricule) error {
	if err := a.CheckEditableBy(actor); err != nil {
		return err
	}
	s, ok := a.Signatory(role)
	if !ok || s.Key != matricule.String() || s.Signature.State != signature.StateInvited {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodeSignatoryNotInvited, Message: "the signatory is not invited to sign this authorization",
		})
	}
	return nil
}

func signatureViolation(err error) error {
	if errors.Is(err, signature.ErrSignatoryNotFound) || errors.Is(err, signature.ErrNotInvited) {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodeSignatoryNotInvited, Message: "the signatory is not invited to sign this authorization",
		})
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "signature process failed")
}

func (a *Authorization) approve(actor Actor, role signature.Role, matricule id.Matricule, internal, external string,
	next Status, nextRole signature.Role, nextSignatory id.Matricule, now time.Time) error {
	if err := a.checkSignatory(actor, role, matricule); err != nil {
		return err
	}
	if nextRole != "" {
		if nextSignatory.IsZero() {
			return dErrors.New(dErrors.CodeInvariantViolation, "approval requires the next signatory")
		}
		if err := a.checkInvitable(nextSignatory, nextRole); err != nil {
			return err
		}
	}
	if err := a.Signatures.Approve(matricule.String(), now, internal, external); err != nil {
		return signatureViolation(err)
	}
	if nextRole != "" {
		if err := a.invite(nextSignatory, nextRole); err != nil {
			return err
		}
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}

func (a *Authorization) refuse(actor Actor, role signature.Role, matricule id.Matricule, reason, internal, external string,
	next Status, now time.Time) error {
	if err := a.checkSignatory(actor, role, matricule); err != nil {
		return err
	}
	if err := validation.Validate(validation.Require(!blank(reason), dErrors.Violation{
		Code: CodeRefusalReasonRequired, Field: "reason", Message: "a refusal reason is required",
	})); err != nil {
		return err
	}
	if err := a.Signatures.Decline(matricule.String(), now, reason, internal, external); err != nil {
		return signatureViolation(err)
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}

// PromoterApprove records the reference promoter approval and invites the
// ADRE manager.
func (a *Authorization) PromoterApprove(promoter id.Matricule, internal, external string, adre id.Matricule, now time.Time) error {
	return a.approve(ActorReferencePromoter, RolePromoter, promoter, internal, external, StatusPromoterApproved, RoleADRE, adre, now)
}

// PromoterRefuse records the reference promoter refusal.
func (a *Authorization) PromoterRefuse(promoter id.Matricule, reason, internal, external string, now time.Time) error {
	return a.refuse(ActorReferencePromoter, RolePromoter, promoter, reason, internal, external, StatusPromoterRefused, now)
}

// ADREApprove records the ADRE approval and invites the SCEB manager.
func (a *Authorization) ADREApprove(adre id.Matricule, internal, external string, sceb id.Matricule, now time.Time) error {
	return a.approve(ActorADRE, RoleADRE, adre, internal, external, StatusADREApproved, RoleSCEB, sceb, now)
}

// ADRERefuse records the ADRE refusal.
func (a *Authorization) ADRERefuse(adre id.Matricule, reason, internal, external string, now time.Time) error {
	return a.refuse(ActorADRE, RoleADRE, adre, reason, internal, external, StatusADRERefused, now)
}

// SCEBApprove records the final SCEB approval.
func (a *Authorization) SCEBApprove(sceb id.Matricule, internal, external string, now time.Time) error {
	return a.approve(ActorSCEB, RoleSCEB, sceb, internal, external, StatusSCEBApproved, "", "", now)
}

// SCEBRefuse records the SCEB refusal.
func (a *Authorization) SCEBRefuse(sceb id.Matricule, reason, internal, external string, now time.Time) error {
	return a.refuse(ActorSCEB, RoleSCEB, sceb, reason, internal, external, StatusSCEBRefused, now)
}

// IsDistributed reports whether every step approved the distribution.
func (a *Authorization) IsDistributed() bool {
	return a.Status == StatusSCEBApproved
}

// Clone returns a deep copy.
func (a *Authorization) Clone() *Authorization {
	c := *a
	c.Keywords = slices.Clone(a.Keywords)
	c.Signatures = a.Signatures.Clone()
	if a.EmbargoDate != nil {
		d := *a.EmbargoDate
		c.EmbargoDate = &d
	}
	if a.AcceptedOn != nil {
		d := *a.AcceptedOn
		c.AcceptedOn = &d
	}
	return &c
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
