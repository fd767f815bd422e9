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

// Jury roles. President, secretary and plain members form the jury; the
// verifier, CDD and ADRE entries only carry a signature.
const (
	RolePresident signature.Role = "PRESIDENT"
	RoleSecretary signature.Role = "SECRETAIRE"
	RoleMember    signature.Role = "MEMBRE"
	RoleVerifier  signature.Role = "VERIFICATEUR"
	RoleCDD       signature.Role = "CDD"
	RoleADRE      signature.Role = "ADRE"
)

// jurorRoles are the roles whose approval moves the doctorate to
// JURY_APPROUVE_CA.
var jurorRoles = []signature.Role{RolePresident, RoleSecretary, RoleMember, RoleVerifier}

// Title is the academic title of a member.
type Title string

const (
	TitleDoctor    Title = "DOCTEUR"
	TitleNonDoctor Title = "NON_DOCTEUR"
)

// Gender of a member, used by the convocation letters.
type Gender string

const (
	GenderFemale Gender = "FEMININ"
	GenderMale   Gender = "MASCULIN"
	GenderOther  Gender = "AUTRE"
)

// SignatureStatus tells whether the jury is collecting signatures.
type SignatureStatus string

const (
	StatusInProgress        SignatureStatus = "IN_PROGRESS"
	StatusSigningInProgress SignatureStatus = "SIGNING_IN_PROGRESS"
)

// MinMembers is the smallest jury, promoters included, that can be
// submitted for signature.
const MinMembers = 4

const (
	CodeNotEnoughMembers      = "JURY-1"
	CodeDefenseMethodMissing  = "JURY-2"
	CodeExternalMemberMissing = "JURY-3"
	CodeSignatoryNotFound     = "JURY-4"
	CodeSignatoryInvited      = "JURY-5"
	CodeSignatoryNotInvited   = "JURY-6"
	CodePromoterPresident     = "JURY-7"
	CodeMemberNotFound        = "JURY-8"
	CodeJuryNotFound          = "JURY-9"
	CodePromoterRemoved       = "JURY-10"
	CodePromoterModified      = "JURY-11"
	CodeNonDoctorJustify      = "JURY-12"
	CodeExternalInstitution   = "JURY-13"
	CodeExternalCountry       = "JURY-14"
	CodeExternalLastName      = "JURY-15"
	CodeExternalFirstName     = "JURY-16"
	CodeExternalTitle         = "JURY-17"
	CodeExternalGender        = "JURY-18"
	CodeExternalEmail         = "JURY-19"
	CodeAlreadyMember         = "JURY-20"
	CodeVerifierMissing       = "JURY-21"
	CodeRolesNotAssigned      = "JURY-25"
	CodeNotAJuror             = "JURY-28"
	CodeExternalLanguage      = "JURY-29"
	CodeTooManyRoles          = "JURY-30"
	CodeInternalXorExternal   = "JURY-31"
	CodeSigningStarted        = "JURY-32"
	CodeRefusalReasonRequired = "JURY-33"
)

// Member is a person of the jury. Internal members carry a matricule and no
// identity fields; external members carry every identity field.
type Member struct {
	ID                     id.MemberID    `json:"id"`
	Role                   signature.Role `json:"role"`
	IsPromoter             bool           `json:"is_promoter"`
	IsReferencePromoter    bool           `json:"is_reference_promoter"`
	Matricule              id.Matricule   `json:"matricule,omitempty"`
	Institution            string         `json:"institution,omitempty"`
	OtherInstitution       string         `json:"other_institution,omitempty"`
	Country                string         `json:"country,omitempty"`
	LastName               string         `json:"last_name,omitempty"`
	FirstName              string         `json:"first_name,omitempty"`
	Title                  Title          `json:"title,omitempty"`
	NonDoctorJustification string         `json:"non_doctor_justification,omitempty"`
	Gender                 Gender         `json:"gender,omitempty"`
	Language               string         `json:"language,omitempty"`
	Email                  string         `json:"email,omitempty"`
}

// IsExternal reports whether the member comes from another institution.
func (m Member) IsExternal() bool {
	return m.Matricule.IsZero()
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// memberRules checks the identity of a member being added or modified.
func memberRules(m Member) []validation.Rule {
	rules := []validation.Rule{
		validation.Require(m.IsExternal() || onlyTitle(m), dErrors.Violation{
			Code: CodeInternalXorExternal, Message: "a member is either internal or external",
		}),
		validation.Require(m.Title != TitleNonDoctor || !blank(m.NonDoctorJustification), dErrors.Violation{
			Code: CodeNonDoctorJustify, Field: "non_doctor_justification", Message: "a non doctor member must have a justification",
		}),
	}
	if !m.IsExternal() {
		return rules
	}
	external := []struct {
		value string
		code  string
		field string
	}{
		{m.Institution, CodeExternalInstitution, "institution"},
		{m.Country, CodeExternalCountry, "country"},
		{m.LastName, CodeExternalLastName, "last_name"},
		{m.FirstName, CodeExternalFirstName, "first_name"},
		{string(m.Title), CodeExternalTitle, "title"},
		{string(m.Gender), CodeExternalGender, "gender"},
		{m.Email, CodeExternalEmail, "email"},
		{m.Language, CodeExternalLanguage, "language"},
	}
	for _, f := range external {
		rules = append(rules, validation.Require(!blank(f.value), dErrors.Violation{
			Code: f.code, Field: f.field, Message: "an external member must have a " + strings.ReplaceAll(f.field, "_", " "),
		}))
	}
	return rules
}

// onlyTitle accepts internal members that only state their title, gender and
// justification, which the person directory does not hold.
func onlyTitle(m Member) bool {
	return blank(m.Institution) && blank(m.Country) && blank(m.LastName) && blank(m.FirstName) &&
		blank(m.Email) && blank(m.Language)
}

// Jury is the defense committee of a doctorate with its signature process.
type Jury struct {
	ID                  id.JuryID         `json:"id"`
	DoctorateID         id.DoctorateID    `json:"doctorate_id"`
	ProposedTitle       string            `json:"proposed_title"`
	DefenseMethod       string            `json:"defense_method"`
	IndicativeDate      string            `json:"indicative_date"`
	WritingLanguage     string            `json:"writing_language"`
	DefenseLanguage     string            `json:"defense_language"`
	Comment             string            `json:"comment"`
	AccountingSituation *bool             `json:"accounting_situation,omitempty"`
	ApprovalPDF         []string          `json:"approval_pdf,omitempty"`
	Status              SignatureStatus   `json:"status"`
	Members             []Member          `json:"members"`
	Signatures          signature.Process `json:"signatures"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// NewJury creates an empty jury for a doctorate.
func NewJury(juryID id.JuryID, doctorateID id.DoctorateID, now time.Time) (*Jury, error) {
	if juryID.IsNil() || doctorateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "jury requires ids")
	}
	return &Jury{ID: juryID, DoctorateID: doctorateID, Status: StatusInProgress, UpdatedAt: now}, nil
}

// Details are the descriptive fields of the jury.
type Details struct {
	ProposedTitle   string
	DefenseMethod   string
	IndicativeDate  string
	WritingLanguage string
	DefenseLanguage string
	Comment         string
}

// Modify replaces the descriptive fields.
func (j *Jury) Modify(d Details, now time.Time) {
	j.ProposedTitle = d.ProposedTitle
	j.DefenseMethod = d.DefenseMethod
	j.IndicativeDate = d.IndicativeDate
	j.WritingLanguage = d.WritingLanguage
	j.DefenseLanguage = d.DefenseLanguage
	j.Comment = d.Comment
	j.UpdatedAt = now
}

func (j *Jury) index(memberID id.MemberID) int {
	return slices.IndexFunc(j.Members, func(m Member) bool { return m.ID == memberID })
}

// Member returns the member with the given id.
func (j *Jury) Member(memberID id.MemberID) (Member, error) {
	i := j.index(memberID)
	if i < 0 {
		return Member{}, dErrors.NewViolations(dErrors.Violation{
			Code: CodeMemberNotFound, Message: "the member was not found in the jury", EntityID: memberID.String(),
		})
	}
	return j.Members[i], nil
}

// MembersWithRole lists the members holding one of roles.
func (j *Jury) MembersWithRole(roles ...signature.Role) []Member {
	var out []Member
	for _, m := range j.Members {
		if slices.Contains(roles, m.Role) {
			out = append(out, m)
		}
	}
	return out
}

// Jurors lists the members taking part in the deliberation.
func (j *Jury) Jurors() []Member {
	return j.MembersWithRole(RolePresident, RoleSecretary, RoleMember)
}

// SignatureOf returns the signature of a member.
func (j *Jury) SignatureOf(memberID id.MemberID) (signature.Signature, bool) {
	s, ok := j.Signatures.Get(memberID.String())
	return s.Signature, ok
}

func (j *Jury) checkNotSigning() error {
	return validation.Validate(validation.Require(j.Status != StatusSigningInProgress, dErrors.Violation{
		Code: CodeSigningStarted, Message: "the jury cannot change while signatures are requested",
	}))
}

// AddMember adds a juror. New members join as plain MEMBRE.
func (j *Jury) AddMember(m Member, now time.Time) error {
	if m.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "jury member requires an id")
	}
	if err := j.checkNotSigning(); err != nil {
		return err
	}
	if m.Role == "" {
		m.Role = RoleMember
	}
	rules := append(memberRules(m),
		validation.Require(m.IsExternal() || !j.hasMatricule(m.Matricule, id.MemberID{}), dErrors.Violation{
			Code: CodeAlreadyMember, Message: "the member is already in the jury",
		}),
		validation.Require(j.index(m.ID) < 0, dErrors.Violation{
			Code: CodeAlreadyMember, Message: "the member is already in the jury",
		}),
		validation.Require(slices.Contains([]signature.Role{RolePresident, RoleSecretary, RoleMember}, m.Role), dErrors.Violation{
			Code: CodeNotAJuror, Field: "role", Message: "the person is not a president, a secretary or a member",
		}),
		validation.Require(!m.IsPromoter || m.Role != RolePresident, dErrors.Violation{
			Code: CodePromoterPresident, Field: "role", Message: "a supervisor can not be president",
		}),
	)
	if err := validation.Validate(rules...); err != nil {
		return err
	}
	j.Members = append(j.Members, m)
	j.Signatures.Upsert(m.ID.String(), m.Role)
	j.UpdatedAt = now
	return nil
}

// AddPromoter copies a supervisor from the supervision group, where its
// identity was already checked.
func (j *Jury) AddPromoter(m Member, now time.Time) error {
	if m.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "jury member requires an id")
	}
	if err := j.checkNotSigning(); err != nil {
		return err
	}
	if !m.IsExternal() && j.hasMatricule(m.Matricule, id.MemberID{}) {
		return dErrors.NewViolations(dErrors.Violation{Code: CodeAlreadyMember, Message: "the member is already in the jury"})
	}
	m.IsPromoter = true
	m.Role = RoleMember
	j.Members = append(j.Members, m)
	j.Signatures.Upsert(m.ID.String(), m.Role)
	j.UpdatedAt = now
	return nil
}

func (j *Jury) hasMatricule(matricule id.Matricule, except id.MemberID) bool {
	return slices.ContainsFunc(j.Members, func(m Member) bool {
		return m.ID != except && !m.IsExternal() && m.Matricule == matricule
	})
}

// ModifyMember replaces the identity of a member. Promoters come from the
// supervision group and cannot be changed here.
func (j *Jury) ModifyMember(m Member, now time.Time) error {
	if err := j.checkNotSigning(); err != nil {
		return err
	}
	current, err := j.Member(m.ID)
	if err != nil {
		return err
	}
	if current.IsPromoter {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodePromoterModified, Message: "a supervisor can not be updated from the jury", EntityID: m.ID.String(),
		})
	}
	m.Role = current.Role
	m.IsPromoter = false
	m.IsReferencePromoter = false
	rules := append(memberRules(m), validation.Require(m.IsExternal() || !j.hasMatricule(m.Matricule, m.ID), dErrors.Violation{
		Code: CodeAlreadyMember, Message: "the member is already in the jury",
	}))
	if err := validation.Validate(rules...); err != nil {
		return err
	}
	j.Members[j.index(m.ID)] = m
	j.UpdatedAt = now
	return nil
}

// RemoveMember drops a non promoter member.
func (j *Jury) RemoveMember(memberID id.MemberID, now time.Time) error {
	if err := j.checkNotSigning(); err != nil {
		return err
	}
	m, err := j.Member(memberID)
	if err != nil {
		return err
	}
	if m.IsPromoter {
		return dErrors.NewViolations(dErrors.Violation{
			Code: CodePromoterRemoved, Message: "a supervisor can not be removed from the jury", EntityID: memberID.String(),
		})
	}
	j.Members = slices.Delete(j.Members, j.index(memberID), j.index(memberID)+1)
	j.Signatures.Remove(memberID.String())
	j.UpdatedAt = now
	return nil
}

func (j *Jury) setRole(i int, role signature.Role) {
	j.Members[i].Role = role
	j.Signatures.Upsert(j.Members[i].ID.String(), role)
}

// ChangeRole assigns a jury role. The previous holder of the president or
// secretary role becomes a plain member.
func (j *Jury) ChangeRole(memberID id.MemberID, role signature.Role, now time.Time) error {
	m, err := j.Member(memberID)
	if err != nil {
		return err
	}
	err = validation.Validate(
		validation.Require(slices.Contains([]signature.Role{RolePresident, RoleSecretary, RoleMember}, m.Role) &&
			slices.Contains([]signature.Role{RolePresident, RoleSecretary, RoleMember}, role), dErrors.Violation{
			Code: CodeNotAJuror, Field: "role", Message: "the person is not a president, a secretary or a member",
		}),
		validation.Require(!m.IsPromoter || role != RolePresident, dErrors.Violation{
			Code: CodePromoterPresident, Field: "role", Message: "a supervisor can not be president",
		}),
	)
	if err != nil {
		return err
	}
	if role != RoleMember {
		for i := range j.Members {
			if j.Members[i].ID != memberID && j.Members[i].Role == role {
				j.setRole(i, RoleMember)
			}
		}
	}
	j.setRole(j.index(memberID), role)
	j.UpdatedAt = now
	return nil
}

// VerifySignatureConditions checks the jury can be submitted: enough
// members, at least one external member and a defense method.
func (j *Jury) VerifySignatureConditions() error {
	jurors := j.Jurors()
	return validation.Validate(
		validation.Require(len(jurors) >= MinMembers, dErrors.Violation{
			Code: CodeNotEnoughMembers, Message: "the jury does not have enough members",
		}),
		validation.Require(slices.ContainsFunc(jurors, Member.IsExternal), dErrors.Violation{
			Code: CodeExternalMemberMissing, Message: "the jury must have at least one external member",
		}),
		validation.Require(!blank(j.DefenseMethod), dErrors.Violation{
			Code: CodeDefenseMethodMissing, Field: "defense_method", Message: "the defense method must be set",
		}),
	)
}

// VerifyRolesAssigned checks there is exactly one president and one
// secretary.
func (j *Jury) VerifyRolesAssigned() error {
	presidents, secretaries := len(j.MembersWithRole(RolePresident)), len(j.MembersWithRole(RoleSecretary))
	return validation.Validate(
		validation.Require(presidents > 0 && secretaries > 0, dErrors.Violation{
			Code: CodeRolesNotAssigned, Message: "the president and secretary roles must be set",
		}),
		validation.Require(presidents <= 1 && secretaries <= 1, dErrors.Violation{
			Code: CodeTooManyRoles, Message: "there must be only one president and one secretary",
		}),
	)
}

func (j *Jury) removeRole(roles ...signature.Role) {
	j.Members = slices.DeleteFunc(j.Members, func(m Member) bool { return slices.Contains(roles, m.Role) })
	j.Signatures.RemoveRole(roles...)
}

// RequestSignatures replaces the verifier, CDD and ADRE entries with the
// given verifier, locks the jury and invites every NOT_INVITED or DECLINED
// signatory. It returns the invited members.
func (j *Jury) RequestSignatures(verifier Member, now time.Time) ([]Member, error) {
	if verifier.ID.IsNil() {
		return nil, dErrors.NewViolations(dErrors.Violation{Code: CodeVerifierMissing, Message: "no auditor is set for this training"})
	}
	if err := j.VerifySignatureConditions(); err != nil {
		return nil, err
	}
	j.removeRole(RoleVerifier, RoleCDD, RoleADRE)
	verifier.Role = RoleVerifier
	j.Members = append(j.Members, verifier)
	j.Signatures.Upsert(verifier.ID.String(), RoleVerifier)

	keys := j.Signatures.InvitePending()
	invited := make([]Member, 0, len(keys))
	for _, k := range keys {
		if i := slices.IndexFunc(j.Members, func(m Member) bool { return m.ID.String() == k }); i >= 0 {
			invited = append(invited, j.Members[i])
		}
	}
	j.Status = StatusSigningInProgress
	j.UpdatedAt = now
	return invited, nil
}

// ResendInvitation re-invites a member whose signature is still pending.
func (j *Jury) ResendInvitation(memberID id.MemberID, now time.Time) (Member, error) {
	m, err := j.Member(memberID)
	if err != nil {
		return Member{}, err
	}
	if err := j.Signatures.CheckInvited(memberID.String()); err != nil {
		return Member{}, signatureViolation(err)
	}
	j.UpdatedAt = now
	return m, nil
}

func signatureViolation(err error) error {
	switch {
	case errors.Is(err, signature.ErrSignatoryNotFound):
		return dErrors.NewViolations(dErrors.Violation{Code: CodeSignatoryNotFound, Message: "member of jury not found"})
	case errors.Is(err, signature.ErrNotInvited):
		return dErrors.NewViolations(dErrors.Violation{Code: CodeSignatoryNotInvited, Message: "member of jury not invited"})
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "signature process failed")
}

// Approve records the approval of an invited member. It reports whether
// every juror and the verifier approved.
func (j *Jury) Approve(memberID id.MemberID, internal, external string, now time.Time) (bool, error) {
	if err := j.Signatures.Approve(memberID.String(), now, internal, external); err != nil {
		return false, signatureViolation(err)
	}
	j.UpdatedAt = now
	return j.AllJurorsApproved(), nil
}

// ApproveByPDF records an approval carried by a signed document.
func (j *Jury) ApproveByPDF(memberID id.MemberID, pdf []string, now time.Time) (bool, error) {
	if err := j.Signatures.ApproveByPDF(memberID.String(), now, pdf); err != nil {
		return false, signatureViolation(err)
	}
	j.UpdatedAt = now
	return j.AllJurorsApproved(), nil
}

// AllJurorsApproved reports whether every juror and the verifier approved.
func (j *Jury) AllJurorsApproved() bool {
	return j.Signatures.AllApproved(jurorRoles...)
}

// Refuse records the refusal of an invited member and unlocks the jury.
func (j *Jury) Refuse(memberID id.MemberID, reason, internal, external string, now time.Time) (Member, error) {
	m, err := j.Member(memberID)
	if err != nil {
		return Member{}, err
	}
	if err := validation.Validate(validation.Require(!blank(reason), dErrors.Violation{
		Code: CodeRefusalReasonRequired, Field: "reason", Message: "a refusal reason is required",
	})); err != nil {
		return Member{}, err
	}
	if err := j.Signatures.Decline(memberID.String(), now, reason, internal, external); err != nil {
		return Member{}, signatureViolation(err)
	}
	j.Status = StatusInProgress
	j.UpdatedAt = now
	return m, nil
}

// ResetSignatures puts every signature back to NOT_INVITED and unlocks the
// jury.
func (j *Jury) ResetSignatures(now time.Time) {
	j.Signatures.Reset("")
	j.Status = StatusInProgress
	j.UpdatedAt = now
}

// recordDecision replaces the signatory of role with the deciding manager.
// A refusal also resets every other signature.
func (j *Jury) recordDecision(role signature.Role, manager Member, approved bool, reason, internal, external string, now time.Time) error {
	if manager.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "decision requires the manager identity")
	}
	if !approved {
		if err := validation.Validate(validation.Require(!blank(reason), dErrors.Violation{
			Code: CodeRefusalReasonRequired, Field: "reason", Message: "a refusal reason is required",
		})); err != nil {
			return err
		}
	}
	j.removeRole(role)
	if !approved {
		j.ResetSignatures(now)
	}
	manager.Role = role
	j.Members = append(j.Members, manager)
	key := manager.ID.String()
	j.Signatures.Upsert(key, role)
	if err := j.Signatures.Invite(key); err != nil {
		return signatureViolation(err)
	}
	var err error
	if approved {
		err = j.Signatures.Approve(key, now, internal, external)
	} else {
		err = j.Signatures.Decline(key, now, reason, internal, external)
	}
	if err != nil {
		return signatureViolation(err)
	}
	j.UpdatedAt = now
	return nil
}

// CDDApprove records the approval of the CDD manager.
func (j *Jury) CDDApprove(manager Member, internal, external string, now time.Time) error {
	return j.recordDecision(RoleCDD, manager, true, "", internal, external, now)
}

// CDDRefuse records the refusal of the CDD manager and resets the signatures.
func (j *Jury) CDDRefuse(manager Member, reason, internal, external string, now time.Time) error {
	return j.recordDecision(RoleCDD, manager, false, reason, internal, external, now)
}

// ADREApprove records the approval of the ADRE manager.
func (j *Jury) ADREApprove(manager Member, internal, external string, now time.Time) error {
	return j.recordDecision(RoleADRE, manager, true, "", internal, external, now)
}

// ADRERefuse records the refusal of the ADRE manager and resets the signatures.
func (j *Jury) ADRERefuse(manager Member, reason, internal, external string, now time.Time) error {
	return j.recordDecision(RoleADRE, manager, false, reason, internal, external, now)
}

// Clone returns a deep copy.
func (j *Jury) Clone() *Jury {
	c := *j
	c.Members = slices.Clone(j.Members)
	c.ApprovalPDF = slices.Clone(j.ApprovalPDF)
	c.Signatures = j.Signatures.Clone()
	if j.AccountingSituation != nil {
		v := *j.AccountingSituation
		c.AccountingSituation = &v
	}
	return &c
}
