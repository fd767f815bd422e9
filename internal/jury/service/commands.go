package service

import (
	"parcours/internal/jury/models"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/signature"
)

type ModifyJury struct {
	DoctorateID     id.DoctorateID `json:"doctorate_id" validate:"required"`
	ProposedTitle   string         `json:"proposed_title"`
	DefenseMethod   string         `json:"defense_method" validate:"omitempty,oneof=FORMULE_1 FORMULE_2"`
	IndicativeDate  string         `json:"indicative_date"`
	WritingLanguage string         `json:"writing_language"`
	DefenseLanguage string         `json:"defense_language"`
	Comment         string         `json:"comment"`
}

// MemberIdentity identifies a juror: a matricule for internal members,
// the full contact card for external ones.
type MemberIdentity struct {
	Matricule              id.Matricule  `json:"matricule"`
	Institution            string        `json:"institution"`
	OtherInstitution       string        `json:"other_institution"`
	Country                string        `json:"country"`
	LastName               string        `json:"last_name"`
	FirstName              string        `json:"first_name"`
	Title                  models.Title  `json:"title"`
	NonDoctorJustification string        `json:"non_doctor_justification"`
	Gender                 models.Gender `json:"gender"`
	Language               string        `json:"language"`
	Email                  string        `json:"email" validate:"omitempty,email"`
}

func (m MemberIdentity) member(memberID id.MemberID) models.Member {
	return models.Member{
		ID:                     memberID,
		Matricule:              m.Matricule,
		Institution:            m.Institution,
		OtherInstitution:       m.OtherInstitution,
		Country:                m.Country,
		LastName:               m.LastName,
		FirstName:              m.FirstName,
		Title:                  m.Title,
		NonDoctorJustification: m.NonDoctorJustification,
		Gender:                 m.Gender,
		Language:               m.Language,
		Email:                  m.Email,
	}
}

type AddMember struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberIdentity
}

type ModifyMember struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.MemberID    `json:"member_id" validate:"required"`
	MemberIdentity
}

type RemoveMember struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.MemberID    `json:"member_id" validate:"required"`
}

type ChangeRole struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.MemberID    `json:"member_id" validate:"required"`
	Role        signature.Role `json:"role" validate:"required,oneof=PRESIDENT SECRETAIRE MEMBRE"`
}

type RequestSignatures struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
}

type ResendInvitation struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.MemberID    `json:"member_id" validate:"required"`
}

type Approve struct {
	DoctorateID     id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID        id.MemberID    `json:"member_id" validate:"required"`
	InternalComment string         `json:"internal_comment"`
	ExternalComment string         `json:"external_comment"`
}

type ApproveByPDF struct {
	DoctorateID id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID    id.MemberID    `json:"member_id" validate:"required"`
	PDF         []string       `json:"pdf" validate:"required,min=1"`
}

type Refuse struct {
	DoctorateID     id.DoctorateID `json:"doctorate_id" validate:"required"`
	MemberID        id.MemberID    `json:"member_id" validate:"required"`
	Reason          string         `json:"reason"`
	InternalComment string         `json:"internal_comment"`
	ExternalComment string         `json:"external_comment"`
}

// ManagerDecision is the CDD or ADRE verdict on the jury. The deciding
// manager is the authenticated actor.
type ManagerDecision struct {
	DoctorateID     id.DoctorateID `json:"doctorate_id" validate:"required"`
	Reason          string         `json:"reason"`
	InternalComment string         `json:"internal_comment"`
	ExternalComment string         `json:"external_comment"`
}

type CDDApprove struct{ ManagerDecision }

type CDDRefuse struct{ ManagerDecision }

type ADREApprove struct{ ManagerDecision }

type ADRERefuse struct{ ManagerDecision }
