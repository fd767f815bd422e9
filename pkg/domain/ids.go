package domain

import (
	"github.com/google/uuid"

	dErrors "parcours/pkg/domain-errors"
)

// Typed identities for every aggregate and entity of the doctoral lifecycle.
// Distinct types keep a jury id from being passed where a doctorate id is
// expected; construct them with the Parse helpers at trust boundaries.
type (
	DoctorateID         uuid.UUID
	SupervisionGroupID  uuid.UUID
	ConfirmationPaperID uuid.UUID
	ActivityID          uuid.UUID
	EnrollmentID        uuid.UUID
	EvaluationID        uuid.UUID
	JuryID              uuid.UUID
	MemberID            uuid.UUID
	AuthorizationID     uuid.UUID
	SignatoryID         uuid.UUID
	PrivateDefenseID    uuid.UUID
	AdmissibilityID     uuid.UUID
)

func parseID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func ParseDoctorateID(s string) (DoctorateID, error) {
	u, err := parseID("doctorate id", s)
	return DoctorateID(u), err
}

func ParseSupervisionGroupID(s string) (SupervisionGroupID, error) {
	u, err := parseID("supervision group id", s)
	return SupervisionGroupID(u), err
}

func ParseConfirmationPaperID(s string) (ConfirmationPaperID, error) {
	u, err := parseID("confirmation paper id", s)
	return ConfirmationPaperID(u), err
}

func ParseActivityID(s string) (ActivityID, error) {
	u, err := parseID("activity id", s)
	return ActivityID(u), err
}

func ParseEnrollmentID(s string) (EnrollmentID, error) {
	u, err := parseID("enrollment id", s)
	return EnrollmentID(u), err
}

func ParseEvaluationID(s string) (EvaluationID, error) {
	u, err := parseID("evaluation id", s)
	return EvaluationID(u), err
}

func ParseJuryID(s string) (JuryID, error) {
	u, err := parseID("jury id", s)
	return JuryID(u), err
}

func ParseMemberID(s string) (MemberID, error) {
	u, err := parseID("member id", s)
	return MemberID(u), err
}

func ParseAuthorizationID(s string) (AuthorizationID, error) {
	u, err := parseID("authorization id", s)
	return AuthorizationID(u), err
}

func ParseSignatoryID(s string) (SignatoryID, error) {
	u, err := parseID("signatory id", s)
	return SignatoryID(u), err
}

func ParsePrivateDefenseID(s string) (PrivateDefenseID, error) {
	u, err := parseID("private defense id", s)
	return PrivateDefenseID(u), err
}

func ParseAdmissibilityID(s string) (AdmissibilityID, error) {
	u, err := parseID("admissibility id", s)
	return AdmissibilityID(u), err
}

func (id DoctorateID) String() string         { return uuid.UUID(id).String() }
func (id SupervisionGroupID) String() string  { return uuid.UUID(id).String() }
func (id ConfirmationPaperID) String() string { return uuid.UUID(id).String() }
func (id ActivityID) String() string          { return uuid.UUID(id).String() }
func (id EnrollmentID) String() string        { return uuid.UUID(id).String() }
func (id EvaluationID) String() string        { return uuid.UUID(id).String() }
func (id JuryID) String() string              { return uuid.UUID(id).String() }
func (id MemberID) String() string            { return uuid.UUID(id).String() }
func (id AuthorizationID) String() string     { return uuid.UUID(id).String() }
func (id SignatoryID) String() string         { return uuid.UUID(id).String() }
func (id PrivateDefenseID) String() string    { return uuid.UUID(id).String() }
func (id AdmissibilityID) String() string     { return uuid.UUID(id).String() }

func (id DoctorateID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id SupervisionGroupID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ConfirmationPaperID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ActivityID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id EnrollmentID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id EvaluationID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id JuryID) IsNil() bool              { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id AuthorizationID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SignatoryID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PrivateDefenseID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AdmissibilityID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// The JSON form of every id is its canonical string.

func (id DoctorateID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *DoctorateID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id ConfirmationPaperID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *ConfirmationPaperID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
func (id SupervisionGroupID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *SupervisionGroupID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
func (id ActivityID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id *ActivityID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id EnrollmentID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *EnrollmentID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id EvaluationID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *EvaluationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id JuryID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id *JuryID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id MemberID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id *MemberID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id AuthorizationID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *AuthorizationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
func (id SignatoryID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *SignatoryID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id PrivateDefenseID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *PrivateDefenseID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
func (id AdmissibilityID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *AdmissibilityID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// New identities.

func NewDoctorateID() DoctorateID                 { return DoctorateID(uuid.New()) }
func NewSupervisionGroupID() SupervisionGroupID   { return SupervisionGroupID(uuid.New()) }
func NewConfirmationPaperID() ConfirmationPaperID { return ConfirmationPaperID(uuid.New()) }
func NewActivityID() ActivityID                   { return ActivityID(uuid.New()) }
func NewEnrollmentID() EnrollmentID               { return EnrollmentID(uuid.New()) }
func NewEvaluationID() EvaluationID               { return EvaluationID(uuid.New()) }
func NewJuryID() JuryID                           { return JuryID(uuid.New()) }
func NewMemberID() MemberID                       { return MemberID(uuid.New()) }
func NewAuthorizationID() AuthorizationID         { return AuthorizationID(uuid.New()) }
func NewSignatoryID() SignatoryID                 { return SignatoryID(uuid.New()) }
func NewPrivateDefenseID() PrivateDefenseID       { return PrivateDefenseID(uuid.New()) }
func NewAdmissibilityID() AdmissibilityID         { return AdmissibilityID(uuid.New()) }
