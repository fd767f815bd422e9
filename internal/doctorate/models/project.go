package models

import (
	"strings"
	"time"

	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

// FundingType is the kind of funding declared for the doctorate.
type FundingType string

const (
	FundingWorkContract      FundingType = "WORK_CONTRACT"
	FundingSearchScholarship FundingType = "SEARCH_SCHOLARSHIP"
	FundingSelf              FundingType = "SELF_FUNDING"
)

func (t FundingType) IsValid() bool {
	switch t {
	case FundingWorkContract, FundingSearchScholarship, FundingSelf:
		return true
	}
	return false
}

// DoctorateAlreadyDone answers the previous research experience question.
type DoctorateAlreadyDone string

const (
	AlreadyDoneYes     DoctorateAlreadyDone = "YES"
	AlreadyDoneNo      DoctorateAlreadyDone = "NO"
	AlreadyDonePartial DoctorateAlreadyDone = "PARTIAL"
)

// Project describes the research project.
type Project struct {
	Title                   string     `json:"title"`
	Abstract                string     `json:"abstract"`
	Documents               []string   `json:"documents,omitempty"`
	Language                string     `json:"language"`
	Institute               string     `json:"institute,omitempty"`
	Location                string     `json:"location,omitempty"`
	DoctoralProgramProposal []string   `json:"doctoral_program_proposal,omitempty"`
	GraduateSchoolProject   []string   `json:"graduate_school_project,omitempty"`
	AlreadyStarted          bool       `json:"already_started"`
	StartedInstitute        string     `json:"started_institute,omitempty"`
	StartedDate             *time.Time `json:"started_date,omitempty"`
}

// Funding describes how the doctorate is financed.
type Funding struct {
	Type              FundingType `json:"type,omitempty"`
	WorkContractType  string      `json:"work_contract_type,omitempty"`
	EFT               *int        `json:"eft,omitempty"`
	ScholarshipRef    string      `json:"scholarship_ref,omitempty"`
	OtherScholarship  string      `json:"other_scholarship,omitempty"`
	ScholarshipStart  *time.Time  `json:"scholarship_start,omitempty"`
	ScholarshipEnd    *time.Time  `json:"scholarship_end,omitempty"`
	ScholarshipProof  []string    `json:"scholarship_proof,omitempty"`
	PlannedDuration   *int        `json:"planned_duration,omitempty"`
	DedicatedTime     *int        `json:"dedicated_time,omitempty"`
	IsFNRSFRIAGrantee bool        `json:"is_fnrs_fria_grantee"`
	Comment           string      `json:"comment,omitempty"`
}

// IsEmpty reports whether no funding has been declared.
func (f Funding) IsEmpty() bool {
	return f.Type == ""
}

// Cotutelle describes a joint supervision with another institution.
// Enabled is nil until the question has been answered.
type Cotutelle struct {
	Enabled          *bool    `json:"enabled,omitempty"`
	Motivation       string   `json:"motivation,omitempty"`
	FWBInstitution   *bool    `json:"fwb_institution,omitempty"`
	InstitutionRef   string   `json:"institution_ref,omitempty"`
	OtherInstitution string   `json:"other_institution,omitempty"`
	OtherAddress     string   `json:"other_address,omitempty"`
	OpeningRequest   []string `json:"opening_request,omitempty"`
	Convention       []string `json:"convention,omitempty"`
	OtherDocuments   []string `json:"other_documents,omitempty"`
}

// IsActive reports whether a cotutelle was declared.
func (c Cotutelle) IsActive() bool {
	return c.Enabled != nil && *c.Enabled
}

// PreviousResearch is the previous research experience of the student.
type PreviousResearch struct {
	AlreadyDone     DoctorateAlreadyDone `json:"already_done,omitempty"`
	Institution     string               `json:"institution,omitempty"`
	Domain          string               `json:"domain,omitempty"`
	DefenseDate     *time.Time           `json:"defense_date,omitempty"`
	NoDefenseReason string               `json:"no_defense_reason,omitempty"`
}

const (
	CodeProjectIncomplete          = "PARCOURS-DOCTORAL-20"
	CodeFundingWorkContract        = "PARCOURS-DOCTORAL-21"
	CodeFundingScholarship         = "PARCOURS-DOCTORAL-22"
	CodeCotutelleIncomplete        = "PARCOURS-DOCTORAL-23"
	CodeProjectLocked              = "PARCOURS-DOCTORAL-24"
	CodeInvalidFundingType         = "PARCOURS-DOCTORAL-25"
	CodeDefenseMethodMismatch      = "PARCOURS-DOCTORAL-26"
	CodeThesisNotDistributed       = "PARCOURS-DOCTORAL-27"
	CodePublicDefenseIncomplete    = "PARCOURS-DOCTORAL-28"
	CodeThesisTitleMissing         = "PARCOURS-DOCTORAL-29"
	CodeDefenseLanguageUnsupported = "PARCOURS-DOCTORAL-30"
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func positive(p *int) bool {
	return p != nil && *p > 0
}

// ProjectComplete checks that the project, funding and previous research are
// filled enough to request signatures.
func ProjectComplete(p Project, f Funding, r PreviousResearch) validation.Rule {
	return validation.RuleFunc(func() *dErrors.Violation {
		complete := !blank(p.Title) && !blank(p.Abstract) && !blank(p.Language) &&
			len(p.Documents) > 0 && len(p.DoctoralProgramProposal) > 0 &&
			!f.IsEmpty() && positive(f.PlannedDuration) && positive(f.DedicatedTime)
		if complete && f.Type == FundingSearchScholarship {
			complete = f.ScholarshipStart != nil && f.ScholarshipEnd != nil && len(f.ScholarshipProof) > 0
		}
		if complete && p.AlreadyStarted {
			complete = !blank(p.StartedInstitute) && p.StartedDate != nil
		}
		if complete && r.AlreadyDone == AlreadyDoneYes {
			complete = !blank(r.Institution) && !blank(r.Domain)
		}
		if complete {
			return nil
		}
		return &dErrors.Violation{Code: CodeProjectIncomplete, Field: "project", Message: "project details are incomplete"}
	})
}

// FundingConsistent checks the fields each funding type requires.
func FundingConsistent(f Funding) []validation.Rule {
	switch f.Type {
	case "":
		return nil
	case FundingWorkContract:
		return []validation.Rule{
			validation.Require(!blank(f.WorkContractType), dErrors.Violation{
				Code: CodeFundingWorkContract, Field: "funding.work_contract_type", Message: "work contract type is required",
			}),
			validation.Require(f.EFT != nil, dErrors.Violation{
				Code: CodeFundingWorkContract, Field: "funding.eft", Message: "full time equivalent is required",
			}),
		}
	case FundingSearchScholarship:
		return []validation.Rule{
			validation.Require(blank(f.ScholarshipRef) != blank(f.OtherScholarship), dErrors.Violation{
				Code: CodeFundingScholarship, Field: "funding.scholarship", Message: "either a scholarship or a free text scholarship is required",
			}),
			validation.Require(f.ScholarshipStart != nil && f.ScholarshipEnd != nil, dErrors.Violation{
				Code: CodeFundingScholarship, Field: "funding.scholarship_dates", Message: "scholarship start and end dates are required",
			}),
			validation.Require(f.ScholarshipStart == nil || f.ScholarshipEnd == nil || !f.ScholarshipEnd.Before(*f.ScholarshipStart), dErrors.Violation{
				Code: CodeFundingScholarship, Field: "funding.scholarship_end", Message: "scholarship end must follow its start",
			}),
			validation.Require(len(f.ScholarshipProof) > 0, dErrors.Violation{
				Code: CodeFundingScholarship, Field: "funding.scholarship_proof", Message: "scholarship proof is required",
			}),
		}
	case FundingSelf:
		return nil
	default:
		return []validation.Rule{validation.Fail(dErrors.Violation{
			Code: CodeInvalidFundingType, Field: "funding.type", Message: "unknown funding type",
		})}
	}
}

// CotutelleComplete checks a declared cotutelle names its institution and
// carries the opening request.
func CotutelleComplete(c Cotutelle) validation.Rule {
	return validation.RuleFunc(func() *dErrors.Violation {
		if c.Enabled == nil {
			return &dErrors.Violation{Code: CodeCotutelleIncomplete, Field: "cotutelle.enabled", Message: "cotutelle must be answered"}
		}
		if !*c.Enabled {
			return nil
		}
		institution := !blank(c.InstitutionRef) || (!blank(c.OtherInstitution) && !blank(c.OtherAddress))
		if blank(c.Motivation) || c.FWBInstitution == nil || !institution || len(c.OpeningRequest) == 0 {
			return &dErrors.Violation{Code: CodeCotutelleIncomplete, Field: "cotutelle", Message: "cotutelle details are incomplete"}
		}
		return nil
	})
}
