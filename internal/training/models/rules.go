package models

import (
	"strings"

	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

type requirement struct {
	field  string
	filled func(a *Activity) bool
}

func text(field string, get func(a *Activity) string) requirement {
	return requirement{field: field, filled: func(a *Activity) bool { return !blank(get(a)) }}
}

var (
	reqTitle     = text("title", func(a *Activity) string { return a.Title })
	reqSubtype   = text("subtype", func(a *Activity) string { return a.Subtype })
	reqCity      = text("city", func(a *Activity) string { return a.City })
	reqCountry   = text("country", func(a *Activity) string { return a.Country })
	reqOrganizer = text("organizer", func(a *Activity) string { return a.Organizer })
	reqAuthors   = text("authors", func(a *Activity) string { return a.Authors })
	reqPubStatus = text("publication_status", func(a *Activity) string { return a.PublicationStatus })
	reqHours     = text("hours", func(a *Activity) string { return a.Hours })
	reqSummary   = text("summary", func(a *Activity) string { return a.Summary })
	reqCourse    = text("course_acronym", func(a *Activity) string { return a.CourseAcronym })
	reqStart     = requirement{field: "start_date", filled: func(a *Activity) bool { return a.StartDate != nil }}
	reqEnd       = requirement{field: "end_date", filled: func(a *Activity) bool { return a.EndDate != nil }}
	reqYear      = requirement{field: "academic_year", filled: func(a *Activity) bool { return a.AcademicYear > 0 }}
)

// requirements lists the fields each category needs before submission.
// Children of a seminar only need a title: the seminar carries the rest.
func requirements(a *Activity) []requirement {
	if a.ParentCategory == CategorySeminar {
		return []requirement{reqTitle}
	}
	switch a.Category {
	case CategoryConference:
		return []requirement{reqTitle, reqStart, reqEnd, reqCity, reqCountry}
	case CategoryCommunication:
		if a.IsChild() {
			return []requirement{reqTitle, reqSubtype}
		}
		return []requirement{reqTitle, reqStart, reqSubtype, reqCity, reqCountry}
	case CategoryPublication:
		return []requirement{reqTitle, reqAuthors, reqPubStatus}
	case CategoryService:
		return []requirement{reqTitle, reqStart, reqEnd, reqOrganizer}
	case CategorySeminar:
		return []requirement{reqTitle, reqStart, reqEnd, reqHours}
	case CategoryResidency:
		return []requirement{reqSubtype, reqStart, reqEnd, reqCountry}
	case CategoryCourse:
		return []requirement{reqTitle, reqOrganizer, reqStart, reqEnd, reqHours}
	case CategoryPaper:
		return []requirement{reqSubtype}
	case CategoryUCLCourse:
		return []requirement{reqCourse, reqYear}
	case CategoryValorisation:
		return []requirement{reqTitle, reqSummary}
	case CategoryVAE:
		return []requirement{reqTitle, reqSummary}
	}
	return nil
}

// Complete checks the category specific fields and the credits. Violations
// carry the activity id.
func Complete(a *Activity) []validation.Rule {
	var missing []string
	for _, r := range requirements(a) {
		if !r.filled(a) {
			missing = append(missing, r.field)
		}
	}
	rules := []validation.Rule{
		validation.Require(len(missing) == 0, dErrors.Violation{
			Code: CodeIncomplete, Field: strings.Join(missing, ","), Message: "this activity is not complete",
		}),
		validation.Require(!a.ECTS.IsNegative(), dErrors.Violation{
			Code: CodeECTSNegative, Field: "ects", Message: "ECTS must be positive",
		}),
		validation.Require(a.StartDate == nil || a.EndDate == nil || !a.EndDate.Before(*a.StartDate), dErrors.Violation{
			Code: CodeIncomplete, Field: "end_date", Message: "the end date must follow the start date",
		}),
	}
	return validation.ForEntity(a.ID.String(), rules...)
}

// Submittable checks an activity can join a submission batch: it is not yet
// submitted and is complete. A seminar also checks its children.
func Submittable(a *Activity, children []*Activity) []validation.Rule {
	rules := validation.ForEntity(a.ID.String(), validation.Require(a.Status == StatusNotSubmitted, dErrors.Violation{
		Code: CodeMustBeNotSubmitted, Message: "this activity must be unsubmitted",
	}))
	rules = append(rules, Complete(a)...)
	if a.Category == CategorySeminar {
		for _, c := range children {
			rules = append(rules, Complete(c)...)
		}
	}
	return rules
}

// VerifySubmission runs Submittable over a batch and aggregates every
// violation. childrenOf returns the children of a seminar.
func VerifySubmission(batch []*Activity, childrenOf func(*Activity) []*Activity) error {
	var rules []validation.Rule
	for _, a := range batch {
		var children []*Activity
		if a.Category == CategorySeminar && childrenOf != nil {
			children = childrenOf(a)
		}
		rules = append(rules, Submittable(a, children)...)
	}
	return validation.Validate(rules...)
}
