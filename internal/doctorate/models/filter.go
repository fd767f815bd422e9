package models

import (
	"slices"

	id "parcours/pkg/domain"
)

// ListFilter holds the criteria repositories can apply while listing. Empty
// fields match everything.
type ListFilter struct {
	Reference        string       `json:"reference,omitempty"`
	StudentMatricule id.Matricule `json:"student_matricule,omitempty"`
	Statuses         []Status     `json:"statuses,omitempty"`
	CDDs             []string     `json:"cdds,omitempty"`
	Trainings        []string     `json:"trainings,omitempty"`
	Year             int          `json:"year,omitempty"`
}

// Matches reports whether d satisfies every criterion of f.
func (f ListFilter) Matches(d DoctorateDTO) bool {
	switch {
	case f.Reference != "" && d.Reference != f.Reference:
		return false
	case !f.StudentMatricule.IsZero() && d.Student.Matricule != f.StudentMatricule:
		return false
	case len(f.Statuses) > 0 && !slices.Contains(f.Statuses, d.Status):
		return false
	case len(f.CDDs) > 0 && !slices.Contains(f.CDDs, d.Training.CDD):
		return false
	case len(f.Trainings) > 0 && !slices.Contains(f.Trainings, d.Training.Acronym):
		return false
	case f.Year != 0 && d.Training.Year != f.Year:
		return false
	}
	return true
}
