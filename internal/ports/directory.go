package ports

import (
	"context"

	id "parcours/pkg/domain"
)

// ManagerRole names a group of administrative staff.
type ManagerRole string

const (
	ManagerCDD     ManagerRole = "GESTIONNAIRE_CDD"
	ManagerProgram ManagerRole = "GESTIONNAIRE_PROGRAMME"
	ManagerADRE    ManagerRole = "ADRE"
	ManagerSCEB    ManagerRole = "SCEB"
	// ManagerAuditor verifies juries for a CDD.
	ManagerAuditor ManagerRole = "AUDITEUR"
)

// Person is the contact card of someone known to the directory.
type Person struct {
	Matricule id.Matricule `json:"matricule"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Language  string       `json:"language"`
}

// Directory resolves people. It is owned by another system.
type Directory interface {
	Person(ctx context.Context, matricule id.Matricule) (Person, error)
	// Managers lists the staff holding role for a CDD. An empty cdd means
	// every scope.
	Managers(ctx context.Context, role ManagerRole, cdd string) ([]Person, error)
}
