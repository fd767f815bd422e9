package memory

import (
	"context"
	"fmt"
	"sync"

	"parcours/internal/ports"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/sentinel"
)

type managerKey struct {
	role ports.ManagerRole
	cdd  string
}

// Directory is a fixed person directory for local runs and tests.
type Directory struct {
	mu       sync.RWMutex
	people   map[id.Matricule]ports.Person
	managers map[managerKey][]id.Matricule
}

func NewDirectory() *Directory {
	return &Directory{
		people:   make(map[id.Matricule]ports.Person),
		managers: make(map[managerKey][]id.Matricule),
	}
}

func (d *Directory) AddPerson(p ports.Person) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.people[p.Matricule] = p
}

// AddManager registers p as holding role for cdd. An empty cdd means every
// CDD.
func (d *Directory) AddManager(role ports.ManagerRole, cdd string, p ports.Person) {
	d.AddPerson(p)
	d.mu.Lock()
	defer d.mu.Unlock()
	k := managerKey{role: role, cdd: cdd}
	d.managers[k] = append(d.managers[k], p.Matricule)
}

func (d *Directory) Person(_ context.Context, matricule id.Matricule) (ports.Person, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.people[matricule]
	if !ok {
		return ports.Person{}, fmt.Errorf("person %s: %w", matricule, sentinel.ErrNotFound)
	}
	return p, nil
}

func (d *Directory) Managers(_ context.Context, role ports.ManagerRole, cdd string) ([]ports.Person, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := []managerKey{{role: role, cdd: cdd}}
	if cdd != "" {
		keys = append(keys, managerKey{role: role})
	}
	var out []ports.Person
	seen := make(map[id.Matricule]struct{})
	for _, k := range keys {
		for _, m := range d.managers[k] {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, d.people[m])
		}
	}
	return out, nil
}
