package readview

import (
	"context"
	"errors"

	confirmation "parcours/internal/confirmation/models"
	defense "parcours/internal/defense/models"
	diffusion "parcours/internal/diffusion/models"
	doctorate "parcours/internal/doctorate/models"
	jury "parcours/internal/jury/models"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	training "parcours/internal/training/models"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/sentinel"
)

// record is a doctorate with its satellite aggregates, loaded on first use.
// A missing satellite loads as nil.
type record struct {
	ctx    context.Context
	stores ports.Stores
	d      doctorate.DoctorateDTO

	group         lazy[*supervision.Group]
	juryPanel     lazy[*jury.Jury]
	paper         lazy[*confirmation.Paper]
	private       lazy[*defense.PrivateDefense]
	admissibility lazy[*defense.Admissibility]
	authorization lazy[*diffusion.Authorization]
	activities    lazy[[]*training.Activity]
}

type lazy[T any] struct {
	loaded bool
	value  T
}

func (l *lazy[T]) get(load func() (T, error)) (T, error) {
	if l.loaded {
		return l.value, nil
	}
	v, err := load()
	if errors.Is(err, sentinel.ErrNotFound) {
		err = nil
	}
	if err != nil {
		return v, ports.Lookup(err, "doctorate relation", "")
	}
	l.loaded, l.value = true, v
	return v, nil
}

func newRecord(ctx context.Context, stores ports.Stores, d doctorate.DoctorateDTO) *record {
	return &record{ctx: ctx, stores: stores, d: d}
}

func (r *record) Group() (*supervision.Group, error) {
	return r.group.get(func() (*supervision.Group, error) {
		return r.stores.Groups.GetByDoctorate(r.ctx, r.d.ID)
	})
}

func (r *record) Jury() (*jury.Jury, error) {
	return r.juryPanel.get(func() (*jury.Jury, error) {
		return r.stores.Juries.GetByDoctorate(r.ctx, r.d.ID)
	})
}

func (r *record) Paper() (*confirmation.Paper, error) {
	return r.paper.get(func() (*confirmation.Paper, error) {
		return r.stores.Papers.GetActive(r.ctx, r.d.ID)
	})
}

func (r *record) PrivateDefense() (*defense.PrivateDefense, error) {
	return r.private.get(func() (*defense.PrivateDefense, error) {
		return r.stores.PrivateDefenses.GetActive(r.ctx, r.d.ID)
	})
}

func (r *record) Admissibility() (*defense.Admissibility, error) {
	return r.admissibility.get(func() (*defense.Admissibility, error) {
		return r.stores.Admissibilities.GetActive(r.ctx, r.d.ID)
	})
}

func (r *record) Authorization() (*diffusion.Authorization, error) {
	return r.authorization.get(func() (*diffusion.Authorization, error) {
		return r.stores.Authorizations.GetByDoctorate(r.ctx, r.d.ID)
	})
}

func (r *record) Activities() ([]*training.Activity, error) {
	return r.activities.get(func() ([]*training.Activity, error) {
		return r.stores.Activities.ListByDoctorate(r.ctx, r.d.ID)
	})
}

func (r *record) hasPromoter(matricule id.Matricule) (bool, error) {
	g, err := r.Group()
	if err != nil || g == nil {
		return false, err
	}
	for _, m := range g.Promoters() {
		if m.Matricule == matricule {
			return true, nil
		}
	}
	return false, nil
}

func (r *record) hasJuryPresident(matricule id.Matricule) (bool, error) {
	j, err := r.Jury()
	if err != nil || j == nil {
		return false, err
	}
	for _, m := range j.MembersWithRole(jury.RolePresident) {
		if m.Matricule == matricule {
			return true, nil
		}
	}
	return false, nil
}
