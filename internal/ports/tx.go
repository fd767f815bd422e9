package ports

import (
	"context"

	doctorate "parcours/internal/doctorate/models"
	id "parcours/pkg/domain"
	"parcours/pkg/requestcontext"
)

// InTx runs fn in one transaction, serialized with the other commands of
// the same doctorate.
func InTx(ctx context.Context, uow UnitOfWork, doctorateID id.DoctorateID, fn func(stores Stores) error) error {
	return uow.RunInTx(requestcontext.WithShard(ctx, doctorateID.String()), fn)
}

// LoadDoctorate fetches the doctorate a command targets.
func LoadDoctorate(ctx context.Context, stores Stores, doctorateID id.DoctorateID) (*doctorate.Doctorate, error) {
	d, err := stores.Doctorates.Get(ctx, doctorateID)
	if err != nil {
		return nil, Lookup(err, "doctorate", "")
	}
	return d, nil
}

// SaveDoctorate persists d.
func SaveDoctorate(ctx context.Context, stores Stores, d *doctorate.Doctorate) error {
	return Persist(stores.Doctorates.Save(ctx, d), "doctorate")
}
