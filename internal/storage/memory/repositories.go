package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	confirmation "parcours/internal/confirmation/models"
	defense "parcours/internal/defense/models"
	diffusion "parcours/internal/diffusion/models"
	doctorate "parcours/internal/doctorate/models"
	jury "parcours/internal/jury/models"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/models"
	training "parcours/internal/training/models"
	id "parcours/pkg/domain"
)

func byCreation[V any](rows []*V, created func(*V) time.Time) []*V {
	sort.SliceStable(rows, func(i, j int) bool { return created(rows[i]).Before(created(rows[j])) })
	return rows
}

type doctorates struct {
	tx  *txn
	seq ports.ReferenceSequence
}

func (r doctorates) Get(_ context.Context, doctorateID id.DoctorateID) (*doctorate.Doctorate, error) {
	return get[doctorate.Doctorate](r.tx, tableDoctorates, doctorateID.String())
}

func (r doctorates) Save(ctx context.Context, d *doctorate.Doctorate) error {
	if d.Reference == "" {
		n, err := r.seq.Next(ctx, doctorate.ReferenceScope(d.Training.CDD, d.Training.Year))
		if err != nil {
			return fmt.Errorf("allocate reference: %w", err)
		}
		d.AssignReference(n)
	}
	return r.tx.put(tableDoctorates, d.ID.String(), d)
}

func (r doctorates) GetDTO(ctx context.Context, doctorateID id.DoctorateID) (doctorate.DoctorateDTO, error) {
	d, err := r.Get(ctx, doctorateID)
	if err != nil {
		return doctorate.DoctorateDTO{}, err
	}
	return d.ToDTO(), nil
}

func (r doctorates) List(_ context.Context, filter doctorate.ListFilter) ([]doctorate.DoctorateDTO, error) {
	rows, err := scan[doctorate.Doctorate](r.tx, tableDoctorates, nil)
	if err != nil {
		return nil, err
	}
	var out []doctorate.DoctorateDTO
	for _, d := range rows {
		if dto := d.ToDTO(); filter.Matches(dto) {
			out = append(out, dto)
		}
	}
	return out, nil
}

type groups struct{ tx *txn }

func (r groups) GetByDoctorate(_ context.Context, doctorateID id.DoctorateID) (*supervision.Group, error) {
	return first(r.tx, tableGroups, func(g *supervision.Group) bool { return g.DoctorateID == doctorateID })
}

func (r groups) Save(_ context.Context, g *supervision.Group) error {
	return r.tx.put(tableGroups, g.ID.String(), g)
}

type papers struct{ tx *txn }

func (r papers) Get(_ context.Context, paperID id.ConfirmationPaperID) (*confirmation.Paper, error) {
	return get[confirmation.Paper](r.tx, tablePapers, paperID.String())
}

func (r papers) ListByDoctorate(_ context.Context, doctorateID id.DoctorateID) ([]*confirmation.Paper, error) {
	rows, err := scan(r.tx, tablePapers, func(p *confirmation.Paper) bool { return p.DoctorateID == doctorateID })
	if err != nil {
		return nil, err
	}
	return byCreation(rows, func(p *confirmation.Paper) time.Time { return p.CreatedAt }), nil
}

func (r papers) GetActive(_ context.Context, doctorateID id.DoctorateID) (*confirmation.Paper, error) {
	return first(r.tx, tablePapers, func(p *confirmation.Paper) bool { return p.DoctorateID == doctorateID && !p.Archived })
}

func (r papers) Save(_ context.Context, p *confirmation.Paper) error {
	return r.tx.put(tablePapers, p.ID.String(), p)
}

type activities struct{ tx *txn }

func (r activities) Get(_ context.Context, activityID id.ActivityID) (*training.Activity, error) {
	return get[training.Activity](r.tx, tableActivities, activityID.String())
}

func (r activities) GetMany(ctx context.Context, activityIDs []id.ActivityID) ([]*training.Activity, error) {
	out := make([]*training.Activity, 0, len(activityIDs))
	for _, aid := range activityIDs {
		a, err := r.Get(ctx, aid)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r activities) ListChildren(_ context.Context, parentID id.ActivityID) ([]*training.Activity, error) {
	rows, err := scan(r.tx, tableActivities, func(a *training.Activity) bool { return a.ParentID == parentID })
	if err != nil {
		return nil, err
	}
	return byCreation(rows, func(a *training.Activity) time.Time { return a.CreatedAt }), nil
}

func (r activities) ListByDoctorate(_ context.Context, doctorateID id.DoctorateID) ([]*training.Activity, error) {
	rows, err := scan(r.tx, tableActivities, func(a *training.Activity) bool { return a.DoctorateID == doctorateID })
	if err != nil {
		return nil, err
	}
	return byCreation(rows, func(a *training.Activity) time.Time { return a.CreatedAt }), nil
}

func (r activities) Save(_ context.Context, a *training.Activity) error {
	return r.tx.put(tableActivities, a.ID.String(), a)
}

func (r activities) Delete(_ context.Context, activityID id.ActivityID) error {
	return r.tx.remove(tableActivities, activityID.String())
}

type enrollments struct{ tx *txn }

func (r enrollments) Get(_ context.Context, enrollmentID id.EnrollmentID) (*training.Enrollment, error) {
	return get[training.Enrollment](r.tx, tableEnrollments, enrollmentID.String())
}

func (r enrollments) ListByDoctorate(_ context.Context, doctorateID id.DoctorateID) ([]*training.Enrollment, error) {
	rows, err := scan(r.tx, tableEnrollments, func(e *training.Enrollment) bool { return e.DoctorateID == doctorateID })
	if err != nil {
		return nil, err
	}
	return byCreation(rows, func(e *training.Enrollment) time.Time { return e.CreatedAt }), nil
}

func (r enrollments) Save(_ context.Context, e *training.Enrollment) error {
	return r.tx.put(tableEnrollments, e.ID.String(), e)
}

type evaluations struct{ tx *txn }

func (r evaluations) Get(_ context.Context, evaluationID id.EvaluationID) (*training.Evaluation, error) {
	return get[training.Evaluation](r.tx, tableEvaluations, evaluationID.String())
}

func (r evaluations) GetByEnrollment(_ context.Context, enrollmentID id.EnrollmentID) (*training.Evaluation, error) {
	return first(r.tx, tableEvaluations, func(e *training.Evaluation) bool { return e.EnrollmentID == enrollmentID })
}

func (r evaluations) Save(_ context.Context, e *training.Evaluation) error {
	return r.tx.put(tableEvaluations, e.ID.String(), e)
}

type juries struct{ tx *txn }

func (r juries) Get(_ context.Context, juryID id.JuryID) (*jury.Jury, error) {
	return get[jury.Jury](r.tx, tableJuries, juryID.String())
}

func (r juries) GetByDoctorate(_ context.Context, doctorateID id.DoctorateID) (*jury.Jury, error) {
	return first(r.tx, tableJuries, func(j *jury.Jury) bool { return j.DoctorateID == doctorateID })
}

func (r juries) Save(_ context.Context, j *jury.Jury) error {
	return r.tx.put(tableJuries, j.ID.String(), j)
}

type authorizations struct{ tx *txn }

func (r authorizations) Get(_ context.Context, authID id.AuthorizationID) (*diffusion.Authorization, error) {
	return get[diffusion.Authorization](r.tx, tableAuthorizations, authID.String())
}

func (r authorizations) GetByDoctorate(_ context.Context, doctorateID id.DoctorateID) (*diffusion.Authorization, error) {
	return first(r.tx, tableAuthorizations, func(a *diffusion.Authorization) bool { return a.DoctorateID == doctorateID })
}

func (r authorizations) Save(_ context.Context, a *diffusion.Authorization) error {
	return r.tx.put(tableAuthorizations, a.ID.String(), a)
}

type privateDefenses struct{ tx *txn }

func (r privateDefenses) GetActive(_ context.Context, doctorateID id.DoctorateID) (*defense.PrivateDefense, error) {
	return first(r.tx, tablePrivateDefenses, func(p *defense.PrivateDefense) bool { return p.DoctorateID == doctorateID && p.Active })
}

func (r privateDefenses) List(_ context.Context, doctorateID id.DoctorateID) ([]*defense.PrivateDefense, error) {
	rows, err := scan(r.tx, tablePrivateDefenses, func(p *defense.PrivateDefense) bool { return p.DoctorateID == doctorateID })
	if err != nil {
		return nil, err
	}
	return byCreation(rows, func(p *defense.PrivateDefense) time.Time { return p.CreatedAt }), nil
}

func (r privateDefenses) Save(_ context.Context, p *defense.PrivateDefense) error {
	return r.tx.put(tablePrivateDefenses, p.ID.String(), p)
}

type admissibilities struct{ tx *txn }

func (r admissibilities) GetActive(_ context.Context, doctorateID id.DoctorateID) (*defense.Admissibility, error) {
	return first(r.tx, tableAdmissibilities, func(a *defense.Admissibility) bool { return a.DoctorateID == doctorateID && a.Active })
}

func (r admissibilities) List(_ context.Context, doctorateID id.DoctorateID) ([]*defense.Admissibility, error) {
	rows, err := scan(r.tx, tableAdmissibilities, func(a *defense.Admissibility) bool { return a.DoctorateID == doctorateID })
	if err != nil {
		return nil, err
	}
	return byCreation(rows, func(a *defense.Admissibility) time.Time { return a.CreatedAt }), nil
}

func (r admissibilities) Save(_ context.Context, a *defense.Admissibility) error {
	return r.tx.put(tableAdmissibilities, a.ID.String(), a)
}
