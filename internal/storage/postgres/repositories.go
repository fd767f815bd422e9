package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

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

type doctorates struct {
	conn
	seq ports.ReferenceSequence
}

func (r doctorates) Get(ctx context.Context, doctorateID id.DoctorateID) (*doctorate.Doctorate, error) {
	return getOne[doctorate.Doctorate](ctx, r.conn, "doctorate",
		`SELECT data FROM doctorates WHERE id = $1`, doctorateID.String())
}

func (r doctorates) Save(ctx context.Context, d *doctorate.Doctorate) error {
	if d.Reference == "" {
		n, err := r.seq.Next(ctx, doctorate.ReferenceScope(d.Training.CDD, d.Training.Year))
		if err != nil {
			return fmt.Errorf("allocate reference: %w", err)
		}
		d.AssignReference(n)
	}
	data, err := encode(d, "doctorate")
	if err != nil {
		return err
	}
	query := `
		INSERT INTO doctorates (id, reference, status, student_matricule, cdd, training, year, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	return exec(ctx, r.conn, "save doctorate", query,
		d.ID.String(), d.Reference, string(d.Status), d.Student.Matricule.String(),
		strings.ToUpper(d.Training.CDD), d.Training.Acronym, d.Training.Year, data, d.CreatedAt, d.UpdatedAt)
}

func (r doctorates) GetDTO(ctx context.Context, doctorateID id.DoctorateID) (doctorate.DoctorateDTO, error) {
	d, err := r.Get(ctx, doctorateID)
	if err != nil {
		return doctorate.DoctorateDTO{}, err
	}
	return d.ToDTO(), nil
}

// List pushes every criterion of the filter down to SQL.
func (r doctorates) List(ctx context.Context, filter doctorate.ListFilter) ([]doctorate.DoctorateDTO, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Reference != "" {
		add("reference = $%d", filter.Reference)
	}
	if !filter.StudentMatricule.IsZero() {
		add("student_matricule = $%d", filter.StudentMatricule.String())
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}
	if len(filter.CDDs) > 0 {
		cdds := make([]string, len(filter.CDDs))
		for i, c := range filter.CDDs {
			cdds[i] = strings.ToUpper(c)
		}
		add("cdd = ANY($%d)", pq.Array(cdds))
	}
	if len(filter.Trainings) > 0 {
		add("training = ANY($%d)", pq.Array(filter.Trainings))
	}
	if filter.Year != 0 {
		add("year = $%d", filter.Year)
	}
	query := `SELECT data FROM doctorates`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := getMany[doctorate.Doctorate](ctx, r.conn, "doctorates", query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]doctorate.DoctorateDTO, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.ToDTO())
	}
	return out, nil
}

type groups struct{ conn }

func (r groups) GetByDoctorate(ctx context.Context, doctorateID id.DoctorateID) (*supervision.Group, error) {
	return getOne[supervision.Group](ctx, r.conn, "supervision group",
		`SELECT data FROM supervision_groups WHERE doctorate_id = $1`, doctorateID.String())
}

func (r groups) Save(ctx context.Context, g *supervision.Group) error {
	data, err := encode(g, "supervision group")
	if err != nil {
		return err
	}
	return exec(ctx, r.conn, "save supervision group", `
		INSERT INTO supervision_groups (id, doctorate_id, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, g.ID.String(), g.DoctorateID.String(), data)
}

type papers struct{ conn }

func (r papers) Get(ctx context.Context, paperID id.ConfirmationPaperID) (*confirmation.Paper, error) {
	return getOne[confirmation.Paper](ctx, r.conn, "confirmation paper",
		`SELECT data FROM confirmation_papers WHERE id = $1`, paperID.String())
}

func (r papers) ListByDoctorate(ctx context.Context, doctorateID id.DoctorateID) ([]*confirmation.Paper, error) {
	return getMany[confirmation.Paper](ctx, r.conn, "confirmation papers",
		`SELECT data FROM confirmation_papers WHERE doctorate_id = $1 ORDER BY created_at`, doctorateID.String())
}

func (r papers) GetActive(ctx context.Context, doctorateID id.DoctorateID) (*confirmation.Paper, error) {
	return getOne[confirmation.Paper](ctx, r.conn, "confirmation paper",
		`SELECT data FROM confirmation_papers WHERE doctorate_id = $1 AND active`, doctorateID.String())
}

// Save stores p. Archive the previous paper before saving its successor.
func (r papers) Save(ctx context.Context, p *confirmation.Paper) error {
	data, err := encode(p, "confirmation paper")
	if err != nil {
		return err
	}
	return exec(ctx, r.conn, "save confirmation paper", `
		INSERT INTO confirmation_papers (id, doctorate_id, active, data, created_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active, data = EXCLUDED.data
	`, p.ID.String(), p.DoctorateID.String(), !p.Archived, data, p.CreatedAt)
}

type activities struct{ conn }

func (r activities) Get(ctx context.Context, activityID id.ActivityID) (*training.Activity, error) {
	return getOne[training.Activity](ctx, r.conn, "training activity",
		`SELECT data FROM training_activities WHERE id = $1`, activityID.String())
}

// GetMany fails with ErrNotFound when any id is unknown.
func (r activities) GetMany(ctx context.Context, activityIDs []id.ActivityID) ([]*training.Activity, error) {
	keys := make([]string, len(activityIDs))
	for i, a := range activityIDs {
		keys[i] = a.String()
	}
	rows, err := getMany[training.Activity](ctx, r.conn, "training activities",
		`SELECT data FROM training_activities WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	found := make(map[id.ActivityID]*training.Activity, len(rows))
	for _, a := range rows {
		found[a.ID] = a
	}
	out := make([]*training.Activity, 0, len(activityIDs))
	for _, aid := range activityIDs {
		a, ok := found[aid]
		if !ok {
			return nil, translate(sql.ErrNoRows, "training activity "+aid.String())
		}
		out = append(out, a)
	}
	return out, nil
}

func (r activities) ListChildren(ctx context.Context, parentID id.ActivityID) ([]*training.Activity, error) {
	return getMany[training.Activity](ctx, r.conn, "training activities",
		`SELECT data FROM training_activities WHERE parent_id = $1 ORDER BY created_at`, parentID.String())
}

func (r activities) ListByDoctorate(ctx context.Context, doctorateID id.DoctorateID) ([]*training.Activity, error) {
	return getMany[training.Activity](ctx, r.conn, "training activities",
		`SELECT data FROM training_activities WHERE doctorate_id = $1 ORDER BY created_at`, doctorateID.String())
}

func (r activities) Save(ctx context.Context, a *training.Activity) error {
	data, err := encode(a, "training activity")
	if err != nil {
		return err
	}
	var parent any
	if a.IsChild() {
		parent = a.ParentID.String()
	}
	return exec(ctx, r.conn, "save training activity", `
		INSERT INTO training_activities (id, doctorate_id, parent_id, data, created_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, a.ID.String(), a.DoctorateID.String(), parent, data, a.CreatedAt)
}

func (r activities) Delete(ctx context.Context, activityID id.ActivityID) error {
	res, err := r.execer(ctx).ExecContext(ctx, `DELETE FROM training_activities WHERE id = $1`, activityID.String())
	if err != nil {
		return translate(err, "delete training activity")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return translate(sql.ErrNoRows, "delete training activity")
	}
	return nil
}

type enrollments struct{ conn }

func (r enrollments) Get(ctx context.Context, enrollmentID id.EnrollmentID) (*training.Enrollment, error) {
	return getOne[training.Enrollment](ctx, r.conn, "enrollment",
		`SELECT data FROM assessment_enrollments WHERE id = $1`, enrollmentID.String())
}

func (r enrollments) ListByDoctorate(ctx context.Context, doctorateID id.DoctorateID) ([]*training.Enrollment, error) {
	return getMany[training.Enrollment](ctx, r.conn, "enrollments",
		`SELECT data FROM assessment_enrollments WHERE doctorate_id = $1 ORDER BY created_at`, doctorateID.String())
}

func (r enrollments) Save(ctx context.Context, e *training.Enrollment) error {
	data, err := encode(e, "enrollment")
	if err != nil {
		return err
	}
	return exec(ctx, r.conn, "save enrollment", `
		INSERT INTO assessment_enrollments (id, doctorate_id, data, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, e.ID.String(), e.DoctorateID.String(), data, e.CreatedAt)
}

type evaluations struct{ conn }

func (r evaluations) Get(ctx context.Context, evaluationID id.EvaluationID) (*training.Evaluation, error) {
	return getOne[training.Evaluation](ctx, r.conn, "evaluation",
		`SELECT data FROM evaluations WHERE id = $1`, evaluationID.String())
}

func (r evaluations) GetByEnrollment(ctx context.Context, enrollmentID id.EnrollmentID) (*training.Evaluation, error) {
	return getOne[training.Evaluation](ctx, r.conn, "evaluation",
		`SELECT data FROM evaluations WHERE enrollment_id = $1`, enrollmentID.String())
}

func (r evaluations) Save(ctx context.Context, e *training.Evaluation) error {
	data, err := encode(e, "evaluation")
	if err != nil {
		return err
	}
	return exec(ctx, r.conn, "save evaluation", `
		INSERT INTO evaluations (id, doctorate_id, enrollment_id, data) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, e.ID.String(), e.DoctorateID.String(), e.EnrollmentID.String(), data)
}

type juries struct{ conn }

func (r juries) Get(ctx context.Context, juryID id.JuryID) (*jury.Jury, error) {
	return getOne[jury.Jury](ctx, r.conn, "jury", `SELECT data FROM juries WHERE id = $1`, juryID.String())
}

func (r juries) GetByDoctorate(ctx context.Context, doctorateID id.DoctorateID) (*jury.Jury, error) {
	return getOne[jury.Jury](ctx, r.conn, "jury", `SELECT data FROM juries WHERE doctorate_id = $1`, doctorateID.String())
}

func (r juries) Save(ctx context.Context, j *jury.Jury) error {
	data, err := encode(j, "jury")
	if err != nil {
		return err
	}
	return exec(ctx, r.conn, "save jury", `
		INSERT INTO juries (id, doctorate_id, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, j.ID.String(), j.DoctorateID.String(), data)
}

type authorizations struct{ conn }

func (r authorizations) Get(ctx context.Context, authID id.AuthorizationID) (*diffusion.Authorization, error) {
	return getOne[diffusion.Authorization](ctx, r.conn, "thesis authorization",
		`SELECT data FROM thesis_authorizations WHERE id = $1`, authID.String())
}

func (r authorizations) GetByDoctorate(ctx context.Context, doctorateID id.DoctorateID) (*diffusion.Authorization, error) {
	return getOne[diffusion.Authorization](ctx, r.conn, "thesis authorization",
		`SELECT data FROM thesis_authorizations WHERE doctorate_id = $1`, doctorateID.String())
}

func (r authorizations) Save(ctx context.Context, a *diffusion.Authorization) error {
	data, err := encode(a, "thesis authorization")
	if err != nil {
		return err
	}
	return exec(ctx, r.conn, "save thesis authorization", `
		INSERT INTO thesis_authorizations (id, doctorate_id, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, a.ID.String(), a.DoctorateID.String(), data)
}

type privateDefenses struct{ conn }

func (r privateDefenses) GetActive(ctx context.Context, doctorateID id.DoctorateID) (*defense.PrivateDefense, error) {
	return getOne[defense.PrivateDefense](ctx, r.conn, "private defense",
		`SELECT data FROM private_defenses WHERE doctorate_id = $1 AND active`, doctorateID.String())
}

func (r privateDefenses) List(ctx context.Context, doctorateID id.DoctorateID) ([]*defense.PrivateDefense, error) {
	return getMany[defense.PrivateDefense](ctx, r.conn, "private defenses",
		`SELECT data FROM private_defenses WHERE doctorate_id = $1 ORDER BY created_at`, doctorateID.String())
}

// Save stores p. Deactivate the previous instance before saving its successor.
func (r privateDefenses) Save(ctx context.Context, p *defense.PrivateDefense) error {
	data, err := encode(p, "private defense")
	if err != nil {
		return err
	}
	return exec(ctx, r.conn, "save private defense", `
		INSERT INTO private_defenses (id, doctorate_id, active, data, created_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active, data = EXCLUDED.data
	`, p.ID.String(), p.DoctorateID.String(), p.Active, data, p.CreatedAt)
}

type admissibilities struct{ conn }

func (r admissibilities) GetActive(ctx context.Context, doctorateID id.DoctorateID) (*defense.Admissibility, error) {
	return getOne[defense.Admissibility](ctx, r.conn, "admissibility",
		`SELECT data FROM admissibilities WHERE doctorate_id = $1 AND active`, doctorateID.String())
}

func (r admissibilities) List(ctx context.Context, doctorateID id.DoctorateID) ([]*defense.Admissibility, error) {
	return getMany[defense.Admissibility](ctx, r.conn, "admissibilities",
		`SELECT data FROM admissibilities WHERE doctorate_id = $1 ORDER BY created_at`, doctorateID.String())
}

// Save stores a. Deactivate the previous instance before saving its successor.
func (r admissibilities) Save(ctx context.Context, a *defense.Admissibility) error {
	data, err := encode(a, "admissibility")
	if err != nil {
		return err
	}
	return exec(ctx, r.conn, "save admissibility", `
		INSERT INTO admissibilities (id, doctorate_id, active, data, created_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active, data = EXCLUDED.data
	`, a.ID.String(), a.DoctorateID.String(), a.Active, data, a.CreatedAt)
}
