package readview

import (
	"context"
	"slices"
	"strings"
	"time"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/ports"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/validation"
	"parcours/pkg/requestcontext"
)

// CodeInvalidQuery tags violations of the list query constraints.
const CodeInvalidQuery = "LISTE-1"

const defaultPageSize = 25

// StepRange selects doctorates that entered Status between From and To,
// both bounds inclusive and optional.
type StepRange struct {
	Status doctorate.Status `json:"status" validate:"required"`
	From   *time.Time       `json:"from,omitempty"`
	To     *time.Time       `json:"to,omitempty"`
}

// ListQuery filters, orders and paginates the doctorates. The embedded
// filter is applied by the repository; the rest is applied here.
type ListQuery struct {
	doctorate.ListFilter
	NOMA                string                `json:"noma,omitempty"`
	AdmissionType       string                `json:"admission_type,omitempty"`
	FundingType         doctorate.FundingType `json:"funding_type,omitempty"`
	Scholarship         string                `json:"scholarship,omitempty"`
	ProximityCommission string                `json:"proximity_commission,omitempty"`
	Institutes          []string              `json:"institutes,omitempty"`
	Sectors             []string              `json:"sectors,omitempty"`
	Steps               []StepRange           `json:"steps,omitempty" validate:"dive"`
	Promoter            id.Matricule          `json:"promoter,omitempty"`
	JuryPresident       id.Matricule          `json:"jury_president,omitempty"`
	Indicator           Indicator             `json:"indicator,omitempty"`
	OrderBy             string                `json:"order_by,omitempty" validate:"omitempty,oneof=reference -reference student -student status -status updated_at -updated_at"`
	Page                int                   `json:"page,omitempty" validate:"gte=0"`
	PageSize            int                   `json:"page_size,omitempty" validate:"gte=0,lte=500"`
}

// Page is one page of results. Page numbers start at 1.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ListItem is one row of the doctorate list.
type ListItem struct {
	ID               id.DoctorateID          `json:"id"`
	Reference        string                  `json:"reference"`
	Status           doctorate.Status        `json:"status"`
	StatusSince      *time.Time              `json:"status_since,omitempty"`
	StudentMatricule id.Matricule            `json:"student_matricule"`
	StudentName      string                  `json:"student_name"`
	NOMA             string                  `json:"noma,omitempty"`
	Training         string                  `json:"training"`
	CDD              string                  `json:"cdd"`
	Year             int                     `json:"year"`
	AdmissionType    string                  `json:"admission_type,omitempty"`
	FundingType      doctorate.FundingType   `json:"funding_type,omitempty"`
	DefenseMethod    doctorate.DefenseMethod `json:"defense_method,omitempty"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

func itemOf(d doctorate.DoctorateDTO) ListItem {
	item := ListItem{
		ID:               d.ID,
		Reference:        d.Reference,
		Status:           d.Status,
		StudentMatricule: d.Student.Matricule,
		StudentName:      strings.TrimSpace(d.Student.LastName + ", " + d.Student.FirstName),
		NOMA:             d.Student.NOMA,
		Training:         d.Training.Acronym,
		CDD:              d.Training.CDD,
		Year:             d.Training.Year,
		AdmissionType:    d.AdmissionType,
		FundingType:      d.Funding.Type,
		DefenseMethod:    d.DefenseMethod,
		UpdatedAt:        d.UpdatedAt,
	}
	if at, ok := reachedAt(d, d.Status); ok {
		item.StatusSince = &at
	}
	return item
}

// reachedAt returns when d last entered status.
func reachedAt(d doctorate.DoctorateDTO, status doctorate.Status) (time.Time, bool) {
	for i := len(d.Timeline) - 1; i >= 0; i-- {
		if d.Timeline[i].To == status {
			return d.Timeline[i].At, true
		}
	}
	if status == doctorate.StatusAdmitted {
		return d.CreatedAt, true
	}
	return time.Time{}, false
}

func (r StepRange) matches(d doctorate.DoctorateDTO) bool {
	at, ok := reachedAt(d, r.Status)
	if !ok {
		return false
	}
	return (r.From == nil || !at.Before(*r.From)) && (r.To == nil || !at.After(*r.To))
}

// matchesContent applies the criteria answered by the doctorate alone.
func (q ListQuery) matchesContent(d doctorate.DoctorateDTO) bool {
	switch {
	case q.NOMA != "" && d.Student.NOMA != q.NOMA:
		return false
	case q.AdmissionType != "" && d.AdmissionType != q.AdmissionType:
		return false
	case q.FundingType != "" && d.Funding.Type != q.FundingType:
		return false
	case q.Scholarship != "" && d.Funding.ScholarshipRef != q.Scholarship && d.Funding.OtherScholarship != q.Scholarship:
		return false
	case q.ProximityCommission != "" && d.ProximityCommission != q.ProximityCommission:
		return false
	case len(q.Institutes) > 0 && !slices.Contains(q.Institutes, d.Project.Institute):
		return false
	case len(q.Sectors) > 0 && !slices.Contains(q.Sectors, d.Training.Sector):
		return false
	}
	for _, step := range q.Steps {
		if !step.matches(d) {
			return false
		}
	}
	return true
}

// matchesRelations applies the criteria that need the satellite aggregates.
func (q ListQuery) matchesRelations(r *record, now time.Time) (bool, error) {
	if !q.Promoter.IsZero() {
		ok, err := r.hasPromoter(q.Promoter)
		if err != nil || !ok {
			return false, err
		}
	}
	if !q.JuryPresident.IsZero() {
		ok, err := r.hasJuryPresident(q.JuryPresident)
		if err != nil || !ok {
			return false, err
		}
	}
	if q.Indicator != "" {
		return q.Indicator.matches(r, now)
	}
	return true, nil
}

func (q ListQuery) less(a, b doctorate.DoctorateDTO) int {
	key, desc := strings.CutPrefix(q.OrderBy, "-")
	var c int
	switch key {
	case "student":
		c = strings.Compare(a.Student.LastName+a.Student.FirstName, b.Student.LastName+b.Student.FirstName)
	case "status":
		c = strings.Compare(string(a.Status), string(b.Status))
	case "updated_at":
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		c = strings.Compare(a.Reference, b.Reference)
	}
	if c == 0 {
		c = strings.Compare(a.ID.String(), b.ID.String())
	}
	if desc {
		return -c
	}
	return c
}

// List returns one page of the doctorates matching q, ordered by reference
// unless q says otherwise.
func (s *Service) List(ctx context.Context, q ListQuery) (Page[ListItem], error) {
	if err := (validation.List{Contract: validation.Tags(CodeInvalidQuery, q)}).Validate(); err != nil {
		return Page[ListItem]{}, err
	}
	if q.Indicator != "" && !q.Indicator.IsValid() {
		return Page[ListItem]{}, errUnknownIndicator(q.Indicator)
	}
	matched, err := s.matching(ctx, q)
	if err != nil {
		return Page[ListItem]{}, err
	}
	slices.SortFunc(matched, q.less)

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size == 0 {
		size = defaultPageSize
	}
	out := Page[ListItem]{Items: []ListItem{}, Total: len(matched), Page: page, PageSize: size}
	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))
	for _, d := range matched[start:end] {
		out.Items = append(out.Items, itemOf(d))
	}
	return out, nil
}

func (s *Service) matching(ctx context.Context, q ListQuery) ([]doctorate.DoctorateDTO, error) {
	var out []doctorate.DoctorateDTO
	err := s.scan(ctx, q, func(r *record) error {
		out = append(out, r.d)
		return nil
	})
	return out, err
}

// scan calls visit for every doctorate matching q, inside one transaction.
func (s *Service) scan(ctx context.Context, q ListQuery, visit func(*record) error) error {
	now := requestcontext.Now(ctx)
	return s.uow.RunInTx(ctx, func(stores ports.Stores) error {
		candidates, err := stores.Doctorates.List(ctx, q.ListFilter)
		if err != nil {
			return ports.Lookup(err, "doctorate", "")
		}
		for _, d := range candidates {
			if !q.matchesContent(d) {
				continue
			}
			r := newRecord(ctx, stores, d)
			ok, err := q.matchesRelations(r, now)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := visit(r); err != nil {
				return err
			}
		}
		return nil
	})
}
