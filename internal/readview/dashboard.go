package readview

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	diffusion "parcours/internal/diffusion/models"
	doctorate "parcours/internal/doctorate/models"
	training "parcours/internal/training/models"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/requestcontext"
)

// Indicator names one dashboard counter. It can also be used as a list
// filter.
type Indicator string

const (
	ConfirmationDeadlineClose Indicator = "CONFIRMATION_ECHEANCE_2_MOIS"
	ConfirmationSubmitted     Indicator = "CONFIRMATION_SOUMISE"
	ConfirmationMinutes       Indicator = "CONFIRMATION_PV_TELEVERSE"
	ConfirmationPostponed     Indicator = "CONFIRMATION_REPORT_DATE"

	TrainingApprovedBySupervisor Indicator = "FORMATION_DOCTORALE_VALIDE_PROMOTEUR"

	JuryApprovedCA   Indicator = "JURY_VALIDE_CA"
	JuryRefusedADRE  Indicator = "JURY_REJET_ADRE"
	JuryApprovedADRE Indicator = "JURY_VALIDE_ADRE"

	F1PrivateDefenseSubmitted Indicator = "FORMULE_1_DEFENSE_PRIVEE_SOUMISE"
	F1PrivateDefenseMinutes   Indicator = "FORMULE_1_DEFENSE_PRIVEE_PV_TELEVERSE"
	F1PublicDefenseSubmitted  Indicator = "FORMULE_1_SOUTENANCE_PUBLIQUE_SOUMISE"
	F1PublicDefenseMinutes    Indicator = "FORMULE_1_SOUTENANCE_PUBLIQUE_PV_TELEVERSE"

	F2AdmissibilitySubmitted  Indicator = "FORMULE_2_RECEVABILITE_SOUMISE"
	F2AdmissibilityMinutes    Indicator = "FORMULE_2_RECEVABILITE_PV_TELEVERSE"
	F2DefensesSubmitted       Indicator = "FORMULE_2_DEFENSE_PRIVEE_SOUTENANCE_PUBLIQUE_SOUMISE"
	F2PrivateDefenseMinutes   Indicator = "FORMULE_2_DEFENSE_PRIVEE_PV_TELEVERSE"
	F2PublicDefenseMinutes    Indicator = "FORMULE_2_SOUTENANCE_PUBLIQUE_PV_TELEVERSE"
	DistributionDeadlineClose Indicator = "AUTORISATION_DIFFUSION_THESE_ECHEANCE_15_JOURS"
	DistributionRefusedADRE   Indicator = "AUTORISATION_DIFFUSION_THESE_REJET_ADRE"
	DistributionRefusedSCEB   Indicator = "AUTORISATION_DIFFUSION_THESE_REJET_SCEB"
)

const distributionNotice = 15 * 24 * time.Hour

type predicate func(r *record, now time.Time) (bool, error)

type category struct {
	name       string
	indicators []Indicator
}

// categories fixes the dashboard layout.
var categories = []category{
	{"CONFIRMATION", []Indicator{ConfirmationDeadlineClose, ConfirmationSubmitted, ConfirmationMinutes, ConfirmationPostponed}},
	{"FORMATION_DOCTORALE", []Indicator{TrainingApprovedBySupervisor}},
	{"JURY", []Indicator{JuryApprovedCA, JuryRefusedADRE, JuryApprovedADRE}},
	{"FORMULE_1_DEFENSE_PRIVEE", []Indicator{F1PrivateDefenseSubmitted, F1PrivateDefenseMinutes}},
	{"FORMULE_1_SOUTENANCE_PUBLIQUE", []Indicator{F1PublicDefenseSubmitted, F1PublicDefenseMinutes}},
	{"FORMULE_2_RECEVABILITE", []Indicator{F2AdmissibilitySubmitted, F2AdmissibilityMinutes}},
	{"FORMULE_2_DEFENSE_PRIVEE_SOUTENANCE_PUBLIQUE", []Indicator{F2DefensesSubmitted, F2PrivateDefenseMinutes, F2PublicDefenseMinutes}},
	{"AUTORISATION_DIFFUSION_THESE", []Indicator{DistributionDeadlineClose, DistributionRefusedADRE, DistributionRefusedSCEB}},
}

func inStatus(statuses ...doctorate.Status) predicate {
	return func(r *record, _ time.Time) (bool, error) {
		return slices.Contains(statuses, r.d.Status), nil
	}
}

func both(a, b predicate) predicate {
	return func(r *record, now time.Time) (bool, error) {
		ok, err := a(r, now)
		if err != nil || !ok {
			return false, err
		}
		return b(r, now)
	}
}

func privateMinutes(r *record, _ time.Time) (bool, error) {
	p, err := r.PrivateDefense()
	return p != nil && len(p.Minutes) > 0, err
}

func publicMinutes(r *record, _ time.Time) (bool, error) {
	return len(r.d.PublicDefense.Minutes) > 0, nil
}

func authorizationIn(statuses ...diffusion.Status) predicate {
	return func(r *record, _ time.Time) (bool, error) {
		a, err := r.Authorization()
		return a != nil && slices.Contains(statuses, a.Status), err
	}
}

var predicates = map[Indicator]predicate{
	// Three quarters of the time to the deadline have elapsed.
	ConfirmationDeadlineClose: both(inStatus(doctorate.StatusAdmitted, doctorate.StatusConfirmationRepeat),
		func(r *record, now time.Time) (bool, error) {
			p, err := r.Paper()
			if err != nil || p == nil {
				return false, err
			}
			threshold := p.CreatedAt.Add(p.Deadline.Sub(p.CreatedAt) * 3 / 4)
			return !now.Before(threshold), nil
		}),
	ConfirmationSubmitted: inStatus(doctorate.StatusConfirmationSubmitted),
	ConfirmationMinutes: both(inStatus(doctorate.StatusConfirmationSubmitted),
		func(r *record, _ time.Time) (bool, error) {
			p, err := r.Paper()
			return p != nil && len(p.SupervisorReport) > 0, err
		}),
	ConfirmationPostponed: both(inStatus(doctorate.StatusAdmitted),
		func(r *record, _ time.Time) (bool, error) {
			p, err := r.Paper()
			return p != nil && p.Extension != nil, err
		}),
	TrainingApprovedBySupervisor: func(r *record, _ time.Time) (bool, error) {
		activities, err := r.Activities()
		if err != nil {
			return false, err
		}
		return slices.ContainsFunc(activities, func(a *training.Activity) bool {
			return a.Status == training.StatusSubmitted && a.SupervisorApproval != nil && *a.SupervisorApproval
		}), nil
	},
	JuryApprovedCA:            inStatus(doctorate.StatusJuryApprovedCA),
	JuryRefusedADRE:           inStatus(doctorate.StatusJuryRefusedADRE),
	JuryApprovedADRE:          inStatus(doctorate.StatusJuryApprovedADRE),
	F1PrivateDefenseSubmitted: inStatus(doctorate.StatusPrivateDefenseSubmitted),
	F1PrivateDefenseMinutes: both(inStatus(doctorate.StatusPrivateDefenseSubmitted, doctorate.StatusPrivateDefenseAuthorized),
		privateMinutes),
	F1PublicDefenseSubmitted: inStatus(doctorate.StatusPublicDefenseSubmitted),
	F1PublicDefenseMinutes:   both(inStatus(doctorate.StatusPublicDefenseAuthorized), publicMinutes),
	F2AdmissibilitySubmitted: inStatus(doctorate.StatusAdmissibilitySubmitted),
	F2AdmissibilityMinutes: both(inStatus(doctorate.StatusAdmissibilitySubmitted),
		func(r *record, _ time.Time) (bool, error) {
			a, err := r.Admissibility()
			return a != nil && len(a.Minutes) > 0, err
		}),
	F2DefensesSubmitted:     inStatus(doctorate.StatusDefensesSubmitted),
	F2PrivateDefenseMinutes: both(inStatus(doctorate.StatusDefensesAuthorized), privateMinutes),
	F2PublicDefenseMinutes:  both(inStatus(doctorate.StatusDefensesAuthorized), publicMinutes),
	// The defense is less than 15 days away and the library has not
	// validated the distribution yet.
	DistributionDeadlineClose: func(r *record, now time.Time) (bool, error) {
		at := r.d.PublicDefense.Datetime
		if at == nil || at.Before(now) || at.Sub(now) > distributionNotice {
			return false, nil
		}
		a, err := r.Authorization()
		return a == nil || a.Status != diffusion.StatusSCEBApproved, err
	},
	DistributionRefusedADRE: authorizationIn(diffusion.StatusADRERefused),
	DistributionRefusedSCEB: authorizationIn(diffusion.StatusSCEBRefused),
}

func (i Indicator) IsValid() bool {
	_, ok := predicates[i]
	return ok
}

func (i Indicator) matches(r *record, now time.Time) (bool, error) {
	p, ok := predicates[i]
	if !ok {
		return false, errUnknownIndicator(i)
	}
	return p(r, now)
}

func errUnknownIndicator(i Indicator) error {
	return dErrors.NewViolations(dErrors.Violation{
		Code: CodeInvalidQuery, Field: "indicator", Message: fmt.Sprintf("unknown indicator %s", i),
	})
}

// DashboardQuery scopes the dashboard to the caller's CDDs and proximity
// commission. Empty fields match everything.
type DashboardQuery struct {
	CDDs                []string `json:"cdds,omitempty"`
	ProximityCommission string   `json:"proximity_commission,omitempty"`
}

func (q DashboardQuery) cacheKey() string {
	cdds := slices.Clone(q.CDDs)
	slices.Sort(cdds)
	return dashboardKeyPrefix + strings.Join(cdds, ",") + "|" + q.ProximityCommission
}

type IndicatorCount struct {
	Key   Indicator `json:"key"`
	Count int       `json:"count"`
}

type Category struct {
	Name       string           `json:"name"`
	Indicators []IndicatorCount `json:"indicators"`
}

type Dashboard struct {
	Categories []Category `json:"categories"`
	ComputedAt time.Time  `json:"computed_at"`
}

// Count returns the value of one indicator, zero when absent.
func (d Dashboard) Count(i Indicator) int {
	for _, c := range d.Categories {
		for _, ic := range c.Indicators {
			if ic.Key == i {
				return ic.Count
			}
		}
	}
	return 0
}

// Dashboard counts every indicator over the doctorates in scope. A cached
// value is served while fresh; cache failures fall back to computing.
func (s *Service) Dashboard(ctx context.Context, q DashboardQuery) (Dashboard, error) {
	key := q.cacheKey()
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "dashboard cache read failed", "error", err)
		}
		if s.metrics != nil {
			s.metrics.ObserveDashboardCache(hit)
		}
		if hit {
			return cached, nil
		}
	}

	out, err := s.computeDashboard(ctx, q)
	if err != nil {
		return Dashboard{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "dashboard cache write failed", "error", err)
		}
	}
	return out, nil
}

func (s *Service) computeDashboard(ctx context.Context, q DashboardQuery) (Dashboard, error) {
	now := requestcontext.Now(ctx)
	counts := make(map[Indicator]int, len(predicates))
	scope := ListQuery{
		ListFilter:          doctorate.ListFilter{CDDs: q.CDDs},
		ProximityCommission: q.ProximityCommission,
	}
	err := s.scan(ctx, scope, func(r *record) error {
		for indicator, p := range predicates {
			ok, err := p(r, now)
			if err != nil {
				return err
			}
			if ok {
				counts[indicator]++
			}
		}
		return nil
	})
	if err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{Categories: make([]Category, 0, len(categories)), ComputedAt: now}
	for _, c := range categories {
		cat := Category{Name: c.name, Indicators: make([]IndicatorCount, 0, len(c.indicators))}
		for _, i := range c.indicators {
			cat.Indicators = append(cat.Indicators, IndicatorCount{Key: i, Count: counts[i]})
		}
		out.Categories = append(out.Categories, cat)
	}
	return out, nil
}
