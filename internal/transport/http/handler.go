// Package httptransport exposes the command bus and the read views over HTTP.
package httptransport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/ports"
	"parcours/internal/readview"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/httputil"
	"parcours/pkg/requestcontext"
)

const maxCommandBytes = 1 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Commands dispatches named commands.
type Commands interface {
	DispatchJSON(ctx context.Context, name string, raw []byte) (any, error)
	Names() []string
}

// Queries answers the read side.
type Queries interface {
	Get(ctx context.Context, doctorateID id.DoctorateID) (doctorate.DoctorateDTO, error)
	List(ctx context.Context, q readview.ListQuery) (readview.Page[readview.ListItem], error)
	Dashboard(ctx context.Context, q readview.DashboardQuery) (readview.Dashboard, error)
	Export(ctx context.Context, q readview.ListQuery, w io.Writer) error
}

// Timeline reads the projected history of a doctorate.
type Timeline interface {
	Timeline(ctx context.Context, doctorateID id.DoctorateID, tags ...string) ([]ports.HistoryEntry, error)
}

// Handler wires HTTP requests to the bus and the read views.
type Handler struct {
	commands Commands
	queries  Queries
	timeline Timeline
	logger   *slog.Logger
}

type HandlerOption func(*Handler)

// WithTimeline serves GET /doctorates/{id}/history from t.
func WithTimeline(t Timeline) HandlerOption {
	return func(h *Handler) {
		h.timeline = t
	}
}

func NewHandler(commands Commands, queries Queries, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{commands: commands, queries: queries, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/doctorates", h.HandleList)
	r.Post("/doctorates/search", h.HandleSearch)
	r.Get("/doctorates/export.xlsx", h.HandleExport)
	r.Get("/doctorates/{id}", h.HandleGet)
	if h.timeline != nil {
		r.Get("/doctorates/{id}/history", h.HandleHistory)
	}
	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/commands", h.HandleCommandNames)
	r.Post("/commands/{name}", h.HandleCommand)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleCommand handles POST /commands/{name}. The body is the command.
func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable body"))
		return
	}
	out, err := h.commands.DispatchJSON(ctx, name, raw)
	if err != nil {
		if dErrors.GetCode(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "command failed",
				"command", name,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleCommandNames(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"commands": h.commands.Names()})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doctorateID, err := id.ParseDoctorateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid doctorate id"))
		return
	}
	d, err := h.queries.Get(r.Context(), doctorateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleHistory handles GET /doctorates/{id}/history. Repeated tag
// parameters narrow the entries to those carrying every tag.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	doctorateID, err := id.ParseDoctorateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid doctorate id"))
		return
	}
	entries, err := h.timeline.Timeline(r.Context(), doctorateID, r.URL.Query()["tag"]...)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read history"))
		return
	}
	if entries == nil {
		entries = []ports.HistoryEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// HandleList handles GET /doctorates with the common filters as query
// parameters. POST /doctorates/search takes the full query as JSON.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := listQueryFrom(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.list(w, r, *q)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q, ok := httputil.DecodeAndPrepare[searchRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	h.list(w, r, q.ListQuery)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, q readview.ListQuery) {
	page, err := h.queries.List(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	q, err := listQueryFrom(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	// The workbook is built in memory so a failure still gets a JSON error.
	var buf bytes.Buffer
	if err := h.queries.Export(r.Context(), *q, &buf); err != nil {
		httputil.WriteError(w, err)
		return
	}
	name := "doctorats-" + requestcontext.Now(r.Context()).Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	d, err := h.queries.Dashboard(r.Context(), readview.DashboardQuery{
		CDDs:                values["cdd"],
		ProximityCommission: values.Get("proximity_commission"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

type searchRequest struct {
	readview.ListQuery
}

func (s *searchRequest) Validate() error { return nil }

// listQueryFrom reads the list filters from query parameters. Repeated
// parameters give several values.
func listQueryFrom(v url.Values) (*readview.ListQuery, error) {
	q := &readview.ListQuery{
		ListFilter: doctorate.ListFilter{
			Reference:        v.Get("reference"),
			StudentMatricule: id.Matricule(v.Get("student")),
			CDDs:             v["cdd"],
			Trainings:        v["training"],
		},
		NOMA:                v.Get("noma"),
		AdmissionType:       v.Get("admission_type"),
		FundingType:         doctorate.FundingType(v.Get("funding_type")),
		Scholarship:         v.Get("scholarship"),
		ProximityCommission: v.Get("proximity_commission"),
		Institutes:          v["institute"],
		Sectors:             v["sector"],
		Promoter:            id.Matricule(v.Get("promoter")),
		JuryPresident:       id.Matricule(v.Get("jury_president")),
		Indicator:           readview.Indicator(v.Get("indicator")),
		OrderBy:             v.Get("order_by"),
	}
	for _, s := range v["status"] {
		q.Statuses = append(q.Statuses, doctorate.Status(s))
	}
	var err error
	if q.Year, err = intParam(v, "year"); err != nil {
		return nil, err
	}
	if q.Page, err = intParam(v, "page"); err != nil {
		return nil, err
	}
	if q.PageSize, err = intParam(v, "page_size"); err != nil {
		return nil, err
	}
	if status := v.Get("step"); status != "" {
		step := readview.StepRange{Status: doctorate.Status(status)}
		if step.From, err = dateParam(v, "step_from"); err != nil {
			return nil, err
		}
		if step.To, err = dateParam(v, "step_to"); err != nil {
			return nil, err
		}
		q.Steps = append(q.Steps, step)
	}
	return q, nil
}

func intParam(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "%s must be an integer", key)
	}
	return n, nil
}

func dateParam(v url.Values, key string) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "%s must be a YYYY-MM-DD date", key)
	}
	return &t, nil
}
