package httptransport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"parcours/internal/app"
	"parcours/internal/bus"
	doctorate "parcours/internal/doctorate/models"
	jwttoken "parcours/internal/jwt_token"
	"parcours/internal/readview"
	"parcours/internal/storage/memory"
	"parcours/pkg/platform/httputil"
	"parcours/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	token  string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	wf := testutil.NewWorkflow(s.T())
	logger := slog.Default()
	b := bus.New(bus.WithLogger(logger))
	app.RegisterCommands(b, app.NewServices(wf.UoW, memory.NewDirectory(), logger, nil))

	jwt := jwttoken.NewJWTService("test-key", "test-issuer", "parcours")
	token, err := jwt.GenerateAccessToken("ADRE1", []string{"adre"}, time.Hour)
	s.Require().NoError(err)
	s.token = token

	h := NewHandler(b, readview.New(wf.UoW), logger, WithTimeline(wf.History))
	s.router = NewRouter(h, RouterConfig{
		Validator: jwttoken.NewJWTServiceAdapter(jwt),
		Logger:    logger,
	})
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	return w
}

func (s *HandlerSuite) initialize() doctorate.DoctorateDTO {
	w := s.do(http.MethodPost, "/api/commands/doctorate.initialize", map[string]any{
		"admission_id": "ADM-1",
		"student":      map[string]any{"matricule": "S1", "first_name": "Ada", "last_name": "Lovelace"},
		"training":     map[string]any{"acronym": "SC3DP", "cdd": "CDSC", "year": 2024},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var d doctorate.DoctorateDTO
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&d))
	return d
}

func (s *HandlerSuite) TestCommandThenRead() {
	d := s.initialize()
	s.Equal(doctorate.StatusAdmitted, d.Status)

	w := s.do(http.MethodGet, "/api/doctorates/"+d.ID.String(), nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/doctorates?cdd=CDSC&order_by=-reference", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page readview.Page[readview.ListItem]
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&page))
	s.Equal(1, page.Total)
	s.Equal("Lovelace, Ada", page.Items[0].StudentName)

	w = s.do(http.MethodPost, "/api/doctorates/search", map[string]any{"cdds": []string{"CDE"}})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&page))
	s.Zero(page.Total)
}

func (s *HandlerSuite) TestCommandErrors() {
	w := s.do(http.MethodPost, "/api/commands/doctorate.explode", map[string]any{})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/commands/doctorate.initialize", map[string]any{"student": map[string]any{}})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	var body httputil.ErrorResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal(bus.CodeInvalidCommand, body.Violations[0].Code)

	w = s.do(http.MethodPost, "/api/commands/doctorate.initialize", map[string]any{"unknown": true})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/doctorates/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestRequiresToken() {
	r := httptest.NewRequest(http.MethodGet, "/api/doctorates", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	s.Equal(http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestDashboardAndExport() {
	s.initialize()

	w := s.do(http.MethodGet, "/api/dashboard?cdd=CDSC", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var d readview.Dashboard
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&d))
	s.NotEmpty(d.Categories)

	w = s.do(http.MethodGet, "/api/doctorates/export.xlsx?cdd=CDSC", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(xlsxContentType, w.Header().Get("Content-Type"))
	s.True(strings.HasPrefix(w.Body.String(), "PK"), "xlsx is a zip archive")

	w = s.do(http.MethodGet, "/api/doctorates?page=abc", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestCommandNames() {
	w := s.do(http.MethodGet, "/api/commands", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var body map[string][]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Contains(body["commands"], "jury.adre_approve")
	s.Contains(body["commands"], "admissibility.record_decision")
}

func (s *HandlerSuite) TestHistory() {
	d := s.initialize()

	w := s.do(http.MethodGet, "/api/doctorates/"+d.ID.String()+"/history?tag=doctorate&tag=initialization", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Entries []map[string]any `json:"entries"`
	}
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.NotEmpty(body.Entries)

	w = s.do(http.MethodGet, "/api/doctorates/"+d.ID.String()+"/history?tag=no-such-tag", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"entries":[]}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/doctorates/not-a-uuid/history", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
