package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldstack/mechanic/internal/api/handlers"
	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTroubleshoot struct{}

func (s *stubTroubleshoot) Troubleshoot(ctx context.Context, query string, equip *domain.EquipmentContext) (*domain.TroubleshootResult, error) {
	return &domain.TroubleshootResult{Route: domain.RouteGeneral, Answer: "ok"}, nil
}

type stubAtoms struct{}

func (s *stubAtoms) Create(ctx context.Context, input service.CreateAtomInput) (*domain.Atom, error) {
	return nil, domain.ErrInvalidAtomType
}
func (s *stubAtoms) Get(ctx context.Context, id string) (*domain.Atom, error) {
	return nil, domain.ErrAtomNotFound
}
func (s *stubAtoms) List(ctx context.Context, input service.ListAtomsInput) (*service.AtomPageResult, error) {
	return &service.AtomPageResult{}, nil
}
func (s *stubAtoms) Verify(ctx context.Context, id string) (*domain.Atom, error) {
	return nil, domain.ErrAtomNotFound
}
func (s *stubAtoms) Supersede(ctx context.Context, oldID string, input service.CreateAtomInput) (*domain.Atom, error) {
	return nil, domain.ErrAtomNotFound
}
func (s *stubAtoms) PromoteGap(ctx context.Context, gapID string, input service.CreateAtomInput) (*domain.Atom, error) {
	return nil, domain.ErrGapNotFound
}

type stubGaps struct{}

func (s *stubGaps) Get(ctx context.Context, id string) (*domain.Gap, error) {
	return nil, domain.ErrGapNotFound
}
func (s *stubGaps) PendingQueue(ctx context.Context, limit int) ([]*domain.Gap, error) {
	return nil, nil
}
func (s *stubGaps) Claim(ctx context.Context, id string) error   { return domain.ErrGapNotFound }
func (s *stubGaps) Dismiss(ctx context.Context, id string) error { return domain.ErrGapNotFound }

type stubStats struct{}

func (s *stubStats) Stats(ctx context.Context) (*service.StoreStats, error) {
	return &service.StoreStats{TotalAtoms: 7}, nil
}
func (s *stubStats) TopByUsage(ctx context.Context, limit int) ([]*domain.Atom, error) {
	return nil, nil
}

func testRouter() http.Handler {
	return NewRouter(RouterConfig{
		TroubleshootHandler: handlers.NewTroubleshootHandler(&stubTroubleshoot{}),
		AtomHandler:         handlers.NewAtomHandler(&stubAtoms{}),
		GapHandler:          handlers.NewGapHandler(&stubGaps{}, &stubAtoms{}),
		StatsHandler:        handlers.NewStatsHandler(&stubStats{}),
	})
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Stats(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data handlers.StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Data.TotalAtoms)
}

func TestRouter_ManualRoutesAbsentWithoutStorage(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manuals/?manufacturer=siemens", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
