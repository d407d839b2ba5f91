package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGapService is a mock implementation of GapService
type MockGapService struct {
	mock.Mock
}

func (m *MockGapService) Get(ctx context.Context, id string) (*domain.Gap, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Gap), args.Error(1)
}

func (m *MockGapService) PendingQueue(ctx context.Context, limit int) ([]*domain.Gap, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Gap), args.Error(1)
}

func (m *MockGapService) Claim(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGapService) Dismiss(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func sampleGap(id string, priority float64) *domain.Gap {
	return &domain.Gap{
		ID:              id,
		Query:           "spindle loses position after warm up",
		Manufacturer:    "fanuc",
		ConfidenceScore: 0.5,
		OccurrenceCount: 3,
		Priority:        priority,
		ResearchStatus:  domain.ResearchStatusPending,
		CreatedAt:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGapHandler_Pending(t *testing.T) {
	gaps := &MockGapService{}
	handler := NewGapHandler(gaps, &MockAtomService{})

	gaps.On("PendingQueue", mock.Anything, 20).
		Return([]*domain.Gap{sampleGap("g1", 2.25), sampleGap("g2", 1.5)}, nil)

	router := chi.NewRouter()
	router.Get("/gaps/pending", handler.Pending)

	w := routedRequest(t, router, http.MethodGet, "/gaps/pending", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []*GapResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 2.25, resp.Data[0].Priority)
}

func TestGapHandler_Resolve(t *testing.T) {
	gaps := &MockGapService{}
	atoms := &MockAtomService{}
	handler := NewGapHandler(gaps, atoms)

	atoms.On("PromoteGap", mock.Anything, "g1", mock.Anything).Return(sampleAtom("a9"), nil)

	body, _ := json.Marshal(CreateAtomRequest{
		Type:    "fault",
		Title:   "Spindle drift after thermal growth",
		Content: "Run the thermal compensation cycle and re-master the axis.",
	})

	router := chi.NewRouter()
	router.Post("/gaps/{id}/resolve", handler.Resolve)

	w := routedRequest(t, router, http.MethodPost, "/gaps/g1/resolve", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data AtomResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a9", resp.Data.ID)
}

func TestGapHandler_ResolveAlreadyResolved(t *testing.T) {
	gaps := &MockGapService{}
	atoms := &MockAtomService{}
	handler := NewGapHandler(gaps, atoms)

	atoms.On("PromoteGap", mock.Anything, "g1", mock.Anything).
		Return(nil, &domain.DomainError{Code: domain.ErrCodeValidation, Message: "gap is already resolved"})

	body, _ := json.Marshal(CreateAtomRequest{Type: "fault", Title: "t", Content: "c"})

	router := chi.NewRouter()
	router.Post("/gaps/{id}/resolve", handler.Resolve)

	w := routedRequest(t, router, http.MethodPost, "/gaps/g1/resolve", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGapHandler_Dismiss(t *testing.T) {
	gaps := &MockGapService{}
	handler := NewGapHandler(gaps, &MockAtomService{})

	gaps.On("Dismiss", mock.Anything, "g1").Return(nil)

	router := chi.NewRouter()
	router.Post("/gaps/{id}/dismiss", handler.Dismiss)

	w := routedRequest(t, router, http.MethodPost, "/gaps/g1/dismiss", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGapHandler_GetNotFound(t *testing.T) {
	gaps := &MockGapService{}
	handler := NewGapHandler(gaps, &MockAtomService{})

	gaps.On("Get", mock.Anything, "missing").Return(nil, domain.ErrGapNotFound)

	router := chi.NewRouter()
	router.Get("/gaps/{id}", handler.Get)

	w := routedRequest(t, router, http.MethodGet, "/gaps/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
