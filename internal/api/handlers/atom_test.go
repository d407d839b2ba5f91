package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAtomService is a mock implementation of AtomService
type MockAtomService struct {
	mock.Mock
}

func (m *MockAtomService) Create(ctx context.Context, input service.CreateAtomInput) (*domain.Atom, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Atom), args.Error(1)
}

func (m *MockAtomService) Get(ctx context.Context, id string) (*domain.Atom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Atom), args.Error(1)
}

func (m *MockAtomService) List(ctx context.Context, input service.ListAtomsInput) (*service.AtomPageResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AtomPageResult), args.Error(1)
}

func (m *MockAtomService) Verify(ctx context.Context, id string) (*domain.Atom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Atom), args.Error(1)
}

func (m *MockAtomService) Supersede(ctx context.Context, oldID string, input service.CreateAtomInput) (*domain.Atom, error) {
	args := m.Called(ctx, oldID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Atom), args.Error(1)
}

func (m *MockAtomService) PromoteGap(ctx context.Context, gapID string, input service.CreateAtomInput) (*domain.Atom, error) {
	args := m.Called(ctx, gapID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Atom), args.Error(1)
}

func sampleAtom(id string) *domain.Atom {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	return &domain.Atom{
		ID:             id,
		Type:           domain.AtomTypeFault,
		Manufacturer:   "siemens",
		Title:          "F0002 overvoltage",
		Content:        "Extend the deceleration ramp or fit a braking resistor.",
		Confidence:     0.9,
		CreatedAt:      now,
		LastVerifiedAt: now,
	}
}

func routedRequest(t *testing.T, router chi.Router, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAtomHandler_Create(t *testing.T) {
	svc := &MockAtomService{}
	handler := NewAtomHandler(svc)

	svc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateAtomInput) bool {
		return in.Title == "F0002 overvoltage" && in.Type == domain.AtomTypeFault
	})).Return(sampleAtom("a1"), nil)

	body, _ := json.Marshal(CreateAtomRequest{
		Type:       "fault",
		Title:      "F0002 overvoltage",
		Content:    "Extend the deceleration ramp or fit a braking resistor.",
		Confidence: 0.9,
	})

	req := httptest.NewRequest(http.MethodPost, "/atoms", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data AtomResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a1", resp.Data.ID)
	assert.Equal(t, "fault", resp.Data.Type)
}

func TestAtomHandler_CreateMissingFields(t *testing.T) {
	handler := NewAtomHandler(&MockAtomService{})

	body, _ := json.Marshal(CreateAtomRequest{Type: "fault", Title: "x"})
	req := httptest.NewRequest(http.MethodPost, "/atoms", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAtomHandler_Get(t *testing.T) {
	svc := &MockAtomService{}
	handler := NewAtomHandler(svc)
	svc.On("Get", mock.Anything, "a1").Return(sampleAtom("a1"), nil)

	router := chi.NewRouter()
	router.Get("/atoms/{id}", handler.Get)

	w := routedRequest(t, router, http.MethodGet, "/atoms/a1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAtomHandler_GetNotFound(t *testing.T) {
	svc := &MockAtomService{}
	handler := NewAtomHandler(svc)
	svc.On("Get", mock.Anything, "missing").Return(nil, domain.ErrAtomNotFound)

	router := chi.NewRouter()
	router.Get("/atoms/{id}", handler.Get)

	w := routedRequest(t, router, http.MethodGet, "/atoms/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAtomHandler_List(t *testing.T) {
	svc := &MockAtomService{}
	handler := NewAtomHandler(svc)

	svc.On("List", mock.Anything, service.ListAtomsInput{Limit: 2}).
		Return(&service.AtomPageResult{
			Items:      []*domain.Atom{sampleAtom("a1"), sampleAtom("a2")},
			NextCursor: "next",
			HasMore:    true,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/atoms?limit=2", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data AtomListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Items, 2)
	assert.True(t, resp.Data.HasMore)
	assert.Equal(t, "next", resp.Data.Cursor)
}

func TestAtomHandler_ListBadLimit(t *testing.T) {
	handler := NewAtomHandler(&MockAtomService{})

	req := httptest.NewRequest(http.MethodGet, "/atoms?limit=500", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAtomHandler_Verify(t *testing.T) {
	svc := &MockAtomService{}
	handler := NewAtomHandler(svc)

	verified := sampleAtom("a1")
	verified.HumanVerified = true
	svc.On("Verify", mock.Anything, "a1").Return(verified, nil)

	router := chi.NewRouter()
	router.Post("/atoms/{id}/verify", handler.Verify)

	w := routedRequest(t, router, http.MethodPost, "/atoms/a1/verify", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data AtomResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.HumanVerified)
}

func TestAtomHandler_Supersede(t *testing.T) {
	svc := &MockAtomService{}
	handler := NewAtomHandler(svc)

	svc.On("Supersede", mock.Anything, "a1", mock.Anything).Return(sampleAtom("a2"), nil)

	body, _ := json.Marshal(CreateAtomRequest{
		Type:    "fault",
		Title:   "F0002 overvoltage, revised",
		Content: "Fit a braking resistor sized for the duty cycle.",
	})

	router := chi.NewRouter()
	router.Post("/atoms/{id}/supersede", handler.Supersede)

	w := routedRequest(t, router, http.MethodPost, "/atoms/a1/supersede", body)
	assert.Equal(t, http.StatusCreated, w.Code)
}
