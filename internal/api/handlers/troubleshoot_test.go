package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTroubleshootService is a mock implementation of TroubleshootService
type MockTroubleshootService struct {
	mock.Mock
}

func (m *MockTroubleshootService) Troubleshoot(ctx context.Context, query string, equip *domain.EquipmentContext) (*domain.TroubleshootResult, error) {
	args := m.Called(ctx, query, equip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TroubleshootResult), args.Error(1)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestTroubleshootHandler(t *testing.T) {
	svc := &MockTroubleshootService{}
	handler := NewTroubleshootHandler(svc)

	svc.On("Troubleshoot", mock.Anything, "drive trips with F0002 on decel", mock.Anything).
		Return(&domain.TroubleshootResult{
			Answer:     "check the braking resistor",
			Route:      domain.RouteKB,
			Confidence: 0.91,
			Sources:    []string{"a1"},
		}, nil)

	w := postJSON(t, handler.Troubleshoot, "/troubleshoot", TroubleshootRequest{
		Query: "drive trips with F0002 on decel",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data TroubleshootResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "kb", resp.Data.Route)
	assert.Equal(t, 0.91, resp.Data.Confidence)
	assert.Equal(t, []string{"a1"}, resp.Data.Sources)
}

func TestTroubleshootHandler_EquipmentContextPassedThrough(t *testing.T) {
	svc := &MockTroubleshootService{}
	handler := NewTroubleshootHandler(svc)

	expected := &domain.EquipmentContext{
		Manufacturer:          "siemens",
		Model:                 "G120",
		FaultCode:             "F0002",
		RecognitionConfidence: 0.9,
	}
	svc.On("Troubleshoot", mock.Anything, "trips on decel", expected).
		Return(&domain.TroubleshootResult{Route: domain.RouteSME, Confidence: 0.8}, nil)

	w := postJSON(t, handler.Troubleshoot, "/troubleshoot", TroubleshootRequest{
		Query: "trips on decel",
		Equipment: &EquipmentContextRequest{
			Manufacturer:          "siemens",
			Model:                 "G120",
			FaultCode:             "F0002",
			RecognitionConfidence: 0.9,
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTroubleshootHandler_ValidationError(t *testing.T) {
	svc := &MockTroubleshootService{}
	handler := NewTroubleshootHandler(svc)

	svc.On("Troubleshoot", mock.Anything, "", mock.Anything).
		Return(nil, domain.ErrEmptyQuery)

	w := postJSON(t, handler.Troubleshoot, "/troubleshoot", TroubleshootRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTroubleshootHandler_BadBody(t *testing.T) {
	handler := NewTroubleshootHandler(&MockTroubleshootService{})

	req := httptest.NewRequest(http.MethodPost, "/troubleshoot", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	handler.Troubleshoot(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTroubleshootHandler_ClarifyResponse(t *testing.T) {
	svc := &MockTroubleshootService{}
	handler := NewTroubleshootHandler(svc)

	svc.On("Troubleshoot", mock.Anything, "machine broken", mock.Anything).
		Return(&domain.TroubleshootResult{
			Route:               domain.RouteClarify,
			Confidence:          0.2,
			ClarificationPrompt: "Which manufacturer made this equipment?",
		}, nil)

	w := postJSON(t, handler.Troubleshoot, "/troubleshoot", TroubleshootRequest{Query: "machine broken"})

	var resp struct {
		Data TroubleshootResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "clarify", resp.Data.Route)
	assert.NotEmpty(t, resp.Data.ClarificationPrompt)
	assert.Empty(t, resp.Data.Answer)
}
