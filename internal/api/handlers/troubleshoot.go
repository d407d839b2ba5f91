package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fieldstack/mechanic/internal/api"
	"github.com/fieldstack/mechanic/internal/domain"
)

type TroubleshootService interface {
	Troubleshoot(ctx context.Context, query string, equip *domain.EquipmentContext) (*domain.TroubleshootResult, error)
}

type TroubleshootHandler struct {
	svc TroubleshootService
}

func NewTroubleshootHandler(svc TroubleshootService) *TroubleshootHandler {
	return &TroubleshootHandler{svc: svc}
}

type EquipmentContextRequest struct {
	Manufacturer          string  `json:"manufacturer"`
	Model                 string  `json:"model"`
	FaultCode             string  `json:"fault_code"`
	EquipmentType         string  `json:"equipment_type"`
	RecognitionConfidence float64 `json:"recognition_confidence"`
}

type TroubleshootRequest struct {
	Query     string                   `json:"query"`
	Equipment *EquipmentContextRequest `json:"equipment,omitempty"`
}

type TroubleshootResponse struct {
	Answer              string   `json:"answer,omitempty"`
	Route               string   `json:"route"`
	Confidence          float64  `json:"confidence"`
	Sources             []string `json:"sources,omitempty"`
	SafetyWarnings      []string `json:"safety_warnings,omitempty"`
	ClarificationPrompt string   `json:"clarification_prompt,omitempty"`
	GapLogged           bool     `json:"gap_logged"`
}

func (h *TroubleshootHandler) Troubleshoot(w http.ResponseWriter, r *http.Request) {
	var req TroubleshootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var equip *domain.EquipmentContext
	if req.Equipment != nil {
		equip = &domain.EquipmentContext{
			Manufacturer:          req.Equipment.Manufacturer,
			Model:                 req.Equipment.Model,
			FaultCode:             req.Equipment.FaultCode,
			EquipmentType:         req.Equipment.EquipmentType,
			RecognitionConfidence: req.Equipment.RecognitionConfidence,
		}
	}

	result, err := h.svc.Troubleshoot(r.Context(), req.Query, equip)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TroubleshootResponse{
		Answer:              result.Answer,
		Route:               string(result.Route),
		Confidence:          result.Confidence,
		Sources:             result.Sources,
		SafetyWarnings:      result.SafetyWarnings,
		ClarificationPrompt: result.ClarificationPrompt,
		GapLogged:           result.GapLogged,
	})
}
