package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fieldstack/mechanic/internal/api"
	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/go-chi/chi/v5"
)

type ManualService interface {
	Register(ctx context.Context, input service.RegisterManualInput) (*service.RegisterManualOutput, error)
	ConfirmUpload(ctx context.Context, id, sha256 string) (*domain.Manual, error)
	DownloadURL(ctx context.Context, id string) (string, error)
	ListByManufacturer(ctx context.Context, manufacturer string) ([]*domain.Manual, error)
}

type ManualHandler struct {
	svc ManualService
}

func NewManualHandler(svc ManualService) *ManualHandler {
	return &ManualHandler{svc: svc}
}

type RegisterManualRequest struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Filename     string `json:"filename"`
	ContentType  string `json:"content_type"`
	SHA256       string `json:"sha256"`
}

type ConfirmManualRequest struct {
	SHA256 string `json:"sha256"`
}

type ManualResponse struct {
	ID           string `json:"id"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model,omitempty"`
	Filename     string `json:"filename"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

func manualToResponse(m *domain.Manual) *ManualResponse {
	return &ManualResponse{
		ID:           m.ID,
		Manufacturer: m.Manufacturer,
		Model:        m.Model,
		Filename:     m.Filename,
		Status:       string(m.Status),
		CreatedAt:    m.CreatedAt.UTC().Format(timeFormat),
	}
}

type RegisterManualResponse struct {
	Manual    *ManualResponse `json:"manual"`
	UploadURL string          `json:"upload_url"`
}

func (h *ManualHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Manufacturer == "" || req.Filename == "" || req.SHA256 == "" {
		api.Error(w, http.StatusBadRequest, "manufacturer, filename and sha256 are required")
		return
	}

	out, err := h.svc.Register(r.Context(), service.RegisterManualInput{
		Manufacturer: req.Manufacturer,
		Model:        req.Model,
		Filename:     req.Filename,
		ContentType:  req.ContentType,
		SHA256:       req.SHA256,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, RegisterManualResponse{
		Manual:    manualToResponse(out.Manual),
		UploadURL: out.UploadURL,
	})
}

func (h *ManualHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req ConfirmManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	manual, err := h.svc.ConfirmUpload(r.Context(), id, req.SHA256)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, manualToResponse(manual))
}

func (h *ManualHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	url, err := h.svc.DownloadURL(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"download_url": url})
}

func (h *ManualHandler) List(w http.ResponseWriter, r *http.Request) {
	manufacturer := r.URL.Query().Get("manufacturer")
	if manufacturer == "" {
		api.Error(w, http.StatusBadRequest, "manufacturer is required")
		return
	}

	manuals, err := h.svc.ListByManufacturer(r.Context(), manufacturer)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ManualResponse, 0, len(manuals))
	for _, m := range manuals {
		items = append(items, manualToResponse(m))
	}
	api.Success(w, http.StatusOK, items)
}
