package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fieldstack/mechanic/internal/api"
	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/go-chi/chi/v5"
)

type AtomService interface {
	Create(ctx context.Context, input service.CreateAtomInput) (*domain.Atom, error)
	Get(ctx context.Context, id string) (*domain.Atom, error)
	List(ctx context.Context, input service.ListAtomsInput) (*service.AtomPageResult, error)
	Verify(ctx context.Context, id string) (*domain.Atom, error)
	Supersede(ctx context.Context, oldID string, input service.CreateAtomInput) (*domain.Atom, error)
	PromoteGap(ctx context.Context, gapID string, input service.CreateAtomInput) (*domain.Atom, error)
}

type AtomHandler struct {
	svc AtomService
}

func NewAtomHandler(svc AtomService) *AtomHandler {
	return &AtomHandler{svc: svc}
}

type CreateAtomRequest struct {
	Type          string  `json:"type"`
	Manufacturer  string  `json:"manufacturer"`
	Model         string  `json:"model"`
	EquipmentType string  `json:"equipment_type"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	SourceURL     string  `json:"source_url"`
	Confidence    float64 `json:"confidence"`
	HumanVerified bool    `json:"human_verified"`
}

type AtomResponse struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Manufacturer   string  `json:"manufacturer,omitempty"`
	Model          string  `json:"model,omitempty"`
	EquipmentType  string  `json:"equipment_type,omitempty"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	SourceURL      string  `json:"source_url,omitempty"`
	Confidence     float64 `json:"confidence"`
	HumanVerified  bool    `json:"human_verified"`
	UsageCount     int     `json:"usage_count"`
	SupersededBy   string  `json:"superseded_by,omitempty"`
	CreatedAt      string  `json:"created_at"`
	LastVerifiedAt string  `json:"last_verified_at"`
}

type AtomListResponse struct {
	Items   []*AtomResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

const timeFormat = "2006-01-02T15:04:05Z"

func atomToResponse(a *domain.Atom) *AtomResponse {
	return &AtomResponse{
		ID:             a.ID,
		Type:           string(a.Type),
		Manufacturer:   a.Manufacturer,
		Model:          a.Model,
		EquipmentType:  a.EquipmentType,
		Title:          a.Title,
		Content:        a.Content,
		SourceURL:      a.SourceURL,
		Confidence:     a.Confidence,
		HumanVerified:  a.HumanVerified,
		UsageCount:     a.UsageCount,
		SupersededBy:   a.SupersededBy,
		CreatedAt:      a.CreatedAt.UTC().Format(timeFormat),
		LastVerifiedAt: a.LastVerifiedAt.UTC().Format(timeFormat),
	}
}

func decodeAtomInput(w http.ResponseWriter, r *http.Request) (service.CreateAtomInput, bool) {
	var req CreateAtomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return service.CreateAtomInput{}, false
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return service.CreateAtomInput{}, false
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return service.CreateAtomInput{}, false
	}
	if req.Type == "" {
		api.Error(w, http.StatusBadRequest, "type is required")
		return service.CreateAtomInput{}, false
	}

	return service.CreateAtomInput{
		Type:          domain.AtomType(req.Type),
		Manufacturer:  req.Manufacturer,
		Model:         req.Model,
		EquipmentType: req.EquipmentType,
		Title:         req.Title,
		Content:       req.Content,
		SourceURL:     req.SourceURL,
		Confidence:    req.Confidence,
		HumanVerified: req.HumanVerified,
	}, true
}

func (h *AtomHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeAtomInput(w, r)
	if !ok {
		return
	}

	atom, err := h.svc.Create(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, atomToResponse(atom))
}

func (h *AtomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	atom, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, atomToResponse(atom))
}

func (h *AtomHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	page, err := h.svc.List(r.Context(), service.ListAtomsInput{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*AtomResponse, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, atomToResponse(a))
	}

	api.Success(w, http.StatusOK, AtomListResponse{
		Items:   items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	})
}

func (h *AtomHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	atom, err := h.svc.Verify(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, atomToResponse(atom))
}

func (h *AtomHandler) Supersede(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	input, ok := decodeAtomInput(w, r)
	if !ok {
		return
	}

	replacement, err := h.svc.Supersede(r.Context(), id, input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, atomToResponse(replacement))
}
