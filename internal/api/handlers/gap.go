package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fieldstack/mechanic/internal/api"
	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/go-chi/chi/v5"
)

type GapService interface {
	Get(ctx context.Context, id string) (*domain.Gap, error)
	PendingQueue(ctx context.Context, limit int) ([]*domain.Gap, error)
	Claim(ctx context.Context, id string) error
	Dismiss(ctx context.Context, id string) error
}

type GapHandler struct {
	gaps  GapService
	atoms AtomService
}

func NewGapHandler(gaps GapService, atoms AtomService) *GapHandler {
	return &GapHandler{gaps: gaps, atoms: atoms}
}

type GapResponse struct {
	ID              string  `json:"id"`
	Query           string  `json:"query"`
	Manufacturer    string  `json:"manufacturer,omitempty"`
	Model           string  `json:"model,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
	OccurrenceCount int     `json:"occurrence_count"`
	Priority        float64 `json:"priority"`
	ResearchStatus  string  `json:"research_status"`
	ResolvedAtomID  string  `json:"resolved_atom_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func gapToResponse(g *domain.Gap) *GapResponse {
	return &GapResponse{
		ID:              g.ID,
		Query:           g.Query,
		Manufacturer:    g.Manufacturer,
		Model:           g.Model,
		ConfidenceScore: g.ConfidenceScore,
		OccurrenceCount: g.OccurrenceCount,
		Priority:        g.Priority,
		ResearchStatus:  string(g.ResearchStatus),
		ResolvedAtomID:  g.ResolvedAtomID,
		CreatedAt:       g.CreatedAt.UTC().Format(timeFormat),
	}
}

// Pending lists open gaps in research-priority order.
func (h *GapHandler) Pending(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	gaps, err := h.gaps.PendingQueue(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*GapResponse, 0, len(gaps))
	for _, g := range gaps {
		items = append(items, gapToResponse(g))
	}
	api.Success(w, http.StatusOK, items)
}

func (h *GapHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	gap, err := h.gaps.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, gapToResponse(gap))
}

func (h *GapHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.gaps.Claim(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "in_progress"})
}

func (h *GapHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.gaps.Dismiss(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "failed"})
}

// Resolve promotes a gap into a knowledge atom. The atom create and the gap
// state change commit together.
func (h *GapHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	input, ok := decodeAtomInput(w, r)
	if !ok {
		return
	}

	atom, err := h.atoms.PromoteGap(r.Context(), id, input)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, atomToResponse(atom))
}
