package handlers

import (
	"context"
	"net/http"

	"github.com/fieldstack/mechanic/internal/api"
	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/service"
)

type StatsService interface {
	Stats(ctx context.Context) (*service.StoreStats, error)
	TopByUsage(ctx context.Context, limit int) ([]*domain.Atom, error)
}

type StatsHandler struct {
	svc StatsService
}

func NewStatsHandler(svc StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

type StatsResponse struct {
	TotalAtoms    int             `json:"total_atoms"`
	VerifiedAtoms int             `json:"verified_atoms"`
	AvgConfidence float64         `json:"avg_confidence"`
	PendingGaps   int             `json:"pending_gaps"`
	TopAtoms      []*AtomResponse `json:"top_atoms,omitempty"`
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	top, err := h.svc.TopByUsage(r.Context(), 5)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := StatsResponse{
		TotalAtoms:    stats.TotalAtoms,
		VerifiedAtoms: stats.VerifiedAtoms,
		AvgConfidence: stats.AvgConfidence,
		PendingGaps:   stats.PendingGaps,
	}
	for _, a := range top {
		resp.TopAtoms = append(resp.TopAtoms, atomToResponse(a))
	}

	api.Success(w, http.StatusOK, resp)
}
