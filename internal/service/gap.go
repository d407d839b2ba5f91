package service

import (
	"context"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
)

// GapService exposes the research queue to handlers and the CLI. Gap
// creation happens inside the troubleshooting flow; this service only reads
// the queue and moves gaps through their lifecycle.
type GapService struct {
	repo GapRepositoryInterface
}

func NewGapService(repo GapRepositoryInterface) *GapService {
	return &GapService{repo: repo}
}

func (s *GapService) Get(ctx context.Context, id string) (*domain.Gap, error) {
	return s.repo.GetByID(ctx, id)
}

// PendingQueue returns open gaps in research-priority order.
func (s *GapService) PendingQueue(ctx context.Context, limit int) ([]*domain.Gap, error) {
	return s.repo.PendingQueue(ctx, limit)
}

// Claim moves a pending gap to in_progress for a researcher.
func (s *GapService) Claim(ctx context.Context, id string) error {
	return s.repo.MarkInProgress(ctx, id)
}

// Dismiss closes a gap as failed research. Dismissing an already resolved
// gap is a no-op.
func (s *GapService) Dismiss(ctx context.Context, id string) error {
	return s.repo.MarkResolved(ctx, id, domain.ResearchStatusFailed, "", time.Now().UTC())
}
