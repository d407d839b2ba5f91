package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/service"
)

// BackfillAtomRepository defines the interface for backfill persistence
type BackfillAtomRepository interface {
	ListUnembedded(ctx context.Context, limit int) ([]*domain.Atom, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// BatchEmbedder generates embeddings for a batch of texts in one provider call
type BatchEmbedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// BackfillWorker embeds atoms that were imported or created without an
// embedding. There is no job table; the unembedded atoms themselves are the
// queue, so a crashed run simply reprocesses them on the next tick.
type BackfillWorker struct {
	repo      BackfillAtomRepository
	embedder  BatchEmbedder
	batchSize int
}

// NewBackfillWorker creates a new BackfillWorker instance
func NewBackfillWorker(repo BackfillAtomRepository, embedder BatchEmbedder, batchSize int) *BackfillWorker {
	if batchSize <= 0 {
		batchSize = 16
	}
	return &BackfillWorker{
		repo:      repo,
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *BackfillWorker) ProcessJobs(ctx context.Context) error {
	atoms, err := w.repo.ListUnembedded(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list unembedded atoms: %w", err)
	}
	if len(atoms) == 0 {
		return nil
	}

	log.Printf("Backfilling embeddings for %d atoms", len(atoms))

	texts := make([]string, len(atoms))
	for i, a := range atoms {
		texts[i] = service.EmbeddingText(a)
	}

	embeddings, err := w.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(atoms) {
		return fmt.Errorf("embedding count mismatch: got %d for %d atoms", len(embeddings), len(atoms))
	}

	// Store per atom so one bad row does not discard the whole batch.
	for i, a := range atoms {
		if err := w.repo.UpdateEmbedding(ctx, a.ID, embeddings[i]); err != nil {
			log.Printf("Error storing embedding for atom %s: %v", a.ID, err)
		}
	}

	return nil
}
