package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GapRepository struct {
	db dbtx
}

func NewGapRepository(pool *pgxpool.Pool) *GapRepository {
	return &GapRepository{db: pool}
}

func NewGapRepositoryWithTx(tx pgx.Tx) *GapRepository {
	return &GapRepository{db: tx}
}

const gapColumns = `id, query, manufacturer, model, confidence_score, occurrence_count,
	 priority, research_status, resolved_atom_id, created_at, resolved_at`

// CreateOrIncrement records a gap occurrence. A pending gap with the same
// (query, manufacturer, model) key absorbs the occurrence: its count goes up
// and its priority is recomputed with the original detection-time confidence.
// The partial unique index on pending gaps makes this race-safe. Returns the
// gap row after the write.
func (r *GapRepository) CreateOrIncrement(ctx context.Context, g *domain.Gap, vendorBoost float64) (*domain.Gap, error) {
	if vendorBoost < 1 {
		vendorBoost = 1
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO gaps (id, query, manufacturer, model, confidence_score, occurrence_count,
		                   priority, research_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, 1, (1 - $5::float8) * $6, 'pending', $7)
		 ON CONFLICT (query, manufacturer, model) WHERE research_status = 'pending'
		 DO UPDATE SET
		    occurrence_count = gaps.occurrence_count + 1,
		    priority = (gaps.occurrence_count + 1) * (1 - gaps.confidence_score) * $6
		 RETURNING `+gapColumns,
		g.ID, g.Query, g.Manufacturer, g.Model, g.ConfidenceScore, vendorBoost, g.CreatedAt,
	)
	return scanGap(row)
}

func (r *GapRepository) GetByID(ctx context.Context, id string) (*domain.Gap, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+gapColumns+` FROM gaps WHERE id = $1`,
		id,
	)
	g, err := scanGap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGapNotFound
		}
		return nil, err
	}
	return g, nil
}

// PendingQueue lists open gaps in research order: highest priority first,
// oldest first within a tie.
func (r *GapRepository) PendingQueue(ctx context.Context, limit int) ([]*domain.Gap, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+gapColumns+` FROM gaps
		 WHERE research_status = 'pending'
		 ORDER BY priority DESC, created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gaps []*domain.Gap
	for rows.Next() {
		g, err := scanGap(rows)
		if err != nil {
			return nil, err
		}
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}

// MarkResolved moves a gap out of the pending queue. Resolving an already
// resolved gap is a no-op rather than an error.
func (r *GapRepository) MarkResolved(ctx context.Context, id string, status domain.ResearchStatus, resolvedAtomID string, resolvedAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE gaps
		 SET research_status = $1, resolved_atom_id = $2, resolved_at = $3
		 WHERE id = $4 AND research_status IN ('pending', 'in_progress')`,
		status, nullableString(resolvedAtomID), resolvedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		// Distinguish missing from already resolved.
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM gaps WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrGapNotFound
		}
	}
	return nil
}

func (r *GapRepository) MarkInProgress(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE gaps SET research_status = 'in_progress'
		 WHERE id = $1 AND research_status = 'pending'`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrGapNotFound
	}
	return nil
}

func (r *GapRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM gaps WHERE research_status = 'pending'`,
	).Scan(&count)
	return count, err
}

func scanGap(row rowScanner) (*domain.Gap, error) {
	var g domain.Gap
	var resolvedAtomID *string

	err := row.Scan(
		&g.ID, &g.Query, &g.Manufacturer, &g.Model, &g.ConfidenceScore, &g.OccurrenceCount,
		&g.Priority, &g.ResearchStatus, &resolvedAtomID, &g.CreatedAt, &g.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if resolvedAtomID != nil {
		g.ResolvedAtomID = *resolvedAtomID
	}
	return &g, nil
}
