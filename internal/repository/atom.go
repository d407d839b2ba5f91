package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/pagination"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type AtomRepository struct {
	db         dbtx
	dimensions int
}

func NewAtomRepository(pool *pgxpool.Pool, dimensions int) *AtomRepository {
	return &AtomRepository{db: pool, dimensions: dimensions}
}

func NewAtomRepositoryWithTx(tx pgx.Tx, dimensions int) *AtomRepository {
	return &AtomRepository{db: tx, dimensions: dimensions}
}

const atomColumns = `id, type, manufacturer, model, equipment_type, title, content, source_url,
	 confidence, human_verified, usage_count, superseded_by, created_at, last_verified_at`

func (r *AtomRepository) Create(ctx context.Context, a *domain.Atom) error {
	var vec *pgvector.Vector
	if a.Embedding != nil {
		if len(a.Embedding) != r.dimensions {
			return domain.ErrEmbeddingDimension
		}
		v := pgvector.NewVector(a.Embedding)
		vec = &v
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO atoms (id, type, manufacturer, model, equipment_type, title, content, source_url,
		                    confidence, human_verified, usage_count, embedding, created_at, last_verified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.Type, nullableString(a.Manufacturer), nullableString(a.Model), nullableString(a.EquipmentType),
		a.Title, a.Content, nullableString(a.SourceURL),
		a.Confidence, a.HumanVerified, a.UsageCount, vec, a.CreatedAt, a.LastVerifiedAt,
	)
	return err
}

func (r *AtomRepository) GetByID(ctx context.Context, id string) (*domain.Atom, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+atomColumns+` FROM atoms WHERE id = $1`,
		id,
	)
	a, err := scanAtom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAtomNotFound
		}
		return nil, err
	}
	return a, nil
}

// Search applies the hard filters first, then ranks the remaining candidates
// by cosine similarity. Atoms with no embedding yet and superseded atoms are
// never returned. A nil manufacturer/equipment-type filter matches
// everything; a set filter also admits atoms that carry no value for that
// field, so vendor-agnostic knowledge stays reachable.
func (r *AtomRepository) Search(ctx context.Context, embedding []float32, filters service.SearchFilters, limit int) ([]*service.AtomMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	if len(embedding) != r.dimensions {
		return nil, domain.ErrEmbeddingDimension
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT ` + atomColumns + `, 1.0 - (embedding <=> $1) AS similarity
		FROM atoms
		WHERE embedding IS NOT NULL AND superseded_by IS NULL AND confidence >= $2`
	args := []interface{}{vec, filters.MinConfidence}

	if filters.Manufacturer != "" {
		args = append(args, filters.Manufacturer)
		query += ` AND (manufacturer IS NULL OR lower(manufacturer) = lower($` + argn(len(args)) + `))`
	}
	if filters.EquipmentType != "" {
		args = append(args, filters.EquipmentType)
		query += ` AND (equipment_type IS NULL OR lower(equipment_type) = lower($` + argn(len(args)) + `))`
	}
	if len(filters.Types) > 0 {
		args = append(args, filters.Types)
		query += ` AND type = ANY($` + argn(len(args)) + `)`
	}

	args = append(args, limit)
	query += `
		ORDER BY embedding <=> $1
		LIMIT $` + argn(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*service.AtomMatch
	for rows.Next() {
		var m service.AtomMatch
		a, err := scanAtomWithSimilarity(rows, &m.Similarity)
		if err != nil {
			return nil, err
		}
		m.Atom = a
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// IncrementUsage bumps the retrieval counter. Lost updates under concurrent
// access are acceptable; callers treat errors as best-effort.
func (r *AtomRepository) IncrementUsage(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE atoms SET usage_count = usage_count + 1 WHERE id = $1`,
		id,
	)
	return err
}

func (r *AtomRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	if len(embedding) != r.dimensions {
		return domain.ErrEmbeddingDimension
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE atoms SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAtomNotFound
	}
	return nil
}

// MarkVerified refreshes the re-validation timestamp and flags the atom as
// human verified.
func (r *AtomRepository) MarkVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE atoms SET human_verified = TRUE, last_verified_at = $1 WHERE id = $2`,
		verifiedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAtomNotFound
	}
	return nil
}

// SetSupersededBy links an old atom to its replacement. Atoms are never
// deleted, only superseded.
func (r *AtomRepository) SetSupersededBy(ctx context.Context, oldID, newID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE atoms SET superseded_by = $1 WHERE id = $2 AND superseded_by IS NULL`,
		newID, oldID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAtomNotFound
	}
	return nil
}

// ListUnembedded returns atoms awaiting embedding backfill, oldest first.
func (r *AtomRepository) ListUnembedded(ctx context.Context, limit int) ([]*domain.Atom, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+atomColumns+` FROM atoms
		 WHERE embedding IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAtomRows(rows)
}

func (r *AtomRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.AtomPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+atomColumns+` FROM atoms
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+atomColumns+` FROM atoms
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanAtomRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.AtomPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// Stats aggregates the read-only monitoring counters.
func (r *AtomRepository) Stats(ctx context.Context) (*service.StoreStats, error) {
	var stats service.StoreStats
	err := r.db.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE human_verified),
		        coalesce(avg(confidence), 0)
		 FROM atoms WHERE superseded_by IS NULL`,
	).Scan(&stats.TotalAtoms, &stats.VerifiedAtoms, &stats.AvgConfidence)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *AtomRepository) TopByUsage(ctx context.Context, limit int) ([]*domain.Atom, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+atomColumns+` FROM atoms
		 WHERE superseded_by IS NULL AND usage_count > 0
		 ORDER BY usage_count DESC, created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAtomRows(rows)
}

func argn(n int) string {
	const digits = "0123456789"
	if n < 10 {
		return digits[n : n+1]
	}
	return digits[n/10:n/10+1] + digits[n%10:n%10+1]
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAtom(row rowScanner) (*domain.Atom, error) {
	return scanAtomWithSimilarity(row, nil)
}

func scanAtomWithSimilarity(row rowScanner, similarity *float64) (*domain.Atom, error) {
	var a domain.Atom
	var manufacturer, model, equipmentType, sourceURL, supersededBy *string

	dest := []any{
		&a.ID, &a.Type, &manufacturer, &model, &equipmentType, &a.Title, &a.Content, &sourceURL,
		&a.Confidence, &a.HumanVerified, &a.UsageCount, &supersededBy, &a.CreatedAt, &a.LastVerifiedAt,
	}
	if similarity != nil {
		dest = append(dest, similarity)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if manufacturer != nil {
		a.Manufacturer = *manufacturer
	}
	if model != nil {
		a.Model = *model
	}
	if equipmentType != nil {
		a.EquipmentType = *equipmentType
	}
	if sourceURL != nil {
		a.SourceURL = *sourceURL
	}
	if supersededBy != nil {
		a.SupersededBy = *supersededBy
	}
	return &a, nil
}

func scanAtomRows(rows pgx.Rows) ([]*domain.Atom, error) {
	var results []*domain.Atom
	for rows.Next() {
		a, err := scanAtom(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
