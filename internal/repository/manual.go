package repository

import (
	"context"
	"errors"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ManualRepository struct {
	db dbtx
}

func NewManualRepository(pool *pgxpool.Pool) *ManualRepository {
	return &ManualRepository{db: pool}
}

const manualColumns = `id, manufacturer, model, filename, content_type, sha256, storage_key, status, created_at`

func (r *ManualRepository) Create(ctx context.Context, m *domain.Manual) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO manuals (id, manufacturer, model, filename, content_type, sha256, storage_key, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.Manufacturer, nullableString(m.Model), m.Filename, nullableString(m.ContentType),
		m.SHA256, m.StorageKey, m.Status, m.CreatedAt,
	)
	return err
}

func (r *ManualRepository) GetByID(ctx context.Context, id string) (*domain.Manual, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+manualColumns+` FROM manuals WHERE id = $1`,
		id,
	)
	m, err := scanManual(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrManualNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *ManualRepository) MarkReady(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE manuals SET status = 'ready' WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrManualNotFound
	}
	return nil
}

// ListByManufacturer lists ready manuals for a vendor, newest first.
func (r *ManualRepository) ListByManufacturer(ctx context.Context, manufacturer string) ([]*domain.Manual, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+manualColumns+` FROM manuals
		 WHERE lower(manufacturer) = lower($1) AND status = 'ready'
		 ORDER BY created_at DESC`,
		manufacturer,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var manuals []*domain.Manual
	for rows.Next() {
		m, err := scanManual(rows)
		if err != nil {
			return nil, err
		}
		manuals = append(manuals, m)
	}
	return manuals, rows.Err()
}

func scanManual(row rowScanner) (*domain.Manual, error) {
	var m domain.Manual
	var model, contentType *string

	err := row.Scan(
		&m.ID, &m.Manufacturer, &model, &m.Filename, &contentType,
		&m.SHA256, &m.StorageKey, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if model != nil {
		m.Model = *model
	}
	if contentType != nil {
		m.ContentType = *contentType
	}
	return &m, nil
}
