//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManual(manufacturer string) *domain.Manual {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()
	return domain.NewManual(
		id, manufacturer, "G120", "g120-operating-instructions.pdf",
		"application/pdf", "deadbeef", "manuals/"+manufacturer+"/"+id+"/g120-operating-instructions.pdf",
		now,
	)
}

func TestManualRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewManualRepository(pool)

	m := testManual("siemens")
	require.NoError(t, repo.Create(ctx, m))

	retrieved, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ManualStatusPendingUpload, retrieved.Status)
	assert.Equal(t, m.StorageKey, retrieved.StorageKey)

	// Pending manuals are invisible to listing.
	listed, err := repo.ListByManufacturer(ctx, "siemens")
	require.NoError(t, err)
	assert.Empty(t, listed)

	require.NoError(t, repo.MarkReady(ctx, m.ID))

	listed, err = repo.ListByManufacturer(ctx, "Siemens")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, domain.ManualStatusReady, listed[0].Status)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrManualNotFound)
}
