package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockManualRepository is a mock implementation of ManualRepositoryInterface
type MockManualRepository struct {
	mock.Mock
}

func (m *MockManualRepository) Create(ctx context.Context, manual *domain.Manual) error {
	args := m.Called(ctx, manual)
	return args.Error(0)
}

func (m *MockManualRepository) GetByID(ctx context.Context, id string) (*domain.Manual, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Manual), args.Error(1)
}

func (m *MockManualRepository) MarkReady(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockManualRepository) ListByManufacturer(ctx context.Context, manufacturer string) ([]*domain.Manual, error) {
	args := m.Called(ctx, manufacturer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Manual), args.Error(1)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) HeadObject(ctx context.Context, key string) (*storage.ObjectMetadata, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.ObjectMetadata), args.Error(1)
}

func (m *MockObjectStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type fixedUUIDGen struct {
	id string
}

func (g *fixedUUIDGen) NewString() string { return g.id }

func TestManualRegister(t *testing.T) {
	repo := &MockManualRepository{}
	store := &MockObjectStore{}
	svc := NewManualServiceWithUUIDGen(repo, store, &fixedUUIDGen{id: "m1"})

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("GenerateUploadURL", mock.Anything, "manuals/siemens/m1/g120-list.pdf", "application/pdf").
		Return("https://store/upload", nil)

	out, err := svc.Register(context.Background(), RegisterManualInput{
		Manufacturer: "Siemens",
		Model:        "G120",
		Filename:     "g120-list.pdf",
		ContentType:  "application/pdf",
		SHA256:       "abc123",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://store/upload", out.UploadURL)
	assert.Equal(t, domain.ManualStatusPendingUpload, out.Manual.Status)
	assert.Equal(t, "siemens", out.Manual.Manufacturer)
	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestManualRegister_ValidationFailure(t *testing.T) {
	svc := NewManualService(&MockManualRepository{}, &MockObjectStore{})

	_, err := svc.Register(context.Background(), RegisterManualInput{
		Manufacturer: "siemens",
		// Filename missing.
		SHA256: "abc",
	})
	assert.Error(t, err)
}

func pendingManual() *domain.Manual {
	return &domain.Manual{
		ID:           "m1",
		Manufacturer: "siemens",
		Filename:     "g120-list.pdf",
		SHA256:       "abc123",
		StorageKey:   "manuals/siemens/m1/g120-list.pdf",
		Status:       domain.ManualStatusPendingUpload,
	}
}

func TestManualConfirmUpload(t *testing.T) {
	repo := &MockManualRepository{}
	store := &MockObjectStore{}
	svc := NewManualService(repo, store)

	repo.On("GetByID", mock.Anything, "m1").Return(pendingManual(), nil)
	store.On("HeadObject", mock.Anything, "manuals/siemens/m1/g120-list.pdf").
		Return(&storage.ObjectMetadata{ContentLength: 1024}, nil)
	repo.On("MarkReady", mock.Anything, "m1").Return(nil)

	manual, err := svc.ConfirmUpload(context.Background(), "m1", "ABC123")
	require.NoError(t, err)
	assert.Equal(t, domain.ManualStatusReady, manual.Status)
}

func TestManualConfirmUpload_SHA256Mismatch(t *testing.T) {
	repo := &MockManualRepository{}
	store := &MockObjectStore{}
	svc := NewManualService(repo, store)

	repo.On("GetByID", mock.Anything, "m1").Return(pendingManual(), nil)
	store.On("DeleteObject", mock.Anything, "manuals/siemens/m1/g120-list.pdf").Return(nil)

	_, err := svc.ConfirmUpload(context.Background(), "m1", "different")
	assert.ErrorIs(t, err, domain.ErrSHA256Mismatch)
	repo.AssertNotCalled(t, "MarkReady", mock.Anything, mock.Anything)
}

func TestManualConfirmUpload_ObjectMissing(t *testing.T) {
	repo := &MockManualRepository{}
	store := &MockObjectStore{}
	svc := NewManualService(repo, store)

	repo.On("GetByID", mock.Anything, "m1").Return(pendingManual(), nil)
	store.On("HeadObject", mock.Anything, mock.Anything).Return(nil, errors.New("404"))

	_, err := svc.ConfirmUpload(context.Background(), "m1", "abc123")
	assert.ErrorIs(t, err, domain.ErrManualUploadPending)
}

func TestManualDownloadURL_PendingRejected(t *testing.T) {
	repo := &MockManualRepository{}
	store := &MockObjectStore{}
	svc := NewManualService(repo, store)

	repo.On("GetByID", mock.Anything, "m1").Return(pendingManual(), nil)

	_, err := svc.DownloadURL(context.Background(), "m1")
	assert.ErrorIs(t, err, domain.ErrManualUploadPending)
}

func TestManualDownloadURL(t *testing.T) {
	repo := &MockManualRepository{}
	store := &MockObjectStore{}
	svc := NewManualService(repo, store)

	ready := pendingManual()
	ready.Status = domain.ManualStatusReady
	repo.On("GetByID", mock.Anything, "m1").Return(ready, nil)
	store.On("GenerateDownloadURL", mock.Anything, ready.StorageKey).Return("https://store/dl", nil)

	url, err := svc.DownloadURL(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "https://store/dl", url)
}
