package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/storage"
)

// ManualRepositoryInterface defines the repository interface for manual persistence
type ManualRepositoryInterface interface {
	Create(ctx context.Context, m *domain.Manual) error
	GetByID(ctx context.Context, id string) (*domain.Manual, error)
	MarkReady(ctx context.Context, id string) error
	ListByManufacturer(ctx context.Context, manufacturer string) ([]*domain.Manual, error)
}

// ObjectStore is the object-storage contract the manual service needs.
type ObjectStore interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	HeadObject(ctx context.Context, key string) (*storage.ObjectMetadata, error)
	DeleteObject(ctx context.Context, key string) error
}

// ManualService manages equipment manual documents. Uploads go directly to
// object storage through presigned URLs; the service only tracks metadata and
// upload state.
type ManualService struct {
	repo    ManualRepositoryInterface
	store   ObjectStore
	uuidGen UUIDGenerator
}

func NewManualService(repo ManualRepositoryInterface, store ObjectStore) *ManualService {
	return &ManualService{
		repo:    repo,
		store:   store,
		uuidGen: &DefaultUUIDGenerator{},
	}
}

// NewManualServiceWithUUIDGen creates a ManualService with a custom UUID generator (for testing)
func NewManualServiceWithUUIDGen(repo ManualRepositoryInterface, store ObjectStore, uuidGen UUIDGenerator) *ManualService {
	s := NewManualService(repo, store)
	s.uuidGen = uuidGen
	return s
}

type RegisterManualInput struct {
	Manufacturer string
	Model        string
	Filename     string
	ContentType  string
	SHA256       string
}

type RegisterManualOutput struct {
	Manual    *domain.Manual
	UploadURL string
}

// Register records a manual in the pending-upload state and hands back a
// presigned upload URL.
func (s *ManualService) Register(ctx context.Context, input RegisterManualInput) (*RegisterManualOutput, error) {
	now := time.Now().UTC()
	id := s.uuidGen.NewString()
	key := manualStorageKey(id, input.Manufacturer, input.Filename)

	manual := domain.NewManual(id, strings.ToLower(strings.TrimSpace(input.Manufacturer)), input.Model,
		input.Filename, input.ContentType, input.SHA256, key, now)
	if err := domain.ValidateManual(manual); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, manual); err != nil {
		return nil, err
	}

	uploadURL, err := s.store.GenerateUploadURL(ctx, key, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("generate upload url: %w", err)
	}

	return &RegisterManualOutput{Manual: manual, UploadURL: uploadURL}, nil
}

// ConfirmUpload verifies the uploaded object and flips the manual to ready.
// The caller re-declares the file's SHA256; a mismatch with the registered
// hash rejects the confirmation and removes the stored object.
func (s *ManualService) ConfirmUpload(ctx context.Context, id, sha256 string) (*domain.Manual, error) {
	manual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(manual.SHA256, sha256) {
		if err := s.store.DeleteObject(ctx, manual.StorageKey); err != nil {
			log.Printf("manual %s: cleanup of mismatched upload failed: %v", id, err)
		}
		return nil, domain.ErrSHA256Mismatch
	}

	meta, err := s.store.HeadObject(ctx, manual.StorageKey)
	if err != nil {
		return nil, domain.ErrManualUploadPending
	}
	if meta.ContentLength == 0 {
		return nil, domain.ErrManualUploadPending
	}

	if err := s.repo.MarkReady(ctx, id); err != nil {
		return nil, err
	}
	manual.Status = domain.ManualStatusReady
	return manual, nil
}

// DownloadURL returns a presigned download URL for a ready manual.
func (s *ManualService) DownloadURL(ctx context.Context, id string) (string, error) {
	manual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if manual.Status != domain.ManualStatusReady {
		return "", domain.ErrManualUploadPending
	}
	return s.store.GenerateDownloadURL(ctx, manual.StorageKey)
}

// ListByManufacturer lists ready manuals for a vendor.
func (s *ManualService) ListByManufacturer(ctx context.Context, manufacturer string) ([]*domain.Manual, error) {
	return s.repo.ListByManufacturer(ctx, manufacturer)
}

func manualStorageKey(id, manufacturer, filename string) string {
	vendor := strings.ToLower(strings.TrimSpace(manufacturer))
	if vendor == "" {
		vendor = "unspecified"
	}
	return fmt.Sprintf("manuals/%s/%s/%s", vendor, id, filename)
}
