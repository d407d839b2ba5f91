package domain

import (
	"fmt"
	"time"
)

// ManualStatus represents the upload state of an equipment manual
type ManualStatus string

const (
	ManualStatusPendingUpload ManualStatus = "pending_upload"
	ManualStatusReady         ManualStatus = "ready"
)

// Manual represents an equipment manual document stored in object storage.
// Atoms reference manuals through their SourceURL.
type Manual struct {
	ID           string
	Manufacturer string
	Model        string
	Filename     string
	ContentType  string
	SHA256       string
	StorageKey   string
	Status       ManualStatus
	CreatedAt    time.Time
}

// NewManual creates a Manual in the pending-upload state.
func NewManual(id, manufacturer, model, filename, contentType, sha256, storageKey string, createdAt time.Time) *Manual {
	return &Manual{
		ID:           id,
		Manufacturer: manufacturer,
		Model:        model,
		Filename:     filename,
		ContentType:  contentType,
		SHA256:       sha256,
		StorageKey:   storageKey,
		Status:       ManualStatusPendingUpload,
		CreatedAt:    createdAt,
	}
}

// ValidateManual validates a Manual instance
func ValidateManual(m *Manual) error {
	if m == nil {
		return fmt.Errorf("manual cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("manual ID is required")
	}

	if m.Manufacturer == "" {
		return fmt.Errorf("manual Manufacturer is required")
	}

	if m.Filename == "" {
		return fmt.Errorf("manual Filename is required")
	}

	if m.SHA256 == "" {
		return fmt.Errorf("manual SHA256 is required")
	}

	switch m.Status {
	case ManualStatusPendingUpload, ManualStatusReady:
	default:
		return fmt.Errorf("manual Status is invalid: %s", m.Status)
	}

	return nil
}
