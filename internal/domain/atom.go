package domain

import (
	"fmt"
	"time"
)

// AtomType represents the kind of knowledge an atom carries
type AtomType string

const (
	AtomTypeFault     AtomType = "fault"
	AtomTypeProcedure AtomType = "procedure"
	AtomTypeSpec      AtomType = "spec"
	AtomTypePart      AtomType = "part"
	AtomTypeTip       AtomType = "tip"
	AtomTypeSafety    AtomType = "safety"
)

// Atom represents a single verified unit of equipment knowledge.
// Atoms are never deleted; a revised atom supersedes the old one and the
// old row keeps a reference to its replacement.
type Atom struct {
	ID             string
	Type           AtomType
	Manufacturer   string // optional, canonical vendor id
	Model          string // optional
	EquipmentType  string // optional
	Title          string
	Content        string
	SourceURL      string // optional
	Confidence     float64
	HumanVerified  bool
	UsageCount     int
	Embedding      []float32 // nil until the backfill worker has run
	SupersededBy   string    // id of the replacing atom, empty while current
	CreatedAt      time.Time
	LastVerifiedAt time.Time
}

// NewAtom creates a new Atom instance
func NewAtom(
	id string,
	atomType AtomType,
	manufacturer, model, equipmentType string,
	title, content, sourceURL string,
	confidence float64,
	humanVerified bool,
	createdAt time.Time,
) *Atom {
	return &Atom{
		ID:             id,
		Type:           atomType,
		Manufacturer:   manufacturer,
		Model:          model,
		EquipmentType:  equipmentType,
		Title:          title,
		Content:        content,
		SourceURL:      sourceURL,
		Confidence:     confidence,
		HumanVerified:  humanVerified,
		UsageCount:     0,
		CreatedAt:      createdAt,
		LastVerifiedAt: createdAt,
	}
}

// IsCurrent reports whether the atom has not been superseded.
func (a *Atom) IsCurrent() bool {
	return a.SupersededBy == ""
}

// ValidateAtom validates an Atom instance
func ValidateAtom(a *Atom) error {
	if a == nil {
		return fmt.Errorf("atom cannot be nil")
	}

	if a.ID == "" {
		return fmt.Errorf("atom ID is required")
	}

	if a.Title == "" {
		return fmt.Errorf("atom Title is required")
	}

	if a.Content == "" {
		return fmt.Errorf("atom Content is required")
	}

	if !isValidAtomType(a.Type) {
		return fmt.Errorf("atom Type is invalid: %s", a.Type)
	}

	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("atom Confidence must be within [0,1], got %f", a.Confidence)
	}

	if a.UsageCount < 0 {
		return fmt.Errorf("atom UsageCount cannot be negative")
	}

	return nil
}

// isValidAtomType checks if an AtomType is valid
func isValidAtomType(t AtomType) bool {
	switch t {
	case AtomTypeFault, AtomTypeProcedure, AtomTypeSpec,
		AtomTypePart, AtomTypeTip, AtomTypeSafety:
		return true
	}
	return false
}
