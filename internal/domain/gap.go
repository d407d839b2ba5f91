package domain

import (
	"fmt"
	"time"
)

// ResearchStatus represents the lifecycle state of a knowledge gap
type ResearchStatus string

const (
	ResearchStatusPending    ResearchStatus = "pending"
	ResearchStatusInProgress ResearchStatus = "in_progress"
	ResearchStatusCompleted  ResearchStatus = "completed"
	ResearchStatusFailed     ResearchStatus = "failed"
)

// Gap represents a logged query whose confidence fell below the point of
// safe, unqualified answering. At most one pending gap exists per distinct
// (query, manufacturer, model) key; repeat submissions increment
// OccurrenceCount instead of creating a new row.
type Gap struct {
	ID              string
	Query           string
	Manufacturer    string // empty when unknown, part of the dedup key
	Model           string // empty when unknown, part of the dedup key
	ConfidenceScore float64
	OccurrenceCount int
	Priority        float64
	ResearchStatus  ResearchStatus
	ResolvedAtomID  string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

// NewGap creates a new pending Gap with a single occurrence.
func NewGap(id, query, manufacturer, model string, confidenceScore, vendorBoost float64, createdAt time.Time) *Gap {
	g := &Gap{
		ID:              id,
		Query:           query,
		Manufacturer:    manufacturer,
		Model:           model,
		ConfidenceScore: confidenceScore,
		OccurrenceCount: 1,
		ResearchStatus:  ResearchStatusPending,
		CreatedAt:       createdAt,
	}
	g.Priority = GapPriority(g.OccurrenceCount, g.ConfidenceScore, vendorBoost)
	return g
}

// GapPriority computes the research priority for a gap. Priority grows with
// repeat occurrences, shrinks as detection-time confidence approaches 1, and
// is scaled by the vendor boost for high-value manufacturers.
func GapPriority(occurrenceCount int, confidenceScore, vendorBoost float64) float64 {
	if vendorBoost < 1 {
		vendorBoost = 1
	}
	return float64(occurrenceCount) * (1 - confidenceScore) * vendorBoost
}

// IsResolved reports whether the gap has reached a terminal research state.
func (g *Gap) IsResolved() bool {
	return g.ResearchStatus == ResearchStatusCompleted || g.ResearchStatus == ResearchStatusFailed
}

// ValidateGap validates a Gap instance
func ValidateGap(g *Gap) error {
	if g == nil {
		return fmt.Errorf("gap cannot be nil")
	}

	if g.ID == "" {
		return fmt.Errorf("gap ID is required")
	}

	if g.Query == "" {
		return fmt.Errorf("gap Query is required")
	}

	if g.ConfidenceScore < 0 || g.ConfidenceScore > 1 {
		return fmt.Errorf("gap ConfidenceScore must be within [0,1], got %f", g.ConfidenceScore)
	}

	if g.OccurrenceCount < 1 {
		return fmt.Errorf("gap OccurrenceCount must be at least 1")
	}

	if !isValidResearchStatus(g.ResearchStatus) {
		return fmt.Errorf("gap ResearchStatus is invalid: %s", g.ResearchStatus)
	}

	return nil
}

// isValidResearchStatus checks if a ResearchStatus is valid
func isValidResearchStatus(s ResearchStatus) bool {
	switch s {
	case ResearchStatusPending, ResearchStatusInProgress,
		ResearchStatusCompleted, ResearchStatusFailed:
		return true
	}
	return false
}
