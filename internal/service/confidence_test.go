package service

import (
	"testing"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testWeights() ConfidenceWeights {
	return ConfidenceWeights{
		ManufacturerBoost: 0.10,
		ModelBoost:        0.15,
		VerifiedBoost:     0.10,
		StalenessPenalty:  0.10,
		StalenessWindow:   17520 * time.Hour,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestScore_AllBoostsStack(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	calc := NewConfidenceCalculatorWithClock(testWeights(), fixedClock(now))

	match := &AtomMatch{
		Atom: &domain.Atom{
			Manufacturer:   "siemens",
			Model:          "G120",
			HumanVerified:  true,
			LastVerifiedAt: now.Add(-24 * time.Hour),
		},
		Similarity: 0.60,
	}
	equip := &domain.EquipmentContext{Manufacturer: "siemens", Model: "g120"}

	assert.InDelta(t, 0.95, calc.Score(match, equip), 1e-9)
}

func TestScore_NoContextNoBoosts(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	calc := NewConfidenceCalculatorWithClock(testWeights(), fixedClock(now))

	match := &AtomMatch{
		Atom:       &domain.Atom{LastVerifiedAt: now},
		Similarity: 0.72,
	}

	assert.InDelta(t, 0.72, calc.Score(match, nil), 1e-9)
}

func TestScore_ManufacturerBoostNeedsBothSides(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	calc := NewConfidenceCalculatorWithClock(testWeights(), fixedClock(now))

	// Vendor-agnostic atom gets no manufacturer boost even with a detected
	// vendor in the query.
	match := &AtomMatch{
		Atom:       &domain.Atom{LastVerifiedAt: now},
		Similarity: 0.80,
	}
	equip := &domain.EquipmentContext{Manufacturer: "fanuc"}

	assert.InDelta(t, 0.80, calc.Score(match, equip), 1e-9)
}

func TestScore_MismatchedVendorNoBoost(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	calc := NewConfidenceCalculatorWithClock(testWeights(), fixedClock(now))

	match := &AtomMatch{
		Atom:       &domain.Atom{Manufacturer: "abb", LastVerifiedAt: now},
		Similarity: 0.80,
	}
	equip := &domain.EquipmentContext{Manufacturer: "siemens"}

	assert.InDelta(t, 0.80, calc.Score(match, equip), 1e-9)
}

func TestScore_StalenessPenalty(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	calc := NewConfidenceCalculatorWithClock(testWeights(), fixedClock(now))

	match := &AtomMatch{
		Atom: &domain.Atom{
			LastVerifiedAt: now.Add(-17521 * time.Hour),
		},
		Similarity: 0.80,
	}

	assert.InDelta(t, 0.70, calc.Score(match, nil), 1e-9)
}

func TestScore_ClampedToOne(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	calc := NewConfidenceCalculatorWithClock(testWeights(), fixedClock(now))

	match := &AtomMatch{
		Atom: &domain.Atom{
			Manufacturer:   "siemens",
			Model:          "G120",
			HumanVerified:  true,
			LastVerifiedAt: now,
		},
		Similarity: 0.95,
	}
	equip := &domain.EquipmentContext{Manufacturer: "siemens", Model: "G120"}

	assert.Equal(t, 1.0, calc.Score(match, equip))
}

func TestScoreAll_PicksBest(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	calc := NewConfidenceCalculatorWithClock(testWeights(), fixedClock(now))

	// The second match has lower raw similarity but wins on boosts.
	matches := []*AtomMatch{
		{Atom: &domain.Atom{LastVerifiedAt: now}, Similarity: 0.78},
		{
			Atom: &domain.Atom{
				Manufacturer:   "siemens",
				HumanVerified:  true,
				LastVerifiedAt: now,
			},
			Similarity: 0.70,
		},
	}
	equip := &domain.EquipmentContext{Manufacturer: "siemens"}

	best, bestScore, scores := calc.ScoreAll(matches, equip)
	assert.Same(t, matches[1], best)
	assert.InDelta(t, 0.90, bestScore, 1e-9)
	assert.Len(t, scores, 2)
}

func TestScoreAll_Empty(t *testing.T) {
	calc := NewConfidenceCalculator(testWeights())

	best, bestScore, scores := calc.ScoreAll(nil, nil)
	assert.Nil(t, best)
	assert.Zero(t, bestScore)
	assert.Empty(t, scores)
}
