package service

import (
	"strings"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
)

// ConfidenceWeights holds the boost and penalty terms applied on top of raw
// vector similarity.
type ConfidenceWeights struct {
	ManufacturerBoost float64
	ModelBoost        float64
	VerifiedBoost     float64
	StalenessPenalty  float64
	StalenessWindow   time.Duration
}

// ConfidenceCalculator scores a retrieved atom against the query's equipment
// context. The base is the atom's cosine similarity; exact context matches
// and human verification push the score up, staleness pulls it down. The
// result is clamped to [0,1].
type ConfidenceCalculator struct {
	weights ConfidenceWeights
	now     func() time.Time
}

func NewConfidenceCalculator(weights ConfidenceWeights) *ConfidenceCalculator {
	return &ConfidenceCalculator{weights: weights, now: time.Now}
}

// NewConfidenceCalculatorWithClock creates a calculator with a fixed clock (for testing)
func NewConfidenceCalculatorWithClock(weights ConfidenceWeights, now func() time.Time) *ConfidenceCalculator {
	return &ConfidenceCalculator{weights: weights, now: now}
}

// Score computes the adjusted confidence for a single match. The manufacturer
// boost requires the atom and the detected context to name the same vendor;
// an atom with no manufacturer never receives it. Model matching is
// case-insensitive and exact.
func (c *ConfidenceCalculator) Score(match *AtomMatch, equip *domain.EquipmentContext) float64 {
	score := match.Similarity

	if equip != nil {
		if equip.Manufacturer != "" && match.Atom.Manufacturer != "" &&
			strings.EqualFold(equip.Manufacturer, match.Atom.Manufacturer) {
			score += c.weights.ManufacturerBoost
		}
		if equip.Model != "" && match.Atom.Model != "" &&
			strings.EqualFold(equip.Model, match.Atom.Model) {
			score += c.weights.ModelBoost
		}
	}

	if match.Atom.HumanVerified {
		score += c.weights.VerifiedBoost
	}

	if c.weights.StalenessWindow > 0 &&
		c.now().Sub(match.Atom.LastVerifiedAt) > c.weights.StalenessWindow {
		score -= c.weights.StalenessPenalty
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ScoreAll scores every match and returns the best one with its score.
// Returns nil when the slice is empty.
func (c *ConfidenceCalculator) ScoreAll(matches []*AtomMatch, equip *domain.EquipmentContext) (best *AtomMatch, bestScore float64, scores []float64) {
	scores = make([]float64, len(matches))
	for i, match := range matches {
		scores[i] = c.Score(match, equip)
		if best == nil || scores[i] > bestScore {
			best = match
			bestScore = scores[i]
		}
	}
	return best, bestScore, scores
}
