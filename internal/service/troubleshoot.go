package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/sme"
	"github.com/fieldstack/mechanic/internal/telemetry"
)

// VendorDetector resolves the canonical vendor id behind a query.
type VendorDetector interface {
	Detect(query string, equip *domain.EquipmentContext) string
}

// SMERouterInterface dispatches a query to a vendor reasoning module. An
// empty vendor id selects the generic module.
type SMERouterInterface interface {
	Route(ctx context.Context, query string, equip *domain.EquipmentContext, vendor string) (*sme.Answer, error)
}

// RoutingConfig holds the orchestrator's thresholds and budgets.
type RoutingConfig struct {
	KBThreshold       float64
	SMEThreshold      float64
	ResearchThreshold float64
	ClarifyThreshold  float64

	SearchLimit       int
	MinAtomConfidence float64
	MinQueryWords     int
	MaxQueryBytes     int

	VendorBoost      float64
	HighValueVendors []string

	EmbedTimeout  time.Duration
	SearchTimeout time.Duration
	ReasonTimeout time.Duration
}

// IsHighValueVendor reports whether the vendor earns the gap priority boost.
func (c RoutingConfig) IsHighValueVendor(vendor string) bool {
	for _, v := range c.HighValueVendors {
		if strings.EqualFold(strings.TrimSpace(v), vendor) {
			return true
		}
	}
	return false
}

// TroubleshootService runs a query through the escalation ladder: knowledge
// base first, then the vendor reasoning module, then either a clarification
// request or a logged knowledge gap. Provider failures degrade the affected
// rung to zero confidence instead of failing the query; only the loss of
// every rung produces the canned fallback answer.
type TroubleshootService struct {
	embedder   AtomEmbedder
	atomRepo   AtomRepositoryInterface
	gapRepo    GapRepositoryInterface
	detector   VendorDetector
	smeRouter  SMERouterInterface
	calculator *ConfidenceCalculator
	triage     *Triage
	cfg        RoutingConfig
	uuidGen    UUIDGenerator
}

func NewTroubleshootService(
	embedder AtomEmbedder,
	atomRepo AtomRepositoryInterface,
	gapRepo GapRepositoryInterface,
	detector VendorDetector,
	smeRouter SMERouterInterface,
	calculator *ConfidenceCalculator,
	cfg RoutingConfig,
) *TroubleshootService {
	return &TroubleshootService{
		embedder:   embedder,
		atomRepo:   atomRepo,
		gapRepo:    gapRepo,
		detector:   detector,
		smeRouter:  smeRouter,
		calculator: calculator,
		triage:     NewTriage(cfg.MinQueryWords),
		cfg:        cfg,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewTroubleshootServiceWithUUIDGen creates the service with a custom UUID generator (for testing)
func NewTroubleshootServiceWithUUIDGen(
	embedder AtomEmbedder,
	atomRepo AtomRepositoryInterface,
	gapRepo GapRepositoryInterface,
	detector VendorDetector,
	smeRouter SMERouterInterface,
	calculator *ConfidenceCalculator,
	cfg RoutingConfig,
	uuidGen UUIDGenerator,
) *TroubleshootService {
	s := NewTroubleshootService(embedder, atomRepo, gapRepo, detector, smeRouter, calculator, cfg)
	s.uuidGen = uuidGen
	return s
}

const fallbackAnswer = `I was not able to produce a reliable answer for this right now. ` +
	`Check the equipment manual for the displayed fault code, and if the problem persists, ` +
	`retry in a few minutes or escalate to your maintenance supervisor.`

// Troubleshoot answers a single query. The only errors returned are input
// validation failures; everything downstream degrades instead.
func (s *TroubleshootService) Troubleshoot(ctx context.Context, query string, equip *domain.EquipmentContext) (*domain.TroubleshootResult, error) {
	started := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if len(query) > s.cfg.MaxQueryBytes {
		return nil, domain.ErrQueryTooLong
	}

	vendor := s.detector.Detect(query, equip)

	ctx, span := telemetry.StartSpan(ctx, "TroubleshootService.Troubleshoot", telemetry.SpanAttributes{
		Vendor:    vendor,
		Operation: "troubleshoot",
	})
	defer span.End()

	// Rung 1: knowledge base.
	matches, kbErr := s.searchKB(ctx, query, equip)
	var kbBest *AtomMatch
	var kbScore float64
	var kbScores []float64
	if kbErr != nil {
		log.Printf("troubleshoot: kb rung degraded: %v", kbErr)
	} else {
		kbBest, kbScore, kbScores = s.calculator.ScoreAll(matches, equip)
	}

	if kbBest != nil && kbScore >= s.cfg.KBThreshold {
		result := s.answerFromKB(ctx, matches, kbScores, kbBest, kbScore)
		telemetry.ObserveTroubleshoot(string(result.Route), vendor, result.Confidence, time.Since(started).Seconds())
		return result, nil
	}

	// Rung 2: vendor reasoning module, generic when the vendor is unknown.
	smeAnswer, smeRoute := s.askSME(ctx, query, equip, vendor)

	if smeAnswer != nil && smeAnswer.Confidence >= s.cfg.SMEThreshold {
		result := &domain.TroubleshootResult{
			Answer:         smeAnswer.Text,
			Route:          smeRoute,
			Confidence:     smeAnswer.Confidence,
			SafetyWarnings: mergeWarnings(smeAnswer.SafetyWarnings, hazardWarnings(smeAnswer.Text)),
		}
		telemetry.ObserveTroubleshoot(string(result.Route), vendor, result.Confidence, time.Since(started).Seconds())
		return result, nil
	}

	// Every rung lost: canned fallback rather than an error.
	if kbErr != nil && smeAnswer == nil {
		result := &domain.TroubleshootResult{
			Answer:     fallbackAnswer,
			Route:      domain.RouteGeneral,
			Confidence: 0,
		}
		telemetry.ObserveTroubleshoot(string(result.Route), vendor, 0, time.Since(started).Seconds())
		return result, nil
	}

	// Rung 3: neither source is confident. Decide between asking for more
	// signal and logging a knowledge gap.
	combined := kbScore
	if smeAnswer != nil && smeAnswer.Confidence > combined {
		combined = smeAnswer.Confidence
	}

	if combined < s.cfg.ClarifyThreshold {
		result := &domain.TroubleshootResult{
			Route:               domain.RouteClarify,
			Confidence:          combined,
			ClarificationPrompt: s.triage.ClarificationPrompt(query, vendor, equip),
		}
		telemetry.ObserveTroubleshoot(string(result.Route), vendor, combined, time.Since(started).Seconds())
		return result, nil
	}

	result := s.answerWithGap(ctx, query, equip, vendor, combined, kbBest, smeAnswer)
	telemetry.ObserveTroubleshoot(string(result.Route), vendor, result.Confidence, time.Since(started).Seconds())
	return result, nil
}

func (s *TroubleshootService) searchKB(ctx context.Context, query string, equip *domain.EquipmentContext) ([]*AtomMatch, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	embedding, err := s.embedder.GenerateEmbedding(embedCtx, query)
	if err != nil {
		telemetry.ObserveProviderError("embedding", errorKind(err))
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filters := SearchFilters{MinConfidence: s.cfg.MinAtomConfidence}
	if equip != nil {
		filters.Manufacturer = equip.Manufacturer
		filters.EquipmentType = equip.EquipmentType
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()

	matches, err := s.atomRepo.Search(searchCtx, embedding, filters, s.cfg.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search atoms: %w", err)
	}
	return matches, nil
}

// askSME runs the reasoning rung. A failed vendor module retries once on the
// generic module before the rung is written off. The returned route reflects
// which module actually answered.
func (s *TroubleshootService) askSME(ctx context.Context, query string, equip *domain.EquipmentContext, vendor string) (*sme.Answer, domain.Route) {
	reasonCtx, cancel := context.WithTimeout(ctx, s.cfg.ReasonTimeout)
	defer cancel()

	answer, err := s.smeRouter.Route(reasonCtx, query, equip, vendor)
	if err == nil {
		if vendor == "" || vendor == "unknown" {
			return answer, domain.RouteGeneral
		}
		return answer, domain.RouteSME
	}

	telemetry.ObserveProviderError("reasoning", errorKind(err))
	log.Printf("troubleshoot: vendor %q module failed: %v", vendor, err)

	if vendor == "" || vendor == "unknown" {
		return nil, domain.RouteGeneral
	}

	retryCtx, cancel := context.WithTimeout(ctx, s.cfg.ReasonTimeout)
	defer cancel()

	answer, err = s.smeRouter.Route(retryCtx, query, equip, "")
	if err != nil {
		telemetry.ObserveProviderError("reasoning", errorKind(err))
		log.Printf("troubleshoot: generic module failed: %v", err)
		return nil, domain.RouteGeneral
	}
	return answer, domain.RouteGeneral
}

// answerFromKB synthesizes the final answer from the best scored atoms. The
// top atom leads; up to two runners-up are appended as related findings.
// Safety atoms are quoted verbatim.
func (s *TroubleshootService) answerFromKB(ctx context.Context, matches []*AtomMatch, scores []float64, best *AtomMatch, bestScore float64) *domain.TroubleshootResult {
	used := topMatches(matches, scores, best, 3)

	var b strings.Builder
	b.WriteString(best.Atom.Title)
	b.WriteString("\n\n")
	b.WriteString(best.Atom.Content)
	for _, m := range used[1:] {
		b.WriteString("\n\nRelated: ")
		b.WriteString(m.Atom.Title)
		b.WriteString("\n")
		b.WriteString(m.Atom.Content)
	}

	var warnings []string
	sources := make([]string, 0, len(used))
	for _, m := range used {
		sources = append(sources, m.Atom.ID)
		if m.Atom.Type == domain.AtomTypeSafety {
			warnings = append(warnings, m.Atom.Content)
		}
	}

	// Only the atom that led the answer earns the usage bump.
	if err := s.atomRepo.IncrementUsage(ctx, best.Atom.ID); err != nil {
		log.Printf("troubleshoot: usage increment for atom %s failed: %v", best.Atom.ID, err)
	}

	answer := b.String()
	return &domain.TroubleshootResult{
		Answer:         answer,
		Route:          domain.RouteKB,
		Confidence:     bestScore,
		Sources:        sources,
		SafetyWarnings: mergeWarnings(warnings, hazardWarnings(answer)),
	}
}

// answerWithGap returns the best sub-threshold answer, clearly qualified.
// Below the research cutoff the query is also logged as a knowledge gap for
// the research queue; at or above it nothing is logged and the answer rides
// the general route.
func (s *TroubleshootService) answerWithGap(ctx context.Context, query string, equip *domain.EquipmentContext, vendor string, confidence float64, kbBest *AtomMatch, smeAnswer *sme.Answer) *domain.TroubleshootResult {
	var answer string
	var warnings []string
	var sources []string

	switch {
	case smeAnswer != nil && (kbBest == nil || smeAnswer.Confidence >= confidence):
		answer = smeAnswer.Text
		warnings = smeAnswer.SafetyWarnings
	case kbBest != nil:
		answer = kbBest.Atom.Title + "\n\n" + kbBest.Atom.Content
		sources = []string{kbBest.Atom.ID}
		if kbBest.Atom.Type == domain.AtomTypeSafety {
			warnings = append(warnings, kbBest.Atom.Content)
		}
	}

	qualified := "I am not fully confident in this answer, so verify it against the equipment manual before acting on it.\n\n" + answer

	result := &domain.TroubleshootResult{
		Answer:         qualified,
		Route:          domain.RouteResearch,
		Confidence:     confidence,
		Sources:        sources,
		SafetyWarnings: mergeWarnings(warnings, hazardWarnings(answer)),
	}

	if confidence >= s.cfg.ResearchThreshold {
		result.Route = domain.RouteGeneral
		return result
	}

	gapVendor := ""
	if vendor != "" && vendor != "unknown" {
		gapVendor = vendor
	}
	model := ""
	if equip != nil {
		model = equip.Model
	}

	boost := 1.0
	if s.cfg.IsHighValueVendor(gapVendor) {
		boost = s.cfg.VendorBoost
	}

	gap := domain.NewGap(s.uuidGen.NewString(), query, gapVendor, model, confidence, boost, time.Now().UTC())
	stored, err := s.gapRepo.CreateOrIncrement(ctx, gap, boost)
	if err != nil {
		log.Printf("troubleshoot: gap logging failed: %v", err)
		return result
	}

	telemetry.ObserveGapLogged(stored.OccurrenceCount == 1)
	result.GapLogged = true
	return result
}

// topMatches returns up to n matches ordered by adjusted score, with the
// best guaranteed first.
func topMatches(matches []*AtomMatch, scores []float64, best *AtomMatch, n int) []*AtomMatch {
	type scored struct {
		match *AtomMatch
		score float64
	}
	ranked := make([]scored, 0, len(matches))
	for i, m := range matches {
		if m == best {
			continue
		}
		ranked = append(ranked, scored{match: m, score: scores[i]})
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	out := []*AtomMatch{best}
	for _, r := range ranked {
		if len(out) >= n {
			break
		}
		out = append(out, r.match)
	}
	return out
}

// hazardKeywords maps dangerous subject matter to the standing warning the
// answer must carry whenever it comes up.
var hazardKeywords = []struct {
	keyword string
	warning string
}{
	{"capacitor", "DC bus capacitors can hold a lethal charge after power-off. Wait for the full discharge time and verify zero volts before touching terminals."},
	{"dc bus", "DC bus capacitors can hold a lethal charge after power-off. Wait for the full discharge time and verify zero volts before touching terminals."},
	{"high voltage", "Work on high-voltage sections only with proper PPE and after verifying isolation."},
	{"arc flash", "Arc flash hazard. Follow your site's arc flash PPE requirements before opening the enclosure."},
	{"lockout", "Apply lockout/tagout before any mechanical or electrical work."},
	{"tagout", "Apply lockout/tagout before any mechanical or electrical work."},
	{"stored energy", "Release or restrain stored energy (springs, pressure, suspended loads) before servicing."},
	{"hydraulic", "Depressurize hydraulic circuits before opening fittings. Pinhole leaks can inject fluid through skin."},
}

// hazardWarnings scans the answer text for hazardous subject matter and
// returns the matching standing warnings.
func hazardWarnings(answer string) []string {
	lowered := strings.ToLower(answer)
	var warnings []string
	for _, h := range hazardKeywords {
		if strings.Contains(lowered, h.keyword) {
			warnings = append(warnings, h.warning)
		}
	}
	return warnings
}

// mergeWarnings concatenates warning lists, dropping duplicates while
// preserving order.
func mergeWarnings(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, w := range list {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

func errorKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrProviderTimeout) {
		return "timeout"
	}
	return "failure"
}
