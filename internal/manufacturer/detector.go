// Package manufacturer identifies the equipment vendor behind a query using
// a three-tier heuristic: explicit structured input, vendor-specific keywords
// in free text, and fault-code formats that are structurally exclusive to a
// single vendor.
package manufacturer

import (
	"regexp"
	"strings"

	"github.com/fieldstack/mechanic/internal/domain"
)

// Unknown is returned when no tier produces a match; callers route to the
// generic reasoning path.
const Unknown = "unknown"

// Canonical vendor ids.
const (
	Siemens       = "siemens"
	ABB           = "abb"
	Fanuc         = "fanuc"
	AllenBradley  = "allen-bradley"
	Mitsubishi    = "mitsubishi"
	Schneider     = "schneider"
	Danfoss       = "danfoss"
	Yaskawa       = "yaskawa"
	SEW           = "sew-eurodrive"
)

type keywordRule struct {
	keyword string
	vendor  string
}

type codeRule struct {
	pattern *regexp.Regexp
	vendor  string
}

// Detector resolves a canonical vendor id from the available signals.
// First match wins: structured field, then free-text keywords, then
// vendor-exclusive fault-code formats.
type Detector struct {
	aliases      map[string]string
	keywords     []keywordRule
	codePatterns []codeRule
}

// NewDetector creates a Detector with the built-in alias, keyword, and
// fault-code tables.
func NewDetector() *Detector {
	return &Detector{
		aliases:      vendorAliases(),
		keywords:     vendorKeywords(),
		codePatterns: exclusiveCodePatterns(),
	}
}

// Detect returns the canonical vendor id for the query and optional
// structured equipment context, or Unknown.
func (d *Detector) Detect(query string, equip *domain.EquipmentContext) string {
	// Tier 1: explicitly provided manufacturer, normalized through aliases.
	if equip != nil && equip.Manufacturer != "" {
		if vendor := d.Normalize(equip.Manufacturer); vendor != Unknown {
			return vendor
		}
	}

	lowered := strings.ToLower(query)

	// Tier 2: vendor-specific keywords in the query text. Alias names count
	// as keywords too, so "my siemens drive faults" resolves here. Tokens
	// are checked in query order; when two vendors are named, the one
	// mentioned first wins.
	for _, token := range wordBoundary.FindAllString(lowered, -1) {
		if vendor, ok := d.aliases[token]; ok {
			return vendor
		}
	}
	for _, rule := range d.keywords {
		if strings.Contains(lowered, rule.keyword) {
			return rule.vendor
		}
	}

	// Tier 3: fault-code formats exclusive to one vendor. Generic shapes
	// such as a bare letter-plus-digits code are deliberately absent from
	// the table; they must never drive detection.
	candidates := []string{lowered}
	if equip != nil && equip.FaultCode != "" {
		candidates = append(candidates, strings.ToLower(equip.FaultCode))
	}
	for _, text := range candidates {
		for _, rule := range d.codePatterns {
			if rule.pattern.MatchString(text) {
				return rule.vendor
			}
		}
	}

	return Unknown
}

// Normalize maps a raw manufacturer string to its canonical vendor id, or
// Unknown when the spelling is not in the alias table.
func (d *Detector) Normalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return Unknown
	}
	if vendor, ok := d.aliases[key]; ok {
		return vendor
	}
	return Unknown
}

var wordBoundary = regexp.MustCompile(`[a-z0-9-]+`)
