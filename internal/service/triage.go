package service

import (
	"regexp"
	"strings"

	"github.com/fieldstack/mechanic/internal/domain"
)

// faultCodePattern matches the common alphanumeric fault-code shapes
// technicians paste into queries (F0002, E.21, SRVO-062, A.810, err 47).
// It is deliberately vendor-neutral; vendor attribution is the detector's
// job, this only answers "does the query mention a code at all".
var faultCodePattern = regexp.MustCompile(`(?i)\b(?:[a-z]{1,4}[.-]?\d{2,4}[a-z]?|(?:fault|error|alarm|err|code)\s*#?\s*\d{1,4})\b`)

// Triage decides whether a low-confidence query is worth a clarification
// round trip before being logged as a gap, and builds the prompt.
type Triage struct {
	minQueryWords int
}

func NewTriage(minQueryWords int) *Triage {
	return &Triage{minQueryWords: minQueryWords}
}

// faultMentionPattern matches talk about a fault condition in general, as
// opposed to an extractable code.
var faultMentionPattern = regexp.MustCompile(`(?i)\b(?:fault|error|alarm)s?\b`)

// HasFaultCode reports whether the query or context mentions a fault code.
func (t *Triage) HasFaultCode(query string, equip *domain.EquipmentContext) bool {
	if equip != nil && equip.FaultCode != "" {
		return true
	}
	return faultCodePattern.MatchString(query)
}

// MentionsFault reports whether the query talks about a fault, error, or
// alarm at all. Only such queries are worth asking for the exact code.
func (t *Triage) MentionsFault(query string) bool {
	return faultMentionPattern.MatchString(query)
}

// IsShort reports whether the query is below the minimum useful word count.
func (t *Triage) IsShort(query string) bool {
	return len(strings.Fields(query)) < t.minQueryWords
}

// ClarificationPrompt picks the single most useful question to ask. Missing
// manufacturer outranks a fault mention without a code outranks a too-short
// query; a query missing nothing specific gets the generic prompt.
func (t *Triage) ClarificationPrompt(query, vendor string, equip *domain.EquipmentContext) string {
	if vendor == "" || vendor == "unknown" {
		return "Which manufacturer made this equipment? Check the nameplate for a brand name (for example Siemens, FANUC, Allen-Bradley)."
	}
	if t.MentionsFault(query) && !t.HasFaultCode(query, equip) {
		return "Is the equipment showing a fault or alarm code on its display? The exact code narrows this down considerably."
	}
	if t.IsShort(query) {
		return "Can you describe the symptom in more detail? When it started, what changed recently, and what the equipment does when the fault occurs."
	}
	return "Can you share more detail about the equipment and the symptom? Model number, what it was doing when the problem appeared, and any codes on the display."
}
