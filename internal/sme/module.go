// Package sme dispatches troubleshooting queries to vendor-specialized
// reasoning modules. The vendor map is built statically at startup; unknown
// vendors fall through to the generic module.
package sme

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/openai"
)

// Reasoner is the reasoning-provider contract consumed by SME modules.
type Reasoner interface {
	Reason(ctx context.Context, system, user string) (*openai.Reply, error)
}

// Answer is a reasoning module's response. Confidence is the module's
// self-report; the router applies no cap.
type Answer struct {
	Text           string
	Confidence     float64
	SafetyWarnings []string
	Raw            string
}

// Module is a single reasoning module, vendor-specific or generic.
type Module interface {
	Answer(ctx context.Context, query string, equip *domain.EquipmentContext) (*Answer, error)
}

// promptModule frames a query with a vendor-specific system prompt and
// parses the reply.
type promptModule struct {
	reasoner Reasoner
	system   string
}

const replyFormat = `Close your reply with a line "CONFIDENCE: <0..1>" estimating how reliable your answer is. Prefix any safety-critical step with "WARNING:" on its own line.`

func newPromptModule(reasoner Reasoner, framing string) *promptModule {
	return &promptModule{
		reasoner: reasoner,
		system:   framing + "\n\n" + replyFormat,
	}
}

func (m *promptModule) Answer(ctx context.Context, query string, equip *domain.EquipmentContext) (*Answer, error) {
	reply, err := m.reasoner.Reason(ctx, m.system, buildUserMessage(query, equip))
	if err != nil {
		return nil, err
	}

	answer, warnings := extractWarnings(reply.Answer)
	return &Answer{
		Text:           answer,
		Confidence:     reply.Confidence,
		SafetyWarnings: warnings,
		Raw:            reply.Raw,
	}, nil
}

// buildUserMessage appends the structured equipment context to the free-text
// query so modules can reason over fault codes and model numbers directly.
func buildUserMessage(query string, equip *domain.EquipmentContext) string {
	var b strings.Builder
	b.WriteString(query)

	if equip.Empty() {
		return b.String()
	}

	b.WriteString("\n\nEquipment context:")
	if equip.Manufacturer != "" {
		fmt.Fprintf(&b, "\n- manufacturer: %s", equip.Manufacturer)
	}
	if equip.Model != "" {
		fmt.Fprintf(&b, "\n- model: %s", equip.Model)
	}
	if equip.FaultCode != "" {
		fmt.Fprintf(&b, "\n- fault code: %s", equip.FaultCode)
	}
	if equip.EquipmentType != "" {
		fmt.Fprintf(&b, "\n- equipment type: %s", equip.EquipmentType)
	}
	return b.String()
}

// extractWarnings pulls WARNING-prefixed lines out of the answer body.
// The warnings stay in the answer text as well; they are duplicated into the
// result's safety list so the caller can surface them prominently.
func extractWarnings(answer string) (string, []string) {
	var warnings []string
	for _, line := range strings.Split(answer, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		if strings.HasPrefix(upper, "WARNING:") {
			warning := strings.TrimSpace(trimmed[len("WARNING:"):])
			if warning != "" {
				warnings = append(warnings, warning)
			}
		}
	}
	return answer, warnings
}
