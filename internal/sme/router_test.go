package sme

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/manufacturer"
	"github.com/fieldstack/mechanic/internal/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReasoner captures the prompts it is called with.
type recordingReasoner struct {
	lastSystem string
	lastUser   string
	reply      *openai.Reply
	err        error
}

func (r *recordingReasoner) Reason(ctx context.Context, system, user string) (*openai.Reply, error) {
	r.lastSystem = system
	r.lastUser = user
	if r.err != nil {
		return nil, r.err
	}
	return r.reply, nil
}

func TestRoute_VendorModuleSelected(t *testing.T) {
	reasoner := &recordingReasoner{reply: &openai.Reply{Answer: "check p1120", Confidence: 0.8}}
	router := NewRouter(reasoner)

	answer, err := router.Route(context.Background(), "drive trips on accel", nil, manufacturer.Siemens)
	require.NoError(t, err)

	assert.Equal(t, 0.8, answer.Confidence)
	assert.Contains(t, reasoner.lastSystem, "Siemens")
}

func TestRoute_UnknownVendorUsesGeneric(t *testing.T) {
	reasoner := &recordingReasoner{reply: &openai.Reply{Answer: "inspect the motor", Confidence: 0.4}}
	router := NewRouter(reasoner)

	_, err := router.Route(context.Background(), "motor hums", nil, manufacturer.Unknown)
	require.NoError(t, err)

	assert.Contains(t, reasoner.lastSystem, "industrial equipment troubleshooting assistant")
	assert.NotContains(t, reasoner.lastSystem, "Siemens")
}

func TestRoute_ConfidenceNotCapped(t *testing.T) {
	// The router trusts the module's self-report as-is.
	reasoner := &recordingReasoner{reply: &openai.Reply{Answer: "known issue", Confidence: 1.0}}
	router := NewRouter(reasoner)

	answer, err := router.Route(context.Background(), "q", nil, manufacturer.Fanuc)
	require.NoError(t, err)
	assert.Equal(t, 1.0, answer.Confidence)
}

func TestRoute_Error(t *testing.T) {
	router := NewRouter(&recordingReasoner{err: errors.New("timeout")})

	_, err := router.Route(context.Background(), "q", nil, manufacturer.ABB)
	assert.Error(t, err)
}

func TestBuildUserMessage_IncludesContext(t *testing.T) {
	reasoner := &recordingReasoner{reply: &openai.Reply{Answer: "ok", Confidence: 0.5}}
	router := NewRouter(reasoner)

	equip := &domain.EquipmentContext{
		Manufacturer: "siemens",
		Model:        "G120",
		FaultCode:    "F0002",
	}
	_, err := router.Route(context.Background(), "trips at startup", equip, manufacturer.Siemens)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(reasoner.lastUser, "trips at startup"))
	assert.Contains(t, reasoner.lastUser, "manufacturer: siemens")
	assert.Contains(t, reasoner.lastUser, "model: G120")
	assert.Contains(t, reasoner.lastUser, "fault code: F0002")
}

func TestBuildUserMessage_NoContext(t *testing.T) {
	reasoner := &recordingReasoner{reply: &openai.Reply{Answer: "ok", Confidence: 0.5}}
	router := NewRouter(reasoner)

	_, err := router.Route(context.Background(), "motor hums", nil, manufacturer.Unknown)
	require.NoError(t, err)
	assert.Equal(t, "motor hums", reasoner.lastUser)
}

func TestExtractWarnings(t *testing.T) {
	reasoner := &recordingReasoner{reply: &openai.Reply{
		Answer:     "Discharge the DC bus first.\nWARNING: capacitors hold lethal voltage for 10 minutes after power-off.\nThen measure across DC+ and DC-.",
		Confidence: 0.9,
	}}
	router := NewRouter(reasoner)

	answer, err := router.Route(context.Background(), "q", nil, manufacturer.ABB)
	require.NoError(t, err)

	require.Len(t, answer.SafetyWarnings, 1)
	assert.Equal(t, "capacitors hold lethal voltage for 10 minutes after power-off.", answer.SafetyWarnings[0])
	// The warning stays in the answer text too.
	assert.Contains(t, answer.Text, "WARNING:")
}

func TestVendors(t *testing.T) {
	router := NewRouter(&recordingReasoner{reply: &openai.Reply{}})
	vendors := router.Vendors()

	assert.Contains(t, vendors, manufacturer.Siemens)
	assert.Contains(t, vendors, manufacturer.Yaskawa)
	assert.NotContains(t, vendors, manufacturer.Unknown)
}
