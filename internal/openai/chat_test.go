package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatAPI struct {
	response string
	err      error
}

func (s *stubChatAPI) CreateCompletion(ctx context.Context, system, user string) (string, error) {
	return s.response, s.err
}

func TestChatClient_Reason_ParsesConfidence(t *testing.T) {
	client := NewChatClientWithAPI(&stubChatAPI{
		response: "Check the DC bus voltage before resetting the drive.\nCONFIDENCE: 0.82",
	})

	reply, err := client.Reason(context.Background(), "system", "user")
	require.NoError(t, err)

	assert.Equal(t, "Check the DC bus voltage before resetting the drive.", reply.Answer)
	assert.Equal(t, 0.82, reply.Confidence)
	assert.Contains(t, reply.Raw, "CONFIDENCE: 0.82")
}

func TestChatClient_Reason_MissingConfidenceDefaults(t *testing.T) {
	client := NewChatClientWithAPI(&stubChatAPI{
		response: "Inspect the contactor for welded contacts.",
	})

	reply, err := client.Reason(context.Background(), "system", "user")
	require.NoError(t, err)

	assert.Equal(t, "Inspect the contactor for welded contacts.", reply.Answer)
	assert.Equal(t, 0.5, reply.Confidence)
}

func TestChatClient_Reason_Error(t *testing.T) {
	client := NewChatClientWithAPI(&stubChatAPI{err: errors.New("auth failure")})

	_, err := client.Reason(context.Background(), "system", "user")
	assert.Error(t, err)
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantAnswer     string
		wantConfidence float64
	}{
		{
			name:           "lowercase label",
			raw:            "answer body\nconfidence: 0.3",
			wantAnswer:     "answer body",
			wantConfidence: 0.3,
		},
		{
			name:           "value above one is clamped",
			raw:            "answer\nCONFIDENCE: 1.0",
			wantAnswer:     "answer",
			wantConfidence: 1.0,
		},
		{
			name:           "no label defaults to half",
			raw:            "plain answer",
			wantAnswer:     "plain answer",
			wantConfidence: 0.5,
		},
		{
			name:           "label only keeps raw as answer",
			raw:            "CONFIDENCE: 0.9",
			wantAnswer:     "CONFIDENCE: 0.9",
			wantConfidence: 0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, confidence := parseConfidence(tt.raw)
			assert.Equal(t, tt.wantAnswer, answer)
			assert.Equal(t, tt.wantConfidence, confidence)
		})
	}
}
