package openai

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultReasoningModel is the chat model used for troubleshooting reasoning
const DefaultReasoningModel = "gpt-4o-mini"

// ErrEmptyCompletion is returned when the API returns no choices
var ErrEmptyCompletion = errors.New("no completion returned")

// Reply is the parsed outcome of a reasoning call.
type Reply struct {
	Answer     string
	Confidence float64
	Raw        string
}

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateCompletion(ctx context.Context, system, user string) (string, error)
}

// ChatClient wraps the OpenAI chat API for troubleshooting reasoning. The
// model is asked to close its reply with a CONFIDENCE line; the self-reported
// value is parsed out and trusted as-is.
type ChatClient struct {
	api ChatAPI
}

type chatAdapter struct {
	client *openai.Client
	model  string
}

func (a *chatAdapter) CreateCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// NewChatClient creates a ChatClient using the given API key and model.
func NewChatClient(apiKey, model string) *ChatClient {
	if model == "" {
		model = DefaultReasoningModel
	}
	return &ChatClient{api: &chatAdapter{client: openai.NewClient(apiKey), model: model}}
}

// NewChatClientWithAPI creates a ChatClient over a custom ChatAPI (for testing).
func NewChatClientWithAPI(api ChatAPI) *ChatClient {
	return &ChatClient{api: api}
}

// Reason runs a chat completion and parses the self-reported confidence.
func (c *ChatClient) Reason(ctx context.Context, system, user string) (*Reply, error) {
	raw, err := c.api.CreateCompletion(ctx, system, user)
	if err != nil {
		return nil, err
	}

	answer, confidence := parseConfidence(raw)
	return &Reply{
		Answer:     answer,
		Confidence: confidence,
		Raw:        raw,
	}, nil
}

var confidenceLine = regexp.MustCompile(`(?im)^\s*confidence:\s*([01](?:\.\d+)?)\s*$`)

// parseConfidence strips the trailing CONFIDENCE line from a completion and
// returns the remaining answer plus the reported value. Replies without a
// parseable line default to 0.5.
func parseConfidence(raw string) (string, float64) {
	confidence := 0.5

	match := confidenceLine.FindStringSubmatch(raw)
	if match != nil {
		if v, err := strconv.ParseFloat(match[1], 64); err == nil {
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			confidence = v
		}
	}

	answer := strings.TrimSpace(confidenceLine.ReplaceAllString(raw, ""))
	if answer == "" {
		answer = strings.TrimSpace(raw)
	}
	return answer, confidence
}
