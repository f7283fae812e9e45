package openai

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient() *OpenAIClient {
	return NewOpenAIClient("test-key", "gpt-4o-mini", 1000, 0.1, 0.9, 4096, zap.NewNop())
}

func TestBuildRequest(t *testing.T) {
	req := newTestClient().buildRequest("classify this")

	assert.Equal(t, "gpt-4o-mini", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "classify this", req.Messages[1].Content)

	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
}

func TestParseClassifierResponse(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		expectError bool
		probability float64
	}{
		{
			name:        "Bare JSON object",
			response:    `{"spam_probability": 0.92, "categories": {"Phishing": 0.9}, "explanation": "credential lure"}`,
			probability: 0.92,
		},
		{
			name:        "JSON wrapped in prose",
			response:    "Here is my assessment:\n{\"spam_probability\": 0.3, \"explanation\": \"marketing\"}\nLet me know.",
			probability: 0.3,
		},
		{
			name:        "No JSON at all",
			response:    "I cannot classify this.",
			expectError: true,
		},
		{
			name:        "Malformed JSON",
			response:    `{"spam_probability": not-a-number}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseClassifierResponse(tt.response)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.probability, parsed.SpamProbability, 1e-9)
		})
	}
}
