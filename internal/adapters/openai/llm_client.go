package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/core"
)

// OpenAIClient is an implementation of the Classifier port using OpenAI
type OpenAIClient struct {
	client       *openai.Client
	modelName    string
	maxTokens    int
	temperature  float32
	topP         float32
	maxBodySize  int
	logger       *zap.Logger
	promptFormat string
}

// classifierResponse represents the structured response from the model
type classifierResponse struct {
	SpamProbability float64            `json:"spam_probability"`
	Categories      map[string]float64 `json:"categories"`
	Explanation     string             `json:"explanation"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
) *OpenAIClient {
	client := openai.NewClient(apiKey)

	return &OpenAIClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		maxBodySize: maxBodySize,
		logger:      logger,
		promptFormat: `You are a spam and phishing detection system. Analyze the following email text.
Respond with a JSON object containing:
- spam_probability: number between 0 and 1 (higher means more likely spam or phishing)
- categories: object mapping threat category names (Phishing, Scam, Marketing, Malware, General) to probabilities between 0 and 1
- explanation: string (brief explanation of the assessment)

Email text:
%s

Respond only with the JSON object and nothing else.`,
	}
}

// truncateText truncates the email text if it exceeds the maximum size
func (c *OpenAIClient) truncateText(text string) string {
	if c.maxBodySize <= 0 || len(text) <= c.maxBodySize {
		return text
	}

	truncated := text[:c.maxBodySize]
	c.logger.Debug("Email text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", c.maxBodySize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// buildRequest assembles the chat completion request for one classification.
// The response format must be the API's json_object constant; arbitrary
// strings are rejected server-side.
func (c *OpenAIClient) buildRequest(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a spam and phishing detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}

// Classify sends the normalized email text to OpenAI and parses the verdict
func (c *OpenAIClient) Classify(ctx context.Context, text string) (*core.ClassifierResult, error) {
	prompt := fmt.Sprintf(c.promptFormat, c.truncateText(text))

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	parsed, err := parseClassifierResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &core.ClassifierResult{
		SpamProbability: parsed.SpamProbability,
		Categories:      parsed.Categories,
		Explanation:     parsed.Explanation,
		ModelUsed:       c.modelName,
	}, nil
}

// parseClassifierResponse parses the model's JSON verdict, tolerating
// surrounding prose by extracting the outermost JSON object
func parseClassifierResponse(responseText string) (*classifierResponse, error) {
	var parsed classifierResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err == nil {
		return &parsed, nil
	}

	jsonStart := strings.Index(responseText, "{")
	jsonEnd := strings.LastIndex(responseText, "}")
	if jsonStart < 0 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return &parsed, nil
}
