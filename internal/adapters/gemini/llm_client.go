package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/mailsentry/internal/core"
)

// GeminiClient is an implementation of the Classifier port using Google Gemini
type GeminiClient struct {
	client       *genai.Client
	model        *genai.GenerativeModel
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

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:      client,
		model:       model,
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
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// truncateText truncates the email text if it exceeds the maximum size
func (c *GeminiClient) truncateText(text string) string {
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

// Classify sends the normalized email text to Gemini and parses the verdict
func (c *GeminiClient) Classify(ctx context.Context, text string) (*core.ClassifierResult, error) {
	prompt := fmt.Sprintf(c.promptFormat, c.truncateText(text))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	parsed, err := parseClassifierResponse(responseText)
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
