package config

import (
	"fmt"
	"math"
)

// ClassifierConfig selects the content classifier provider
type ClassifierConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// EngineConfig holds the tunable parameters of the ensemble decision engine.
// Loaded once at startup and treated as immutable for the process lifetime.
type EngineConfig struct {
	// Blend weights; must sum to 1.
	ClassifierWeight float64
	URLWeight        float64
	AuthWeight       float64

	// Spam verdict threshold for the final score.
	SpamThreshold float64

	// URL risk at or above this value is treated as "high" by the override rules.
	HighURLRisk float64

	// URL risk scoring knobs.
	SuspiciousTLDs       []string
	MaxURLs              int
	PathDepthThreshold   int
	QueryLengthThreshold int

	// Sender domains whose mail bypasses analysis entirely.
	AllowlistedDomains []string
}

// GetClassifier returns the classifier provider configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider: c.GetString("classifier.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetEngine returns the ensemble engine configuration
func (c *Config) GetEngine() EngineConfig {
	return EngineConfig{
		ClassifierWeight:     c.GetFloat64("engine.weights.classifier"),
		URLWeight:            c.GetFloat64("engine.weights.url"),
		AuthWeight:           c.GetFloat64("engine.weights.auth"),
		SpamThreshold:        c.GetFloat64("engine.spam_threshold"),
		HighURLRisk:          c.GetFloat64("engine.high_url_risk"),
		SuspiciousTLDs:       c.GetStringSlice("engine.suspicious_tlds"),
		MaxURLs:              c.GetInt("engine.max_urls"),
		PathDepthThreshold:   c.GetInt("engine.path_depth_threshold"),
		QueryLengthThreshold: c.GetInt("engine.query_length_threshold"),
		AllowlistedDomains:   c.GetStringSlice("engine.allowlisted_domains"),
	}
}

// Validate checks the engine configuration for fatal misconfiguration.
// Violations fail process startup; the engine never re-validates per request.
func (e EngineConfig) Validate() error {
	sum := e.ClassifierWeight + e.URLWeight + e.AuthWeight
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("ensemble weights must sum to 1, got %.6f", sum)
	}
	for name, w := range map[string]float64{
		"classifier": e.ClassifierWeight,
		"url":        e.URLWeight,
		"auth":       e.AuthWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s weight must be in [0,1], got %f", name, w)
		}
	}
	if e.SpamThreshold < 0 || e.SpamThreshold > 1 {
		return fmt.Errorf("spam threshold must be in [0,1], got %f", e.SpamThreshold)
	}
	if e.HighURLRisk < 0 || e.HighURLRisk > 1 {
		return fmt.Errorf("high URL risk threshold must be in [0,1], got %f", e.HighURLRisk)
	}
	if e.PathDepthThreshold < 0 {
		return fmt.Errorf("path depth threshold must not be negative, got %d", e.PathDepthThreshold)
	}
	if e.QueryLengthThreshold < 0 {
		return fmt.Errorf("query length threshold must not be negative, got %d", e.QueryLengthThreshold)
	}
	return nil
}
