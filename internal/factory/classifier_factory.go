package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/adapters/bedrock"
	"github.com/mikey/mailsentry/internal/adapters/gemini"
	"github.com/mikey/mailsentry/internal/adapters/openai"
	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/core"
	"github.com/mikey/mailsentry/internal/utils"
)

// ClassifierFactory creates content classifiers
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a classifier based on the configured provider
func (f *ClassifierFactory) CreateClassifier() (core.Classifier, error) {
	provider := f.cfg.GetClassifier().Provider

	switch provider {
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	case "gemini":
		geminiCfg := f.cfg.GetGemini()
		if geminiCfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		factory := gemini.NewFactory(
			geminiCfg.APIKey,
			geminiCfg.ModelName,
			geminiCfg.MaxTokens,
			geminiCfg.Temperature,
			geminiCfg.TopP,
			geminiCfg.MaxBodySize,
			f.logger,
		)
		return factory.CreateClassifier()
	case "openai":
		if f.cfg.GetOpenAI().APIKey == "" {
			return nil, fmt.Errorf("openai API key is required")
		}
		factory := openai.NewFactory(f.cfg, f.logger)
		return factory.CreateClassifier()
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", provider)
	}
}
