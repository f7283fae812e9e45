package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/utils"
)

// TextProcessorFactory creates text processors
type TextProcessorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(cfg *config.Config, logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor sized for the active provider
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	var maxBodySize int
	switch f.cfg.GetClassifier().Provider {
	case "gemini":
		maxBodySize = f.cfg.GetGemini().MaxBodySize
	case "openai":
		maxBodySize = f.cfg.GetOpenAI().MaxBodySize
	default:
		maxBodySize = f.cfg.GetBedrock().MaxBodySize
	}
	return utils.NewTextProcessor(f.logger, maxBodySize)
}
