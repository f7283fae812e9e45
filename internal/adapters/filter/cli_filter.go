package filter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/core"
	"github.com/mikey/mailsentry/internal/engine"
)

// CliFilter runs a single analysis and prints the report to stdout
type CliFilter struct {
	service *engine.AnalysisService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *engine.AnalysisService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail analyzes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisReport, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	startTime := time.Now()
	report := f.service.Analyze(ctx, email.Body, email.RawHeaders)
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Verdict: %s\n", report.Verdict)
	fmt.Printf("Final score: %.4f\n", report.FinalScore)
	fmt.Printf("Raw blend: %.4f\n", report.RawBlend)
	fmt.Printf("URL risk: %.4f\n", report.URLRisk.Score)
	if report.URLRisk.WorstURL != nil {
		fmt.Printf("Riskiest URL: %s\n", report.URLRisk.WorstURL.Original)
		fmt.Printf("Matched rules: %v\n", report.URLRisk.MatchedRules)
	}
	fmt.Printf("SPF: %s, DKIM: %s, DMARC: %s (source: %s)\n",
		report.Auth.SPF, report.Auth.DKIM, report.Auth.DMARC, report.Auth.Source)
	if len(report.AppliedOverrides) > 0 {
		fmt.Printf("Applied overrides: %v\n", report.AppliedOverrides)
	}
	if report.ClassifierUnavailable {
		fmt.Printf("Classifier: unavailable, scored with neutral probability\n")
	} else if report.Classifier != nil {
		fmt.Printf("Classifier probability: %.4f (model: %s)\n",
			report.Classifier.SpamProbability, report.Classifier.ModelUsed)
	}
	fmt.Printf("Category: %s\n", report.Category)
	fmt.Printf("Explanation: %s\n", report.Explanation())
	fmt.Printf("Processing time: %v\n", duration)

	return report, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
