package ports

import (
	"context"

	"github.com/mikey/mailsentry/internal/core"
)

// EmailFilter defines the interface for email ingestion frontends
type EmailFilter interface {
	// ProcessEmail analyzes a single email and returns the report
	ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisReport, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
