package core

import (
	"context"
	"time"
)

// Classifier is the external statistical content classifier. The engine
// treats it as a black box returning a spam probability and an optional
// category distribution.
type Classifier interface {
	// Classify analyzes normalized text and returns a spam probability.
	Classify(ctx context.Context, text string) (*ClassifierResult, error)
}

// TextNormalizer prepares raw email text for classification.
type TextNormalizer interface {
	Normalize(text string) string
}

// HistoryStore persists analysis records. Writes are fire-and-forget from
// the engine's point of view: a failed Save never fails the analysis.
type HistoryStore interface {
	// Save stores one analysis record.
	Save(ctx context.Context, record *AnalysisRecord) error

	// Recent returns up to n most recent records, newest first.
	Recent(ctx context.Context, n int) ([]*AnalysisRecord, error)
}

// ClassifierCache caches classifier verdicts keyed by normalized body hash.
type ClassifierCache interface {
	Get(key string) (*ClassifierResult, bool)
	Set(key string, result *ClassifierResult, ttl time.Duration)
}
