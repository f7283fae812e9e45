package history

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/core"
)

// MemoryStore is an in-memory implementation of the HistoryStore port.
// It keeps the most recent records in a bounded ring, oldest evicted first.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*core.AnalysisRecord
	maxSize int
	logger  *zap.Logger
}

// NewMemoryStore creates a memory-backed history store holding at most
// maxSize records.
func NewMemoryStore(maxSize int, logger *zap.Logger) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		records: make([]*core.AnalysisRecord, 0, maxSize),
		maxSize: maxSize,
		logger:  logger,
	}
}

// Save appends a record, evicting the oldest when the ring is full
func (s *MemoryStore) Save(_ context.Context, record *core.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == s.maxSize {
		copy(s.records, s.records[1:])
		s.records = s.records[:s.maxSize-1]
	}
	s.records = append(s.records, record)
	return nil
}

// Recent returns up to n records, newest first
func (s *MemoryStore) Recent(_ context.Context, n int) ([]*core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.records) {
		n = len(s.records)
	}

	out := make([]*core.AnalysisRecord, 0, n)
	for i := len(s.records) - 1; i >= len(s.records)-n; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}
