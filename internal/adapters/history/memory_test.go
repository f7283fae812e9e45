package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/mailsentry/internal/core"
)

func record(id string, score float64) *core.AnalysisRecord {
	return &core.AnalysisRecord{
		ID:         id,
		Message:    "body " + id,
		Verdict:    core.VerdictNotSpam,
		Category:   "General",
		FinalScore: score,
		Timestamp:  time.Now(),
	}
}

func TestMemoryStoreRecentNewestFirst(t *testing.T) {
	store := NewMemoryStore(10, zaptest.NewLogger(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, record(fmt.Sprintf("id-%d", i), float64(i)/10)))
	}

	records, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id-2", records[0].ID)
	assert.Equal(t, "id-1", records[1].ID)
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	store := NewMemoryStore(2, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record("a", 0.1)))
	require.NoError(t, store.Save(ctx, record("b", 0.2)))
	require.NoError(t, store.Save(ctx, record("c", 0.3)))

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestMemoryStoreRecentEmpty(t *testing.T) {
	store := NewMemoryStore(5, zaptest.NewLogger(t))

	records, err := store.Recent(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, records)
}
