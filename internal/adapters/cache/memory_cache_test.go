package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/mailsentry/internal/core"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), time.Minute)
	defer c.Stop()

	result := &core.ClassifierResult{SpamProbability: 0.8, ModelUsed: "test"}
	c.Set("abc", result, time.Minute)

	got, ok := c.Get("abc")
	require.True(t, ok)
	assert.InDelta(t, 0.8, got.SpamProbability, 1e-9)
	assert.Equal(t, "test", got.ModelUsed)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), time.Hour)
	defer c.Stop()

	c.Set("abc", &core.ClassifierResult{SpamProbability: 0.8}, -time.Second)

	_, ok := c.Get("abc")
	assert.False(t, ok)
}

func TestMemoryCacheReturnsCopy(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), time.Hour)
	defer c.Stop()

	c.Set("abc", &core.ClassifierResult{SpamProbability: 0.5}, time.Minute)

	first, ok := c.Get("abc")
	require.True(t, ok)
	first.SpamProbability = 0.99

	second, ok := c.Get("abc")
	require.True(t, ok)
	assert.InDelta(t, 0.5, second.SpamProbability, 1e-9)
}
