package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTextProcessor_Normalize(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop(), 4096)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty input", "", ""},
		{
			name:     "HTML stripped and entities decoded",
			input:    "<p>Act <b>now</b> &amp; save</p>",
			expected: "act now & save",
		},
		{
			name:     "URLs and addresses removed",
			input:    "Visit http://evil.zip/login or reply to boss@corp.example NOW",
			expected: "visit or reply to now",
		},
		{
			name:     "Whitespace collapsed",
			input:    "one\t\ttwo\n\n three",
			expected: "one two three",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tp.Normalize(tt.input))
		})
	}
}

func TestTextProcessor_TruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop(), 0)

	long := strings.Repeat("a", 100)
	truncated := tp.TruncateText(long, 10)
	assert.True(t, strings.HasPrefix(truncated, strings.Repeat("a", 10)))
	assert.Contains(t, truncated, "Content truncated")

	assert.Equal(t, "short", tp.TruncateText("short", 10))
	assert.Equal(t, long, tp.TruncateText(long, 0), "zero max size means unbounded")
}
