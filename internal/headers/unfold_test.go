package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnfold(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected HeaderList
	}{
		{
			name: "Simple headers",
			raw:  "From: alice@example.com\nSubject: hello\n",
			expected: HeaderList{
				{Name: "From", Value: "alice@example.com"},
				{Name: "Subject", Value: "hello"},
			},
		},
		{
			name: "Folded value rejoined with single space",
			raw:  "Authentication-Results: mx.example.com;\n\tspf=pass smtp.mailfrom=example.com;\n  dkim=pass\n",
			expected: HeaderList{
				{Name: "Authentication-Results", Value: "mx.example.com; spf=pass smtp.mailfrom=example.com; dkim=pass"},
			},
		},
		{
			name: "CRLF line endings",
			raw:  "Subject: multi\r\n line\r\n",
			expected: HeaderList{
				{Name: "Subject", Value: "multi line"},
			},
		},
		{
			name: "Blank and colonless lines dropped",
			raw:  "garbage without colon\n\nFrom: bob@example.com\nanother stray line\n",
			expected: HeaderList{
				{Name: "From", Value: "bob@example.com"},
			},
		},
		{
			name:     "Leading continuation with nothing to attach to",
			raw:      "  orphan continuation\nFrom: x@y.z\n",
			expected: HeaderList{{Name: "From", Value: "x@y.z"}},
		},
		{
			name:     "Empty input",
			raw:      "",
			expected: HeaderList{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Unfold(tt.raw))
		})
	}
}

func TestUnfold_Idempotent(t *testing.T) {
	raw := "Received: from a (b)\n by c;\nSubject: folded\n subject line\nFrom: a@b.c\n"
	once := Unfold(raw)

	// Render the unfolded headers back to a block and unfold again: an
	// already-unfolded block must come back unchanged.
	var rendered string
	for _, h := range once {
		rendered += h.Name + ": " + h.Value + "\n"
	}
	assert.Equal(t, once, Unfold(rendered))
}

func TestHeaderList_Lookup(t *testing.T) {
	hdrs := Unfold("From: first@example.com\nFROM: second@example.com\nX-Test: a\n")

	value, ok := hdrs.Get("from")
	assert.True(t, ok)
	assert.Equal(t, "first@example.com", value, "first occurrence wins")

	assert.Equal(t, []string{"first@example.com", "second@example.com"}, hdrs.Values("From"))

	_, ok = hdrs.Get("Missing")
	assert.False(t, ok)
}
