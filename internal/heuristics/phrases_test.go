package heuristics

import (
	"testing"

	"github.com/mikey/mailsentry/internal/headers"
	"github.com/stretchr/testify/assert"
)

func TestPhraseScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"Empty text", "", 0.0},
		{"No phishing language", "Lunch on Thursday?", 0.0},
		{"Single phrase", "Please verify your account today.", 0.25},
		{
			name:     "Multiple phrases accumulate",
			text:     "Verify your account now. Unusual login activity detected. Reset your password immediately.",
			expected: 0.75,
		},
		{
			name: "Capped at one",
			text: "verify your account, reset your password, update payment, gift card, " +
				"billing problem, urgent action required",
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PhraseScore(tt.text), 1e-9)
		})
	}
}

func TestDisplayNameMismatch(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{
			name:     "PayPal display name from unrelated domain",
			raw:      "From: \"PayPal Support\" <security@evil-mail.ru>\n",
			expected: 0.6,
		},
		{
			name:     "Brand display name from brand domain",
			raw:      "From: \"Microsoft Account Team\" <account-security@microsoft.com>\n",
			expected: 0.0,
		},
		{
			name:     "No brand keyword",
			raw:      "From: \"Jane Doe\" <jane@example.com>\n",
			expected: 0.0,
		},
		{
			name:     "Bare address without display name",
			raw:      "From: jane@example.com\n",
			expected: 0.0,
		},
		{
			name:     "Missing From header",
			raw:      "Subject: hi\n",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DisplayNameMismatch(headers.Unfold(tt.raw)), 1e-9)
		})
	}
}
