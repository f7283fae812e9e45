package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecker_IsAllowlisted(t *testing.T) {
	checker := NewChecker([]string{"Example.com", " paypal.com "}, nil)

	tests := []struct {
		name     string
		from     string
		expected bool
	}{
		{"Exact domain", "alice@example.com", true},
		{"Case insensitive", "alice@EXAMPLE.COM", true},
		{"Subdomain of allowlisted domain", "billing@mail.paypal.com", true},
		{"Lookalike is not a suffix match", "x@notexample.com", false},
		{"Unlisted domain", "bob@evil.ru", false},
		{"Malformed address", "no-at-sign", false},
		{"Angle bracket residue", "Bob <bob@example.com>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.IsAllowlisted(tt.from))
		})
	}
}

func TestChecker_EmptyList(t *testing.T) {
	assert.False(t, NewChecker(nil, nil).IsAllowlisted("anyone@anywhere.com"))
}
