package headers

import (
	"testing"

	"github.com/mikey/mailsentry/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestParseAuthResults(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected core.AuthResult
	}{
		{
			name: "Authentication-Results header",
			raw:  "Authentication-Results: mx.example.com; dmarc=fail; spf=pass; dkim=pass\n",
			expected: core.AuthResult{
				SPF: core.VerdictPass, DKIM: core.VerdictPass, DMARC: core.VerdictFail,
				Source: core.SourceAuthResultsHeader,
			},
		},
		{
			name: "Softfail maps to fail",
			raw:  "Authentication-Results: mx; spf=softfail; dkim=neutral; dmarc=none\n",
			expected: core.AuthResult{
				SPF: core.VerdictFail, DKIM: core.VerdictUnknown, DMARC: core.VerdictUnknown,
				Source: core.SourceAuthResultsHeader,
			},
		},
		{
			name: "ARC header fills what the primary header left unknown",
			raw: "Authentication-Results: mx; spf=pass\n" +
				"ARC-Authentication-Results: i=1; mx; dkim=fail; spf=fail\n",
			expected: core.AuthResult{
				SPF: core.VerdictPass, DKIM: core.VerdictFail, DMARC: core.VerdictUnknown,
				Source: core.SourceAuthResultsHeader,
			},
		},
		{
			name: "Fallback scan over arbitrary headers",
			raw:  "X-Forwarded-Auth: upstream said dkim=fail and dmarc=pass\n",
			expected: core.AuthResult{
				SPF: core.VerdictUnknown, DKIM: core.VerdictFail, DMARC: core.VerdictPass,
				Source: core.SourceFallbackScan,
			},
		},
		{
			name: "Received-SPF as last resort",
			raw:  "Received-SPF: fail (example.com: domain does not designate sender)\n",
			expected: core.AuthResult{
				SPF: core.VerdictFail, DKIM: core.VerdictUnknown, DMARC: core.VerdictUnknown,
				Source: core.SourceReceivedSPF,
			},
		},
		{
			name: "Duplicate headers, first occurrence wins",
			raw: "Authentication-Results: mx1; spf=fail\n" +
				"Authentication-Results: mx2; spf=pass\n",
			expected: core.AuthResult{
				SPF: core.VerdictFail, DKIM: core.VerdictUnknown, DMARC: core.VerdictUnknown,
				Source: core.SourceAuthResultsHeader,
			},
		},
		{
			name: "Unparseable token degrades to unknown",
			raw:  "Authentication-Results: mx; spf=banana; dkim=; dmarc\n",
			expected: core.AuthResult{
				SPF: core.VerdictUnknown, DKIM: core.VerdictUnknown, DMARC: core.VerdictUnknown,
				Source: core.SourceAbsent,
			},
		},
		{
			name: "No auth headers at all, never pass",
			raw:  "From: a@b.c\nSubject: nothing here\n",
			expected: core.AuthResult{
				SPF: core.VerdictUnknown, DKIM: core.VerdictUnknown, DMARC: core.VerdictUnknown,
				Source: core.SourceAbsent,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAuthResults(Unfold(tt.raw)))
		})
	}
}

func TestParseAuthResults_FoldedHeader(t *testing.T) {
	raw := "Authentication-Results: mx.example.com;\n\tspf=pass smtp.mailfrom=example.com;\n\tdkim=fail header.d=example.com;\n\tdmarc=pass\n"
	result := ParseAuthResults(Unfold(raw))

	assert.Equal(t, core.VerdictPass, result.SPF)
	assert.Equal(t, core.VerdictFail, result.DKIM)
	assert.Equal(t, core.VerdictPass, result.DMARC)
	assert.Equal(t, core.SourceAuthResultsHeader, result.Source)
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"Angle bracket form", "From: \"IT Support\" <help@EXAMPLE.com>\n", "example.com"},
		{"Bare address", "From: alice@example.org\n", "example.org"},
		{"Missing header", "Subject: hi\n", ""},
		{"No at sign", "From: not-an-address\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromDomain(Unfold(tt.raw)))
		})
	}
}
