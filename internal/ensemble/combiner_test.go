package ensemble

import (
	"testing"

	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/core"
	"github.com/stretchr/testify/assert"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		ClassifierWeight:     0.50,
		URLWeight:            0.15,
		AuthWeight:           0.35,
		SpamThreshold:        0.45,
		HighURLRisk:          0.70,
		PathDepthThreshold:   4,
		QueryLengthThreshold: 100,
	}
}

func TestAuthPenalty(t *testing.T) {
	tests := []struct {
		name     string
		auth     core.AuthResult
		expected float64
	}{
		{"All unknown contributes nothing", core.AuthResult{}, 0.0},
		{
			name:     "All pass earns a discount",
			auth:     core.AuthResult{SPF: core.VerdictPass, DKIM: core.VerdictPass, DMARC: core.VerdictPass},
			expected: -0.15,
		},
		{
			name:     "SPF fail",
			auth:     core.AuthResult{SPF: core.VerdictFail},
			expected: 0.40,
		},
		{
			name:     "DMARC fail",
			auth:     core.AuthResult{DMARC: core.VerdictFail},
			expected: 0.50,
		},
		{
			name:     "All fail clamps at one",
			auth:     core.AuthResult{SPF: core.VerdictFail, DKIM: core.VerdictFail, DMARC: core.VerdictFail},
			expected: 1.0,
		},
		{
			name:     "Pass mixed with unknown is not all-pass",
			auth:     core.AuthResult{SPF: core.VerdictPass, DKIM: core.VerdictPass},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AuthPenalty(tt.auth), 1e-9)
		})
	}
}

func TestCombiner_Blend(t *testing.T) {
	c := NewCombiner(testEngineConfig())

	tests := []struct {
		name     string
		p        float64
		url      float64
		auth     core.AuthResult
		expected float64
	}{
		{"All zero", 0.0, 0.0, core.AuthResult{}, 0.0},
		{"Classifier only", 0.8, 0.0, core.AuthResult{}, 0.40},
		{"Neutral classifier, nothing else", NeutralProbability, 0.0, core.AuthResult{}, 0.25},
		{
			name: "All signals firing",
			p:    1.0, url: 1.0,
			auth:     core.AuthResult{SPF: core.VerdictFail, DKIM: core.VerdictFail, DMARC: core.VerdictFail},
			expected: 1.0,
		},
		{
			name: "All-pass discount pulls the blend down",
			p:    0.2, url: 0.0,
			auth:     core.AuthResult{SPF: core.VerdictPass, DKIM: core.VerdictPass, DMARC: core.VerdictPass},
			expected: 0.1 - 0.35*0.15,
		},
		{
			name: "Clamped at zero",
			p:    0.0, url: 0.0,
			auth:     core.AuthResult{SPF: core.VerdictPass, DKIM: core.VerdictPass, DMARC: core.VerdictPass},
			expected: 0.0,
		},
		{"Out-of-range inputs clamped", 7.0, -3.0, core.AuthResult{}, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blend := c.Blend(tt.p, tt.url, tt.auth)
			assert.InDelta(t, tt.expected, blend, 1e-9)
			assert.GreaterOrEqual(t, blend, 0.0)
			assert.LessOrEqual(t, blend, 1.0)
		})
	}
}
