package ensemble

import (
	"testing"

	"github.com/mikey/mailsentry/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestOverrides_TierRules(t *testing.T) {
	o := NewOverrides(testEngineConfig())

	tests := []struct {
		name          string
		rawBlend      float64
		signals       Signals
		expectedFinal float64
		expectedTags  []core.OverrideTag
		expectedSpam  bool
	}{
		{
			name:     "DMARC fail alone forces the hard-fail rule regardless of URL risk",
			rawBlend: 0.30,
			signals: Signals{
				Auth:    core.AuthResult{SPF: core.VerdictPass, DKIM: core.VerdictPass, DMARC: core.VerdictFail},
				URLRisk: 0.20,
			},
			expectedFinal: 0.90,
			expectedTags:  []core.OverrideTag{core.TagAuthHardFail},
			expectedSpam:  true,
		},
		{
			name:     "SPF and DKIM fail with high URL risk",
			rawBlend: 0.10,
			signals: Signals{
				Auth:    core.AuthResult{SPF: core.VerdictFail, DKIM: core.VerdictFail},
				URLRisk: 0.80,
			},
			expectedFinal: 0.90,
			expectedTags:  []core.OverrideTag{core.TagAuthHardFail},
			expectedSpam:  true,
		},
		{
			name:     "SPF and DKIM fail without high URL risk only reaches the second tier",
			rawBlend: 0.10,
			signals: Signals{
				Auth:    core.AuthResult{SPF: core.VerdictFail, DKIM: core.VerdictFail},
				URLRisk: 0.30,
			},
			expectedFinal: 0.75,
			expectedTags:  []core.OverrideTag{core.TagAuthOrURLSuspect},
			expectedSpam:  true,
		},
		{
			name:          "High URL risk alone",
			rawBlend:      0.20,
			signals:       Signals{URLRisk: 0.70},
			expectedFinal: 0.75,
			expectedTags:  []core.OverrideTag{core.TagAuthOrURLSuspect},
			expectedSpam:  true,
		},
		{
			name:          "No rule fires, blend carried through",
			rawBlend:      0.30,
			signals:       Signals{URLRisk: 0.10},
			expectedFinal: 0.30,
			expectedTags:  nil,
			expectedSpam:  false,
		},
		{
			name:     "Rules never lower an already high blend",
			rawBlend: 0.97,
			signals: Signals{
				Auth: core.AuthResult{DMARC: core.VerdictFail},
			},
			expectedFinal: 0.97,
			expectedTags:  []core.OverrideTag{core.TagAuthHardFail},
			expectedSpam:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := o.Apply(tt.rawBlend, tt.signals)

			assert.InDelta(t, tt.expectedFinal, score.FinalScore, 1e-9)
			assert.Equal(t, tt.expectedTags, score.AppliedOverrides)
			assert.GreaterOrEqual(t, score.FinalScore, score.RawBlend, "overrides only escalate")
			if tt.expectedSpam {
				assert.Equal(t, core.VerdictSpam, score.Verdict)
			} else {
				assert.Equal(t, core.VerdictNotSpam, score.Verdict)
			}
		})
	}
}

func TestOverrides_TierRulesAreExclusive(t *testing.T) {
	o := NewOverrides(testEngineConfig())

	// A DMARC failure matches both tier predicates; only the first applies.
	score := o.Apply(0.0, Signals{
		Auth: core.AuthResult{DMARC: core.VerdictFail},
	})

	assert.Equal(t, []core.OverrideTag{core.TagAuthHardFail}, score.AppliedOverrides)
	assert.InDelta(t, 0.90, score.FinalScore, 1e-9)
}

func TestOverrides_SupplementaryRules(t *testing.T) {
	o := NewOverrides(testEngineConfig())

	score := o.Apply(0.10, Signals{
		PhraseScore:     0.75,
		DisplayMismatch: 0.6,
	})

	assert.Equal(t, []core.OverrideTag{core.TagPhishingLanguage, core.TagBrandImpersonation}, score.AppliedOverrides)
	assert.InDelta(t, 0.65, score.FinalScore, 1e-9)
	assert.Equal(t, core.VerdictSpam, score.Verdict)
}

func TestOverrides_SupplementaryStacksOnTier(t *testing.T) {
	o := NewOverrides(testEngineConfig())

	score := o.Apply(0.10, Signals{
		Auth:        core.AuthResult{SPF: core.VerdictFail},
		PhraseScore: 0.5,
	})

	// The tier raise to 0.75 dominates the supplementary 0.60 floor, but
	// both tags are recorded.
	assert.InDelta(t, 0.75, score.FinalScore, 1e-9)
	assert.Equal(t, []core.OverrideTag{core.TagAuthOrURLSuspect, core.TagPhishingLanguage}, score.AppliedOverrides)
}

func TestOverrides_ThresholdFavorsRecall(t *testing.T) {
	o := NewOverrides(testEngineConfig())

	assert.Equal(t, core.VerdictSpam, o.Apply(0.45, Signals{}).Verdict)
	assert.Equal(t, core.VerdictNotSpam, o.Apply(0.449, Signals{}).Verdict)
}
