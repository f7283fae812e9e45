package ensemble

import (
	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/core"
)

// Signals is the joined evidence the override rules evaluate against.
type Signals struct {
	Auth            core.AuthResult
	URLRisk         float64
	PhraseScore     float64
	DisplayMismatch float64
}

// Rule is one deterministic override: when the predicate holds, the final
// score is raised to at least RaiseTo and the tag is appended. Rules never
// lower the score.
type Rule struct {
	Tag       core.OverrideTag
	RaiseTo   float64
	Predicate func(Signals) bool
}

// Overrides evaluates a fixed, ordered rule list after blending. The two
// tier rules are mutually exclusive by construction (the first implies the
// second's condition) and only the first match of the tier applies;
// supplementary rules are independent and each may fire.
type Overrides struct {
	tier          []Rule
	supplementary []Rule
	spamThreshold float64
}

// NewOverrides builds the rule engine from validated engine configuration.
func NewOverrides(cfg config.EngineConfig) *Overrides {
	high := cfg.HighURLRisk

	return &Overrides{
		spamThreshold: cfg.SpamThreshold,
		tier: []Rule{
			{
				// DMARC failure alone, or the full SPF+DKIM failure combined
				// with high URL risk, is treated as near-certain phishing.
				Tag:     core.TagAuthHardFail,
				RaiseTo: 0.90,
				Predicate: func(s Signals) bool {
					if s.Auth.DMARC == core.VerdictFail {
						return true
					}
					return s.Auth.SPF == core.VerdictFail &&
						s.Auth.DKIM == core.VerdictFail &&
						s.URLRisk >= high
				},
			},
			{
				Tag:     core.TagAuthOrURLSuspect,
				RaiseTo: 0.75,
				Predicate: func(s Signals) bool {
					return s.Auth.AnyFail() || s.URLRisk >= high
				},
			},
		},
		supplementary: []Rule{
			{
				Tag:     core.TagPhishingLanguage,
				RaiseTo: 0.60,
				Predicate: func(s Signals) bool {
					return s.PhraseScore >= 0.5
				},
			},
			{
				Tag:     core.TagBrandImpersonation,
				RaiseTo: 0.65,
				Predicate: func(s Signals) bool {
					return s.DisplayMismatch > 0
				},
			},
		},
	}
}

// Apply runs the override rules over the blended score and produces the
// final verdict. FinalScore is always at least RawBlend; the applied tags
// are recorded in evaluation order. Never fails: all inputs are assumed
// already validated or defaulted upstream.
func (o *Overrides) Apply(rawBlend float64, signals Signals) core.EnsembleScore {
	score := core.EnsembleScore{
		RawBlend:   clamp01(rawBlend),
		FinalScore: clamp01(rawBlend),
	}

	for _, rule := range o.tier {
		if rule.Predicate(signals) {
			score.FinalScore = raise(score.FinalScore, rule.RaiseTo)
			score.AppliedOverrides = append(score.AppliedOverrides, rule.Tag)
			break
		}
	}

	for _, rule := range o.supplementary {
		if rule.Predicate(signals) {
			score.FinalScore = raise(score.FinalScore, rule.RaiseTo)
			score.AppliedOverrides = append(score.AppliedOverrides, rule.Tag)
		}
	}

	// Deliberately below 0.5 to favor recall.
	if score.FinalScore >= o.spamThreshold {
		score.Verdict = core.VerdictSpam
	} else {
		score.Verdict = core.VerdictNotSpam
	}
	return score
}

func raise(current, floor float64) float64 {
	if floor > current {
		return floor
	}
	return current
}
