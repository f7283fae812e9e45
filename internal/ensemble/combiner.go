package ensemble

import (
	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/core"
)

// Auth penalty contributions. A failed mechanism is strong evidence of
// spoofing; an unknown one contributes nothing (absence of signal is not
// evidence either way); a clean sweep of passes earns a small discount.
const (
	spfFailPenalty   = 0.40
	dkimFailPenalty  = 0.35
	dmarcFailPenalty = 0.50
	allPassDiscount  = -0.15
)

// NeutralProbability substitutes for the classifier output when the
// classifier is unavailable: maximal uncertainty, not an assumption of
// legitimacy.
const NeutralProbability = 0.5

// Combiner blends the classifier probability, URL risk and auth verdicts
// into a single raw score. Pure and stateless: weights are fixed at
// construction from validated configuration and never change.
type Combiner struct {
	classifierWeight float64
	urlWeight        float64
	authWeight       float64
}

// NewCombiner builds a combiner from validated engine configuration.
func NewCombiner(cfg config.EngineConfig) *Combiner {
	return &Combiner{
		classifierWeight: cfg.ClassifierWeight,
		urlWeight:        cfg.URLWeight,
		authWeight:       cfg.AuthWeight,
	}
}

// Blend computes the weighted combination of the three signals, clamped to
// [0,1]. The weights sum to 1 (enforced at startup), so the clamp only acts
// when the all-pass discount pulls the auth term negative.
func (c *Combiner) Blend(spamProbability, urlScore float64, auth core.AuthResult) float64 {
	blend := c.classifierWeight*clamp01(spamProbability) +
		c.urlWeight*clamp01(urlScore) +
		c.authWeight*AuthPenalty(auth)
	return clamp01(blend)
}

// AuthPenalty maps the three verdicts to a deterministic penalty. Failures
// accumulate and clamp at 1; all-pass yields a small negative adjustment;
// anything unknown contributes nothing.
func AuthPenalty(auth core.AuthResult) float64 {
	if auth.AllPass() {
		return allPassDiscount
	}

	penalty := 0.0
	if auth.SPF == core.VerdictFail {
		penalty += spfFailPenalty
	}
	if auth.DKIM == core.VerdictFail {
		penalty += dkimFailPenalty
	}
	if auth.DMARC == core.VerdictFail {
		penalty += dmarcFailPenalty
	}
	if penalty > 1.0 {
		penalty = 1.0
	}
	return penalty
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
