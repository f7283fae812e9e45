package urlintel

import (
	"strings"

	"github.com/mikey/mailsentry/internal/core"
)

// Rule contributions are additive per URL and capped at 1.0. The values are
// tuned for auditability: each one is traceable to a concrete structural
// signal, and no single noisy feature can dominate the total.
const (
	suspiciousTLDWeight = 0.35
	rawIPHostWeight     = 0.30
	deepPathWeight      = 0.15
	longQueryWeight     = 0.10
	homographWeight     = 0.35
)

// Scorer computes URL risk for a message under immutable, process-lifetime
// configuration.
type Scorer struct {
	suspiciousTLDs map[string]struct{}
	maxURLs        int
	pathDepth      int
	queryLength    int
}

// NewScorer builds a scorer from the configured TLD set and thresholds.
func NewScorer(suspiciousTLDs []string, maxURLs, pathDepthThreshold, queryLengthThreshold int) *Scorer {
	tlds := make(map[string]struct{}, len(suspiciousTLDs))
	for _, tld := range suspiciousTLDs {
		tlds[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tld), "."))] = struct{}{}
	}
	return &Scorer{
		suspiciousTLDs: tlds,
		maxURLs:        maxURLs,
		pathDepth:      pathDepthThreshold,
		queryLength:    queryLengthThreshold,
	}
}

// ScoreText extracts the URLs of a message body and scores them.
func (s *Scorer) ScoreText(body string) core.UrlRiskResult {
	return s.Score(Extract(body, s.maxURLs))
}

// Score computes the message-level URL risk: each URL accumulates additive
// rule contributions capped at 1.0, and the message takes the maximum
// per-URL score (worst-link-wins). The worst URL and its matched rules, in
// discovery order, are recorded for explanation; both stay empty when no
// rule matched anywhere. No URLs yields score 0: absence of the signal, not
// evidence of legitimacy.
func (s *Scorer) Score(urls []string) core.UrlRiskResult {
	result := core.UrlRiskResult{}

	for _, raw := range urls {
		u := ParseURL(raw)
		score, matched := s.scoreURL(u)
		// A URL that matched no rule is not a "worst" URL, only a URL.
		if len(matched) == 0 {
			continue
		}
		if result.WorstURL == nil || score > result.Score {
			result.Score = score
			result.MatchedRules = matched
			worst := u
			result.WorstURL = &worst
		}
	}
	return result
}

func (s *Scorer) scoreURL(u core.Url) (float64, []core.RuleTag) {
	score := 0.0
	var matched []core.RuleTag

	if _, ok := s.suspiciousTLDs[u.TLD]; ok {
		score += suspiciousTLDWeight
		matched = append(matched, core.TagSuspiciousTLD)
	}
	if u.IsRawIP {
		score += rawIPHostWeight
		matched = append(matched, core.TagRawIPHost)
	}
	if u.PathDepth > s.pathDepth {
		score += deepPathWeight
		matched = append(matched, core.TagDeepPath)
	}
	if u.QueryLength > s.queryLength {
		score += longQueryWeight
		matched = append(matched, core.TagLongQuery)
	}
	if u.IsPunycode || IsHomograph(u.Host) {
		score += homographWeight
		matched = append(matched, core.TagHomograph)
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, matched
}
