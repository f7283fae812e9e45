package core

import (
	"strings"
	"time"
)

// Email represents an email message handed to the engine by an ingestion
// adapter. RawHeaders carries the unparsed header block when the transport
// preserves it; Headers carries already-split values when it does not.
type Email struct {
	From       string
	To         []string
	Subject    string
	Body       string
	RawHeaders string
	Headers    map[string][]string
}

// AuthVerdict is the parsed outcome of one authentication mechanism.
type AuthVerdict int

const (
	// VerdictUnknown is the default whenever the originating header is
	// absent or unparseable. Never defaults to pass.
	VerdictUnknown AuthVerdict = iota
	VerdictPass
	VerdictFail
)

// String returns the lowercase verdict name.
func (v AuthVerdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictFail:
		return "fail"
	default:
		return "unknown"
	}
}

// AuthSource identifies which header supplied the authentication verdicts.
type AuthSource string

const (
	SourceAuthResultsHeader AuthSource = "authentication-results"
	SourceArcHeader         AuthSource = "arc-authentication-results"
	SourceFallbackScan      AuthSource = "fallback-scan"
	SourceReceivedSPF       AuthSource = "received-spf"
	SourceAbsent            AuthSource = "absent"
)

// AuthResult aggregates the asserted SPF/DKIM/DMARC verdicts. These are
// parsed from trust-but-verify header fields, not cryptographically
// re-verified.
type AuthResult struct {
	SPF    AuthVerdict
	DKIM   AuthVerdict
	DMARC  AuthVerdict
	Source AuthSource
}

// AnyFail reports whether any mechanism failed.
func (a AuthResult) AnyFail() bool {
	return a.SPF == VerdictFail || a.DKIM == VerdictFail || a.DMARC == VerdictFail
}

// AllPass reports whether all three mechanisms passed.
func (a AuthResult) AllPass() bool {
	return a.SPF == VerdictPass && a.DKIM == VerdictPass && a.DMARC == VerdictPass
}

// RuleTag names a URL risk rule that matched.
type RuleTag string

const (
	TagSuspiciousTLD RuleTag = "SuspiciousTLD"
	TagRawIPHost     RuleTag = "RawIPHost"
	TagDeepPath      RuleTag = "DeepPath"
	TagLongQuery     RuleTag = "LongQuery"
	TagHomograph     RuleTag = "Homograph"
)

// Url holds the structural risk features of one extracted URL.
// Read-only once built.
type Url struct {
	Original    string
	Scheme      string
	Host        string
	Path        string
	Query       string
	IsPunycode  bool
	IsRawIP     bool
	PathDepth   int
	QueryLength int
	TLD         string
}

// UrlRiskResult is the URL risk assessment for one analyzed text.
// Score follows the worst-link-wins policy: the maximum per-URL score.
// MatchedRules preserves discovery order for explainability.
type UrlRiskResult struct {
	Score        float64
	MatchedRules []RuleTag
	WorstURL     *Url
}

// ClassifierResult is the verdict of the external content classifier.
type ClassifierResult struct {
	SpamProbability float64
	// Categories maps threat category to probability; may be empty when the
	// model provides no category distribution.
	Categories  map[string]float64
	Explanation string
	ModelUsed   string
}

// OverrideTag names an override rule or degradation flag applied to a report.
type OverrideTag string

const (
	TagAuthHardFail       OverrideTag = "AuthHardFail"
	TagAuthOrURLSuspect   OverrideTag = "AuthOrURLSuspect"
	TagPhishingLanguage   OverrideTag = "PhishingLanguage"
	TagBrandImpersonation OverrideTag = "BrandImpersonation"
)

// Verdict is the final spam/not-spam decision.
type Verdict string

const (
	VerdictSpam    Verdict = "Spam"
	VerdictNotSpam Verdict = "Not Spam"
)

// EnsembleScore is the outcome of blending and override evaluation.
// FinalScore is never below RawBlend since overrides only escalate.
type EnsembleScore struct {
	RawBlend         float64
	FinalScore       float64
	Verdict          Verdict
	AppliedOverrides []OverrideTag
}

// AnalysisReport is the complete, explainable result of one analysis call.
type AnalysisReport struct {
	Verdict               Verdict
	FinalScore            float64
	RawBlend              float64
	URLRisk               UrlRiskResult
	Auth                  AuthResult
	AppliedOverrides      []OverrideTag
	Classifier            *ClassifierResult
	ClassifierUnavailable bool
	Category              string
	PhraseScore           float64
	DisplayMismatch       float64
	ProcessingID          string
	AnalyzedAt            time.Time
}

// AnalysisRecord is the copy of a report handed to history storage.
type AnalysisRecord struct {
	ID         string
	Message    string
	Verdict    Verdict
	Category   string
	FinalScore float64
	Timestamp  time.Time
}

// CacheEntry is a cached classifier verdict keyed by normalized body hash.
type CacheEntry struct {
	Key       string
	Result    ClassifierResult
	LastSeen  time.Time
	ExpiresAt time.Time
}

// Explanation renders a short human-readable account of the verdict for
// logs and tagging headers.
func (r *AnalysisReport) Explanation() string {
	parts := make([]string, 0, 4)

	if r.Classifier != nil && r.Classifier.Explanation != "" {
		parts = append(parts, r.Classifier.Explanation)
	}
	if r.ClassifierUnavailable {
		parts = append(parts, "classifier unavailable, neutral probability assumed")
	}
	if r.URLRisk.WorstURL != nil && len(r.URLRisk.MatchedRules) > 0 {
		rules := make([]string, len(r.URLRisk.MatchedRules))
		for i, tag := range r.URLRisk.MatchedRules {
			rules[i] = string(tag)
		}
		parts = append(parts, "risky URL "+r.URLRisk.WorstURL.Original+" ["+strings.Join(rules, ", ")+"]")
	}
	if r.Auth.Source != SourceAbsent {
		parts = append(parts, "auth spf="+r.Auth.SPF.String()+" dkim="+r.Auth.DKIM.String()+" dmarc="+r.Auth.DMARC.String())
	}
	if len(r.AppliedOverrides) > 0 {
		tags := make([]string, len(r.AppliedOverrides))
		for i, tag := range r.AppliedOverrides {
			tags[i] = string(tag)
		}
		parts = append(parts, "overrides: "+strings.Join(tags, ", "))
	}
	if len(parts) == 0 {
		return "no risk signals detected"
	}
	return strings.Join(parts, "; ")
}
