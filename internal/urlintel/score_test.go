package urlintel

import (
	"strings"
	"testing"

	"github.com/mikey/mailsentry/internal/core"
	"github.com/stretchr/testify/assert"
)

func newTestScorer() *Scorer {
	return NewScorer([]string{"zip", "mov", "click", "work", "xyz", "top", "casa"}, 25, 4, 100)
}

func TestScorer_Rules(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		expectedScore float64
		expectedRules []core.RuleTag
	}{
		{
			name:          "Suspicious TLD",
			url:           "http://login.example.zip/",
			expectedScore: 0.35,
			expectedRules: []core.RuleTag{core.TagSuspiciousTLD},
		},
		{
			name:          "Raw IPv4 host",
			url:           "http://192.168.12.7/login",
			expectedScore: 0.30,
			expectedRules: []core.RuleTag{core.TagRawIPHost},
		},
		{
			name:          "Raw IPv6 host",
			url:           "http://[2001:db8::1]/login",
			expectedScore: 0.30,
			expectedRules: []core.RuleTag{core.TagRawIPHost},
		},
		{
			name:          "Deep path over threshold",
			url:           "https://example.com/a/b/c/d/e",
			expectedScore: 0.15,
			expectedRules: []core.RuleTag{core.TagDeepPath},
		},
		{
			name:          "Path depth at threshold does not fire",
			url:           "https://example.com/a/b/c/d",
			expectedScore: 0.0,
			expectedRules: nil,
		},
		{
			name:          "Long query",
			url:           "https://example.com/?q=" + strings.Repeat("x", 120),
			expectedScore: 0.10,
			expectedRules: []core.RuleTag{core.TagLongQuery},
		},
		{
			name:          "Punycode host",
			url:           "http://xn--80ak6aa92e.com/",
			expectedScore: 0.35,
			expectedRules: []core.RuleTag{core.TagHomograph},
		},
		{
			name:          "Benign URL",
			url:           "https://example.com/about",
			expectedScore: 0.0,
			expectedRules: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestScorer().Score([]string{tt.url})
			assert.InDelta(t, tt.expectedScore, result.Score, 1e-9)
			assert.Equal(t, tt.expectedRules, result.MatchedRules)
		})
	}
}

func TestScorer_AdditiveCapped(t *testing.T) {
	// Suspicious TLD + raw IP is impossible on one host, but TLD + deep path
	// + long query + punycode stacks: 0.35 + 0.15 + 0.10 + 0.35 = 0.95.
	url := "http://xn--pple-43d.zip/a/b/c/d/e?q=" + strings.Repeat("z", 150)
	result := newTestScorer().Score([]string{url})

	assert.InDelta(t, 0.95, result.Score, 1e-9)
	assert.LessOrEqual(t, result.Score, 1.0)
	assert.Equal(t, []core.RuleTag{
		core.TagSuspiciousTLD, core.TagDeepPath, core.TagLongQuery, core.TagHomograph,
	}, result.MatchedRules)
}

func TestScorer_PunycodeDeepPathScenario(t *testing.T) {
	body := "Click here: http://xn--pple-43d.com/a/b/c/d/e?x=1"
	result := newTestScorer().ScoreText(body)

	assert.LessOrEqual(t, result.Score, 1.0)
	assert.Contains(t, result.MatchedRules, core.TagHomograph)
	assert.Contains(t, result.MatchedRules, core.TagDeepPath)
	if assert.NotNil(t, result.WorstURL) {
		assert.Equal(t, "xn--pple-43d.com", result.WorstURL.Host)
		assert.True(t, result.WorstURL.IsPunycode)
	}
}

func TestScorer_WorstLinkWins(t *testing.T) {
	scorer := newTestScorer()

	one := scorer.Score([]string{"http://evil.zip/"})
	two := scorer.Score([]string{"http://evil.zip/", "http://another.zip/"})
	mixed := scorer.Score([]string{"https://benign.example.com/", "http://evil.zip/"})

	// Adding a second suspicious URL never lowers the message score.
	assert.GreaterOrEqual(t, two.Score, one.Score)
	// A benign URL alongside a risky one does not dilute it.
	assert.InDelta(t, one.Score, mixed.Score, 1e-9)
	if assert.NotNil(t, mixed.WorstURL) {
		assert.Equal(t, "http://evil.zip/", mixed.WorstURL.Original)
	}
}

func TestScorer_MixedScriptHostInBody(t *testing.T) {
	// The host carries a Cyrillic letter in an otherwise Latin label; the
	// extractor must deliver it intact so the homograph rule can see it.
	result := newTestScorer().ScoreText("Login here: http://pаypal.com/secure")

	assert.InDelta(t, 0.35, result.Score, 1e-9)
	assert.Equal(t, []core.RuleTag{core.TagHomograph}, result.MatchedRules)
	if assert.NotNil(t, result.WorstURL) {
		assert.Equal(t, "pаypal.com", result.WorstURL.Host)
	}
}

func TestScorer_BenignURLsRecordNoWorstURL(t *testing.T) {
	result := newTestScorer().Score([]string{
		"https://example.com/about",
		"https://example.org/",
	})

	assert.Zero(t, result.Score)
	assert.Empty(t, result.MatchedRules)
	assert.Nil(t, result.WorstURL)
}

func TestScorer_NoURLs(t *testing.T) {
	result := newTestScorer().ScoreText("no links in this message at all")

	assert.Zero(t, result.Score)
	assert.Empty(t, result.MatchedRules)
	assert.Nil(t, result.WorstURL)
}

func TestExtract(t *testing.T) {
	body := "See https://a.example.com/x then HTTPS://a.example.com/x and http://b.example.com."
	urls := Extract(body, 25)

	assert.Equal(t, []string{"https://a.example.com/x", "http://b.example.com"}, urls)
}

func TestExtract_UnicodeHost(t *testing.T) {
	urls := Extract("Login here: http://pаypal.com/secure now", 25)

	assert.Equal(t, []string{"http://pаypal.com/secure"}, urls)
}

func TestExtract_MaxURLs(t *testing.T) {
	body := "http://a.com/1 http://a.com/2 http://a.com/3"
	assert.Len(t, Extract(body, 2), 2)
}

func TestParseURL_Malformed(t *testing.T) {
	u := ParseURL("http://%zz^^^")
	assert.Equal(t, "http://%zz^^^", u.Original)
	assert.False(t, u.IsRawIP)
	assert.Zero(t, u.PathDepth)
}
