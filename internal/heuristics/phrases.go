package heuristics

import (
	"regexp"
	"strings"

	"github.com/mikey/mailsentry/internal/headers"
)

// Phrase patterns common in credential-phishing and payment-fraud mail.
// Each match contributes 0.25, capped at 1.0.
var phishPhraseRe = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`verify your account`,
	`confirm your (?:identity|account)`,
	`update (?:your )?payment`,
	`urgent (?:action|update)`,
	`unusual (?:sign|login) activity`,
	`your (?:mailbox|account) will be (?:closed|suspended)`,
	`reset your password`,
	`billing (?:problem|issue)`,
	`win(?:ner|) [$€£]?\d+`,
	`gift card`,
}, "|"))

// Brands commonly impersonated in display names.
var brandKeywords = []string{
	"microsoft", "office365", "google", "gmail", "apple", "amazon",
	"paypal", "bank", "netflix", "meta", "facebook",
}

var displayNameRe = regexp.MustCompile(`(?i)^\s*"?([^"<]+?)"?\s*<[^>]*@([^>]+)>`)

// PhraseScore scores the density of phishing phrases in a message body.
// Pure; more matches raise the score up to 1.0.
func PhraseScore(text string) float64 {
	if text == "" {
		return 0.0
	}
	score := 0.25 * float64(len(phishPhraseRe.FindAllString(text, -1)))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// DisplayNameMismatch returns 0.6 when the From display name suggests a
// well-known brand but the From domain is unrelated to it, 0 otherwise.
func DisplayNameMismatch(hdrs headers.HeaderList) float64 {
	from, ok := hdrs.Get("From")
	if !ok {
		return 0.0
	}
	m := displayNameRe.FindStringSubmatch(from)
	if m == nil {
		return 0.0
	}
	display := strings.ToLower(strings.TrimSpace(m[1]))
	domain := strings.ToLower(strings.TrimSpace(m[2]))

	for _, brand := range brandKeywords {
		if strings.Contains(display, brand) && !strings.Contains(domain, brand) {
			return 0.6
		}
	}
	return 0.0
}
