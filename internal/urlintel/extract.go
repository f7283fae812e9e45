package urlintel

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/mikey/mailsentry/internal/core"
	"golang.org/x/net/idna"
)

// \w is ASCII-only in RE2; internationalized hostnames need \p{L}\p{N} or
// the match stops at the first non-ASCII rune and mixed-script hosts are
// never seen by the scorer.
var urlRe = regexp.MustCompile(`(?i)https?://[-\w\p{L}\p{N}.:/%?&#=~+;,@!$'()*\[\]]+`)

// Extract finds every http/https URL in free text, case-preserving, distinct
// in first-seen order. Two URLs differing only in scheme case are the same
// URL. maxURLs bounds the result; zero or negative means no bound.
func Extract(text string, maxURLs int) []string {
	matches := urlRe.FindAllString(text, -1)

	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		// Trailing punctuation is almost always sentence punctuation, not
		// part of the URL.
		m = strings.TrimRight(m, ".,;!'")

		key := m
		if i := strings.Index(m, "://"); i > 0 {
			key = strings.ToLower(m[:i]) + m[i:]
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		urls = append(urls, m)
		if maxURLs > 0 && len(urls) == maxURLs {
			break
		}
	}
	return urls
}

// ParseURL derives the structural risk features of one URL. Unparseable
// input is never an error: the result degrades to a bare Url carrying only
// the original text, which matches no risk rule.
func ParseURL(raw string) core.Url {
	u, err := url.Parse(raw)
	if err != nil {
		return core.Url{Original: raw}
	}

	host := u.Hostname()
	lowerHost := strings.ToLower(host)

	depth := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			depth++
		}
	}

	tld := ""
	if i := strings.LastIndex(lowerHost, "."); i >= 0 && i < len(lowerHost)-1 {
		tld = lowerHost[i+1:]
	}

	return core.Url{
		Original:    raw,
		Scheme:      strings.ToLower(u.Scheme),
		Host:        host,
		Path:        u.Path,
		Query:       u.RawQuery,
		IsPunycode:  hasPunycodeLabel(lowerHost),
		IsRawIP:     net.ParseIP(host) != nil,
		PathDepth:   depth,
		QueryLength: len(u.RawQuery),
		TLD:         tld,
	}
}

func hasPunycodeLabel(lowerHost string) bool {
	for _, label := range strings.Split(lowerHost, ".") {
		if strings.HasPrefix(label, "xn--") {
			return true
		}
	}
	return false
}

// DecodeHost renders an IDNA hostname in Unicode form for explanations.
// Falls back to the input when decoding fails.
func DecodeHost(host string) string {
	decoded, err := idna.ToUnicode(host)
	if err != nil {
		return host
	}
	return decoded
}
