package headers

import (
	"regexp"
	"strings"

	"github.com/mikey/mailsentry/internal/core"
)

// Authentication result tokens are matched case-insensitively against the
// result registry of RFC 8601 plus common non-standard values.
var authTokenRe = regexp.MustCompile(`(?i)\b(spf|dkim|dmarc)\s*=\s*([a-z]+)`)

// mapVerdict maps a result token to a verdict. Only an explicit pass counts
// as pass; fail, softfail and hardfail count as fail; everything else,
// including absence, is unknown.
func mapVerdict(token string) core.AuthVerdict {
	switch strings.ToLower(token) {
	case "pass":
		return core.VerdictPass
	case "fail", "softfail", "hardfail":
		return core.VerdictFail
	default:
		return core.VerdictUnknown
	}
}

// scanTokens extracts the first spf=/dkim=/dmarc= result token per
// mechanism from text. Later occurrences of the same mechanism are ignored:
// the first-seen value is treated as most authoritative, a policy choice
// (receiving servers typically prepend their trace headers), not a protocol
// guarantee.
func scanTokens(text string) (spf, dkim, dmarc core.AuthVerdict) {
	for _, m := range authTokenRe.FindAllStringSubmatch(text, -1) {
		verdict := mapVerdict(m[2])
		switch strings.ToLower(m[1]) {
		case "spf":
			if spf == core.VerdictUnknown {
				spf = verdict
			}
		case "dkim":
			if dkim == core.VerdictUnknown {
				dkim = verdict
			}
		case "dmarc":
			if dmarc == core.VerdictUnknown {
				dmarc = verdict
			}
		}
	}
	return spf, dkim, dmarc
}

// receivedSPFVerdict parses a Received-SPF header value, whose first token
// is the SPF result ("Received-SPF: pass (example.com: ...)").
func receivedSPFVerdict(value string) core.AuthVerdict {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return core.VerdictUnknown
	}
	return mapVerdict(strings.TrimSuffix(fields[0], ";"))
}

// ParseAuthResults extracts SPF/DKIM/DMARC verdicts from unfolded headers.
//
// Sources are consulted in priority order: Authentication-Results, then
// ARC-Authentication-Results, then a fallback scan of every header value
// for embedded spf=/dkim=/dmarc= tokens, then Received-SPF (SPF only).
// A lower-priority source only fills mechanisms still unknown. The recorded
// Source is the highest-priority source that supplied any verdict.
func ParseAuthResults(hdrs HeaderList) core.AuthResult {
	result := core.AuthResult{Source: core.SourceAbsent}

	fill := func(spf, dkim, dmarc core.AuthVerdict, source core.AuthSource) {
		filled := false
		if result.SPF == core.VerdictUnknown && spf != core.VerdictUnknown {
			result.SPF = spf
			filled = true
		}
		if result.DKIM == core.VerdictUnknown && dkim != core.VerdictUnknown {
			result.DKIM = dkim
			filled = true
		}
		if result.DMARC == core.VerdictUnknown && dmarc != core.VerdictUnknown {
			result.DMARC = dmarc
			filled = true
		}
		if filled && result.Source == core.SourceAbsent {
			result.Source = source
		}
	}

	if value, ok := hdrs.Get("Authentication-Results"); ok {
		spf, dkim, dmarc := scanTokens(value)
		fill(spf, dkim, dmarc, core.SourceAuthResultsHeader)
	}

	if value, ok := hdrs.Get("ARC-Authentication-Results"); ok {
		spf, dkim, dmarc := scanTokens(value)
		fill(spf, dkim, dmarc, core.SourceArcHeader)
	}

	if result.SPF == core.VerdictUnknown || result.DKIM == core.VerdictUnknown || result.DMARC == core.VerdictUnknown {
		var flat strings.Builder
		for _, h := range hdrs {
			// The primary sources were already consumed above.
			if strings.EqualFold(h.Name, "Authentication-Results") ||
				strings.EqualFold(h.Name, "ARC-Authentication-Results") {
				continue
			}
			flat.WriteString(h.Value)
			flat.WriteByte(' ')
		}
		spf, dkim, dmarc := scanTokens(flat.String())
		fill(spf, dkim, dmarc, core.SourceFallbackScan)
	}

	if result.SPF == core.VerdictUnknown {
		if value, ok := hdrs.Get("Received-SPF"); ok {
			fill(receivedSPFVerdict(value), core.VerdictUnknown, core.VerdictUnknown, core.SourceReceivedSPF)
		}
	}

	return result
}

// FromDomain extracts the domain of the From header, lowercased.
// Returns the empty string when absent or unparseable.
func FromDomain(hdrs HeaderList) string {
	value, ok := hdrs.Get("From")
	if !ok {
		return ""
	}
	at := strings.LastIndex(value, "@")
	if at < 0 || at == len(value)-1 {
		return ""
	}
	domain := value[at+1:]
	if end := strings.IndexAny(domain, "> \t"); end >= 0 {
		domain = domain[:end]
	}
	return strings.ToLower(strings.TrimSpace(domain))
}
