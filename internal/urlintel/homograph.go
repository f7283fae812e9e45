package urlintel

import (
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// IsHomograph reports whether a hostname looks like a visual-spoofing
// attempt: any label carries the IDNA ASCII-compatible-encoding prefix, or
// mixes code points from more than one Unicode script (Latin plus Cyrillic
// is the classic case). Pure and deterministic. Ambiguity fails closed: a
// punycode label that cannot be decoded is treated as suspicious.
func IsHomograph(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}

	for _, label := range strings.Split(host, ".") {
		if label == "" {
			continue
		}
		if strings.HasPrefix(label, "xn--") {
			// An internationalized label is suspicious per se; if it also
			// fails to decode it is certainly not a well-formed IDN.
			return true
		}
		if _, err := idna.ToUnicode(label); err != nil {
			return true
		}
		if mixesScripts(label) {
			return true
		}
	}
	return false
}

// mixesScripts reports whether a single label contains letters from more
// than one Unicode script. Digits, hyphens and other Common/Inherited code
// points are neutral and never count as a script of their own.
func mixesScripts(label string) bool {
	label = norm.NFC.String(label)

	first := ""
	for _, r := range label {
		script := runeScript(r)
		if script == "" {
			continue
		}
		if first == "" {
			first = script
			continue
		}
		if script != first {
			return true
		}
	}
	return false
}

// runeScript resolves the Unicode script of a rune. Common and Inherited
// code points return the empty string (neutral). Unassigned code points
// return "Unknown" so they count against whatever real script surrounds
// them (fail closed).
func runeScript(r rune) string {
	if unicode.Is(unicode.Common, r) || unicode.Is(unicode.Inherited, r) {
		return ""
	}
	for name, table := range unicode.Scripts {
		if name == "Common" || name == "Inherited" {
			continue
		}
		if unicode.Is(table, r) {
			return name
		}
	}
	return "Unknown"
}
