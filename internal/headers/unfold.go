package headers

import (
	"strings"
)

// Header is one logical header line split on the first colon.
type Header struct {
	Name  string
	Value string
}

// HeaderList is an ordered sequence of logical headers with case-insensitive
// name lookup.
type HeaderList []Header

// Unfold normalizes a raw header block into logical headers. Folded values
// (continuation lines beginning with space or tab) are rejoined with a
// single space before splitting on the first colon. Blank lines and lines
// without a colon are dropped; malformed input never raises an error, the
// unparseable residue is simply absent from the result.
func Unfold(raw string) HeaderList {
	lines := strings.Split(raw, "\n")

	// Rejoin folded lines into logical lines first.
	logical := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(logical) > 0 {
			logical[len(logical)-1] += " " + strings.TrimSpace(line)
			continue
		}
		logical = append(logical, line)
	}

	result := make(HeaderList, 0, len(logical))
	for _, line := range logical {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		result = append(result, Header{
			Name:  name,
			Value: strings.TrimSpace(value),
		})
	}
	return result
}

// Get returns the first value for name, case-insensitive. The boolean
// reports whether the header is present at all.
func (h HeaderList) Get(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// Values returns every value for name in order of appearance.
func (h HeaderList) Values(name string) []string {
	var values []string
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			values = append(values, hdr.Value)
		}
	}
	return values
}
