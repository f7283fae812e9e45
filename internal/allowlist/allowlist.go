package allowlist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender domain is allowlisted. Allowlisted mail
// bypasses analysis entirely at the ingestion layer; the engine itself never
// attenuates a computed score, which would break the only-escalate property
// of the override rules.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new allowlist checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized allowlist checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsAllowlisted checks whether the domain of a sender address matches an
// allowlisted domain exactly or as a parent domain (mail.example.com matches
// an allowlisted example.com).
func (c *Checker) IsAllowlisted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	at := strings.LastIndex(from, "@")
	if at < 0 || at == len(from)-1 {
		return false
	}
	domain := strings.ToLower(strings.Trim(from[at+1:], "> \t"))

	for _, allowed := range c.domains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			if c.logger != nil {
				c.logger.Debug("Sender domain is allowlisted",
					zap.String("domain", domain),
					zap.String("sender", from))
			}
			return true
		}
	}

	return false
}
