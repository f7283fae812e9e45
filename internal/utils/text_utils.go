package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)
	urlRe     = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)
	addrRe    = regexp.MustCompile(`(?i)[\w.-]+@[\w.-]+`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// TextProcessor prepares raw email text for the content classifier: size
// bounding, UTF-8 sanitization, and normalization (markup, URLs and
// addresses stripped so the classifier scores the prose, not the plumbing).
type TextProcessor struct {
	logger      *zap.Logger
	maxBodySize int
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger, maxBodySize int) *TextProcessor {
	return &TextProcessor{
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	// If no limit or text is already within limits, return as is
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	// Ensure the truncated text ends with a valid UTF-8 sequence
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				// Skip invalid UTF-8 sequences
				continue
			}
		}
		result = append(result, r)
	}

	return string(result)
}

// Normalize prepares body text for classification: HTML entities decoded,
// tags stripped, URLs and mail addresses removed (they are scored by their
// own signal paths), lowercased, whitespace collapsed.
func (tp *TextProcessor) Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = tp.SanitizeUTF8(text)
	text = html.UnescapeString(text)
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = urlRe.ReplaceAllString(text, " ")
	text = addrRe.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	return tp.TruncateText(text, tp.maxBodySize)
}
