package assistant

import (
	"regexp"
	"strings"

	"github.com/kapu/conference-companion-go/internal/constants"
)

var (
	controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// sanitizeQuestion strips control characters, folds whitespace and caps the
// length in runes.
func sanitizeQuestion(input string) string {
	withoutControl := controlCharsPattern.ReplaceAllString(input, " ")
	normalized := whitespacePattern.ReplaceAllString(withoutControl, " ")
	trimmed := strings.TrimSpace(normalized)

	runes := []rune(trimmed)
	if len(runes) > constants.AIInputLimits.MaxQueryLength {
		return strings.TrimSpace(string(runes[:constants.AIInputLimits.MaxQueryLength]))
	}
	return trimmed
}
