package assistant

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	statusPattern     = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodePattern = regexp.MustCompile(`"code":\s*(\d{3})`)
	openAICodePattern = regexp.MustCompile(`^(\d{3})\s`)
)

// isServiceFailure reports errors that say the provider itself is unhealthy,
// as opposed to a bad prompt or a cancelled request.
func isServiceFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || isRateLimitError(err) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}
	if statusPattern.MatchString(msg) {
		return true
	}
	if code, ok := embeddedStatus(msg); ok {
		return code >= 500 && code < 600
	}
	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}
	if code, ok := embeddedStatus(msg); ok {
		return code == 429
	}
	return false
}

func embeddedStatus(msg string) (int, bool) {
	for _, re := range []*regexp.Regexp{geminiCodePattern, openAICodePattern} {
		if m := re.FindStringSubmatch(msg); len(m) > 1 {
			if code, err := strconv.Atoi(m[1]); err == nil {
				return code, true
			}
		}
	}
	return 0, false
}
