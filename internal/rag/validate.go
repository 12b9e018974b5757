package rag

import (
	"context"
	"strings"
	"unicode/utf8"

	"azusena/internal/contextutil"
)

// Validator drops matches that are unfit for composed answers. Dropped
// articles stay reachable through exact lookup.
type Validator struct {
	minContentLength int
}

// NewValidator creates a Validator requiring article text longer than minContentLength runes.
func NewValidator(minContentLength int) *Validator {
	return &Validator{minContentLength: minContentLength}
}

// Validate keeps, in order, the matches with a digits-only number, a theme and enough text.
func (v *Validator) Validate(ctx context.Context, matches []ScoredMatch) []ScoredMatch {
	logger := contextutil.LoggerFromContext(ctx)

	valid := make([]ScoredMatch, 0, len(matches))
	for _, m := range matches {
		a := m.Article
		switch {
		case !isDigits(a.Number):
			logger.WarnContext(ctx, "discarding match with invalid article number", "article_number", a.Number, "article_id", a.ID)
		case strings.TrimSpace(a.Theme) == "" || utf8.RuneCountInString(strings.TrimSpace(a.Text)) <= v.minContentLength:
			logger.WarnContext(ctx, "discarding match with insufficient content", "article_number", a.Number, "article_id", a.ID)
		default:
			valid = append(valid, m)
		}
	}

	logger.DebugContext(ctx, "matches validated", "valid", len(valid), "total", len(matches))
	return valid
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
