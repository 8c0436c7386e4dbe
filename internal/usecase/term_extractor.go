package usecase

import (
	"regexp"
	"strings"

	"github.com/marketlens/backend/internal/domain"
)

const (
	// MaxSearchTerms caps the number of tokens extracted from a page
	MaxSearchTerms = 8
	// MinTermLength is the shortest token kept
	MinTermLength = 3
)

// Compiled regex patterns for term extraction
var (
	// Anything that is not a letter, digit, whitespace, comma, period or hyphen
	disallowedCharPattern = regexp.MustCompile(`[^a-z0-9\s,.-]`)

	// Runs of token separators
	termSeparatorPattern = regexp.MustCompile(`[\s,.-]+`)
)

// ExtractTerms converts page metadata into a deduplicated set of search tokens.
// Title, description and the individual meta keywords are searched; the body
// snippet is not.
func ExtractTerms(page domain.PageDescriptor) domain.TokenSet {
	parts := []string{page.Title, page.Description}
	if page.Keywords != "" {
		parts = append(parts, strings.Split(page.Keywords, ",")...)
	}

	text := strings.ToLower(strings.Join(parts, " "))
	text = disallowedCharPattern.ReplaceAllString(text, " ")

	terms := make(domain.TokenSet, 0, MaxSearchTerms)
	for _, token := range termSeparatorPattern.Split(text, -1) {
		if len(token) < MinTermLength || terms.Contains(token) {
			continue
		}
		terms = append(terms, token)
		if len(terms) == MaxSearchTerms {
			break
		}
	}

	return terms
}
