package usecase

import (
	"strings"

	"github.com/marketlens/backend/internal/domain"
)

// ScoreMarket counts how many distinct terms occur in the market question.
// Matching is a case-insensitive substring test; repeated occurrences of a
// term count once. An empty term set scores 0.
func ScoreMarket(market domain.MarketRecord, terms domain.TokenSet) int {
	if len(terms) == 0 {
		return 0
	}

	haystack := strings.ToLower(market.Question)
	score := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			score++
		}
	}
	return score
}
