package domain

import (
	"strconv"
	"strings"
)

// CatalogEvent is an event object from the remote catalog, kept as decoded
// JSON so it can be returned to the caller unchanged. Numbers are held as
// json.Number.
type CatalogEvent map[string]any

// CatalogQuery holds the filters sent with a catalog fetch
type CatalogQuery struct {
	Active   bool
	Closed   bool
	PageSize int
}

// MarketRecord is the normalized unit of ranking, flattened out of an event
type MarketRecord struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Outcomes      []string `json:"outcomes"`
	OutcomePrices []string `json:"outcomePrices"` // OutcomePrices[i] prices Outcomes[i]
	Closed        bool     `json:"closed"`
	EndDate       string   `json:"endDate"`
	Liquidity     *float64 `json:"liquidity"`
	Volume        *float64 `json:"volume"`
	Volume24hr    *float64 `json:"volume24hr"`
}

// OutcomeQuote pairs an outcome with its parsed price
type OutcomeQuote struct {
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
}

// Quotes returns the outcome/price pairs of the market. Pairs whose price is
// not numeric are skipped; the shorter of the two sequences bounds the result.
func (m MarketRecord) Quotes() []OutcomeQuote {
	n := len(m.Outcomes)
	if len(m.OutcomePrices) < n {
		n = len(m.OutcomePrices)
	}

	quotes := make([]OutcomeQuote, 0, n)
	for i := 0; i < n; i++ {
		price, err := strconv.ParseFloat(m.OutcomePrices[i], 64)
		if err != nil {
			continue
		}
		quotes = append(quotes, OutcomeQuote{Outcome: m.Outcomes[i], Price: price})
	}
	return quotes
}

// YesNoPrice holds the prices of the two sides of a binary market
type YesNoPrice struct {
	Yes float64 `json:"yes"`
	No  float64 `json:"no"`
}

// YesNo locates the Yes and No prices. Outcomes named "yes" and "no"
// (case-insensitive) are used when both exist; otherwise the first two prices
// are taken in order. It returns nil when no pair can be formed or a price is
// not numeric.
func (m MarketRecord) YesNo() *YesNoPrice {
	if len(m.Outcomes) == 0 || len(m.OutcomePrices) == 0 {
		return nil
	}

	yesIndex, noIndex := -1, -1
	for i, outcome := range m.Outcomes {
		switch strings.ToLower(outcome) {
		case "yes":
			if yesIndex == -1 {
				yesIndex = i
			}
		case "no":
			if noIndex == -1 {
				noIndex = i
			}
		}
	}
	if yesIndex == -1 || noIndex == -1 {
		if len(m.OutcomePrices) < 2 {
			return nil
		}
		yesIndex, noIndex = 0, 1
	}
	if yesIndex >= len(m.OutcomePrices) || noIndex >= len(m.OutcomePrices) {
		return nil
	}

	yes, err := strconv.ParseFloat(m.OutcomePrices[yesIndex], 64)
	if err != nil {
		return nil
	}
	no, err := strconv.ParseFloat(m.OutcomePrices[noIndex], 64)
	if err != nil {
		return nil
	}
	return &YesNoPrice{Yes: yes, No: no}
}

// ScoredMarket is a market together with its relevance score
type ScoredMarket struct {
	Market MarketRecord
	Score  int
}

// RankedResult is the outcome of a single ranking pass
type RankedResult struct {
	Terms   TokenSet       `json:"terms"`
	Markets []MarketRecord `json:"markets"`
	Events  []CatalogEvent `json:"events"`
}
