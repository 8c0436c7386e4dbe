package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/marketlens/backend/internal/domain"
)

const (
	// DefaultLimit is the number of markets returned when the caller gives none
	DefaultLimit = 10
	// DefaultPageSize is the number of events requested from the catalog
	DefaultPageSize = 50
)

// MarketRankerConfig holds configuration for the market ranker
type MarketRankerConfig struct {
	PageSize           int
	EnableDebugLogging bool
	Logger             *slog.Logger
}

// MarketRanker matches page metadata against a freshly fetched catalog page
type MarketRanker struct {
	catalog            domain.CatalogClient
	pageSize           int
	enableDebugLogging bool
	logger             *slog.Logger
}

// NewMarketRanker creates a new market ranker with dependencies
func NewMarketRanker(catalog domain.CatalogClient, config MarketRankerConfig) *MarketRanker {
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MarketRanker{
		catalog:            catalog,
		pageSize:           pageSize,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger.With(slog.String("component", "ranker")),
	}
}

// Rank returns the markets most relevant to the page.
// Flow: extract terms -> fetch one catalog page -> flatten -> score -> filter
// -> stable sort -> truncate -> collect source events.
//
// Only a failed fetch is an error; a malformed catalog body yields an empty
// result. A negative limit is treated as 0.
func (r *MarketRanker) Rank(
	ctx context.Context,
	page domain.PageDescriptor,
	limit int,
) (*domain.RankedResult, error) {
	start := time.Now()
	terms := ExtractTerms(page)

	body, err := r.catalog.FetchCatalog(ctx, domain.CatalogQuery{
		Active:   true,
		Closed:   false,
		PageSize: r.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	events := DecodeCatalog(body)
	records := uniqueByID(FlattenCatalog(events))

	// Empty terms means no filter, not "reject everything"
	scored := make([]domain.ScoredMarket, 0, len(records))
	for _, record := range records {
		score := ScoreMarket(record, terms)
		if score > 0 || len(terms) == 0 {
			scored = append(scored, domain.ScoredMarket{Market: record, Score: score})
		}
	}

	// The catalog is pre-ranked upstream, so ties keep catalog order
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit < 0 {
		limit = 0
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	markets := make([]domain.MarketRecord, len(scored))
	ids := make(map[string]bool, len(scored))
	for i, s := range scored {
		markets[i] = s.Market
		ids[s.Market.ID] = true
	}

	result := &domain.RankedResult{
		Terms:   terms,
		Markets: markets,
		Events:  matchedEvents(events, ids),
	}

	if r.enableDebugLogging {
		r.logger.DebugContext(ctx, "ranked markets",
			slog.Any("terms", terms),
			slog.Int("events", len(events)),
			slog.Int("flattened", len(records)),
			slog.Int("returned", len(markets)),
			slog.Duration("elapsed", time.Since(start)),
		)
	}

	return result, nil
}

// uniqueByID keeps the first record for each id, in order
func uniqueByID(records []domain.MarketRecord) []domain.MarketRecord {
	seen := make(map[string]bool, len(records))
	unique := records[:0]
	for _, record := range records {
		if seen[record.ID] {
			continue
		}
		seen[record.ID] = true
		unique = append(unique, record)
	}
	return unique
}

// matchedEvents returns the events holding at least one market whose id is in
// ids, preserving catalog order
func matchedEvents(events []domain.CatalogEvent, ids map[string]bool) []domain.CatalogEvent {
	matched := make([]domain.CatalogEvent, 0)
	if len(ids) == 0 {
		return matched
	}

	for _, event := range events {
		markets, ok := event["markets"].([]any)
		if !ok {
			continue
		}
		for _, item := range markets {
			market, ok := item.(map[string]any)
			if ok && ids[MarketID(market)] {
				matched = append(matched, event)
				break
			}
		}
	}
	return matched
}
