package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketlens/backend/internal/domain"
	"github.com/marketlens/backend/internal/infrastructure/metrics"
	"github.com/marketlens/backend/internal/usecase"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Search outcomes recorded in metrics
const (
	outcomeInvalidRequest = "invalid_request"
	outcomeRemoteError    = "remote_error"
	outcomeCancelled      = "cancelled"
	outcomeInternalError  = "internal_error"
)

// MarketSearcher ranks catalog markets against page metadata
type MarketSearcher interface {
	Rank(ctx context.Context, page domain.PageDescriptor, limit int) (*domain.RankedResult, error)
}

// HandlerConfig holds the request limits applied by the handler
type HandlerConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searcher     MarketSearcher
	defaultLimit int
	maxLimit     int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewHandler creates a new HTTP handler. A nil searcher makes the search
// endpoint answer 501. A zero MaxLimit means DefaultPageSize; loaded
// configuration always carries a positive one.
func NewHandler(searcher MarketSearcher, config HandlerConfig, m *metrics.Metrics, logger *slog.Logger) *Handler {
	defaultLimit := config.DefaultLimit
	if defaultLimit < 0 {
		defaultLimit = usecase.DefaultLimit
	}
	maxLimit := config.MaxLimit
	if maxLimit <= 0 {
		maxLimit = usecase.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		searcher:     searcher,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		metrics:      m,
		logger:       logger.With(slog.String("component", "http")),
	}
}

// SearchMarketsRequest is the body of a market search. An omitted limit uses
// the configured default.
type SearchMarketsRequest struct {
	PageInfo domain.PageDescriptor `json:"pageInfo"`
	Limit    *int                  `json:"limit"`
}

// ExtractTermsRequest is the body of a term extraction request
type ExtractTermsRequest struct {
	PageInfo domain.PageDescriptor `json:"pageInfo"`
}

// MarketView is a ranked market together with its prices read per outcome
type MarketView struct {
	domain.MarketRecord
	OutcomeQuotes []domain.OutcomeQuote `json:"quotes"`
	Prices        *domain.YesNoPrice    `json:"yesNo"`
}

// SearchMarketsResponse is the data of a successful market search
type SearchMarketsResponse struct {
	Terms   domain.TokenSet       `json:"terms"`
	Markets []MarketView          `json:"markets"`
	Events  []domain.CatalogEvent `json:"events"`
}

func newSearchMarketsResponse(result *domain.RankedResult) SearchMarketsResponse {
	views := make([]MarketView, len(result.Markets))
	for i, market := range result.Markets {
		views[i] = MarketView{
			MarketRecord:  market,
			OutcomeQuotes: market.Quotes(),
			Prices:        market.YesNo(),
		}
	}
	return SearchMarketsResponse{
		Terms:   result.Terms,
		Markets: views,
		Events:  result.Events,
	}
}

// TermsResponse carries the extracted terms
type TermsResponse struct {
	Terms domain.TokenSet `json:"terms"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "marketlens-backend",
		"version": Version,
	})
}

// SearchMarkets ranks catalog markets for the page described in the request
func (h *Handler) SearchMarkets(c *gin.Context) {
	if h.searcher == nil {
		respondError(c, http.StatusNotImplemented, "market search not configured")
		return
	}

	var request SearchMarketsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.metrics.ObserveSearch(outcomeInvalidRequest, 0)
		respondError(c, http.StatusBadRequest, fmt.Sprintf("%v: %v", domain.ErrInvalidRequest, err))
		return
	}

	limit := h.defaultLimit
	if request.Limit != nil {
		limit = *request.Limit
	}
	if limit < 0 || limit > h.maxLimit {
		h.metrics.ObserveSearch(outcomeInvalidRequest, 0)
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("%v: limit must be between 0 and %d", domain.ErrInvalidRequest, h.maxLimit))
		return
	}

	result, err := h.searcher.Rank(c.Request.Context(), request.PageInfo, limit)
	if err != nil {
		status, outcome := classifyError(err)
		h.metrics.ObserveSearch(outcome, 0)
		h.logger.WarnContext(c.Request.Context(), "market search failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("request_id", c.GetString(requestIDKey)),
		)
		respondError(c, status, "search failed: "+err.Error())
		return
	}

	h.metrics.ObserveSearch(metrics.OutcomeSuccess, len(result.Markets))
	respondOK(c, newSearchMarketsResponse(result))
}

// ExtractTerms returns the search terms for a page without querying the catalog
func (h *Handler) ExtractTerms(c *gin.Context) {
	var request ExtractTermsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("%v: %v", domain.ErrInvalidRequest, err))
		return
	}

	respondOK(c, TermsResponse{Terms: usecase.ExtractTerms(request.PageInfo)})
}

// classifyError maps a search error to an HTTP status and a metrics outcome
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, outcomeCancelled
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, outcomeCancelled
	case errors.Is(err, domain.ErrRemoteCatalog):
		return http.StatusBadGateway, outcomeRemoteError
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, outcomeInvalidRequest
	default:
		return http.StatusInternalServerError, outcomeInternalError
	}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": message})
}
