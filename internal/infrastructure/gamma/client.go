package gamma

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/marketlens/backend/internal/domain"
	"github.com/marketlens/backend/internal/infrastructure/metrics"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Polymarket Gamma API root
const DefaultBaseURL = "https://gamma-api.polymarket.com"

// maxErrorBody bounds how much of a failed response is kept for diagnostics
const maxErrorBody = 512

// ClientConfig holds configuration for the Gamma client
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
}

// Client fetches event listings from the Polymarket Gamma API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewClient creates a new Gamma API client
func NewClient(config ClientConfig) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 10
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		metrics:     config.Metrics,
		logger:      logger.With(slog.String("component", "gamma")),
	}
}

// FetchCatalog requests one page of events matching the query and returns the
// raw body. The call is made once; retrying is left to the caller.
func (c *Client) FetchCatalog(ctx context.Context, query domain.CatalogQuery) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		// Wait refuses early when the deadline would pass before a token frees up
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrRemoteCatalog, err)
	}

	params := url.Values{}
	params.Set("active", strconv.FormatBool(query.Active))
	params.Set("closed", strconv.FormatBool(query.Closed))
	params.Set("limit", strconv.Itoa(query.PageSize))
	reqURL := fmt.Sprintf("%s/events?%s", c.baseURL, params.Encode())

	start := time.Now()
	body, status, err := c.doGet(ctx, reqURL)
	elapsed := time.Since(start)

	// Non-2xx reports its status even when the body read failed
	if status != 0 && (status < 200 || status > 299) {
		c.metrics.ObserveCatalogFetch(metrics.OutcomeStatusError, elapsed)
		attrs := []any{slog.Int("status", status), slog.Duration("elapsed", elapsed)}
		if err != nil {
			attrs = append(attrs, slog.String("read_error", err.Error()))
		}
		c.logger.WarnContext(ctx, "catalog returned error status", attrs...)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &domain.RemoteCatalogError{StatusCode: status, Body: string(body)}
	}

	if err != nil {
		c.metrics.ObserveCatalogFetch(metrics.OutcomeTransport, elapsed)
		c.logger.WarnContext(ctx, "catalog request failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteCatalog, err)
	}

	c.metrics.ObserveCatalogFetch(metrics.OutcomeSuccess, elapsed)
	c.logger.DebugContext(ctx, "fetched catalog",
		slog.Int("status", status),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", elapsed),
	)
	return body, nil
}

// doGet executes an HTTP GET request and returns the body and status code
func (c *Client) doGet(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MarketLens/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return body, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
