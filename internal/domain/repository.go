package domain

import "context"

// CatalogClient fetches one page of events from the remote market catalog.
// It returns the raw response body on success and a *RemoteCatalogError when
// the catalog answers with a non-success status.
type CatalogClient interface {
	FetchCatalog(ctx context.Context, query CatalogQuery) ([]byte, error)
}

// RateLimiter decides whether a request identified by key may proceed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
