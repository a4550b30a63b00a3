package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ShayCichocki/suitpredict/internal/engine"
)

// Fetcher retrieves the engine status shown by the dashboard.
type Fetcher interface {
	Fetch(ctx context.Context) (engine.Status, error)
}

// HTTPFetcher reads the status endpoint of a running server.
type HTTPFetcher struct {
	URL    string
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for url.
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		URL:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) (engine.Status, error) {
	var st engine.Status

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return st, fmt.Errorf("build status request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return st, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("fetch status: HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (engine.Status, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context) (engine.Status, error) {
	return f(ctx)
}
