// Package competitor fetches price snapshots from the competitor pricing API.
// The API is best-effort: callers treat any failure here as a degraded
// pricing run, not an error.
package competitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ecomlabs/storefront/internal/pricing"
)

// Client talks to the competitor pricing API.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		apiKey: apiKey,
	}
}

type priceEntry struct {
	Name string `json:"name"`
	// Price may arrive with decimals; it is truncated to minor units the
	// same way downstream consumers expect.
	Price float64 `json:"price"`
}

// FetchSnapshot retrieves the current competitor price list.
func (c *Client) FetchSnapshot(ctx context.Context) ([]pricing.CompetitorPrice, error) {
	var entries []priceEntry

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.apiKey).
		SetResult(&entries).
		Get("/prices")
	if err != nil {
		return nil, fmt.Errorf("fetch competitor prices: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("competitor api returned status %d", resp.StatusCode())
	}

	snapshot := make([]pricing.CompetitorPrice, 0, len(entries))
	for _, e := range entries {
		snapshot = append(snapshot, pricing.CompetitorPrice{
			Name:  e.Name,
			Price: int64(e.Price),
		})
	}
	return snapshot, nil
}
