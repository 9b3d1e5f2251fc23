package client

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/donaldgifford/reso-listings/pkg/odata"
)

// Listing is one raw RESO Property record.
type Listing map[string]any

// ListingsPage is one page of search results.
type ListingsPage struct {
	Items []Listing `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// QueryPreview is the upstream URL a search would request.
type QueryPreview struct {
	URL   string `json:"url"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// QuotaStatus is the upstream call budget.
type QuotaStatus struct {
	Limited    bool       `json:"limited"`
	DailyLimit int64      `json:"daily_limit"`
	DailyUsed  int64      `json:"daily_used"`
	Remaining  int64      `json:"remaining"`
	ResetAt    *time.Time `json:"reset_at,omitempty"`
}

// ListListings runs a listing search.
func (c *Client) ListListings(ctx context.Context, p odata.Params) (*ListingsPage, error) {
	var resp ListingsPage
	if err := c.get(ctx, withQuery("/api/v1/listings", p.Values()), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetListing returns a single listing by ListingKey. A missing listing is an
// error satisfying IsNotFound.
func (c *Client) GetListing(ctx context.Context, key string) (Listing, error) {
	var resp struct {
		Item Listing `json:"item"`
	}
	if err := c.get(ctx, "/api/v1/listings/"+url.PathEscape(key), &resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// PreviewQuery returns the upstream URL for p without calling upstream.
func (c *Client) PreviewQuery(ctx context.Context, p odata.Params) (*QueryPreview, error) {
	var resp QueryPreview
	if err := c.get(ctx, withQuery("/api/v1/query", p.Values()), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Quota returns the server's upstream call budget.
func (c *Client) Quota(ctx context.Context) (*QuotaStatus, error) {
	var resp QuotaStatus
	if err := c.get(ctx, "/api/v1/quota", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// String returns the string form of a listing field, or "".
func (l Listing) String(field string) string {
	switch v := l[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
