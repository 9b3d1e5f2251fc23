package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/reso-listings/pkg/odata"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListListings(context.Background(), odata.Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		notFound   bool
	}{
		{
			name:       "problem json detail",
			status:     http.StatusBadGateway,
			body:       `{"title":"Bad Gateway","status":502,"detail":"upstream request failed: http"}`,
			wantDetail: "upstream request failed: http",
		},
		{
			name:       "plain body",
			status:     http.StatusInternalServerError,
			body:       "boom\n",
			wantDetail: "boom",
		},
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"title":"Not Found","status":404,"detail":"listing not found"}`,
			wantDetail: "listing not found",
			notFound:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			_, err := New(srv.URL).GetListing(context.Background(), "K1")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.notFound, IsNotFound(err))
		})
	}
}

func TestClient_ListListings(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings", r.URL.Path)
		assert.Equal(t, "Boise", r.URL.Query().Get("city"))
		assert.Equal(t, "3", r.URL.Query().Get("beds"))
		assert.Equal(t, "false", r.URL.Query().Get("rental"))
		assert.Empty(t, r.URL.Query().Get("min_price"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"ListingKey":"A1","ListPrice":450000}],"total":31,"page":1,"limit":12}`))
	}))
	t.Cleanup(srv.Close)

	page, err := New(srv.URL).ListListings(context.Background(), odata.Params{
		City:   "Boise",
		Beds:   3,
		Rental: odata.RentalExclude,
	})
	require.NoError(t, err)
	assert.Equal(t, 31, page.Total)
	assert.Equal(t, 12, page.Limit)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "A1", page.Items[0].String("ListingKey"))
	assert.Equal(t, json.Number("450000"), page.Items[0]["ListPrice"])
}

func TestClient_ListListings_NoParams(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"items":[],"total":0,"page":1,"limit":12}`))
	}))
	t.Cleanup(srv.Close)

	page, err := New(srv.URL).ListListings(context.Background(), odata.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestClient_GetListing_EscapesKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"item":{"ListingKey":"a/b","Media":[{"Order":1}]}}`))
	}))
	t.Cleanup(srv.Close)

	item, err := New(srv.URL).GetListing(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", item.String("ListingKey"))
	assert.Equal(t, `[{"Order":1}]`, item.String("Media"))
	assert.Empty(t, item.String("Missing"))
}

func TestClient_PreviewQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"url":"https://x/Property?$top=12&$skip=12","page":2,"limit":12}`))
	}))
	t.Cleanup(srv.Close)

	p, err := New(srv.URL).PreviewQuery(context.Background(), odata.Params{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, "https://x/Property?$top=12&$skip=12", p.URL)
	assert.Equal(t, 2, p.Page)
}

func TestClient_Quota(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"limited":true,"daily_limit":100,"daily_used":3,"remaining":97,"reset_at":"2025-06-16T14:30:00Z"}`))
	}))
	t.Cleanup(srv.Close)

	q, err := New(srv.URL).Quota(context.Background())
	require.NoError(t, err)
	assert.True(t, q.Limited)
	assert.Equal(t, int64(97), q.Remaining)
	require.NotNil(t, q.ResetAt)
	assert.Equal(t, 2025, q.ResetAt.Year())
}
