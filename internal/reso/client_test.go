package reso_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/reso-listings/internal/cache"
	"github.com/donaldgifford/reso-listings/internal/reso"
	"github.com/donaldgifford/reso-listings/pkg/odata"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingServer serves body with status and counts requests.
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newClient(srvURL string, store cache.Cache, opts ...reso.Option) *reso.Client {
	base := []reso.Option{reso.WithLogger(quietLogger())}
	if store != nil {
		base = append(base, reso.WithCache(store))
	}
	return reso.NewClient(
		reso.Config{APIKey: "test-key", BaseURL: srvURL},
		append(base, opts...)...,
	)
}

func TestClient_FetchListings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantItems []reso.RawListing
		wantTotal int
		wantError reso.ErrorKind
		wantCache bool
	}{
		{
			name:      "success with count",
			status:    http.StatusOK,
			body:      `{"value":[{"ListingKey":"A1"}],"@odata.count":1}`,
			wantItems: []reso.RawListing{{"ListingKey": "A1"}},
			wantTotal: 1,
			wantCache: true,
		},
		{
			name:   "count missing falls back to item count",
			status: http.StatusOK,
			body:   `{"value":[{"ListingKey":"A1"},{"ListingKey":"B2"}]}`,
			wantItems: []reso.RawListing{
				{"ListingKey": "A1"},
				{"ListingKey": "B2"},
			},
			wantTotal: 2,
			wantCache: true,
		},
		{
			name:      "server order is preserved",
			status:    http.StatusOK,
			body:      `{"value":[{"ListingKey":"Z"},{"ListingKey":"A"}],"@odata.count":40}`,
			wantItems: []reso.RawListing{{"ListingKey": "Z"}, {"ListingKey": "A"}},
			wantTotal: 40,
			wantCache: true,
		},
		{
			name:      "missing value yields empty items",
			status:    http.StatusOK,
			body:      `{"@odata.context":"$metadata#Property"}`,
			wantItems: []reso.RawListing{},
			wantTotal: 0,
			wantCache: true,
		},
		{
			name:      "500 is a bad response",
			status:    http.StatusInternalServerError,
			body:      `{"error":{"message":"boom"}}`,
			wantItems: []reso.RawListing{},
			wantError: reso.KindBadResponse,
		},
		{
			name:      "401 is a bad response",
			status:    http.StatusUnauthorized,
			body:      `{"error":"invalid token"}`,
			wantItems: []reso.RawListing{},
			wantError: reso.KindBadResponse,
		},
		{
			name:      "invalid JSON is a bad response",
			status:    http.StatusOK,
			body:      `<html>Service Unavailable</html>`,
			wantItems: []reso.RawListing{},
			wantError: reso.KindBadResponse,
		},
		{
			name:      "JSON array is a bad response",
			status:    http.StatusOK,
			body:      `[{"ListingKey":"A1"}]`,
			wantItems: []reso.RawListing{},
			wantError: reso.KindBadResponse,
		},
		{
			name:      "JSON null is a bad response",
			status:    http.StatusOK,
			body:      `null`,
			wantItems: []reso.RawListing{},
			wantError: reso.KindBadResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := countingServer(t, tt.status, tt.body)
			mem := cache.NewMemory()
			c := newClient(srv.URL, mem)

			got := c.FetchListings(context.Background(), odata.Params{City: "Boise"})

			assert.Equal(t, tt.wantError, got.Error)
			assert.Equal(t, tt.wantTotal, got.Total)
			require.Len(t, got.Items, len(tt.wantItems))
			for i := range tt.wantItems {
				assert.Equal(t, tt.wantItems[i]["ListingKey"], got.Items[i]["ListingKey"])
			}

			if tt.wantCache {
				assert.Equal(t, 1, mem.Len())
			} else {
				assert.Equal(t, 0, mem.Len())
			}
		})
	}
}

func TestClient_FetchListings_RequestShape(t *testing.T) {
	t.Parallel()

	reqs := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL+"/", nil)
	res := c.FetchListings(context.Background(), odata.Params{
		City:  "O'Fallon",
		Beds:  3,
		Limit: 20,
		Page:  3,
	})
	require.False(t, res.Failed())
	gotReq := <-reqs

	assert.Equal(t, "/Property", gotReq.URL.Path)
	assert.Equal(t, "Bearer test-key", gotReq.Header.Get("Authorization"))
	assert.Equal(t, "application/json", gotReq.Header.Get("Accept"))

	q := gotReq.URL.Query()
	assert.Equal(t, "City eq 'O''Fallon' and BedroomsTotal ge 3", q.Get("$filter"))
	assert.Equal(t, "20", q.Get("$top"))
	assert.Equal(t, "40", q.Get("$skip"))
	assert.Equal(t, "true", q.Get("$count"))
	assert.Equal(t, odata.DefaultListSelect, q.Get("$select"))
	assert.Equal(t, odata.DefaultMediaExpand, q.Get("$expand"))
	assert.Equal(t, "ModificationTimestamp desc", q.Get("$orderby"))
	assert.NotContains(t, gotReq.URL.RawQuery, "+")
}

func TestClient_FetchListings_CachesByQuery(t *testing.T) {
	t.Parallel()

	srv, calls := countingServer(t, http.StatusOK, `{"value":[{"ListingKey":"A1","ListPrice":450000}],"@odata.count":1}`)
	mem := cache.NewMemory()
	c := newClient(srv.URL, mem)
	ctx := context.Background()
	p := odata.Params{City: "Boise", Beds: 2}

	first := c.FetchListings(ctx, p)
	second := c.FetchListings(ctx, p)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, json.Number("450000"), second.Items[0]["ListPrice"])

	// The entry is reachable from a key rebuilt from the same params.
	raw, err := mem.Get(ctx, c.CacheKey(c.Builder().Build(p)))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"items":[{"ListingKey":"A1","ListPrice":450000}],"total":1}`,
		string(raw),
	)

	// Different params miss.
	c.FetchListings(ctx, odata.Params{City: "Boise", Beds: 3})
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_FetchListings_CacheHitSurvivesUpstreamFailure(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"value":[{"ListingKey":"A1"}],"@odata.count":1}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, cache.NewMemory())
	ctx := context.Background()

	require.False(t, c.FetchListings(ctx, odata.Params{}).Failed())
	fail.Store(true)

	got := c.FetchListings(ctx, odata.Params{})
	assert.False(t, got.Failed())
	assert.Equal(t, 1, got.Total)
}

func TestClient_FetchListings_FailureNotCached(t *testing.T) {
	t.Parallel()

	srv, calls := countingServer(t, http.StatusInternalServerError, `oops`)
	mem := cache.NewMemory()
	c := newClient(srv.URL, mem)
	ctx := context.Background()

	for range 3 {
		got := c.FetchListings(ctx, odata.Params{})
		assert.Equal(t, reso.ListingResult{Items: []reso.RawListing{}, Error: reso.KindBadResponse}, got)
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 0, mem.Len())
}

func TestClient_FetchListings_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	mem := cache.NewMemory()
	got := newClient(u, mem).FetchListings(context.Background(), odata.Params{})

	assert.Equal(t, reso.KindTransport, got.Error)
	assert.Equal(t, "http", string(got.Error))
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
	assert.Equal(t, 0, got.Total)
	assert.Equal(t, 0, mem.Len())
}

func TestClient_FetchListings_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()
	defer close(release)

	c := newClient(srv.URL, nil, reso.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	got := c.FetchListings(context.Background(), odata.Params{})

	assert.Equal(t, reso.KindTransport, got.Error)
}

func TestClient_FetchListings_LogsBodySnippet(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("x", 1200)
	srv, _ := countingServer(t, http.StatusServiceUnavailable, body)

	var buf bytes.Buffer
	c := reso.NewClient(
		reso.Config{BaseURL: srv.URL},
		reso.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	got := c.FetchListings(context.Background(), odata.Params{})
	require.Equal(t, reso.KindBadResponse, got.Error)

	out := buf.String()
	assert.Contains(t, out, "status=503")
	assert.Contains(t, out, strings.Repeat("x", 500))
	assert.NotContains(t, out, strings.Repeat("x", 501))
}

func TestClient_FetchListings_EmptyAPIKey(t *testing.T) {
	t.Parallel()

	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := reso.NewClient(reso.Config{BaseURL: srv.URL}, reso.WithLogger(quietLogger()))
	got := c.FetchListings(context.Background(), odata.Params{})

	assert.Equal(t, "Bearer ", auth)
	assert.Equal(t, reso.KindBadResponse, got.Error)
}

func TestClient_FetchListings_CustomExtractor(t *testing.T) {
	t.Parallel()

	srv, _ := countingServer(t, http.StatusOK,
		`{"data":{"listings":[{"ListingKey":"A1"},"junk",{"ListingKey":"B2"}]},"meta":{"total":"77"},"total":"77"}`)

	c := newClient(srv.URL, nil,
		reso.WithResultsExtractor(reso.PathExtractor("data.listings")),
		reso.WithCountField("total"),
	)
	got := c.FetchListings(context.Background(), odata.Params{})

	require.False(t, got.Failed())
	require.Len(t, got.Items, 2)
	assert.Equal(t, "B2", got.Items[1]["ListingKey"])
	assert.Equal(t, 77, got.Total)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection reset")
}

func (brokenCache) Ping(context.Context) error { return errors.New("connection reset") }

func TestClient_FetchListings_CacheErrorsDegradeToMiss(t *testing.T) {
	t.Parallel()

	srv, calls := countingServer(t, http.StatusOK, `{"value":[{"ListingKey":"A1"}]}`)
	c := newClient(srv.URL, brokenCache{})

	for range 2 {
		got := c.FetchListings(context.Background(), odata.Params{})
		require.False(t, got.Failed())
		assert.Equal(t, 1, got.Total)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_FetchListings_ConcurrentMisses(t *testing.T) {
	t.Parallel()

	srv, calls := countingServer(t, http.StatusOK, `{"value":[{"ListingKey":"A1"}],"@odata.count":1}`)
	c := newClient(srv.URL, cache.NewMemory())

	const workers = 16
	var wg sync.WaitGroup
	results := make([]reso.ListingResult, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.FetchListings(context.Background(), odata.Params{City: "Boise"})
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.False(t, r.Failed())
		assert.Equal(t, 1, r.Total)
	}
	assert.LessOrEqual(t, calls.Load(), int32(workers))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestClient_FetchListings_SharedFetchSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	var once sync.Once
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		once.Do(func() { close(started) })
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"value":[{"ListingKey":"A1"}],"@odata.count":1}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, cache.NewMemory())
	p := odata.Params{City: "Boise"}

	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	first := make(chan reso.ListingResult, 1)
	go func() {
		first <- c.FetchListings(shortCtx, p)
	}()

	<-started
	second := c.FetchListings(context.Background(), p)

	require.False(t, second.Failed(), "second caller failed with %q", second.Error)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, reso.KindTransport, (<-first).Error)
	assert.Equal(t, int32(1), calls.Load())

	// The shared result was cached even though the first caller gave up.
	again := c.FetchListings(context.Background(), p)
	assert.False(t, again.Failed())
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchListings_RateLimited(t *testing.T) {
	t.Parallel()

	srv, calls := countingServer(t, http.StatusOK, `{"value":[]}`)
	c := newClient(srv.URL, nil, reso.WithRateLimiter(reso.NewLimiter(100, 10, 1)))
	ctx := context.Background()

	assert.False(t, c.FetchListings(ctx, odata.Params{}).Failed())

	got := c.FetchListings(ctx, odata.Params{City: "Elsewhere"})
	assert.Equal(t, reso.KindTransport, got.Error)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchListingByKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		body         string
		wantKey      any
		wantError    reso.ErrorKind
		wantNotFound bool
	}{
		{
			name:    "found",
			status:  http.StatusOK,
			body:    `{"value":[{"ListingKey":"X9","PublicRemarks":"Lovely"}]}`,
			wantKey: "X9",
		},
		{
			name:         "empty value is not found",
			status:       http.StatusOK,
			body:         `{"value":[]}`,
			wantNotFound: true,
		},
		{
			name:      "server error",
			status:    http.StatusInternalServerError,
			body:      ``,
			wantError: reso.KindBadResponse,
		},
		{
			name:      "malformed body",
			status:    http.StatusOK,
			body:      `{"value":`,
			wantError: reso.KindBadResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := countingServer(t, tt.status, tt.body)
			got := newClient(srv.URL, cache.NewMemory()).FetchListingByKey(context.Background(), "X9")

			assert.Equal(t, tt.wantError, got.Error)
			assert.NotNil(t, got.Item)
			assert.Equal(t, tt.wantNotFound, got.NotFound())
			if tt.wantKey != nil {
				assert.Equal(t, tt.wantKey, got.Item["ListingKey"])
			}
		})
	}
}

func TestClient_FetchListingByKey_NeverCached(t *testing.T) {
	t.Parallel()

	var filters []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		filters = append(filters, r.URL.Query().Get("$filter"))
		mu.Unlock()
		assert.Equal(t, "1", r.URL.Query().Get("$top"))
		_, _ = w.Write([]byte(`{"value":[{"ListingKey":"X9"}]}`))
	}))
	defer srv.Close()

	mem := cache.NewMemory()
	c := newClient(srv.URL, mem)
	ctx := context.Background()

	c.FetchListingByKey(ctx, "X9")
	c.FetchListingByKey(ctx, "X9")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ListingKey eq 'X9'", "ListingKey eq 'X9'"}, filters)
	assert.Equal(t, 0, mem.Len())
}

func TestClient_FetchListingByKey_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	got := newClient(u, nil).FetchListingByKey(context.Background(), "X9")
	assert.Equal(t, reso.KindTransport, got.Error)
	assert.Empty(t, got.Item)
	assert.False(t, got.NotFound())
}

func TestClient_EndpointAndListURL(t *testing.T) {
	t.Parallel()

	c := reso.NewClient(reso.Config{BaseURL: "https://api.example.com/reso/odata/"})
	assert.Equal(t, "https://api.example.com/reso/odata/Property", c.Endpoint())
	assert.True(t, strings.HasPrefix(
		c.ListURL(odata.Params{City: "Boise"}),
		"https://api.example.com/reso/odata/Property?%24select=",
	))
	assert.Contains(t, c.ListURL(odata.Params{City: "Boise"}), "%24filter=City%20eq%20%27Boise%27")
}

func TestClient_CacheKey(t *testing.T) {
	t.Parallel()

	a := reso.NewClient(reso.Config{BaseURL: "https://a.example.com"})
	b := reso.NewClient(reso.Config{BaseURL: "https://b.example.com"})
	q := odata.NewBuilder().Build(odata.Params{City: "Boise"})

	assert.Equal(t, a.CacheKey(q), a.CacheKey(q))
	assert.NotEqual(t, a.CacheKey(q), b.CacheKey(q))
	assert.True(t, strings.HasPrefix(a.CacheKey(q), "reso:listings:"))
	assert.Len(t, a.CacheKey(q), len("reso:listings:")+64)
}
