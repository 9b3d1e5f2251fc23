// Package main implements a mock RESO Web API server for local development.
// It serves Property records from a JSON fixture so the service can run
// without upstream credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const defaultTop = 10

type propertyResponse struct {
	Context string            `json:"@odata.context,omitempty"`
	Count   *int              `json:"@odata.count,omitempty"`
	Value   []json.RawMessage `json:"value"`
}

type property struct {
	ListingKey string `json:"ListingKey"`
}

// listingKeyFilter matches the single-listing $filter the service sends.
var listingKeyFilter = regexp.MustCompile(`ListingKey eq '((?:[^']|'')*)'`)

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/property_response.json", "path to Property response fixture")
	apiKey := flag.String("api-key", "", "require this bearer token when set")
	failEvery := flag.Int("fail-every", 0, "answer every Nth Property request with 503 (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "listings", len(fixture.Value))

	mux := http.NewServeMux()
	mux.Handle("GET /Property",
		requireBearer(logger, *apiKey,
			failEveryN(*failEvery, propertyHandler(logger, fixture))))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock RESO server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*propertyResponse, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var resp propertyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &resp, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// requireBearer rejects requests without "Authorization: Bearer <key>". An
// empty key accepts everything.
func requireBearer(logger *slog.Logger, key string, next http.Handler) http.Handler {
	if key == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+key {
			logger.Warn("rejected request with bad or missing bearer token")
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]string{"code": "401", "message": "invalid access token"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func failEveryN(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	var calls atomic.Int64
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1)%int64(n) == 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"error": map[string]string{"code": "503", "message": "injected failure"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func propertyHandler(logger *slog.Logger, fixture *propertyResponse) http.HandlerFunc {
	type indexedItem struct {
		raw json.RawMessage
		key string
	}
	items := make([]indexedItem, 0, len(fixture.Value))
	for _, raw := range fixture.Value {
		var p property
		//nolint:errcheck,gosec // fixture data is trusted; key extraction is best-effort
		json.Unmarshal(raw, &p)
		items = append(items, indexedItem{raw: raw, key: p.ListingKey})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		top := intParam(q.Get("$top"), defaultTop)
		skip := intParam(q.Get("$skip"), 0)
		filter := q.Get("$filter")

		// Only the ListingKey clause is honored; other filters match everything.
		key, byKey := "", false
		if m := listingKeyFilter.FindStringSubmatch(filter); m != nil {
			key, byKey = strings.ReplaceAll(m[1], "''", "'"), true
		}

		matched := make([]json.RawMessage, 0, len(items))
		for _, item := range items {
			if !byKey || item.key == key {
				matched = append(matched, item.raw)
			}
		}
		total := len(matched)

		if skip >= len(matched) {
			matched = matched[:0]
		} else {
			end := min(skip+top, len(matched))
			matched = matched[skip:end]
		}

		resp := propertyResponse{
			Context: "$metadata#Property",
			Value:   matched,
		}
		if q.Get("$count") == "true" {
			resp.Count = &total
		}

		writeJSON(w, http.StatusOK, resp)
		logger.Info("property query",
			"filter", filter, "matched", total, "returned", len(matched), "top", top, "skip", skip)
	}
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
