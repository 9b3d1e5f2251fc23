package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/reso-listings/internal/api/middleware"
	"github.com/donaldgifford/reso-listings/internal/reso"
	"github.com/donaldgifford/reso-listings/pkg/odata"
)

// ListingsHandler serves listing searches backed by the RESO client.
type ListingsHandler struct {
	fetcher reso.Fetcher
	log     *slog.Logger
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(f reso.Fetcher, log *slog.Logger) *ListingsHandler {
	return &ListingsHandler{fetcher: f, log: log}
}

// --- Input/Output types ---

// SearchParams are the listing filters. Numeric fields are strings so that
// sloppy input ("3+", "", "abc") degrades to "unset" instead of a 422.
type SearchParams struct {
	City          string `query:"city"           doc:"Exact city name"`
	MinPrice      string `query:"min_price"      doc:"Minimum list price"`
	MaxPrice      string `query:"max_price"      doc:"Maximum list price"`
	Beds          string `query:"beds"           doc:"Minimum bedrooms"`
	Baths         string `query:"baths"          doc:"Minimum bathrooms"`
	PropertyType  string `query:"property_type"  doc:"Exact property type"`
	Rental        string `query:"rental"         doc:"true selects lease listings, false excludes them"`
	AvailableOnly string `query:"available_only" doc:"Exclude closed, canceled and expired listings"`
	OfficeName    string `query:"office_name"    doc:"Listing office name"`
	OfficeMlsID   string `query:"office_mls_id"  doc:"Listing office MLS ID"`
	AgentMlsID    string `query:"agent_mls_id"   doc:"Listing agent MLS ID"`
	TeamName      string `query:"team_name"      doc:"Listing team name"`
	Status        string `query:"status"         doc:"Exact StandardStatus"`
	OrderBy       string `query:"order_by"       doc:"newest, oldest, price_asc, price_desc, beds or a raw OData orderby"`
	Limit         string `query:"limit"          doc:"Page size (default 12, max 1000)"`
	Page          string `query:"page"           doc:"1-based page number"`
}

// Params coerces the raw query values.
func (s *SearchParams) Params() odata.Params {
	return odata.ParamsFromValues(url.Values{
		"city":           {s.City},
		"min_price":      {s.MinPrice},
		"max_price":      {s.MaxPrice},
		"beds":           {s.Beds},
		"baths":          {s.Baths},
		"property_type":  {s.PropertyType},
		"rental":         {s.Rental},
		"available_only": {s.AvailableOnly},
		"office_name":    {s.OfficeName},
		"office_mls_id":  {s.OfficeMlsID},
		"agent_mls_id":   {s.AgentMlsID},
		"team_name":      {s.TeamName},
		"status":         {s.Status},
		"order_by":       {s.OrderBy},
		"limit":          {s.Limit},
		"page":           {s.Page},
	})
}

// ListListingsInput is the input for a listing search.
type ListListingsInput struct {
	SearchParams
}

// ListListingsOutput is one page of search results.
type ListListingsOutput struct {
	Body struct {
		Items []reso.RawListing `json:"items"`
		Total int               `json:"total" doc:"Upstream total when reported, else the page item count"`
		Page  int               `json:"page"`
		Limit int               `json:"limit"`
	}
}

// GetListingInput is the input for a single listing lookup.
type GetListingInput struct {
	Key string `path:"key" doc:"RESO ListingKey"`
}

// GetListingOutput is a single listing.
type GetListingOutput struct {
	Body struct {
		Item reso.RawListing `json:"item"`
	}
}

// PreviewQueryInput is the input for an offline query preview.
type PreviewQueryInput struct {
	SearchParams
}

// PreviewQueryOutput is the upstream URL a search would request.
type PreviewQueryOutput struct {
	Body struct {
		URL   string `json:"url"`
		Page  int    `json:"page"`
		Limit int    `json:"limit"`
	}
}

// --- Handlers ---

// ListListings runs a listing search against the upstream feed.
func (h *ListingsHandler) ListListings(
	ctx context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	p := input.Params()

	res := h.fetcher.FetchListings(ctx, p)
	if res.Failed() {
		h.log.Warn("listing search failed",
			"kind", res.Error,
			"request_id", middleware.RequestIDFromContext(ctx),
		)
		return nil, upstreamError(res.Error)
	}

	resp := &ListListingsOutput{}
	resp.Body.Items = res.Items
	resp.Body.Total = res.Total
	resp.Body.Page = p.NormalizedPage()
	resp.Body.Limit = p.NormalizedLimit()

	return resp, nil
}

// GetListing returns one listing by ListingKey.
func (h *ListingsHandler) GetListing(
	ctx context.Context,
	input *GetListingInput,
) (*GetListingOutput, error) {
	res := h.fetcher.FetchListingByKey(ctx, input.Key)
	if res.Failed() {
		h.log.Warn("listing lookup failed",
			"key", input.Key,
			"kind", res.Error,
			"request_id", middleware.RequestIDFromContext(ctx),
		)
		return nil, upstreamError(res.Error)
	}
	if res.NotFound() {
		return nil, huma.Error404NotFound("listing not found")
	}

	resp := &GetListingOutput{}
	resp.Body.Item = res.Item
	return resp, nil
}

// PreviewQuery returns the upstream URL for the given filters without
// calling it.
func (h *ListingsHandler) PreviewQuery(
	_ context.Context,
	input *PreviewQueryInput,
) (*PreviewQueryOutput, error) {
	p := input.Params()

	resp := &PreviewQueryOutput{}
	resp.Body.URL = h.fetcher.ListURL(p)
	resp.Body.Page = p.NormalizedPage()
	resp.Body.Limit = p.NormalizedLimit()
	return resp, nil
}

func upstreamError(kind reso.ErrorKind) error {
	return huma.Error502BadGateway("upstream request failed: " + string(kind))
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "Search listings",
		Description: "Searches the upstream RESO feed. Responses are cached per query.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusBadGateway},
	}, h.ListListings)

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{key}",
		Summary:     "Get a listing by key",
		Description: "Fetches a single listing with its full field set and media. Never cached.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusNotFound, http.StatusBadGateway},
	}, h.GetListing)

	huma.Register(api, huma.Operation{
		OperationID: "preview-query",
		Method:      http.MethodGet,
		Path:        "/api/v1/query",
		Summary:     "Preview the upstream query",
		Description: "Returns the OData URL a listing search would request, without calling it.",
		Tags:        []string{"listings"},
	}, h.PreviewQuery)
}
