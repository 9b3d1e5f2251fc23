package odata_test

import (
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/reso-listings/pkg/odata"
)

func TestEscapeLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "plain string", input: "Austin", want: "'Austin'"},
		{name: "embedded quote", input: "O'Brien", want: "'O''Brien'"},
		{name: "empty string", input: "", want: "''"},
		{name: "only quotes", input: "''", want: "''''''"},
		{name: "other characters untouched", input: `a"b\c%d&e`, want: `'a"b\c%d&e'`},
		{name: "integer", input: 42, want: "'42'"},
		{name: "float", input: 1.5, want: "'1.5'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, odata.EscapeLiteral(tt.input))
		})
	}
}

func TestBuilder_Filter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []odata.BuilderOption
		params odata.Params
		want   string
	}{
		{
			name:   "no params yields empty filter",
			params: odata.Params{},
			want:   "",
		},
		{
			name:   "city only",
			params: odata.Params{City: "Coeur d'Alene"},
			want:   "City eq 'Coeur d''Alene'",
		},
		{
			name:   "price bounds",
			params: odata.Params{MinPrice: 100000, MaxPrice: 500000},
			want:   "ListPrice ge 100000 and ListPrice le 500000",
		},
		{
			name:   "zero thresholds are treated as unset",
			params: odata.Params{MinPrice: 0, Beds: 0, Baths: 0},
			want:   "",
		},
		{
			name: "full clause order",
			params: odata.Params{
				City:          "Boise",
				MinPrice:      1,
				MaxPrice:      2,
				Beds:          3,
				Baths:         4,
				PropertyType:  "Residential",
				Rental:        odata.RentalExclude,
				OfficeName:    "Acme",
				OfficeMlsID:   "OFF1",
				AgentMlsID:    "AG1",
				TeamName:      "Team",
				Status:        "Active",
				AvailableOnly: true,
			},
			want: "City eq 'Boise' and ListPrice ge 1 and ListPrice le 2 and " +
				"BedroomsTotal ge 3 and BathroomsTotalInteger ge 4 and " +
				"PropertyType eq 'Residential' and PropertyType ne 'Residential Lease' and " +
				"ListOfficeName eq 'Acme' and ListOfficeMlsId eq 'OFF1' and " +
				"ListAgentMlsId eq 'AG1' and ListTeamName eq 'Team' and " +
				"StandardStatus eq 'Active' and StandardStatus ne 'Closed' and " +
				"StandardStatus ne 'Canceled' and StandardStatus ne 'Expired'",
		},
		{
			name:   "rental include uses configured type",
			opts:   []odata.BuilderOption{odata.WithRentalType("Lease")},
			params: odata.Params{Rental: odata.RentalInclude},
			want:   "PropertyType eq 'Lease'",
		},
		{
			name: "rental resolver sees params",
			opts: []odata.BuilderOption{odata.WithRentalTypeResolver(func(p odata.Params) string {
				if p.PropertyType == "Commercial" {
					return "Commercial Lease"
				}
				return "Residential Lease"
			})},
			params: odata.Params{PropertyType: "Commercial", Rental: odata.RentalInclude},
			want:   "PropertyType eq 'Commercial' and PropertyType eq 'Commercial Lease'",
		},
		{
			name:   "custom excluded statuses skip empty entries",
			opts:   []odata.BuilderOption{odata.WithExcludedStatuses([]string{"Sold", "", "  ", "Withdrawn"})},
			params: odata.Params{AvailableOnly: true},
			want:   "StandardStatus ne 'Sold' and StandardStatus ne 'Withdrawn'",
		},
		{
			name: "lite variant ignores extended filters",
			opts: []odata.BuilderOption{odata.WithExtendedFilters(false)},
			params: odata.Params{
				City:          "Boise",
				OfficeName:    "Acme",
				AgentMlsID:    "AG1",
				Status:        "Active",
				AvailableOnly: true,
			},
			want: "City eq 'Boise'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := odata.NewBuilder(tt.opts...)
			assert.Equal(t, tt.want, b.Filter(tt.params))
		})
	}
}

func TestBuilder_Filter_Deterministic(t *testing.T) {
	t.Parallel()

	b := odata.NewBuilder()
	p := odata.Params{
		City:          "Boise",
		MinPrice:      250000,
		Beds:          3,
		Rental:        odata.RentalInclude,
		AvailableOnly: true,
	}

	first := b.Filter(p)
	for range 50 {
		require.Equal(t, first, b.Filter(p))
	}
}

func TestBuilder_Build_Paging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		limit    int
		page     int
		wantTop  int
		wantSkip int
	}{
		{name: "defaults", wantTop: 12, wantSkip: 0},
		{name: "negative limit uses default", limit: -5, wantTop: 12, wantSkip: 0},
		{name: "limit one", limit: 1, page: 3, wantTop: 1, wantSkip: 2},
		{name: "limit clamped to 1000", limit: 5000, wantTop: 1000, wantSkip: 0},
		{name: "limit exactly 1000", limit: 1000, page: 2, wantTop: 1000, wantSkip: 1000},
		{name: "skip uses clamped top", limit: 2000, page: 3, wantTop: 1000, wantSkip: 2000},
		{name: "page two", limit: 12, page: 2, wantTop: 12, wantSkip: 12},
		{name: "zero page normalizes to one", limit: 20, page: 0, wantTop: 20, wantSkip: 0},
		{name: "negative page normalizes to one", limit: 20, page: -4, wantTop: 20, wantSkip: 0},
		{name: "huge page does not overflow skip", limit: 12, page: math.MaxInt, wantTop: 12, wantSkip: (math.MaxInt / 12) * 12},
		{name: "huge page with max top", limit: 1000, page: math.MaxInt, wantTop: 1000, wantSkip: (math.MaxInt / 1000) * 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := odata.NewBuilder().Build(odata.Params{Limit: tt.limit, Page: tt.page})
			assert.Equal(t, tt.wantTop, q.Top)
			assert.Equal(t, tt.wantSkip, q.Skip)
			assert.GreaterOrEqual(t, q.Top, 1)
			assert.LessOrEqual(t, q.Top, odata.MaxTop)
			assert.GreaterOrEqual(t, q.Skip, 0)
		})
	}
}

func TestBuilder_Build_PagingFromLooseValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   url.Values
		wantTop  int
		wantSkip int
	}{
		{
			name:     "max int page",
			values:   url.Values{"page": {"9223372036854775807"}, "limit": {"12"}},
			wantTop:  12,
			wantSkip: (math.MaxInt / 12) * 12,
		},
		{
			name:     "page beyond int range",
			values:   url.Values{"page": {"99999999999999999999"}, "limit": {"12"}},
			wantTop:  12,
			wantSkip: (math.MaxInt / 12) * 12,
		},
		{
			name:    "limit beyond int range clamps to max top",
			values:  url.Values{"limit": {"99999999999999999999"}},
			wantTop: odata.MaxTop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := odata.NewBuilder().Build(odata.ParamsFromValues(tt.values))
			assert.Equal(t, tt.wantTop, q.Top)
			assert.Equal(t, tt.wantSkip, q.Skip)
			assert.Contains(t, q.Encode(), "%24skip="+strconv.Itoa(tt.wantSkip))
		})
	}
}

func TestBuilder_Build_Shape(t *testing.T) {
	t.Parallel()

	q := odata.NewBuilder().Build(odata.Params{City: "Boise", OrderBy: "price_desc"})

	assert.Equal(t, odata.DefaultListSelect, q.Select)
	assert.Equal(t, odata.DefaultMediaExpand, q.Expand)
	assert.Equal(t, "City eq 'Boise'", q.Filter)
	assert.Equal(t, "ListPrice desc", q.OrderBy)
	assert.True(t, q.Count)
}

func TestBuilder_BuildDetail(t *testing.T) {
	t.Parallel()

	q := odata.NewBuilder().BuildDetail("X'9")

	assert.Equal(t, "ListingKey eq 'X''9'", q.Filter)
	assert.Equal(t, 1, q.Top)
	assert.Equal(t, 0, q.Skip)
	assert.False(t, q.Count)
	assert.Equal(t, odata.DefaultDetailSelect, q.Select)
	assert.Contains(t, q.Select, odata.DefaultListSelect)
	assert.Contains(t, q.Select, "PublicRemarks")
}

func TestBuilder_CustomSelects(t *testing.T) {
	t.Parallel()

	b := odata.NewBuilder(
		odata.WithListSelect("ListingKey"),
		odata.WithDetailSelect("ListingKey,PublicRemarks"),
		odata.WithMediaExpand("Media"),
	)

	assert.Equal(t, "ListingKey", b.Build(odata.Params{}).Select)
	assert.Equal(t, "ListingKey,PublicRemarks", b.BuildDetail("A").Select)
	assert.Equal(t, "Media", b.BuildDetail("A").Expand)
}

func TestResolveOrderBy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: "ModificationTimestamp desc"},
		{input: "newest", want: "ModificationTimestamp desc"},
		{input: "PRICE_ASC", want: "ListPrice asc"},
		{input: "ListPrice desc", want: "ListPrice desc"},
		{input: "BedroomsTotal", want: "BedroomsTotal"},
		{input: "ListPrice desc; drop", want: "ModificationTimestamp desc"},
		{input: "ListPrice sideways", want: "ModificationTimestamp desc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, odata.ResolveOrderBy(tt.input))
		})
	}
}
