package odata

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultRentalType is the PropertyType value that identifies leases.
	DefaultRentalType = "Residential Lease"

	// DefaultListSelect is the field set requested for result lists.
	DefaultListSelect = "ListingKey,ListingId,ListPrice,UnparsedAddress,City," +
		"StateOrProvince,PostalCode,BedroomsTotal,BathroomsTotalInteger,LivingArea," +
		"PropertyType,PropertySubType,StandardStatus,ListOfficeName,ModificationTimestamp"

	// DefaultDetailSelect extends DefaultListSelect for single listing views.
	DefaultDetailSelect = DefaultListSelect + ",PublicRemarks,YearBuilt,LotSizeAcres," +
		"Latitude,Longitude,ListAgentFullName,ListAgentMlsId,ListOfficeMlsId," +
		"ListTeamName,DaysOnMarket,OriginalListPrice,ClosePrice,CloseDate"

	// DefaultMediaExpand pulls photos in display order.
	DefaultMediaExpand = "Media($select=MediaURL,Order;$orderby=Order)"

	defaultOrderBy = "ModificationTimestamp desc"
)

// DefaultExcludedStatuses are the StandardStatus values hidden when a caller
// asks for available listings only.
var DefaultExcludedStatuses = []string{"Closed", "Canceled", "Expired"}

// namedOrderBy maps friendly sort names to OData $orderby expressions.
var namedOrderBy = map[string]string{
	"newest":     "ModificationTimestamp desc",
	"oldest":     "ModificationTimestamp asc",
	"price_asc":  "ListPrice asc",
	"price_desc": "ListPrice desc",
	"beds":       "BedroomsTotal desc",
}

var rawOrderBy = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*( (asc|desc))?$`)

// Builder turns Params into Query values.
type Builder struct {
	rentalType       func(Params) string
	excludedStatuses []string
	extendedFilters  bool
	listSelect       string
	detailSelect     string
	mediaExpand      string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRentalType sets the PropertyType that identifies lease listings.
func WithRentalType(t string) BuilderOption {
	return func(b *Builder) {
		b.rentalType = func(Params) string { return t }
	}
}

// WithRentalTypeResolver derives the lease PropertyType from the request.
func WithRentalTypeResolver(f func(Params) string) BuilderOption {
	return func(b *Builder) {
		b.rentalType = f
	}
}

// WithExcludedStatuses replaces the statuses hidden by AvailableOnly.
func WithExcludedStatuses(statuses []string) BuilderOption {
	return func(b *Builder) {
		b.excludedStatuses = append([]string(nil), statuses...)
	}
}

// WithExtendedFilters toggles the office, agent, team, status and availability
// filters. Disabling them yields the "lite" variant.
func WithExtendedFilters(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.extendedFilters = enabled
	}
}

// WithListSelect overrides the $select used for list queries.
func WithListSelect(fields string) BuilderOption {
	return func(b *Builder) {
		b.listSelect = fields
	}
}

// WithDetailSelect overrides the $select used for detail queries.
func WithDetailSelect(fields string) BuilderOption {
	return func(b *Builder) {
		b.detailSelect = fields
	}
}

// WithMediaExpand overrides the $expand used by both variants.
func WithMediaExpand(expand string) BuilderOption {
	return func(b *Builder) {
		b.mediaExpand = expand
	}
}

// NewBuilder creates a Builder with the default field sets and filters.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		rentalType:       func(Params) string { return DefaultRentalType },
		excludedStatuses: DefaultExcludedStatuses,
		extendedFilters:  true,
		listSelect:       DefaultListSelect,
		detailSelect:     DefaultDetailSelect,
		mediaExpand:      DefaultMediaExpand,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the paginated list query for p.
func (b *Builder) Build(p Params) Query {
	top := min(p.NormalizedLimit(), MaxTop)
	// Pages past this bound would overflow $skip.
	page := min(p.NormalizedPage(), math.MaxInt/top+1)

	return Query{
		Select:  b.listSelect,
		Expand:  b.mediaExpand,
		Filter:  b.Filter(p),
		OrderBy: ResolveOrderBy(p.OrderBy),
		Top:     top,
		Skip:    (page - 1) * top,
		Count:   true,
	}
}

// BuildDetail returns the single-listing query for key.
func (b *Builder) BuildDetail(key string) Query {
	return Query{
		Select: b.detailSelect,
		Expand: b.mediaExpand,
		Filter: "ListingKey eq " + EscapeLiteral(key),
		Top:    1,
	}
}

// Filter assembles the $filter expression for p, or "" when p has no
// constraints. Clause order is fixed so equal Params yield equal strings.
func (b *Builder) Filter(p Params) string {
	var clauses []string
	eq := func(field, v string) {
		if v != "" {
			clauses = append(clauses, field+" eq "+EscapeLiteral(v))
		}
	}
	cmp := func(field, op string, n int) {
		// Zero doubles as "unset", so "0 or more" cannot be expressed.
		if n != 0 {
			clauses = append(clauses, fmt.Sprintf("%s %s %d", field, op, n))
		}
	}

	eq("City", p.City)
	cmp("ListPrice", "ge", p.MinPrice)
	cmp("ListPrice", "le", p.MaxPrice)
	cmp("BedroomsTotal", "ge", p.Beds)
	cmp("BathroomsTotalInteger", "ge", p.Baths)
	eq("PropertyType", p.PropertyType)

	switch p.Rental {
	case RentalInclude:
		clauses = append(clauses, "PropertyType eq "+EscapeLiteral(b.rentalType(p)))
	case RentalExclude:
		clauses = append(clauses, "PropertyType ne "+EscapeLiteral(b.rentalType(p)))
	case RentalUnset:
	}

	if b.extendedFilters {
		eq("ListOfficeName", p.OfficeName)
		eq("ListOfficeMlsId", p.OfficeMlsID)
		eq("ListAgentMlsId", p.AgentMlsID)
		eq("ListTeamName", p.TeamName)
		eq("StandardStatus", p.Status)

		if p.AvailableOnly {
			for _, s := range b.excludedStatuses {
				if strings.TrimSpace(s) == "" {
					continue
				}
				clauses = append(clauses, "StandardStatus ne "+EscapeLiteral(s))
			}
		}
	}

	return strings.Join(clauses, " and ")
}

// ResolveOrderBy maps a caller sort to an $orderby expression. Named sorts
// and bare "Field [asc|desc]" expressions pass; anything else gets the
// default.
func ResolveOrderBy(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultOrderBy
	}
	if expr, ok := namedOrderBy[strings.ToLower(s)]; ok {
		return expr
	}
	if rawOrderBy.MatchString(s) {
		return s
	}
	return defaultOrderBy
}

// EscapeLiteral renders v as an OData string literal: wrapped in single
// quotes with embedded quotes doubled.
func EscapeLiteral(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case int:
		s = strconv.Itoa(t)
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
