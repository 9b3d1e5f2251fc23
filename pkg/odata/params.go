// Package odata builds RESO OData queries for the Property resource.
//
// Everything in this package is pure: a Builder turns a loosely specified
// Params value into an immutable Query without touching the network.
package odata

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size used when no usable limit is given.
	DefaultLimit = 12
	// MaxTop is the largest $top the builder will ever emit.
	MaxTop = 1000
)

// Rental is a tri-state flag selecting, excluding, or ignoring lease listings.
type Rental int

const (
	RentalUnset Rental = iota
	RentalInclude
	RentalExclude
)

// String returns the wire spelling used by the HTTP API.
func (r Rental) String() string {
	switch r {
	case RentalInclude:
		return "true"
	case RentalExclude:
		return "false"
	default:
		return ""
	}
}

// Params is the caller's request. The zero value of every field means
// "no constraint".
type Params struct {
	City         string
	MinPrice     int
	MaxPrice     int
	Beds         int
	Baths        int
	PropertyType string
	OfficeName   string
	OfficeMlsID  string
	AgentMlsID   string
	TeamName     string
	Status       string

	Rental        Rental
	AvailableOnly bool

	OrderBy string
	Limit   int
	Page    int
}

// NormalizedLimit returns the effective page size. Anything below one falls
// back to DefaultLimit.
func (p Params) NormalizedLimit() int {
	if p.Limit < 1 {
		return DefaultLimit
	}
	return p.Limit
}

// NormalizedPage returns the effective 1-based page number.
func (p Params) NormalizedPage() int {
	return max(p.Page, 1)
}

// ParseRental maps a loose flag to a Rental. Recognized values are
// 1/true/yes and 0/false/no, case-insensitive.
func ParseRental(s string) Rental {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return RentalInclude
	case "0", "false", "no":
		return RentalExclude
	default:
		return RentalUnset
	}
}

// ParseFlag reports whether s is one of 1/true/yes/on.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ParseInt parses a leading integer the way loosely typed callers expect:
// surrounding space is ignored, a trailing non-digit suffix is dropped and
// anything unparseable is zero. Out-of-range values saturate at the int
// bounds. Negative values are preserved so the caller's floor rule can apply.
func ParseInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' || end == 0 && (c == '-' || c == '+') {
			end++
			continue
		}
		break
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

// ParamsFromValues builds Params from a query-string style bag. Keys use
// snake_case (min_price, office_mls_id, ...).
func ParamsFromValues(v url.Values) Params {
	get := func(k string) string { return strings.TrimSpace(v.Get(k)) }

	return Params{
		City:          get("city"),
		MinPrice:      ParseInt(get("min_price")),
		MaxPrice:      ParseInt(get("max_price")),
		Beds:          ParseInt(get("beds")),
		Baths:         ParseInt(get("baths")),
		PropertyType:  get("property_type"),
		OfficeName:    get("office_name"),
		OfficeMlsID:   get("office_mls_id"),
		AgentMlsID:    get("agent_mls_id"),
		TeamName:      get("team_name"),
		Status:        get("status"),
		Rental:        ParseRental(get("rental")),
		AvailableOnly: ParseFlag(get("available_only")),
		OrderBy:       get("order_by"),
		Limit:         ParseInt(get("limit")),
		Page:          ParseInt(get("page")),
	}
}

// Values is the inverse of ParamsFromValues. Unset fields are omitted.
func (p Params) Values() url.Values {
	v := url.Values{}
	setStr := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	setInt := func(k string, n int) {
		if n != 0 {
			v.Set(k, strconv.Itoa(n))
		}
	}

	setStr("city", p.City)
	setInt("min_price", p.MinPrice)
	setInt("max_price", p.MaxPrice)
	setInt("beds", p.Beds)
	setInt("baths", p.Baths)
	setStr("property_type", p.PropertyType)
	setStr("office_name", p.OfficeName)
	setStr("office_mls_id", p.OfficeMlsID)
	setStr("agent_mls_id", p.AgentMlsID)
	setStr("team_name", p.TeamName)
	setStr("status", p.Status)
	setStr("rental", p.Rental.String())
	if p.AvailableOnly {
		v.Set("available_only", "true")
	}
	setStr("order_by", p.OrderBy)
	setInt("limit", p.Limit)
	setInt("page", p.Page)

	return v
}
