package odata

import (
	"net/url"
	"strconv"
	"strings"
)

// Query is a fully resolved OData request for the Property resource.
type Query struct {
	Select  string
	Expand  string
	Filter  string
	OrderBy string
	Top     int
	Skip    int
	Count   bool
}

// paramOrder is the wire order of system query options. Encode relies on it
// so that identical queries always serialize identically.
var paramOrder = []string{"$select", "$expand", "$filter", "$orderby", "$top", "$skip", "$count"}

// Values returns the query as url.Values. Empty options are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	for _, kv := range q.pairs() {
		v.Set(kv[0], kv[1])
	}
	return v
}

// Encode serializes the query in a fixed option order, percent-encoding
// spaces as %20 (url.Values.Encode would sort keys and emit '+', which some
// OData servers reject inside $filter).
func (q Query) Encode() string {
	var b strings.Builder
	for _, kv := range q.pairs() {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(kv[0]))
		b.WriteByte('=')
		b.WriteString(escape(kv[1]))
	}
	return b.String()
}

// URL joins the query onto endpoint.
func (q Query) URL(endpoint string) string {
	enc := q.Encode()
	if enc == "" {
		return endpoint
	}
	return endpoint + "?" + enc
}

func (q Query) pairs() [][2]string {
	vals := map[string]string{
		"$select":  q.Select,
		"$expand":  q.Expand,
		"$filter":  q.Filter,
		"$orderby": q.OrderBy,
		"$top":     strconv.Itoa(q.Top),
		"$skip":    strconv.Itoa(q.Skip),
		"$count":   strconv.FormatBool(q.Count),
	}

	out := make([][2]string, 0, len(paramOrder))
	for _, k := range paramOrder {
		if vals[k] == "" {
			continue
		}
		out = append(out, [2]string{k, vals[k]})
	}
	return out
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
