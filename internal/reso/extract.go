package reso

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// DefaultResultsPath is where OData servers put the result array.
	DefaultResultsPath = "value"
	// DefaultCountField carries the total when $count=true.
	DefaultCountField = "@odata.count"
)

// ResultsExtractor pulls the listing array out of a decoded response body.
// It lets integrations with differently shaped backends plug in without
// changing the client.
type ResultsExtractor func(body map[string]any) []RawListing

// PathExtractor returns a ResultsExtractor that follows a dot-separated path
// of object keys ("value", "data.listings") to an array. Array elements that
// are not objects are skipped; a missing path yields no items.
func PathExtractor(path string) ResultsExtractor {
	parts := strings.Split(path, ".")
	return func(body map[string]any) []RawListing {
		var cur any = body
		for _, p := range parts {
			obj, ok := cur.(map[string]any)
			if !ok {
				return []RawListing{}
			}
			cur = obj[p]
		}

		arr, ok := cur.([]any)
		if !ok {
			return []RawListing{}
		}

		items := make([]RawListing, 0, len(arr))
		for _, el := range arr {
			if obj, ok := el.(map[string]any); ok {
				items = append(items, RawListing(obj))
			}
		}
		return items
	}
}

// countOf reads an integer count field, accepting numbers and numeric
// strings.
func countOf(body map[string]any, field string) (int, bool) {
	switch v := body[field].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
