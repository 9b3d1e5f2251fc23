package reso

// RawListing is one Property record exactly as the server returned it.
// Numbers are json.Number so they survive a cache round trip unchanged.
type RawListing map[string]any

// ErrorKind classifies a failed upstream call.
type ErrorKind string

const (
	// KindTransport covers connection failures, timeouts and quota refusals.
	KindTransport ErrorKind = "http"
	// KindBadResponse covers non-200 statuses and bodies that are not a
	// JSON object.
	KindBadResponse ErrorKind = "bad_response"
)

// ListingResult is the envelope returned by FetchListings. On failure Items
// is empty, Total is zero and Error is set.
type ListingResult struct {
	Items []RawListing `json:"items"`
	Total int          `json:"total"`
	Error ErrorKind    `json:"error,omitempty"`
}

// Failed reports whether the result carries an error kind.
func (r ListingResult) Failed() bool { return r.Error != "" }

// SingleResult is the envelope returned by FetchListingByKey. An empty Item
// with no Error means the key was not found.
type SingleResult struct {
	Item  RawListing `json:"item"`
	Error ErrorKind  `json:"error,omitempty"`
}

// Failed reports whether the result carries an error kind.
func (r SingleResult) Failed() bool { return r.Error != "" }

// NotFound reports a successful lookup that matched nothing.
func (r SingleResult) NotFound() bool { return r.Error == "" && len(r.Item) == 0 }

func failedList(kind ErrorKind) ListingResult {
	return ListingResult{Items: []RawListing{}, Error: kind}
}

func failedSingle(kind ErrorKind) SingleResult {
	return SingleResult{Item: RawListing{}, Error: kind}
}
