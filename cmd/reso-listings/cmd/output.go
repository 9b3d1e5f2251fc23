package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	apiclient "github.com/donaldgifford/reso-listings/internal/api/client"
)

const (
	mediaField   = "Media"
	addressWidth = 40
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printListingsTable(w io.Writer, listings []apiclient.Listing) error {
	tw := newTabWriter(w)
	tw.writef("KEY\tSTATUS\tPRICE\tBEDS\tBATHS\tCITY\tADDRESS\n")
	for _, l := range listings {
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(l.String("ListingKey")),
			orDash(l.String("StandardStatus")),
			formatPrice(l.String("ListPrice")),
			orDash(l.String("BedroomsTotal")),
			orDash(l.String("BathroomsTotalInteger")),
			orDash(l.String("City")),
			truncate(orDash(l.String("UnparsedAddress")), addressWidth),
		)
	}
	return tw.finish()
}

// printListingDetail prints every scalar field in key order. The media
// array is summarized as a count.
func printListingDetail(w io.Writer, l apiclient.Listing) error {
	keys := make([]string, 0, len(l))
	for k := range l {
		if k != mediaField {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	tw := newTabWriter(w)
	for _, k := range keys {
		tw.writef("%s:\t%s\n", k, l.String(k))
	}
	if media, ok := l[mediaField].([]any); ok {
		tw.writef("%s:\t%d item(s)\n", mediaField, len(media))
	}
	return tw.finish()
}

func printQuota(w io.Writer, q *apiclient.QuotaStatus) error {
	tw := newTabWriter(w)
	if !q.Limited {
		tw.writef("Limited:\tno\n")
		tw.writef("Used Today:\t%d\n", q.DailyUsed)
		return tw.finish()
	}

	tw.writef("Limited:\tyes\n")
	if q.DailyLimit > 0 {
		tw.writef("Daily Limit:\t%d\n", q.DailyLimit)
	} else {
		tw.writef("Daily Limit:\tnone\n")
	}
	tw.writef("Used Today:\t%d\n", q.DailyUsed)
	if q.Remaining >= 0 {
		tw.writef("Remaining:\t%d\n", q.Remaining)
	}
	if q.ResetAt != nil {
		tw.writef("Resets At:\t%s\n", q.ResetAt.Format(time.RFC3339))
	}
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPrice renders a whole-dollar price with thousands separators.
// Non-numeric values are passed through.
func formatPrice(s string) string {
	if s == "" {
		return "-"
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}

	digits := strconv.FormatInt(int64(f), 10)
	neg := digits[0] == '-'
	if neg {
		digits = digits[1:]
	}

	var out []byte
	for i := range len(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-$" + string(out)
	}
	return "$" + string(out)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
