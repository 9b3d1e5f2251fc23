package cmd

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/reso-listings/pkg/odata"
)

// searchFlag maps a CLI flag to its query-string key.
type searchFlag struct {
	flag  string
	key   string
	usage string
}

var searchFlags = []searchFlag{
	{"city", "city", "city name (prefix match)"},
	{"min-price", "min_price", "minimum list price"},
	{"max-price", "max_price", "maximum list price"},
	{"beds", "beds", "minimum bedrooms"},
	{"baths", "baths", "minimum bathrooms"},
	{"property-type", "property_type", "property type (e.g. Residential)"},
	{"rental", "rental", "rental filter (yes, no)"},
	{"available-only", "available_only", "only listings available now or sooner"},
	{"office-name", "office_name", "listing office name (exact)"},
	{"office-mls-id", "office_mls_id", "listing office MLS ID"},
	{"agent-mls-id", "agent_mls_id", "listing agent MLS ID"},
	{"team-name", "team_name", "listing team name (exact)"},
	{"status", "status", "standard status (e.g. Active)"},
	{"order-by", "order_by", "sort order (price_asc, price_desc, newest, oldest, beds)"},
	{"limit", "limit", "page size (default 12, max 1000)"},
	{"page", "page", "1-based page number"},
}

// addSearchFlags registers the listing search flags on cmd and returns a
// viper instance scoped to it. Each flag can also be set from the
// environment as RESO_<FLAG>, e.g. RESO_MIN_PRICE.
func addSearchFlags(cmd *cobra.Command) *viper.Viper {
	for _, f := range searchFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(cmd.Flags()))

	return v
}

// searchValues collects the search flags into a query-string bag.
func searchValues(v *viper.Viper) url.Values {
	vals := url.Values{}
	for _, f := range searchFlags {
		if s := strings.TrimSpace(v.GetString(f.flag)); s != "" {
			vals.Set(f.key, s)
		}
	}
	return vals
}

// searchParams parses the search flags into odata.Params.
func searchParams(v *viper.Viper) odata.Params {
	return odata.ParamsFromValues(searchValues(v))
}
