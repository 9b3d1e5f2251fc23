package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/reso-listings/internal/config"
	"github.com/donaldgifford/reso-listings/internal/reso"
)

// queryOutput is the JSON form of the query command.
type queryOutput struct {
	URL   string `json:"url"`
	Page  int    `json:"page,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func queryCmd() *cobra.Command {
	var (
		key     string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the upstream OData URL for a search",
		Long: "Build the RESO Web API request URL for a listing search or a single\n" +
			"listing without contacting any server. Builder settings (rental type,\n" +
			"excluded statuses, extended filters) come from the config file when\n" +
			"it exists.",
		Example: `  # Three-bed homes in Boise under 500k
  reso-listings query --city Boise --beds 3 --max-price 500000 --rental no

  # Detail URL for one listing
  reso-listings query --key 3yd-ABC-123

  # Against a specific upstream
  reso-listings query --base-url https://api.example.com/reso/odata --status Active`,
		Args: cobra.NoArgs,
	}
	v := addSearchFlags(cmd)
	cmd.Flags().StringVar(&key, "key", "", "ListingKey for a detail URL")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "override reso.base_url")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfigOrDefaults(cfgFile)
		if err != nil {
			return err
		}
		if baseURL != "" {
			cfg.Reso.BaseURL = baseURL
		}

		client := reso.NewClient(
			reso.Config{BaseURL: cfg.Reso.BaseURL},
			reso.WithBuilder(newBuilder(cfg.Reso)),
		)

		var out queryOutput
		if key != "" {
			out.URL = client.Builder().BuildDetail(key).URL(client.Endpoint())
		} else {
			p := searchParams(v)
			out = queryOutput{
				URL:   client.ListURL(p),
				Page:  p.NormalizedPage(),
				Limit: p.NormalizedLimit(),
			}
		}

		if jsonOutput() {
			return outputJSON(cmd.OutOrStdout(), out)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out.URL)
		return err
	}

	return cmd
}

// loadConfigOrDefaults loads path, falling back to built-in defaults when
// the file does not exist.
func loadConfigOrDefaults(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
