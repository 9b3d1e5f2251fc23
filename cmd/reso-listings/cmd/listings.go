package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/reso-listings/internal/api/client"
)

func listingsCmd() *cobra.Command {
	listingsRoot := &cobra.Command{
		Use:   "listings",
		Short: "Search listings through the API server",
		Long: "Search and inspect RESO Property listings through a running\n" +
			"reso-listings server.",
	}

	listingsRoot.AddCommand(
		listingsListCmd(),
		listingsGetCmd(),
	)

	return listingsRoot
}

func listingsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings with optional filters",
		Long: "List listings matching the given filters. Filters left unset place\n" +
			"no constraint on the search.",
		Example: `  # Active listings in Boise, cheapest first
  reso-listings listings list --city Boise --status Active --order-by price_asc

  # Second page of rentals with at least two beds
  reso-listings listings list --rental yes --beds 2 --page 2

  # Raw JSON
  reso-listings listings list --city Meridian --output json`,
		Args: cobra.NoArgs,
	}
	v := addSearchFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		resp, err := newClient().ListListings(cmd.Context(), searchParams(v))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return outputJSON(out, resp)
		}

		if len(resp.Items) == 0 {
			_, err := fmt.Fprintln(out, "No listings found.")
			return err
		}

		if _, err := fmt.Fprintf(out, "Page %d: showing %d of %d listings\n\n",
			resp.Page, len(resp.Items), resp.Total); err != nil {
			return err
		}
		return printListingsTable(out, resp.Items)
	}

	return cmd
}

func listingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <listing-key>",
		Short:   "Show a single listing",
		Example: `  reso-listings listings get 3yd-ABC-123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newClient().GetListing(cmd.Context(), args[0])
			if apiclient.IsNotFound(err) {
				return fmt.Errorf("listing %s not found", args[0])
			}
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), l)
			}

			return printListingDetail(cmd.OutOrStdout(), l)
		},
	}
}
