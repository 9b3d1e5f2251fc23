package cmd

import (
	"github.com/spf13/cobra"
)

func quotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show the server's upstream call budget",
		Long: "Show how many upstream RESO calls the server has made today and how\n" +
			"many remain before its daily limit resets.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := newClient().Quota(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), q)
			}

			return printQuota(cmd.OutOrStdout(), q)
		},
	}
}
