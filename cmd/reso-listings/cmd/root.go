// Package cmd implements the reso-listings CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/reso-listings/internal/api/client"
)

const envPrefix = "RESO"

var (
	cfgFile string
	envFile string
	rootCmd = &cobra.Command{
		Use:   "reso-listings",
		Short: "Search RESO Web API listings",
		Long: "reso-listings queries a RESO Web API (OData) Property feed with\n" +
			"cached, normalized results. It runs as an HTTP service (serve) and\n" +
			"as a client for that service.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "config.yaml", "service config file")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", "", "dotenv file to load before reading config (default .env if present)")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(
		serveCmd(),
		queryCmd(),
		listingsCmd(),
		quotaCmd(),
		versionCmd(),
	)
}

func initConfig() {
	cobra.CheckErr(loadEnvFile(envFile))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. An empty path loads .env when it exists.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading env file %s: %w", path, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
