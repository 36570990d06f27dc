// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package main is the entry point for the structure-finder CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout   = 30 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "structure-finder/0.1"
)

// rootCmd is the base command for the structure-finder CLI.
var rootCmd = &cobra.Command{
	Use:   "structure-finder",
	Short: "Search, filter, and download protein structures from the RCSB PDB",
	Long: `structure-finder queries the RCSB Protein Data Bank for structures matching
a protein name or gene symbol, enriches the hits with experimental metadata,
filters them by organism, assembly, resolution, and method, and downloads
or archives the structure files.

Each stage is a subcommand: search runs the full query pipeline, fetch
downloads structure files, archive bundles them into a zip, library manages
the local catalog, and serve exposes the pipeline over HTTP.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./structure-finder.yaml or ~/.config/structure-finder/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("structure-finder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "structure-finder"))
		}
	}

	viper.SetEnvPrefix("STRUCTURE_FINDER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// httpConfig builds the shared HTTP settings from a subcommand's
// --timeout flag, falling back to the config file and then the default.
func httpConfig(cmd *cobra.Command) types.HTTPConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("http.timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return types.HTTPConfig{
		Timeout:   timeout,
		UserAgent: defaultUserAgent,
	}
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
