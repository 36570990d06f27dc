// Copyright Precisionmatics Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/acquire"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/enrich"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [pdb-ids...]",
	Short: "Download structure files from the RCSB PDB",
	Long: `Fetch downloads the .pdb files for one or more PDB identifiers into the
structures directory and writes a metadata record for each. Structures
already on disk are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	fetchCmd.Flags().String("structures-dir", "structures", "base directory for structures")
	fetchCmd.Flags().Bool("no-metadata", false, "skip the metadata enrichment step")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDB identifiers")
	}

	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	structuresDir, _ := cmd.Flags().GetString("structures-dir")
	noMetadata, _ := cmd.Flags().GetBool("no-metadata")

	httpCfg := httpConfig(cmd)
	client := newHTTPClient(httpCfg)

	cfg := types.AcquisitionConfig{
		HTTPConfig:    httpCfg,
		FilesURL:      viper.GetString("files.url"),
		DownloadDelay: delay,
		StructuresDir: structuresDir,
	}

	var enricher *enrich.Enricher
	if !noMetadata {
		enricher = enrich.New(client, types.EnrichConfig{
			HTTPConfig: httpCfg,
			DataURL:    viper.GetString("data.url"),
		})
	}

	result := acquire.AcquireBatch(cmd.Context(), client, enricher, args, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d structure(s) failed acquisition", result.Failed)
	}
	return nil
}
