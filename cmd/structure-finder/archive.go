// Copyright Precisionmatics Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/archive"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/enrich"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/pipeline"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/search"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive [pdb-ids...]",
	Short: "Bundle structure files into a zip archive",
	Long: `Archive downloads the named structure files and writes them into a single
zip archive. With --query instead of explicit identifiers, the full search
pipeline runs first and the filtered results are archived. Structures that
fail to download are skipped and listed in a manifest inside the archive.`,
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().String("output", "structures.zip", "output zip path")
	archiveCmd.Flags().String("query", "", "archive the filtered results of this search instead of explicit ids")
	archiveCmd.Flags().Bool("top", false, "with --query, archive only the best X-ray structures")
	archiveCmd.Flags().String("local-dir", "", "directory of already-downloaded .pdb files to prefer over the network")
	archiveCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	registerFilterFlags(archiveCmd)

	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	output, _ := cmd.Flags().GetString("output")
	localDir, _ := cmd.Flags().GetString("local-dir")

	httpCfg := httpConfig(cmd)
	client := newHTTPClient(httpCfg)

	ids := args
	if len(ids) == 0 {
		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("provide PDB identifiers or --query")
		}
		var err error
		ids, err = archiveQueryIDs(cmd, query)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No structures matched; nothing to archive.")
			return nil
		}
	}

	builder := archive.NewBuilder(client, types.ArchiveConfig{
		HTTPConfig: httpCfg,
		FilesURL:   viper.GetString("files.url"),
		LocalDir:   localDir,
	})

	data, manifest, err := builder.Build(cmd.Context(), ids, os.Stdout)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}

	fmt.Printf("Wrote %s: %d archived, %d failed\n", output, len(manifest.Archived), len(manifest.Failures))
	return nil
}

// archiveQueryIDs runs the search pipeline and returns the identifiers
// of the filtered (or ranked, with --top) records.
func archiveQueryIDs(cmd *cobra.Command, query string) ([]string, error) {
	topOnly, _ := cmd.Flags().GetBool("top")

	httpCfg := httpConfig(cmd)
	client := newHTTPClient(httpCfg)

	searcher := search.NewClient(client, types.SearchConfig{
		HTTPConfig: httpCfg,
		SearchURL:  viper.GetString("search.url"),
	})
	hits, err := searcher.Search(cmd.Context(), query, os.Stderr)
	if err != nil {
		return nil, err
	}

	enricher := enrich.New(client, types.EnrichConfig{
		HTTPConfig: httpCfg,
		DataURL:    viper.GetString("data.url"),
	})
	report := enricher.Enrich(cmd.Context(), hits, 0)
	pipeline.FormatFailures(report.Failures, os.Stderr)

	filtered := pipeline.Filter(report.Records, filterOptionsFromFlags(cmd))
	if topOnly {
		filtered = pipeline.Rank(filtered)
	}

	ids := make([]string, len(filtered))
	for i, rec := range filtered {
		ids[i] = rec.ID
	}
	return ids, nil
}
