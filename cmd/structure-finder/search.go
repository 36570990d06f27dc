// Copyright Precisionmatics Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/enrich"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/pipeline"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/search"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the RCSB PDB and filter the results",
	Long: `Search queries the RCSB PDB for structures matching a protein name or
gene symbol, fetches experimental metadata for every hit, and prints the
records that pass the active filters. The three best X-ray structures by
resolution are listed separately.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "protein name or gene symbol")
	searchCmd.Flags().Int("concurrency", 0, "metadata fetch worker count (1-20, default 10)")
	searchCmd.Flags().Bool("json", false, "output filtered records as JSON")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	registerFilterFlags(searchCmd)

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("provide a search query")
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	httpCfg := httpConfig(cmd)
	client := newHTTPClient(httpCfg)

	searcher := search.NewClient(client, types.SearchConfig{
		HTTPConfig: httpCfg,
		SearchURL:  viper.GetString("search.url"),
	})
	ids, err := searcher.Search(cmd.Context(), query, os.Stderr)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No structures found.")
		return nil
	}

	enricher := enrich.New(client, types.EnrichConfig{
		HTTPConfig: httpCfg,
		DataURL:    viper.GetString("data.url"),
	})
	report := enricher.Enrich(cmd.Context(), ids, concurrency)
	filtered := pipeline.SortByResolution(pipeline.Filter(report.Records, filterOptionsFromFlags(cmd)))

	if jsonOutput {
		return pipeline.FormatJSON(filtered, os.Stdout)
	}

	pipeline.FormatCounts(len(ids), len(filtered), os.Stdout)
	pipeline.FormatTable(filtered, os.Stdout)

	if top := pipeline.Rank(filtered); len(top) > 0 {
		fmt.Println("\nBest X-ray structures by resolution:")
		pipeline.FormatTable(top, os.Stdout)
	}

	pipeline.FormatFailures(report.Failures, os.Stderr)
	return nil
}

// registerFilterFlags adds the shared filter flags used by search and
// query-scoped archive runs.
func registerFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("human-only", false, "keep only human (Homo sapiens) structures")
	cmd.Flags().Bool("monomer-only", false, "keep only single-chain structures")
	cmd.Flags().Float64("max-res", 2.5, "resolution ceiling in angstroms")
	cmd.Flags().String("method", pipeline.MethodAny, "experimental method filter (substring match)")
}

func filterOptionsFromFlags(cmd *cobra.Command) pipeline.Options {
	humanOnly, _ := cmd.Flags().GetBool("human-only")
	monomerOnly, _ := cmd.Flags().GetBool("monomer-only")
	maxRes, _ := cmd.Flags().GetFloat64("max-res")
	method, _ := cmd.Flags().GetString("method")

	return pipeline.Options{
		OnlyHuman:     humanOnly,
		MonomerOnly:   monomerOnly,
		MaxResolution: maxRes,
		Method:        method,
	}
}
