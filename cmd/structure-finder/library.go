// Copyright Precisionmatics Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/library"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/pipeline"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the local structure catalog (index, query, list, export)",
	Long: `Library manages a local SQLite catalog built from acquired structure
metadata. Use subcommands to index metadata records, query them with
full-text search and structured filters, or export the catalog.`,
}

// --- index subcommand ---

var libraryIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest structure metadata into the catalog",
	Long: `Index reads metadata YAML files from the structures directory and ingests
them into a SQLite catalog with FTS5 indexing. Unchanged records are
skipped on subsequent runs.`,
	RunE: runLibraryIndex,
}

func runLibraryIndex(cmd *cobra.Command, args []string) error {
	store, err := library.NewStore(libraryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var libraryQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the catalog with full-text search and filters",
	Long: `Query searches the catalog using FTS5 full-text search over titles and
organisms, structured filters (method, resolution), or a combination of
both. Full-text matches are ranked by relevance.`,
	RunE: runLibraryQuery,
}

func runLibraryQuery(cmd *cobra.Command, args []string) error {
	store, err := library.NewStore(libraryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := libraryQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --method, or --below-res")
	}

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatLibraryOutput(results, jsonOutput)
}

func libraryQueryOpts(cmd *cobra.Command, args []string) library.QueryOptions {
	method, _ := cmd.Flags().GetString("method")
	belowRes, _ := cmd.Flags().GetFloat64("below-res")
	limit, _ := cmd.Flags().GetInt("limit")

	return library.QueryOptions{
		Text:          strings.Join(args, " "),
		Method:        method,
		MaxResolution: belowRes,
		MaxResults:    limit,
	}
}

func formatLibraryOutput(results []types.StructureMeta, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	records := make([]types.EntryRecord, len(results))
	for i, m := range results {
		records[i] = types.EntryRecord{
			ID:         m.ID,
			Title:      m.Title,
			Method:     m.Method,
			Resolution: m.Resolution,
			Organism:   m.Organism,
			ChainCount: m.ChainCount,
		}
	}
	pipeline.FormatTable(records, os.Stdout)
	fmt.Printf("\n%d results\n", len(results))
	return nil
}

// --- list subcommand ---

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every structure in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := library.NewStore(libraryConfig(cmd))
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatLibraryOutput(results, jsonOutput)
	},
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := library.NewStore(libraryConfig(cmd))
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ExportYAML(cmd.Context()); err != nil {
			return err
		}
		libraryDir, _ := cmd.Flags().GetString("library-dir")
		fmt.Printf("Exported to %s/index/export.yaml\n", libraryDir)
		return nil
	},
}

// --- shared helpers ---

func libraryConfig(cmd *cobra.Command) types.LibraryConfig {
	libraryDir, _ := cmd.Flags().GetString("library-dir")
	structuresDir, _ := cmd.Flags().GetString("structures-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.LibraryConfig{
		LibraryDir:    libraryDir,
		StructuresDir: structuresDir,
		MaxResults:    maxResults,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	libraryCmd.PersistentFlags().String("library-dir", "library", "base directory for the catalog (contains index/)")
	libraryCmd.PersistentFlags().String("structures-dir", "structures", "base directory for structures (contains metadata/)")
	libraryCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	libraryQueryCmd.Flags().String("method", "", "filter by experimental method (substring match)")
	libraryQueryCmd.Flags().Float64("below-res", 0, "keep only structures at or below this resolution")
	libraryQueryCmd.Flags().Int("limit", 0, "maximum results for this query")
	libraryQueryCmd.Flags().Bool("json", false, "output results as JSON")

	libraryListCmd.Flags().Bool("json", false, "output results as JSON")

	libraryCmd.AddCommand(libraryIndexCmd)
	libraryCmd.AddCommand(libraryQueryCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryExportCmd)
	rootCmd.AddCommand(libraryCmd)
}
