// Copyright Precisionmatics Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/archive"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/enrich"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/search"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/server"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API server",
	Long: `Serve exposes the search pipeline over HTTP: POST /api/search runs the
full query pipeline, POST /api/archive streams a zip bundle, and
GET /api/structures/{id} returns a raw structure file. Prometheus metrics
are served on /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Float64("max-res", 0, "upper bound on client resolution ceilings (default 5.0)")
	serveCmd.Flags().String("local-dir", "", "directory of already-downloaded .pdb files to prefer over the network")
	serveCmd.Flags().Duration("timeout", 0, "upstream HTTP request timeout (default 30s)")
	serveCmd.Flags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = viper.GetString("server.addr")
	}
	maxRes, _ := cmd.Flags().GetFloat64("max-res")
	localDir, _ := cmd.Flags().GetString("local-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}

	httpCfg := httpConfig(cmd)
	client := newHTTPClient(httpCfg)

	searcher := search.NewClient(client, types.SearchConfig{
		HTTPConfig: httpCfg,
		SearchURL:  viper.GetString("search.url"),
	})
	enricher := enrich.New(client, types.EnrichConfig{
		HTTPConfig: httpCfg,
		DataURL:    viper.GetString("data.url"),
	})
	builder := archive.NewBuilder(client, types.ArchiveConfig{
		HTTPConfig: httpCfg,
		FilesURL:   viper.GetString("files.url"),
		LocalDir:   localDir,
	})

	srv := server.New(types.ServerConfig{
		Addr:          addr,
		MaxResolution: maxRes,
	}, searcher, enricher, builder, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
