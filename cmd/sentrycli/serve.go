package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/sentrycli/internal/duckdb"
	"github.com/tinytelemetry/sentrycli/internal/httpserver"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from api-addr)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the event cache over an HTTP JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.APIAddr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

// runServe blocks until ctx is cancelled.
func runServe(ctx context.Context, cfg appConfig) error {
	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	cleaner := duckdb.NewRetentionCleaner(store, duckdb.RetentionConfig{MaxAge: cfg.CacheRetention})
	if cleaner != nil {
		defer cleaner.Stop()
	}

	apiServer := httpserver.NewServer(cfg.APIAddr, store)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	log.Printf("server: listening on http://%s (cache %s)", apiServer.Addr(), cfg.DBPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := apiServer.Wait(); err != nil {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("server: shutting down")
		return apiServer.Stop()
	})
	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
		return err
	}
	return nil
}
