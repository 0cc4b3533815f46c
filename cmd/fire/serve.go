package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fire/internal/pipeline"
	"fire/internal/server"
)

var serveHeuristic bool

// serveCmd starts the HTTP façade.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP façade: ticket and analytics reads plus the
processing and ingestion triggers used by the operations dashboard.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveHeuristic, "heuristic", false, "skip the LLM and classify with heuristics only")
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	processor := newProcessor(s, serveHeuristic)
	batch := pipeline.NewBatch(processor, cfg.Routing.Workers, logger)

	srv := server.New(server.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Store:          s,
		Batch:          batch,
		Processor:      processor,
		Seeder:         newSeeder(s),
		Assistant:      newAssistant(),
		DataDir:        cfg.DataDir,
		Logger:         logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-errCh
}
