package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fire/internal/pipeline"
)

var (
	processWorkers   int
	processHeuristic bool
	processGUID      string
)

// processCmd runs the routing pipeline over unprocessed tickets.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Classify, geocode and assign unprocessed tickets",
	Long: `Runs the full routing pipeline over every ticket that has no
analysis yet, in arrival order. Use --guid to process a single ticket
regardless of its state (re-processing an assigned ticket is a no-op).`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().IntVar(&processWorkers, "workers", 0, "concurrent workers (0 = from config)")
	processCmd.Flags().BoolVar(&processHeuristic, "heuristic", false, "skip the LLM and classify with heuristics only")
	processCmd.Flags().StringVar(&processGUID, "guid", "", "process a single ticket by GUID")
}

func runProcess(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	processor := newProcessor(s, processHeuristic)
	ctx := cmd.Context()

	var results []pipeline.Result
	if processGUID != "" {
		ticket, err := s.GetTicketByGUID(ctx, processGUID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return fmt.Errorf("ticket %q not found", processGUID)
		}
		results = []pipeline.Result{processor.Process(ctx, ticket)}
	} else {
		workers := processWorkers
		if workers < 1 {
			workers = cfg.Routing.Workers
		}
		batch := pipeline.NewBatch(processor, workers, logger)
		if results, err = batch.Run(ctx); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	logger.Info("processing finished",
		zap.Int("processed", len(results)), zap.Int("failed", failed))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
