package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fire/internal/domain"
)

// Batch processes every unprocessed ticket in arrival order. Workers
// above 1 trade strict ordering for throughput; assignments stay
// race-free either way because counter advances are atomic.
type Batch struct {
	processor *Processor
	workers   int
	logger    *zap.Logger
}

// NewBatch wires a batch runner. workers < 1 is treated as 1.
func NewBatch(processor *Processor, workers int, logger *zap.Logger) *Batch {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{processor: processor, workers: workers, logger: logger}
}

// Run processes all unprocessed tickets. One ticket's failure is
// recorded in its result and never aborts the batch.
func (b *Batch) Run(ctx context.Context) ([]Result, error) {
	tickets, err := b.processor.store.ListUnprocessedTickets(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Info("batch processing started",
		zap.Int("tickets", len(tickets)), zap.Int("workers", b.workers))

	results := make([]Result, len(tickets))
	if b.workers == 1 {
		for i := range tickets {
			if err := ctx.Err(); err != nil {
				return results[:i], err
			}
			results[i] = b.processor.Process(ctx, &tickets[i])
		}
	} else {
		if err := b.runParallel(ctx, tickets, results); err != nil {
			return nil, err
		}
	}

	successful := 0
	for _, r := range results {
		if r.Error == "" {
			successful++
		}
	}
	b.logger.Info("batch processing complete",
		zap.Int("successful", successful), zap.Int("total", len(results)))
	return results, nil
}

func (b *Batch) runParallel(ctx context.Context, tickets []domain.Ticket, results []Result) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	var mu sync.Mutex
	for i := range tickets {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := b.processor.Process(gctx, &tickets[i])
			mu.Lock()
			results[i] = r
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}
