package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/service"
)

// BatchResult reports the outcome of one transaction in a batch.
type BatchResult struct {
	Classification *model.Classification
	Err            error
	TransactionID  string
}

// ResolveBatch resolves transactions with bounded concurrency. Each
// transaction is independent; no ordering is guaranteed across the batch.
//
// Cancellation stops dispatching new resolutions, but resolutions already
// in flight run on a detached context so they complete and persist rather
// than leaving half-written classifications.
func (r *Resolver) ResolveBatch(ctx context.Context, transactions []model.Transaction, onResult func(BatchResult)) (service.CompletionStats, error) {
	start := time.Now()
	stats := service.CompletionStats{TotalTransactions: len(transactions)}

	jobs := make(chan model.Transaction)
	results := make(chan BatchResult, len(transactions))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for txn := range jobs {
				classification, err := r.Resolve(context.WithoutCancel(ctx), txn)
				results <- BatchResult{
					TransactionID:  txn.ID,
					Classification: classification,
					Err:            err,
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, txn := range transactions {
			select {
			case <-ctx.Done():
				return
			case jobs <- txn:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if onResult != nil {
			onResult(res)
		}
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		switch {
		case res.Classification.Source == model.SourceAI:
			stats.ByOracle++
		case res.Classification.Confidence == 0:
			stats.Fallback++
		default:
			stats.ByRule++
		}
	}

	stats.Duration = time.Since(start)

	if firstErr != nil {
		return stats, firstErr
	}
	return stats, ctx.Err()
}
