package pagination

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/emuready-client/pkg/rpcerr"
)

// BatchConfig holds LoadRange configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of pages loaded in parallel.
	MaxConcurrency int

	// Timeout per page load.
	Timeout time.Duration
}

// DefaultBatchConfig returns a conservative configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

type batchResult[T any] struct {
	index int
	page  *Page[T]
	err   error
}

// LoadRange loads count consecutive pages starting at from (nil = first page)
// using a bounded worker pool. Pages come back in key order and stop after the
// first page that ends the list. If a page fails, the pages before it are
// returned together with its error. Pages queued after a failed or terminal
// page are not fetched.
func (c *Controller[R, T]) LoadRange(ctx context.Context, from *int, pageSize, count int, cfg BatchConfig) ([]*Page[T], error) {
	if count <= 0 {
		return nil, nil
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultBatchConfig().MaxConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBatchConfig().Timeout
	}

	startKey := c.ep.Convention.Start()
	if from != nil {
		startKey = *from
	}
	step := c.ep.Convention.Step(pageSize)
	start := time.Now()

	// Fill index queue
	indexes := make(chan int, count)
	for i := 0; i < count; i++ {
		indexes <- i
	}
	close(indexes)

	results := make(chan batchResult[T], count)

	// Lowest index known to end the range.
	var stop atomic.Int64
	stop.Store(int64(count))

	workers := cfg.MaxConcurrency
	if workers > count {
		workers = count
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go c.rangeWorker(ctx, w, startKey, step, pageSize, cfg.Timeout, indexes, results, &stop, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pages := make([]*Page[T], count)
	errs := make([]error, count)
	for res := range results {
		pages[res.index] = res.page
		errs[res.index] = res.err
	}

	out := make([]*Page[T], 0, count)
	for i := 0; i < count; i++ {
		if errs[i] != nil {
			return out, errs[i]
		}
		if pages[i] == nil {
			// Workers only leave pages unloaded when ctx ended.
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			return out, rpcerr.Translate(err)
		}
		out = append(out, pages[i])
		if pages[i].NextKey == nil {
			break
		}
	}

	c.logger.Info().
		Int("from", startKey).
		Int("pages", len(out)).
		Int("requested", count).
		Dur("duration", time.Since(start)).
		Msg("Range load complete")

	return out, nil
}

// rangeWorker loads pages from the queue until it is drained or ctx ends.
// Indexes past stop are skipped.
func (c *Controller[R, T]) rangeWorker(ctx context.Context, workerID, startKey, step, pageSize int, timeout time.Duration, indexes <-chan int, results chan<- batchResult[T], stop *atomic.Int64, wg *sync.WaitGroup) {
	defer wg.Done()
	loaded := 0

	for i := range indexes {
		select {
		case <-ctx.Done():
			c.logger.Debug().
				Int("worker_id", workerID).
				Int("pages_loaded", loaded).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}
		if int64(i) > stop.Load() {
			continue
		}

		key := startKey + i*step
		pageCtx, cancel := context.WithTimeout(ctx, timeout)
		page, err := c.Load(pageCtx, Request{Key: &key, PageSize: pageSize})
		cancel()

		results <- batchResult[T]{index: i, page: page, err: err}
		if err != nil || page.NextKey == nil {
			lowerStop(stop, int64(i))
		}
		if err == nil {
			loaded++
		}
	}

	if loaded > 0 {
		c.logger.Debug().
			Int("worker_id", workerID).
			Int("pages_loaded", loaded).
			Msg("Worker completed")
	}
}

func lowerStop(stop *atomic.Int64, i int64) {
	for {
		cur := stop.Load()
		if i >= cur || stop.CompareAndSwap(cur, i) {
			return
		}
	}
}
