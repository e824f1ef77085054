// Package workerpool is a minimal bounded-concurrency worker pool: N
// goroutines pull from an input channel, apply a processing function, and
// forward its outputs onto a result channel until the input closes or the
// context is cancelled.
package workerpool

import (
	"context"
	"sync"
)

// ProcessFunc transforms one input into zero or more outputs.
type ProcessFunc[In, Out any] func(ctx context.Context, in In) ([]Out, error)

// Config configures a Run call.
type Config struct {
	// Concurrency sets the number of worker goroutines. Default is 1.
	Concurrency int

	// BufferSize sets the output channel's buffer size. Default is 0
	// (unbuffered).
	BufferSize int
}

func (c Config) parse() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return c
}

// Run starts cfg.Concurrency workers consuming in and applying fn,
// forwarding every output onto the returned channel. The returned channel
// is closed once in is closed and every worker has drained. A worker
// returning an error for an item simply drops that item's outputs; errors
// are the caller's responsibility to surface (fn's own return value, a
// result type carried in Out, etc.).
func Run[In, Out any](ctx context.Context, in <-chan In, fn ProcessFunc[In, Out], cfg Config) <-chan Out {
	cfg = cfg.parse()
	out := make(chan Out, cfg.BufferSize)

	var wg sync.WaitGroup
	wg.Add(cfg.Concurrency)
	for i := 0; i < cfg.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case val, ok := <-in:
					if !ok {
						return
					}
					res, err := fn(ctx, val)
					if err != nil {
						continue
					}
					for _, r := range res {
						select {
						case out <- r:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
