package dataflow

import (
	"context"
	"sync"
	"time"
)

// From emits items on a channel that closes after the last one or when
// ctx is done.
func From(ctx context.Context, items ...interface{}) <-chan interface{} {
	out := make(chan interface{})
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Map applies fn to every item of in using the configured number of workers.
// Output order is not preserved when workers > 1. An item whose fn still
// fails after the configured retries is passed to the error handler and
// dropped.
func Map(ctx context.Context, in <-chan interface{}, fn func(interface{}) (interface{}, error), opts ...Option) <-chan interface{} {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	out := make(chan interface{}, cfg.bufferSize)
	stop := make(chan struct{})
	var once sync.Once
	var wg sync.WaitGroup
	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go func() {
			defer wg.Done()
			for item := range in {
				select {
				case <-stop:
					return
				default:
				}
				res, err := cfg.run(ctx, fn, item)
				if err != nil {
					if cfg.errorHandler != nil && !cfg.errorHandler(err) {
						once.Do(func() { close(stop) })
						return
					}
					continue
				}
				select {
				case out <- res:
				case <-ctx.Done():
					return
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

// run calls fn once plus up to maxRetries more times.
func (c *config) run(ctx context.Context, fn func(interface{}) (interface{}, error), item interface{}) (interface{}, error) {
	res, err := fn(item)
	for attempt := 1; err != nil && attempt <= c.maxRetries; attempt++ {
		if c.backoff != nil {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		res, err = fn(item)
	}
	return res, err
}

// ForEach drains in, calling fn for every item. It stops at the first error
// from fn or when ctx is done.
func ForEach(ctx context.Context, in <-chan interface{}, fn func(interface{}) error) error {
	for {
		select {
		case item, ok := <-in:
			if !ok {
				return nil
			}
			if err := fn(item); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
