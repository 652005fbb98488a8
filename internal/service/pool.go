package service

import (
	"context"
	"sync"
)

// Concurrency bounds for batch runs.
const (
	MinConcurrency     = 1
	MaxConcurrency     = 6
	DefaultConcurrency = 4
)

// ClampConcurrency normalizes a requested worker count into the allowed
// range. Zero or negative requests get the default.
func ClampConcurrency(c int) int {
	if c <= 0 {
		return DefaultConcurrency
	}
	if c < MinConcurrency {
		return MinConcurrency
	}
	if c > MaxConcurrency {
		return MaxConcurrency
	}
	return c
}

// RunBounded invokes fn for every index in [0, n) with at most limit calls in
// flight at once, and blocks until all have returned. Unit failures are fn's
// business; one unit never cancels its siblings.
func RunBounded(ctx context.Context, n, limit int, fn func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}
	if limit < 1 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fn(ctx, i)
		}(i)
	}
	wg.Wait()
}
