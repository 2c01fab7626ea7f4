package dynamo

import (
	"golang.org/x/sync/errgroup"
)

// ParallelFor executes fn over the range [0, n) split into contiguous chunks
// across at most workers goroutines. Chunks never overlap, so fn may write to
// disjoint rows of a shared output without locking.
func ParallelFor(n, workers, minChunk int, fn func(start, end int)) {
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunkSize {
		s, e := start, start+chunkSize
		if e > n {
			e = n
		}
		g.Go(func() error {
			fn(s, e)
			return nil
		})
	}
	_ = g.Wait()
}
