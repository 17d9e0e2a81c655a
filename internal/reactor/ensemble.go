package reactor

import (
	"context"
	"runtime"
	"sync"
)

// Ensemble runs independent requests concurrently on one reactor. The
// reactor's rate source is shared, everything else is built per run.
type Ensemble struct {
	reactor *Reactor
	workers int
}

// NewEnsemble bounds concurrency to workers, or GOMAXPROCS when workers <= 0.
func NewEnsemble(r *Reactor, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{reactor: r, workers: workers}
}

// Run returns one response and one error per request, in request order.
// A failed request does not stop the others.
func (e *Ensemble) Run(ctx context.Context, reqs []Request) ([]*Response, []error) {
	results := make([]*Response, len(reqs))
	errs := make([]error, len(reqs))
	sem := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}
			defer func() { <-sem }()

			results[idx], errs[idx] = e.reactor.Run(ctx, reqs[idx])
		}(i)
	}

	wg.Wait()
	return results, errs
}
