package sim

import (
	"context"
	"sync"

	"github.com/n1o1-labs/nodyn/internal/pk"
)

// SimulateAll runs one simulation per parameter set concurrently.
// Each goroutine gets its own parameter value, so no state is shared.
// The first error wins and the whole batch fails; a canceled context
// fails likewise.
func SimulateAll(ctx context.Context, params []pk.Parameters) ([]*Result, error) {
	results := make([]*Result, len(params))
	errs := make([]error, len(params))

	var wg sync.WaitGroup
	for i := range params {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			default:
			}

			results[idx], errs[idx] = Simulate(params[idx])
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
