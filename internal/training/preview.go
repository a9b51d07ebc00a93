// FILE: internal/training/preview.go
package training

import (
	"context"
	"time"

	"repertoire/internal/graph"
)

// Preview plays moves one at a time, calling step after each delay. A step
// is scheduled only once the previous one has returned. Cancelling ctx
// discards the pending step and returns the context error.
func Preview(ctx context.Context, moves graph.Variation, delay time.Duration, step func(i int, m graph.VariationMove)) error {
	if len(moves) == 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for i, m := range moves {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		step(i, m)
		timer.Reset(delay)
	}
	return nil
}
