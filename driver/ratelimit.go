package driver

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/regehr/uniform-tree-sampling/guide"
)

// NewLimiter builds a token-bucket limiter admitting ratePerSec traversals
// per second with a burst of burst, grounded on the same
// rate.NewLimiter(rate.Limit(...), burst) shape used elsewhere in this
// codebase's rate limiting. ratePerSec <= 0 means unlimited.
func NewLimiter(ratePerSec float64, burst int) *rate.Limiter {
	if ratePerSec <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(ratePerSec), burst)
}

// RunRateLimited is Run with each traversal gated by limiter.Wait(ctx): a
// driver whose generator does real I/O, where uncontrolled BFS replay would
// otherwise saturate it, can be capped to a fixed traversal rate. ctx
// cancellation aborts the wait and returns its error immediately, without
// reporting a Violation.
func RunRateLimited(ctx context.Context, g guide.Guide, gen Generator, maxTraversals int, limiter *rate.Limiter) (RunResult, error) {
	var out RunResult
	for maxTraversals <= 0 || out.Traversals < maxTraversals {
		if err := limiter.Wait(ctx); err != nil {
			return out, err
		}
		c, ok := makeChooser(ctx, g)
		if !ok {
			break
		}
		if violation := runOne(c, gen, &out); violation != nil {
			out.Violation = violation
			break
		}
	}
	return out, nil
}
