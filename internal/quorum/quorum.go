package quorum

import (
	"context"
	"time"
)

// AttemptFunc performs one replication attempt against a single follower.
// The attempt owns its own lifetime: it must bound itself with a timeout
// and is never cancelled by the collector, even after the quorum decision
// has been made. A nil return counts as an acknowledgment; any error
// counts as a failed attempt and is never retried.
type AttemptFunc func(follower string) error

// Result is the outcome of collecting acknowledgments for one write.
type Result struct {
	// Met reports whether the required number of acknowledgments arrived.
	Met bool
	// Acks is the number of acknowledgments observed before the decision.
	Acks int
	// Failures is the number of failed attempts observed before the decision.
	Failures int
	// Required is the write quorum the decision was made against.
	Required int
	// Replicas is the number of followers the write fanned out to.
	Replicas int
}

// Collect fans a write out to all followers concurrently and blocks until
// the quorum decision is known. Attempts start together, each delayed by
// its own jitter from delays (indexed like followers; missing entries mean
// no delay). Completions are observed in the order they finish, not the
// order they were launched.
//
// The decision is returned as early as possible: Met the moment required
// acknowledgments have arrived, or not-Met the moment too many attempts
// have failed for the quorum to still be reachable. Outstanding attempts
// are not awaited and not cancelled; they run to their own completion or
// timeout and their outcomes go unobserved. The context bounds only the
// caller's wait for the decision, never the attempts themselves.
//
// An empty follower list is a degenerate single-node deployment and
// trivially meets quorum. If required exceeds the follower count the
// quorum can never be met and no attempt is dispatched.
func Collect(ctx context.Context, followers []string, required int, delays []time.Duration, attempt AttemptFunc) Result {
	if len(followers) == 0 {
		return Result{Met: true, Required: required}
	}

	if required > len(followers) {
		return Result{
			Met:      false,
			Required: required,
			Replicas: len(followers),
		}
	}

	// Buffered to the fan-out width so attempts finishing after the
	// decision never block; their sends land in the buffer and the
	// goroutines exit on their own.
	outcomes := make(chan error, len(followers))
	for i, follower := range followers {
		var delay time.Duration
		if i < len(delays) {
			delay = delays[i]
		}
		go func(follower string, delay time.Duration) {
			if delay > 0 {
				time.Sleep(delay)
			}
			outcomes <- attempt(follower)
		}(follower, delay)
	}

	result := Result{
		Required: required,
		Replicas: len(followers),
	}

	for result.Acks < required {
		select {
		case err := <-outcomes:
			if err == nil {
				result.Acks++
			} else {
				result.Failures++
				// Quorum unreachable: even if every outstanding
				// attempt acknowledges, acks cannot reach required.
				if result.Failures > len(followers)-required {
					return result
				}
			}
		case <-ctx.Done():
			return result
		}
	}

	result.Met = true
	return result
}
