package random

import (
	"math/rand"
	"time"
)

// Between returns a duration drawn uniformly from [min, max). If max is
// not greater than min, min is returned. Nanosecond granularity: the
// configured replication jitter is typically well under a millisecond.
func Between(min time.Duration, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
