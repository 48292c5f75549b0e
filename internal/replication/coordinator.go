package replication

import (
	"context"
	"time"

	"replikv/internal/logging"
	"replikv/internal/quorum"
	"replikv/internal/random"
	"replikv/internal/storage"
)

// Outcome classifies a coordinated write for the caller.
type Outcome int

const (
	// Success means the write quorum acknowledged the write.
	Success Outcome = iota
	// QuorumNotReached means too many attempts failed for the quorum
	// to still be met.
	QuorumNotReached
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case QuorumNotReached:
		return "quorum_not_reached"
	default:
		panic("invalid outcome")
	}
}

// Result describes one coordinated write. The counters are the tallies
// at decision time; attempts still in flight are not included.
type Result struct {
	Outcome  Outcome
	Acks     int
	Required int
	Replicas int
}

// Client replicates a single write to one follower. Implementations
// bound their own attempt lifetime; the coordinator never cancels an
// attempt once issued.
type Client interface {
	Replicate(follower, key, value string) error
}

// Coordinator runs the leader's write path.
type Coordinator struct {
	store       storage.Store
	client      Client
	followers   []string
	writeQuorum int
	minDelay    time.Duration
	maxDelay    time.Duration
	logger      *logging.Logger
}

// NewCoordinator creates a coordinator that replicates writes to the
// given follower base URLs and requires writeQuorum acknowledgments.
// Each attempt is delayed by a duration drawn from [minDelay, maxDelay).
func NewCoordinator(
	store storage.Store,
	client Client,
	followers []string,
	writeQuorum int,
	minDelay time.Duration,
	maxDelay time.Duration,
	logger *logging.Logger,
) *Coordinator {
	return &Coordinator{
		store:       store,
		client:      client,
		followers:   followers,
		writeQuorum: writeQuorum,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		logger:      logger,
	}
}

// Write applies the key locally, then replicates it to the followers.
// The local write is kept even when the quorum is not reached. The
// context bounds only the wait for the quorum decision.
func (c *Coordinator) Write(ctx context.Context, key, value string) Result {
	c.store.Put(key, value)

	delays := make([]time.Duration, len(c.followers))
	for i := range delays {
		delays[i] = random.Between(c.minDelay, c.maxDelay)
	}

	attempt := func(follower string) error {
		err := c.client.Replicate(follower, key, value)
		if err != nil {
			c.logger.Warnf("replication of key=%s to %s failed: %v", key, follower, err)
		}
		return err
	}

	decision := quorum.Collect(ctx, c.followers, c.writeQuorum, delays, attempt)

	result := Result{
		Acks:     decision.Acks,
		Required: decision.Required,
		Replicas: decision.Replicas,
	}
	if decision.Met {
		result.Outcome = Success
		c.logger.Infof("write key=%s reached quorum: acks=%d required=%d replicas=%d",
			key, decision.Acks, decision.Required, decision.Replicas)
		return result
	}

	result.Outcome = QuorumNotReached
	c.logger.Warnf("write key=%s missed quorum: acks=%d failures=%d required=%d replicas=%d",
		key, decision.Acks, decision.Failures, decision.Required, decision.Replicas)
	return result
}
