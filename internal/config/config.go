package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Role selects which half of the replication protocol a node runs.
type Role string

const (
	RoleLeader   Role = "leader"
	RoleFollower Role = "follower"
)

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleLeader:
		return RoleLeader, nil
	case RoleFollower:
		return RoleFollower, nil
	default:
		return "", fmt.Errorf("invalid role: %s (expected leader or follower)", s)
	}
}

// Defaults applied by Default and FromEnv.
const (
	DefaultListenAddr     = ":5000"
	DefaultWriteQuorum    = 3
	DefaultMinDelay       = 100 * time.Microsecond
	DefaultMaxDelay       = time.Millisecond
	DefaultConnectTimeout = 2 * time.Second
	DefaultAttemptTimeout = 5 * time.Second
)

// Config holds the node configuration.
type Config struct {
	Role       Role
	NodeID     string
	ListenAddr string

	// Leader-side replication settings. Followers ignore them.
	Followers   []string
	WriteQuorum int
	MinDelay    time.Duration
	MaxDelay    time.Duration

	// Per-attempt HTTP timeouts used by the leader's replication client.
	ConnectTimeout time.Duration
	AttemptTimeout time.Duration
}

// Default returns a leader configuration with all defaults applied.
func Default() Config {
	return Config{
		Role:           RoleLeader,
		ListenAddr:     DefaultListenAddr,
		Followers:      []string{},
		WriteQuorum:    DefaultWriteQuorum,
		MinDelay:       DefaultMinDelay,
		MaxDelay:       DefaultMaxDelay,
		ConnectTimeout: DefaultConnectTimeout,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// FromEnv returns a Config populated from the process environment,
// falling back to defaults for anything unset. Durations use Go
// duration syntax, e.g. "100µs" or "1ms".
func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv("FOLLOWER_ID"); v != "" {
		cfg.NodeID = v
	}
	if v := os.Getenv("FOLLOWERS"); v != "" {
		followers, err := ParseFollowers(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse FOLLOWERS")
		}
		cfg.Followers = followers
	}
	if v := os.Getenv("WRITE_QUORUM"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse WRITE_QUORUM")
		}
		cfg.WriteQuorum = q
	}
	if v := os.Getenv("MIN_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse MIN_DELAY")
		}
		cfg.MinDelay = d
	}
	if v := os.Getenv("MAX_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse MAX_DELAY")
		}
		cfg.MaxDelay = d
	}

	return cfg, nil
}

// ParseFollowers parses a comma-separated list of follower base URLs:
// "http://host1:5000,http://host2:5000". Empty entries are skipped and
// trailing slashes are stripped.
func ParseFollowers(followersStr string) ([]string, error) {
	if followersStr == "" {
		return []string{}, nil
	}

	parts := strings.Split(followersStr, ",")
	followers := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		u, err := url.Parse(part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid follower URL %q", part)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("follower URL %s must use http or https", part)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("follower URL %s has no host", part)
		}

		followers = append(followers, strings.TrimRight(part, "/"))
	}

	return followers, nil
}

// Validate reports the first configuration error it finds.
func (c *Config) Validate() error {
	if c.Role != RoleLeader && c.Role != RoleFollower {
		return fmt.Errorf("invalid role: %s", c.Role)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.Role == RoleFollower && len(c.Followers) > 0 {
		return fmt.Errorf("followers are configured on the leader, not on follower nodes")
	}
	if c.WriteQuorum < 0 {
		return fmt.Errorf("write quorum cannot be negative: %d", c.WriteQuorum)
	}
	if c.MinDelay < 0 {
		return fmt.Errorf("min delay cannot be negative: %v", c.MinDelay)
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("max delay %v is below min delay %v", c.MaxDelay, c.MinDelay)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive: %v", c.ConnectTimeout)
	}
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt timeout must be positive: %v", c.AttemptTimeout)
	}
	return nil
}
