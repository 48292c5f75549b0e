package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"replikv/internal/config"
	"replikv/internal/logging"
	"replikv/internal/node"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires a node from the environment and flags and serves until
// interrupted. Flags override environment values.
func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	role := flag.String("role", string(cfg.Role), "Node role: leader or follower")
	id := flag.String("id", cfg.NodeID, "Node ID echoed in follower responses")
	listen := flag.String("listen", cfg.ListenAddr, "HTTP listen address")
	followersFlag := flag.String("followers", strings.Join(cfg.Followers, ","),
		"Comma-separated follower base URLs (leader only)")
	writeQuorum := flag.Int("write-quorum", cfg.WriteQuorum,
		"Follower acks required before a write succeeds")
	minDelay := flag.Duration("min-delay", cfg.MinDelay,
		"Lower bound of the per-follower replication delay")
	maxDelay := flag.Duration("max-delay", cfg.MaxDelay,
		"Upper bound of the per-follower replication delay")
	connectTimeout := flag.Duration("connect-timeout", cfg.ConnectTimeout,
		"Dial timeout for one replication attempt")
	attemptTimeout := flag.Duration("attempt-timeout", cfg.AttemptTimeout,
		"End-to-end timeout for one replication attempt")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	parsedRole, err := config.ParseRole(*role)
	if err != nil {
		return err
	}
	followers, err := config.ParseFollowers(*followersFlag)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return err
	}

	cfg.Role = parsedRole
	cfg.NodeID = *id
	cfg.ListenAddr = *listen
	cfg.Followers = followers
	cfg.WriteQuorum = *writeQuorum
	cfg.MinDelay = *minDelay
	cfg.MaxDelay = *maxDelay
	cfg.ConnectTimeout = *connectTimeout
	cfg.AttemptTimeout = *attemptTimeout

	n, err := node.New(cfg, logging.WithLevel(level))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("shutting down...")
		if err := n.Stop(); err != nil {
			return err
		}
		return <-errCh
	}
}
