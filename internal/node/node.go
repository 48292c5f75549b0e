package node

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"replikv/internal/config"
	"replikv/internal/httpapi"
	"replikv/internal/logging"
	"replikv/internal/replication"
	"replikv/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Node is a single leader or follower process: an in-memory store and
// the HTTP API serving it.
type Node struct {
	cfg    config.Config
	id     string
	store  storage.Store
	api    *httpapi.Server
	logger *logging.Logger

	mu         sync.Mutex
	lis        net.Listener
	httpServer *http.Server
}

// New wires a node from its configuration. Logging options are passed
// through to the node's logger.
func New(cfg config.Config, logOpts ...logging.Option) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	id := cfg.NodeID
	if id == "" {
		if cfg.Role == config.RoleFollower {
			id = "unknown"
		} else {
			id = string(cfg.Role)
		}
	}

	opts := append([]logging.Option{logging.WithPrefix("[" + id + "] ")}, logOpts...)
	logger, err := logging.NewLogger(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create logger")
	}

	store := storage.NewMemoryStore()

	var api *httpapi.Server
	switch cfg.Role {
	case config.RoleLeader:
		client := replication.NewHTTPClient(cfg.ConnectTimeout, cfg.AttemptTimeout)
		coordinator := replication.NewCoordinator(
			store, client, cfg.Followers, cfg.WriteQuorum, cfg.MinDelay, cfg.MaxDelay, logger)
		api = httpapi.NewLeader(store, coordinator, cfg.WriteQuorum, logger)
	case config.RoleFollower:
		api = httpapi.NewFollower(store, id, logger)
	}

	return &Node{
		cfg:    cfg,
		id:     id,
		store:  store,
		api:    api,
		logger: logger,
	}, nil
}

// Start listens on the configured address and serves until Stop is
// called. It blocks.
func (n *Node) Start() error {
	lis, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", n.cfg.ListenAddr)
	}

	srv := &http.Server{Handler: n.api.Handler()}

	n.mu.Lock()
	n.lis = lis
	n.httpServer = srv
	n.mu.Unlock()

	switch n.cfg.Role {
	case config.RoleLeader:
		n.logger.Infof("leader listening on %s: quorum=%d followers=%d",
			lis.Addr(), n.cfg.WriteQuorum, len(n.cfg.Followers))
	case config.RoleFollower:
		n.logger.Infof("follower listening on %s", lis.Addr())
	}

	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "serve")
	}
	return nil
}

// Addr returns the bound address once Start is listening, or "" before.
func (n *Node) Addr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lis == nil {
		return ""
	}
	return n.lis.Addr().String()
}

// Stop gracefully shuts the node down, waiting for in-flight requests.
func (n *Node) Stop() error {
	n.mu.Lock()
	srv := n.httpServer
	n.mu.Unlock()

	if srv == nil {
		return nil
	}

	n.logger.Infof("stopping node")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
