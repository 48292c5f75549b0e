package it

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"replikv/internal/httpapi"
	"replikv/internal/logging"
	"replikv/internal/replication"
	"replikv/internal/storage"
)

// Follower is one in-process follower node.
type Follower struct {
	ID    string
	Store storage.Store

	server     *httptest.Server
	delay      atomic.Int64
	replicates atomic.Int32
}

// URL returns the follower's base URL.
func (f *Follower) URL() string { return f.server.URL }

// SetDelay stalls every subsequent request to this follower, simulating
// a slow replica.
func (f *Follower) SetDelay(d time.Duration) { f.delay.Store(int64(d)) }

// Replicates returns how many replicate requests this follower has
// received, including ones still being served.
func (f *Follower) Replicates() int { return int(f.replicates.Load()) }

// Stop makes this follower unreachable.
func (f *Follower) Stop() { f.server.Close() }

// Cluster is an in-process leader plus followers talking real HTTP.
type Cluster struct {
	Leader      *httptest.Server
	LeaderStore storage.Store
	Followers   []*Follower
}

// Options tune the cluster under test. Zero delays keep tests fast;
// the attempt timeout defaults to 500ms so unreachable followers are
// detected quickly.
type Options struct {
	Followers      int
	WriteQuorum    int
	MinDelay       time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
}

// NewCluster starts a leader and followers wired over real HTTP.
// Everything is shut down via tb.Cleanup.
func NewCluster(tb testing.TB, opts Options) *Cluster {
	tb.Helper()

	logger, err := logging.NewLogger(logging.WithWriter(io.Discard))
	require.NoError(tb, err)

	followers := make([]*Follower, opts.Followers)
	urls := make([]string, opts.Followers)
	for i := range followers {
		f := &Follower{
			ID:    fmt.Sprintf("follower%d", i+1),
			Store: storage.NewMemoryStore(),
		}
		handler := httpapi.NewFollower(f.Store, f.ID, logger).Handler()
		f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/replicate" {
				f.replicates.Add(1)
			}
			if d := time.Duration(f.delay.Load()); d > 0 {
				time.Sleep(d)
			}
			handler.ServeHTTP(w, r)
		}))
		tb.Cleanup(f.server.Close)

		followers[i] = f
		urls[i] = f.server.URL
	}

	attemptTimeout := opts.AttemptTimeout
	if attemptTimeout == 0 {
		attemptTimeout = 500 * time.Millisecond
	}

	leaderStore := storage.NewMemoryStore()
	client := replication.NewHTTPClient(time.Second, attemptTimeout)
	coordinator := replication.NewCoordinator(
		leaderStore, client, urls, opts.WriteQuorum, opts.MinDelay, opts.MaxDelay, logger)
	leader := httptest.NewServer(httpapi.NewLeader(leaderStore, coordinator, opts.WriteQuorum, logger).Handler())
	tb.Cleanup(leader.Close)

	return &Cluster{
		Leader:      leader,
		LeaderStore: leaderStore,
		Followers:   followers,
	}
}

// Write posts one client write to the leader.
func (c *Cluster) Write(tb testing.TB, key, value string) (int, map[string]interface{}) {
	tb.Helper()
	payload, err := json.Marshal(map[string]string{"key": key, "value": value})
	require.NoError(tb, err)
	return postJSON(tb, c.Leader.URL+"/write", string(payload))
}

// Read fetches a key from the node at baseURL.
func (c *Cluster) Read(tb testing.TB, baseURL, key string) (int, map[string]interface{}) {
	tb.Helper()
	return getJSON(tb, baseURL+"/read?key="+url.QueryEscape(key))
}

// Dump returns the full contents of the node at baseURL.
func (c *Cluster) Dump(tb testing.TB, baseURL string) map[string]interface{} {
	tb.Helper()
	status, body := getJSON(tb, baseURL+"/dump")
	require.Equal(tb, http.StatusOK, status)
	return body
}

// Health returns the health document of the node at baseURL.
func (c *Cluster) Health(tb testing.TB, baseURL string) map[string]interface{} {
	tb.Helper()
	status, body := getJSON(tb, baseURL+"/health")
	require.Equal(tb, http.StatusOK, status)
	return body
}

// Reset clears the node at baseURL.
func (c *Cluster) Reset(tb testing.TB, baseURL string) {
	tb.Helper()
	status, _ := postJSON(tb, baseURL+"/reset", "")
	require.Equal(tb, http.StatusOK, status)
}

// ResetAll clears the leader and every follower.
func (c *Cluster) ResetAll(tb testing.TB) {
	tb.Helper()
	c.Reset(tb, c.Leader.URL)
	for _, f := range c.Followers {
		c.Reset(tb, f.URL())
	}
}

func postJSON(tb testing.TB, url, body string) (int, map[string]interface{}) {
	tb.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(tb, err)
	defer resp.Body.Close()
	return resp.StatusCode, decode(tb, resp.Body)
}

func getJSON(tb testing.TB, url string) (int, map[string]interface{}) {
	tb.Helper()
	resp, err := http.Get(url)
	require.NoError(tb, err)
	defer resp.Body.Close()
	return resp.StatusCode, decode(tb, resp.Body)
}

func decode(tb testing.TB, r io.Reader) map[string]interface{} {
	tb.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(tb, err)
	body := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(tb, json.Unmarshal(raw, &body))
	}
	return body
}
