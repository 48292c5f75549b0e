package replication

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Timeouts applied by NewHTTPClient when the caller passes zero values.
const (
	DefaultConnectTimeout = 2 * time.Second
	DefaultAttemptTimeout = 5 * time.Second
)

// HTTPClient replicates writes over the follower's HTTP API.
type HTTPClient struct {
	http *http.Client
}

// NewHTTPClient returns a client whose attempts are bounded end to end
// by attemptTimeout and while dialing by connectTimeout. The timeouts
// are the only lifetime bound on an attempt.
func NewHTTPClient(connectTimeout, attemptTimeout time.Duration) *HTTPClient {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &HTTPClient{
		http: &http.Client{
			Timeout: attemptTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}
}

type replicateRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Replicate posts the write to the follower's /replicate endpoint. Any
// transport error or non-200 status counts as a failed attempt.
func (c *HTTPClient) Replicate(follower, key, value string) error {
	body, err := json.Marshal(replicateRequest{Key: key, Value: value})
	if err != nil {
		return errors.Wrap(err, "encode replicate request")
	}

	resp, err := c.http.Post(follower+"/replicate", "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "replicate to %s", follower)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("replicate to %s returned %d", follower, resp.StatusCode)
	}
	return nil
}
