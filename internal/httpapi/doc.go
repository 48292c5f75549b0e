// Package httpapi serves the node's HTTP API. Both roles expose
// /read, /dump, /health and /reset; the leader additionally accepts
// client writes on /write and the follower accepts replicated writes
// on /replicate.
package httpapi
