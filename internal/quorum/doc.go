// Package quorum provides the acknowledgment collector for replicated
// writes. It fans one attempt per follower out concurrently, observes
// completions in the order they finish, and decides the write outcome as
// soon as the required acknowledgment count is reached or can no longer
// be reached. Remaining attempts are neither awaited nor cancelled.
package quorum
