// Package replication implements the leader side of the write path: a
// coordinator applies each write locally, fans out one replication
// attempt per follower after a small random delay, and reports success
// as soon as the write quorum has acknowledged. Attempts left in
// flight at decision time run to completion in the background.
package replication
