// Package storage provides the local key-value storage interface and
// in-memory implementation. Every node (leader or follower) owns exactly
// one store instance; values are unversioned strings and a later write to
// the same key overwrites the earlier one.
package storage
