package it

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
)

// BenchmarkWrite drives concurrent client writes through the full
// leader path: local apply, HTTP fan-out and the quorum wait.
func BenchmarkWrite(b *testing.B) {
	cluster := NewCluster(b, Options{Followers: 3, WriteQuorum: 2})

	var seq atomic.Int64
	var failures atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			n := seq.Add(1)
			status, _ := cluster.Write(b, fmt.Sprintf("bench-%d", n), "value")
			if status != http.StatusOK {
				failures.Add(1)
			}
		}
	})
	b.StopTimer()

	if failures.Load() > 0 {
		b.Fatalf("%d writes missed quorum", failures.Load())
	}

	dump := cluster.Dump(b, cluster.Leader.URL)
	if got := dump["count"].(float64); int64(got) != seq.Load() {
		b.Fatalf("leader holds %d keys, expected %d", int64(got), seq.Load())
	}
}
