package random

import (
	"testing"
	"time"
)

func TestBetween_WithinBounds(t *testing.T) {
	min := 100 * time.Microsecond
	max := time.Millisecond

	for i := 0; i < 1000; i++ {
		d := Between(min, max)
		if d < min || d >= max {
			t.Fatalf("Between(%v, %v) = %v, out of range", min, max, d)
		}
	}
}

func TestBetween_EqualBounds(t *testing.T) {
	d := Between(time.Second, time.Second)
	if d != time.Second {
		t.Fatalf("Between with equal bounds = %v, want %v", d, time.Second)
	}
}

func TestBetween_InvertedBounds(t *testing.T) {
	d := Between(time.Second, time.Millisecond)
	if d != time.Second {
		t.Fatalf("Between with inverted bounds = %v, want min %v", d, time.Second)
	}
}

func TestBetween_ZeroRange(t *testing.T) {
	d := Between(0, 0)
	if d != 0 {
		t.Fatalf("Between(0, 0) = %v, want 0", d)
	}
}
