package drawpool_test

import (
	"math/rand"
	"testing"

	"framecut/internal/drawpool"
)

func fixedPool(items ...string) *drawpool.Pool {
	return drawpool.New(items, rand.New(rand.NewSource(1)))
}

func TestDrawExhaustsPoolWithoutRepeats(t *testing.T) {
	pool := fixedPool("a", "b", "c", "d")

	got := pool.Draw(4)
	if len(got) != 4 {
		t.Fatalf("drew %d items, want 4", len(got))
	}
	seen := make(map[string]struct{}, len(got))
	for _, item := range got {
		if _, dup := seen[item]; dup {
			t.Fatalf("item %q drawn twice: %v", item, got)
		}
		seen[item] = struct{}{}
	}
	if pool.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", pool.Remaining())
	}
}

func TestDrawRefillsWhenDry(t *testing.T) {
	pool := fixedPool("a", "b", "c")

	pool.Draw(2)
	// One item left; the pool refills mid-draw and still returns two
	// distinct items.
	got := pool.Draw(2)
	if len(got) != 2 {
		t.Fatalf("drew %d items, want 2", len(got))
	}
	if got[0] == got[1] {
		t.Fatalf("draw repeated item %q", got[0])
	}
}

func TestDrawCapsAtPoolSize(t *testing.T) {
	pool := fixedPool("a", "b")

	got := pool.Draw(10)
	if len(got) != 2 {
		t.Fatalf("drew %d items, want cap at 2", len(got))
	}
	if pool.Size() != 2 {
		t.Fatalf("size = %d, want 2", pool.Size())
	}
}
