// Package drawpool hands out random items without replacement, refilling
// when the pool runs dry so long runs cycle through every item before any
// repeats.
package drawpool

import (
	"math/rand"
	"time"
)

// Pool draws items in random order without replacement.
type Pool struct {
	items     []string
	remaining []string
	rng       *rand.Rand
}

// New builds a pool over items. A nil rng gets a time-seeded one; tests pass
// a fixed seed.
func New(items []string, rng *rand.Rand) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	p := &Pool{
		items: append([]string(nil), items...),
		rng:   rng,
	}
	p.refill()
	return p
}

// Draw removes up to n distinct items from the pool, refilling mid-draw when
// it runs dry. Requests beyond the item count are capped, so a draw never
// repeats an item.
func (p *Pool) Draw(n int) []string {
	if n > len(p.items) {
		n = len(p.items)
	}
	out := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for len(out) < n {
		if len(p.remaining) == 0 {
			p.refill()
		}
		item := p.remaining[len(p.remaining)-1]
		p.remaining = p.remaining[:len(p.remaining)-1]
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Remaining reports how many items are left before the next refill.
func (p *Pool) Remaining() int {
	return len(p.remaining)
}

// Size reports the total item count.
func (p *Pool) Size() int {
	return len(p.items)
}

func (p *Pool) refill() {
	p.remaining = append(p.remaining[:0], p.items...)
	p.rng.Shuffle(len(p.remaining), func(i, j int) {
		p.remaining[i], p.remaining[j] = p.remaining[j], p.remaining[i]
	})
}
