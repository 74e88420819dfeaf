package hash

import (
	"fmt"

	"nikand.dev/go/heap"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/switchgen/compiler/ir"
	"github.com/slowlang/switchgen/compiler/set"
)

type (
	// Hasher maps a fixed key set into a table without collisions.
	Hasher struct {
		fn   *Function
		card int
		seed int64
	}

	candidate struct {
		Hasher

		order int
	}
)

// MaxLoad is how many times the largest table tried exceeds the number of keys.
const MaxLoad = 8

// ForKeys searches the whole catalog for keys.
func ForKeys(keys []int64) (*Hasher, bool) {
	return Search(keys, instances)
}

// Search looks for the smallest table and then the cheapest function of fs
// that hashes sorted distinct keys without collisions.
// fs is expected to be ordered by effort as Instances returns it.
// It returns false if there are less than two keys or nothing was found.
func Search(keys []int64, fs []*Function) (*Hasher, bool) {
	if len(keys) < 2 {
		return nil, false
	}

	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			panic(fmt.Sprintf("hash: keys are not strictly increasing at %d: %d, %d", i, keys[i-1], keys[i]))
		}
	}

	seed := keys[0]
	maxCard := len(keys) * MaxLoad

	cands := heap.Heap[candidate]{Less: candidateLess}
	seen := set.MakeBitmap(maxCard)

	for order, f := range fs {
		for card := ceilPow2(len(keys)); card <= maxCard; card <<= 1 {
			if !valid(keys, seed, f, card, &seen) {
				continue
			}

			cands.Push(candidate{
				Hasher: Hasher{fn: f, card: card, seed: seed},
				order:  order,
			})
		}
	}

	tlog.V("hash_search").Printw("hash search", "keys", len(keys), "seed", seed, "functions", len(fs), "candidates", cands.Len())

	if cands.Len() == 0 {
		return nil, false
	}

	h := cands.Pop().Hasher

	if tr := tlog.Root(); tr.If("hash_slots") {
		tr.Printw("hash slots", "hasher", &h, "slots", h.Slots(keys))
	}

	return &h, true
}

func valid(keys []int64, seed int64, f *Function, card int, seen *set.Bitmap) bool {
	seen.Reset()

	mask := int32(card - 1)

	for _, k := range keys {
		if !seen.Add(int(f.Apply(k, seed) & mask)) {
			return false
		}
	}

	return true
}

func candidateLess(d []candidate, i, j int) bool {
	if d[i].card != d[j].card {
		return d[i].card < d[j].card
	}

	if a, b := d[i].Effort(), d[j].Effort(); a != b {
		return a < b
	}

	return d[i].order < d[j].order
}

func ceilPow2(n int) int {
	c := 1

	for c < n {
		c <<= 1
	}

	return c
}

// Hash returns the table index of v.
func (h *Hasher) Hash(v int64) int {
	return int(h.fn.Apply(v, h.seed) & int32(h.card-1))
}

// Slots returns the table slots occupied by keys.
func (h *Hasher) Slots(keys []int64) *set.Bitmap {
	s := set.NewBitmap(h.card)

	for _, k := range keys {
		s.Add(h.Hash(k))
	}

	return s
}

// Effort is the function effort plus the final mask.
func (h *Hasher) Effort() int { return h.fn.Effort() + 1 }

func (h *Hasher) Cardinality() int { return h.card }

func (h *Hasher) Function() *Function { return h.fn }

func (h *Hasher) Seed() int64 { return h.seed }

// Gen emits code computing Hash(x).
func (h *Hasher) Gen(x ir.Expr, g Arith) ir.Expr {
	v := h.fn.Gen(x, g.Const(h.seed), g)

	return g.And(v, g.Const(int64(h.card-1)))
}

func (h *Hasher) String() string {
	return fmt.Sprintf("Hasher[function=%v, effort=%d, cardinality=%d]", h.fn, h.Effort(), h.card)
}

func (h *Hasher) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)

	b = e.AppendKeyValue(b, "function", h.fn.Name())
	b = e.AppendKeyInt(b, "effort", h.Effort())
	b = e.AppendKeyInt(b, "cardinality", h.card)
	b = e.AppendKeyInt64(b, "seed", h.seed)

	return b
}
