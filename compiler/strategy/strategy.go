package strategy

import (
	"fmt"

	"golang.org/x/exp/slices"
	"tlog.app/go/loc"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/switchgen/compiler/ir"
)

type (
	// Closure receives the decisions of a strategy.
	// Key index i selects both the compared key and its target.
	Closure interface {
		// Jump jumps to the target of i or to default if value c keys[i].
		// ir.Always makes the jump unconditional.
		Jump(i int, c ir.Cond, toDefault bool)

		// JumpOrDefault jumps to the target of i if value c keys[i] and to default otherwise.
		// canFallThrough is set on the last decision of the switch.
		JumpOrDefault(i int, c ir.Cond, canFallThrough bool)

		// JumpForward jumps to a new label which is bound later.
		JumpForward(i int, c ir.Cond) ir.Label

		Bind(l ir.Label)

		SameTarget(i, j int) bool
	}

	Kind int

	// Strategy is a compare chain plan for one switch.
	Strategy struct {
		kind Kind

		keys  []int64
		probs []float64

		order []int     // by probability descending
		sums  []float64 // probability prefix sums

		effort float64
		jumps  int
	}

	walker struct {
		*Strategy

		c   Closure
		sim *Simulator
	}
)

const (
	Sequential Kind = iota
	Ranges
	Binary
)

// minProbability keeps zero-probability keys from collapsing binary partitions.
const minProbability = 0.00001

var Kinds = []Kind{Sequential, Ranges, Binary}

// New builds a strategy of kind k for keys and probabilities of sw
// and computes its average effort.
func New(k Kind, sw *ir.Switch) *Strategy {
	return newStrategy(k, sw.Keys, sw.KeyProbs(), sw.SameTarget)
}

// Best builds every strategy applicable to sw and returns the one with the least effort.
func Best(sw *ir.Switch) *Strategy {
	var best *Strategy

	for _, k := range Kinds {
		if len(sw.Keys) < k.MinKeys() {
			continue
		}

		s := New(k, sw)

		if best == nil || s.effort < best.effort {
			best = s
		}
	}

	return best
}

func newStrategy(k Kind, keys []int64, probs []float64, same func(i, j int) bool) *Strategy {
	if len(keys) < k.MinKeys() {
		contract(k, "need at least %d keys, got %d", k.MinKeys(), len(keys))
	}

	if len(probs) != len(keys) {
		contract(k, "%d probabilities for %d keys", len(probs), len(keys))
	}

	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			contract(k, "keys are not strictly increasing at %d: %d, %d", i, keys[i-1], keys[i])
		}
	}

	s := &Strategy{
		kind:  k,
		keys:  keys,
		probs: probs,
	}

	switch k {
	case Sequential, Ranges:
		s.order = make([]int, len(keys))

		for i := range s.order {
			s.order[i] = i
		}

		slices.SortStableFunc(s.order, func(a, b int) int {
			switch {
			case probs[a] > probs[b]:
				return -1
			case probs[a] < probs[b]:
				return 1
			default:
				return 0
			}
		})
	case Binary:
		s.sums = make([]float64, len(keys)+1)

		var sum float64

		for i, p := range probs {
			sum += max(p, minProbability)
			s.sums[i+1] = sum
		}
	default:
		panic(k)
	}

	sim := NewSimulator(len(keys), same)

	s.Run(sim)

	s.effort = sim.AverageEffort(probs)
	s.jumps = sim.Jumps()

	return s
}

func contract(k Kind, f string, args ...any) {
	panic(fmt.Sprintf("%v strategy: %s (%v)", k, fmt.Sprintf(f, args...), loc.Caller(3)))
}

// Run drives c through the decisions of the strategy.
// A Simulator also gets the depth each key and the default are reached at.
func (s *Strategy) Run(c Closure) {
	w := walker{Strategy: s, c: c}
	w.sim, _ = c.(*Simulator)

	w.run()
}

func (s *Strategy) Kind() Kind { return s.kind }

// AverageEffort is the expected number of comparisons to resolve the switch value.
func (s *Strategy) AverageEffort() float64 { return s.effort }

// Comparisons is the number of jumps the strategy emits.
func (s *Strategy) Comparisons() int { return s.jumps }

func (s *Strategy) Keys() []int64 { return s.keys }

// Order is the key indexes by descending probability.
// It is nil for Binary.
func (s *Strategy) Order() []int { return s.order }

func (s *Strategy) String() string {
	return fmt.Sprintf("%v[avgEffort=%v]", s.kind, s.effort)
}

func (s *Strategy) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)

	b = e.AppendKeyValue(b, "kind", s.kind.String())
	b = e.AppendKeyValue(b, "effort", s.effort)
	b = e.AppendKeyInt(b, "jumps", s.jumps)

	return b
}

func (k Kind) MinKeys() int {
	if k == Sequential {
		return 1
	}

	return 2
}

func (k Kind) String() string {
	switch k {
	case Sequential:
		return "Sequential"
	case Ranges:
		return "Ranges"
	case Binary:
		return "Binary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (w *walker) run() {
	switch w.kind {
	case Sequential:
		w.sequential()
	case Ranges:
		w.ranges()
	case Binary:
		w.binary()
	}
}

func (w *walker) key(l, r, depth int) {
	if w.sim != nil {
		w.sim.key(l, r, depth)
	}
}

func (w *walker) def(depth int) {
	if w.sim != nil {
		w.sim.def(depth)
	}
}

// sliceEnd finds the end of a run of successive keys with the same target.
func (w *walker) sliceEnd(pos int) int {
	for pos < len(w.keys)-1 && w.keys[pos+1] == w.keys[pos]+1 && w.c.SameTarget(pos, pos+1) {
		pos++
	}

	return pos
}

// adjacent reports whether keys[i+1] immediately follows keys[i].
func (w *walker) adjacent(i int) bool {
	return w.keys[i]+1 == w.keys[i+1]
}
