package strategy

import "github.com/slowlang/switchgen/compiler/ir"

type (
	// Simulator is a Closure which emits nothing.
	// It records how deep each key and the default are reached.
	Simulator struct {
		same func(i, j int) bool

		keyDepth []int
		keyCount []int

		defDepth int
		defCount int

		jumps int
	}
)

var _ Closure = &Simulator{}

func NewSimulator(n int, same func(i, j int) bool) *Simulator {
	return &Simulator{
		same:     same,
		keyDepth: make([]int, n),
		keyCount: make([]int, n),
	}
}

func (s *Simulator) Jump(i int, c ir.Cond, toDefault bool) { s.jumps++ }

func (s *Simulator) JumpOrDefault(i int, c ir.Cond, canFallThrough bool) { s.jumps++ }

func (s *Simulator) JumpForward(i int, c ir.Cond) ir.Label {
	s.jumps++

	return ir.NoLabel
}

func (s *Simulator) Bind(l ir.Label) {}

func (s *Simulator) SameTarget(i, j int) bool { return s.same(i, j) }

// Jumps is the number of jumps a strategy issued.
func (s *Simulator) Jumps() int { return s.jumps }

// Depth returns the accumulated depth and the number of records for key i.
func (s *Simulator) Depth(i int) (depth, count int) {
	return s.keyDepth[i], s.keyCount[i]
}

func (s *Simulator) DefaultDepth() (depth, count int) {
	return s.defDepth, s.defCount
}

// AverageEffort is the expected number of comparisons
// weighted by key probabilities, the rest of the mass going to default.
func (s *Simulator) AverageEffort(probs []float64) float64 {
	var effort float64
	defProb := 1.

	for i, p := range probs {
		defProb -= p

		if s.keyCount[i] == 0 {
			continue
		}

		effort += float64(s.keyDepth[i]) * p / float64(s.keyCount[i])
	}

	if s.defCount != 0 {
		effort += float64(s.defDepth) * defProb / float64(s.defCount)
	}

	return effort
}

func (s *Simulator) key(l, r, depth int) {
	for i := l; i <= r; i++ {
		s.keyDepth[i] += depth
		s.keyCount[i]++
	}
}

func (s *Simulator) def(depth int) {
	s.defDepth += depth
	s.defCount++
}
