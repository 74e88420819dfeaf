package strategy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/switchgen/compiler/asm"
	"github.com/slowlang/switchgen/compiler/ir"
)

const def ir.Target = 100

type counter struct {
	Closure

	calls int
}

func (c *counter) Jump(i int, cond ir.Cond, toDefault bool) {
	c.calls++
	c.Closure.Jump(i, cond, toDefault)
}

func (c *counter) JumpOrDefault(i int, cond ir.Cond, canFallThrough bool) {
	c.calls++
	c.Closure.JumpOrDefault(i, cond, canFallThrough)
}

func (c *counter) JumpForward(i int, cond ir.Cond) ir.Label {
	c.calls++
	return c.Closure.JumpForward(i, cond)
}

func TestScenarioA(t *testing.T) {
	sw := mkSwitch([]int64{10, 11, 13}, []ir.Target{0, 1, 2}, []float64{0.5, 0.3, 0.2})

	bin := New(Binary, sw)

	sim := NewSimulator(sw.Len(), sw.SameTarget)
	bin.Run(sim)

	var depths []int

	for i := range sw.Keys {
		d, n := sim.Depth(i)
		require.Equal(t, 1, n)

		depths = append(depths, d)
	}

	assert.Equal(t, []int{2, 3, 4}, depths)
	assert.InDelta(t, 2.7, bin.AverageEffort(), 1e-9)
	assert.InDelta(t, bin.AverageEffort(), sim.AverageEffort(sw.KeyProbs()), 1e-9)

	seq := New(Sequential, sw)
	assert.InDelta(t, 1.7, seq.AverageEffort(), 1e-9)
	assert.Equal(t, []int{0, 1, 2}, seq.Order())

	assert.Equal(t, Sequential, Best(sw).Kind())

	for _, k := range Kinds {
		checkRoundTrip(t, New(k, sw), sw)
	}
}

func TestScenarioB(t *testing.T) {
	sw := mkSwitch([]int64{100, 101, 102, 200, 201}, []ir.Target{1, 1, 1, 2, 2}, []float64{0.2, 0.2, 0.2, 0.2, 0.2})

	s := New(Ranges, sw)

	b := asm.NewBuilder("ranges", sw, ir.NoTarget)
	s.Run(b)

	var cmps []asm.BCond

	for _, x := range b.Body {
		if x, ok := x.(asm.BCond); ok {
			cmps = append(cmps, x)
		}
	}

	assert.Equal(t, []asm.BCond{
		{Cond: ir.LT, Key: 100, To: asm.ToTarget(def)},
		{Cond: ir.LE, Key: 102, To: asm.ToTarget(1)},
		{Cond: ir.LT, Key: 200, To: asm.ToTarget(def)},
		{Cond: ir.LE, Key: 201, To: asm.ToTarget(2)},
	}, cmps)

	assert.Equal(t, asm.B{To: asm.ToTarget(def)}, b.Body[len(b.Body)-1])
	assert.InDelta(t, 2.8, s.AverageEffort(), 1e-9)
	assert.Equal(t, 4, s.Comparisons())

	checkRoundTrip(t, s, sw)
}

func TestEffortRelations(t *testing.T) {
	even := make([]int64, 16)
	for i := range even {
		even[i] = int64(2 * i)
	}

	dense := make([]int64, 32)
	for i := range dense {
		dense[i] = int64(i)
	}

	switch03 := []int64{3080012, 3080017, 3080029, 3080037, 3080040, 3080054, 3080060, 3080065, 3080073, 3080082, 3080095, 3080103, 3080116, 3080127, 3080130}

	linear := make([]float64, 16)
	for i := range linear {
		linear[i] = float64(i+1) / 136
	}

	for _, tc := range []struct {
		name  string
		keys  []int64
		probs []float64

		seq, ranges, bin float64
	}{
		{"uniform16", even, uniform(16), 8.5, 9.5, 4.5},
		{"linear16", even, linear, 6, 0, 5.4338235294117645},
		{"dense32", dense, uniform(32), 16.5, 17.5, 5.0625},
		{"switch03", switch03, uniform(15), 8, 9, 5.066666666666667},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sw := mkSwitch(tc.keys, distinct(len(tc.keys)), tc.probs)

			seq := New(Sequential, sw)
			bin := New(Binary, sw)

			assert.InDelta(t, tc.seq, seq.AverageEffort(), 1e-9)
			assert.InDelta(t, tc.bin, bin.AverageEffort(), 1e-9)
			assert.Less(t, bin.AverageEffort(), seq.AverageEffort())

			if tc.ranges != 0 {
				assert.InDelta(t, tc.ranges, New(Ranges, sw).AverageEffort(), 1e-9)
			}

			assert.Equal(t, Binary, Best(sw).Kind())
		})
	}
}

func TestEffortExtremeSkew(t *testing.T) {
	keys := make([]int64, 16)
	probs := make([]float64, 16)

	for i := range keys {
		keys[i] = int64(2 * i)
		probs[i] = math.Pow(0.5, float64(i+1))
	}

	sw := mkSwitch(keys, distinct(16), probs)

	seq := New(Sequential, sw)
	bin := New(Binary, sw)

	assert.InDelta(t, 1.999969482421875, seq.AverageEffort(), 1e-9)
	assert.InDelta(t, 3.9996795654296875, bin.AverageEffort(), 1e-9)
	assert.Equal(t, Sequential, Best(sw).Kind())
}

func TestSingleKey(t *testing.T) {
	sw := mkSwitch([]int64{42}, []ir.Target{7}, []float64{1})

	s := New(Sequential, sw)

	assert.InDelta(t, 1., s.AverageEffort(), 1e-9)
	assert.Equal(t, 1, s.Comparisons())
	assert.Equal(t, Sequential, Best(sw).Kind())

	checkRoundTrip(t, s, sw)

	assert.Panics(t, func() { New(Ranges, sw) })
	assert.Panics(t, func() { New(Binary, sw) })
}

func TestSingleSlice(t *testing.T) {
	sw := mkSwitch([]int64{5, 6, 7, 8, 9}, []ir.Target{1, 1, 1, 1, 1}, uniform(5))

	for _, k := range []Kind{Ranges, Binary} {
		s := New(k, sw)

		assert.InDelta(t, 2., s.AverageEffort(), 1e-9, "%v", k)
		assert.Equal(t, 2, s.Comparisons(), "%v", k)

		checkRoundTrip(t, s, sw)
	}
}

func TestAllMassOnDefault(t *testing.T) {
	sw := mkSwitch([]int64{1, 3, 5, 7, 9, 10, 11}, []ir.Target{1, 2, 3, 4, 5, 5, 5}, make([]float64, 7))

	for _, k := range Kinds {
		s := New(k, sw)

		assert.Greater(t, s.AverageEffort(), 0., "%v", k)

		checkRoundTrip(t, s, sw)
	}
}

func TestRangesLowerGuard(t *testing.T) {
	// 0 is a singleton right before the 1..3 range,
	// but -5 still must not get into the range
	sw := mkSwitch([]int64{-10, 0, 1, 2, 3}, []ir.Target{0, 1, 2, 2, 2}, uniform(5))

	s := New(Ranges, sw)

	checkRoundTrip(t, s, sw)

	b := asm.NewBuilder("guard", sw, ir.NoTarget)
	s.Run(b)

	got, err := b.Run(-5)
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestRandomRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for iter := 0; iter < 3000; iter++ {
		sw := randomSwitch(r)

		for _, k := range Kinds {
			if sw.Len() < k.MinKeys() {
				continue
			}

			checkRoundTrip(t, New(k, sw), sw)
		}

		if t.Failed() {
			t.Logf("switch %v %v %v", sw.Keys, sw.Targets, sw.Probs)
			return
		}
	}
}

func TestSimulatorMatchesEmitted(t *testing.T) {
	r := rand.New(rand.NewSource(2))

	for iter := 0; iter < 1000; iter++ {
		sw := randomSwitch(r)

		for _, k := range Kinds {
			if sw.Len() < k.MinKeys() {
				continue
			}

			s := New(k, sw)

			sim := NewSimulator(sw.Len(), sw.SameTarget)
			s.Run(sim)

			b := asm.NewBuilder("iso", sw, ir.NoTarget)
			c := &counter{Closure: b}
			s.Run(c)

			assert.Equal(t, s.Comparisons(), c.calls, "%v %v", k, sw.Keys)
			assert.Equal(t, s.Comparisons(), sim.Jumps(), "%v %v", k, sw.Keys)

			var effort float64

			for i, key := range sw.Keys {
				tgt, depth, err := b.Depth(key)
				require.NoError(t, err)
				require.Equal(t, sw.Targets[i], tgt)

				d, n := sim.Depth(i)
				assert.Equal(t, 1, n, "%v %v key %d", k, sw.Keys, key)
				assert.Equal(t, d, depth, "%v %v key %d", k, sw.Keys, key)

				effort += float64(depth) * sw.Probs[i]
			}

			if sw.DefaultProb() == 0 {
				assert.InDelta(t, effort, s.AverageEffort(), 1e-9)
			}
		}
	}
}

func TestContract(t *testing.T) {
	same := func(i, j int) bool { return false }

	assert.Panics(t, func() { newStrategy(Sequential, []int64{3, 1}, []float64{0.5, 0.5}, same) })
	assert.Panics(t, func() { newStrategy(Ranges, []int64{1, 1}, []float64{0.5, 0.5}, same) })
	assert.Panics(t, func() { newStrategy(Binary, []int64{1, 2}, []float64{1}, same) })
	assert.Panics(t, func() { newStrategy(Sequential, nil, nil, same) })
}

func checkRoundTrip(t *testing.T, s *Strategy, sw *ir.Switch) {
	t.Helper()

	nexts := []ir.Target{ir.NoTarget, sw.Default, sw.Targets[0], sw.Targets[sw.Len()-1]}

	for _, next := range nexts {
		b := asm.NewBuilder("sw", sw, next)
		s.Run(b)

		for i, k := range sw.Keys {
			got, err := b.Run(k)
			if assert.NoError(t, err, "%v key %d\n%v", s, k, b.Func) {
				assert.Equal(t, sw.Targets[i], got, "%v key %d\n%v", s, k, b.Func)
			}
		}

		probe := []int64{math.MinInt64, math.MaxInt64}
		for v := sw.Keys[0] - 3; v <= sw.Keys[sw.Len()-1]+3; v++ {
			probe = append(probe, v)
		}

		for _, v := range probe {
			if isKey(sw.Keys, v) {
				continue
			}

			got, err := b.Run(v)
			if assert.NoError(t, err, "%v value %d\n%v", s, v, b.Func) {
				assert.Equal(t, sw.Default, got, "%v value %d\n%v", s, v, b.Func)
			}
		}
	}
}

func mkSwitch(keys []int64, targets []ir.Target, probs []float64) *ir.Switch {
	defProb := 1.
	for _, p := range probs {
		defProb -= p
	}

	if defProb < 1e-12 {
		defProb = 0
	}

	return &ir.Switch{
		Keys:    keys,
		Targets: targets,
		Probs:   append(append([]float64{}, probs...), defProb),
		Default: def,
	}
}

func randomSwitch(r *rand.Rand) *ir.Switch {
	n := 1 + r.Intn(12)

	perm := r.Perm(60)[:n]
	keys := make([]int64, n)

	for i, p := range perm {
		keys[i] = int64(p - 20)
	}

	for i := 1; i < n; i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}

	targets := make([]ir.Target, n)
	probs := make([]float64, n)

	var total float64

	for i := range keys {
		targets[i] = ir.Target(r.Intn(4))
		probs[i] = math.Pow(r.Float64(), 3)
		total += probs[i]
	}

	if r.Intn(2) == 0 {
		total += r.Float64() * 0.3
	}

	for i := range probs {
		probs[i] /= total
	}

	return mkSwitch(keys, targets, probs)
}

func uniform(n int) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = 1 / float64(n)
	}

	return p
}

func distinct(n int) []ir.Target {
	t := make([]ir.Target, n)
	for i := range t {
		t[i] = ir.Target(i)
	}

	return t
}

func isKey(keys []int64, v int64) bool {
	for _, k := range keys {
		if k == v {
			return true
		}
	}

	return false
}
