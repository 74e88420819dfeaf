package ir

import (
	"math"

	"golang.org/x/exp/slices"
	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Switch is a multi-way branch on an integer value.
	//
	// Keys are strictly increasing.
	// Probs has one entry per key plus the default edge as the last one.
	Switch struct {
		Keys    []int64
		Targets []Target
		Probs   []float64

		Default Target
	}

	Case struct {
		Key    int64
		Target Target
		Prob   float64
	}
)

const probTolerance = 1e-6

func NewSwitch(keys []int64, targets []Target, probs []float64, def Target) (*Switch, error) {
	sw := &Switch{
		Keys:    keys,
		Targets: targets,
		Probs:   probs,
		Default: def,
	}

	err := sw.Validate()
	if err != nil {
		return nil, err
	}

	return sw, nil
}

// FromCases sorts cases by key and builds a Switch from them.
func FromCases(cases []Case, def Target, defProb float64) (*Switch, error) {
	cs := append([]Case{}, cases...)

	slices.SortStableFunc(cs, func(a, b Case) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		default:
			return 0
		}
	})

	sw := &Switch{
		Keys:    make([]int64, len(cs)),
		Targets: make([]Target, len(cs)),
		Probs:   make([]float64, len(cs)+1),
		Default: def,
	}

	for i, c := range cs {
		sw.Keys[i] = c.Key
		sw.Targets[i] = c.Target
		sw.Probs[i] = c.Prob
	}

	sw.Probs[len(cs)] = defProb

	err := sw.Validate()
	if err != nil {
		return nil, err
	}

	return sw, nil
}

func (sw *Switch) Validate() error {
	if len(sw.Keys) == 0 {
		return errors.New("no keys")
	}

	if len(sw.Targets) != len(sw.Keys) {
		return errors.New("targets: want %d, got %d", len(sw.Keys), len(sw.Targets))
	}

	if len(sw.Probs) != len(sw.Keys)+1 {
		return errors.New("probabilities: want %d, got %d", len(sw.Keys)+1, len(sw.Probs))
	}

	for i := 1; i < len(sw.Keys); i++ {
		if sw.Keys[i-1] < sw.Keys[i] {
			continue
		}

		if sw.Keys[i-1] == sw.Keys[i] {
			return errors.New("duplicate key %d", sw.Keys[i])
		}

		return errors.New("keys not sorted at %d: %d after %d", i, sw.Keys[i], sw.Keys[i-1])
	}

	var sum float64

	for i, p := range sw.Probs {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return errors.New("probability %d out of range: %v", i, p)
		}

		sum += p
	}

	if math.Abs(sum-1) > probTolerance {
		return errors.New("probabilities sum to %v", sum)
	}

	return nil
}

func (sw *Switch) Len() int { return len(sw.Keys) }

func (sw *Switch) KeyProbs() []float64 { return sw.Probs[:len(sw.Keys)] }

func (sw *Switch) DefaultProb() float64 { return sw.Probs[len(sw.Keys)] }

func (sw *Switch) SameTarget(i, j int) bool { return sw.Targets[i] == sw.Targets[j] }

// Range is the number of integers between the smallest and the largest key inclusive.
// It saturates at math.MaxUint64 for the full int64 range.
func (sw *Switch) Range() uint64 {
	r := uint64(sw.Keys[len(sw.Keys)-1]) - uint64(sw.Keys[0])
	if r == math.MaxUint64 {
		return r
	}

	return r + 1
}

// Normalize rescales probabilities so they sum up to 1.
// All zero probabilities become uniform.
func (sw *Switch) Normalize() {
	var total float64

	for _, p := range sw.Probs {
		total += p
	}

	if total > 0 {
		for i := range sw.Probs {
			sw.Probs[i] /= total
		}

		return
	}

	for i := range sw.Probs {
		sw.Probs[i] = 1 / float64(len(sw.Probs))
	}
}

// Uninitialized reports whether the profile carries no information,
// that is all non-zero key probabilities are equal.
func (sw *Switch) Uninitialized() bool {
	var prob float64

	for _, p := range sw.KeyProbs() {
		if p == 0 {
			continue
		}

		if prob == 0 {
			prob = p
		} else if p != prob {
			return false
		}
	}

	return true
}

// Prune drops keys outside of [lo, hi] and keys leading to the default target.
// It returns false if no key is left, which means the switch always goes to default.
func (sw *Switch) Prune(lo, hi int64) (*Switch, bool) {
	r := &Switch{
		Default: sw.Default,
	}

	for i, k := range sw.Keys {
		if k < lo || k > hi || sw.Targets[i] == sw.Default {
			continue
		}

		r.Keys = append(r.Keys, k)
		r.Targets = append(r.Targets, sw.Targets[i])
		r.Probs = append(r.Probs, sw.Probs[i])
	}

	if len(r.Keys) == 0 {
		return nil, false
	}

	r.Probs = append(r.Probs, sw.DefaultProb())
	r.Normalize()

	return r, true
}

func (sw *Switch) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)

	b = e.AppendKeyInt(b, "keys", len(sw.Keys))

	if len(sw.Keys) != 0 {
		b = e.AppendKeyInt64(b, "min", sw.Keys[0])
		b = e.AppendKeyInt64(b, "max", sw.Keys[len(sw.Keys)-1])
	} else {
		b = e.AppendKeyInt64(b, "min", 0)
		b = e.AppendKeyInt64(b, "max", 0)
	}

	b = e.AppendKeyInt(b, "default", int(sw.Default))

	return b
}
