package back

import (
	"fmt"

	"github.com/slowlang/switchgen/compiler/hash"
	"github.com/slowlang/switchgen/compiler/ir"
	"github.com/slowlang/switchgen/compiler/strategy"
)

type (
	// Alternative is one way to lower a switch.
	Alternative interface {
		Kind() string

		// AverageEffort is the expected cost of dispatching a value.
		AverageEffort() float64

		// CodeSize estimates emitted code and data in bytes.
		CodeSize() int

		Emit(e Emitter)
	}

	strategyAlt struct {
		s    *strategy.Strategy
		size int
	}

	hashAlt struct {
		h *hash.Hasher

		keys    []int64 // by slot
		table   []ir.Target
		ptrSize int
	}

	tableAlt struct {
		lo      int64
		table   []ir.Target
		ptrSize int
	}
)

const (
	// tableOverhead is the bounds check, the load and the indirect jump.
	tableOverhead = 8 * 4

	tableEffort = 4
)

// Alternatives builds every alternative constructible for sw under opts.
// Compare chains come first, then the hash table, then the dense table.
// Sequential is always there.
func Alternatives(sw *ir.Switch, opts Options) []Alternative {
	n := sw.Len()

	var alts []Alternative

	for _, k := range strategy.Kinds {
		if n < k.MinKeys() {
			continue
		}

		s := strategy.New(k, sw)

		alts = append(alts, &strategyAlt{
			s:    s,
			size: s.Comparisons() * opts.CompareSize,
		})
	}

	if n == 1 || n < opts.MinTableKeys {
		return alts
	}

	if !opts.DisableHash {
		fs := opts.Hashes
		if fs == nil {
			fs = hash.Instances()
		}

		if h, ok := hash.Search(sw.Keys, fs); ok {
			alts = append(alts, newHashAlt(sw, h, opts.PointerSize))
		}
	}

	if !opts.DisableTable {
		r := sw.Range()

		if r <= opts.MaxTableRange && float64(n)/float64(r) >= opts.MinTableDensity {
			alts = append(alts, newTableAlt(sw, opts.PointerSize))
		}
	}

	return alts
}

// Choose returns the least alternative by policy p.
// The earlier one wins a tie.
func Choose(alts []Alternative, p Policy) Alternative {
	if p == nil {
		p = MinEffort
	}

	var best Alternative

	for _, a := range alts {
		if best == nil || p(a, best) < 0 {
			best = a
		}
	}

	return best
}

func (a *strategyAlt) Kind() string { return a.s.Kind().String() }

func (a *strategyAlt) AverageEffort() float64 { return a.s.AverageEffort() }

func (a *strategyAlt) CodeSize() int { return a.size }

func (a *strategyAlt) Emit(e Emitter) { a.s.Run(e) }

func (a *strategyAlt) String() string { return a.s.String() }

func newHashAlt(sw *ir.Switch, h *hash.Hasher, ptrSize int) *hashAlt {
	a := &hashAlt{
		h:       h,
		keys:    make([]int64, h.Cardinality()),
		table:   filled(h.Cardinality(), sw.Default),
		ptrSize: ptrSize,
	}

	for i, k := range sw.Keys {
		slot := h.Hash(k)

		a.keys[slot] = k
		a.table[slot] = sw.Targets[i]
	}

	return a
}

func (a *hashAlt) Kind() string { return "HashTable" }

func (a *hashAlt) AverageEffort() float64 { return tableEffort + float64(a.h.Effort())/10 }

func (a *hashAlt) CodeSize() int { return tableOverhead + a.h.Cardinality()*a.ptrSize }

func (a *hashAlt) Emit(e Emitter) {
	x := a.h.Gen(e.Value(), e)

	e.HashJump(x, a.keys, a.table)
}

func (a *hashAlt) String() string {
	return fmt.Sprintf("HashTable[avgEffort=%v, %v]", a.AverageEffort(), a.h)
}

func newTableAlt(sw *ir.Switch, ptrSize int) *tableAlt {
	a := &tableAlt{
		lo:      sw.Keys[0],
		table:   filled(int(sw.Range()), sw.Default),
		ptrSize: ptrSize,
	}

	for i, k := range sw.Keys {
		a.table[k-a.lo] = sw.Targets[i]
	}

	return a
}

func (a *tableAlt) Kind() string { return "Table" }

func (a *tableAlt) AverageEffort() float64 { return tableEffort }

func (a *tableAlt) CodeSize() int { return tableOverhead + len(a.table)*a.ptrSize }

func (a *tableAlt) Emit(e Emitter) { e.TableJump(e.Value(), a.lo, a.table) }

func (a *tableAlt) String() string {
	return fmt.Sprintf("Table[avgEffort=%v, min=%d, range=%d]", a.AverageEffort(), a.lo, len(a.table))
}
