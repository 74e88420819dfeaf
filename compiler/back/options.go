package back

import (
	"runtime"

	"github.com/slowlang/switchgen/compiler/hash"
)

type (
	Options struct {
		// Tables are not considered for switches with less keys.
		MinTableKeys int

		// Dense table limits.
		MaxTableRange   uint64
		MinTableDensity float64 // keys per table slot

		PointerSize int // bytes per table entry
		CompareSize int // bytes per compare and branch

		DisableHash  bool
		DisableTable bool

		// Hashes is the catalog the hash search goes over.
		// nil means hash.Instances.
		Hashes []*hash.Function

		// Workers bounds LowerAll concurrency. Zero means no limit.
		Workers int

		Policy Policy
	}

	// Policy orders alternatives, the least one is chosen.
	Policy func(a, b Alternative) int
)

func DefaultOptions() Options {
	return Options{
		MinTableKeys:    4,
		MaxTableRange:   1024,
		MinTableDensity: 0.25,

		PointerSize: 8,
		CompareSize: 8,

		Workers: runtime.GOMAXPROCS(0),

		Policy: MinEffort,
	}
}

// MinEffort prefers less average effort and then smaller code.
func MinEffort(a, b Alternative) int {
	if r := cmpFloat(a.AverageEffort(), b.AverageEffort()); r != 0 {
		return r
	}

	return a.CodeSize() - b.CodeSize()
}

// MinCodeSize prefers smaller code and then less average effort.
func MinCodeSize(a, b Alternative) int {
	if r := a.CodeSize() - b.CodeSize(); r != 0 {
		return r
	}

	return cmpFloat(a.AverageEffort(), b.AverageEffort())
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}
