package hash

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/slices"

	"github.com/slowlang/switchgen/compiler/ir"
)

type (
	// Arith emits integer arithmetic.
	// Shifts take the distance modulo 64, Shr is arithmetic, UShr is logical.
	Arith interface {
		Const(x int64) ir.Expr

		Add(x, y ir.Expr) ir.Expr
		Sub(x, y ir.Expr) ir.Expr
		Mul(x, y ir.Expr) ir.Expr
		Xor(x, y ir.Expr) ir.Expr
		And(x, y ir.Expr) ir.Expr
		Or(x, y ir.Expr) ir.Expr
		Shl(x, y ir.Expr) ir.Expr
		Shr(x, y ir.Expr) ir.Expr
		UShr(x, y ir.Expr) ir.Expr
		Neg(x ir.Expr) ir.Expr
	}

	// Function is an integer mixing function of a key and a seed.
	Function struct {
		name   string
		effort int

		apply func(x, s int64) int64
		gen   func(g Arith, x, s ir.Expr) ir.Expr
	}
)

var primes = []int64{3, 7, 31, 127, 8191, 131071, 524287, 2147483647}

var instances = catalog()

// Instances returns all the hash functions ordered by effort.
func Instances() []*Function {
	return append([]*Function(nil), instances...)
}

func (f *Function) Name() string { return f.name }

// Effort is the approximate number of operations to compute the function.
func (f *Function) Effort() int { return f.effort }

func (f *Function) Apply(x, s int64) int32 {
	return int32(f.apply(x, s))
}

// Gen emits code computing Apply(x, s).
func (f *Function) Gen(x, s ir.Expr, g Arith) ir.Expr {
	return f.gen(g, x, s)
}

func (f *Function) String() string { return f.name }

func catalog() (fs []*Function) {
	seen := map[string]struct{}{}

	add := func(name string, effort int, apply func(x, s int64) int64, gen func(g Arith, x, s ir.Expr) ir.Expr) {
		if _, ok := seen[name]; ok {
			return
		}

		seen[name] = struct{}{}

		fs = append(fs, &Function{
			name:   name,
			effort: effort,
			apply:  apply,
			gen:    gen,
		})
	}

	addWithPrimes := func(name string, effort int, apply func(p int64) func(x, s int64) int64, gen func(g Arith, x, s, p ir.Expr) ir.Expr) {
		for _, p := range primes {
			p := p

			add(fmt.Sprintf(name, p), effort, apply(p), func(g Arith, x, s ir.Expr) ir.Expr {
				return gen(g, x, s, g.Const(p))
			})
		}
	}

	add("x", 0,
		func(x, s int64) int64 { return x },
		func(g Arith, x, s ir.Expr) ir.Expr { return x })

	add("x - s", 1,
		func(x, s int64) int64 { return x - s },
		func(g Arith, x, s ir.Expr) ir.Expr { return g.Sub(x, s) })

	add("x ^ s", 1,
		func(x, s int64) int64 { return x ^ s },
		func(g Arith, x, s ir.Expr) ir.Expr { return g.Xor(x, s) })

	add("x & s", 1,
		func(x, s int64) int64 { return x & s },
		func(g Arith, x, s ir.Expr) ir.Expr { return g.And(x, s) })

	add("x >> s", 1,
		func(x, s int64) int64 { return shr(x, s) },
		func(g Arith, x, s ir.Expr) ir.Expr { return g.Shr(x, s) })

	add("x >> (x & s)", 2,
		func(x, s int64) int64 { return shr(x, x&s) },
		func(g Arith, x, s ir.Expr) ir.Expr { return g.Shr(x, g.And(x, s)) })

	add("(x >> s) ^ x", 2,
		func(x, s int64) int64 { return shr(x, s) ^ x },
		func(g Arith, x, s ir.Expr) ir.Expr { return g.Xor(g.Shr(x, s), x) })

	add("(x >> s) * x", 3,
		func(x, s int64) int64 { return shr(x, s) * x },
		func(g Arith, x, s ir.Expr) ir.Expr { return g.Mul(g.Shr(x, s), x) })

	addWithPrimes("(x * %d) >> s", 3,
		func(p int64) func(x, s int64) int64 {
			return func(x, s int64) int64 { return shr(x*p, s) }
		},
		func(g Arith, x, s, p ir.Expr) ir.Expr { return g.Shr(g.Mul(x, p), s) })

	addWithPrimes("rotateRight(x, %d)", 5,
		func(p int64) func(x, s int64) int64 {
			return func(x, s int64) int64 { return rotr(x, p) }
		},
		func(g Arith, x, s, p ir.Expr) ir.Expr { return genRotr(g, x, p) })

	addWithPrimes("rotateRight(x, %d) + x", 6,
		func(p int64) func(x, s int64) int64 {
			return func(x, s int64) int64 { return rotr(x, p) + x }
		},
		func(g Arith, x, s, p ir.Expr) ir.Expr { return g.Add(genRotr(g, x, p), x) })

	addWithPrimes("rotateRight(x, %d) ^ x", 2,
		func(p int64) func(x, s int64) int64 {
			return func(x, s int64) int64 { return rotr(x, p) ^ x }
		},
		func(g Arith, x, s, p ir.Expr) ir.Expr { return g.Xor(genRotr(g, x, p), x) })

	slices.SortStableFunc(fs, func(a, b *Function) int {
		return a.effort - b.effort
	})

	return fs
}

func shr(x, s int64) int64 {
	return x >> (uint64(s) & 63)
}

func rotr(x, p int64) int64 {
	return int64(bits.RotateLeft64(uint64(x), -int(p&63)))
}

// (x >>> p) | (x << -p)
func genRotr(g Arith, x, p ir.Expr) ir.Expr {
	return g.Or(g.UShr(x, p), g.Shl(x, g.Neg(p)))
}
