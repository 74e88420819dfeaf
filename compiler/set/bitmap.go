package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Bitmap is a set of ints in [0, Cap()).
	// Adding a value out of the range panics.
	Bitmap struct {
		words []uint64
		small [2]uint64
	}
)

func NewBitmap(n int) *Bitmap {
	s := MakeBitmap(n)
	return &s
}

func MakeBitmap(n int) Bitmap {
	var s Bitmap

	if w := (n + 63) / 64; w > len(s.small) {
		s.words = make([]uint64, w)
	}

	return s
}

// Cap is the number of values the set can hold.
func (s *Bitmap) Cap() int {
	return len(s.w()) * 64
}

// Add reports whether v was not in the set.
func (s *Bitmap) Add(v int) bool {
	w, m := s.w(), mask(v)

	if w[v/64]&m != 0 {
		return false
	}

	w[v/64] |= m

	return true
}

func (s *Bitmap) Has(v int) bool {
	if v < 0 || v >= s.Cap() {
		return false
	}

	return s.w()[v/64]&mask(v) != 0
}

func (s *Bitmap) Size() (n int) {
	for _, x := range s.w() {
		n += bits.OnesCount64(x)
	}

	return n
}

func (s *Bitmap) Reset() {
	clear(s.w())
}

// Range calls f for each value in ascending order until f returns false.
func (s *Bitmap) Range(f func(v int) bool) {
	for i, x := range s.w() {
		for ; x != 0; x &= x - 1 {
			if !f(i*64 + bits.TrailingZeros64(x)) {
				return
			}
		}
	}
}

func (s *Bitmap) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(v int) bool {
		b = e.AppendInt(b, v)
		return true
	})

	return e.AppendBreak(b)
}

func (s *Bitmap) w() []uint64 {
	if s.words == nil {
		return s.small[:]
	}

	return s.words
}

func mask(v int) uint64 {
	if v < 0 {
		panic(v)
	}

	return 1 << (v % 64)
}
