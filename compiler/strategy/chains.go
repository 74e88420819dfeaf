package strategy

import "github.com/slowlang/switchgen/compiler/ir"

// sequential tests keys one by one, the most probable first.
func (w *walker) sequential() {
	n := len(w.keys)

	for d, i := range w.order[:n-1] {
		w.c.Jump(i, ir.EQ, false)
		w.key(i, i, d+1)
	}

	last := w.order[n-1]

	w.c.JumpOrDefault(last, ir.EQ, true)
	w.key(last, last, n)
	w.def(n)
}

// ranges walks slices in key order testing a whole slice at once.
// A lower bound guard is only emitted if some value below the slice
// could still be unresolved at that point.
func (w *walker) ranges() {
	n := len(w.keys)
	depth := 0

	w.c.Jump(0, ir.LT, true)
	depth++
	w.def(depth)

	low := true // every value below keys[start] is routed

	for start := 0; ; {
		end := w.sliceEnd(start)
		last := end == n-1

		if start == end {
			depth++

			if last {
				w.c.JumpOrDefault(start, ir.EQ, true)
			} else {
				w.c.Jump(start, ir.EQ, false)
			}

			w.key(start, end, depth)
		} else {
			if !low {
				w.c.Jump(start, ir.LT, true)
				depth++
				w.def(depth)
			}

			depth++

			if last {
				w.c.JumpOrDefault(end, ir.LE, true)
			} else {
				w.c.Jump(end, ir.LE, false)
			}

			w.key(start, end, depth)

			low = true
		}

		if last {
			w.def(depth)
			return
		}

		low = low && w.adjacent(end)
		start = end + 1
	}
}

func (w *walker) binary() {
	n := len(w.keys)

	if w.sliceEnd(0) == n-1 {
		w.c.Jump(0, ir.LT, true)
		w.def(1)

		w.c.JumpOrDefault(n-1, ir.LE, true)
		w.key(0, n-1, 2)
		w.def(2)

		return
	}

	w.binaryRange(0, n-1, 0)
}

// binaryRange splits keys in [left, right] in the middle by probability, not index.
// If left > 0 the value is known to be at least keys[left].
// If right < n-1 the value is known to be less than keys[right+1],
// which is not the same as at most keys[right] if there is a gap.
func (w *walker) binaryRange(left, right, depth int) {
	n := len(w.keys)

	if depth >= 3*n {
		panic("runaway recursion in binary switch")
	}

	leftBorder := left == 0
	rightBorder := right == n-1

	if left+1 == right {
		if leftBorder || rightBorder || !w.adjacent(right) || !w.adjacent(left) {
			w.c.Jump(left, ir.EQ, false)
			depth++
			w.key(left, left, depth)

			w.c.JumpOrDefault(right, ir.EQ, rightBorder)
			depth++
			w.key(right, right, depth)
			w.def(depth)

			return
		}

		// the value is one of the two keys
		w.c.Jump(left, ir.EQ, false)
		depth++
		w.key(left, left, depth)

		w.c.Jump(right, ir.Always, false)
		w.key(right, right, depth)

		return
	}

	pmid := (w.sums[left] + w.sums[right+1]) / 2

	mid := left
	for next := w.sliceEnd(mid + 1); next < right && w.sums[next] < pmid; next = w.sliceEnd(mid + 1) {
		mid = next
	}

	mid = w.sliceEnd(mid)

	if mid >= n-1 {
		panic("binary switch split past the last key")
	}

	switch {
	case w.sliceEnd(left) == mid:
		if leftBorder {
			w.c.Jump(0, ir.LT, true)
			depth++
			w.def(depth)
		}

		w.c.Jump(mid, ir.LE, false)
		depth++
		w.key(left, mid, depth)

		if mid+1 == right {
			w.c.JumpOrDefault(right, ir.EQ, rightBorder)
			depth++
			w.key(right, right, depth)
			w.def(depth)

			return
		}

		if !w.adjacent(mid) {
			w.c.Jump(mid+1, ir.LT, true)
			depth++
			w.def(depth)
		}

		if w.sliceEnd(mid+1) != right {
			w.binaryRange(mid+1, right, depth)
			return
		}

		if rightBorder || !w.adjacent(right) {
			w.c.JumpOrDefault(right, ir.LE, rightBorder)
			depth++
			w.key(mid+1, right, depth)
			w.def(depth)

			return
		}

		w.c.Jump(mid+1, ir.Always, false)
		w.key(mid+1, right, depth)
	case w.sliceEnd(mid+1) == right:
		if rightBorder || !w.adjacent(right) {
			w.c.Jump(right, ir.GT, true)
			depth++
			w.def(depth)
		}

		w.c.Jump(mid+1, ir.GE, false)
		depth++
		w.key(mid+1, right, depth)

		w.binaryRange(left, mid, depth)
	default:
		l := w.c.JumpForward(mid+1, ir.GE)
		depth++

		w.binaryRange(left, mid, depth)

		w.c.Bind(l)

		w.binaryRange(mid+1, right, depth)
	}
}
