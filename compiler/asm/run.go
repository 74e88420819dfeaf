package asm

import (
	"tlog.app/go/errors"

	"github.com/slowlang/switchgen/compiler/ir"
)

// Run executes f for the switch value v and returns the target it reaches.
func (f *Func) Run(v int64) (ir.Target, error) {
	t, _, err := f.Depth(v)

	return t, err
}

// Depth is like Run but also counts the comparisons executed on the way.
func (f *Func) Depth(v int64) (_ ir.Target, cmps int, err error) {
	regs := make([]int64, f.Regs)

	for pc := 0; pc < len(f.Body); pc++ {
		var to Dest

		switch x := f.Body[pc].(type) {
		case Arg:
			regs[x.Out[0]] = v
			continue
		case Imm:
			regs[x.Out[0]] = x.Word
			continue
		case Op:
			regs[x.Out[0]] = x.eval(regs)
			continue
		case Bind:
			continue
		case BCond:
			cmps++

			if !x.Cond.Holds(v, x.Key) {
				continue
			}

			to = x.To
		case B:
			to = x.To
		case TableJump:
			i := uint64(regs[x.In[0]]) - uint64(x.Min)

			if i < uint64(len(x.Table)) {
				return x.Table[i], cmps, nil
			}

			return x.Default, cmps, nil
		case HashJump:
			i := regs[x.In[0]]

			if i < 0 || i >= int64(len(x.Table)) || len(x.Keys) != len(x.Table) {
				return ir.NoTarget, cmps, errors.New("hash index %d out of table of %d", i, len(x.Table))
			}

			if x.Keys[i] == v {
				return x.Table[i], cmps, nil
			}

			return x.Default, cmps, nil
		default:
			return ir.NoTarget, cmps, errors.New("unsupported instruction %T at %d", x, pc)
		}

		if !to.IsLabel() {
			return to.Target, cmps, nil
		}

		if int(to.Label) >= len(f.Labels) || f.Labels[to.Label] < 0 {
			return ir.NoTarget, cmps, errors.New("unbound label L%d at %d", to.Label, pc)
		}

		next := f.Labels[to.Label]
		if next <= pc {
			return ir.NoTarget, cmps, errors.New("backward jump to L%d at %d", to.Label, pc)
		}

		pc = next
	}

	if f.Next == ir.NoTarget {
		return ir.NoTarget, cmps, errors.New("fell off the end")
	}

	return f.Next, cmps, nil
}
