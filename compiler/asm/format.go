package asm

import (
	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/switchgen/compiler/ir"
)

func (f *Func) String() string {
	return string(f.Append(nil))
}

// Append appends an assembly-like listing of f to b.
func (f *Func) Append(b []byte) []byte {
	b = hfmt.Appendf(b, "%s:\n", f.Name)

	for _, x := range f.Body {
		switch x := x.(type) {
		case Arg:
			b = hfmt.Appendf(b, "	MOV	X%d, value\n", x.Out[0])
		case Imm:
			b = hfmt.Appendf(b, "	MOV	X%d, #%d\n", x.Out[0], x.Word)
		case Op:
			if x.Op == NEG {
				b = hfmt.Appendf(b, "	%v	X%d, X%d\n", x.Op, x.Out[0], x.In[0])
				break
			}

			b = hfmt.Appendf(b, "	%v	X%d, X%d, X%d\n", x.Op, x.Out[0], x.In[0], x.In[1])
		case BCond:
			b = hfmt.Appendf(b, "	CMP	value, #%d\n", x.Key)
			b = hfmt.Appendf(b, "	B.%v	%s\n", x.Cond, x.To.name())
		case B:
			b = hfmt.Appendf(b, "	B	%s\n", x.To.name())
		case Bind:
			b = hfmt.Appendf(b, "L%d:\n", x.Label)
		case TableJump:
			b = hfmt.Appendf(b, "	JT	X%d, #%d, %v, default T%d\n", x.In[0], x.Min, x.Table, x.Default)
		case HashJump:
			b = hfmt.Appendf(b, "	JH	X%d, %v, %v, default T%d\n", x.In[0], x.Keys, x.Table, x.Default)
		default:
			b = hfmt.Appendf(b, "	%T %+[1]v\n", x)
		}
	}

	if f.Next != ir.NoTarget {
		b = hfmt.Appendf(b, "	// fallthrough T%d\n", f.Next)
	}

	return b
}

func (d Dest) name() string {
	if d.IsLabel() {
		return string(hfmt.Appendf(nil, "L%d", d.Label))
	}

	return string(hfmt.Appendf(nil, "T%d", d.Target))
}
