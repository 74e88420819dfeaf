package asm

import (
	"fmt"

	"github.com/slowlang/switchgen/compiler/ir"
)

type (
	// Builder emits a switch into a Func.
	Builder struct {
		*Func

		sw    *ir.Switch
		value ir.Expr
	}
)

// NewBuilder starts a Func for sw.
// next is the block laid out right after the switch, or ir.NoTarget.
func NewBuilder(name string, sw *ir.Switch, next ir.Target) *Builder {
	b := &Builder{
		Func: &Func{
			Name: name,
			Next: next,
		},
		sw: sw,
	}

	b.value = b.reg()
	b.Body = append(b.Body, Arg{Out: [1]ir.Expr{b.value}})

	return b
}

// Value is the register holding the switch value.
func (b *Builder) Value() ir.Expr { return b.value }

func (b *Builder) Jump(i int, c ir.Cond, toDefault bool) {
	t := b.sw.Targets[i]
	if toDefault {
		t = b.sw.Default
	}

	b.jump(i, c, ToTarget(t))
}

func (b *Builder) JumpOrDefault(i int, c ir.Cond, canFallThrough bool) {
	switch t := b.sw.Targets[i]; {
	case canFallThrough && b.Next == b.sw.Default:
		b.jump(i, c, ToTarget(t))
	case canFallThrough && b.Next == t:
		b.jump(i, c.Negate(), ToTarget(b.sw.Default))
	default:
		b.jump(i, c, ToTarget(t))
		b.Body = append(b.Body, B{To: ToTarget(b.sw.Default)})
	}
}

func (b *Builder) JumpForward(i int, c ir.Cond) ir.Label {
	l := ir.Label(len(b.Labels))
	b.Labels = append(b.Labels, -1)

	b.jump(i, c, ToLabel(l))

	return l
}

func (b *Builder) Bind(l ir.Label) {
	if l < 0 || int(l) >= len(b.Labels) || b.Labels[l] >= 0 {
		panic(fmt.Sprintf("bind L%d: unknown or bound twice", l))
	}

	b.Labels[l] = len(b.Body)
	b.Body = append(b.Body, Bind{Label: l})
}

func (b *Builder) SameTarget(i, j int) bool { return b.sw.SameTarget(i, j) }

func (b *Builder) jump(i int, c ir.Cond, to Dest) {
	if c == ir.Always {
		b.Body = append(b.Body, B{To: to})
		return
	}

	b.Body = append(b.Body, BCond{Cond: c, Key: b.sw.Keys[i], To: to})
}

// TableJump emits an indexed jump over the keys range starting at lo.
func (b *Builder) TableJump(x ir.Expr, lo int64, table []ir.Target) {
	b.Body = append(b.Body, TableJump{
		In:      [1]ir.Expr{x},
		Min:     lo,
		Table:   table,
		Default: b.sw.Default,
	})
}

// HashJump emits an indexed jump by a hash value x.
// keys are compared to the switch value to filter out foreign values.
func (b *Builder) HashJump(x ir.Expr, keys []int64, table []ir.Target) {
	b.Body = append(b.Body, HashJump{
		In:      [1]ir.Expr{x},
		Keys:    keys,
		Table:   table,
		Default: b.sw.Default,
	})
}

func (b *Builder) Const(x int64) ir.Expr {
	r := b.reg()
	b.Body = append(b.Body, Imm{Out: [1]ir.Expr{r}, Word: x})

	return r
}

func (b *Builder) Add(x, y ir.Expr) ir.Expr  { return b.op(ADD, x, y) }
func (b *Builder) Sub(x, y ir.Expr) ir.Expr  { return b.op(SUB, x, y) }
func (b *Builder) Mul(x, y ir.Expr) ir.Expr  { return b.op(MUL, x, y) }
func (b *Builder) Xor(x, y ir.Expr) ir.Expr  { return b.op(EOR, x, y) }
func (b *Builder) And(x, y ir.Expr) ir.Expr  { return b.op(AND, x, y) }
func (b *Builder) Or(x, y ir.Expr) ir.Expr   { return b.op(ORR, x, y) }
func (b *Builder) Shl(x, y ir.Expr) ir.Expr  { return b.op(LSL, x, y) }
func (b *Builder) Shr(x, y ir.Expr) ir.Expr  { return b.op(ASR, x, y) }
func (b *Builder) UShr(x, y ir.Expr) ir.Expr { return b.op(LSR, x, y) }
func (b *Builder) Neg(x ir.Expr) ir.Expr     { return b.op(NEG, x, x) }

func (b *Builder) op(op Opcode, x, y ir.Expr) ir.Expr {
	r := b.reg()
	b.Body = append(b.Body, Op{Op: op, Out: [1]ir.Expr{r}, In: [2]ir.Expr{x, y}})

	return r
}

func (b *Builder) reg() ir.Expr {
	r := ir.Expr(b.Regs)
	b.Regs++

	return r
}
