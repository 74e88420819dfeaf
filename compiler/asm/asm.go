package asm

import (
	"github.com/slowlang/switchgen/compiler/ir"
)

type (
	Opcode string

	// Dest is either a local label or a switch target.
	Dest struct {
		Label  ir.Label
		Target ir.Target
	}

	// Func is a lowered switch.
	// Execution starts at Body[0] with the switch value
	// and continues to Next if it falls off the end.
	Func struct {
		Name string
		Body []Instr

		Labels []int // label -> index of its Bind in Body
		Regs   int

		Next ir.Target
	}

	Instr any

	// Arg loads the switch value.
	Arg struct {
		Out [1]ir.Expr
	}

	Imm struct {
		Out  [1]ir.Expr
		Word int64
	}

	Op struct {
		Op  Opcode
		Out [1]ir.Expr
		In  [2]ir.Expr
	}

	// BCond compares the switch value with Key and branches if Cond holds.
	BCond struct {
		Cond ir.Cond
		Key  int64
		To   Dest
	}

	B struct {
		To Dest
	}

	Bind struct {
		Label ir.Label
	}

	// TableJump jumps to Table[In-Min] or to Default if out of the table.
	TableJump struct {
		In      [1]ir.Expr
		Min     int64
		Table   []ir.Target
		Default ir.Target
	}

	// HashJump jumps to Table[In] if the switch value equals Keys[In]
	// and to Default otherwise.
	HashJump struct {
		In      [1]ir.Expr
		Keys    []int64
		Table   []ir.Target
		Default ir.Target
	}
)

const (
	ADD Opcode = "ADD"
	SUB Opcode = "SUB"
	MUL Opcode = "MUL"
	EOR Opcode = "EOR"
	AND Opcode = "AND"
	ORR Opcode = "ORR"
	LSL Opcode = "LSL"
	ASR Opcode = "ASR"
	LSR Opcode = "LSR"
	NEG Opcode = "NEG"
)

func ToTarget(t ir.Target) Dest { return Dest{Label: ir.NoLabel, Target: t} }

func ToLabel(l ir.Label) Dest { return Dest{Label: l, Target: ir.NoTarget} }

func (d Dest) IsLabel() bool { return d.Label != ir.NoLabel }

func (x Op) eval(regs []int64) int64 {
	l, r := regs[x.In[0]], regs[x.In[1]]

	switch x.Op {
	case ADD:
		return l + r
	case SUB:
		return l - r
	case MUL:
		return l * r
	case EOR:
		return l ^ r
	case AND:
		return l & r
	case ORR:
		return l | r
	case LSL:
		return l << (uint64(r) & 63)
	case ASR:
		return l >> (uint64(r) & 63)
	case LSR:
		return int64(uint64(l) >> (uint64(r) & 63))
	case NEG:
		return -l
	default:
		panic(x.Op)
	}
}
