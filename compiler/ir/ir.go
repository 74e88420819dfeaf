package ir

type (
	// Expr is a handle of a value produced by an emitter.
	Expr int

	// Label is a forward branch patch handle.
	// It indexes the emitter side table of pending labels.
	Label int

	// Target identifies a control flow destination.
	// It is only ever compared, never dereferenced.
	Target int

	// Cond is the comparison of the switch value against a key.
	// Always means an unconditional jump.
	Cond string
)

const (
	NoLabel Label = -1

	NoTarget Target = -1
)

const (
	Always Cond = ""

	EQ Cond = "EQ"
	NE Cond = "NE"
	LT Cond = "LT"
	LE Cond = "LE"
	GT Cond = "GT"
	GE Cond = "GE"
)

func (c Cond) Negate() Cond {
	switch c {
	case EQ:
		return NE
	case NE:
		return EQ
	case LT:
		return GE
	case GE:
		return LT
	case LE:
		return GT
	case GT:
		return LE
	default:
		panic(c)
	}
}

// Holds reports whether x c y.
func (c Cond) Holds(x, y int64) bool {
	switch c {
	case Always:
		return true
	case EQ:
		return x == y
	case NE:
		return x != y
	case LT:
		return x < y
	case LE:
		return x <= y
	case GT:
		return x > y
	case GE:
		return x >= y
	default:
		panic(c)
	}
}

func (c Cond) String() string {
	if c == Always {
		return "AL"
	}

	return string(c)
}
