package front

import (
	"context"

	"github.com/slowlang/switchgen/compiler/ir"
)

type (
	// Case is a switch case with an optional probability.
	Case struct {
		ir.Case

		HasProb bool
	}
)

// ParseCase parses a single KEY:TARGET[:PROB] case.
func ParseCase(ctx context.Context, text string) (c Case, err error) {
	s := &State{b: []byte(text)}

	c, i, err := s.parseCase(ctx, 0)
	if err != nil {
		return c, err
	}

	if tk, tst, _ := s.next(ctx, i); tk != nil {
		return c, NewUnexpected(s.b[tst:])
	}

	return c, nil
}

// Switch builds a switch from cases in any order.
// def.Target is the default target.
// Cases and the default with no probability share what is left evenly.
// The default gets the rest if every case has a probability.
func Switch(cases []Case, def Case) (*ir.Switch, error) {
	var given float64
	var missing []int

	cs := make([]ir.Case, len(cases))

	for i, c := range cases {
		cs[i] = c.Case

		if c.HasProb {
			given += c.Prob
		} else {
			missing = append(missing, i)
		}
	}

	defProb := def.Prob

	switch {
	case def.HasProb:
		given += defProb
	case len(missing) == 0:
		defProb = max(0, 1-given)
		given += defProb
	default:
		missing = append(missing, -1)
	}

	rest := max(0, 1-given)

	for _, i := range missing {
		p := rest / float64(len(missing))

		if i < 0 {
			defProb = p
		} else {
			cs[i].Prob = p
		}
	}

	return ir.FromCases(cs, def.Target, defProb)
}
