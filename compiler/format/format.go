package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/switchgen/compiler/front"
	"github.com/slowlang/switchgen/compiler/ir"
)

// Format appends x in the switch sites file syntax.
// Every probability is written out, so the result parses back to the same switch.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case []front.Site:
		for i, s := range x {
			if i != 0 {
				b = append(b, '\n')
			}

			b, err = formatSite(ctx, b, s, d)
			if err != nil {
				return nil, errors.Wrap(err, "site %v", s.Name)
			}
		}

		return b, nil
	case front.Site:
		return formatSite(ctx, b, x, d)
	case *ir.Switch:
		return formatCases(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatSite(ctx context.Context, b []byte, x front.Site, d int) (_ []byte, err error) {
	if x.Switch == nil {
		return nil, errors.New("no switch")
	}

	b = app(b, d, "switch %s", x.Name)

	if x.Next != ir.NoTarget {
		b = app(b, 0, " next %d", x.Next)
	}

	b = append(b, " {\n"...)

	b, err = formatCases(ctx, b, x.Switch, d+1)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatCases(ctx context.Context, b []byte, x *ir.Switch, d int) ([]byte, error) {
	if len(x.Probs) != len(x.Keys)+1 || len(x.Targets) != len(x.Keys) {
		return nil, errors.New("malformed switch: %d keys, %d targets, %d probabilities", len(x.Keys), len(x.Targets), len(x.Probs))
	}

	for i, k := range x.Keys {
		b = app(b, d, "%d: %d %v\n", k, x.Targets[i], x.Probs[i])
	}

	b = app(b, d, "default: %d %v\n", x.Default, x.DefaultProb())

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
