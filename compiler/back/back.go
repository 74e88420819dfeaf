package back

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/switchgen/compiler/asm"
	"github.com/slowlang/switchgen/compiler/hash"
	"github.com/slowlang/switchgen/compiler/ir"
	"github.com/slowlang/switchgen/compiler/strategy"
)

type (
	// Emitter is everything an alternative may emit.
	Emitter interface {
		strategy.Closure
		hash.Arith

		// Value is the switch value.
		Value() ir.Expr

		// TableJump jumps to table[x-lo] or to default if x is out of the table.
		TableJump(x ir.Expr, lo int64, table []ir.Target)

		// HashJump jumps to table[x] if the value is keys[x] and to default otherwise.
		HashJump(x ir.Expr, keys []int64, table []ir.Target)
	}

	Compiler struct {
		opts Options
	}

	Decision struct {
		Chosen       Alternative
		Alternatives []Alternative
	}

	// Site is a switch to be lowered into its own Func.
	Site struct {
		Name   string
		Switch *ir.Switch
		Next   ir.Target // laid out right after the switch
	}
)

var _ Emitter = &asm.Builder{}

func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// LowerSwitch chooses the best alternative for sw and emits it into e.
// e must be bound to the same switch.
func (c *Compiler) LowerSwitch(ctx context.Context, sw *ir.Switch, e Emitter) (d Decision, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "lower switch", "switch", sw)
	defer tr.Finish("err", &err)

	err = sw.Validate()
	if err != nil {
		return Decision{}, errors.Wrap(err, "switch")
	}

	d.Alternatives = Alternatives(sw, c.opts)
	d.Chosen = Choose(d.Alternatives, c.opts.Policy)

	if tr.If("dump_alternatives") {
		for _, a := range d.Alternatives {
			tr.Printw("alternative", "kind", a.Kind(), "effort", a.AverageEffort(), "size", a.CodeSize())
		}
	}

	d.Chosen.Emit(e)

	tr.Printw("lowered", "decision", d)

	return d, nil
}

// LowerAll lowers independent switches concurrently, each into its own Func.
func (c *Compiler) LowerAll(ctx context.Context, sites []Site) (_ []*asm.Func, _ []Decision, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower switches", "sites", len(sites), "workers", c.opts.Workers)
	defer tr.Finish("err", &err)

	fs := make([]*asm.Func, len(sites))
	ds := make([]Decision, len(sites))

	g, ctx := errgroup.WithContext(ctx)

	if c.opts.Workers > 0 {
		g.SetLimit(c.opts.Workers)
	}

	for i, site := range sites {
		i, site := i, site

		g.Go(func() (err error) {
			name := site.Name
			if name == "" {
				name = fmt.Sprintf("switch%d", i)
			}

			b := asm.NewBuilder(name, site.Switch, site.Next)

			ds[i], err = c.LowerSwitch(ctx, site.Switch, b)
			if err != nil {
				return errors.Wrap(err, "site %v", name)
			}

			fs[i] = b.Func

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, nil, err
	}

	return fs, ds, nil
}

func (d Decision) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if d.Chosen == nil {
		return e.AppendNil(b)
	}

	b = e.AppendMap(b, 4)

	b = e.AppendKeyValue(b, "chosen", d.Chosen.Kind())
	b = e.AppendKeyValue(b, "effort", d.Chosen.AverageEffort())
	b = e.AppendKeyInt(b, "size", d.Chosen.CodeSize())

	b = e.AppendKey(b, "alternatives")
	b = e.AppendArray(b, len(d.Alternatives))

	for _, a := range d.Alternatives {
		b = e.AppendValue(b, a.Kind())
	}

	return b
}
