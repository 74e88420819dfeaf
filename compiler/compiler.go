package compiler

import (
	"context"
	"os"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/switchgen/compiler/back"
	"github.com/slowlang/switchgen/compiler/front"
)

func LowerFile(ctx context.Context, name string, opts back.Options) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Lower(ctx, name, text, opts)
}

// Lower parses switch sites from text, lowers them and returns their listings.
func Lower(ctx context.Context, name string, text []byte, opts back.Options) (obj []byte, err error) {
	st := front.New()

	st.AddFile(ctx, name, text)

	sites, err := st.Parse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	bs := make([]back.Site, len(sites))

	for i, s := range sites {
		bs[i] = back.Site{
			Name:   s.Name,
			Switch: s.Switch,
			Next:   s.Next,
		}
	}

	fs, ds, err := back.New(opts).LowerAll(ctx, bs)
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	for i, f := range fs {
		if i != 0 {
			obj = append(obj, '\n')
		}

		d := ds[i]

		obj = hfmt.Appendf(obj, "// %s: %v, effort %.4f, size %d\n", sites[i].Pos, d.Chosen.Kind(), d.Chosen.AverageEffort(), d.Chosen.CodeSize())
		obj = f.Append(obj)
	}

	return obj, nil
}
