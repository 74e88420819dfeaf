package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"golang.org/x/exp/slices"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/switchgen/compiler"
	"github.com/slowlang/switchgen/compiler/asm"
	"github.com/slowlang/switchgen/compiler/back"
	"github.com/slowlang/switchgen/compiler/format"
	"github.com/slowlang/switchgen/compiler/front"
	"github.com/slowlang/switchgen/compiler/hash"
	"github.com/slowlang/switchgen/compiler/ir"
)

func main() {
	def := back.DefaultOptions()

	optFlags := []*cli.Flag{
		cli.NewFlag("policy", "effort", "choose by effort or size"),
		cli.NewFlag("min-table-keys", def.MinTableKeys, "tables are only built for this many keys"),
		cli.NewFlag("max-table-range", int(def.MaxTableRange), "dense table max range"),
		cli.NewFlag("no-hash", false, "disable hash table"),
		cli.NewFlag("no-table", false, "disable dense table"),
	}

	lowerCmd := &cli.Command{
		Name:        "lower",
		Description: "lower a switch given as KEY:TARGET[:PROB] cases",
		Action:      lowerAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("default", 0, "default target"),
			cli.NewFlag("default-prob", "", "default probability, cases with no probability share the rest with default if not set"),
			cli.NewFlag("next", int(ir.NoTarget), "target laid out right after the switch"),
			cli.NewFlag("min", "", "known lower bound of the value"),
			cli.NewFlag("max", "", "known upper bound of the value"),
		}, optFlags...),
	}

	lowerFileCmd := &cli.Command{
		Name:        "lower-file",
		Description: "lower every switch site in files",
		Action:      lowerFileAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("workers", 0, "concurrent sites (GOMAXPROCS by default)"),
		}, optFlags...),
	}

	fmtCmd := &cli.Command{
		Name:        "fmt",
		Description: "print switch sites files in canonical form",
		Action:      fmtAct,
		Args:        cli.Args{},
	}

	hashCmd := &cli.Command{
		Name:        "hash",
		Description: "search for a collision free hash function for keys",
		Action:      hashAct,
		Args:        cli.Args{},
	}

	catalogCmd := &cli.Command{
		Name:        "catalog",
		Description: "list hash functions",
		Action:      catalogAct,
	}

	app := &cli.Command{
		Name:        "switchgen",
		Description: "switchgen chooses and emits switch lowerings",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics (dump_alternatives, hash_search, hash_slots, next_token)"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			lowerCmd,
			lowerFileCmd,
			fmtCmd,
			hashCmd,
			catalogCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func lowerAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	sw, err := parseSwitch(ctx, c)
	if err != nil {
		return errors.Wrap(err, "parse switch")
	}

	if sw.Uninitialized() {
		tlog.Printw("profile carries no information", "keys", sw.Len())
	}

	lo, hi, err := valueRange(c)
	if err != nil {
		return errors.Wrap(err, "value range")
	}

	sw, ok := sw.Prune(lo, hi)
	if !ok {
		fmt.Printf("every value goes to default T%d\n", c.Int("default"))
		return nil
	}

	opts, err := options(c)
	if err != nil {
		return err
	}

	b := asm.NewBuilder("switch", sw, ir.Target(c.Int("next")))

	d, err := back.New(opts).LowerSwitch(ctx, sw, b)
	if err != nil {
		return errors.Wrap(err, "lower")
	}

	for _, a := range d.Alternatives {
		mark := " "
		if a == d.Chosen {
			mark = "*"
		}

		fmt.Printf("%s %-10s  effort %7.4f  size %5d  %v\n", mark, a.Kind(), a.AverageEffort(), a.CodeSize(), a)
	}

	fmt.Printf("\n%v", b.Func)

	return nil
}

func lowerFileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts, err := options(c)
	if err != nil {
		return err
	}

	if w := c.Int("workers"); w != 0 {
		opts.Workers = w
	}

	for _, a := range c.Args {
		obj, err := compiler.LowerFile(ctx, a, opts)
		if err != nil {
			return errors.Wrap(err, "lower %v", a)
		}

		fmt.Printf("%s", obj)
	}

	return nil
}

func fmtAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read file")
		}

		st := front.New()
		st.AddFile(ctx, a, text)

		sites, err := st.Parse(ctx)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		b, err := format.Format(ctx, nil, sites)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		fmt.Printf("%s", b)
	}

	return nil
}

func options(c *cli.Command) (opts back.Options, err error) {
	opts = back.DefaultOptions()
	opts.MinTableKeys = c.Int("min-table-keys")
	opts.MaxTableRange = uint64(c.Int("max-table-range"))
	opts.DisableHash = c.Bool("no-hash")
	opts.DisableTable = c.Bool("no-table")

	switch p := c.String("policy"); p {
	case "effort":
		opts.Policy = back.MinEffort
	case "size":
		opts.Policy = back.MinCodeSize
	default:
		return opts, errors.New("unknown policy: %v", p)
	}

	return opts, nil
}

func hashAct(c *cli.Command) (err error) {
	keys := make([]int64, 0, len(c.Args))

	for _, a := range c.Args {
		k, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return errors.Wrap(err, "key %q", a)
		}

		keys = append(keys, k)
	}

	slices.Sort(keys)
	keys = slices.Compact(keys)

	h, ok := hash.ForKeys(keys)
	if !ok {
		fmt.Printf("no hash function found for %d keys\n", len(keys))
		return nil
	}

	fmt.Printf("%v  seed %d\n", h, h.Seed())

	for _, k := range keys {
		fmt.Printf("%12d -> %d\n", k, h.Hash(k))
	}

	return nil
}

func catalogAct(c *cli.Command) error {
	for _, f := range hash.Instances() {
		fmt.Printf("%d  %v\n", f.Effort(), f)
	}

	return nil
}

// parseSwitch reads KEY:TARGET[:PROB] cases.
func parseSwitch(ctx context.Context, c *cli.Command) (*ir.Switch, error) {
	cases := make([]front.Case, 0, len(c.Args))

	for _, a := range c.Args {
		cs, err := front.ParseCase(ctx, a)
		if err != nil {
			return nil, errors.Wrap(err, "case %q", a)
		}

		cases = append(cases, cs)
	}

	def := front.Case{}
	def.Target = ir.Target(c.Int("default"))

	if s := c.String("default-prob"); s != "" {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrap(err, "default probability")
		}

		def.Prob = p
		def.HasProb = true
	}

	return front.Switch(cases, def)
}

func valueRange(c *cli.Command) (lo, hi int64, err error) {
	lo, hi = math.MinInt64, math.MaxInt64

	if s := c.String("min"); s != "" {
		lo, err = strconv.ParseInt(s, 0, 64)
		if err != nil {
			return
		}
	}

	if s := c.String("max"); s != "" {
		hi, err = strconv.ParseInt(s, 0, 64)
		if err != nil {
			return
		}
	}

	if lo > hi {
		return 0, 0, errors.New("min %d is greater than max %d", lo, hi)
	}

	return lo, hi, nil
}
