package front

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/switchgen/compiler/ir"
)

/*
Switch sites file

	# comment
	switch dispatch next 3 {
		10: 1 0.5
		11: 2 0.3
		13: 3
		default: 0 0.1
	}

Every case is KEY: TARGET [PROB].
Cases with no probability share what is left evenly.
*/

type (
	State struct {
		b []byte // all files concatenated

		files []file
	}

	// Site is a parsed switch.
	Site struct {
		Name   string
		Pos    string
		Switch *ir.Switch
		Next   ir.Target
	}

	Token interface{}

	Char    byte
	Keyword []byte
	Number  []byte
	Ident   []byte

	file struct {
		Name string
		Base int
	}

	UnexpectedError struct {
		Token Token
		Want  []Token
	}
)

func New() *State {
	return &State{}
}

func (s *State) AddFile(ctx context.Context, name string, text []byte) {
	f := file{
		Name: name,
		Base: len(s.b),
	}

	s.b = append(s.b, text...)

	if len(text) != 0 && text[len(text)-1] != '\n' {
		s.b = append(s.b, '\n')
	}

	s.files = append(s.files, f)
}

func (s *State) Parse(ctx context.Context) (sites []Site, err error) {
	tr := tlog.SpanFromContext(ctx)

	for i := 0; ; {
		tk, tst, e := s.next(ctx, i)

		switch tk {
		case nil:
			return sites, nil
		case Char('\n'), Char(';'):
			i = e
			continue
		}

		var site Site

		site, i, err = s.parseSite(ctx, tst)
		if err != nil {
			return nil, errors.Wrap(err, "at %v", s.Pos(i))
		}

		tr.Printw("site", "name", site.Name, "pos", site.Pos, "switch", site.Switch)

		sites = append(sites, site)
	}
}

func (s *State) parseSite(ctx context.Context, st int) (site Site, i int, err error) {
	tk, tst, i := s.next(ctx, st)
	if kw, ok := tk.(Keyword); !ok || string(kw) != "switch" {
		return site, tst, NewUnexpected(tk, Keyword("switch"))
	}

	tk, tst, i = s.next(ctx, i)
	name, ok := tk.(Ident)
	if !ok {
		return site, tst, NewUnexpected(tk, Ident{})
	}

	site.Name = string(name)
	site.Pos = s.Pos(st)
	site.Next = ir.NoTarget

	tk, tst, e := s.next(ctx, i)
	if kw, ok := tk.(Keyword); ok && string(kw) == "next" {
		var next int64

		next, i, err = s.parseInt(ctx, e)
		if err != nil {
			return site, i, errors.Wrap(err, "next")
		}

		site.Next = ir.Target(next)
	}

	tk, tst, i = s.next(ctx, i)
	if tk != Char('{') {
		return site, tst, NewUnexpected(tk, Char('{'))
	}

	var cases []Case
	def := Case{Case: ir.Case{Target: ir.NoTarget}}
	hasDef := false

loop:
	for {
		j := i
		tk, tst, i = s.next(ctx, i)

		switch tk := tk.(type) {
		case Char:
			switch tk {
			case '\n', ';':
				continue
			case '}':
				break loop
			}
		case Keyword:
			if string(tk) != "default" || hasDef {
				return site, tst, NewUnexpected(tk, Number{}, Char('}'))
			}

			def, i, err = s.parseCaseTail(ctx, i, 0)
			if err != nil {
				return site, i, errors.Wrap(err, "default")
			}

			hasDef = true

			continue
		case nil:
			return site, tst, NewUnexpected(tk, Char('}'))
		}

		var c Case

		c, i, err = s.parseCase(ctx, j)
		if err != nil {
			return site, i, errors.Wrap(err, "case")
		}

		cases = append(cases, c)
	}

	if !hasDef {
		return site, tst, errors.New("no default")
	}

	site.Switch, err = Switch(cases, def)
	if err != nil {
		return site, tst, errors.Wrap(err, "switch %v", site.Name)
	}

	return site, i, nil
}

// parseCase parses KEY: TARGET [PROB].
func (s *State) parseCase(ctx context.Context, st int) (c Case, i int, err error) {
	key, i, err := s.parseInt(ctx, st)
	if err != nil {
		return c, i, errors.Wrap(err, "key")
	}

	return s.parseCaseTail(ctx, i, key)
}

func (s *State) parseCaseTail(ctx context.Context, st int, key int64) (c Case, i int, err error) {
	tk, tst, i := s.next(ctx, st)
	if tk != Char(':') {
		return c, tst, NewUnexpected(tk, Char(':'))
	}

	t, i, err := s.parseInt(ctx, i)
	if err != nil {
		return c, i, errors.Wrap(err, "target")
	}

	c.Key = key
	c.Target = ir.Target(t)

	tk, tst, e := s.next(ctx, i)
	if tk == Char(':') {
		tk, tst, e = s.next(ctx, e)
	}

	n, ok := tk.(Number)
	if !ok {
		return c, i, nil
	}

	c.Prob, err = strconv.ParseFloat(string(n), 64)
	if err != nil {
		return c, tst, errors.Wrap(err, "probability")
	}

	c.HasProb = true

	return c, e, nil
}

func (s *State) parseInt(ctx context.Context, st int) (x int64, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	n, ok := tk.(Number)
	if !ok {
		return 0, tst, NewUnexpected(tk, Number{})
	}

	x, err = strconv.ParseInt(string(n), 0, 64)
	if err != nil {
		return 0, tst, errors.Wrap(err, "parse int")
	}

	return x, i, nil
}

func (s *State) next(ctx context.Context, st int) (tk Token, tst int, i int) {
	if tr := tlog.SpanFromContext(ctx); tr.If("next_token") {
		defer func(st int) {
			tr.Printw("next token", "st", st, "tk", tk, "tst", tst, "i", i, "from", loc.Callers(1, 3))
		}(st)
	}

	st = skipSpaces(s.b, st)
	i = st

	if i == len(s.b) {
		return nil, st, i
	}

	c := s.b[i]

	switch c {
	case '{', '}', ':', ';', '\n':
		return Char(c), st, i + 1
	}

	switch {
	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		e := skipIdent(s.b, i)

		switch string(s.b[i:e]) {
		case "switch", "default", "next":
			return Keyword(s.b[i:e]), st, e
		}

		return Ident(s.b[i:e]), st, e
	case c >= '0' && c <= '9' || c == '-' || c == '+' || c == '.':
		e := skipNum(s.b, i+1)
		return Number(s.b[i:e]), st, e
	default:
		return Char(c), st, i + 1
	}
}

// Pos returns file:line:col of offset i.
func (s *State) Pos(i int) string {
	f := file{Name: "-"}

	for _, x := range s.files {
		if x.Base > i {
			break
		}

		f = x
	}

	b := s.b[f.Base:min(i, len(s.b))]

	line := 1 + bytes.Count(b, []byte{'\n'})
	col := len(b) - bytes.LastIndexByte(b, '\n')

	return fmt.Sprintf("%s:%d:%d", f.Name, line, col)
}

func NewUnexpected(got Token, want ...Token) error {
	return UnexpectedError{
		Token: got,
		Want:  want,
	}
}

func (e UnexpectedError) Error() string {
	l := make([]string, len(e.Want))

	for i := range e.Want {
		l[i] = fmt.Sprintf("%T", e.Want[i])
	}

	if e.Token == nil {
		return fmt.Sprintf("unexpected end of file, want: %v", strings.Join(l, ", "))
	}

	return fmt.Sprintf("unexpected token: %q (%[1]T) want: %v", e.Token, strings.Join(l, ", "))
}

func skipNum(b []byte, i int) int {
	for i < len(b) && (b[i] >= '0' && b[i] <= '9' || b[i] >= 'a' && b[i] <= 'z' || b[i] >= 'A' && b[i] <= 'Z' || b[i] == '.' || b[i] == '_' ||
		(b[i] == '-' || b[i] == '+') && (b[i-1] == 'e' || b[i-1] == 'E')) {
		i++
	}

	return i
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (b[i] >= 'a' && b[i] <= 'z' || b[i] >= 'A' && b[i] <= 'Z' || b[i] >= '0' && b[i] <= '9' || b[i] == '_') {
		i++
	}

	return i
}

// skipSpaces skips blanks and comments, but not newlines.
func skipSpaces(b []byte, i int) int {
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\r':
			i++
		case '#':
			for i < len(b) && b[i] != '\n' {
				i++
			}
		default:
			return i
		}
	}

	return i
}

func (c Char) String() string {
	return string(c)
}

func (k Keyword) String() string { return string(k) }

func (n Number) String() string { return string(n) }

func (x Ident) String() string { return string(x) }
