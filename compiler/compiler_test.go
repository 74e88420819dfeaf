package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/switchgen/compiler/back"
)

const sites = `# scenario a
switch a { 10: 1 0.5; 11: 2 0.3; 13: 3 0.2; default: 0 0 }

switch b next 5 {
	1: 5
	2: 6
	default: 0
}
`

func TestLower(t *testing.T) {
	obj, err := Lower(context.Background(), "x.sw", []byte(sites), back.DefaultOptions())
	require.NoError(t, err)

	t.Logf("listing\n%s", obj)

	assert.Contains(t, string(obj), "// x.sw:2:1: Sequential, effort 1.7000, size 24\na:\n")
	assert.Contains(t, string(obj), "// x.sw:4:1: Sequential, effort 1.6667, size 16\nb:\n")
	assert.Contains(t, string(obj), "	// fallthrough T5\n")
}

func TestLowerFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sites.sw")

	err := os.WriteFile(name, []byte(sites), 0o644)
	require.NoError(t, err)

	obj, err := LowerFile(context.Background(), name, back.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, string(obj), "a:\n")

	_, err = LowerFile(context.Background(), name+".missing", back.DefaultOptions())
	assert.Error(t, err)

	_, err = Lower(context.Background(), "bad.sw", []byte("switch a { 1: 1 }"), back.DefaultOptions())
	assert.Error(t, err)
}
