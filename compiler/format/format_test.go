package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/switchgen/compiler/front"
	"github.com/slowlang/switchgen/compiler/ir"
)

func TestFormatRoundTrip(t *testing.T) {
	ctx := context.Background()

	st := front.New()
	st.AddFile(ctx, "a.sw", []byte(`
switch a next 3 { 13: 3; 10: 1 0.5; 11: 2 0.25; default: 0 0.125 }
switch b { -1: 1; 0x20: 2 5e-1; default: 7 }
`))

	sites, err := st.Parse(ctx)
	require.NoError(t, err)

	b, err := Format(ctx, nil, sites)
	require.NoError(t, err)

	assert.Equal(t, `switch a next 3 {
	10: 1 0.5
	11: 2 0.25
	13: 3 0.125
	default: 0 0.125
}

switch b {
	-1: 1 0.25
	32: 2 0.5
	default: 7 0.25
}
`, string(b))

	st = front.New()
	st.AddFile(ctx, "b.sw", b)

	again, err := st.Parse(ctx)
	require.NoError(t, err)
	require.Len(t, again, len(sites))

	for i := range sites {
		assert.Equal(t, sites[i].Name, again[i].Name)
		assert.Equal(t, sites[i].Next, again[i].Next)
		assert.Equal(t, sites[i].Switch, again[i].Switch)
	}
}

func TestFormatErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Format(ctx, nil, 5)
	assert.Error(t, err)

	_, err = Format(ctx, nil, &ir.Switch{Keys: []int64{1}})
	assert.Error(t, err)

	_, err = Format(ctx, nil, front.Site{Name: "x"})
	assert.Error(t, err)
}
