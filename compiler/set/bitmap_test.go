package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapAdd(t *testing.T) {
	s := MakeBitmap(300)
	require.Equal(t, 320, s.Cap())

	assert.True(t, s.Add(3))
	assert.True(t, s.Add(200))
	assert.False(t, s.Add(3))
	assert.False(t, s.Add(200))

	assert.True(t, s.Has(3))
	assert.True(t, s.Has(200))
	assert.False(t, s.Has(4))
	assert.False(t, s.Has(-1))
	assert.False(t, s.Has(10000))

	assert.Equal(t, 2, s.Size())

	s.Reset()
	assert.Equal(t, 0, s.Size())
	assert.True(t, s.Add(200))

	assert.Panics(t, func() { s.Add(320) })
	assert.Panics(t, func() { s.Add(-1) })
}

func TestBitmapSmall(t *testing.T) {
	var s Bitmap
	assert.Equal(t, 128, s.Cap())
	assert.True(t, s.Add(127))

	p := NewBitmap(16)
	assert.Equal(t, 128, p.Cap())
}

func TestBitmapRange(t *testing.T) {
	s := NewBitmap(0)

	for _, v := range []int{0, 1, 63, 64, 127} {
		s.Add(v)
	}

	var got []int

	s.Range(func(v int) bool {
		got = append(got, v)
		return true
	})

	assert.Equal(t, []int{0, 1, 63, 64, 127}, got)

	got = got[:0]

	s.Range(func(v int) bool {
		got = append(got, v)
		return v < 63
	})

	assert.Equal(t, []int{0, 1, 63}, got)
}
