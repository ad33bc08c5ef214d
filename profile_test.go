package opticflow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestProfileSums(t *testing.T) {
	cases := []struct {
		name   string
		v      Velocity
		frames int
	}{
		{"translation", Velocity{U: 1, V: -0.5, W: 0.25}, 150},
		{"rotation", Velocity{A: 0.1, B: -0.2, C: 0.3}, 150},
		{"mixed odd frames", Velocity{U: 0.3, V: 0.1, W: -0.4, A: 0.05, B: 0.02, C: -0.01}, 37},
		{"single frame", Velocity{U: 2, W: -1, C: 0.5}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProfile(tc.v, tc.frames, 6)
			require.Equal(t, tc.frames, p.Len())
			for _, c := range []struct {
				seq []float64
				net float64
			}{
				{p.U, tc.v.U}, {p.V, tc.v.V}, {p.W, tc.v.W},
				{p.A, tc.v.A}, {p.B, tc.v.B}, {p.C, tc.v.C},
			} {
				require.Len(t, c.seq, tc.frames)
				assert.InDelta(t, c.net, floats.Sum(c.seq), 1e-9*math.Max(1, math.Abs(c.net)))
			}
		})
	}
}

func TestProfileZeroVelocity(t *testing.T) {
	p := NewProfile(Velocity{U: 1}, 20, 6)
	for i := 0; i < p.Len(); i++ {
		v := p.At(i)
		assert.Zero(t, v.V)
		assert.Zero(t, v.W)
		assert.Zero(t, v.A)
		assert.Zero(t, v.B)
		assert.Zero(t, v.C)
		assert.Positive(t, v.U)
	}
}

func TestKernelShape(t *testing.T) {
	const n = 150
	w := Kernel(n, 6)
	require.Len(t, w, n)
	assert.InDelta(t, 1, floats.Sum(w), 1e-12)

	// peak in the middle, symmetric around n/2
	assert.Equal(t, n/2, floats.MaxIdx(w))
	for i := 1; i < n/2; i++ {
		assert.InDelta(t, w[n/2-i], w[n/2+i], 1e-15)
	}

	// ramps up then down
	for i := 1; i <= n/2; i++ {
		assert.Greater(t, w[i], w[i-1])
	}
	for i := n/2 + 1; i < n; i++ {
		assert.Less(t, w[i], w[i-1])
	}
	assert.Less(t, w[0], w[n/2]/50)
}

func TestKernelDegenerate(t *testing.T) {
	assert.Nil(t, Kernel(0, 6))
	assert.Equal(t, []float64{1}, Kernel(1, 6))

	// too narrow to be sampled: everything on the center frame
	w := Kernel(5, 1e9)
	assert.Equal(t, []float64{0, 0, 1, 0, 0}, w)
}
