package gif

import (
	"bytes"
	"context"
	"image/gif"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PrincetonUniversity/opticflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceFrames replays a fixed list of frames.
type sliceFrames struct {
	frames []opticflow.Frame
	i      int
}

func (s *sliceFrames) Next() bool {
	if s.i >= len(s.frames) {
		return false
	}
	s.i++
	return true
}

func (s *sliceFrames) Frame() opticflow.Frame {
	return s.frames[s.i-1]
}

func testWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(Config{
		Renderer:      NewRenderer(64, 48),
		FixationDelay: DefaultFixationDelay,
		FrameDelay:    20 * time.Millisecond,
		Workers:       3,
	})
	require.NoError(t, err)
	return w
}

func TestNewWriterErrors(t *testing.T) {
	_, err := NewWriter(Config{})
	assert.Error(t, err)
	_, err = NewWriter(Config{Renderer: NewRenderer(0, 10)})
	assert.Error(t, err)
}

func TestAddTrialOrder(t *testing.T) {
	w := testWriter(t)

	// frame k has k+1 stars, which makes frames distinguishable once rendered
	var frames []opticflow.Frame
	for k := 0; k < 8; k++ {
		f := opticflow.Frame{}
		for i := 0; i <= k; i++ {
			f.Stars = append(f.Stars, opticflow.Star{
				Point: opticflow.Point{X: -0.9 + 0.2*float64(i), Y: 0.5},
				Size:  20,
			})
		}
		frames = append(frames, f)
	}
	r := testWriter(t).conf.Renderer

	require.NoError(t, w.AddTrial(context.Background(), &sliceFrames{frames: frames}))
	require.NoError(t, w.AddTrial(context.Background(), &sliceFrames{frames: frames[:2]}))
	require.Equal(t, 1+8+1+2, w.Len())

	assert.Equal(t, []int{25, 2, 2, 2, 2, 2, 2, 2, 2, 25, 2, 2}, w.out.Delay)
	assert.Equal(t, r.RenderFixation(opticflow.Point{}).Pix, w.out.Image[0].Pix)
	for k, f := range frames {
		assert.Equal(t, r.Render(f).Pix, w.out.Image[1+k].Pix, "frame %d", k)
	}
	assert.Equal(t, w.out.Image[0].Pix, w.out.Image[9].Pix)
}

func TestAddTrialEmpty(t *testing.T) {
	w := testWriter(t)
	require.NoError(t, w.AddTrial(context.Background(), &sliceFrames{}))
	assert.Zero(t, w.Len())
	assert.Error(t, w.Encode(&bytes.Buffer{}))
}

func TestAddTrialCanceled(t *testing.T) {
	w := testWriter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.AddTrial(ctx, &sliceFrames{frames: make([]opticflow.Frame, 3)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, w.Len())
}

func TestAddTrialFromSimulation(t *testing.T) {
	conf := opticflow.DefaultConfig()
	conf.NumFrames = 12
	conf.NumDots = 300
	sim, err := opticflow.NewSimulation(conf, rand.NewPCG(1, 2))
	require.NoError(t, err)

	w := testWriter(t)
	for _, v := range []opticflow.Velocity{{W: 0.5}, {U: 0.3, C: 0.1}} {
		require.NoError(t, w.AddTrial(context.Background(), sim.Run(v)))
	}
	assert.Equal(t, 2*(1+conf.NumFrames), w.Len())

	path := filepath.Join(t.TempDir(), "out", "flow.gif")
	require.NoError(t, w.Save(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, w.Len())
	assert.Equal(t, 25, g.Delay[0])
	assert.Equal(t, 2, g.Delay[1])
	assert.Equal(t, 25, g.Delay[1+conf.NumFrames])
	assert.Equal(t, 64, g.Config.Width)
	assert.Equal(t, 48, g.Config.Height)
}

func TestSaveError(t *testing.T) {
	w := testWriter(t)
	require.NoError(t, w.AddTrial(context.Background(), &sliceFrames{frames: make([]opticflow.Frame, 1)}))

	// parent is a regular file
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	assert.Error(t, w.Save(filepath.Join(blocker, "out.gif")))
}

func TestCentiseconds(t *testing.T) {
	assert.Equal(t, 25, centiseconds(DefaultFixationDelay))
	assert.Equal(t, 2, centiseconds(20*time.Millisecond))
	assert.Equal(t, 3, centiseconds(25*time.Millisecond))
	assert.Equal(t, 0, centiseconds(0))
}
