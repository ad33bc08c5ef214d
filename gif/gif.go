// Package gif turns the frames of optic flow trials into an animated GIF.
//
// Each trial is preceded by a frame showing only the fixation cross.
// Frames of a trial are rendered concurrently but always appear in
// presentation order.
package gif

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/PrincetonUniversity/opticflow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultFixationDelay is the display duration of fixation frames.
const DefaultFixationDelay = 250 * time.Millisecond

// Frames is a single-pass sequence of frames, such as an opticflow.Stream.
type Frames interface {
	Next() bool
	Frame() opticflow.Frame
}

// Config holds the parameters of the GIF driver.
type Config struct {
	Renderer      *Renderer     // rasterizer, required
	FixationDelay time.Duration // display duration of fixation frames
	FrameDelay    time.Duration // display duration of motion frames
	Workers       int           // maximum number of frames rendered at once, 0 means GOMAXPROCS
	Logger        *zap.Logger   // optional
}

// A Writer accumulates the frames of successive trials.
type Writer struct {
	conf Config
	log  *zap.Logger
	out  gif.GIF
}

// NewWriter returns a writer with no frames.
func NewWriter(conf Config) (*Writer, error) {
	if conf.Renderer == nil {
		return nil, fmt.Errorf("gif: no renderer")
	}
	if conf.Renderer.Width <= 0 || conf.Renderer.Height <= 0 {
		return nil, fmt.Errorf("gif: bad image size %d×%d", conf.Renderer.Width, conf.Renderer.Height)
	}
	if conf.Workers <= 0 {
		conf.Workers = runtime.GOMAXPROCS(0)
	}
	w := &Writer{conf: conf, log: conf.Logger}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	return w, nil
}

// Len returns the number of frames written so far, fixation frames included.
func (w *Writer) Len() int {
	return len(w.out.Image)
}

// AddTrial consumes frames and appends a fixation frame followed by all
// the motion frames of the trial. A trial without frames adds nothing.
// On error, no frame of the trial is kept.
func (w *Writer) AddTrial(ctx context.Context, frames Frames) error {
	var g errgroup.Group
	g.SetLimit(w.conf.Workers)

	// one slot per output image, filled concurrently
	var slots []**image.Paletted
	for ctx.Err() == nil && frames.Next() {
		f := frames.Frame()
		if len(slots) == 0 {
			slot := new(*image.Paletted)
			slots = append(slots, slot)
			g.Go(func() error {
				*slot = w.conf.Renderer.RenderFixation(f.Fixation)
				return nil
			})
		}
		slot := new(*image.Paletted)
		slots = append(slots, slot)
		g.Go(func() error {
			*slot = w.conf.Renderer.Render(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(slots) == 0 {
		w.log.Warn("trial without frames")
		return nil
	}

	for i, slot := range slots {
		delay := w.conf.FrameDelay
		if i == 0 {
			delay = w.conf.FixationDelay
		}
		w.out.Image = append(w.out.Image, *slot)
		w.out.Delay = append(w.out.Delay, centiseconds(delay))
	}
	w.log.Debug("trial rendered", zap.Int("frames", len(slots)-1))
	return nil
}

// Encode writes the animation to out.
func (w *Writer) Encode(out io.Writer) error {
	if len(w.out.Image) == 0 {
		return fmt.Errorf("gif: no frames")
	}
	return gif.EncodeAll(out, &w.out)
}

// Save writes the animation to a file, creating parent directories as needed.
func (w *Writer) Save(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := w.Encode(f); err != nil {
		return err
	}
	w.log.Info("animation saved", zap.String("path", path), zap.Int("frames", w.Len()))
	return nil
}

// centiseconds converts a duration to GIF delay units.
func centiseconds(d time.Duration) int {
	return int(math.Round(d.Seconds() * 100))
}
