// Package opticflow simulates the optic flow produced by self-motion
// through a random cloud of dots.
//
// An observer moves with three translational and three rotational
// velocities. A fixed number of dots live in a viewer-centered frame,
// are displaced every frame by the self-motion, recycled when they leave
// the viewing volume and projected onto the image plane.
// The result of a trial is an ordered sequence of frames, ready to be
// rendered by a separate package.
package opticflow

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfig is returned (wrapped) when a Config is not valid.
var ErrConfig = errors.New("opticflow: invalid configuration")

// A Point is a simple 2D vector.
type Point struct {
	X float64
	Y float64
}

// Config contains all the tunable parameters of a simulation.
type Config struct {
	NumFrames    int           // number of motion frames per trial
	StimDuration time.Duration // duration of the motion part of a trial
	NumDots      int           // number of dots in the cloud

	// lateral extent of freshly drawn dots
	MinVal float64
	MaxVal float64

	// depth clipping planes
	ClipNear float64
	ClipFar  float64

	ViewDist  float64 // viewing distance, unit: same as depth
	StarSize  float64 // marker size at the viewing distance
	NumSigmas float64 // number of standard deviations of the velocity profile per trial

	Fixation Point // position of the fixation marker in image coordinates
}

// DefaultConfig returns the default parameters.
func DefaultConfig() Config {
	return Config{
		NumFrames:    150,
		StimDuration: 3 * time.Second,
		NumDots:      4000,
		MinVal:       -1.0,
		MaxVal:       1.0,
		ClipNear:     0.05,
		ClipFar:      1.50,
		ViewDist:     0.33,
		StarSize:     8,
		NumSigmas:    6,
	}
}

// FrameDuration returns the display duration of a single motion frame.
func (c Config) FrameDuration() time.Duration {
	if c.NumFrames <= 0 {
		return 0
	}
	return c.StimDuration / time.Duration(c.NumFrames)
}

// Validate checks that the parameters describe a runnable simulation.
func (c Config) Validate() error {
	switch {
	case c.NumFrames <= 0:
		return fmt.Errorf("%w: number of frames must be positive, got %d", ErrConfig, c.NumFrames)
	case c.NumDots <= 0:
		return fmt.Errorf("%w: number of dots must be positive, got %d", ErrConfig, c.NumDots)
	case c.ClipNear <= 0:
		return fmt.Errorf("%w: near clipping plane must be positive, got %g", ErrConfig, c.ClipNear)
	case c.ClipFar <= c.ClipNear:
		return fmt.Errorf("%w: far clipping plane (%g) must be beyond near clipping plane (%g)", ErrConfig, c.ClipFar, c.ClipNear)
	case c.MaxVal <= c.MinVal:
		return fmt.Errorf("%w: empty lateral range [%g, %g]", ErrConfig, c.MinVal, c.MaxVal)
	case c.ViewDist <= 0:
		return fmt.Errorf("%w: viewing distance must be positive, got %g", ErrConfig, c.ViewDist)
	case c.StarSize <= 0:
		return fmt.Errorf("%w: star size must be positive, got %g", ErrConfig, c.StarSize)
	case c.NumSigmas <= 0:
		return fmt.Errorf("%w: number of sigmas must be positive, got %g", ErrConfig, c.NumSigmas)
	case c.StimDuration <= 0:
		return fmt.Errorf("%w: stimulus duration must be positive, got %s", ErrConfig, c.StimDuration)
	}
	return nil
}
