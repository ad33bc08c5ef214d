package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/PrincetonUniversity/opticflow"
	"github.com/PrincetonUniversity/opticflow/gif"
	"github.com/PrincetonUniversity/opticflow/hdf5"
)

// Config holds the various parameters required for running a simulation.
type Config struct {
	Output   string // path of the output GIF file
	Record   string // optional HDF5 file receiving every projected frame
	LogLevel string // possible values: debug, info, warn, error
	Seed     uint64 // seed of the random source, 0 means time-based

	// Rendering parameters
	Width            int           // unit: pixel
	Height           int           // unit: pixel
	Dither           bool          // Floyd-Steinberg dithering of rendered frames
	Workers          int           // frames rendered in parallel, 0 means one per CPU
	FixationDuration time.Duration // display duration of fixation frames

	// Simulation parameters
	NumFrames    int           // motion frames per trial
	StimDuration time.Duration // duration of the motion part of a trial
	NumDots      int           // number of dots
	MinVal       float64       // unit: distance
	MaxVal       float64       // unit: distance
	ClipNear     float64       // unit: distance
	ClipFar      float64       // unit: distance
	ViewDist     float64       // unit: distance
	StarSize     float64       // unit: point
	NumSigmas    float64       // unit: 1
	FixationX    float64       // unit: image plane
	FixationY    float64       // unit: image plane

	// Trials are either listed inline or read from an HDF5 file
	Trials        []opticflow.Velocity
	TrialsPath    string // HDF5 (or MATLAB -v7.3) file
	TrialsDataset string // name of the N×6 or 6×N dataset
}

// DefaultConf are the default parameters.
var DefaultConf = &Config{
	Output:           "opticflow.gif",
	LogLevel:         "info",
	Width:            400,
	Height:           400,
	FixationDuration: gif.DefaultFixationDelay,
	NumFrames:        150,
	StimDuration:     3 * time.Second,
	NumDots:          4000,
	MinVal:           -1.0,
	MaxVal:           1.0,
	ClipNear:         0.05,
	ClipFar:          1.50,
	ViewDist:         0.33,
	StarSize:         8,
	NumSigmas:        6,
	TrialsDataset:    hdf5.DefaultDataset,
}

// ParseConfig parses the TOML config file whose path is provided.
func ParseConfig(path string) (*Config, error) {
	// config file overwrites default parameters
	conf := *DefaultConf
	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return nil, err
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("%s: unknown keys %v", path, keys)
	}
	return &conf, nil
}

// Simulation returns the parameters of the simulation core.
func (c *Config) Simulation() opticflow.Config {
	return opticflow.Config{
		NumFrames:    c.NumFrames,
		StimDuration: c.StimDuration,
		NumDots:      c.NumDots,
		MinVal:       c.MinVal,
		MaxVal:       c.MaxVal,
		ClipNear:     c.ClipNear,
		ClipFar:      c.ClipFar,
		ViewDist:     c.ViewDist,
		StarSize:     c.StarSize,
		NumSigmas:    c.NumSigmas,
		Fixation:     opticflow.Point{X: c.FixationX, Y: c.FixationY},
	}
}

// LoadTrials returns the trials listed in the config file,
// followed by those of the HDF5 file if any.
func (c *Config) LoadTrials() ([]opticflow.Velocity, error) {
	trials := append([]opticflow.Velocity(nil), c.Trials...)
	if c.TrialsPath != "" {
		t, err := hdf5.LoadTrials(c.TrialsPath, c.TrialsDataset)
		if err != nil {
			return nil, fmt.Errorf("loading trials: %w", err)
		}
		trials = append(trials, t...)
	}
	if len(trials) == 0 {
		return nil, fmt.Errorf("no trials: set Trials or TrialsPath in the config file")
	}
	return trials, nil
}
