// Command opticflow renders optic flow stimuli: random dot clouds seen
// by an observer in self-motion.
//
// # Usage
//
// The opticflow command takes one optional argument:
//
//	opticflow [config_file]
//
// It is the path to a TOML config file.
// Without a config file, default parameters are used and there are no trials,
// so a config file is needed in practice.
//
// # Config file
//
// The config file is written in TOML. It sets the simulation parameters
// and the trials, either inline:
//
//	Output = "out/heading.gif"
//	Seed = 42
//
//	[[Trials]]
//	W = 0.5
//
//	[[Trials]]
//	U = 0.2
//	B = -0.05
//
// or from an HDF5 file (MATLAB -v7.3 files are HDF5 files):
//
//	TrialsPath = "trials.mat"
//	TrialsDataset = "velocities"
//
// Each trial appears in the output GIF as one fixation frame followed by
// the motion frames of the trial.
// When Record is set, the projected dots of every frame are also saved to
// that HDF5 file for offline analysis.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/PrincetonUniversity/opticflow"
	"github.com/PrincetonUniversity/opticflow/gif"
	"github.com/PrincetonUniversity/opticflow/hdf5"
	"go.uber.org/zap"
)

const usage = `Usage: opticflow [config_file]

The first argument is optional and is the path to a TOML config file.
`

func main() {
	var conf *Config
	var err error
	switch len(os.Args) {
	case 1:
		conf = DefaultConf
	case 2:
		conf, err = ParseConfig(os.Args[1])
	default:
		err = fmt.Errorf("%d arguments provided (0 required, 1 optional)\n\n%s", len(os.Args)-1, usage)
	}
	if err != nil {
		Fatal(err)
	}

	log, err := newLogger(conf.LogLevel)
	if err != nil {
		Fatal(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, conf, log); err != nil {
		log.Sync()
		Fatal(err)
	}
}

// Fatal prints an error on the standard error and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

// newLogger returns a console logger at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// run simulates all trials and saves the animation.
func run(ctx context.Context, conf *Config, log *zap.Logger) (err error) {
	trials, err := conf.LoadTrials()
	if err != nil {
		return err
	}

	seed := conf.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sim, err := opticflow.NewSimulation(conf.Simulation(), rand.NewPCG(seed, seed))
	if err != nil {
		return err
	}

	r := gif.NewRenderer(conf.Width, conf.Height)
	r.Dither = conf.Dither
	w, err := gif.NewWriter(gif.Config{
		Renderer:      r,
		FixationDelay: conf.FixationDuration,
		FrameDelay:    sim.Conf.FrameDuration(),
		Workers:       conf.Workers,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	var rec *hdf5.Recorder
	if conf.Record != "" {
		rec, err = hdf5.NewRecorder(conf.Record, sim.Conf, len(trials))
		if err != nil {
			return err
		}
		defer checkClose(&err, rec)
	}

	log.Info("simulating",
		zap.Int("trials", len(trials)),
		zap.Int("frames", sim.Conf.NumFrames),
		zap.Int("dots", sim.Conf.NumDots),
		zap.Uint64("seed", seed))

	for i, t := range trials {
		var frames gif.Frames = sim.Run(t)
		if rec != nil {
			frames = &recording{Frames: frames, rec: rec, trial: i}
		}
		if err := w.AddTrial(ctx, frames); err != nil {
			return fmt.Errorf("trial %d: %w", i+1, err)
		}
		if r, ok := frames.(*recording); ok && r.err != nil {
			return fmt.Errorf("trial %d: %w", i+1, r.err)
		}
		log.Info("trial done", zap.Int("trial", i+1), zap.Int("of", len(trials)))
	}
	return w.Save(conf.Output)
}

// recording saves frames to an HDF5 file as they are consumed.
type recording struct {
	gif.Frames
	rec   *hdf5.Recorder
	trial int
	k     int
	err   error
}

func (r *recording) Next() bool {
	if r.err != nil || !r.Frames.Next() {
		return false
	}
	r.err = r.rec.WriteFrame(r.trial, r.k, r.Frames.Frame())
	r.k++
	return r.err == nil
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
