package opticflow

import (
	"iter"
	"math/rand/v2"
)

// A Frame is the projected state of all dots at one time step.
// It must not be modified once produced.
type Frame struct {
	Stars    []Star // one per dot, in dot order
	Fixation Point  // fixation marker, identical in every frame
	Recycled int    // number of dots evicted from the view frustum at this step
}

// A Simulation produces the frames of trials one after the other.
// Trials must be run sequentially since they share a random source.
type Simulation struct {
	Conf Config
	src  rand.Source
}

// NewSimulation validates conf and returns a simulation drawing all its
// random numbers from src.
func NewSimulation(conf Config, src rand.Source) (*Simulation, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &Simulation{Conf: conf, src: src}, nil
}

// Simulate runs all trials in order and returns their frames.
func Simulate(trials []Velocity, conf Config, src rand.Source) ([][]Frame, error) {
	s, err := NewSimulation(conf, src)
	if err != nil {
		return nil, err
	}
	return s.Simulate(trials), nil
}

// Simulate runs all trials in order and returns their frames.
func (s *Simulation) Simulate(trials []Velocity) [][]Frame {
	out := make([][]Frame, len(trials))
	for i, t := range trials {
		st := s.Run(t)
		out[i] = make([]Frame, 0, st.Len())
		for st.Next() {
			out[i] = append(out[i], st.Frame())
		}
	}
	return out
}

// Run starts a trial with net velocity trial. The dot population is seeded
// immediately, so the stream must be consumed before the next trial starts
// for the sequence of random draws to be reproducible.
func (s *Simulation) Run(trial Velocity) *Stream {
	f := NewField(s.Conf, s.src)
	f.Seed()
	return &Stream{
		conf:    s.Conf,
		field:   f,
		profile: NewProfile(trial, s.Conf.NumFrames, s.Conf.NumSigmas),
		fore:    trial.W,
	}
}

// A Stream lazily produces the frames of a single trial.
// It can only be consumed once.
type Stream struct {
	conf    Config
	field   *Field
	profile Profile
	fore    float64 // net fore/aft velocity of the trial
	k       int     // number of frames produced so far
	frame   Frame
}

// Len returns the total number of frames of the trial.
func (st *Stream) Len() int {
	return st.profile.Len()
}

// Next advances the simulation by one frame.
// It returns false when the trial is over.
func (st *Stream) Next() bool {
	if st.k >= st.profile.Len() {
		st.frame = Frame{}
		return false
	}
	n := st.field.Step(st.profile.At(st.k), st.fore)
	st.frame = Frame{
		Stars:    st.field.Project(make([]Star, 0, len(st.field.Dots)), st.conf.ViewDist, st.conf.StarSize),
		Fixation: st.conf.Fixation,
		Recycled: n,
	}
	st.k++
	return true
}

// Frame returns the frame produced by the last call to Next.
func (st *Stream) Frame() Frame {
	return st.frame
}

// All returns an iterator over the remaining frames and their index.
func (st *Stream) All() iter.Seq2[int, Frame] {
	return func(yield func(int, Frame) bool) {
		for st.Next() {
			if !yield(st.k-1, st.frame) {
				return
			}
		}
	}
}
