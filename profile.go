package opticflow

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Velocity contains the six components of self-motion.
// As the net velocity of a trial it is the displacement over the whole
// trial; as an instantaneous velocity it is the displacement over one frame.
type Velocity struct {
	U, V, W float64 // translation along x, y and z
	A, B, C float64 // rotation around x, y and z (pitch, yaw, roll)
}

// A Profile distributes the net velocity of a trial across its frames.
// Each sequence has one value per frame and sums to the net velocity.
type Profile struct {
	U, V, W []float64
	A, B, C []float64
}

// NewProfile returns a bell-shaped velocity profile over numFrames frames
// whose per-frame values add up to the net velocity v.
// The kernel has a standard deviation of numFrames/numSigmas.
func NewProfile(v Velocity, numFrames int, numSigmas float64) Profile {
	w := Kernel(numFrames, numSigmas)
	scale := func(c float64) []float64 {
		return floats.ScaleTo(make([]float64, len(w)), c, w)
	}
	return Profile{
		U: scale(v.U), V: scale(v.V), W: scale(v.W),
		A: scale(v.A), B: scale(v.B), C: scale(v.C),
	}
}

// Len returns the number of frames covered by the profile.
func (p Profile) Len() int {
	return len(p.U)
}

// At returns the instantaneous velocity at frame i.
func (p Profile) At(i int) Velocity {
	return Velocity{
		U: p.U[i], V: p.V[i], W: p.W[i],
		A: p.A[i], B: p.B[i], C: p.C[i],
	}
}

// Kernel returns n Gaussian weights centered on frame n/2 with
// standard deviation n/numSigmas, normalized to sum to 1.
func Kernel(n int, numSigmas float64) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	g := distuv.Normal{Mu: float64(n) / 2, Sigma: float64(n) / numSigmas}
	for i := range w {
		w[i] = g.Prob(float64(i))
	}
	sum := floats.Sum(w)
	if sum == 0 {
		// kernel narrower than a frame: all the weight on the center frame
		w[n/2] = 1
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}
