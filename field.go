package opticflow

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// A Dot is a point of the cloud in a right-handed viewer-centered frame.
// Z is the depth along the line of sight.
type Dot struct {
	X, Y, Z float64
}

// Move displaces the dot by one frame of self-motion.
// This is a first-order approximation of rigid-body flow:
// translation shifts the dot opposite to the direction of travel
// and rotation couples pairs of axes.
func (d *Dot) Move(v Velocity) {
	dx := -v.U - v.B*d.Z + v.C*d.Y
	dy := -v.V - v.C*d.X + v.A*d.Z
	dz := -v.W - v.A*d.Y + v.B*d.X
	d.X += dx
	d.Y += dy
	d.Z += dz
}

// Visible reports whether the dot lies inside the unit-slope view frustum.
func (d Dot) Visible() bool {
	return math.Abs(d.X) <= d.Z && math.Abs(d.Y) <= d.Z
}

// Project returns the perspective projection of the dot.
// The marker size falls off with the square of the depth and equals
// starSize² at the viewing distance.
func (d Dot) Project(viewDist, starSize float64) Star {
	s := starSize * (viewDist / d.Z)
	return Star{
		Point: Point{X: d.X / d.Z, Y: d.Y / d.Z},
		Size:  s * s,
	}
}

// A Star is a dot projected on the image plane.
type Star struct {
	Point
	Size float64 // marker area
}

// A Field is a fixed-size population of dots.
// It is not safe for concurrent use.
type Field struct {
	Dots []Dot

	near, far float64
	lateral   distuv.Uniform // x and y of new dots
	depth     distuv.Uniform // z of new dots
}

// NewField returns a field of conf.NumDots dots drawing from src.
// The dots are not placed until Seed is called.
func NewField(conf Config, src rand.Source) *Field {
	return &Field{
		Dots:    make([]Dot, conf.NumDots),
		near:    conf.ClipNear,
		far:     conf.ClipFar,
		lateral: distuv.Uniform{Min: conf.MinVal, Max: conf.MaxVal, Src: src},
		depth:   distuv.Uniform{Min: conf.ClipNear, Max: conf.ClipFar, Src: src},
	}
}

// Seed places every dot uniformly at random in the viewing volume.
func (f *Field) Seed() {
	for i := range f.Dots {
		f.Dots[i].X = f.lateral.Rand()
		f.Dots[i].Y = f.lateral.Rand()
		f.Dots[i].Z = f.depth.Rand()
	}
}

// Step moves every dot by v and recycles those that left the viewing volume.
// fore is the net fore/aft velocity of the trial: recycled dots reappear on
// the far plane when it is non-negative and on the near plane otherwise.
// Step returns the number of dots evicted from the view frustum.
func (f *Field) Step(v Velocity, fore float64) int {
	spawn := f.far
	if fore < 0 {
		spawn = f.near
	}

	var evicted int
	for i := range f.Dots {
		d := &f.Dots[i]
		d.Move(v)

		// wrap around in depth
		switch {
		case d.Z > f.far:
			d.Z = f.near
		case d.Z < f.near:
			d.Z = f.far
		}

		if !d.Visible() {
			d.X = f.lateral.Rand()
			d.Y = f.lateral.Rand()
			d.Z = spawn
			evicted++
		}
	}
	return evicted
}

// Project appends the projection of every dot to dst, in dot order.
func (f *Field) Project(dst []Star, viewDist, starSize float64) []Star {
	for _, d := range f.Dots {
		dst = append(dst, d.Project(viewDist, starSize))
	}
	return dst
}
