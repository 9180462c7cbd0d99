package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is a 3d axis-aligned bounding box.
type Box r3.Box

// NewBox creates a 3d box with a given center and size.
func NewBox(center, size r3.Vec) Box {
	half := r3.Scale(0.5, size)
	return Box{Min: r3.Sub(center, half), Max: r3.Add(center, half)}
}

// Equals tests the equality of 3d boxes.
func (a Box) Equals(b Box, tol float64) bool {
	return EqualWithin(a.Min, b.Min, tol) && EqualWithin(a.Max, b.Max, tol)
}

// Include enlarges a 3d box to include a point.
func (a Box) Include(v r3.Vec) Box {
	return Box{
		Min: MinElem(a.Min, v),
		Max: MaxElem(a.Max, v),
	}
}

// Size returns the size of a 3d box.
func (a Box) Size() r3.Vec {
	return r3.Sub(a.Max, a.Min)
}

// Center returns the center of a 3d box.
func (a Box) Center() r3.Vec {
	return r3.Add(a.Min, r3.Scale(0.5, a.Size()))
}

// Volume returns the volume of a 3d box.
func (a Box) Volume() float64 {
	s := a.Size()
	return s.X * s.Y * s.Z
}

// HalfDiagonal returns half the length of the box main diagonal.
func (a Box) HalfDiagonal() float64 {
	return 0.5 * r3.Norm(a.Size())
}

// Enlarge returns a new 3d box enlarged by a size vector.
func (a Box) Enlarge(v r3.Vec) Box {
	v = r3.Scale(0.5, v)
	return Box{
		Min: r3.Sub(a.Min, v),
		Max: r3.Add(a.Max, v),
	}
}

// Contains checks if the 3d box contains the given vector, with bounds
// counting as inside.
func (a Box) Contains(v r3.Vec) bool {
	return a.Min.X <= v.X && a.Min.Y <= v.Y && a.Min.Z <= v.Z &&
		v.X <= a.Max.X && v.Y <= a.Max.Y && v.Z <= a.Max.Z
}

// Degenerate reports whether the box has no volume.
func (a Box) Degenerate() bool {
	s := a.Size()
	return s.X <= 0 || s.Y <= 0 || s.Z <= 0
}

// Vertices returns the 8 corner vertices of the box. Corner order matches
// binary counting over (x,y,z) with x least significant.
func (a Box) Vertices() []r3.Vec {
	v := make([]r3.Vec, 8)
	for i := range v {
		v[i] = a.Min
		if i&1 != 0 {
			v[i].X = a.Max.X
		}
		if i&2 != 0 {
			v[i].Y = a.Max.Y
		}
		if i&4 != 0 {
			v[i].Z = a.Max.Z
		}
	}
	return v
}

// MinBound returns a box that no point can be outside of, for use as the
// identity element when accumulating Include calls.
func MinBound() Box {
	return Box{
		Min: Elem(math.MaxFloat64),
		Max: Elem(-math.MaxFloat64),
	}
}
