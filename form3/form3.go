// Package form3 provides primitive 3D solids implementing the batched
// isomesh.Field contract. Constructors panic on invalid dimensions so that
// shape definition errors surface at construction, not meshing, time.
package form3

import (
	"fmt"
	"math"

	"github.com/soypat/isomesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// sphere is a sphere centered at the origin.
type sphere struct {
	r float64
}

// Sphere returns a sphere of the given radius centered at the origin.
func Sphere(radius float64) isomesh.Field {
	if radius <= 0 {
		panic("zero or negative sphere radius")
	}
	return &sphere{r: radius}
}

func (s *sphere) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkLen(p, dist); err != nil {
		return err
	}
	for i, v := range p {
		dist[i] = r3.Norm(v) - s.r
	}
	return nil
}

// box is an axis-aligned box centered at the origin, optionally rounded.
type box struct {
	half  r3.Vec
	round float64
}

// Box returns an axis-aligned box with the given side lengths centered at
// the origin. round > 0 rounds edges and corners with that radius.
func Box(size r3.Vec, round float64) isomesh.Field {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		panic("zero or negative box dimension")
	}
	if round < 0 || 2*round >= math.Min(size.X, math.Min(size.Y, size.Z)) {
		panic("invalid box rounding radius")
	}
	half := r3.Scale(0.5, size)
	return &box{half: r3.Sub(half, r3.Vec{X: round, Y: round, Z: round}), round: round}
}

func (s *box) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkLen(p, dist); err != nil {
		return err
	}
	for i, v := range p {
		q := r3.Sub(absElem(v), s.half)
		outside := r3.Norm(maxElem(q, 0))
		inside := math.Min(math.Max(q.X, math.Max(q.Y, q.Z)), 0)
		dist[i] = outside + inside - s.round
	}
	return nil
}

// torus lies in the xy plane, centered at the origin.
type torus struct {
	major, minor float64
}

// Torus returns a torus around the z axis. major is the radius from the
// origin to the tube center, minor the tube radius.
func Torus(major, minor float64) isomesh.Field {
	if minor <= 0 || major <= minor {
		panic("torus requires major > minor > 0")
	}
	return &torus{major: major, minor: minor}
}

func (s *torus) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkLen(p, dist); err != nil {
		return err
	}
	for i, v := range p {
		q := math.Hypot(v.X, v.Y) - s.major
		dist[i] = math.Hypot(q, v.Z) - s.minor
	}
	return nil
}

// cylinder is a capped cylinder along the z axis, optionally rounded.
type cylinder struct {
	h, r, round float64
}

// Cylinder returns a capped cylinder of the given total height and radius
// along the z axis, centered at the origin. round > 0 rounds the cap edges.
func Cylinder(height, radius, round float64) isomesh.Field {
	if height <= 0 || radius <= 0 {
		panic("zero or negative cylinder dimension")
	}
	if round < 0 || round >= radius || 2*round >= height {
		panic("invalid cylinder rounding radius")
	}
	return &cylinder{h: height/2 - round, r: radius - round, round: round}
}

func (s *cylinder) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkLen(p, dist); err != nil {
		return err
	}
	for i, v := range p {
		dx := math.Hypot(v.X, v.Y) - s.r
		dz := math.Abs(v.Z) - s.h
		outside := math.Hypot(math.Max(dx, 0), math.Max(dz, 0))
		inside := math.Min(math.Max(dx, dz), 0)
		dist[i] = outside + inside - s.round
	}
	return nil
}

// capsule is a line-swept sphere.
type capsule struct {
	a, b r3.Vec
	r    float64
}

// Capsule returns a capsule (line-swept sphere) between points a and b.
func Capsule(a, b r3.Vec, radius float64) isomesh.Field {
	if radius <= 0 {
		panic("zero or negative capsule radius")
	}
	if r3.Norm(r3.Sub(a, b)) == 0 {
		panic("capsule endpoints coincide")
	}
	return &capsule{a: a, b: b, r: radius}
}

func (s *capsule) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkLen(p, dist); err != nil {
		return err
	}
	ba := r3.Sub(s.b, s.a)
	baba := r3.Dot(ba, ba)
	for i, v := range p {
		pa := r3.Sub(v, s.a)
		h := math.Max(0, math.Min(1, r3.Dot(pa, ba)/baba))
		dist[i] = r3.Norm(r3.Sub(pa, r3.Scale(h, ba))) - s.r
	}
	return nil
}

// ellipsoid is an axis-aligned ellipsoid centered at the origin.
type ellipsoid struct {
	size r3.Vec
}

// Ellipsoid returns an axis-aligned ellipsoid with the given semi-axes.
// The returned distance is a bounded approximation, exact on the axes.
func Ellipsoid(semiAxes r3.Vec) isomesh.Field {
	if semiAxes.X <= 0 || semiAxes.Y <= 0 || semiAxes.Z <= 0 {
		panic("zero or negative ellipsoid semi-axis")
	}
	return &ellipsoid{size: semiAxes}
}

func (s *ellipsoid) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkLen(p, dist); err != nil {
		return err
	}
	for i, v := range p {
		k0 := r3.Norm(divElem(v, s.size))
		k1 := r3.Norm(divElem(v, mulElem(s.size, s.size)))
		if k1 == 0 {
			// point at the origin
			dist[i] = -math.Min(s.size.X, math.Min(s.size.Y, s.size.Z))
			continue
		}
		dist[i] = k0 * (k0 - 1) / k1
	}
	return nil
}

func checkLen(p []r3.Vec, dist []float64) error {
	if len(p) != len(dist) {
		return fmt.Errorf("batch length mismatch: %d points, %d distances", len(p), len(dist))
	}
	return nil
}

func absElem(v r3.Vec) r3.Vec {
	return r3.Vec{X: math.Abs(v.X), Y: math.Abs(v.Y), Z: math.Abs(v.Z)}
}

func maxElem(v r3.Vec, s float64) r3.Vec {
	return r3.Vec{X: math.Max(v.X, s), Y: math.Max(v.Y, s), Z: math.Max(v.Z, s)}
}

func mulElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

func divElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X / b.X, Y: a.Y / b.Y, Z: a.Z / b.Z}
}
