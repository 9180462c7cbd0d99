package isomesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// 3D field combinators. Each combinator wraps one or two child fields and
// combines their batched outputs per point, preserving the Field contract.

// union3 is the hard or smooth union of two fields.
type union3 struct {
	a, b Field
	k    float64
}

// Union3D returns the union of two fields.
func Union3D(a, b Field) Field {
	return SmoothUnion3D(a, b, 0)
}

// SmoothUnion3D returns the union of two fields with polynomial smoothing
// radius k. k == 0 yields a hard union.
func SmoothUnion3D(a, b Field, k float64) Field {
	if a == nil || b == nil {
		panic("nil Field argument")
	}
	return &union3{a: a, b: b, k: k}
}

func (s *union3) Evaluate(p []r3.Vec, dist []float64) error {
	db, err := evaluatePair(s.a, s.b, p, dist)
	if err != nil {
		return err
	}
	if s.k == 0 {
		for i := range dist {
			dist[i] = math.Min(dist[i], db[i])
		}
		return nil
	}
	for i, a := range dist {
		b := db[i]
		h := clamp(0.5+0.5*(b-a)/s.k, 0, 1)
		dist[i] = b*(1-h) + a*h - s.k*h*(1-h)
	}
	return nil
}

// intersect3 is the hard or smooth intersection of two fields.
type intersect3 struct {
	a, b Field
	k    float64
}

// Intersect3D returns the intersection of two fields.
func Intersect3D(a, b Field) Field {
	return SmoothIntersect3D(a, b, 0)
}

// SmoothIntersect3D returns the intersection of two fields with polynomial
// smoothing radius k.
func SmoothIntersect3D(a, b Field, k float64) Field {
	if a == nil || b == nil {
		panic("nil Field argument")
	}
	return &intersect3{a: a, b: b, k: k}
}

func (s *intersect3) Evaluate(p []r3.Vec, dist []float64) error {
	db, err := evaluatePair(s.a, s.b, p, dist)
	if err != nil {
		return err
	}
	if s.k == 0 {
		for i := range dist {
			dist[i] = math.Max(dist[i], db[i])
		}
		return nil
	}
	for i, a := range dist {
		b := db[i]
		h := clamp(0.5-0.5*(b-a)/s.k, 0, 1)
		dist[i] = b*(1-h) + a*h + s.k*h*(1-h)
	}
	return nil
}

// difference3 subtracts field b from field a.
type difference3 struct {
	a, b Field
	k    float64
}

// Difference3D returns the difference a minus b.
func Difference3D(a, b Field) Field {
	return SmoothDifference3D(a, b, 0)
}

// SmoothDifference3D returns the difference a minus b with polynomial
// smoothing radius k.
func SmoothDifference3D(a, b Field, k float64) Field {
	if a == nil || b == nil {
		panic("nil Field argument")
	}
	return &difference3{a: a, b: b, k: k}
}

func (s *difference3) Evaluate(p []r3.Vec, dist []float64) error {
	db, err := evaluatePair(s.a, s.b, p, dist)
	if err != nil {
		return err
	}
	if s.k == 0 {
		for i := range dist {
			dist[i] = math.Max(dist[i], -db[i])
		}
		return nil
	}
	for i, a := range dist {
		b := db[i]
		h := clamp(0.5-0.5*(a+b)/s.k, 0, 1)
		dist[i] = a*(1-h) + -b*h + s.k*h*(1-h)
	}
	return nil
}

// blend3 linearly interpolates between two fields.
type blend3 struct {
	a, b Field
	t    float64
}

// Blend3D interpolates between fields a and b. t == 0 yields a, t == 1
// yields b. The result is generally not a true distance field but remains
// usable for meshing.
func Blend3D(a, b Field, t float64) Field {
	if a == nil || b == nil {
		panic("nil Field argument")
	}
	return &blend3{a: a, b: b, t: t}
}

func (s *blend3) Evaluate(p []r3.Vec, dist []float64) error {
	db, err := evaluatePair(s.a, s.b, p, dist)
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] = dist[i]*(1-s.t) + db[i]*s.t
	}
	return nil
}

// translate3 shifts a field in space.
type translate3 struct {
	f      Field
	offset r3.Vec
}

// Translate3D returns f translated by offset.
func Translate3D(f Field, offset r3.Vec) Field {
	if f == nil {
		panic("nil Field argument")
	}
	return &translate3{f: f, offset: offset}
}

func (s *translate3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkBatch(p, dist); err != nil {
		return err
	}
	q := make([]r3.Vec, len(p))
	for i, v := range p {
		q[i] = r3.Sub(v, s.offset)
	}
	return s.f.Evaluate(q, dist)
}

// scale3 uniformly scales a field about the origin.
type scale3 struct {
	f Field
	k float64
}

// Scale3D returns f scaled uniformly by factor k about the origin.
// k must be positive.
func Scale3D(f Field, k float64) Field {
	if f == nil {
		panic("nil Field argument")
	}
	if k <= 0 {
		panic("scale factor must be positive")
	}
	return &scale3{f: f, k: k}
}

func (s *scale3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkBatch(p, dist); err != nil {
		return err
	}
	q := make([]r3.Vec, len(p))
	inv := 1 / s.k
	for i, v := range p {
		q[i] = r3.Scale(inv, v)
	}
	if err := s.f.Evaluate(q, dist); err != nil {
		return err
	}
	for i := range dist {
		dist[i] *= s.k
	}
	return nil
}

// rotate3 rotates a field about an axis through the origin.
type rotate3 struct {
	f Field
	// inverse rotation matrix, row major
	m [9]float64
}

// Rotate3D returns f rotated by angle radians about axis.
func Rotate3D(f Field, angle float64, axis r3.Vec) Field {
	if f == nil {
		panic("nil Field argument")
	}
	if r3.Norm(axis) == 0 {
		panic("zero rotation axis")
	}
	a := r3.Unit(axis)
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	// The stored matrix is the transpose of the rotation so sample points are
	// mapped back into the unrotated field.
	return &rotate3{f: f, m: [9]float64{
		t*a.X*a.X + c, t*a.X*a.Y + s*a.Z, t*a.X*a.Z - s*a.Y,
		t*a.X*a.Y - s*a.Z, t*a.Y*a.Y + c, t*a.Y*a.Z + s*a.X,
		t*a.X*a.Z + s*a.Y, t*a.Y*a.Z - s*a.X, t*a.Z*a.Z + c,
	}}
}

func (s *rotate3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkBatch(p, dist); err != nil {
		return err
	}
	q := make([]r3.Vec, len(p))
	m := &s.m
	for i, v := range p {
		q[i] = r3.Vec{
			X: v.X*m[0] + v.Y*m[1] + v.Z*m[2],
			Y: v.X*m[3] + v.Y*m[4] + v.Z*m[5],
			Z: v.X*m[6] + v.Y*m[7] + v.Z*m[8],
		}
	}
	return s.f.Evaluate(q, dist)
}

// dilate3 offsets all distances by a constant.
type dilate3 struct {
	f Field
	r float64
}

// Dilate3D grows the solid by r. Negative r erodes instead.
func Dilate3D(f Field, r float64) Field {
	if f == nil {
		panic("nil Field argument")
	}
	return &dilate3{f: f, r: r}
}

// Erode3D shrinks the solid by r.
func Erode3D(f Field, r float64) Field {
	return Dilate3D(f, -r)
}

func (s *dilate3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := s.f.Evaluate(p, dist); err != nil {
		return err
	}
	for i := range dist {
		dist[i] -= s.r
	}
	return nil
}

// shell3 hollows a solid to a surface shell.
type shell3 struct {
	f         Field
	thickness float64
}

// Shell3D returns the shell of f with the given total thickness centered on
// the original surface.
func Shell3D(f Field, thickness float64) Field {
	if f == nil {
		panic("nil Field argument")
	}
	if thickness <= 0 {
		panic("shell thickness must be positive")
	}
	return &shell3{f: f, thickness: thickness}
}

func (s *shell3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := s.f.Evaluate(p, dist); err != nil {
		return err
	}
	for i := range dist {
		dist[i] = math.Abs(dist[i]) - s.thickness
	}
	return nil
}

// elongate3 stretches a field along each axis.
type elongate3 struct {
	f Field
	h r3.Vec
}

// Elongate3D stretches f by inserting a flat section of half-extent h along
// each axis. Sample points are clamped toward the inserted section, which
// preserves exact distances.
func Elongate3D(f Field, h r3.Vec) Field {
	if f == nil {
		panic("nil Field argument")
	}
	if h.X < 0 || h.Y < 0 || h.Z < 0 {
		panic("negative elongation extent")
	}
	return &elongate3{f: f, h: h}
}

func (s *elongate3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkBatch(p, dist); err != nil {
		return err
	}
	q := make([]r3.Vec, len(p))
	for i, v := range p {
		// q = p - clamp(p, -h, h)
		d := r3.Sub(absElem(v), s.h)
		q[i] = r3.Vec{
			X: math.Copysign(math.Max(d.X, 0), v.X),
			Y: math.Copysign(math.Max(d.Y, 0), v.Y),
			Z: math.Copysign(math.Max(d.Z, 0), v.Z),
		}
	}
	return s.f.Evaluate(q, dist)
}

// twist3 twists a field about the z axis.
type twist3 struct {
	f Field
	k float64
}

// Twist3D twists f about the z axis by k radians per unit height.
func Twist3D(f Field, k float64) Field {
	if f == nil {
		panic("nil Field argument")
	}
	return &twist3{f: f, k: k}
}

func (s *twist3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkBatch(p, dist); err != nil {
		return err
	}
	q := make([]r3.Vec, len(p))
	for i, v := range p {
		c := math.Cos(s.k * v.Z)
		sn := math.Sin(s.k * v.Z)
		q[i] = r3.Vec{X: c*v.X - sn*v.Y, Y: sn*v.X + c*v.Y, Z: v.Z}
	}
	return s.f.Evaluate(q, dist)
}

// bend3 bends a field along the x axis.
type bend3 struct {
	f Field
	k float64
}

// Bend3D bends f with curvature k along the x axis.
func Bend3D(f Field, k float64) Field {
	if f == nil {
		panic("nil Field argument")
	}
	return &bend3{f: f, k: k}
}

func (s *bend3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkBatch(p, dist); err != nil {
		return err
	}
	q := make([]r3.Vec, len(p))
	for i, v := range p {
		c := math.Cos(s.k * v.X)
		sn := math.Sin(s.k * v.X)
		q[i] = r3.Vec{X: c*v.X - sn*v.Y, Y: sn*v.X + c*v.Y, Z: v.Z}
	}
	return s.f.Evaluate(q, dist)
}

// repeat3 tiles a field on a rectangular lattice.
type repeat3 struct {
	f       Field
	spacing r3.Vec
	count   r3.Vec
}

// Repeat3D tiles f on a lattice with the given spacing. count limits the
// number of repetitions on each side of the origin per axis; a negative
// component repeats without bound along that axis.
func Repeat3D(f Field, spacing, count r3.Vec) Field {
	if f == nil {
		panic("nil Field argument")
	}
	if spacing.X <= 0 || spacing.Y <= 0 || spacing.Z <= 0 {
		panic("repeat spacing must be positive")
	}
	return &repeat3{f: f, spacing: spacing, count: count}
}

func (s *repeat3) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkBatch(p, dist); err != nil {
		return err
	}
	q := make([]r3.Vec, len(p))
	for i, v := range p {
		q[i] = r3.Vec{
			X: repeatAxis(v.X, s.spacing.X, s.count.X),
			Y: repeatAxis(v.Y, s.spacing.Y, s.count.Y),
			Z: repeatAxis(v.Z, s.spacing.Z, s.count.Z),
		}
	}
	return s.f.Evaluate(q, dist)
}

func repeatAxis(x, spacing, count float64) float64 {
	c := math.Round(x / spacing)
	if count >= 0 {
		c = clamp(c, -count, count)
	}
	return x - c*spacing
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

func absElem(v r3.Vec) r3.Vec {
	return r3.Vec{X: math.Abs(v.X), Y: math.Abs(v.Y), Z: math.Abs(v.Z)}
}

// evaluatePair evaluates two child fields over the same batch. The first
// result lands in dist, the second in the returned scratch slice.
func evaluatePair(a, b Field, p []r3.Vec, dist []float64) ([]float64, error) {
	if err := checkBatch(p, dist); err != nil {
		return nil, err
	}
	if err := a.Evaluate(p, dist); err != nil {
		return nil, err
	}
	db := make([]float64, len(p))
	if err := b.Evaluate(p, db); err != nil {
		return nil, err
	}
	return db, nil
}
