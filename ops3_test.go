package isomesh_test

import (
	"math"
	"testing"

	"github.com/soypat/isomesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func sphereAt(center r3.Vec, radius float64) isomesh.FieldFunc {
	return func(p r3.Vec) float64 {
		return r3.Norm(r3.Sub(p, center)) - radius
	}
}

func evalAt(t *testing.T, f isomesh.Field, p r3.Vec) float64 {
	t.Helper()
	dist := make([]float64, 1)
	if err := f.Evaluate([]r3.Vec{p}, dist); err != nil {
		t.Fatal(err)
	}
	return dist[0]
}

func TestFieldFuncBatchMismatch(t *testing.T) {
	f := sphereAt(r3.Vec{}, 1)
	err := f.Evaluate(make([]r3.Vec, 3), make([]float64, 2))
	if err == nil {
		t.Fatal("expected error on mismatched batch lengths")
	}
}

func TestUnion3D(t *testing.T) {
	a := sphereAt(r3.Vec{X: -1}, 1)
	b := sphereAt(r3.Vec{X: 1}, 1)
	u := isomesh.Union3D(a, b)
	// Inside either sphere means inside the union.
	if d := evalAt(t, u, r3.Vec{X: -1}); math.Abs(d+1) > 1e-12 {
		t.Errorf("center of sphere a: got %v, want -1", d)
	}
	if d := evalAt(t, u, r3.Vec{X: 1}); math.Abs(d+1) > 1e-12 {
		t.Errorf("center of sphere b: got %v, want -1", d)
	}
	if d := evalAt(t, u, r3.Vec{Y: 5}); d <= 0 {
		t.Errorf("far point: got %v, want positive", d)
	}
}

func TestSmoothUnion3D(t *testing.T) {
	a := sphereAt(r3.Vec{X: -1}, 1)
	b := sphereAt(r3.Vec{X: 1}, 1)
	hard := isomesh.Union3D(a, b)
	smooth := isomesh.SmoothUnion3D(a, b, 0.5)
	// Smoothing fills in the crease between the two spheres.
	p := r3.Vec{Y: 0.3}
	dh := evalAt(t, hard, p)
	ds := evalAt(t, smooth, p)
	if ds >= dh {
		t.Errorf("smooth union %v not below hard union %v near the crease", ds, dh)
	}
	// Far from the blend region both agree.
	far := r3.Vec{X: -1, Z: 0.9}
	if math.Abs(evalAt(t, smooth, far)-evalAt(t, hard, far)) > 0.05 {
		t.Error("smooth union diverges far from the blend region")
	}
}

func TestIntersectAndDifference3D(t *testing.T) {
	a := sphereAt(r3.Vec{X: -0.5}, 1)
	b := sphereAt(r3.Vec{X: 0.5}, 1)
	inter := isomesh.Intersect3D(a, b)
	diff := isomesh.Difference3D(a, b)

	origin := r3.Vec{}
	if d := evalAt(t, inter, origin); d >= 0 {
		t.Errorf("origin inside both spheres: intersection %v, want negative", d)
	}
	// The origin is inside b, so it is carved out of the difference.
	if d := evalAt(t, diff, origin); d <= 0 {
		t.Errorf("origin inside subtrahend: difference %v, want positive", d)
	}
	// A point only in a survives the difference.
	pa := r3.Vec{X: -1.2}
	if d := evalAt(t, diff, pa); d >= 0 {
		t.Errorf("point only inside a: difference %v, want negative", d)
	}
	if d := evalAt(t, inter, pa); d <= 0 {
		t.Errorf("point only inside a: intersection %v, want positive", d)
	}
}

func TestTranslate3D(t *testing.T) {
	s := sphereAt(r3.Vec{}, 1)
	moved := isomesh.Translate3D(s, r3.Vec{X: 2, Y: 1})
	if d := evalAt(t, moved, r3.Vec{X: 2, Y: 1}); math.Abs(d+1) > 1e-12 {
		t.Errorf("translated center: got %v, want -1", d)
	}
	if d := evalAt(t, moved, r3.Vec{X: 2, Y: 1, Z: 1}); math.Abs(d) > 1e-12 {
		t.Errorf("translated surface: got %v, want 0", d)
	}
}

func TestScale3D(t *testing.T) {
	s := sphereAt(r3.Vec{}, 1)
	big := isomesh.Scale3D(s, 3)
	// Scaling by 3 turns the unit sphere into a radius 3 sphere with true
	// distances.
	if d := evalAt(t, big, r3.Vec{X: 3}); math.Abs(d) > 1e-12 {
		t.Errorf("scaled surface: got %v, want 0", d)
	}
	if d := evalAt(t, big, r3.Vec{X: 5}); math.Abs(d-2) > 1e-12 {
		t.Errorf("outside scaled sphere: got %v, want 2", d)
	}
}

func TestRotate3D(t *testing.T) {
	// A sphere displaced along x, rotated 90° about z, lands on y.
	s := sphereAt(r3.Vec{X: 2}, 1)
	rot := isomesh.Rotate3D(s, math.Pi/2, r3.Vec{Z: 1})
	if d := evalAt(t, rot, r3.Vec{Y: 2}); math.Abs(d+1) > 1e-9 {
		t.Errorf("rotated center: got %v, want -1", d)
	}
	if d := evalAt(t, rot, r3.Vec{X: 2}); d <= 0 {
		t.Errorf("original center after rotation: got %v, want positive", d)
	}
}

func TestDilateErode3D(t *testing.T) {
	s := sphereAt(r3.Vec{}, 1)
	fat := isomesh.Dilate3D(s, 0.5)
	thin := isomesh.Erode3D(s, 0.5)
	if d := evalAt(t, fat, r3.Vec{X: 1.5}); math.Abs(d) > 1e-12 {
		t.Errorf("dilated surface: got %v, want 0", d)
	}
	if d := evalAt(t, thin, r3.Vec{X: 0.5}); math.Abs(d) > 1e-12 {
		t.Errorf("eroded surface: got %v, want 0", d)
	}
}

func TestShell3D(t *testing.T) {
	s := sphereAt(r3.Vec{}, 1)
	shell := isomesh.Shell3D(s, 0.1)
	// The old surface is now the middle of the shell wall.
	if d := evalAt(t, shell, r3.Vec{X: 1}); math.Abs(d+0.1) > 1e-12 {
		t.Errorf("wall middle: got %v, want -0.1", d)
	}
	// The solid interior is hollowed out.
	if d := evalAt(t, shell, r3.Vec{}); d <= 0 {
		t.Errorf("hollow interior: got %v, want positive", d)
	}
}

func TestElongate3D(t *testing.T) {
	s := sphereAt(r3.Vec{}, 1)
	long := isomesh.Elongate3D(s, r3.Vec{X: 2})
	// Points along the stretched section stay on the surface.
	for _, x := range []float64{0, 1, 2} {
		if d := evalAt(t, long, r3.Vec{X: x, Y: 1}); math.Abs(d) > 1e-9 {
			t.Errorf("stretched surface at x=%v: got %v, want 0", x, d)
		}
	}
	// Beyond the stretch the cap is the original sphere.
	if d := evalAt(t, long, r3.Vec{X: 3}); math.Abs(d) > 1e-9 {
		t.Errorf("cap surface: got %v, want 0", d)
	}
}

func TestRepeat3D(t *testing.T) {
	s := sphereAt(r3.Vec{}, 0.4)
	rep := isomesh.Repeat3D(s, r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: 1, Y: 1, Z: 1})
	// Copies exist at lattice sites within the count.
	if d := evalAt(t, rep, r3.Vec{X: 2}); math.Abs(d+0.4) > 1e-12 {
		t.Errorf("repeated copy center: got %v, want -0.4", d)
	}
	// And not beyond it.
	if d := evalAt(t, rep, r3.Vec{X: 4}); d <= 0 {
		t.Errorf("beyond repetition count: got %v, want positive", d)
	}
	// Unbounded axis repeats forever.
	inf := isomesh.Repeat3D(s, r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: -1, Y: 0, Z: 0})
	if d := evalAt(t, inf, r3.Vec{X: 20}); math.Abs(d+0.4) > 1e-12 {
		t.Errorf("unbounded repetition: got %v, want -0.4", d)
	}
}

func TestTwistBendEvaluate(t *testing.T) {
	// Twist and bend are domain distortions; at the origin they are the
	// identity.
	s := sphereAt(r3.Vec{}, 1)
	for name, f := range map[string]isomesh.Field{
		"twist": isomesh.Twist3D(s, 0.5),
		"bend":  isomesh.Bend3D(s, 0.2),
	} {
		if d := evalAt(t, f, r3.Vec{}); math.Abs(d+1) > 1e-12 {
			t.Errorf("%s at origin: got %v, want -1", name, d)
		}
	}
}

func TestBlend3D(t *testing.T) {
	a := sphereAt(r3.Vec{}, 1)
	b := sphereAt(r3.Vec{}, 2)
	mid := isomesh.Blend3D(a, b, 0.5)
	// Halfway blend of radius 1 and 2 spheres behaves like radius 1.5.
	if d := evalAt(t, mid, r3.Vec{X: 1.5}); math.Abs(d) > 1e-12 {
		t.Errorf("blend surface: got %v, want 0", d)
	}
	ends := isomesh.Blend3D(a, b, 0)
	if d := evalAt(t, ends, r3.Vec{X: 1}); math.Abs(d) > 1e-12 {
		t.Errorf("blend t=0 must equal field a: got %v", d)
	}
}

func TestNilFieldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nil field")
		}
	}()
	isomesh.Union3D(nil, sphereAt(r3.Vec{}, 1))
}
