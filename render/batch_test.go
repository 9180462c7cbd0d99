package render

import (
	"math"
	"testing"

	"github.com/soypat/isomesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGridLayoutDims(t *testing.T) {
	bb := r3.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	g := newGridLayout(bb, 0.5)
	// 2 units of extent at 0.5 step is 4 cells, 5 samples.
	if g.nx != 5 || g.ny != 5 || g.nz != 5 {
		t.Errorf("got dims %dx%dx%d, want 5x5x5", g.nx, g.ny, g.nz)
	}
	if g.samples() != 125 {
		t.Errorf("got %d samples, want 125", g.samples())
	}
	last := g.pos(g.nx-1, g.ny-1, g.nz-1)
	if last.X < bb.Max.X || last.Y < bb.Max.Y || last.Z < bb.Max.Z {
		t.Errorf("lattice %v does not cover box max %v", last, bb.Max)
	}
}

func TestBatchesTileLattice(t *testing.T) {
	bb := r3.Box{Min: r3.Vec{}, Max: r3.Vec{X: 10, Y: 7, Z: 3}}
	g := newGridLayout(bb, 0.25)
	batches := g.batches(16)

	// Every cell of the lattice must belong to exactly one batch.
	covered := make([]int, (g.nx-1)*(g.ny-1)*(g.nz-1))
	for i, b := range batches {
		if b.index != i {
			t.Fatalf("batch %d carries index %d", i, b.index)
		}
		if b.nx < 2 || b.ny < 2 || b.nz < 2 {
			t.Fatalf("batch %d degenerate: %dx%dx%d samples", i, b.nx, b.ny, b.nz)
		}
		if b.nx > 17 || b.ny > 17 || b.nz > 17 {
			t.Fatalf("batch %d exceeds size limit: %dx%dx%d samples", i, b.nx, b.ny, b.nz)
		}
		for z := b.z0; z < b.z0+b.nz-1; z++ {
			for y := b.y0; y < b.y0+b.ny-1; y++ {
				for x := b.x0; x < b.x0+b.nx-1; x++ {
					covered[x+y*(g.nx-1)+z*(g.nx-1)*(g.ny-1)]++
				}
			}
		}
	}
	for i, c := range covered {
		if c != 1 {
			t.Fatalf("cell %d covered %d times", i, c)
		}
	}
}

func TestBatchSampleOrder(t *testing.T) {
	bb := r3.Box{Min: r3.Vec{}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	g := newGridLayout(bb, 0.5)
	b := g.batches(32)[0]
	pts := g.sample(b, nil)
	if len(pts) != b.nx*b.ny*b.nz {
		t.Fatalf("got %d points, want %d", len(pts), b.nx*b.ny*b.nz)
	}
	// x must vary fastest to match the marching cubes grid indexing.
	i := 0
	for z := 0; z < b.nz; z++ {
		for y := 0; y < b.ny; y++ {
			for x := 0; x < b.nx; x++ {
				want := g.pos(b.x0+x, b.y0+y, b.z0+z)
				if pts[i] != want {
					t.Fatalf("sample %d: got %v, want %v", i, pts[i], want)
				}
				i++
			}
		}
	}
}

func TestCanSkipBatchSphere(t *testing.T) {
	sphere := isomesh.FieldFunc(func(p r3.Vec) float64 {
		return r3.Norm(p) - 1
	})
	pts := make([]r3.Vec, 8)
	dist := make([]float64, 8)

	// A batch straddling the surface may never be skipped.
	shell := r3.Box{
		Min: r3.Vec{X: 0.5, Y: -0.5, Z: -0.5},
		Max: r3.Vec{X: 1.5, Y: 0.5, Z: 0.5},
	}
	skip, err := canSkipBatch(sphere, shell, pts, dist)
	if err != nil {
		t.Fatal(err)
	}
	if skip {
		t.Error("skipped a batch that intersects the surface")
	}

	// A batch far outside is provably empty.
	far := r3.Box{
		Min: r3.Vec{X: 5, Y: 5, Z: 5},
		Max: r3.Vec{X: 6, Y: 6, Z: 6},
	}
	skip, err = canSkipBatch(sphere, far, pts, dist)
	if err != nil {
		t.Fatal(err)
	}
	if !skip {
		t.Error("failed to skip a batch far from the surface")
	}

	// Deep inside the solid is equally skippable.
	deep := r3.Box{
		Min: r3.Vec{X: -0.1, Y: -0.1, Z: -0.1},
		Max: r3.Vec{X: 0.1, Y: 0.1, Z: 0.1},
	}
	skip, err = canSkipBatch(sphere, deep, pts, dist)
	if err != nil {
		t.Fatal(err)
	}
	if !skip {
		t.Error("failed to skip a batch deep inside the solid")
	}
}

// Exhaustively verify the pruner never skips a surface batch for a sphere
// over a lattice of small boxes.
func TestCanSkipBatchNeverFalse(t *testing.T) {
	sphere := isomesh.FieldFunc(func(p r3.Vec) float64 {
		return r3.Norm(p) - 1
	})
	pts := make([]r3.Vec, 8)
	dist := make([]float64, 8)
	const step = 0.4
	for z := -2.0; z < 2; z += step {
		for y := -2.0; y < 2; y += step {
			for x := -2.0; x < 2; x += step {
				bb := r3.Box{
					Min: r3.Vec{X: x, Y: y, Z: z},
					Max: r3.Vec{X: x + step, Y: y + step, Z: z + step},
				}
				skip, err := canSkipBatch(sphere, bb, pts, dist)
				if err != nil {
					t.Fatal(err)
				}
				if !skip {
					continue
				}
				// Every skipped box must be strictly one-sided.
				nearest := r3.Vec{
					X: math.Max(bb.Min.X, math.Min(0, bb.Max.X)),
					Y: math.Max(bb.Min.Y, math.Min(0, bb.Max.Y)),
					Z: math.Max(bb.Min.Z, math.Min(0, bb.Max.Z)),
				}
				farthest := math.Max(math.Abs(bb.Min.X), math.Abs(bb.Max.X))
				fy := math.Max(math.Abs(bb.Min.Y), math.Abs(bb.Max.Y))
				fz := math.Max(math.Abs(bb.Min.Z), math.Abs(bb.Max.Z))
				minNorm := r3.Norm(nearest)
				maxNorm := math.Sqrt(farthest*farthest + fy*fy + fz*fz)
				if minNorm <= 1 && maxNorm >= 1 {
					t.Fatalf("skipped box %+v crossing the unit sphere", bb)
				}
			}
		}
	}
}
