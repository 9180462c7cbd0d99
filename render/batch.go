package render

import (
	"math"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Spatial batching of the global sampling lattice. Batches tile the grid
// with a one-sample overlap at shared faces so each batch resamples its
// boundary independently and needs no cross-batch vertex bookkeeping.

// gridLayout is the dense global sampling lattice over a bounding box.
// Sample (x,y,z) sits at origin + step*(x,y,z).
type gridLayout struct {
	origin     r3.Vec
	step       float64
	nx, ny, nz int
}

// newGridLayout computes lattice dimensions covering bb at the given step,
// one sample more than cells per axis. Degenerate extents still get the
// minimum two samples per axis so a single cell exists.
func newGridLayout(bb r3.Box, step float64) gridLayout {
	size := d3.Box(bb).Size()
	return gridLayout{
		origin: bb.Min,
		step:   step,
		nx:     latticeDim(size.X, step),
		ny:     latticeDim(size.Y, step),
		nz:     latticeDim(size.Z, step),
	}
}

func latticeDim(extent, step float64) int {
	n := int(math.Ceil(extent/step)) + 1
	if n < 2 {
		n = 2
	}
	return n
}

func (g gridLayout) pos(x, y, z int) r3.Vec {
	return r3.Vec{
		X: g.origin.X + float64(x)*g.step,
		Y: g.origin.Y + float64(y)*g.step,
		Z: g.origin.Z + float64(z)*g.step,
	}
}

// samples returns the total lattice sample count.
func (g gridLayout) samples() int {
	return g.nx * g.ny * g.nz
}

// gridBatch is one cuboid work unit of the lattice: its sample origin in
// lattice coordinates and its per-axis sample counts (each at least 2).
type gridBatch struct {
	index      int
	x0, y0, z0 int
	nx, ny, nz int
}

// batches partitions the lattice into batches of at most size³ cells,
// ordered by spatial index (x fastest). size must be positive.
func (g gridLayout) batches(size int) []gridBatch {
	var out []gridBatch
	index := 0
	for z := 0; z < g.nz-1; z += size {
		z1 := minInt(z+size, g.nz-1)
		for y := 0; y < g.ny-1; y += size {
			y1 := minInt(y+size, g.ny-1)
			for x := 0; x < g.nx-1; x += size {
				x1 := minInt(x+size, g.nx-1)
				out = append(out, gridBatch{
					index: index,
					x0:    x, y0: y, z0: z,
					nx: x1 - x + 1, ny: y1 - y + 1, nz: z1 - z + 1,
				})
				index++
			}
		}
	}
	return out
}

// bounds returns the world-space box spanned by the batch samples.
func (g gridLayout) bounds(b gridBatch) r3.Box {
	return r3.Box{
		Min: g.pos(b.x0, b.y0, b.z0),
		Max: g.pos(b.x0+b.nx-1, b.y0+b.ny-1, b.z0+b.nz-1),
	}
}

// sample fills pts with the dense lattice of the batch, x fastest, matching
// the x + y*nx + z*nx*ny indexing that marchCubes expects. pts is grown as
// needed and the used slice returned.
func (g gridLayout) sample(b gridBatch, pts []r3.Vec) []r3.Vec {
	n := b.nx * b.ny * b.nz
	if cap(pts) < n {
		pts = make([]r3.Vec, n)
	}
	pts = pts[:n]
	i := 0
	for z := 0; z < b.nz; z++ {
		for y := 0; y < b.ny; y++ {
			for x := 0; x < b.nx; x++ {
				pts[i] = g.pos(b.x0+x, b.y0+y, b.z0+z)
				i++
			}
		}
	}
	return pts
}

// canSkipBatch cheaply proves a batch cannot intersect the zero level set.
// The center distance is compared against the batch half-diagonal: for a
// Lipschitz-bounded distance field a center value beyond the half-diagonal
// puts the whole batch on one side of the surface. The corner check guards
// fields that locally overestimate distance. The bound never skips a batch
// that truly intersects the surface, but may admit batches that contribute
// no triangles.
//
// pts and dist are caller-owned scratch of capacity at least 8.
func canSkipBatch(f isomesh.Field, bb r3.Box, pts []r3.Vec, dist []float64) (bool, error) {
	box := d3.Box(bb)
	pts = pts[:1]
	dist = dist[:1]
	pts[0] = box.Center()
	if err := f.Evaluate(pts, dist); err != nil {
		return false, err
	}
	if math.Abs(dist[0]) <= box.HalfDiagonal() {
		return false, nil
	}
	pts = pts[:8]
	dist = dist[:8]
	copy(pts, box.Vertices())
	if err := f.Evaluate(pts, dist); err != nil {
		return false, err
	}
	allPositive, allNegative := true, true
	for _, d := range dist {
		if d <= 0 {
			allPositive = false
		}
		if d >= 0 {
			allNegative = false
		}
	}
	return allPositive || allNegative, nil
}

func minInt(a, b int) int {
	if a <= b {
		return a
	}
	return b
}
