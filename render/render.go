// Package render converts implicit surfaces (batched signed distance fields
// satisfying the isomesh.Field contract) into triangle meshes and writes
// them out as binary STL.
//
// The pipeline estimates (or accepts) a bounding box around the zero level
// set, tiles it into fixed-size batches, prunes batches provably away from
// the surface, densely samples the remainder and extracts triangles per
// batch with marching cubes, in parallel. Output is unindexed triangle soup:
// batches resample their shared faces, so vertices at batch seams are
// duplicated, not welded.
package render

import (
	"math"

	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle3 is a triangle in 3D space.
type Triangle3 struct {
	V [3]r3.Vec
}

// Mesh is an ordered list of triangles produced by one generation run.
type Mesh []Triangle3

// Normal returns the unit normal of the triangle following the right-hand
// rule over V[0],V[1],V[2]. A degenerate triangle yields the zero vector;
// most mesh consumers recompute normals on load anyway.
func (t Triangle3) Normal() r3.Vec {
	e1 := r3.Sub(t.V[1], t.V[0])
	e2 := r3.Sub(t.V[2], t.V[0])
	n := r3.Cross(e1, e2)
	norm := r3.Norm(n)
	if norm < 1e-16 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return r3.Vec{}
	}
	return r3.Scale(1/norm, n)
}

// Degenerate returns true if any two triangle vertices coincide within tol.
func (t Triangle3) Degenerate(tol float64) bool {
	return d3.EqualWithin(t.V[0], t.V[1], tol) ||
		d3.EqualWithin(t.V[1], t.V[2], tol) ||
		d3.EqualWithin(t.V[2], t.V[0], tol)
}

// Bounds returns the tight bounding box of all mesh vertices. An empty mesh
// returns the zero box.
func (m Mesh) Bounds() r3.Box {
	if len(m) == 0 {
		return r3.Box{}
	}
	bb := d3.MinBound()
	for _, t := range m {
		for _, v := range t.V {
			bb = bb.Include(v)
		}
	}
	return r3.Box(bb)
}
