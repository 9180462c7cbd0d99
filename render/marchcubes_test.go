package render

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestMarchingTables(t *testing.T) {
	if len(mcTriangleTable[0]) != 0 || len(mcTriangleTable[255]) != 0 {
		t.Error("fully inside/outside cases must emit no triangles")
	}
	for i, row := range mcTriangleTable {
		if len(row)%3 != 0 {
			t.Errorf("case %d: row length %d not a multiple of 3", i, len(row))
		}
		if len(row)/3 > marchingCubesMaxTriangles {
			t.Errorf("case %d: %d triangles exceeds maximum %d", i, len(row)/3, marchingCubesMaxTriangles)
		}
		rowEdges := uint16(0)
		for _, e := range row {
			if e >= 12 {
				t.Fatalf("case %d: edge index %d out of range", i, e)
			}
			rowEdges |= 1 << e
		}
		if rowEdges != mcEdgeTable[i] {
			t.Errorf("case %d: triangle edges %#x disagree with edge table %#x", i, rowEdges, mcEdgeTable[i])
		}
	}
	// A cell and its inside/outside complement cross the same edges.
	for i := 0; i < 256; i++ {
		if mcEdgeTable[i] != mcEdgeTable[255-i] {
			t.Errorf("edge table asymmetric between case %d and %d", i, 255-i)
		}
	}
	for e, c := range mcEdgeCorners {
		diff := 0
		for axis := 0; axis < 3; axis++ {
			if mcCornerOffsets[c[0]][axis] != mcCornerOffsets[c[1]][axis] {
				diff++
			}
		}
		if diff != 1 {
			t.Errorf("edge %d does not join adjacent corners", e)
		}
	}
}

func TestMarchCubesSingleCorner(t *testing.T) {
	// 2x2x2 grid, one cell. Only corner (0,0,0) inside.
	grid := []float64{-1, 1, 1, 1, 1, 1, 1, 1}
	tris := marchCubes(grid, 2, 2, 2, r3.Vec{}, 1, nil)
	if len(tris) != 1 {
		t.Fatalf("got %d triangles, want 1", len(tris))
	}
	for _, v := range tris[0].V {
		if v.X < 0 || v.X > 1 || v.Y < 0 || v.Y > 1 || v.Z < 0 || v.Z > 1 {
			t.Errorf("vertex %v escapes the cell", v)
		}
		// Crossing at the midpoint of an edge touching the origin corner.
		if math.Abs(r3.Norm(v)-0.5) > 1e-12 {
			t.Errorf("vertex %v not at edge midpoint", v)
		}
	}
	// The solid occupies the origin corner, so the outward normal must
	// point toward the opposite corner.
	if n := tris[0].Normal(); r3.Dot(n, r3.Vec{X: 1, Y: 1, Z: 1}) <= 0 {
		t.Errorf("normal %v points into the solid", n)
	}
}

func TestMarchCubesUniformField(t *testing.T) {
	outside := make([]float64, 27)
	inside := make([]float64, 27)
	for i := range outside {
		outside[i] = 1
		inside[i] = -1
	}
	if tris := marchCubes(outside, 3, 3, 3, r3.Vec{}, 1, nil); len(tris) != 0 {
		t.Errorf("all-outside grid produced %d triangles", len(tris))
	}
	if tris := marchCubes(inside, 3, 3, 3, r3.Vec{}, 1, nil); len(tris) != 0 {
		t.Errorf("all-inside grid produced %d triangles", len(tris))
	}
}

func TestInterpolateSnap(t *testing.T) {
	p1 := r3.Vec{X: 1}
	p2 := r3.Vec{X: 2}
	if got := mcInterpolate(p1, p2, 0, 1); got != p1 {
		t.Errorf("zero at p1: got %v", got)
	}
	if got := mcInterpolate(p1, p2, -1, 0); got != p2 {
		t.Errorf("zero at p2: got %v", got)
	}
	got := mcInterpolate(p1, p2, -1, 1)
	if math.Abs(got.X-1.5) > 1e-12 {
		t.Errorf("symmetric crossing: got %v, want midpoint", got)
	}
}
