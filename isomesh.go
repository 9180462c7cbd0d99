// Package isomesh defines the batched signed distance field contract consumed
// by the meshing pipeline in the render package, along with the combinator
// algebra used to compose fields.
//
// A signed distance field maps a point in 3D space to the signed distance to
// the nearest surface: negative inside the solid, positive outside, zero on
// the surface itself. Fields are evaluated in batches so that implementations
// may amortize per-call overhead over many points.
package isomesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Field is a batched signed distance evaluator.
//
// Evaluate computes the signed distance for every point in p and stores the
// results in dist, preserving order: dist[i] corresponds to p[i]. Both slices
// must have equal length. Implementations must be stateless with respect to
// calls: Evaluate may be called concurrently from multiple goroutines.
type Field interface {
	Evaluate(p []r3.Vec, dist []float64) error
}

// FieldFunc adapts a pointwise distance function to the batched Field
// interface.
type FieldFunc func(p r3.Vec) float64

// Evaluate implements the Field interface.
func (f FieldFunc) Evaluate(p []r3.Vec, dist []float64) error {
	if err := checkBatch(p, dist); err != nil {
		return err
	}
	for i, v := range p {
		dist[i] = f(v)
	}
	return nil
}

// checkBatch validates the length contract between a point batch and its
// distance destination.
func checkBatch(p []r3.Vec, dist []float64) error {
	if len(p) != len(dist) {
		return fmt.Errorf("batch length mismatch: %d points, %d distances", len(p), len(dist))
	}
	return nil
}
