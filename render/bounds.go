package render

import (
	"fmt"
	"math"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Default bounds estimation constants. These are empirically chosen and
// remain configurable through the Estimator fields.
const (
	defaultLattice   = 16
	defaultMaxIter   = 32
	defaultConvTol   = 1e-10
	defaultHalfRange = 10.0
)

// Estimator iteratively tightens an axis-aligned box around the zero level
// set of a field. The zero value uses the defaults: a 16³ sampling lattice,
// 32 iterations, 1e-10 convergence tolerance and a ±10 unit search range.
type Estimator struct {
	// Lattice is the number of sample points per axis per iteration.
	Lattice int
	// MaxIter caps the number of refinement iterations. Hitting the cap
	// is not an error; the best available box is returned.
	MaxIter int
	// ConvTol stops iterating once the near-surface threshold changes by
	// less than this between iterations.
	ConvTol float64
	// Range is the initial search box. Zero means a symmetric box of
	// ±10 units about the origin; any other box without volume is
	// rejected.
	Range r3.Box
}

// Estimate returns a tight bounding box around the zero level set of f.
// If the first sampling pass finds no point within the near-surface
// threshold the surface is not visible in the search range and Estimate
// returns ErrNoSurface with a degenerate box.
func (e Estimator) Estimate(f isomesh.Field) (r3.Box, error) {
	lattice := e.Lattice
	if lattice == 0 {
		lattice = defaultLattice
	}
	if lattice < 2 {
		return r3.Box{}, fmt.Errorf("%w: estimator lattice %d below 2", ErrInvalidOptions, lattice)
	}
	maxIter := e.MaxIter
	if maxIter == 0 {
		maxIter = defaultMaxIter
	}
	convTol := e.ConvTol
	if convTol == 0 {
		convTol = defaultConvTol
	}
	bb := d3.Box(e.Range)
	if bb.Degenerate() {
		if e.Range != (r3.Box{}) {
			return r3.Box{}, fmt.Errorf("%w: degenerate estimator range %+v", ErrInvalidOptions, e.Range)
		}
		bb = d3.NewBox(r3.Vec{}, d3.Elem(2*defaultHalfRange))
	}

	n := lattice * lattice * lattice
	pts := make([]r3.Vec, n)
	dist := make([]float64, n)
	prevThreshold := -1.0

	for iter := 0; iter < maxIter; iter++ {
		size := bb.Size()
		cell := r3.Scale(1/float64(lattice-1), size)
		threshold := 0.5 * r3.Norm(cell)
		if math.Abs(threshold-prevThreshold) < convTol {
			break
		}
		prevThreshold = threshold

		i := 0
		for z := 0; z < lattice; z++ {
			for y := 0; y < lattice; y++ {
				for x := 0; x < lattice; x++ {
					pts[i] = r3.Vec{
						X: bb.Min.X + float64(x)*cell.X,
						Y: bb.Min.Y + float64(y)*cell.Y,
						Z: bb.Min.Z + float64(z)*cell.Z,
					}
					i++
				}
			}
		}
		if err := f.Evaluate(pts, dist); err != nil {
			return r3.Box{}, fmt.Errorf("bounds estimation: %w", err)
		}

		near := d3.MinBound()
		found := false
		for i, d := range dist {
			if math.Abs(d) <= threshold {
				near = near.Include(pts[i])
				found = true
			}
		}
		if !found {
			if iter == 0 {
				// Nothing within reach of the surface anywhere in the
				// search range.
				return r3.Box{}, ErrNoSurface
			}
			break
		}
		// Pad by half a cell so surface grazing the lattice stays inside.
		bb = near.Enlarge(cell)
	}
	return r3.Box(bb), nil
}
