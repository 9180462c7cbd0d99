package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoSurface reports that bounds estimation found no zero level set
	// within the search range. The scene is empty, not broken.
	ErrNoSurface = errors.New("no surface found within search range")
	// ErrInvalidOptions reports a configuration rejected before any field
	// evaluation started.
	ErrInvalidOptions = errors.New("invalid options")
)

const (
	defaultSampleBudget = 1 << 22
	defaultBatchSize    = 32
)

// Options configures one mesh generation run. The zero value is valid and
// uses all defaults.
type Options struct {
	// Step is the world-space sample spacing. Zero derives the step from
	// SampleBudget over the bounding box volume.
	Step float64
	// SampleBudget is the target total number of field samples used to
	// derive Step when Step is zero. Defaults to 2²².
	SampleBudget int
	// Bounds supplies the meshing region explicitly, skipping bounds
	// estimation.
	Bounds *r3.Box
	// BatchSize is the maximum cell count per axis of one batch.
	// Defaults to 32.
	BatchSize int
	// DisablePruning turns off the sparse batch pruner, forcing every
	// batch to be sampled densely.
	DisablePruning bool
	// Workers sets the worker pool size. Defaults to runtime.NumCPU().
	Workers int
	// Progress, if set, is called after every finished batch with the
	// number of completed batches and the total. It is called from
	// worker goroutines under the merge lock and must not block.
	Progress func(completed, total int)
	// Estimator configures bounds estimation when Bounds is nil.
	Estimator Estimator
}

// Generate meshes the zero level set of f. See GenerateContext.
func Generate(f isomesh.Field, opts Options) (Mesh, error) {
	return GenerateContext(context.Background(), f, opts)
}

// GenerateContext meshes the zero level set of f into an unindexed triangle
// soup. Batches are processed by a worker pool; output triangle order is
// deterministic for a deterministic field regardless of worker count.
//
// Cancellation is cooperative: in-flight batches run to completion, no new
// batch starts after ctx is done, and the triangles of completed batches
// are returned alongside the wrapped context error.
func GenerateContext(ctx context.Context, f isomesh.Field, opts Options) (Mesh, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil field", ErrInvalidOptions)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var bb r3.Box
	if opts.Bounds != nil {
		bb = *opts.Bounds
	} else {
		var err error
		bb, err = opts.Estimator.Estimate(f)
		if err != nil {
			return nil, err
		}
	}

	step := opts.Step
	if step == 0 {
		budget := opts.SampleBudget
		if budget == 0 {
			budget = defaultSampleBudget
		}
		step = math.Cbrt(d3.Box(bb).Volume() / float64(budget))
	}
	if step <= 0 || math.IsNaN(step) {
		return nil, fmt.Errorf("%w: cannot derive positive step from bounds %+v", ErrInvalidOptions, bb)
	}

	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}
	layout := newGridLayout(bb, step)
	batches := layout.batches(batchSize)

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(batches) {
		workers = len(batches)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &meshRun{
		field:   f,
		layout:  layout,
		sparse:  !opts.DisablePruning,
		results: make([][]Triangle3, len(batches)),
		total:   len(batches),
		cancel:  cancel,

		progress: opts.Progress,
	}
	tasks := make(chan gridBatch, len(batches))
	for _, b := range batches {
		tasks <- b
	}
	close(tasks)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run.worker(runCtx, tasks)
		}()
	}
	wg.Wait()

	if run.err != nil {
		return nil, run.err
	}
	mesh := run.merge()
	if err := ctx.Err(); err != nil {
		return mesh, fmt.Errorf("generation cancelled after %d/%d batches: %w", run.completed, run.total, err)
	}
	return mesh, nil
}

func (o Options) validate() error {
	if o.Step < 0 {
		return fmt.Errorf("%w: negative step %g", ErrInvalidOptions, o.Step)
	}
	if o.SampleBudget < 0 {
		return fmt.Errorf("%w: negative sample budget %d", ErrInvalidOptions, o.SampleBudget)
	}
	if o.BatchSize < 0 {
		return fmt.Errorf("%w: negative batch size %d", ErrInvalidOptions, o.BatchSize)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidOptions, o.Workers)
	}
	if o.Bounds != nil && d3.Box(*o.Bounds).Degenerate() {
		return fmt.Errorf("%w: degenerate bounds %+v", ErrInvalidOptions, *o.Bounds)
	}
	return nil
}

// meshRun holds the shared state of one generation run. results is keyed by
// batch spatial index so the merged mesh is deterministic no matter the
// order batches finish in.
type meshRun struct {
	field  isomesh.Field
	layout gridLayout
	sparse bool
	total  int
	cancel context.CancelFunc

	mu        sync.Mutex
	results   [][]Triangle3
	completed int
	err       error
	progress  func(completed, total int)
}

// worker consumes batches until the queue drains, an error occurs or the
// context is cancelled. All sampling scratch is worker-owned; triangles are
// handed to the shared run exactly once per batch.
func (run *meshRun) worker(ctx context.Context, tasks <-chan gridBatch) {
	var (
		pts       []r3.Vec
		grid      []float64
		tris      []Triangle3
		prunePts  = make([]r3.Vec, 8)
		pruneDist = make([]float64, 8)
	)
	for b := range tasks {
		if ctx.Err() != nil {
			return
		}
		if run.sparse {
			skip, err := canSkipBatch(run.field, run.layout.bounds(b), prunePts, pruneDist)
			if err != nil {
				run.fail(b, err)
				return
			}
			if skip {
				run.finish(b.index, nil)
				continue
			}
		}
		pts = run.layout.sample(b, pts)
		if cap(grid) < len(pts) {
			grid = make([]float64, len(pts))
		}
		grid = grid[:len(pts)]
		if err := run.field.Evaluate(pts, grid); err != nil {
			run.fail(b, err)
			return
		}
		tris = marchCubes(grid, b.nx, b.ny, b.nz, run.layout.pos(b.x0, b.y0, b.z0), run.layout.step, tris[:0])
		var out []Triangle3
		if len(tris) > 0 {
			out = make([]Triangle3, len(tris))
			copy(out, tris)
		}
		run.finish(b.index, out)
	}
}

// finish merges one batch result under the merge lock.
func (run *meshRun) finish(index int, tris []Triangle3) {
	run.mu.Lock()
	defer run.mu.Unlock()
	run.results[index] = tris
	run.completed++
	if run.progress != nil {
		run.progress(run.completed, run.total)
	}
}

// fail records the first batch failure and cancels the run context so the
// remaining workers stop picking up batches. Field errors are not retried:
// the field is assumed deterministic, so a retry cannot help.
func (run *meshRun) fail(b gridBatch, err error) {
	run.mu.Lock()
	if run.err == nil {
		run.err = fmt.Errorf("batch %d at %v: %w", b.index, run.layout.bounds(b).Min, err)
	}
	run.mu.Unlock()
	run.cancel()
}

// merge concatenates completed batch results in spatial index order.
func (run *meshRun) merge() Mesh {
	n := 0
	for _, r := range run.results {
		n += len(r)
	}
	mesh := make(Mesh, 0, n)
	for _, r := range run.results {
		mesh = append(mesh, r...)
	}
	return mesh
}
