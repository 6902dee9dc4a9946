package model

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestParams configure the ensemble.
type ForestParams struct {
	Trees    int
	Seed     uint64
	MaxDepth int
	Workers  int // 0 means GOMAXPROCS
}

// Forest averages bootstrap-aggregated regression trees.
type Forest struct {
	Trees []*Tree `json:"trees"`
}

// FitForest fits p.Trees trees on bootstrap resamples of (X, y). Tree i draws
// its resample from a PCG stream keyed by (Seed, i), so the fitted forest
// does not depend on goroutine scheduling.
func FitForest(ctx context.Context, X [][]float64, y []float64, p ForestParams) (*Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("fitting forest: %d rows, %d targets", len(X), len(y))
	}
	if p.Trees < 1 {
		return nil, fmt.Errorf("fitting forest: need at least one tree, got %d", p.Trees)
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	forest := &Forest{Trees: make([]*Tree, p.Trees)}
	tp := treeParams{MaxDepth: p.MaxDepth, MinSplit: 2, MinLeaf: 1}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range forest.Trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(p.Seed, uint64(i)))
			idx := make([]int, len(X))
			for k := range idx {
				idx[k] = rng.IntN(len(X))
			}
			forest.Trees[i] = fitTree(X, y, idx, tp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fitting forest: %w", err)
	}
	return forest, nil
}

// Predict returns the mean of the tree predictions for x.
func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}
