package model

import (
	"cmp"
	"slices"
)

// treeParams bound the growth of a regression tree. Zero MaxDepth means
// unlimited; nodes split down to MinLeaf samples.
type treeParams struct {
	MaxDepth int
	MinSplit int
	MinLeaf  int
}

// node is one tree node. Leaves have feature == -1.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int32   `json:"l"`
	Right     int32   `json:"r"`
	Value     float64 `json:"v"`
}

// Tree is a CART regression tree stored as a flat node slice; node 0 is the root.
type Tree struct {
	Nodes []node `json:"nodes"`
}

// Predict walks x down to a leaf: x[feature] <= threshold goes left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = int(n.Left)
		} else {
			i = int(n.Right)
		}
	}
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return d
		}
		return max(walk(int(n.Left), d+1), walk(int(n.Right), d+1))
	}
	return walk(0, 0)
}

// treeBuilder grows one tree over the sample indices of a bootstrap draw.
type treeBuilder struct {
	X      [][]float64
	y      []float64
	params treeParams
	tree   *Tree
	sorted []int // scratch buffer
}

// fitTree grows a tree on rows idx of X (duplicates allowed).
func fitTree(X [][]float64, y []float64, idx []int, p treeParams) *Tree {
	if p.MinSplit < 2 {
		p.MinSplit = 2
	}
	if p.MinLeaf < 1 {
		p.MinLeaf = 1
	}
	b := &treeBuilder{X: X, y: y, params: p, tree: &Tree{}, sorted: make([]int, len(idx))}
	b.grow(slices.Clone(idx), 0)
	return b.tree
}

// grow appends the subtree for idx and returns its node index.
func (b *treeBuilder) grow(idx []int, depth int) int32 {
	self := int32(len(b.tree.Nodes))
	b.tree.Nodes = append(b.tree.Nodes, node{Feature: -1, Value: b.mean(idx)})

	if len(idx) < b.params.MinSplit || (b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) || b.pure(idx) {
		return self
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.Nodes[self] = node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: b.tree.Nodes[self].Value}
	return self
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans every feature for the threshold that minimizes the summed
// squared error of the two children. Minimizing child SSE is the same as
// maximizing sumL²/nL + sumR²/nR, which needs only prefix sums.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += b.y[i]
	}
	// Parent proxy; a split must strictly improve on it.
	best := total * total / float64(n)
	minLeaf := b.params.MinLeaf

	sorted := b.sorted[:n]
	width := len(b.X[idx[0]])
	for f := 0; f < width; f++ {
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, c int) int { return cmp.Compare(b.X[a][f], b.X[c][f]) })

		var sumL float64
		for k := 0; k < n-1; k++ {
			sumL += b.y[sorted[k]]
			nL := k + 1
			nR := n - nL
			if nL < minLeaf {
				continue
			}
			if nR < minLeaf {
				break
			}
			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			sumR := total - sumL
			proxy := sumL*sumL/float64(nL) + sumR*sumR/float64(nR)
			if proxy > best+1e-12 {
				best = proxy
				feature = f
				threshold = lo + (hi-lo)/2
				if threshold == hi {
					threshold = lo
				}
				ok = true
			}
		}
	}
	return feature, threshold, ok
}
