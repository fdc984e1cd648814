package guide

import (
	"math/rand"
)

// samplerNode is one reached program state in the weighted sampler's
// decision tree. sizeEstimate is a running estimate of the number of
// leaves below this node; childSampler, when non-nil, is the normalized
// prior distribution over children supplied at first visit.
type samplerNode struct {
	visited      bool
	children     []*samplerNode
	sizeEstimate float64
	childSampler []float64
}

func (n *samplerNode) visit(count int, weights []int) {
	if n.visited {
		if count != len(n.children) {
			violate("Choose", "reached the same tree node again with a different arity: had %d, now %d", len(n.children), count)
		}
		return
	}
	if len(weights) != 0 && len(weights) != count {
		violate("ChooseWeighted", "weights length %d does not match arity %d", len(weights), count)
	}
	n.children = make([]*samplerNode, count)
	n.visited = true
	n.sizeEstimate = float64(count)
	if len(weights) > 0 {
		total := 0
		for _, w := range weights {
			if w < 0 {
				violate("ChooseWeighted", "weights must be non-negative, got %d", w)
			}
			total += w
		}
		if total == 0 {
			violate("ChooseWeighted", "weights must not be all zero")
		}
		probs := make([]float64, count)
		for i, w := range weights {
			probs[i] = float64(w) / float64(total)
		}
		n.childSampler = probs
	}
}

// weight is the prior probability of child i: the normalized supplied
// weight when present, else a uniform 1/n.
func (n *samplerNode) weight(i int) float64 {
	if len(n.childSampler) > 0 {
		return n.childSampler[i]
	}
	return 1.0 / float64(len(n.children))
}

// SamplerGuide maintains a decision tree annotated with per-subtree size
// estimates and reweights child selection so that repeated sampling tends
// toward uniform over leaves, even when the tree is very unbalanced.
// MakeChooser never fails.
type SamplerGuide struct {
	root *samplerNode
	rng  *rand.Rand
}

// NewSampler constructs a SamplerGuide seeded from the OS entropy source.
func NewSampler() *SamplerGuide {
	return NewSamplerSeeded(entropySeed())
}

// NewSamplerSeeded constructs a SamplerGuide with an explicit seed.
func NewSamplerSeeded(seed int64) *SamplerGuide {
	return &SamplerGuide{
		root: &samplerNode{},
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// MakeChooser implements Guide.
func (g *SamplerGuide) MakeChooser() (Chooser, bool) {
	return &samplerChooser{g: g, trail: []*samplerNode{g.root}}, true
}

// RootSizeEstimate reports the guide's current estimate of the total number
// of leaves in the decision tree, as of the last completed traversal.
func (g *SamplerGuide) RootSizeEstimate() float64 { return g.root.sizeEstimate }

type samplerChooser struct {
	g     *SamplerGuide
	trail []*samplerNode
}

// choose is the shared implementation behind Choose and ChooseWeighted.
// weights may be nil.
func (c *samplerChooser) choose(n int, weights []int) int {
	if n <= 0 {
		violate("Choose", "n must be > 0, got %d", n)
	}
	current := c.trail[len(c.trail)-1]
	current.visit(n, weights)

	// Initial sample: draw without reweighting.
	var result int
	if current.childSampler == nil {
		result = c.g.rng.Intn(n)
	} else {
		result = weightedSampleFloat(c.g.rng, current.childSampler)
	}

	if current.children[result] == nil {
		// Virgin territory: preserve the prior distribution as-is.
	} else {
		// Revisit: rebuild a per-call distribution biased by the size
		// estimates of already-visited children. This path can only
		// ever land back on one of those already-visited children —
		// see revisitWeights.
		result = weightedSampleFloat(c.g.rng, revisitWeights(current))
	}

	next := current.children[result]
	if next == nil {
		next = &samplerNode{}
		current.children[result] = next
	}
	c.trail = append(c.trail, next)
	return result
}

func (c *samplerChooser) Choose(n int) int {
	return c.choose(n, nil)
}

func (c *samplerChooser) Flip() bool {
	return c.choose(2, nil) == 1
}

func (c *samplerChooser) ChooseWeighted(weights []int) int {
	return c.choose(len(weights), weights)
}

func (c *samplerChooser) ChooseUnimportant() int64 {
	return int64(c.g.rng.Uint64())
}

// Close collapses the trail, updating each visited ancestor's size
// estimate on the way back to the root. The exact update reproduces the
// upstream source: sizeEstimate = len(children) / occupied, where occupied
// is the total prior weight of visited children. An importance-sampling
// estimator would instead use total / occupied (the weighted sum of child
// size estimates); the source computes that sum but never uses it. This is
// preserved as-is rather than silently corrected — see DESIGN.md.
func (c *samplerChooser) Close() {
	last := c.trail[len(c.trail)-1]
	last.sizeEstimate = 1.0
	c.trail = c.trail[:len(c.trail)-1]

	for len(c.trail) > 0 {
		last = c.trail[len(c.trail)-1]
		occupied := 0.0
		for i, child := range last.children {
			if child != nil {
				occupied += last.weight(i)
			}
		}
		last.sizeEstimate = float64(len(last.children)) / occupied
		c.trail = c.trail[:len(c.trail)-1]
	}
}

// revisitWeights rebuilds the per-call distribution used once the initial
// sample has landed on an already-visited child: weight i is the visited
// child's size estimate times its prior probability, or zero for any
// still-unvisited sibling. Exposed as a named function, per the source's
// design notes, to make this named behavior easy to test and experiment
// with in isolation: a still-unvisited sibling always gets weight zero
// here, so once this function is reached, it can only ever select among
// children that have already been visited. It is never reached at all for
// a node whose initial sample lands on a still-unvisited child — that case
// is handled by the virgin-territory branch in choose, which never calls
// this function. See DESIGN.md for the distinction.
func revisitWeights(current *samplerNode) []float64 {
	w := make([]float64, len(current.children))
	for i, child := range current.children {
		if child != nil {
			w[i] = child.sizeEstimate * current.weight(i)
		}
	}
	return w
}

// weightedSampleFloat draws an index in [0, len(weights)) with probability
// proportional to weights[i]. Weights must sum to a positive value; this is
// an internal invariant guarded here as a last resort — samplerNode.visit
// already rejects a caller-supplied weights slice that would make this
// happen, and sizeEstimate/weight are never zero or negative on a node that
// reaches this function, so the panic below should be unreachable in
// practice.
func weightedSampleFloat(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		violate("Choose", "degenerate distribution: weights sum to %v", total)
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}
