package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flipUntilHeads mirrors the worked flip-until-heads generator: it returns
// the index of the first Flip() that comes up true, or depth if none did
// within the first depth flips. Its decision tree is a chain, not a full
// binary tree: the "heads" branch at every level is an immediate leaf, so
// the tree has exactly depth+1 leaves.
func flipUntilHeads(c Chooser, depth int) int {
	for i := 0; i < depth; i++ {
		if c.Flip() {
			return i
		}
	}
	return depth
}

func TestBFSFlipUntilHeadsExhaustsWithExactOutcomeCount(t *testing.T) {
	const depth = 20
	g := NewBFSSeeded(1)
	results := runToExhaustion(t, g, func(c Chooser) int { return flipUntilHeads(c, depth) }, depth+10)

	want := depth + 1
	require.Len(t, results, want)
	seen := map[int]bool{}
	for _, v := range results {
		seen[v] = true
	}
	for i := 0; i <= depth; i++ {
		assert.Truef(t, seen[i], "outcome %d (flip came up heads at index %d, or never) was never observed", i, i)
	}
}

// balancedTreePath mirrors the worked balanced-binary-tree generator: depth
// independent Choose(2) calls, most-significant bit first, folded into a
// single encoded path value starting from 1 (matching the source's
// test2_helper(Depth, 1) accumulator).
func balancedTreePath(c Chooser, depth int) int {
	v := 1
	for i := 0; i < depth; i++ {
		v = 2*v + c.Choose(2)
	}
	return v
}

// TestBFSBalancedTreePrefixCoverage confirms the breadth-first coverage
// guarantee: after the first 2^0 + 2^1 + ... + 2^k = 2^(k+1)-1 traversals,
// every node at depth <= k in the tree has been visited, because BFS always
// fully drains one frontier level before advancing to the next.
func TestBFSBalancedTreePrefixCoverage(t *testing.T) {
	const depth = 8
	g := NewBFSSeeded(2)

	traversal := 0
	for k := 0; k < depth; k++ {
		budget := 1 << (k + 1)
		for traversal < budget {
			c, ok := g.MakeChooser()
			require.Truef(t, ok, "guide exhausted early at traversal %d (budget for level %d was %d)", traversal, k, budget)
			balancedTreePath(c, depth)
			c.Close()
			traversal++
		}
		assert.GreaterOrEqualf(t, g.MaxSavedLevel(), k, "after %d traversals, level %d not yet fully explored", traversal, k)
	}
}

// TestSamplerBalancedTreeConvergesOnBothLeavesOfShallowChoice exercises the
// sampler on the same shape of generator as the balanced-tree scenario, at a
// depth small enough to check that every one of its 2^depth leaves (and so
// both halves under the shallow first choice) gets sampled.
func TestSamplerBalancedTreeConvergesOnBothLeavesOfShallowChoice(t *testing.T) {
	const depth = 5
	g := NewSamplerSeeded(3)
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		c, ok := g.MakeChooser()
		require.True(t, ok, "SamplerGuide.MakeChooser() should always succeed")
		v := balancedTreePath(c, depth)
		c.Close()
		seen[v] = true
	}
	assert.Len(t, seen, 1<<depth)
}
