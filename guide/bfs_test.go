package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pathGenerator makes `depth` binary choices and returns the encoded path,
// most-significant choice first.
func pathGenerator(c Chooser, depth int) int {
	v := 0
	for i := 0; i < depth; i++ {
		v = v*2 + c.Choose(2)
	}
	return v
}

func runToExhaustion(t *testing.T, g *BFSGuide, run func(Chooser) int, limit int) (results []int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		c, ok := g.MakeChooser()
		if !ok {
			return results
		}
		v := run(c)
		c.Close()
		results = append(results, v)
	}
	t.Fatalf("guide did not exhaust within %d traversals", limit)
	return nil
}

func TestBFSExhaustivenessSmallBinaryTree(t *testing.T) {
	const depth = 6
	g := NewBFSSeeded(1)
	results := runToExhaustion(t, g, func(c Chooser) int { return pathGenerator(c, depth) }, 1<<depth+10)

	want := 1 << depth
	require.Lenf(t, results, want, "traversals before exhaustion")
	seen := map[int]bool{}
	for _, v := range results {
		seen[v] = true
	}
	assert.Len(t, seen, want, "duplicates: %v", results)
	for i := 0; i < want; i++ {
		assert.Truef(t, seen[i], "leaf %d was never visited", i)
	}
}

func TestBFSSecondMakeChooserWhileActivePanics(t *testing.T) {
	g := NewBFSSeeded(1)
	c, ok := g.MakeChooser()
	require.True(t, ok, "first MakeChooser should succeed")
	defer c.Close()

	assert.Panics(t, func() { g.MakeChooser() }, "second MakeChooser while one is live should panic")
}

func TestBFSArityMismatchPanics(t *testing.T) {
	g := NewBFSSeeded(1)

	c1, _ := g.MakeChooser()
	c1.Choose(3)
	c1.Close()

	c2, ok := g.MakeChooser()
	require.True(t, ok, "second MakeChooser should succeed")
	defer func() {
		r := recover()
		require.NotNil(t, r, "Choose(4) at a node first visited with arity 3 should panic")
		_, ok := r.(*ViolationError)
		assert.True(t, ok, "panic value = %T, want *ViolationError", r)
	}()
	c2.Choose(4)
}

func TestBFSUnimportantDoesNotGrowTree(t *testing.T) {
	const depth = 5
	withUnimportant := func(c Chooser) int {
		v := 0
		for i := 0; i < depth; i++ {
			c.ChooseUnimportant()
			v = v*2 + c.Choose(2)
		}
		return v
	}
	without := func(c Chooser) int { return pathGenerator(c, depth) }

	g1 := NewBFSSeeded(1)
	runToExhaustion(t, g1, without, 1<<depth+10)

	g2 := NewBFSSeeded(1)
	runToExhaustion(t, g2, withUnimportant, 1<<depth+10)

	assert.Equal(t, g1.TotalNodes(), g2.TotalNodes(), "unimportant calls must not branch the tree")
}

func TestBFSMaxSavedLevelMonotone(t *testing.T) {
	const depth = 6
	g := NewBFSSeeded(2)
	prev := g.MaxSavedLevel()
	for i := 0; ; i++ {
		c, ok := g.MakeChooser()
		if !ok {
			break
		}
		pathGenerator(c, depth)
		c.Close()
		require.GreaterOrEqualf(t, g.MaxSavedLevel(), prev, "MaxSavedLevel decreased at traversal %d", i)
		prev = g.MaxSavedLevel()
		require.LessOrEqualf(t, i, 1<<depth+10, "did not exhaust in time")
	}
}

func TestBFSTotalNodesAccounting(t *testing.T) {
	const depth = 4
	g := NewBFSSeeded(3)
	results := runToExhaustion(t, g, func(c Chooser) int { return pathGenerator(c, depth) }, 1<<depth+10)
	require.Len(t, results, 1<<depth)
	// A full binary tree of this depth has 2^(depth+1)-1 internal+leaf
	// nodes below the root, plus the root's single child slot leads into
	// that structure -- every node including leaves is materialized by
	// the time the tree is fully exhausted.
	want := 1<<(depth+1) - 1
	assert.Equal(t, want, g.TotalNodes())
}

func TestBFSDeterministic(t *testing.T) {
	const depth = 6
	run := func(seed int64) []int {
		g := NewBFSSeeded(seed)
		return runToExhaustion(t, g, func(c Chooser) int { return pathGenerator(c, depth) }, 1<<depth+10)
	}
	a := run(11)
	b := run(11)
	assert.Equal(t, a, b, "identical seeds should not diverge")
}

func TestBFSExhaustedGuideStaysExhausted(t *testing.T) {
	const depth = 3
	g := NewBFSSeeded(4)
	runToExhaustion(t, g, func(c Chooser) int { return pathGenerator(c, depth) }, 1<<depth+10)
	_, ok := g.MakeChooser()
	assert.False(t, ok, "MakeChooser() after exhaustion should keep returning ok=false")
	_, ok = g.MakeChooser()
	assert.False(t, ok, "exhaustion should be absorbing")
}

func TestBFSRandomTieBreakStillExhaustive(t *testing.T) {
	const depth = 6
	g := NewBFSSeeded(5, WithTieBreak(RandomUntaken))
	results := runToExhaustion(t, g, func(c Chooser) int { return pathGenerator(c, depth) }, 1<<depth+10)
	seen := map[int]bool{}
	for _, v := range results {
		seen[v] = true
	}
	assert.Len(t, seen, 1<<depth, "random tie-break lost exhaustiveness")
}

type debugRecorder struct{ lines []string }

func (d *debugRecorder) Debugf(format string, args ...interface{}) {
	d.lines = append(d.lines, format)
}

func TestBFSDebugSinkReceivesEvents(t *testing.T) {
	const depth = 3
	rec := &debugRecorder{}
	g := NewBFSSeeded(6, WithDebug(rec))
	runToExhaustion(t, g, func(c Chooser) int { return pathGenerator(c, depth) }, 1<<depth+10)
	assert.NotEmpty(t, rec.lines, "debug sink received no events")
}
