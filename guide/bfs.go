package guide

import (
	"math/rand"
)

// TieBreak selects which untaken child slot a BFS frontier node hands out
// next, when more than one remains. The source implementation always picks
// the lowest index, an acceptable but arbitrary choice, so both strategies
// are first-class here.
type TieBreak int

const (
	// LowestIndex deterministically picks the lowest untaken child index.
	// This matches the upstream source exactly.
	LowestIndex TieBreak = iota
	// RandomUntaken picks uniformly at random among untaken child
	// indices. Exhaustiveness still holds either way: every untaken slot
	// is still reachable, just not necessarily in index order.
	RandomUntaken
)

// DebugSink receives human-readable tracing of BFS queue insertions,
// replay choices, and level progression when a BFSGuide is constructed
// with WithDebug. The telemetry package's zap adapter is the usual sink.
type DebugSink interface {
	Debugf(format string, args ...interface{})
}

// bfsNode is one reached program state in the decision tree. A nil entry
// in children means that branch exists in the decision space but has never
// been entered. The tree owns its nodes; the frontier queue only ever
// holds non-owning *bfsNode references into it.
type bfsNode struct {
	parent   *bfsNode
	children []*bfsNode
}

func (n *bfsNode) untakenIndices() []int {
	var out []int
	for i, c := range n.children {
		if c == nil {
			out = append(out, i)
		}
	}
	return out
}

type bfsState int

const (
	bfsIdle bfsState = iota
	bfsActive
	bfsExhausted
)

// BFSGuide performs exhaustive breadth-first exploration of a generator's
// decision tree, reverting to random choices once past the BFS frontier.
// Repeated MakeChooser calls hand back deeper and deeper saved prefixes
// until the whole tree has been visited, at which point MakeChooser
// returns (nil, false).
type BFSGuide struct {
	root          *bfsNode
	pending       *frontierQueue
	totalNodes    int
	maxSavedLevel int
	started       bool
	state         bfsState
	rng           *rand.Rand
	tieBreak      TieBreak
	debug         DebugSink
}

// BFSOption configures a BFSGuide at construction time.
type BFSOption func(*BFSGuide)

// WithTieBreak overrides the default LowestIndex tie-break strategy.
func WithTieBreak(t TieBreak) BFSOption {
	return func(g *BFSGuide) { g.tieBreak = t }
}

// WithDebug attaches a sink for human-readable tracing of queue
// insertions, replay choices, and level progression.
func WithDebug(sink DebugSink) BFSOption {
	return func(g *BFSGuide) { g.debug = sink }
}

// NewBFS constructs a BFSGuide seeded from the OS entropy source.
func NewBFS(opts ...BFSOption) *BFSGuide {
	return NewBFSSeeded(entropySeed(), opts...)
}

// NewBFSSeeded constructs a BFSGuide with an explicit seed, for
// reproducible exploration order.
func NewBFSSeeded(seed int64, opts ...BFSOption) *BFSGuide {
	g := &BFSGuide{
		root:          &bfsNode{children: make([]*bfsNode, 1)},
		pending:       newFrontierQueue(),
		maxSavedLevel: -1,
		rng:           rand.New(rand.NewSource(seed)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TotalNodes reports the number of distinct tree nodes reachable from the
// root after all traversals so far.
func (g *BFSGuide) TotalNodes() int { return g.totalNodes }

// MaxSavedLevel reports the level of the frontier node most recently removed
// from the queue (every lower level has been fully drained by then; other
// nodes at this level may still be queued), or -1 before the first planned
// traversal.
func (g *BFSGuide) MaxSavedLevel() int { return g.maxSavedLevel }

// FrontierSize reports the number of frontier nodes currently queued,
// awaiting a future MakeChooser call.
func (g *BFSGuide) FrontierSize() int { return g.pending.len() }

func (g *BFSGuide) emit(format string, args ...interface{}) {
	if g.debug != nil {
		g.debug.Debugf(format, args...)
	}
}

// MakeChooser implements Guide.
func (g *BFSGuide) MakeChooser() (Chooser, bool) {
	if g.state == bfsActive {
		violate("MakeChooser", "a chooser is already live for this guide")
	}
	g.emit("*** START *** (total nodes = %d)", g.totalNodes)

	if !g.started {
		g.emit("  first traversal (bootstrap)")
		g.started = true
		g.state = bfsActive
		return &bfsChooser{g: g, current: g.root}, true
	}

	if g.state == bfsExhausted {
		return nil, false
	}

	n, level, ok := g.pending.removeHead()
	if !ok {
		g.emit("  tree has been completely explored")
		g.state = bfsExhausted
		return nil, false
	}
	if level < g.maxSavedLevel {
		violate("MakeChooser", "frontier level went backwards: %d < %d", level, g.maxSavedLevel)
	}
	if level > g.maxSavedLevel {
		g.emit("fully explored up to %d", level)
	}
	g.maxSavedLevel = level

	c := &bfsChooser{g: g, current: g.root}
	c.savedChoices = g.planPath(n, level)
	g.state = bfsActive
	return c, true
}

// planPath walks from the popped frontier node n up to the root, recording
// the child index taken on each edge, and returns them ordered so that
// popping from the back of the slice yields root-to-n order. At n itself
// it also selects the untaken branch to explore this traversal and,
// if more than one untaken branch remains, re-queues n at the same level.
func (g *BFSGuide) planPath(n *bfsNode, level int) []int {
	var saved []int
	var below *bfsNode
	cur := n
	for cur != g.root {
		var next int
		if below == nil {
			untaken := cur.untakenIndices()
			if len(untaken) == 0 {
				violate("MakeChooser", "frontier node has no untaken children")
			}
			next = g.pickUntaken(untaken)
			g.emit("  appending %d to saved choice at target node", next)
			if len(untaken) > 1 {
				g.emit("  re-inserting node at level %d", level)
				g.pending.insert(cur, level)
			}
		} else {
			next = indexOfChild(cur, below)
			g.emit("  appending %d to saved choice above target node", next)
		}
		saved = append(saved, next)
		below = cur
		cur = cur.parent
	}
	return saved
}

func (g *BFSGuide) pickUntaken(untaken []int) int {
	switch g.tieBreak {
	case RandomUntaken:
		return untaken[g.rng.Intn(len(untaken))]
	default:
		return untaken[0]
	}
}

func indexOfChild(parent, child *bfsNode) int {
	for i, c := range parent.children {
		if c == child {
			return i
		}
	}
	violate("MakeChooser", "child not found among its recorded parent's children")
	return -1
}

// bfsChooser is the per-traversal Chooser bound to a BFSGuide.
type bfsChooser struct {
	g            *BFSGuide
	current      *bfsNode
	lastChoice   int
	level        int
	savedChoices []int // pop from the back
}

func (c *bfsChooser) chooseInternal(n int, randomFallback func() int) int {
	child := c.current.children[c.lastChoice]
	var choice int
	if child != nil {
		if len(child.children) != n {
			violate("Choose", "reached the same tree node again with a different arity: had %d, now %d", len(child.children), n)
		}
		if len(c.savedChoices) == 0 {
			violate("Choose", "internal invariant violated: no saved choice for an already-visited node")
		}
		choice = c.savedChoices[len(c.savedChoices)-1]
		c.savedChoices = c.savedChoices[:len(c.savedChoices)-1]
	} else {
		if len(c.savedChoices) != 0 {
			violate("Choose", "internal invariant violated: saved choices remain at an unvisited node")
		}
		child = &bfsNode{parent: c.current, children: make([]*bfsNode, n)}
		c.g.totalNodes++
		c.current.children[c.lastChoice] = child
		choice = randomFallback()
		if n > 1 {
			c.g.pending.insert(child, c.level)
		}
	}
	c.current = child
	c.lastChoice = choice
	c.level++
	return choice
}

func (c *bfsChooser) Choose(n int) int {
	if n <= 0 {
		violate("Choose", "n must be > 0, got %d", n)
	}
	return c.chooseInternal(n, func() int { return c.g.rng.Intn(n) })
}

func (c *bfsChooser) Flip() bool {
	return c.Choose(2) == 1
}

func (c *bfsChooser) ChooseWeighted(weights []int) int {
	return c.chooseInternal(len(weights), func() int { return discreteDraw(c.g.rng, weights) })
}

func (c *bfsChooser) ChooseUnimportant() int64 {
	return int64(c.g.rng.Uint64())
}

func (c *bfsChooser) Close() {
	if len(c.savedChoices) != 0 {
		violate("Close", "internal invariant violated: saved choices not empty at end of traversal")
	}
	if c.current.children[c.lastChoice] == nil {
		c.current.children[c.lastChoice] = &bfsNode{parent: c.current, children: nil}
		c.g.totalNodes++
	}
	c.g.state = bfsIdle
}
