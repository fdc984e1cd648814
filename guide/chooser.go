package guide

// Chooser is the per-traversal interface a generator calls to make its
// decisions. A generator obtains one from Guide.MakeChooser, calls its
// methods in whatever order its logic demands, and must call Close exactly
// once when it is done — on every return path, including panics.
type Chooser interface {
	// Choose returns an integer in [0, n). n must be > 0. May grow the
	// guide's decision tree. This is the primary decision point and the
	// one the guide optimizes over.
	Choose(n int) int

	// Flip is shorthand for Choose(2) == 0 interpreted as false, == 1 as
	// true.
	Flip() bool

	// ChooseWeighted picks an index into weights according to the
	// (non-negative) weights, treated as relative probabilities. Grows
	// the decision tree the same way Choose does.
	ChooseWeighted(weights []int) int

	// ChooseUnimportant returns a full-width pseudo-random value. The
	// caller promises that the returned value will not influence any
	// subsequent Choose/ChooseWeighted call; the guide does not record
	// this decision in its tree. Used for literals, generated names, and
	// similar values whose exact bits don't affect later control flow.
	ChooseUnimportant() int64

	// Close finalizes the traversal: BFS records the terminal node the
	// traversal landed on, the sampler propagates size estimates up its
	// trail. Must be called exactly once per Chooser.
	Close()
}

// Guide is a strategy object that decides how choices are made across many
// traversals of a generator and owns the decision tree (if any) shared
// across those traversals.
type Guide interface {
	// MakeChooser returns a fresh Chooser bound to this guide, and true,
	// or (nil, false) when the guide's decision space has been
	// completely explored (BFS only — Default and Sampler never return
	// false).
	MakeChooser() (Chooser, bool)
}
