package driver

import (
	"context"

	"github.com/regehr/uniform-tree-sampling/guide"
)

// Generator is caller-supplied code that drives one traversal to
// completion, calling c's Choose-family methods as many times as it needs
// and returning whatever result it wants recorded.
type Generator func(c guide.Chooser) interface{}

// RunResult accumulates the outcome of a Run.
type RunResult struct {
	Traversals int
	Results    []interface{}
	Violation  *guide.ViolationError
}

// contextChooserMaker is satisfied by guides that can thread a caller's
// context into chooser creation, such as telemetry.InstrumentedGuide's
// MakeChooserContext (used to parent a tracing span under the caller's
// span rather than starting a new root). Guides that don't implement it
// fall back to the plain, context-oblivious guide.Guide.MakeChooser.
type contextChooserMaker interface {
	MakeChooserContext(ctx context.Context) (guide.Chooser, bool)
}

func makeChooser(ctx context.Context, g guide.Guide) (guide.Chooser, bool) {
	if cm, ok := g.(contextChooserMaker); ok {
		return cm.MakeChooserContext(ctx)
	}
	return g.MakeChooser()
}

// Run is RunContext with context.Background().
func Run(g guide.Guide, gen Generator, maxTraversals int) RunResult {
	return RunContext(context.Background(), g, gen, maxTraversals)
}

// RunContext repeatedly asks g for a chooser, runs gen against it, and
// closes the chooser before asking for the next one. It stops when
// MakeChooser returns ok == false, when maxTraversals traversals have
// completed (0 means unbounded), or when gen panics with a
// *guide.ViolationError — a violation is unrecoverable for the guide's
// internal state (the chooser was never closed), so RunContext reports it
// on RunResult.Violation and stops rather than continuing to call
// MakeChooser. Any other panic from gen is re-raised to the caller after
// runOne has still tried to finalize the abandoned chooser (see
// closeQuietly), so a caller that recovers above RunContext and keeps using
// the same guide usually finds it idle. When that Close itself panics (a BFS
// replay cut short with saved choices left), the BFS guide still reports a
// live chooser. ctx is passed to g
// via makeChooser when g supports it, so a guide wrapped in
// telemetry.InstrumentedGuide can parent its traversal spans under the
// caller's own span.
func RunContext(ctx context.Context, g guide.Guide, gen Generator, maxTraversals int) RunResult {
	var out RunResult
	for maxTraversals <= 0 || out.Traversals < maxTraversals {
		c, ok := makeChooser(ctx, g)
		if !ok {
			break
		}
		if violation := runOne(c, gen, &out); violation != nil {
			out.Violation = violation
			break
		}
	}
	return out
}

func runOne(c guide.Chooser, gen Generator, out *RunResult) (violation *guide.ViolationError) {
	defer func() {
		if r := recover(); r != nil {
			verr, ok := r.(*guide.ViolationError)
			if !ok {
				closeQuietly(c)
				panic(r)
			}
			violation = verr
		}
	}()
	result := gen(c)
	c.Close()
	out.Results = append(out.Results, result)
	out.Traversals++
	return nil
}

// closeQuietly finalizes the guide-side state of a traversal gen abandoned
// mid-flight by panicking with something other than a *guide.ViolationError
// (BFS: clears the guide's active-chooser flag so a later MakeChooser on
// the same guide doesn't see one as still live; Sampler: collapses the
// trail). Close itself may panic — the abandoned traversal can leave state
// it has no clean way to reconcile, e.g. unresolved saved choices from a
// BFS replay cut short — and that secondary panic is discarded so gen's own
// panic is the one that reaches the caller.
func closeQuietly(c guide.Chooser) {
	defer func() { recover() }()
	c.Close()
}
