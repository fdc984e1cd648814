package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/regehr/uniform-tree-sampling/guide"
)

// nodeCounter, frontierReporter, and sizeEstimator are satisfied by BFSGuide
// and SamplerGuide respectively; InstrumentedGuide type-switches on them so
// it can report guide-specific gauges without widening guide.Guide itself.
type nodeCounter interface {
	TotalNodes() int
}

type frontierReporter interface {
	FrontierSize() int
	MaxSavedLevel() int
}

type sizeEstimator interface {
	RootSizeEstimate() float64
}

// InstrumentedGuide decorates any guide.Guide with structured logging,
// Prometheus metrics, and OpenTelemetry tracing, without altering the
// wrapped guide's algorithmic behavior. Construct once per guide instance
// and share the Metrics (and, if used, Tracer) across every InstrumentedGuide
// in a process.
type InstrumentedGuide struct {
	inner     guide.Guide
	kind      string
	seed      int64
	logger    *Logger
	metrics   *Metrics
	tracer    *Tracer
	traversal int
}

// NewInstrumentedGuide wraps inner. logger, metrics, and tracer may each be
// nil to disable that concern.
func NewInstrumentedGuide(inner guide.Guide, kind string, seed int64, logger *Logger, metrics *Metrics, tracer *Tracer) *InstrumentedGuide {
	return &InstrumentedGuide{inner: inner, kind: kind, seed: seed, logger: logger, metrics: metrics, tracer: tracer}
}

// MakeChooser implements guide.Guide, using context.Background() for any
// tracing span. Use MakeChooserContext to supply a caller's context.
func (g *InstrumentedGuide) MakeChooser() (guide.Chooser, bool) {
	return g.MakeChooserContext(context.Background())
}

// MakeChooserContext is the context-aware counterpart used by driver.Run.
func (g *InstrumentedGuide) MakeChooserContext(ctx context.Context) (guide.Chooser, bool) {
	c, ok := g.inner.MakeChooser()
	if !ok {
		if g.logger != nil {
			g.logger.Exhausted(g.kind, g.currentTotalNodes())
		}
		if g.metrics != nil {
			g.metrics.recordExhaustion(g.kind)
		}
		return nil, false
	}

	g.traversal++
	if g.logger != nil {
		g.logger.TraversalStarted(g.kind, g.traversal)
	}

	var span trace.Span
	spanCtx := ctx
	if g.tracer != nil {
		spanCtx, span = g.tracer.StartTraversal(ctx, g.kind, g.seed, g.traversal)
	}

	return &instrumentedChooser{g: g, inner: c, ctx: spanCtx, span: span}, true
}

func (g *InstrumentedGuide) currentTotalNodes() int {
	if nc, ok := g.inner.(nodeCounter); ok {
		return nc.TotalNodes()
	}
	return 0
}

func (g *InstrumentedGuide) recordPostTraversal(depth int) {
	if g.metrics != nil {
		g.metrics.recordTraversal(g.kind, g.currentTotalNodes())
		if fr, ok := g.inner.(frontierReporter); ok {
			g.metrics.recordFrontierSize(g.kind, fr.FrontierSize())
			g.metrics.recordMaxSavedLevel(g.kind, fr.MaxSavedLevel())
		}
		if se, ok := g.inner.(sizeEstimator); ok {
			g.metrics.recordSizeEstimate(g.kind, se.RootSizeEstimate())
		}
	}
	if g.logger != nil {
		g.logger.TraversalFinished(g.kind, g.traversal, depth)
	}
}

// instrumentedChooser wraps a guide.Chooser to count Choose-family calls
// (as a proxy for traversal depth) and to close out the span/metrics/log
// triple on Close. When a wrapped Choose-family call panics, guard ends the
// span (and logs a *guide.ViolationError) but records no metrics; the panic
// is re-raised rather than swallowed, since recovering it is the driver's
// job, not this decorator's.
type instrumentedChooser struct {
	g     *InstrumentedGuide
	inner guide.Chooser
	ctx   context.Context
	span  trace.Span
	depth int
}

func (c *instrumentedChooser) Choose(n int) int {
	c.depth++
	return c.guard(func() int { return c.inner.Choose(n) })
}

func (c *instrumentedChooser) Flip() bool {
	c.depth++
	var result bool
	c.guard(func() int {
		result = c.inner.Flip()
		return 0
	})
	return result
}

func (c *instrumentedChooser) ChooseWeighted(weights []int) int {
	c.depth++
	return c.guard(func() int { return c.inner.ChooseWeighted(weights) })
}

func (c *instrumentedChooser) ChooseUnimportant() int64 {
	var result int64
	c.guard(func() int {
		result = c.inner.ChooseUnimportant()
		return 0
	})
	return result
}

// guard runs fn, logging and re-panicking any *guide.ViolationError so the
// span records it before propagating to the caller's own recover().
func (c *instrumentedChooser) guard(fn func() int) int {
	defer func() {
		if r := recover(); r != nil {
			if verr, ok := r.(*guide.ViolationError); ok && c.g.logger != nil {
				c.g.logger.ViolationRecovered(c.g.kind, verr)
			}
			if c.span != nil {
				if verr, ok := r.(*guide.ViolationError); ok {
					EndTraversal(c.span, c.depth, verr)
				} else {
					c.span.End()
				}
			}
			panic(r)
		}
	}()
	return fn()
}

func (c *instrumentedChooser) Close() {
	c.inner.Close()
	c.g.recordPostTraversal(c.depth)
	if c.span != nil {
		EndTraversal(c.span, c.depth, nil)
	}
}
