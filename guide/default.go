package guide

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// DefaultGuide is the naive baseline: every Choose/ChooseWeighted call
// resolves to an independent PRNG draw and no decision tree is kept. It
// exists as a basis for comparison against BFSGuide and SamplerGuide, and
// so callers can get used to the Chooser API without the tree-building
// machinery.
type DefaultGuide struct {
	rng *rand.Rand
}

// NewDefault constructs a DefaultGuide seeded from the OS entropy source.
func NewDefault() *DefaultGuide {
	return NewDefaultSeeded(entropySeed())
}

// entropySeed draws a seed from the OS entropy source for the constructors
// that take no explicit seed, falling back to the clock if that read fails.
func entropySeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// NewDefaultSeeded constructs a DefaultGuide with an explicit seed, for
// reproducible runs.
func NewDefaultSeeded(seed int64) *DefaultGuide {
	return &DefaultGuide{rng: rand.New(rand.NewSource(seed))}
}

// MakeChooser always succeeds for the default guide.
func (g *DefaultGuide) MakeChooser() (Chooser, bool) {
	return &defaultChooser{g: g}, true
}

type defaultChooser struct {
	g *DefaultGuide
}

func (c *defaultChooser) Choose(n int) int {
	if n <= 0 {
		violate("Choose", "n must be > 0, got %d", n)
	}
	return c.g.rng.Intn(n)
}

func (c *defaultChooser) Flip() bool {
	return c.Choose(2) == 1
}

func (c *defaultChooser) ChooseWeighted(weights []int) int {
	return discreteDraw(c.g.rng, weights)
}

func (c *defaultChooser) ChooseUnimportant() int64 {
	return int64(c.g.rng.Uint64())
}

func (c *defaultChooser) Close() {}

// discreteDraw draws an index in [0, len(weights)) with probability
// proportional to weights[i]. All-zero weights are an API violation: the
// underlying distribution is degenerate and there is no sane value to
// return.
func discreteDraw(rng *rand.Rand, weights []int) int {
	if len(weights) == 0 {
		violate("ChooseWeighted", "weights must be non-empty")
	}
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
	r := rng.Intn(total)
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	// Unreachable given total above, but keep the compiler happy.
	return len(weights) - 1
}
