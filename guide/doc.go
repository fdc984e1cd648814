// Package guide implements a guided random-choice engine for property-based
// and structured-random generators.
//
// A generator is ordinary Go code that, at each decision point, asks a
// Chooser for a small integer in [0, n). Three Guide implementations control
// which integer comes back so that repeated runs of the same generator
// explore the generator's implicit decision tree in disciplined ways:
//
//   - Default: every call is an independent PRNG draw; no tree is kept.
//   - BFS: grows a decision tree and a frontier priority queue keyed by
//     depth, replays saved prefixes, and falls back to random choices past
//     the frontier. Repeated MakeChooser calls eventually exhaust the tree.
//   - Sampler: grows a decision tree annotated with per-subtree size
//     estimates and reweights child selection so repeated sampling tends
//     toward uniform over leaves.
//
// A Guide is created once and owns its tree for its lifetime. At most one
// Chooser may be live per Guide at a time; Close must be called on a
// Chooser before the next MakeChooser call on the same Guide.
package guide
