package nfa

import "github.com/kolkov/gmc/internal/gmc/event"

// ViewCalculator accumulates a View by DFS over a chosen edge relation,
// implementing the "calculation NFA" half of spec §4.F: "For calculation
// NFAs, DFS accumulates into a View (for view computation)". Used for
// get_ppo_rf_before / get_hb_view style queries.
type ViewCalculator struct {
	seen map[event.Event]bool
}

// NewViewCalculator allocates a fresh accumulator.
func NewViewCalculator() *ViewCalculator {
	return &ViewCalculator{seen: make(map[event.Event]bool)}
}

// Calculate walks backwards from root along edges and returns the view of
// every event reached (including root itself, unless includeRoot is false).
func (c *ViewCalculator) Calculate(root event.Event, edges Edges, includeRoot bool) *event.View {
	v := event.NewView()
	var dfs func(e event.Event)
	dfs = func(e event.Event) {
		if c.seen[e] {
			return
		}
		c.seen[e] = true
		if e != root || includeRoot {
			v.UpdateIdx(e)
		}
		for _, p := range edges(e) {
			dfs(p)
		}
	}
	dfs(root)
	return v
}

// SetCalculator accumulates a Set<Event> by DFS, the other half of spec
// §4.F's calculation NFAs: "...or a Set<Event> (for saved sets)". Used for
// calculate_saved (e.g. the non-atomic-reachable set TSO/RC11 attach to
// writes so a later revisit knows which non-atomic stores must be rewound).
type SetCalculator struct {
	seen map[event.Event]bool
}

// NewSetCalculator allocates a fresh accumulator.
func NewSetCalculator() *SetCalculator {
	return &SetCalculator{seen: make(map[event.Event]bool)}
}

// Calculate walks backwards from root along edges, collecting every event
// for which accept holds.
func (c *SetCalculator) Calculate(root event.Event, edges Edges, accept Predicate, lbl Label) event.Set {
	out := event.NewSet()
	var dfs func(e event.Event)
	dfs = func(e event.Event) {
		if c.seen[e] {
			return
		}
		c.seen[e] = true
		if accept == nil || accept(lbl(e)) {
			out.Add(e)
		}
		for _, p := range edges(e) {
			dfs(p)
		}
	}
	dfs(root)
	return out
}
