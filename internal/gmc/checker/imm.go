package checker

import (
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/nfa"
)

// IMM implements the dependency-aware model of spec §4.F: "richer
// dependency-aware NFAs; uses DepView rather than View for pporf; adds
// detour and data/addr/ctrl edges." The DFS engine in internal/gmc/nfa
// already walks an arbitrary Edges relation and folds reached events into a
// plain event.View via UpdateIdx regardless of which relation produced
// them, so IMM's pporf is computed by the same ViewCalculator as every
// other model, just over a richer edge union (po ∪ rf ∪ detour ∪ data ∪
// addr ∪ ctrl) in place of po ∪ rf alone; the DepView type itself
// (internal/gmc/event/depview.go) remains available for callers that need
// its non-prefix extra-set semantics directly.
type IMM struct {
	*base
}

// NewIMM returns a Checker for g under the IMM model.
func NewIMM(g *graph.Graph) *IMM {
	c := &IMM{base: newBase(g)}
	c.oracle = coherenceOracle(g, c)
	return c
}

// pporf is IMM's dependency-closed program-order-union-reads-from relation:
// po, rf, detour (rfi^-1 ; coe), and the data/address/control dependency
// edges snapshotted on each label (spec §4.D, §4.F).
func (c *IMM) pporf() nfa.Edges {
	return union(c.poPred, c.rf, c.detour, c.data, c.addrD, c.ctrl)
}

func (c *IMM) rel() nfa.Edges {
	return union(c.poPred, c.rf, c.coImm, c.frImm, c.tj, c.detour)
}

// IsConsistent checks acyclicity of po ∪ rf ∪ co ∪ fr ∪ detour: the detour
// edge rules out the write-after-internal-read reorderings IMM forbids that
// RA/RC11 permit.
func (c *IMM) IsConsistent(e event.Event) bool {
	return nfa.NewAcyclicChecker().CheckAcyclic(c.allEvents(), c.rel(), nil, c.lbl)
}

func (c *IMM) CheckErrors(e event.Event) []interp.ErrorKind {
	return sharedMemSafetyErrors(c.base, e)
}

// CalculateSaved attaches the non-atomic writes reachable through pporf,
// same shape as TSO/RC11 but over the dependency-enriched relation.
func (c *IMM) CalculateSaved(e event.Event) []event.Set {
	naWrite := func(l event.Label) bool {
		w, ok := l.(*event.WriteLabel)
		return ok && w.Ordering() == event.NonAtomic
	}
	s := nfa.NewSetCalculator().Calculate(e, c.pporf(), naWrite, c.lbl)
	return []event.Set{s}
}

func (c *IMM) CalculateViews(e event.Event) []*event.View {
	return []*event.View{c.GetHbView(e)}
}

// GetPpoRfBefore returns the dependency-closed pporf view (spec §4.F).
func (c *IMM) GetPpoRfBefore(e event.Event) *event.View {
	return accumulateHbView(e, c.pporf())
}

func (c *IMM) GetHbView(e event.Event) *event.View {
	if v, ok := c.hbCache[e]; ok {
		return v
	}
	v := accumulateHbView(e, union(c.pporf(), c.coImm))
	c.hbCache[e] = v
	return v
}

func (c *IMM) GetCoherentStores(addrVal uint64, read event.Event) []event.Event {
	return c.oracle.GetCoherentStores(addrVal, read)
}
func (c *IMM) GetCoherentRevisits(store event.Event, pporf *event.View) []event.Event {
	return c.oracle.GetCoherentRevisits(store, pporf)
}
func (c *IMM) GetCoherentPlacings(addrVal uint64, store event.Event, isRMW bool) (int, int) {
	return c.oracle.GetCoherentPlacings(addrVal, store, isRMW)
}
