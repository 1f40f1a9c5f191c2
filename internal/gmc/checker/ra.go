package checker

import (
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/nfa"
)

// RA implements release-acquire: happens-before is po plus synchronizing rf
// edges only (a release write read by an acquire read), rather than every
// rf edge as in SC/TSO (spec §4.F per-model specializations; RA sits
// between TSO and RC11 in the strength scale the GLOSSARY's hb entry
// describes as "model-specific").
type RA struct {
	*base
}

// NewRA returns a Checker for g under the release-acquire model.
func NewRA(g *graph.Graph) *RA {
	c := &RA{base: newBase(g)}
	c.oracle = coherenceOracle(g, c)
	return c
}

// sw returns e's synchronizing-rf predecessor: the write e reads from, when
// that write carries at-least-release ordering and e carries at-least-
// acquire ordering.
func (c *RA) sw(e event.Event) []event.Event {
	l := c.lbl(e)
	if l == nil || !event.IsAtLeastAcquire(l) {
		return nil
	}
	w, ok := c.g.RfSucc(e)
	if !ok || w.IsBottom() || w.IsInitializer() {
		return nil
	}
	if wl := c.lbl(w); wl != nil && event.IsAtLeastRelease(wl) {
		return []event.Event{w}
	}
	return nil
}

func (c *RA) hbRel() nfa.Edges { return union(c.poPred, c.sw) }

func (c *RA) rel() nfa.Edges {
	return union(c.poPred, c.rf, c.coImm, c.frImm, c.tj)
}

// IsConsistent checks acyclicity of po ∪ rf ∪ co ∪ fr, same shape as SC/TSO;
// the difference from SC is entirely in what GetHbView exposes to the
// revisit/coherence machinery.
func (c *RA) IsConsistent(e event.Event) bool {
	return nfa.NewAcyclicChecker().CheckAcyclic(c.allEvents(), c.rel(), nil, c.lbl)
}

func (c *RA) CheckErrors(e event.Event) []interp.ErrorKind {
	return sharedMemSafetyErrors(c.base, e)
}

func (c *RA) CalculateSaved(e event.Event) []event.Set { return nil }

func (c *RA) CalculateViews(e event.Event) []*event.View {
	return []*event.View{c.GetHbView(e)}
}

func (c *RA) GetPpoRfBefore(e event.Event) *event.View {
	return accumulateHbView(e, union(c.poPred, c.rf))
}

func (c *RA) GetHbView(e event.Event) *event.View {
	if v, ok := c.hbCache[e]; ok {
		return v
	}
	v := accumulateHbView(e, c.hbRel())
	c.hbCache[e] = v
	return v
}

func (c *RA) GetCoherentStores(addrVal uint64, read event.Event) []event.Event {
	return c.oracle.GetCoherentStores(addrVal, read)
}
func (c *RA) GetCoherentRevisits(store event.Event, pporf *event.View) []event.Event {
	return c.oracle.GetCoherentRevisits(store, pporf)
}
func (c *RA) GetCoherentPlacings(addrVal uint64, store event.Event, isRMW bool) (int, int) {
	return c.oracle.GetCoherentPlacings(addrVal, store, isRMW)
}
