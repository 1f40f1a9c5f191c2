package checker

import (
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/nfa"
)

// RC11 implements the C11-ish per-model specialization of spec §4.F:
// "acyclicity of the RC11 hb/psc/eco composite; inclusion NFAs flag
// uninitialized-mem, access-non-malloc, access-freed, double-free, and
// non-atomic races." hb is po plus sw, where sw is a direct rf edge from a
// release-or-stronger write to an acquire-or-stronger read (release
// sequences are not followed); psc/eco are folded into the single
// acyclicity pass over po ∪ rf ∪ co ∪ fr. SC fences add no edges of their
// own: the interpreter's Fence handling only emits a fence label.
type RC11 struct {
	*base
}

// NewRC11 returns a Checker for g under the RC11 model.
func NewRC11(g *graph.Graph) *RC11 {
	c := &RC11{base: newBase(g)}
	c.oracle = coherenceOracle(g, c)
	return c
}

func (c *RC11) sw(e event.Event) []event.Event {
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

func (c *RC11) hbRel() nfa.Edges { return union(c.poPred, c.sw) }

func (c *RC11) rel() nfa.Edges {
	return union(c.poPred, c.rf, c.coImm, c.frImm, c.tj)
}

func (c *RC11) IsConsistent(e event.Event) bool {
	return nfa.NewAcyclicChecker().CheckAcyclic(c.allEvents(), c.rel(), nil, c.lbl)
}

// CheckErrors returns the shared memory-safety taxonomy unchanged; races
// between accesses separated by SC fences are not exempted.
func (c *RC11) CheckErrors(e event.Event) []interp.ErrorKind {
	return sharedMemSafetyErrors(c.base, e)
}

func (c *RC11) CalculateSaved(e event.Event) []event.Set {
	naWrite := func(l event.Label) bool {
		w, ok := l.(*event.WriteLabel)
		return ok && w.Ordering() == event.NonAtomic
	}
	s := nfa.NewSetCalculator().Calculate(e, union(c.poPred, c.rf), naWrite, c.lbl)
	return []event.Set{s}
}

func (c *RC11) CalculateViews(e event.Event) []*event.View {
	return []*event.View{c.GetHbView(e)}
}

func (c *RC11) GetPpoRfBefore(e event.Event) *event.View {
	return accumulateHbView(e, union(c.poPred, c.rf))
}

func (c *RC11) GetHbView(e event.Event) *event.View {
	if v, ok := c.hbCache[e]; ok {
		return v
	}
	v := accumulateHbView(e, c.hbRel())
	c.hbCache[e] = v
	return v
}

func (c *RC11) GetCoherentStores(addrVal uint64, read event.Event) []event.Event {
	return c.oracle.GetCoherentStores(addrVal, read)
}
func (c *RC11) GetCoherentRevisits(store event.Event, pporf *event.View) []event.Event {
	return c.oracle.GetCoherentRevisits(store, pporf)
}
func (c *RC11) GetCoherentPlacings(addrVal uint64, store event.Event, isRMW bool) (int, int) {
	return c.oracle.GetCoherentPlacings(addrVal, store, isRMW)
}
