package checker

import (
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/nfa"
)

// TSO implements total-store-order: acyclicity of po ∪ rfe ∪ co ∪ fr, plus a
// saved set of non-atomic writes reachable from each write (the store-buffer
// drain has to preserve their visibility across a revisit) (spec §4.F "TSO:
// acyclicity of po ∪ rfe ∪ co ∪ fr plus a saved set for non-atomic reaches").
type TSO struct {
	*base
}

// NewTSO returns a Checker for g under the TSO model.
func NewTSO(g *graph.Graph) *TSO {
	c := &TSO{base: newBase(g)}
	c.oracle = coherenceOracle(g, c)
	return c
}

func (c *TSO) rel() nfa.Edges {
	return union(c.poPred, c.rfe, c.coImm, c.frImm, c.tj)
}

func (c *TSO) IsConsistent(e event.Event) bool {
	return nfa.NewAcyclicChecker().CheckAcyclic(c.allEvents(), c.rel(), nil, c.lbl)
}

func (c *TSO) CheckErrors(e event.Event) []interp.ErrorKind {
	return sharedMemSafetyErrors(c.base, e)
}

// CalculateSaved attaches the set of non-atomic writes TSO's relaxed stores
// can still reach through po ∪ rfe, the set a backward revisit must rewind.
func (c *TSO) CalculateSaved(e event.Event) []event.Set {
	naWrite := func(l event.Label) bool {
		w, ok := l.(*event.WriteLabel)
		return ok && w.Ordering() == event.NonAtomic
	}
	s := nfa.NewSetCalculator().Calculate(e, union(c.poPred, c.rfe), naWrite, c.lbl)
	return []event.Set{s}
}

func (c *TSO) CalculateViews(e event.Event) []*event.View {
	return []*event.View{c.GetHbView(e)}
}

func (c *TSO) GetPpoRfBefore(e event.Event) *event.View {
	return accumulateHbView(e, union(c.poPred, c.rfe))
}

func (c *TSO) GetHbView(e event.Event) *event.View {
	if v, ok := c.hbCache[e]; ok {
		return v
	}
	v := accumulateHbView(e, union(c.poPred, c.rfe, c.coImm))
	c.hbCache[e] = v
	return v
}

func (c *TSO) GetCoherentStores(addrVal uint64, read event.Event) []event.Event {
	return c.oracle.GetCoherentStores(addrVal, read)
}
func (c *TSO) GetCoherentRevisits(store event.Event, pporf *event.View) []event.Event {
	return c.oracle.GetCoherentRevisits(store, pporf)
}
func (c *TSO) GetCoherentPlacings(addrVal uint64, store event.Event, isRMW bool) (int, int) {
	return c.oracle.GetCoherentPlacings(addrVal, store, isRMW)
}
