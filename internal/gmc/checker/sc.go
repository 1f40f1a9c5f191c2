package checker

import (
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/nfa"
)

// SC implements the sequentially-consistent model: a single acyclicity NFA
// over po ∪ rf ∪ co ∪ fr (spec §4.F "SC: single acyclicity NFA for po ∪ rf ∪
// co ∪ fr").
type SC struct {
	*base
	acyc *nfa.AcyclicChecker
}

// NewSC returns a Checker for g under the SC model.
func NewSC(g *graph.Graph) *SC {
	c := &SC{base: newBase(g)}
	c.oracle = coherenceOracle(g, c)
	return c
}

func (c *SC) rel() nfa.Edges {
	return union(c.poPred, c.rf, c.coImm, c.frImm, c.tj)
}

// IsConsistent reports acyclicity of po ∪ rf ∪ co ∪ fr over every event.
func (c *SC) IsConsistent(e event.Event) bool {
	c.acyc = nfa.NewAcyclicChecker()
	return c.acyc.CheckAcyclic(c.allEvents(), c.rel(), nil, c.lbl)
}

// CheckErrors runs the shared memory-safety inclusion checks (spec §7);
// under SC every access is ordered by po so races reduce to "two na accesses
// to the same address with neither po-before the other".
func (c *SC) CheckErrors(e event.Event) []interp.ErrorKind {
	return sharedMemSafetyErrors(c.base, e)
}

func (c *SC) CalculateSaved(e event.Event) []event.Set { return nil }

func (c *SC) CalculateViews(e event.Event) []*event.View {
	return []*event.View{c.GetHbView(e)}
}

func (c *SC) GetPpoRfBefore(e event.Event) *event.View {
	return accumulateHbView(e, union(c.poPred, c.rf))
}

// GetHbView for SC is the transitive closure of po (with its thread-create
// and thread-join edges), rf and immediate co.
func (c *SC) GetHbView(e event.Event) *event.View {
	if v, ok := c.hbCache[e]; ok {
		return v
	}
	v := accumulateHbView(e, union(c.poPred, c.rf, c.coImm, c.tj))
	c.hbCache[e] = v
	return v
}

func (c *SC) GetCoherentStores(addrVal uint64, read event.Event) []event.Event {
	return c.oracle.GetCoherentStores(addrVal, read)
}
func (c *SC) GetCoherentRevisits(store event.Event, pporf *event.View) []event.Event {
	return c.oracle.GetCoherentRevisits(store, pporf)
}
func (c *SC) GetCoherentPlacings(addrVal uint64, store event.Event, isRMW bool) (int, int) {
	return c.oracle.GetCoherentPlacings(addrVal, store, isRMW)
}
