// Package checker implements the per-model Consistency Checkers of spec
// §4.F (sc, tso, ra, rc11, imm), each built on the shared acyclicity and
// calculation DFS engine in internal/gmc/nfa over the execution graph's
// primitive edge relations.
package checker

import (
	"github.com/kolkov/gmc/internal/gmc/coherence"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/nfa"
)

// Checker is the API every memory-model implementation exposes (spec §4.F).
type Checker interface {
	// IsConsistent is called after every step.
	IsConsistent(e event.Event) bool

	// CheckErrors detects VE_UninitializedMem, VE_AccessNonMalloc,
	// VE_AccessFreed, VE_DoubleFree, VE_RaceNotAtomic (plus the model's
	// share of the Safety-adjacent taxonomy it can statically observe).
	CheckErrors(e event.Event) []interp.ErrorKind

	// CalculateSaved computes the auxiliary event sets attached to e.
	CalculateSaved(e event.Event) []event.Set

	// CalculateViews computes the auxiliary views attached to e.
	CalculateViews(e event.Event) []*event.View

	// GetPpoRfBefore returns the prefix view used for revisit calculation.
	GetPpoRfBefore(e event.Event) *event.View

	// GetHbView returns the model's happens-before view of e.
	GetHbView(e event.Event) *event.View

	GetCoherentStores(addrVal uint64, read event.Event) []event.Event
	GetCoherentRevisits(store event.Event, pporf *event.View) []event.Event
	GetCoherentPlacings(addrVal uint64, store event.Event, isRMW bool) (lo, hi int)
}

// base wires a model's edge relations and oracle over one graph; every
// per-model checker embeds it (spec §4.F "Checker structure").
type base struct {
	g       *graph.Graph
	oracle  *coherence.Oracle
	hbCache map[event.Event]*event.View
}

func newBase(g *graph.Graph) *base {
	b := &base{g: g, hbCache: make(map[event.Event]*event.View)}
	return b
}

func (b *base) lbl(e event.Event) event.Label { return b.g.Label(e) }

// poImm/rf/rfe/rfi/coImm/frImm/tc/tj/ctrl/data/addrDep/polocImm/detour are the
// primitive edge relations spec §4.F composes NFAs from.
func (b *base) poImm(e event.Event) []event.Event {
	if p, ok := b.g.PoImmPred(e); ok {
		return []event.Event{p}
	}
	return nil
}

func (b *base) rf(e event.Event) []event.Event {
	if w, ok := b.g.RfSucc(e); ok && !w.IsBottom() && !w.IsInitializer() {
		return []event.Event{w}
	}
	return nil
}

func (b *base) rfe(e event.Event) []event.Event {
	w, ok := b.g.RfSucc(e)
	if !ok || w.IsBottom() || w.IsInitializer() || w.Thread == e.Thread {
		return nil
	}
	return []event.Event{w}
}

func (b *base) rfi(e event.Event) []event.Event {
	w, ok := b.g.RfSucc(e)
	if !ok || w.IsBottom() || w.Thread != e.Thread {
		return nil
	}
	return []event.Event{w}
}

func (b *base) coImm(e event.Event) []event.Event {
	if s, ok := b.g.CoSucc(e); ok {
		return []event.Event{s}
	}
	return nil
}

func (b *base) frImm(e event.Event) []event.Event {
	if s, ok := b.g.FrImmSucc(e); ok {
		return []event.Event{s}
	}
	return nil
}

func (b *base) tc(t uint32) []event.Event {
	if p, ok := b.g.TcPred(t); ok {
		return []event.Event{p}
	}
	return nil
}

func (b *base) tj(e event.Event) []event.Event {
	if p, ok := b.g.TjPreds(e); ok {
		return []event.Event{p}
	}
	return nil
}

func (b *base) ctrl(e event.Event) []event.Event  { return b.g.CtrlPreds(e) }
func (b *base) data(e event.Event) []event.Event  { return b.g.DataPreds(e) }
func (b *base) addrD(e event.Event) []event.Event { return b.g.AddrPreds(e) }
func (b *base) polocImm(e event.Event) []event.Event { return b.g.PolocImmPreds(e) }
func (b *base) detour(e event.Event) []event.Event   { return b.g.DetourPreds(e) }

// poPred composes poImm with the thread-create edge, so walking po from the
// first event of a spawned thread continues into its parent.
func (b *base) poPred(e event.Event) []event.Event {
	if p, ok := b.g.PoImmPred(e); ok {
		return []event.Event{p}
	}
	return b.tc(e.Thread)
}

// union composes several Edges relations into one.
func union(rels ...nfa.Edges) nfa.Edges {
	return func(e event.Event) []event.Event {
		var out []event.Event
		for _, r := range rels {
			out = append(out, r(e)...)
		}
		return out
	}
}

// allEvents returns every non-initializer event currently in the graph, in
// (thread, index) order, the base set every acyclicity/view pass walks.
func (b *base) allEvents() []event.Event {
	var out []event.Event
	for t := 0; t < b.g.NumThreads(); t++ {
		for i := 0; i < b.g.ThreadLen(uint32(t)); i++ {
			e := event.Event{Thread: uint32(t), Index: uint32(i)}
			if b.g.Label(e) != nil {
				out = append(out, e)
			}
		}
	}
	return out
}

// accumulateHbView runs a fresh ViewCalculator over rel from e (e itself
// included); used by GetHbView/GetPpoRfBefore implementations. It caches
// nothing: the GetHbView implementations keep their own hbCache.
func accumulateHbView(e event.Event, rel nfa.Edges) *event.View {
	return nfa.NewViewCalculator().Calculate(e, rel, true)
}

// hbProvider is implemented by every per-model Checker; coherenceOracle
// binds a coherence.Oracle to a checker's own GetHbView so the oracle never
// needs a model-specific notion of happens-before.
type hbProvider interface {
	GetHbView(e event.Event) *event.View
}

func coherenceOracle(g *graph.Graph, c hbProvider) *coherence.Oracle {
	return coherence.New(g, c.GetHbView)
}
