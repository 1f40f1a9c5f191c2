package graph

import "github.com/kolkov/gmc/internal/gmc/event"

// Labels returns every non-empty label in the graph, in thread/index order.
// This is the base iterator the consistency checkers' DFS visitors compose
// edge-set iterators on top of (spec §4.B "Iterators").
func (g *Graph) Labels() []event.Label {
	out := make([]event.Label, 0)
	for _, seq := range g.threads {
		for _, l := range seq {
			if m, ok := l.(*event.MiscLabel); ok && m.Kind() == event.KindEmpty {
				continue
			}
			out = append(out, l)
		}
	}
	return out
}

// StoreBegin / StoreEnd expose the coherence order bounds for addr, used by
// the coherence oracle to enumerate candidate placements.
func (g *Graph) StoreBegin(addr uint64) event.Event {
	list := g.coh[addr]
	if len(list) == 0 {
		return event.INIT
	}
	return list[0]
}

func (g *Graph) StoreEnd(addr uint64) event.Event {
	list := g.coh[addr]
	if len(list) == 0 {
		return event.INIT
	}
	return list[len(list)-1]
}

// RfPreds returns the read events whose rf currently points at e, when e is
// a write (its readers list); empty otherwise.
func (g *Graph) RfPreds(e event.Event) []event.Event {
	w, ok := g.Label(e).(*event.WriteLabel)
	if !ok {
		return nil
	}
	return w.Readers
}

// RfSucc returns the write e's read reads from (rf of e, when e is a read).
func (g *Graph) RfSucc(e event.Event) (event.Event, bool) {
	r, ok := g.Label(e).(*event.ReadLabel)
	if !ok {
		return event.Event{}, false
	}
	return r.Rf, true
}

// CoPreds / CoSucc walk the modification order of a write's address.
func (g *Graph) CoPreds(e event.Event) []event.Event {
	w, ok := g.Label(e).(*event.WriteLabel)
	if !ok {
		return nil
	}
	list := g.coh[uint64(w.Addr)]
	var out []event.Event
	for _, o := range list {
		if o == e {
			break
		}
		out = append(out, o)
	}
	return out
}

func (g *Graph) CoSucc(e event.Event) (event.Event, bool) {
	w, ok := g.Label(e).(*event.WriteLabel)
	if !ok {
		return event.Event{}, false
	}
	list := g.coh[uint64(w.Addr)]
	for i, o := range list {
		if o == e {
			if i+1 < len(list) {
				return list[i+1], true
			}
			return event.Event{}, false
		}
	}
	return event.Event{}, false
}

// FrImmSucc computes the (single) immediate from-read successor of a read:
// fr = rf^-1 ; co, i.e. the coherence-successor of the read's rf write.
func (g *Graph) FrImmSucc(e event.Event) (event.Event, bool) {
	r, ok := g.Label(e).(*event.ReadLabel)
	if !ok || r.Rf.IsBottom() {
		return event.Event{}, false
	}
	if r.Rf.IsInitializer() {
		return g.StoreBegin(uint64(r.Addr)), g.StoreBegin(uint64(r.Addr)) != event.INIT
	}
	return g.CoSucc(r.Rf)
}

// PoImmPred / PoImmSucc walk program order within one thread.
func (g *Graph) PoImmPred(e event.Event) (event.Event, bool) { return e.Prev() }
func (g *Graph) PoImmSucc(e event.Event) (event.Event, bool) {
	n := e.Next()
	if g.Label(n) == nil {
		return event.Event{}, false
	}
	return n, true
}

// TcPred returns the ThreadCreate event that spawned thread t, if any.
func (g *Graph) TcPred(t uint32) (event.Event, bool) {
	if t == 0 || int(t) >= len(g.threads) || len(g.threads[t]) == 0 {
		return event.Event{}, false
	}
	start, ok := g.threads[t][0].(*event.ThreadLabel)
	if !ok || start.Kind() != event.KindThreadStart {
		return event.Event{}, false
	}
	return start.ParentCreate, true
}

// TjPreds returns the ThreadFinish event of the thread a ThreadJoin label at
// e is joining on, if e is a ThreadJoin and that thread has finished.
func (g *Graph) TjPreds(e event.Event) (event.Event, bool) {
	tj, ok := g.Label(e).(*event.ThreadLabel)
	if !ok || tj.Kind() != event.KindThreadJoin {
		return event.Event{}, false
	}
	if int(tj.ChildTid) >= len(g.threads) {
		return event.Event{}, false
	}
	seq := g.threads[tj.ChildTid]
	if len(seq) == 0 {
		return event.Event{}, false
	}
	last := seq[len(seq)-1]
	if fin, ok := last.(*event.ThreadLabel); ok && fin.Kind() == event.KindThreadFinish {
		return fin.Pos(), true
	}
	return event.Event{}, false
}

// CtrlPreds / AddrPreds / DataPreds expose the dependency snapshot recorded
// on e's label (spec §4.B, backing the IMM checker's dependency edges).
func (g *Graph) CtrlPreds(e event.Event) []event.Event {
	if l := g.Label(e); l != nil {
		return l.Deps().Ctrl.Slice()
	}
	return nil
}
func (g *Graph) AddrPreds(e event.Event) []event.Event {
	if l := g.Label(e); l != nil {
		return l.Deps().Addr.Slice()
	}
	return nil
}
func (g *Graph) DataPreds(e event.Event) []event.Event {
	if l := g.Label(e); l != nil {
		return l.Deps().Data.Slice()
	}
	return nil
}

// DetourPreds computes the detour relation (rfi^-1 ; coe) used by IMM-family
// models: an RMW write's detour predecessors are the external coherence
// predecessors of the write it internally read from.
func (g *Graph) DetourPreds(e event.Event) []event.Event {
	w, ok := g.Label(e).(*event.WriteLabel)
	if !ok {
		return nil
	}
	prevIdx, ok := e.Prev()
	if !ok {
		return nil
	}
	r, ok := g.Label(prevIdx).(*event.ReadLabel)
	if !ok || r.Rf.Thread != w.Pos().Thread {
		return nil
	}
	var out []event.Event
	for _, p := range g.CoPreds(r.Rf) {
		if p.Thread != w.Pos().Thread {
			out = append(out, p)
		}
	}
	return out
}

// PolocImmPreds returns e's immediate same-location program-order
// predecessor, if any (used by the release-sequence / coherence checks).
func (g *Graph) PolocImmPreds(e event.Event) []event.Event {
	a, ok := event.AddrOf(g.Label(e))
	if !ok {
		return nil
	}
	cur := e
	for {
		prev, ok := g.PoImmPred(cur)
		if !ok {
			return nil
		}
		if pa, ok := event.AddrOf(g.Label(prev)); ok && pa == a {
			return []event.Event{prev}
		}
		cur = prev
	}
}
