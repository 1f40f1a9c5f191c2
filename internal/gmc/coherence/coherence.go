// Package coherence implements the Coherence Oracle (spec §4.G): the
// get_coherent_stores / get_coherent_revisits / get_coherent_placings
// queries every per-model checker exposes through the same algorithm,
// parameterized only by the model's happens-before view.
package coherence

import (
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
)

// HbView resolves an event to the happens-before view a model's checker has
// computed for it; Oracle only ever needs this one hook into the checker.
type HbView func(e event.Event) *event.View

// Oracle answers coherence-order queries over g, given a model's hb view.
type Oracle struct {
	g  *graph.Graph
	hb HbView
}

// New returns an Oracle bound to g and hb.
func New(g *graph.Graph, hb HbView) *Oracle {
	return &Oracle{g: g, hb: hb}
}

// GetCoherentStores returns the writes to addr that read may validly read
// from without breaking coherence: a write w is coherent when no later
// (mo-after) write to addr already happens-before read (spec §4.F
// get_coherent_stores).
func (o *Oracle) GetCoherentStores(addrVal uint64, read event.Event) []event.Event {
	list := o.g.Coherence(addrVal)
	hbRead := o.hb(read)

	var out []event.Event
	for i, w := range list {
		coherent := true
		for _, w2 := range list[i+1:] {
			if hbRead.Contains(w2) {
				coherent = false
				break
			}
		}
		if coherent {
			out = append(out, w)
		}
	}
	// INIT is always a candidate unless some write already happens-before read.
	initCoherent := true
	for _, w := range list {
		if hbRead.Contains(w) {
			initCoherent = false
			break
		}
	}
	if initCoherent {
		out = append([]event.Event{event.INIT}, out...)
	}
	return out
}

// GetCoherentRevisits returns the reads that store may validly become the
// rf of: readers of any co-predecessor of store (including the implicit
// INIT reader set), skipping store itself and every read that pporf (store's
// own porf prefix) already contains, which would otherwise create a porf
// cycle (spec §4.F get_coherent_revisits).
func (o *Oracle) GetCoherentRevisits(store event.Event, pporf *event.View) []event.Event {
	w, ok := o.g.Label(store).(*event.WriteLabel)
	if !ok {
		return nil
	}
	addrVal := uint64(w.Addr)

	preds := o.g.CoPreds(store)
	seen := make(map[event.Event]bool)
	var out []event.Event

	collect := func(readers []event.Event) {
		for _, r := range readers {
			if seen[r] || r == store {
				continue
			}
			seen[r] = true
			if pporf != nil && pporf.Contains(r) {
				continue
			}
			out = append(out, r)
		}
	}

	for _, p := range preds {
		if pw, ok := o.g.Label(p).(*event.WriteLabel); ok {
			collect(pw.Readers)
		}
	}
	collect(o.initReaders(addrVal))
	return out
}

// initReaders scans for reads currently bound to INIT at addr; INIT itself
// carries no readers list (spec §9 "readers lists are back-references to a
// write's readers"), so the oracle derives them by predicate.
func (o *Oracle) initReaders(addrVal uint64) []event.Event {
	var out []event.Event
	for _, l := range o.g.Labels() {
		r, ok := l.(*event.ReadLabel)
		if !ok || !r.Rf.IsInitializer() {
			continue
		}
		if a, ok := event.AddrOf(r); ok && a == addrVal {
			out = append(out, r.Pos())
		}
	}
	return out
}

// GetCoherentPlacings returns the inclusive [lo, hi] range of modification-
// order positions store may legally occupy: lo is just past the last
// co-predecessor that already happens-before store, hi is just before the
// first co-successor store already happens-before. An RMW write must land
// immediately after the write it read from, so lo == hi (spec §4.F
// get_coherent_placings).
func (o *Oracle) GetCoherentPlacings(addrVal uint64, store event.Event, isRMW bool) (lo, hi int) {
	list := o.g.Coherence(addrVal)
	hbStore := o.hb(store)

	lo = 0
	for i, w := range list {
		if w == store {
			continue
		}
		if hbStore.Contains(w) {
			lo = i + 1
		}
	}
	hi = len(list)
	for i := len(list) - 1; i >= 0; i-- {
		w := list[i]
		if w == store {
			continue
		}
		if o.hb(w).Contains(store) {
			hi = i
		}
	}
	if isRMW {
		hi = lo
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
