// Package graph implements the Execution Graph (spec §4.B) and the builder
// and transform operations over it (spec §4.I): prefix extraction,
// cut-to-stamp, restore-prefix, and graph copy.
package graph

import (
	"github.com/pkg/errors"

	"github.com/kolkov/gmc/internal/gmc/event"
)

// ErrSlotOccupied is returned by AddLabel when the target (thread, index)
// slot is already occupied by a non-Empty label.
var ErrSlotOccupied = errors.New("graph: label slot already occupied")

// Graph owns every label created during one exploration (spec §4.B). All
// other components hold Events (indices) and dereference through the graph
// (spec §9 "Ownership of labels").
type Graph struct {
	threads [][]event.Label        // threads[t][i], indexed by event.Index
	coh     map[uint64][]event.Event // coherence[addr] -> totally ordered store events

	stamps uint32 // monotonic dispenser
}

// New returns an empty graph with a single initializer thread.
func New() *Graph {
	g := &Graph{coh: make(map[uint64][]event.Event)}
	g.ensureThread(0)
	return g
}

func (g *Graph) ensureThread(t uint32) {
	for uint32(len(g.threads)) <= t {
		g.threads = append(g.threads, nil)
	}
}

// NumThreads returns the number of thread slots currently tracked (including
// empty recovery threads).
func (g *Graph) NumThreads() int { return len(g.threads) }

// ThreadLen returns the number of labels recorded for thread t.
func (g *Graph) ThreadLen(t uint32) int {
	if int(t) >= len(g.threads) {
		return 0
	}
	return len(g.threads[t])
}

// Label returns the label at e, or nil if the slot does not exist / is
// Empty.
func (g *Graph) Label(e event.Event) event.Label {
	if e.IsInitializer() || e.IsBottom() {
		return nil
	}
	if int(e.Thread) >= len(g.threads) || int(e.Index) >= len(g.threads[e.Thread]) {
		return nil
	}
	l := g.threads[e.Thread][e.Index]
	if m, ok := l.(*event.MiscLabel); ok && m.Kind() == event.KindEmpty {
		return nil
	}
	return l
}

// AddLabel assigns the next stamp and appends label to its thread's
// sequence at label.Pos().Index, per spec §4.B's add_label contract. The
// slot must either be beyond the thread's current length (appended) or
// occupied by an Empty placeholder (replaced); otherwise ErrSlotOccupied.
func (g *Graph) AddLabel(l event.Label) (event.Label, error) {
	pos := l.Pos()
	g.ensureThread(pos.Thread)

	seq := g.threads[pos.Thread]
	switch {
	case int(pos.Index) < len(seq):
		existing := seq[pos.Index]
		if m, ok := existing.(*event.MiscLabel); !ok || m.Kind() != event.KindEmpty {
			return nil, errors.Wrapf(ErrSlotOccupied, "thread %d index %d", pos.Thread, pos.Index)
		}
		seq[pos.Index] = l
	case int(pos.Index) == len(seq):
		g.threads[pos.Thread] = append(seq, l)
	default:
		// Recovery threads may have gaps; pad with Empty placeholders.
		padded := make([]event.Label, pos.Index+1)
		copy(padded, seq)
		for i := len(seq); i < int(pos.Index); i++ {
			padded[i] = event.NewEmpty(event.Event{Thread: pos.Thread, Index: uint32(i)})
		}
		padded[pos.Index] = l
		g.threads[pos.Thread] = padded
	}

	g.stamps++
	l.SetStamp(g.stamps)
	return l, nil
}

// NextStamp previews the stamp AddLabel would assign next, without
// consuming it.
func (g *Graph) NextStamp() uint32 { return g.stamps + 1 }

// MaxStamp returns the highest stamp currently dispensed.
func (g *Graph) MaxStamp() uint32 { return g.stamps }

// advanceStampTo bumps the dispenser to at least s, used by restore
// operations that re-add labels carrying their original (higher) stamps.
func (g *Graph) advanceStampTo(s uint32) {
	if s > g.stamps {
		g.stamps = s
	}
}

// readerAddr is a map key for coherence lists; addresses are already
// totally ordered 64-bit values so the Addr itself doubles as the key.
func readerAddr(a uint64) uint64 { return a }

// Coherence returns the modification-order sequence of writes recorded for
// addr (spec I4: "coherence[addr] contains exactly the non-initializer
// writes to addr currently in the graph").
func (g *Graph) Coherence(addr uint64) []event.Event {
	return g.coh[readerAddr(addr)]
}

// AddStoreAt inserts store into coherence[addr] at position pos (spec §4.B
// add_store_at), pos in [0, len].
func (g *Graph) AddStoreAt(w *event.WriteLabel, pos int) {
	key := readerAddr(uint64(w.Addr))
	list := g.coh[key]
	if pos < 0 {
		pos = 0
	}
	if pos > len(list) {
		pos = len(list)
	}
	list = append(list, event.Event{})
	copy(list[pos+1:], list[pos:])
	list[pos] = w.Pos()
	g.coh[key] = list
}

// ChangeStoreOffset moves an already-placed store to a new coherence index
// (spec §4.B change_store_offset).
func (g *Graph) ChangeStoreOffset(w *event.WriteLabel, newPos int) {
	key := readerAddr(uint64(w.Addr))
	list := g.coh[key]
	idx := -1
	for i, e := range list {
		if e == w.Pos() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	list = append(list[:idx], list[idx+1:]...)
	if newPos < 0 {
		newPos = 0
	}
	if newPos > len(list) {
		newPos = len(list)
	}
	list = append(list, event.Event{})
	copy(list[newPos+1:], list[newPos:])
	list[newPos] = w.Pos()
	g.coh[key] = list
}

// ChangeRf removes read from its old rf's readers list, sets read.Rf =
// newRf, and appends read to newRf's readers list (spec §4.B change_rf).
// INIT and BOTTOM have no stored readers list (implicit reader tracking).
func (g *Graph) ChangeRf(r *event.ReadLabel, newRf event.Event) {
	if !r.Rf.IsBottom() && !r.Rf.IsInitializer() {
		if w, ok := g.Label(r.Rf).(*event.WriteLabel); ok {
			w.RemoveReader(r.Pos())
		}
	}
	r.Rf = newRf
	if !newRf.IsBottom() && !newRf.IsInitializer() {
		if w, ok := g.Label(newRf).(*event.WriteLabel); ok {
			w.AddReader(r.Pos())
		}
	}
}
