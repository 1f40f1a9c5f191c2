package graph

import "github.com/kolkov/gmc/internal/gmc/event"

// CutToStamp removes every label with stamp > s, shrinking per-thread
// sequences, sweeping coherence and readers lists, and rebinding dangling
// rfs to BOTTOM (spec §4.B "Key algorithm — cut_to_stamp", complexity
// O(|graph|)).
func (g *Graph) CutToStamp(s uint32) {
	for t := range g.threads {
		seq := g.threads[t]
		cut := len(seq)
		for i, l := range seq {
			if l.Stamp() > s {
				cut = i
				break
			}
		}
		g.threads[t] = seq[:cut]
	}

	for a, list := range g.coh {
		kept := list[:0:0]
		for _, e := range list {
			if g.Label(e) != nil {
				kept = append(kept, e)
			}
		}
		g.coh[a] = kept
	}

	for _, seq := range g.threads {
		for _, l := range seq {
			w, ok := l.(*event.WriteLabel)
			if !ok {
				continue
			}
			kept := w.Readers[:0:0]
			for _, r := range w.Readers {
				if g.Label(r) != nil {
					kept = append(kept, r)
				}
			}
			w.Readers = kept
		}
	}

	for _, seq := range g.threads {
		for _, l := range seq {
			r, ok := l.(*event.ReadLabel)
			if !ok || r.Rf.IsBottom() || r.Rf.IsInitializer() {
				continue
			}
			if g.Label(r.Rf) == nil {
				r.Rf = event.BOTTOM
			}
		}
	}

	if s < g.stamps {
		g.stamps = s
	}
}

// GetPrefixView returns e's model-specific pporf-before view (spec §4.B
// get_prefix_view). Computing the *model-specific* view is the checker's
// job (spec §4.F get_ppo_rf_before / get_hb_view); this accessor simply
// reads whatever the checker has already attached to the label (views[0] by
// convention), so the graph package stays model-agnostic.
func (g *Graph) GetPrefixView(e event.Event) *event.View {
	if l := g.Label(e); l != nil {
		return l.View0()
	}
	return event.NewView()
}

// GetPrefixLabelsNotBefore returns clones of every label in porf(store)
// (store's prefix view extended with e.g. thread-create/join edges the
// checker folds into views[0]) whose stamp is greater than read.Stamp — the
// "save-prefix" a backward revisit must reinstall (spec §4.B
// get_prefix_labels_not_before).
func (g *Graph) GetPrefixLabelsNotBefore(store, read event.Event) []event.Label {
	view := g.GetPrefixView(store)
	readStamp := g.Label(read).Stamp()
	var out []event.Label
	for t, seq := range g.threads {
		for i, l := range seq {
			if m, ok := l.(*event.MiscLabel); ok && m.Kind() == event.KindEmpty {
				continue
			}
			e := event.Event{Thread: uint32(t), Index: uint32(i)}
			if !view.Contains(e) {
				continue
			}
			if l.Stamp() > readStamp {
				out = append(out, cloneLabel(l))
			}
		}
	}
	return out
}

// SaveCoherenceStatus records, for each store in prefix whose coherence
// successor is about to be cut (i.e. lies strictly after read's stamp), the
// (store, immediate-successor) pair so ChangeStoreOffset replay can restore
// the same modification order (spec §4.B save_coherence_status).
func (g *Graph) SaveCoherenceStatus(prefix []event.Label, read event.Event) []MoPair {
	readStamp := g.Label(read).Stamp()
	var out []MoPair
	for _, l := range prefix {
		w, ok := l.(*event.WriteLabel)
		if !ok {
			continue
		}
		succ, ok := g.CoSucc(w.Pos())
		if ok && g.Label(succ) != nil && g.Label(succ).Stamp() > readStamp {
			out = append(out, MoPair{Store: w.Pos(), Succ: succ})
		}
	}
	return out
}

// MoPair is a saved (store, immediate coherence successor) pair produced by
// SaveCoherenceStatus and replayed by RestoreStorePrefix.
type MoPair struct {
	Store event.Event
	Succ  event.Event
}

// RestoreStorePrefix re-inserts the saved labels at their original
// positions (preserving their stamps, not renumbering), advances the stamp
// dispenser, and replays the saved mo placings (spec §4.B
// restore_store_prefix / "Key algorithm — restore_store_prefix").
func (g *Graph) RestoreStorePrefix(prefix []event.Label, moPlacings []MoPair) {
	sorted := make([]event.Label, len(prefix))
	copy(sorted, prefix)
	insertionSortByStamp(sorted)

	maxStamp := g.stamps
	for _, l := range sorted {
		pos := l.Pos()
		g.ensureThread(pos.Thread)
		seq := g.threads[pos.Thread]
		if int(pos.Index) >= len(seq) {
			padded := make([]event.Label, pos.Index+1)
			copy(padded, seq)
			for i := len(seq); i < int(pos.Index); i++ {
				padded[i] = event.NewEmpty(event.Event{Thread: pos.Thread, Index: uint32(i)})
			}
			seq = padded
		}
		seq[pos.Index] = l
		g.threads[pos.Thread] = seq
		if l.Stamp() > maxStamp {
			maxStamp = l.Stamp()
		}
		if w, ok := l.(*event.WriteLabel); ok {
			g.reinsertCoherence(w)
		}
	}
	g.advanceStampTo(maxStamp)

	for _, p := range moPlacings {
		w, ok := g.Label(p.Store).(*event.WriteLabel)
		if !ok {
			continue
		}
		idx := 0
		for i, e := range g.coh[uint64(w.Addr)] {
			if e == p.Succ {
				idx = i
				break
			}
		}
		g.ChangeStoreOffset(w, idx)
	}
}

func (g *Graph) reinsertCoherence(w *event.WriteLabel) {
	key := uint64(w.Addr)
	for _, e := range g.coh[key] {
		if e == w.Pos() {
			return
		}
	}
	g.coh[key] = append(g.coh[key], w.Pos())
}

func insertionSortByStamp(ls []event.Label) {
	for i := 1; i < len(ls); i++ {
		for j := i; j > 0 && ls[j].Stamp() < ls[j-1].Stamp(); j-- {
			ls[j], ls[j-1] = ls[j-1], ls[j]
		}
	}
}

// cloneLabel returns a value-copy of a label suitable for a save-prefix
// (spec §9 "Worker clones deep-copy labels"). Only the concrete struct
// fields are copied; Readers/Views/Calculated slices get fresh backing
// arrays so mutating the clone never aliases the live graph.
func cloneLabel(l event.Label) event.Label {
	switch v := l.(type) {
	case *event.ReadLabel:
		c := *v
		return &c
	case *event.WriteLabel:
		c := *v
		c.Readers = append([]event.Event(nil), v.Readers...)
		return &c
	case *event.FenceLabel:
		c := *v
		return &c
	case *event.ThreadLabel:
		c := *v
		return &c
	case *event.MemMgmtLabel:
		c := *v
		return &c
	case *event.LockLAPORLabel:
		c := *v
		return &c
	case *event.MiscLabel:
		c := *v
		return &c
	default:
		return l
	}
}

// Clone performs a full deep copy of the graph, used when a worker forks an
// independent exploration state (spec §5, §9 "Worker clones deep-copy
// labels").
func (g *Graph) Clone() *Graph {
	c := &Graph{stamps: g.stamps, coh: make(map[uint64][]event.Event, len(g.coh))}
	c.threads = make([][]event.Label, len(g.threads))
	for t, seq := range g.threads {
		cs := make([]event.Label, len(seq))
		for i, l := range seq {
			cs[i] = cloneLabel(l)
		}
		c.threads[t] = cs
	}
	// Rebind readers lists to the cloned write labels (cloneLabel copies the
	// Readers slice by value, so the list still refers to valid Events; no
	// pointer rebinding is needed since readers are Event coordinates, not
	// pointers, keeping Clone O(|graph|) rather than O(|graph|^2)).
	for a, list := range g.coh {
		c.coh[a] = append([]event.Event(nil), list...)
	}
	return c
}
