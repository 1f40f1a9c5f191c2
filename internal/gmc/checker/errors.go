package checker

import (
	"github.com/kolkov/gmc/internal/gmc/addr"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/nfa"
)

// sharedMemSafetyErrors runs the model-independent half of spec §7's error
// taxonomy: VE_UninitializedMem, VE_AccessNonMalloc, VE_AccessFreed,
// VE_DoubleFree, VE_RaceNotAtomic. Every model's CheckErrors returns this
// result as is; no model (IMM included) adds checks of its own.
func sharedMemSafetyErrors(b *base, e event.Event) []interp.ErrorKind {
	l := b.lbl(e)
	if l == nil {
		return nil
	}

	var out []interp.ErrorKind

	switch lab := l.(type) {
	case *event.ReadLabel:
		a, _ := event.AddrOf(lab)
		hb := b.hbOf(e)

		if lab.Rf.IsInitializer() && !isStatic(b, a) {
			out = append(out, interp.ErrUninitializedMem)
		}
		if !hasPriorMalloc(b, e, a) && !isStatic(b, a) {
			out = append(out, interp.ErrAccessNonMalloc)
		}
		if freedBefore(b, e, a) {
			out = append(out, interp.ErrAccessFreed)
		}
		if lab.Ordering() == event.NonAtomic {
			if racesWithConcurrentAccess(b, e, a, hb) {
				out = append(out, interp.ErrRaceNotAtomic)
			}
		}

	case *event.WriteLabel:
		a, _ := event.AddrOf(lab)
		hb := b.hbOf(e)

		if !hasPriorMalloc(b, e, a) && !isStatic(b, a) {
			out = append(out, interp.ErrAccessNonMalloc)
		}
		if freedBefore(b, e, a) {
			out = append(out, interp.ErrAccessFreed)
		}
		if lab.Ordering() == event.NonAtomic {
			if racesWithConcurrentAccess(b, e, a, hb) {
				out = append(out, interp.ErrRaceNotAtomic)
			}
		}

	case *event.MemMgmtLabel:
		if lab.Kind() == event.KindFree {
			hb := b.hbOf(e)
			freed := lab.FreedAddr
			count := 0
			for _, other := range b.allEvents() {
				om, ok := b.lbl(other).(*event.MemMgmtLabel)
				if !ok || om.Kind() != event.KindFree || om.FreedAddr != freed {
					continue
				}
				if hb.Contains(other) || other == e {
					count++
				}
			}
			if count > 1 {
				out = append(out, interp.ErrDoubleFree)
			}
			if !hasPriorMalloc(b, e, uint64(freed)) {
				out = append(out, interp.ErrFreeNonMalloc)
			}
		}
	}

	return out
}

func (b *base) hbOf(e event.Event) *event.View {
	return accumulateHbView(e, union(b.poPred, b.rf, b.coImm))
}

// isStatic reports whether a is a static/automatic address: only heap
// addresses are subject to the malloc/free lifetime checks.
func isStatic(b *base, a uint64) bool {
	return addr.Addr(a).Storage() != addr.Heap
}

// hasPriorMalloc/freedBefore run the "calculation NFA" DFS (spec §4.F) over
// the hb-predecessor relation, accepting on a Malloc/Free of a, rather than
// scanning every event in the graph: the same shared engine the per-model
// checkers use for calculate_saved backs the error taxonomy's existence
// checks too.
func hasPriorMalloc(b *base, e event.Event, a uint64) bool {
	accept := func(l event.Label) bool {
		m, ok := l.(*event.MemMgmtLabel)
		return ok && m.Kind() == event.KindMalloc && uint64(m.Addr) == a
	}
	return len(nfa.NewSetCalculator().Calculate(e, union(b.poPred, b.rf, b.coImm), accept, b.lbl)) > 0
}

func freedBefore(b *base, e event.Event, a uint64) bool {
	accept := func(l event.Label) bool {
		m, ok := l.(*event.MemMgmtLabel)
		return ok && m.Kind() == event.KindFree && uint64(m.FreedAddr) == a
	}
	return len(nfa.NewSetCalculator().Calculate(e, union(b.poPred, b.rf, b.coImm), accept, b.lbl)) > 0
}

// racesWithConcurrentAccess reports whether some other access to addr is
// neither hb-before nor hb-after e: a data race on a non-atomic location
// (spec §7 RaceNotAtomic).
func racesWithConcurrentAccess(b *base, e event.Event, a uint64, hb *event.View) bool {
	for _, other := range b.allEvents() {
		if other == e {
			continue
		}
		oa, ok := event.AddrOf(b.lbl(other))
		if !ok || oa != a {
			continue
		}
		if !isAccess(b.lbl(other)) {
			continue
		}
		if hb.Contains(other) {
			continue
		}
		otherHb := b.hbOf(other)
		if otherHb.Contains(e) {
			continue
		}
		if event.IsWrite(b.lbl(other)) || event.IsWrite(b.lbl(e)) {
			return true
		}
	}
	return false
}

func isAccess(l event.Label) bool {
	return event.IsRead(l) || event.IsWrite(l)
}
