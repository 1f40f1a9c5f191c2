package event

// This file collects the per-event predicates the NFA framework evaluates
// when walking transitions (spec §4.F: "isRead, isWrite, isAtLeastAcquire,
// isSC, isRMWLoad, isRMWStore, isFence, etc."). Every switch below is
// exhaustive over Kind, matching spec §9's "exhaustive pattern matching in
// every visitor; no open hierarchy".

// IsRead reports whether l is a Read label (any subvariant).
func IsRead(l Label) bool { return l.Kind() == KindRead }

// IsWrite reports whether l is a Write label (any subvariant).
func IsWrite(l Label) bool { return l.Kind() == KindWrite }

// IsFence reports whether l is any fence-like label (Fence, DskFsync,
// DskSync, DskPbarrier).
func IsFence(l Label) bool {
	switch l.Kind() {
	case KindFence, KindDskFsync, KindDskSync, KindDskPbarrier:
		return true
	default:
		return false
	}
}

// IsAtLeastAcquire reports whether l's ordering carries acquire semantics.
func IsAtLeastAcquire(l Label) bool { return l.Ordering().IsAtLeastAcquire() }

// IsAtLeastRelease reports whether l's ordering carries release semantics.
func IsAtLeastRelease(l Label) bool { return l.Ordering().IsAtLeastRelease() }

// IsSC reports whether l is annotated sequentially consistent.
func IsSC(l Label) bool { return l.Ordering().IsSC() }

// IsRMWLoad reports whether l is the load half of a read-modify-write pair
// (spec I3): ReadFai, ReadCas, ReadLockCas, or ReadBIncFai.
func IsRMWLoad(l Label) bool {
	r, ok := l.(*ReadLabel)
	if !ok {
		return false
	}
	switch r.Sub {
	case ReadFai, ReadCas, ReadLockCas, ReadBIncFai:
		return true
	default:
		return false
	}
}

// IsRMWStore reports whether l is the store half of a read-modify-write pair.
func IsRMWStore(l Label) bool {
	w, ok := l.(*WriteLabel)
	if !ok {
		return false
	}
	switch w.Sub {
	case WriteFai, WriteCas, WriteLockCas, WriteBIncFai:
		return true
	default:
		return false
	}
}

// IsThreadCreate reports whether l is a ThreadCreate label.
func IsThreadCreate(l Label) bool { return l.Kind() == KindThreadCreate }

// IsThreadStart reports whether l is a ThreadStart label.
func IsThreadStart(l Label) bool { return l.Kind() == KindThreadStart }

// IsThreadJoin reports whether l is a ThreadJoin label.
func IsThreadJoin(l Label) bool { return l.Kind() == KindThreadJoin }

// IsThreadFinish reports whether l is a ThreadFinish label.
func IsThreadFinish(l Label) bool { return l.Kind() == KindThreadFinish }

// IsMalloc / IsFree report whether l manages dynamic memory lifetime.
func IsMalloc(l Label) bool { return l.Kind() == KindMalloc }
func IsFree(l Label) bool   { return l.Kind() == KindFree }

// AddrOf returns the address a memory-touching label targets, and whether l
// has one at all (Malloc, Free, Read, Write, HpProtect).
func AddrOf(l Label) (Addr uint64, ok bool) {
	switch v := l.(type) {
	case *ReadLabel:
		return uint64(v.Addr), true
	case *WriteLabel:
		return uint64(v.Addr), true
	case *MemMgmtLabel:
		if v.Kind() == KindMalloc || v.Kind() == KindHpProtect {
			return uint64(v.Addr), true
		}
		return uint64(v.FreedAddr), v.Kind() == KindFree
	default:
		return 0, false
	}
}
