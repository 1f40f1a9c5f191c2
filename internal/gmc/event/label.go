package event

import (
	"github.com/kolkov/gmc/internal/gmc/addr"
	"github.com/kolkov/gmc/internal/gmc/value"
)

// Kind discriminates the Label sum type (spec §3 "Label"). Go has no closed
// sum types, so Kind plus an unexported sealLabel() method on Label is the
// idiom used here: every visitor switches on Kind() exhaustively instead of
// relying on an open type hierarchy (spec §9 "Dynamic dispatch over label
// kinds").
type Kind uint8

const (
	KindRead Kind = iota
	KindWrite
	KindFence
	KindDskFsync
	KindDskSync
	KindDskPbarrier
	KindThreadStart
	KindThreadCreate
	KindThreadJoin
	KindThreadFinish
	KindMalloc
	KindFree
	KindHpRetire
	KindHpProtect
	KindLockLAPOR
	KindUnlockLAPOR
	KindSpinStart
	KindPotentialSpinEnd
	KindEmpty
)

// Deps is the dependency snapshot a label carries at creation time (spec
// §4.D): data/address/control/addr-po/CAS dependency sets of its thread at
// the moment the event was emitted.
type Deps struct {
	Data   Set
	Addr   Set
	Ctrl   Set
	AddrPo Set
	Cas    Set
}

// CloneDeps deep-copies a Deps snapshot.
func CloneDeps(d Deps) Deps {
	return Deps{
		Data:   d.Data.Clone(),
		Addr:   d.Addr.Clone(),
		Ctrl:   d.Ctrl.Clone(),
		AddrPo: d.AddrPo.Clone(),
		Cas:    d.Cas.Clone(),
	}
}

// Base holds the fields every label variant carries (spec §3: "Each label
// also carries: views, calculated, addedMax, isRevisitedInPlace").
type Base struct {
	pos      Event
	stamp    uint32
	ordering Ordering

	views      []*View
	calculated []Set
	addedMax   bool
	revisited  bool
	deps       Deps
}

func newBase(pos Event, ord Ordering, deps Deps) Base {
	return Base{pos: pos, ordering: ord, deps: deps}
}

// Pos returns the label's event coordinates.
func (b *Base) Pos() Event { return b.pos }

// Stamp returns the label's creation-order stamp.
func (b *Base) Stamp() uint32 { return b.stamp }

// SetStamp is called once by the graph when the label is added.
func (b *Base) SetStamp(s uint32) { b.stamp = s }

// Ordering returns the label's memory-ordering annotation.
func (b *Base) Ordering() Ordering { return b.ordering }

// Views returns the per-model vector clocks computed for this label.
func (b *Base) Views() []*View { return b.views }

// SetViews replaces the computed views (called by the consistency checker).
func (b *Base) SetViews(v []*View) { b.views = v }

// View0 returns views[0] (by convention the happens-before view), or a fresh
// empty view if none has been computed yet.
func (b *Base) View0() *View {
	if len(b.views) == 0 {
		return NewView()
	}
	return b.views[0]
}

// Calculated returns the auxiliary event sets computed for this label.
func (b *Base) Calculated() []Set { return b.calculated }

// SetCalculated replaces the calculated sets.
func (b *Base) SetCalculated(c []Set) { b.calculated = c }

// AddedMax reports whether this access was coherence-maximal at insertion
// time (spec §3 "addedMax").
func (b *Base) AddedMax() bool { return b.addedMax }

// SetAddedMax records coherence-maximality at insertion time.
func (b *Base) SetAddedMax(v bool) { b.addedMax = v }

// IsRevisitedInPlace reports whether this label's rf was changed in place by
// calc_revisits rather than through a backward-revisit prefix restore.
func (b *Base) IsRevisitedInPlace() bool { return b.revisited }

// SetRevisitedInPlace records an in-place revisit.
func (b *Base) SetRevisitedInPlace(v bool) { b.revisited = v }

// Deps returns the dependency snapshot captured when the label was created.
func (b *Base) Deps() Deps { return b.deps }

// Label is the sealed sum type all event records implement. The unexported
// sealLabel method prevents external packages from adding new variants,
// standing in for the source's closed EventLabel hierarchy (spec §9).
type Label interface {
	Pos() Event
	Stamp() uint32
	SetStamp(uint32)
	Ordering() Ordering
	Kind() Kind
	Views() []*View
	SetViews([]*View)
	View0() *View
	Calculated() []Set
	SetCalculated([]Set)
	AddedMax() bool
	SetAddedMax(bool)
	IsRevisitedInPlace() bool
	SetRevisitedInPlace(bool)
	Deps() Deps

	sealLabel()
}

func (*Base) sealLabel() {}

// ReadSub distinguishes the Read subvariants of spec §3.
type ReadSub uint8

const (
	ReadPlain ReadSub = iota
	ReadFai
	ReadCas
	ReadLockCas
	ReadBIncFai
	ReadBWait
	ReadLib
	ReadDsk
)

// ReadLabel is the Read label variant with its subvariant payloads folded
// into optional fields (spec §3 "Read { addr, size, type, rf, annot?,
// addedMax, revisitedInPlace }" with Plain/Fai/Cas/LockCas/BInc/BWait/Lib/Dsk
// subvariants).
type ReadLabel struct {
	Base

	Sub  ReadSub
	Addr addr.Addr
	Size uint64
	Typ  value.Kind

	Rf    Event
	Annot func(value.Value) bool // optional load-annotation predicate

	// FaiRead / BIncFaiRead payload.
	FaiOp  BinOp
	FaiVal value.Value

	// CasRead / LockCasRead payload.
	Exp, Swap value.Value

	// LibRead payload.
	LibFn string
}

// Kind implements Label.
func (*ReadLabel) Kind() Kind { return KindRead }

// NewRead constructs a plain (or subvariant) read label; pos/stamp/views are
// filled in by the graph on add_label.
func NewRead(pos Event, ord Ordering, a addr.Addr, size uint64, typ value.Kind, deps Deps) *ReadLabel {
	return &ReadLabel{Base: newBase(pos, ord, deps), Sub: ReadPlain, Addr: a, Size: size, Typ: typ, Rf: BOTTOM}
}

// BinOp enumerates the RMW operators for Fai-family reads/writes.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpAnd
	OpOr
	OpXor
	OpExchange
)

// WriteSub distinguishes the Write subvariants of spec §3.
type WriteSub uint8

const (
	WritePlain WriteSub = iota
	WriteFai
	WriteCas
	WriteLockCas
	WriteUnlock
	WriteBInit
	WriteBDestroy
	WriteBIncFai
	WriteLib
	WriteDsk
	WriteDskMd
	WriteDskDir
	WriteDskJnl
)

// WriteLabel is the Write label variant (spec §3 "Write { addr, size, type,
// val, readers }" with the mirrored subvariant set).
type WriteLabel struct {
	Base

	Sub  WriteSub
	Addr addr.Addr
	Size uint64
	Typ  value.Kind
	Val  value.Value

	Readers []Event

	// LibWrite payload.
	LibFn  string
	IsInit bool

	// DskWrite payload: logical block/inode mapping this write establishes.
	Mapping string
}

// Kind implements Label.
func (*WriteLabel) Kind() Kind { return KindWrite }

// NewWrite constructs a plain (or subvariant) write label.
func NewWrite(pos Event, ord Ordering, a addr.Addr, size uint64, typ value.Kind, val value.Value, deps Deps) *WriteLabel {
	return &WriteLabel{Base: newBase(pos, ord, deps), Sub: WritePlain, Addr: a, Size: size, Typ: typ, Val: val}
}

// AddReader appends r to the write's readers list (spec I7: "readers lists
// are consistent with rf").
func (w *WriteLabel) AddReader(r Event) { w.Readers = append(w.Readers, r) }

// RemoveReader removes r from the write's readers list, if present.
func (w *WriteLabel) RemoveReader(r Event) {
	for i, e := range w.Readers {
		if e == r {
			w.Readers = append(w.Readers[:i], w.Readers[i+1:]...)
			return
		}
	}
}

// FenceLabel covers the fence-like labels that share no extra payload; its
// kind field tells them apart.
type FenceLabel struct {
	Base
	kind Kind // KindFence, KindDskFsync, KindDskSync, KindDskPbarrier
}

// Kind implements Label.
func (f *FenceLabel) Kind() Kind { return f.kind }

// NewFence constructs a Fence{ordering} label.
func NewFence(pos Event, ord Ordering, deps Deps) *FenceLabel {
	return &FenceLabel{Base: newBase(pos, ord, deps), kind: KindFence}
}

// NewDskFsync/NewDskSync/NewDskPbarrier construct the persistency fence
// variants (spec §3).
func NewDskFsync(pos Event, ord Ordering, deps Deps) *FenceLabel {
	return &FenceLabel{Base: newBase(pos, ord, deps), kind: KindDskFsync}
}
func NewDskSync(pos Event, ord Ordering, deps Deps) *FenceLabel {
	return &FenceLabel{Base: newBase(pos, ord, deps), kind: KindDskSync}
}
func NewDskPbarrier(pos Event, ord Ordering, deps Deps) *FenceLabel {
	return &FenceLabel{Base: newBase(pos, ord, deps), kind: KindDskPbarrier}
}

// ThreadLabel covers ThreadStart/Create/Join/Finish (spec §3).
type ThreadLabel struct {
	Base
	kind Kind

	ParentCreate  Event  // ThreadStart
	SymmetricTid  *uint32 // ThreadStart, optional
	ChildTid      uint32  // ThreadCreate / ThreadJoin
}

// Kind implements Label.
func (t *ThreadLabel) Kind() Kind { return t.kind }

// NewThreadStart constructs a ThreadStart label.
func NewThreadStart(pos Event, parentCreate Event, symmetricTid *uint32, deps Deps) *ThreadLabel {
	return &ThreadLabel{Base: newBase(pos, SeqCst, deps), kind: KindThreadStart, ParentCreate: parentCreate, SymmetricTid: symmetricTid}
}

// NewThreadCreate constructs a ThreadCreate label.
func NewThreadCreate(pos Event, childTid uint32, deps Deps) *ThreadLabel {
	return &ThreadLabel{Base: newBase(pos, SeqCst, deps), kind: KindThreadCreate, ChildTid: childTid}
}

// NewThreadJoin constructs a ThreadJoin label.
func NewThreadJoin(pos Event, childTid uint32, deps Deps) *ThreadLabel {
	return &ThreadLabel{Base: newBase(pos, SeqCst, deps), kind: KindThreadJoin, ChildTid: childTid}
}

// NewThreadFinish constructs a ThreadFinish label.
func NewThreadFinish(pos Event, deps Deps) *ThreadLabel {
	return &ThreadLabel{Base: newBase(pos, SeqCst, deps), kind: KindThreadFinish}
}

// MemMgmtLabel covers Malloc/Free/HpRetire/HpProtect (spec §3).
type MemMgmtLabel struct {
	Base
	kind Kind

	Addr      addr.Addr // Malloc
	Size      uint64    // Malloc
	Name      string    // Malloc, optional
	NameInfo  string    // Malloc, optional
	FreedAddr addr.Addr // Free
}

// Kind implements Label.
func (m *MemMgmtLabel) Kind() Kind { return m.kind }

// NewMalloc constructs a Malloc label.
func NewMalloc(pos Event, a addr.Addr, size uint64, name, nameInfo string, deps Deps) *MemMgmtLabel {
	return &MemMgmtLabel{Base: newBase(pos, NonAtomic, deps), kind: KindMalloc, Addr: a, Size: size, Name: name, NameInfo: nameInfo}
}

// NewFree constructs a Free label.
func NewFree(pos Event, freed addr.Addr, deps Deps) *MemMgmtLabel {
	return &MemMgmtLabel{Base: newBase(pos, NonAtomic, deps), kind: KindFree, FreedAddr: freed}
}

// NewHpRetire / NewHpProtect construct hazard-pointer bookkeeping labels.
func NewHpRetire(pos Event, freed addr.Addr, deps Deps) *MemMgmtLabel {
	return &MemMgmtLabel{Base: newBase(pos, Release, deps), kind: KindHpRetire, FreedAddr: freed}
}
func NewHpProtect(pos Event, a addr.Addr, deps Deps) *MemMgmtLabel {
	return &MemMgmtLabel{Base: newBase(pos, Acquire, deps), kind: KindHpProtect, Addr: a}
}

// LockLAPORLabel covers LockLAPOR/UnlockLAPOR (spec §3).
type LockLAPORLabel struct {
	Base
	kind     Kind
	LockAddr addr.Addr
}

// Kind implements Label.
func (l *LockLAPORLabel) Kind() Kind { return l.kind }

// NewLockLAPOR / NewUnlockLAPOR construct the LAPOR bookkeeping labels.
func NewLockLAPOR(pos Event, lockAddr addr.Addr, deps Deps) *LockLAPORLabel {
	return &LockLAPORLabel{Base: newBase(pos, Acquire, deps), kind: KindLockLAPOR, LockAddr: lockAddr}
}
func NewUnlockLAPOR(pos Event, lockAddr addr.Addr, deps Deps) *LockLAPORLabel {
	return &LockLAPORLabel{Base: newBase(pos, Release, deps), kind: KindUnlockLAPOR, LockAddr: lockAddr}
}

// MiscLabel covers SpinStart/PotentialSpinEnd/Empty (spec §3): bookkeeping
// labels with no extra payload beyond Base.
type MiscLabel struct {
	Base
	kind Kind
}

// Kind implements Label.
func (m *MiscLabel) Kind() Kind { return m.kind }

// NewSpinStart / NewPotentialSpinEnd / NewEmpty construct the bookkeeping
// labels used by spin-loop detection and recovery-thread empty slots.
func NewSpinStart(pos Event, deps Deps) *MiscLabel {
	return &MiscLabel{Base: newBase(pos, NonAtomic, deps), kind: KindSpinStart}
}
func NewPotentialSpinEnd(pos Event, deps Deps) *MiscLabel {
	return &MiscLabel{Base: newBase(pos, NonAtomic, deps), kind: KindPotentialSpinEnd}
}
func NewEmpty(pos Event) *MiscLabel {
	return &MiscLabel{Base: newBase(pos, NonAtomic, Deps{}), kind: KindEmpty}
}
