package interp

import (
	"github.com/kolkov/gmc/internal/gmc/addr"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/ir"
	"github.com/kolkov/gmc/internal/gmc/value"
)

// EventSink is implemented by the Exploration Driver (spec §4.H): the
// interpreter calls it for every memory/synchronization instruction, and
// the driver appends the corresponding label(s) to the execution graph,
// consulting the coherence oracle and consistency checker as needed (spec
// §2 Flow: "E appends labels to B via H").
type EventSink interface {
	// Load handles load/atomic-rmw-read/cmpxchg-read. It returns the value
	// the driver chose the read should observe (via get_coherent_stores)
	// and the Event created for it.
	Load(req LoadRequest) (value.Value, event.Event, error)

	// Store handles store/atomic-rmw-write/cmpxchg-write.
	Store(req StoreRequest) (event.Event, error)

	// Fence handles a plain fence instruction.
	Fence(tid uint32, ord event.Ordering) error

	// ThreadCreate/ThreadJoin/ThreadFinish/ThreadStart drive the thread
	// lifecycle labels (spec §3 Label variants).
	ThreadCreate(tid uint32, childTid uint32) error
	ThreadJoin(tid uint32, childTid uint32) (joined bool, err error)
	ThreadFinish(tid uint32) error

	// Malloc/Free emit the corresponding memory-management labels and
	// return the allocated address for Malloc.
	Malloc(tid uint32, size uint64, name string) (addr.Addr, error)
	Free(tid uint32, a addr.Addr) error

	// LockAcquire/LockRelease drive LAPOR-style mutex labels; LockAcquire
	// reports whether the lock was available (false => caller blocks).
	LockAcquire(tid uint32, a addr.Addr) (acquired bool, err error)
	LockRelease(tid uint32, a addr.Addr) error

	// SpinStart/PotentialSpinEnd mark spin-loop bookkeeping events the
	// spin-assume pass's runtime counterpart relies on.
	SpinStart(tid uint32) error
	PotentialSpinEnd(tid uint32) error

	// ReportError raises a verification error at the given event (spec §7).
	ReportError(tid uint32, kind ErrorKind, detail string) error
}

// LoadRequest packages the arguments a Load instruction needs to hand to the
// driver.
type LoadRequest struct {
	Tid   uint32
	Addr  addr.Addr
	Size  uint64
	Typ   value.Kind
	Ord   event.Ordering
	Sub   event.ReadSub
	Annot *ir.AnnotExpr

	// RMW-only fields.
	FaiOp       event.BinOp
	Exp, SwapIn value.Value
}

// StoreRequest packages the arguments a Store instruction needs.
type StoreRequest struct {
	Tid  uint32
	Addr addr.Addr
	Size uint64
	Typ  value.Kind
	Ord  event.Ordering
	Sub  event.WriteSub
	Val  value.Value
}

// ErrorKind enumerates the verification-error taxonomy (spec §7).
type ErrorKind uint8

const (
	ErrSafety ErrorKind = iota
	ErrUninitializedMem
	ErrAccessNonMalloc
	ErrAccessFreed
	ErrDoubleFree
	ErrFreeNonMalloc
	ErrRaceFreeMalloc
	ErrInvalidJoin
	ErrInvalidUnlock
	ErrInvalidBInit
	ErrRaceNotAtomic
	ErrLiveness
	ErrSystemError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSafety:
		return "Safety"
	case ErrUninitializedMem:
		return "UninitializedMem"
	case ErrAccessNonMalloc:
		return "AccessNonMalloc"
	case ErrAccessFreed:
		return "AccessFreed"
	case ErrDoubleFree:
		return "DoubleFree"
	case ErrFreeNonMalloc:
		return "FreeNonMalloc"
	case ErrRaceFreeMalloc:
		return "RaceFreeMalloc"
	case ErrInvalidJoin:
		return "InvalidJoin"
	case ErrInvalidUnlock:
		return "InvalidUnlock"
	case ErrInvalidBInit:
		return "InvalidBInit"
	case ErrRaceNotAtomic:
		return "RaceNotAtomic"
	case ErrLiveness:
		return "Liveness"
	case ErrSystemError:
		return "SystemError"
	default:
		return "Unknown"
	}
}
