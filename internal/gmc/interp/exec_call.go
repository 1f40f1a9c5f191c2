package interp

import (
	"github.com/pkg/errors"

	"github.com/kolkov/gmc/internal/gmc/ir"
	"github.com/kolkov/gmc/internal/gmc/value"
)

// builtin is a function-table entry for an internal operation (spec §4.E
// "call is dispatched by target-function name. A function table defines
// internal operations").
type builtin func(in *Interpreter, t *Thread, inst ir.Instruction) error

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"malloc":             biMalloc,
		"free":               biFree,
		"__assert_fail":      biAssertFail,
		"assume":             biAssume,
		"nondet_int":         biNondetInt,
		"thread_create":      biThreadCreate,
		"thread_join":        biThreadJoin,
		"thread_exit":        biThreadExit,
		"thread_self":        biThreadSelf,
		"mutex_init":         biMutexInit,
		"mutex_lock":         biMutexLock,
		"mutex_unlock":       biMutexUnlock,
		"mutex_trylock":      biMutexTrylock,
		"mutex_destroy":      biMutexDestroy,
		"barrier_init":       biBarrierInit,
		"barrier_wait":       biBarrierWait,
		"barrier_destroy":    biBarrierDestroy,
		"spin_start":         biSpinStart,
		"potential_spin_end": biPotentialSpinEnd,
		"open":               biFileStub,
		"close":              biFileStub,
		"read":               biFileStub,
		"write":              biFileStub,
		"fsync":              biFileStub,
	}
}

func (in *Interpreter) execCall(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	if fn, ok := builtins[inst.Target]; ok {
		return fn(in, t, inst)
	}
	if callee, ok := in.Module.Functions[inst.Target]; ok {
		nf := newFrame(callee)
		ret := inst.Dst
		nf.ReturnReg = &ret
		for i, arg := range inst.Args {
			if i >= callee.NumArgs {
				break
			}
			nf.Locals[uint32(i)] = in.eval(f, arg)
		}
		t.Stack = append(t.Stack, nf)
		return nil
	}
	// Unknown external function: treated as a pure no-op returning 0 (spec
	// §4.E "Anything unknown is treated as an external pure function").
	f.Locals[inst.Dst] = value.Int(0)
	f.PC++
	return nil
}

func biMalloc(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	size := in.eval(f, inst.Args[0]).AsInt()
	name := ""
	if len(inst.Aux) > 0 {
		name = inst.Aux[0]
	}
	a, err := in.Sink.Malloc(t.ID, uint64(size), name)
	if err != nil {
		return err
	}
	f.Locals[inst.Dst] = value.Ptr(a)
	f.PC++
	return nil
}

func biFree(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0]).AsAddr()
	if err := in.Sink.Free(t.ID, a); err != nil {
		return err
	}
	f.PC++
	return nil
}

func biAssertFail(in *Interpreter, t *Thread, inst ir.Instruction) error {
	return in.Sink.ReportError(t.ID, ErrSafety, "assertion failed")
}

func biAssume(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	cond := in.eval(f, inst.Args[0])
	if cond.IsZero() {
		t.Blocked = BlockedAssume
		return nil
	}
	f.PC++
	return nil
}

// biNondetInt yields 0 for every nondet_int call, so replay mode observes
// the same value it saw live; the exploration does not branch over other
// values.
func biNondetInt(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	f.Locals[inst.Dst] = value.Int(0)
	f.PC++
	return nil
}

func biThreadCreate(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	if len(inst.Aux) == 0 {
		return errors.New("interp: thread_create missing spawned-function name")
	}
	callee, ok := in.Module.Functions[inst.Aux[0]]
	if !ok {
		return errors.Errorf("interp: thread_create: unknown function %q", inst.Aux[0])
	}
	childTid := in.spawnThread(callee)
	if len(inst.Args) > 1 {
		in.Threads[childTid].Top().Locals[0] = in.eval(f, inst.Args[1])
	}
	if err := in.Sink.ThreadCreate(t.ID, childTid); err != nil {
		return err
	}
	f.Locals[inst.Dst] = value.Int(int64(childTid))
	f.PC++
	return nil
}

func biThreadJoin(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	childTid := uint32(in.eval(f, inst.Args[0]).AsInt())
	joined, err := in.Sink.ThreadJoin(t.ID, childTid)
	if err != nil {
		return err
	}
	if !joined {
		t.Blocked = BlockedJoin
		t.WaitingOn.ChildTid = childTid
		return nil
	}
	f.PC++
	return nil
}

func biThreadExit(in *Interpreter, t *Thread, inst ir.Instruction) error {
	t.Stack = t.Stack[:0]
	t.Finished = true
	return in.Sink.ThreadFinish(t.ID)
}

func biThreadSelf(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	f.Locals[inst.Dst] = value.Int(int64(t.ID))
	f.PC++
	return nil
}

func biMutexInit(in *Interpreter, t *Thread, inst ir.Instruction) error {
	t.Top().PC++
	return nil
}

func biMutexLock(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0]).AsAddr()
	acquired, err := in.Sink.LockAcquire(t.ID, a)
	if err != nil {
		return err
	}
	if !acquired {
		t.Blocked = BlockedLock
		t.WaitingOn.LockAddr = a
		return nil
	}
	f.PC++
	return nil
}

func biMutexTrylock(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0]).AsAddr()
	acquired, err := in.Sink.LockAcquire(t.ID, a)
	if err != nil {
		return err
	}
	if acquired {
		f.Locals[inst.Dst] = value.Int(1)
	} else {
		f.Locals[inst.Dst] = value.Int(0)
	}
	f.PC++
	return nil
}

func biMutexUnlock(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0]).AsAddr()
	if err := in.Sink.LockRelease(t.ID, a); err != nil {
		return err
	}
	f.PC++
	return nil
}

func biMutexDestroy(in *Interpreter, t *Thread, inst ir.Instruction) error {
	t.Top().PC++
	return nil
}

func biBarrierInit(in *Interpreter, t *Thread, inst ir.Instruction) error {
	t.Top().PC++
	return nil
}

func biBarrierWait(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0]).AsAddr()
	t.Blocked = BlockedBarrier
	t.WaitingOn.Barrier = a
	f.PC++
	return nil
}

func biBarrierDestroy(in *Interpreter, t *Thread, inst ir.Instruction) error {
	t.Top().PC++
	return nil
}

func biSpinStart(in *Interpreter, t *Thread, inst ir.Instruction) error {
	if err := in.Sink.SpinStart(t.ID); err != nil {
		return err
	}
	t.Top().PC++
	return nil
}

func biPotentialSpinEnd(in *Interpreter, t *Thread, inst ir.Instruction) error {
	if err := in.Sink.PotentialSpinEnd(t.ID); err != nil {
		return err
	}
	t.Top().PC++
	return nil
}

// biFileStub stands in for the modeled file-operation family (open/close/
// read/write/fsync): spec §4.E lists them as internal operations but their
// persistency semantics live behind the Dsk*-labeled write/fence family,
// which is a separable WB-checker strategy (spec Open Question ii). This
// stub advances the program counter and returns a zero result, enough for
// programs that don't depend on file-system consistency to check correctly.
func biFileStub(in *Interpreter, t *Thread, inst ir.Instruction) error {
	f := t.Top()
	f.Locals[inst.Dst] = value.Int(0)
	f.PC++
	return nil
}
