package interp

import (
	"github.com/pkg/errors"

	"github.com/kolkov/gmc/internal/gmc/deps"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/ir"
	"github.com/kolkov/gmc/internal/gmc/value"
)

// Interpreter executes an ir.Module over N cooperative threads, one
// instruction at a time, emitting events through a Sink (spec §4.E).
type Interpreter struct {
	Module *ir.Module
	Info   *ir.ModuleInfo
	Sink   EventSink

	Threads []*Thread

	// replay holds the flag set by SetReplay; the interpreter itself never
	// reads it. Replayed events are recognized by the EventSink instead,
	// which skips re-inserting labels the graph already holds.
	replay bool
}

// New creates an interpreter with a single thread running Module.Entry.
func New(mod *ir.Module, info *ir.ModuleInfo, sink EventSink) (*Interpreter, error) {
	entry, ok := mod.Functions[mod.Entry]
	if !ok {
		return nil, errors.Errorf("interp: entry function %q not found", mod.Entry)
	}
	in := &Interpreter{Module: mod, Info: info, Sink: sink}
	in.Threads = []*Thread{newThread(0, entry)}
	return in, nil
}

// SetReplay toggles replay mode (spec §4.E).
func (in *Interpreter) SetReplay(v bool) { in.replay = v }

// Schedulable reports whether thread tid can take a further step.
func (in *Interpreter) Schedulable(tid uint32) bool {
	if int(tid) >= len(in.Threads) {
		return false
	}
	t := in.Threads[tid]
	return !t.Finished && t.Blocked == NotBlocked && t.Top() != nil
}

// AnySchedulable reports whether at least one thread can take a step.
func (in *Interpreter) AnySchedulable() bool {
	for i := range in.Threads {
		if in.Schedulable(uint32(i)) {
			return true
		}
	}
	return false
}

// spawnThread allocates a new thread context for thread-create.
func (in *Interpreter) spawnThread(fn *ir.Function) uint32 {
	id := uint32(len(in.Threads))
	in.Threads = append(in.Threads, newThread(id, fn))
	return id
}

// Step advances thread tid by exactly one instruction (spec §4.E
// "schedule_next… advances it by one instruction").
func (in *Interpreter) Step(tid uint32) error {
	t := in.Threads[tid]
	f := t.Top()
	if f == nil {
		t.Finished = true
		return nil
	}
	block, ok := f.Func.Blocks[f.Block]
	if !ok {
		return errors.Errorf("interp: thread %d: unknown block %q", tid, f.Block)
	}
	if f.PC >= len(block.Insts) {
		// Fell off the end of a block with no explicit terminator: treat as
		// a return with no value, matching a `ret void` the front-end omits.
		return in.execRet(t, nil)
	}
	inst := block.Insts[f.PC]
	return in.execInst(t, inst)
}

func (in *Interpreter) execInst(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	switch inst.Op {
	case ir.OpArith, ir.OpCast, ir.OpGEP, ir.OpSelect, ir.OpExtractValue, ir.OpInsertValue:
		return in.execPure(t, inst)
	case ir.OpPhi:
		return in.execPure(t, inst)
	case ir.OpBranch:
		return in.execBranch(t, inst)
	case ir.OpSwitch:
		return in.execSwitch(t, inst)
	case ir.OpLoad:
		return in.execLoad(t, inst)
	case ir.OpStore:
		return in.execStore(t, inst)
	case ir.OpAtomicRMW:
		return in.execRMW(t, inst)
	case ir.OpCmpXchg:
		return in.execCmpXchg(t, inst)
	case ir.OpFence:
		if err := in.Sink.Fence(t.ID, toEventOrdering(inst.Ord)); err != nil {
			return err
		}
		f.PC++
		return nil
	case ir.OpCall:
		return in.execCall(t, inst)
	case ir.OpUnreachable:
		return in.Sink.ReportError(t.ID, ErrSafety, "unreachable instruction reached")
	case ir.OpRet:
		var rv *value.Value
		if len(inst.Args) > 0 {
			v := in.eval(f, inst.Args[0])
			rv = &v
		}
		return in.execRet(t, rv)
	default:
		return errors.Errorf("interp: unknown opcode %d", inst.Op)
	}
}

func toEventOrdering(o ir.Ordering) event.Ordering {
	switch o {
	case ir.Relaxed:
		return event.Relaxed
	case ir.Acquire:
		return event.Acquire
	case ir.Release:
		return event.Release
	case ir.AcqRel:
		return event.AcqRel
	case ir.SeqCst:
		return event.SeqCst
	default:
		return event.NonAtomic
	}
}

func (in *Interpreter) execRet(t *Thread, rv *value.Value) error {
	retReg := t.Top().ReturnReg
	t.Stack = t.Stack[:len(t.Stack)-1]
	if len(t.Stack) == 0 {
		t.Finished = true
		return in.Sink.ThreadFinish(t.ID)
	}
	caller := t.Top()
	if retReg != nil && rv != nil {
		caller.Locals[*retReg] = *rv
		t.Deps.RecordPure(deps.SSAValue(*retReg))
	}
	caller.PC++
	return nil
}
