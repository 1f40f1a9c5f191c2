// Package interp implements the single-threaded cooperative interpreter
// (spec §4.E): it executes the IR one instruction at a time for whichever
// thread the Exploration Driver selects, emitting memory/synchronization
// events through an EventSink the driver implements.
package interp

import (
	"github.com/kolkov/gmc/internal/gmc/addr"
	"github.com/kolkov/gmc/internal/gmc/deps"
	"github.com/kolkov/gmc/internal/gmc/ir"
	"github.com/kolkov/gmc/internal/gmc/value"
)

// Frame is one call-stack frame (spec §4.E: "frame = { function,
// current_block, current_inst_iterator, locals, varargs, allocas }").
type Frame struct {
	Func      *ir.Function
	Block     string
	PC        int
	Locals    map[uint32]value.Value
	Varargs   []value.Value
	Allocas   []addr.Addr
	ReturnReg *uint32 // SSA register in the caller to receive this call's result
}

func newFrame(fn *ir.Function) *Frame {
	return &Frame{Func: fn, Block: fn.Entry, Locals: make(map[uint32]value.Value)}
}

// Thread is the per-thread interpreter state (spec §4.E, §5 "cooperative
// contexts").
type Thread struct {
	ID       uint32
	Stack    []*Frame
	Blocked  BlockReason
	Finished bool
	Deps     *deps.Tracker

	// WaitingOn names the resource a blocked thread is waiting for, so the
	// driver can decide when to unblock it (spec §5 "Blocks are reversible
	// by the driver").
	WaitingOn WaitTarget
}

// BlockReason enumerates why a thread is currently unschedulable (spec §5
// "Suspension points").
type BlockReason uint8

const (
	NotBlocked BlockReason = iota
	BlockedAssume
	BlockedJoin
	BlockedLock
	BlockedSpin
	BlockedBarrier
	BlockedError
	BlockedUser
)

// WaitTarget names what a blocked thread is waiting on.
type WaitTarget struct {
	ChildTid uint32    // BlockedJoin
	LockAddr addr.Addr // BlockedLock
	Barrier  addr.Addr // BlockedBarrier
}

func newThread(id uint32, entry *ir.Function) *Thread {
	return &Thread{ID: id, Stack: []*Frame{newFrame(entry)}, Deps: deps.New()}
}

// Top returns the thread's current (innermost) frame.
func (t *Thread) Top() *Frame {
	if len(t.Stack) == 0 {
		return nil
	}
	return t.Stack[len(t.Stack)-1]
}

// Clone deep-copies a thread's interpreter state for a worker fork (spec
// §5).
func (t *Thread) Clone() *Thread {
	c := &Thread{ID: t.ID, Blocked: t.Blocked, Finished: t.Finished, WaitingOn: t.WaitingOn, Deps: t.Deps.Clone()}
	c.Stack = make([]*Frame, len(t.Stack))
	for i, f := range t.Stack {
		nf := &Frame{Func: f.Func, Block: f.Block, PC: f.PC, ReturnReg: f.ReturnReg}
		nf.Locals = make(map[uint32]value.Value, len(f.Locals))
		for k, v := range f.Locals {
			nf.Locals[k] = v
		}
		nf.Varargs = append([]value.Value(nil), f.Varargs...)
		nf.Allocas = append([]addr.Addr(nil), f.Allocas...)
		c.Stack[i] = nf
	}
	return c
}
