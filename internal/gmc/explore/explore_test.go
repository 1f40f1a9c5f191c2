package explore

import (
	"testing"

	"github.com/kolkov/gmc/internal/gmc/checker"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/ir"
)

func emptyInfo() *ir.ModuleInfo {
	return &ir.ModuleInfo{
		Instructions: map[uint64]ir.SourceLoc{},
		Functions:    map[string]ir.SourceLoc{},
		Annotations:  map[uint64]ir.AnnotExpr{},
		Variables:    map[uint64]string{},
	}
}

// emptyProgram builds a single-threaded main that immediately returns,
// the boundary scenario spec §8 calls out explicitly.
func emptyProgram() *ir.Module {
	main := &ir.Function{
		Name:  "main",
		Entry: "entry",
		Blocks: map[string]*ir.BasicBlock{
			"entry": {Label: "entry", Insts: []ir.Instruction{
				{Op: ir.OpRet},
			}},
		},
	}
	return &ir.Module{Functions: map[string]*ir.Function{"main": main}, Entry: "main"}
}

func TestRun_EmptyProgram(t *testing.T) {
	d, err := New(emptyProgram(), emptyInfo(), Options{Model: checker.ModelSC})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := d.Result()
	if got := res.Explored(); got != 1 {
		t.Errorf("Explored() = %d, want 1", got)
	}
	if got := res.ExploredBlocked(); got != 0 {
		t.Errorf("ExploredBlocked() = %d, want 0", got)
	}
	if errs := res.Errors(); len(errs) != 0 {
		t.Errorf("Errors() = %v, want none", errs)
	}
}

// storeThenLoadProgram allocates one cell, stores 42 into it, loads it back,
// then returns: a single thread's own store is always its own most recent
// coherent write, so this must explore clean with no race.
func storeThenLoadProgram() *ir.Module {
	main := &ir.Function{
		Name:  "main",
		Entry: "entry",
		Blocks: map[string]*ir.BasicBlock{
			"entry": {Label: "entry", Insts: []ir.Instruction{
				{Op: ir.OpCall, Target: "malloc", Dst: 0, Args: []ir.Operand{ir.Imm(8)}},
				{Op: ir.OpStore, Args: []ir.Operand{ir.Reg(0), ir.Imm(42)}, Ord: ir.SeqCst, Size: 8},
				{Op: ir.OpLoad, Dst: 1, Args: []ir.Operand{ir.Reg(0)}, Ord: ir.SeqCst, Size: 8},
				{Op: ir.OpRet},
			}},
		},
	}
	return &ir.Module{Functions: map[string]*ir.Function{"main": main}, Entry: "main"}
}

func TestRun_StoreThenLoadSingleThread(t *testing.T) {
	d, err := New(storeThenLoadProgram(), emptyInfo(), Options{Model: checker.ModelSC})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := d.Result()
	if got := res.Explored(); got != 1 {
		t.Errorf("Explored() = %d, want 1", got)
	}
	if errs := res.Errors(); len(errs) != 0 {
		t.Errorf("Errors() = %v, want none", errs)
	}
}

// doubleFreeProgram allocates one cell and frees it twice, the boundary
// scenario spec §8 scenario 5 calls out ("VE_DoubleFree").
func doubleFreeProgram() *ir.Module {
	main := &ir.Function{
		Name:  "main",
		Entry: "entry",
		Blocks: map[string]*ir.BasicBlock{
			"entry": {Label: "entry", Insts: []ir.Instruction{
				{Op: ir.OpCall, Target: "malloc", Dst: 0, Args: []ir.Operand{ir.Imm(4)}},
				{Op: ir.OpCall, Target: "free", Args: []ir.Operand{ir.Reg(0)}},
				{Op: ir.OpCall, Target: "free", Args: []ir.Operand{ir.Reg(0)}},
				{Op: ir.OpRet},
			}},
		},
	}
	return &ir.Module{Functions: map[string]*ir.Function{"main": main}, Entry: "main"}
}

func TestRun_DoubleFree(t *testing.T) {
	d, err := New(doubleFreeProgram(), emptyInfo(), Options{Model: checker.ModelSC})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	errs := d.Result().Errors()
	if !containsError(errs, interp.ErrDoubleFree) {
		t.Errorf("Errors() = %v, want ErrDoubleFree", errs)
	}
}

// raceProgram spawns a writer and a reader thread racing on the same
// non-atomic cell with no synchronization between them, spec §8 scenario 4
// ("VE_RaceNotAtomic").
func raceProgram() *ir.Module {
	writer := &ir.Function{
		Name: "writer", Entry: "entry", NumArgs: 1,
		Blocks: map[string]*ir.BasicBlock{
			"entry": {Label: "entry", Insts: []ir.Instruction{
				{Op: ir.OpStore, Args: []ir.Operand{ir.Reg(0), ir.Imm(1)}, Ord: ir.NonAtomic, Size: 8},
				{Op: ir.OpRet},
			}},
		},
	}
	reader := &ir.Function{
		Name: "reader", Entry: "entry", NumArgs: 1,
		Blocks: map[string]*ir.BasicBlock{
			"entry": {Label: "entry", Insts: []ir.Instruction{
				{Op: ir.OpLoad, Dst: 1, Args: []ir.Operand{ir.Reg(0)}, Ord: ir.NonAtomic, Size: 8},
				{Op: ir.OpRet},
			}},
		},
	}
	main := &ir.Function{
		Name:  "main",
		Entry: "entry",
		Blocks: map[string]*ir.BasicBlock{
			"entry": {Label: "entry", Insts: []ir.Instruction{
				{Op: ir.OpCall, Target: "malloc", Dst: 0, Args: []ir.Operand{ir.Imm(8)}},
				{Op: ir.OpCall, Target: "thread_create", Dst: 1, Aux: []string{"writer"}, Args: []ir.Operand{ir.Imm(0), ir.Reg(0)}},
				{Op: ir.OpCall, Target: "thread_create", Dst: 2, Aux: []string{"reader"}, Args: []ir.Operand{ir.Imm(0), ir.Reg(0)}},
				{Op: ir.OpRet},
			}},
		},
	}
	return &ir.Module{
		Functions: map[string]*ir.Function{"main": main, "writer": writer, "reader": reader},
		Entry:     "main",
	}
}

func TestRun_UnsynchronizedRace(t *testing.T) {
	d, err := New(raceProgram(), emptyInfo(), Options{Model: checker.ModelSC})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	errs := d.Result().Errors()
	if !containsError(errs, interp.ErrRaceNotAtomic) {
		t.Errorf("Errors() = %v, want ErrRaceNotAtomic", errs)
	}
}

// twoWritersJoinedReaderProgram spawns two threads that each store a
// distinct value to the same atomic cell with no ordering between them,
// joins both, then reads: spec §8's boundary behavior "two threads each
// storing distinct values to the same location… with a joining reader:
// under SC, exactly n graphs where n is the number of total orders" — for
// two writers, n = 2.
func twoWritersJoinedReaderProgram() *ir.Module {
	mkWriter := func(val int64) *ir.Function {
		return &ir.Function{
			Name: "writer", Entry: "entry", NumArgs: 1,
			Blocks: map[string]*ir.BasicBlock{
				"entry": {Label: "entry", Insts: []ir.Instruction{
					{Op: ir.OpStore, Args: []ir.Operand{ir.Reg(0), ir.Imm(val)}, Ord: ir.SeqCst, Size: 8},
					{Op: ir.OpRet},
				}},
			},
		}
	}
	main := &ir.Function{
		Name:  "main",
		Entry: "entry",
		Blocks: map[string]*ir.BasicBlock{
			"entry": {Label: "entry", Insts: []ir.Instruction{
				{Op: ir.OpCall, Target: "malloc", Dst: 0, Args: []ir.Operand{ir.Imm(8)}},
				{Op: ir.OpCall, Target: "thread_create", Dst: 1, Aux: []string{"writer1"}, Args: []ir.Operand{ir.Imm(0), ir.Reg(0)}},
				{Op: ir.OpCall, Target: "thread_create", Dst: 2, Aux: []string{"writer2"}, Args: []ir.Operand{ir.Imm(0), ir.Reg(0)}},
				{Op: ir.OpCall, Target: "thread_join", Args: []ir.Operand{ir.Reg(1)}},
				{Op: ir.OpCall, Target: "thread_join", Args: []ir.Operand{ir.Reg(2)}},
				{Op: ir.OpLoad, Dst: 3, Args: []ir.Operand{ir.Reg(0)}, Ord: ir.SeqCst, Size: 8},
				{Op: ir.OpRet},
			}},
		},
	}
	return &ir.Module{
		Functions: map[string]*ir.Function{
			"main": main, "writer1": mkWriter(1), "writer2": mkWriter(2),
		},
		Entry: "main",
	}
}

func TestRun_TwoWritersJoinedReaderSC(t *testing.T) {
	d, err := New(twoWritersJoinedReaderProgram(), emptyInfo(), Options{Model: checker.ModelSC})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := d.Result()
	if got := res.Explored(); got != 2 {
		t.Errorf("Explored() = %d, want 2 (one per writer total order)", got)
	}
	if errs := res.Errors(); len(errs) != 0 {
		t.Errorf("Errors() = %v, want none", errs)
	}
}

func containsError(errs []interp.ErrorKind, want interp.ErrorKind) bool {
	for _, e := range errs {
		if e == want {
			return true
		}
	}
	return false
}

func TestWorklist_PopOrdersByHighestStamp(t *testing.T) {
	wl := NewWorklist()
	wl.Push(newMoPlacement(event.Event{}, 0, 1))
	wl.Push(newMoPlacement(event.Event{}, 0, 3))
	wl.Push(newMoPlacement(event.Event{}, 0, 2))

	item, ok := wl.Pop()
	if !ok || item.stamp != 3 {
		t.Fatalf("Pop() stamp = %v, ok=%v, want 3, true", item.stamp, ok)
	}
	item, ok = wl.Pop()
	if !ok || item.stamp != 2 {
		t.Fatalf("Pop() stamp = %v, ok=%v, want 2, true", item.stamp, ok)
	}
}
