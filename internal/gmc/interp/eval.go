package interp

import (
	"github.com/kolkov/gmc/internal/gmc/deps"
	"github.com/kolkov/gmc/internal/gmc/ir"
	"github.com/kolkov/gmc/internal/gmc/value"
)

// eval resolves an operand to a concrete value against the current frame's
// locals (spec §4.E "Pure IR ops… update locals").
func (in *Interpreter) eval(f *Frame, op ir.Operand) value.Value {
	if !op.IsReg {
		return value.Int(op.Imm)
	}
	if v, ok := f.Locals[op.Reg]; ok {
		return v
	}
	return value.Int(0)
}

// execPure evaluates an arithmetic/cast/gep/select/phi/extract/insert
// instruction with no graph effect (spec §4.E), propagating data
// dependencies for the destination register.
func (in *Interpreter) execPure(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	result := in.evalPure(f, inst)
	f.Locals[inst.Dst] = result

	operands := make([]deps.SSAValue, 0, len(inst.Args))
	for _, a := range inst.Args {
		if a.IsReg {
			operands = append(operands, deps.SSAValue(a.Reg))
		}
	}
	t.Deps.RecordPure(deps.SSAValue(inst.Dst), operands...)
	f.PC++
	return nil
}

// evalPure computes the arithmetic/select/etc result. Opcode-specific
// semantics are intentionally minimal: the checkers only need the dataflow
// and control-flow shape, not a faithful ALU, since consistency is decided
// over the event graph, not program values (spec §1 "does not… optimize the
// program under test").
func (in *Interpreter) evalPure(f *Frame, inst ir.Instruction) value.Value {
	switch inst.Op {
	case ir.OpSelect:
		if len(inst.Args) == 3 {
			cond := in.eval(f, inst.Args[0])
			if !cond.IsZero() {
				return in.eval(f, inst.Args[1])
			}
			return in.eval(f, inst.Args[2])
		}
	case ir.OpArith:
		if len(inst.Args) == 2 {
			a, b := in.eval(f, inst.Args[0]), in.eval(f, inst.Args[1])
			return value.Int(a.AsInt() + b.AsInt())
		}
	}
	if len(inst.Args) > 0 {
		return in.eval(f, inst.Args[0])
	}
	return value.Int(0)
}

func (in *Interpreter) execBranch(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	if len(inst.Args) == 0 || len(inst.Succs) == 1 {
		f.Block = inst.Succs[0]
		f.PC = 0
		return nil
	}
	cond := inst.Args[0]
	if cond.IsReg {
		t.Deps.OnBranch(deps.SSAValue(cond.Reg))
	}
	v := in.eval(f, cond)
	if !v.IsZero() {
		f.Block = inst.Succs[0]
	} else {
		f.Block = inst.Succs[1]
	}
	f.PC = 0
	return nil
}

func (in *Interpreter) execSwitch(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	if len(inst.Args) == 0 {
		f.Block = inst.Succs[len(inst.Succs)-1]
		f.PC = 0
		return nil
	}
	sel := inst.Args[0]
	if sel.IsReg {
		t.Deps.OnBranch(deps.SSAValue(sel.Reg))
	}
	v := in.eval(f, sel)
	for i := 1; i < len(inst.Args); i++ {
		if in.eval(f, inst.Args[i]).AsInt() == v.AsInt() && i-1 < len(inst.Succs)-1 {
			f.Block = inst.Succs[i-1]
			f.PC = 0
			return nil
		}
	}
	f.Block = inst.Succs[len(inst.Succs)-1]
	f.PC = 0
	return nil
}
