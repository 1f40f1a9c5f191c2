package interp

import (
	"github.com/kolkov/gmc/internal/gmc/deps"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/ir"
	"github.com/kolkov/gmc/internal/gmc/value"
)

func (in *Interpreter) execLoad(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0])
	var annot *ir.AnnotExpr
	if an, ok := in.Info.Annotations[inst.ID]; ok {
		annot = &an
	}
	req := LoadRequest{
		Tid: t.ID, Addr: a.AsAddr(), Size: inst.Size, Typ: value.Signed,
		Ord: toEventOrdering(inst.Ord), Sub: event.ReadPlain, Annot: annot,
	}
	v, ev, err := in.Sink.Load(req)
	if err != nil {
		return err
	}
	f.Locals[inst.Dst] = v
	t.Deps.RecordRead(deps.SSAValue(inst.Dst), ev, event.NewSet())
	if inst.Args[0].IsReg {
		t.Deps.RecordAddrPo(ev)
	}
	f.PC++
	return nil
}

func (in *Interpreter) execStore(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0])
	v := in.eval(f, inst.Args[1])
	req := StoreRequest{
		Tid: t.ID, Addr: a.AsAddr(), Size: inst.Size, Typ: value.Signed,
		Ord: toEventOrdering(inst.Ord), Sub: event.WritePlain, Val: v,
	}
	if _, err := in.Sink.Store(req); err != nil {
		return err
	}
	f.PC++
	return nil
}

func (in *Interpreter) execRMW(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0])
	operand := in.eval(f, inst.Args[1])

	loadReq := LoadRequest{
		Tid: t.ID, Addr: a.AsAddr(), Size: inst.Size, Typ: value.Signed,
		Ord: toEventOrdering(inst.Ord), Sub: event.ReadFai, FaiOp: event.BinOp(inst.FaiOp),
	}
	old, rev, err := in.Sink.Load(loadReq)
	if err != nil {
		return err
	}
	f.Locals[inst.Dst] = old
	t.Deps.RecordRead(deps.SSAValue(inst.Dst), rev, event.NewSet())

	newVal := applyFai(event.BinOp(inst.FaiOp), old, operand)
	storeReq := StoreRequest{
		Tid: t.ID, Addr: a.AsAddr(), Size: inst.Size, Typ: value.Signed,
		Ord: toEventOrdering(inst.Ord), Sub: event.WriteFai, Val: newVal,
	}
	if _, err := in.Sink.Store(storeReq); err != nil {
		return err
	}
	f.PC++
	return nil
}

func applyFai(op event.BinOp, old, operand value.Value) value.Value {
	switch op {
	case event.OpAdd:
		return value.Int(old.AsInt() + operand.AsInt())
	case event.OpSub:
		return value.Int(old.AsInt() - operand.AsInt())
	case event.OpAnd:
		return value.Int(old.AsInt() & operand.AsInt())
	case event.OpOr:
		return value.Int(old.AsInt() | operand.AsInt())
	case event.OpXor:
		return value.Int(old.AsInt() ^ operand.AsInt())
	case event.OpExchange:
		return operand
	default:
		return operand
	}
}

func (in *Interpreter) execCmpXchg(t *Thread, inst ir.Instruction) error {
	f := t.Top()
	a := in.eval(f, inst.Args[0])
	exp := in.eval(f, inst.Args[1])
	swap := in.eval(f, inst.Args[2])

	loadReq := LoadRequest{
		Tid: t.ID, Addr: a.AsAddr(), Size: inst.Size, Typ: value.Signed,
		Ord: toEventOrdering(inst.Ord), Sub: event.ReadCas, Exp: exp, SwapIn: swap,
	}
	cur, rev, err := in.Sink.Load(loadReq)
	if err != nil {
		return err
	}
	f.Locals[inst.Dst] = cur
	t.Deps.RecordRead(deps.SSAValue(inst.Dst), rev, event.NewSet())
	t.Deps.RecordCas(rev)

	if !value.Equal(cur, exp) {
		f.PC++
		return nil // CAS failed: no write half, matches spec I3's bijective pairing
	}
	storeReq := StoreRequest{
		Tid: t.ID, Addr: a.AsAddr(), Size: inst.Size, Typ: value.Signed,
		Ord: toEventOrdering(inst.Ord), Sub: event.WriteCas, Val: swap,
	}
	if _, err := in.Sink.Store(storeReq); err != nil {
		return err
	}
	f.PC++
	return nil
}
