// Package ir defines the minimal intermediate-representation contract the
// core consumes (spec §1 "external collaborators… the core consumes an IR
// module and a model description"). The front-end that lowers source to
// this IR, and the transformation passes that run over it, are explicitly
// out of scope; this package only has to be rich enough for the Interpreter
// (internal/gmc/interp) to execute it.
package ir

// Opcode enumerates the instruction shapes the interpreter understands
// (spec §4.E "Instruction handling").
type Opcode uint8

const (
	OpArith Opcode = iota // add/sub/and/or/xor/icmp/etc, result in Dst
	OpCast
	OpGEP
	OpSelect
	OpPhi
	OpBranch
	OpSwitch
	OpExtractValue
	OpInsertValue
	OpLoad
	OpStore
	OpAtomicRMW
	OpCmpXchg
	OpFence
	OpCall
	OpUnreachable
	OpRet
)

// Ordering mirrors event.Ordering without importing the event package, so
// ir stays a leaf package the interpreter (and only the interpreter)
// translates into event.Ordering.
type Ordering uint8

const (
	NonAtomic Ordering = iota
	Relaxed
	Acquire
	Release
	AcqRel
	SeqCst
)

// Operand is either an SSA register reference or an immediate constant.
type Operand struct {
	IsReg bool   `json:"is_reg"`
	Reg   uint32 `json:"reg"`
	Imm   int64  `json:"imm"`
}

// Reg builds a register operand.
func Reg(id uint32) Operand { return Operand{IsReg: true, Reg: id} }

// Imm builds an immediate operand.
func Imm(v int64) Operand { return Operand{Imm: v} }

// Instruction is one IR instruction within a BasicBlock.
type Instruction struct {
	ID     uint64    `json:"id"` // stable id, keyed into ModuleInfo
	Op     Opcode    `json:"op"`
	Dst    uint32    `json:"dst"` // destination SSA register, when the op produces a value
	Args   []Operand `json:"args"`
	Target string    `json:"target"` // call target function name / branch target block label
	Aux    []string  `json:"aux"`    // auxiliary string operands (e.g. spawned-function name for thread_create, lib fn name)
	Ord    Ordering  `json:"ord"`
	Size   uint64    `json:"size"`   // access width in bytes, for Load/Store/AtomicRMW/CmpXchg
	FaiOp  uint8     `json:"fai_op"` // BinOp for AtomicRMW (mirrors event.BinOp's encoding)

	// Branch/Switch successors, indexed by the (operand-derived) case taken.
	Succs []string `json:"succs"`
}

// BasicBlock is a straight-line sequence of instructions ending in a
// terminator (branch/switch/ret/unreachable).
type BasicBlock struct {
	Label string        `json:"label"`
	Insts []Instruction `json:"insts"`
}

// Function is a sequence of basic blocks plus its entry block label.
type Function struct {
	Name    string                 `json:"name"`
	Entry   string                 `json:"entry"`
	Blocks  map[string]*BasicBlock `json:"blocks"`
	NumArgs int                    `json:"num_args"`
}

// Module is the compiled program: a set of functions plus the name of the
// thread-0 entry function (conventionally "main").
type Module struct {
	Functions map[string]*Function `json:"functions"`
	Entry     string                `json:"entry"`
}
