package ir

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// json is configured once at package init, matching how ghjramos-aistore
// wires json-iterator as a drop-in encoding/json replacement across its
// codebase rather than re-deriving a config at every call site.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SourceLoc names the textual location an instruction/function lowered
// from, used to annotate counterexample traces (spec §6 "the label stream
// of the offending execution with source locations (via ModuleInfo)").
type SourceLoc struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// AnnotExpr is a serialized boolean predicate over a loaded value, attached
// to some loads/assumes (spec §3 Read.annot, §6 "each load/assume to an
// optional boolean predicate expression"). The grammar is intentionally
// tiny: an integer comparison against a constant, which is all the
// reference front-end's `--assume`-lowering needs.
type AnnotExpr struct {
	Op  string `json:"op"` // "eq" | "ne" | "lt" | "le" | "gt" | "ge"
	RHS int64  `json:"rhs"`
}

// Eval applies the predicate to a loaded integer value.
func (e AnnotExpr) Eval(v int64) bool {
	switch e.Op {
	case "eq":
		return v == e.RHS
	case "ne":
		return v != e.RHS
	case "lt":
		return v < e.RHS
	case "le":
		return v <= e.RHS
	case "gt":
		return v > e.RHS
	case "ge":
		return v >= e.RHS
	default:
		return true
	}
}

// ModuleInfo is the side table that accompanies an IR module (spec §6
// "Input"): a stable id per instruction and function, mapped to source
// locations and (for loads) an optional annotation expression.
type ModuleInfo struct {
	Instructions map[uint64]SourceLoc  `json:"instructions"`
	Functions    map[string]SourceLoc  `json:"functions"`
	Annotations  map[uint64]AnnotExpr  `json:"annotations"`
	Variables    map[uint64]string     `json:"variables"` // address-producing inst id -> source variable name
}

// DecodeModuleInfo parses the JSON side table produced by the (out-of-scope)
// front-end.
func DecodeModuleInfo(r io.Reader) (*ModuleInfo, error) {
	var mi ModuleInfo
	dec := json.NewDecoder(r)
	if err := dec.Decode(&mi); err != nil {
		return nil, errors.Wrap(err, "ir: decode module info")
	}
	if mi.Instructions == nil {
		mi.Instructions = map[uint64]SourceLoc{}
	}
	if mi.Functions == nil {
		mi.Functions = map[string]SourceLoc{}
	}
	if mi.Annotations == nil {
		mi.Annotations = map[uint64]AnnotExpr{}
	}
	if mi.Variables == nil {
		mi.Variables = map[uint64]string{}
	}
	return &mi, nil
}

// LocOf returns the source location of instruction id, and whether one is
// known.
func (mi *ModuleInfo) LocOf(id uint64) (SourceLoc, bool) {
	loc, ok := mi.Instructions[id]
	return loc, ok
}
