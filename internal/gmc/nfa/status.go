// Package nfa implements the shared acyclicity/calculation DFS
// framework the per-model consistency checkers are built from (spec §4.F):
// "Each model compiles to a set of nondeterministic finite automata (NFAs)
// whose acceptance over the event graph encodes acyclicity, inclusion, and
// view-computation predicates… compiled to a set of mutually recursive visit
// procedures that perform a DFS over event predecessors selected by the
// NFA's transitions."
//
// Go has no macro/codegen facility equivalent to the reference generator, so
// this package gives each model one reusable, parameterized DFS engine
// instead of one generated visit_N function per NFA state; a model supplies
// its edge relations and acceptance predicate and gets the acyclicity
// (AcyclicChecker), view (ViewCalculator) and set (SetCalculator)
// algorithms. This package has no inclusion-checking engine.
package nfa

import "github.com/kolkov/gmc/internal/gmc/event"

// Status mirrors the three-valued DFS coloring spec §4.F requires:
// "(accepting_counter, status ∈ {unseen, entered, left})".
type Status uint8

const (
	Unseen Status = iota
	Entered
	Left
)

// Edges returns the predecessor events of e for one primitive relation
// (po-imm, rf, rfe, rfi, co-imm, fr-imm, tc, tj, ctrl, data, addr,
// poloc-imm, detour — spec §4.F).
type Edges func(e event.Event) []event.Event

// Predicate is a per-event boolean test (isRead, isWrite, isAtLeastAcquire,
// isSC, isRMWLoad, isRMWStore, isFence, ... — spec §4.F).
type Predicate func(l event.Label) bool

// Label resolves an Event to its Label, the lookup every visitor needs to
// evaluate Predicates.
type Label func(e event.Event) event.Label
