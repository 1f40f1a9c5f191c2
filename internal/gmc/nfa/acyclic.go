package nfa

import "github.com/kolkov/gmc/internal/gmc/event"

// AcyclicChecker runs the acyclicity DFS of spec §4.F: "A back-edge to an
// entered state whose counter is strictly less than the current
// visitedAccepting counter proves a cycle through an accepting state."
//
// Visit state is kept in maps keyed by event, allocated empty by
// NewAcyclicChecker; an AcyclicChecker is cheap to reconstruct per checker
// invocation.
type AcyclicChecker struct {
	status   map[event.Event]Status
	enterAcc map[event.Event]int // visitedAccepting counter value at entry
	acc      int
}

// NewAcyclicChecker allocates a fresh visitor state.
func NewAcyclicChecker() *AcyclicChecker {
	return &AcyclicChecker{status: make(map[event.Event]Status), enterAcc: make(map[event.Event]int)}
}

// CheckAcyclic reports whether the relation formed by the union of edges is
// acyclic over events, where accepting marks the events whose membership in
// a cycle actually witnesses inconsistency (e.g. a non-atomic access on an
// otherwise-benign cycle through sc-only edges does not, depending on the
// model).
func (c *AcyclicChecker) CheckAcyclic(events []event.Event, edges Edges, accepting Predicate, lbl Label) bool {
	for _, e := range events {
		if c.status[e] == Unseen {
			if !c.visit(e, edges, accepting, lbl) {
				return false
			}
		}
	}
	return true
}

func (c *AcyclicChecker) visit(e event.Event, edges Edges, accepting Predicate, lbl Label) bool {
	isAccepting := accepting != nil && accepting(lbl(e))
	if isAccepting {
		c.acc++
	}
	c.status[e] = Entered
	c.enterAcc[e] = c.acc

	for _, pred := range edges(e) {
		switch c.status[pred] {
		case Unseen:
			if !c.visit(pred, edges, accepting, lbl) {
				return false
			}
		case Entered:
			// Back-edge: a cycle through pred..e exists. It witnesses
			// inconsistency iff the cycle passes through an accepting
			// state, i.e. the accepting counter strictly increased since
			// pred was entered.
			if c.acc > c.enterAcc[pred] {
				return false
			}
		case Left:
			// Forward/cross edge into an already-fully-explored subgraph:
			// no new cycle.
		}
	}

	c.status[e] = Left
	if isAccepting {
		c.acc--
	}
	return true
}
