package explore

import (
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
)

// ItemKind discriminates the Worklist item sum type (spec §4.H "Worklist
// item"). LibForward/LibBackward/LibMoPlacement share their non-Lib
// counterpart's fields and handling: the driver's library-observation
// support is limited to the biFileStub family (internal/gmc/interp), which
// never produces a genuine alternate observation, so these three kinds are
// accepted on the wire but processed identically to ForwardRevisit/
// BackwardRevisit/MoPlacement.
type ItemKind uint8

const (
	ForwardRevisit ItemKind = iota
	BackwardRevisit
	MoPlacement
	LibForward
	LibBackward
	LibMoPlacement
)

// WorkItem is one entry in the Worklist (spec §4.H).
type WorkItem struct {
	Kind ItemKind

	// ForwardRevisit / LibForward.
	Read  event.Event
	NewRf event.Event

	// BackwardRevisit / LibBackward.
	RevStore    event.Event
	SavedPrefix []event.Label
	SavedMo     []graph.MoPair

	// MoPlacement / LibMoPlacement.
	Store event.Event
	Pos   int

	// stamp is the key the worklist buckets on: the stamp of Read (forward/
	// backward variants) or Store (placement variants).
	stamp uint32
}

// Stamp returns the item's worklist bucket key.
func (w WorkItem) Stamp() uint32 { return w.stamp }

// newForwardRevisit builds the alternative-rf branch pushed for every
// coherent write candidate a load did not choose (spec §4.H "On a load…
// pushes a ForwardRevisit for every other candidate").
func newForwardRevisit(read, newRf event.Event, stamp uint32) WorkItem {
	return WorkItem{Kind: ForwardRevisit, Read: read, NewRf: newRf, stamp: stamp}
}

// newBackwardRevisit builds the saved-prefix branch calc_revisits pushes for
// each coherent revisit candidate (spec §4.H "calc_revisits(store)").
func newBackwardRevisit(read, store event.Event, prefix []event.Label, mo []graph.MoPair, stamp uint32) WorkItem {
	return WorkItem{Kind: BackwardRevisit, Read: read, RevStore: store, SavedPrefix: prefix, SavedMo: mo, stamp: stamp}
}

// newMoPlacement builds the alternative modification-order branch pushed
// for each non-selected coherent placing of a store (spec §4.H "On a
// store").
func newMoPlacement(store event.Event, pos int, stamp uint32) WorkItem {
	return WorkItem{Kind: MoPlacement, Store: store, Pos: pos, stamp: stamp}
}
