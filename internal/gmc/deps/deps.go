// Package deps implements the per-thread Dependency Tracker (spec §4.D):
// data/address/control/addr-po/CAS dependency sets, snapshotted into every
// new label as it is created.
package deps

import "github.com/kolkov/gmc/internal/gmc/event"

// SSAValue is an opaque key identifying a value produced by the interpreter
// (an IR register), used to key the data-dependency map.
type SSAValue uint32

// Tracker holds the dependency state of a single thread (spec §4.D).
type Tracker struct {
	dataDeps map[SSAValue]event.Set
	addrDeps map[SSAValue]event.Set

	ctrlDeps   event.Set
	addrPoDeps event.Set
	casDeps    event.Set
}

// New returns a freshly initialized, empty dependency tracker for a thread.
func New() *Tracker {
	return &Tracker{
		dataDeps:   make(map[SSAValue]event.Set),
		addrDeps:   make(map[SSAValue]event.Set),
		ctrlDeps:   event.NewSet(),
		addrPoDeps: event.NewSet(),
		casDeps:    event.NewSet(),
	}
}

// Clone deep-copies the tracker for branching into an independent worker
// state (spec §5).
func (t *Tracker) Clone() *Tracker {
	c := New()
	for k, v := range t.dataDeps {
		c.dataDeps[k] = v.Clone()
	}
	for k, v := range t.addrDeps {
		c.addrDeps[k] = v.Clone()
	}
	c.ctrlDeps = t.ctrlDeps.Clone()
	c.addrPoDeps = t.addrPoDeps.Clone()
	c.casDeps = t.casDeps.Clone()
	return c
}

// RecordRead propagates the dependency set of the value read (the rf write's
// recorded data-dep set) into the destination SSA value's data-deps (spec
// §4.D: "When a memory event reads value V, V's dep-set is propagated into
// data_deps of the destination SSA value").
func (t *Tracker) RecordRead(dst SSAValue, readEvent event.Event, upstream event.Set) {
	s := event.NewSet(readEvent)
	s.Union(upstream)
	t.dataDeps[dst] = s
}

// RecordPure propagates the union of its operands' data-deps into dst, for a
// pure arithmetic/cast/gep/select/phi instruction.
func (t *Tracker) RecordPure(dst SSAValue, operands ...SSAValue) {
	s := event.NewSet()
	for _, op := range operands {
		s.Union(t.DataDepsOf(op))
	}
	t.dataDeps[dst] = s
}

// DataDepsOf returns the data-dependency set of SSA value v (empty if v has
// no recorded dependencies, e.g. a constant).
func (t *Tracker) DataDepsOf(v SSAValue) event.Set {
	if s, ok := t.dataDeps[v]; ok {
		return s
	}
	return event.NewSet()
}

// RecordAddrDep records that computing address-producing SSA value dst
// depended on the given base pointer SSA value (propagated like data-deps,
// kept in a separate map since address and data dependencies feed distinct
// checker relations).
func (t *Tracker) RecordAddrDep(dst SSAValue, base SSAValue) {
	s := event.NewSet()
	s.Union(t.DataDepsOf(base))
	s.Union(t.AddrDepsOf(base))
	t.addrDeps[dst] = s
}

// AddrDepsOf returns the address-dependency set of SSA value v.
func (t *Tracker) AddrDepsOf(v SSAValue) event.Set {
	if s, ok := t.addrDeps[v]; ok {
		return s
	}
	return event.NewSet()
}

// OnBranch folds the branch condition's data-deps into ctrl_deps for the
// remainder of the thread's execution in this control-flow region (spec
// §4.D: "When a branch is taken on V, V's data-deps are added to ctrl_deps").
func (t *Tracker) OnBranch(cond SSAValue) {
	t.ctrlDeps.Union(t.DataDepsOf(cond))
}

// ResetControlRegion clears ctrl_deps at a block change that breaks control
// dependency (e.g. joining back to a post-dominator), per spec §4.D:
// "ctrl_deps: Set<Event> (monotonic within a control-flow region; cleared at
// block changes that break control)".
func (t *Tracker) ResetControlRegion() {
	t.ctrlDeps = event.NewSet()
}

// RecordAddrPo marks that the current event is address-program-order
// dependent on the given prior events (same-thread address producers).
func (t *Tracker) RecordAddrPo(evs ...event.Event) {
	for _, e := range evs {
		t.addrPoDeps.Add(e)
	}
}

// RecordCas marks the current event as depending on the outcome of a prior
// CAS in this thread.
func (t *Tracker) RecordCas(e event.Event) { t.casDeps.Add(e) }

// Snapshot returns a fresh Set holding the data dependencies recorded for
// dataDep together with the address dependencies recorded for addrDep, so
// later mutation of the tracker does not retroactively change it.
func (t *Tracker) Snapshot(dataDep, addrDep SSAValue) event.Set {
	// dataDep/addrDep are consulted by callers that need the resulting
	// data/addr dep sets for the label itself (e.g. a read's own dep-set is
	// the union of its address computation's deps); kept as a helper rather
	// than duplicating union logic at each call site.
	s := event.NewSet()
	s.Union(t.DataDepsOf(dataDep))
	s.Union(t.AddrDepsOf(addrDep))
	return s
}

// LabelDeps packages the five label-level dependency sets (spec §3 Label
// payload is silent on exact field names; §4.D names data/addr/ctrl/addr-po/
// cas as the five tracked sets, of which ctrl/addr-po/cas are snapshotted
// whole and data/addr are resolved per-operand by the interpreter before
// calling this).
func (t *Tracker) LabelDeps(data, addr event.Set) event.Deps {
	return event.Deps{
		Data:   data.Clone(),
		Addr:   addr.Clone(),
		Ctrl:   t.ctrlDeps.Clone(),
		AddrPo: t.addrPoDeps.Clone(),
		Cas:    t.casDeps.Clone(),
	}
}
