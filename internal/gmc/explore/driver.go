// Package explore implements the Exploration Driver (spec §4.H): it drives
// the cooperative interpreter one step at a time, consults the coherence
// oracle and consistency checker on every memory/synchronization event, and
// branches the search over alternative reads-from and modification-order
// choices via a stamp-ordered worklist.
package explore

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"

	"github.com/kolkov/gmc/internal/gmc/addr"
	"github.com/kolkov/gmc/internal/gmc/checker"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/graph"
	"github.com/kolkov/gmc/internal/gmc/interp"
	"github.com/kolkov/gmc/internal/gmc/ir"
	"github.com/kolkov/gmc/internal/gmc/value"
)

// Options configures one Driver run; the reference CLI (cmd/gmc) binds
// spec §6's flag surface directly onto these fields.
type Options struct {
	Model                checker.Model
	Policy               Policy
	Seed                 int64
	CheckLiveness        bool
	DisableRaceDetection bool
	LAPOR                bool
	SymmetryReduction    bool
}

// ForkFunc branches a BackwardRevisit's recursive exploration onto a cloned
// Driver (spec §4.H "either fork a worker… or call explore() reentrantly on
// a cloned state"). The implementation is responsible for running (or
// scheduling) clone.Run and folding clone.Result() back into the parent;
// parallel.go supplies the pooled implementation, nil means "worklist-only,
// no eager branch" (the sequential default — see Driver.branch).
type ForkFunc func(clone *Driver)

// Driver owns one exploration's mutable state (spec §4.H "Maintains: the
// graph, worklist, revisit set, thread priorities, a seeded PRNG, the
// interpreter, moot flag, result counters").
type Driver struct {
	opts Options

	g   *graph.Graph
	chk checker.Checker

	alloc *addr.Allocator
	locks map[addr.Addr]uint32

	mod  *ir.Module
	info *ir.ModuleInfo
	in   *interp.Interpreter

	worklist *Worklist
	revisits *RevisitSet

	// nextIdx is, per thread, the next graph event index a Sink call will
	// produce. While nextIdx[t] < graph.ThreadLen(t), the driver is
	// replaying an already-recorded label instead of making a fresh choice
	// (spec §4.E "Replay mode").
	nextIdx []uint32

	priorities []uint32 // LAPOR thread priority, highest first; empty = policy decides
	rng        *rand.Rand

	moot   bool
	result *Result

	fork ForkFunc
}

// New constructs a Driver ready to check mod under opts.Model.
func New(mod *ir.Module, info *ir.ModuleInfo, opts Options) (*Driver, error) {
	if opts.Policy == "" {
		opts.Policy = PolicyLTR
	}
	g := graph.New()
	chk, err := checker.New(opts.Model, g)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		opts:     opts,
		g:        g,
		chk:      chk,
		alloc:    addr.NewAllocator(),
		locks:    make(map[addr.Addr]uint32),
		mod:      mod,
		info:     info,
		worklist: NewWorklist(),
		revisits: NewRevisitSet(),
		rng:      newRand(opts.Seed),
		result:   NewResult(),
	}
	in, err := interp.New(mod, info, d)
	if err != nil {
		return nil, err
	}
	d.in = in
	return d, nil
}

// Result returns the accumulated exploration counters.
func (d *Driver) Result() *Result { return d.result }

// refreshChecker rebuilds the Checker over the (mutated-in-place) graph.
// Every per-model base caches hb views keyed by event, with no invalidation
// hook; rebuilding on a fresh graph mutation is cheap (the checker does no
// eager computation) and sidesteps ever reading a stale cached view.
func (d *Driver) refreshChecker() {
	chk, err := checker.New(d.opts.Model, d.g)
	if err != nil {
		// opts.Model was validated once in New; a later failure here would
		// be a programming error in the Driver, not a runtime condition.
		panic(err)
	}
	d.chk = chk
}

func (d *Driver) attachViews(e event.Event) {
	l := d.g.Label(e)
	if l == nil {
		return
	}
	l.SetViews(d.chk.CalculateViews(e))
	l.SetCalculated(d.chk.CalculateSaved(e))
}

func (d *Driver) valueAt(e event.Event) value.Value {
	if e.IsInitializer() || e.IsBottom() {
		return value.Int(0)
	}
	if w, ok := d.g.Label(e).(*event.WriteLabel); ok {
		return w.Val
	}
	return value.Int(0)
}

// Run drives the exploration to completion from the Driver's current graph
// state (spec §4.H main loop).
func (d *Driver) Run() error {
	for {
		if err := d.runToQuiescence(); err != nil {
			return err
		}
		d.recordTerminal()
		if d.moot {
			return nil
		}
		if !d.popAndRevisit() {
			return nil
		}
	}
}

// popAndRevisit pops items until one revisits onto a consistent graph, or
// the worklist is exhausted (spec §4.H "Pop and revisit").
func (d *Driver) popAndRevisit() bool {
	for {
		item, ok := d.worklist.Pop()
		if !ok {
			return false
		}
		if d.revisit(item) && d.chk.IsConsistent(event.INIT) {
			return true
		}
	}
}

// runToQuiescence resets the interpreter and steps threads by policy until
// none is schedulable, replaying any prefix the graph already records (spec
// §4.H "reset interpreter; run main until it yields").
func (d *Driver) runToQuiescence() error {
	in, err := interp.New(d.mod, d.info, d)
	if err != nil {
		return err
	}
	d.in = in
	d.syncNextIdx()
	for d.in.AnySchedulable() {
		tid, ok := d.pickThread()
		if !ok {
			break
		}
		if err := d.in.Step(tid); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) syncNextIdx() {
	n := d.g.NumThreads()
	if n < 1 {
		n = 1
	}
	d.nextIdx = make([]uint32, n)
	for t := range d.nextIdx {
		d.nextIdx[t] = uint32(d.g.ThreadLen(uint32(t)))
	}
}

func (d *Driver) growNextIdx(tid uint32) {
	for uint32(len(d.nextIdx)) <= tid {
		d.nextIdx = append(d.nextIdx, 0)
	}
}

// nextPos returns the event a Sink call for tid would produce next, and
// whether that position already holds a label from a prior run (replay).
func (d *Driver) nextPos(tid uint32) (event.Event, bool) {
	d.growNextIdx(tid)
	idx := d.nextIdx[tid]
	return event.Event{Thread: tid, Index: idx}, idx < uint32(d.g.ThreadLen(tid))
}

func (d *Driver) recordTerminal() {
	errs := d.collectErrors()
	if len(errs) > 0 {
		d.result.AddErrors(errs)
		return
	}
	if d.anyThreadBlocked() {
		d.result.IncExploredBlocked()
		return
	}
	d.result.IncExplored()
}

func (d *Driver) anyThreadBlocked() bool {
	for _, t := range d.in.Threads {
		if !t.Finished && t.Blocked != interp.NotBlocked {
			return true
		}
	}
	return false
}

func (d *Driver) collectErrors() []interp.ErrorKind {
	d.refreshChecker()
	var out []interp.ErrorKind
	for t := 0; t < d.g.NumThreads(); t++ {
		for i := 0; i < d.g.ThreadLen(uint32(t)); i++ {
			e := event.Event{Thread: uint32(t), Index: uint32(i)}
			if d.g.Label(e) == nil {
				continue
			}
			for _, k := range d.chk.CheckErrors(e) {
				if d.opts.DisableRaceDetection && (k == interp.ErrRaceNotAtomic || k == interp.ErrRaceFreeMalloc) {
					continue
				}
				out = append(out, k)
			}
		}
	}
	return out
}

// Load implements interp.EventSink (spec §4.H "On a load").
func (d *Driver) Load(req interp.LoadRequest) (value.Value, event.Event, error) {
	pos, replay := d.nextPos(req.Tid)
	if replay {
		d.nextIdx[req.Tid]++
		rl, ok := d.g.Label(pos).(*event.ReadLabel)
		if !ok {
			return value.Value{}, event.Event{}, errors.Errorf("explore: replay mismatch at %s: expected Read", pos)
		}
		return d.valueAt(rl.Rf), pos, nil
	}

	depSnap := d.threadDeps(req.Tid)
	rl := event.NewRead(pos, req.Ord, req.Addr, req.Size, req.Typ, depSnap)
	rl.Sub = req.Sub
	rl.FaiOp = req.FaiOp
	rl.Exp, rl.Swap = req.Exp, req.SwapIn
	if req.Annot != nil {
		annot := *req.Annot
		rl.Annot = func(v value.Value) bool { return annot.Eval(v.AsInt()) }
	}
	added, err := d.g.AddLabel(rl)
	if err != nil {
		return value.Value{}, event.Event{}, err
	}
	l := added.(*event.ReadLabel)

	d.refreshChecker()
	candidates := d.chk.GetCoherentStores(uint64(req.Addr), pos)
	if l.Annot != nil {
		kept := candidates[:0]
		for _, w := range candidates {
			if l.Annot(d.valueAt(w)) {
				kept = append(kept, w)
			}
		}
		candidates = kept
	}
	for len(candidates) > 0 {
		d.g.ChangeRf(l, candidates[len(candidates)-1])
		d.refreshChecker()
		if d.chk.IsConsistent(event.INIT) {
			break
		}
		candidates = candidates[:len(candidates)-1]
	}
	if len(candidates) == 0 {
		return value.Value{}, event.Event{}, errors.Errorf("explore: no consistent coherent write for load at %s", pos)
	}
	for _, alt := range candidates[:len(candidates)-1] {
		d.worklist.Push(newForwardRevisit(l.Pos(), alt, l.Stamp()))
	}
	l.SetAddedMax(true)
	d.attachViews(pos)
	d.nextIdx[req.Tid]++
	return d.valueAt(l.Rf), pos, nil
}

// Store implements interp.EventSink (spec §4.H "On a store").
func (d *Driver) Store(req interp.StoreRequest) (event.Event, error) {
	pos, replay := d.nextPos(req.Tid)
	if replay {
		d.nextIdx[req.Tid]++
		return pos, nil
	}

	depSnap := d.threadDeps(req.Tid)
	wl := event.NewWrite(pos, req.Ord, req.Addr, req.Size, req.Typ, req.Val, depSnap)
	wl.Sub = req.Sub
	preList := append([]event.Event(nil), d.g.Coherence(uint64(req.Addr))...)
	added, err := d.g.AddLabel(wl)
	if err != nil {
		return event.Event{}, err
	}
	w := added.(*event.WriteLabel)

	d.refreshChecker()
	isRMW := event.IsRMWStore(w)
	lo, hi := d.chk.GetCoherentPlacings(uint64(req.Addr), pos, isRMW)
	d.g.AddStoreAt(w, hi)
	w.SetAddedMax(hi == len(preList))

	if !isRMW {
		for p := lo; p < hi; p++ {
			if d.adjacentToRMW(preList, p) {
				continue
			}
			d.worklist.Push(newMoPlacement(w.Pos(), p, w.Stamp()))
		}
	}
	d.attachViews(pos)
	d.nextIdx[req.Tid]++
	d.calcRevisits(w.Pos())
	return pos, nil
}

func (d *Driver) adjacentToRMW(preList []event.Event, pos int) bool {
	if pos > 0 {
		if wl, ok := d.g.Label(preList[pos-1]).(*event.WriteLabel); ok && event.IsRMWStore(wl) {
			return true
		}
	}
	if pos < len(preList) {
		if wl, ok := d.g.Label(preList[pos]).(*event.WriteLabel); ok && event.IsRMWStore(wl) {
			return true
		}
	}
	return false
}

// calcRevisits implements spec §4.H "calc_revisits(store)".
func (d *Driver) calcRevisits(store event.Event) {
	d.refreshChecker()
	pporf := d.chk.GetPpoRfBefore(store)
	candidates := d.chk.GetCoherentRevisits(store, pporf)
	sort.Slice(candidates, func(i, j int) bool {
		return d.g.Label(candidates[i]).Stamp() < d.g.Label(candidates[j]).Stamp()
	})

	wl, _ := d.g.Label(store).(*event.WriteLabel)
	for _, r := range candidates {
		rl, ok := d.g.Label(r).(*event.ReadLabel)
		if !ok {
			continue
		}
		if d.isDanglingLockRead(rl) && !d.revisitModifiesGraph(rl) {
			d.g.ChangeRf(rl, store)
			rl.SetAddedMax(wl != nil && wl.AddedMax())
			rl.SetRevisitedInPlace(true)
			d.prioritizeThread(r.Thread)
			continue
		}
		prefix := d.g.GetPrefixLabelsNotBefore(store, r)
		mo := d.g.SaveCoherenceStatus(prefix, r)
		item := newBackwardRevisit(r, store, prefix, mo, rl.Stamp())
		if d.revisits.Contains(revisitKeyFor(item)) {
			d.result.IncDuplicate()
			continue
		}
		d.revisits.Add(revisitKeyFor(item))
		// In pool mode the fork runs this branch to completion on an
		// independent clone; leaving it on the shared worklist too would
		// explore it a second time. In sequential mode there is no fork, so
		// the shared worklist is the only path that ever revisits it.
		if d.fork != nil {
			d.branch(item)
		} else {
			d.worklist.Push(item)
		}
	}
}

// isDanglingLockRead reports whether rl is a lock-acquiring CAS currently
// reading nothing (spec §4.H "r is a dangling lock read").
func (d *Driver) isDanglingLockRead(rl *event.ReadLabel) bool {
	return rl.Sub == event.ReadLockCas && rl.Rf.IsBottom()
}

// revisitModifiesGraph approximates spec's revisitModifiesGraph predicate:
// an in-place revisit only preserves graph structure when the read has no
// successor event recorded yet (the common case calc_revisits targets: a
// lock CAS spinning with nothing built on top of it).
func (d *Driver) revisitModifiesGraph(rl *event.ReadLabel) bool {
	return uint32(d.g.ThreadLen(rl.Pos().Thread)) != rl.Pos().Index+1
}

// branch eagerly explores a BackwardRevisit by cloning the driver state, per
// spec §4.H "Recursively explore by branching… then restore local state". In
// sequential mode (fork == nil) the branch is left to the ordinary worklist
// pop loop instead of an immediate recursive call: Worklist.Pop always
// returns the highest-stamp item first, so the very next Run iteration after
// the current one quiesces picks up this BackwardRevisit ahead of any
// earlier-discovered one, closely tracking the depth-first order explicit
// recursion would give without risking re-exploring the same branch twice.
func (d *Driver) branch(item WorkItem) {
	if d.fork == nil {
		return
	}
	clone := d.Clone()
	if !clone.revisit(item) || !clone.chk.IsConsistent(event.INIT) {
		return
	}
	d.fork(clone)
}

// revisit mutates the graph to reflect item and reports whether the mutation
// succeeded structurally (the caller still checks consistency separately);
// (spec §4.H "Pop and revisit").
func (d *Driver) revisit(item WorkItem) bool {
	d.worklist.RestrictTo(item.stamp)
	d.revisits.RestrictTo(item.stamp)
	d.g.CutToStamp(item.stamp)
	d.syncNextIdx()

	switch item.Kind {
	case MoPlacement, LibMoPlacement:
		w, ok := d.g.Label(item.Store).(*event.WriteLabel)
		if !ok {
			return false
		}
		d.g.ChangeStoreOffset(w, item.Pos)
		d.refreshChecker()
		d.calcRevisits(item.Store)
		return true
	case ForwardRevisit, LibForward:
		return d.applyForward(item.Read, item.NewRf)
	case BackwardRevisit, LibBackward:
		d.g.RestoreStorePrefix(item.SavedPrefix, item.SavedMo)
		d.syncNextIdx()
		return d.applyForward(item.Read, item.RevStore)
	default:
		return false
	}
}

func (d *Driver) applyForward(read, newRf event.Event) bool {
	rl, ok := d.g.Label(read).(*event.ReadLabel)
	if !ok {
		return false
	}
	d.g.ChangeRf(rl, newRf)
	d.refreshChecker()
	if event.IsRMWLoad(rl) && d.rmwSatisfied(rl, newRf) {
		if w, ok := d.pairedRMWWrite(rl); ok {
			d.calcRevisits(w)
		}
	}
	return true
}

// rmwSatisfied reports whether newRf's value lets rl's paired RMW complete:
// Cas-family RMWs only complete against their expected value, Fai-family
// always complete.
func (d *Driver) rmwSatisfied(rl *event.ReadLabel, newRf event.Event) bool {
	switch rl.Sub {
	case event.ReadCas, event.ReadLockCas:
		return value.Equal(d.valueAt(newRf), rl.Exp)
	default:
		return true
	}
}

// pairedRMWWrite returns the write half of rl's read-modify-write pair: the
// interpreter always emits it as rl's immediate po-successor (spec I3).
// Retroactively recomputing that write's value from the newly chosen rf
// (rather than just re-running calc_revisits over its unchanged value) is
// left as a known simplification; see DESIGN.md.
func (d *Driver) pairedRMWWrite(rl *event.ReadLabel) (event.Event, bool) {
	nxt := rl.Pos().Next()
	if w, ok := d.g.Label(nxt).(*event.WriteLabel); ok && event.IsRMWStore(w) {
		return nxt, true
	}
	return event.Event{}, false
}

func (d *Driver) threadDeps(tid uint32) event.Deps {
	if int(tid) >= len(d.in.Threads) || d.in.Threads[tid] == nil {
		return event.Deps{}
	}
	return d.in.Threads[tid].Deps.LabelDeps(event.NewSet(), event.NewSet())
}

// Fence implements interp.EventSink.
func (d *Driver) Fence(tid uint32, ord event.Ordering) error {
	return d.emitMisc(tid, func(pos event.Event, deps event.Deps) event.Label {
		return event.NewFence(pos, ord, deps)
	})
}

// SpinStart implements interp.EventSink.
func (d *Driver) SpinStart(tid uint32) error {
	return d.emitMisc(tid, func(pos event.Event, deps event.Deps) event.Label {
		return event.NewSpinStart(pos, deps)
	})
}

// PotentialSpinEnd implements interp.EventSink.
func (d *Driver) PotentialSpinEnd(tid uint32) error {
	return d.emitMisc(tid, func(pos event.Event, deps event.Deps) event.Label {
		return event.NewPotentialSpinEnd(pos, deps)
	})
}

func (d *Driver) emitMisc(tid uint32, ctor func(event.Event, event.Deps) event.Label) error {
	pos, replay := d.nextPos(tid)
	if replay {
		d.nextIdx[tid]++
		return nil
	}
	added, err := d.g.AddLabel(ctor(pos, d.threadDeps(tid)))
	if err != nil {
		return err
	}
	d.attachViews(added.Pos())
	d.nextIdx[tid]++
	return nil
}

// ThreadCreate implements interp.EventSink.
func (d *Driver) ThreadCreate(tid uint32, childTid uint32) error {
	pos, replay := d.nextPos(tid)
	if replay {
		d.nextIdx[tid]++
	} else {
		added, err := d.g.AddLabel(event.NewThreadCreate(pos, childTid, d.threadDeps(tid)))
		if err != nil {
			return err
		}
		d.attachViews(added.Pos())
		d.nextIdx[tid]++
	}
	d.growNextIdx(childTid)
	return d.emitThreadStart(childTid, pos)
}

func (d *Driver) emitThreadStart(childTid uint32, parentCreate event.Event) error {
	pos, replay := d.nextPos(childTid)
	if replay {
		d.nextIdx[childTid]++
		return nil
	}
	added, err := d.g.AddLabel(event.NewThreadStart(pos, parentCreate, nil, event.Deps{}))
	if err != nil {
		return err
	}
	d.attachViews(added.Pos())
	d.nextIdx[childTid]++
	return nil
}

// ThreadJoin implements interp.EventSink.
func (d *Driver) ThreadJoin(tid uint32, childTid uint32) (bool, error) {
	if int(childTid) >= len(d.in.Threads) || !d.in.Threads[childTid].Finished {
		return false, nil
	}
	pos, replay := d.nextPos(tid)
	if replay {
		d.nextIdx[tid]++
		return true, nil
	}
	added, err := d.g.AddLabel(event.NewThreadJoin(pos, childTid, d.threadDeps(tid)))
	if err != nil {
		return false, err
	}
	d.attachViews(added.Pos())
	d.nextIdx[tid]++
	return true, nil
}

// ThreadFinish implements interp.EventSink; it also unblocks every thread
// waiting to join tid.
func (d *Driver) ThreadFinish(tid uint32) error {
	if err := d.emitMisc(tid, func(pos event.Event, deps event.Deps) event.Label {
		return event.NewThreadFinish(pos, deps)
	}); err != nil {
		return err
	}
	for _, t := range d.in.Threads {
		if t.Blocked == interp.BlockedJoin && t.WaitingOn.ChildTid == tid {
			t.Blocked = interp.NotBlocked
		}
	}
	return nil
}

// Malloc implements interp.EventSink.
func (d *Driver) Malloc(tid uint32, size uint64, name string) (addr.Addr, error) {
	pos, replay := d.nextPos(tid)
	if replay {
		d.nextIdx[tid]++
		if ml, ok := d.g.Label(pos).(*event.MemMgmtLabel); ok {
			return ml.Addr, nil
		}
		return 0, errors.Errorf("explore: replay mismatch at %s: expected Malloc", pos)
	}
	a := d.alloc.Alloc(addr.Heap, size, 8, false)
	added, err := d.g.AddLabel(event.NewMalloc(pos, a, size, name, "", d.threadDeps(tid)))
	if err != nil {
		return 0, err
	}
	d.attachViews(added.Pos())
	d.nextIdx[tid]++
	return a, nil
}

// Free implements interp.EventSink.
func (d *Driver) Free(tid uint32, a addr.Addr) error {
	return d.emitMisc(tid, func(pos event.Event, deps event.Deps) event.Label {
		return event.NewFree(pos, a, deps)
	})
}

// LockAcquire implements interp.EventSink (LAPOR bookkeeping, spec §4.H
// "LAPOR priorities, when non-empty, override policy").
func (d *Driver) LockAcquire(tid uint32, a addr.Addr) (bool, error) {
	if owner, held := d.locks[a]; held && owner != tid {
		return false, nil
	}
	pos, replay := d.nextPos(tid)
	if replay {
		d.nextIdx[tid]++
		d.locks[a] = tid
		return true, nil
	}
	added, err := d.g.AddLabel(event.NewLockLAPOR(pos, a, d.threadDeps(tid)))
	if err != nil {
		return false, err
	}
	d.attachViews(added.Pos())
	d.nextIdx[tid]++
	d.locks[a] = tid
	if d.opts.LAPOR {
		d.prioritizeThread(tid)
	}
	return true, nil
}

// LockRelease implements interp.EventSink; it also unblocks every thread
// waiting to acquire a.
func (d *Driver) LockRelease(tid uint32, a addr.Addr) error {
	for _, t := range d.in.Threads {
		if t.Blocked == interp.BlockedLock && t.WaitingOn.LockAddr == a {
			t.Blocked = interp.NotBlocked
		}
	}
	pos, replay := d.nextPos(tid)
	if replay {
		d.nextIdx[tid]++
		delete(d.locks, a)
		return nil
	}
	added, err := d.g.AddLabel(event.NewUnlockLAPOR(pos, a, d.threadDeps(tid)))
	if err != nil {
		return err
	}
	d.attachViews(added.Pos())
	d.nextIdx[tid]++
	delete(d.locks, a)
	d.deprioritizeThread(tid)
	return nil
}

// ReportError implements interp.EventSink (spec §7).
func (d *Driver) ReportError(tid uint32, kind interp.ErrorKind, detail string) error {
	if kind == interp.ErrRaceNotAtomic && d.opts.DisableRaceDetection {
		return nil
	}
	d.result.AddErrors([]interp.ErrorKind{kind})
	if kind == interp.ErrLiveness && !d.opts.CheckLiveness {
		return nil
	}
	if int(tid) < len(d.in.Threads) {
		d.in.Threads[tid].Blocked = interp.BlockedError
	}
	return nil
}

// Clone deep-copies the Driver for a worker fork (spec §5 "each worker owns
// a fully independent clone"): graph, allocator, worklist, and revisit set
// all get independent copies; the checker is rebuilt over the cloned graph
// before Clone returns.
func (d *Driver) Clone() *Driver {
	c := &Driver{
		opts:       d.opts,
		g:          d.g.Clone(),
		alloc:      d.alloc.Clone(),
		locks:      make(map[addr.Addr]uint32, len(d.locks)),
		mod:        d.mod,
		info:       d.info,
		worklist:   d.worklist.Clone(),
		revisits:   d.revisits.Clone(),
		priorities: append([]uint32(nil), d.priorities...),
		rng:        newRand(d.rng.Int63()),
		result:     NewResult(),
		fork:       d.fork,
	}
	for k, v := range d.locks {
		c.locks[k] = v
	}
	c.refreshChecker()
	in, err := interp.New(c.mod, c.info, c)
	if err != nil {
		// mod/info already validated when the parent Driver was built.
		panic(err)
	}
	c.in = in
	c.syncNextIdx()
	return c
}
