package explore

import (
	"math/rand"

	"github.com/kolkov/gmc/internal/gmc/ir"
)

// Policy names a scheduling discipline (spec §4.H "Scheduling").
type Policy string

const (
	// PolicyLTR picks the first schedulable thread in thread-id order.
	PolicyLTR Policy = "ltr"
	// PolicyWF ("write-first") prefers a thread whose next instruction is
	// not a load, falling back to ltr.
	PolicyWF Policy = "wf"
	// PolicyRandom picks uniformly among schedulable threads, applying
	// symmetric-thread reduction when enabled.
	PolicyRandom Policy = "random"
)

// newRand returns a seeded PRNG; seed 0 still yields a fixed, reproducible
// sequence (spec §4.H "a seeded PRNG").
func newRand(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

// pickThread selects the next thread to step (spec §4.H "Scheduling… LAPOR
// priorities, when non-empty, override policy").
func (d *Driver) pickThread() (uint32, bool) {
	for _, tid := range d.priorities {
		if d.in.Schedulable(tid) {
			return tid, true
		}
	}
	switch d.opts.Policy {
	case PolicyWF:
		return d.pickWF()
	case PolicyRandom:
		return d.pickRandom()
	default:
		return d.pickLTR()
	}
}

func (d *Driver) pickLTR() (uint32, bool) {
	for t := uint32(0); int(t) < len(d.in.Threads); t++ {
		if d.in.Schedulable(t) {
			return t, true
		}
	}
	return 0, false
}

func (d *Driver) pickWF() (uint32, bool) {
	fallback, have := uint32(0), false
	for t := uint32(0); int(t) < len(d.in.Threads); t++ {
		if !d.in.Schedulable(t) {
			continue
		}
		if !have {
			fallback, have = t, true
		}
		if !d.nextIsLoad(t) {
			return t, true
		}
	}
	return fallback, have
}

func (d *Driver) nextIsLoad(tid uint32) bool {
	f := d.in.Threads[tid].Top()
	if f == nil {
		return false
	}
	block, ok := f.Func.Blocks[f.Block]
	if !ok || f.PC >= len(block.Insts) {
		return false
	}
	switch block.Insts[f.PC].Op {
	case ir.OpLoad, ir.OpAtomicRMW, ir.OpCmpXchg:
		return true
	default:
		return false
	}
}

func (d *Driver) pickRandom() (uint32, bool) {
	var schedulable []uint32
	for t := uint32(0); int(t) < len(d.in.Threads); t++ {
		if d.in.Schedulable(t) {
			schedulable = append(schedulable, t)
		}
	}
	if len(schedulable) == 0 {
		return 0, false
	}
	if d.opts.SymmetryReduction {
		schedulable = d.reduceSymmetric(schedulable)
	}
	return schedulable[d.rng.Intn(len(schedulable))], true
}

// reduceSymmetric drops a higher-id thread from the candidate set when a
// lower-id thread already present is at the identical (function, block, pc)
// point: scheduling either one first explores the same local step, so
// trying both is redundant (spec §4.H "symmetric-thread reduction").
//
// EventSink.ThreadCreate does not surface the spawned function, so a
// per-label symmetric tag (event.ThreadLabel.SymmetricTid) can't be
// populated from here; this heuristic runs entirely at the scheduler
// instead, comparing live interpreter state rather than a recorded tag.
func (d *Driver) reduceSymmetric(ts []uint32) []uint32 {
	type point struct {
		fn    string
		block string
		pc    int
	}
	seen := make(map[point]bool, len(ts))
	out := make([]uint32, 0, len(ts))
	for _, t := range ts {
		f := d.in.Threads[t].Top()
		if f == nil {
			out = append(out, t)
			continue
		}
		p := point{f.Func.Name, f.Block, f.PC}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, t)
	}
	return out
}

// prioritizeThread puts tid at the front of the LAPOR priority list; if tid
// is already listed, its position is left unchanged.
func (d *Driver) prioritizeThread(tid uint32) {
	for _, t := range d.priorities {
		if t == tid {
			return
		}
	}
	d.priorities = append([]uint32{tid}, d.priorities...)
}

// deprioritizeThread removes tid from the LAPOR priority list.
func (d *Driver) deprioritizeThread(tid uint32) {
	out := d.priorities[:0]
	for _, t := range d.priorities {
		if t != tid {
			out = append(out, t)
		}
	}
	d.priorities = out
}
