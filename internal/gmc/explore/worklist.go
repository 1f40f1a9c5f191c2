package explore

import (
	"encoding/binary"
	"sort"

	farm "github.com/dgryski/go-farm"

	"github.com/kolkov/gmc/internal/gmc/event"
)

// Worklist is a map from stamp to FIFO queue; the driver always pops from
// the highest stamp bucket, FIFO within a bucket (spec §4.H "Work items are
// keyed by the stamp of read/store... the driver always pops from the
// highest stamp bucket").
type Worklist struct {
	buckets map[uint32][]WorkItem
}

// NewWorklist returns an empty worklist.
func NewWorklist() *Worklist {
	return &Worklist{buckets: make(map[uint32][]WorkItem)}
}

// Push enqueues item under its own stamp.
func (wl *Worklist) Push(item WorkItem) {
	wl.buckets[item.stamp] = append(wl.buckets[item.stamp], item)
}

// Pop removes and returns the first item of the highest-stamp non-empty
// bucket, or (zero, false) if the worklist is empty.
func (wl *Worklist) Pop() (WorkItem, bool) {
	var max uint32
	found := false
	for s, q := range wl.buckets {
		if len(q) == 0 {
			continue
		}
		if !found || s > max {
			max, found = s, true
		}
	}
	if !found {
		return WorkItem{}, false
	}
	q := wl.buckets[max]
	item := q[0]
	if len(q) == 1 {
		delete(wl.buckets, max)
	} else {
		wl.buckets[max] = q[1:]
	}
	return item, true
}

// RestrictTo drops every item whose stamp is greater than s (spec §4.H
// "revisit(item): restrict the worklist to stamps <= item.stamp").
func (wl *Worklist) RestrictTo(s uint32) {
	for bucket := range wl.buckets {
		if bucket > s {
			delete(wl.buckets, bucket)
		}
	}
}

// Len returns the total number of queued items, for metrics/tests.
func (wl *Worklist) Len() int {
	n := 0
	for _, q := range wl.buckets {
		n += len(q)
	}
	return n
}

// Clone deep-copies the worklist for a driver fork.
func (wl *Worklist) Clone() *Worklist {
	c := NewWorklist()
	for s, q := range wl.buckets {
		c.buckets[s] = append([]WorkItem(nil), q...)
	}
	return c
}

// Stamps returns the bucket keys in ascending order, for deterministic
// inspection in tests.
func (wl *Worklist) Stamps() []uint32 {
	out := make([]uint32, 0, len(wl.buckets))
	for s := range wl.buckets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// revisitKey identifies one already-explored (read, write-prefix signature)
// pair for the RevisitSet's duplicate-suppression (spec §4.H "Revisit set:
// for each read stamp, a set of already-explored (write-prefix, mo-
// placings) pairs").
type revisitKey struct {
	readStamp uint32
	sig       uint64 // farm hash of the (store, read, prefix events, mo placings) signature
}

// revisitKeyFor derives item's dedup key: the hash mixes the revisited
// store's coordinates with the shape of the saved prefix/mo-placings so two
// BackwardRevisits that would restore the same graph extension collide,
// while two that restore different prefixes (even onto the same store)
// don't (spec §4.H "Revisit set").
func revisitKeyFor(item WorkItem) revisitKey {
	buf := make([]byte, 0, 16+8*len(item.SavedMo))
	buf = appendEvent(buf, item.RevStore)
	buf = appendEvent(buf, item.Read)
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(item.SavedPrefix)))
	buf = append(buf, n[:]...)
	for _, l := range item.SavedPrefix {
		buf = appendEvent(buf, l.Pos())
	}
	for _, mo := range item.SavedMo {
		buf = appendEvent(buf, mo.Store)
		buf = appendEvent(buf, mo.Succ)
	}
	return revisitKey{readStamp: item.stamp, sig: farm.Hash64(buf)}
}

func appendEvent(buf []byte, e event.Event) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint32(b[0:4], e.Thread)
	binary.LittleEndian.PutUint32(b[4:8], e.Index)
	return append(buf, b[:]...)
}

// RevisitSet suppresses duplicate backward revisits that would reconstruct
// an already-explored graph extension.
type RevisitSet struct {
	seen map[revisitKey]bool
}

// NewRevisitSet returns an empty revisit set.
func NewRevisitSet() *RevisitSet {
	return &RevisitSet{seen: make(map[revisitKey]bool)}
}

// Contains reports whether key has already been explored. Per spec §9 Open
// Question (i) ("it is unclear whether duplicate suppression is intended...
// follow the live code, not the comments"), this implementation follows the
// live (enabled) path: duplicate backward revisits are suppressed.
func (rs *RevisitSet) Contains(key revisitKey) bool { return rs.seen[key] }

// Add records key as explored.
func (rs *RevisitSet) Add(key revisitKey) { rs.seen[key] = true }

// Clone deep-copies the revisit set for a driver fork.
func (rs *RevisitSet) Clone() *RevisitSet {
	c := NewRevisitSet()
	for k := range rs.seen {
		c.seen[k] = true
	}
	return c
}

// RestrictTo drops every recorded key whose read stamp is greater than s,
// mirroring Worklist.RestrictTo.
func (rs *RevisitSet) RestrictTo(s uint32) {
	for k := range rs.seen {
		if k.readStamp > s {
			delete(rs.seen, k)
		}
	}
}
