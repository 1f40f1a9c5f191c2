package event

// View is a dense vector of per-thread maximum included indices: "all events
// (t, 0..=v[t]) are included" (spec §4.A). Unlike the teacher's fixed-size
// 65536-wide VectorClock (one physical thread space, known at compile time),
// a View here grows on demand since the number of threads a checked program
// spawns is not known up front; growth is amortized and Views are only ever
// cloned at revisit/prefix boundaries, not on the hot per-instruction path.
type View struct {
	idx []int32 // idx[t] == -1 means thread t has no included events yet
}

// NewView returns an empty view (no thread has any included event).
func NewView() *View { return &View{} }

func (v *View) ensure(t uint32) {
	if int(t) < len(v.idx) {
		return
	}
	grown := make([]int32, t+1)
	copy(grown, v.idx)
	for i := len(v.idx); i < len(grown); i++ {
		grown[i] = -1
	}
	v.idx = grown
}

// Get returns the highest included index for thread t, or -1 if none.
func (v *View) Get(t uint32) int32 {
	if int(t) >= len(v.idx) {
		return -1
	}
	return v.idx[t]
}

// Clone returns a deep copy of v.
func (v *View) Clone() *View {
	c := &View{idx: make([]int32, len(v.idx))}
	copy(c.idx, v.idx)
	return c
}

// Update performs v = v ⊔ other (pointwise maximum), the synchronization
// operation used on lock acquire / rf / thread join (spec §4.A).
func (v *View) Update(other *View) {
	if other == nil {
		return
	}
	v.ensure(uint32(len(other.idx)))
	for t, o := range other.idx {
		if o > v.idx[t] {
			v.idx[t] = o
		}
	}
}

// UpdateIdx sets self[e.Thread] = max(self[e.Thread], e.Index), the
// single-event inclusion operation (spec §4.A).
func (v *View) UpdateIdx(e Event) {
	v.ensure(e.Thread + 1)
	if int32(e.Index) > v.idx[e.Thread] {
		v.idx[e.Thread] = int32(e.Index)
	}
}

// Contains reports whether e is included in the view: e.Index <= self[e.Thread]
// (spec §4.A; DepView additionally ORs in its dep-set, see Contains override).
func (v *View) Contains(e Event) bool {
	return int32(e.Index) <= v.Get(e.Thread)
}

// LessOrEqual reports whether v ⊑ other (v included in other), the
// happens-before check used throughout the checkers.
func (v *View) LessOrEqual(other *View) bool {
	for t, val := range v.idx {
		if val > other.Get(uint32(t)) {
			return false
		}
	}
	return true
}

// Equal reports whether v and other contain exactly the same events,
// ignoring trailing -1 padding.
func (v *View) Equal(other *View) bool {
	return v.LessOrEqual(other) && other.LessOrEqual(v)
}
