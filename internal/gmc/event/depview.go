package event

// DepView extends View with an auxiliary set of included events that are not
// an initial prefix of their thread (spec §4.A), used by dependency-tracking
// models (IMM) whose pporf is not representable as a plain per-thread bound.
type DepView struct {
	View
	extra map[Event]struct{}
}

// NewDepView returns an empty dependency-aware view.
func NewDepView() *DepView { return &DepView{} }

// Clone returns a deep copy of dv.
func (dv *DepView) Clone() *DepView {
	c := &DepView{View: *dv.View.Clone()}
	if len(dv.extra) > 0 {
		c.extra = make(map[Event]struct{}, len(dv.extra))
		for e := range dv.extra {
			c.extra[e] = struct{}{}
		}
	}
	return c
}

// AddExtra includes a single non-prefix event, e.g. an event reached only via
// a data/address/control dependency edge rather than program order.
func (dv *DepView) AddExtra(e Event) {
	if dv.extra == nil {
		dv.extra = make(map[Event]struct{})
	}
	dv.extra[e] = struct{}{}
}

// Contains reports e ∈ view: e.Index <= self[e.Thread] OR e ∈ dep-set
// (spec §4.A).
func (dv *DepView) Contains(e Event) bool {
	if dv.View.Contains(e) {
		return true
	}
	_, ok := dv.extra[e]
	return ok
}

// Update joins the View component and unions the dep sets (spec §4.A:
// "update(v2) takes pointwise max and unions the dep set").
func (dv *DepView) Update(other *DepView) {
	if other == nil {
		return
	}
	dv.View.Update(&other.View)
	for e := range other.extra {
		dv.AddExtra(e)
	}
}
