package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/gmc/internal/gmc/addr"
	"github.com/kolkov/gmc/internal/gmc/event"
	"github.com/kolkov/gmc/internal/gmc/value"
)

func mustAdd(t *testing.T, g *Graph, l event.Label) event.Label {
	t.Helper()
	out, err := g.AddLabel(l)
	require.NoError(t, err)
	return out
}

func TestAddLabelRejectsOccupiedSlot(t *testing.T) {
	g := New()
	a := addr.Make(addr.Static, false, 0)
	w := event.NewWrite(event.Event{Thread: 0, Index: 0}, event.Relaxed, a, 8, value.Signed, value.Int(1), event.Deps{})
	mustAdd(t, g, w)

	dup := event.NewWrite(event.Event{Thread: 0, Index: 0}, event.Relaxed, a, 8, value.Signed, value.Int(2), event.Deps{})
	_, err := g.AddLabel(dup)
	assert.ErrorIs(t, err, ErrSlotOccupied)
}

func TestChangeRfMaintainsReadersList(t *testing.T) {
	g := New()
	a := addr.Make(addr.Static, false, 0)
	w1 := mustAdd(t, g, event.NewWrite(event.Event{Thread: 0, Index: 0}, event.Relaxed, a, 8, value.Signed, value.Int(1), event.Deps{})).(*event.WriteLabel)
	w2 := mustAdd(t, g, event.NewWrite(event.Event{Thread: 0, Index: 1}, event.Relaxed, a, 8, value.Signed, value.Int(2), event.Deps{})).(*event.WriteLabel)
	r := mustAdd(t, g, event.NewRead(event.Event{Thread: 1, Index: 0}, event.Relaxed, a, 8, value.Signed, event.Deps{})).(*event.ReadLabel)

	g.ChangeRf(r, w1.Pos())
	assert.Contains(t, w1.Readers, r.Pos())

	g.ChangeRf(r, w2.Pos())
	assert.NotContains(t, w1.Readers, r.Pos())
	assert.Contains(t, w2.Readers, r.Pos())
}

func TestCutToStampIdempotent(t *testing.T) {
	g := New()
	a := addr.Make(addr.Static, false, 0)
	mustAdd(t, g, event.NewWrite(event.Event{Thread: 0, Index: 0}, event.Relaxed, a, 8, value.Signed, value.Int(1), event.Deps{}))
	mustAdd(t, g, event.NewWrite(event.Event{Thread: 0, Index: 1}, event.Relaxed, a, 8, value.Signed, value.Int(2), event.Deps{}))
	r := mustAdd(t, g, event.NewRead(event.Event{Thread: 1, Index: 0}, event.Relaxed, a, 8, value.Signed, event.Deps{})).(*event.ReadLabel)
	g.ChangeRf(r, event.Event{Thread: 0, Index: 1})

	stamp := uint32(1)
	g2 := g.Clone()
	g.CutToStamp(stamp)
	g.CutToStamp(stamp)

	g2.CutToStamp(stamp)
	assert.Equal(t, len(g.Labels()), len(g2.Labels()), "applying cut_to_stamp twice must equal applying once")
	assert.Equal(t, g.MaxStamp(), g2.MaxStamp())
}

func TestCutToStampRebindsDanglingRfToBottom(t *testing.T) {
	g := New()
	a := addr.Make(addr.Static, false, 0)
	mustAdd(t, g, event.NewWrite(event.Event{Thread: 0, Index: 0}, event.Relaxed, a, 8, value.Signed, value.Int(1), event.Deps{}))
	r := mustAdd(t, g, event.NewRead(event.Event{Thread: 1, Index: 0}, event.Relaxed, a, 8, value.Signed, event.Deps{})).(*event.ReadLabel)
	w2 := mustAdd(t, g, event.NewWrite(event.Event{Thread: 0, Index: 1}, event.Relaxed, a, 8, value.Signed, value.Int(2), event.Deps{})).(*event.WriteLabel)
	g.ChangeRf(r, w2.Pos())

	g.CutToStamp(w2.Stamp() - 1) // cut away w2, which r currently reads from
	assert.True(t, r.Rf.IsBottom())
}

func TestAddStoreAtMaintainsCoherence(t *testing.T) {
	g := New()
	a := addr.Make(addr.Static, false, 0)
	w1 := mustAdd(t, g, event.NewWrite(event.Event{Thread: 0, Index: 0}, event.Relaxed, a, 8, value.Signed, value.Int(1), event.Deps{})).(*event.WriteLabel)
	w2 := mustAdd(t, g, event.NewWrite(event.Event{Thread: 1, Index: 0}, event.Relaxed, a, 8, value.Signed, value.Int(2), event.Deps{})).(*event.WriteLabel)

	g.AddStoreAt(w1, 0)
	g.AddStoreAt(w2, 0)

	co := g.Coherence(uint64(a))
	require.Len(t, co, 2)
	assert.Equal(t, w2.Pos(), co[0])
	assert.Equal(t, w1.Pos(), co[1])
}
