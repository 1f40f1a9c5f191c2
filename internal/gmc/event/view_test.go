package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewUpdateCommutativeIdempotent(t *testing.T) {
	v := NewView()
	v.UpdateIdx(Event{Thread: 0, Index: 3})
	w := NewView()
	w.UpdateIdx(Event{Thread: 1, Index: 5})

	vw := v.Clone()
	vw.Update(w)

	wv := w.Clone()
	wv.Update(v)

	assert.True(t, vw.Equal(wv), "view update must be commutative")

	twice := vw.Clone()
	twice.Update(v)
	assert.True(t, twice.Equal(vw), "updating with an already-included view must be idempotent")
}

func TestViewContains(t *testing.T) {
	v := NewView()
	v.UpdateIdx(Event{Thread: 2, Index: 4})
	assert.True(t, v.Contains(Event{Thread: 2, Index: 0}))
	assert.True(t, v.Contains(Event{Thread: 2, Index: 4}))
	assert.False(t, v.Contains(Event{Thread: 2, Index: 5}))
	assert.False(t, v.Contains(Event{Thread: 7, Index: 0}))
}

func TestDepViewContainsExtra(t *testing.T) {
	dv := NewDepView()
	e := Event{Thread: 9, Index: 100}
	assert.False(t, dv.Contains(e))
	dv.AddExtra(e)
	assert.True(t, dv.Contains(e))
}

func TestEventSentinels(t *testing.T) {
	assert.True(t, INIT.IsInitializer())
	assert.True(t, BOTTOM.IsBottom())
	assert.False(t, INIT.IsBottom())
}
