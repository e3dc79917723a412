package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fietser28/studio/frame"
)

func TestAutorun_RunsImmediately(t *testing.T) {
	h := NewHub(frame.New())
	runs := 0
	h.Autorun("a", func() { runs++ }, "x")
	assert.Equal(t, 1, runs)
}

func TestNotify_CoalescesWithinTick(t *testing.T) {
	s := frame.New()
	h := NewHub(s)
	runs := 0
	h.Subscribe("a", func() { runs++ }, "x", "y")

	h.Notify("x")
	h.Notify("y")
	h.Notify("x")
	assert.Equal(t, 0, runs, "flush is deferred to the scheduler")

	s.Pump()
	assert.Equal(t, 1, runs)

	s.Pump()
	assert.Equal(t, 1, runs, "nothing dirty, nothing runs")
}

func TestBatch_DefersUntilOutermostEnds(t *testing.T) {
	h := NewHub(nil)
	runs := 0
	h.Subscribe("a", func() { runs++ }, "x")

	h.Batch(func() {
		h.Notify("x")
		h.Batch(func() { h.Notify("x") })
		assert.Equal(t, 0, runs)
	})
	assert.Equal(t, 1, runs)
}

func TestDispose_DropsPendingRun(t *testing.T) {
	s := frame.New()
	h := NewHub(s)
	runs := 0
	r := h.Subscribe("a", func() { runs++ }, "x")

	h.Notify("x")
	r.Dispose()
	r.Dispose()
	s.Pump()

	assert.Equal(t, 0, runs)
	assert.True(t, r.Disposed())
	h.Notify("x")
	s.Pump()
	assert.Equal(t, 0, runs)
}

func TestNotifyDuringRun_RunsDependentsAfterwards(t *testing.T) {
	h := NewHub(nil)
	var order []string
	h.Subscribe("second", func() { order = append(order, "second") }, "y")
	h.Subscribe("first", func() {
		order = append(order, "first")
		h.Notify("y")
		assert.Equal(t, []string{"first"}, order, "dependents wait for the run to settle")
	}, "x")

	h.Notify("x")
	require.Equal(t, []string{"first", "second"}, order)
}

func TestSetTopics_ReplacesDependencies(t *testing.T) {
	h := NewHub(nil)
	runs := 0
	r := h.Subscribe("a", func() { runs++ }, "x")
	r.SetTopics("y")

	h.Notify("x")
	assert.Equal(t, 0, runs)
	h.Notify("y")
	assert.Equal(t, 1, runs)
}

func TestFlush_StopsRunawayReactions(t *testing.T) {
	h := NewHub(nil)
	runs := 0
	h.Subscribe("loop", func() {
		runs++
		h.Notify("x")
	}, "x")

	h.Notify("x")
	assert.Equal(t, maxFlushRounds, runs)
}
