package pageruntime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/engine/soft"
	"github.com/fietser28/studio/frame"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/reactive"
)

// countingEngine records the calls whose counts the runtimes guarantee.
type countingEngine struct {
	*soft.Engine
	deletes     map[engine.Obj]int
	frees       map[engine.Ptr]int
	fontFrees   map[engine.Ptr]int
	fontLoads   int
	screenLoads []int
	timelines   []float32
}

func (e *countingEngine) DeleteObject(o engine.Obj) {
	e.deletes[o]++
	e.Engine.DeleteObject(o)
}

func (e *countingEngine) Free(p engine.Ptr) {
	e.frees[p]++
	e.Engine.Free(p)
}

func (e *countingEngine) totalFrees() int {
	n := 0
	for _, c := range e.frees {
		n += c
	}
	return n
}

func (e *countingEngine) FreeFont(p engine.Ptr) {
	e.fontFrees[p]++
	e.Engine.FreeFont(p)
}

func (e *countingEngine) LoadFont(path engine.Ptr) engine.Ptr {
	e.fontLoads++
	return e.Engine.LoadFont(path)
}

func (e *countingEngine) ScreenLoad(pageIndex int, o engine.Obj) {
	e.screenLoads = append(e.screenLoads, pageIndex)
	e.Engine.ScreenLoad(pageIndex, o)
}

func (e *countingEngine) SetTimelinePosition(pos float32) {
	e.timelines = append(e.timelines, pos)
	e.Engine.SetTimelinePosition(pos)
}

type harness struct {
	t       *testing.T
	sched   *frame.Scheduler
	hub     *reactive.Hub
	store   *project.Store
	engines []*countingEngine
	opts    []soft.Option
	diags   []*diag.Error
}

func newHarness(t *testing.T, yamlDoc string, opts ...soft.Option) *harness {
	t.Helper()
	p, err := project.Parse([]byte(yamlDoc))
	require.NoError(t, err)
	h := &harness{t: t, sched: frame.New(), opts: opts}
	h.hub = reactive.NewHub(h.sched)
	h.store = project.NewStore(p, h.hub)
	diag.SetHandler(diag.HandlerFunc(func(err *diag.Error) { h.diags = append(h.diags, err) }))
	t.Cleanup(func() { diag.SetHandler(nil) })
	return h
}

func (h *harness) New(v engine.Version, ready func()) engine.Engine {
	e := &countingEngine{
		Engine:    soft.New(v, h.opts...),
		deletes:   make(map[engine.Obj]int),
		frees:     make(map[engine.Ptr]int),
		fontFrees: make(map[engine.Ptr]int),
	}
	h.engines = append(h.engines, e)
	h.sched.Post(ready)
	return e
}

func (h *harness) options() Options {
	return Options{
		Store:     h.store,
		Factory:   h,
		Scheduler: h.sched,
		Now: func() time.Time {
			return time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
		},
	}
}

func (h *harness) pump(n int) {
	for i := 0; i < n; i++ {
		h.sched.Pump()
	}
}

func (h *harness) last() *countingEngine {
	require.NotEmpty(h.t, h.engines)
	return h.engines[len(h.engines)-1]
}

func (h *harness) diagsOf(kind diag.Kind) []*diag.Error {
	var out []*diag.Error
	for _, d := range h.diags {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

const emptyPageYAML = `
name: empty
settings:
  engineVersion: "9.0"
pages:
  - name: Blank
    width: 64
    height: 48
`

const demoYAML = `
name: demo
settings:
  engineVersion: "9.0"
styles:
  - name: loud
    forWidgetType: Button
    definition:
      MAIN:
        DEFAULT:
          bg_color: "#ff0000"
  - name: calm
    forWidgetType: Label
    definition:
      MAIN:
        DEFAULT:
          text_color: "#00ff00"
pages:
  - name: Main
    width: 120
    height: 80
    screen:
      type: Screen
      clickable: true
      children:
        - type: Label
          name: title
          text: Hello
        - type: Button
          name: ok
          clickable: true
          width: 40
          height: 20
        - type: Label
          text: anonymous
        - type: Tabview
          width: 100
          height: 60
          tabview:
            position: TOP
            size: 20
          children:
            - type: Container
            - type: Container
              children:
                - type: Tab
                  tab:
                    name: One
                - type: Tab
                  tab:
                    name: Two
                  children:
                    - type: Label
                      name: deep
                      text: inside
  - name: Settings
    width: 120
    height: 80
    screen:
      type: Screen
      children:
        - type: Label
          name: heading
          text: Settings
        - type: Button
`
