package soft

import "github.com/fietser28/studio/engine"

// Stats is a snapshot of engine bookkeeping.
type Stats struct {
	Objects     int
	Allocations int
	HeapBytes   int
	Fonts       int
	Frames      uint64
	Screen      engine.Obj
	// BadFrees counts frees of addresses or fonts that were not live.
	BadFrees   int
	BadDeletes int
}

func (e *Engine) Stats() Stats {
	s := Stats{
		Objects:     len(e.objs),
		Allocations: len(e.heap.live),
		HeapBytes:   len(e.heap.mem),
		Fonts:       len(e.fonts),
		Frames:      e.frames,
		BadFrees:    e.heap.badFrees,
		BadDeletes:  e.badDeletes,
	}
	if e.screen != nil {
		s.Screen = e.screen.id
	}
	return s
}

// Initialized reports whether Init succeeded.
func (e *Engine) Initialized() bool { return e.inited }

// Config returns the configuration passed to Init.
func (e *Engine) Config() engine.InitConfig { return e.cfg }

// Exists reports whether o is a live object.
func (e *Engine) Exists(o engine.Obj) bool {
	_, ok := e.objs[o]
	return ok
}

// Screen returns the loaded screen.
func (e *Engine) Screen() engine.Obj {
	if e.screen == nil {
		return 0
	}
	return e.screen.id
}

// KindOf returns the kind of o.
func (e *Engine) KindOf(o engine.Obj) (engine.Kind, bool) {
	if obj := e.objs[o]; obj != nil {
		return obj.kind, true
	}
	return 0, false
}

// Children returns the direct children of o.
func (e *Engine) Children(o engine.Obj) []engine.Obj {
	obj := e.objs[o]
	if obj == nil {
		return nil
	}
	out := make([]engine.Obj, len(obj.children))
	for i, c := range obj.children {
		out[i] = c.id
	}
	return out
}

// Text returns the text set on o.
func (e *Engine) Text(o engine.Obj) string {
	if obj := e.objs[o]; obj != nil {
		return obj.text
	}
	return ""
}

// ImageSrc returns the image descriptor address set on o.
func (e *Engine) ImageSrc(o engine.Obj) engine.Ptr {
	if obj := e.objs[o]; obj != nil {
		return obj.img
	}
	return 0
}

// Flags returns the raw flag bits of o.
func (e *Engine) Flags(o engine.Obj) uint32 {
	if obj := e.objs[o]; obj != nil {
		return obj.flags
	}
	return 0
}

// State returns the state bits of o.
func (e *Engine) State(o engine.Obj) uint32 {
	if obj := e.objs[o]; obj != nil {
		return obj.state
	}
	return 0
}

// ActiveTab returns the active tab of a tabview, or -1.
func (e *Engine) ActiveTab(o engine.Obj) int {
	if t := e.tabviewOf(o); t != nil {
		return t.active
	}
	return -1
}

// TimelinePosition returns the last position set.
func (e *Engine) TimelinePosition() float32 { return e.timeline }

// FontName returns the name of a loaded font.
func (e *Engine) FontName(f engine.Ptr) string {
	if lf := e.fonts[f]; lf != nil {
		return lf.name
	}
	return ""
}

// Index returns the widget index o was created with, or -1.
func (e *Engine) Index(o engine.Obj) int {
	if obj := e.objs[o]; obj != nil {
		return obj.index
	}
	return -1
}
