// Package pageruntime mounts rendering engines against project pages. Each
// runtime owns one engine instance, its resource caches and string arena,
// and keeps a render loop going until it is unmounted.
package pageruntime

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/frame"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/reactive"
	"github.com/fietser28/studio/render"
	"github.com/fietser28/studio/style"
)

// Scheduler is the part of frame.Scheduler runtimes use.
type Scheduler interface {
	Post(fn func())
	RequestFrame(fn func()) frame.ID
	CancelFrame(id frame.ID)
}

// EventType names a lifecycle event.
type EventType string

const (
	EventMounted   EventType = "mounted"
	EventRebuilt   EventType = "rebuilt"
	EventSwapped   EventType = "swapped"
	EventUnmounted EventType = "unmounted"
)

// Event describes one lifecycle step of a runtime.
type Event struct {
	Runtime project.RuntimeID `json:"runtime"`
	Kind    string            `json:"kind"`
	Type    EventType         `json:"type"`
	Page    string            `json:"page,omitempty"`
	Root    engine.Obj        `json:"root,omitempty"`
}

// Options configures a runtime.
type Options struct {
	Store     *project.Store
	Factory   engine.Factory
	Scheduler Scheduler
	// Canvas receives rendered frames. It may be nil.
	Canvas render.Canvas
	// Version overrides the project's engine version.
	Version engine.Version
	// Now supplies the clock used for the engine's UTC offset.
	Now func() time.Time
	// Observer is told about lifecycle events. It may be nil.
	Observer func(Event)
}

var lastID atomic.Uint64

// Runtime is the state every page runtime shares. Concrete runtimes embed
// it and fill in the hooks.
type Runtime struct {
	id      project.RuntimeID
	kind    string
	editor  bool
	store   *project.Store
	factory engine.Factory
	sched   Scheduler
	version engine.Version
	now     func() time.Time
	notify  func(Event)

	width, height int
	canvas        render.Canvas
	// loop is false for runtimes that never render.
	loop bool

	eng      engine.Engine
	mounted  bool
	frameID  frame.ID
	bitmaps  *BitmapCache
	fonts    *FontCache
	strings  StringArena
	watchers []*reactive.Reaction
	pages    map[*project.Page]bool

	rebuilds uint64
	frames   uint64

	// hooks
	indexer   func(w *project.Widget) int
	onReady   func()
	onUnmount func()
}

func newRuntime(kind string, editor bool, opts Options) *Runtime {
	r := &Runtime{
		id:      project.RuntimeID(lastID.Add(1)),
		kind:    kind,
		editor:  editor,
		store:   opts.Store,
		factory: opts.Factory,
		sched:   opts.Scheduler,
		version: opts.Version,
		now:     opts.Now,
		notify:  opts.Observer,
		canvas:  opts.Canvas,
		loop:    true,
		pages:   make(map[*project.Page]bool),
	}
	if r.version == "" {
		r.version = opts.Store.Project.Settings.EngineVersion
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.indexer = func(*project.Widget) int { return 0 }
	return r
}

func (r *Runtime) ID() project.RuntimeID { return r.id }

// Kind names the runtime variant.
func (r *Runtime) Kind() string { return r.kind }

func (r *Runtime) IsEditor() bool { return r.editor }

func (r *Runtime) IsMounted() bool { return r.mounted }

// Engine returns the engine of the current mount, or nil.
func (r *Runtime) Engine() engine.Engine { return r.eng }

func (r *Runtime) Version() engine.Version { return r.version }

func (r *Runtime) IsV9() bool { return r.version == engine.V9 }

func (r *Runtime) Project() *project.Project { return r.store.Project }

func (r *Runtime) Store() *project.Store { return r.store }

// Size is the display size in pixels.
func (r *Runtime) Size() (width, height int) { return r.width, r.height }

func (r *Runtime) setSize(w, h int) {
	r.width, r.height = max(w, 1), max(h, 1)
}

func (r *Runtime) emit(t EventType, page *project.Page) {
	if r.notify == nil {
		return
	}
	ev := Event{Runtime: r.id, Kind: r.kind, Type: t}
	if page != nil {
		ev.Page = page.Name
		ev.Root = page.Obj(r.id)
	}
	r.notify(ev)
}

// Mount starts a fresh engine. The engine reports readiness on a later
// scheduler tick; only then is it initialized and the runtime mounted.
// Mount is a no-op while mounted or while a mount is pending.
func (r *Runtime) Mount() {
	if r.mounted || r.eng != nil {
		return
	}
	var eng engine.Engine
	eng = r.factory.New(r.version, func() { r.ready(eng) })
	r.eng = eng
	r.bitmaps = newBitmapCache(eng, r.version)
	r.fonts = newFontCache(eng)
	r.strings = StringArena{}
}

func (r *Runtime) ready(eng engine.Engine) {
	if r.eng != eng {
		// unmounted, or remounted with another engine, before readiness
		return
	}
	cfg := engine.InitConfig{
		Width:                 r.width,
		Height:                r.height,
		DarkTheme:             r.store.Project.Settings.DarkTheme,
		UTCOffsetQuarterHours: utcOffsetQuarterHours(r.now()),
	}
	if err := eng.Init(cfg); err != nil {
		diag.Report("pageruntime."+r.kind+".Mount", diag.KindInit, err)
		r.eng = nil
		return
	}
	r.mounted = true
	if r.loop {
		r.frameID = r.sched.RequestFrame(r.tick)
	}
	r.emit(EventMounted, nil)
	if r.onReady != nil {
		r.onReady()
	}
}

func utcOffsetQuarterHours(t time.Time) int {
	_, offset := t.Zone()
	return offset / (15 * 60)
}

// tick steps the engine, copies a finished frame to the canvas and asks
// for the next frame.
func (r *Runtime) tick() {
	r.frameID = 0
	if !r.mounted {
		return
	}
	r.eng.MainLoop()
	r.frames++
	if p := r.eng.SyncedBuffer(); p != 0 && r.canvas != nil {
		n := r.width * r.height * 4
		heap := r.eng.Heap()
		if int(p)+n <= len(heap) {
			r.canvas.PutImageData(heap[p:int(p)+n], r.width, r.height)
		}
	}
	r.frameID = r.sched.RequestFrame(r.tick)
}

// watch registers a reaction to be disposed on unmount.
func (r *Runtime) watch(re *reactive.Reaction) *reactive.Reaction {
	r.watchers = append(r.watchers, re)
	return re
}

// Unmount stops the render loop, drops every subscription and detaches the
// runtime from its pages. A pending mount is abandoned. Calling Unmount
// when not mounted does nothing.
func (r *Runtime) Unmount() {
	if !r.mounted {
		r.eng = nil
		return
	}
	if r.frameID != 0 {
		r.sched.CancelFrame(r.frameID)
		r.frameID = 0
	}
	for _, re := range r.watchers {
		re.Dispose()
	}
	r.watchers = nil
	if r.onUnmount != nil {
		r.onUnmount()
	}
	for _, page := range r.attachedPages() {
		DetachRuntimeFromPage(r, page)
	}
	r.mounted = false
	r.eng = nil
	r.emit(EventUnmounted, nil)
}

// Close unmounts the runtime and frees its cached resources.
func (r *Runtime) Close() {
	eng := r.eng
	r.Unmount()
	if eng == nil {
		return
	}
	if r.bitmaps != nil {
		r.bitmaps.Release()
	}
	if r.fonts != nil {
		r.fonts.Release()
	}
	r.strings.drain(eng.Free)
}

func (r *Runtime) attach(page *project.Page) {
	r.pages[page] = true
	page.AttachRuntime(r.id)
}

func (r *Runtime) attachedPages() []*project.Page {
	pages := make([]*project.Page, 0, len(r.pages))
	for p := range r.pages {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })
	return pages
}

// DetachRuntimeFromPage deletes page's root object from rt's engine and
// forgets every handle rt recorded on the page's tree.
func DetachRuntimeFromPage(rt *Runtime, page *project.Page) {
	rt.store.Hub.Batch(func() {
		if o := page.Obj(rt.id); o != 0 && rt.eng != nil {
			rt.eng.DeleteObject(o)
		}
		clearHandles(rt.id, page)
		page.DetachRuntime(rt.id)
		delete(rt.pages, page)
		rt.store.Hub.Notify(project.HandlesTopic(page))
	})
}

// clearHandles nulls the root and widget handles of page in runtime id.
func clearHandles(id project.RuntimeID, page *project.Page) {
	page.ClearObj(id)
	for _, w := range page.Widgets() {
		w.ClearObj(id)
	}
}

// GetWidgetIndex returns the engine index of w in the current
// materialization.
func (r *Runtime) GetWidgetIndex(w *project.Widget) int {
	return r.indexer(w)
}

// positionalIndexer numbers the widgets of page in tree order.
func positionalIndexer(page *project.Page) func(w *project.Widget) int {
	return func(w *project.Widget) int {
		for i, n := range page.Widgets() {
			if n == w {
				return i
			}
		}
		return 0
	}
}

func (r *Runtime) GetBitmapPtr(b *project.Bitmap) engine.Ptr {
	if r.bitmaps == nil || b == nil {
		return 0
	}
	return r.bitmaps.Get(b)
}

func (r *Runtime) GetBitmapPtrByName(name string) engine.Ptr {
	b := r.store.Project.FindBitmap(name)
	if b == nil {
		return 0
	}
	return r.GetBitmapPtr(b)
}

func (r *Runtime) GetFontPtr(f *project.Font) engine.Ptr {
	if r.fonts == nil || f == nil {
		return 0
	}
	return r.fonts.Get(f)
}

func (r *Runtime) GetFontPtrByName(name string) engine.Ptr {
	f := r.store.Project.FindFont(name)
	if f == nil {
		return 0
	}
	return r.GetFontPtr(f)
}

// FontByAddr maps a loaded font handle back to its resource.
func (r *Runtime) FontByAddr(p engine.Ptr) *project.Font {
	if r.fonts == nil {
		return nil
	}
	return r.fonts.ByAddr(p)
}

// AllocateUTF8 copies s into engine memory. With free set the string is
// released by the next FreeStrings.
func (r *Runtime) AllocateUTF8(s string, free bool) engine.Ptr {
	if r.eng == nil {
		return 0
	}
	p := r.eng.AllocateUTF8(s)
	if free && p != 0 {
		r.strings.add(p)
	}
	return p
}

// FreeStrings releases every string allocated with free set.
func (r *Runtime) FreeStrings() {
	if r.eng == nil {
		r.strings = StringArena{}
		return
	}
	r.strings.drain(r.eng.Free)
}

// StylePropCode resolves a style property for the runtime's version.
func (r *Runtime) StylePropCode(p engine.StyleProp) uint32 {
	code, ok := engine.StylePropCode(r.version, p)
	if !ok {
		diag.Reportf("pageruntime.StylePropCode", diag.KindProgrammer, "style property %d has no code in %s", p, r.version)
		return 0
	}
	return code
}

// StylePropDefaultValue reads the value the engine uses for a style
// property of o.
func (r *Runtime) StylePropDefaultValue(o engine.Obj, part, state string, info *style.PropertyInfo) any {
	return style.DefaultValue(r, o, part, state, info)
}

// replaceRoot loads root as the screen and deletes the previous root of
// page.
func (r *Runtime) replaceRoot(page *project.Page, pageIndex int, old, root engine.Obj) {
	r.eng.ScreenLoad(pageIndex, root)
	if old != 0 && old != root {
		r.eng.DeleteObject(old)
	}
	page.SetObj(r.id, root)
}

// Stats is a snapshot of a runtime for inspection.
type Stats struct {
	ID       project.RuntimeID `json:"id"`
	Kind     string            `json:"kind"`
	Version  engine.Version    `json:"version"`
	Mounted  bool              `json:"mounted"`
	Rebuilds uint64            `json:"rebuilds"`
	Frames   uint64            `json:"frames"`
	Bitmaps  int               `json:"bitmaps"`
	Fonts    int               `json:"fonts"`
	Strings  int               `json:"strings"`
	Pages    []string          `json:"pages,omitempty"`
}

func (r *Runtime) Stats() Stats {
	s := Stats{
		ID:       r.id,
		Kind:     r.kind,
		Version:  r.version,
		Mounted:  r.mounted,
		Rebuilds: r.rebuilds,
		Frames:   r.frames,
		Strings:  r.strings.Len(),
	}
	if r.bitmaps != nil {
		s.Bitmaps = r.bitmaps.Len()
	}
	if r.fonts != nil {
		s.Fonts = r.fonts.Len()
	}
	for _, p := range r.attachedPages() {
		s.Pages = append(s.Pages, p.Name)
	}
	return s
}
