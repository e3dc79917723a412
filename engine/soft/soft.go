// Package soft is a pure Go engine that satisfies engine.Engine. It keeps an
// object table and a simulated linear memory, renders the loaded screen into
// an RGBA buffer inside that memory and answers the introspection calls the
// page runtimes make. It is a reference backend for the contract, not a
// faithful reproduction of any particular engine release.
package soft

import (
	"fmt"
	"log"
	"math/bits"
	"strconv"
	"strings"

	"golang.org/x/image/font"

	"github.com/fietser28/studio/engine"
)

type styleKind uint8

const (
	styleColor styleKind = iota
	styleNum
	styleBuiltInFont
	styleFont
)

type localStyle struct {
	prop     uint32
	selector uint32
	kind     styleKind
	color    uint32
	num      int32
	builtIn  int
	font     engine.Ptr
}

type object struct {
	id       engine.Obj
	kind     engine.Kind
	index    int
	parent   *object
	children []*object
	rect     engine.Rect
	flags    uint32
	state    uint32
	text     string
	img      engine.Ptr
	styles   []localStyle

	scale   engine.ScaleParams
	spinbox engine.SpinboxParams
	tabview *tabview
}

type tabview struct {
	params engine.TabviewParams
	bar    *object
	body   *object
	tabs   []*object
	active int
}

type loadedFont struct {
	face font.Face
	name string
}

// Engine is one soft engine instance. Like every engine it must only be used
// from one goroutine.
type Engine struct {
	version engine.Version
	heap    *heap

	objs    map[engine.Obj]*object
	nextObj engine.Obj
	screen  *object

	fonts map[engine.Ptr]*loadedFont

	cfg    engine.InitConfig
	inited bool
	fb     engine.Ptr
	dirty  bool
	synced bool
	frames uint64

	timeline   float32
	flowStates map[int]int

	defaultFlags map[engine.Kind]uint32
	badDeletes   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultFlags replaces the flags new objects of kind k start with.
func WithDefaultFlags(k engine.Kind, flags string) Option {
	return func(e *Engine) {
		e.defaultFlags[k] = e.flagMask(flags)
	}
}

// WithHeapLimit caps the simulated memory at n bytes.
func WithHeapLimit(n int) Option {
	return func(e *Engine) {
		e.heap.limit = n
	}
}

// New creates an engine for v. The engine must be initialized with Init
// before objects are created.
func New(v engine.Version, opts ...Option) *Engine {
	e := &Engine{
		version:      v,
		heap:         newHeap(DefaultHeapLimit),
		objs:         make(map[engine.Obj]*object),
		fonts:        make(map[engine.Ptr]*loadedFont),
		flowStates:   make(map[int]int),
		defaultFlags: make(map[engine.Kind]uint32),
	}
	for k, flags := range defaultFlagTable(v) {
		e.defaultFlags[k] = e.flagMask(flags)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) flagMask(flags string) uint32 {
	var mask uint32
	for _, f := range engine.SplitFlags(flags) {
		c, ok := engine.FlagCode(e.version, f)
		if !ok {
			log.Printf("WARN soft flags: unknown flag %q for %s", f, e.version)
			continue
		}
		mask |= c
	}
	return mask
}

func (e *Engine) Version() engine.Version { return e.version }

// Memory

func (e *Engine) Malloc(size int) engine.Ptr { return e.heap.malloc(size) }

func (e *Engine) Free(p engine.Ptr) { e.heap.release(p) }

func (e *Engine) AllocateUTF8(s string) engine.Ptr {
	p := e.heap.malloc(len(s) + 1)
	if p == 0 {
		return 0
	}
	copy(e.heap.mem[p:], s)
	e.heap.mem[int(p)+len(s)] = 0
	return p
}

func (e *Engine) Heap() []byte { return e.heap.mem }

// Loop

func (e *Engine) Init(cfg engine.InitConfig) error {
	if e.inited {
		return fmt.Errorf("soft init: already initialized")
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return fmt.Errorf("soft init: invalid display size %dx%d", cfg.Width, cfg.Height)
	}
	fb := e.heap.malloc(cfg.Width * cfg.Height * 4)
	if fb == 0 {
		return fmt.Errorf("soft init: no memory for %dx%d framebuffer", cfg.Width, cfg.Height)
	}
	e.cfg = cfg
	e.fb = fb
	e.inited = true
	e.dirty = true
	return nil
}

func (e *Engine) MainLoop() {
	if !e.inited {
		return
	}
	e.frames++
	if !e.dirty {
		return
	}
	e.render()
	e.dirty = false
	e.synced = true
}

func (e *Engine) SyncedBuffer() engine.Ptr {
	if !e.synced {
		return 0
	}
	e.synced = false
	return e.fb
}

// Objects

func (e *Engine) newObject(kind engine.Kind, parent engine.Obj, index int, r engine.Rect) *object {
	var p *object
	if kind != engine.KindScreen {
		p = e.objs[parent]
		if p == nil {
			return nil
		}
	}
	e.nextObj++
	o := &object{
		id:     e.nextObj,
		kind:   kind,
		index:  index,
		parent: p,
		rect:   r,
		flags:  e.defaultFlags[kind],
	}
	if p != nil {
		p.children = append(p.children, o)
	}
	e.objs[o.id] = o
	e.dirty = true
	return o
}

func (e *Engine) CreateObject(kind engine.Kind, parent engine.Obj, index int, r engine.Rect) engine.Obj {
	switch kind {
	case engine.KindScale, engine.KindSpinbox, engine.KindTabview, engine.KindTab:
		log.Printf("ERROR soft CreateObject: %s needs its dedicated constructor", kind)
		return 0
	}
	if o := e.newObject(kind, parent, index, r); o != nil {
		return o.id
	}
	return 0
}

func (e *Engine) CreateScale(parent engine.Obj, index int, r engine.Rect, p engine.ScaleParams) engine.Obj {
	if e.version == engine.V8 {
		// no scale widget before 9.0
		return 0
	}
	o := e.newObject(engine.KindScale, parent, index, r)
	if o == nil {
		return 0
	}
	o.scale = p
	return o.id
}

func (e *Engine) CreateSpinbox(parent engine.Obj, index int, r engine.Rect, p engine.SpinboxParams) engine.Obj {
	o := e.newObject(engine.KindSpinbox, parent, index, r)
	if o == nil {
		return 0
	}
	if p.Value < p.Min {
		p.Value = p.Min
	}
	if p.Value > p.Max {
		p.Value = p.Max
	}
	o.spinbox = p
	return o.id
}

const defaultTabBarSize = 32

func (e *Engine) CreateTabview(parent engine.Obj, index int, r engine.Rect, p engine.TabviewParams) engine.Obj {
	o := e.newObject(engine.KindTabview, parent, index, r)
	if o == nil {
		return 0
	}
	if p.Size <= 0 {
		p.Size = defaultTabBarSize
	}
	barRect, bodyRect := tabviewLayout(r.Width, r.Height, p)
	o.tabview = &tabview{
		params: p,
		bar:    e.newObject(engine.KindContainer, o.id, -1, barRect),
		body:   e.newObject(engine.KindContainer, o.id, -1, bodyRect),
	}
	return o.id
}

func tabviewLayout(w, h int, p engine.TabviewParams) (bar, body engine.Rect) {
	s := p.Size
	switch p.Position {
	case "BOTTOM":
		return engine.Rect{Top: h - s, Width: w, Height: s}, engine.Rect{Width: w, Height: h - s}
	case "LEFT":
		return engine.Rect{Width: s, Height: h}, engine.Rect{Left: s, Width: w - s, Height: h}
	case "RIGHT":
		return engine.Rect{Left: w - s, Width: s, Height: h}, engine.Rect{Width: w - s, Height: h}
	default:
		return engine.Rect{Width: w, Height: s}, engine.Rect{Top: s, Width: w, Height: h - s}
	}
}

func (e *Engine) tabviewOf(o engine.Obj) *tabview {
	if obj := e.objs[o]; obj != nil {
		return obj.tabview
	}
	return nil
}

func (e *Engine) TabviewAddTab(tv engine.Obj, index int, name engine.Ptr) engine.Obj {
	t := e.tabviewOf(tv)
	if t == nil {
		return 0
	}
	body := t.body.rect
	tab := e.newObject(engine.KindTab, t.body.id, index, engine.Rect{Width: body.Width, Height: body.Height})
	if tab == nil {
		return 0
	}
	tab.text = e.heap.cString(name)
	t.tabs = append(t.tabs, tab)
	return tab.id
}

func (e *Engine) TabviewGetTabBar(tv engine.Obj, index int) engine.Obj {
	if t := e.tabviewOf(tv); t != nil {
		t.bar.index = index
		return t.bar.id
	}
	return 0
}

func (e *Engine) TabviewGetTabContent(tv engine.Obj, index int) engine.Obj {
	if t := e.tabviewOf(tv); t != nil {
		t.body.index = index
		return t.body.id
	}
	return 0
}

func (e *Engine) TabviewSetActive(tv engine.Obj, tab int, anim bool) {
	t := e.tabviewOf(tv)
	if t == nil || tab < 0 || tab >= len(t.tabs) {
		return
	}
	t.active = tab
	e.dirty = true
}

func (e *Engine) DeleteObject(o engine.Obj) {
	obj := e.objs[o]
	if obj == nil {
		e.badDeletes++
		log.Printf("WARN soft DeleteObject: unknown object %d", o)
		return
	}
	if p := obj.parent; p != nil {
		for i, c := range p.children {
			if c == obj {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
		if p.tabview != nil {
			p.tabview.forget(obj)
		}
	}
	e.drop(obj)
	e.dirty = true
}

func (t *tabview) forget(o *object) {
	switch o {
	case t.bar:
		t.bar = &object{}
	case t.body:
		t.body = &object{}
		t.tabs = nil
	}
}

func (e *Engine) drop(o *object) {
	for _, c := range o.children {
		e.drop(c)
	}
	delete(e.objs, o.id)
	if e.screen == o {
		e.screen = nil
	}
}

func (e *Engine) ScreenLoad(pageIndex int, o engine.Obj) {
	obj := e.objs[o]
	if obj == nil {
		return
	}
	e.screen = obj
	e.dirty = true
}

func (e *Engine) SetText(o engine.Obj, text engine.Ptr) {
	if obj := e.objs[o]; obj != nil {
		obj.text = e.heap.cString(text)
		e.dirty = true
	}
}

func (e *Engine) SetImageSrc(o engine.Obj, img engine.Ptr) {
	if obj := e.objs[o]; obj != nil {
		obj.img = img
		e.dirty = true
	}
}

func (e *Engine) AddFlag(o engine.Obj, flag uint32) {
	if obj := e.objs[o]; obj != nil {
		obj.flags |= flag
		e.dirty = true
	}
}

func (e *Engine) ClearFlag(o engine.Obj, flag uint32) {
	if obj := e.objs[o]; obj != nil {
		obj.flags &^= flag
		e.dirty = true
	}
}

func (e *Engine) AddState(o engine.Obj, state uint32) {
	if obj := e.objs[o]; obj != nil {
		obj.state |= state
		e.dirty = true
	}
}

func (e *Engine) ClearState(o engine.Obj, state uint32) {
	if obj := e.objs[o]; obj != nil {
		obj.state &^= state
		e.dirty = true
	}
}

func (e *Engine) setLocal(o engine.Obj, s localStyle) {
	obj := e.objs[o]
	if obj == nil {
		return
	}
	for i := range obj.styles {
		if obj.styles[i].prop == s.prop && obj.styles[i].selector == s.selector {
			obj.styles[i] = s
			e.dirty = true
			return
		}
	}
	obj.styles = append(obj.styles, s)
	e.dirty = true
}

func (e *Engine) SetLocalStyleColor(o engine.Obj, prop uint32, color uint32, selector uint32) {
	e.setLocal(o, localStyle{prop: prop, selector: selector, kind: styleColor, color: color})
}

func (e *Engine) SetLocalStyleNum(o engine.Obj, prop uint32, value int32, selector uint32) {
	e.setLocal(o, localStyle{prop: prop, selector: selector, kind: styleNum, num: value})
}

func (e *Engine) SetLocalStyleBuiltInFont(o engine.Obj, prop uint32, index int, selector uint32) {
	e.setLocal(o, localStyle{prop: prop, selector: selector, kind: styleBuiltInFont, builtIn: index})
}

func (e *Engine) SetLocalStyleFont(o engine.Obj, prop uint32, f engine.Ptr, selector uint32) {
	e.setLocal(o, localStyle{prop: prop, selector: selector, kind: styleFont, font: f})
}

// Introspection

// lookup returns the local style that best matches part and state: same
// part, state bits a subset of state, most specific wins.
func (o *object) lookup(part, state, prop uint32) *localStyle {
	var best *localStyle
	bestBits := -1
	for i := range o.styles {
		s := &o.styles[i]
		if s.prop != prop || s.selector&engine.PartMask != part&engine.PartMask {
			continue
		}
		st := s.selector & engine.StateMask
		if st&^state != 0 {
			continue
		}
		if n := bits.OnesCount32(st); n > bestBits {
			best, bestBits = s, n
		}
	}
	return best
}

func (e *Engine) ObjGetStylePropColor(o engine.Obj, part, state, prop uint32) uint32 {
	obj := e.objs[o]
	if obj == nil {
		return 0
	}
	if s := obj.lookup(part, state, prop); s != nil && s.kind == styleColor {
		return s.color
	}
	return e.themeColor(obj, engine.StylePropFromCode(e.version, prop))
}

func (e *Engine) ObjGetStylePropNum(o engine.Obj, part, state, prop uint32) int32 {
	obj := e.objs[o]
	if obj == nil {
		return 0
	}
	if s := obj.lookup(part, state, prop); s != nil && s.kind == styleNum {
		return s.num
	}
	return e.themeNum(obj, engine.StylePropFromCode(e.version, prop))
}

func (e *Engine) ObjGetStylePropBuiltInFont(o engine.Obj, part, state, prop uint32) int {
	obj := e.objs[o]
	if obj == nil {
		return -1
	}
	if s := obj.lookup(part, state, prop); s != nil {
		switch s.kind {
		case styleBuiltInFont:
			return s.builtIn
		case styleFont:
			return -1
		}
	}
	return engine.DefaultBuiltInFont
}

func (e *Engine) ObjGetStylePropFontAddr(o engine.Obj, part, state, prop uint32) engine.Ptr {
	obj := e.objs[o]
	if obj == nil {
		return 0
	}
	if s := obj.lookup(part, state, prop); s != nil && s.kind == styleFont {
		return s.font
	}
	return 0
}

func (e *Engine) ObjHasFlag(o engine.Obj, flag uint32) bool {
	obj := e.objs[o]
	return obj != nil && flag != 0 && obj.flags&flag == flag
}

// Fonts

func (e *Engine) LoadFont(path engine.Ptr) engine.Ptr {
	p := e.heap.cString(path)
	addr, ok := strings.CutPrefix(p, "M:")
	if !ok {
		log.Printf("WARN soft LoadFont: unsupported path %q", p)
		return 0
	}
	n, err := strconv.ParseUint(addr, 10, 32)
	if err != nil {
		log.Printf("WARN soft LoadFont: bad address in %q: %v", p, err)
		return 0
	}
	data := e.heap.bytes(engine.Ptr(n))
	if len(data) == 0 {
		log.Printf("WARN soft LoadFont: nothing allocated at %d", n)
		return 0
	}
	// the caller frees the source buffer right after loading
	face, name := parseFace(append([]byte(nil), data...))
	handle := e.heap.malloc(16)
	if handle == 0 {
		return 0
	}
	e.fonts[handle] = &loadedFont{face: face, name: name}
	return handle
}

func (e *Engine) FreeFont(f engine.Ptr) {
	lf, ok := e.fonts[f]
	if !ok {
		e.heap.badFrees++
		return
	}
	if c, ok := lf.face.(interface{ Close() error }); ok {
		c.Close()
	}
	delete(e.fonts, f)
	e.heap.release(f)
	e.dirty = true
}

// Timeline

func (e *Engine) ClearTimeline() {
	e.timeline = 0
}

func (e *Engine) SetTimelinePosition(pos float32) {
	e.timeline = pos
	e.dirty = true
}

// Flow

func (e *Engine) GetFlowState(parentFlowState int, pageIndex int) int {
	key := parentFlowState<<16 | pageIndex
	if s, ok := e.flowStates[key]; ok {
		return s
	}
	s := len(e.flowStates) + 1
	e.flowStates[key] = s
	return s
}

var _ engine.Engine = (*Engine)(nil)
