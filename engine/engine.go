// Package engine defines the contract between the page runtimes and an
// external rendering engine. The engine is treated as a black box: it owns
// its own linear memory and hands out integer handles for objects, fonts and
// allocated buffers.
package engine

import "fmt"

// Ptr is an address in the engine's linear memory. 0 is the null pointer.
type Ptr uint32

// Obj is an opaque handle of a live engine object. 0 means "no object".
type Obj uint32

// Version identifies the engine release a project targets.
type Version string

const (
	V8 Version = "8.3"
	V9 Version = "9.0"
)

// Versions lists every supported engine version, oldest first.
var Versions = []Version{V8, V9}

// ParseVersion validates a version label.
func ParseVersion(s string) (Version, error) {
	for _, v := range Versions {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("engine: unknown version %q", s)
}

// AnimOff disables animation for calls that accept an animation switch.
const AnimOff = false

// Kind selects the constructor used for a generic engine object.
type Kind uint8

const (
	KindScreen Kind = iota
	KindContainer
	KindButton
	KindLabel
	KindImage
	KindTabview
	KindScale
	KindSpinbox
	KindTab
)

var kindNames = [...]string{"Screen", "Container", "Button", "Label", "Image", "Tabview", "Scale", "Spinbox", "Tab"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Rect is the geometry passed to every constructor, in display pixels.
type Rect struct {
	Left, Top, Width, Height int
}

// ScaleParams configures a scale object.
type ScaleParams struct {
	Mode           int
	MinorRange     int
	MajorRange     int
	TotalTickCount int
	MajorTickEvery int
	ShowLabels     bool
}

// SpinboxParams configures a spinbox object.
type SpinboxParams struct {
	DigitCount        int
	SeparatorPosition int
	Min               int
	Max               int
	Rollover          bool
	Step              int
	Value             int
}

// TabviewParams configures a tabview object.
type TabviewParams struct {
	Position string // TOP, BOTTOM, LEFT, RIGHT
	Size     int
}

// InitConfig is passed to Loop.Init once per engine instance.
type InitConfig struct {
	Width, Height int
	DarkTheme     bool
	// UTCOffsetQuarterHours is the local offset from UTC in 15 minute steps.
	UTCOffsetQuarterHours int
}

// Memory is the engine's linear memory.
type Memory interface {
	// Malloc returns 0 when the allocation cannot be satisfied.
	Malloc(size int) Ptr
	Free(p Ptr)
	// AllocateUTF8 copies s plus a terminating zero into engine memory.
	AllocateUTF8(s string) Ptr
	// Heap returns the current view of engine memory. The slice may be
	// replaced by later allocations, so it must not be retained.
	Heap() []byte
}

// Loop drives the engine.
type Loop interface {
	Init(cfg InitConfig) error
	MainLoop()
	// SyncedBuffer returns the address of a width*height*4 RGBA pixel
	// buffer ready for display, or 0 if no new frame was produced.
	SyncedBuffer() Ptr
}

// Objects is the object lifecycle and mutation surface.
type Objects interface {
	CreateObject(kind Kind, parent Obj, index int, r Rect) Obj
	CreateScale(parent Obj, index int, r Rect, p ScaleParams) Obj
	CreateSpinbox(parent Obj, index int, r Rect, p SpinboxParams) Obj
	CreateTabview(parent Obj, index int, r Rect, p TabviewParams) Obj
	TabviewAddTab(tabview Obj, index int, name Ptr) Obj
	TabviewGetTabBar(tabview Obj, index int) Obj
	TabviewGetTabContent(tabview Obj, index int) Obj
	TabviewSetActive(tabview Obj, tab int, anim bool)
	DeleteObject(o Obj)
	ScreenLoad(pageIndex int, o Obj)

	SetText(o Obj, text Ptr)
	SetImageSrc(o Obj, img Ptr)
	AddFlag(o Obj, flag uint32)
	ClearFlag(o Obj, flag uint32)
	AddState(o Obj, state uint32)
	ClearState(o Obj, state uint32)

	SetLocalStyleColor(o Obj, prop uint32, color uint32, selector uint32)
	SetLocalStyleNum(o Obj, prop uint32, value int32, selector uint32)
	SetLocalStyleBuiltInFont(o Obj, prop uint32, index int, selector uint32)
	SetLocalStyleFont(o Obj, prop uint32, font Ptr, selector uint32)
}

// Introspection reads back the engine's view of an object.
type Introspection interface {
	ObjGetStylePropColor(o Obj, part, state, prop uint32) uint32
	ObjGetStylePropNum(o Obj, part, state, prop uint32) int32
	// ObjGetStylePropBuiltInFont returns -1 when the font is not built in.
	ObjGetStylePropBuiltInFont(o Obj, part, state, prop uint32) int
	ObjGetStylePropFontAddr(o Obj, part, state, prop uint32) Ptr
	ObjHasFlag(o Obj, flag uint32) bool
}

// Fonts loads binary fonts from engine memory.
type Fonts interface {
	// LoadFont loads the font named by the zero terminated path string.
	// Paths of the form "M:<addr>" refer to a font image in engine memory.
	LoadFont(path Ptr) Ptr
	FreeFont(font Ptr)
}

// Timeline controls the engine's animation timeline.
type Timeline interface {
	ClearTimeline()
	SetTimelinePosition(pos float32)
}

// Flow exposes the flow execution state attached to pages.
type Flow interface {
	GetFlowState(parentFlowState int, pageIndex int) int
}

// Engine is one running engine instance.
type Engine interface {
	Memory
	Loop
	Objects
	Introspection
	Fonts
	Timeline
	Flow
	Version() Version
}

// Factory starts engine instances. Engine startup is asynchronous: ready is
// called once, later, when the returned engine can be initialized.
type Factory interface {
	New(v Version, ready func()) Engine
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(v Version, ready func()) Engine

func (f FactoryFunc) New(v Version, ready func()) Engine {
	return f(v, ready)
}
