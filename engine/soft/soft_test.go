package soft

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fietser28/studio/engine"
)

func newInited(t *testing.T, v engine.Version, opts ...Option) *Engine {
	t.Helper()
	e := New(v, opts...)
	require.NoError(t, e.Init(engine.InitConfig{Width: 64, Height: 48}))
	return e
}

func TestHeap_ReusesFreedBlocks(t *testing.T) {
	e := New(engine.V9)
	a := e.Malloc(10)
	b := e.Malloc(10)
	require.NotZero(t, a)
	require.NotZero(t, b)
	assert.NotEqual(t, a, b)

	e.Free(a)
	c := e.Malloc(16)
	assert.Equal(t, a, c, "first fit reuses the freed block")

	e.Free(c)
	e.Free(c)
	assert.Equal(t, 1, e.Stats().BadFrees)
}

func TestHeap_CoalescesNeighbours(t *testing.T) {
	e := New(engine.V9)
	a := e.Malloc(8)
	b := e.Malloc(8)
	e.Malloc(8)
	e.Free(b)
	e.Free(a)
	assert.Equal(t, a, e.Malloc(16))
}

func TestHeap_Limit(t *testing.T) {
	e := New(engine.V9, WithHeapLimit(64))
	assert.NotZero(t, e.Malloc(32))
	assert.Zero(t, e.Malloc(64))
	assert.Zero(t, e.Malloc(0))
}

func TestAllocateUTF8(t *testing.T) {
	e := New(engine.V8)
	p := e.AllocateUTF8("héllo")
	require.NotZero(t, p)
	assert.Equal(t, "héllo", e.heap.cString(p))
	assert.Equal(t, byte(0), e.Heap()[int(p)+len("héllo")])
}

func TestInit(t *testing.T) {
	e := New(engine.V9)
	assert.Error(t, e.Init(engine.InitConfig{Width: 0, Height: 10}))
	require.NoError(t, e.Init(engine.InitConfig{Width: 4, Height: 4}))
	assert.Error(t, e.Init(engine.InitConfig{Width: 4, Height: 4}))
	assert.True(t, e.Initialized())
}

func TestMainLoop_SyncsOnlyNewFrames(t *testing.T) {
	e := newInited(t, engine.V9)
	assert.Zero(t, e.SyncedBuffer())

	e.MainLoop()
	fb := e.SyncedBuffer()
	require.NotZero(t, fb)
	assert.Zero(t, e.SyncedBuffer())

	e.MainLoop()
	assert.Zero(t, e.SyncedBuffer(), "nothing changed")

	scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 64, Height: 48})
	e.ScreenLoad(-1, scr)
	e.MainLoop()
	assert.Equal(t, fb, e.SyncedBuffer())
	assert.Equal(t, uint64(3), e.Stats().Frames)
}

func TestRender_DrawsScreenBackground(t *testing.T) {
	e := newInited(t, engine.V9)
	scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 64, Height: 48})
	bg, _ := engine.StylePropCode(engine.V9, engine.StylePropBgColor)
	e.SetLocalStyleColor(scr, bg, 0xFFFF0000, 0)
	e.ScreenLoad(-1, scr)
	e.MainLoop()

	fb := e.SyncedBuffer()
	px := e.Heap()[fb : fb+4]
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF}, px)
}

func TestObjects_CreateAndDelete(t *testing.T) {
	e := newInited(t, engine.V9)
	scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 64, Height: 48})
	btn := e.CreateObject(engine.KindButton, scr, 1, engine.Rect{Width: 20, Height: 10})
	lbl := e.CreateObject(engine.KindLabel, btn, 2, engine.Rect{Width: 20, Height: 10})
	require.NotZero(t, lbl)
	assert.Equal(t, []engine.Obj{btn}, e.Children(scr))

	assert.Zero(t, e.CreateObject(engine.KindLabel, 999, 0, engine.Rect{}), "unknown parent")

	e.DeleteObject(btn)
	assert.False(t, e.Exists(btn))
	assert.False(t, e.Exists(lbl))
	assert.Empty(t, e.Children(scr))

	e.DeleteObject(btn)
	assert.Equal(t, 1, e.Stats().BadDeletes)
}

func TestScale_OnlyOnV9(t *testing.T) {
	for _, v := range engine.Versions {
		e := newInited(t, v)
		scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 64, Height: 48})
		o := e.CreateScale(scr, 0, engine.Rect{Width: 60, Height: 20}, engine.ScaleParams{TotalTickCount: 11, MajorTickEvery: 5})
		if v == engine.V9 {
			assert.NotZero(t, o)
		} else {
			assert.Zero(t, o)
		}
	}
}

func TestFlags_DefaultsAndOverride(t *testing.T) {
	e := newInited(t, engine.V9)
	scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 64, Height: 48})
	lbl := e.CreateObject(engine.KindLabel, scr, 0, engine.Rect{})
	clickable, _ := engine.FlagCode(engine.V9, "CLICKABLE")
	assert.False(t, e.ObjHasFlag(lbl, clickable))
	e.AddFlag(lbl, clickable)
	assert.True(t, e.ObjHasFlag(lbl, clickable))

	e2 := newInited(t, engine.V9, WithDefaultFlags(engine.KindLabel, "CLICKABLE|HIDDEN"))
	scr2 := e2.CreateObject(engine.KindScreen, 0, 0, engine.Rect{})
	lbl2 := e2.CreateObject(engine.KindLabel, scr2, 0, engine.Rect{})
	hidden, _ := engine.FlagCode(engine.V9, "HIDDEN")
	assert.Equal(t, clickable|hidden, e2.Flags(lbl2))
}

func TestStyleLookup_MostSpecificStateWins(t *testing.T) {
	e := newInited(t, engine.V8)
	scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 10, Height: 10})
	bw, _ := engine.StylePropCode(engine.V8, engine.StylePropBorderWidth)
	checked := engine.StateCodes()["CHECKED"]
	pressed := engine.StateCodes()["PRESSED"]

	e.SetLocalStyleNum(scr, bw, 1, 0)
	e.SetLocalStyleNum(scr, bw, 2, checked)
	e.SetLocalStyleNum(scr, bw, 3, checked|pressed)
	e.SetLocalStyleNum(scr, bw, 9, engine.PartCodes(engine.V8)["SCROLLBAR"])

	assert.Equal(t, int32(1), e.ObjGetStylePropNum(scr, 0, 0, bw))
	assert.Equal(t, int32(2), e.ObjGetStylePropNum(scr, 0, checked, bw))
	assert.Equal(t, int32(3), e.ObjGetStylePropNum(scr, 0, checked|pressed, bw))
	assert.Equal(t, int32(1), e.ObjGetStylePropNum(scr, 0, pressed, bw))
	assert.Equal(t, int32(9), e.ObjGetStylePropNum(scr, engine.PartCodes(engine.V8)["SCROLLBAR"], 0, bw))

	w, _ := engine.StylePropCode(engine.V8, engine.StylePropWidth)
	assert.Equal(t, int32(10), e.ObjGetStylePropNum(scr, 0, 0, w), "theme falls back to geometry")
}

func TestFonts_LoadFromMemory(t *testing.T) {
	e := newInited(t, engine.V9)
	mem := e.Malloc(len(goregular.TTF))
	require.NotZero(t, mem)
	copy(e.Heap()[mem:], goregular.TTF)
	path := e.AllocateUTF8(fmt.Sprintf("M:%d", mem))

	f := e.LoadFont(path)
	e.Free(path)
	e.Free(mem)
	require.NotZero(t, f)
	assert.Contains(t, e.FontName(f), "Go")
	assert.Equal(t, 1, e.Stats().Fonts)

	scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 64, Height: 48})
	font, _ := engine.StylePropCode(engine.V9, engine.StylePropTextFont)
	e.SetLocalStyleFont(scr, font, f, 0)
	assert.Equal(t, -1, e.ObjGetStylePropBuiltInFont(scr, 0, 0, font))
	assert.Equal(t, f, e.ObjGetStylePropFontAddr(scr, 0, 0, font))

	lbl := e.CreateObject(engine.KindLabel, scr, 0, engine.Rect{Width: 60, Height: 20})
	e.SetText(lbl, e.AllocateUTF8("Hi"))
	e.ScreenLoad(-1, scr)
	e.MainLoop()
	assert.NotZero(t, e.SyncedBuffer())

	e.FreeFont(f)
	assert.Equal(t, 0, e.Stats().Fonts)
	e.FreeFont(f)
	assert.Equal(t, 1, e.Stats().BadFrees)
}

func TestFonts_BadPath(t *testing.T) {
	e := newInited(t, engine.V9)
	assert.Zero(t, e.LoadFont(e.AllocateUTF8("S:/font.bin")))
	assert.Zero(t, e.LoadFont(e.AllocateUTF8("M:12345678")))
}

func TestImage_Blit(t *testing.T) {
	for _, v := range engine.Versions {
		t.Run(string(v), func(t *testing.T) {
			e := newInited(t, v)
			hdr := engine.ImageDescriptorSize(v)
			p := e.Malloc(hdr + 4)
			d := engine.ImageDescriptor{Width: 1, Height: 1, DataSize: 4, Data: p + engine.Ptr(hdr)}
			b, err := d.Encode(v)
			require.NoError(t, err)
			copy(e.Heap()[p:], b)
			copy(e.Heap()[int(p)+hdr:], []byte{0xFF, 0x00, 0x00, 0xFF}) // blue in BGRA

			scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 64, Height: 48})
			img := e.CreateObject(engine.KindImage, scr, 0, engine.Rect{Width: 1, Height: 1})
			e.SetImageSrc(img, p)
			e.ScreenLoad(-1, scr)
			e.MainLoop()

			fb := e.SyncedBuffer()
			assert.Equal(t, []byte{0, 0, 0xFF, 0xFF}, e.Heap()[fb:fb+4])
		})
	}
}

func TestTabview(t *testing.T) {
	e := newInited(t, engine.V9)
	scr := e.CreateObject(engine.KindScreen, 0, 0, engine.Rect{Width: 64, Height: 48})
	tv := e.CreateTabview(scr, 0, engine.Rect{Width: 64, Height: 48}, engine.TabviewParams{Position: "TOP"})
	require.NotZero(t, tv)
	bar := e.TabviewGetTabBar(tv, 1)
	body := e.TabviewGetTabContent(tv, 2)
	assert.NotZero(t, bar)
	assert.NotZero(t, body)

	t1 := e.TabviewAddTab(tv, 3, e.AllocateUTF8("One"))
	t2 := e.TabviewAddTab(tv, 4, e.AllocateUTF8("Two"))
	assert.Equal(t, []engine.Obj{t1, t2}, e.Children(body))
	assert.Equal(t, "Two", e.Text(t2))

	e.TabviewSetActive(tv, 1, engine.AnimOff)
	assert.Equal(t, 1, e.ActiveTab(tv))
	e.TabviewSetActive(tv, 5, engine.AnimOff)
	assert.Equal(t, 1, e.ActiveTab(tv))

	e.ScreenLoad(-1, scr)
	e.MainLoop()
	assert.NotZero(t, e.SyncedBuffer())
}

func TestFormatSpinbox(t *testing.T) {
	assert.Equal(t, "00042", formatSpinbox(engine.SpinboxParams{DigitCount: 5, Value: 42}))
	assert.Equal(t, "-12.5", formatSpinbox(engine.SpinboxParams{DigitCount: 3, SeparatorPosition: 2, Value: -125}))
}

func TestFactory_ReadyIsDeferred(t *testing.T) {
	var queued []func()
	f := NewFactory(posterFunc(func(fn func()) { queued = append(queued, fn) }))
	ready := false
	e := f.New(engine.V8, func() { ready = true })
	require.NotNil(t, e)
	assert.False(t, ready)
	require.Len(t, queued, 1)
	queued[0]()
	assert.True(t, ready)
	assert.Same(t, e, f.Last())
}

type posterFunc func(fn func())

func (p posterFunc) Post(fn func()) { p(fn) }

func TestFlowState_Stable(t *testing.T) {
	e := New(engine.V9)
	a := e.GetFlowState(0, 1)
	assert.Equal(t, a, e.GetFlowState(0, 1))
	assert.NotEqual(t, a, e.GetFlowState(0, 2))
}
