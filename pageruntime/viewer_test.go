package pageruntime

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/engine/soft"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/render"
)

func mountViewer(t *testing.T, h *harness) *PageViewerRuntime {
	t.Helper()
	v := NewPageViewerRuntime(120, 80, h.options())
	v.Mount()
	h.pump(1)
	require.True(t, v.IsMounted())
	return v
}

func TestPageViewer_SwapsWithoutRebuilding(t *testing.T) {
	h := newHarness(t, demoYAML)
	main, settings := h.store.Project.Pages[0], h.store.Project.Pages[1]
	v := mountViewer(t, h)
	eng := h.last()

	assert.Same(t, main, v.Current())
	mainRoot := main.Obj(v.ID())
	require.NotZero(t, mainRoot)
	assert.Equal(t, mainRoot, eng.Screen())

	for i := 0; i < 3; i++ {
		h.store.SelectPage(settings)
		h.pump(1)
		assert.Equal(t, eng.Screen(), settings.Obj(v.ID()))
		assert.Zero(t, main.Obj(v.ID()), "hidden page keeps no live handles")

		h.store.SelectPage(main)
		h.pump(1)
		assert.Equal(t, mainRoot, main.Obj(v.ID()))
		assert.Equal(t, mainRoot, eng.Screen())
	}

	assert.Equal(t, 1, v.BuildCount(main))
	assert.Equal(t, 1, v.BuildCount(settings))
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0}, eng.screenLoads)
	for _, w := range main.Widgets() {
		assert.True(t, eng.Exists(w.Obj(v.ID())), "restored handles point at live objects")
	}
	assert.Zero(t, eng.Stats().BadDeletes)
}

func TestPageViewer_FlowState(t *testing.T) {
	h := newHarness(t, demoYAML)
	v := mountViewer(t, h)
	settings := h.store.Project.Pages[1]
	h.store.SelectPage(settings)
	h.pump(1)

	main := v.FlowState(h.store.Project.Pages[0])
	assert.NotZero(t, main)
	assert.NotZero(t, v.FlowState(settings))
	assert.NotEqual(t, main, v.FlowState(settings))
}

func TestPageViewer_WidgetIndices(t *testing.T) {
	h := newHarness(t, demoYAML)
	main, settings := h.store.Project.Pages[0], h.store.Project.Pages[1]
	v := mountViewer(t, h)
	eng := h.last()
	require.Equal(t, 3, h.store.Identifiers.MaxWidgetIndex())

	seen := map[int]*project.Widget{}
	collect := func(page *project.Page) {
		for _, w := range page.Widgets() {
			i := eng.Index(w.Obj(v.ID()))
			if prev, dup := seen[i]; dup {
				t.Errorf("index %d given to %s and %s", i, prev.Type, w.Type)
			}
			seen[i] = w
			if id, ok := h.store.Identifiers.Index(w); ok {
				assert.Equal(t, id, i, "identified widget %q", w.Name)
			} else {
				assert.Greater(t, i, 3, "auto index of %s", w.Type)
			}
		}
	}
	collect(main)
	h.store.SelectPage(settings)
	h.pump(1)
	collect(settings)

	got := map[string]int{}
	for i, w := range seen {
		if w.Name != "" {
			got[w.Name] = i
		}
	}
	want := map[string]int{"title": 0, "ok": 1, "deep": 2, "heading": 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("identifier indices (-want +got):\n%s", diff)
	}
}

func TestPageViewer_NamedAfterMountKeepsIndicesUnique(t *testing.T) {
	h := newHarness(t, demoYAML)
	main, settings := h.store.Project.Pages[0], h.store.Project.Pages[1]
	v := mountViewer(t, h)
	eng := h.last()

	seen := map[int]*project.Widget{}
	collect := func(page *project.Page) {
		for _, w := range page.Widgets() {
			o := w.Obj(v.ID())
			if o == 0 {
				continue
			}
			i := eng.Index(o)
			if prev, dup := seen[i]; dup {
				t.Errorf("index %d given to %s and %s", i, prev.Type, w.Type)
			}
			seen[i] = w
		}
	}
	collect(main)
	require.Contains(t, seen, 4, "Main's unnamed widgets are numbered from 4")

	button := settings.Screen.Children[1]
	h.store.UpdatePage(settings, func(p *project.Page) { button.Name = "save" })
	h.pump(1)
	named, ok := h.store.Identifiers.Index(button)
	require.True(t, ok)
	require.Equal(t, 4, named)

	h.store.SelectPage(settings)
	h.pump(1)
	require.Same(t, settings, v.Current())
	collect(settings)
	assert.Equal(t, 3, eng.Index(settings.Screen.Children[0].Obj(v.ID())))
	assert.Greater(t, eng.Index(button.Obj(v.ID())), 4)
	taken := 0
	for _, d := range h.diagsOf(diag.KindProgrammer) {
		if d.Op == "pageruntime.PageViewer.GetWidgetIndex" {
			taken++
		}
	}
	assert.Equal(t, 1, taken)
}

func TestPageViewer_RetriesPageWithoutRoot(t *testing.T) {
	h := newHarness(t, demoYAML)
	main, settings := h.store.Project.Pages[0], h.store.Project.Pages[1]
	v := mountViewer(t, h)
	eng := h.last()

	h.store.UpdatePage(settings, func(p *project.Page) { p.Screen.Type = "Bogus" })
	h.store.SelectPage(settings)
	h.pump(1)
	assert.Zero(t, settings.Obj(v.ID()))
	assert.Equal(t, 1, v.BuildCount(settings))
	assert.Len(t, h.diagsOf(diag.KindMaterialization), 1)

	h.store.UpdatePage(settings, func(p *project.Page) { p.Screen.Type = project.TypeScreen })
	h.store.SelectPage(main)
	h.pump(1)
	h.store.SelectPage(settings)
	h.pump(1)

	assert.Equal(t, 2, v.BuildCount(settings))
	root := settings.Obj(v.ID())
	require.NotZero(t, root)
	assert.Equal(t, root, eng.Screen())
	assert.Equal(t, []int{0, 0, 1}, eng.screenLoads)
}

func TestPageViewer_RebuildsShownPageWithoutRootWhenEdited(t *testing.T) {
	h := newHarness(t, demoYAML)
	settings := h.store.Project.Pages[1]
	v := mountViewer(t, h)
	eng := h.last()

	h.store.UpdatePage(settings, func(p *project.Page) { p.Screen.Type = "Bogus" })
	h.store.SelectPage(settings)
	h.pump(1)
	require.Zero(t, settings.Obj(v.ID()))

	h.store.UpdatePage(settings, func(p *project.Page) { p.Screen.Type = project.TypeScreen })
	h.pump(1)
	assert.Equal(t, 2, v.BuildCount(settings))
	require.NotZero(t, settings.Obj(v.ID()))
	assert.Equal(t, settings.Obj(v.ID()), eng.Screen())

	// a page with a root is left alone by later edits
	h.store.UpdatePage(settings, func(p *project.Page) {})
	h.pump(1)
	assert.Equal(t, 2, v.BuildCount(settings))
}

func TestPageViewer_UnmountDetachesEveryPage(t *testing.T) {
	h := newHarness(t, demoYAML)
	main, settings := h.store.Project.Pages[0], h.store.Project.Pages[1]
	v := mountViewer(t, h)
	eng := h.last()
	mainRoot := main.Obj(v.ID())
	h.store.SelectPage(settings)
	h.pump(1)
	settingsRoot := settings.Obj(v.ID())

	v.Unmount()
	assert.Equal(t, 1, eng.deletes[mainRoot])
	assert.Equal(t, 1, eng.deletes[settingsRoot])
	for _, page := range []*project.Page{main, settings} {
		assert.False(t, page.IsAttached(v.ID()))
		for _, w := range page.Widgets() {
			assert.Zero(t, w.Obj(v.ID()))
		}
	}
	assert.Zero(t, v.BuildCount(main))
	v.Unmount()

	h.store.SelectPage(main)
	h.pump(1)
	assert.Equal(t, []int{0, 1}, eng.screenLoads)
}

func TestNonActiveViewer_RegistersWithOwner(t *testing.T) {
	h := newHarness(t, demoYAML)
	main, settings := h.store.Project.Pages[0], h.store.Project.Pages[1]
	v := mountViewer(t, h)
	h.store.SelectPage(settings)
	h.pump(1)
	ownerHandles := getObjects(v.ID(), settings)

	canvas := render.NewImageCanvas()
	opts := h.options()
	opts.Canvas = canvas
	n := NewNonActivePageViewerRuntime(v, main, 120, 80, opts)
	n.Mount()
	assert.Nil(t, v.NonActiveViewer(main), "registration waits for the engine")
	h.pump(1)

	own := h.last()
	require.True(t, n.IsMounted())
	assert.Same(t, n, v.NonActiveViewer(main))
	root := main.Obj(n.ID())
	require.NotZero(t, root)
	assert.Equal(t, root, own.Screen())
	assert.Equal(t, uint64(1), canvas.Frames())
	assert.Equal(t, 1, v.BuildCount(main), "the owner is not asked to rebuild")

	n.Unmount()
	assert.Nil(t, v.NonActiveViewer(main))
	assert.Equal(t, 1, own.deletes[root])
	assert.Zero(t, main.Obj(n.ID()))
	assert.Equal(t, ownerHandles, getObjects(v.ID(), settings))
}

func TestNonActiveViewer_WithoutOwner(t *testing.T) {
	h := newHarness(t, demoYAML)
	page := h.store.Project.Pages[1]
	n := NewNonActivePageViewerRuntime(nil, page, 0, 0, h.options())
	n.Mount()
	h.pump(1)
	require.True(t, n.IsMounted())
	w, hgt := n.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, hgt)
	n.Unmount()
	n.Unmount()
	assert.False(t, n.IsMounted())
}

func hiddenCode(t *testing.T) uint32 {
	c, ok := engine.FlagCode(engine.V9, "HIDDEN")
	require.True(t, ok)
	return c
}

func visibleTypes(s *StylePreviewRuntime, eng *countingEngine, hidden uint32) []project.WidgetType {
	var out []project.WidgetType
	for _, w := range s.Page().Screen.Children {
		if !eng.ObjHasFlag(w.Obj(s.ID()), hidden) {
			out = append(out, w.Type)
		}
	}
	return out
}

func TestStylePreview_ShowsOnlyTargetWidget(t *testing.T) {
	h := newHarness(t, demoYAML)
	s := NewStylePreviewRuntime(h.options())
	s.Mount()
	h.pump(1)
	eng := h.last()
	hidden := hiddenCode(t)

	require.Len(t, s.Page().Screen.Children, 7)
	assert.Empty(t, visibleTypes(s, eng, hidden), "nothing is shown without a style")

	loud := h.store.Project.FindStyle("loud")
	canvas := render.NewImageCanvas()
	s.SetSelectedStyle(loud, canvas)
	h.pump(1)

	assert.Equal(t, []project.WidgetType{project.TypeButton}, visibleTypes(s, eng, hidden))
	btn := s.ObjFor(loud)
	require.NotZero(t, btn)
	assert.Equal(t, s.WidgetFor(project.TypeButton).Obj(s.ID()), btn)
	bg := s.StylePropCode(engine.StylePropBgColor)
	assert.Equal(t, uint32(0xFFFF0000), eng.ObjGetStylePropColor(btn, 0, 0, bg))
	assert.Positive(t, canvas.Frames())

	calm := h.store.Project.FindStyle("calm")
	s.SetSelectedStyle(calm, canvas)
	h.pump(1)
	assert.Equal(t, []project.WidgetType{project.TypeLabel}, visibleTypes(s, eng, hidden))
	assert.Empty(t, s.WidgetFor(project.TypeButton).UseStyle)
}

func TestStylePreview_AppliesUIState(t *testing.T) {
	h := newHarness(t, demoYAML)
	s := NewStylePreviewRuntime(h.options())
	s.Mount()
	h.pump(1)
	eng := h.last()

	s.SetSelectedStyle(h.store.Project.FindStyle("loud"), render.NewImageCanvas())
	h.store.SetUIState("CHECKED|PRESSED")
	h.pump(1)
	assert.Equal(t, uint64(2), s.Stats().Rebuilds, "both changes land in one rebuild")

	state := eng.State(s.ObjFor(h.store.Project.FindStyle("loud")))
	assert.Equal(t, uint32(0x21), state&0x21)
}

func TestStylePreview_NoCanvasHidesEverything(t *testing.T) {
	h := newHarness(t, demoYAML)
	s := NewStylePreviewRuntime(h.options())
	s.Mount()
	h.pump(1)
	eng := h.last()

	s.SetSelectedStyle(h.store.Project.FindStyle("loud"), nil)
	h.pump(2)
	assert.Empty(t, visibleTypes(s, eng, hiddenCode(t)))
	assert.Equal(t, uint64(3), s.Stats().Frames, "the engine keeps stepping")
}

func TestStylePreview_ScreenStyle(t *testing.T) {
	h := newHarness(t, demoYAML)
	screenStyle := &project.Style{Name: "backdrop", ForWidgetType: project.TypeScreen, Definition: project.StyleDefinition{
		"MAIN": {"DEFAULT": {"bg_color": "#0000ff"}},
	}}
	h.store.Project.Styles = append(h.store.Project.Styles, screenStyle)

	s := NewStylePreviewRuntime(h.options())
	s.Mount()
	h.pump(1)
	s.SetSelectedStyle(screenStyle, render.NewImageCanvas())
	h.pump(1)
	eng := h.last()

	assert.Empty(t, visibleTypes(s, eng, hiddenCode(t)))
	root := s.Page().Obj(s.ID())
	assert.Equal(t, uint32(0xFF0000FF), eng.ObjGetStylePropColor(root, 0, 0, s.StylePropCode(engine.StylePropBgColor)))
	assert.Zero(t, s.ObjFor(screenStyle), "the screen is not a gallery widget")
}

func TestReflect_OncePerVersion(t *testing.T) {
	h := newHarness(t, demoYAML)
	versions := NewReflectedVersions()

	var reports []Report
	started := Reflect(versions, h.options(), func(r Report) { reports = append(reports, r) })
	require.True(t, started)
	h.pump(1)
	require.Len(t, reports, 1)
	assert.Equal(t, engine.V9, reports[0].Version)
	assert.Len(t, reports[0].Widgets, 7)
	assert.Empty(t, reports[0].Mismatches())
	assert.Empty(t, reports[0].String())
	assert.True(t, versions.Has(engine.V9))

	assert.False(t, Reflect(versions, h.options(), func(r Report) { reports = append(reports, r) }))
	h.pump(2)
	assert.Len(t, reports, 1)
	assert.Len(t, h.engines, 1, "the second call starts no engine")

	eng := h.engines[0]
	assert.Zero(t, eng.Stats().Frames, "reflection never renders")
	assert.Len(t, eng.deletes, 1, "gallery root is deleted afterwards")
}

func TestReflect_ReportsDeclaredDefaultsThatDisagree(t *testing.T) {
	h := newHarness(t, demoYAML)
	opts := h.options()
	opts.Version = engine.V8

	var rep Report
	require.True(t, Reflect(NewReflectedVersions(), opts, func(r Report) { rep = r }))
	h.pump(1)

	require.Len(t, rep.Widgets, 6, "no scale before 9.0")
	mm := rep.Mismatches()
	require.Len(t, mm, 1)
	assert.Equal(t, project.TypeSpinbox, mm[0].Type)
	assert.Equal(t, mm[0].InitFlags, mm[0].Reflect)
	assert.Contains(t, mm[0].DefaultFlags, "SCROLL_WITH_ARROW")
	assert.Len(t, h.diagsOf(diag.KindReflectionMismatch), 1)

	out := rep.String()
	assert.Contains(t, out, "<LVGLReflectEditorRuntime>\n\tLVGL version: 8.3\n\tSpinbox\n")
	assert.Contains(t, out, "\t\tInitFlags   : ")
	assert.Contains(t, out, "\t\tDefaultFlags: ")
	assert.Contains(t, out, "\t\tReflect     : ")
	assert.True(t, strings.HasSuffix(out, "/<LVGLReflectEditorRuntime>"))
}

func TestReflect_EngineDisagrees(t *testing.T) {
	h := newHarness(t, demoYAML, soft.WithDefaultFlags(engine.KindLabel,
		"CHECKABLE|CLICK_FOCUSABLE|GESTURE_BUBBLE|PRESS_LOCK|SCROLL_CHAIN_HOR|SCROLL_CHAIN_VER|SCROLL_ELASTIC|SCROLL_MOMENTUM|SCROLL_WITH_ARROW|SNAPPABLE"))

	var rep Report
	require.True(t, Reflect(NewReflectedVersions(), h.options(), func(r Report) { rep = r }))
	h.pump(1)

	mm := rep.Mismatches()
	require.Len(t, mm, 1)
	assert.Equal(t, project.TypeLabel, mm[0].Type)
	assert.Equal(t, mm[0].InitFlags, mm[0].DefaultFlags)
	assert.Contains(t, mm[0].Reflect, "CHECKABLE")
}

type noScreenEngine struct{ *countingEngine }

func (e noScreenEngine) CreateObject(kind engine.Kind, parent engine.Obj, index int, r engine.Rect) engine.Obj {
	if kind == engine.KindScreen {
		return 0
	}
	return e.countingEngine.CreateObject(kind, parent, index, r)
}

type noScreenFactory struct{ h *harness }

func (f noScreenFactory) New(v engine.Version, ready func()) engine.Engine {
	return noScreenEngine{f.h.New(v, ready).(*countingEngine)}
}

func TestReflect_GalleryFailureStillFinishes(t *testing.T) {
	h := newHarness(t, demoYAML)
	versions := NewReflectedVersions()
	opts := h.options()
	opts.Factory = noScreenFactory{h}

	var reports []Report
	require.True(t, Reflect(versions, opts, func(r Report) { reports = append(reports, r) }))
	h.pump(2)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Failed)
	assert.Empty(t, reports[0].Widgets)
	assert.Len(t, h.diagsOf(diag.KindMaterialization), 1)
	assert.False(t, versions.Has(engine.V9), "a failed version can be reflected again")

	require.True(t, Reflect(versions, h.options(), func(r Report) { reports = append(reports, r) }))
	h.pump(1)
	require.Len(t, reports, 2)
	assert.False(t, reports[1].Failed)
	assert.Len(t, reports[1].Widgets, 7)
	assert.True(t, versions.Has(engine.V9))
}

func TestReflectRuntime_ReportsFailure(t *testing.T) {
	h := newHarness(t, demoYAML)
	opts := h.options()
	opts.Factory = noScreenFactory{h}
	var r *ReflectRuntime
	r = NewReflectRuntime(opts, func(Report) { r.Close() })
	r.Mount()
	h.pump(1)
	require.NotNil(t, r.Report())
	assert.True(t, r.Report().Failed)
	assert.False(t, r.IsMounted())
}
