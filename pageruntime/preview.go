package pageruntime

import (
	"strings"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/reactive"
	"github.com/fietser28/studio/render"
	"github.com/fietser28/studio/widgets"
)

// Preview page size in pixels.
const (
	PreviewWidth  = 400
	PreviewHeight = 400
)

// newGalleryPage synthesizes a page holding one default instance of every
// widget type usable in an LVGL project for v, stacked on top of each
// other.
func newGalleryPage(p *project.Project, v engine.Version, name string) *project.Page {
	screen := &project.Widget{Type: project.TypeScreen, Width: PreviewWidth, Height: PreviewHeight}
	for _, t := range widgets.PaletteTypes(project.ProjectTypeLVGL, v) {
		w := widgets.NewDefault(t)
		w.Left, w.Top = 0, 0
		w.Width, w.Height = PreviewWidth, PreviewHeight
		w.LocalStyles = nil
		screen.Children = append(screen.Children, w)
	}
	page := &project.Page{Name: name, Width: PreviewWidth, Height: PreviewHeight, Screen: screen}
	p.Adopt(page)
	return page
}

// StylePreviewRuntime renders the selected style on the one widget of the
// gallery page it targets. All other widgets are hidden.
type StylePreviewRuntime struct {
	*Runtime
	page     *project.Page
	byType   map[project.WidgetType]*project.Widget
	selected *project.Style
	topic    reactive.Topic
}

// NewStylePreviewRuntime creates an unmounted style preview over a
// synthesized gallery page.
func NewStylePreviewRuntime(opts Options) *StylePreviewRuntime {
	s := &StylePreviewRuntime{
		Runtime: newRuntime("style-preview", true, opts),
		byType:  make(map[project.WidgetType]*project.Widget),
	}
	s.setSize(PreviewWidth, PreviewHeight)
	s.page = newGalleryPage(s.store.Project, s.version, "style-preview")
	for _, w := range s.page.Screen.Children {
		s.byType[w.Type] = w
	}
	s.topic = reactive.Topic("style-preview/" + s.page.ID)
	s.indexer = positionalIndexer(s.page)
	s.onReady = s.ready
	return s
}

// Page returns the gallery page.
func (s *StylePreviewRuntime) Page() *project.Page { return s.page }

// WidgetFor returns the gallery instance of t.
func (s *StylePreviewRuntime) WidgetFor(t project.WidgetType) *project.Widget {
	return s.byType[t]
}

// ObjFor returns the engine object the style is previewed on, or 0.
func (s *StylePreviewRuntime) ObjFor(st *project.Style) engine.Obj {
	if st == nil {
		return 0
	}
	if w := s.byType[st.ForWidgetType]; w != nil {
		return w.Obj(s.id)
	}
	return 0
}

// SetSelectedStyle changes the previewed style and the canvas frames go
// to. With a nil canvas nothing is shown and frames are not copied.
func (s *StylePreviewRuntime) SetSelectedStyle(st *project.Style, canvas render.Canvas) {
	s.selected = st
	s.canvas = canvas
	s.store.Hub.Notify(s.topic)
}

func (s *StylePreviewRuntime) ready() {
	s.store.Hub.Batch(func() {
		s.attach(s.page)
		s.page.ClearObj(s.id)
	})
	s.watch(s.store.Hub.Autorun("style-preview/rebuild", s.rebuild,
		s.topic,
		project.TopicUIState,
		project.TopicStyles,
		project.TopicResources,
	))
}

func (s *StylePreviewRuntime) matches(w *project.Widget) bool {
	return s.selected != nil && s.canvas != nil && w.Type == s.selected.ForWidgetType
}

func (s *StylePreviewRuntime) rebuild() {
	if !s.mounted {
		return
	}
	hub := s.store.Hub
	hub.Batch(func() {
		for _, w := range s.page.Widgets() {
			w.ClearObj(s.id)
		}

		for _, w := range s.page.Screen.Children {
			w.Flags = withoutFlag(w.Flags, "HIDDEN")
			if s.matches(w) {
				w.UseStyle = s.selected.Name
				w.States = s.store.View.UIState
				w.HiddenFlag = false
			} else {
				w.UseStyle = ""
				w.States = ""
				w.HiddenFlag = true
			}
		}
		if root := s.page.Screen; s.matches(root) {
			root.UseStyle = s.selected.Name
			root.States = s.store.View.UIState
		} else {
			root.UseStyle = ""
			root.States = ""
		}

		s.FreeStrings()
		old := s.page.Obj(s.id)
		root := widgets.Materialize(s, s.page)
		s.rebuilds++
		if root == 0 {
			s.page.SetObj(s.id, old)
			diag.Reportf("pageruntime.StylePreview.rebuild", diag.KindMaterialization, "preview page produced no root object")
			return
		}
		s.replaceRoot(s.page, -1, old, root)
		hub.Notify(project.HandlesTopic(s.page))
	})
	s.emit(EventRebuilt, s.page)
}

func withoutFlag(flags, name string) string {
	var keep []string
	for _, f := range engine.SplitFlags(flags) {
		if f != name {
			keep = append(keep, f)
		}
	}
	return strings.Join(keep, "|")
}
