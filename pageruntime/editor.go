package pageruntime

import (
	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/reactive"
	"github.com/fietser28/studio/widgets"
)

// EditorRuntime renders the page open in the editor. It rebuilds the whole
// tree whenever the page or a resource it uses changes, and follows the
// selection into tabviews.
type EditorRuntime struct {
	*Runtime
	page *project.Page
	tabs *reactive.Reaction
}

// NewEditorRuntime creates an unmounted editor runtime for page.
func NewEditorRuntime(page *project.Page, opts Options) *EditorRuntime {
	e := &EditorRuntime{Runtime: newRuntime("editor", true, opts), page: page}
	e.setSize(page.Width, page.Height)
	e.indexer = positionalIndexer(page)
	e.onReady = e.ready
	e.onUnmount = e.unmount
	return e
}

// Page returns the edited page.
func (e *EditorRuntime) Page() *project.Page { return e.page }

func (e *EditorRuntime) ready() {
	e.store.Hub.Batch(func() {
		e.attach(e.page)
		e.page.ClearObj(e.id)
	})
	e.watch(e.store.Hub.Autorun("editor/rebuild", e.rebuild,
		project.PageTopic(e.page),
		project.TopicResources,
		project.TopicStyles,
		project.TopicTimeline,
	))
}

func (e *EditorRuntime) unmount() {
	e.tabs.Dispose()
	e.tabs = nil
}

// rebuild materializes the page from scratch and swaps it in as the
// screen.
func (e *EditorRuntime) rebuild() {
	if !e.mounted {
		return
	}
	e.tabs.Dispose()
	e.tabs = nil

	hub := e.store.Hub
	built := false
	hub.Batch(func() {
		// the old tree stays on screen if the new one fails
		prev := getObjects(e.id, e.page)
		for _, w := range e.page.Widgets() {
			w.ClearObj(e.id)
		}
		e.eng.ClearTimeline()
		e.FreeStrings()

		old := prev[0]
		root := widgets.Materialize(e, e.page)
		e.rebuilds++
		if root == 0 {
			setObjects(e.id, e.page, prev)
			diag.Reportf("pageruntime.Editor.rebuild", diag.KindMaterialization, "page %q produced no root object", e.page.Name)
			return
		}

		if tl := e.store.View.Timeline; tl.Active {
			e.eng.SetTimelinePosition(tl.Position)
		}
		e.replaceRoot(e.page, -1, old, root)
		hub.Notify(project.HandlesTopic(e.page))
		built = true
	})
	if built {
		e.emit(EventRebuilt, e.page)
	}

	e.tabs = hub.Autorun("editor/tabs", e.followSelection, project.TopicSelection)
}

// followSelection activates the tab that holds a selected widget.
func (e *EditorRuntime) followSelection() {
	for _, w := range e.store.View.Selected {
		tab := w.Ancestor(project.TypeTab)
		if tab == nil {
			continue
		}
		tv := tab.OwningTabview()
		if tv == nil || tv.Obj(e.id) == 0 {
			continue
		}
		i := tab.TabIndex()
		if i == -1 {
			continue
		}
		e.eng.TabviewSetActive(tv.Obj(e.id), i, engine.AnimOff)
		e.store.BumpLayout(tab)
	}
}
