package pageruntime

import (
	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/reactive"
	"github.com/fietser28/studio/widgets"
)

// handleSet is a page's root handle followed by the handles of its
// widgets, in Page.Widgets order.
type handleSet []engine.Obj

func getObjects(id project.RuntimeID, page *project.Page) handleSet {
	set := handleSet{page.Obj(id)}
	for _, w := range page.Widgets() {
		set = append(set, w.Obj(id))
	}
	return set
}

func setObjects(id project.RuntimeID, page *project.Page, set handleSet) {
	if len(set) == 0 {
		return
	}
	page.SetObj(id, set[0])
	for i, w := range page.Widgets() {
		if i+1 < len(set) {
			w.SetObj(id, set[i+1])
		} else {
			w.ClearObj(id)
		}
	}
}

type pageState struct {
	page      *project.Page
	nonActive *NonActivePageViewerRuntime
	// active holds this runtime's handles while another page is shown.
	active           handleSet
	nonActiveObjects handleSet
	pageIndex        int
	flowState        int
	base             int
	builds           int
}

// PageViewerRuntime shows the selected page of a running project. Every
// page is materialized once; coming back to a page swaps its saved
// handles in instead of rebuilding it.
type PageViewerRuntime struct {
	*Runtime
	states  map[*project.Page]*pageState
	order   []*project.Page
	current *project.Page
	// next is the index handed to the next widget without an identifier.
	next int
	// owners records which widget each index went to during this mount.
	owners map[int]*project.Widget
	shower *reactive.Reaction
}

// NewPageViewerRuntime creates an unmounted viewer for every page of the
// store's project and its imports.
func NewPageViewerRuntime(width, height int, opts Options) *PageViewerRuntime {
	v := &PageViewerRuntime{
		Runtime: newRuntime("page-viewer", false, opts),
		states:  make(map[*project.Page]*pageState),
	}
	v.setSize(width, height)
	for _, page := range v.Pages() {
		v.stateOf(page)
	}
	v.indexer = v.GetWidgetIndex
	v.onReady = v.ready
	v.onUnmount = v.unmount
	return v
}

// Pages lists the project's pages followed, depth first, by those of its
// imports.
func (v *PageViewerRuntime) Pages() []*project.Page {
	return v.store.Project.AllPages()
}

func (v *PageViewerRuntime) stateOf(page *project.Page) *pageState {
	st := v.states[page]
	if st == nil {
		st = &pageState{page: page, pageIndex: -1}
		v.states[page] = st
		v.order = append(v.order, page)
	}
	return st
}

func (v *PageViewerRuntime) ready() {
	v.next = v.store.Identifiers.MaxWidgetIndex() + 1
	v.owners = make(map[int]*project.Widget)
	v.shower = v.watch(v.store.Hub.Subscribe("page-viewer/selected-page", v.showSelected, project.TopicSelectedPage))
	v.store.Hub.Batch(v.showSelected)
}

// showSelected makes the selected page the screen.
func (v *PageViewerRuntime) showSelected() {
	if !v.mounted {
		return
	}
	page := v.store.View.SelectedPage
	if page == nil || (page == v.current && page.Obj(v.id) != 0) {
		return
	}
	hub := v.store.Hub
	hub.Batch(func() {
		if prev := v.current; prev != nil {
			// only the shown page keeps live handles on its nodes; a page
			// without a root is built again on its next visit
			pst := v.stateOf(prev)
			pst.active = nil
			if prev.Obj(v.id) != 0 {
				pst.active = getObjects(v.id, prev)
			}
			clearHandles(v.id, prev)
			hub.Notify(project.HandlesTopic(prev))
		}
		v.current = page

		st := v.stateOf(page)
		if st.active != nil {
			v.follow()
			setObjects(v.id, page, st.active)
			v.eng.ScreenLoad(st.pageIndex, page.Obj(v.id))
			hub.Notify(project.HandlesTopic(page))
			v.emit(EventSwapped, page)
			return
		}
		v.materialize(st)
	})
}

func (v *PageViewerRuntime) materialize(st *pageState) {
	page := st.page
	v.attach(page)
	st.pageIndex = v.store.FlowIndex(page)
	st.flowState = v.eng.GetFlowState(0, st.pageIndex)
	st.base = 0
	// identifiers added since mount must not meet later auto indices
	v.next = max(v.next, v.store.Identifiers.MaxWidgetIndex()+1)

	root := widgets.Materialize(v, page)
	st.builds++
	v.rebuilds++
	if root == 0 {
		diag.Reportf("pageruntime.PageViewer.materialize", diag.KindMaterialization, "page %q produced no root object", page.Name)
		st.active = nil
		// try again when the page changes
		v.follow(project.PageTopic(page))
		return
	}
	v.follow()
	v.eng.ScreenLoad(st.pageIndex, root)
	st.active = getObjects(v.id, page)
	v.store.Hub.Notify(project.HandlesTopic(page))
	v.emit(EventRebuilt, page)
}

func (v *PageViewerRuntime) follow(extra ...reactive.Topic) {
	if v.shower != nil {
		v.shower.SetTopics(append([]reactive.Topic{project.TopicSelectedPage}, extra...)...)
	}
}

// GetWidgetIndex gives widgets with an identifier the page base plus
// their registry index. Other widgets are numbered from above the highest
// registry index. No index goes to two widgets within one mount: an
// identifier whose index was already handed out, because it was named
// after the mount, is numbered like a widget without one.
func (v *PageViewerRuntime) GetWidgetIndex(w *project.Widget) int {
	if v.owners == nil {
		v.owners = make(map[int]*project.Widget)
	}
	if i, ok := v.store.Identifiers.Index(w); ok {
		base := 0
		if st := v.states[w.Page()]; st != nil {
			base = st.base
		}
		if owner := v.owners[base+i]; owner == nil || owner == w {
			v.owners[base+i] = w
			return base + i
		}
		diag.Reportf("pageruntime.PageViewer.GetWidgetIndex", diag.KindProgrammer,
			"index %d of %q is taken in this mount, numbering it as unnamed", base+i, w.Name)
	}
	for v.owners[v.next] != nil {
		v.next++
	}
	i := v.next
	v.owners[i] = w
	v.next++
	return i
}

// Current returns the page on screen.
func (v *PageViewerRuntime) Current() *project.Page { return v.current }

// BuildCount reports how often page was materialized.
func (v *PageViewerRuntime) BuildCount(page *project.Page) int {
	if st := v.states[page]; st != nil {
		return st.builds
	}
	return 0
}

// FlowState returns the flow state the page was created with, or 0.
func (v *PageViewerRuntime) FlowState(page *project.Page) int {
	if st := v.states[page]; st != nil {
		return st.flowState
	}
	return 0
}

// NonActiveViewer returns the secondary viewer registered for page.
func (v *PageViewerRuntime) NonActiveViewer(page *project.Page) *NonActivePageViewerRuntime {
	if st := v.states[page]; st != nil {
		return st.nonActive
	}
	return nil
}

func (v *PageViewerRuntime) onNonActiveMounted(n *NonActivePageViewerRuntime) {
	st := v.stateOf(n.page)
	st.nonActive = n
	st.nonActiveObjects = getObjects(n.id, n.page)
}

func (v *PageViewerRuntime) onNonActiveUnmounted(n *NonActivePageViewerRuntime) {
	st := v.states[n.page]
	if st == nil {
		return
	}
	st.nonActive = nil
	st.nonActiveObjects = nil
	if st.active != nil && v.current == n.page {
		v.store.Hub.Batch(func() {
			setObjects(v.id, n.page, st.active)
			v.store.Hub.Notify(project.HandlesTopic(n.page))
		})
	}
}

func (v *PageViewerRuntime) unmount() {
	// put every saved set back so that detaching deletes each page's root
	for _, page := range v.order {
		if st := v.states[page]; st.active != nil && page != v.current {
			setObjects(v.id, page, st.active)
		}
	}
	for _, page := range v.order {
		v.attach(page)
		st := v.states[page]
		st.active, st.builds, st.pageIndex = nil, 0, -1
	}
	v.current = nil
	v.owners = nil
	v.shower = nil
}

// NonActivePageViewerRuntime renders one page in its own engine so it can
// be shown next to the page viewer without disturbing it.
type NonActivePageViewerRuntime struct {
	*Runtime
	owner *PageViewerRuntime
	page  *project.Page
}

// NewNonActivePageViewerRuntime creates an unmounted viewer for page. owner
// may be nil.
func NewNonActivePageViewerRuntime(owner *PageViewerRuntime, page *project.Page, width, height int, opts Options) *NonActivePageViewerRuntime {
	n := &NonActivePageViewerRuntime{
		Runtime: newRuntime("non-active-viewer", false, opts),
		owner:   owner,
		page:    page,
	}
	n.setSize(width, height)
	n.indexer = positionalIndexer(page)
	n.onReady = n.ready
	n.onUnmount = n.unmount
	return n
}

// Page returns the rendered page.
func (n *NonActivePageViewerRuntime) Page() *project.Page { return n.page }

func (n *NonActivePageViewerRuntime) ready() {
	hub := n.store.Hub
	hub.Batch(func() {
		n.attach(n.page)
		n.page.ClearObj(n.id)
		n.FreeStrings()
		root := widgets.Materialize(n, n.page)
		n.rebuilds++
		if root == 0 {
			diag.Reportf("pageruntime.NonActiveViewer.mount", diag.KindMaterialization, "page %q produced no root object", n.page.Name)
			return
		}
		n.eng.ScreenLoad(-1, root)
		hub.Notify(project.HandlesTopic(n.page))
	})
	n.emit(EventRebuilt, n.page)
	if n.owner != nil {
		n.owner.onNonActiveMounted(n)
	}
}

func (n *NonActivePageViewerRuntime) unmount() {
	if n.owner != nil {
		n.owner.onNonActiveUnmounted(n)
	}
}
