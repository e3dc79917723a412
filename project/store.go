package project

import (
	"github.com/fietser28/studio/reactive"
)

// Topics notified by Store mutations.
const (
	TopicResources    reactive.Topic = "resources"
	TopicStyles       reactive.Topic = "styles"
	TopicSettings     reactive.Topic = "settings"
	TopicSelection    reactive.Topic = "selection"
	TopicSelectedPage reactive.Topic = "selected-page"
	TopicUIState      reactive.Topic = "ui-state"
	TopicTimeline     reactive.Topic = "timeline"
)

// PageTopic is notified when anything in p's widget tree changes.
func PageTopic(p *Page) reactive.Topic { return reactive.Topic("page/" + p.ID) }

// HandlesTopic is notified when the engine handles recorded on p change.
func HandlesTopic(p *Page) reactive.Topic { return reactive.Topic("handles/" + p.ID) }

// LayoutTopic is notified when w's position is refreshed.
func LayoutTopic(w *Widget) reactive.Topic { return reactive.Topic("layout/" + w.ID) }

// Timeline is the editor's animation timeline state.
type Timeline struct {
	Active   bool
	Position float32
}

// ViewState is the editor state runtimes follow.
type ViewState struct {
	Selected      []*Widget
	SelectedPage  *Page
	SelectedStyle *Style
	// UIState is the state combination previewed for styles, one of
	// engine.UIStates.
	UIState  string
	Timeline Timeline
}

// Store couples a project with its view state and the hub that tells
// runtimes about changes. All mutations must go through it.
type Store struct {
	Project     *Project
	Hub         *reactive.Hub
	View        ViewState
	Identifiers *Identifiers

	flowIndexes map[*Page]int
}

// NewStore links p, indexes its identifiers and selects its first page.
func NewStore(p *Project, hub *reactive.Hub) *Store {
	p.Link()
	s := &Store{Project: p, Hub: hub}
	s.reindex()
	if pages := p.AllPages(); len(pages) > 0 {
		s.View.SelectedPage = pages[0]
	}
	return s
}

func (s *Store) reindex() {
	s.Identifiers = BuildIdentifiers(s.Project)
	s.flowIndexes = make(map[*Page]int)
	for i, page := range s.Project.AllPages() {
		s.flowIndexes[page] = i
	}
}

// FlowIndex returns the page's index in the flow table, or -1.
func (s *Store) FlowIndex(p *Page) int {
	if i, ok := s.flowIndexes[p]; ok {
		return i
	}
	return -1
}

// UpdateWidget applies fn to w and notifies its page.
func (s *Store) UpdateWidget(w *Widget, fn func(w *Widget)) {
	s.Hub.Batch(func() {
		fn(w)
		if w.page != nil {
			s.Hub.Notify(PageTopic(w.page))
		}
	})
}

// UpdatePage applies fn to p, relinks its tree and reindexes identifiers.
func (s *Store) UpdatePage(p *Page, fn func(p *Page)) {
	s.Hub.Batch(func() {
		fn(p)
		s.Project.Link()
		s.reindex()
		s.Hub.Notify(PageTopic(p))
	})
}

// SetBitmapImage replaces a bitmap's image.
func (s *Store) SetBitmapImage(b *Bitmap, fn func(b *Bitmap)) {
	s.Hub.Batch(func() {
		fn(b)
		s.Hub.Notify(TopicResources)
	})
}

// UpdateFont applies fn to f.
func (s *Store) UpdateFont(f *Font, fn func(f *Font)) {
	s.Hub.Batch(func() {
		fn(f)
		s.Hub.Notify(TopicResources)
	})
}

// UpdateStyle applies fn to st.
func (s *Store) UpdateStyle(st *Style, fn func(st *Style)) {
	s.Hub.Batch(func() {
		fn(st)
		s.Hub.Notify(TopicStyles)
	})
}

// SetDarkTheme changes the theme setting. Engines read it at init, so
// hosts restart their runtimes on TopicSettings.
func (s *Store) SetDarkTheme(dark bool) {
	s.Project.Settings.DarkTheme = dark
	s.Hub.Notify(TopicSettings)
}

// Select replaces the selection.
func (s *Store) Select(ws ...*Widget) {
	s.View.Selected = ws
	s.Hub.Notify(TopicSelection)
}

// SelectPage changes the page multi-page viewers show.
func (s *Store) SelectPage(p *Page) {
	if s.View.SelectedPage == p {
		return
	}
	s.View.SelectedPage = p
	s.Hub.Notify(TopicSelectedPage)
}

// SelectStyle changes the style being previewed.
func (s *Store) SelectStyle(st *Style) {
	s.View.SelectedStyle = st
	s.Hub.Notify(TopicStyles)
}

// SetUIState changes the previewed state combination.
func (s *Store) SetUIState(state string) {
	s.View.UIState = state
	s.Hub.Notify(TopicUIState)
}

// SetTimeline moves the editor timeline.
func (s *Store) SetTimeline(t Timeline) {
	s.View.Timeline = t
	s.Hub.Notify(TopicTimeline)
}

// BumpLayout increments w's refresh counter.
func (s *Store) BumpLayout(w *Widget) {
	w.RefreshRelativePosition++
	s.Hub.Notify(LayoutTopic(w))
}
