package app

import (
	"fmt"
	"image"
	"log"
	"path/filepath"
	"time"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/engine/soft"
	"github.com/fietser28/studio/frame"
	"github.com/fietser28/studio/internal/debugserver"
	"github.com/fietser28/studio/pageruntime"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/reactive"
	"github.com/fietser28/studio/render"
)

// panelGap separates panels in the preview window.
const panelGap = 16

// publishEvery is how many frames pass between debug snapshots.
const publishEvery = 30

// Options configures an App.
type Options struct {
	// Version overrides the project's engine version when set.
	Version   engine.Version
	StartPage string
	// Reflect runs a flag reflection for the engine version at mount.
	Reflect bool
	// ScreenshotDir receives PNG files when a screenshot is requested.
	ScreenshotDir string
	// Debug receives events, diagnostics and snapshots. It may be nil.
	Debug *debugserver.Server
	// Now is the clock handed to runtimes.
	Now func() time.Time
}

// App hosts the preview runtimes of one project: an editor for the
// selected page, a viewer over all pages, a style preview and a side view
// of the previously selected page.
type App struct {
	opts    Options
	sched   *frame.Scheduler
	hub     *reactive.Hub
	store   *project.Store
	factory *soft.Factory

	editor  *pageruntime.EditorRuntime
	viewer  *pageruntime.PageViewerRuntime
	preview *pageruntime.StylePreviewRuntime
	// previous is nil until a second page was selected.
	previous *pageruntime.NonActivePageViewerRuntime

	editorPanel   *render.Panel
	viewerPanel   *render.Panel
	previewPanel  *render.Panel
	previousPanel *render.Panel

	follow    *reactive.Reaction
	settings  *reactive.Reaction
	reflected *pageruntime.ReflectedVersions
	reports   []pageruntime.Report

	styleIndex int
	stateIndex int
	steps      int
	mounted    bool
}

// New prepares the runtimes for p without mounting them.
func New(p *project.Project, opts Options) (*App, error) {
	sched := frame.New()
	hub := reactive.NewHub(sched)
	store := project.NewStore(p, hub)
	if len(store.Project.AllPages()) == 0 {
		return nil, fmt.Errorf("app new: project %q has no pages", p.Name)
	}
	if opts.StartPage != "" {
		page := store.Project.FindPage(opts.StartPage)
		if page == nil {
			return nil, fmt.Errorf("app new: no page named %q", opts.StartPage)
		}
		store.View.SelectedPage = page
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &App{
		opts:       opts,
		sched:      sched,
		hub:        hub,
		store:      store,
		factory:    soft.NewFactory(sched),
		reflected:  pageruntime.NewReflectedVersions(),
		styleIndex: -1,
	}

	first := store.View.SelectedPage
	a.editorPanel = &render.Panel{Title: "Editor", Canvas: render.NewImageCanvas()}
	a.viewerPanel = &render.Panel{Title: "Viewer", Canvas: render.NewImageCanvas()}
	a.previewPanel = &render.Panel{Title: "Style preview", Canvas: render.NewImageCanvas()}
	a.previousPanel = &render.Panel{Title: "Previous page", Canvas: render.NewImageCanvas()}

	a.editor = pageruntime.NewEditorRuntime(first, a.runtimeOptions(a.editorPanel.Canvas))
	a.newViewers()

	a.layout()
	if opts.Debug != nil {
		opts.Debug.AddCanvas("editor", a.editorPanel.Canvas)
		opts.Debug.AddCanvas("viewer", a.viewerPanel.Canvas)
		opts.Debug.AddCanvas("style-preview", a.previewPanel.Canvas)
		opts.Debug.AddCanvas("previous-page", a.previousPanel.Canvas)
	}
	return a, nil
}

// newViewers creates the page viewer and the style preview.
func (a *App) newViewers() {
	w, h := maxPageSize(a.store.Project.AllPages())
	a.viewer = pageruntime.NewPageViewerRuntime(w, h, a.runtimeOptions(a.viewerPanel.Canvas))
	a.preview = pageruntime.NewStylePreviewRuntime(a.runtimeOptions(nil))
}

func (a *App) runtimeOptions(c render.Canvas) pageruntime.Options {
	opts := pageruntime.Options{
		Store:     a.store,
		Factory:   a.factory,
		Scheduler: a.sched,
		Canvas:    c,
		Version:   a.opts.Version,
		Now:       a.opts.Now,
	}
	if a.opts.Debug != nil {
		opts.Observer = a.opts.Debug.Event
	}
	return opts
}

func maxPageSize(pages []*project.Page) (w, h int) {
	for _, p := range pages {
		w = max(w, p.Width)
		h = max(h, p.Height)
	}
	return w, h
}

// layout places the panels side by side.
func (a *App) layout() {
	x := 0
	ew, _ := a.editor.Size()
	a.editorPanel.X = x
	x += ew + panelGap
	vw, _ := a.viewer.Size()
	a.viewerPanel.X = x
	x += vw + panelGap
	a.previewPanel.X = x
	pw, _ := a.preview.Size()
	x += pw + panelGap
	a.previousPanel.X = x
}

// Store returns the shared store.
func (a *App) Store() *project.Store { return a.store }

// Scheduler returns the scheduler every runtime runs on.
func (a *App) Scheduler() *frame.Scheduler { return a.sched }

func (a *App) Editor() *pageruntime.EditorRuntime { return a.editor }

func (a *App) Viewer() *pageruntime.PageViewerRuntime { return a.viewer }

func (a *App) StylePreview() *pageruntime.StylePreviewRuntime { return a.preview }

// Previous returns the runtime showing the previously selected page, or nil.
func (a *App) Previous() *pageruntime.NonActivePageViewerRuntime { return a.previous }

// Panels returns the panels in window order.
func (a *App) Panels() []*render.Panel {
	return []*render.Panel{a.editorPanel, a.viewerPanel, a.previewPanel, a.previousPanel}
}

// Reports returns the reflection reports received so far.
func (a *App) Reports() []pageruntime.Report { return a.reports }

// Mount starts every runtime. Engines become ready on the next Step.
func (a *App) Mount() {
	if a.mounted {
		return
	}
	a.mounted = true
	a.editor.Mount()
	a.viewer.Mount()
	a.preview.Mount()
	a.follow = a.hub.Subscribe("app/editor-page", a.followPage, project.TopicSelectedPage)
	a.settings = a.hub.Subscribe("app/settings", a.remount, project.TopicSettings)
	if a.opts.Reflect {
		ropts := a.runtimeOptions(nil)
		pageruntime.Reflect(a.reflected, ropts, func(r pageruntime.Report) {
			a.reports = append(a.reports, r)
		})
	}
}

// followPage moves the editor to the selected page.
func (a *App) followPage() {
	page := a.store.View.SelectedPage
	if page == nil || page == a.editor.Page() {
		return
	}
	log.Printf("App followPage: editing page '%s'", page.Name)
	a.showPrevious(a.editor.Page())
	a.editor.Close()
	a.editor = pageruntime.NewEditorRuntime(page, a.runtimeOptions(a.editorPanel.Canvas))
	a.editor.Mount()
	a.layout()
}

// showPrevious renders page in the side panel, replacing what it showed.
// A nil page empties the panel.
func (a *App) showPrevious(page *project.Page) {
	if a.previous != nil {
		a.previous.Close()
		a.previous = nil
	}
	if page == nil {
		return
	}
	a.previous = pageruntime.NewNonActivePageViewerRuntime(a.viewer, page, page.Width, page.Height,
		a.runtimeOptions(a.previousPanel.Canvas))
	a.previous.Mount()
}

// remount restarts every runtime so that their engines are initialized
// with the current project settings.
func (a *App) remount() {
	if !a.mounted {
		return
	}
	log.Printf("App remount: project settings changed, dark theme %t", a.store.Project.Settings.DarkTheme)
	var prev *project.Page
	if a.previous != nil {
		prev = a.previous.Page()
	}
	edited := a.editor.Page()
	a.showPrevious(nil)
	a.preview.Close()
	a.viewer.Close()
	a.editor.Close()

	a.editor = pageruntime.NewEditorRuntime(edited, a.runtimeOptions(a.editorPanel.Canvas))
	a.newViewers()
	a.editor.Mount()
	a.viewer.Mount()
	a.preview.Mount()
	if st := a.store.View.SelectedStyle; st != nil {
		a.preview.SetSelectedStyle(st, a.previewPanel.Canvas)
	}
	a.showPrevious(prev)
	a.layout()
}

func (a *App) runtimes() []debugserver.StatsSource {
	out := []debugserver.StatsSource{a.editor, a.viewer, a.preview}
	if a.previous != nil {
		out = append(out, a.previous)
	}
	return out
}

// Step runs one scheduler tick and publishes a debug snapshot now and then.
func (a *App) Step() {
	a.sched.Pump()
	a.steps++
	if a.opts.Debug != nil && (a.steps == 1 || a.steps%publishEvery == 0) {
		a.opts.Debug.Publish(a.Snapshot())
	}
}

// Snapshot collects the state of every runtime.
func (a *App) Snapshot() debugserver.Snapshot {
	return debugserver.Collect(a.store, a.runtimes()...)
}

// Handle applies window input to the store and runtimes.
func (a *App) Handle(in render.Input) {
	if in.NextPage {
		a.cyclePage(1)
	}
	if in.PrevPage {
		a.cyclePage(-1)
	}
	if in.NextStyle {
		a.cycleStyle()
	}
	if in.NextUIState {
		a.stateIndex = (a.stateIndex + 1) % len(engine.UIStates)
		a.store.SetUIState(engine.UIStates[a.stateIndex])
	}
	if in.ToggleDark {
		a.store.SetDarkTheme(!a.store.Project.Settings.DarkTheme)
	}
	if in.Screenshot {
		if err := a.Screenshot(); err != nil {
			log.Printf("WARN App Screenshot: %v", err)
		}
	}
	if in.Click != nil {
		a.click(*in.Click)
	}
}

func (a *App) cyclePage(delta int) {
	pages := a.store.Project.AllPages()
	i := 0
	for j, p := range pages {
		if p == a.store.View.SelectedPage {
			i = j
		}
	}
	i = (i + delta + len(pages)) % len(pages)
	a.SelectPage(pages[i].Name)
}

// SelectPage selects the page called name. Unknown names are ignored.
func (a *App) SelectPage(name string) {
	page := a.store.Project.FindPage(name)
	if page == nil {
		log.Printf("WARN App SelectPage: no page named '%s'", name)
		return
	}
	a.store.SelectPage(page)
}

func (a *App) cycleStyle() {
	styles := a.store.Project.Styles
	if len(styles) == 0 {
		return
	}
	a.styleIndex = (a.styleIndex + 1) % len(styles)
	st := styles[a.styleIndex]
	a.store.SelectStyle(st)
	a.preview.SetSelectedStyle(st, a.previewPanel.Canvas)
}

// click selects the topmost widget of the edited page under p.
func (a *App) click(p image.Point) {
	if !p.In(a.editorPanel.Bounds()) {
		return
	}
	p = p.Sub(image.Pt(a.editorPanel.X, a.editorPanel.Y))
	if w := hitTest(a.editor.Page().Screen, p, image.Point{}); w != nil {
		a.store.Select(w)
		return
	}
	a.store.Select()
}

// hitTest returns the deepest visible widget containing p. origin is the
// position of w's parent.
func hitTest(w *project.Widget, p, origin image.Point) *project.Widget {
	if w == nil || w.HiddenFlag {
		return nil
	}
	r := image.Rect(w.Left, w.Top, w.Left+w.Width, w.Top+w.Height).Add(origin)
	if w.Type == project.TypeScreen && w.Page() != nil {
		r = image.Rect(0, 0, w.Page().Width, w.Page().Height)
	}
	if !p.In(r) {
		return nil
	}
	for i := len(w.Children) - 1; i >= 0; i-- {
		if hit := hitTest(w.Children[i], p, r.Min); hit != nil {
			return hit
		}
	}
	if w.Type == project.TypeScreen {
		return nil
	}
	return w
}

// Screenshot writes the last frame of every panel that has one.
func (a *App) Screenshot() error {
	dir := a.opts.ScreenshotDir
	if dir == "" {
		dir = "."
	}
	stamp := a.opts.Now().Format("20060102-150405")
	for name, c := range map[string]*render.ImageCanvas{
		"editor":        a.editorPanel.Canvas,
		"viewer":        a.viewerPanel.Canvas,
		"style-preview": a.previewPanel.Canvas,
		"previous-page": a.previousPanel.Canvas,
	} {
		if c.Frames() == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("studio-%s-%s.png", name, stamp))
		if err := c.SavePNG(path); err != nil {
			return fmt.Errorf("app screenshot: %w", err)
		}
		log.Printf("App Screenshot: wrote %s", path)
	}
	return nil
}

// Close unmounts every runtime and drains the scheduler once.
func (a *App) Close() {
	if !a.mounted {
		return
	}
	a.mounted = false
	a.follow.Dispose()
	a.settings.Dispose()
	a.showPrevious(nil)
	a.preview.Close()
	a.viewer.Close()
	a.editor.Close()
	a.sched.Pump()
}

// InstallDiagnostics routes runtime diagnostics to the log and, when set,
// the debug server. It returns a function restoring the previous handler.
func InstallDiagnostics(debug *debugserver.Server) (restore func()) {
	prev := diag.CurrentHandler()
	if debug == nil {
		diag.SetHandler(diag.LogHandler{})
	} else {
		diag.SetHandler(diag.Multi{diag.LogHandler{}, debug})
	}
	return func() { diag.SetHandler(prev) }
}
