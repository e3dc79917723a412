package pageruntime

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/widgets"
)

// ReflectedVersions remembers which engine versions were already
// reflected. The application owns one and passes it to Reflect.
type ReflectedVersions struct {
	mu   sync.Mutex
	seen map[engine.Version]bool
}

func NewReflectedVersions() *ReflectedVersions {
	return &ReflectedVersions{seen: make(map[engine.Version]bool)}
}

// claim marks v as reflected and reports whether it was new.
func (s *ReflectedVersions) claim(v engine.Version) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[v] {
		return false
	}
	s.seen[v] = true
	return true
}

// release forgets v so that it can be reflected again.
func (s *ReflectedVersions) release(v engine.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, v)
}

// Mark records v as reflected without running a reflection, for versions
// whose report was loaded from elsewhere.
func (s *ReflectedVersions) Mark(v engine.Version) {
	s.claim(v)
}

// Has reports whether v was reflected.
func (s *ReflectedVersions) Has(v engine.Version) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[v]
}

// WidgetFlags compares, for one widget type, the flags a default widget
// declares, the flags the type declares as engine defaults and the flags
// the engine actually reports.
type WidgetFlags struct {
	Type         project.WidgetType `json:"type"`
	InitFlags    string             `json:"initFlags"`
	DefaultFlags string             `json:"defaultFlags"`
	Reflect      string             `json:"reflect"`
}

func (f WidgetFlags) Mismatch() bool {
	return f.InitFlags != f.DefaultFlags || f.DefaultFlags != f.Reflect
}

// Report is the outcome of reflecting one engine version.
type Report struct {
	Version engine.Version `json:"version"`
	Widgets []WidgetFlags  `json:"widgets"`
	// Failed is set when the gallery page could not be built.
	Failed bool `json:"failed,omitempty"`
}

// Mismatches returns the widget types whose flags disagree.
func (r Report) Mismatches() []WidgetFlags {
	var out []WidgetFlags
	for _, w := range r.Widgets {
		if w.Mismatch() {
			out = append(out, w)
		}
	}
	return out
}

// String formats the mismatches as a review block, or "" when there are
// none.
func (r Report) String() string {
	mm := r.Mismatches()
	if len(mm) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<LVGLReflectEditorRuntime>\n")
	fmt.Fprintf(&b, "\tLVGL version: %s\n", r.Version)
	for _, w := range mm {
		fmt.Fprintf(&b, "\t%s\n", w.Type)
		fmt.Fprintf(&b, "\t\tInitFlags   : %s\n", w.InitFlags)
		fmt.Fprintf(&b, "\t\tDefaultFlags: %s\n", w.DefaultFlags)
		fmt.Fprintf(&b, "\t\tReflect     : %s\n", w.Reflect)
	}
	b.WriteString("/<LVGLReflectEditorRuntime>")
	return b.String()
}

// ReflectRuntime materializes the gallery page once and reads back the
// flags of every widget. It never renders.
type ReflectRuntime struct {
	*Runtime
	page   *project.Page
	done   func(Report)
	report *Report
}

// NewReflectRuntime creates an unmounted reflection runtime. done is
// called with the report once the engine is ready.
func NewReflectRuntime(opts Options, done func(Report)) *ReflectRuntime {
	r := &ReflectRuntime{Runtime: newRuntime("reflect", true, opts), done: done}
	r.loop = false
	r.setSize(PreviewWidth, PreviewHeight)
	r.page = newGalleryPage(r.store.Project, r.version, "reflect")
	r.indexer = positionalIndexer(r.page)
	r.onReady = r.ready
	return r
}

// Report returns the report, or nil before the engine was ready.
func (r *ReflectRuntime) Report() *Report { return r.report }

func (r *ReflectRuntime) ready() {
	var root engine.Obj
	r.store.Hub.Batch(func() {
		r.attach(r.page)
		root = widgets.Materialize(r, r.page)
		r.rebuilds++
	})
	rep := Report{Version: r.version}
	if root == 0 {
		diag.Reportf("pageruntime.Reflect", diag.KindMaterialization, "gallery page produced no root object")
		rep.Failed = true
		r.report = &rep
		if r.done != nil {
			r.done(rep)
		}
		return
	}
	for _, w := range r.page.Screen.Children {
		rep.Widgets = append(rep.Widgets, WidgetFlags{
			Type:         w.Type,
			InitFlags:    widgets.InitFlags(w.Type),
			DefaultFlags: widgets.DefaultFlags(w.Type, r.version),
			Reflect:      r.reflectFlags(w.Obj(r.id)),
		})
	}
	for _, w := range rep.Mismatches() {
		diag.Reportf("pageruntime.Reflect", diag.KindReflectionMismatch,
			"%s on %s: init %q, default %q, engine %q", w.Type, r.version, w.InitFlags, w.DefaultFlags, w.Reflect)
	}
	if s := rep.String(); s != "" {
		log.Print(s)
	}
	r.report = &rep
	if r.done != nil {
		r.done(rep)
	}
}

// reflectFlags lists the flags the engine reports for o, sorted and "|"
// joined.
func (r *ReflectRuntime) reflectFlags(o engine.Obj) string {
	if o == 0 {
		return ""
	}
	var on []string
	for name, code := range engine.FlagCodes(r.version) {
		if r.eng.ObjHasFlag(o, code) {
			on = append(on, name)
		}
	}
	sort.Strings(on)
	return strings.Join(on, "|")
}

// Reflect compares declared and engine reported widget flags for the
// version opts selects, unless that version was reflected before. It
// reports whether a reflection was started; done receives the report on a
// later scheduler tick. A failed reflection leaves the version unclaimed.
func Reflect(versions *ReflectedVersions, opts Options, done func(Report)) bool {
	v := opts.Version
	if v == "" {
		v = opts.Store.Project.Settings.EngineVersion
	}
	if !versions.claim(v) {
		return false
	}
	opts.Version = v
	var r *ReflectRuntime
	r = NewReflectRuntime(opts, func(rep Report) {
		r.Close()
		if rep.Failed {
			versions.release(v)
		}
		if done != nil {
			done(rep)
		}
	})
	r.Mount()
	return true
}
