package widgets

import (
	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/style"
)

// Runtime is the page runtime surface creation routines call into.
type Runtime interface {
	style.Runtime
	ID() project.RuntimeID
	Project() *project.Project
	GetWidgetIndex(w *project.Widget) int
	GetBitmapPtrByName(name string) engine.Ptr
	AllocateUTF8(s string, free bool) engine.Ptr
}

// Materialize creates the engine objects of page's whole tree in rt and
// records every handle on the nodes. It returns the root handle, 0 when the
// root could not be created.
func Materialize(rt Runtime, page *project.Page) engine.Obj {
	if page.Screen == nil {
		return 0
	}
	root := CreateTree(rt, page.Screen, 0)
	page.SetObj(rt.ID(), root)
	return root
}

// CreateTree creates w and, when that succeeds, its children. Parents are
// created first since children need the parent's handle.
func CreateTree(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	c, ok := registry[w.Type]
	if !ok {
		diag.Reportf("widgets.CreateTree", diag.KindProgrammer, "no class for widget type %q", w.Type)
		w.ClearObj(rt.ID())
		return 0
	}
	o := c.Create(rt, w, parent)
	w.SetObj(rt.ID(), o)
	if o == 0 {
		for _, d := range w.Descendants() {
			d.ClearObj(rt.ID())
		}
		return 0
	}
	applyCommon(rt, w, o)
	for _, child := range w.Children {
		CreateTree(rt, child, o)
	}
	return o
}

// applyCommon brings the engine object in line with the widget's flags,
// states and styles.
func applyCommon(rt Runtime, w *project.Widget, o engine.Obj) {
	eng := rt.Engine()
	v := rt.Version()

	want := engine.SplitFlags(w.EffectiveFlags())
	have := engine.SplitFlags(DefaultFlags(w.Type, v))
	wantSet, haveSet := flagSet(want), flagSet(have)
	for _, f := range want {
		if !haveSet[f] {
			setFlag(eng, v, o, f, true)
		}
	}
	for _, f := range have {
		if !wantSet[f] {
			setFlag(eng, v, o, f, false)
		}
	}

	if states := style.StatesCode(w.States); states != 0 {
		eng.AddState(o, states)
	}

	if w.UseStyle != "" {
		if st := rt.Project().FindStyle(w.UseStyle); st != nil {
			style.Apply(rt, o, st.Definition)
		} else {
			diag.Reportf("widgets.applyCommon", diag.KindResourceUnavailable, "style %q not found", w.UseStyle)
		}
	}
	style.Apply(rt, o, w.LocalStyles)
}

func flagSet(flags []string) map[string]bool {
	set := make(map[string]bool, len(flags))
	for _, f := range flags {
		set[f] = true
	}
	return set
}

func setFlag(eng engine.Engine, v engine.Version, o engine.Obj, name string, on bool) {
	code, ok := engine.FlagCode(v, name)
	if !ok {
		diag.Reportf("widgets.applyCommon", diag.KindProgrammer, "unknown flag %q for %s", name, v)
		return
	}
	if on {
		eng.AddFlag(o, code)
	} else {
		eng.ClearFlag(o, code)
	}
}
