package widgets

import (
	"strconv"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
)

const (
	scrollFlags = "GESTURE_BUBBLE|PRESS_LOCK|SCROLL_CHAIN_HOR|SCROLL_CHAIN_VER|SCROLL_ELASTIC|SCROLL_MOMENTUM|SNAPPABLE"

	objFlags     = "CLICKABLE|CLICK_FOCUSABLE|SCROLLABLE|SCROLL_WITH_ARROW|" + scrollFlags
	buttonFlags  = "CLICKABLE|CLICK_FOCUSABLE|SCROLL_ON_FOCUS|" + scrollFlags
	labelFlags   = "CLICK_FOCUSABLE|SCROLL_WITH_ARROW|" + scrollFlags
	imageFlags   = "ADV_HITTEST|CLICK_FOCUSABLE|SCROLL_WITH_ARROW|" + scrollFlags
	tabviewFlags = "CLICK_FOCUSABLE|SCROLL_WITH_ARROW|" + scrollFlags
)

// withoutClickable drops CLICKABLE so the default widget can carry it as
// ClickableFlag instead.
func withoutClickable(flags string) string {
	var out string
	for _, f := range engine.SplitFlags(flags) {
		if f == "CLICKABLE" {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += f
	}
	return out
}

func constFlags(flags string) func(engine.Version) string {
	return func(engine.Version) string { return flags }
}

func lvglOnly(pt project.ProjectType, v engine.Version) bool {
	return pt == project.ProjectTypeLVGL
}

var commonStates = []string{"CHECKED", "DISABLED", "FOCUSED", "PRESSED"}

// ScaleModes maps scale mode names to engine values.
var ScaleModes = map[string]int{
	"HORIZONTAL_TOP":    0x00,
	"HORIZONTAL_BOTTOM": 0x01,
	"VERTICAL_LEFT":     0x02,
	"VERTICAL_RIGHT":    0x04,
	"ROUND_INNER":       0x08,
	"ROUND_OUTER":       0x10,
}

func createSimple(kind engine.Kind) CreateFunc {
	return func(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
		return rt.Engine().CreateObject(kind, parent, rt.GetWidgetIndex(w), w.Rect())
	}
}

func simpleBuild(ctor string) BuildFunc {
	return func(b *Build, w *project.Widget) {
		b.Line("lv_obj_t *obj = %s(parent_obj);", ctor)
	}
}

func createContainer(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	// The first two children of a tabview are its bar and its content.
	if p := w.Parent(); p != nil && p.Type == project.TypeTabview {
		switch w.IndexInParent() {
		case 0:
			return rt.Engine().TabviewGetTabBar(parent, rt.GetWidgetIndex(w))
		case 1:
			return rt.Engine().TabviewGetTabContent(parent, rt.GetWidgetIndex(w))
		}
	}
	return rt.Engine().CreateObject(engine.KindContainer, parent, rt.GetWidgetIndex(w), w.Rect())
}

func buildContainer(b *Build, w *project.Widget) {
	if p := w.Parent(); p != nil && p.Type == project.TypeTabview {
		switch w.IndexInParent() {
		case 0:
			if b.IsV9() {
				b.Line("lv_obj_t *obj = lv_tabview_get_tab_bar(parent_obj);")
			} else {
				b.Line("lv_obj_t *obj = lv_tabview_get_tab_btns(parent_obj);")
			}
			return
		case 1:
			b.Line("lv_obj_t *obj = lv_tabview_get_content(parent_obj);")
			return
		}
	}
	b.Line("lv_obj_t *obj = lv_obj_create(parent_obj);")
}

func createScreen(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	r := w.Rect()
	r.Left, r.Top = 0, 0
	if page := w.Page(); page != nil {
		r.Width, r.Height = page.Width, page.Height
	}
	return rt.Engine().CreateObject(engine.KindScreen, 0, rt.GetWidgetIndex(w), r)
}

func createLabel(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	o := rt.Engine().CreateObject(engine.KindLabel, parent, rt.GetWidgetIndex(w), w.Rect())
	if o != 0 {
		rt.Engine().SetText(o, rt.AllocateUTF8(w.Text, true))
	}
	return o
}

func createImage(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	o := rt.Engine().CreateObject(engine.KindImage, parent, rt.GetWidgetIndex(w), w.Rect())
	if o != 0 && w.Bitmap != "" {
		// a missing bitmap leaves the image empty
		if p := rt.GetBitmapPtrByName(w.Bitmap); p != 0 {
			rt.Engine().SetImageSrc(o, p)
		}
	}
	return o
}

func createScale(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	s := w.Scale
	if s == nil {
		s = NewDefault(project.TypeScale).Scale
	}
	return rt.Engine().CreateScale(parent, rt.GetWidgetIndex(w), w.Rect(), engine.ScaleParams{
		Mode:           ScaleModes[s.Mode],
		MinorRange:     s.MinorRange,
		MajorRange:     s.MajorRange,
		TotalTickCount: s.TotalTickCount,
		MajorTickEvery: s.MajorTickEvery,
		ShowLabels:     s.ShowLabels,
	})
}

func createSpinbox(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	s := w.Spinbox
	if s == nil {
		s = NewDefault(project.TypeSpinbox).Spinbox
	}
	return rt.Engine().CreateSpinbox(parent, rt.GetWidgetIndex(w), w.Rect(), engine.SpinboxParams{
		DigitCount:        s.DigitCount,
		SeparatorPosition: s.SeparatorPosition,
		Min:               s.Min,
		Max:               s.Max,
		Rollover:          s.Rollover,
		Step:              s.Step,
		Value:             s.Value,
	})
}

func createTabview(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	t := w.Tabview
	if t == nil {
		t = NewDefault(project.TypeTabview).Tabview
	}
	return rt.Engine().CreateTabview(parent, rt.GetWidgetIndex(w), w.Rect(), engine.TabviewParams{
		Position: t.Position,
		Size:     t.Size,
	})
}

func createTab(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj {
	tv := w.OwningTabview()
	if tv == nil {
		diag.Reportf("widgets.createTab", diag.KindMaterialization, "tab %q is not inside a tabview", w.ID)
		return 0
	}
	tvObj := tv.Obj(rt.ID())
	if tvObj == 0 {
		return 0
	}
	name := ""
	if w.Tab != nil {
		name = w.Tab.Name
	}
	return rt.Engine().TabviewAddTab(tvObj, rt.GetWidgetIndex(w), rt.AllocateUTF8(name, true))
}

func init() {
	Register(&Class{
		Type:   project.TypeScreen,
		Create: createScreen,
		Build:  simpleBuild("lv_obj_create"),
		Meta: Meta{
			States:       commonStates,
			Defaults:     project.Widget{Width: 800, Height: 480, Flags: withoutClickable(objFlags), ClickableFlag: true},
			DefaultFlags: constFlags(objFlags),
		},
	})
	Register(&Class{
		Type:   project.TypeContainer,
		Create: createContainer,
		Build:  buildContainer,
		Meta: Meta{
			PaletteGroup: "Basic",
			States:       commonStates,
			Defaults:     project.Widget{Width: 100, Height: 50, Flags: withoutClickable(objFlags), ClickableFlag: true},
			DefaultFlags: constFlags(objFlags),
			Palette:      lvglOnly,
		},
	})
	Register(&Class{
		Type:   project.TypeButton,
		Create: createSimple(engine.KindButton),
		Build:  simpleBuild("lv_button_create"),
		Meta: Meta{
			PaletteGroup: "Basic",
			Parts:        []string{"MAIN"},
			States:       commonStates,
			Defaults:     project.Widget{Width: 100, Height: 50, Flags: withoutClickable(buttonFlags), ClickableFlag: true},
			DefaultFlags: constFlags(buttonFlags),
			Palette:      lvglOnly,
		},
	})
	Register(&Class{
		Type:   project.TypeLabel,
		Create: createLabel,
		Build: func(b *Build, w *project.Widget) {
			b.Line("lv_obj_t *obj = lv_label_create(parent_obj);")
			b.Line("lv_label_set_text(obj, %s);", strconv.Quote(w.Text))
		},
		Meta: Meta{
			PaletteGroup: "Basic",
			Parts:        []string{"MAIN", "SCROLLBAR", "SELECTED"},
			States:       commonStates,
			Defaults:     project.Widget{Width: 100, Height: 32, Text: "Text", Flags: labelFlags},
			DefaultFlags: constFlags(labelFlags),
			Palette:      lvglOnly,
		},
	})
	Register(&Class{
		Type:   project.TypeImage,
		Create: createImage,
		Build: func(b *Build, w *project.Widget) {
			b.Line("lv_obj_t *obj = lv_image_create(parent_obj);")
			if w.Bitmap != "" {
				b.Line("lv_image_set_src(obj, &img_%s);", w.Bitmap)
			}
		},
		Meta: Meta{
			PaletteGroup: "Basic",
			Parts:        []string{"MAIN"},
			States:       commonStates,
			Defaults:     project.Widget{Width: 100, Height: 100, Flags: imageFlags},
			DefaultFlags: constFlags(imageFlags),
			Palette:      lvglOnly,
		},
	})
	Register(&Class{
		Type:   project.TypeScale,
		Create: createScale,
		Build:  simpleBuild("lv_scale_create"),
		Meta: Meta{
			PaletteGroup: "Visualiser",
			Parts:        []string{"MAIN", "ITEMS", "INDICATOR"},
			States:       commonStates,
			Defaults: project.Widget{
				Width: 240, Height: 40, Flags: withoutClickable(objFlags), ClickableFlag: true,
				Scale: &project.ScaleProps{
					Mode: "HORIZONTAL_BOTTOM", MinorRange: 10, MajorRange: 40,
					TotalTickCount: 31, MajorTickEvery: 5, ShowLabels: true,
				},
			},
			DefaultFlags: constFlags(objFlags),
			Palette: func(pt project.ProjectType, v engine.Version) bool {
				return pt == project.ProjectTypeLVGL && v == engine.V9
			},
		},
	})
	Register(&Class{
		Type:   project.TypeSpinbox,
		Create: createSpinbox,
		Build:  simpleBuild("lv_spinbox_create"),
		Meta: Meta{
			PaletteGroup: "Input",
			Parts:        []string{"MAIN", "SELECTED", "CURSOR"},
			States:       commonStates,
			Defaults: project.Widget{
				Width: 180, Height: 100, ClickableFlag: true,
				Flags: withoutClickable(spinboxFlags(engine.V9)),
				Spinbox: &project.SpinboxProps{
					DigitCount: 5, Min: -99999, Max: 99999,
				},
			},
			DefaultFlags: spinboxFlags,
			Palette:      lvglOnly,
		},
	})
	Register(&Class{
		Type:   project.TypeTabview,
		Create: createTabview,
		Build:  simpleBuild("lv_tabview_create"),
		Meta: Meta{
			PaletteGroup: "Layout",
			Parts:        []string{"MAIN"},
			States:       commonStates,
			Defaults: project.Widget{
				Width: 320, Height: 240, Flags: tabviewFlags,
				Tabview: &project.TabviewProps{Position: "TOP", Size: 32},
			},
			DefaultFlags: constFlags(tabviewFlags),
			Palette:      lvglOnly,
		},
	})
	Register(&Class{
		Type:   project.TypeTab,
		Create: createTab,
		Build: func(b *Build, w *project.Widget) {
			name := ""
			if w.Tab != nil {
				name = w.Tab.Name
			}
			tv := "parent_obj"
			if p := w.Parent(); p != nil && p.Type != project.TypeTabview {
				tv = "lv_obj_get_parent(parent_obj)"
			}
			b.Line("lv_obj_t *obj = lv_tabview_add_tab(%s, %s);", tv, strconv.Quote(name))
		},
		Meta: Meta{
			Parts:        []string{"MAIN", "SCROLLBAR"},
			States:       commonStates,
			Defaults:     project.Widget{Flags: withoutClickable(objFlags), ClickableFlag: true, Tab: &project.TabProps{Name: "Tab"}},
			DefaultFlags: constFlags(objFlags),
		},
	})
}

func spinboxFlags(v engine.Version) string {
	if v == engine.V9 {
		return "CLICKABLE|CLICK_FOCUSABLE|SCROLLABLE|SCROLL_ON_FOCUS|" + scrollFlags
	}
	return "CLICKABLE|CLICK_FOCUSABLE|SCROLLABLE|SCROLL_ON_FOCUS|SCROLL_WITH_ARROW|" + scrollFlags
}
