package project

import "github.com/fietser28/studio/engine"

// RuntimeID identifies a page runtime. Nodes keep one handle per runtime.
type RuntimeID uint64

// slots holds the engine handles a node has in each runtime it is
// materialized in.
type slots struct {
	objs map[RuntimeID]engine.Obj
}

func (s *slots) get(rt RuntimeID) engine.Obj {
	return s.objs[rt]
}

func (s *slots) set(rt RuntimeID, o engine.Obj) {
	if o == 0 {
		delete(s.objs, rt)
		return
	}
	if s.objs == nil {
		s.objs = make(map[RuntimeID]engine.Obj)
	}
	s.objs[rt] = o
}

// WidgetType tags a widget variant.
type WidgetType string

const (
	TypeScreen    WidgetType = "Screen"
	TypeContainer WidgetType = "Container"
	TypeButton    WidgetType = "Button"
	TypeLabel     WidgetType = "Label"
	TypeImage     WidgetType = "Image"
	TypeScale     WidgetType = "Scale"
	TypeSpinbox   WidgetType = "Spinbox"
	TypeTabview   WidgetType = "Tabview"
	TypeTab       WidgetType = "Tab"
)

// StyleDefinition maps part, then state, then property name to a value.
type StyleDefinition map[string]map[string]map[string]any

type ScaleProps struct {
	Mode           string `yaml:"mode"`
	MinorRange     int    `yaml:"minorRange"`
	MajorRange     int    `yaml:"majorRange"`
	TotalTickCount int    `yaml:"totalTickCount"`
	MajorTickEvery int    `yaml:"majorTickEvery"`
	ShowLabels     bool   `yaml:"showLabels"`
}

type SpinboxProps struct {
	DigitCount        int  `yaml:"digitCount"`
	SeparatorPosition int  `yaml:"separatorPosition"`
	Min               int  `yaml:"min"`
	Max               int  `yaml:"max"`
	Rollover          bool `yaml:"rollover"`
	Step              int  `yaml:"step"`
	Value             int  `yaml:"value"`
}

type TabviewProps struct {
	Position string `yaml:"position"`
	Size     int    `yaml:"size"`
}

type TabProps struct {
	Name string `yaml:"name"`
}

// Widget is one node of a page's widget tree.
type Widget struct {
	ID   string     `yaml:"id,omitempty"`
	Type WidgetType `yaml:"type"`
	// Name is the widget's identifier. Named widgets get stable indices in
	// multi-page runtimes.
	Name string `yaml:"name,omitempty"`

	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	Flags         string `yaml:"flags,omitempty"`
	HiddenFlag    bool   `yaml:"hidden,omitempty"`
	ClickableFlag bool   `yaml:"clickable,omitempty"`
	UseStyle      string `yaml:"useStyle,omitempty"`
	States        string `yaml:"states,omitempty"`

	LocalStyles StyleDefinition `yaml:"localStyles,omitempty"`

	Text    string        `yaml:"text,omitempty"`
	Bitmap  string        `yaml:"bitmap,omitempty"`
	Scale   *ScaleProps   `yaml:"scale,omitempty"`
	Spinbox *SpinboxProps `yaml:"spinbox,omitempty"`
	Tabview *TabviewProps `yaml:"tabview,omitempty"`
	Tab     *TabProps     `yaml:"tab,omitempty"`

	Children []*Widget `yaml:"children,omitempty"`

	// RefreshRelativePosition is bumped whenever the widget's on-screen
	// position changes without a model edit, e.g. a tab becoming active.
	RefreshRelativePosition int `yaml:"-"`

	parent *Widget
	page   *Page
	slots  slots
}

// Obj returns the widget's handle in runtime rt, or 0.
func (w *Widget) Obj(rt RuntimeID) engine.Obj { return w.slots.get(rt) }

// SetObj records the widget's handle in runtime rt. Setting 0 clears it.
func (w *Widget) SetObj(rt RuntimeID, o engine.Obj) { w.slots.set(rt, o) }

// ClearObj forgets the widget's handle in runtime rt.
func (w *Widget) ClearObj(rt RuntimeID) { w.slots.set(rt, 0) }

func (w *Widget) Parent() *Widget { return w.parent }

func (w *Widget) Page() *Page { return w.page }

// Rect is the creation geometry relative to the parent.
func (w *Widget) Rect() engine.Rect {
	return engine.Rect{Left: w.Left, Top: w.Top, Width: w.Width, Height: w.Height}
}

// Descendants returns every widget below w in pre-order, excluding w.
func (w *Widget) Descendants() []*Widget {
	var out []*Widget
	var walk func(*Widget)
	walk = func(n *Widget) {
		for _, c := range n.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(w)
	return out
}

// Ancestor returns the nearest widget of type t at or above w.
func (w *Widget) Ancestor(t WidgetType) *Widget {
	for n := w; n != nil; n = n.parent {
		if n.Type == t {
			return n
		}
	}
	return nil
}

// IndexInParent returns the widget's position among its siblings, or -1.
func (w *Widget) IndexInParent() int {
	if w.parent == nil {
		return -1
	}
	for i, c := range w.parent.Children {
		if c == w {
			return i
		}
	}
	return -1
}

// OwningTabview returns the tabview a tab belongs to: the grandparent when the
// tab sits in the tabview's content container, or the parent.
func (w *Widget) OwningTabview() *Widget {
	if w.Type != TypeTab || w.parent == nil {
		return nil
	}
	if w.parent.Type == TypeTabview {
		return w.parent
	}
	if gp := w.parent.parent; gp != nil && gp.Type == TypeTabview {
		return gp
	}
	return nil
}

// TabIndex returns the position of a tab among the tabs of its container,
// or -1 when w is not a tab of a tabview.
func (w *Widget) TabIndex() int {
	if w.OwningTabview() == nil {
		return -1
	}
	i := 0
	for _, c := range w.parent.Children {
		if c == w {
			return i
		}
		if c.Type == TypeTab {
			i++
		}
	}
	return -1
}

// EffectiveFlags is Flags plus the HIDDEN and CLICKABLE switches, sorted.
func (w *Widget) EffectiveFlags() string {
	f := w.Flags
	if w.HiddenFlag {
		f += "|HIDDEN"
	}
	if w.ClickableFlag {
		f += "|CLICKABLE"
	}
	return engine.NormalizeFlags(f)
}

func (w *Widget) link(parent *Widget, page *Page) {
	w.parent = parent
	w.page = page
	for _, c := range w.Children {
		c.link(w, page)
	}
}
