// Package widgets is the dispatch table of widget variants: for every
// widget type, how to create its engine object, how to render its
// constructor as C, and the metadata runtimes and palettes need.
package widgets

import (
	"log"
	"sort"

	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
)

// CreateFunc creates the engine object of w under parent and returns its
// handle, or 0 when the engine refused.
type CreateFunc func(rt Runtime, w *project.Widget, parent engine.Obj) engine.Obj

// BuildFunc writes the constructor of w.
type BuildFunc func(b *Build, w *project.Widget)

// Meta is the static description of a widget type.
type Meta struct {
	PaletteGroup string
	// Parts lists the style parts; nil means every part of the version.
	Parts  []string
	States []string
	// Defaults holds the property values of a freshly dropped widget.
	Defaults project.Widget
	// DefaultFlags returns the flags the engine gives a new object of this
	// type.
	DefaultFlags func(v engine.Version) string
	// Palette reports whether the type can be used in a project. nil means
	// never.
	Palette func(pt project.ProjectType, v engine.Version) bool
}

// Class is one entry of the dispatch table.
type Class struct {
	Type   project.WidgetType
	Create CreateFunc
	Build  BuildFunc
	Meta   Meta
}

var (
	registry = make(map[project.WidgetType]*Class)
	order    []project.WidgetType
)

// Register adds c to the dispatch table, replacing an earlier class of the
// same type.
func Register(c *Class) {
	if c == nil || c.Type == "" || c.Create == nil {
		log.Printf("WARN widgets Register: ignoring invalid class %+v", c)
		return
	}
	if _, exists := registry[c.Type]; exists {
		log.Printf("WARN widgets Register: overwriting class for %s", c.Type)
	} else {
		order = append(order, c.Type)
	}
	registry[c.Type] = c
}

// Lookup returns the class of t.
func Lookup(t project.WidgetType) (*Class, bool) {
	c, ok := registry[t]
	return c, ok
}

// Types lists the registered types in registration order.
func Types() []project.WidgetType {
	return append([]project.WidgetType(nil), order...)
}

// PaletteTypes lists the types usable in a project of type pt targeting v.
func PaletteTypes(pt project.ProjectType, v engine.Version) []project.WidgetType {
	var out []project.WidgetType
	for _, t := range order {
		if p := registry[t].Meta.Palette; p != nil && p(pt, v) {
			out = append(out, t)
		}
	}
	return out
}

// NewDefault returns a widget of type t with its default property values.
func NewDefault(t project.WidgetType) *project.Widget {
	c, ok := registry[t]
	if !ok {
		return &project.Widget{Type: t}
	}
	w := c.Meta.Defaults
	w.Type = t
	if d := c.Meta.Defaults.Scale; d != nil {
		s := *d
		w.Scale = &s
	}
	if d := c.Meta.Defaults.Spinbox; d != nil {
		s := *d
		w.Spinbox = &s
	}
	if d := c.Meta.Defaults.Tabview; d != nil {
		s := *d
		w.Tabview = &s
	}
	if d := c.Meta.Defaults.Tab; d != nil {
		s := *d
		w.Tab = &s
	}
	w.Children = nil
	return &w
}

// InitFlags is the effective flag set of a default widget of type t,
// sorted and "|" joined.
func InitFlags(t project.WidgetType) string {
	return NewDefault(t).EffectiveFlags()
}

// DefaultFlags is the declared engine default flag set of t for v, sorted
// and "|" joined.
func DefaultFlags(t project.WidgetType, v engine.Version) string {
	c, ok := registry[t]
	if !ok || c.Meta.DefaultFlags == nil {
		return ""
	}
	return engine.NormalizeFlags(c.Meta.DefaultFlags(v))
}

// Parts returns the style parts of t for v.
func Parts(t project.WidgetType, v engine.Version) []string {
	c, ok := registry[t]
	if !ok {
		return nil
	}
	if c.Meta.Parts != nil {
		return c.Meta.Parts
	}
	parts := make([]string, 0, len(engine.PartCodes(v)))
	for p := range engine.PartCodes(v) {
		parts = append(parts, p)
	}
	sort.Strings(parts)
	return parts
}
