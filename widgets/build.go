package widgets

import (
	"fmt"
	"strings"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
)

// Build accumulates generated C source.
type Build struct {
	Version engine.Version
	lines   []string
	indent  int
}

func (b *Build) IsV9() bool { return b.Version == engine.V9 }

// Line appends one line at the current indentation.
func (b *Build) Line(format string, args ...any) {
	b.lines = append(b.lines, strings.Repeat("    ", b.indent)+fmt.Sprintf(format, args...))
}

// Block wraps fn's lines in braces.
func (b *Build) Block(fn func()) {
	b.Line("{")
	b.indent++
	fn()
	b.indent--
	b.Line("}")
}

func (b *Build) String() string {
	return strings.Join(b.lines, "\n")
}

// BuildLine returns the constructor line of w for v.
func BuildLine(v engine.Version, w *project.Widget) string {
	c, ok := registry[w.Type]
	if !ok || c.Build == nil {
		diag.Reportf("widgets.BuildLine", diag.KindProgrammer, "no build for widget type %q", w.Type)
		return ""
	}
	b := &Build{Version: v}
	c.Build(b, w)
	return b.String()
}

// BuildTree writes the constructors of w and its subtree as nested blocks.
func BuildTree(b *Build, w *project.Widget) {
	c, ok := registry[w.Type]
	if !ok || c.Build == nil {
		diag.Reportf("widgets.BuildTree", diag.KindProgrammer, "no build for widget type %q", w.Type)
		return
	}
	b.Block(func() {
		c.Build(b, w)
		if w.Type != project.TypeScreen {
			b.Line("lv_obj_set_pos(obj, %d, %d);", w.Left, w.Top)
			b.Line("lv_obj_set_size(obj, %d, %d);", w.Width, w.Height)
		}
		if len(w.Children) == 0 {
			return
		}
		b.Line("lv_obj_t *parent_obj = obj;")
		for _, child := range w.Children {
			BuildTree(b, child)
		}
	})
}
