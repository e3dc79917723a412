package style

import (
	"fmt"
	"sort"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
)

// Runtime is what applying and reading styles needs from a page runtime.
type Runtime interface {
	Engine() engine.Engine
	Version() engine.Version
	StylePropCode(p engine.StyleProp) uint32
	GetFontPtrByName(name string) engine.Ptr
	FontByAddr(addr engine.Ptr) *project.Font
}

// Apply sets every value of def as a local style of o. Entries are applied
// in sorted order so repeated builds issue identical engine calls.
func Apply(rt Runtime, o engine.Obj, def project.StyleDefinition) {
	if o == 0 || len(def) == 0 {
		return
	}
	eng := rt.Engine()
	for _, part := range sortedKeys(def) {
		states := def[part]
		for _, state := range sortedKeys(states) {
			props := states[state]
			if state == "DEFAULT" {
				state = ""
			}
			selector := SelectorCode(rt.Version(), part, state)
			for _, name := range sortedKeys(props) {
				info, ok := Lookup(name)
				if !ok {
					diag.Reportf("style.Apply", diag.KindProgrammer, "unknown style property %q", name)
					continue
				}
				code := rt.StylePropCode(info.Prop)
				if code == 0 {
					continue
				}
				applyValue(rt, eng, o, info, code, selector, props[name])
			}
		}
	}
}

func applyValue(rt Runtime, eng engine.Engine, o engine.Obj, info *PropertyInfo, code, selector uint32, v any) {
	switch info.Type {
	case TypeColor:
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		eng.SetLocalStyleColor(o, code, ColorRgbToNum(s), selector)
	case TypeFont:
		name := fmt.Sprint(v)
		if i := engine.BuiltInFontIndex(name); i >= 0 {
			eng.SetLocalStyleBuiltInFont(o, code, i, selector)
			return
		}
		if f := rt.GetFontPtrByName(name); f != 0 {
			eng.SetLocalStyleFont(o, code, f, selector)
		}
	default:
		n, ok := info.ValueWrite(v)
		if !ok {
			diag.Reportf("style.Apply", diag.KindProgrammer, "bad value %v for %s", v, info.Name)
			return
		}
		eng.SetLocalStyleNum(o, code, n, selector)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultValue reads the value the engine currently resolves for a property
// of o: "#rrggbb" for colours, a font name for text_font, the enum name or
// number otherwise. It returns 0 when there is no live object.
func DefaultValue(rt Runtime, o engine.Obj, part, state string, info *PropertyInfo) any {
	if rt == nil || o == 0 {
		return 0
	}
	eng := rt.Engine()
	partCode := PartCode(rt.Version(), part)
	stateCode := StatesCode(state)
	code := rt.StylePropCode(info.Prop)

	switch info.Type {
	case TypeColor:
		return ColorNumToRgb(eng.ObjGetStylePropColor(o, partCode, stateCode, code))
	case TypeFont:
		if i := eng.ObjGetStylePropBuiltInFont(o, partCode, stateCode, code); i >= 0 && i < len(engine.BuiltInFonts) {
			return engine.BuiltInFonts[i]
		}
		if f := rt.FontByAddr(eng.ObjGetStylePropFontAddr(o, partCode, stateCode, code)); f != nil {
			return f.Name
		}
		return 0
	default:
		return info.ValueRead(eng.ObjGetStylePropNum(o, partCode, stateCode, code))
	}
}
