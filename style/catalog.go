// Package style maps style definitions onto engine selectors and property
// codes, converts colours between the editor's "#rrggbb" strings and the
// engine's packed form, and reads style values back from live objects.
package style

import "github.com/fietser28/studio/engine"

// ValueType is how a property's value is stored and read back.
type ValueType uint8

const (
	TypeNumber ValueType = iota
	TypeColor
	TypeEnum
	TypeBoolean
	TypeFont
)

// PropertyInfo describes one style property.
type PropertyInfo struct {
	Name string
	Prop engine.StyleProp
	Type ValueType
	// Enum lists the names of an enum property's values by number.
	Enum []string
}

// ValueRead converts a raw engine number into the editor's value.
func (p *PropertyInfo) ValueRead(n int32) any {
	switch p.Type {
	case TypeEnum:
		if n >= 0 && int(n) < len(p.Enum) {
			return p.Enum[n]
		}
		return n
	case TypeBoolean:
		return n != 0
	}
	return n
}

// ValueWrite converts an editor value into the engine number. ok is false
// for values that do not fit the property.
func (p *PropertyInfo) ValueWrite(v any) (n int32, ok bool) {
	switch x := v.(type) {
	case int:
		return int32(x), true
	case int32:
		return x, true
	case int64:
		return int32(x), true
	case float64:
		return int32(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		for i, name := range p.Enum {
			if name == x {
				return int32(i), true
			}
		}
	}
	return 0, false
}

var textAlign = []string{"AUTO", "LEFT", "CENTER", "RIGHT"}

// TextFont is the property whose value is a font name.
var TextFont = &PropertyInfo{Name: "text_font", Prop: engine.StylePropTextFont, Type: TypeFont}

// Properties is the catalog, in property grid order.
var Properties = []*PropertyInfo{
	{Name: "width", Prop: engine.StylePropWidth},
	{Name: "height", Prop: engine.StylePropHeight},
	{Name: "radius", Prop: engine.StylePropRadius},
	{Name: "pad_top", Prop: engine.StylePropPadTop},
	{Name: "pad_bottom", Prop: engine.StylePropPadBottom},
	{Name: "pad_left", Prop: engine.StylePropPadLeft},
	{Name: "pad_right", Prop: engine.StylePropPadRight},
	{Name: "bg_color", Prop: engine.StylePropBgColor, Type: TypeColor},
	{Name: "bg_opa", Prop: engine.StylePropBgOpa},
	{Name: "border_color", Prop: engine.StylePropBorderColor, Type: TypeColor},
	{Name: "border_opa", Prop: engine.StylePropBorderOpa},
	{Name: "border_width", Prop: engine.StylePropBorderWidth},
	{Name: "text_color", Prop: engine.StylePropTextColor, Type: TypeColor},
	{Name: "text_opa", Prop: engine.StylePropTextOpa},
	TextFont,
	{Name: "text_align", Prop: engine.StylePropTextAlign, Type: TypeEnum, Enum: textAlign},
	{Name: "opa", Prop: engine.StylePropOpa},
}

var byName = func() map[string]*PropertyInfo {
	m := make(map[string]*PropertyInfo, len(Properties))
	for _, p := range Properties {
		m[p.Name] = p
	}
	return m
}()

// Lookup finds a property by name.
func Lookup(name string) (*PropertyInfo, bool) {
	p, ok := byName[name]
	return p, ok
}
