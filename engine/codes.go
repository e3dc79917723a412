package engine

import (
	"sort"
	"strings"
)

// Object flag names as used in widget flag strings ("CLICKABLE|SCROLLABLE").
var flagNamesV8 = []string{
	"HIDDEN",
	"CLICKABLE",
	"CLICK_FOCUSABLE",
	"CHECKABLE",
	"SCROLLABLE",
	"SCROLL_ELASTIC",
	"SCROLL_MOMENTUM",
	"SCROLL_ONE",
	"SCROLL_CHAIN_HOR",
	"SCROLL_CHAIN_VER",
	"SCROLL_ON_FOCUS",
	"SCROLL_WITH_ARROW",
	"SNAPPABLE",
	"PRESS_LOCK",
	"EVENT_BUBBLE",
	"GESTURE_BUBBLE",
	"ADV_HITTEST",
	"IGNORE_LAYOUT",
	"FLOATING",
	"OVERFLOW_VISIBLE",
}

var flagNamesV9 = append(append([]string{}, flagNamesV8...), "SEND_DRAW_TASK_EVENTS")

var flagTables = map[Version]map[string]uint32{
	V8: bitTable(flagNamesV8),
	V9: bitTable(flagNamesV9),
}

func bitTable(names []string) map[string]uint32 {
	t := make(map[string]uint32, len(names))
	for i, n := range names {
		t[n] = 1 << uint(i)
	}
	return t
}

// FlagCodes returns the flag name to bit table for v.
func FlagCodes(v Version) map[string]uint32 {
	return flagTables[v]
}

// FlagNames returns the flag names known to v, sorted.
func FlagNames(v Version) []string {
	names := make([]string, 0, len(flagTables[v]))
	for n := range flagTables[v] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FlagCode looks up a single flag.
func FlagCode(v Version, name string) (uint32, bool) {
	c, ok := flagTables[v][name]
	return c, ok
}

// SplitFlags splits a "A|B|C" flag string, dropping blanks.
func SplitFlags(s string) []string {
	var out []string
	for _, f := range strings.Split(s, "|") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// NormalizeFlags sorts and deduplicates a flag string.
func NormalizeFlags(s string) string {
	seen := map[string]bool{}
	var out []string
	for _, f := range SplitFlags(s) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return strings.Join(out, "|")
}

// Part selector codes.
var partTables = map[Version]map[string]uint32{
	V8: {
		"MAIN":      0x000000,
		"SCROLLBAR": 0x010000,
		"INDICATOR": 0x020000,
		"KNOB":      0x030000,
		"SELECTED":  0x040000,
		"ITEMS":     0x050000,
		"TICKS":     0x060000,
		"CURSOR":    0x070000,
		"CUSTOM1":   0x080000,
		"ANY":       0x0F0000,
	},
	V9: {
		"MAIN":      0x000000,
		"SCROLLBAR": 0x010000,
		"INDICATOR": 0x020000,
		"KNOB":      0x030000,
		"SELECTED":  0x040000,
		"ITEMS":     0x050000,
		"CURSOR":    0x060000,
		"CUSTOM1":   0x080000,
		"ANY":       0x0F0000,
	},
}

// PartCodes returns the part name to code table for v.
func PartCodes(v Version) map[string]uint32 {
	return partTables[v]
}

// PartMask isolates the part bits of a selector.
const PartMask uint32 = 0xFF0000

// StateMask isolates the state bits of a selector.
const StateMask uint32 = 0x00FFFF

var stateTable = map[string]uint32{
	"DEFAULT":   0x0000,
	"CHECKED":   0x0001,
	"FOCUSED":   0x0002,
	"FOCUS_KEY": 0x0004,
	"EDITED":    0x0008,
	"HOVERED":   0x0010,
	"PRESSED":   0x0020,
	"SCROLLED":  0x0040,
	"DISABLED":  0x0080,
	"USER_1":    0x1000,
	"USER_2":    0x2000,
	"USER_3":    0x4000,
	"USER_4":    0x8000,
}

// StateCodes returns the state name to code table. States are identical
// across supported versions.
func StateCodes() map[string]uint32 {
	return stateTable
}

// UIStates is the fixed set of state combinations offered by the style
// preview.
var UIStates = []string{"", "CHECKED", "PRESSED", "CHECKED|PRESSED", "DISABLED", "FOCUSED"}

// StyleProp is a version independent style property identifier.
type StyleProp uint16

const (
	StylePropInvalid StyleProp = iota
	StylePropWidth
	StylePropHeight
	StylePropRadius
	StylePropPadTop
	StylePropPadBottom
	StylePropPadLeft
	StylePropPadRight
	StylePropBgColor
	StylePropBgOpa
	StylePropBorderColor
	StylePropBorderOpa
	StylePropBorderWidth
	StylePropTextColor
	StylePropTextOpa
	StylePropTextFont
	StylePropTextAlign
	StylePropOpa
)

var stylePropTables = map[Version]map[StyleProp]uint32{
	V8: {
		StylePropWidth:       1,
		StylePropHeight:      4,
		StylePropRadius:      11,
		StylePropPadTop:      16,
		StylePropPadBottom:   17,
		StylePropPadLeft:     18,
		StylePropPadRight:    19,
		StylePropBgColor:     32,
		StylePropBgOpa:       33,
		StylePropBorderColor: 48,
		StylePropBorderOpa:   49,
		StylePropBorderWidth: 50,
		StylePropTextColor:   88,
		StylePropTextOpa:     89,
		StylePropTextFont:    90,
		StylePropTextAlign:   93,
		StylePropOpa:         96,
	},
	V9: {
		StylePropWidth:       1,
		StylePropHeight:      4,
		StylePropRadius:      12,
		StylePropPadTop:      16,
		StylePropPadBottom:   17,
		StylePropPadLeft:     18,
		StylePropPadRight:    19,
		StylePropBgColor:     28,
		StylePropBgOpa:       29,
		StylePropBorderColor: 48,
		StylePropBorderOpa:   49,
		StylePropBorderWidth: 50,
		StylePropTextColor:   88,
		StylePropTextOpa:     89,
		StylePropTextFont:    90,
		StylePropTextAlign:   93,
		StylePropOpa:         98,
	},
}

// StylePropCode maps a logical property to the numeric code of v.
func StylePropCode(v Version, p StyleProp) (uint32, bool) {
	c, ok := stylePropTables[v][p]
	return c, ok
}

// StylePropFromCode is the inverse of StylePropCode.
func StylePropFromCode(v Version, code uint32) StyleProp {
	for p, c := range stylePropTables[v] {
		if c == code {
			return p
		}
	}
	return StylePropInvalid
}

// BuiltInFonts are the fonts compiled into every engine build, indexed by
// the value ObjGetStylePropBuiltInFont returns.
var BuiltInFonts = []string{
	"MONTSERRAT_8",
	"MONTSERRAT_10",
	"MONTSERRAT_12",
	"MONTSERRAT_14",
	"MONTSERRAT_16",
	"MONTSERRAT_18",
	"MONTSERRAT_20",
	"MONTSERRAT_22",
	"MONTSERRAT_24",
	"MONTSERRAT_26",
	"MONTSERRAT_28",
	"MONTSERRAT_30",
	"MONTSERRAT_32",
	"MONTSERRAT_34",
	"MONTSERRAT_36",
	"MONTSERRAT_38",
	"MONTSERRAT_40",
	"MONTSERRAT_42",
	"MONTSERRAT_44",
	"MONTSERRAT_46",
	"MONTSERRAT_48",
}

// DefaultBuiltInFont is the index of the theme font.
const DefaultBuiltInFont = 3

// BuiltInFontIndex returns the index of a built-in font name, or -1.
func BuiltInFontIndex(name string) int {
	for i, n := range BuiltInFonts {
		if n == name {
			return i
		}
	}
	return -1
}
