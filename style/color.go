package style

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorNumToRgb renders a packed engine colour as "#rrggbb". Alpha is
// dropped.
func ColorNumToRgb(c uint32) string {
	r := (c >> 16) & 0xFF
	g := (c >> 8) & 0xFF
	b := c & 0xFF
	return fmt.Sprintf("#%06x", r<<16|g<<8|b)
}

// ColorRgbToNum packs "#rrggbb" (or "#rgb", with or without "#") into the
// engine's form with full alpha. Unparsable colours become opaque black.
func ColorRgbToNum(s string) uint32 {
	c, err := parseColor(s)
	if err != nil {
		return 0xFF000000
	}
	r, g, b := c.RGB255()
	return uint32(b) | uint32(g)<<8 | uint32(r)<<16 | 0xFF<<24
}

// ColorRgbToHexNumStr is ColorRgbToNum rendered as a C literal.
func ColorRgbToHexNumStr(s string) string {
	return fmt.Sprintf("0x%08x", ColorRgbToNum(s))
}

func parseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	return colorful.Hex(s)
}
