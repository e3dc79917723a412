package soft

import (
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// loadedFontSize is the pixel size faces are rasterized at.
const loadedFontSize = 14

// parseFace turns a font image into a face. Data that is not an OpenType
// font still loads, with the fixed fallback face.
func parseFace(data []byte) (font.Face, string) {
	f, err := opentype.Parse(data)
	if err != nil {
		log.Printf("WARN soft LoadFont: %d bytes are not an OpenType font, using fallback: %v", len(data), err)
		return basicfont.Face7x13, "fixed"
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    loadedFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("WARN soft LoadFont: face: %v", err)
		return basicfont.Face7x13, "fixed"
	}
	name, err := f.Name(nil, sfnt.NameIDFull)
	if err != nil {
		name = "unnamed"
	}
	return face, name
}
