package project

import (
	"image"

	"golang.org/x/image/draw"
)

// Bitmap is an image resource. Its decoded image is the cache fingerprint:
// replacing it with SetImage invalidates every engine copy.
type Bitmap struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name"`
	// File is relative to the project file.
	File string `yaml:"file,omitempty"`
	// Data is a base64 encoded PNG or JPEG, used when File is empty.
	Data string `yaml:"data,omitempty"`

	img image.Image
}

// Image returns the decoded image, or nil when the bitmap has none.
func (b *Bitmap) Image() image.Image { return b.img }

// SetImage replaces the decoded image.
func (b *Bitmap) SetImage(img image.Image) { b.img = img }

// BGRA returns the image as 32 bit BGRA rows, the layout engines expect.
func (b *Bitmap) BGRA() (w, h int, pix []byte) {
	if b.img == nil {
		return 0, 0, nil
	}
	bounds := b.img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), b.img, bounds.Min, draw.Src)
	pix = nrgba.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
	return bounds.Dx(), bounds.Dy(), pix
}

// Font is a binary font resource.
type Font struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name"`
	// File is relative to the project file and is read into BinFile on load.
	File string `yaml:"file,omitempty"`
	// BinFile is the base64 encoded font image. It is the cache fingerprint.
	BinFile string `yaml:"binFile,omitempty"`
}

// Style is a named, reusable style definition for one widget type.
type Style struct {
	ID            string          `yaml:"id,omitempty"`
	Name          string          `yaml:"name"`
	ForWidgetType WidgetType      `yaml:"forWidgetType"`
	Definition    StyleDefinition `yaml:"definition,omitempty"`
}
