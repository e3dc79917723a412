// Package render holds the display surfaces page runtimes copy engine
// frames into.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
)

// Canvas receives finished engine frames. pix holds width*height RGBA
// pixels and is only valid for the duration of the call.
type Canvas interface {
	PutImageData(pix []byte, width, height int)
}

// CanvasFunc adapts a function to Canvas.
type CanvasFunc func(pix []byte, width, height int)

func (f CanvasFunc) PutImageData(pix []byte, width, height int) { f(pix, width, height) }

// ImageCanvas keeps the last frame in memory. It is safe for concurrent
// use, so a debug server can read frames while the scheduler writes them.
type ImageCanvas struct {
	mu     sync.RWMutex
	img    *image.RGBA
	frames uint64
}

func NewImageCanvas() *ImageCanvas {
	return &ImageCanvas{}
}

func (c *ImageCanvas) PutImageData(pix []byte, width, height int) {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img == nil || c.img.Rect.Dx() != width || c.img.Rect.Dy() != height {
		c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	copy(c.img.Pix, pix[:width*height*4])
	c.frames++
}

// Frames counts the frames received.
func (c *ImageCanvas) Frames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

// Snapshot returns a copy of the last frame, or nil before the first one.
func (c *ImageCanvas) Snapshot() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.img == nil {
		return nil
	}
	out := image.NewRGBA(c.img.Rect)
	copy(out.Pix, c.img.Pix)
	return out
}

// At returns the colour of one pixel of the last frame.
func (c *ImageCanvas) At(x, y int) color.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.img == nil {
		return color.RGBA{}
	}
	return c.img.RGBAAt(x, y)
}

// SavePNG writes the last frame to path.
func (c *ImageCanvas) SavePNG(path string) error {
	img := c.Snapshot()
	if img == nil {
		return fmt.Errorf("render save: no frame received yet")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render save: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("render save: encoding %s: %w", path, err)
	}
	return f.Close()
}

// WindowConfig configures a preview window.
type WindowConfig struct {
	Width       int
	Height      int
	Title       string
	Resizable   bool
	ScaleFactor float32
	FPS         int
	DefaultBg   color.RGBA
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:       800,
		Height:      480,
		Title:       "Studio Preview",
		Resizable:   true,
		ScaleFactor: 1.0,
		FPS:         60,
		DefaultBg:   color.RGBA{R: 30, G: 30, B: 30, A: 255},
	}
}
