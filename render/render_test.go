package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	return pix
}

func TestImageCanvas_KeepsLastFrame(t *testing.T) {
	c := NewImageCanvas()
	assert.Nil(t, c.Snapshot())
	assert.Equal(t, color.RGBA{}, c.At(0, 0))

	red := color.RGBA{R: 255, A: 255}
	c.PutImageData(solid(4, 3, red), 4, 3)
	assert.Equal(t, uint64(1), c.Frames())
	assert.Equal(t, red, c.At(3, 2))

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, image.Rect(0, 0, 4, 3), snap.Rect)

	blue := color.RGBA{B: 255, A: 255}
	c.PutImageData(solid(2, 2, blue), 2, 2)
	assert.Equal(t, uint64(2), c.Frames())
	assert.Equal(t, blue, c.At(1, 1))
	assert.Equal(t, red, snap.RGBAAt(0, 0), "snapshots are copies")
}

func TestImageCanvas_IgnoresShortFrames(t *testing.T) {
	c := NewImageCanvas()
	c.PutImageData(make([]byte, 10), 4, 4)
	c.PutImageData(nil, 0, 0)
	assert.Zero(t, c.Frames())
}

func TestImageCanvas_SavePNG(t *testing.T) {
	c := NewImageCanvas()
	path := filepath.Join(t.TempDir(), "frame.png")
	assert.ErrorContains(t, c.SavePNG(path), "no frame received yet")

	c.PutImageData(solid(5, 5, color.RGBA{G: 200, A: 255}), 5, 5)
	require.NoError(t, c.SavePNG(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
}

func TestCanvasFunc(t *testing.T) {
	var got int
	var c Canvas = CanvasFunc(func(pix []byte, w, h int) { got = w * h })
	c.PutImageData(nil, 3, 7)
	assert.Equal(t, 21, got)
}

func TestPanel_Bounds(t *testing.T) {
	p := &Panel{X: 10, Y: 20, Canvas: NewImageCanvas()}
	assert.True(t, p.Bounds().Empty())
	p.Canvas.PutImageData(solid(8, 6, color.RGBA{A: 255}), 8, 6)
	assert.Equal(t, image.Rect(10, 20, 18, 26), p.Bounds())
}

func TestHeadless(t *testing.T) {
	h := &Headless{MaxFrames: 2, Inputs: []Input{{NextPage: true}}}
	require.NoError(t, h.Init(DefaultWindowConfig()))
	panel := &Panel{Canvas: NewImageCanvas()}

	assert.False(t, h.ShouldClose())
	assert.True(t, h.PollEvents().NextPage)
	h.BeginFrame()
	h.RenderFrame([]*Panel{panel})
	h.EndFrame()
	assert.Zero(t, h.Drawn(), "panels without frames are not drawn")

	panel.Canvas.PutImageData(solid(1, 1, color.RGBA{A: 255}), 1, 1)
	assert.Equal(t, Input{}, h.PollEvents())
	h.BeginFrame()
	h.RenderFrame([]*Panel{panel})
	h.EndFrame()
	assert.Equal(t, 1, h.Drawn())
	assert.True(t, h.ShouldClose())
	assert.Equal(t, 2, h.Frames())
}

func TestDefaultWindowConfig(t *testing.T) {
	cfg := DefaultWindowConfig()
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 60, cfg.FPS)
}
