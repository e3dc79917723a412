// Package raylib shows page runtime canvases in a Raylib window. Every panel
// is backed by a streamed texture that is updated whenever its canvas has
// received a new frame.
package raylib

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/fietser28/studio/render"
)

const titleFontSize = 14

// titleBar is the height reserved above each panel for its title.
const titleBar = titleFontSize + 6

// panelTexture is the GPU side of one panel.
type panelTexture struct {
	texture       rl.Texture2D
	width, height int
	frames        uint64
	// staging is reused across uploads.
	staging []color.RGBA
}

// RaylibRenderer implements render.Renderer with a Raylib window.
type RaylibRenderer struct {
	config      render.WindowConfig
	scaleFactor float32
	textures    map[*render.Panel]*panelTexture
	panels      []*render.Panel
}

// NewRaylibRenderer creates a renderer with default values.
func NewRaylibRenderer() *RaylibRenderer {
	return &RaylibRenderer{
		scaleFactor: 1.0,
		textures:    make(map[*render.Panel]*panelTexture),
	}
}

// Init opens the window described by config.
func (r *RaylibRenderer) Init(config render.WindowConfig) error {
	r.config = config
	r.scaleFactor = float32(math.Max(1.0, float64(config.ScaleFactor)))

	log.Printf("RaylibRenderer Init: Initializing window %dx%d. Title: '%s'. UI Scale: %.2f.",
		config.Width, config.Height, config.Title, r.scaleFactor)

	rl.InitWindow(int32(config.Width), int32(config.Height), config.Title)

	if config.Resizable {
		rl.SetWindowState(rl.FlagWindowResizable)
	} else {
		rl.ClearWindowState(rl.FlagWindowResizable)
		rl.SetWindowSize(config.Width, config.Height)
	}

	fps := config.FPS
	if fps <= 0 {
		fps = 60
	}
	rl.SetTargetFPS(int32(fps))

	if !rl.IsWindowReady() {
		return fmt.Errorf("RaylibRenderer Init: rl.InitWindow failed or window is not ready")
	}
	return nil
}

// RenderFrame uploads new canvas frames and draws every panel.
func (r *RaylibRenderer) RenderFrame(panels []*render.Panel) {
	r.panels = panels
	for _, p := range panels {
		pt := r.sync(p)
		x := int32(float32(p.X) * r.scaleFactor)
		y := int32(float32(p.Y) * r.scaleFactor)
		rl.DrawText(p.Title, x, y, titleFontSize, rl.RayWhite)
		if pt == nil {
			rl.DrawText("waiting for engine...", x, y+titleBar, titleFontSize, rl.Gray)
			continue
		}
		rl.DrawTextureEx(pt.texture, rl.NewVector2(float32(x), float32(y+titleBar)), 0, r.scaleFactor, rl.White)
	}
}

// sync makes the panel's texture match its canvas. It returns nil until the
// canvas has a frame.
func (r *RaylibRenderer) sync(p *render.Panel) *panelTexture {
	frames := p.Canvas.Frames()
	pt := r.textures[p]
	if frames == 0 {
		return pt
	}
	if pt != nil && pt.frames == frames {
		return pt
	}
	img := p.Canvas.Snapshot()
	if img == nil {
		return pt
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if pt == nil || pt.width != w || pt.height != h {
		if pt != nil {
			rl.UnloadTexture(pt.texture)
		}
		blank := rl.GenImageColor(w, h, rl.Blank)
		pt = &panelTexture{texture: rl.LoadTextureFromImage(blank), width: w, height: h}
		rl.UnloadImage(blank)
		r.textures[p] = pt
		log.Printf("RaylibRenderer sync: created %dx%d texture for panel '%s'", w, h, p.Title)
	}
	pt.staging = toColors(img, pt.staging)
	rl.UpdateTexture(pt.texture, pt.staging)
	pt.frames = frames
	return pt
}

func toColors(img *image.RGBA, buf []color.RGBA) []color.RGBA {
	n := img.Rect.Dx() * img.Rect.Dy()
	if cap(buf) < n {
		buf = make([]color.RGBA, n)
	}
	buf = buf[:n]
	for i := range buf {
		o := i * 4
		buf[i] = color.RGBA{R: img.Pix[o], G: img.Pix[o+1], B: img.Pix[o+2], A: img.Pix[o+3]}
	}
	return buf
}

// Cleanup unloads every texture and closes the window.
func (r *RaylibRenderer) Cleanup() {
	for p, pt := range r.textures {
		if pt.texture.ID > 0 {
			rl.UnloadTexture(pt.texture)
		}
		delete(r.textures, p)
	}
	if rl.IsWindowReady() {
		log.Println("RaylibRenderer Cleanup: Closing Raylib window...")
		rl.CloseWindow()
	}
}

// ShouldClose returns true if the Raylib window has been signaled to close.
func (r *RaylibRenderer) ShouldClose() bool {
	return rl.IsWindowReady() && rl.WindowShouldClose()
}

func (r *RaylibRenderer) BeginFrame() {
	rl.BeginDrawing()
	rl.ClearBackground(r.config.DefaultBg)
}

func (r *RaylibRenderer) EndFrame() {
	rl.EndDrawing()
}

// PollEvents maps keys and clicks to preview input. A click is reported in
// unscaled window coordinates; the cursor changes over panels.
func (r *RaylibRenderer) PollEvents() render.Input {
	var in render.Input
	if !rl.IsWindowReady() {
		return in
	}
	in.NextPage = rl.IsKeyPressed(rl.KeyPageDown)
	in.PrevPage = rl.IsKeyPressed(rl.KeyPageUp)
	in.NextStyle = rl.IsKeyPressed(rl.KeyS)
	in.NextUIState = rl.IsKeyPressed(rl.KeyU)
	in.ToggleDark = rl.IsKeyPressed(rl.KeyD)
	in.Screenshot = rl.IsKeyPressed(rl.KeyF12)

	mouse := rl.GetMousePosition()
	pt := image.Pt(int(mouse.X/r.scaleFactor), int(mouse.Y/r.scaleFactor)-titleBar)
	cursor := rl.MouseCursorDefault
	for _, p := range r.panels {
		if pt.In(p.Bounds()) {
			cursor = rl.MouseCursorPointingHand
			break
		}
	}
	rl.SetMouseCursor(int32(cursor))
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		in.Click = &pt
	}
	return in
}

var _ render.Renderer = (*RaylibRenderer)(nil)
