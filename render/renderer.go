package render

import "image"

// Panel is one runtime surface placed in a preview window.
type Panel struct {
	Title  string
	X, Y   int
	Canvas *ImageCanvas
}

// Bounds is the panel's area in window coordinates, sized by its last frame.
func (p *Panel) Bounds() image.Rectangle {
	if img := p.Canvas.Snapshot(); img != nil {
		return img.Rect.Add(image.Pt(p.X, p.Y))
	}
	return image.Rectangle{Min: image.Pt(p.X, p.Y), Max: image.Pt(p.X, p.Y)}
}

// Input is what PollEvents gathered since the previous frame.
type Input struct {
	NextPage  bool
	PrevPage  bool
	NextStyle bool
	// NextUIState cycles the style preview through the previewable states.
	NextUIState bool
	ToggleDark  bool
	Screenshot  bool
	// Click is the window position of a primary click, if any.
	Click *image.Point
}

// Renderer is a preview backend that shows panels in a window.
type Renderer interface {
	// Init creates the window.
	Init(config WindowConfig) error

	// RenderFrame draws the latest frame of every panel.
	RenderFrame(panels []*Panel)

	// Cleanup releases textures and closes the window.
	Cleanup()

	ShouldClose() bool

	BeginFrame()

	EndFrame()

	// PollEvents handles window input.
	PollEvents() Input
}

// Headless is a Renderer without a window. It stops after MaxFrames
// frames, or never when MaxFrames is 0.
type Headless struct {
	MaxFrames int
	// Inputs are returned by PollEvents, one per frame.
	Inputs []Input

	frames int
	drawn  int
}

func (h *Headless) Init(WindowConfig) error { return nil }

func (h *Headless) RenderFrame(panels []*Panel) {
	for _, p := range panels {
		if p.Canvas.Frames() > 0 {
			h.drawn++
		}
	}
}

func (h *Headless) Cleanup() {}

func (h *Headless) ShouldClose() bool {
	return h.MaxFrames > 0 && h.frames >= h.MaxFrames
}

func (h *Headless) BeginFrame() {}

func (h *Headless) EndFrame() { h.frames++ }

func (h *Headless) PollEvents() Input {
	if len(h.Inputs) == 0 {
		return Input{}
	}
	in := h.Inputs[0]
	h.Inputs = h.Inputs[1:]
	return in
}

// Frames reports how many frames were completed.
func (h *Headless) Frames() int { return h.frames }

// Drawn counts panel draws that had a frame to show.
func (h *Headless) Drawn() int { return h.drawn }

var _ Renderer = (*Headless)(nil)
