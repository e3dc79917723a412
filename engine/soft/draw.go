package soft

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fietser28/studio/engine"
)

const (
	textAlignCenter = 2
	textAlignRight  = 3
)

func (e *Engine) framebuffer() *image.RGBA {
	w, h := e.cfg.Width, e.cfg.Height
	start := int(e.fb)
	end := start + w*h*4
	return &image.RGBA{
		Pix:    e.heap.mem[start:end:end],
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
}

func (e *Engine) render() {
	dst := e.framebuffer()
	bg := colorWhite
	if e.cfg.DarkTheme {
		bg = colorDarkBg
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(nrgba(bg, 255)), image.Point{}, draw.Src)
	if e.screen != nil {
		e.drawObject(dst, e.screen, image.Point{}, dst.Bounds())
	}
}

func nrgba(c uint32, opa int32) color.NRGBA {
	if opa < 0 {
		opa = 0
	}
	if opa > 255 {
		opa = 255
	}
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(opa)}
}

func (e *Engine) styleNum(o *object, p engine.StyleProp) int32 {
	code, ok := engine.StylePropCode(e.version, p)
	if !ok {
		return 0
	}
	if s := o.lookup(0, o.state, code); s != nil && s.kind == styleNum {
		return s.num
	}
	return e.themeNum(o, p)
}

func (e *Engine) styleColor(o *object, p engine.StyleProp) uint32 {
	code, ok := engine.StylePropCode(e.version, p)
	if !ok {
		return 0
	}
	if s := o.lookup(0, o.state, code); s != nil && s.kind == styleColor {
		return s.color
	}
	return e.themeColor(o, p)
}

func (e *Engine) face(o *object) font.Face {
	code, _ := engine.StylePropCode(e.version, engine.StylePropTextFont)
	for n := o; n != nil; n = n.parent {
		if s := n.lookup(0, n.state, code); s != nil && s.kind == styleFont {
			if lf := e.fonts[s.font]; lf != nil {
				return lf.face
			}
		}
	}
	return basicfont.Face7x13
}

func (e *Engine) drawObject(dst *image.RGBA, o *object, origin image.Point, clip image.Rectangle) {
	hidden, _ := engine.FlagCode(e.version, "HIDDEN")
	if o.flags&hidden != 0 {
		return
	}
	r := image.Rect(0, 0, o.rect.Width, o.rect.Height).Add(origin.Add(image.Pt(o.rect.Left, o.rect.Top)))
	if o.kind == engine.KindScreen {
		r = dst.Bounds()
	}
	vis := r.Intersect(clip)
	if vis.Empty() {
		return
	}
	opa := e.styleNum(o, engine.StylePropOpa)

	if bgOpa := e.styleNum(o, engine.StylePropBgOpa) * opa / 255; bgOpa > 0 {
		c := nrgba(e.styleColor(o, engine.StylePropBgColor), bgOpa)
		draw.Draw(dst, vis, image.NewUniform(c), image.Point{}, draw.Over)
	}
	if bw := int(e.styleNum(o, engine.StylePropBorderWidth)); bw > 0 {
		c := image.NewUniform(nrgba(e.styleColor(o, engine.StylePropBorderColor), e.styleNum(o, engine.StylePropBorderOpa)*opa/255))
		for _, edge := range []image.Rectangle{
			image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+bw),
			image.Rect(r.Min.X, r.Max.Y-bw, r.Max.X, r.Max.Y),
			image.Rect(r.Min.X, r.Min.Y, r.Min.X+bw, r.Max.Y),
			image.Rect(r.Max.X-bw, r.Min.Y, r.Max.X, r.Max.Y),
		} {
			draw.Draw(dst, edge.Intersect(vis), c, image.Point{}, draw.Over)
		}
	}

	switch o.kind {
	case engine.KindLabel:
		e.drawText(dst, vis, r, o, o.text, e.styleNum(o, engine.StylePropTextAlign))
	case engine.KindSpinbox:
		e.drawText(dst, vis, r, o, formatSpinbox(o.spinbox), textAlignCenter)
	case engine.KindImage:
		e.drawImage(dst, r, vis, o.img)
	case engine.KindScale:
		e.drawScale(dst, r, vis, o)
	}

	for _, c := range o.children {
		if o.parent != nil && o.parent.tabview != nil && o == o.parent.tabview.body && c.kind == engine.KindTab {
			if t := o.parent.tabview; t.active >= len(t.tabs) || t.tabs[t.active] != c {
				continue
			}
		}
		e.drawObject(dst, c, r.Min, vis)
	}

	if o.kind == engine.KindTabview {
		e.drawTabBar(dst, vis, r.Min, o)
	}
}

func (e *Engine) drawText(dst *image.RGBA, clip, r image.Rectangle, o *object, s string, align int32) {
	if s == "" {
		return
	}
	face := e.face(o)
	d := &font.Drawer{
		Dst:  dst.SubImage(clip).(*image.RGBA),
		Src:  image.NewUniform(nrgba(e.styleColor(o, engine.StylePropTextColor), e.styleNum(o, engine.StylePropTextOpa))),
		Face: face,
	}
	m := face.Metrics()
	x := fixed.I(r.Min.X)
	switch align {
	case textAlignCenter:
		x += (fixed.I(r.Dx()) - d.MeasureString(s)) / 2
	case textAlignRight:
		x += fixed.I(r.Dx()) - d.MeasureString(s)
	}
	y := fixed.I(r.Min.Y) + m.Ascent
	if o.kind != engine.KindLabel {
		y = fixed.I(r.Min.Y) + (fixed.I(r.Dy())-m.Height)/2 + m.Ascent
	}
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(s)
}

func formatSpinbox(p engine.SpinboxParams) string {
	v := p.Value
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	digits := fmt.Sprintf("%0*d", p.DigitCount, v)
	if p.SeparatorPosition > 0 && p.SeparatorPosition < len(digits) {
		digits = digits[:p.SeparatorPosition] + "." + digits[p.SeparatorPosition:]
	}
	return sign + digits
}

// bgraImage converts the engine's BGRA pixel layout.
func bgraImage(pix []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pix) && i+3 < len(img.Pix); i += 4 {
		img.Pix[i+0] = pix[i+2]
		img.Pix[i+1] = pix[i+1]
		img.Pix[i+2] = pix[i+0]
		img.Pix[i+3] = pix[i+3]
	}
	return img
}

func (e *Engine) drawImage(dst *image.RGBA, r, clip image.Rectangle, src engine.Ptr) {
	if src == 0 {
		return
	}
	mem := e.heap.mem
	if int(src)+engine.ImageDescriptorSize(e.version) > len(mem) {
		return
	}
	d, err := engine.DecodeImageDescriptor(e.version, mem[src:])
	if err != nil {
		log.Printf("WARN soft drawImage: %v", err)
		return
	}
	end := int(d.Data) + d.DataSize
	if end > len(mem) || d.Width == 0 || d.Height == 0 {
		return
	}
	img := bgraImage(mem[d.Data:end], d.Width, d.Height)
	sub := dst.SubImage(clip).(*image.RGBA)
	if r.Dx() == d.Width && r.Dy() == d.Height {
		draw.Draw(sub, r, img, image.Point{}, draw.Over)
		return
	}
	draw.ApproxBiLinear.Scale(sub, r, img, img.Bounds(), draw.Over, nil)
}

func (e *Engine) drawScale(dst *image.RGBA, r, clip image.Rectangle, o *object) {
	n := o.scale.TotalTickCount
	if n < 2 || r.Dx() < 2 {
		return
	}
	c := image.NewUniform(nrgba(e.styleColor(o, engine.StylePropTextColor), 255))
	for i := 0; i < n; i++ {
		x := r.Min.X + i*(r.Dx()-1)/(n-1)
		length := r.Dy() / 4
		if o.scale.MajorTickEvery > 0 && i%o.scale.MajorTickEvery == 0 {
			length = r.Dy() / 2
		}
		tick := image.Rect(x, r.Max.Y-length, x+1, r.Max.Y)
		draw.Draw(dst, tick.Intersect(clip), c, image.Point{}, draw.Over)
	}
}

func (e *Engine) drawTabBar(dst *image.RGBA, clip image.Rectangle, origin image.Point, o *object) {
	t := o.tabview
	if t == nil || len(t.tabs) == 0 || t.bar.id == 0 {
		return
	}
	bar := image.Rect(0, 0, t.bar.rect.Width, t.bar.rect.Height).Add(origin.Add(image.Pt(t.bar.rect.Left, t.bar.rect.Top)))
	vertical := t.params.Position == "LEFT" || t.params.Position == "RIGHT"
	for i, tab := range t.tabs {
		var cell image.Rectangle
		if vertical {
			h := bar.Dy() / len(t.tabs)
			cell = image.Rect(bar.Min.X, bar.Min.Y+i*h, bar.Max.X, bar.Min.Y+(i+1)*h)
		} else {
			w := bar.Dx() / len(t.tabs)
			cell = image.Rect(bar.Min.X+i*w, bar.Min.Y, bar.Min.X+(i+1)*w, bar.Max.Y)
		}
		if i == t.active {
			mark := image.Rect(cell.Min.X, cell.Max.Y-3, cell.Max.X, cell.Max.Y)
			draw.Draw(dst, mark.Intersect(clip), image.NewUniform(nrgba(colorPrimary, 255)), image.Point{}, draw.Over)
		}
		e.drawText(dst, cell.Intersect(clip), cell, o, tab.text, textAlignCenter)
	}
}
