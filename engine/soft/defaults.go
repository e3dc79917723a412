package soft

import "github.com/fietser28/studio/engine"

const (
	scrollFlags = "GESTURE_BUBBLE|PRESS_LOCK|SCROLL_CHAIN_HOR|SCROLL_CHAIN_VER|SCROLL_ELASTIC|SCROLL_MOMENTUM|SNAPPABLE"

	objFlags     = "CLICKABLE|CLICK_FOCUSABLE|SCROLLABLE|SCROLL_WITH_ARROW|" + scrollFlags
	buttonFlags  = "CLICKABLE|CLICK_FOCUSABLE|SCROLL_ON_FOCUS|" + scrollFlags
	labelFlags   = "CLICK_FOCUSABLE|SCROLL_WITH_ARROW|" + scrollFlags
	imageFlags   = "ADV_HITTEST|CLICK_FOCUSABLE|SCROLL_WITH_ARROW|" + scrollFlags
	tabviewFlags = "CLICK_FOCUSABLE|SCROLL_WITH_ARROW|" + scrollFlags
)

// defaultFlagTable lists the flags each kind carries right after creation.
func defaultFlagTable(v engine.Version) map[engine.Kind]string {
	t := map[engine.Kind]string{
		engine.KindScreen:    objFlags,
		engine.KindContainer: objFlags,
		engine.KindButton:    buttonFlags,
		engine.KindLabel:     labelFlags,
		engine.KindImage:     imageFlags,
		engine.KindTabview:   tabviewFlags,
		engine.KindTab:       objFlags,
		engine.KindSpinbox:   "CLICKABLE|CLICK_FOCUSABLE|SCROLLABLE|SCROLL_ON_FOCUS|SCROLL_WITH_ARROW|" + scrollFlags,
	}
	if v == engine.V9 {
		t[engine.KindScale] = objFlags
		t[engine.KindSpinbox] = "CLICKABLE|CLICK_FOCUSABLE|SCROLLABLE|SCROLL_ON_FOCUS|" + scrollFlags
	}
	return t
}

// Colors are 0xAARRGGBB.
const (
	colorWhite      uint32 = 0xFFFFFFFF
	colorText       uint32 = 0xFF212121
	colorDarkBg     uint32 = 0xFF15171A
	colorDarkCard   uint32 = 0xFF282B30
	colorDarkText   uint32 = 0xFFFFFFFF
	colorPrimary    uint32 = 0xFF2196F3
	colorBorder     uint32 = 0xFFE0E0E0
	colorDarkBorder uint32 = 0xFF3A3D42
)

func (e *Engine) themeColor(o *object, p engine.StyleProp) uint32 {
	dark := e.cfg.DarkTheme
	switch p {
	case engine.StylePropBgColor:
		switch o.kind {
		case engine.KindButton:
			return colorPrimary
		case engine.KindScreen:
			if dark {
				return colorDarkBg
			}
			return colorWhite
		}
		if dark {
			return colorDarkCard
		}
		return colorWhite
	case engine.StylePropBorderColor:
		if dark {
			return colorDarkBorder
		}
		return colorBorder
	case engine.StylePropTextColor:
		if dark || o.kind == engine.KindButton {
			return colorDarkText
		}
		return colorText
	}
	return 0
}

func (e *Engine) themeNum(o *object, p engine.StyleProp) int32 {
	switch p {
	case engine.StylePropWidth:
		return int32(o.rect.Width)
	case engine.StylePropHeight:
		return int32(o.rect.Height)
	case engine.StylePropBgOpa:
		switch o.kind {
		case engine.KindLabel, engine.KindImage, engine.KindTab:
			return 0
		}
		return 255
	case engine.StylePropBorderOpa, engine.StylePropTextOpa, engine.StylePropOpa:
		return 255
	case engine.StylePropBorderWidth:
		switch o.kind {
		case engine.KindContainer, engine.KindSpinbox:
			return 2
		}
		return 0
	case engine.StylePropRadius:
		switch o.kind {
		case engine.KindButton, engine.KindContainer, engine.KindSpinbox:
			return 6
		}
		return 0
	case engine.StylePropPadTop, engine.StylePropPadBottom, engine.StylePropPadLeft, engine.StylePropPadRight:
		switch o.kind {
		case engine.KindButton, engine.KindContainer:
			return 8
		}
		return 0
	}
	return 0
}
