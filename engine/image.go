package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Color formats written into image descriptors.
const (
	colorFormatTrueColorAlphaV8 = 0x05
	colorFormatARGB8888V9       = 0x10
	imageMagicV9                = 0x19
)

// ImageDescriptor describes a 32 bit BGRA bitmap stored in engine memory.
// The pixel data follows the descriptor header directly.
type ImageDescriptor struct {
	Width    int
	Height   int
	DataSize int
	Data     Ptr
}

// ImageDescriptorSize is the encoded header size for v.
func ImageDescriptorSize(v Version) int {
	if v == V9 {
		return 20
	}
	return 12
}

// Encode writes the header in the layout v expects.
//
// v8: packed uint32 {cf:5, always_zero:3, reserved:2, w:11, h:11},
// data_size uint32, data ptr uint32.
// v9: magic u8, cf u8, flags u16, w u16, h u16, stride u16, reserved u16,
// data_size uint32, data ptr uint32.
func (d ImageDescriptor) Encode(v Version) ([]byte, error) {
	if d.Width < 0 || d.Height < 0 {
		return nil, fmt.Errorf("engine image: negative size %dx%d", d.Width, d.Height)
	}
	buf := make([]byte, ImageDescriptorSize(v))
	switch v {
	case V8:
		if d.Width > 0x7FF || d.Height > 0x7FF {
			return nil, fmt.Errorf("engine image: %dx%d exceeds v8 limit of 2047", d.Width, d.Height)
		}
		h := uint32(colorFormatTrueColorAlphaV8) | uint32(d.Width)<<10 | uint32(d.Height)<<21
		binary.LittleEndian.PutUint32(buf[0:4], h)
		binary.LittleEndian.PutUint32(buf[4:8], uint32(d.DataSize))
		binary.LittleEndian.PutUint32(buf[8:12], uint32(d.Data))
	case V9:
		if d.Width > 0xFFFF || d.Height > 0xFFFF {
			return nil, fmt.Errorf("engine image: %dx%d exceeds v9 limit", d.Width, d.Height)
		}
		buf[0] = imageMagicV9
		buf[1] = colorFormatARGB8888V9
		binary.LittleEndian.PutUint16(buf[4:6], uint16(d.Width))
		binary.LittleEndian.PutUint16(buf[6:8], uint16(d.Height))
		binary.LittleEndian.PutUint16(buf[8:10], uint16(d.Width*4))
		binary.LittleEndian.PutUint32(buf[12:16], uint32(d.DataSize))
		binary.LittleEndian.PutUint32(buf[16:20], uint32(d.Data))
	default:
		return nil, fmt.Errorf("engine image: unknown version %q", v)
	}
	return buf, nil
}

var errShortDescriptor = errors.New("engine image: short descriptor")

// DecodeImageDescriptor parses a header written by Encode.
func DecodeImageDescriptor(v Version, b []byte) (ImageDescriptor, error) {
	if len(b) < ImageDescriptorSize(v) {
		return ImageDescriptor{}, errShortDescriptor
	}
	var d ImageDescriptor
	switch v {
	case V8:
		h := binary.LittleEndian.Uint32(b[0:4])
		if h&0x1F != colorFormatTrueColorAlphaV8 {
			return d, fmt.Errorf("engine image: unsupported v8 color format %d", h&0x1F)
		}
		d.Width = int(h>>10) & 0x7FF
		d.Height = int(h>>21) & 0x7FF
		d.DataSize = int(binary.LittleEndian.Uint32(b[4:8]))
		d.Data = Ptr(binary.LittleEndian.Uint32(b[8:12]))
	case V9:
		if b[0] != imageMagicV9 || b[1] != colorFormatARGB8888V9 {
			return d, fmt.Errorf("engine image: bad v9 header %#x/%#x", b[0], b[1])
		}
		d.Width = int(binary.LittleEndian.Uint16(b[4:6]))
		d.Height = int(binary.LittleEndian.Uint16(b[6:8]))
		d.DataSize = int(binary.LittleEndian.Uint32(b[12:16]))
		d.Data = Ptr(binary.LittleEndian.Uint32(b[16:20]))
	default:
		return d, fmt.Errorf("engine image: unknown version %q", v)
	}
	if d.DataSize != d.Width*d.Height*4 {
		return d, fmt.Errorf("engine image: data size %d does not match %dx%d", d.DataSize, d.Width, d.Height)
	}
	return d, nil
}
