package pageruntime

import (
	"encoding/base64"
	"fmt"
	"image"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/project"
)

// cacheKey identifies a resource across edits. Resources that were never
// linked have no ID yet and fall back to their name.
func cacheKey(id, name string) string {
	if id != "" {
		return id
	}
	return "name:" + name
}

type bitmapEntry struct {
	img image.Image
	ptr engine.Ptr
}

// BitmapCache holds one engine copy of every bitmap a runtime has drawn.
// An entry is replaced when the bitmap's decoded image changes.
type BitmapCache struct {
	eng     engine.Engine
	version engine.Version
	entries map[string]bitmapEntry
}

func newBitmapCache(eng engine.Engine, v engine.Version) *BitmapCache {
	return &BitmapCache{eng: eng, version: v, entries: make(map[string]bitmapEntry)}
}

// Get returns the address of b's image descriptor in engine memory, or 0
// when b has no image or it could not be placed.
func (c *BitmapCache) Get(b *project.Bitmap) engine.Ptr {
	key := cacheKey(b.ID, b.Name)
	img := b.Image()
	e, ok := c.entries[key]
	if ok && e.img == img {
		return e.ptr
	}
	if ok {
		c.eng.Free(e.ptr)
		delete(c.entries, key)
	}
	if img == nil {
		return 0
	}

	ptr, err := c.place(b)
	if err != nil {
		diag.Report("pageruntime.BitmapCache.Get", diag.KindResourceUnavailable, fmt.Errorf("bitmap %q: %w", b.Name, err))
		return 0
	}
	c.entries[key] = bitmapEntry{img: img, ptr: ptr}
	return ptr
}

func (c *BitmapCache) place(b *project.Bitmap) (engine.Ptr, error) {
	w, h, pix := b.BGRA()
	hdr := engine.ImageDescriptorSize(c.version)
	ptr := c.eng.Malloc(hdr + len(pix))
	if ptr == 0 {
		return 0, fmt.Errorf("out of engine memory for %d bytes", hdr+len(pix))
	}
	desc := engine.ImageDescriptor{Width: w, Height: h, DataSize: len(pix), Data: ptr + engine.Ptr(hdr)}
	enc, err := desc.Encode(c.version)
	if err != nil {
		c.eng.Free(ptr)
		return 0, err
	}
	heap := c.eng.Heap()
	copy(heap[ptr:], enc)
	copy(heap[int(ptr)+hdr:], pix)
	return ptr, nil
}

// Len reports the number of cached bitmaps.
func (c *BitmapCache) Len() int { return len(c.entries) }

// Release frees every cached bitmap.
func (c *BitmapCache) Release() {
	for key, e := range c.entries {
		c.eng.Free(e.ptr)
		delete(c.entries, key)
	}
}

type fontEntry struct {
	bin string
	ptr engine.Ptr
}

// FontCache holds one loaded engine font per font resource. An entry is
// replaced when the font's binary changes.
type FontCache struct {
	eng     engine.Engine
	entries map[string]fontEntry
	byAddr  map[engine.Ptr]*project.Font
}

func newFontCache(eng engine.Engine) *FontCache {
	return &FontCache{
		eng:     eng,
		entries: make(map[string]fontEntry),
		byAddr:  make(map[engine.Ptr]*project.Font),
	}
}

// Get returns the engine handle of f, or 0 when f has no binary or the
// engine could not load it.
func (c *FontCache) Get(f *project.Font) engine.Ptr {
	key := cacheKey(f.ID, f.Name)
	e, ok := c.entries[key]
	if ok && e.bin == f.BinFile {
		return e.ptr
	}
	if ok {
		if e.ptr != 0 {
			c.eng.FreeFont(e.ptr)
			delete(c.byAddr, e.ptr)
		}
		delete(c.entries, key)
	}
	if f.BinFile == "" {
		return 0
	}

	ptr, err := c.load(f.BinFile)
	if err != nil {
		diag.Report("pageruntime.FontCache.Get", diag.KindResourceUnavailable, fmt.Errorf("font %q: %w", f.Name, err))
		return 0
	}
	// A font the engine refused is cached as 0 so it is not retried until
	// its binary changes.
	c.entries[key] = fontEntry{bin: f.BinFile, ptr: ptr}
	if ptr != 0 {
		c.byAddr[ptr] = f
	} else {
		diag.Reportf("pageruntime.FontCache.Get", diag.KindResourceUnavailable, "font %q: engine refused to load it", f.Name)
	}
	return ptr
}

// load copies the font image into engine memory and loads it through a
// memory path. Both temporary buffers are freed before returning.
func (c *FontCache) load(bin string) (engine.Ptr, error) {
	data, err := base64.StdEncoding.DecodeString(bin)
	if err != nil {
		return 0, fmt.Errorf("decoding binary: %w", err)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("empty binary")
	}
	mem := c.eng.Malloc(len(data))
	if mem == 0 {
		return 0, fmt.Errorf("out of engine memory for %d bytes", len(data))
	}
	copy(c.eng.Heap()[mem:], data)

	path := c.eng.AllocateUTF8(fmt.Sprintf("M:%d", mem))
	ptr := c.eng.LoadFont(path)
	c.eng.Free(path)
	c.eng.Free(mem)
	return ptr, nil
}

// ByAddr returns the font loaded at ptr.
func (c *FontCache) ByAddr(ptr engine.Ptr) *project.Font {
	return c.byAddr[ptr]
}

// Len reports the number of cached fonts.
func (c *FontCache) Len() int { return len(c.entries) }

// Release frees every loaded font.
func (c *FontCache) Release() {
	for key, e := range c.entries {
		if e.ptr != 0 {
			c.eng.FreeFont(e.ptr)
		}
		delete(c.entries, key)
	}
	c.byAddr = make(map[engine.Ptr]*project.Font)
}

// StringArena collects engine strings that are released together.
type StringArena struct {
	ptrs []engine.Ptr
}

func (a *StringArena) add(p engine.Ptr) {
	a.ptrs = append(a.ptrs, p)
}

// Len reports how many strings are held.
func (a *StringArena) Len() int { return len(a.ptrs) }

// drain hands every held string to free and empties the arena.
func (a *StringArena) drain(free func(engine.Ptr)) {
	ptrs := a.ptrs
	a.ptrs = nil
	for _, p := range ptrs {
		free(p)
	}
}
