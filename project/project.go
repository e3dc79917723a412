// Package project is the widget model the page runtimes render: projects,
// pages, widget trees, bitmaps, fonts and styles, plus the view state the
// editor shares with them.
package project

import (
	"sort"

	"github.com/fietser28/studio/engine"
)

// ProjectType selects which widget types a project can use.
type ProjectType string

const (
	ProjectTypeLVGL      ProjectType = "lvgl"
	ProjectTypeDashboard ProjectType = "dashboard"
)

// ImportDirective pulls another project's pages into this one.
type ImportDirective struct {
	Path    string   `yaml:"path"`
	Project *Project `yaml:"-"`
}

type Settings struct {
	ProjectType   ProjectType        `yaml:"projectType"`
	EngineVersion engine.Version     `yaml:"engineVersion"`
	DarkTheme     bool               `yaml:"darkTheme,omitempty"`
	Imports       []*ImportDirective `yaml:"imports,omitempty"`
}

type Project struct {
	Name     string    `yaml:"name"`
	Settings Settings  `yaml:"settings"`
	Pages    []*Page   `yaml:"pages"`
	Bitmaps  []*Bitmap `yaml:"bitmaps,omitempty"`
	Fonts    []*Font   `yaml:"fonts,omitempty"`
	Styles   []*Style  `yaml:"styles,omitempty"`

	// Path is the file the project was loaded from.
	Path string `yaml:"-"`
}

// Page is a screen of the UI. Its Screen widget is the tree root.
type Page struct {
	ID     string  `yaml:"id,omitempty"`
	Name   string  `yaml:"name"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Screen *Widget `yaml:"screen,omitempty"`

	project  *Project
	slots    slots
	attached map[RuntimeID]bool
}

// Project returns the project that owns p.
func (p *Page) Project() *Project { return p.project }

// Obj returns the page's root handle in runtime rt, or 0.
func (p *Page) Obj(rt RuntimeID) engine.Obj { return p.slots.get(rt) }

// SetObj records the page's root handle in runtime rt.
func (p *Page) SetObj(rt RuntimeID, o engine.Obj) { p.slots.set(rt, o) }

// ClearObj forgets the page's root handle in runtime rt.
func (p *Page) ClearObj(rt RuntimeID) { p.slots.set(rt, 0) }

// AttachRuntime records that rt renders p.
func (p *Page) AttachRuntime(rt RuntimeID) {
	if p.attached == nil {
		p.attached = make(map[RuntimeID]bool)
	}
	p.attached[rt] = true
}

// DetachRuntime forgets rt.
func (p *Page) DetachRuntime(rt RuntimeID) { delete(p.attached, rt) }

// IsAttached reports whether rt renders p.
func (p *Page) IsAttached(rt RuntimeID) bool { return p.attached[rt] }

// AttachedRuntimes lists the runtimes rendering p, in ascending order.
func (p *Page) AttachedRuntimes() []RuntimeID {
	out := make([]RuntimeID, 0, len(p.attached))
	for rt := range p.attached {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Widgets returns the screen widget followed by all its descendants in
// pre-order. The order is stable for a given tree.
func (p *Page) Widgets() []*Widget {
	if p.Screen == nil {
		return nil
	}
	return append([]*Widget{p.Screen}, p.Screen.Descendants()...)
}

// Link sets the parent and page back references of every node, gives
// pages without a screen an empty one and assigns missing IDs.
func (p *Project) Link() {
	for _, page := range p.Pages {
		p.Adopt(page)
	}
	p.assignIDs()
	for _, imp := range p.Settings.Imports {
		if imp.Project != nil {
			imp.Project.Link()
		}
	}
}

// Adopt links a page that is not one of p.Pages, such as a synthesized
// preview page, so that it resolves styles and resources through p.
func (p *Project) Adopt(page *Page) {
	page.project = p
	if page.Screen == nil {
		page.Screen = &Widget{Type: TypeScreen, Width: page.Width, Height: page.Height}
	}
	page.Screen.link(nil, page)
	assignPageIDs(page)
}

// AllPages returns the project's pages followed, depth first, by the pages
// of every imported project.
func (p *Project) AllPages() []*Page {
	var pages []*Page
	var walk func(*Project)
	walk = func(pr *Project) {
		pages = append(pages, pr.Pages...)
		for _, imp := range pr.Settings.Imports {
			if imp.Project != nil {
				walk(imp.Project)
			}
		}
	}
	walk(p)
	return pages
}

// FindPage looks a page up by name across the project and its imports.
func (p *Project) FindPage(name string) *Page {
	for _, page := range p.AllPages() {
		if page.Name == name {
			return page
		}
	}
	return nil
}

// FindBitmap looks a bitmap up by name, then in imported projects.
func (p *Project) FindBitmap(name string) *Bitmap {
	for _, b := range p.Bitmaps {
		if b.Name == name {
			return b
		}
	}
	for _, imp := range p.Settings.Imports {
		if imp.Project != nil {
			if b := imp.Project.FindBitmap(name); b != nil {
				return b
			}
		}
	}
	return nil
}

// FindFont looks a font up by name, then in imported projects.
func (p *Project) FindFont(name string) *Font {
	for _, f := range p.Fonts {
		if f.Name == name {
			return f
		}
	}
	for _, imp := range p.Settings.Imports {
		if imp.Project != nil {
			if f := imp.Project.FindFont(name); f != nil {
				return f
			}
		}
	}
	return nil
}

// FindStyle looks a style up by name, then in imported projects.
func (p *Project) FindStyle(name string) *Style {
	for _, s := range p.Styles {
		if s.Name == name {
			return s
		}
	}
	for _, imp := range p.Settings.Imports {
		if imp.Project != nil {
			if s := imp.Project.FindStyle(name); s != nil {
				return s
			}
		}
	}
	return nil
}
