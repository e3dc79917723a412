package project

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v3"

	"github.com/fietser28/studio/engine"
)

// Load reads a project file and, recursively, the projects it imports.
// Resource files are resolved relative to the file that names them.
func Load(path string) (*Project, error) {
	return load(path, make(map[string]bool))
}

func load(path string, visiting map[string]bool) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("project load: %w", err)
	}
	if visiting[abs] {
		return nil, fmt.Errorf("project load: import cycle through %s", abs)
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("project load: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("project load %s: %w", abs, err)
	}
	p.Path = abs
	dir := filepath.Dir(abs)

	for _, imp := range p.Settings.Imports {
		sub, err := load(filepath.Join(dir, imp.Path), visiting)
		if err != nil {
			return nil, fmt.Errorf("project load: import %q: %w", imp.Path, err)
		}
		imp.Project = sub
	}
	if err := p.loadFiles(dir); err != nil {
		return nil, fmt.Errorf("project load %s: %w", abs, err)
	}
	p.Link()
	return p, nil
}

// Parse decodes a project document. Inline bitmap data is decoded; file
// references are left for Load.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("project parse: %w", err)
	}
	if p.Settings.ProjectType == "" {
		p.Settings.ProjectType = ProjectTypeLVGL
	}
	if p.Settings.EngineVersion == "" {
		p.Settings.EngineVersion = engine.V9
	}
	if _, err := engine.ParseVersion(string(p.Settings.EngineVersion)); err != nil {
		return nil, fmt.Errorf("project parse: %w", err)
	}
	for _, b := range p.Bitmaps {
		if b.Data == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(b.Data)
		if err != nil {
			return nil, fmt.Errorf("project parse: bitmap %q: %w", b.Name, err)
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("project parse: bitmap %q: %w", b.Name, err)
		}
		b.img = img
	}
	p.Link()
	return &p, nil
}

func (p *Project) loadFiles(dir string) error {
	for _, b := range p.Bitmaps {
		if b.File == "" {
			continue
		}
		f, err := os.Open(filepath.Join(dir, b.File))
		if err != nil {
			return fmt.Errorf("bitmap %q: %w", b.Name, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("bitmap %q: %w", b.Name, err)
		}
		b.img = img
	}
	for _, fnt := range p.Fonts {
		if fnt.File == "" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, fnt.File))
		if err != nil {
			return fmt.Errorf("font %q: %w", fnt.Name, err)
		}
		fnt.BinFile = base64.StdEncoding.EncodeToString(raw)
	}
	return nil
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func assignPageIDs(page *Page) {
	ensureID(&page.ID)
	for _, w := range page.Widgets() {
		ensureID(&w.ID)
	}
}

func (p *Project) assignIDs() {
	for _, b := range p.Bitmaps {
		ensureID(&b.ID)
	}
	for _, f := range p.Fonts {
		ensureID(&f.ID)
	}
	for _, s := range p.Styles {
		ensureID(&s.ID)
	}
}

// Save writes p as YAML.
func Save(path string, p *Project) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("project save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("project save: %w", err)
	}
	return nil
}
