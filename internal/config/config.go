package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/render"
)

// FileName is the optional preview configuration file.
const FileName = "studio.yaml"

// Config represents studio.yaml.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Project ProjectConfig `yaml:"project"`
	Debug   DebugConfig   `yaml:"debug"`
}

// WindowConfig contains preview window settings.
type WindowConfig struct {
	Title      string  `yaml:"title,omitempty"`
	Width      int     `yaml:"width,omitempty"`
	Height     int     `yaml:"height,omitempty"`
	Scale      float32 `yaml:"scale,omitempty"`
	FPS        int     `yaml:"fps,omitempty"`
	Resizable  *bool   `yaml:"resizable,omitempty"`
	Background string  `yaml:"background,omitempty"`
}

// ProjectConfig points at the project to preview.
type ProjectConfig struct {
	Path string `yaml:"path,omitempty"`
	// Engine overrides the project's engine version. Accepts "8.3", "9.0"
	// or a semantic version such as "v9.1.0".
	Engine string `yaml:"engine,omitempty"`
	Page   string `yaml:"page,omitempty"`
}

// DebugConfig configures the inspection server.
type DebugConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root        string
	ProjectPath string
	// Version is empty when the project's own version applies.
	Version   engine.Version
	StartPage string
	DebugAddr string
	Window    render.WindowConfig
}

// LoadOptional reads studio.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Resolve loads studio.yaml (if present) and fills in defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(dir)
}

// Resolve fills in defaults relative to dir.
func (cfg *Config) Resolve(dir string) (*Resolved, error) {
	win := render.DefaultWindowConfig()
	if t := strings.TrimSpace(cfg.Window.Title); t != "" {
		win.Title = t
	}
	if cfg.Window.Width > 0 {
		win.Width = cfg.Window.Width
	}
	if cfg.Window.Height > 0 {
		win.Height = cfg.Window.Height
	}
	if cfg.Window.Scale > 0 {
		win.ScaleFactor = cfg.Window.Scale
	}
	if cfg.Window.FPS > 0 {
		win.FPS = cfg.Window.FPS
	}
	if cfg.Window.Resizable != nil {
		win.Resizable = *cfg.Window.Resizable
	}
	if bg := strings.TrimSpace(cfg.Window.Background); bg != "" {
		c, err := colorful.Hex(bg)
		if err != nil {
			return nil, fmt.Errorf("window.background %q: %w", bg, err)
		}
		r, g, b := c.RGB255()
		win.DefaultBg.R, win.DefaultBg.G, win.DefaultBg.B = r, g, b
	}

	version, err := ParseEngine(cfg.Project.Engine)
	if err != nil {
		return nil, err
	}

	projectPath := strings.TrimSpace(cfg.Project.Path)
	if projectPath != "" && !filepath.IsAbs(projectPath) {
		projectPath = filepath.Join(dir, projectPath)
	}

	return &Resolved{
		Root:        dir,
		ProjectPath: projectPath,
		Version:     version,
		StartPage:   strings.TrimSpace(cfg.Project.Page),
		DebugAddr:   strings.TrimSpace(cfg.Debug.Addr),
		Window:      win,
	}, nil
}

// ParseEngine maps an engine setting to a supported version. The empty
// string resolves to "". Semantic versions select by major version.
func ParseEngine(s string) (engine.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if v, err := engine.ParseVersion(s); err == nil {
		return v, nil
	}
	sv := s
	if !strings.HasPrefix(sv, "v") {
		sv = "v" + sv
	}
	if !semver.IsValid(sv) {
		return "", fmt.Errorf("project.engine %q is not a version", s)
	}
	switch semver.Major(sv) {
	case "v8":
		return engine.V8, nil
	case "v9":
		return engine.V9, nil
	}
	return "", fmt.Errorf("project.engine %q: unsupported major version %s", s, semver.Major(sv))
}
