package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fietser28/studio/internal/app"
	"github.com/fietser28/studio/internal/config"
	"github.com/fietser28/studio/render"
	"github.com/fietser28/studio/render/raylib"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	projectPath := flag.String("file", "", "Path to the project file to preview (overrides studio.yaml)")
	configDir := flag.String("config", ".", "Directory containing studio.yaml")
	engineVersion := flag.String("engine", "", "Engine version to preview with, e.g. 8.3 or v9")
	startPage := flag.String("page", "", "Page to open first")
	debugAddr := flag.String("debug", "", "Address for the inspection server, e.g. 127.0.0.1:7070")
	reflect := flag.Bool("reflect", false, "Reflect widget flags for the engine version at startup")
	headless := flag.Int("headless", 0, "Run N frames without a window")
	shots := flag.String("screenshots", ".", "Directory for F12 screenshots")
	flag.Parse()

	cfg, err := config.Resolve(*configDir)
	if err != nil {
		log.Fatalf("ERROR: Cannot load configuration from '%s': %v", *configDir, err)
	}
	if *projectPath != "" {
		cfg.ProjectPath = *projectPath
	}
	if *debugAddr != "" {
		cfg.DebugAddr = *debugAddr
	}
	if cfg.ProjectPath == "" {
		execName := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s -file <project.yaml>\n", execName)
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts := app.Options{
		StartPage:     *startPage,
		Reflect:       *reflect,
		ScreenshotDir: *shots,
	}
	if *engineVersion != "" {
		v, err := config.ParseEngine(*engineVersion)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		opts.Version = v
	}

	var renderer render.Renderer
	if *headless > 0 {
		renderer = &render.Headless{MaxFrames: *headless}
	} else {
		renderer = raylib.NewRaylibRenderer()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, renderer, cfg, opts); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
