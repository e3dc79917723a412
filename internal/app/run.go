// Package app wires a project to the preview runtimes and drives them from
// a renderer's frame loop.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/fietser28/studio/internal/config"
	"github.com/fietser28/studio/internal/debugserver"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/render"
)

// Run loads the configured project and shows it with renderer until the
// window closes or ctx is done. It is independent of the specific renderer.
func Run(ctx context.Context, renderer render.Renderer, cfg *config.Resolved, opts Options) error {
	if cfg.ProjectPath == "" {
		return fmt.Errorf("app run: no project file given")
	}
	log.Printf("Loading project file: %s", cfg.ProjectPath)
	p, err := project.Load(cfg.ProjectPath)
	if err != nil {
		return err
	}
	log.Printf("Parsed project OK - Name=%q Engine=%s Pages=%d Styles=%d Bitmaps=%d Fonts=%d",
		p.Name, p.Settings.EngineVersion, len(p.AllPages()), len(p.Styles), len(p.Bitmaps), len(p.Fonts))

	if opts.Version == "" {
		opts.Version = cfg.Version
	}
	if opts.StartPage == "" {
		opts.StartPage = cfg.StartPage
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.DebugAddr != "" && opts.Debug == nil {
		srv := debugserver.New()
		opts.Debug = srv
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.DebugAddr); err != nil {
				log.Printf("ERROR App Run: debug server: %v", err)
			}
		}()
	}
	restore := InstallDiagnostics(opts.Debug)
	defer restore()

	a, err := New(p, opts)
	if err != nil {
		return err
	}
	if opts.Debug != nil {
		opts.Debug.SetPageSelector(a.Scheduler(), a.SelectPage)
	}

	if err := renderer.Init(cfg.Window); err != nil {
		renderer.Cleanup()
		return fmt.Errorf("app run: failed to initialize renderer: %w", err)
	}
	defer renderer.Cleanup()

	a.Mount()
	defer a.Close()

	log.Println("Entering main loop...")
	for !renderer.ShouldClose() && ctx.Err() == nil {
		a.Handle(renderer.PollEvents())
		a.Step()

		renderer.BeginFrame()
		renderer.RenderFrame(a.Panels())
		renderer.EndFrame()
	}
	for _, r := range a.Reports() {
		if s := r.String(); s != "" {
			log.Print(s)
		}
	}
	log.Println("Exiting.")
	return nil
}
