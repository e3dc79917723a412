// Command studio-reflect materializes one instance of every palette widget
// per engine version and reports where the declared widget flags disagree
// with what the engine reports.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/engine/soft"
	"github.com/fietser28/studio/frame"
	"github.com/fietser28/studio/internal/config"
	"github.com/fietser28/studio/internal/reflectdb"
	"github.com/fietser28/studio/pageruntime"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/reactive"
)

// maxPumps bounds the wait for engines to become ready.
const maxPumps = 16

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	os.Exit(run(os.Args[1:], os.Stdout, color))
}

func run(args []string, out io.Writer, color bool) int {
	fs := flag.NewFlagSet("studio-reflect", flag.ContinueOnError)
	projectPath := fs.String("file", "", "Project whose settings to reflect with (optional)")
	dbPath := fs.String("db", "", "Report store; versions stored there are not reflected again")
	force := fs.Bool("force", false, "Reflect every version even if a stored report exists")
	only := fs.String("engine", "", "Reflect a single engine version")
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p := &project.Project{Name: "reflect", Settings: project.Settings{ProjectType: project.ProjectTypeLVGL}}
	if *projectPath != "" {
		loaded, err := project.Load(*projectPath)
		if err != nil {
			log.Printf("ERROR: %v", err)
			return 1
		}
		p = loaded
	}

	versions := engine.Versions
	if *only != "" {
		v, err := config.ParseEngine(*only)
		if err != nil {
			log.Printf("ERROR: %v", err)
			return 2
		}
		versions = []engine.Version{v}
	}

	reflected := pageruntime.NewReflectedVersions()
	var db *reflectdb.DB
	if *dbPath != "" {
		var err error
		db, err = reflectdb.Open(*dbPath)
		if err != nil {
			log.Printf("ERROR: %v", err)
			return 1
		}
		defer db.Close()
		if !*force {
			if err := db.Seed(reflected); err != nil {
				log.Printf("ERROR: %v", err)
				return 1
			}
		}
	}

	sched := frame.New()
	store := project.NewStore(p, reactive.NewHub(sched))
	factory := soft.NewFactory(sched)

	reports := make(map[engine.Version]pageruntime.Report)
	fresh := make(map[engine.Version]bool)
	pending := 0
	for _, v := range versions {
		started := pageruntime.Reflect(reflected, pageruntime.Options{
			Store:     store,
			Factory:   factory,
			Scheduler: sched,
			Version:   v,
		}, func(r pageruntime.Report) {
			reports[r.Version] = r
			fresh[r.Version] = true
			pending--
		})
		if started {
			pending++
			continue
		}
		if db != nil {
			rec, err := db.Get(v)
			if err == nil {
				log.Printf("Using report for LVGL %s stored %s", v, rec.ReflectedAt.Format(time.RFC3339))
				reports[v] = rec.Report
			}
		}
	}
	for i := 0; pending > 0 && i < maxPumps; i++ {
		sched.Pump()
	}
	if pending > 0 {
		log.Printf("ERROR: %d engine(s) never became ready", pending)
		return 1
	}

	status := 0
	for _, v := range versions {
		r, ok := reports[v]
		if !ok {
			continue
		}
		if r.Failed {
			log.Printf("ERROR: LVGL %s: gallery page could not be built", v)
			status = 1
			continue
		}
		if db != nil && fresh[v] {
			if err := db.Put(r, time.Now()); err != nil {
				log.Printf("WARN: storing report for %s: %v", v, err)
			}
		}
		if len(r.Mismatches()) == 0 {
			fmt.Fprintf(out, "LVGL %s: %d widget types, flags agree\n", v, len(r.Widgets))
			continue
		}
		status = 1
		block := r.String()
		if color {
			block = "\x1b[31m" + block + "\x1b[0m"
		}
		fmt.Fprintln(out, block)
	}
	return status
}
