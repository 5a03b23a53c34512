package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/pkg/profile"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/pipeline"
	"github.com/Faultbox/meshforge/internal/scene"
)

func cmdOptimize(args []string) {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	outDir := fs.String("o", "out", "Output directory")
	configPath := fs.String("config", "", "Config file path")
	strict := fs.Bool("strict", false, "Treat any bake failure as fatal")
	jobs := fs.Int("jobs", -1, "Bake concurrency (0 = all CPUs)")
	noProgress := fs.Bool("no-progress", false, "Disable the bake progress bar")
	cpuProfile := fs.Bool("cpuprofile", false, "Write a CPU profile to the current directory")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshforge optimize <scene.yaml> [options]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	if *strict {
		cfg.Bake.Strict = true
	}
	if *jobs >= 0 {
		cfg.Bake.Concurrency = *jobs
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal("initializing logger: %v", err)
	}
	defer logger.Sync()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	doc, err := scene.LoadDocument(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}

	// Ctrl-C stops launching new bake tasks; in-flight ones finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := pipeline.New(cfg, nil)
	var (
		barMu sync.Mutex
		bar   *pb.ProgressBar
	)
	if !*noProgress {
		runner.Progress = func(done, total int) {
			barMu.Lock()
			defer barMu.Unlock()
			if bar == nil {
				bar = pb.New(total)
				bar.ShowTimeLeft = false
				bar.Start()
			}
			bar.Set(done)
		}
	}

	res, err := runner.Run(ctx, doc)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		fatal("%v", err)
	}

	if err := pipeline.WriteArtifacts(res, cfg.Bake.Channels, *outDir); err != nil {
		fatal("writing artifacts: %v", err)
	}

	fmt.Printf("Run %s: %d combined meshes, %d residual objects, %d atlas pages -> %s\n",
		res.Status, res.Combined, len(res.Objects)-res.Combined, res.Layout.PageCount, *outDir)
	for _, gf := range res.GroupFailures {
		fmt.Fprintf(os.Stderr, "warning: group %s failed: %v\n", gf.Group, gf.Err)
	}
	for _, bf := range res.BakeFailures {
		fmt.Fprintf(os.Stderr, "warning: bake %s/%s failed: %v\n", bf.Material, bf.Channel, bf.Err)
	}
}
