package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/Faultbox/meshforge/internal/atlas"
	"github.com/Faultbox/meshforge/internal/combine"
	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/scene"
	"github.com/Faultbox/meshforge/internal/texture"
)

// cmdPlan runs instantiate, classify and pack only, then prints the
// resulting merge groups and atlas layout. No baking, no file output.
func cmdPlan(args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshforge plan <scene.yaml> [options]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	if err := logger.Init("warn", ""); err != nil {
		fatal("initializing logger: %v", err)
	}

	doc, err := scene.LoadDocument(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}

	objects, err := scene.Instantiate(doc, scene.InstantiateOptions{
		SkipUnconvertible: cfg.Merge.SkipUnconvertible,
	})
	if err != nil {
		fatal("%v", err)
	}

	part := combine.Classify(objects, combine.Options{
		Budgets: combine.Budgets{
			MaxVertices: cfg.Merge.MaxVertices,
			MaxSlots:    cfg.Merge.MaxSlots,
		},
		MatchSlotsIgnoringOrder: cfg.Merge.MatchSlotsIgnoringOrder,
	})

	fmt.Printf("Merge plan: %d objects -> %d groups, %d residual\n\n", len(objects), len(part.Groups), len(part.Residual))

	groups := tablewriter.NewWriter(os.Stdout)
	groups.SetHeader([]string{"Group", "Members", "Vertices", "Materials"})
	for i, g := range part.Groups {
		groups.Append([]string{
			strconv.Itoa(i),
			strconv.Itoa(len(g.Objects)),
			strconv.Itoa(g.Vertices),
			firstSlotNames(g),
		})
	}
	groups.Render()

	// Pack the materials the combined meshes would carry.
	seen := make(map[string]bool)
	var materials []*scene.Material
	for _, g := range part.Groups {
		for _, obj := range g.Objects {
			for _, s := range obj.Slots {
				if !seen[s.Material.Name] {
					seen[s.Material.Name] = true
					materials = append(materials, s.Material)
				}
			}
		}
	}

	tex := texture.NewManager(cfg.Textures.SearchPaths...)
	footprints := atlas.Footprints(materials, tex, atlas.FootprintOptions{
		Min:  cfg.Atlas.MinFootprint,
		Cell: cfg.Atlas.Cell,
		Pad:  cfg.Atlas.Padding,
	})
	layout, err := atlas.Pack(footprints, atlas.PackOptions{
		MaxSize: cfg.Atlas.MaxSize,
		Padding: cfg.Atlas.Padding,
	})
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("\nAtlas layout: %d materials on %d page(s) of %dx%d\n\n",
		len(materials), layout.PageCount, layout.PageSize, layout.PageSize)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Material", "Page", "X", "Y", "W", "H"})
	for _, name := range layout.Order {
		p := layout.Placements[name]
		table.Append([]string{
			name,
			strconv.Itoa(p.Page),
			strconv.Itoa(p.Rect.X),
			strconv.Itoa(p.Rect.Y),
			strconv.Itoa(p.Rect.W),
			strconv.Itoa(p.Rect.H),
		})
	}
	table.Render()
}

func firstSlotNames(g *combine.Group) string {
	obj := g.Objects[0]
	names := ""
	for i, s := range obj.Slots {
		if i > 0 {
			names += ", "
		}
		names += s.Material.Name
	}
	return names
}
