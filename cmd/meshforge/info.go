package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/Faultbox/meshforge/internal/scene"
)

// cmdInfo prints scene statistics without running any pipeline stage.
func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshforge info <scene.yaml>")
		os.Exit(1)
	}

	doc, err := scene.LoadDocument(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}

	kinds := make(map[string]int)
	countNodes(doc.Roots, kinds)
	for _, nodes := range doc.Collections {
		countNodes(nodes, kinds)
	}

	fmt.Printf("Scene: %s\n", fs.Arg(0))
	fmt.Printf("Root nodes:  %d\n", len(doc.Roots))
	fmt.Printf("Collections: %d\n", len(doc.Collections))
	fmt.Printf("Materials:   %d\n", len(doc.Materials))
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Node kind", "Count"})
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		table.Append([]string{k, strconv.Itoa(kinds[k])})
	}
	table.Render()

	textured := 0
	constants := 0
	for _, mat := range doc.Materials {
		for _, cv := range mat.Channels {
			if cv.HasTexture() {
				textured++
			} else {
				constants++
			}
		}
	}
	fmt.Printf("\nMaterial channels: %d textured, %d constant\n", textured, constants)
}

func countNodes(nodes []scene.Node, kinds map[string]int) {
	for _, n := range nodes {
		switch n.(type) {
		case *scene.MeshNode:
			kinds["mesh"]++
		case *scene.CurveNode:
			kinds["curve"]++
		case *scene.TextNode:
			kinds["text"]++
		case *scene.MetaballNode:
			kinds["metaball"]++
		case *scene.InstanceNode:
			kinds["instance"]++
		}
	}
}
