package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/scene"
	"github.com/Faultbox/meshforge/internal/texture"
)

// WriteArtifacts writes the whole artifact set to a directory: one OBJ
// with all output meshes, one PNG per (channel, page), and the manifest.
// Nothing is written for failed runs; the caller discards the result on
// abort instead of undoing partial exports.
func WriteArtifacts(res *Result, channels []string, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	for ch, pages := range res.Images {
		for page, img := range pages {
			path := filepath.Join(dir, AtlasImageName(page, ch))
			if err := texture.WritePNG(path, img); err != nil {
				return err
			}
		}
	}

	objPath := filepath.Join(dir, "combined.obj")
	if err := writeOBJ(objPath, res.Objects); err != nil {
		return err
	}

	manPath := filepath.Join(dir, "manifest.yaml")
	if err := WriteManifest(manPath, BuildManifest(res, channels)); err != nil {
		return err
	}

	logger.Log.Info("wrote artifacts",
		zap.String("dir", dir),
		zap.Int("objects", len(res.Objects)),
		zap.Int("channels", len(res.Images)))
	return nil
}

// writeOBJ serializes the output meshes as Wavefront OBJ. Face corners
// reference per-corner vt entries; indices are global and 1-based.
func writeOBJ(path string, objects []*scene.Object) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# meshforge combined output")

	vertBase := 1
	uvBase := 1
	for _, obj := range objects {
		me := obj.Mesh
		if me == nil {
			continue
		}
		fmt.Fprintf(w, "o %s\n", obj.Name)

		for i, p := range me.Positions {
			// Residual objects still carry a transform; combined ones
			// are identity so this is a no-op for them.
			wp := obj.Transform.ApplyPoint(p)
			fmt.Fprintf(w, "v %g %g %g\n", wp.X, wp.Y, wp.Z)
			if i < len(me.Normals) {
				n := obj.Transform.ApplyDirection(me.Normals[i])
				fmt.Fprintf(w, "vn %g %g %g\n", n.X, n.Y, n.Z)
			}
		}

		hasUV := len(me.UVs) > 0
		if hasUV {
			for _, uv := range me.UVs[0] {
				fmt.Fprintf(w, "vt %g %g\n", uv.X, 1-uv.Y)
			}
		}

		lastSlot := -1
		for fi, face := range me.Faces {
			if face.Slot != lastSlot {
				fmt.Fprintf(w, "usemtl %s\n", obj.Slots[face.Slot].Material.Name)
				lastSlot = face.Slot
			}
			if hasUV {
				fmt.Fprintf(w, "f %d/%d/%d %d/%d/%d %d/%d/%d\n",
					face.V[0]+vertBase, uvBase+3*fi, face.V[0]+vertBase,
					face.V[1]+vertBase, uvBase+3*fi+1, face.V[1]+vertBase,
					face.V[2]+vertBase, uvBase+3*fi+2, face.V[2]+vertBase)
			} else {
				fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n",
					face.V[0]+vertBase, face.V[0]+vertBase,
					face.V[1]+vertBase, face.V[1]+vertBase,
					face.V[2]+vertBase, face.V[2]+vertBase)
			}
		}

		vertBase += len(me.Positions)
		if hasUV {
			uvBase += len(me.UVs[0])
		}
	}
	return w.Flush()
}
