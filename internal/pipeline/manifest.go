package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest maps original material identities to their atlas placements,
// for traceability of the packed result.
type Manifest struct {
	PageSize  int                      `yaml:"page_size"`
	Pages     int                      `yaml:"pages"`
	Channels  []string                 `yaml:"channels"`
	Status    string                   `yaml:"status"`
	Materials map[string]ManifestEntry `yaml:"materials"`
	Objects   []ManifestObject         `yaml:"objects"`
	Warnings  []string                 `yaml:"warnings,omitempty"`
}

// ManifestEntry is one material's placement.
type ManifestEntry struct {
	Page     int        `yaml:"page"`
	Rect     [4]int     `yaml:"rect"` // x, y, w, h in texels
	UVOffset [2]float32 `yaml:"uv_offset"`
	UVScale  [2]float32 `yaml:"uv_scale"`
}

// ManifestObject is one output mesh.
type ManifestObject struct {
	Name     string `yaml:"name"`
	Vertices int    `yaml:"vertices"`
	Faces    int    `yaml:"faces"`
	Combined bool   `yaml:"combined"`
}

// BuildManifest assembles the manifest from a run result.
func BuildManifest(res *Result, channels []string) *Manifest {
	man := &Manifest{
		PageSize:  res.Layout.PageSize,
		Pages:     res.Layout.PageCount,
		Channels:  channels,
		Status:    res.Status.String(),
		Materials: make(map[string]ManifestEntry, len(res.Layout.Placements)),
	}
	for _, name := range res.Layout.Order {
		p := res.Layout.Placements[name]
		man.Materials[name] = ManifestEntry{
			Page:     p.Page,
			Rect:     [4]int{p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H},
			UVOffset: [2]float32{p.UV.OffsetX, p.UV.OffsetY},
			UVScale:  [2]float32{p.UV.ScaleX, p.UV.ScaleY},
		}
	}
	for i, obj := range res.Objects {
		entry := ManifestObject{
			Name:     obj.Name,
			Vertices: obj.VertexCount(),
			Combined: i < res.Combined,
		}
		if obj.Mesh != nil {
			entry.Faces = len(obj.Mesh.Faces)
		}
		man.Objects = append(man.Objects, entry)
	}
	for _, gf := range res.GroupFailures {
		man.Warnings = append(man.Warnings, fmt.Sprintf("group %s: %v", gf.Group, gf.Err))
	}
	for _, bf := range res.BakeFailures {
		man.Warnings = append(man.Warnings, fmt.Sprintf("bake %s/%s: %v", bf.Material, bf.Channel, bf.Err))
	}
	return man
}

// WriteManifest writes the manifest as YAML.
func WriteManifest(path string, man *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(man)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
