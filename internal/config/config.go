// Package config handles pipeline configuration loading and management.
package config

// Config holds all pipeline settings.
type Config struct {
	Merge    MergeConfig    `yaml:"merge"`
	Atlas    AtlasConfig    `yaml:"atlas"`
	Bake     BakeConfig     `yaml:"bake"`
	Textures TexturesConfig `yaml:"textures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MergeConfig holds merge-eligibility budgets and policies.
type MergeConfig struct {
	MaxVertices int `yaml:"max_vertices"` // per combined mesh
	MaxSlots    int `yaml:"max_slots"`    // per combined mesh
	// MatchSlotsIgnoringOrder treats objects with the same materials in a
	// different slot order as compatible. Off by default: order is identity.
	MatchSlotsIgnoringOrder bool `yaml:"match_slots_ignoring_order"`
	// SkipUnconvertible drops nodes with no mesh representation instead of
	// failing the run.
	SkipUnconvertible bool `yaml:"skip_unconvertible"`
}

// AtlasConfig holds atlas packing settings.
type AtlasConfig struct {
	MaxSize      int `yaml:"max_size"`      // page edge length in texels
	Padding      int `yaml:"padding"`       // margin inside each placement
	MinFootprint int `yaml:"min_footprint"` // fallback size for untextured materials
	Cell         int `yaml:"cell"`          // footprints round up to a multiple of this
}

// BakeConfig holds bake scheduling settings.
type BakeConfig struct {
	Channels    []string `yaml:"channels"`
	Concurrency int      `yaml:"concurrency"` // 0 = number of CPUs
	// Strict escalates any single bake failure to a fatal run error.
	Strict bool `yaml:"strict"`
}

// TexturesConfig holds source texture lookup settings.
type TexturesConfig struct {
	SearchPaths []string `yaml:"search_paths"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Merge: MergeConfig{
			MaxVertices: 65536,
			MaxSlots:    8,
		},
		Atlas: AtlasConfig{
			MaxSize:      2048,
			Padding:      4,
			MinFootprint: 32,
			Cell:         4,
		},
		Bake: BakeConfig{
			Channels:    []string{"albedo", "normal", "metallic", "smoothness", "emission"},
			Concurrency: 0,
		},
		Textures: TexturesConfig{
			SearchPaths: []string{"."},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
