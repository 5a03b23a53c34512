// Package scene holds the normalized scene data model and the graph
// instantiator that flattens a scene document into independent objects.
package scene

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Channel identifies one PBR shader input baked independently.
type Channel string

// Supported bake channels.
const (
	ChannelAlbedo     Channel = "albedo"
	ChannelNormal     Channel = "normal"
	ChannelMetallic   Channel = "metallic"
	ChannelSmoothness Channel = "smoothness"
	ChannelEmission   Channel = "emission"
)

// DefaultChannels is the channel set baked when none is configured.
func DefaultChannels() []Channel {
	return []Channel{ChannelAlbedo, ChannelNormal, ChannelMetallic, ChannelSmoothness, ChannelEmission}
}

// NeutralValue returns the fallback fill for a channel, written when a bake
// task fails or a material lacks the channel.
func NeutralValue(c Channel) [4]float32 {
	switch c {
	case ChannelNormal:
		return [4]float32{0.5, 0.5, 1, 1} // flat tangent-space normal
	case ChannelSmoothness:
		return [4]float32{0.5, 0.5, 0.5, 1}
	case ChannelAlbedo:
		return [4]float32{0.5, 0.5, 0.5, 1}
	default:
		return [4]float32{0, 0, 0, 1}
	}
}

// ChannelValue is one material channel: either a constant value or a
// reference to a source texture sampled through a UV channel.
type ChannelValue struct {
	Texture   string     `yaml:"texture,omitempty"`
	UVChannel int        `yaml:"uv,omitempty"`
	Value     [4]float32 `yaml:"value,omitempty"`
}

// HasTexture reports whether the channel references a source texture.
func (c ChannelValue) HasTexture() bool {
	return c.Texture != ""
}

// UnmarshalYAML accepts either a bare scalar (grayscale constant), a
// sequence (RGBA constant, alpha defaulting to 1) or a full mapping.
func (c *ChannelValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float32
		if err := node.Decode(&v); err != nil {
			return err
		}
		c.Value = [4]float32{v, v, v, 1}
		return nil
	case yaml.SequenceNode:
		var vals []float32
		if err := node.Decode(&vals); err != nil {
			return err
		}
		if len(vals) < 3 || len(vals) > 4 {
			return fmt.Errorf("channel value needs 3 or 4 components, got %d", len(vals))
		}
		c.Value = [4]float32{vals[0], vals[1], vals[2], 1}
		if len(vals) == 4 {
			c.Value[3] = vals[3]
		}
		return nil
	case yaml.MappingNode:
		var p struct {
			Texture   string    `yaml:"texture"`
			UVChannel int       `yaml:"uv"`
			Value     []float32 `yaml:"value"`
		}
		if err := node.Decode(&p); err != nil {
			return err
		}
		c.Texture = p.Texture
		c.UVChannel = p.UVChannel
		c.Value = [4]float32{0, 0, 0, 1}
		switch len(p.Value) {
		case 0:
		case 1:
			v := p.Value[0]
			c.Value = [4]float32{v, v, v, 1}
		case 3, 4:
			copy(c.Value[:], p.Value)
			if len(p.Value) == 3 {
				c.Value[3] = 1
			}
		default:
			return fmt.Errorf("channel value needs 1, 3 or 4 components, got %d", len(p.Value))
		}
		return nil
	default:
		return fmt.Errorf("unsupported channel value node kind %d", node.Kind)
	}
}

// Material is an immutable shader description. Identity is the name;
// materials are never mutated, only superseded by atlas materials.
type Material struct {
	Name     string                   `yaml:"name"`
	Channels map[Channel]ChannelValue `yaml:"channels"`
}

// Channel returns the value for a channel and whether it is present.
func (m *Material) Channel(c Channel) (ChannelValue, bool) {
	v, ok := m.Channels[c]
	return v, ok
}

// MaterialSlot binds a material to a slot position on an object.
// After instantiation slot lists are object-exclusive.
type MaterialSlot struct {
	Material  *Material
	NoCombine bool // excluded from merge-identity comparison (e.g. lightmapped)
}
