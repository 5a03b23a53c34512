package scene

import (
	"fmt"
	"os"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	m "github.com/Faultbox/meshforge/pkg/math"
)

// Document is a parsed scene description: the host scene-graph input to
// the pipeline. Roots preserve file order for deterministic runs.
type Document struct {
	Materials   map[string]*Material
	Collections map[string][]Node
	Roots       []Node
}

// LoadDocument reads and parses a scene YAML file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %w", path, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument parses a scene document from YAML bytes.
func ParseDocument(data []byte) (*Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	doc := &Document{
		Materials:   make(map[string]*Material, len(raw.Materials)),
		Collections: make(map[string][]Node, len(raw.Collections)),
	}
	for name, rm := range raw.Materials {
		doc.Materials[name] = &Material{Name: name, Channels: rm.Channels}
	}
	for name, nodes := range raw.Collections {
		built, err := buildNodes(nodes)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", name, err)
		}
		doc.Collections[name] = built
	}
	roots, err := buildNodes(raw.Nodes)
	if err != nil {
		return nil, err
	}
	doc.Roots = roots
	return doc, nil
}

type rawDocument struct {
	Materials   map[string]rawMaterial `yaml:"materials"`
	Collections map[string][]rawNode   `yaml:"collections"`
	Nodes       []rawNode              `yaml:"nodes"`
}

type rawMaterial struct {
	Channels map[Channel]ChannelValue `yaml:"channels"`
}

// rawSlot accepts either a bare material name or a mapping with flags.
type rawSlot struct {
	Material  string `yaml:"material"`
	NoCombine bool   `yaml:"no_combine"`
}

func (s *rawSlot) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&s.Material)
	}
	type plain rawSlot
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = rawSlot(p)
	return nil
}

type rawModifier struct {
	Kind     string     `yaml:"kind"`
	Offset   [3]float32 `yaml:"offset"`
	Distance float32    `yaml:"distance"`
	Axis     string     `yaml:"axis"`
}

type rawFace struct {
	V    [3]int `yaml:"v"`
	Slot int    `yaml:"slot"`
}

type rawMesh struct {
	Positions [][3]float32   `yaml:"positions"`
	Normals   [][3]float32   `yaml:"normals"`
	Faces     []rawFace      `yaml:"faces"`
	UVs       [][][2]float32 `yaml:"uvs"`
}

type rawNode struct {
	Name        string        `yaml:"name"`
	Kind        string        `yaml:"kind"`
	Translation [3]float32    `yaml:"translation"`
	RotAxis     [3]float32    `yaml:"rotation_axis"`
	RotDeg      float32       `yaml:"rotation_deg"`
	Scale       *[3]float32   `yaml:"scale"`
	Slots       []rawSlot     `yaml:"slots"`
	NoCombine   bool          `yaml:"no_combine"`
	Modifiers   []rawModifier `yaml:"modifiers"`

	Mesh       *rawMesh     `yaml:"mesh"`
	Points     [][3]float32 `yaml:"points"`
	Width      float32      `yaml:"width"`
	Text       string       `yaml:"text"`
	GlyphSize  float32      `yaml:"glyph_size"`
	Radius     float32      `yaml:"radius"`
	Collection string       `yaml:"collection"`
}

func vec3(a [3]float32) m.Vec3 { return m.Vec3{X: a[0], Y: a[1], Z: a[2]} }

func (rn *rawNode) transform() m.Transform {
	t := m.IdentityTransform()
	t.Translation = vec3(rn.Translation)
	if rn.RotDeg != 0 {
		axis := vec3(rn.RotAxis)
		if axis.Length() == 0 {
			axis = m.Vec3{Y: 1}
		}
		t.Rotation = m.QuatFromAxisAngle(axis.Normalize(), rn.RotDeg*math32.Pi/180)
	}
	if rn.Scale != nil {
		t.Scale = vec3(*rn.Scale)
	}
	return t
}

func (rn *rawNode) base() (nodeBase, error) {
	b := nodeBase{
		Name:      rn.Name,
		Transform: rn.transform(),
		NoCombine: rn.NoCombine,
	}
	for _, s := range rn.Slots {
		b.Slots = append(b.Slots, s.Material)
		b.SlotFlags = append(b.SlotFlags, s.NoCombine)
	}
	for i, rm := range rn.Modifiers {
		mod, err := buildModifier(rm)
		if err != nil {
			return b, fmt.Errorf("node %q modifier %d: %w", rn.Name, i, err)
		}
		b.Modifiers = append(b.Modifiers, mod)
	}
	return b, nil
}

func buildModifier(rm rawModifier) (Modifier, error) {
	switch rm.Kind {
	case "offset":
		return &OffsetModifier{Offset: vec3(rm.Offset)}, nil
	case "weld":
		return &WeldModifier{Distance: rm.Distance}, nil
	case "mirror":
		return &MirrorModifier{Axis: rm.Axis}, nil
	default:
		return nil, fmt.Errorf("unknown modifier kind %q", rm.Kind)
	}
}

func buildMesh(rm *rawMesh) *Mesh {
	me := &Mesh{}
	for _, p := range rm.Positions {
		me.Positions = append(me.Positions, vec3(p))
	}
	for _, n := range rm.Normals {
		me.Normals = append(me.Normals, vec3(n))
	}
	for _, f := range rm.Faces {
		me.Faces = append(me.Faces, Face{V: f.V, Slot: f.Slot})
	}
	for _, ch := range rm.UVs {
		coords := make([]m.Vec2, 0, len(ch))
		for _, uv := range ch {
			coords = append(coords, m.Vec2{X: uv[0], Y: uv[1]})
		}
		me.UVs = append(me.UVs, coords)
	}
	return me
}

func buildNodes(raws []rawNode) ([]Node, error) {
	var nodes []Node
	for i, rn := range raws {
		n, err := buildNode(rn)
		if err != nil {
			return nil, fmt.Errorf("node %d (%q): %w", i, rn.Name, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func buildNode(rn rawNode) (Node, error) {
	switch rn.Kind {
	case "mesh", "":
		if rn.Mesh == nil {
			return nil, fmt.Errorf("mesh node without mesh data")
		}
		b, err := rn.base()
		if err != nil {
			return nil, err
		}
		return &MeshNode{nodeBase: b, Mesh: buildMesh(rn.Mesh)}, nil
	case "curve":
		b, err := rn.base()
		if err != nil {
			return nil, err
		}
		var pts []m.Vec3
		for _, p := range rn.Points {
			pts = append(pts, vec3(p))
		}
		return &CurveNode{nodeBase: b, Points: pts, Width: rn.Width}, nil
	case "text":
		b, err := rn.base()
		if err != nil {
			return nil, err
		}
		return &TextNode{nodeBase: b, Text: rn.Text, GlyphSize: rn.GlyphSize}, nil
	case "metaball":
		b, err := rn.base()
		if err != nil {
			return nil, err
		}
		return &MetaballNode{nodeBase: b, Radius: rn.Radius}, nil
	case "instance":
		if rn.Collection == "" {
			return nil, fmt.Errorf("instance node without collection")
		}
		return &InstanceNode{Name: rn.Name, Transform: rn.transform(), Collection: rn.Collection}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", rn.Kind)
	}
}
