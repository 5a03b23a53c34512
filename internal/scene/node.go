package scene

import (
	m "github.com/Faultbox/meshforge/pkg/math"
)

// Node is one entry in a scene document: either concrete geometry or a
// collection instance. The set of kinds is closed; dispatch is by type
// switch, not reflection.
type Node interface {
	NodeName() string
	NodeTransform() m.Transform
}

// MeshSource is the capability of geometry nodes that can produce a mesh
// representation. Nodes without it (metaballs) are unconvertible.
type MeshSource interface {
	Node
	BuildMesh() (*Mesh, error)
	SlotNames() []string
	NodeModifiers() []Modifier
	OptOut() bool
	SlotOptOuts() []bool
}

// nodeBase carries the fields shared by all geometry node kinds.
type nodeBase struct {
	Name      string
	Transform m.Transform
	Slots     []string
	NoCombine bool
	SlotFlags []bool // per-slot no_combine, padded with false
	Modifiers []Modifier
}

func (b *nodeBase) NodeName() string           { return b.Name }
func (b *nodeBase) NodeTransform() m.Transform { return b.Transform }
func (b *nodeBase) SlotNames() []string        { return b.Slots }
func (b *nodeBase) NodeModifiers() []Modifier  { return b.Modifiers }
func (b *nodeBase) OptOut() bool               { return b.NoCombine }
func (b *nodeBase) SlotOptOuts() []bool        { return b.SlotFlags }

// MeshNode is a node that already carries triangle geometry.
type MeshNode struct {
	nodeBase
	Mesh *Mesh
}

// BuildMesh returns a deep copy so the produced object is single-owner.
func (n *MeshNode) BuildMesh() (*Mesh, error) {
	me := n.Mesh.Clone()
	if me.Name == "" {
		me.Name = n.Name
	}
	return me, nil
}

// CurveNode is a polyline curve extruded into a flat ribbon mesh.
type CurveNode struct {
	nodeBase
	Points []m.Vec3
	Width  float32
}

// TextNode renders as one textured quad per rune.
type TextNode struct {
	nodeBase
	Text      string
	GlyphSize float32
}

// MetaballNode has no mesh-equivalent representation and always fails
// conversion unless the skip policy is enabled.
type MetaballNode struct {
	nodeBase
	Radius float32
}

// InstanceNode references a named collection expanded in place.
type InstanceNode struct {
	Name       string
	Transform  m.Transform
	Collection string
}

func (n *InstanceNode) NodeName() string           { return n.Name }
func (n *InstanceNode) NodeTransform() m.Transform { return n.Transform }
