package scene

import (
	"fmt"

	"github.com/jinzhu/copier"

	m "github.com/Faultbox/meshforge/pkg/math"
)

// Face is one triangle: three vertex indices and the material slot it uses.
type Face struct {
	V    [3]int
	Slot int
}

// Mesh is triangle geometry with per-vertex positions/normals and
// per-face-corner UV channels. UV channel i stores 3 coordinates per face,
// indexed as 3*faceIndex+corner.
type Mesh struct {
	Name      string
	Positions []m.Vec3
	Normals   []m.Vec3
	Faces     []Face
	UVs       [][]m.Vec2
}

// Validate checks the mesh invariants: every face's vertex indices lie
// within the vertex array and every face's slot index lies within slotCount.
func (me *Mesh) Validate(slotCount int) error {
	for fi, f := range me.Faces {
		for _, vi := range f.V {
			if vi < 0 || vi >= len(me.Positions) {
				return fmt.Errorf("mesh %q: face %d references vertex %d of %d", me.Name, fi, vi, len(me.Positions))
			}
		}
		if f.Slot < 0 || f.Slot >= slotCount {
			return fmt.Errorf("mesh %q: face %d references slot %d of %d", me.Name, fi, f.Slot, slotCount)
		}
	}
	for ci, ch := range me.UVs {
		if len(ch) != 3*len(me.Faces) {
			return fmt.Errorf("mesh %q: uv channel %d has %d coords, want %d", me.Name, ci, len(ch), 3*len(me.Faces))
		}
	}
	if len(me.Normals) != 0 && len(me.Normals) != len(me.Positions) {
		return fmt.Errorf("mesh %q: %d normals for %d vertices", me.Name, len(me.Normals), len(me.Positions))
	}
	return nil
}

// Clone returns a deep copy with no shared backing storage.
func (me *Mesh) Clone() *Mesh {
	out := &Mesh{}
	if err := copier.CopyWithOption(out, me, copier.Option{DeepCopy: true}); err != nil {
		// Mesh is plain data; copier only fails on invalid input types.
		panic(fmt.Sprintf("mesh clone: %v", err))
	}
	return out
}

// EnsureUVChannels pads the mesh with zero-valued UV channels up to n,
// so channel unions across combined members stay well-formed.
func (me *Mesh) EnsureUVChannels(n int) {
	for len(me.UVs) < n {
		me.UVs = append(me.UVs, make([]m.Vec2, 3*len(me.Faces)))
	}
}

// ComputeNormals fills per-vertex normals from face geometry: each face
// contributes its plane normal, degenerate faces are skipped, and vertices
// sharing a quantized position get the averaged result.
func (me *Mesh) ComputeNormals() {
	const eps float32 = 1e-5

	me.Normals = make([]m.Vec3, len(me.Positions))
	for _, f := range me.Faces {
		p0 := me.Positions[f.V[0]]
		p1 := me.Positions[f.V[1]]
		p2 := me.Positions[f.V[2]]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.Length() < eps {
			continue
		}
		n = n.Normalize()
		for _, vi := range f.V {
			me.Normals[vi] = me.Normals[vi].Add(n)
		}
	}
	for i := range me.Normals {
		me.Normals[i] = me.Normals[i].Normalize()
	}
}

// Object is one concrete element of the normalized graph. It exclusively
// owns its Mesh and slot list after instantiation.
type Object struct {
	Name      string
	Transform m.Transform
	Mesh      *Mesh
	Slots     []MaterialSlot
	NoCombine bool
}

// VertexCount returns the number of vertices, zero for meshless objects.
func (o *Object) VertexCount() int {
	if o.Mesh == nil {
		return 0
	}
	return len(o.Mesh.Positions)
}

// Validate checks the object's mesh against its slot list.
func (o *Object) Validate() error {
	if o.Mesh == nil {
		return nil
	}
	return o.Mesh.Validate(len(o.Slots))
}
