package scene

import (
	"fmt"

	m "github.com/Faultbox/meshforge/pkg/math"
)

// Modifier is one entry of an object's modifier stack. The instantiator
// applies the whole stack into the mesh data before combination, so
// downstream stages only ever see final geometry.
type Modifier interface {
	ModifierName() string
	Apply(me *Mesh) error
}

// OffsetModifier translates all vertices in object space.
type OffsetModifier struct {
	Offset m.Vec3
}

func (md *OffsetModifier) ModifierName() string { return "offset" }

func (md *OffsetModifier) Apply(me *Mesh) error {
	for i := range me.Positions {
		me.Positions[i] = me.Positions[i].Add(md.Offset)
	}
	return nil
}

// WeldModifier merges vertices closer than Distance, rewriting face
// indices to the surviving vertex and dropping faces that collapse.
type WeldModifier struct {
	Distance float32
}

func (md *WeldModifier) ModifierName() string { return "weld" }

func (md *WeldModifier) Apply(me *Mesh) error {
	if md.Distance <= 0 {
		return fmt.Errorf("weld: distance must be positive, got %f", md.Distance)
	}

	// Quantized-position buckets, same trick as normal smoothing.
	type key [3]int32
	quantize := func(p m.Vec3) key {
		return key{
			int32(p.X / md.Distance),
			int32(p.Y / md.Distance),
			int32(p.Z / md.Distance),
		}
	}

	first := make(map[key]int)
	remap := make([]int, len(me.Positions))
	var positions []m.Vec3
	var normals []m.Vec3
	for i, p := range me.Positions {
		k := quantize(p)
		if j, ok := first[k]; ok {
			remap[i] = j
			continue
		}
		idx := len(positions)
		first[k] = idx
		remap[i] = idx
		positions = append(positions, p)
		if len(me.Normals) > 0 {
			normals = append(normals, me.Normals[i])
		}
	}

	var faces []Face
	var uvs [][]m.Vec2
	uvs = make([][]m.Vec2, len(me.UVs))
	for fi, f := range me.Faces {
		nf := Face{Slot: f.Slot}
		for c := 0; c < 3; c++ {
			nf.V[c] = remap[f.V[c]]
		}
		if nf.V[0] == nf.V[1] || nf.V[1] == nf.V[2] || nf.V[0] == nf.V[2] {
			continue // collapsed
		}
		faces = append(faces, nf)
		for ci := range me.UVs {
			uvs[ci] = append(uvs[ci], me.UVs[ci][3*fi], me.UVs[ci][3*fi+1], me.UVs[ci][3*fi+2])
		}
	}

	me.Positions = positions
	me.Normals = normals
	me.Faces = faces
	me.UVs = uvs
	return nil
}

// MirrorModifier duplicates geometry mirrored across an axis plane
// through the object origin. Face winding is flipped on the mirrored half.
type MirrorModifier struct {
	Axis string // "x", "y" or "z"
}

func (md *MirrorModifier) ModifierName() string { return "mirror" }

func (md *MirrorModifier) Apply(me *Mesh) error {
	flip := func(p m.Vec3) m.Vec3 {
		switch md.Axis {
		case "x":
			p.X = -p.X
		case "y":
			p.Y = -p.Y
		case "z":
			p.Z = -p.Z
		default:
			return p
		}
		return p
	}
	if md.Axis != "x" && md.Axis != "y" && md.Axis != "z" {
		return fmt.Errorf("mirror: unknown axis %q", md.Axis)
	}

	base := len(me.Positions)
	nFaces := len(me.Faces)
	for i := 0; i < base; i++ {
		me.Positions = append(me.Positions, flip(me.Positions[i]))
		if len(me.Normals) > 0 {
			me.Normals = append(me.Normals, flip(me.Normals[i]))
		}
	}
	for fi := 0; fi < nFaces; fi++ {
		f := me.Faces[fi]
		me.Faces = append(me.Faces, Face{
			V:    [3]int{f.V[0] + base, f.V[2] + base, f.V[1] + base},
			Slot: f.Slot,
		})
		for ci := range me.UVs {
			me.UVs[ci] = append(me.UVs[ci], me.UVs[ci][3*fi], me.UVs[ci][3*fi+2], me.UVs[ci][3*fi+1])
		}
	}
	return nil
}
