package scene

import (
	"testing"

	m "github.com/Faultbox/meshforge/pkg/math"
)

func TestWeldMergesCoincidentVertices(t *testing.T) {
	// Two triangles sharing an edge, stored with duplicated vertices.
	me := &Mesh{
		Positions: []m.Vec3{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1},
			{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		},
		Faces: []Face{
			{V: [3]int{0, 1, 2}},
			{V: [3]int{3, 4, 5}},
		},
		UVs: [][]m.Vec2{make([]m.Vec2, 6)},
	}

	mod := &WeldModifier{Distance: 0.001}
	if err := mod.Apply(me); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(me.Positions) != 4 {
		t.Errorf("welded vertices = %d, want 4", len(me.Positions))
	}
	if len(me.Faces) != 2 {
		t.Errorf("faces = %d, want 2", len(me.Faces))
	}
	if len(me.UVs[0]) != 6 {
		t.Errorf("uv coords = %d, want 6", len(me.UVs[0]))
	}
	if err := me.Validate(1); err != nil {
		t.Errorf("welded mesh invalid: %v", err)
	}
}

func TestWeldDropsCollapsedFaces(t *testing.T) {
	me := &Mesh{
		Positions: []m.Vec3{{X: 0}, {X: 0.0001}, {X: 1}},
		Faces:     []Face{{V: [3]int{0, 1, 2}}},
	}
	mod := &WeldModifier{Distance: 0.01}
	if err := mod.Apply(me); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(me.Faces) != 0 {
		t.Errorf("collapsed face survived: %d faces", len(me.Faces))
	}
}

func TestWeldRejectsNonPositiveDistance(t *testing.T) {
	mod := &WeldModifier{Distance: 0}
	if err := mod.Apply(&Mesh{}); err == nil {
		t.Error("expected error for zero distance")
	}
}

func TestMirrorDuplicatesFlipped(t *testing.T) {
	me := triMesh()
	me.ComputeNormals()
	mod := &MirrorModifier{Axis: "x"}
	if err := mod.Apply(me); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(me.Positions) != 6 || len(me.Faces) != 2 {
		t.Fatalf("mirror output: %d vertices, %d faces", len(me.Positions), len(me.Faces))
	}
	if me.Positions[4].X != -1 {
		t.Errorf("mirrored vertex not flipped: %v", me.Positions[4])
	}
	// Winding must be reversed so the mirrored half still faces outward.
	f := me.Faces[1]
	if f.V != [3]int{3, 5, 4} {
		t.Errorf("mirrored winding = %v, want [3 5 4]", f.V)
	}
	if len(me.UVs[0]) != 6 {
		t.Errorf("mirrored uv coords = %d, want 6", len(me.UVs[0]))
	}
	if err := me.Validate(1); err != nil {
		t.Errorf("mirrored mesh invalid: %v", err)
	}
}

func TestMirrorRejectsUnknownAxis(t *testing.T) {
	mod := &MirrorModifier{Axis: "w"}
	if err := mod.Apply(triMesh()); err == nil {
		t.Error("expected error for unknown axis")
	}
}
