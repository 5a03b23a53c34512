package scene

import (
	"errors"
	"testing"

	m "github.com/Faultbox/meshforge/pkg/math"
)

func testMaterial(name string) *Material {
	return &Material{Name: name, Channels: map[Channel]ChannelValue{
		ChannelAlbedo: {Value: [4]float32{1, 1, 1, 1}},
	}}
}

func triMesh() *Mesh {
	return &Mesh{
		Positions: []m.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		Faces:     []Face{{V: [3]int{0, 1, 2}}},
		UVs:       [][]m.Vec2{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}},
	}
}

func meshNode(name string, mat *Material) *MeshNode {
	return &MeshNode{
		nodeBase: nodeBase{
			Name:      name,
			Transform: m.IdentityTransform(),
			Slots:     []string{mat.Name},
		},
		Mesh: triMesh(),
	}
}

func TestInstantiateExpandsInstances(t *testing.T) {
	mat := testMaterial("stone")
	doc := &Document{
		Materials: map[string]*Material{"stone": mat},
		Collections: map[string][]Node{
			"props": {meshNode("rock", mat)},
		},
		Roots: []Node{
			&InstanceNode{Name: "a", Transform: m.Transform{
				Translation: m.Vec3{X: 10},
				Rotation:    m.QuatIdentity(),
				Scale:       m.Vec3{X: 1, Y: 1, Z: 1},
			}, Collection: "props"},
			&InstanceNode{Name: "b", Transform: m.IdentityTransform(), Collection: "props"},
		},
	}

	objects, err := Instantiate(doc, InstantiateOptions{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objects))
	}
	if objects[0].Name != "a/rock" || objects[1].Name != "b/rock" {
		t.Errorf("object names: %q, %q", objects[0].Name, objects[1].Name)
	}
	if objects[0].Transform.Translation.X != 10 {
		t.Errorf("instance transform not baked: %v", objects[0].Transform.Translation)
	}
	if objects[0].Slots[0].Material != mat {
		t.Error("slot material not resolved")
	}
}

func TestInstantiateClonesMeshPerInstance(t *testing.T) {
	mat := testMaterial("stone")
	shared := meshNode("rock", mat)
	doc := &Document{
		Materials:   map[string]*Material{"stone": mat},
		Collections: map[string][]Node{"props": {shared}},
		Roots: []Node{
			&InstanceNode{Name: "a", Transform: m.IdentityTransform(), Collection: "props"},
			&InstanceNode{Name: "b", Transform: m.IdentityTransform(), Collection: "props"},
		},
	}

	objects, err := Instantiate(doc, InstantiateOptions{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	objects[0].Mesh.Positions[0].X = 99
	if objects[1].Mesh.Positions[0].X == 99 {
		t.Error("instances share mesh storage")
	}
	if shared.Mesh.Positions[0].X == 99 {
		t.Error("source node mesh was mutated")
	}
}

func TestInstantiateUniqueNames(t *testing.T) {
	mat := testMaterial("stone")
	doc := &Document{
		Materials: map[string]*Material{"stone": mat},
		Roots:     []Node{meshNode("rock", mat), meshNode("rock", mat), meshNode("rock", mat)},
	}
	objects, err := Instantiate(doc, InstantiateOptions{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	want := []string{"rock", "rock.001", "rock.002"}
	for i, w := range want {
		if objects[i].Name != w {
			t.Errorf("object %d name = %q, want %q", i, objects[i].Name, w)
		}
	}
}

func TestInstantiateDetectsCycles(t *testing.T) {
	doc := &Document{
		Materials: map[string]*Material{},
		Collections: map[string][]Node{
			"a": {&InstanceNode{Name: "toB", Transform: m.IdentityTransform(), Collection: "b"}},
			"b": {&InstanceNode{Name: "toA", Transform: m.IdentityTransform(), Collection: "a"}},
		},
		Roots: []Node{&InstanceNode{Name: "root", Transform: m.IdentityTransform(), Collection: "a"}},
	}

	_, err := Instantiate(doc, InstantiateOptions{})
	var cyc *CyclicInstanceError
	if !errors.As(err, &cyc) {
		t.Fatalf("expected CyclicInstanceError, got %v", err)
	}
}

func TestInstantiateUnconvertible(t *testing.T) {
	meta := &MetaballNode{nodeBase: nodeBase{Name: "blob", Transform: m.IdentityTransform()}}
	doc := &Document{Materials: map[string]*Material{}, Roots: []Node{meta}}

	_, err := Instantiate(doc, InstantiateOptions{})
	var conv *ConversionError
	if !errors.As(err, &conv) {
		t.Fatalf("expected ConversionError, got %v", err)
	}

	objects, err := Instantiate(doc, InstantiateOptions{SkipUnconvertible: true})
	if err != nil {
		t.Fatalf("skip policy should not fail: %v", err)
	}
	if len(objects) != 0 {
		t.Errorf("expected no objects, got %d", len(objects))
	}
}

func TestInstantiateBakesScale(t *testing.T) {
	mat := testMaterial("stone")
	node := meshNode("rock", mat)
	node.Transform = m.Transform{
		Translation: m.Vec3{},
		Rotation:    m.QuatIdentity(),
		Scale:       m.Vec3{X: 2, Y: 2, Z: 2},
	}
	doc := &Document{Materials: map[string]*Material{"stone": mat}, Roots: []Node{node}}

	objects, err := Instantiate(doc, InstantiateOptions{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	obj := objects[0]
	if obj.Transform.Scale != (m.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("scale should be identity after baking, got %v", obj.Transform.Scale)
	}
	if obj.Mesh.Positions[1].X != 2 {
		t.Errorf("scale not baked into vertices: %v", obj.Mesh.Positions[1])
	}
}

func TestInstantiateConvertsCurve(t *testing.T) {
	mat := testMaterial("rope")
	doc := &Document{
		Materials: map[string]*Material{"rope": mat},
		Roots: []Node{&CurveNode{
			nodeBase: nodeBase{Name: "line", Transform: m.IdentityTransform(), Slots: []string{"rope"}},
			Points:   []m.Vec3{{}, {X: 1}, {X: 2}},
			Width:    0.5,
		}},
	}

	objects, err := Instantiate(doc, InstantiateOptions{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	me := objects[0].Mesh
	if len(me.Positions) != 6 {
		t.Errorf("curve ribbon vertices = %d, want 6", len(me.Positions))
	}
	if len(me.Faces) != 4 {
		t.Errorf("curve ribbon faces = %d, want 4", len(me.Faces))
	}
	if len(me.UVs) != 1 || len(me.UVs[0]) != 12 {
		t.Errorf("curve UV layout malformed: %d channels", len(me.UVs))
	}
	if len(me.Normals) != len(me.Positions) {
		t.Errorf("normals missing: %d for %d vertices", len(me.Normals), len(me.Positions))
	}
}

func TestInstantiateConvertsText(t *testing.T) {
	mat := testMaterial("glyphs")
	doc := &Document{
		Materials: map[string]*Material{"glyphs": mat},
		Roots: []Node{&TextNode{
			nodeBase: nodeBase{Name: "label", Transform: m.IdentityTransform(), Slots: []string{"glyphs"}},
			Text:     "abc",
		}},
	}

	objects, err := Instantiate(doc, InstantiateOptions{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	me := objects[0].Mesh
	if len(me.Positions) != 12 || len(me.Faces) != 6 {
		t.Errorf("text mesh: %d vertices, %d faces", len(me.Positions), len(me.Faces))
	}
}

func TestInstantiateAppliesModifiers(t *testing.T) {
	mat := testMaterial("stone")
	node := meshNode("rock", mat)
	node.Modifiers = []Modifier{&OffsetModifier{Offset: m.Vec3{Y: 5}}}
	doc := &Document{Materials: map[string]*Material{"stone": mat}, Roots: []Node{node}}

	objects, err := Instantiate(doc, InstantiateOptions{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if objects[0].Mesh.Positions[0].Y != 5 {
		t.Errorf("offset modifier not applied: %v", objects[0].Mesh.Positions[0])
	}
}
