package combine

import (
	"fmt"
	"testing"

	"github.com/Faultbox/meshforge/internal/scene"
	m "github.com/Faultbox/meshforge/pkg/math"
)

var (
	matA = &scene.Material{Name: "a"}
	matB = &scene.Material{Name: "b"}
)

// quadObject builds an object with the given slot materials and one
// triangle per slot, so vertex and face counts are predictable.
func quadObject(name string, mats ...*scene.Material) *scene.Object {
	me := &scene.Mesh{Name: name}
	for si := range mats {
		base := len(me.Positions)
		me.Positions = append(me.Positions,
			m.Vec3{X: 0}, m.Vec3{X: 1}, m.Vec3{Y: 1},
		)
		me.Faces = append(me.Faces, scene.Face{V: [3]int{base, base + 1, base + 2}, Slot: si})
	}
	me.UVs = [][]m.Vec2{make([]m.Vec2, 3*len(me.Faces))}
	for i := range me.UVs[0] {
		me.UVs[0][i] = m.Vec2{X: 0.5, Y: 0.5}
	}
	me.ComputeNormals()

	obj := &scene.Object{
		Name:      name,
		Transform: m.IdentityTransform(),
		Mesh:      me,
	}
	for _, mat := range mats {
		obj.Slots = append(obj.Slots, scene.MaterialSlot{Material: mat})
	}
	return obj
}

func defaultOptions() Options {
	return Options{Budgets: Budgets{MaxVertices: 65536, MaxSlots: 8}}
}

func TestClassifyGroupsByMaterial(t *testing.T) {
	objects := []*scene.Object{
		quadObject("x1", matA),
		quadObject("x2", matA),
		quadObject("y", matB),
	}
	p := Classify(objects, defaultOptions())
	if len(p.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(p.Groups))
	}
	if len(p.Groups[0].Objects) != 2 {
		t.Errorf("group 0 members = %d, want 2", len(p.Groups[0].Objects))
	}
	if len(p.Groups[1].Objects) != 1 {
		t.Errorf("group 1 members = %d, want 1", len(p.Groups[1].Objects))
	}
	if len(p.Residual) != 0 {
		t.Errorf("residual = %d, want 0", len(p.Residual))
	}
}

func TestClassifyIdenticalObjectsOneGroup(t *testing.T) {
	var objects []*scene.Object
	for i := 0; i < 10; i++ {
		objects = append(objects, quadObject(fmt.Sprintf("o%d", i), matA, matB))
	}
	p := Classify(objects, defaultOptions())
	if len(p.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(p.Groups))
	}
	if p.Groups[0].Vertices != 60 {
		t.Errorf("group vertices = %d, want 60", p.Groups[0].Vertices)
	}
}

func TestClassifySlotOrderSignificant(t *testing.T) {
	objects := []*scene.Object{
		quadObject("ab", matA, matB),
		quadObject("ba", matB, matA),
	}

	p := Classify(objects, defaultOptions())
	if len(p.Groups) != 2 {
		t.Errorf("strict order: groups = %d, want 2", len(p.Groups))
	}

	opts := defaultOptions()
	opts.MatchSlotsIgnoringOrder = true
	p = Classify(objects, opts)
	if len(p.Groups) != 1 {
		t.Errorf("ignoring order: groups = %d, want 1", len(p.Groups))
	}
}

func TestClassifyVertexBudgetSplits(t *testing.T) {
	opts := defaultOptions()
	opts.MaxVertices = 7 // each object carries 3 vertices, so 2 per group

	var objects []*scene.Object
	for i := 0; i < 5; i++ {
		objects = append(objects, quadObject(fmt.Sprintf("o%d", i), matA))
	}
	p := Classify(objects, opts)
	if len(p.Groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(p.Groups))
	}
	for i, g := range p.Groups[:2] {
		if g.Vertices != 6 {
			t.Errorf("group %d vertices = %d, want 6", i, g.Vertices)
		}
	}
}

func TestClassifyOverBudgetSingleton(t *testing.T) {
	opts := defaultOptions()
	opts.MaxVertices = 2

	p := Classify([]*scene.Object{quadObject("big", matA)}, opts)
	if len(p.Groups) != 1 || len(p.Groups[0].Objects) != 1 {
		t.Fatalf("over-budget object should become a singleton group: %+v", p)
	}
}

func TestClassifyResidual(t *testing.T) {
	optOut := quadObject("optout", matA)
	optOut.NoCombine = true

	meshless := &scene.Object{Name: "empty", Transform: m.IdentityTransform()}

	noCombineSlot := quadObject("pinned", matA)
	noCombineSlot.Slots[0].NoCombine = true

	overSlots := quadObject("wide", matA, matB)

	opts := defaultOptions()
	opts.MaxSlots = 1
	p := Classify([]*scene.Object{optOut, meshless, noCombineSlot, overSlots, quadObject("ok", matA)}, opts)
	if len(p.Residual) != 4 {
		t.Fatalf("residual = %d, want 4", len(p.Residual))
	}
	if len(p.Groups) != 1 || p.Groups[0].Objects[0].Name != "ok" {
		t.Fatalf("expected a single group holding %q", "ok")
	}
}

func TestClassifyDeterministic(t *testing.T) {
	objects := []*scene.Object{
		quadObject("x1", matA),
		quadObject("y", matB),
		quadObject("x2", matA),
	}
	p1 := Classify(objects, defaultOptions())
	p2 := Classify(objects, defaultOptions())
	if len(p1.Groups) != len(p2.Groups) {
		t.Fatal("group counts differ between runs")
	}
	for i := range p1.Groups {
		if p1.Groups[i].Key != p2.Groups[i].Key {
			t.Errorf("group %d key differs between runs", i)
		}
	}
	if p1.Groups[0].Objects[0].Name != "x1" || p1.Groups[0].Objects[1].Name != "x2" {
		t.Error("input order not preserved inside group")
	}
}
