package math

import (
	"testing"

	"github.com/chewxy/math32"
)

const epsilon = 1e-5

func almostEqual(a, b float32) bool {
	return math32.Abs(a-b) < epsilon
}

func vec3AlmostEqual(a, b Vec3) bool {
	return almostEqual(a.X, b.X) && almostEqual(a.Y, b.Y) && almostEqual(a.Z, b.Z)
}

func TestVec2Ops(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}

	if got := a.Add(b); got != (Vec2{4, 6}) {
		t.Errorf("Add: got %v", got)
	}
	if got := b.Sub(a); got != (Vec2{2, 2}) {
		t.Errorf("Sub: got %v", got)
	}
	if got := a.Mul(b); got != (Vec2{3, 8}) {
		t.Errorf("Mul: got %v", got)
	}
	if got := a.Dot(b); got != 11 {
		t.Errorf("Dot: got %f", got)
	}
	if got := (Vec2{3, 4}).Length(); !almostEqual(got, 5) {
		t.Errorf("Length: got %f", got)
	}
}

func TestVec2MinMax(t *testing.T) {
	a := Vec2{1, 4}
	b := Vec2{3, 2}
	if got := a.Min(b); got != (Vec2{1, 2}) {
		t.Errorf("Min: got %v", got)
	}
	if got := a.Max(b); got != (Vec2{3, 4}) {
		t.Errorf("Max: got %v", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	if got := x.Cross(y); !vec3AlmostEqual(got, Vec3{0, 0, 1}) {
		t.Errorf("Cross: got %v", got)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize of zero vector: got %v", got)
	}
}

func TestQuatRotate(t *testing.T) {
	// 90 degrees around Z maps +X to +Y.
	q := QuatFromAxisAngle(Vec3{0, 0, 1}, math32.Pi/2)
	got := q.Rotate(Vec3{1, 0, 0})
	if !vec3AlmostEqual(got, Vec3{0, 1, 0}) {
		t.Errorf("Rotate: got %v", got)
	}
}

func TestQuatRotateMatchesMatrix(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 1, 0}.Normalize(), 0.7)
	v := Vec3{1, 2, 3}
	qr := q.Rotate(v)
	mr := q.ToMat4().TransformPoint(v)
	if !vec3AlmostEqual(qr, mr) {
		t.Errorf("quat rotate %v != matrix rotate %v", qr, mr)
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := Translate(1, 2, 3).Mul(RotateY(0.5))
	got := m.Mul(Identity())
	for i := range m {
		if !almostEqual(m[i], got[i]) {
			t.Fatalf("element %d: %f != %f", i, m[i], got[i])
		}
	}
}

func TestMat4TransformPoint(t *testing.T) {
	m := Translate(10, 0, 0)
	got := m.TransformPoint(Vec3{1, 2, 3})
	if !vec3AlmostEqual(got, Vec3{11, 2, 3}) {
		t.Errorf("TransformPoint: got %v", got)
	}
}

func TestTransformApplyOrder(t *testing.T) {
	// Scale then rotate then translate.
	tr := Transform{
		Translation: Vec3{1, 0, 0},
		Rotation:    QuatFromAxisAngle(Vec3{0, 0, 1}, math32.Pi/2),
		Scale:       Vec3{2, 2, 2},
	}
	got := tr.ApplyPoint(Vec3{1, 0, 0})
	if !vec3AlmostEqual(got, Vec3{1, 2, 0}) {
		t.Errorf("ApplyPoint: got %v", got)
	}
}

func TestTransformCompose(t *testing.T) {
	parent := Transform{
		Translation: Vec3{1, 0, 0},
		Rotation:    QuatIdentity(),
		Scale:       Vec3{2, 2, 2},
	}
	child := Transform{
		Translation: Vec3{0, 1, 0},
		Rotation:    QuatIdentity(),
		Scale:       Vec3{1, 1, 1},
	}
	composed := parent.Compose(child)

	p := Vec3{1, 1, 1}
	direct := parent.ApplyPoint(child.ApplyPoint(p))
	viaComposed := composed.ApplyPoint(p)
	if !vec3AlmostEqual(direct, viaComposed) {
		t.Errorf("compose mismatch: direct %v, composed %v", direct, viaComposed)
	}
}

func TestTransformMat4Agrees(t *testing.T) {
	tr := Transform{
		Translation: Vec3{3, -1, 2},
		Rotation:    QuatFromAxisAngle(Vec3{1, 0, 0}, 0.3),
		Scale:       Vec3{2, 3, 4},
	}
	p := Vec3{0.5, -2, 1}
	a := tr.ApplyPoint(p)
	b := tr.Mat4().TransformPoint(p)
	if !vec3AlmostEqual(a, b) {
		t.Errorf("ApplyPoint %v != Mat4 %v", a, b)
	}
}

func TestTransformIsUniform(t *testing.T) {
	u := Transform{Scale: Vec3{2, 2, 2}}
	if !u.IsUniform(1e-6) {
		t.Error("expected uniform scale")
	}
	n := Transform{Scale: Vec3{1, 2, 1}}
	if n.IsUniform(1e-6) {
		t.Error("expected non-uniform scale")
	}
}
