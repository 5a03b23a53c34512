package math

// Transform is a decomposed translation/rotation/scale transform.
// Keeping the components separate lets scale be applied into vertex
// data independently of rotation and translation.
type Transform struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// IdentityTransform returns a transform that maps points to themselves.
func IdentityTransform() Transform {
	return Transform{
		Rotation: QuatIdentity(),
		Scale:    Vec3{1, 1, 1},
	}
}

// ApplyPoint transforms a point: scale, then rotate, then translate.
func (t Transform) ApplyPoint(p Vec3) Vec3 {
	return t.Rotation.Rotate(p.Mul(t.Scale)).Add(t.Translation)
}

// ApplyDirection rotates a direction vector, ignoring translation and scale.
func (t Transform) ApplyDirection(d Vec3) Vec3 {
	return t.Rotation.Rotate(d)
}

// Compose returns the transform equivalent to applying child first, then t.
// Non-uniform parent scale under child rotation does not decompose exactly;
// composed scale is the component-wise product.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Translation: t.ApplyPoint(child.Translation),
		Rotation:    t.Rotation.Mul(child.Rotation).Normalize(),
		Scale:       t.Scale.Mul(child.Scale),
	}
}

// Mat4 returns the transform as a matrix.
func (t Transform) Mat4() Mat4 {
	r := t.Rotation.ToMat4()
	s := Scale(t.Scale.X, t.Scale.Y, t.Scale.Z)
	tr := Translate(t.Translation.X, t.Translation.Y, t.Translation.Z)
	return tr.Mul(r).Mul(s)
}

// IsUniform reports whether the scale is the same on all axes within eps.
func (t Transform) IsUniform(eps float32) bool {
	dx := t.Scale.X - t.Scale.Y
	dy := t.Scale.Y - t.Scale.Z
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= eps && dy <= eps
}
