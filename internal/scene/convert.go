package scene

import (
	"fmt"

	m "github.com/Faultbox/meshforge/pkg/math"
)

// ConversionError reports a node that has no mesh-equivalent representation.
type ConversionError struct {
	Node string
	Kind string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("node %q: kind %s has no mesh representation", e.Node, e.Kind)
}

// BuildMesh extrudes the polyline into a flat ribbon in the XZ plane:
// one quad (two triangles) per segment, UVs running 0..1 along the length.
func (n *CurveNode) BuildMesh() (*Mesh, error) {
	if len(n.Points) < 2 {
		return nil, &ConversionError{Node: n.Name, Kind: "curve"}
	}
	w := n.Width
	if w <= 0 {
		w = 0.1
	}
	half := w / 2

	me := &Mesh{Name: n.Name}
	up := m.Vec3{X: 0, Y: 1, Z: 0}

	// Two vertices per curve point, offset sideways from the segment
	// direction. The last point reuses the direction of its segment.
	for i, p := range n.Points {
		var dir m.Vec3
		if i < len(n.Points)-1 {
			dir = n.Points[i+1].Sub(p)
		} else {
			dir = p.Sub(n.Points[i-1])
		}
		side := dir.Cross(up).Normalize().Scale(half)
		if side.Length() == 0 {
			side = m.Vec3{X: half} // vertical segment
		}
		me.Positions = append(me.Positions, p.Add(side), p.Sub(side))
	}

	uv := make([]m.Vec2, 0, 6*(len(n.Points)-1))
	for i := 0; i < len(n.Points)-1; i++ {
		a := 2 * i
		t0 := float32(i) / float32(len(n.Points)-1)
		t1 := float32(i+1) / float32(len(n.Points)-1)
		me.Faces = append(me.Faces,
			Face{V: [3]int{a, a + 1, a + 2}},
			Face{V: [3]int{a + 1, a + 3, a + 2}},
		)
		uv = append(uv,
			m.Vec2{X: t0, Y: 0}, m.Vec2{X: t0, Y: 1}, m.Vec2{X: t1, Y: 0},
			m.Vec2{X: t0, Y: 1}, m.Vec2{X: t1, Y: 1}, m.Vec2{X: t1, Y: 0},
		)
	}
	me.UVs = [][]m.Vec2{uv}
	me.ComputeNormals()
	return me, nil
}

// BuildMesh lays out one quad per rune along +X, each mapping the full
// UV square. Glyph shaping is the exporter's problem, not ours.
func (n *TextNode) BuildMesh() (*Mesh, error) {
	runes := []rune(n.Text)
	if len(runes) == 0 {
		return nil, &ConversionError{Node: n.Name, Kind: "text"}
	}
	size := n.GlyphSize
	if size <= 0 {
		size = 1
	}

	me := &Mesh{Name: n.Name}
	var uv []m.Vec2
	for i := range runes {
		x := float32(i) * size
		base := len(me.Positions)
		me.Positions = append(me.Positions,
			m.Vec3{X: x},
			m.Vec3{X: x + size},
			m.Vec3{X: x, Y: size},
			m.Vec3{X: x + size, Y: size},
		)
		me.Faces = append(me.Faces,
			Face{V: [3]int{base, base + 1, base + 2}},
			Face{V: [3]int{base + 1, base + 3, base + 2}},
		)
		uv = append(uv,
			m.Vec2{}, m.Vec2{X: 1}, m.Vec2{Y: 1},
			m.Vec2{X: 1}, m.Vec2{X: 1, Y: 1}, m.Vec2{Y: 1},
		)
	}
	me.UVs = [][]m.Vec2{uv}
	me.ComputeNormals()
	return me, nil
}
