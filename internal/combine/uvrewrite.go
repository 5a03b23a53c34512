package combine

import (
	"fmt"

	"github.com/Faultbox/meshforge/internal/atlas"
	"github.com/Faultbox/meshforge/internal/scene"
)

// RewriteUVs maps the object's primary UV channel into atlas space: every
// face corner is transformed by the placement of the material its face
// uses. The original UVs must lie in 0..1; they become coordinates inside
// the material's atlas rectangle.
func RewriteUVs(obj *scene.Object, layout *atlas.Layout) error {
	me := obj.Mesh
	if me == nil || len(me.UVs) == 0 {
		return nil
	}

	uvs := me.UVs[0]
	for fi, f := range me.Faces {
		mat := obj.Slots[f.Slot].Material
		placement, ok := layout.Placement(mat.Name)
		if !ok {
			return fmt.Errorf("object %q: material %q has no atlas placement", obj.Name, mat.Name)
		}
		for c := 0; c < 3; c++ {
			uvs[3*fi+c] = placement.UV.Apply(uvs[3*fi+c])
		}
	}
	return nil
}
