package combine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/scene"
	m "github.com/Faultbox/meshforge/pkg/math"
)

// BudgetExceededError reports a combined mesh that broke a budget the
// classifier pre-checked. Defensive; it should not occur in practice.
type BudgetExceededError struct {
	Group       string
	Vertices    int
	MaxVertices int
	Slots       int
	MaxSlots    int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("combined mesh %q exceeds budget: %d/%d vertices, %d/%d slots",
		e.Group, e.Vertices, e.MaxVertices, e.Slots, e.MaxSlots)
}

// Combine concatenates the group members into one object with an identity
// transform: vertex buffers appended with rebased indices, world rotation
// and translation baked into positions and normals (scale was normalized
// by the instantiator), per-face slot indices remapped into a group-wide
// compact slot space, and UV channels unioned positionally with zero
// padding where a member lacks a channel.
func Combine(g *Group, budgets Budgets) (*scene.Object, error) {
	if len(g.Objects) == 0 {
		return nil, fmt.Errorf("empty merge group")
	}

	name := g.Objects[0].Name + ".combined"
	out := &scene.Object{
		Name:      name,
		Transform: m.IdentityTransform(),
		Mesh:      &scene.Mesh{Name: name},
	}

	// Compact slot space: members sharing a material collapse to one slot.
	slotIndex := make(map[string]int)
	for _, obj := range g.Objects {
		for _, s := range obj.Slots {
			if _, ok := slotIndex[s.Material.Name]; !ok {
				slotIndex[s.Material.Name] = len(out.Slots)
				out.Slots = append(out.Slots, scene.MaterialSlot{Material: s.Material})
			}
		}
	}

	channels := 0
	for _, obj := range g.Objects {
		if n := len(obj.Mesh.UVs); n > channels {
			channels = n
		}
	}

	me := out.Mesh
	me.UVs = make([][]m.Vec2, channels)
	for _, obj := range g.Objects {
		base := len(me.Positions)
		src := obj.Mesh
		// Members own their mesh after instantiation, so padding missing
		// channels in place is safe.
		src.EnsureUVChannels(channels)
		t := obj.Transform

		for i, p := range src.Positions {
			me.Positions = append(me.Positions, t.ApplyPoint(p))
			if i < len(src.Normals) {
				me.Normals = append(me.Normals, t.ApplyDirection(src.Normals[i]))
			}
		}

		for fi, f := range src.Faces {
			nf := scene.Face{
				V:    [3]int{f.V[0] + base, f.V[1] + base, f.V[2] + base},
				Slot: slotIndex[obj.Slots[f.Slot].Material.Name],
			}
			me.Faces = append(me.Faces, nf)

			for ci := 0; ci < channels; ci++ {
				me.UVs[ci] = append(me.UVs[ci], src.UVs[ci][3*fi], src.UVs[ci][3*fi+1], src.UVs[ci][3*fi+2])
			}
		}
	}

	if len(me.Positions) > budgets.MaxVertices || len(out.Slots) > budgets.MaxSlots {
		return nil, &BudgetExceededError{
			Group:       name,
			Vertices:    len(me.Positions),
			MaxVertices: budgets.MaxVertices,
			Slots:       len(out.Slots),
			MaxSlots:    budgets.MaxSlots,
		}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}

	logger.Log.Debug("combined group",
		zap.String("name", name),
		zap.Int("members", len(g.Objects)),
		zap.Int("vertices", len(me.Positions)),
		zap.Int("faces", len(me.Faces)),
		zap.Int("slots", len(out.Slots)))
	return out, nil
}
