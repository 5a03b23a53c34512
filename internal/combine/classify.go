// Package combine partitions scene objects into merge groups and
// concatenates each group into a single draw-ready mesh.
package combine

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/scene"
)

// Budgets are the per-combined-mesh ceilings.
type Budgets struct {
	MaxVertices int
	MaxSlots    int
}

// Options controls classification.
type Options struct {
	Budgets
	// MatchSlotsIgnoringOrder relaxes slot identity to a set comparison.
	MatchSlotsIgnoringOrder bool
}

// Group is a set of objects judged safe to combine into one mesh.
// All members share the same slot identity key.
type Group struct {
	Key      string
	Objects  []*scene.Object
	Vertices int
}

// Partition is the classifier output: merge groups plus the residual
// objects that stay as they are.
type Partition struct {
	Groups   []*Group
	Residual []*scene.Object
}

// Classify partitions objects into merge groups by greedy first-fit:
// each object joins the first open group with a matching slot identity
// that stays within budget, or opens a new one. Input order is preserved
// so repeated runs produce the same partition. Classification never
// fails; opt-out objects, meshless objects and objects carrying a
// non-combinable slot land in the residual set, and an object already
// over budget on its own becomes a singleton group.
func Classify(objects []*scene.Object, opts Options) *Partition {
	p := &Partition{}

	for _, obj := range objects {
		if !eligible(obj, opts) {
			p.Residual = append(p.Residual, obj)
			continue
		}

		key := slotKey(obj, opts.MatchSlotsIgnoringOrder)
		placed := false
		for _, g := range p.Groups {
			if g.Key != key {
				continue
			}
			if g.Vertices+obj.VertexCount() > opts.MaxVertices {
				continue
			}
			g.Objects = append(g.Objects, obj)
			g.Vertices += obj.VertexCount()
			placed = true
			break
		}
		if !placed {
			p.Groups = append(p.Groups, &Group{
				Key:      key,
				Objects:  []*scene.Object{obj},
				Vertices: obj.VertexCount(),
			})
		}
	}

	logger.Log.Info("classified objects",
		zap.Int("objects", len(objects)),
		zap.Int("groups", len(p.Groups)),
		zap.Int("residual", len(p.Residual)))
	return p
}

func eligible(obj *scene.Object, opts Options) bool {
	if obj.NoCombine || obj.Mesh == nil || len(obj.Slots) == 0 {
		return false
	}
	if len(obj.Slots) > opts.MaxSlots {
		return false
	}
	for _, s := range obj.Slots {
		if s.NoCombine {
			return false
		}
	}
	return true
}

// slotKey is the merge-identity of an object: its ordered material names.
// With ignoreOrder the names are sorted, trading strictness for looser
// matching.
func slotKey(obj *scene.Object, ignoreOrder bool) string {
	names := make([]string, len(obj.Slots))
	for i, s := range obj.Slots {
		names[i] = s.Material.Name
	}
	if ignoreOrder {
		sort.Strings(names)
	}
	return strings.Join(names, "\x00")
}
