package scene

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	m "github.com/Faultbox/meshforge/pkg/math"
)

// CyclicInstanceError reports a collection instancing cycle.
type CyclicInstanceError struct {
	Collection string
	Path       []string
}

func (e *CyclicInstanceError) Error() string {
	return fmt.Sprintf("cyclic collection instancing at %q via %s", e.Collection, strings.Join(e.Path, " -> "))
}

// InstantiateOptions controls graph flattening.
type InstantiateOptions struct {
	// SkipUnconvertible drops nodes without a mesh representation instead
	// of failing the run.
	SkipUnconvertible bool
	// Separator joins instance-path segments into object names.
	Separator string
}

// Instantiate flattens a scene document into independent objects: collection
// instances expanded with baked world transforms, meshes and slot lists
// cloned to single owners, non-mesh geometry converted, modifier stacks
// applied, and the scale component of every transform pushed into vertex
// data. Resulting transforms carry only translation and rotation.
func Instantiate(doc *Document, opts InstantiateOptions) ([]*Object, error) {
	if opts.Separator == "" {
		opts.Separator = "/"
	}
	it := &instantiator{doc: doc, opts: opts, names: make(map[string]bool)}

	for _, n := range doc.Roots {
		if err := it.expand(n, "", m.IdentityTransform(), nil); err != nil {
			return nil, err
		}
	}

	logger.Log.Info("instantiated scene graph",
		zap.Int("roots", len(doc.Roots)),
		zap.Int("objects", len(it.objects)),
		zap.Int("skipped", it.skipped))
	return it.objects, nil
}

type instantiator struct {
	doc     *Document
	opts    InstantiateOptions
	names   map[string]bool
	objects []*Object
	skipped int
}

// expand walks one node. stack holds the collection names currently being
// expanded, for cycle detection.
func (it *instantiator) expand(n Node, prefix string, parent m.Transform, stack []string) error {
	switch node := n.(type) {
	case *InstanceNode:
		for _, open := range stack {
			if open == node.Collection {
				return &CyclicInstanceError{Collection: node.Collection, Path: append(stack, node.Collection)}
			}
		}
		children, ok := it.doc.Collections[node.Collection]
		if !ok {
			return fmt.Errorf("instance %q: unknown collection %q", node.Name, node.Collection)
		}
		world := parent.Compose(node.Transform)
		childPrefix := it.joinPath(prefix, node.Name)
		for _, child := range children {
			if err := it.expand(child, childPrefix, world, append(stack, node.Collection)); err != nil {
				return err
			}
		}
		return nil

	case MeshSource:
		return it.emit(node, prefix, parent)

	default:
		if it.opts.SkipUnconvertible {
			logger.Log.Warn("skipping unconvertible node", zap.String("node", n.NodeName()))
			it.skipped++
			return nil
		}
		return &ConversionError{Node: n.NodeName(), Kind: fmt.Sprintf("%T", n)}
	}
}

func (it *instantiator) emit(src MeshSource, prefix string, parent m.Transform) error {
	me, err := src.BuildMesh()
	if err != nil {
		var conv *ConversionError
		if errors.As(err, &conv) && it.opts.SkipUnconvertible {
			logger.Log.Warn("skipping unconvertible node", zap.String("node", src.NodeName()), zap.Error(err))
			it.skipped++
			return nil
		}
		return err
	}

	slots, err := it.resolveSlots(src)
	if err != nil {
		return err
	}

	for _, mod := range src.NodeModifiers() {
		if err := mod.Apply(me); err != nil {
			return fmt.Errorf("node %q: applying %s modifier: %w", src.NodeName(), mod.ModifierName(), err)
		}
	}

	world := parent.Compose(src.NodeTransform())
	applyScale(me, world.Scale)
	world.Scale = m.Vec3{X: 1, Y: 1, Z: 1}

	if len(me.Normals) == 0 {
		me.ComputeNormals()
	}

	obj := &Object{
		Name:      it.uniqueName(it.joinPath(prefix, src.NodeName())),
		Transform: world,
		Mesh:      me,
		Slots:     slots,
		NoCombine: src.OptOut(),
	}
	me.Name = obj.Name
	if err := obj.Validate(); err != nil {
		return err
	}
	it.objects = append(it.objects, obj)
	return nil
}

func (it *instantiator) resolveSlots(src MeshSource) ([]MaterialSlot, error) {
	names := src.SlotNames()
	flags := src.SlotOptOuts()
	slots := make([]MaterialSlot, 0, len(names))
	for i, name := range names {
		mat, ok := it.doc.Materials[name]
		if !ok {
			return nil, fmt.Errorf("node %q: unknown material %q in slot %d", src.NodeName(), name, i)
		}
		slot := MaterialSlot{Material: mat}
		if i < len(flags) {
			slot.NoCombine = flags[i]
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (it *instantiator) joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + it.opts.Separator + name
}

// uniqueName disambiguates colliding instance paths with a numeric suffix,
// keeping repeated runs reproducible.
func (it *instantiator) uniqueName(base string) string {
	if !it.names[base] {
		it.names[base] = true
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s.%03d", base, i)
		if !it.names[name] {
			it.names[name] = true
			return name
		}
	}
}

// applyScale bakes the scale component into vertex positions. Normals are
// recomputed afterwards when scale is non-uniform.
func applyScale(me *Mesh, scale m.Vec3) {
	if scale == (m.Vec3{X: 1, Y: 1, Z: 1}) {
		return
	}
	for i := range me.Positions {
		me.Positions[i] = me.Positions[i].Mul(scale)
	}
	if len(me.Normals) > 0 {
		me.ComputeNormals()
	}
}
