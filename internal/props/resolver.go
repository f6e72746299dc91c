package props

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/woozymasta/tiled2godot/internal/godot"
)

// Resolver applies a bag to scene nodes, registering the external
// resources it references.
type Resolver struct {
	registry *godot.Registry
	log      *zap.Logger
}

// NewResolver creates a resolver bound to one document registry.
func NewResolver(reg *godot.Registry, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}

	return &Resolver{registry: reg, log: log}
}

// Apply resolves the bag onto node: overrides, script, resources, script
// variables, metadata, then default elision. Problems with individual
// references are returned combined and never stop the remaining steps;
// a fatal registry error is returned alone and immediately.
func (r *Resolver) Apply(node *godot.Node, bag *Bag) error {
	var soft error

	for _, e := range bag.Entries(Override) {
		node.Props.Set(e.Key, e.Value)
	}

	for _, e := range bag.Entries(Script) {
		if e.Path == "" {
			continue
		}

		res, err := r.registry.RegisterExternal(godot.ExtScript, e.Path)
		if err != nil {
			if godot.IsFatal(err) {
				return err
			}
			soft = multierr.Append(soft, r.skip(node, e, err))
			continue
		}

		node.Script = res
		node.Props.Set("script", res.Ref())
	}

	for _, e := range bag.Entries(Resource) {
		if err := r.reference(node.Props, e, godot.ExtResource); err != nil {
			if godot.IsFatal(err) {
				return err
			}
			soft = multierr.Append(soft, r.skip(node, e, err))
		}
	}

	for _, e := range bag.Entries(Var) {
		if e.Path != "" {
			if err := r.reference(node.Props, e, ExtTypeFor(e.Path)); err != nil {
				if godot.IsFatal(err) {
					return err
				}
				soft = multierr.Append(soft, r.skip(node, e, err))
			}
			continue
		}
		node.Props.Set(e.Key, e.Value)
	}

	for _, e := range bag.Entries(Meta) {
		if e.Path != "" {
			if err := r.reference(node.Meta, e, ExtTypeFor(e.Path)); err != nil {
				if godot.IsFatal(err) {
					return err
				}
				soft = multierr.Append(soft, r.skip(node, e, err))
			}
			continue
		}
		node.Meta.Set(e.Key, e.Value)
	}

	node.Props.Elide(godot.DefaultsFor(node.Type))

	return soft
}

// reference registers e's path as an external of type typ and stores the
// reference under e.Key.
func (r *Resolver) reference(dst *godot.Props, e Entry, typ godot.ExtType) error {
	p := e.Path
	if p == "" {
		if s, ok := e.Raw.(string); ok {
			p = s
		}
	}
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%w: %s", godot.ErrEmptyPath, e.Key)
	}

	res, err := r.registry.RegisterExternal(typ, p)
	if err != nil {
		return err
	}

	dst.Set(e.Key, res.Ref())
	return nil
}

// skip logs a reference that could not be resolved.
func (r *Resolver) skip(node *godot.Node, e Entry, err error) error {
	if errors.Is(err, godot.ErrMissingResource) || errors.Is(err, godot.ErrEmptyPath) {
		r.log.Warn("Skipping unresolved reference",
			zap.String("node", node.Name),
			zap.String("property", e.Key),
			zap.Error(err))
	} else {
		r.log.Error("Unable to resolve reference",
			zap.String("node", node.Name),
			zap.String("property", e.Key),
			zap.Error(err))
	}

	return fmt.Errorf("node %s property %s: %w", node.Name, e.Key, err)
}

// ExtTypeFor picks the external resource type of a script variable or
// metadata reference from its file extension.
func ExtTypeFor(p string) godot.ExtType {
	switch strings.ToLower(path.Ext(godot.NormalizePath(p))) {
	case ".tscn", ".scn":
		return godot.ExtPackedScene
	case ".gd", ".cs":
		return godot.ExtScript
	case ".png", ".jpg", ".jpeg", ".webp", ".svg", ".bmp", ".tga":
		return godot.ExtTexture
	default:
		return godot.ExtResource
	}
}
