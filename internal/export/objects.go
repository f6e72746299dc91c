package export

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/woozymasta/tiled2godot/internal/godot"
	"github.com/woozymasta/tiled2godot/internal/props"
	"github.com/woozymasta/tiled2godot/internal/tiled"
)

// object exports one map object below parent.
func (x *mapExport) object(o *tiled.Object, parent *godot.Node) error {
	if x.e.opts.SkipHidden && !o.IsVisible() {
		return nil
	}

	lists := make([][]tiled.Property, 0, 2)
	if o.GID != 0 {
		if ts, local, ok := x.m.TilesetFor(o.GID); ok {
			if t, ok := ts.Tile(local); ok {
				lists = append(lists, t.Properties)
			}
		}
	}
	lists = append(lists, o.Properties)

	bag, err := props.Parse(lists...)
	x.diag.add(err)

	if bag.Bool(props.Ignore, false) {
		return nil
	}

	if scene := bag.String(props.Instance); scene != "" {
		done, err := x.instance(o, bag, parent, scene)
		if err != nil || done {
			return err
		}
	}

	switch shape := o.Shape(); shape {
	case tiled.ShapeRectangle, tiled.ShapeEllipse, tiled.ShapePolygon, tiled.ShapePolyline:
		return x.body(o, bag, parent)
	case tiled.ShapePoint:
		return x.point(o, bag, parent)
	case tiled.ShapeTile:
		return x.tileObject(o, bag, parent)
	default:
		x.e.log.Warn("Skipping unsupported object",
			zap.String("object", o.Name),
			zap.Int("id", o.ID),
			zap.String("shape", shape))
	}

	return nil
}

// common sets the properties every object node carries.
func (x *mapExport) common(node *godot.Node, o *tiled.Object, bag *props.Bag) {
	if !o.IsVisible() {
		node.Props.Set("visible", godot.Bool(false))
	}
	if bag.Has(props.ZIndex) {
		node.Props.Set("z_index", godot.Int(bag.Int(props.ZIndex, 0)))
	}
	node.Groups = bag.List(props.Groups)
}

// instance adds an instance of another scene. It reports false when the
// scene cannot be referenced so the object is exported normally.
func (x *mapExport) instance(o *tiled.Object, bag *props.Bag, parent *godot.Node, scene string) (bool, error) {
	ext, err := x.reg.RegisterExternal(godot.ExtPackedScene, scene)
	if err != nil {
		if godot.IsFatal(err) {
			return false, err
		}
		x.e.log.Warn("Instanced scene not found, exporting the object itself",
			zap.String("object", o.Name),
			zap.String("scene", scene))
		x.diag.add(fmt.Errorf("object %s instance: %w", o.Name, err))
		return false, nil
	}

	name := o.Name
	if name == "" {
		name = baseName(ext.Path)
	}

	node := godot.NewNode(name, "")
	node.Instance = ext
	x.tree.Register(parent, node)

	if o.X != 0 || o.Y != 0 {
		node.Props.Set("position", godot.Vector2{X: godot.Round(o.X, 3), Y: godot.Round(o.Y, 3)})
	}
	if o.Rotation != 0 {
		node.Props.Set("rotation", godot.Float(radians(o.Rotation)))
	}
	x.common(node, o, bag)

	return true, x.apply(node, bag)
}

// body adds a collision object with a shape child.
func (x *mapExport) body(o *tiled.Object, bag *props.Bag, parent *godot.Node) error {
	typ := bag.String(props.Type)
	if typ == "" {
		typ = x.e.opts.ObjectType
	}
	node := x.tree.Register(parent, godot.NewNode(o.Name, typ))

	pos := areaCenter(o)
	if shape := o.Shape(); shape == tiled.ShapePolygon || shape == tiled.ShapePolyline {
		pos = godot.Vector2{X: godot.Round(o.X, 3), Y: godot.Round(o.Y, 3)}
	}
	node.Props.Set("position", pos)
	node.Props.Set("rotation", godot.Float(radians(o.Rotation)))
	if bag.Has(props.CollisionLayer) {
		node.Props.Set("collision_layer", godot.Int(bag.Int(props.CollisionLayer, 1)))
	}
	if bag.Has(props.CollisionMask) {
		node.Props.Set("collision_mask", godot.Int(bag.Int(props.CollisionMask, 1)))
	}
	x.common(node, o, bag)

	child, err := x.shape(o, node)
	if err != nil {
		return err
	}
	child.Groups = bag.List(props.ShapeGroups)
	if bag.Bool(props.OneWay, false) {
		child.Props.Set("one_way_collision", godot.Bool(true))
	}

	return x.apply(node, bag)
}

// shape adds the collision child of a body.
func (x *mapExport) shape(o *tiled.Object, owner *godot.Node) (*godot.Node, error) {
	switch o.Shape() {
	case tiled.ShapePolygon:
		child := godot.NewNode("CollisionPolygon2D", "CollisionPolygon2D")
		child.Props.Set("polygon", points(o.Polygon))
		return x.tree.Register(owner, child), nil
	case tiled.ShapePolyline:
		child := godot.NewNode("CollisionPolygon2D", "CollisionPolygon2D")
		child.Props.Set("build_mode", godot.Int(1))
		child.Props.Set("polygon", points(o.Polyline))
		return x.tree.Register(owner, child), nil
	}

	shape := godot.NewProps()
	var typ godot.SubType
	var rotation float64
	switch {
	case o.Shape() == tiled.ShapeRectangle:
		typ = godot.SubRectangleShape
		shape.Set("size", godot.Vector2{X: o.Width, Y: o.Height})
	case o.Width == o.Height:
		typ = godot.SubCircleShape
		shape.Set("radius", godot.Float(o.Width/2))
	default:
		typ = godot.SubCapsuleShape
		shape.Set("radius", godot.Float(math.Min(o.Width, o.Height)/2))
		shape.Set("height", godot.Float(math.Max(o.Width, o.Height)))
		if o.Width > o.Height {
			rotation = godot.Round(math.Pi/2, 6)
		}
	}

	sub, err := x.reg.RegisterSub(typ, shape)
	if err != nil {
		return nil, err
	}

	child := godot.NewNode("CollisionShape2D", "CollisionShape2D")
	child.Props.Set("rotation", godot.Float(rotation))
	child.Props.Set("shape", sub.Ref())

	return x.tree.Register(owner, child), nil
}

// point adds a Node2D marker.
func (x *mapExport) point(o *tiled.Object, bag *props.Bag, parent *godot.Node) error {
	typ := bag.String(props.Type)
	if typ == "" {
		typ = "Node2D"
	}

	name := o.Name
	if name == "" {
		name = "Point"
	}

	node := x.tree.Register(parent, godot.NewNode(name, typ))
	node.Props.Set("position", godot.Vector2{X: godot.Round(o.X, 3), Y: godot.Round(o.Y, 3)})
	node.Props.Set("rotation", godot.Float(radians(o.Rotation)))
	x.common(node, o, bag)

	return x.apply(node, bag)
}

// tileObject adds a Sprite2D showing the atlas region of a tile object.
func (x *mapExport) tileObject(o *tiled.Object, bag *props.Bag, parent *godot.Node) error {
	ts, local, ok := x.m.TilesetFor(o.GID)
	if !ok {
		x.diag.add(fmt.Errorf("object %s: %w: %d", o.Name, ErrUnknownTile, o.GID.ID()))
		return nil
	}
	if ts.Image == "" {
		x.diag.add(fmt.Errorf("object %s: %w: %s", o.Name, ErrCollectionTileset, ts.Name))
		return nil
	}

	typ := bag.String(props.Type)
	if typ == "" {
		typ = "Sprite2D"
	}
	node := x.tree.Register(parent, godot.NewNode(o.Name, typ))

	if err := x.texture(node, ts.ImagePath()); err != nil {
		return err
	}

	g := geometryOf(&ts.Tileset)
	w, h := o.Width, o.Height
	if w == 0 {
		w = float64(g.TileWidth)
	}
	if h == 0 {
		h = float64(g.TileHeight)
	}

	node.Props.Set("region_enabled", godot.Bool(true))
	node.Props.Set("region_rect", g.Region(local))
	node.Props.Set("position", tileCenter(o.X, o.Y, w, h, o.Rotation))
	node.Props.Set("rotation", godot.Float(radians(o.Rotation)))
	if g.TileWidth > 0 && g.TileHeight > 0 {
		node.Props.Set("scale", godot.Vector2{
			X: godot.Round(w/float64(g.TileWidth), 6),
			Y: godot.Round(h/float64(g.TileHeight), 6),
		})
	}
	if o.GID.FlipH() {
		node.Props.Set("flip_h", godot.Bool(true))
	}
	if o.GID.FlipV() {
		node.Props.Set("flip_v", godot.Bool(true))
	}
	x.common(node, o, bag)

	return x.apply(node, bag)
}

// areaCenter returns the center of a shape object rotated about its
// top-left corner.
func areaCenter(o *tiled.Object) godot.Vector2 {
	sin, cos := math.Sincos(o.Rotation * math.Pi / 180)
	hw, hh := o.Width/2, o.Height/2

	return godot.Vector2{
		X: godot.Round(o.X+hw*cos-hh*sin, 3),
		Y: godot.Round(o.Y+hw*sin+hh*cos, 3),
	}
}

// tileCenter returns the center of a tile object rotated about its
// bottom-left corner.
func tileCenter(x, y, w, h, deg float64) godot.Vector2 {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	hw, hh := w/2, h/2

	return godot.Vector2{
		X: godot.Round(x+hw*cos+hh*sin, 3),
		Y: godot.Round(y+hw*sin-hh*cos, 3),
	}
}

// points converts Tiled polygon points.
func points(list []tiled.Point) godot.PackedVector2Array {
	out := make(godot.PackedVector2Array, len(list))
	for i, p := range list {
		out[i] = godot.Vector2{X: godot.Round(p.X, 3), Y: godot.Round(p.Y, 3)}
	}

	return out
}
