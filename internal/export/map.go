package export

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/woozymasta/tiled2godot/internal/atlas"
	"github.com/woozymasta/tiled2godot/internal/godot"
	"github.com/woozymasta/tiled2godot/internal/props"
	"github.com/woozymasta/tiled2godot/internal/tiled"
)

// mapExport holds the state of one scene document.
type mapExport struct {
	e        *Exporter
	m        *tiled.Map
	reg      *godot.Registry
	tree     *godot.Tree
	resolver *props.Resolver
	loc      *pending
	tilesets map[*tiled.MapTileset]*godot.ExternalResource
	outPath  string
	docs     []Document
	diag     diagnostics
}

// Map renders m as a scene written to outPath. Embedded tilesets are
// rendered as extra documents the scene references.
func (e *Exporter) Map(m *tiled.Map, outPath string) (*Result, error) {
	res, err := e.resPath(outPath)
	if err != nil {
		return nil, err
	}

	x := &mapExport{
		e:        e,
		m:        m,
		loc:      newPending(e.project),
		tilesets: map[*tiled.MapTileset]*godot.ExternalResource{},
		outPath:  outPath,
	}
	x.reg = godot.NewRegistry(x.loc)
	x.resolver = props.NewResolver(x.reg, e.log)

	bag, err := props.Parse(m.Properties)
	x.diag.add(err)

	name := bag.String(props.Name)
	if name == "" {
		name = baseName(outPath)
	}
	typ := bag.String(props.Type)
	if typ == "" {
		typ = "Node2D"
	}

	x.tree = godot.NewTree(name, typ)
	x.tree.Root.Groups = bag.List(props.Groups)
	if err := x.apply(x.tree.Root, bag); err != nil {
		return nil, err
	}

	for i := range m.Layers {
		if err := x.layer(&m.Layers[i], nil); err != nil {
			return nil, err
		}
	}

	scene := &godot.Scene{
		Registry: x.reg,
		Tree:     x.tree,
		UID:      e.documentUID(outPath, res),
		Format:   e.opts.Format,
	}

	data, err := scene.Bytes()
	if err != nil {
		return nil, err
	}

	e.log.Debug("Scene rendered",
		zap.String("path", res),
		zap.Int("nodes", len(x.tree.Nodes())+1),
		zap.Int("external", len(x.reg.External())),
		zap.Int("sub", len(x.reg.Sub())))

	docs := append([]Document{{Path: outPath, ResPath: res, UID: scene.UID, Data: data}}, x.docs...)
	return &Result{Documents: docs, Diagnostics: x.diag.err}, nil
}

// apply resolves a bag onto node, keeping soft errors.
func (x *mapExport) apply(node *godot.Node, bag *props.Bag) error {
	return x.diag.keep(x.resolver.Apply(node, bag))
}

// layer exports one layer below parent (nil is the scene root).
func (x *mapExport) layer(l *tiled.Layer, parent *godot.Node) error {
	bag, err := props.Parse(l.Properties)
	x.diag.add(err)

	if bag.Bool(props.Ignore, false) {
		return nil
	}
	if x.e.opts.SkipHidden && !l.IsVisible() {
		x.e.log.Debug("Skipping hidden layer", zap.String("layer", l.Name))
		return nil
	}

	switch l.Type {
	case tiled.GroupLayer:
		node, err := x.container(l, bag, parent)
		if err != nil {
			return err
		}
		for i := range l.Layers {
			if err := x.layer(&l.Layers[i], node); err != nil {
				return err
			}
		}

	case tiled.ObjectGroup:
		owner := parent
		if !bag.Bool(props.Flatten, false) {
			if owner, err = x.container(l, bag, parent); err != nil {
				return err
			}
		}
		for i := range l.Objects {
			if err := x.object(&l.Objects[i], owner); err != nil {
				return err
			}
		}

	case tiled.TileLayer:
		return x.tileLayer(l, bag, parent)

	case tiled.ImageLayer:
		return x.imageLayer(l, bag, parent)

	default:
		x.e.log.Warn("Unknown layer type", zap.String("layer", l.Name), zap.String("type", l.Type))
	}

	return nil
}

// container adds a Node2D holding the content of a group or object layer.
func (x *mapExport) container(l *tiled.Layer, bag *props.Bag, parent *godot.Node) (*godot.Node, error) {
	node := x.tree.Register(parent, godot.NewNode(l.Name, "Node2D"))
	return node, x.decorate(node, l, bag)
}

// decorate applies the layer-wide node properties and the layer bag.
func (x *mapExport) decorate(node *godot.Node, l *tiled.Layer, bag *props.Bag) error {
	node.Props.Set("position", godot.Vector2{X: godot.Round(l.OffsetX, 3), Y: godot.Round(l.OffsetY, 3)})
	node.Props.Set("modulate", x.modulate(l))
	if !l.IsVisible() {
		node.Props.Set("visible", godot.Bool(false))
	}
	if bag.Has(props.ZIndex) {
		node.Props.Set("z_index", godot.Int(bag.Int(props.ZIndex, 0)))
	}
	node.Groups = bag.List(props.Groups)

	return x.apply(node, bag)
}

// modulate combines the layer tint with its opacity.
func (x *mapExport) modulate(l *tiled.Layer) godot.Color {
	c := godot.White
	if l.TintColor != "" {
		tint, err := tiled.ParseColor(l.TintColor)
		if err != nil {
			x.diag.add(fmt.Errorf("layer %s tint: %w", l.Name, err))
		} else {
			c = props.ColorValue(tint)
		}
	}
	c.A = godot.Round(c.A*l.Alpha(), 6)

	return c
}

// tileLayer adds one TileMapLayer per tileset painted on the layer.
func (x *mapExport) tileLayer(l *tiled.Layer, bag *props.Bag, parent *godot.Node) error {
	cells, err := l.Cells()
	if err != nil {
		x.e.log.Warn("Skipping unreadable tile layer", zap.String("layer", l.Name), zap.Error(err))
		x.diag.add(fmt.Errorf("layer %s: %w", l.Name, err))
		return nil
	}

	var order []*tiled.MapTileset
	sets := map[*tiled.MapTileset]*atlas.CellSet{}
	for _, c := range cells {
		ts, local, ok := x.m.TilesetFor(c.GID)
		if !ok {
			x.diag.add(fmt.Errorf("layer %s cell (%d, %d): %w: %d", l.Name, c.X, c.Y, ErrUnknownTile, c.GID.ID()))
			continue
		}

		set, ok := sets[ts]
		if !ok {
			set = atlas.NewCellSet()
			sets[ts] = set
			order = append(order, ts)
		}

		at := geometryOf(&ts.Tileset).Coords(local)
		set.Put(atlas.Cell{X: c.X, Y: c.Y, AtlasX: at.X, AtlasY: at.Y, Flags: flagsOf(c.GID)})
	}

	for _, ts := range order {
		name := l.Name
		if len(order) > 1 {
			name += "_" + ts.Name
		}
		node := x.tree.Register(parent, godot.NewNode(name, "TileMapLayer"))

		data, err := atlas.Pack(sets[ts].Cells())
		if err != nil {
			x.diag.add(fmt.Errorf("layer %s: %w", l.Name, err))
		} else {
			node.Props.Set("tile_map_data", godot.PackedByteArray(data))
		}

		ref, err := x.tileset(ts)
		if err != nil {
			return err
		}
		if ref != nil {
			node.Props.Set("tile_set", ref.Ref())
		}
		node.Props.Set("collision_enabled", godot.Bool(bag.Bool(props.CollisionEnabled, true)))

		if err := x.decorate(node, l, bag); err != nil {
			return err
		}
	}

	return nil
}

// flagsOf converts Tiled flip bits to Godot transform flags.
func flagsOf(gid tiled.GID) atlas.Flags {
	var f atlas.Flags
	if gid.FlipH() {
		f |= atlas.FlipH
	}
	if gid.FlipV() {
		f |= atlas.FlipV
	}
	if gid.FlipD() {
		f |= atlas.Transpose
	}

	return f
}

// tileset returns the TileSet resource of a map tileset, rendering
// embedded tilesets on first use. A nil result means the reference could
// not be resolved and was reported.
func (x *mapExport) tileset(ts *tiled.MapTileset) (*godot.ExternalResource, error) {
	if ext, ok := x.tilesets[ts]; ok {
		return ext, nil
	}
	x.tilesets[ts] = nil

	bag, err := props.Parse(ts.Properties)
	x.diag.add(err)
	resPath := bag.String(props.ResPath)

	switch {
	case ts.Source == "":
		doc, err := x.embedded(ts, resPath)
		if err != nil {
			if godot.IsFatal(err) {
				return nil, err
			}
			x.e.log.Warn("Unable to export embedded tileset", zap.String("tileset", ts.Name), zap.Error(err))
			x.diag.add(fmt.Errorf("tileset %s: %w", ts.Name, err))
			return nil, nil
		}
		x.docs = append(x.docs, doc)
		x.loc.add(doc.ResPath, doc.UID)
		resPath = doc.ResPath

	case resPath == "":
		p := strings.TrimSuffix(ts.Path, filepath.Ext(ts.Path)) + ".tres"
		if resPath, err = x.e.project.ResPath(p); err != nil {
			x.diag.add(fmt.Errorf("tileset %s: %w", ts.Name, err))
			return nil, nil
		}
	}

	ext, err := x.reg.RegisterExternal(godot.ExtTileSet, resPath)
	if err != nil {
		if godot.IsFatal(err) {
			return nil, err
		}
		x.e.log.Warn("Tileset resource not found, export it with the tileset command",
			zap.String("tileset", ts.Name),
			zap.String("res_path", resPath))
		x.diag.add(fmt.Errorf("tileset %s: %w", ts.Name, err))
		return nil, nil
	}

	x.tilesets[ts] = ext
	return ext, nil
}

// embedded renders an embedded tileset as its own document.
func (x *mapExport) embedded(ts *tiled.MapTileset, resPath string) (Document, error) {
	var path string
	if resPath != "" {
		path = x.e.project.FilePath(resPath)
	} else {
		dir := filepath.Dir(x.outPath)
		if x.e.opts.TilesetDir != "" {
			dir = x.e.project.FilePath(x.e.opts.TilesetDir)
		}

		name := slug.Make(ts.Name)
		if name == "" {
			name = slug.Make(baseName(x.outPath)) + "-" + strconv.FormatUint(uint64(ts.FirstGID), 10)
		}
		path = filepath.Join(dir, name+".tres")
	}

	res, err := x.e.resPath(path)
	if err != nil {
		return Document{}, err
	}

	return x.e.tileset(&ts.Tileset, path, res, x.loc, &x.diag)
}

// imageLayer adds a Sprite2D showing the layer image.
func (x *mapExport) imageLayer(l *tiled.Layer, bag *props.Bag, parent *godot.Node) error {
	node := x.tree.Register(parent, godot.NewNode(l.Name, "Sprite2D"))

	if l.Image != "" {
		p := filepath.FromSlash(l.Image)
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(x.m.Path), p)
		}
		if err := x.texture(node, p); err != nil {
			return err
		}
	}
	node.Props.Set("centered", godot.Bool(false))

	return x.decorate(node, l, bag)
}

// texture sets the texture of node to the image file at path.
func (x *mapExport) texture(node *godot.Node, path string) error {
	res, err := x.e.project.ResPath(path)
	if err != nil {
		x.diag.add(fmt.Errorf("node %s texture: %w", node.Name, err))
		return nil
	}

	ext, err := x.reg.RegisterExternal(godot.ExtTexture, res)
	if err != nil {
		if godot.IsFatal(err) {
			return err
		}
		x.e.log.Warn("Texture not found", zap.String("node", node.Name), zap.String("image", res))
		x.diag.add(fmt.Errorf("node %s texture: %w", node.Name, err))
		return nil
	}

	node.Props.Set("texture", ext.Ref())
	return nil
}
