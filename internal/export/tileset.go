package export

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/woozymasta/tiled2godot/internal/atlas"
	"github.com/woozymasta/tiled2godot/internal/godot"
	"github.com/woozymasta/tiled2godot/internal/props"
	"github.com/woozymasta/tiled2godot/internal/tiled"
)

// Godot variant type tags used by custom data layers.
const (
	variantBool       = 1
	variantInt        = 2
	variantFloat      = 3
	variantString     = 4
	variantColor      = 20
	variantDictionary = 27
)

// Tile shape and layout of isometric tilesets.
const (
	tileShapeIsometric    = 1
	tileLayoutDiamondDown = 1
)

// Tileset renders ts as a TileSet resource written to outPath.
func (e *Exporter) Tileset(ts *tiled.Tileset, outPath string) (*Result, error) {
	res, err := e.resPath(outPath)
	if err != nil {
		return nil, err
	}

	var diag diagnostics
	doc, err := e.tileset(ts, outPath, res, e.project, &diag)
	if err != nil {
		return nil, err
	}

	return &Result{Documents: []Document{doc}, Diagnostics: diag.err}, nil
}

// customLayer is one custom data layer of a tileset.
type customLayer struct {
	name    string
	variant int
}

// tilesetExport holds the state of one tileset document.
type tilesetExport struct {
	e        *Exporter
	ts       *tiled.Tileset
	reg      *godot.Registry
	source   *godot.Props
	image    *image.NRGBA
	anims    map[int]atlas.Animation
	frames   map[int]bool
	physics  int
	custom   []customLayer
	customID map[string]int
	geometry atlas.Geometry
	diag     *diagnostics
}

// tileset renders one tileset document, resolving references through loc
// and collecting soft errors in diag.
func (e *Exporter) tileset(ts *tiled.Tileset, outPath, resPath string, loc godot.Locator, diag *diagnostics) (Document, error) {
	if ts.Image == "" {
		return Document{}, fmt.Errorf("%w: %s", ErrCollectionTileset, ts.Name)
	}

	x := &tilesetExport{
		e:        e,
		ts:       ts,
		reg:      godot.NewRegistry(loc),
		source:   godot.NewProps(),
		anims:    map[int]atlas.Animation{},
		frames:   map[int]bool{},
		physics:  -1,
		customID: map[string]int{},
		geometry: geometryOf(ts),
		diag:     diag,
	}

	bag, err := props.Parse(ts.Properties)
	x.diag.add(err)

	if err := x.atlasSource(bag); err != nil {
		return Document{}, err
	}

	x.animations()

	count := x.geometry.Count()
	if ts.TileCount > 0 && ts.TileCount < count {
		count = ts.TileCount
	}
	for id := 0; id < count; id++ {
		x.tile(id)
	}

	sub, err := x.reg.RegisterSub(godot.SubAtlasSource, x.source)
	if err != nil {
		return Document{}, err
	}

	doc := &godot.ResourceDoc{
		Registry: x.reg,
		Props:    x.resource(bag, sub),
		Type:     "TileSet",
		UID:      e.documentUID(outPath, resPath),
		Format:   e.opts.Format,
	}

	data, err := doc.Bytes()
	if err != nil {
		return Document{}, err
	}

	e.log.Debug("Tileset rendered",
		zap.String("name", ts.Name),
		zap.String("path", resPath),
		zap.Int("tiles", count))

	return Document{Path: outPath, ResPath: resPath, UID: doc.UID, Data: data}, nil
}

// atlasSource fills the atlas source header properties.
func (x *tilesetExport) atlasSource(bag *props.Bag) error {
	ts := x.ts
	x.source.Set("resource_name", godot.String(ts.Name))

	imagePath := ts.ImagePath()
	if imgRes, err := x.e.project.ResPath(imagePath); err != nil {
		x.e.log.Warn("Atlas image is outside the project", zap.String("image", imagePath))
		x.diag.add(fmt.Errorf("tileset %s image: %w", ts.Name, err))
	} else {
		tex, err := x.reg.RegisterExternal(godot.ExtTexture, imgRes)
		if err != nil {
			if godot.IsFatal(err) {
				return err
			}
			x.e.log.Warn("Atlas image not found", zap.String("image", imgRes), zap.Error(err))
			x.diag.add(fmt.Errorf("tileset %s image: %w", ts.Name, err))
		} else {
			x.source.Set("texture", tex.Ref())
		}
	}

	x.source.Set("margins", godot.Vector2i{X: ts.Margin, Y: ts.Margin})
	x.source.Set("separation", godot.Vector2i{X: ts.Spacing, Y: ts.Spacing})
	x.source.Set("texture_region_size", godot.Vector2i{X: ts.TileWidth, Y: ts.TileHeight})
	x.source.Set("use_texture_padding", godot.Bool(bag.Bool(props.UseTexturePadding, true)))

	if x.e.opts.SkipBlankTiles {
		img, err := loadAtlas(imagePath)
		if err != nil {
			x.e.log.Debug("Blank tile detection disabled", zap.String("image", imagePath), zap.Error(err))
		} else {
			x.image = img
		}
	}

	return nil
}

// animations validates every animated tile, remembering the frames that
// must not be emitted as tiles of their own.
func (x *tilesetExport) animations() {
	for i := range x.ts.Tiles {
		t := &x.ts.Tiles[i]
		if len(t.Animation) == 0 {
			continue
		}

		frames := make([]atlas.Frame, len(t.Animation))
		for j, f := range t.Animation {
			frames[j] = atlas.Frame{TileID: f.TileID, Duration: f.Duration}
		}

		anim, err := atlas.ValidateAnimation(x.geometry, t.ID, frames)
		if err != nil {
			x.e.log.Warn("Tile animation ignored",
				zap.String("tileset", x.ts.Name),
				zap.Int("tile", t.ID),
				zap.Error(err))
			x.diag.add(fmt.Errorf("tileset %s tile %d: %w", x.ts.Name, t.ID, err))
			continue
		}

		x.anims[t.ID] = anim
		for _, f := range frames {
			if atlas.IsFrame(t.ID, f.TileID, frames) {
				x.frames[f.TileID] = true
			}
		}
	}
}

// tile writes the atlas entries of one tile id.
func (x *tilesetExport) tile(id int) {
	if x.frames[id] {
		return
	}

	t, ok := x.ts.Tile(id)
	if !ok {
		t = &tiled.Tile{ID: id}
	}
	if !hasData(t) && x.image != nil && blankTile(x.image, x.geometry, id) {
		return
	}

	bag, err := props.Parse(t.Properties)
	x.diag.add(err)

	c := x.geometry.Coords(id)
	key := strconv.Itoa(c.X) + ":" + strconv.Itoa(c.Y)
	alt := key + "/0"

	if anim, ok := x.anims[id]; ok {
		x.source.Set(key+"/animation_columns", godot.Int(anim.Columns))
		if anim.Separation != (godot.Vector2i{}) {
			x.source.Set(key+"/animation_separation", anim.Separation)
		}
		x.source.Set(key+"/animation_speed", godot.Float(anim.Speed))
		for i, d := range anim.Frames {
			x.source.Set(key+"/animation_frame_"+strconv.Itoa(i)+"/duration", godot.Float(d))
		}
	}

	x.source.Set(alt, godot.Int(0))

	x.velocity(alt, bag)
	if t.ObjectGroup != nil {
		x.collisions(alt, t)
	}

	for _, entry := range bag.Entries(props.Plain) {
		x.customData(alt, entry)
	}
}

// hasData reports whether a tile carries anything besides pixels.
func hasData(t *tiled.Tile) bool {
	return t.ClassName() != "" ||
		len(t.Properties) > 0 ||
		len(t.Animation) > 0 ||
		(t.ObjectGroup != nil && len(t.ObjectGroup.Objects) > 0)
}

// velocity writes constant body velocities of a tile on physics layer 0.
func (x *tilesetExport) velocity(alt string, bag *props.Bag) {
	if e, ok := bag.Lookup(props.LinearVelocity); ok {
		v, err := vector(e.Raw)
		if err != nil {
			x.diag.add(fmt.Errorf("tileset %s %s linear velocity: %w", x.ts.Name, alt, err))
		} else if v != (godot.Vector2{}) {
			x.usePhysics(0)
			x.source.Set(alt+"/physics_layer_0/linear_velocity", v)
		}
	}

	if w := bag.Float(props.AngularVelocity, 0); w != 0 {
		x.usePhysics(0)
		x.source.Set(alt+"/physics_layer_0/angular_velocity", godot.Float(w))
	}
}

// collisions writes the collision polygons of a tile, relative to the
// tile center.
func (x *tilesetExport) collisions(alt string, t *tiled.Tile) {
	cx := float64(x.ts.TileWidth) / 2
	cy := float64(x.ts.TileHeight) / 2
	next := map[int]int{}

	for i := range t.ObjectGroup.Objects {
		o := &t.ObjectGroup.Objects[i]

		var points godot.PackedVector2Array
		switch o.Shape() {
		case tiled.ShapeRectangle:
			l, r := o.X-cx, o.X+o.Width-cx
			top, bottom := o.Y-cy, o.Y+o.Height-cy
			points = godot.PackedVector2Array{{X: l, Y: top}, {X: r, Y: top}, {X: r, Y: bottom}, {X: l, Y: bottom}}
		case tiled.ShapePolygon:
			points = make(godot.PackedVector2Array, len(o.Polygon))
			for j, p := range o.Polygon {
				points[j] = godot.Vector2{X: o.X + p.X - cx, Y: o.Y + p.Y - cy}
			}
		default:
			x.e.log.Warn("Only rectangle and polygon tile collisions are supported",
				zap.String("tileset", x.ts.Name),
				zap.Int("tile", t.ID),
				zap.String("shape", o.Shape()))
			continue
		}

		bag, err := props.Parse(o.Properties)
		x.diag.add(err)

		layer := bag.Int(props.PhysicsLayer, 0)
		if layer < 0 {
			x.diag.add(fmt.Errorf("tileset %s tile %d: negative physics layer %d", x.ts.Name, t.ID, layer))
			continue
		}
		x.usePhysics(layer)

		prefix := alt + "/physics_layer_" + strconv.Itoa(layer) + "/polygon_" + strconv.Itoa(next[layer])
		next[layer]++

		x.source.Set(prefix+"/points", points)
		if bag.Bool(props.OneWay, false) {
			x.source.Set(prefix+"/one_way", godot.Bool(true))
		}
	}
}

// usePhysics makes sure physics layers up to n are declared.
func (x *tilesetExport) usePhysics(n int) {
	if n > x.physics {
		x.physics = n
	}
}

// customData writes one custom data value, declaring its layer on first use.
func (x *tilesetExport) customData(alt string, entry props.Entry) {
	if entry.Value == nil {
		return
	}

	variant := variantOf(entry)
	id, ok := x.customID[entry.Key]
	if !ok {
		id = len(x.custom)
		x.customID[entry.Key] = id
		x.custom = append(x.custom, customLayer{name: entry.Key, variant: variant})
	}
	if x.custom[id].variant != variant {
		x.e.log.Warn("Custom data type mismatch",
			zap.String("tileset", x.ts.Name),
			zap.String("tile", alt),
			zap.String("property", entry.Key))
		x.diag.add(fmt.Errorf("tileset %s %s: custom data %s changes type", x.ts.Name, alt, entry.Key))
		return
	}

	x.source.Set(alt+"/custom_data_"+strconv.Itoa(id), entry.Value)
}

// resource builds the [resource] section.
func (x *tilesetExport) resource(bag *props.Bag, sub *godot.SubResource) *godot.Props {
	out := godot.NewProps()

	if x.ts.Grid != nil && x.ts.Grid.Orientation == "isometric" {
		out.Set("tile_shape", godot.Int(tileShapeIsometric))
		out.Set("tile_layout", godot.Int(tileLayoutDiamondDown))
	}
	out.Set("tile_size", godot.Vector2i{X: x.ts.TileWidth, Y: x.ts.TileHeight})

	layer := bag.Int(props.CollisionLayer, int(x.e.opts.CollisionLayer))
	mask := bag.Int(props.CollisionMask, int(x.e.opts.CollisionMask))
	for i := 0; i <= x.physics; i++ {
		p := "physics_layer_" + strconv.Itoa(i)
		out.Set(p+"/collision_layer", godot.Int(layer))
		out.Set(p+"/collision_mask", godot.Int(mask))
	}

	for i, c := range x.custom {
		p := "custom_data_layer_" + strconv.Itoa(i)
		out.Set(p+"/name", godot.String(c.name))
		out.Set(p+"/type", godot.Int(c.variant))
	}

	out.Set("sources/0", sub.Ref())

	return out
}

// geometryOf returns the atlas layout of a tileset.
func geometryOf(ts *tiled.Tileset) atlas.Geometry {
	return atlas.Geometry{
		ImageWidth:  ts.ImageWidth,
		ImageHeight: ts.ImageHeight,
		TileWidth:   ts.TileWidth,
		TileHeight:  ts.TileHeight,
		Margin:      ts.Margin,
		Spacing:     ts.Spacing,
	}
}

// variantOf returns the Godot variant tag of a custom property.
func variantOf(e props.Entry) int {
	switch e.Type {
	case "bool":
		return variantBool
	case "int", "object":
		return variantInt
	case "float":
		return variantFloat
	case "color":
		return variantColor
	case "class":
		if e.Path == "" {
			return variantDictionary
		}
	}

	return variantString
}

// vector reads a 2D vector from "x, y" text or a class value with x and y members.
func vector(raw any) (godot.Vector2, error) {
	switch v := raw.(type) {
	case map[string]any:
		vx, okX := v["x"].(float64)
		vy, okY := v["y"].(float64)
		if !okX || !okY {
			return godot.Vector2{}, fmt.Errorf("class value needs numeric x and y")
		}
		return godot.Vector2{X: vx, Y: vy}, nil
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimSuffix(strings.TrimPrefix(s, "Vector2("), ")")
		parts := strings.Split(s, ",")
		if len(parts) != 2 {
			return godot.Vector2{}, fmt.Errorf("invalid vector %q", v)
		}
		vx, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return godot.Vector2{}, fmt.Errorf("invalid vector %q: %w", v, err)
		}
		vy, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return godot.Vector2{}, fmt.Errorf("invalid vector %q: %w", v, err)
		}
		return godot.Vector2{X: vx, Y: vy}, nil
	case float64:
		return godot.Vector2{X: v, Y: v}, nil
	default:
		return godot.Vector2{}, fmt.Errorf("unsupported vector value %T", raw)
	}
}

// radians converts Tiled degrees to rounded Godot radians.
func radians(deg float64) float64 {
	return godot.Round(deg*math.Pi/180, 6)
}
