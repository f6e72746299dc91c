package tiled

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	tmx "github.com/lafriks/go-tiled"
)

// ErrLayerOrder is returned when the layer index of a TMX document does not
// match the layers the decoder produced.
var ErrLayerOrder = errors.New("TMX layer order does not match decoded layers")

// TMX element names of the layer kinds.
const (
	tmxTileLayer   = "layer"
	tmxObjectGroup = "objectgroup"
	tmxImageLayer  = "imagelayer"
	tmxGroup       = "group"
)

// loadTMX reads a TMX map. External tilesets are left to LoadMap.
func loadTMX(path string) (*Map, error) {
	tm, err := tmx.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	idx, err := indexTMX(path)
	if err != nil {
		return nil, err
	}

	m := &Map{
		Type:        "map",
		Class:       tm.Class,
		Orientation: tm.Orientation,
		RenderOrder: tm.RenderOrder,
		Width:       tm.Width,
		Height:      tm.Height,
		TileWidth:   tm.TileWidth,
		TileHeight:  tm.TileHeight,
	}
	if tm.BackgroundColor != nil {
		m.BackgroundColor = tm.BackgroundColor.String()
	}
	if tm.Properties != nil {
		m.Properties = tmxProperties(*tm.Properties)
	}

	for _, ts := range tm.Tilesets {
		mt := &MapTileset{Source: ts.Source, FirstGID: ts.FirstGID}
		if ts.Source == "" {
			mt.Tileset = *tmxTileset(ts)
		}
		m.Tilesets = append(m.Tilesets, mt)
	}

	c := tmxContent{
		tiles:   tm.Layers,
		objects: tm.ObjectGroups,
		images:  tm.ImageLayers,
		groups:  tm.Groups,
	}
	if m.Layers, err = c.layers(idx, &idx.root, m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// loadTSX reads a standalone TSX tileset.
func loadTSX(path string) (*Tileset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ts tmx.Tileset
	if err := xml.NewDecoder(f).Decode(&ts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return tmxTileset(&ts), nil
}

// tmxContent holds the layers of one container as the decoder groups them:
// by kind, each in document order.
type tmxContent struct {
	tiles   []*tmx.Layer
	objects []*tmx.ObjectGroup
	images  []*tmx.ImageLayer
	groups  []*tmx.Group
}

// layers interleaves the decoded layers back into document order.
func (c tmxContent) layers(idx *tmxIndex, order *tmxOrder, m *Map) ([]Layer, error) {
	var out []Layer
	var ti, oi, ii, gi int

	for _, e := range order.entries {
		var l Layer
		switch e.kind {
		case tmxTileLayer:
			if ti >= len(c.tiles) {
				return nil, ErrLayerOrder
			}
			l = tmxTileLayerOf(c.tiles[ti], m)
			ti++

		case tmxObjectGroup:
			if oi >= len(c.objects) {
				return nil, ErrLayerOrder
			}
			l = tmxObjectLayer(c.objects[oi], idx.points)
			oi++

		case tmxImageLayer:
			if ii >= len(c.images) {
				return nil, ErrLayerOrder
			}
			l = tmxImageLayerOf(c.images[ii])
			ii++

		case tmxGroup:
			if gi >= len(c.groups) || e.group == nil {
				return nil, ErrLayerOrder
			}
			g := c.groups[gi]
			gi++

			l = tmxGroupLayer(g)
			sub := tmxContent{tiles: g.Layers, objects: g.ObjectGroups, images: g.ImageLayers, groups: g.Groups}
			children, err := sub.layers(idx, e.group, m)
			if err != nil {
				return nil, err
			}
			l.Layers = children
		}

		l.TintColor = e.tint
		out = append(out, l)
	}

	if ti != len(c.tiles) || oi != len(c.objects) || ii != len(c.images) || gi != len(c.groups) {
		return nil, ErrLayerOrder
	}

	return out, nil
}

// tmxTileLayerOf converts a tile layer, rebuilding gids from decoded tiles.
func tmxTileLayerOf(tl *tmx.Layer, m *Map) Layer {
	l := tmxBase(tl.Name, tl.Class, tl.Visible, tl.Opacity, tl.OffsetX, tl.OffsetY, tl.Properties)
	l.Type = TileLayer
	l.ID = int(tl.ID)
	l.Width = m.Width
	l.Height = m.Height
	l.GIDs = make([]GID, len(tl.Tiles))

	for i, t := range tl.Tiles {
		if t == nil || t.IsNil() || t.Tileset == nil {
			continue
		}

		g := GID(t.Tileset.FirstGID + t.ID)
		if t.HorizontalFlip {
			g |= FlippedHorizontally
		}
		if t.VerticalFlip {
			g |= FlippedVertically
		}
		if t.DiagonalFlip {
			g |= FlippedDiagonally
		}
		l.GIDs[i] = g
	}

	return l
}

// tmxObjectLayer converts an object group.
func tmxObjectLayer(og *tmx.ObjectGroup, points map[uint32]bool) Layer {
	l := tmxBase(og.Name, og.Class, og.Visible, og.Opacity, og.OffsetX, og.OffsetY, og.Properties)
	l.Type = ObjectGroup
	l.ID = int(og.ID)
	l.DrawOrder = og.DrawOrder
	l.Objects = make([]Object, 0, len(og.Objects))

	for _, o := range og.Objects {
		l.Objects = append(l.Objects, tmxObject(o, points[o.ID]))
	}

	return l
}

// tmxImageLayerOf converts an image layer.
func tmxImageLayerOf(il *tmx.ImageLayer) Layer {
	l := tmxBase(il.Name, il.Class, il.Visible, il.Opacity, il.OffsetX+il.X, il.OffsetY+il.Y, il.Properties)
	l.Type = ImageLayer
	l.ID = int(il.ID)
	if il.Image != nil {
		l.Image = il.Image.Source
	}

	return l
}

// tmxGroupLayer converts a group layer without its children.
func tmxGroupLayer(g *tmx.Group) Layer {
	l := tmxBase(g.Name, g.Class, g.Visible, g.Opacity, g.OffsetX, g.OffsetY, g.Properties)
	l.Type = GroupLayer
	l.ID = int(g.ID)

	return l
}

// tmxBase fills the fields every layer kind shares.
func tmxBase(name, class string, visible bool, opacity float32, offX, offY int, props tmx.Properties) Layer {
	alpha := float64(opacity)

	return Layer{
		Name:       name,
		Class:      class,
		Visible:    &visible,
		Opacity:    &alpha,
		OffsetX:    float64(offX),
		OffsetY:    float64(offY),
		Properties: tmxProperties(props),
	}
}

// tmxObject converts one object. point marks <point/> objects, which the
// decoder does not keep.
func tmxObject(o *tmx.Object, point bool) Object {
	visible := o.Visible
	obj := Object{
		Name:       o.Name,
		Type:       o.Type,
		Class:      o.Class,
		Visible:    &visible,
		Properties: tmxProperties(o.Properties),
		ID:         int(o.ID),
		GID:        GID(o.GID),
		X:          o.X,
		Y:          o.Y,
		Width:      o.Width,
		Height:     o.Height,
		Rotation:   o.Rotation,
		Ellipse:    len(o.Ellipses) > 0,
		Point:      point,
	}
	if o.Text != nil {
		obj.Text = &Text{Text: o.Text.Text}
	}
	if len(o.Polygons) > 0 && o.Polygons[0].Points != nil {
		obj.Polygon = tmxPoints(*o.Polygons[0].Points)
	}
	if len(o.PolyLines) > 0 && o.PolyLines[0].Points != nil {
		obj.Polyline = tmxPoints(*o.PolyLines[0].Points)
	}

	return obj
}

// tmxPoints converts polygon vertices.
func tmxPoints(list tmx.Points) []Point {
	out := make([]Point, 0, len(list))
	for _, p := range list {
		if p != nil {
			out = append(out, Point{X: p.X, Y: p.Y})
		}
	}

	return out
}

// tmxTileset converts an embedded or standalone tileset.
func tmxTileset(ts *tmx.Tileset) *Tileset {
	out := &Tileset{
		Name:       ts.Name,
		Class:      ts.Class,
		Properties: tmxProperties(ts.Properties),
		TileWidth:  ts.TileWidth,
		TileHeight: ts.TileHeight,
		Margin:     ts.Margin,
		Spacing:    ts.Spacing,
		TileCount:  ts.TileCount,
		Columns:    ts.Columns,
	}
	if ts.Image != nil {
		out.Image = ts.Image.Source
		out.ImageWidth = ts.Image.Width
		out.ImageHeight = ts.Image.Height
	}
	if ts.TileOffset != nil {
		out.TileOffset = &Offset{X: float64(ts.TileOffset.X), Y: float64(ts.TileOffset.Y)}
	}

	for _, t := range ts.Tiles {
		tile := Tile{
			Type:        t.Type,
			Class:       t.Class,
			Properties:  tmxProperties(t.Properties),
			ID:          int(t.ID),
			Probability: float64(t.Probability),
		}
		if t.Image != nil {
			tile.Image = t.Image.Source
		}
		if len(t.ObjectGroups) > 0 {
			group := tmxObjectLayer(t.ObjectGroups[0], nil)
			tile.ObjectGroup = &group
		}
		for _, f := range t.Animation {
			tile.Animation = append(tile.Animation, Frame{TileID: int(f.TileID), Duration: int(f.Duration)})
		}
		out.Tiles = append(out.Tiles, tile)
	}

	return out
}

// tmxProperties converts properties to the values a JSON document decodes
// to: bool, float64 or string.
func tmxProperties(list tmx.Properties) []Property {
	if len(list) == 0 {
		return nil
	}

	out := make([]Property, 0, len(list))
	for _, p := range list {
		if p == nil {
			continue
		}

		typ := p.Type
		if typ == "" {
			typ = "string"
		}

		var value any = p.Value
		switch typ {
		case "bool":
			if b, err := strconv.ParseBool(p.Value); err == nil {
				value = b
			}
		case "int", "float":
			if f, err := strconv.ParseFloat(p.Value, 64); err == nil {
				value = f
			}
		}

		out = append(out, Property{Name: p.Name, Type: typ, Value: value})
	}

	return out
}

// tmxIndex is what the decoder drops from a TMX map: the interleaved order
// of layer kinds, layer tint colors and point objects.
type tmxIndex struct {
	root   tmxOrder
	points map[uint32]bool
}

// tmxOrder lists the layers of one container in document order.
type tmxOrder struct {
	entries []tmxEntry
}

// tmxEntry is one layer of a container.
type tmxEntry struct {
	group *tmxOrder // children of a group layer
	kind  string    // element name
	tint  string    // tintcolor attribute
}

// indexTMX scans a TMX document for layer order, tints and point objects.
func indexTMX(path string) (*tmxIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx := &tmxIndex{points: map[uint32]bool{}}
	stack := []*tmxOrder{&idx.root}
	var objects []uint32
	tilesets := 0

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return idx, nil
		}
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tileset":
				tilesets++
			case tmxTileLayer, tmxObjectGroup, tmxImageLayer, tmxGroup:
				if tilesets > 0 {
					continue
				}
				top := stack[len(stack)-1]
				e := tmxEntry{kind: t.Name.Local, tint: attrValue(t, "tintcolor")}
				if e.kind == tmxGroup {
					e.group = &tmxOrder{}
				}
				top.entries = append(top.entries, e)
				if e.group != nil {
					stack = append(stack, e.group)
				}
			case "object":
				if tilesets > 0 {
					continue
				}
				id, _ := strconv.ParseUint(attrValue(t, "id"), 10, 32)
				objects = append(objects, uint32(id))
			case "point":
				if tilesets == 0 && len(objects) > 0 {
					idx.points[objects[len(objects)-1]] = true
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tileset":
				tilesets--
			case tmxGroup:
				if tilesets == 0 && len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
			case "object":
				if tilesets == 0 && len(objects) > 0 {
					objects = objects[:len(objects)-1]
				}
			}
		}
	}
}

// attrValue returns the value of attribute name of an element.
func attrValue(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}

	return ""
}
