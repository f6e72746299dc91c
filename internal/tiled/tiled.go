// Package tiled reads Tiled maps and tilesets (.tmx/.tsx, .tmj/.tsj, or the
// JSON documents written as YAML) into a read-only snapshot.
package tiled

import (
	"encoding/json"
	"path/filepath"
)

// Layer types as written in the "type" field.
const (
	TileLayer   = "tilelayer"
	ObjectGroup = "objectgroup"
	ImageLayer  = "imagelayer"
	GroupLayer  = "group"
)

// Map is a Tiled map document.
type Map struct {
	Path            string        `json:"-"`               // file the map was loaded from
	Type            string        `json:"type"`            // always "map"
	Class           string        `json:"class"`           // user class
	Orientation     string        `json:"orientation"`     // orthogonal, isometric, staggered, hexagonal
	RenderOrder     string        `json:"renderorder"`     // right-down, ...
	BackgroundColor string        `json:"backgroundcolor"` // #AARRGGBB
	Properties      []Property    `json:"properties"`      // custom properties
	Layers          []Layer       `json:"layers"`          // top-level layers
	Tilesets        []*MapTileset `json:"tilesets"`        // tilesets by first gid
	Width           int           `json:"width"`           // columns
	Height          int           `json:"height"`          // rows
	TileWidth       int           `json:"tilewidth"`       // cell width in pixels
	TileHeight      int           `json:"tileheight"`      // cell height in pixels
	Infinite        bool          `json:"infinite"`        // layer data stored in chunks
}

// MapTileset is a tileset entry of a map: either embedded or a reference
// to an external tileset file resolved at load time.
type MapTileset struct {
	Tileset
	Source   string `json:"source"`   // external tileset path relative to the map
	FirstGID uint32 `json:"firstgid"` // first global id covered by the tileset
}

// Tileset is a Tiled tileset document.
type Tileset struct {
	Path            string     `json:"-"`               // file the tileset was loaded from
	Name            string     `json:"name"`            // tileset name
	Class           string     `json:"class"`           // user class
	Image           string     `json:"image"`           // atlas image relative to Path
	ObjectAlignment string     `json:"objectalignment"` // tile object anchor
	TileOffset      *Offset    `json:"tileoffset"`      // drawing offset
	Grid            *Grid      `json:"grid"`            // grid used for tile objects
	Properties      []Property `json:"properties"`      // custom properties
	Tiles           []Tile     `json:"tiles"`           // tiles with extra data
	ImageWidth      int        `json:"imagewidth"`      // atlas width in pixels
	ImageHeight     int        `json:"imageheight"`     // atlas height in pixels
	TileWidth       int        `json:"tilewidth"`       // tile width in pixels
	TileHeight      int        `json:"tileheight"`      // tile height in pixels
	Margin          int        `json:"margin"`          // border around the grid
	Spacing         int        `json:"spacing"`         // gap between tiles
	TileCount       int        `json:"tilecount"`       // number of tiles
	Columns         int        `json:"columns"`         // tiles per row
}

// Offset is a pixel offset.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Grid describes the tileset grid.
type Grid struct {
	Orientation string `json:"orientation"` // orthogonal or isometric
	Width       int    `json:"width"`       // cell width
	Height      int    `json:"height"`      // cell height
}

// Tile is per-tile data of a tileset.
type Tile struct {
	Type        string     `json:"type"`        // class, pre 1.9 name
	Class       string     `json:"class"`       // class
	Image       string     `json:"image"`       // image of collection tilesets
	Properties  []Property `json:"properties"`  // custom properties
	ObjectGroup *Layer     `json:"objectgroup"` // collision shapes
	Animation   []Frame    `json:"animation"`   // animation frames
	ID          int        `json:"id"`          // local tile id
	Probability float64    `json:"probability"` // terrain probability
}

// Frame is one frame of a tile animation.
type Frame struct {
	TileID   int `json:"tileid"`   // local tile id shown
	Duration int `json:"duration"` // milliseconds
}

// Layer is any Tiled layer; Type selects which fields are used.
type Layer struct {
	Name        string          `json:"name"`        // layer name
	Class       string          `json:"class"`       // user class
	Type        string          `json:"type"`        // tilelayer, objectgroup, imagelayer, group
	TintColor   string          `json:"tintcolor"`   // #AARRGGBB multiplier
	Encoding    string          `json:"encoding"`    // csv or base64
	Compression string          `json:"compression"` // "", zlib, gzip
	DrawOrder   string          `json:"draworder"`   // topdown or index
	Image       string          `json:"image"`       // image layer source
	Visible     *bool           `json:"visible"`     // nil means visible
	Opacity     *float64        `json:"opacity"`     // nil means opaque
	Data        json.RawMessage `json:"data"`        // gid array or encoded string
	GIDs        []GID           `json:"-"`           // decoded data of XML maps
	Chunks      []Chunk         `json:"chunks"`      // infinite map data
	Objects     []Object        `json:"objects"`     // object group content
	Layers      []Layer         `json:"layers"`      // group content
	Properties  []Property      `json:"properties"`  // custom properties
	ID          int             `json:"id"`          // unique layer id
	X           int             `json:"x"`           // always 0
	Y           int             `json:"y"`           // always 0
	Width       int             `json:"width"`       // columns
	Height      int             `json:"height"`      // rows
	OffsetX     float64         `json:"offsetx"`     // pixel offset
	OffsetY     float64         `json:"offsety"`     // pixel offset
}

// Chunk is a rectangular block of infinite map data.
type Chunk struct {
	Data   json.RawMessage `json:"data"`   // gid array or encoded string
	X      int             `json:"x"`      // first column
	Y      int             `json:"y"`      // first row
	Width  int             `json:"width"`  // columns
	Height int             `json:"height"` // rows
}

// Object is a map object or a tile collision shape.
type Object struct {
	Name       string     `json:"name"`       // object name
	Type       string     `json:"type"`       // class, pre 1.9 name
	Class      string     `json:"class"`      // class
	Visible    *bool      `json:"visible"`    // nil means visible
	Text       *Text      `json:"text"`       // text object content
	Polygon    []Point    `json:"polygon"`    // closed shape, relative to X/Y
	Polyline   []Point    `json:"polyline"`   // open shape, relative to X/Y
	Properties []Property `json:"properties"` // custom properties
	ID         int        `json:"id"`         // unique object id
	GID        GID        `json:"gid"`        // tile object gid with flip bits
	X          float64    `json:"x"`          // pixels
	Y          float64    `json:"y"`          // pixels
	Width      float64    `json:"width"`      // pixels
	Height     float64    `json:"height"`     // pixels
	Rotation   float64    `json:"rotation"`   // degrees clockwise
	Ellipse    bool       `json:"ellipse"`    // ellipse shape
	Point      bool       `json:"point"`      // point marker
}

// Text is the content of a text object.
type Text struct {
	Text string `json:"text"`
}

// Point is a polygon vertex.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Property is a custom property. Value holds the decoded JSON value:
// bool, float64, string, or map[string]any for class properties.
type Property struct {
	Value        any    `json:"value"`        // decoded value
	Name         string `json:"name"`         // property name
	Type         string `json:"type"`         // bool, int, float, string, color, file, object, class
	PropertyType string `json:"propertytype"` // custom type name for class and enum values
}

// Shape kinds of an object.
const (
	ShapeRectangle = "rectangle"
	ShapeEllipse   = "ellipse"
	ShapePoint     = "point"
	ShapePolygon   = "polygon"
	ShapePolyline  = "polyline"
	ShapeTile      = "tile"
	ShapeText      = "text"
)

// Shape returns the kind of object.
func (o *Object) Shape() string {
	switch {
	case o.GID != 0:
		return ShapeTile
	case o.Text != nil:
		return ShapeText
	case o.Point:
		return ShapePoint
	case o.Ellipse:
		return ShapeEllipse
	case len(o.Polygon) > 0:
		return ShapePolygon
	case len(o.Polyline) > 0:
		return ShapePolyline
	default:
		return ShapeRectangle
	}
}

// ClassName returns Class, falling back to the pre 1.9 Type field.
func (o *Object) ClassName() string {
	if o.Class != "" {
		return o.Class
	}

	return o.Type
}

// IsVisible reports whether the object is shown.
func (o *Object) IsVisible() bool {
	return o.Visible == nil || *o.Visible
}

// IsVisible reports whether the layer is shown.
func (l *Layer) IsVisible() bool {
	return l.Visible == nil || *l.Visible
}

// Alpha returns the layer opacity, 1 when unset.
func (l *Layer) Alpha() float64 {
	if l.Opacity == nil {
		return 1
	}

	return *l.Opacity
}

// ClassName returns Class, falling back to the pre 1.9 Type field.
func (t *Tile) ClassName() string {
	if t.Class != "" {
		return t.Class
	}

	return t.Type
}

// Tile returns the extra data of a local tile id.
func (ts *Tileset) Tile(id int) (*Tile, bool) {
	for i := range ts.Tiles {
		if ts.Tiles[i].ID == id {
			return &ts.Tiles[i], true
		}
	}

	return nil, false
}

// ImagePath returns the atlas image path relative to the working directory.
func (ts *Tileset) ImagePath() string {
	if ts.Image == "" || filepath.IsAbs(ts.Image) {
		return ts.Image
	}

	return filepath.Join(filepath.Dir(ts.Path), filepath.FromSlash(ts.Image))
}

// TilesetFor returns the tileset covering gid and the local tile id.
func (m *Map) TilesetFor(gid GID) (*MapTileset, int, bool) {
	id := gid.ID()
	if id == 0 {
		return nil, 0, false
	}

	var best *MapTileset
	for _, ts := range m.Tilesets {
		if ts.FirstGID <= id && (best == nil || ts.FirstGID > best.FirstGID) {
			best = ts
		}
	}
	if best == nil {
		return nil, 0, false
	}

	return best, int(id - best.FirstGID), true
}
