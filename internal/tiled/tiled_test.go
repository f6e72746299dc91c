package tiled

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile writes content under dir.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	return p
}

// encodeGIDs packs gids as Tiled's base64 layer data.
func encodeGIDs(t *testing.T, compression string, gids ...uint32) string {
	t.Helper()

	raw := make([]byte, len(gids)*4)
	for i, g := range gids {
		binary.LittleEndian.PutUint32(raw[i*4:], g)
	}

	var buf bytes.Buffer
	switch compression {
	case "zlib":
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			t.Fatalf("zlib: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("zlib: %v", err)
		}
	case "gzip":
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			t.Fatalf("gzip: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("gzip: %v", err)
		}
	default:
		buf.Write(raw)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

const tilesetDoc = `{
  "type": "tileset",
  "name": "terrain",
  "image": "../art/terrain.png",
  "imagewidth": 64, "imageheight": 32,
  "tilewidth": 16, "tileheight": 16,
  "margin": 0, "spacing": 0, "tilecount": 8, "columns": 4,
  "tiles": [
    {"id": 2, "animation": [{"tileid": 2, "duration": 100}, {"tileid": 3, "duration": 100}]}
  ]
}`

func TestLoadMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "tilesets/terrain.tsj", tilesetDoc)
	data := encodeGIDs(t, "zlib", 0, 1, uint32(FlippedHorizontally)|3, 0)
	mapPath := writeFile(t, dir, "maps/level.tmj", `{
  "type": "map", "orientation": "orthogonal",
  "width": 2, "height": 2, "tilewidth": 16, "tileheight": 16,
  "tilesets": [
    {"firstgid": 1, "source": "../tilesets/terrain.tsj"},
    {"firstgid": 9, "name": "props", "image": "props.png", "imagewidth": 32, "imageheight": 16, "tilewidth": 16, "tileheight": 16}
  ],
  "layers": [
    {"type": "tilelayer", "name": "Ground", "width": 2, "height": 2,
     "encoding": "base64", "compression": "zlib", "data": "`+data+`"},
    {"type": "objectgroup", "name": "Objects", "visible": false, "opacity": 0.5,
     "objects": [{"id": 1, "name": "Zone", "x": 0, "y": 0, "width": 32, "height": 32,
                  "properties": [{"name": "godot:type", "type": "string", "value": "Area2D"}]}]}
  ]
}`)

	m, err := LoadMap(mapPath)
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}

	if len(m.Tilesets) != 2 {
		t.Fatalf("tilesets=%d want 2", len(m.Tilesets))
	}
	ext := m.Tilesets[0]
	if ext.Name != "terrain" || ext.FirstGID != 1 || ext.Columns != 4 {
		t.Fatalf("external tileset not merged: %+v", ext)
	}
	if got, want := ext.ImagePath(), filepath.Join(dir, "art", "terrain.png"); got != want {
		t.Fatalf("image=%q want %q", got, want)
	}
	if got, want := m.Tilesets[1].ImagePath(), filepath.Join(dir, "maps", "props.png"); got != want {
		t.Fatalf("embedded image=%q want %q", got, want)
	}
	if tile, ok := ext.Tile(2); !ok || len(tile.Animation) != 2 {
		t.Fatalf("animated tile missing")
	}

	cells, err := m.Layers[0].Cells()
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("cells=%d want 2", len(cells))
	}
	if c := cells[1]; c.X != 0 || c.Y != 1 || !c.GID.FlipH() || c.GID.ID() != 3 {
		t.Fatalf("cell=%+v", c)
	}

	objects := m.Layers[1]
	if objects.IsVisible() || objects.Alpha() != 0.5 {
		t.Fatalf("visibility/opacity not decoded")
	}
	if objects.Objects[0].Shape() != ShapeRectangle {
		t.Fatalf("shape=%s", objects.Objects[0].Shape())
	}
	if _, err := objects.Cells(); !errors.Is(err, ErrNotTileLayer) {
		t.Fatalf("err=%v want ErrNotTileLayer", err)
	}
}

func TestLoadMapYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeFile(t, dir, "level.yaml", `
type: map
width: 3
height: 1
tilewidth: 8
tileheight: 8
tilesets:
  - firstgid: 1
    name: tiny
    image: tiny.png
    imagewidth: 16
    imageheight: 8
    tilewidth: 8
    tileheight: 8
layers:
  - type: tilelayer
    name: Floor
    width: 3
    height: 1
    data: [1, 0, 2]
`)

	m, err := LoadMap(p)
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}

	cells, err := m.Layers[0].Cells()
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	if len(cells) != 2 || cells[1].X != 2 || cells[1].GID != 2 {
		t.Fatalf("cells=%+v", cells)
	}
	if !m.Layers[0].IsVisible() || m.Layers[0].Alpha() != 1 {
		t.Fatalf("defaults for missing visible/opacity wrong")
	}
}

const tmxTilesetXML = `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" name="terrain" tilewidth="16" tileheight="16" tilecount="8" columns="4">
 <image source="../art/terrain.png" width="64" height="32"/>
 <tile id="2">
  <properties>
   <property name="solid" type="bool" value="true"/>
  </properties>
  <objectgroup draworder="index">
   <object id="1" x="0" y="0" width="16" height="8"/>
  </objectgroup>
  <animation>
   <frame tileid="2" duration="100"/>
   <frame tileid="3" duration="100"/>
  </animation>
 </tile>
</tileset>
`

const tmxMap = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="2" height="2" tilewidth="16" tileheight="16" infinite="0">
 <properties>
  <property name="godot:name" value="Level"/>
  <property name="speed" type="float" value="1.5"/>
 </properties>
 <tileset firstgid="1" name="props" tilewidth="16" tileheight="16" tilecount="4" columns="2">
  <image source="props.png" width="32" height="32"/>
 </tileset>
 <tileset firstgid="5" source="tiles/terrain.tsx"/>
 <layer id="1" name="Floor" width="2" height="2" opacity="0.5">
  <data encoding="csv">
1,2147483650,
0,5
</data>
 </layer>
 <objectgroup id="2" name="Things" offsetx="4" offsety="8">
  <object id="1" name="Zone" x="0" y="0" width="32" height="32"/>
  <object id="2" name="Ball" x="10" y="10" width="8" height="8"><ellipse/></object>
  <object id="3" name="Spawn" x="5" y="6"><point/></object>
  <object id="4" name="Wall" x="1" y="2" visible="0"><polygon points="0,0 16,0 16,16"/></object>
 </objectgroup>
 <group id="3" name="Deco" tintcolor="#ff8000">
  <imagelayer id="4" name="Sky">
   <image source="sky.png" width="64" height="64"/>
  </imagelayer>
  <layer id="5" name="Top" width="2" height="2" visible="0">
   <data encoding="csv">0,0,0,1</data>
  </layer>
 </group>
 <layer id="6" name="Last" width="2" height="2">
  <data encoding="csv">0,0,0,0</data>
 </layer>
</map>
`

func TestLoadTMX(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("maps", "tiles", "terrain.tsx"), tmxTilesetXML)
	p := writeFile(t, dir, filepath.Join("maps", "level.tmx"), tmxMap)

	m, err := LoadMap(p)
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}

	if m.Width != 2 || m.TileWidth != 16 || len(m.Tilesets) != 2 {
		t.Fatalf("map header wrong: %+v", m)
	}
	if len(m.Properties) != 2 || m.Properties[1].Value != 1.5 || m.Properties[0].Value != "Level" {
		t.Fatalf("properties=%+v", m.Properties)
	}

	props := m.Tilesets[0]
	if props.Name != "props" || props.Image != "props.png" || props.ImageWidth != 32 || props.Path != p {
		t.Fatalf("embedded tileset=%+v", props.Tileset)
	}

	terrain := m.Tilesets[1]
	if terrain.FirstGID != 5 || terrain.Name != "terrain" || terrain.ImageHeight != 32 {
		t.Fatalf("external tileset=%+v", terrain.Tileset)
	}
	tile, ok := terrain.Tile(2)
	if !ok || len(tile.Animation) != 2 || tile.Animation[1].TileID != 3 {
		t.Fatalf("tile 2=%+v", tile)
	}
	if tile.ObjectGroup == nil || len(tile.ObjectGroup.Objects) != 1 || tile.ObjectGroup.Objects[0].Height != 8 {
		t.Fatalf("tile collision=%+v", tile.ObjectGroup)
	}
	if len(tile.Properties) != 1 || tile.Properties[0].Value != true {
		t.Fatalf("tile properties=%+v", tile.Properties)
	}

	var names []string
	for _, l := range m.Layers {
		names = append(names, l.Name+":"+l.Type)
	}
	want := []string{"Floor:tilelayer", "Things:objectgroup", "Deco:group", "Last:tilelayer"}
	if strings.Join(names, " ") != strings.Join(want, " ") {
		t.Fatalf("layer order=%v want %v", names, want)
	}

	floor := m.Layers[0]
	if floor.Alpha() != 0.5 {
		t.Fatalf("floor opacity=%v", floor.Alpha())
	}
	cells, err := floor.Cells()
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("cells=%+v", cells)
	}
	if c := cells[1]; c.X != 1 || c.Y != 0 || c.GID.ID() != 2 || !c.GID.FlipH() {
		t.Fatalf("flipped cell=%+v", c)
	}
	if c := cells[2]; c.X != 1 || c.Y != 1 || c.GID != 5 {
		t.Fatalf("external cell=%+v", c)
	}
	if ts, local, ok := m.TilesetFor(cells[2].GID); !ok || ts != terrain || local != 0 {
		t.Fatalf("TilesetFor(5)=%v %d %v", ts, local, ok)
	}

	things := m.Layers[1]
	if things.OffsetX != 4 || things.OffsetY != 8 || len(things.Objects) != 4 {
		t.Fatalf("object layer=%+v", things)
	}
	shapes := []string{ShapeRectangle, ShapeEllipse, ShapePoint, ShapePolygon}
	for i, o := range things.Objects {
		if got := o.Shape(); got != shapes[i] {
			t.Fatalf("object %s shape=%s want %s", o.Name, got, shapes[i])
		}
	}
	wall := things.Objects[3]
	if wall.IsVisible() || len(wall.Polygon) != 3 || wall.Polygon[2].Y != 16 {
		t.Fatalf("wall=%+v", wall)
	}

	deco := m.Layers[2]
	if deco.TintColor != "#ff8000" || len(deco.Layers) != 2 {
		t.Fatalf("group=%+v", deco)
	}
	if sky := deco.Layers[0]; sky.Type != ImageLayer || sky.Image != "sky.png" {
		t.Fatalf("image layer=%+v", sky)
	}
	if top := deco.Layers[1]; top.Type != TileLayer || top.IsVisible() {
		t.Fatalf("nested tile layer=%+v", top)
	}
}

func TestLoadTSX(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "terrain.tsx", tmxTilesetXML)

	ts, err := LoadTileset(p)
	if err != nil {
		t.Fatalf("LoadTileset: %v", err)
	}
	if ts.Path != p || ts.TileCount != 8 || ts.Columns != 4 || ts.ImagePath() != filepath.Join(filepath.Dir(p), "..", "art", "terrain.png") {
		t.Fatalf("tileset=%+v", ts)
	}
}

func TestChunks(t *testing.T) {
	t.Parallel()

	l := Layer{
		Type:        TileLayer,
		Name:        "Infinite",
		Encoding:    "base64",
		Compression: "gzip",
		Chunks: []Chunk{
			{X: -16, Y: -16, Width: 2, Height: 1, Data: []byte(`"` + encodeGIDs(t, "gzip", 5, 0) + `"`)},
			{X: 0, Y: 0, Width: 1, Height: 2, Data: []byte(`"` + encodeGIDs(t, "gzip", 0, 6) + `"`)},
		},
	}

	cells, err := l.Cells()
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}

	want := []Cell{{X: -16, Y: -16, GID: 5}, {X: 0, Y: 1, GID: 6}}
	if len(cells) != len(want) {
		t.Fatalf("cells=%+v want %+v", cells, want)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Fatalf("cell %d=%+v want %+v", i, cells[i], want[i])
		}
	}
}

func TestDecodeDataErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		encoding    string
		compression string
		n           int
		want        error
	}{
		{name: "short-array", raw: `[1, 2]`, n: 3, want: ErrDataLength},
		{name: "short-base64", raw: `"` + encodeGIDs(t, "", 1) + `"`, encoding: "base64", n: 2, want: ErrDataLength},
		{name: "zstd", raw: `"AAAA"`, encoding: "base64", compression: "zstd", n: 1, want: ErrUnknownCompression},
		{name: "encoding", raw: `"1,2"`, encoding: "csv", n: 2, want: ErrUnknownEncoding},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := decodeData([]byte(tt.raw), tt.encoding, tt.compression, tt.n); !errors.Is(err, tt.want) {
				t.Fatalf("err=%v want %v", err, tt.want)
			}
		})
	}
}

func TestTilesetFor(t *testing.T) {
	t.Parallel()

	m := Map{Tilesets: []*MapTileset{{FirstGID: 1}, {FirstGID: 9}}}

	tests := []struct {
		gid   GID
		first uint32
		local int
		ok    bool
	}{
		{gid: 1, first: 1, local: 0, ok: true},
		{gid: 8, first: 1, local: 7, ok: true},
		{gid: 9 | FlippedVertically, first: 9, local: 0, ok: true},
		{gid: 0, ok: false},
	}

	for _, tt := range tests {
		ts, local, ok := m.TilesetFor(tt.gid)
		if ok != tt.ok {
			t.Fatalf("gid %d: ok=%v want %v", tt.gid, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if ts.FirstGID != tt.first || local != tt.local {
			t.Fatalf("gid %d: firstgid=%d local=%d", tt.gid, ts.FirstGID, local)
		}
	}
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	c, err := ParseColor("#80ff0000")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if c != (Color{R: 255, A: 128}) {
		t.Fatalf("color=%+v", c)
	}

	c, err = ParseColor("#00ff00")
	if err != nil || c != (Color{G: 255, A: 255}) {
		t.Fatalf("color=%+v err=%v", c, err)
	}

	if _, err := ParseColor("red"); err == nil {
		t.Fatalf("expected error")
	}
}
