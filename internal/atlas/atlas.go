// Package atlas implements tile atlas math: grid geometry, cell keys,
// flip flags, animated tile layout and TileMapLayer cell packing.
package atlas

import (
	"github.com/woozymasta/tiled2godot/internal/godot"
)

// CellOffset separates the row component of a cell id from the column.
const CellOffset = 65536

// Flags are tile transform bits as Godot stores them in the alternative id.
type Flags uint16

const (
	// FlipH mirrors the tile horizontally.
	FlipH Flags = 1 << 12
	// FlipV mirrors the tile vertically.
	FlipV Flags = 1 << 13
	// Transpose swaps the tile axes.
	Transpose Flags = 1 << 14
)

// Geometry describes how tiles are laid out in a tileset image.
type Geometry struct {
	ImageWidth  int // atlas image width in pixels
	ImageHeight int // atlas image height in pixels
	TileWidth   int // tile width in pixels
	TileHeight  int // tile height in pixels
	Margin      int // border around the tile grid
	Spacing     int // gap between tiles
}

// Columns returns the number of whole tiles in one atlas row.
func (g Geometry) Columns() int {
	return fit(g.ImageWidth, g.TileWidth, g.Margin, g.Spacing)
}

// Rows returns the number of whole tiles in one atlas column.
func (g Geometry) Rows() int {
	return fit(g.ImageHeight, g.TileHeight, g.Margin, g.Spacing)
}

// Count returns the number of whole tiles in the atlas.
func (g Geometry) Count() int {
	return g.Columns() * g.Rows()
}

// Coords returns the atlas column and row of a tile id.
func (g Geometry) Coords(id int) godot.Vector2i {
	cols := g.Columns()
	if cols <= 0 {
		cols = 1
	}

	return godot.Vector2i{X: id % cols, Y: id / cols}
}

// PixelOffset returns the top-left pixel of a tile id inside the image.
func (g Geometry) PixelOffset(id int) (x, y int) {
	c := g.Coords(id)
	x = c.X*g.TileWidth + g.Margin + c.X*g.Spacing
	y = c.Y*g.TileHeight + g.Margin + c.Y*g.Spacing

	return x, y
}

// Region returns the image rectangle of a tile id.
func (g Geometry) Region(id int) godot.Rect2 {
	x, y := g.PixelOffset(id)
	return godot.Rect2{X: float64(x), Y: float64(y), W: float64(g.TileWidth), H: float64(g.TileHeight)}
}

// CellID encodes a map coordinate and its transform flags into one
// integer. Negative rows are shifted by one before the flags are added.
func CellID(x, y int, flags Flags) int {
	row := y
	if y < 0 {
		row = y + 1
	}

	return (row+int(flags))*CellOffset + x
}

// fit counts whole tiles along one axis.
func fit(size, tile, margin, spacing int) int {
	step := tile + spacing
	if step <= 0 || size <= 0 {
		return 0
	}

	n := (size + spacing - margin) / step
	if n < 0 {
		return 0
	}

	return n
}
