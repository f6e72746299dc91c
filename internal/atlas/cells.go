package atlas

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// tileMapDataFormat is the tile_map_data layout version written by Pack.
const tileMapDataFormat = 0

// cellSize is the packed byte size of one cell.
const cellSize = 12

// ErrCellRange is returned when a cell does not fit the packed layout.
var ErrCellRange = errors.New("cell out of packable range")

// Cell is one painted tile of a TileMapLayer.
type Cell struct {
	X           int   // map column
	Y           int   // map row
	Source      int   // atlas source id inside the tileset
	AtlasX      int   // atlas column
	AtlasY      int   // atlas row
	Alternative int   // alternative tile id
	Flags       Flags // transform bits
}

// ID returns the cell id of the cell including its flags.
func (c Cell) ID() int {
	return CellID(c.X, c.Y, c.Flags)
}

// cellKey addresses one map coordinate.
type cellKey struct {
	x, y int
}

// CellSet holds painted cells in insertion order, one per coordinate.
type CellSet struct {
	index map[cellKey]int
	cells []Cell
}

// NewCellSet creates an empty cell set.
func NewCellSet() *CellSet {
	return &CellSet{index: map[cellKey]int{}}
}

// Put stores c, replacing an earlier cell at the same coordinate in place.
func (s *CellSet) Put(c Cell) {
	k := cellKey{c.X, c.Y}
	if i, ok := s.index[k]; ok {
		s.cells[i] = c
		return
	}

	s.index[k] = len(s.cells)
	s.cells = append(s.cells, c)
}

// Get returns the cell at a coordinate.
func (s *CellSet) Get(x, y int) (Cell, bool) {
	i, ok := s.index[cellKey{x, y}]
	if !ok {
		return Cell{}, false
	}

	return s.cells[i], true
}

// Len returns the number of cells.
func (s *CellSet) Len() int {
	return len(s.cells)
}

// Cells returns the cells in insertion order.
func (s *CellSet) Cells() []Cell {
	return s.cells
}

// Pack encodes cells as TileMapLayer tile_map_data bytes.
func Pack(cells []Cell) ([]byte, error) {
	out := make([]byte, 2, 2+len(cells)*cellSize)
	binary.LittleEndian.PutUint16(out, tileMapDataFormat)

	var buf [cellSize]byte
	for _, c := range cells {
		if !fitsInt16(c.X) || !fitsInt16(c.Y) {
			return nil, fmt.Errorf("%w: coordinate (%d, %d)", ErrCellRange, c.X, c.Y)
		}
		if !fitsUint16(c.Source) || !fitsUint16(c.AtlasX) || !fitsUint16(c.AtlasY) {
			return nil, fmt.Errorf("%w: source %d atlas (%d, %d)", ErrCellRange, c.Source, c.AtlasX, c.AtlasY)
		}
		if c.Alternative < 0 || c.Alternative >= int(FlipH) {
			return nil, fmt.Errorf("%w: alternative %d", ErrCellRange, c.Alternative)
		}

		binary.LittleEndian.PutUint16(buf[0:], uint16(int16(c.X)))
		binary.LittleEndian.PutUint16(buf[2:], uint16(int16(c.Y)))
		binary.LittleEndian.PutUint16(buf[4:], uint16(c.Source))
		binary.LittleEndian.PutUint16(buf[6:], uint16(c.AtlasX))
		binary.LittleEndian.PutUint16(buf[8:], uint16(c.AtlasY))
		binary.LittleEndian.PutUint16(buf[10:], uint16(c.Alternative)|uint16(c.Flags))
		out = append(out, buf[:]...)
	}

	return out, nil
}

// fitsInt16 reports whether v is representable as int16.
func fitsInt16(v int) bool {
	return v >= math.MinInt16 && v <= math.MaxInt16
}

// fitsUint16 reports whether v is representable as uint16.
func fitsUint16(v int) bool {
	return v >= 0 && v <= math.MaxUint16
}
