package tiled

// GID is a global tile id with transform bits in the high nibble.
type GID uint32

// Transform bits of a GID.
const (
	FlippedHorizontally GID = 0x80000000
	FlippedVertically   GID = 0x40000000
	FlippedDiagonally   GID = 0x20000000
	RotatedHexagonal    GID = 0x10000000

	flipMask = FlippedHorizontally | FlippedVertically | FlippedDiagonally | RotatedHexagonal
)

// ID returns the gid without transform bits.
func (g GID) ID() uint32 {
	return uint32(g &^ flipMask)
}

// FlipH reports a horizontal flip.
func (g GID) FlipH() bool {
	return g&FlippedHorizontally != 0
}

// FlipV reports a vertical flip.
func (g GID) FlipV() bool {
	return g&FlippedVertically != 0
}

// FlipD reports an anti-diagonal flip (axis swap).
func (g GID) FlipD() bool {
	return g&FlippedDiagonally != 0
}

// Cell is a painted tile of a tile layer.
type Cell struct {
	X   int // map column
	Y   int // map row
	GID GID // raw gid
}
