package atlas

import (
	"errors"
	"fmt"

	"github.com/woozymasta/tiled2godot/internal/godot"
)

var (
	// ErrNoFrames is returned for an empty animation.
	ErrNoFrames = errors.New("animation has no frames")
	// ErrFrameStart is returned when the first frame is not the animated tile.
	ErrFrameStart = errors.New("animation must start at its own tile")
	// ErrFrameOrder is returned when frame ids do not strictly increase.
	ErrFrameOrder = errors.New("animation frame ids must increase")
	// ErrFrameStride is returned when frames do not form a regular grid.
	ErrFrameStride = errors.New("animation frames are not evenly spaced")
)

// Frame is one step of a tile animation.
type Frame struct {
	TileID   int // atlas tile id shown during the frame
	Duration int // milliseconds
}

// Animation is the grid layout Godot needs to play an animated tile.
type Animation struct {
	Frames     []float64      // per-frame durations, relative to Speed
	Separation godot.Vector2i // gap between frames in tiles
	Columns    int            // frames per atlas row
	Speed      float64        // frames per second
}

// DefaultFrameDuration is the relative duration written for every frame.
const DefaultFrameDuration = 1.0

// ValidateAnimation checks that frames start at tileID and advance
// through the atlas with a constant column stride per row and a constant
// row stride, returning the layout Godot expects. A new row must start
// at the first frame's column unless every frame advances by the same
// number of tile ids.
func ValidateAnimation(g Geometry, tileID int, frames []Frame) (Animation, error) {
	if len(frames) == 0 {
		return Animation{}, ErrNoFrames
	}
	if frames[0].TileID != tileID {
		return Animation{}, fmt.Errorf("%w: tile %d starts with %d", ErrFrameStart, tileID, frames[0].TileID)
	}

	for i := 1; i < len(frames); i++ {
		if frames[i].TileID <= frames[i-1].TileID {
			return Animation{}, fmt.Errorf("%w: frame %d (%d after %d)", ErrFrameOrder, i, frames[i].TileID, frames[i-1].TileID)
		}
	}
	uniform := evenIDs(frames)

	start := g.Coords(tileID)
	prev := start
	colStride, rowStride := 0, 0
	rowCounts := []int{1}

	for i := 1; i < len(frames); i++ {
		cur := g.Coords(frames[i].TileID)
		if cur.Y == prev.Y {
			stride := cur.X - prev.X
			if colStride == 0 {
				colStride = stride
			} else if stride != colStride {
				return Animation{}, fmt.Errorf("%w: column stride %d, expected %d", ErrFrameStride, stride, colStride)
			}
			rowCounts[len(rowCounts)-1]++
		} else {
			if cur.X != start.X && !uniform {
				return Animation{}, fmt.Errorf("%w: row %d starts at column %d, expected %d", ErrFrameStride, cur.Y, cur.X, start.X)
			}

			stride := cur.Y - prev.Y
			if rowStride == 0 {
				rowStride = stride
			} else if stride != rowStride {
				return Animation{}, fmt.Errorf("%w: row stride %d, expected %d", ErrFrameStride, stride, rowStride)
			}
			rowCounts = append(rowCounts, 1)
		}

		prev = cur
	}

	for i := 1; i < len(rowCounts)-1; i++ {
		if rowCounts[i] != rowCounts[0] {
			return Animation{}, fmt.Errorf("%w: row %d holds %d frames, expected %d", ErrFrameStride, i, rowCounts[i], rowCounts[0])
		}
	}
	if last := rowCounts[len(rowCounts)-1]; last > rowCounts[0] {
		return Animation{}, fmt.Errorf("%w: last row holds %d frames, expected at most %d", ErrFrameStride, last, rowCounts[0])
	}

	anim := Animation{
		Columns: rowCounts[0],
		Speed:   1,
		Frames:  make([]float64, len(frames)),
	}
	if colStride > 1 {
		anim.Separation.X = colStride - 1
	}
	if rowStride > 1 {
		anim.Separation.Y = rowStride - 1
	}
	if frames[0].Duration > 0 {
		anim.Speed = godot.Round(1000/float64(frames[0].Duration), 6)
	}
	for i := range anim.Frames {
		anim.Frames[i] = DefaultFrameDuration
	}

	return anim, nil
}

// evenIDs reports whether consecutive frames are the same number of tile
// ids apart.
func evenIDs(frames []Frame) bool {
	for i := 2; i < len(frames); i++ {
		if frames[i].TileID-frames[i-1].TileID != frames[1].TileID-frames[0].TileID {
			return false
		}
	}

	return true
}

// IsFrame reports whether id is shown by the animation starting at tileID
// other than as its first frame.
func IsFrame(tileID, id int, frames []Frame) bool {
	if id == tileID {
		return false
	}
	for _, f := range frames {
		if f.TileID == id {
			return true
		}
	}

	return false
}
