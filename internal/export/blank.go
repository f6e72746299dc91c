package export

import (
	"errors"
	"fmt"
	"image"

	// imaging registers bmp and tiff; webp is decode-only and needs its own import.
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	"github.com/woozymasta/tiled2godot/internal/atlas"
)

// ErrUnsupportedImage is returned for atlas images that cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported atlas image")

// decodable lists the sniffed image kinds registered with image.Decode.
var decodable = map[string]bool{
	"png": true, "jpg": true, "gif": true, "bmp": true, "webp": true, "tif": true,
}

// loadAtlas decodes an atlas image for pixel inspection.
func loadAtlas(path string) (*image.NRGBA, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return nil, err
	}
	if !decodable[kind.Extension] {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedImage, path, kind.MIME.Value)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return imaging.Clone(img), nil
}

// blankTile reports whether every pixel of a tile is fully transparent.
// Pixels outside the image count as transparent.
func blankTile(img *image.NRGBA, g atlas.Geometry, id int) bool {
	x, y := g.PixelOffset(id)
	r := image.Rect(x, y, x+g.TileWidth, y+g.TileHeight).Intersect(img.Bounds())

	for py := r.Min.Y; py < r.Max.Y; py++ {
		row := img.PixOffset(r.Min.X, py)
		for px := 0; px < r.Dx(); px++ {
			if img.Pix[row+px*4+3] != 0 {
				return false
			}
		}
	}

	return true
}
