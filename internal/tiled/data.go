package tiled

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnknownEncoding is returned for layer data in an unknown encoding.
	ErrUnknownEncoding = errors.New("unknown layer data encoding")
	// ErrUnknownCompression is returned for unsupported layer compression.
	ErrUnknownCompression = errors.New("unsupported layer data compression")
	// ErrDataLength is returned when decoded data does not match the layer size.
	ErrDataLength = errors.New("layer data length does not match its size")
	// ErrNotTileLayer is returned when cells are requested from another layer type.
	ErrNotTileLayer = errors.New("not a tile layer")
)

// Cells returns the painted cells of a tile layer in row-major order,
// chunk by chunk for infinite maps. Empty cells are skipped.
func (l *Layer) Cells() ([]Cell, error) {
	if l.Type != TileLayer {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotTileLayer, l.Name, l.Type)
	}

	var cells []Cell
	if len(l.Chunks) > 0 {
		for i, ch := range l.Chunks {
			gids, err := decodeData(ch.Data, l.Encoding, l.Compression, ch.Width*ch.Height)
			if err != nil {
				return nil, fmt.Errorf("layer %q chunk %d: %w", l.Name, i, err)
			}
			cells = appendCells(cells, gids, ch.X, ch.Y, ch.Width)
		}

		return cells, nil
	}

	if l.GIDs != nil {
		if len(l.GIDs) != l.Width*l.Height {
			return nil, fmt.Errorf("layer %q: %w", l.Name, ErrDataLength)
		}
		return appendCells(cells, l.GIDs, l.X, l.Y, l.Width), nil
	}

	gids, err := decodeData(l.Data, l.Encoding, l.Compression, l.Width*l.Height)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.Name, err)
	}

	return appendCells(cells, gids, l.X, l.Y, l.Width), nil
}

// appendCells appends the non-empty gids of a block at (x0, y0).
func appendCells(cells []Cell, gids []GID, x0, y0, width int) []Cell {
	if width <= 0 {
		return cells
	}

	for i, g := range gids {
		if g.ID() == 0 {
			continue
		}

		cells = append(cells, Cell{X: x0 + i%width, Y: y0 + i/width, GID: g})
	}

	return cells
}

// decodeData decodes a gid array or a base64 string of little-endian gids.
func decodeData(raw json.RawMessage, encoding, compression string, n int) ([]GID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var gids []GID
		if err := json.Unmarshal(raw, &gids); err != nil {
			return nil, err
		}
		if len(gids) != n {
			return nil, fmt.Errorf("%w: %d cells, want %d", ErrDataLength, len(gids), n)
		}

		return gids, nil
	}

	if encoding != "" && encoding != "base64" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, encoding)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, err
	}

	data, err = decompress(data, compression)
	if err != nil {
		return nil, err
	}

	if len(data) != n*4 {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrDataLength, len(data), n*4)
	}

	gids := make([]GID, n)
	for i := range gids {
		gids[i] = GID(binary.LittleEndian.Uint32(data[i*4:]))
	}

	return gids, nil
}

// decompress inflates layer data.
func decompress(data []byte, compression string) (out []byte, err error) {
	var r io.ReadCloser
	switch compression {
	case "":
		return data, nil
	case "zlib":
		r, err = zlib.NewReader(bytes.NewReader(data))
	case "gzip":
		r, err = gzip.NewReader(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, compression)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	return io.ReadAll(r)
}
