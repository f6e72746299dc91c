package tiled

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/yaml"
)

// LoadMap reads a map and every external tileset it references.
func LoadMap(path string) (*Map, error) {
	m, err := readMap(path)
	if err != nil {
		return nil, err
	}

	m.Path = path
	for i, ts := range m.Tilesets {
		if ts == nil {
			return nil, fmt.Errorf("%s: empty tileset entry %d", path, i)
		}

		if ts.Source == "" {
			ts.Path = path
			continue
		}

		src := ts.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(filepath.Dir(path), filepath.FromSlash(src))
		}

		ext, err := LoadTileset(src)
		if err != nil {
			return nil, fmt.Errorf("tileset %s: %w", ts.Source, err)
		}
		ts.Tileset = *ext
	}

	return m, nil
}

// readMap decodes a TMX map or a JSON/YAML map document.
func readMap(path string) (*Map, error) {
	if isXML(path) {
		return loadTMX(path)
	}

	var m Map
	if err := readDocument(path, &m); err != nil {
		return nil, err
	}
	if m.Type != "" && m.Type != "map" {
		return nil, fmt.Errorf("%s: document type %q, want map", path, m.Type)
	}

	return &m, nil
}

// LoadTileset reads a standalone tileset document.
func LoadTileset(path string) (*Tileset, error) {
	var ts *Tileset
	if isXML(path) {
		var err error
		if ts, err = loadTSX(path); err != nil {
			return nil, err
		}
	} else {
		ts = &Tileset{}
		if err := readDocument(path, ts); err != nil {
			return nil, err
		}
	}

	ts.Path = path
	return ts, nil
}

// isXML reports whether path names a TMX map or TSX tileset.
func isXML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tmx", ".tsx":
		return true
	}

	return false
}

// readDocument decodes a JSON or YAML document into v.
func readDocument(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
