// Package export converts Tiled snapshots into Godot documents: maps into
// .tscn scenes and tilesets into TileSet .tres resources.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/woozymasta/tiled2godot/internal/gdhead"
	"github.com/woozymasta/tiled2godot/internal/godot"
)

var (
	// ErrCollectionTileset is returned for image collection tilesets, which
	// have no single atlas image.
	ErrCollectionTileset = errors.New("image collection tilesets are not supported")
	// ErrUnknownTile is returned for a gid no tileset of the map covers.
	ErrUnknownTile = errors.New("gid is not covered by any tileset")
)

// Options tune the generated documents.
type Options struct {
	ObjectType     string // node class of shape objects without godot:type
	TilesetDir     string // res-relative directory for embedded tilesets, empty means next to the map
	Format         int    // format=... header value
	CollisionLayer uint32 // default tileset physics layer bits
	CollisionMask  uint32 // default tileset physics mask bits
	EmitUID        bool   // write uid=... for generated documents
	SkipHidden     bool   // drop hidden layers and objects
	SkipBlankTiles bool   // drop fully transparent atlas tiles without data
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		Format:         godot.DefaultFormat,
		ObjectType:     "Area2D",
		CollisionLayer: 1,
		CollisionMask:  1,
		EmitUID:        true,
		SkipBlankTiles: true,
	}
}

// Document is one rendered output file.
type Document struct {
	Path    string // filesystem path
	ResPath string // res-relative path
	UID     string // uid written into the header, may be empty
	Data    []byte // file content
}

// Result is the outcome of an export. Documents[0] is the requested
// document; embedded tilesets of a map follow it.
type Result struct {
	Documents   []Document // rendered files
	Diagnostics error      // combined non-fatal problems
}

// Exporter renders documents for one Godot project.
type Exporter struct {
	project *gdhead.Project
	log     *zap.Logger
	opts    Options
}

// New creates an exporter. A nil logger discards messages.
func New(project *gdhead.Project, opts Options, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Format <= 0 {
		opts.Format = godot.DefaultFormat
	}
	if opts.ObjectType == "" {
		opts.ObjectType = "Area2D"
	}

	return &Exporter{project: project, opts: opts, log: log}
}

// pending resolves references to documents rendered in the same export
// before falling back to the project on disk.
type pending struct {
	base godot.Locator
	docs map[string]string
}

// newPending wraps base.
func newPending(base godot.Locator) *pending {
	return &pending{base: base, docs: map[string]string{}}
}

// add marks resPath as existing with uid.
func (p *pending) add(resPath, uid string) {
	p.docs[godot.NormalizePath(resPath)] = uid
}

// Locate implements godot.Locator.
func (p *pending) Locate(resPath string) (string, error) {
	if uid, ok := p.docs[godot.NormalizePath(resPath)]; ok {
		return uid, nil
	}

	return p.base.Locate(resPath)
}

// diagnostics collects soft errors of one export.
type diagnostics struct {
	err error
}

// add records a non-fatal problem.
func (d *diagnostics) add(err error) {
	d.err = multierr.Append(d.err, err)
}

// keep records err unless it is fatal, which is returned instead.
func (d *diagnostics) keep(err error) error {
	if err == nil {
		return nil
	}
	if godot.IsFatal(err) {
		return err
	}

	d.add(err)
	return nil
}

// documentUID returns the uid of the document at path: the one already
// recorded in an existing file, otherwise a generated one when enabled.
func (e *Exporter) documentUID(path, resPath string) string {
	uid, err := gdhead.HeaderUID(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.log.Debug("Unable to read existing header", zap.String("path", path), zap.Error(err))
	}
	if uid != "" {
		return uid
	}
	if !e.opts.EmitUID {
		return ""
	}

	return godot.UIDFor(resPath)
}

// resPath converts an output path, reporting paths outside the project.
func (e *Exporter) resPath(path string) (string, error) {
	res, err := e.project.ResPath(path)
	if err != nil {
		return "", fmt.Errorf("output %s: %w", path, err)
	}

	return res, nil
}

// baseName returns the file name of path without its extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
