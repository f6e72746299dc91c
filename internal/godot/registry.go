package godot

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ExtType is the resource class of an external resource.
type ExtType string

const (
	// ExtPackedScene references another scene.
	ExtPackedScene ExtType = "PackedScene"
	// ExtResource references a generic resource.
	ExtResource ExtType = "Resource"
	// ExtScript references a script.
	ExtScript ExtType = "Script"
	// ExtTexture references a 2D texture.
	ExtTexture ExtType = "Texture2D"
	// ExtTileSet references a tileset resource.
	ExtTileSet ExtType = "TileSet"
)

// SubType is the resource class of an inline sub-resource.
type SubType string

const (
	// SubRectangleShape is a RectangleShape2D.
	SubRectangleShape SubType = "RectangleShape2D"
	// SubCircleShape is a CircleShape2D.
	SubCircleShape SubType = "CircleShape2D"
	// SubCapsuleShape is a CapsuleShape2D.
	SubCapsuleShape SubType = "CapsuleShape2D"
	// SubAtlasSource is a TileSetAtlasSource.
	SubAtlasSource SubType = "TileSetAtlasSource"
)

var (
	// ErrMissingResource is returned when a referenced file does not exist.
	// The reference must be skipped; the export continues.
	ErrMissingResource = errors.New("referenced resource not found")
	// ErrEmptyPath is returned for blank resource paths.
	ErrEmptyPath = errors.New("empty resource path")
	// ErrInvalidExternal is returned for an unknown external resource type.
	ErrInvalidExternal = errors.New("invalid external resource")
	// ErrInvalidSubResource is returned for an unknown sub-resource type or missing properties.
	ErrInvalidSubResource = errors.New("invalid sub-resource")
)

// Locator resolves a res-relative path to the uid stored by Godot for it.
// It returns an error wrapping fs.ErrNotExist when the file is absent.
type Locator interface {
	Locate(resPath string) (uid string, err error)
}

// ExternalResource is an [ext_resource] entry.
type ExternalResource struct {
	Type ExtType // resource class
	Path string  // res-relative path without scheme
	UID  string  // uid://... read from the referenced file, may be empty
	ID   int     // id within the external table
}

// Ref returns the ExtResource("id") literal for this resource.
func (r *ExternalResource) Ref() ExtRef {
	return ExtRef(r.ID)
}

// SubResource is a [sub_resource] entry.
type SubResource struct {
	Props *Props  // resource properties
	Type  SubType // resource class
	ID    int     // id within the sub-resource table
}

// Ref returns the SubResource("id") literal for this resource.
func (r *SubResource) Ref() SubRef {
	return SubRef(r.ID)
}

// Registry allocates ids for the external and sub-resource tables of one document.
type Registry struct {
	locator Locator
	ext     []*ExternalResource
	sub     []*SubResource
	nextExt int
	nextSub int
}

// NewRegistry creates an empty registry. A nil locator accepts every path without a uid.
func NewRegistry(loc Locator) *Registry {
	return &Registry{locator: loc}
}

// RegisterExternal registers a reference to another file, or returns the
// existing entry for the same type and path.
func (r *Registry) RegisterExternal(typ ExtType, path string) (*ExternalResource, error) {
	if !validExtType(typ) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidExternal, typ)
	}

	path = NormalizePath(path)
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPath, typ)
	}

	for _, e := range r.ext {
		if e.Type == typ && e.Path == path {
			return e, nil
		}
	}

	var uid string
	if r.locator != nil {
		var err error
		uid, err = r.locator.Locate(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: res://%s", ErrMissingResource, path)
			}

			return nil, fmt.Errorf("read header of res://%s: %w", path, err)
		}
	}

	res := &ExternalResource{Type: typ, Path: path, UID: uid, ID: r.nextExt}
	r.nextExt++
	r.ext = append(r.ext, res)

	return res, nil
}

// RegisterSub registers an inline resource. Every call allocates a new id.
func (r *Registry) RegisterSub(typ SubType, props *Props) (*SubResource, error) {
	if !validSubType(typ) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSubResource, typ)
	}
	if props == nil {
		return nil, fmt.Errorf("%w: %s without properties", ErrInvalidSubResource, typ)
	}

	res := &SubResource{Type: typ, Props: props, ID: r.nextSub}
	r.nextSub++
	r.sub = append(r.sub, res)

	return res, nil
}

// External returns external resources in registration order.
func (r *Registry) External() []*ExternalResource {
	return r.ext
}

// Sub returns sub-resources in registration order.
func (r *Registry) Sub() []*SubResource {
	return r.sub
}

// LoadSteps returns the load_steps header value.
func (r *Registry) LoadSteps() int {
	return 1 + len(r.ext) + len(r.sub)
}

// NormalizePath strips the res:// scheme and leading separators so the
// emitted path never becomes "res:///...".
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "res://")
	p = strings.ReplaceAll(p, "\\", "/")

	return strings.TrimLeft(p, "/")
}

// IsFatal reports whether err must abort the export.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidExternal) ||
		errors.Is(err, ErrInvalidSubResource) ||
		errors.Is(err, ErrOwnerCycle)
}

// validExtType checks the external resource type tag.
func validExtType(t ExtType) bool {
	switch t {
	case ExtPackedScene, ExtResource, ExtScript, ExtTexture, ExtTileSet:
		return true
	}

	return false
}

// validSubType checks the sub-resource type tag.
func validSubType(t SubType) bool {
	switch t {
	case SubRectangleShape, SubCircleShape, SubCapsuleShape, SubAtlasSource:
		return true
	}

	return false
}
