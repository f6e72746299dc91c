// Package props turns raw Tiled custom properties into a typed bag and
// resolves it onto scene nodes.
package props

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"github.com/woozymasta/tiled2godot/internal/godot"
	"github.com/woozymasta/tiled2godot/internal/tiled"
)

// Property name prefixes.
const (
	Prefix         = "godot:"
	PrefixNode     = Prefix + "node:"
	PrefixScript   = Prefix + "script"
	PrefixResource = Prefix + "resource:"
	PrefixVar      = Prefix + "var:"
	PrefixMeta     = Prefix + "meta:"
)

// Recognized settings (names without the prefix).
const (
	Name              = "name"
	Type              = "type"
	Groups            = "groups"
	ShapeGroups       = "shape_groups"
	ZIndex            = "z_index"
	CollisionLayer    = "collision_layer"
	CollisionMask     = "collision_mask"
	CollisionEnabled  = "collision_enabled"
	Ignore            = "ignore"
	Flatten           = "flatten"
	Instance          = "instance"
	ResPath           = "res_path"
	PhysicsLayer      = "physics_layer"
	OneWay            = "one_way"
	LinearVelocity    = "linear_velocity"
	AngularVelocity   = "angular_velocity"
	UseTexturePadding = "use_texture_padding"
)

var settings = map[string]bool{
	Name: true, Type: true, Groups: true, ShapeGroups: true, ZIndex: true,
	CollisionLayer: true, CollisionMask: true, CollisionEnabled: true,
	Ignore: true, Flatten: true, Instance: true, ResPath: true,
	PhysicsLayer: true, OneWay: true, LinearVelocity: true,
	AngularVelocity: true, UseTexturePadding: true,
}

// ErrUnknownSetting is returned for godot: properties nothing understands.
var ErrUnknownSetting = errors.New("unknown godot setting")

// Kind tags what a property means to the exporter.
type Kind int

const (
	// Plain is an ordinary custom property (tileset custom data).
	Plain Kind = iota
	// Setting is a recognized exporter setting.
	Setting
	// Override replaces a node property with a verbatim literal.
	Override
	// Script attaches a script.
	Script
	// Resource references an external resource.
	Resource
	// Var sets a script variable.
	Var
	// Meta adds node metadata.
	Meta
)

// Entry is one parsed property.
type Entry struct {
	Value godot.Value // Godot rendering of the value, nil when unset
	Raw   any         // decoded input value
	Key   string      // name with the prefix removed
	Path  string      // resource path for file and resource-class values
	Type  string      // Tiled property type
	Kind  Kind        // meaning
}

// Bag is a parsed, ordered property set.
type Bag struct {
	index   map[string]int
	entries []Entry
}

// Parse builds a bag from property lists. Later lists override earlier
// ones by name, so Parse(tile.Properties, object.Properties) lets the
// object win. Unknown settings are reported and skipped.
func Parse(lists ...[]tiled.Property) (*Bag, error) {
	b := &Bag{index: map[string]int{}}

	var errs error
	for _, list := range lists {
		for _, p := range list {
			e, err := parseEntry(p)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}

			id := kindKey(e.Kind, e.Key)
			if i, ok := b.index[id]; ok {
				b.entries[i] = e
				continue
			}

			b.index[id] = len(b.entries)
			b.entries = append(b.entries, e)
		}
	}

	return b, errs
}

// parseEntry classifies one property and converts its value.
func parseEntry(p tiled.Property) (Entry, error) {
	e := Entry{Raw: p.Value, Type: p.Type, Key: p.Name}

	switch name := p.Name; {
	case strings.HasPrefix(name, PrefixNode):
		e.Kind, e.Key = Override, strings.TrimPrefix(name, PrefixNode)
	case strings.HasPrefix(name, PrefixResource):
		e.Kind, e.Key = Resource, strings.TrimPrefix(name, PrefixResource)
	case strings.HasPrefix(name, PrefixVar):
		e.Kind, e.Key = Var, strings.TrimPrefix(name, PrefixVar)
	case strings.HasPrefix(name, PrefixMeta):
		e.Kind, e.Key = Meta, strings.TrimPrefix(name, PrefixMeta)
	case name == PrefixScript:
		e.Kind, e.Key = Script, "script"
	case strings.HasPrefix(name, Prefix):
		e.Kind, e.Key = Setting, strings.TrimPrefix(name, Prefix)
		if !settings[e.Key] {
			return Entry{}, fmt.Errorf("%w: %s", ErrUnknownSetting, name)
		}
	}

	if e.Key == "" {
		return Entry{}, fmt.Errorf("%w: %q has no name after its prefix", ErrUnknownSetting, p.Name)
	}

	v, path, err := convert(p)
	if err != nil {
		return Entry{}, fmt.Errorf("property %s: %w", p.Name, err)
	}
	e.Value, e.Path = v, path

	switch e.Kind {
	case Override:
		if s, ok := p.Value.(string); ok {
			e.Value = godot.Raw(s)
		}
	case Script, Resource:
		if e.Path == "" {
			if s, ok := p.Value.(string); ok {
				e.Path = strings.TrimSpace(s)
			}
		}
	}

	return e, nil
}

// kindKey addresses an entry inside the bag.
func kindKey(k Kind, key string) string {
	return strconv.Itoa(int(k)) + ":" + key
}

// Entries returns the entries of one kind in order.
func (b *Bag) Entries(k Kind) []Entry {
	var out []Entry
	for _, e := range b.entries {
		if e.Kind == k {
			out = append(out, e)
		}
	}

	return out
}

// Len returns the number of entries.
func (b *Bag) Len() int {
	return len(b.entries)
}

// Lookup returns a recognized setting.
func (b *Bag) Lookup(name string) (Entry, bool) {
	i, ok := b.index[kindKey(Setting, name)]
	if !ok {
		return Entry{}, false
	}

	return b.entries[i], true
}

// Has reports whether a setting is present.
func (b *Bag) Has(name string) bool {
	_, ok := b.Lookup(name)
	return ok
}

// String returns a setting as text.
func (b *Bag) String(name string) string {
	e, ok := b.Lookup(name)
	if !ok {
		return ""
	}

	switch v := e.Raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns a boolean setting or def when absent or unparsable.
func (b *Bag) Bool(name string, def bool) bool {
	e, ok := b.Lookup(name)
	if !ok {
		return def
	}

	switch v := e.Raw.(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	}

	return def
}

// Float returns a numeric setting or def.
func (b *Bag) Float(name string, def float64) float64 {
	e, ok := b.Lookup(name)
	if !ok {
		return def
	}

	switch v := e.Raw.(type) {
	case float64:
		return v
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
	}

	return def
}

// Int returns an integer setting or def.
func (b *Bag) Int(name string, def int) int {
	return int(b.Float(name, float64(def)))
}

// List returns a comma separated setting as trimmed, non-empty items.
func (b *Bag) List(name string) []string {
	var out []string
	for _, s := range strings.Split(b.String(name), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// convert maps a Tiled property value to its Godot literal.
func convert(p tiled.Property) (godot.Value, string, error) {
	switch v := p.Value.(type) {
	case nil:
		return nil, "", nil
	case bool:
		return godot.Bool(v), "", nil
	case float64:
		if p.Type == "int" || p.Type == "object" {
			return godot.Int(int64(v)), "", nil
		}
		return godot.Float(v), "", nil
	case string:
		switch p.Type {
		case "color":
			if v == "" {
				return nil, "", nil
			}
			c, err := tiled.ParseColor(v)
			if err != nil {
				return nil, "", err
			}
			return ColorValue(c), "", nil
		case "file":
			return godot.String(v), v, nil
		}
		return godot.String(v), "", nil
	case map[string]any:
		if path, ok := v["path"].(string); ok && path != "" {
			return godot.String(path), path, nil
		}
		return dictionary(v)
	default:
		return nil, "", fmt.Errorf("unsupported value %T", v)
	}
}

// dictionary renders a class value as a Godot dictionary with members in
// natural order.
func dictionary(m map[string]any) (godot.Value, string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _, err := convert(tiled.Property{Value: m[k]})
		if err != nil {
			return nil, "", fmt.Errorf("member %s: %w", k, err)
		}

		lit := "null"
		if v != nil {
			lit = v.Literal()
		}
		parts = append(parts, godot.String(k).Literal()+": "+lit)
	}

	return godot.Raw("{" + strings.Join(parts, ", ") + "}"), "", nil
}

// ColorValue converts an 8-bit color to Godot's float color.
func ColorValue(c tiled.Color) godot.Color {
	return godot.Color{
		R: godot.Round(float64(c.R)/255, 6),
		G: godot.Round(float64(c.G)/255, 6),
		B: godot.Round(float64(c.B)/255, 6),
		A: godot.Round(float64(c.A)/255, 6),
	}
}
