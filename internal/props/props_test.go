package props

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/woozymasta/tiled2godot/internal/godot"
	"github.com/woozymasta/tiled2godot/internal/tiled"
)

// fakeProject resolves uids from a fixed table.
type fakeProject map[string]string

func (f fakeProject) Locate(resPath string) (string, error) {
	uid, ok := f[resPath]
	if !ok {
		return "", fmt.Errorf("stat %s: %w", resPath, fs.ErrNotExist)
	}

	return uid, nil
}

func TestParseKinds(t *testing.T) {
	t.Parallel()

	bag, err := Parse([]tiled.Property{
		{Name: "godot:node:z_as_relative", Type: "string", Value: "false"},
		{Name: "godot:script", Type: "file", Value: "res://door.gd"},
		{Name: "godot:resource:texture", Type: "file", Value: "art/door.png"},
		{Name: "godot:var:speed", Type: "float", Value: 2.5},
		{Name: "godot:meta:label", Type: "string", Value: "Exit"},
		{Name: "godot:groups", Type: "string", Value: "doors, solid,,"},
		{Name: "godot:z_index", Type: "int", Value: float64(3)},
		{Name: "friction", Type: "float", Value: 0.25},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		kind Kind
		key  string
		lit  string
	}{
		{kind: Override, key: "z_as_relative", lit: "false"},
		{kind: Script, key: "script", lit: `"res://door.gd"`},
		{kind: Resource, key: "texture", lit: `"art/door.png"`},
		{kind: Var, key: "speed", lit: "2.5"},
		{kind: Meta, key: "label", lit: `"Exit"`},
		{kind: Plain, key: "friction", lit: "0.25"},
	}

	for _, tt := range tests {
		got := bag.Entries(tt.kind)
		if len(got) != 1 {
			t.Fatalf("kind %d: %d entries", tt.kind, len(got))
		}
		if got[0].Key != tt.key || got[0].Value.Literal() != tt.lit {
			t.Fatalf("kind %d: key=%q lit=%q want %q %q", tt.kind, got[0].Key, got[0].Value.Literal(), tt.key, tt.lit)
		}
	}

	if groups := bag.List(Groups); len(groups) != 2 || groups[0] != "doors" || groups[1] != "solid" {
		t.Fatalf("groups=%v", groups)
	}
	if bag.Int(ZIndex, 0) != 3 {
		t.Fatalf("z_index=%d", bag.Int(ZIndex, 0))
	}
	if bag.Bool(Flatten, false) {
		t.Fatalf("missing bool should use default")
	}
}

func TestParseOverrideOrder(t *testing.T) {
	t.Parallel()

	tile := []tiled.Property{
		{Name: "godot:type", Type: "string", Value: "StaticBody2D"},
		{Name: "godot:meta:kind", Type: "string", Value: "wall"},
	}
	object := []tiled.Property{
		{Name: "godot:type", Type: "string", Value: "Area2D"},
	}

	bag, err := Parse(tile, object)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if bag.String(Type) != "Area2D" {
		t.Fatalf("type=%q want Area2D", bag.String(Type))
	}
	if bag.Len() != 2 {
		t.Fatalf("len=%d want 2", bag.Len())
	}
}

func TestParseUnknownSetting(t *testing.T) {
	t.Parallel()

	bag, err := Parse([]tiled.Property{
		{Name: "godot:frobnicate", Type: "bool", Value: true},
		{Name: "godot:var:", Type: "int", Value: float64(1)},
		{Name: "godot:ignore", Type: "bool", Value: true},
	})
	if !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("err=%v want ErrUnknownSetting", err)
	}
	if len(multierr.Errors(err)) != 2 {
		t.Fatalf("errors=%d want 2", len(multierr.Errors(err)))
	}
	if !bag.Bool(Ignore, false) {
		t.Fatalf("valid settings must survive unknown ones")
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		prop tiled.Property
		want string
		path string
	}{
		{name: "int", prop: tiled.Property{Type: "int", Value: float64(7)}, want: "7"},
		{name: "object", prop: tiled.Property{Type: "object", Value: float64(12)}, want: "12"},
		{name: "bool", prop: tiled.Property{Type: "bool", Value: false}, want: "false"},
		{name: "color", prop: tiled.Property{Type: "color", Value: "#ff0000ff"}, want: "Color(0, 0, 1, 1)"},
		{name: "file", prop: tiled.Property{Type: "file", Value: "a.tscn"}, want: `"a.tscn"`, path: "a.tscn"},
		{
			name: "class-resource",
			prop: tiled.Property{Type: "class", Value: map[string]any{"path": "res://enemy.tscn"}},
			want: `"res://enemy.tscn"`, path: "res://enemy.tscn",
		},
		{
			name: "class-dictionary",
			prop: tiled.Property{Type: "class", Value: map[string]any{"item10": 1.0, "item2": "x", "alive": true}},
			want: `{"alive": true, "item2": "x", "item10": 1}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, path, err := convert(tt.prop)
			if err != nil {
				t.Fatalf("convert: %v", err)
			}
			if v.Literal() != tt.want || path != tt.path {
				t.Fatalf("got %q path %q, want %q path %q", v.Literal(), path, tt.want, tt.path)
			}
		})
	}
}

func TestResolverApply(t *testing.T) {
	t.Parallel()

	reg := godot.NewRegistry(fakeProject{
		"door.gd":      "uid://door",
		"art/door.png": "",
		"key.tres":     "",
		"art/key.png":  "",
	})
	r := NewResolver(reg, zap.NewNop())

	bag, err := Parse([]tiled.Property{
		{Name: "godot:node:position", Type: "string", Value: "Vector2(0, 0)"},
		{Name: "godot:node:rotation", Type: "string", Value: "0.5"},
		{Name: "godot:script", Type: "file", Value: "res://door.gd"},
		{Name: "godot:resource:texture", Type: "file", Value: "art/door.png"},
		{Name: "godot:resource:sound", Type: "file", Value: "missing.ogg"},
		{Name: "godot:resource:blank", Type: "string", Value: ""},
		{Name: "godot:var:locked", Type: "bool", Value: true},
		{Name: "godot:var:key", Type: "class", Value: map[string]any{"path": "key.tres"}},
		{Name: "godot:var:icon", Type: "file", Value: "art/key.png"},
		{Name: "godot:meta:label", Type: "string", Value: "Exit"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tree := godot.NewTree("Map", "Node2D")
	node := tree.Register(nil, godot.NewNode("Door", "Area2D"))

	err = r.Apply(node, bag)
	if !errors.Is(err, godot.ErrMissingResource) || !errors.Is(err, godot.ErrEmptyPath) {
		t.Fatalf("err=%v want missing and empty path diagnostics", err)
	}
	if godot.IsFatal(err) {
		t.Fatalf("diagnostics must not be fatal")
	}

	want := []struct {
		key string
		lit string
	}{
		{key: "rotation", lit: "0.5"},
		{key: "script", lit: `ExtResource("0")`},
		{key: "texture", lit: `ExtResource("1")`},
		{key: "locked", lit: "true"},
		{key: "key", lit: `ExtResource("2")`},
		{key: "icon", lit: `ExtResource("3")`},
	}

	keys := node.Props.Keys()
	if len(keys) != len(want) {
		t.Fatalf("keys=%v", keys)
	}
	for i, w := range want {
		v, _ := node.Props.Get(w.key)
		if keys[i] != w.key || v.Literal() != w.lit {
			t.Fatalf("prop %d: %s=%v want %s=%s", i, keys[i], v, w.key, w.lit)
		}
	}

	if node.Script == nil || node.Script.UID != "uid://door" {
		t.Fatalf("script not attached: %+v", node.Script)
	}
	if v, ok := node.Meta.Get("label"); !ok || v.Literal() != `"Exit"` {
		t.Fatalf("meta label=%v", v)
	}

	ext := reg.External()
	if len(ext) != 4 {
		t.Fatalf("external=%+v", ext)
	}
	// godot:resource: refs are plain Resources whatever the extension.
	if ext[1].Type != godot.ExtResource {
		t.Fatalf("resource texture type=%s want %s", ext[1].Type, godot.ExtResource)
	}
	if ext[2].Type != godot.ExtResource || ext[3].Type != godot.ExtTexture {
		t.Fatalf("var types=%s,%s", ext[2].Type, ext[3].Type)
	}
}

func TestExtTypeFor(t *testing.T) {
	t.Parallel()

	tests := map[string]godot.ExtType{
		"res://a.tscn": godot.ExtPackedScene,
		"b.GD":         godot.ExtScript,
		"c.png":        godot.ExtTexture,
		"d.tres":       godot.ExtResource,
		"noext":        godot.ExtResource,
	}

	for in, want := range tests {
		if got := ExtTypeFor(in); got != want {
			t.Fatalf("ExtTypeFor(%q)=%s want %s", in, got, want)
		}
	}
}
