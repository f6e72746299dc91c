package gdhead

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates a file and its parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFile), "config_version=5\n")
	writeFile(t, filepath.Join(root, "scenes", "player.tscn"),
		"[gd_scene load_steps=2 format=3 uid=\"uid://bplayer\"]\n\n[node name=\"Player\" type=\"Node2D\"]\n")
	writeFile(t, filepath.Join(root, "tiles", "set.tres"),
		"[gd_resource type=\"TileSet\" load_steps=1 format=3]\n\n[resource]\n")
	writeFile(t, filepath.Join(root, "scripts", "door.gd"), "extends Area2D\n")
	writeFile(t, filepath.Join(root, "scripts", "door.gd.uid"), "uid://cdoor\n")
	writeFile(t, filepath.Join(root, "art", "tiles.png"), "png")
	writeFile(t, filepath.Join(root, "art", "tiles.png.import"),
		"[remap]\n\nimporter=\"texture\"\ntype=\"CompressedTexture2D\"\nuid=\"uid://dtiles\"\n")
	writeFile(t, filepath.Join(root, "art", "bare.png"), "png")

	p, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "scene-header", path: "scenes/player.tscn", want: "uid://bplayer"},
		{name: "resource-without-uid", path: "res://tiles/set.tres", want: ""},
		{name: "uid-sidecar", path: "scripts/door.gd", want: "uid://cdoor"},
		{name: "import-file", path: "art/tiles.png", want: "uid://dtiles"},
		{name: "no-metadata", path: "art/bare.png", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := p.Locate(tt.path)
			if err != nil {
				t.Fatalf("Locate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("uid=%q want %q", got, tt.want)
			}
		})
	}

	if _, err := p.Locate("scenes/missing.tscn"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err=%v want fs.ErrNotExist", err)
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFile), "")
	deep := filepath.Join(root, "maps", "world")
	writeFile(t, filepath.Join(deep, "level.tmj"), "{}")

	p, err := Find(filepath.Join(deep, "level.tmj"))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	want, _ := filepath.Abs(root)
	if p.Root != want {
		t.Fatalf("root=%q want %q", p.Root, want)
	}

	res, err := p.ResPath(filepath.Join(deep, "level.tscn"))
	if err != nil {
		t.Fatalf("ResPath: %v", err)
	}
	if res != "maps/world/level.tscn" {
		t.Fatalf("res=%q", res)
	}

	if _, err := p.ResPath(filepath.Dir(root)); !errors.Is(err, ErrOutsideProject) {
		t.Fatalf("err=%v want ErrOutsideProject", err)
	}
}

func TestFindNoProject(t *testing.T) {
	t.Parallel()

	// TempDir lives under the system temp dir which has no project.godot.
	dir := t.TempDir()
	if _, err := Find(dir); !errors.Is(err, ErrNoProject) {
		t.Skipf("a project.godot exists above %s: %v", dir, err)
	}
}
