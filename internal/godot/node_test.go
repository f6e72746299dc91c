package godot

import (
	"errors"
	"testing"
)

func TestRegisterUniqueNames(t *testing.T) {
	t.Parallel()

	tree := NewTree("Map", "Node2D")
	a := tree.Register(nil, NewNode("Area2D", "Area2D"))
	b := tree.Register(nil, NewNode("Area2D", "Area2D"))
	c := tree.Register(nil, NewNode("Area2D", "Area2D"))

	got := []string{a.Name, b.Name, c.Name}
	want := []string{"Area2D", "Area2D_1", "Area2D_2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names=%v want %v", got, want)
		}
	}

	// Same name under another parent is allowed.
	inner := tree.Register(a, NewNode("Area2D", "Area2D"))
	if inner.Name != "Area2D" {
		t.Fatalf("name=%q want Area2D", inner.Name)
	}
}

func TestRegisterNumericSuffix(t *testing.T) {
	t.Parallel()

	tree := NewTree("Map", "Node2D")
	tree.Register(nil, NewNode("Door_7", "Area2D"))
	tree.Register(nil, NewNode("Door_x", "Area2D"))

	n := tree.Register(nil, NewNode("Door", "Area2D"))
	if n.Name != "Door_8" {
		t.Fatalf("name=%q want Door_8", n.Name)
	}
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tree := NewTree("Map", "Node2D")

	n := tree.Register(nil, NewNode(`a.b:c@d/e"f%g`, "Node2D"))
	if n.Name != "a_b_c_d_e_f_g" {
		t.Fatalf("name=%q", n.Name)
	}

	empty := tree.Register(nil, NewNode("  ", "Sprite2D"))
	if empty.Name != "Sprite2D" {
		t.Fatalf("name=%q want Sprite2D", empty.Name)
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	tree := NewTree("Map", "Node2D")
	layer := tree.Register(nil, NewNode("Objects", "Node2D"))
	zone := tree.Register(layer, NewNode("Zone", "Area2D"))
	shape := tree.Register(zone, NewNode("Shape", "CollisionShape2D"))

	tests := []struct {
		node *Node
		want string
	}{
		{node: layer, want: "."},
		{node: zone, want: "Objects"},
		{node: shape, want: "Objects/Zone"},
	}

	for _, tt := range tests {
		got, err := tree.Path(tt.node)
		if err != nil {
			t.Fatalf("Path(%s): %v", tt.node.Name, err)
		}
		if got != tt.want {
			t.Fatalf("Path(%s)=%q want %q", tt.node.Name, got, tt.want)
		}
	}
}

func TestPathCycle(t *testing.T) {
	t.Parallel()

	tree := NewTree("Map", "Node2D")
	a := tree.Register(nil, NewNode("A", "Node2D"))
	b := tree.Register(a, NewNode("B", "Node2D"))
	a.Owner = b

	if _, err := tree.Path(b); !errors.Is(err, ErrOwnerCycle) {
		t.Fatalf("err=%v want ErrOwnerCycle", err)
	}

	s := &Scene{Registry: NewRegistry(nil), Tree: tree}
	out, err := s.Bytes()
	if !errors.Is(err, ErrOwnerCycle) || !IsFatal(err) {
		t.Fatalf("err=%v want fatal ErrOwnerCycle", err)
	}
	if out != nil {
		t.Fatalf("partial output on error")
	}
}
