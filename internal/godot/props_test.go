package godot

import (
	"reflect"
	"testing"
)

func TestPropsOrder(t *testing.T) {
	t.Parallel()

	p := NewProps()
	p.Set("b", Int(1)).Set("a", Int(2)).Set("c", Int(3))
	p.Set("b", Int(9))

	if got, want := p.Keys(), []string{"b", "a", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys=%v want %v", got, want)
	}
	if v, _ := p.Get("b"); v.Literal() != "9" {
		t.Fatalf("b=%v want 9", v)
	}

	p.Set("a", nil)
	if _, ok := p.Get("a"); ok {
		t.Fatalf("nil value should delete the key")
	}
	if p.Len() != 2 {
		t.Fatalf("len=%d want 2", p.Len())
	}
}

func TestElide(t *testing.T) {
	t.Parallel()

	p := NewProps()
	p.Set("position", Vector2{})
	p.Set("rotation", Float(0.5))
	p.Set("visible", Bool(true))
	p.Set("modulate", White)
	p.Set("custom", Int(0))

	p.Elide(DefaultsFor("Node2D"))

	if got, want := p.Keys(), []string{"rotation", "custom"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys=%v want %v", got, want)
	}
}

func TestDefaultsUnknownType(t *testing.T) {
	t.Parallel()

	d := DefaultsFor("NoSuchClass")
	if d.IsDefault("position", Vector2{}) {
		t.Fatalf("unknown class should have no defaults")
	}
}
