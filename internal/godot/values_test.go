package godot

import (
	"math"
	"testing"
)

func TestLiterals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "string", value: String(`say "hi" \o/`), want: `"say \"hi\" \\o/"`},
		{name: "int", value: Int(-42), want: "-42"},
		{name: "float-whole", value: Float(5), want: "5"},
		{name: "float-frac", value: Float(0.125), want: "0.125"},
		{name: "float-negzero", value: Float(math.Copysign(0, -1)), want: "0"},
		{name: "bool", value: Bool(true), want: "true"},
		{name: "raw", value: Raw("Vector3(1, 2, 3)"), want: "Vector3(1, 2, 3)"},
		{name: "ext", value: ExtRef(3), want: `ExtResource("3")`},
		{name: "sub", value: SubRef(0), want: `SubResource("0")`},
		{name: "vector2", value: Vector2{X: 5, Y: 5}, want: "Vector2(5, 5)"},
		{name: "vector2i", value: Vector2i{X: -1, Y: 2}, want: "Vector2i(-1, 2)"},
		{name: "color", value: Color{R: 1, G: 0.5, B: 0, A: 1}, want: "Color(1, 0.5, 0, 1)"},
		{name: "rect", value: Rect2{X: 16, Y: 0, W: 16, H: 16}, want: "Rect2(16, 0, 16, 16)"},
		{
			name:  "polygon",
			value: PackedVector2Array{{X: 0, Y: 0}, {X: 16, Y: 0}, {X: 16, Y: 8.5}},
			want:  "PackedVector2Array(0, 0, 16, 0, 16, 8.5)",
		},
		{name: "bytes", value: PackedByteArray{0, 1, 255}, want: "PackedByteArray(0, 1, 255)"},
		{name: "int32s", value: PackedInt32Array{-1, 7}, want: "PackedInt32Array(-1, 7)"},
		{name: "groups", value: Strings([]string{"enemies", "solid"}), want: `["enemies", "solid"]`},
		{name: "empty-array", value: Array{}, want: "[]"},
		{name: "nested-null", value: Array{Int(1), nil}, want: "[1, null]"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.value.Literal(); got != tt.want {
				t.Fatalf("Literal()=%q want %q", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	if !Equal(Vector2{}, Vector2{X: 0, Y: 0}) {
		t.Fatalf("zero vectors differ")
	}
	if !Equal(Float(1), Int(1)) {
		t.Fatalf("equal literals should compare equal")
	}
	if Equal(Float(1.5), Float(1)) {
		t.Fatalf("different floats compare equal")
	}
	if Equal(nil, Int(0)) || !Equal(nil, nil) {
		t.Fatalf("nil handling broken")
	}
}

func TestRound(t *testing.T) {
	t.Parallel()

	if got := Round(1.23456789, 3); got != 1.235 {
		t.Fatalf("Round=%v want 1.235", got)
	}
	if got := Round(0.7853981633974483, 6); got != 0.785398 {
		t.Fatalf("Round=%v want 0.785398", got)
	}
}
