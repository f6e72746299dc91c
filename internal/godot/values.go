// Package godot models and writes Godot 4 text scenes (.tscn) and resources (.tres).
package godot

import (
	"math"
	"strconv"
	"strings"
)

// Value is a property value that knows its Godot text literal.
type Value interface {
	Literal() string
}

type (
	// String is a quoted string literal.
	String string
	// Int is an integer literal.
	Int int64
	// Float is a float literal rendered with the shortest exact decimal.
	Float float64
	// Bool is a true/false literal.
	Bool bool
	// Raw is emitted verbatim (user supplied literal).
	Raw string
	// ExtRef references an external resource by id.
	ExtRef int
	// SubRef references a sub-resource by id.
	SubRef int
	// PackedVector2Array is a flat list of 2D points.
	PackedVector2Array []Vector2
	// PackedByteArray is a list of bytes.
	PackedByteArray []byte
	// PackedInt32Array is a list of 32-bit integers.
	PackedInt32Array []int32
	// Array is a generic bracketed array.
	Array []Value
)

// Vector2 is a float 2D vector.
type Vector2 struct {
	X float64 // x component
	Y float64 // y component
}

// Vector2i is an integer 2D vector.
type Vector2i struct {
	X int // x component
	Y int // y component
}

// Color is a float RGBA color in 0..1 range.
type Color struct {
	R float64 // red component
	G float64 // green component
	B float64 // blue component
	A float64 // alpha component
}

// Rect2 is a float rectangle (position + size).
type Rect2 struct {
	X float64 // left
	Y float64 // top
	W float64 // width
	H float64 // height
}

// White is the identity modulate color.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Literal renders the string quoted and escaped.
func (s String) Literal() string {
	return quote(string(s))
}

// Literal renders the integer.
func (i Int) Literal() string {
	return strconv.FormatInt(int64(i), 10)
}

// Literal renders the float.
func (f Float) Literal() string {
	return formatFloat(float64(f))
}

// Literal renders the bool.
func (b Bool) Literal() string {
	return strconv.FormatBool(bool(b))
}

// Literal returns the raw text unchanged.
func (r Raw) Literal() string {
	return string(r)
}

// Literal renders ExtResource("id").
func (r ExtRef) Literal() string {
	return `ExtResource("` + strconv.Itoa(int(r)) + `")`
}

// Literal renders SubResource("id").
func (r SubRef) Literal() string {
	return `SubResource("` + strconv.Itoa(int(r)) + `")`
}

// Literal renders Vector2(x, y).
func (v Vector2) Literal() string {
	return "Vector2(" + formatFloat(v.X) + ", " + formatFloat(v.Y) + ")"
}

// Literal renders Vector2i(x, y).
func (v Vector2i) Literal() string {
	return "Vector2i(" + strconv.Itoa(v.X) + ", " + strconv.Itoa(v.Y) + ")"
}

// Literal renders Color(r, g, b, a).
func (c Color) Literal() string {
	return "Color(" + joinFloats(c.R, c.G, c.B, c.A) + ")"
}

// Literal renders Rect2(x, y, w, h).
func (r Rect2) Literal() string {
	return "Rect2(" + joinFloats(r.X, r.Y, r.W, r.H) + ")"
}

// Literal renders PackedVector2Array(x1, y1, x2, y2, ...).
func (a PackedVector2Array) Literal() string {
	parts := make([]string, 0, len(a)*2)
	for _, p := range a {
		parts = append(parts, formatFloat(p.X), formatFloat(p.Y))
	}

	return "PackedVector2Array(" + strings.Join(parts, ", ") + ")"
}

// Literal renders PackedByteArray(b1, b2, ...).
func (a PackedByteArray) Literal() string {
	parts := make([]string, len(a))
	for i, b := range a {
		parts[i] = strconv.Itoa(int(b))
	}

	return "PackedByteArray(" + strings.Join(parts, ", ") + ")"
}

// Literal renders PackedInt32Array(v1, v2, ...).
func (a PackedInt32Array) Literal() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}

	return "PackedInt32Array(" + strings.Join(parts, ", ") + ")"
}

// Literal renders [v1, v2, ...].
func (a Array) Literal() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = literalOf(v)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// Strings builds an Array of quoted strings.
func Strings(list []string) Array {
	out := make(Array, len(list))
	for i, s := range list {
		out[i] = String(s)
	}

	return out
}

// Equal reports whether two values render to the same literal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Literal() == b.Literal()
}

// literalOf renders a possibly nil value.
func literalOf(v Value) string {
	if v == nil {
		return "null"
	}

	return v.Literal()
}

// formatFloat renders the shortest decimal that round-trips.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	case f == 0:
		// collapse negative zero
		return "0"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// joinFloats renders floats separated by ", ".
func joinFloats(values ...float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}

	return strings.Join(parts, ", ")
}

// quote escapes backslashes and double quotes the way Godot does.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')

	return b.String()
}

// Round rounds f to the given number of decimal places.
func Round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
