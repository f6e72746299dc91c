package godot

// Props is an insertion-ordered set of properties.
type Props struct {
	values map[string]Value
	keys   []string
}

// NewProps creates an empty property set.
func NewProps() *Props {
	return &Props{values: map[string]Value{}}
}

// Set stores a value, keeping the original position of an existing key.
// A nil value removes the key.
func (p *Props) Set(key string, v Value) *Props {
	if v == nil {
		p.Delete(key)
		return p
	}

	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v

	return p
}

// Get returns the value stored for key.
func (p *Props) Get(key string) (Value, bool) {
	if p == nil {
		return nil, false
	}

	v, ok := p.values[key]
	return v, ok
}

// Delete removes key.
func (p *Props) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}

	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of properties.
func (p *Props) Len() int {
	if p == nil {
		return 0
	}

	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *Props) Keys() []string {
	if p == nil {
		return nil
	}

	return append([]string(nil), p.keys...)
}

// Each calls fn for every property in insertion order.
func (p *Props) Each(fn func(key string, v Value)) {
	if p == nil {
		return
	}

	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}

// Elide drops every property equal to its default.
func (p *Props) Elide(defaults Defaults) {
	if p == nil || defaults == nil {
		return
	}

	for _, k := range p.Keys() {
		if defaults.IsDefault(k, p.values[k]) {
			p.Delete(k)
		}
	}
}

// Defaults maps a property name to the value Godot assumes when it is absent.
type Defaults map[string]Value

// IsDefault reports whether v equals the declared default for key.
func (d Defaults) IsDefault(key string, v Value) bool {
	def, ok := d[key]
	if !ok {
		return false
	}

	return Equal(def, v)
}

// with returns a copy of d extended by extra.
func (d Defaults) with(extra Defaults) Defaults {
	out := make(Defaults, len(d)+len(extra))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}

	return out
}

var (
	canvasItemDefaults = Defaults{
		"visible":            Bool(true),
		"modulate":           White,
		"self_modulate":      White,
		"show_behind_parent": Bool(false),
		"z_index":            Int(0),
		"z_as_relative":      Bool(true),
		"y_sort_enabled":     Bool(false),
		"light_mask":         Int(1),
		"texture_filter":     Int(0),
	}

	node2DDefaults = canvasItemDefaults.with(Defaults{
		"position": Vector2{},
		"rotation": Float(0),
		"scale":    Vector2{X: 1, Y: 1},
		"skew":     Float(0),
	})

	collisionObjectDefaults = node2DDefaults.with(Defaults{
		"collision_layer":    Int(1),
		"collision_mask":     Int(1),
		"collision_priority": Float(1),
		"disable_mode":       Int(0),
	})

	typeDefaults = map[string]Defaults{
		"Node2D": node2DDefaults,
		"Area2D": collisionObjectDefaults.with(Defaults{
			"monitoring":  Bool(true),
			"monitorable": Bool(true),
			"priority":    Int(0),
		}),
		"StaticBody2D": collisionObjectDefaults,
		"CollisionShape2D": node2DDefaults.with(Defaults{
			"disabled":                 Bool(false),
			"one_way_collision":        Bool(false),
			"one_way_collision_margin": Float(1),
		}),
		"CollisionPolygon2D": node2DDefaults.with(Defaults{
			"build_mode":               Int(0),
			"polygon":                  PackedVector2Array{},
			"disabled":                 Bool(false),
			"one_way_collision":        Bool(false),
			"one_way_collision_margin": Float(1),
		}),
		"Sprite2D": node2DDefaults.with(Defaults{
			"centered":       Bool(true),
			"offset":         Vector2{},
			"flip_h":         Bool(false),
			"flip_v":         Bool(false),
			"hframes":        Int(1),
			"vframes":        Int(1),
			"frame":          Int(0),
			"region_enabled": Bool(false),
			"region_rect":    Rect2{},
		}),
		"TileMapLayer": node2DDefaults.with(Defaults{
			"tile_map_data":           PackedByteArray{},
			"enabled":                 Bool(true),
			"collision_enabled":       Bool(true),
			"use_kinematic_bodies":    Bool(false),
			"navigation_enabled":      Bool(true),
			"rendering_quadrant_size": Int(16),
			"y_sort_origin":           Int(0),
			"x_draw_order_reversed":   Bool(false),
		}),
		"RectangleShape2D": {
			"size": Vector2{X: 20, Y: 20},
		},
		"CircleShape2D": {
			"radius": Float(10),
		},
		"CapsuleShape2D": {
			"radius": Float(10),
			"height": Float(30),
		},
		"TileSetAtlasSource": {
			"margins":             Vector2i{},
			"separation":          Vector2i{},
			"texture_region_size": Vector2i{X: 16, Y: 16},
			"use_texture_padding": Bool(true),
		},
		"TileSet": {
			"tile_shape":       Int(0),
			"tile_layout":      Int(0),
			"tile_offset_axis": Int(0),
			"tile_size":        Vector2i{X: 16, Y: 16},
			"uv_clipping":      Bool(false),
		},
	}
)

// DefaultsFor returns the default table for a Godot class, or nil when unknown.
func DefaultsFor(typ string) Defaults {
	return typeDefaults[typ]
}
