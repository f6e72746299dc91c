package godot

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultFormat is the text format version written in document headers.
const DefaultFormat = 3

// Scene is a .tscn document: registry tables plus the node tree.
type Scene struct {
	Registry *Registry // external and sub-resource tables
	Tree     *Tree     // node hierarchy
	UID      string    // optional uid://... of the scene itself
	Format   int       // format=... header value
}

// Bytes renders the scene. Nothing is returned on error.
func (s *Scene) Bytes() ([]byte, error) {
	var b bytes.Buffer
	if _, err := s.WriteTo(&b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// WriteTo renders the scene in one pass: header, ext_resources,
// sub_resources, root node, nodes in registration order.
func (s *Scene) WriteTo(w io.Writer) (int64, error) {
	// Resolve every path before writing so a broken tree produces no output.
	paths := make([]string, len(s.Tree.Nodes()))
	for i, n := range s.Tree.Nodes() {
		p, err := s.Tree.Path(n)
		if err != nil {
			return 0, err
		}
		paths[i] = p
	}

	var b strings.Builder
	b.WriteString("[gd_scene load_steps=")
	b.WriteString(strconv.Itoa(s.Registry.LoadSteps()))
	b.WriteString(" format=")
	b.WriteString(strconv.Itoa(formatOrDefault(s.Format)))
	writeUID(&b, s.UID)
	b.WriteString("]\n")

	writeTables(&b, s.Registry)

	b.WriteByte('\n')
	writeNode(&b, s.Tree.Root, "")

	for i, n := range s.Tree.Nodes() {
		b.WriteByte('\n')
		writeNode(&b, n, paths[i])
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ResourceDoc is a .tres document whose main [resource] section has Props.
type ResourceDoc struct {
	Registry *Registry // external and sub-resource tables
	Props    *Props    // [resource] section properties
	Type     string    // resource class, e.g. TileSet
	UID      string    // optional uid://... of the resource itself
	Format   int       // format=... header value
}

// Bytes renders the resource document.
func (d *ResourceDoc) Bytes() ([]byte, error) {
	var b bytes.Buffer
	if _, err := d.WriteTo(&b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// WriteTo renders the resource document.
func (d *ResourceDoc) WriteTo(w io.Writer) (int64, error) {
	if d.Type == "" {
		return 0, fmt.Errorf("resource document without type")
	}

	var b strings.Builder
	b.WriteString("[gd_resource type=")
	b.WriteString(quote(d.Type))
	b.WriteString(" load_steps=")
	b.WriteString(strconv.Itoa(d.Registry.LoadSteps()))
	b.WriteString(" format=")
	b.WriteString(strconv.Itoa(formatOrDefault(d.Format)))
	writeUID(&b, d.UID)
	b.WriteString("]\n")

	writeTables(&b, d.Registry)

	b.WriteString("\n[resource]\n")
	writeProps(&b, d.Props, DefaultsFor(d.Type))

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// writeTables writes the ext_resource lines and sub_resource blocks.
func writeTables(b *strings.Builder, r *Registry) {
	if len(r.External()) > 0 {
		b.WriteByte('\n')
	}
	for _, e := range r.External() {
		b.WriteString("[ext_resource type=")
		b.WriteString(quote(string(e.Type)))
		if e.UID != "" {
			b.WriteString(" uid=")
			b.WriteString(quote(e.UID))
		}
		b.WriteString(" path=")
		b.WriteString(quote("res://" + e.Path))
		b.WriteString(" id=")
		b.WriteString(quote(strconv.Itoa(e.ID)))
		b.WriteString("]\n")
	}

	for _, s := range r.Sub() {
		b.WriteString("\n[sub_resource type=")
		b.WriteString(quote(string(s.Type)))
		b.WriteString(" id=")
		b.WriteString(quote(strconv.Itoa(s.ID)))
		b.WriteString("]\n")
		writeProps(b, s.Props, DefaultsFor(string(s.Type)))
	}
}

// writeNode writes one [node] block. An empty parent marks the scene root.
func writeNode(b *strings.Builder, n *Node, parent string) {
	b.WriteString("[node name=")
	b.WriteString(quote(n.Name))
	if n.Instance == nil && n.Type != "" {
		b.WriteString(" type=")
		b.WriteString(quote(n.Type))
	}
	if parent != "" {
		b.WriteString(" parent=")
		b.WriteString(quote(parent))
	}
	if n.Instance != nil {
		b.WriteString(" instance=")
		b.WriteString(n.Instance.Ref().Literal())
	}
	if len(n.Groups) > 0 {
		b.WriteString(" groups=")
		b.WriteString(Strings(n.Groups).Literal())
	}
	b.WriteString("]\n")

	var defaults Defaults
	if n.Instance == nil {
		defaults = DefaultsFor(n.Type)
	}
	writeProps(b, n.Props, defaults)
	writeMeta(b, n.Meta)
}

// writeProps writes key = value lines, skipping defaults.
func writeProps(b *strings.Builder, p *Props, defaults Defaults) {
	p.Each(func(key string, v Value) {
		if defaults.IsDefault(key, v) {
			return
		}

		b.WriteString(key)
		b.WriteString(" = ")
		b.WriteString(v.Literal())
		b.WriteByte('\n')
	})
}

// writeMeta writes the __meta__ dictionary block.
func writeMeta(b *strings.Builder, meta *Props) {
	if meta.Len() == 0 {
		return
	}

	b.WriteString("__meta__ = {\n")
	first := true
	meta.Each(func(key string, v Value) {
		if !first {
			b.WriteString(",\n")
		}
		first = false

		b.WriteString(quote(key))
		b.WriteString(": ")
		b.WriteString(v.Literal())
	})
	b.WriteString("\n}\n")
}

// writeUID appends the uid attribute when set.
func writeUID(b *strings.Builder, uid string) {
	if uid == "" {
		return
	}

	b.WriteString(" uid=")
	b.WriteString(quote(uid))
}

// formatOrDefault returns f or DefaultFormat when unset.
func formatOrDefault(f int) int {
	if f <= 0 {
		return DefaultFormat
	}

	return f
}
