package godot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrOwnerCycle is returned when a node's owner chain does not reach the root.
var ErrOwnerCycle = errors.New("node owner chain contains a cycle")

// Node is a scene node. Type selects the Godot class; the optional parts
// (transform, collision, script) live in Props.
type Node struct {
	Props    *Props            // resolved node properties
	Meta     *Props            // __meta__ entries
	Owner    *Node             // parent node, nil for children of the scene root
	Script   *ExternalResource // attached script, if any
	Instance *ExternalResource // instanced scene, emitted instead of type
	Name     string            // unique among siblings after registration
	Type     string            // Godot class name
	Groups   []string          // node groups
	children []*Node
}

// NewNode creates a node with empty property sets.
func NewNode(name, typ string) *Node {
	return &Node{Name: name, Type: typ, Props: NewProps(), Meta: NewProps()}
}

// Children returns the registered children of the node.
func (n *Node) Children() []*Node {
	return n.children
}

// Tree is the node hierarchy of one scene. Root is emitted first and is
// not part of the registration list.
type Tree struct {
	Root  *Node
	nodes []*Node
}

// NewTree creates a tree with a root node.
func NewTree(rootName, rootType string) *Tree {
	root := NewNode(sanitizeName(rootName, rootType), rootType)
	return &Tree{Root: root}
}

// Register appends node under parent (nil means the scene root), renaming
// it when a sibling already uses the name.
func (t *Tree) Register(parent, node *Node) *Node {
	holder := parent
	if holder == nil {
		holder = t.Root
	}

	node.Name = uniqueName(holder.children, sanitizeName(node.Name, node.Type))
	node.Owner = parent
	if node.Props == nil {
		node.Props = NewProps()
	}
	if node.Meta == nil {
		node.Meta = NewProps()
	}

	holder.children = append(holder.children, node)
	t.nodes = append(t.nodes, node)

	return node
}

// Nodes returns registered nodes in registration order.
func (t *Tree) Nodes() []*Node {
	return t.nodes
}

// Path returns the parent path of node as written in the parent="..." attribute.
func (t *Tree) Path(node *Node) (string, error) {
	if node.Owner == nil {
		return ".", nil
	}

	var names []string
	limit := len(t.nodes) + 1
	for cur := node.Owner; cur != nil; cur = cur.Owner {
		if len(names) >= limit {
			return "", fmt.Errorf("%w: %q", ErrOwnerCycle, node.Name)
		}
		names = append(names, cur.Name)
	}

	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}

	return strings.Join(names, "/"), nil
}

// uniqueName returns name, or name_N where N is one above the highest
// numeric suffix used by a conflicting sibling.
func uniqueName(siblings []*Node, name string) string {
	highest := -1
	for _, s := range siblings {
		if s.Name == name {
			if highest < 0 {
				highest = 0
			}
			continue
		}

		rest, ok := strings.CutPrefix(s.Name, name+"_")
		if !ok || !isDigits(rest) {
			continue
		}

		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	if highest < 0 {
		return name
	}

	return name + "_" + strconv.Itoa(highest+1)
}

// sanitizeName replaces characters Godot rejects in node names.
func sanitizeName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = "Node"
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ':', '@', '/', '"', '%':
			return '_'
		}
		return r
	}, name)
}

// isDigits checks if a string contains only digits.
func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return s != ""
}
