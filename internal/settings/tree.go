// Package settings rebuilds nested configuration from the flat options
// table and serves dot-path reads and writes over it.
package settings

import (
	"encoding/json"

	"github.com/vrsandeep/xwc-settings/internal/codec"
)

// Node is a position in the configuration tree: either a Branch or a Leaf.
type Node interface {
	isNode()
}

// Leaf is a terminal value: a coerced scalar or a structured payload that
// was kept as-is.
type Leaf struct {
	Value any
}

// Branch is a named mapping of child nodes.
type Branch map[string]Node

func (Leaf) isNode()   {}
func (Branch) isNode() {}

// MarshalJSON writes the bare value.
func (l Leaf) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Value)
}

// MarshalYAML writes the bare value.
func (l Leaf) MarshalYAML() (any, error) {
	return codec.Export(l.Value), nil
}

// Export converts the branch into plain maps and values.
func (b Branch) Export() map[string]any {
	out := make(map[string]any, len(b))
	for k, n := range b {
		out[k] = exportNode(n)
	}
	return out
}

// Clone deep-copies the branch, including structured leaf values.
// Scalar leaves are shared.
func (b Branch) Clone() Branch {
	out := make(Branch, len(b))
	for k, n := range b {
		out[k] = cloneNode(n)
	}
	return out
}

func cloneNode(n Node) Node {
	switch v := n.(type) {
	case Branch:
		return v.Clone()
	case Leaf:
		return Leaf{Value: cloneValue(v.Value)}
	}
	return n
}

func cloneValue(v any) any {
	if arr, ok := v.(*codec.Array); ok {
		return arr.Clone()
	}
	return v
}

func exportNode(n Node) any {
	switch v := n.(type) {
	case Branch:
		return v.Export()
	case Leaf:
		return codec.Export(v.Value)
	}
	return nil
}

// walk follows segs from b and reports the node found at the end.
func (b Branch) walk(segs []string) (Node, bool) {
	var cur Node = b
	for _, seg := range segs {
		switch node := cur.(type) {
		case Branch:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case Leaf:
			// Structured payloads kept as leaves are addressable too.
			arr, ok := node.Value.(*codec.Array)
			if !ok {
				return nil, false
			}
			v, ok := arr.Get(seg)
			if !ok {
				return nil, false
			}
			cur = Leaf{Value: v}
		default:
			return nil, false
		}
	}
	return cur, true
}

// underlay copies every path of src that is missing from dst into dst.
// Existing values in dst win; branches present on both sides are merged.
func underlay(dst, src Branch) {
	for k, n := range src {
		existing, ok := dst[k]
		if !ok {
			if child, isBranch := n.(Branch); isBranch {
				dst[k] = child.Clone()
			} else {
				dst[k] = n
			}
			continue
		}
		dstChild, dstBranch := existing.(Branch)
		srcChild, srcBranch := n.(Branch)
		if dstBranch && srcBranch {
			underlay(dstChild, srcChild)
		}
	}
}
