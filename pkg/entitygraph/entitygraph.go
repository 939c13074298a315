// Package entitygraph decodes the entity graphs produced by story analysis:
// characters, locations and organizations plus the relations between them.
package entitygraph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidRef is returned when a link endpoint is neither an id string
// nor an object carrying an id.
var ErrInvalidRef = errors.New("invalid link endpoint")

// Common node types. Type is free-form and only affects rendering.
const (
	TypeCharacter    = "character"
	TypeLocation     = "location"
	TypeOrganization = "organization"
)

// Node is one entity of the story
type Node struct {
	ID       string   `json:"id" validate:"required,max=256"`
	Type     string   `json:"type,omitempty" validate:"max=64"`
	Mentions []string `json:"mentions,omitempty" validate:"max=1000"`
}

// LayoutID implements visualization.Vertex
func (n Node) LayoutID() string { return n.ID }

// LayoutType implements visualization.Typed
func (n Node) LayoutType() string { return n.Type }

// RefKind tells which form a link endpoint arrived in
type RefKind int

const (
	// RefID is a bare id string
	RefID RefKind = iota
	// RefNode is a node object resolved by an earlier layout pass
	RefNode
)

// Ref is a link endpoint. Upstream producers send either the id of a node
// or the node object itself; both forms decode into a Ref.
type Ref struct {
	Kind RefKind
	ID   string
	Node *Node
}

// IDRef builds a reference from an id
func IDRef(id string) Ref {
	return Ref{Kind: RefID, ID: id}
}

// NodeRef builds a reference holding a resolved node
func NodeRef(n Node) Ref {
	return Ref{Kind: RefNode, ID: n.ID, Node: &n}
}

// Resolve returns the id the endpoint refers to
func (r Ref) Resolve() string {
	if r.Kind == RefNode && r.Node != nil {
		return r.Node.ID
	}
	return r.ID
}

// UnmarshalJSON accepts "id" or {"id": "..."}
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidRef
	}

	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRef, err)
		}
		*r = IDRef(id)
		return nil
	case '{':
		var n Node
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRef, err)
		}
		if n.ID == "" {
			return fmt.Errorf("%w: object without id", ErrInvalidRef)
		}
		*r = NodeRef(n)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidRef, data)
	}
}

// MarshalJSON always writes the bare id
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Resolve())
}

// Link is a directed relation between two entities, optionally tied to
// the scene and sentence it was extracted from
type Link struct {
	Source   Ref    `json:"source"`
	Target   Ref    `json:"target"`
	Relation string `json:"relation,omitempty"`
	SceneID  string `json:"scene_id,omitempty"`
	Sentence string `json:"sentence,omitempty"`
}

// LayoutEndpoints implements visualization.Edge
func (l Link) LayoutEndpoints() (string, string) {
	return l.Source.Resolve(), l.Target.Resolve()
}

// LayoutLabel implements visualization.Labeled
func (l Link) LayoutLabel() string { return l.Relation }

// Graph is the node and link lists of one analysis
type Graph struct {
	Nodes []Node `json:"nodes" validate:"dive"`
	Links []Link `json:"links" validate:"-"`
}

// Node looks up a node by id
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Dangling returns links with an endpoint that names no node. The layout
// ignores them; callers may want to report them.
func (g *Graph) Dangling() []Link {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}

	var out []Link
	for _, l := range g.Links {
		src, dst := l.LayoutEndpoints()
		_, okSrc := ids[src]
		_, okDst := ids[dst]
		if !okSrc || !okDst {
			out = append(out, l)
		}
	}
	return out
}

// Neighbors returns the ids linked to id in either direction, in link order
func (g *Graph) Neighbors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range g.Links {
		src, dst := l.LayoutEndpoints()
		var other string
		switch id {
		case src:
			other = dst
		case dst:
			other = src
		default:
			continue
		}
		if other == id || seen[other] {
			continue
		}
		seen[other] = true
		out = append(out, other)
	}
	return out
}

// TypeCounts tallies nodes per type; untyped nodes count under ""
func (g *Graph) TypeCounts() map[string]int {
	out := make(map[string]int)
	for _, n := range g.Nodes {
		out[n.Type]++
	}
	return out
}
