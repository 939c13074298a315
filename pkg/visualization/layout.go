package visualization

import (
	"encoding/json"
)

// NodeView is one placed node as a renderer draws it
type NodeView struct {
	ID   string  `json:"id"`
	Type string  `json:"type,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// LinkView is one drawable link between two placed nodes
type LinkView struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation,omitempty"`
}

// Document is the render-ready form of a graph at one snapshot
type Document struct {
	SimulationID string     `json:"simulation_id,omitempty"`
	Tick         int        `json:"tick"`
	Done         bool       `json:"done"`
	Viewport     Viewport   `json:"viewport"`
	Nodes        []NodeView `json:"nodes"`
	Links        []LinkView `json:"links"`
}

// Visualization pairs a graph with a snapshot of its layout
type Visualization[N Vertex, E Edge] struct {
	Nodes    []N
	Edges    []E
	Viewport Viewport
	Snapshot Snapshot
}

// Document builds the render view. Nodes without a position and links with
// an unplaced endpoint are skipped, as a renderer would skip drawing them.
func (v *Visualization[N, E]) Document() Document {
	doc := Document{
		SimulationID: v.Snapshot.SimulationID,
		Tick:         v.Snapshot.Tick,
		Done:         v.Snapshot.Done,
		Viewport:     v.Viewport,
		Nodes:        make([]NodeView, 0, len(v.Nodes)),
		Links:        make([]LinkView, 0, len(v.Edges)),
	}

	seen := make(map[string]bool, len(v.Nodes))
	for _, n := range v.Nodes {
		id := n.LayoutID()
		pos, ok := v.Snapshot.Positions[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		view := NodeView{ID: id, X: pos.X, Y: pos.Y}
		if typed, ok := any(n).(Typed); ok {
			view.Type = typed.LayoutType()
		}
		doc.Nodes = append(doc.Nodes, view)
	}

	for _, e := range v.Edges {
		src, dst := e.LayoutEndpoints()
		if !seen[src] || !seen[dst] {
			continue
		}
		view := LinkView{Source: src, Target: dst}
		if labeled, ok := any(e).(Labeled); ok {
			view.Relation = labeled.LayoutLabel()
		}
		doc.Links = append(doc.Links, view)
	}

	return doc
}

// ExportJSON exports the visualization to JSON
func (v *Visualization[N, E]) ExportJSON() ([]byte, error) {
	return json.Marshal(v.Document())
}
