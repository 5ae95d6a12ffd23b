package domain

import "strings"

// FlowGraph is the admin-authored configuration the interpreter walks.
// At most one graph is active at a time; the flow store enforces that.
type FlowGraph struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Nodes  []Node `json:"nodes"`
	Edges  []Edge `json:"edges"`
}

// NodeByID returns the node with the given id, or nil.
// Edges referencing ids that resolve to nil are treated as "no next node"
// by the interpreter rather than as a failure.
func (g *FlowGraph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// TriggerNode returns the first node of type trigger, or nil.
func (g *FlowGraph) TriggerNode() *Node {
	for i := range g.Nodes {
		if g.Nodes[i].Type == NodeTrigger {
			return &g.Nodes[i]
		}
	}
	return nil
}

// EntryNode returns the trigger node, falling back to the first node in the
// list when no trigger was authored. Returns nil on an empty graph.
func (g *FlowGraph) EntryNode() *Node {
	if t := g.TriggerNode(); t != nil {
		return t
	}
	if len(g.Nodes) > 0 {
		return &g.Nodes[0]
	}
	return nil
}

// EdgeFrom returns the first edge leaving the given node, or nil.
func (g *FlowGraph) EdgeFrom(nodeID string) *Edge {
	for i := range g.Edges {
		if g.Edges[i].Source == nodeID {
			return &g.Edges[i]
		}
	}
	return nil
}

// EdgeLabeled returns the edge leaving nodeID whose label equals the given
// choice text, or nil. Labels are compared after trimming surrounding space.
func (g *FlowGraph) EdgeLabeled(nodeID, label string) *Edge {
	want := strings.TrimSpace(label)
	for i := range g.Edges {
		if g.Edges[i].Source == nodeID && strings.TrimSpace(g.Edges[i].Label) == want {
			return &g.Edges[i]
		}
	}
	return nil
}
