// FILE: internal/graph/saved.go
package graph

import (
	"fmt"

	"repertoire/internal/board"
)

// Saved is the graphlib-style JSON form of a graph
type Saved struct {
	Options SavedOptions `json:"options"`
	Nodes   []SavedNode  `json:"nodes"`
	Edges   []SavedEdge  `json:"edges"`
}

type SavedOptions struct {
	Directed   bool `json:"directed"`
	Multigraph bool `json:"multigraph"`
	Compound   bool `json:"compound"`
}

type SavedNode struct {
	V     string      `json:"v"`
	Value *Annotation `json:"value,omitempty"`
}

type SavedEdge struct {
	V     string    `json:"v"`
	W     string    `json:"w"`
	Value EdgeValue `json:"value"`
}

type EdgeValue struct {
	SAN string `json:"san"`
}

// AsSaved serializes the graph. Edges are listed per source position in
// insertion order so the mainline survives a round trip.
func (g *Graph) AsSaved() Saved {
	s := Saved{
		Options: SavedOptions{Directed: true},
		Nodes:   make([]SavedNode, 0, len(g.order)),
		Edges:   []SavedEdge{},
	}
	for _, fen := range g.order {
		n := g.nodes[fen]
		sn := SavedNode{V: fen}
		if n.annotation != nil {
			a := n.annotation.clone()
			sn.Value = &a
		}
		s.Nodes = append(s.Nodes, sn)
	}
	for _, fen := range g.order {
		for _, e := range g.nodes[fen].out {
			s.Edges = append(s.Edges, SavedEdge{V: fen, W: e.FEN, Value: EdgeValue{SAN: e.SAN}})
		}
	}
	return s
}

// FromSaved rebuilds a graph rooted at root. Edges are trusted as stored;
// an edge naming an unknown position is an error.
func FromSaved(root string, s Saved) (*Graph, error) {
	rootFEN, err := board.Normalize(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root position: %w", err)
	}

	g := &Graph{root: rootFEN, nodes: make(map[string]*node)}
	for _, sn := range s.Nodes {
		if _, dup := g.nodes[sn.V]; dup {
			continue
		}
		n := g.addNode(sn.V)
		if sn.Value != nil {
			a := sn.Value.clone()
			n.annotation = &a
		}
	}
	if _, ok := g.nodes[rootFEN]; !ok {
		g.addNode(rootFEN)
	}

	for _, se := range s.Edges {
		src, ok := g.nodes[se.V]
		if !ok {
			return nil, fmt.Errorf("edge %q from unknown position %q", se.Value.SAN, se.V)
		}
		dst, ok := g.nodes[se.W]
		if !ok {
			return nil, fmt.Errorf("edge %q to unknown position %q", se.Value.SAN, se.W)
		}
		if g.edgeIndex(se.V, se.Value.SAN) >= 0 {
			continue
		}
		src.out = append(src.out, board.Move{SAN: se.Value.SAN, FEN: se.W})
		dst.in = append(dst.in, se.V)
	}
	return g, nil
}
