// FILE: internal/graph/graph.go
package graph

import (
	"fmt"

	"repertoire/internal/board"
)

// Graph is a directed graph of normalized positions connected by moves.
// The first edge added from a position is its mainline. Not safe for
// concurrent use; callers serialize access.
type Graph struct {
	root      string
	nodes     map[string]*node
	order     []string // insertion order of positions
	listeners []Listener
}

type node struct {
	out        []board.Move // edges in insertion order
	in         []string     // source position of every incoming edge
	annotation *Annotation
}

// New creates a graph holding only the root position
func New(root string) (*Graph, error) {
	fen, err := board.Normalize(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root position: %w", err)
	}
	g := &Graph{
		root:  fen,
		nodes: make(map[string]*node),
	}
	g.addNode(fen)
	return g, nil
}

// Root returns the distinguished root position
func (g *Graph) Root() string {
	return g.root
}

// Has reports whether fen is a position in the graph
func (g *Graph) Has(fen string) bool {
	_, ok := g.lookup(fen)
	return ok
}

// Positions returns every position in insertion order
func (g *Graph) Positions() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of positions
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of moves in the graph
func (g *Graph) EdgeCount() int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.out)
	}
	return total
}

// AddMove plays san from fen and records the edge, returning the resulting
// position or "" when the move is illegal or fen is not in the graph
func (g *Graph) AddMove(fen, san string) string {
	mv, ok := g.Add(fen, san)
	if !ok {
		return ""
	}
	return mv.FEN
}

// Add is AddMove returning the canonical SAN alongside the resulting position
func (g *Graph) Add(fen, san string) (board.Move, bool) {
	from, ok := g.lookup(fen)
	if !ok {
		return board.Move{}, false
	}
	mv, ok := board.ApplyMove(from, san)
	if !ok {
		return board.Move{}, false
	}
	if g.edgeIndex(from, mv.SAN) >= 0 {
		return mv, true
	}

	src := g.nodes[from]
	dst, exists := g.nodes[mv.FEN]
	if !exists {
		dst = g.addNode(mv.FEN)
	}
	src.out = append(src.out, mv)
	dst.in = append(dst.in, from)

	for _, l := range g.listeners {
		l.MoveAdded(from, mv.SAN, mv.FEN)
	}
	return mv, true
}

// DeleteMove removes the edge and every position left unreachable from the
// root, returning the removed positions in removal order
func (g *Graph) DeleteMove(fen, san string) []string {
	from, ok := g.lookup(fen)
	if !ok {
		return nil
	}
	idx := g.edgeIndex(from, san)
	if idx < 0 {
		canonical, legal := board.CanonicalSAN(from, san)
		if !legal {
			return nil
		}
		if idx = g.edgeIndex(from, canonical); idx < 0 {
			return nil
		}
	}

	src := g.nodes[from]
	edge := src.out[idx]
	src.out = append(src.out[:idx], src.out[idx+1:]...)
	g.nodes[edge.FEN].in = removeOne(g.nodes[edge.FEN].in, from)

	removed := g.cascade()

	for _, l := range g.listeners {
		l.MoveDeleted(from, edge.SAN, removed)
	}
	return removed
}

// cascade removes positions without incoming edges until none remain, then
// drops any cycles that are no longer reachable from the root
func (g *Graph) cascade() []string {
	var removed []string
	for {
		changed := false
		for _, fen := range append([]string(nil), g.order...) {
			if fen == g.root {
				continue
			}
			if n, ok := g.nodes[fen]; ok && len(n.in) == 0 {
				g.removeNode(fen)
				removed = append(removed, fen)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	reachable := g.reachable(g.root)
	for _, fen := range append([]string(nil), g.order...) {
		if !reachable[fen] {
			g.removeNode(fen)
			removed = append(removed, fen)
		}
	}
	return removed
}

// MovesFromPosition returns the outgoing moves of fen
func (g *Graph) MovesFromPosition(fen string) []board.Move {
	key, ok := g.lookup(fen)
	if !ok {
		return []board.Move{}
	}
	return append([]board.Move{}, g.nodes[key].out...)
}

// ParentPositions returns the distinct sources of edges into fen
func (g *Graph) ParentPositions(fen string) []string {
	key, ok := g.lookup(fen)
	if !ok {
		return []string{}
	}
	parents := []string{}
	seen := make(map[string]bool)
	for _, p := range g.nodes[key].in {
		if !seen[p] {
			seen[p] = true
			parents = append(parents, p)
		}
	}
	return parents
}

// DescendantPositions returns every position reachable from fen, excluding
// fen itself, in preorder
func (g *Graph) DescendantPositions(fen string) []string {
	key, ok := g.lookup(fen)
	if !ok {
		return []string{}
	}

	result := []string{}
	visited := map[string]bool{key: true}
	stack := []string{key}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur != key {
			result = append(result, cur)
		}
		out := g.nodes[cur].out
		// Push in reverse so the first edge is visited first
		for i := len(out) - 1; i >= 0; i-- {
			next := out[i].FEN
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return result
}

func (g *Graph) reachable(from string) map[string]bool {
	seen := map[string]bool{}
	if _, ok := g.nodes[from]; !ok {
		return seen
	}
	seen[from] = true
	for _, fen := range g.DescendantPositions(from) {
		seen[fen] = true
	}
	return seen
}

// lookup resolves fen to its stored key, normalizing when the raw string
// is not already present
func (g *Graph) lookup(fen string) (string, bool) {
	if _, ok := g.nodes[fen]; ok {
		return fen, true
	}
	norm, err := board.Normalize(fen)
	if err != nil {
		return "", false
	}
	_, ok := g.nodes[norm]
	return norm, ok
}

func (g *Graph) addNode(fen string) *node {
	n := &node{}
	g.nodes[fen] = n
	g.order = append(g.order, fen)
	return n
}

func (g *Graph) removeNode(fen string) {
	n, ok := g.nodes[fen]
	if !ok {
		return
	}
	for _, e := range n.out {
		if child, ok := g.nodes[e.FEN]; ok {
			child.in = removeOne(child.in, fen)
		}
	}
	delete(g.nodes, fen)
	for i, v := range g.order {
		if v == fen {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *Graph) edgeIndex(from, san string) int {
	for i, e := range g.nodes[from].out {
		if e.SAN == san {
			return i
		}
	}
	return -1
}

func removeOne(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
