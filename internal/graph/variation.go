// FILE: internal/graph/variation.go
package graph

// VariationMove is one step of a linear variation
type VariationMove struct {
	SAN          string `json:"san"`
	SourceFEN    string `json:"sourceFen"`
	ResultingFEN string `json:"resultingFen"`
}

// Variation is a maximal linear path through the graph
type Variation []VariationMove

// SANs returns the move sequence of the variation
func (v Variation) SANs() []string {
	sans := make([]string, len(v))
	for i, m := range v {
		sans[i] = m.SAN
	}
	return sans
}

// Variations enumerates every maximal path starting at fen. A position is
// never revisited on the current path, so transposition cycles terminate;
// the same position may still appear in sibling branches.
func (g *Graph) Variations(fen string) []Variation {
	start, ok := g.lookup(fen)
	if !ok {
		return []Variation{}
	}

	result := []Variation{}
	onPath := map[string]bool{start: true}
	var path Variation

	var walk func(cur string)
	walk = func(cur string) {
		extended := false
		for _, e := range g.nodes[cur].out {
			if onPath[e.FEN] {
				continue
			}
			extended = true
			onPath[e.FEN] = true
			path = append(path, VariationMove{SAN: e.SAN, SourceFEN: cur, ResultingFEN: e.FEN})
			walk(e.FEN)
			path = path[:len(path)-1]
			delete(onPath, e.FEN)
		}
		if !extended && len(path) > 0 {
			result = append(result, append(Variation(nil), path...))
		}
	}
	walk(start)
	return result
}
