// FILE: internal/graph/annotation.go
package graph

import "strings"

// Drawing is an arrow (Orig to Dest) or a circled square (Dest empty)
type Drawing struct {
	Brush string `json:"brush"`
	Orig  string `json:"orig"`
	Dest  string `json:"dest,omitempty"`
}

// Annotation is the free-text and drawing metadata of a position
type Annotation struct {
	Comments string    `json:"comments"`
	Drawings []Drawing `json:"drawings"`
}

// IsEmpty reports whether the annotation carries no data
func (a Annotation) IsEmpty() bool {
	return a.Comments == "" && len(a.Drawings) == 0
}

func (a Annotation) clone() Annotation {
	return Annotation{
		Comments: a.Comments,
		Drawings: append([]Drawing{}, a.Drawings...),
	}
}

// PositionAnnotations returns the annotation of fen; ok is false when the
// position is unknown or has none
func (g *Graph) PositionAnnotations(fen string) (Annotation, bool) {
	key, ok := g.lookup(fen)
	if !ok || g.nodes[key].annotation == nil {
		return Annotation{Drawings: []Drawing{}}, false
	}
	return g.nodes[key].annotation.clone(), true
}

// SetPositionAnnotations replaces the annotation of fen, or merges into it
// when appendMode is set: comments are joined by newline and drawings
// concatenated. Returns false for an unknown position.
func (g *Graph) SetPositionAnnotations(fen string, a Annotation, appendMode bool) bool {
	key, ok := g.lookup(fen)
	if !ok {
		return false
	}
	n := g.nodes[key]

	if !appendMode || n.annotation == nil {
		next := a.clone()
		n.annotation = &next
		return true
	}

	merged := n.annotation.clone()
	if a.Comments != "" {
		if merged.Comments != "" {
			merged.Comments = strings.Join([]string{merged.Comments, a.Comments}, "\n")
		} else {
			merged.Comments = a.Comments
		}
	}
	merged.Drawings = append(merged.Drawings, a.Drawings...)
	n.annotation = &merged
	return true
}
