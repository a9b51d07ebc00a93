// FILE: internal/repertoire/saved.go
package repertoire

import (
	"encoding/json"
	"fmt"

	"repertoire/internal/board"
	"repertoire/internal/graph"
	"repertoire/internal/srs"
	"repertoire/internal/tags"
)

// Saved is the JSON form of a repertoire
type Saved struct {
	Name    string                          `json:"name"`
	Side    string                          `json:"side"`
	Root    string                          `json:"root,omitempty"`
	Graph   graph.Saved                     `json:"graph"`
	Records map[string]map[string]srs.Saved `json:"records"`
	Tags    tags.Tree                       `json:"tags"`
}

// AsSaved captures the repertoire without sharing memory with it
func (r *Repertoire) AsSaved() (Saved, error) {
	s := Saved{
		Name:    r.name,
		Side:    r.side.String(),
		Root:    r.graph.Root(),
		Graph:   r.graph.AsSaved(),
		Records: r.records.AsSaved(),
	}
	// Round trip the tag tree so the snapshot owns its tags
	data, err := json.Marshal(r.tags)
	if err != nil {
		return Saved{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	if err := json.Unmarshal(data, &s.Tags); err != nil {
		return Saved{}, fmt.Errorf("failed to copy tags: %w", err)
	}
	return s, nil
}

// FromSaved restores a repertoire. Every move gets a record and records of
// moves absent from the graph are dropped.
func FromSaved(s Saved, opts ...Option) (*Repertoire, error) {
	side, err := board.ParseColor(s.Side)
	if err != nil {
		return nil, err
	}
	root := s.Root
	if root == "" {
		root = board.StartFEN
	}
	g, err := graph.FromSaved(root, s.Graph)
	if err != nil {
		return nil, fmt.Errorf("repertoire %s: %w", s.Name, err)
	}

	saved := srs.CollectionFromSaved(s.Records)
	records := srs.Collection{}
	for _, fen := range g.Positions() {
		for _, m := range g.MovesFromPosition(fen) {
			rec, ok := saved.Get(fen, m.SAN)
			if !ok {
				rec = srs.NewRecord()
			}
			records.Ensure(fen, m.SAN)
			records[fen][m.SAN] = rec
		}
	}

	t := s.Tags
	return assemble(s.Name, side, g, records, &t, opts), nil
}

// Encode serializes the repertoire to JSON
func (r *Repertoire) Encode() ([]byte, error) {
	s, err := r.AsSaved()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Decode restores a repertoire from Encode output
func Decode(data []byte, opts ...Option) (*Repertoire, error) {
	var s Saved
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode repertoire: %w", err)
	}
	return FromSaved(s, opts...)
}
