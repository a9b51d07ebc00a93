// FILE: internal/repertoire/repertoire.go

// Package repertoire binds a position graph to its training records and
// tags, keeping the three consistent on every mutation.
package repertoire

import (
	"errors"
	"fmt"
	"time"

	"repertoire/internal/board"
	"repertoire/internal/graph"
	"repertoire/internal/srs"
	"repertoire/internal/tags"
)

var (
	ErrUnknownMove     = errors.New("repertoire: move not in repertoire")
	ErrUnknownPosition = errors.New("repertoire: position not in repertoire")
)

// Repertoire is one side's opening tree. Not safe for concurrent use.
type Repertoire struct {
	name    string
	side    board.Color
	graph   *graph.Graph
	records srs.Collection
	tags    *tags.Tree
	now     func() time.Time
}

// Option configures a repertoire
type Option func(*Repertoire)

// WithClock injects the clock used to timestamp training events
func WithClock(now func() time.Time) Option {
	return func(r *Repertoire) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates an empty repertoire rooted at root (board.StartFEN when empty)
func New(name string, side board.Color, root string, opts ...Option) (*Repertoire, error) {
	if root == "" {
		root = board.StartFEN
	}
	g, err := graph.New(root)
	if err != nil {
		return nil, err
	}
	return assemble(name, side, g, srs.Collection{}, &tags.Tree{}, opts), nil
}

func assemble(name string, side board.Color, g *graph.Graph, records srs.Collection, t *tags.Tree, opts []Option) *Repertoire {
	r := &Repertoire{
		name:    name,
		side:    side,
		graph:   g,
		records: records,
		tags:    t,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	g.Subscribe(keeper{r})
	return r
}

// keeper maintains records and tags as the graph changes
type keeper struct {
	r *Repertoire
}

func (k keeper) MoveAdded(from, san, _ string) {
	k.r.records.Ensure(from, san)
}

func (k keeper) MoveDeleted(from, san string, removed []string) {
	k.r.records.Delete(from, san)
	for _, fen := range removed {
		k.r.records.DeletePosition(fen)
	}
	k.r.tags.PruneFENs(removed)
}

func (r *Repertoire) Name() string        { return r.name }
func (r *Repertoire) Side() board.Color   { return r.side }
func (r *Repertoire) Root() string        { return r.graph.Root() }
func (r *Repertoire) Graph() *graph.Graph { return r.graph }
func (r *Repertoire) Tags() *tags.Tree    { return r.tags }

// Subscribe forwards graph events to l after the repertoire's own upkeep
func (r *Repertoire) Subscribe(l graph.Listener) {
	r.graph.Subscribe(l)
}

// AddMove inserts a move, creating an untrained record for it
func (r *Repertoire) AddMove(fen, san string) (board.Move, bool) {
	return r.graph.Add(fen, san)
}

// DeleteMove removes a move and the positions orphaned by it, with their
// records and tags
func (r *Repertoire) DeleteMove(fen, san string) []string {
	return r.graph.DeleteMove(fen, san)
}

func (r *Repertoire) MovesFromPosition(fen string) []board.Move {
	return r.graph.MovesFromPosition(fen)
}

func (r *Repertoire) ParentPositions(fen string) []string {
	return r.graph.ParentPositions(fen)
}

func (r *Repertoire) DescendantPositions(fen string) []string {
	return r.graph.DescendantPositions(fen)
}

func (r *Repertoire) Variations(fen string) []graph.Variation {
	return r.graph.Variations(fen)
}

func (r *Repertoire) AsPGN(fen string) string {
	return r.graph.AsPGN(fen)
}

// LoadPGN imports games; records are created for every new move
func (r *Repertoire) LoadPGN(text string) (graph.ImportStats, error) {
	return r.graph.LoadPGN(text)
}

func (r *Repertoire) Annotations(fen string) (graph.Annotation, bool) {
	return r.graph.PositionAnnotations(fen)
}

// SetAnnotations writes the annotation of a position in the repertoire
func (r *Repertoire) SetAnnotations(fen string, a graph.Annotation, appendMode bool) error {
	if !r.graph.SetPositionAnnotations(fen, a, appendMode) {
		return fmt.Errorf("%w: %s", ErrUnknownPosition, fen)
	}
	return nil
}

// Record returns the training record of a move
func (r *Repertoire) Record(fen, san string) (*srs.Record, bool) {
	mv, ok := r.findMove(fen, san)
	if !ok {
		return nil, false
	}
	return r.records.Get(mv.from, mv.san)
}

// Train records one graded repetition of a move and returns the updated
// record
func (r *Repertoire) Train(fen, san string, grade srs.Grade, attempt srs.Attempt) (*srs.Record, error) {
	mv, ok := r.findMove(fen, san)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", ErrUnknownMove, san, fen)
	}
	rec := r.records.Ensure(mv.from, mv.san)
	if err := rec.AddTrainingEvent(grade, attempt, r.now().UnixMilli()); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// AddTag bookmarks a position of the repertoire
func (r *Repertoire) AddTag(parent []string, name, fen string) (*tags.Tag, error) {
	if !r.graph.Has(fen) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPosition, fen)
	}
	norm := fen
	if n, err := board.Normalize(fen); err == nil {
		norm = n
	}
	return r.tags.Add(parent, name, norm)
}

type edgeRef struct {
	from string
	san  string
}

// findMove resolves (fen, san) to the stored position and canonical SAN
func (r *Repertoire) findMove(fen, san string) (edgeRef, bool) {
	from := fen
	if !r.graph.Has(from) {
		return edgeRef{}, false
	}
	if n, err := board.Normalize(fen); err == nil {
		from = n
	}
	canonical := san
	if c, ok := board.CanonicalSAN(from, san); ok {
		canonical = c
	}
	for _, m := range r.graph.MovesFromPosition(from) {
		if m.SAN == canonical || m.SAN == san {
			return edgeRef{from: from, san: m.SAN}, true
		}
	}
	return edgeRef{}, false
}

// Stats summarizes the size of a repertoire
type Stats struct {
	Name      string `json:"name"`
	Side      string `json:"side"`
	Positions int    `json:"positions"`
	Moves     int    `json:"moves"`
	Trained   int    `json:"trained"`
	Events    int    `json:"events"`
	Tags      int    `json:"tags"`
}

func (r *Repertoire) Stats() Stats {
	s := Stats{
		Name:      r.name,
		Side:      r.side.String(),
		Positions: r.graph.Len(),
		Moves:     r.graph.EdgeCount(),
		Tags:      r.tags.Len(),
	}
	for _, moves := range r.records {
		for _, rec := range moves {
			if !rec.IsNew() {
				s.Trained++
			}
			s.Events += len(rec.History)
		}
	}
	return s
}
