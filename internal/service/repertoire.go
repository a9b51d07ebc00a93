// FILE: internal/service/repertoire.go
package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"repertoire/internal/board"
	"repertoire/internal/graph"
	"repertoire/internal/repertoire"
	"repertoire/internal/srs"
	"repertoire/internal/tags"
	"repertoire/internal/training"
)

// MoveView is a repertoire move with a copy of its training record
type MoveView struct {
	board.Move
	Record *srs.Record
}

// PositionView is everything a client needs to render one position
type PositionView struct {
	Side       string
	FEN        string
	Known      bool
	Moves      []MoveView
	Parents    []string
	Annotation *graph.Annotation
	Revision   uint64
}

// Overview summarizes one repertoire
type Overview struct {
	Stats    repertoire.Stats
	Root     string
	Revision uint64
	Summary  training.Summary
}

// TagEntry is a flattened tag with its "/"-joined path
type TagEntry struct {
	Path string
	Name string
	FEN  string
}

func normalize(fen string) (string, error) {
	if strings.TrimSpace(fen) == "" {
		return board.StartFEN, nil
	}
	n, err := board.Normalize(fen)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidFEN, fen)
	}
	return n, nil
}

// Repertoires lists both repertoires with training counts
func (s *Service) Repertoires() []Overview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opts := s.trainingOptions()
	var out []Overview
	for _, rep := range s.set.All() {
		out = append(out, Overview{
			Stats:    rep.Stats(),
			Root:     rep.Root(),
			Revision: s.revision[rep.Side()],
			Summary:  training.Summarize(rep, opts),
		})
	}
	return out
}

// Overview summarizes one repertoire
func (s *Service) Overview(side string) (Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, c, err := s.repertoireFor(side)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Stats:    rep.Stats(),
		Root:     rep.Root(),
		Revision: s.revision[c],
		Summary:  training.Summarize(rep, s.trainingOptions()),
	}, nil
}

// Position describes fen in a repertoire. Unknown positions are reported
// with Known false and empty lists.
func (s *Service) Position(side, fen string) (PositionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, c, err := s.repertoireFor(side)
	if err != nil {
		return PositionView{}, err
	}
	norm, err := normalize(fen)
	if err != nil {
		return PositionView{}, err
	}

	view := PositionView{
		Side:     c.String(),
		FEN:      norm,
		Known:    rep.Graph().Has(norm),
		Moves:    []MoveView{},
		Parents:  rep.ParentPositions(norm),
		Revision: s.revision[c],
	}
	for _, m := range rep.MovesFromPosition(norm) {
		mv := MoveView{Move: m}
		if rec, ok := rep.Record(norm, m.SAN); ok {
			mv.Record = rec.Clone()
		}
		view.Moves = append(view.Moves, mv)
	}
	if a, ok := rep.Annotations(norm); ok {
		view.Annotation = &a
	}
	return view, nil
}

// AddMove adds a legal move from a known position. Adding an existing move
// reports added false and leaves the revision unchanged.
func (s *Service) AddMove(side, fen, san string) (board.Move, bool, uint64, error) {
	if err := s.lockWrite(); err != nil {
		return board.Move{}, false, 0, err
	}
	defer s.mu.Unlock()

	rep, c, err := s.repertoireFor(side)
	if err != nil {
		return board.Move{}, false, 0, err
	}
	norm, err := normalize(fen)
	if err != nil {
		return board.Move{}, false, 0, err
	}
	if !rep.Graph().Has(norm) {
		return board.Move{}, false, 0, fmt.Errorf("%w: %s", repertoire.ErrUnknownPosition, norm)
	}

	m, ok := board.ApplyMove(norm, san)
	if !ok {
		return board.Move{}, false, 0, fmt.Errorf("%w: %s from %s", ErrIllegalMove, san, norm)
	}
	before := rep.Graph().EdgeCount()
	rep.AddMove(norm, m.SAN)
	if rep.Graph().EdgeCount() == before {
		return m, false, s.revision[c], nil
	}

	s.metrics.MoveAdded()
	rev := s.commit(c, rep)
	s.log.Debug("move added", zap.String("repertoire", rep.Name()), zap.String("fen", norm), zap.String("san", m.SAN))
	return m, true, rev, nil
}

// DeleteMove removes a move and every position it orphaned
func (s *Service) DeleteMove(side, fen, san string) (string, []string, uint64, error) {
	if err := s.lockWrite(); err != nil {
		return "", nil, 0, err
	}
	defer s.mu.Unlock()

	rep, c, err := s.repertoireFor(side)
	if err != nil {
		return "", nil, 0, err
	}
	norm, err := normalize(fen)
	if err != nil {
		return "", nil, 0, err
	}
	canonical, ok := hasMove(rep, norm, san)
	if !ok {
		return "", nil, 0, fmt.Errorf("%w: %s from %s", repertoire.ErrUnknownMove, san, norm)
	}

	removed := rep.DeleteMove(norm, canonical)
	s.metrics.MoveDeleted(len(removed))
	rev := s.commit(c, rep)
	s.log.Debug("move deleted",
		zap.String("repertoire", rep.Name()),
		zap.String("fen", norm),
		zap.String("san", canonical),
		zap.Int("removed", len(removed)))
	return canonical, removed, rev, nil
}

func hasMove(rep *repertoire.Repertoire, fen, san string) (string, bool) {
	canonical, ok := board.CanonicalSAN(fen, san)
	if !ok {
		canonical = san
	}
	for _, m := range rep.MovesFromPosition(fen) {
		if m.SAN == canonical {
			return m.SAN, true
		}
	}
	return "", false
}

// Variations lists every maximal line from fen
func (s *Service) Variations(side, fen string) (string, []graph.Variation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, _, err := s.repertoireFor(side)
	if err != nil {
		return "", nil, err
	}
	norm, err := normalize(fen)
	if err != nil {
		return "", nil, err
	}
	return norm, rep.Variations(norm), nil
}

// Descendants lists the positions reachable from fen
func (s *Service) Descendants(side, fen string) (string, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, _, err := s.repertoireFor(side)
	if err != nil {
		return "", nil, err
	}
	norm, err := normalize(fen)
	if err != nil {
		return "", nil, err
	}
	return norm, rep.DescendantPositions(norm), nil
}

// SetAnnotations replaces or appends the annotation of a known position
func (s *Service) SetAnnotations(side, fen string, a graph.Annotation, appendMode bool) (uint64, error) {
	if err := s.lockWrite(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	rep, c, err := s.repertoireFor(side)
	if err != nil {
		return 0, err
	}
	norm, err := normalize(fen)
	if err != nil {
		return 0, err
	}
	if err := rep.SetAnnotations(norm, a, appendMode); err != nil {
		return 0, err
	}
	return s.commit(c, rep), nil
}

// PGN exports the subtree at fen
func (s *Service) PGN(side, fen string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, _, err := s.repertoireFor(side)
	if err != nil {
		return "", err
	}
	norm, err := normalize(fen)
	if err != nil {
		return "", err
	}
	return rep.AsPGN(norm), nil
}

// ImportPGN merges every game of text whose start position is known.
// A parse error leaves the repertoire untouched.
func (s *Service) ImportPGN(side, text string) (graph.ImportStats, uint64, error) {
	if err := s.lockWrite(); err != nil {
		return graph.ImportStats{}, 0, err
	}
	defer s.mu.Unlock()

	rep, c, err := s.repertoireFor(side)
	if err != nil {
		return graph.ImportStats{}, 0, err
	}
	before := rep.Graph().EdgeCount()
	stats, err := rep.LoadPGN(text)
	if err != nil {
		return graph.ImportStats{}, 0, err
	}
	s.metrics.MovesAdded(rep.Graph().EdgeCount() - before)

	rev := s.revision[c]
	if stats.Moves > 0 || stats.Games > 0 {
		rev = s.commit(c, rep)
	}
	s.log.Info("pgn imported",
		zap.String("repertoire", rep.Name()),
		zap.Int("games", stats.Games),
		zap.Int("skipped", stats.Skipped),
		zap.Int("moves", stats.Moves))
	return stats, rev, nil
}

// Record returns a copy of the training record of a move
func (s *Service) Record(side, fen, san string) (string, string, *srs.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, _, err := s.repertoireFor(side)
	if err != nil {
		return "", "", nil, err
	}
	norm, err := normalize(fen)
	if err != nil {
		return "", "", nil, err
	}
	canonical, ok := hasMove(rep, norm, san)
	if !ok {
		return "", "", nil, fmt.Errorf("%w: %s from %s", repertoire.ErrUnknownMove, san, norm)
	}
	rec, ok := rep.Record(norm, canonical)
	if !ok {
		return "", "", nil, fmt.Errorf("%w: %s from %s", repertoire.ErrUnknownMove, san, norm)
	}
	return norm, canonical, rec.Clone(), nil
}

// Tags flattens the tag tree in depth-first order
func (s *Service) Tags(side string) ([]TagEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, _, err := s.repertoireFor(side)
	if err != nil {
		return nil, err
	}
	entries := []TagEntry{}
	rep.Tags().Walk(func(path []string, t *tags.Tag) {
		entries = append(entries, TagEntry{
			Path: strings.Join(path, tags.PathSeparator),
			Name: t.Name,
			FEN:  t.FEN,
		})
	})
	return entries, nil
}

// AddTag bookmarks a known position under the tag at parent
func (s *Service) AddTag(side, parent, name, fen string) (TagEntry, uint64, error) {
	if err := s.lockWrite(); err != nil {
		return TagEntry{}, 0, err
	}
	defer s.mu.Unlock()

	rep, c, err := s.repertoireFor(side)
	if err != nil {
		return TagEntry{}, 0, err
	}
	norm, err := normalize(fen)
	if err != nil {
		return TagEntry{}, 0, err
	}
	path := tags.ParsePath(parent)
	t, err := rep.AddTag(path, name, norm)
	if err != nil {
		return TagEntry{}, 0, err
	}
	entry := TagEntry{
		Path: strings.Join(append(append([]string{}, path...), t.Name), tags.PathSeparator),
		Name: t.Name,
		FEN:  t.FEN,
	}
	return entry, s.commit(c, rep), nil
}

// RemoveTag deletes the tag at path together with its children
func (s *Service) RemoveTag(side, path string) (uint64, error) {
	if err := s.lockWrite(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	rep, c, err := s.repertoireFor(side)
	if err != nil {
		return 0, err
	}
	if err := rep.Tags().Remove(tags.ParsePath(path)); err != nil {
		return 0, err
	}
	return s.commit(c, rep), nil
}

// Restore replaces a repertoire with a serialized one
func (s *Service) Restore(side string, data []byte) (repertoire.Stats, uint64, error) {
	if err := s.lockWrite(); err != nil {
		return repertoire.Stats{}, 0, err
	}
	defer s.mu.Unlock()

	_, c, err := s.repertoireFor(side)
	if err != nil {
		return repertoire.Stats{}, 0, err
	}
	rep, err := repertoire.Decode(data, s.repertoireOptions()...)
	if err != nil {
		return repertoire.Stats{}, 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if rep.Side() != c {
		return repertoire.Stats{}, 0, fmt.Errorf("%w: data is for side %s", ErrInvalidRequest, rep.Side())
	}
	s.install(c, rep)
	return rep.Stats(), s.commit(c, rep), nil
}

// Export serializes a repertoire
func (s *Service) Export(side string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, _, err := s.repertoireFor(side)
	if err != nil {
		return nil, err
	}
	return rep.Encode()
}
