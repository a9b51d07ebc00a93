// FILE: internal/repertoire/repertoire_test.go
package repertoire

import (
	"errors"
	"testing"
	"time"

	"repertoire/internal/board"
	"repertoire/internal/graph"
	"repertoire/internal/srs"
	"repertoire/internal/tags"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newWhite(t *testing.T) *Repertoire {
	t.Helper()
	r, err := New("white", board.White, "", WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	return r
}

func line(t *testing.T, r *Repertoire, sans ...string) []board.Move {
	t.Helper()
	fen := r.Root()
	var moves []board.Move
	for _, san := range sans {
		mv, ok := r.AddMove(fen, san)
		require.True(t, ok, san)
		moves = append(moves, mv)
		fen = mv.FEN
	}
	return moves
}

func TestRecordsFollowGraph(t *testing.T) {
	r := newWhite(t)
	moves := line(t, r, "e4", "e5", "Nf3")

	for i, m := range moves {
		from := r.Root()
		if i > 0 {
			from = moves[i-1].FEN
		}
		rec, ok := r.Record(from, m.SAN)
		require.True(t, ok, m.SAN)
		assert.True(t, rec.IsNew())
	}
	assert.Equal(t, 3, r.records.Len())

	_, ok := r.AddMove(r.Root(), "e5")
	assert.False(t, ok)
	assert.Equal(t, 3, r.records.Len())

	removed := r.DeleteMove(r.Root(), "e4")
	assert.Len(t, removed, 3)
	assert.Equal(t, 0, r.records.Len())
}

func TestDeleteKeepsSharedRecords(t *testing.T) {
	r := newWhite(t)
	a := line(t, r, "e4", "e5", "Nf3", "Nc6")
	line(t, r, "Nf3", "e5", "e4")

	r.DeleteMove(r.Root(), "e4")
	_, ok := r.Record(a[2].FEN, "Nc6")
	assert.True(t, ok, "record of a move below a transposition survives")
	_, ok = r.Record(a[0].FEN, "e5")
	assert.False(t, ok)
}

func TestTrain(t *testing.T) {
	r := newWhite(t)
	line(t, r, "Nf3")

	rec, err := r.Train(r.Root(), "g1f3", srs.Perfect, srs.Attempt{Moves: []string{"Nf3"}, Elapsed: time.Second})
	require.NoError(t, err)
	require.Len(t, rec.History, 1)
	assert.Equal(t, fixed.UnixMilli(), rec.History[0].Timestamp)

	stored, ok := r.Record(r.Root(), "Nf3")
	require.True(t, ok)
	assert.Len(t, stored.History, 1)

	_, err = r.Train(r.Root(), "e4", srs.Perfect, srs.Attempt{})
	assert.True(t, errors.Is(err, ErrUnknownMove))

	_, err = r.Train(r.Root(), "Nf3", srs.Grade(8), srs.Attempt{})
	assert.True(t, errors.Is(err, srs.ErrInvalidGrade))
}

func TestTagsPrunedWithPositions(t *testing.T) {
	r := newWhite(t)
	moves := line(t, r, "e4", "c5")

	_, err := r.AddTag(nil, "Sicilian", moves[1].FEN)
	require.NoError(t, err)
	_, err = r.AddTag(nil, "Ghost", "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq -")
	assert.True(t, errors.Is(err, ErrUnknownPosition))

	r.DeleteMove(moves[0].FEN, "c5")
	_, err = r.Tags().Find([]string{"Sicilian"})
	assert.True(t, errors.Is(err, tags.ErrNotFound))
}

func TestSetAnnotations(t *testing.T) {
	r := newWhite(t)
	moves := line(t, r, "d4")
	require.NoError(t, r.SetAnnotations(moves[0].FEN, graph.Annotation{Comments: "Queen's pawn"}, false))
	a, ok := r.Annotations(moves[0].FEN)
	require.True(t, ok)
	assert.Equal(t, "Queen's pawn", a.Comments)

	err := r.SetAnnotations("rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R b KQkq -", graph.Annotation{}, false)
	assert.True(t, errors.Is(err, ErrUnknownPosition))
}

func TestLoadPGNCreatesRecords(t *testing.T) {
	r := newWhite(t)
	stats, err := r.LoadPGN("1. e4 e5 (1... c5) 2. Nf3 *")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Moves)
	assert.Equal(t, 4, r.records.Len())
}

func TestSavedRoundTrip(t *testing.T) {
	r := newWhite(t)
	moves := line(t, r, "e4", "e5", "Nf3")
	line(t, r, "d4")
	_, err := r.Train(r.Root(), "e4", srs.CorrectHesitant, srs.Attempt{Moves: []string{"e4"}})
	require.NoError(t, err)
	require.NoError(t, r.SetAnnotations(moves[0].FEN, graph.Annotation{Comments: "main"}, false))
	_, err = r.AddTag(nil, "Open", moves[1].FEN)
	require.NoError(t, err)

	data, err := r.Encode()
	require.NoError(t, err)
	restored, err := Decode(data)
	require.NoError(t, err)

	want, err := r.AsSaved()
	require.NoError(t, err)
	got, err := restored.AsSaved()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, r.Stats(), restored.Stats())

	// restored repertoires keep maintaining records
	restored.DeleteMove(restored.Root(), "e4")
	assert.Equal(t, 1, restored.records.Len())
	assert.Equal(t, 0, restored.Tags().Len())
}

func TestFromSavedRepairsRecords(t *testing.T) {
	r := newWhite(t)
	line(t, r, "e4")
	s, err := r.AsSaved()
	require.NoError(t, err)

	s.Records = map[string]map[string]srs.Saved{
		"stale position": {"Kh1": srs.NewRecord().AsSaved()},
	}
	restored, err := FromSaved(s)
	require.NoError(t, err)
	_, ok := restored.Record(restored.Root(), "e4")
	assert.True(t, ok)
	assert.Equal(t, 1, restored.records.Len())

	s.Side = "purple"
	_, err = FromSaved(s)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	r := newWhite(t)
	line(t, r, "e4", "e5")
	_, err := r.Train(r.Root(), "e4", srs.Perfect, srs.Attempt{})
	require.NoError(t, err)
	_, err = r.Train(r.Root(), "e4", srs.Perfect, srs.Attempt{})
	require.NoError(t, err)

	assert.Equal(t, Stats{Name: "white", Side: "white", Positions: 3, Moves: 2, Trained: 1, Events: 2}, r.Stats())
}

func TestSet(t *testing.T) {
	s, err := NewSet()
	require.NoError(t, err)
	w, err := s.Get(board.White)
	require.NoError(t, err)
	assert.Equal(t, board.White, w.Side())
	b, err := s.Get(board.Black)
	require.NoError(t, err)
	assert.Equal(t, "black", b.Name())
	_, err = s.Get(board.Color('x'))
	assert.Error(t, err)
	assert.Len(t, s.All(), 2)
}
