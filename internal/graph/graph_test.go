// FILE: internal/graph/graph_test.go
package graph

import (
	"encoding/json"
	"testing"

	"repertoire/internal/board"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const afterE4 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -"

func newGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New(board.StartFEN)
	require.NoError(t, err)
	return g
}

// play adds a sequence of moves from fen and returns the final position
func play(t *testing.T, g *Graph, fen string, sans ...string) string {
	t.Helper()
	for _, san := range sans {
		next := g.AddMove(fen, san)
		require.NotEmpty(t, next, "move %s from %s", san, fen)
		fen = next
	}
	return fen
}

func TestAddMoveScenario(t *testing.T) {
	g := newGraph(t)

	assert.Equal(t, afterE4, g.AddMove(board.StartFEN, "e4"))
	assert.Equal(t, []board.Move{{SAN: "e4", FEN: afterE4}}, g.MovesFromPosition(board.StartFEN))
	assert.Equal(t, []string{board.StartFEN}, g.ParentPositions(afterE4))
}

func TestAddMoveIdempotent(t *testing.T) {
	g := newGraph(t)
	play(t, g, board.StartFEN, "e4", "e5")
	before := g.AsSaved()

	play(t, g, board.StartFEN, "e4")
	g.AddMove(afterE4, "e5")
	assert.Equal(t, before, g.AsSaved())
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 2, g.EdgeCount())
}

func TestAddMoveIllegal(t *testing.T) {
	g := newGraph(t)
	assert.Empty(t, g.AddMove(board.StartFEN, "e5"))
	assert.Empty(t, g.AddMove(board.StartFEN, "xyz"))
	assert.Empty(t, g.AddMove(afterE4, "e5"), "position not in graph")
	assert.Equal(t, 1, g.Len())
}

func TestTranspositionMerge(t *testing.T) {
	g := newGraph(t)
	a := play(t, g, board.StartFEN, "e4", "e5", "Nf3")
	b := play(t, g, board.StartFEN, "Nf3", "e5", "e4")

	assert.Equal(t, a, b)
	assert.Len(t, g.ParentPositions(a), 2)
	assert.Equal(t, 6, g.Len())
}

func TestDeleteMoveCascade(t *testing.T) {
	g := newGraph(t)
	e4 := play(t, g, board.StartFEN, "e4")
	e5 := play(t, g, e4, "e5")
	nf3 := play(t, g, e5, "Nf3")
	d4 := play(t, g, board.StartFEN, "d4")

	removed := g.DeleteMove(board.StartFEN, "e4")
	assert.Equal(t, []string{e4, e5, nf3}, removed)
	assert.Equal(t, []string{board.StartFEN, d4}, g.Positions())
}

func TestDeleteMoveKeepsReachable(t *testing.T) {
	g := newGraph(t)
	shared := play(t, g, board.StartFEN, "e4", "e5", "Nf3")
	play(t, g, board.StartFEN, "Nf3", "e5", "e4")
	tail := play(t, g, shared, "Nc6")

	removed := g.DeleteMove(board.StartFEN, "e4")
	assert.Len(t, removed, 2)
	assert.True(t, g.Has(shared))
	assert.True(t, g.Has(tail))
	assert.NotContains(t, removed, shared)
}

func TestDeleteMoveUnreachableCycle(t *testing.T) {
	g := newGraph(t)
	p := play(t, g, board.StartFEN, "e4")
	q := play(t, g, p, "Nf6")
	r := play(t, g, q, "Nf3")
	s := play(t, g, r, "Ng8")
	assert.Equal(t, p, g.AddMove(s, "Ng1"), "knight shuffle returns to the same position")

	removed := g.DeleteMove(board.StartFEN, "e4")
	assert.Equal(t, []string{p, q, r, s}, removed)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestDeleteMoveRootNeverRemoved(t *testing.T) {
	g := newGraph(t)
	a := play(t, g, board.StartFEN, "Nf3", "Nf6", "Ng1")
	play(t, g, a, "Ng8")
	require.Len(t, g.ParentPositions(board.StartFEN), 1)

	removed := g.DeleteMove(a, "Ng8")
	assert.Empty(t, removed)
	assert.True(t, g.Has(board.StartFEN))

	removed = g.DeleteMove(board.StartFEN, "Nf3")
	assert.Len(t, removed, 3)
	assert.Equal(t, []string{board.StartFEN}, g.Positions())
}

func TestDeleteMoveNoop(t *testing.T) {
	g := newGraph(t)
	play(t, g, board.StartFEN, "e4")
	assert.Empty(t, g.DeleteMove(board.StartFEN, "d4"))
	assert.Empty(t, g.DeleteMove(afterE4, "e5"))
	assert.Empty(t, g.DeleteMove("garbage", "e4"))
	assert.Equal(t, 2, g.Len())
}

func TestDeleteMoveAcceptsNonCanonicalSAN(t *testing.T) {
	g := newGraph(t)
	play(t, g, board.StartFEN, "Nf3")
	removed := g.DeleteMove(board.StartFEN, "g1f3")
	assert.Len(t, removed, 1)
}

func TestUnknownPositionQueries(t *testing.T) {
	g := newGraph(t)
	assert.Empty(t, g.MovesFromPosition(afterE4))
	assert.Empty(t, g.ParentPositions(afterE4))
	assert.Empty(t, g.DescendantPositions(afterE4))
	assert.Empty(t, g.Variations(afterE4))
	assert.Empty(t, g.ParentPositions(board.StartFEN))
}

func TestDescendantPositions(t *testing.T) {
	g := newGraph(t)
	e4 := play(t, g, board.StartFEN, "e4")
	e5 := play(t, g, e4, "e5")
	c5 := play(t, g, e4, "c5")
	d4 := play(t, g, board.StartFEN, "d4")

	assert.Equal(t, []string{e4, e5, c5, d4}, g.DescendantPositions(board.StartFEN))
	assert.Equal(t, []string{e5, c5}, g.DescendantPositions(e4))
}

func TestVariations(t *testing.T) {
	g := newGraph(t)
	play(t, g, board.StartFEN, "e4", "e5", "Nf3")
	play(t, g, afterE4, "c5")
	play(t, g, board.StartFEN, "d4")

	vars := g.Variations(board.StartFEN)
	require.Len(t, vars, 3)
	assert.Equal(t, []string{"e4", "e5", "Nf3"}, vars[0].SANs())
	assert.Equal(t, []string{"e4", "c5"}, vars[1].SANs())
	assert.Equal(t, []string{"d4"}, vars[2].SANs())

	first := vars[0][0]
	assert.Equal(t, board.StartFEN, first.SourceFEN)
	assert.Equal(t, afterE4, first.ResultingFEN)
	assert.Equal(t, first.ResultingFEN, vars[0][1].SourceFEN)
}

func TestVariationsCycle(t *testing.T) {
	g := newGraph(t)
	c := play(t, g, board.StartFEN, "Nf3", "Nf6", "Ng1")
	assert.Equal(t, board.StartFEN, g.AddMove(c, "Ng8"))

	vars := g.Variations(board.StartFEN)
	require.Len(t, vars, 1)
	assert.Equal(t, []string{"Nf3", "Nf6", "Ng1"}, vars[0].SANs())

	seen := map[string]bool{board.StartFEN: true}
	for _, m := range vars[0] {
		assert.False(t, seen[m.ResultingFEN], "position repeated on path")
		seen[m.ResultingFEN] = true
	}
}

func TestVariationsSharedNodeInSiblings(t *testing.T) {
	g := newGraph(t)
	shared := play(t, g, board.StartFEN, "e4", "e5", "Nf3")
	play(t, g, board.StartFEN, "Nf3", "e5", "e4")
	play(t, g, shared, "Nc6")

	vars := g.Variations(board.StartFEN)
	require.Len(t, vars, 2)
	for _, v := range vars {
		assert.Equal(t, "Nc6", v[len(v)-1].SAN)
	}
}

func TestAnnotations(t *testing.T) {
	g := newGraph(t)
	play(t, g, board.StartFEN, "e4")

	_, ok := g.PositionAnnotations(afterE4)
	assert.False(t, ok)

	arrow := Drawing{Brush: "green", Orig: "e2", Dest: "e4"}
	require.True(t, g.SetPositionAnnotations(afterE4, Annotation{Comments: "King's pawn", Drawings: []Drawing{arrow}}, false))
	require.True(t, g.SetPositionAnnotations(afterE4, Annotation{Comments: "Main line", Drawings: []Drawing{{Brush: "red", Orig: "e5"}}}, true))

	a, ok := g.PositionAnnotations(afterE4)
	require.True(t, ok)
	assert.Equal(t, "King's pawn\nMain line", a.Comments)
	assert.Len(t, a.Drawings, 2)

	require.True(t, g.SetPositionAnnotations(afterE4, Annotation{Comments: "replaced"}, false))
	a, _ = g.PositionAnnotations(afterE4)
	assert.Equal(t, "replaced", a.Comments)
	assert.Empty(t, a.Drawings)

	assert.False(t, g.SetPositionAnnotations("8/8/8/8/8/8/8/8 w - -", Annotation{Comments: "x"}, false))
}

func TestListeners(t *testing.T) {
	g := newGraph(t)
	var added []string
	var deleted [][]string
	g.Subscribe(Hooks{
		OnAdd: func(from, san, to string) { added = append(added, san) },
		OnDelete: func(from, san string, removed []string) {
			deleted = append(deleted, append([]string{san}, removed...))
		},
	})

	play(t, g, board.StartFEN, "e4", "e5")
	g.AddMove(board.StartFEN, "e4")    // duplicate
	g.AddMove(board.StartFEN, "Ke2")   // illegal
	g.DeleteMove(board.StartFEN, "d4") // absent
	g.DeleteMove(board.StartFEN, "e4")

	assert.Equal(t, []string{"e4", "e5"}, added)
	require.Len(t, deleted, 1)
	assert.Equal(t, "e4", deleted[0][0])
	assert.Len(t, deleted[0], 3)
}

func TestSavedRoundTrip(t *testing.T) {
	g := newGraph(t)
	play(t, g, board.StartFEN, "e4", "e5", "Nf3", "Nc6")
	play(t, g, board.StartFEN, "Nf3", "e5", "e4")
	play(t, g, afterE4, "c5")
	g.SetPositionAnnotations(afterE4, Annotation{Comments: "note", Drawings: []Drawing{{Brush: "blue", Orig: "d4"}}}, false)

	saved := g.AsSaved()
	data, err := json.Marshal(saved)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"options":{"directed":true,"multigraph":false,"compound":false}`)
	assert.Contains(t, string(data), `"value":{"san":"e4"}`)

	var decoded Saved
	require.NoError(t, json.Unmarshal(data, &decoded))
	g2, err := FromSaved(board.StartFEN, decoded)
	require.NoError(t, err)

	assert.Equal(t, saved, g2.AsSaved())
	assert.Equal(t, g.Variations(board.StartFEN), g2.Variations(board.StartFEN))
	assert.Equal(t, g.ParentPositions(afterE4), g2.ParentPositions(afterE4))
}

func TestFromSavedRejectsDanglingEdge(t *testing.T) {
	s := Saved{
		Nodes: []SavedNode{{V: board.StartFEN}},
		Edges: []SavedEdge{{V: board.StartFEN, W: afterE4, Value: EdgeValue{SAN: "e4"}}},
	}
	_, err := FromSaved(board.StartFEN, s)
	assert.Error(t, err)
}

func TestFromSavedAddsMissingRoot(t *testing.T) {
	g, err := FromSaved(board.StartFEN, Saved{})
	require.NoError(t, err)
	assert.Equal(t, []string{board.StartFEN}, g.Positions())
}
