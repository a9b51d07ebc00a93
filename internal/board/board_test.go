// FILE: internal/board/board_test.go
package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const afterE4 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -"

func TestNormalizeStartingPosition(t *testing.T) {
	got, err := Normalize("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)
	assert.Equal(t, StartFEN, got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		StartFEN,
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		"rnbqkbnr/1pp1pppp/p7/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, in)
	}
}

func TestNormalizeDropsUnusableEnPassant(t *testing.T) {
	got, err := Normalize("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	require.NoError(t, err)
	assert.Equal(t, afterE4, got)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize("not a fen")
	assert.Error(t, err)
	_, err = Normalize("")
	assert.Error(t, err)
}

func TestApplyMoveFromStart(t *testing.T) {
	m, ok := ApplyMove(StartFEN, "e4")
	require.True(t, ok)
	assert.Equal(t, "e4", m.SAN)
	assert.Equal(t, afterE4, m.FEN)
}

func TestApplyMoveKeepsLegalEnPassant(t *testing.T) {
	fen := StartFEN
	for _, san := range []string{"e4", "a6", "e5", "d5"} {
		m, ok := ApplyMove(fen, san)
		require.True(t, ok, san)
		fen = m.FEN
	}
	assert.Equal(t, "rnbqkbnr/1pp1pppp/p7/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6", fen)

	m, ok := ApplyMove(fen, "exd6")
	require.True(t, ok)
	assert.Equal(t, "exd6", m.SAN)
	assert.Equal(t, "-", m.FEN[len(m.FEN)-1:])
}

func TestApplyMoveRejectsIllegalInput(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		san  string
	}{
		{"pawn too far", StartFEN, "e5"},
		{"king blocked", StartFEN, "Ke2"},
		{"garbage", StartFEN, "zz"},
		{"empty", StartFEN, ""},
		{"bad position", "8/8/8 w - -", "e4"},
		{"wrong side", afterE4, "d4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ApplyMove(tc.fen, tc.san)
			assert.False(t, ok)
		})
	}
}

func TestApplyMoveCanonicalizesNotation(t *testing.T) {
	fen := StartFEN
	for _, san := range []string{"e4", "d6"} {
		m, ok := ApplyMove(fen, san)
		require.True(t, ok)
		fen = m.FEN
	}

	plain, ok := ApplyMove(fen, "Bb5")
	require.True(t, ok)
	checked, ok := ApplyMove(fen, "Bb5+")
	require.True(t, ok)
	assert.Equal(t, "Bb5+", plain.SAN)
	assert.Equal(t, plain, checked)

	uci, ok := ApplyMove(StartFEN, "g1f3")
	require.True(t, ok)
	assert.Equal(t, "Nf3", uci.SAN)
}

func TestApplyMoveCastlingSpellings(t *testing.T) {
	fen := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq -"
	short, ok := ApplyMove(fen, "0-0")
	require.True(t, ok)
	assert.Equal(t, "O-O", short.SAN)
	assert.Equal(t, "r3k2r/8/8/8/8/8/8/R4RK1 b kq -", short.FEN)

	long, ok := ApplyMove(fen, "O-O-O")
	require.True(t, ok)
	assert.Equal(t, "O-O-O", long.SAN)
}

func TestSideToMove(t *testing.T) {
	assert.Equal(t, White, SideToMove(StartFEN))
	assert.Equal(t, Black, SideToMove(afterE4))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("White")
	require.NoError(t, err)
	assert.Equal(t, White, c)
	c, err = ParseColor("b")
	require.NoError(t, err)
	assert.Equal(t, Black, c)
	_, err = ParseColor("green")
	assert.Error(t, err)
}

func TestToASCII(t *testing.T) {
	b, err := ParseFEN(afterE4)
	require.NoError(t, err)
	assert.Equal(t, Black, b.Turn())
	assert.Equal(t, byte('P'), b.PieceAt("e4"))
	assert.Equal(t, byte(0), b.PieceAt("e2"))
	assert.Contains(t, b.ToASCII(), "4 . . . . P . . .  4")
}

func TestLegalMovesFromStart(t *testing.T) {
	moves := LegalMoves(StartFEN)
	assert.Len(t, moves, 20)
	assert.Contains(t, moves, "Nf3")
	assert.Empty(t, LegalMoves("garbage"))
}
