// FILE: internal/board/fen.go
package board

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// StartFEN is the normalized identifier of the standard starting position
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"

// clockFields are the placeholder half-move and full-move counters re-attached
// to an identifier before it is handed to the rules engine
const clockFields = "0 1"

// Expand turns a position identifier back into a full six-field FEN
func Expand(fen string) string {
	parts := strings.Fields(fen)
	if len(parts) >= 4 {
		parts = parts[:4]
	}
	return strings.Join(parts, " ") + " " + clockFields
}

// Normalize reduces a FEN to its identifier form: placement, side to move,
// castling rights and an en-passant file only when the capture is legal.
// Normalizing an identifier returns it unchanged.
func Normalize(fen string) (string, error) {
	pos, err := decode(fen)
	if err != nil {
		return "", err
	}
	return identifier(pos), nil
}

// MustNormalize is Normalize for inputs known to be valid, such as constants
func MustNormalize(fen string) string {
	id, err := Normalize(fen)
	if err != nil {
		panic(err)
	}
	return id
}

// IsStart reports whether fen is the standard starting identifier
func IsStart(fen string) bool {
	return fen == StartFEN
}

// SideToMove reads the active color of an identifier, White when unreadable
func SideToMove(fen string) Color {
	parts := strings.Fields(fen)
	if len(parts) > 1 && parts[1] == "b" {
		return Black
	}
	return White
}

func decode(fen string) (*chess.Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 4 && len(parts) != 6 {
		return nil, fmt.Errorf("invalid FEN: expected 4 or 6 parts, got %d", len(parts))
	}
	opt, err := chess.FEN(Expand(fen))
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	return chess.NewGame(opt).Position(), nil
}

// identifier renders pos in normalized form
func identifier(pos *chess.Position) string {
	parts := strings.Fields(pos.String())
	if len(parts) < 4 {
		return pos.String()
	}
	if parts[3] != "-" && !hasEnPassantCapture(pos) {
		parts[3] = "-"
	}
	return strings.Join(parts[:4], " ")
}

func hasEnPassantCapture(pos *chess.Position) bool {
	for _, m := range pos.ValidMoves() {
		if m.HasTag(chess.EnPassant) {
			return true
		}
	}
	return false
}
