// FILE: internal/board/board.go
package board

import (
	"fmt"
	"strings"
)

// Color is the side to move in a position identifier
type Color byte

const (
	White Color = 'w'
	Black Color = 'b'
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "-"
	}
}

// Opposite returns the other side
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// ParseColor accepts "w", "white", "b" or "black" in any case
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	}
	return 0, fmt.Errorf("invalid side: %q", s)
}

// Board is a parsed piece placement used for text rendering
type Board struct {
	squares   [8][8]byte
	turn      Color
	castling  string
	enPassant string
}

// ParseFEN parses a position identifier (4 fields) or a full FEN (6 fields)
func ParseFEN(fen string) (*Board, error) {
	parts := strings.Fields(fen)
	if len(parts) != 4 && len(parts) != 6 {
		return nil, fmt.Errorf("invalid FEN: expected 4 or 6 parts, got %d", len(parts))
	}

	b := &Board{}

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid FEN: expected 8 ranks")
	}

	for r := 0; r < 8; r++ {
		file := 0
		for _, ch := range ranks[r] {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			if !strings.ContainsRune("pnbrqkPNBRQK", ch) {
				return nil, fmt.Errorf("invalid FEN: unknown piece %q in rank %d", ch, 8-r)
			}
			if file >= 8 {
				return nil, fmt.Errorf("invalid FEN: too many pieces in rank %d", 8-r)
			}
			b.squares[r][file] = byte(ch)
			file++
		}
		if file != 8 {
			return nil, fmt.Errorf("invalid FEN: rank %d has %d files", 8-r, file)
		}
	}

	switch parts[1] {
	case "w":
		b.turn = White
	case "b":
		b.turn = Black
	default:
		return nil, fmt.Errorf("invalid FEN: turn must be 'w' or 'b'")
	}
	b.castling = parts[2]
	b.enPassant = parts[3]

	return b, nil
}

// ToASCII creates an ASCII representation of the board, White at the bottom
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 0; r < 8; r++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for f := 0; f < 8; f++ {
			piece := b.squares[r][f]
			if piece == 0 {
				sb.WriteString(". ")
			} else {
				sb.WriteString(fmt.Sprintf("%c ", piece))
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}

func (b *Board) Turn() Color {
	return b.turn
}

func (b *Board) Castling() string {
	return b.castling
}

func (b *Board) EnPassant() string {
	return b.enPassant
}

// PieceAt returns the piece letter on a square such as "e4", or 0 when empty
func (b *Board) PieceAt(square string) byte {
	if len(square) != 2 {
		return 0
	}
	if square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return 0
	}
	file := square[0] - 'a'
	rank := '8' - square[1]
	return b.squares[rank][file]
}
