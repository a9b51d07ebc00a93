// FILE: internal/board/resolver.go
package board

import (
	"strings"

	"github.com/notnil/chess"
)

// Move is the outcome of a legal move: its canonical notation and the
// normalized identifier of the resulting position
type Move struct {
	SAN string `json:"san"`
	FEN string `json:"fen"`
}

// ApplyMove resolves san against the position fen. Illegal moves, malformed
// notation and unreadable positions all report ok=false.
func ApplyMove(fen, san string) (Move, bool) {
	pos, err := decode(fen)
	if err != nil {
		return Move{}, false
	}

	m, canonical := findMove(pos, san)
	if m == nil {
		return Move{}, false
	}

	return Move{SAN: canonical, FEN: identifier(pos.Update(m))}, true
}

// CanonicalSAN returns the canonical notation of san in fen, if legal
func CanonicalSAN(fen, san string) (string, bool) {
	pos, err := decode(fen)
	if err != nil {
		return "", false
	}
	m, canonical := findMove(pos, san)
	if m == nil {
		return "", false
	}
	return canonical, true
}

// LegalMoves lists every legal move in fen in canonical notation
func LegalMoves(fen string) []string {
	pos, err := decode(fen)
	if err != nil {
		return []string{}
	}
	moves := pos.ValidMoves()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, chess.AlgebraicNotation{}.Encode(pos, m))
	}
	return out
}

// findMove matches the notation against every legal move's SAN encoding,
// falling back to UCI coordinates
func findMove(pos *chess.Position, notation string) (*chess.Move, string) {
	want := cleanSAN(notation)
	if want == "" {
		return nil, ""
	}
	uci := strings.ToLower(strings.TrimSpace(notation))

	var uciMatch *chess.Move
	var uciSAN string
	for _, m := range pos.ValidMoves() {
		enc := chess.AlgebraicNotation{}.Encode(pos, m)
		if cleanSAN(enc) == want {
			return m, enc
		}
		if uciMatch == nil && (chess.UCINotation{}).Encode(pos, m) == uci {
			uciMatch, uciSAN = m, enc
		}
	}
	return uciMatch, uciSAN
}

// cleanSAN strips check, mate and annotation suffixes and normalizes
// castling zeros and promotion markers so that equivalent spellings compare equal
func cleanSAN(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "e.p.")
	s = strings.TrimRight(s, "+#!? ")
	switch s {
	case "0-0":
		s = "O-O"
	case "0-0-0":
		s = "O-O-O"
	}
	return strings.ReplaceAll(s, "=", "")
}
