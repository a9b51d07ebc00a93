// FILE: internal/graph/pgn.go
package graph

import (
	"fmt"
	"strings"

	"repertoire/internal/board"
	"repertoire/internal/pgn"
)

const pgnLineWidth = 79

// ImportStats summarizes a LoadPGN call
type ImportStats struct {
	Games   int `json:"games"`
	Skipped int `json:"skipped"` // games whose start position is not in the graph
	Moves   int `json:"moves"`   // moves replayed, including ones already present
}

// AsPGN writes every variation from fen as a single PGN game. The first
// edge of each position is the mainline; the others become nested
// variations.
func (g *Graph) AsPGN(fen string) string {
	start, ok := g.lookup(fen)
	if !ok {
		start = fen
	}

	var sb strings.Builder
	writeTag := func(name, value string) {
		value = strings.ReplaceAll(value, `\`, `\\`)
		value = strings.ReplaceAll(value, `"`, `\"`)
		fmt.Fprintf(&sb, "[%s \"%s\"]\n", name, value)
	}
	writeTag("Event", "?")
	writeTag("Site", "?")
	writeTag("Date", "????.??.??")
	writeTag("Round", "?")
	writeTag("White", "?")
	writeTag("Black", "?")
	writeTag("Result", "*")
	if !board.IsStart(start) {
		writeTag("SetUp", "1")
		writeTag("FEN", board.Expand(start))
	}
	sb.WriteString("\n")

	w := &movetextWriter{g: g, onPath: map[string]bool{start: true}}
	if board.SideToMove(start) == board.Black {
		w.offset = 1
	}
	if ok {
		if a, has := g.PositionAnnotations(start); has && a.Comments != "" {
			w.comment(a.Comments)
		}
		w.line(start, 0, true)
	}
	w.tokens = append(w.tokens, "*")

	sb.WriteString(wrap(w.tokens, pgnLineWidth))
	sb.WriteString("\n")
	return sb.String()
}

type movetextWriter struct {
	g      *Graph
	tokens []string
	onPath map[string]bool
	offset int // 1 when black moves first
}

// line writes the continuation from fen, ply plies after the start
func (w *movetextWriter) line(fen string, ply int, forceNumber bool) {
	var moves []board.Move
	for _, e := range w.g.nodes[fen].out {
		if !w.onPath[e.FEN] {
			moves = append(moves, e)
		}
	}
	if len(moves) == 0 {
		return
	}

	main := moves[0]
	w.move(ply, main, forceNumber)

	for _, alt := range moves[1:] {
		w.tokens = append(w.tokens, "(")
		w.move(ply, alt, true)
		w.onPath[alt.FEN] = true
		w.line(alt.FEN, ply+1, false)
		delete(w.onPath, alt.FEN)
		w.tokens[len(w.tokens)-1] += ")"
	}

	w.onPath[main.FEN] = true
	w.line(main.FEN, ply+1, len(moves) > 1)
	delete(w.onPath, main.FEN)
}

func (w *movetextWriter) move(ply int, m board.Move, forceNumber bool) {
	p := ply + w.offset
	number := p/2 + 1
	switch {
	case p%2 == 0:
		w.tokens = append(w.tokens, fmt.Sprintf("%d.", number), m.SAN)
	case forceNumber:
		w.tokens = append(w.tokens, fmt.Sprintf("%d...", number), m.SAN)
	default:
		w.tokens = append(w.tokens, m.SAN)
	}
	if a, ok := w.g.PositionAnnotations(m.FEN); ok && a.Comments != "" {
		w.comment(a.Comments)
	}
}

// braces cannot nest inside a PGN comment
var commentBraces = strings.NewReplacer("{", "(", "}", ")")

func (w *movetextWriter) comment(text string) {
	text = commentBraces.Replace(text)
	w.tokens = append(w.tokens, "{"+text+"}")
}

// wrap joins tokens with spaces, breaking lines at width where possible.
// The opening parenthesis of a variation is glued to the following token.
func wrap(tokens []string, width int) string {
	var sb strings.Builder
	col := 0
	glue := false
	for _, tok := range tokens {
		if tok == "(" {
			if col > 0 {
				if col+2 > width {
					sb.WriteString("\n")
					col = 0
				} else {
					sb.WriteString(" ")
					col++
				}
			}
			sb.WriteString("(")
			col++
			glue = true
			continue
		}
		if !glue && col > 0 {
			if col+1+len(tok) > width {
				sb.WriteString("\n")
				col = 0
			} else {
				sb.WriteString(" ")
				col++
			}
		}
		glue = false
		sb.WriteString(tok)
		col += len(tok)
		if i := strings.LastIndexByte(tok, '\n'); i >= 0 {
			col = len(tok) - i - 1
		}
	}
	return sb.String()
}

// LoadPGN replays every game of text into the graph. Games starting from a
// position the graph does not contain are skipped. A line stops at its first
// illegal move; comments are appended to the annotation of the position
// they follow.
func (g *Graph) LoadPGN(text string) (ImportStats, error) {
	games, err := pgn.Parse(text)
	if err != nil {
		return ImportStats{}, err
	}

	var stats ImportStats
	for _, game := range games {
		start := board.StartFEN
		if fen, ok := game.Tag("FEN"); ok {
			norm, err := board.Normalize(fen)
			if err != nil {
				stats.Skipped++
				continue
			}
			start = norm
		}
		key, ok := g.lookup(start)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Games++
		if game.Comment != "" {
			g.appendComment(key, game.Comment)
		}
		stats.Moves += g.replay(key, &game.Line)
	}
	return stats, nil
}

func (g *Graph) replay(start string, line *pgn.Line) int {
	applied := 0
	cur := start
	for _, m := range line.Moves {
		prev := cur
		mv, ok := g.Add(prev, m.SAN)
		if ok {
			applied++
			if m.Comment != "" {
				g.appendComment(mv.FEN, m.Comment)
			}
		}
		for _, v := range m.Variations {
			if v.Comment != "" {
				g.appendComment(prev, v.Comment)
			}
			applied += g.replay(prev, v)
		}
		if !ok {
			break
		}
		cur = mv.FEN
	}
	return applied
}

func (g *Graph) appendComment(fen, text string) {
	g.SetPositionAnnotations(fen, Annotation{Comments: text}, true)
}
