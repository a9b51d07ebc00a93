// FILE: internal/pgn/parser.go
package pgn

import "strings"

// Parse reads every game in text. Move text is not checked for legality;
// callers replay it against a position.
func Parse(text string) ([]*Game, error) {
	lx := newLexer(text)
	var games []*Game

	game := &Game{}
	stack := []*Line{&game.Line}
	started := false // movetext seen for the current game

	finish := func() {
		if started || len(game.Tags) > 0 {
			games = append(games, game)
		}
		game = &Game{}
		stack = []*Line{&game.Line}
		started = false
	}

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		top := stack[len(stack)-1]

		switch tok.kind {
		case tokEOF:
			if len(stack) > 1 {
				return nil, lx.errorf(tok.line, tok.col, "unterminated variation")
			}
			finish()
			return games, nil

		case tokTag:
			if started {
				if len(stack) > 1 {
					return nil, lx.errorf(tok.line, tok.col, "tag inside a variation")
				}
				finish()
			}
			game.Tags = append(game.Tags, Tag{Name: tok.text, Value: tok.value})

		case tokComment:
			started = true
			if tok.text == "" {
				continue
			}
			if n := len(top.Moves); n > 0 {
				m := top.Moves[n-1]
				m.Comment = joinComment(m.Comment, tok.text)
			} else {
				top.Comment = joinComment(top.Comment, tok.text)
			}

		case tokSAN:
			started = true
			top.Moves = append(top.Moves, &Move{SAN: tok.text})

		case tokNAG:
			n := len(top.Moves)
			if n == 0 {
				return nil, lx.errorf(tok.line, tok.col, "annotation glyph before any move")
			}
			top.Moves[n-1].NAGs = append(top.Moves[n-1].NAGs, tok.nag)

		case tokOpen:
			n := len(top.Moves)
			if n == 0 {
				return nil, lx.errorf(tok.line, tok.col, "variation before any move")
			}
			v := &Line{}
			top.Moves[n-1].Variations = append(top.Moves[n-1].Variations, v)
			stack = append(stack, v)

		case tokClose:
			if len(stack) == 1 {
				return nil, lx.errorf(tok.line, tok.col, "unbalanced ')'")
			}
			stack = stack[:len(stack)-1]

		case tokResult:
			if len(stack) > 1 {
				return nil, lx.errorf(tok.line, tok.col, "result inside a variation")
			}
			game.Result = tok.text
			started = true
			finish()
		}
	}
}

func joinComment(existing, text string) string {
	if existing == "" {
		return text
	}
	return strings.TrimSpace(existing + " " + text)
}
