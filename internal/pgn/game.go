// FILE: internal/pgn/game.go

// Package pgn parses Portable Game Notation into a tree of moves that keeps
// recursive annotation variations and comments attached to the moves they follow.
package pgn

// Tag is one header pair such as [Event "Casual"]
type Tag struct {
	Name  string
	Value string
}

// Move is a single half-move in a line
type Move struct {
	SAN     string
	NAGs    []int
	Comment string // text of comments following the move
	// Variations are alternatives to this move, each starting from the
	// position before it was played
	Variations []*Line
}

// Line is a sequence of half-moves; Comment holds any comment placed before
// the first move
type Line struct {
	Comment string
	Moves   []*Move
}

// Game is one parsed game
type Game struct {
	Tags   []Tag
	Result string
	Line
}

// Tag returns the value of the first header named name
func (g *Game) Tag(name string) (string, bool) {
	for _, t := range g.Tags {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}
