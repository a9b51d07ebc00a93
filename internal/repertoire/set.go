// FILE: internal/repertoire/set.go
package repertoire

import (
	"fmt"

	"repertoire/internal/board"
)

// Set is the application state: one repertoire per side
type Set struct {
	White *Repertoire
	Black *Repertoire
}

// NewSet creates empty white and black repertoires from the start position
func NewSet(opts ...Option) (*Set, error) {
	white, err := New(board.White.String(), board.White, board.StartFEN, opts...)
	if err != nil {
		return nil, err
	}
	black, err := New(board.Black.String(), board.Black, board.StartFEN, opts...)
	if err != nil {
		return nil, err
	}
	return &Set{White: white, Black: black}, nil
}

// Get returns the repertoire of side
func (s *Set) Get(side board.Color) (*Repertoire, error) {
	switch side {
	case board.White:
		return s.White, nil
	case board.Black:
		return s.Black, nil
	}
	return nil, fmt.Errorf("no repertoire for side %q", side.String())
}

// All returns the repertoires in white, black order
func (s *Set) All() []*Repertoire {
	return []*Repertoire{s.White, s.Black}
}
