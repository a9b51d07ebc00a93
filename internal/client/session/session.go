// FILE: internal/client/session/session.go

// Package session holds the state of one interactive client.
package session

import (
	"fmt"
	"io"
	"os"

	"repertoire/internal/board"
	"repertoire/internal/client/api"
)

// LineReader reads user input
type LineReader interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}

// Session is the browsing state: which repertoire, which position, and the
// path walked to reach it
type Session struct {
	Client   *api.Client
	Side     string
	FEN      string
	Username string
	Verbose  bool
	Out      io.Writer
	Input    LineReader

	trail []string
}

func New(baseURL string, input LineReader) *Session {
	return &Session{
		Client: api.New(baseURL),
		Side:   "white",
		FEN:    board.StartFEN,
		Out:    os.Stdout,
		Input:  input,
	}
}

func (s *Session) Printf(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

// Goto moves to fen, remembering the current position for Back
func (s *Session) Goto(fen string) {
	if fen == s.FEN {
		return
	}
	s.trail = append(s.trail, s.FEN)
	s.FEN = fen
}

// Back steps up to n positions along the trail and reports how many it took
func (s *Session) Back(n int) int {
	taken := 0
	for ; taken < n && len(s.trail) > 0; taken++ {
		s.FEN = s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
	}
	return taken
}

// Depth is the number of positions on the trail
func (s *Session) Depth() int {
	return len(s.trail)
}

// SetSide switches repertoire and returns to its root
func (s *Session) SetSide(side string) {
	s.Side = side
	s.Reset()
}

func (s *Session) Reset() {
	s.FEN = board.StartFEN
	s.trail = nil
}
