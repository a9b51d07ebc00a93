// FILE: internal/core/api.go
package core

import (
	"repertoire/internal/graph"
	"repertoire/internal/repertoire"
	"repertoire/internal/srs"
	"repertoire/internal/training"
)

// Request types

// MoveRequest adds SAN from FEN; an empty FEN is the starting position
type MoveRequest struct {
	FEN string `json:"fen" validate:"max=100"`
	SAN string `json:"san" validate:"required,max=10"`
}

type Drawing struct {
	Brush string `json:"brush" validate:"required,max=16"`
	Orig  string `json:"orig" validate:"required,len=2"`
	Dest  string `json:"dest,omitempty" validate:"omitempty,len=2"`
}

type AnnotationRequest struct {
	FEN      string    `json:"fen" validate:"max=100"`
	Comments string    `json:"comments" validate:"max=10000"`
	Drawings []Drawing `json:"drawings" validate:"max=256,dive"`
	Append   bool      `json:"append"`
}

type ImportPGNRequest struct {
	PGN string `json:"pgn" validate:"required,max=4194304"`
}

// TagRequest adds Name under the "/"-separated parent Path (root when empty)
type TagRequest struct {
	Path string `json:"path" validate:"max=512"`
	Name string `json:"name" validate:"required,max=64,excludes=/"`
	FEN  string `json:"fen" validate:"required,max=100"`
}

// SessionRequest selects drills. Sides defaults to both; Tag scopes the
// session to the tagged position and needs exactly one side.
type SessionRequest struct {
	Sides           []string `json:"sides" validate:"omitempty,max=2,dive,oneof=white black"`
	Modes           []string `json:"modes" validate:"required,min=1,max=4,dive,oneof=new scheduled cram difficult"`
	DifficultyLimit float64  `json:"difficultyLimit" validate:"omitempty,gt=0,max=10"`
	WholeVariations bool     `json:"wholeVariations"`
	Shuffle         bool     `json:"shuffle"`
	Tag             string   `json:"tag,omitempty" validate:"max=512"`
}

// TrainingEventRequest reports one drilled move. Attempts counts the answer
// that succeeded, so a first-try success is 1. Grade, when set, overrides
// the grade derived from attempts and elapsed time.
type TrainingEventRequest struct {
	SessionID           string   `json:"sessionId,omitempty" validate:"omitempty,uuid"`
	Side                string   `json:"side" validate:"required,oneof=white black"`
	FEN                 string   `json:"fen" validate:"required,max=100"`
	SAN                 string   `json:"san" validate:"required,max=10"`
	Attempts            int      `json:"attempts" validate:"min=1,max=100"`
	ElapsedMilliseconds int64    `json:"elapsedMilliseconds" validate:"min=0"`
	AttemptedMoves      []string `json:"attemptedMoves" validate:"max=100,dive,max=10"`
	Grade               *int     `json:"grade,omitempty" validate:"omitempty,min=0,max=5"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// Response types

type MoveInfo struct {
	SAN    string     `json:"san"`
	FEN    string     `json:"fen"`
	Record *srs.Saved `json:"record,omitempty"`
}

type PositionResponse struct {
	Side        string            `json:"side"`
	FEN         string            `json:"fen"`
	Known       bool              `json:"known"`
	Turn        string            `json:"turn"`
	Board       string            `json:"board"`
	Moves       []MoveInfo        `json:"moves"`
	Parents     []string          `json:"parents"`
	Annotations *graph.Annotation `json:"annotations,omitempty"`
	Revision    uint64            `json:"revision"`
}

type AddMoveResponse struct {
	Side     string `json:"side"`
	From     string `json:"from"`
	SAN      string `json:"san"`
	FEN      string `json:"fen"`
	Added    bool   `json:"added"`
	Revision uint64 `json:"revision"`
}

type DeleteMoveResponse struct {
	Side     string   `json:"side"`
	From     string   `json:"from"`
	SAN      string   `json:"san"`
	Removed  []string `json:"removed"`
	Revision uint64   `json:"revision"`
}

type VariationsResponse struct {
	Side       string            `json:"side"`
	FEN        string            `json:"fen"`
	Variations []graph.Variation `json:"variations"`
}

type DescendantsResponse struct {
	Side      string   `json:"side"`
	FEN       string   `json:"fen"`
	Positions []string `json:"positions"`
}

type RepertoireResponse struct {
	repertoire.Stats
	Root     string           `json:"root"`
	Revision uint64           `json:"revision"`
	Summary  training.Summary `json:"summary"`
}

type RecordResponse struct {
	Side   string    `json:"side"`
	FEN    string    `json:"fen"`
	SAN    string    `json:"san"`
	Record srs.Saved `json:"record"`
}

type ImportResponse struct {
	Side     string `json:"side"`
	Games    int    `json:"games"`
	Skipped  int    `json:"skipped"`
	Moves    int    `json:"moves"`
	Revision uint64 `json:"revision"`
}

type TagInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
	FEN  string `json:"fen"`
}

type TagsResponse struct {
	Side string    `json:"side"`
	Tags []TagInfo `json:"tags"`
}

type SessionResponse struct {
	SessionID string           `json:"sessionId"`
	Drills    []training.Drill `json:"drills"`
}

type TrainingEventResponse struct {
	Side   string    `json:"side"`
	FEN    string    `json:"fen"`
	SAN    string    `json:"san"`
	Grade  string    `json:"grade"`
	Record srs.Saved `json:"record"`
}

type WaitResponse struct {
	Side     string `json:"side"`
	Revision uint64 `json:"revision"`
	Changed  bool   `json:"changed"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expiresAt"`
}
