// FILE: internal/processor/command.go
package processor

import (
	"context"

	"repertoire/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdListRepertoires CommandType = iota
	CmdGetRepertoire
	CmdGetPosition
	CmdAddMove
	CmdDeleteMove
	CmdGetVariations
	CmdGetDescendants
	CmdSetAnnotations
	CmdExportPGN
	CmdImportPGN
	CmdGetRecord
	CmdListTags
	CmdAddTag
	CmdDeleteTag
	CmdWait
	CmdStartSession
	CmdRecordTraining
	CmdLogin
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	UserID string
	Side   string // For repertoire-specific commands
	Args   any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

// PositionQuery addresses a position, or a move from it when SAN is set
type PositionQuery struct {
	FEN string
	SAN string
}

// WaitArgs is a long-poll for a revision other than Revision
type WaitArgs struct {
	Ctx      context.Context
	Revision uint64
}

func NewListRepertoiresCommand() Command {
	return Command{Type: CmdListRepertoires}
}

func NewGetRepertoireCommand(side string) Command {
	return Command{Type: CmdGetRepertoire, Side: side}
}

func NewGetPositionCommand(side, fen string) Command {
	return Command{Type: CmdGetPosition, Side: side, Args: PositionQuery{FEN: fen}}
}

func NewAddMoveCommand(side string, req core.MoveRequest) Command {
	return Command{Type: CmdAddMove, Side: side, Args: req}
}

func NewDeleteMoveCommand(side, fen, san string) Command {
	return Command{Type: CmdDeleteMove, Side: side, Args: PositionQuery{FEN: fen, SAN: san}}
}

func NewGetVariationsCommand(side, fen string) Command {
	return Command{Type: CmdGetVariations, Side: side, Args: PositionQuery{FEN: fen}}
}

func NewGetDescendantsCommand(side, fen string) Command {
	return Command{Type: CmdGetDescendants, Side: side, Args: PositionQuery{FEN: fen}}
}

func NewSetAnnotationsCommand(side string, req core.AnnotationRequest) Command {
	return Command{Type: CmdSetAnnotations, Side: side, Args: req}
}

func NewExportPGNCommand(side, fen string) Command {
	return Command{Type: CmdExportPGN, Side: side, Args: PositionQuery{FEN: fen}}
}

func NewImportPGNCommand(side string, req core.ImportPGNRequest) Command {
	return Command{Type: CmdImportPGN, Side: side, Args: req}
}

func NewGetRecordCommand(side, fen, san string) Command {
	return Command{Type: CmdGetRecord, Side: side, Args: PositionQuery{FEN: fen, SAN: san}}
}

func NewListTagsCommand(side string) Command {
	return Command{Type: CmdListTags, Side: side}
}

func NewAddTagCommand(side string, req core.TagRequest) Command {
	return Command{Type: CmdAddTag, Side: side, Args: req}
}

func NewDeleteTagCommand(side, path string) Command {
	return Command{Type: CmdDeleteTag, Side: side, Args: path}
}

func NewWaitCommand(ctx context.Context, side string, revision uint64) Command {
	return Command{Type: CmdWait, Side: side, Args: WaitArgs{Ctx: ctx, Revision: revision}}
}

func NewStartSessionCommand(userID string, req core.SessionRequest) Command {
	return Command{Type: CmdStartSession, UserID: userID, Args: req}
}

func NewRecordTrainingCommand(userID string, req core.TrainingEventRequest) Command {
	return Command{Type: CmdRecordTraining, UserID: userID, Side: req.Side, Args: req}
}

func NewLoginCommand(req core.LoginRequest) Command {
	return Command{Type: CmdLogin, Args: req}
}
