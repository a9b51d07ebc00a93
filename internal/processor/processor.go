// FILE: internal/processor/processor.go

// Package processor turns API commands into service calls and service
// results into response payloads.
package processor

import (
	"context"
	"errors"
	"strings"
	"time"

	"repertoire/internal/board"
	"repertoire/internal/core"
	"repertoire/internal/graph"
	"repertoire/internal/pgn"
	"repertoire/internal/repertoire"
	"repertoire/internal/service"
	"repertoire/internal/srs"
	"repertoire/internal/storage"
	"repertoire/internal/tags"
)

// Processor handles command execution against the service
type Processor struct {
	svc *service.Service
}

func New(svc *service.Service) *Processor {
	return &Processor{svc: svc}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdListRepertoires:
		return p.handleListRepertoires()
	case CmdGetRepertoire:
		return p.handleGetRepertoire(cmd)
	case CmdGetPosition:
		return p.handleGetPosition(cmd)
	case CmdAddMove:
		return p.handleAddMove(cmd)
	case CmdDeleteMove:
		return p.handleDeleteMove(cmd)
	case CmdGetVariations:
		return p.handleGetVariations(cmd)
	case CmdGetDescendants:
		return p.handleGetDescendants(cmd)
	case CmdSetAnnotations:
		return p.handleSetAnnotations(cmd)
	case CmdExportPGN:
		return p.handleExportPGN(cmd)
	case CmdImportPGN:
		return p.handleImportPGN(cmd)
	case CmdGetRecord:
		return p.handleGetRecord(cmd)
	case CmdListTags:
		return p.handleListTags(cmd)
	case CmdAddTag:
		return p.handleAddTag(cmd)
	case CmdDeleteTag:
		return p.handleDeleteTag(cmd)
	case CmdWait:
		return p.handleWait(cmd)
	case CmdStartSession:
		return p.handleStartSession(cmd)
	case CmdRecordTraining:
		return p.handleRecordTraining(cmd)
	case CmdLogin:
		return p.handleLogin(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

func (p *Processor) handleListRepertoires() ProcessorResponse {
	var out []core.RepertoireResponse
	for _, o := range p.svc.Repertoires() {
		out = append(out, overviewResponse(o))
	}
	return ok(out)
}

func (p *Processor) handleGetRepertoire(cmd Command) ProcessorResponse {
	o, err := p.svc.Overview(cmd.Side)
	if err != nil {
		return p.fail(err)
	}
	return ok(overviewResponse(o))
}

func overviewResponse(o service.Overview) core.RepertoireResponse {
	return core.RepertoireResponse{
		Stats:    o.Stats,
		Root:     o.Root,
		Revision: o.Revision,
		Summary:  o.Summary,
	}
}

func (p *Processor) handleGetPosition(cmd Command) ProcessorResponse {
	q, isQuery := cmd.Args.(PositionQuery)
	if !isQuery {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	view, err := p.svc.Position(cmd.Side, q.FEN)
	if err != nil {
		return p.fail(err)
	}
	return ok(positionResponse(view))
}

func positionResponse(v service.PositionView) core.PositionResponse {
	resp := core.PositionResponse{
		Side:        v.Side,
		FEN:         v.FEN,
		Known:       v.Known,
		Turn:        board.SideToMove(v.FEN).String(),
		Moves:       make([]core.MoveInfo, 0, len(v.Moves)),
		Parents:     v.Parents,
		Annotations: v.Annotation,
		Revision:    v.Revision,
	}
	if b, err := board.ParseFEN(v.FEN); err == nil {
		resp.Board = b.ToASCII()
	}
	for _, m := range v.Moves {
		info := core.MoveInfo{SAN: m.SAN, FEN: m.FEN}
		if m.Record != nil {
			saved := m.Record.AsSaved()
			info.Record = &saved
		}
		resp.Moves = append(resp.Moves, info)
	}
	return resp
}

func (p *Processor) handleAddMove(cmd Command) ProcessorResponse {
	args, isReq := cmd.Args.(core.MoveRequest)
	if !isReq {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	from := args.FEN
	m, added, rev, err := p.svc.AddMove(cmd.Side, from, args.SAN)
	if err != nil {
		return p.fail(err)
	}
	if strings.TrimSpace(from) == "" {
		from = board.StartFEN
	} else if n, err := board.Normalize(from); err == nil {
		from = n
	}
	return ok(core.AddMoveResponse{
		Side:     cmd.Side,
		From:     from,
		SAN:      m.SAN,
		FEN:      m.FEN,
		Added:    added,
		Revision: rev,
	})
}

func (p *Processor) handleDeleteMove(cmd Command) ProcessorResponse {
	q, isQuery := cmd.Args.(PositionQuery)
	if !isQuery {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	san, removed, rev, err := p.svc.DeleteMove(cmd.Side, q.FEN, q.SAN)
	if err != nil {
		return p.fail(err)
	}
	from := q.FEN
	if n, err := board.Normalize(from); err == nil {
		from = n
	}
	return ok(core.DeleteMoveResponse{
		Side:     cmd.Side,
		From:     from,
		SAN:      san,
		Removed:  removed,
		Revision: rev,
	})
}

func (p *Processor) handleGetVariations(cmd Command) ProcessorResponse {
	q, isQuery := cmd.Args.(PositionQuery)
	if !isQuery {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	fen, variations, err := p.svc.Variations(cmd.Side, q.FEN)
	if err != nil {
		return p.fail(err)
	}
	return ok(core.VariationsResponse{Side: cmd.Side, FEN: fen, Variations: variations})
}

func (p *Processor) handleGetDescendants(cmd Command) ProcessorResponse {
	q, isQuery := cmd.Args.(PositionQuery)
	if !isQuery {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	fen, positions, err := p.svc.Descendants(cmd.Side, q.FEN)
	if err != nil {
		return p.fail(err)
	}
	return ok(core.DescendantsResponse{Side: cmd.Side, FEN: fen, Positions: positions})
}

func (p *Processor) handleSetAnnotations(cmd Command) ProcessorResponse {
	args, isReq := cmd.Args.(core.AnnotationRequest)
	if !isReq {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	a := graph.Annotation{Comments: args.Comments, Drawings: []graph.Drawing{}}
	for _, d := range args.Drawings {
		a.Drawings = append(a.Drawings, graph.Drawing{Brush: d.Brush, Orig: d.Orig, Dest: d.Dest})
	}
	if _, err := p.svc.SetAnnotations(cmd.Side, args.FEN, a, args.Append); err != nil {
		return p.fail(err)
	}
	view, err := p.svc.Position(cmd.Side, args.FEN)
	if err != nil {
		return p.fail(err)
	}
	return ok(positionResponse(view))
}

func (p *Processor) handleExportPGN(cmd Command) ProcessorResponse {
	q, isQuery := cmd.Args.(PositionQuery)
	if !isQuery {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	text, err := p.svc.PGN(cmd.Side, q.FEN)
	if err != nil {
		return p.fail(err)
	}
	return ok(text)
}

func (p *Processor) handleImportPGN(cmd Command) ProcessorResponse {
	args, isReq := cmd.Args.(core.ImportPGNRequest)
	if !isReq {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	stats, rev, err := p.svc.ImportPGN(cmd.Side, args.PGN)
	if err != nil {
		return p.fail(err)
	}
	return ok(core.ImportResponse{
		Side:     cmd.Side,
		Games:    stats.Games,
		Skipped:  stats.Skipped,
		Moves:    stats.Moves,
		Revision: rev,
	})
}

func (p *Processor) handleGetRecord(cmd Command) ProcessorResponse {
	q, isQuery := cmd.Args.(PositionQuery)
	if !isQuery {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	fen, san, rec, err := p.svc.Record(cmd.Side, q.FEN, q.SAN)
	if err != nil {
		return p.fail(err)
	}
	return ok(core.RecordResponse{Side: cmd.Side, FEN: fen, SAN: san, Record: rec.AsSaved()})
}

func (p *Processor) handleListTags(cmd Command) ProcessorResponse {
	entries, err := p.svc.Tags(cmd.Side)
	if err != nil {
		return p.fail(err)
	}
	resp := core.TagsResponse{Side: cmd.Side, Tags: make([]core.TagInfo, 0, len(entries))}
	for _, e := range entries {
		resp.Tags = append(resp.Tags, core.TagInfo{Path: e.Path, Name: e.Name, FEN: e.FEN})
	}
	return ok(resp)
}

func (p *Processor) handleAddTag(cmd Command) ProcessorResponse {
	args, isReq := cmd.Args.(core.TagRequest)
	if !isReq {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	e, _, err := p.svc.AddTag(cmd.Side, args.Path, args.Name, args.FEN)
	if err != nil {
		return p.fail(err)
	}
	return ok(core.TagInfo{Path: e.Path, Name: e.Name, FEN: e.FEN})
}

func (p *Processor) handleDeleteTag(cmd Command) ProcessorResponse {
	path, isPath := cmd.Args.(string)
	if !isPath || path == "" {
		return p.errorResponse("tag path required", core.ErrInvalidRequest)
	}
	if _, err := p.svc.RemoveTag(cmd.Side, path); err != nil {
		return p.fail(err)
	}
	return p.handleListTags(cmd)
}

func (p *Processor) handleWait(cmd Command) ProcessorResponse {
	args, isWait := cmd.Args.(WaitArgs)
	if !isWait {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	ctx := args.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	rev, changed, err := p.svc.Wait(ctx, cmd.Side, args.Revision)
	if err != nil {
		return p.fail(err)
	}
	return ok(core.WaitResponse{Side: cmd.Side, Revision: rev, Changed: changed})
}

func (p *Processor) handleStartSession(cmd Command) ProcessorResponse {
	args, isReq := cmd.Args.(core.SessionRequest)
	if !isReq {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	modes := make([]srs.Mode, 0, len(args.Modes))
	for _, name := range args.Modes {
		m, err := srs.ParseMode(name)
		if err != nil {
			return p.errorResponse(err.Error(), core.ErrInvalidRequest)
		}
		modes = append(modes, m)
	}
	session, err := p.svc.StartSession(service.SessionSpec{
		Sides:           args.Sides,
		Modes:           modes,
		DifficultyLimit: args.DifficultyLimit,
		WholeVariations: args.WholeVariations,
		Shuffle:         args.Shuffle,
		Tag:             args.Tag,
	})
	if err != nil {
		return p.fail(err)
	}
	return ok(core.SessionResponse{SessionID: session.ID, Drills: session.Drills})
}

func (p *Processor) handleRecordTraining(cmd Command) ProcessorResponse {
	args, isReq := cmd.Args.(core.TrainingEventRequest)
	if !isReq {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	in := service.TrainingInput{
		SessionID:      args.SessionID,
		Side:           args.Side,
		FEN:            args.FEN,
		SAN:            args.SAN,
		Attempts:       args.Attempts,
		Elapsed:        time.Duration(args.ElapsedMilliseconds) * time.Millisecond,
		AttemptedMoves: args.AttemptedMoves,
	}
	if args.Grade != nil {
		g := srs.Grade(*args.Grade)
		in.Grade = &g
	}
	res, err := p.svc.RecordTraining(in)
	if err != nil {
		return p.fail(err)
	}
	return ok(core.TrainingEventResponse{
		Side:   args.Side,
		FEN:    res.FEN,
		SAN:    res.SAN,
		Grade:  res.Grade.String(),
		Record: res.Record.AsSaved(),
	})
}

func (p *Processor) handleLogin(cmd Command) ProcessorResponse {
	args, isReq := cmd.Args.(core.LoginRequest)
	if !isReq {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	tok, err := p.svc.Login(args.Username, args.Password)
	if err != nil {
		return p.fail(err)
	}
	return ok(core.AuthResponse{
		Token:     tok.Value,
		UserID:    tok.UserID,
		Username:  tok.Username,
		ExpiresAt: tok.ExpiresAt.Unix(),
	})
}

func ok(data any) ProcessorResponse {
	return ProcessorResponse{Success: true, Data: data}
}

// fail maps a service error onto an API error code
func (p *Processor) fail(err error) ProcessorResponse {
	return p.errorResponse(err.Error(), ErrorCode(err))
}

// ErrorCode classifies err for the API
func ErrorCode(err error) string {
	var parseErr *pgn.ParseError
	switch {
	case errors.As(err, &parseErr):
		return core.ErrInvalidPGN
	case errors.Is(err, service.ErrInvalidFEN):
		return core.ErrInvalidFEN
	case errors.Is(err, service.ErrIllegalMove):
		return core.ErrInvalidMove
	case errors.Is(err, repertoire.ErrUnknownPosition):
		return core.ErrPositionNotFound
	case errors.Is(err, repertoire.ErrUnknownMove):
		return core.ErrMoveNotFound
	case errors.Is(err, tags.ErrNotFound):
		return core.ErrTagNotFound
	case errors.Is(err, tags.ErrExists):
		return core.ErrTagExists
	case errors.Is(err, service.ErrUnknownRepertoire),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, tags.ErrEmpty),
		errors.Is(err, srs.ErrInvalidGrade),
		errors.Is(err, srs.ErrInvalidMode):
		return core.ErrInvalidRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAuthDisabled),
		errors.Is(err, storage.ErrNotFound):
		return core.ErrUnauthorized
	case errors.Is(err, service.ErrStorageDisabled),
		errors.Is(err, service.ErrBackupsDisabled),
		errors.Is(err, service.ErrShuttingDown):
		return core.ErrStorageUnavailable
	default:
		return core.ErrInternalError
	}
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}
