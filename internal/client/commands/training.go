// FILE: internal/client/commands/training.go
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"repertoire/internal/board"
	"repertoire/internal/client/display"
	"repertoire/internal/client/session"
	"repertoire/internal/core"
	"repertoire/internal/graph"
)

// maxAttempts before the answer is shown
const maxAttempts = 3

var defaultModes = []string{"scheduled", "new"}

func (r *Registry) registerTrainingCommands() {
	r.Register(&Command{
		Name:        "train",
		ShortName:   "t",
		Description: "Drill the current repertoire",
		Usage:       "train [new|scheduled|cram|difficult...] [whole] [tag=<path>]",
		Group:       groupTraining,
		Handler:     trainHandler,
	})

	r.Register(&Command{
		Name:        "preview",
		ShortName:   "l",
		Description: "List the drills a training session would contain",
		Usage:       "preview [new|scheduled|cram|difficult...] [whole] [tag=<path>]",
		Group:       groupTraining,
		Handler:     previewHandler,
	})
}

// sessionRequest reads modes, "whole" and "tag=" from args
func sessionRequest(s *session.Session, args []string) core.SessionRequest {
	req := core.SessionRequest{
		Sides:   []string{s.Side},
		Shuffle: true,
	}
	for _, arg := range args {
		switch {
		case arg == "whole":
			req.WholeVariations = true
		case strings.HasPrefix(arg, "tag="):
			req.Tag = strings.TrimPrefix(arg, "tag=")
		default:
			req.Modes = append(req.Modes, arg)
		}
	}
	if len(req.Modes) == 0 {
		req.Modes = append(req.Modes, defaultModes...)
	}
	return req
}

func previewHandler(s *session.Session, args []string) error {
	resp, err := s.Client.StartSession(sessionRequest(s, args))
	if err != nil {
		return err
	}
	if len(resp.Drills) == 0 {
		s.Printf("Nothing to train\n")
		return nil
	}
	for i, d := range resp.Drills {
		from := board.StartFEN
		if len(d.Moves) > 0 {
			from = d.Moves[0].SourceFEN
		}
		s.Printf("%3d. %s\n", i+1, moveText(d.Moves.SANs(), from))
	}
	return nil
}

// trainHandler plays each drill: opponent moves are shown, the trainee
// types theirs, and every user move is graded by the server
func trainHandler(s *session.Session, args []string) error {
	if s.Input == nil {
		return fmt.Errorf("training needs an interactive terminal")
	}
	resp, err := s.Client.StartSession(sessionRequest(s, args))
	if err != nil {
		return err
	}
	if len(resp.Drills) == 0 {
		s.Printf("Nothing to train\n")
		return nil
	}

	s.Printf("%sSession %s: %d drills. Type 'quit' to stop.%s\n",
		display.Cyan(), shortID(resp.SessionID), len(resp.Drills), display.Reset())

	var tally [6]int
	for i, drill := range resp.Drills {
		s.Printf("\n%sDrill %d/%d%s (%s)\n", display.Yellow(), i+1, len(resp.Drills), display.Reset(),
			display.ColorForSide(drill.Side))
		stop, err := playDrill(s, resp.SessionID, drill.Side, drill.Moves, &tally)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}

	s.Printf("\n%sResults:%s perfect %d, hesitant %d, hard %d, easy miss %d, miss %d, blackout %d\n",
		display.Cyan(), display.Reset(), tally[5], tally[4], tally[3], tally[2], tally[1], tally[0])
	return nil
}

func playDrill(s *session.Session, sessionID, side string, moves graph.Variation, tally *[6]int) (bool, error) {
	for _, m := range moves {
		if board.SideToMove(m.SourceFEN).String() != side {
			s.Printf("  Opponent plays %s%s%s\n", display.Red(), m.SAN, display.Reset())
			continue
		}

		if b, err := board.ParseFEN(m.SourceFEN); err == nil {
			display.RenderBoard(s.Out, b.ToASCII(), side == "black")
		}

		attempts, attempted, elapsed, quit, err := askMove(s, m)
		if err != nil || quit {
			return true, err
		}

		res, err := s.Client.RecordTraining(core.TrainingEventRequest{
			SessionID:           sessionID,
			Side:                side,
			FEN:                 m.SourceFEN,
			SAN:                 m.SAN,
			Attempts:            attempts,
			ElapsedMilliseconds: elapsed.Milliseconds(),
			AttemptedMoves:      attempted,
		})
		if err != nil {
			return true, err
		}
		if n := len(res.Record.History); n > 0 {
			if g := int(res.Record.History[n-1].Grade); g >= 0 && g < len(tally) {
				tally[g]++
			}
		}
		s.Printf("  %s%s%s graded %s\n", display.Green(), m.SAN, display.Reset(), res.Grade)
	}
	return false, nil
}

// askMove prompts until the expected move or maxAttempts wrong answers
func askMove(s *session.Session, want graph.VariationMove) (attempts int, attempted []string, elapsed time.Duration, quit bool, err error) {
	start := time.Now()
	for attempts < maxAttempts {
		line, readErr := s.Input.ReadLine(display.Prompt("your move"))
		if errors.Is(readErr, io.EOF) {
			return attempts, attempted, time.Since(start), true, nil
		}
		if readErr != nil {
			return attempts, attempted, time.Since(start), true, readErr
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			return attempts, attempted, time.Since(start), true, nil
		}

		attempts++
		if matches(want, line) {
			return attempts, attempted, time.Since(start), false, nil
		}
		attempted = append(attempted, line)
		s.Printf("  %sNot the repertoire move%s\n", display.Red(), display.Reset())
	}
	s.Printf("  The move was %s%s%s\n", display.Yellow(), want.SAN, display.Reset())
	// Counted as a failure beyond the last allowed attempt
	return attempts + 1, attempted, time.Since(start), false, nil
}

// matches accepts any spelling that reaches the expected position
func matches(want graph.VariationMove, input string) bool {
	if input == want.SAN {
		return true
	}
	mv, ok := board.ApplyMove(want.SourceFEN, input)
	return ok && mv.FEN == want.ResultingFEN
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
