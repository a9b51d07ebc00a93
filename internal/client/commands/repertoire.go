// FILE: internal/client/commands/repertoire.go
package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"repertoire/internal/board"
	"repertoire/internal/client/display"
	"repertoire/internal/client/session"
	"repertoire/internal/core"
	"repertoire/internal/srs"
)

func (r *Registry) registerRepertoireCommands() {
	r.Register(&Command{
		Name:        "side",
		ShortName:   "s",
		Description: "Switch repertoire and return to its root",
		Usage:       "side <white|black>",
		Group:       groupRepertoire,
		Handler:     sideHandler,
	})

	r.Register(&Command{
		Name:        "reps",
		ShortName:   "r",
		Description: "Show both repertoires with training counts",
		Usage:       "reps",
		Group:       groupRepertoire,
		Handler:     repertoiresHandler,
	})

	r.Register(&Command{
		Name:        "pos",
		ShortName:   "p",
		Description: "Show the board and moves of the current position, or jump to a FEN",
		Usage:       "pos [fen]",
		Group:       groupRepertoire,
		Handler:     positionHandler,
	})

	r.Register(&Command{
		Name:        "moves",
		ShortName:   "m",
		Description: "List repertoire moves of the current position with their schedule",
		Usage:       "moves",
		Group:       groupRepertoire,
		Handler:     movesHandler,
	})

	r.Register(&Command{
		Name:        "add",
		ShortName:   "a",
		Description: "Add moves from the current position and follow them",
		Usage:       "add <san> [san...]",
		Group:       groupRepertoire,
		Handler:     addHandler,
	})

	r.Register(&Command{
		Name:        "del",
		ShortName:   "d",
		Description: "Delete a move and every position only it reached",
		Usage:       "del <san>",
		Group:       groupRepertoire,
		Handler:     deleteHandler,
	})

	r.Register(&Command{
		Name:        "go",
		ShortName:   "g",
		Description: "Follow a repertoire move",
		Usage:       "go <san>",
		Group:       groupRepertoire,
		Handler:     goHandler,
	})

	r.Register(&Command{
		Name:        "back",
		ShortName:   "b",
		Description: "Step back along the visited positions",
		Usage:       "back [count]",
		Group:       groupRepertoire,
		Handler:     backHandler,
	})

	r.Register(&Command{
		Name:        "vars",
		ShortName:   "v",
		Description: "List every variation from the current position",
		Usage:       "vars",
		Group:       groupRepertoire,
		Handler:     variationsHandler,
	})

	r.Register(&Command{
		Name:        "note",
		ShortName:   "n",
		Description: "Set or append the comment of the current position",
		Usage:       "note [+] <text>",
		Group:       groupRepertoire,
		Handler:     noteHandler,
	})

	r.Register(&Command{
		Name:        "pgn",
		ShortName:   "e",
		Description: "Export the current subtree as PGN, to a file when given",
		Usage:       "pgn [file]",
		Group:       groupRepertoire,
		Handler:     exportHandler,
	})

	r.Register(&Command{
		Name:        "import",
		ShortName:   "i",
		Description: "Import a PGN file into the current repertoire",
		Usage:       "import <file>",
		Group:       groupRepertoire,
		Handler:     importHandler,
	})

	r.Register(&Command{
		Name:        "watch",
		ShortName:   "w",
		Description: "Wait for the next change to the current repertoire",
		Usage:       "watch",
		Group:       groupRepertoire,
		Handler:     watchHandler,
	})
}

func sideHandler(s *session.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: side <white|black>")
	}
	c, err := board.ParseColor(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	s.SetSide(c.String())
	s.Printf("Repertoire: %s\n", display.ColorForSide(s.Side))
	return nil
}

func repertoiresHandler(s *session.Session, _ []string) error {
	reps, err := s.Client.ListRepertoires()
	if err != nil {
		return err
	}
	for _, rep := range reps {
		s.Printf("%s: %d positions, %d moves, %d tags (rev %d)\n",
			display.ColorForSide(rep.Side), rep.Positions, rep.Moves, rep.Tags, rep.Revision)
		s.Printf("  new %d  scheduled %d  difficult %d\n",
			rep.Summary.New, rep.Summary.Scheduled, rep.Summary.Difficult)
	}
	return nil
}

func positionHandler(s *session.Session, args []string) error {
	if len(args) > 0 {
		fen, err := board.Normalize(strings.Join(args, " "))
		if err != nil {
			return err
		}
		s.Goto(fen)
	}

	pos, err := s.Client.GetPosition(s.Side, s.FEN)
	if err != nil {
		return err
	}
	showPosition(s, pos)
	return nil
}

func showPosition(s *session.Session, pos *core.PositionResponse) {
	s.Printf("\n")
	display.RenderBoard(s.Out, pos.Board, s.Side == "black")
	s.Printf("\n%s to move", display.ColorForSide(pos.Turn))
	if !pos.Known {
		s.Printf(" %s(not in repertoire)%s", display.Yellow(), display.Reset())
	}
	s.Printf("\n")

	if len(pos.Moves) > 0 {
		sans := make([]string, len(pos.Moves))
		for i, m := range pos.Moves {
			sans[i] = m.SAN
		}
		s.Printf("Moves: %s%s%s\n", display.Green(), strings.Join(sans, " "), display.Reset())
	}
	if pos.Annotations != nil && pos.Annotations.Comments != "" {
		s.Printf("Note: %s\n", pos.Annotations.Comments)
	}
}

func movesHandler(s *session.Session, _ []string) error {
	pos, err := s.Client.GetPosition(s.Side, s.FEN)
	if err != nil {
		return err
	}
	if len(pos.Moves) == 0 {
		s.Printf("No repertoire moves here\n")
		return nil
	}
	for _, m := range pos.Moves {
		s.Printf("  %s%-8s%s %s\n", display.Green(), m.SAN, display.Reset(), schedule(m.Record))
	}
	return nil
}

func schedule(rec *srs.Saved) string {
	if rec == nil || len(rec.History) == 0 {
		return "new"
	}
	status := fmt.Sprintf("%d reps, easiness %.2f", len(rec.History), rec.Easiness)
	if rec.ScheduledRepetitionTimestamp != nil {
		due := time.UnixMilli(*rec.ScheduledRepetitionTimestamp)
		status += ", due " + due.Format("2006-01-02")
	}
	return status
}

func addHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: add <san> [san...]")
	}
	for _, san := range args {
		resp, err := s.Client.AddMove(s.Side, s.FEN, san)
		if err != nil {
			return err
		}
		state := "added"
		if !resp.Added {
			state = "exists"
		}
		s.Printf("%s%s%s %s\n", display.Green(), resp.SAN, display.Reset(), state)
		s.Goto(resp.FEN)
	}
	return nil
}

func deleteHandler(s *session.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: del <san>")
	}
	resp, err := s.Client.DeleteMove(s.Side, s.FEN, args[0])
	if err != nil {
		return err
	}
	s.Printf("Deleted %s, %d positions removed\n", resp.SAN, len(resp.Removed))
	return nil
}

func goHandler(s *session.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: go <san>")
	}
	pos, err := s.Client.GetPosition(s.Side, s.FEN)
	if err != nil {
		return err
	}
	for _, m := range pos.Moves {
		if m.SAN == args[0] {
			s.Goto(m.FEN)
			return positionHandler(s, nil)
		}
	}
	// Moves outside the repertoire still browse
	mv, ok := board.ApplyMove(s.FEN, args[0])
	if !ok {
		return fmt.Errorf("illegal move: %s", args[0])
	}
	s.Goto(mv.FEN)
	return positionHandler(s, nil)
}

func backHandler(s *session.Session, args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("invalid count: %s", args[0])
		}
		n = v
	}
	if s.Back(n) == 0 {
		s.Printf("Already at the first position\n")
		return nil
	}
	return positionHandler(s, nil)
}

func variationsHandler(s *session.Session, _ []string) error {
	resp, err := s.Client.Variations(s.Side, s.FEN)
	if err != nil {
		return err
	}
	if len(resp.Variations) == 0 {
		s.Printf("No variations from here\n")
		return nil
	}
	for i, v := range resp.Variations {
		s.Printf("%3d. %s\n", i+1, moveText(v.SANs(), resp.FEN))
	}
	return nil
}

// moveText numbers moves only when they start from the initial position
func moveText(sans []string, fromFEN string) string {
	if board.IsStart(fromFEN) {
		return display.MoveList(sans, 0)
	}
	return strings.Join(sans, " ")
}

func noteHandler(s *session.Session, args []string) error {
	appendMode := len(args) > 0 && args[0] == "+"
	if appendMode {
		args = args[1:]
	}
	resp, err := s.Client.SetAnnotations(s.Side, core.AnnotationRequest{
		FEN:      s.FEN,
		Comments: strings.Join(args, " "),
		Append:   appendMode,
	})
	if err != nil {
		return err
	}
	if resp.Annotations != nil {
		s.Printf("Note: %s\n", resp.Annotations.Comments)
	}
	return nil
}

func exportHandler(s *session.Session, args []string) error {
	text, err := s.Client.ExportPGN(s.Side, s.FEN)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		s.Printf("%s\n", text)
		return nil
	}
	if err := os.WriteFile(args[0], []byte(text), 0o644); err != nil {
		return err
	}
	s.Printf("Wrote %s\n", args[0])
	return nil
}

func importHandler(s *session.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	resp, err := s.Client.ImportPGN(s.Side, string(data))
	if err != nil {
		return err
	}
	s.Printf("Imported %d games (%d skipped), %d moves\n", resp.Games, resp.Skipped, resp.Moves)
	return nil
}

func watchHandler(s *session.Session, _ []string) error {
	rep, err := s.Client.GetRepertoire(s.Side)
	if err != nil {
		return err
	}
	s.Printf("Waiting for changes after revision %d...\n", rep.Revision)
	resp, err := s.Client.Wait(s.Side, rep.Revision)
	if err != nil {
		return err
	}
	if !resp.Changed {
		s.Printf("No change\n")
		return nil
	}
	s.Printf("Repertoire changed, now at revision %d\n", resp.Revision)
	return nil
}
