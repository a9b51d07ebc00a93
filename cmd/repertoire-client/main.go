// FILE: cmd/repertoire-client/main.go

// Package main implements the interactive repertoire shell.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"repertoire/internal/board"
	"repertoire/internal/client/commands"
	"repertoire/internal/client/display"
	"repertoire/internal/client/session"
)

// lineReader adapts readline to the session input
type lineReader struct {
	rl *readline.Instance
}

func (l *lineReader) ReadLine(prompt string) (string, error) {
	l.rl.SetPrompt(prompt)
	line, err := l.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

func (l *lineReader) ReadPassword(prompt string) (string, error) {
	pw, err := l.rl.ReadPassword(prompt)
	return string(pw), err
}

func main() {
	url := flag.String("url", "http://localhost:8080", "Server base URL")
	token := flag.String("token", os.Getenv("REPERTOIRE_TOKEN"), "Bearer token")
	side := flag.String("side", "white", "Repertoire to open")
	noColor := flag.Bool("no-color", false, "Disable ANSI colors")
	history := flag.String("history", defaultHistory(), "History file, empty to disable")
	flag.Parse()

	if *noColor {
		display.SetColor(false)
	}

	input := &lineReader{}
	s := session.New(*url, input)
	s.Client.SetToken(*token)
	if c, err := board.ParseColor(*side); err == nil {
		s.SetSide(c.String())
	}
	registry := commands.NewRegistry(s)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("repertoire"),
		HistoryFile:     *history,
		AutoComplete:    completer(registry.Names()),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", display.Red(), err, display.Reset())
		os.Exit(1)
	}
	defer rl.Close()
	input.rl = rl

	fmt.Printf("%sRepertoire Trainer%s\n", display.Cyan(), display.Reset())
	fmt.Printf("%sAPI: %s%s\n", display.Cyan(), s.Client.BaseURL, display.Reset())
	fmt.Printf("Type 'help' for commands\n\n")

	for {
		rl.SetPrompt(buildPrompt(s))
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// A trailing -v dumps raw requests and responses
		s.Verbose = strings.HasSuffix(line, " -v")
		line = strings.TrimSuffix(line, " -v")
		s.Client.SetVerbose(s.Verbose)

		if err := registry.Execute(line); errors.Is(err, commands.ErrExit) {
			break
		}
	}
}

func completer(names []string) *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func defaultHistory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".repertoire_history")
}

// buildPrompt shows user, repertoire, side to move and depth
func buildPrompt(s *session.Session) string {
	var b strings.Builder
	b.WriteString("repertoire")
	b.WriteString(display.Yellow() + " [" + display.Reset())
	if s.Username != "" {
		b.WriteString(display.Magenta() + s.Username + display.Reset() + display.Yellow() + " - " + display.Reset())
	}
	b.WriteString(display.ColorForSide(s.Side))
	b.WriteString(display.Yellow() + "]" + display.Reset())

	if s.Depth() > 0 {
		turn := board.SideToMove(s.FEN).String()
		fmt.Fprintf(&b, " ply %d, %s", s.Depth(), display.ColorForSide(turn))
	}
	return display.Prompt(b.String())
}
