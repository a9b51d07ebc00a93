// FILE: internal/client/commands/registry.go

// Package commands implements the interactive client's command set.
package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"repertoire/internal/client/display"
	"repertoire/internal/client/session"
)

// ErrExit ends the shell loop
var ErrExit = errors.New("exit")

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Group       string
	Handler     func(*session.Session, []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  *session.Session
	commands map[string]*Command
	order    []*Command
}

func NewRegistry(s *session.Session) *Registry {
	r := &Registry{
		session:  s,
		commands: make(map[string]*Command),
	}

	r.registerRepertoireCommands()
	r.registerTrainingCommands()
	r.registerUtilityCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Group:       groupUtility,
		Handler:     r.helpHandler,
	})

	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the client",
		Usage:       "exit",
		Group:       groupUtility,
		Handler: func(s *session.Session, _ []string) error {
			s.Printf("%sGoodbye!%s\n", display.Cyan(), display.Reset())
			return ErrExit
		},
	})

	return r
}

const (
	groupRepertoire = "Repertoire Commands"
	groupTraining   = "Training Commands"
	groupUtility    = "Utility Commands"
)

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
	r.order = append(r.order, cmd)
}

// Names lists command names for completion
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, cmd := range r.order {
		names = append(names, cmd.Name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one input line. It returns ErrExit when the shell should
// stop; other command errors are printed.
func (r *Registry) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd, exists := r.commands[parts[0]]
	if !exists {
		r.session.Printf("%sUnknown command: %s%s\n", display.Red(), parts[0], display.Reset())
		r.session.Printf("Type 'help' for available commands\n")
		return nil
	}

	r.session.Client.SetVerbose(r.session.Verbose)

	err := cmd.Handler(r.session, parts[1:])
	if errors.Is(err, ErrExit) {
		return ErrExit
	}
	if err != nil {
		r.session.Printf("%sError: %s%s\n", display.Red(), err.Error(), display.Reset())
	}
	return nil
}

func (r *Registry) helpHandler(s *session.Session, args []string) error {
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		s.Printf("\n%s%s%s - %s\n", display.Cyan(), cmd.Name, display.Reset(), cmd.Description)
		if cmd.ShortName != "" {
			s.Printf("Short form: %s%s%s\n", display.Cyan(), cmd.ShortName, display.Reset())
		}
		s.Printf("Usage: %s\n", cmd.Usage)
		return nil
	}

	s.Printf("\n%sAvailable Commands:%s\n", display.Cyan(), display.Reset())
	for _, group := range []string{groupRepertoire, groupTraining, groupUtility} {
		s.Printf("\n%s%s:%s\n", display.Yellow(), group, display.Reset())
		for _, cmd := range r.order {
			if cmd.Group != group {
				continue
			}
			shortPart := "    "
			if cmd.ShortName != "" {
				shortPart = fmt.Sprintf("[%s%s%s] ", display.Cyan(), cmd.ShortName, display.Reset())
			}
			s.Printf("  %s%-10s %s\n", shortPart, cmd.Name, cmd.Description)
		}
	}

	s.Printf("\nType 'help <command>' for detailed usage\n")
	s.Printf("Add '-v' to any command for verbose output\n")
	return nil
}
