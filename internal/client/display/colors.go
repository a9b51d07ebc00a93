// FILE: internal/client/display/colors.go

// Package display renders boards and colored output for the terminal client.
package display

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// Terminal color codes
const (
	codeReset   = "\033[0m"
	codeRed     = "\033[31m"
	codeGreen   = "\033[32m"
	codeYellow  = "\033[33m"
	codeBlue    = "\033[34m"
	codeMagenta = "\033[35m"
	codeCyan    = "\033[36m"
	codeWhite   = "\033[37m"
)

var colorEnabled atomic.Bool

func init() {
	colorEnabled.Store(term.IsTerminal(int(os.Stdout.Fd())))
}

// SetColor forces colored output on or off
func SetColor(on bool) {
	colorEnabled.Store(on)
}

func ColorEnabled() bool {
	return colorEnabled.Load()
}

func code(c string) string {
	if colorEnabled.Load() {
		return c
	}
	return ""
}

func Reset() string   { return code(codeReset) }
func Red() string     { return code(codeRed) }
func Green() string   { return code(codeGreen) }
func Yellow() string  { return code(codeYellow) }
func Blue() string    { return code(codeBlue) }
func Magenta() string { return code(codeMagenta) }
func Cyan() string    { return code(codeCyan) }
func White() string   { return code(codeWhite) }

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Yellow() + text + " > " + Reset()
}
