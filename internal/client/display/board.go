// FILE: internal/client/display/board.go
package display

import (
	"fmt"
	"io"
	"strings"
)

// RenderBoard writes an ASCII board with colored pieces. Flipped boards are
// drawn from black's side.
func RenderBoard(w io.Writer, asciiBoard string, flipped bool) {
	lines := strings.Split(asciiBoard, "\n")
	if flipped {
		lines = flip(lines)
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		isFileLine := i == 0 || i == len(lines)-1

		for _, char := range line {
			switch {
			case char >= 'a' && char <= 'h' && isFileLine:
				fmt.Fprintf(w, "%s%c%s", Cyan(), char, Reset())
			case char >= 'A' && char <= 'Z':
				fmt.Fprintf(w, "%s%c%s", Blue(), char, Reset())
			case char >= 'a' && char <= 'z':
				fmt.Fprintf(w, "%s%c%s", Red(), char, Reset())
			case char >= '1' && char <= '8':
				fmt.Fprintf(w, "%s%c%s", Cyan(), char, Reset())
			default:
				fmt.Fprintf(w, "%c", char)
			}
		}
		fmt.Fprintln(w)
	}
}

// flip turns the board around: rank order and file order both reverse
func flip(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "a" {
			out = append(out, "  "+strings.Join(reversed(fields), " "))
			continue
		}
		if len(fields) < 10 {
			out = append(out, lines[i])
			continue
		}
		label := fields[0]
		squares := reversed(fields[1:9])
		out = append(out, label+" "+strings.Join(squares, " ")+"  "+label)
	}
	return out
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// ColorForSide returns a colored side name
func ColorForSide(side string) string {
	if side == "white" {
		return Blue() + "White" + Reset()
	}
	return Red() + "Black" + Reset()
}
