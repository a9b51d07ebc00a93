// FILE: internal/client/display/format.go
package display

import (
	"encoding/json"
	"fmt"
	"io"
)

// PrettyPrintJSON writes v as indented JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red(), err.Error(), Reset())
		return
	}
	fmt.Fprintln(w, string(data))
}

// MoveList formats SAN moves with move numbers, starting at ply from
// (0 is white's first move)
func MoveList(sans []string, from int) string {
	var out []byte
	for i, san := range sans {
		ply := from + i
		if ply%2 == 0 {
			out = fmt.Appendf(out, "%d. ", ply/2+1)
		} else if i == 0 {
			out = fmt.Appendf(out, "%d... ", ply/2+1)
		}
		out = append(out, san...)
		if i < len(sans)-1 {
			out = append(out, ' ')
		}
	}
	return string(out)
}
