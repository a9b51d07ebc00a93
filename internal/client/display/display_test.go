// FILE: internal/client/display/display_test.go
package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startASCII = `  a b c d e f g h
8 r n b q k b n r  8
7 p p p p p p p p  7
6 . . . . . . . .  6
5 . . . . . . . .  5
4 . . . . P . . .  4
3 . . . . . . . .  3
2 P P P P . P P P  2
1 R N B Q K B N R  1
  a b c d e f g h`

func TestRenderBoardPlain(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	RenderBoard(&buf, startASCII, false)
	assert.Equal(t, startASCII+"\n", buf.String())
}

func TestRenderBoardFlipped(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	RenderBoard(&buf, startASCII, true)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "  h g f e d c b a", lines[0])
	assert.Equal(t, "1 R N B K Q B N R  1", lines[1])
	assert.Equal(t, "4 . . . P . . . .  4", lines[4])
	assert.Equal(t, "8 r n b k q b n r  8", lines[8])
}

func TestColorToggle(t *testing.T) {
	SetColor(true)
	assert.Equal(t, codeRed, Red())
	SetColor(false)
	assert.Empty(t, Red())
	assert.Equal(t, "x > ", Prompt("x"))
}

func TestMoveList(t *testing.T) {
	assert.Equal(t, "1. e4 e5 2. Nf3", MoveList([]string{"e4", "e5", "Nf3"}, 0))
	assert.Equal(t, "1... e5 2. Nf3", MoveList([]string{"e5", "Nf3"}, 1))
	assert.Empty(t, MoveList(nil, 0))
}
