// FILE: cmd/repertoire-server/cli/cli_test.go
package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func TestUserLifecycle(t *testing.T) {
	out := capture(t)
	db := filepath.Join(t.TempDir(), "rep.db")

	require.NoError(t, Run([]string{"init", "-path", db}))
	require.NoError(t, Run([]string{"user", "add", "-path", db, "-username", "coach", "-password", "longenough"}))
	assert.Contains(t, out.String(), "Username: coach")

	err := Run([]string{"user", "add", "-path", db, "-username", "coach", "-password", "longenough"})
	assert.Error(t, err)

	out.Reset()
	require.NoError(t, Run([]string{"user", "list", "-path", db}))
	assert.Contains(t, out.String(), "coach")
	assert.Contains(t, out.String(), "never")
	assert.Contains(t, out.String(), "Total: 1 user(s)")

	require.NoError(t, Run([]string{"user", "set-password", "-path", db, "-username", "coach", "-password", "evenlonger"}))

	out.Reset()
	require.NoError(t, Run([]string{"token", "-path", db, "-username", "coach", "-secret", testSecret}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 2, strings.Count(lines[1], "."), "expected a JWT")

	require.NoError(t, Run([]string{"user", "delete", "-path", db, "-username", "coach"}))
	err = Run([]string{"user", "delete", "-path", db, "-username", "coach"})
	assert.ErrorContains(t, err, "user not found")
}

func TestPasswordRules(t *testing.T) {
	capture(t)
	db := filepath.Join(t.TempDir(), "rep.db")
	require.NoError(t, Run([]string{"init", "-path", db}))

	assert.ErrorContains(t, Run([]string{"user", "add", "-path", db, "-username", "a", "-password", "short"}),
		"at least 8 characters")
	assert.ErrorContains(t, Run([]string{"user", "add", "-path", db, "-username", "a"}),
		"password required")
	assert.ErrorContains(t, Run([]string{"user", "add", "-path", db, "-username", "a", "-password", "longenough", "-hash", "x"}),
		"only one of")
	assert.ErrorContains(t, Run([]string{"user", "add", "-path", db, "-username", "a", "-hash", "not-a-phc-hash"}),
		"invalid hash")

	prev := readPassword
	readPassword = func(string) (string, error) { return "typedsecret", nil }
	t.Cleanup(func() { readPassword = prev })
	assert.NoError(t, Run([]string{"user", "add", "-path", db, "-username", "a", "-interactive"}))
}

func TestQueryEmptyStore(t *testing.T) {
	out := capture(t)
	db := filepath.Join(t.TempDir(), "rep.db")
	require.NoError(t, Run([]string{"init", "-path", db}))

	require.NoError(t, Run([]string{"query", "-path", db}))
	assert.Contains(t, out.String(), "No repertoires stored")
	assert.Contains(t, out.String(), "No training events")
}

func TestArgumentErrors(t *testing.T) {
	capture(t)
	assert.Error(t, Run(nil))
	assert.ErrorContains(t, Run([]string{"bogus"}), "unknown subcommand")
	assert.ErrorContains(t, Run([]string{"init"}), "database path required")
	assert.ErrorContains(t, Run([]string{"token", "-path", "x.db", "-username", "u", "-secret", "short"}),
		"at least 32 bytes")
}
