// FILE: internal/service/service_test.go
package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repertoire/internal/backup"
	"repertoire/internal/board"
	"repertoire/internal/graph"
	"repertoire/internal/metrics"
	"repertoire/internal/repertoire"
	"repertoire/internal/srs"
	"repertoire/internal/storage"
	"repertoire/internal/tags"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testNow }
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func openStore(t *testing.T, path string) *storage.Store {
	t.Helper()
	st, err := storage.NewStore(path, false, nil)
	require.NoError(t, err)
	require.NoError(t, st.InitDB())
	return st
}

func mustAdd(t *testing.T, s *Service, side, fen, san string) board.Move {
	t.Helper()
	m, added, _, err := s.AddMove(side, fen, san)
	require.NoError(t, err)
	require.True(t, added, san)
	return m
}

func TestAddMove(t *testing.T) {
	s := newTestService(t, Config{Metrics: metrics.New()})

	m, added, rev, err := s.AddMove("white", "", "e4")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, uint64(1), rev)
	assert.Equal(t, "e4", m.SAN)

	// Duplicate leaves the revision alone
	_, added, rev, err = s.AddMove("white", board.StartFEN, "e2e4")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, uint64(1), rev)

	_, _, _, err = s.AddMove("white", board.StartFEN, "e5")
	assert.ErrorIs(t, err, ErrIllegalMove)

	_, _, _, err = s.AddMove("white", "not a fen", "e5")
	assert.ErrorIs(t, err, ErrInvalidFEN)

	_, _, _, err = s.AddMove("white", "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq -", "d5")
	assert.ErrorIs(t, err, repertoire.ErrUnknownPosition)

	_, _, _, err = s.AddMove("green", board.StartFEN, "e4")
	assert.ErrorIs(t, err, ErrUnknownRepertoire)

	black, err := s.Revision("black")
	require.NoError(t, err)
	assert.Zero(t, black)
}

func TestPositionView(t *testing.T) {
	s := newTestService(t, Config{})
	e4 := mustAdd(t, s, "white", board.StartFEN, "e4")
	mustAdd(t, s, "white", e4.FEN, "e5")
	mustAdd(t, s, "white", e4.FEN, "c5")
	_, err := s.SetAnnotations("white", e4.FEN, graph.Annotation{Comments: "King's pawn"}, false)
	require.NoError(t, err)

	view, err := s.Position("white", e4.FEN)
	require.NoError(t, err)
	assert.True(t, view.Known)
	assert.Equal(t, []string{board.StartFEN}, view.Parents)
	require.Len(t, view.Moves, 2)
	assert.Equal(t, "e5", view.Moves[0].SAN)
	require.NotNil(t, view.Moves[0].Record)
	assert.True(t, view.Moves[0].Record.IsNew())
	require.NotNil(t, view.Annotation)
	assert.Equal(t, "King's pawn", view.Annotation.Comments)
	assert.Equal(t, uint64(4), view.Revision)

	unknown, err := s.Position("black", e4.FEN)
	require.NoError(t, err)
	assert.False(t, unknown.Known)
	assert.Empty(t, unknown.Moves)
	assert.Empty(t, unknown.Parents)

	_, err = s.SetAnnotations("black", e4.FEN, graph.Annotation{Comments: "x"}, false)
	assert.ErrorIs(t, err, repertoire.ErrUnknownPosition)
}

func TestDeleteMoveCascades(t *testing.T) {
	s := newTestService(t, Config{})
	e4 := mustAdd(t, s, "white", board.StartFEN, "e4")
	e5 := mustAdd(t, s, "white", e4.FEN, "e5")
	mustAdd(t, s, "white", e5.FEN, "Nf3")
	_, _, err := s.AddTag("white", "", "Open games", e5.FEN)
	require.NoError(t, err)

	san, removed, rev, err := s.DeleteMove("white", e4.FEN, "e7e5")
	require.NoError(t, err)
	assert.Equal(t, "e5", san)
	assert.Len(t, removed, 2)
	assert.Equal(t, uint64(5), rev)

	entries, err := s.Tags("white")
	require.NoError(t, err)
	assert.Empty(t, entries, "tag on a removed position is pruned")

	_, _, _, err = s.DeleteMove("white", e4.FEN, "e5")
	assert.ErrorIs(t, err, repertoire.ErrUnknownMove)
}

func TestTags(t *testing.T) {
	s := newTestService(t, Config{})
	e4 := mustAdd(t, s, "black", board.StartFEN, "e4")
	c5 := mustAdd(t, s, "black", e4.FEN, "c5")

	sicilian, _, err := s.AddTag("black", "", "Sicilian", c5.FEN)
	require.NoError(t, err)
	assert.Equal(t, "Sicilian", sicilian.Path)

	open, _, err := s.AddTag("black", "Sicilian", "Open", c5.FEN)
	require.NoError(t, err)
	assert.Equal(t, "Sicilian/Open", open.Path)

	_, _, err = s.AddTag("black", "", "Sicilian", c5.FEN)
	assert.ErrorIs(t, err, tags.ErrExists)

	_, err = s.RemoveTag("black", "French")
	assert.ErrorIs(t, err, tags.ErrNotFound)

	_, err = s.RemoveTag("black", "Sicilian")
	require.NoError(t, err)
	entries, err := s.Tags("black")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImportAndExportPGN(t *testing.T) {
	s := newTestService(t, Config{})
	stats, rev, err := s.ImportPGN("white", "1. e4 e5 (1... c5 2. Nf3) 2. Nf3 Nc6 *")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Games)
	assert.Equal(t, 6, stats.Moves)
	assert.Equal(t, uint64(1), rev)

	text, err := s.PGN("white", "")
	require.NoError(t, err)
	assert.Contains(t, text, "1. e4 e5 (1... c5 2. Nf3) 2. Nf3 Nc6 *")

	_, _, err = s.ImportPGN("white", "1. e4 (e5")
	assert.Error(t, err)
	rev, err = s.Revision("white")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)

	_, variations, err := s.Variations("white", "")
	require.NoError(t, err)
	assert.Len(t, variations, 2)

	_, desc, err := s.Descendants("white", "")
	require.NoError(t, err)
	assert.Len(t, desc, 6)
}

func TestTrainingFlow(t *testing.T) {
	s := newTestService(t, Config{Metrics: metrics.New()})
	e4 := mustAdd(t, s, "white", board.StartFEN, "e4")
	e5 := mustAdd(t, s, "white", e4.FEN, "e5")
	mustAdd(t, s, "white", e5.FEN, "Nf3")

	session, err := s.StartSession(SessionSpec{Modes: []srs.Mode{srs.ModeNew}})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	require.Len(t, session.Drills, 2, "e4 and Nf3 are white's moves")

	res, err := s.RecordTraining(TrainingInput{
		Side:     "white",
		FEN:      board.StartFEN,
		SAN:      "e2e4",
		Attempts: 1,
		Elapsed:  time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, srs.Perfect, res.Grade)
	assert.Equal(t, "e4", res.SAN)
	assert.Equal(t, 1, res.Record.EffectiveIndex)
	assert.InDelta(t, 2.6, res.Record.Easiness, 1e-9)

	session, err = s.StartSession(SessionSpec{Modes: []srs.Mode{srs.ModeNew}, Sides: []string{"white"}})
	require.NoError(t, err)
	require.Len(t, session.Drills, 1)
	assert.Equal(t, "Nf3", session.Drills[0].Moves[0].SAN)

	bad := srs.Grade(7)
	_, err = s.RecordTraining(TrainingInput{Side: "white", FEN: board.StartFEN, SAN: "e4", Grade: &bad})
	assert.ErrorIs(t, err, srs.ErrInvalidGrade)

	_, err = s.RecordTraining(TrainingInput{Side: "white", FEN: board.StartFEN, SAN: "e4"})
	assert.ErrorIs(t, err, ErrInvalidRequest, "zero attempts must not grade as a first-try success")

	_, err = s.RecordTraining(TrainingInput{Side: "white", FEN: board.StartFEN, SAN: "d4", Attempts: 1})
	assert.ErrorIs(t, err, repertoire.ErrUnknownMove)

	_, err = s.StartSession(SessionSpec{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = s.StartSession(SessionSpec{Modes: []srs.Mode{srs.ModeCram}, Tag: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTagScopedSession(t *testing.T) {
	s := newTestService(t, Config{})
	e4 := mustAdd(t, s, "white", board.StartFEN, "e4")
	e5 := mustAdd(t, s, "white", e4.FEN, "e5")
	mustAdd(t, s, "white", e5.FEN, "Nf3")
	c5 := mustAdd(t, s, "white", e4.FEN, "c5")
	mustAdd(t, s, "white", c5.FEN, "c3")
	_, _, err := s.AddTag("white", "", "Alapin", c5.FEN)
	require.NoError(t, err)

	session, err := s.StartSession(SessionSpec{Modes: []srs.Mode{srs.ModeNew}, Sides: []string{"white"}, Tag: "Alapin"})
	require.NoError(t, err)
	require.Len(t, session.Drills, 1)
	assert.Equal(t, "c3", session.Drills[0].Moves[0].SAN)

	_, err = s.StartSession(SessionSpec{Modes: []srs.Mode{srs.ModeNew}, Sides: []string{"white"}, Tag: "French"})
	assert.ErrorIs(t, err, tags.ErrNotFound)
}

func TestWait(t *testing.T) {
	s := newTestService(t, Config{WaitTimeout: 50 * time.Millisecond})

	rev, changed, err := s.Wait(context.Background(), "white", 7)
	require.NoError(t, err)
	assert.True(t, changed, "known revision differs")
	assert.Zero(t, rev)

	rev, changed, err = s.Wait(context.Background(), "white", 0)
	require.NoError(t, err)
	assert.False(t, changed, "timed out")
	assert.Zero(t, rev)

	done := make(chan uint64, 1)
	go func() {
		r, _, _ := s.Wait(context.Background(), "black", 0)
		done <- r
	}()
	require.Eventually(t, func() bool { return s.waiter.Count("black") == 1 }, time.Second, 5*time.Millisecond)
	mustAdd(t, s, "black", board.StartFEN, "d4")
	select {
	case r := <-done:
		assert.Equal(t, uint64(1), r)
	case <-time.After(time.Second):
		t.Fatal("waiter not woken")
	}
	assert.Zero(t, s.waiter.Count("black"))
}

func TestWaitReleasedOnShutdown(t *testing.T) {
	s := newTestService(t, Config{})
	done := make(chan struct{})
	go func() {
		s.Wait(context.Background(), "white", 0)
		close(done)
	}()
	require.Eventually(t, func() bool { return s.waiter.Count("white") == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Shutdown(time.Second))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
}

func TestMutationsRejectedAfterShutdown(t *testing.T) {
	s := newTestService(t, Config{})
	_, _, _, err := s.AddMove("white", "", "e4")
	require.NoError(t, err)
	require.NoError(t, s.Shutdown(time.Second))

	_, _, _, err = s.AddMove("white", "", "d4")
	assert.ErrorIs(t, err, ErrShuttingDown)
	_, _, err = s.ImportPGN("white", "1. c4 *")
	assert.ErrorIs(t, err, ErrShuttingDown)
	_, err = s.RecordTraining(TrainingInput{Side: "white", FEN: board.StartFEN, SAN: "e4", Attempts: 1})
	assert.ErrorIs(t, err, ErrShuttingDown)

	// Reads keep working while the HTTP server drains
	view, err := s.Position("white", "")
	require.NoError(t, err)
	assert.Len(t, view.Moves, 1)
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rep.db")
	s := newTestService(t, Config{Store: openStore(t, path)})
	assert.Equal(t, "ok", s.GetStorageHealth())

	e4 := mustAdd(t, s, "white", board.StartFEN, "e4")
	mustAdd(t, s, "white", e4.FEN, "c5")
	_, err := s.RecordTraining(TrainingInput{Side: "white", FEN: board.StartFEN, SAN: "e4", Attempts: 1, Elapsed: 3 * time.Second})
	require.NoError(t, err)
	require.NoError(t, s.Shutdown(time.Second))

	st := openStore(t, path)
	events, err := st.QueryTrainingEvents("white", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int(srs.CorrectHesitant), events[0].Grade)

	restored := newTestService(t, Config{Store: st})
	require.NoError(t, restored.Load())
	defer restored.Shutdown(time.Second)

	rev, err := restored.Revision("white")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rev)

	_, _, rec, err := restored.Record("white", board.StartFEN, "e4")
	require.NoError(t, err)
	assert.Len(t, rec.History, 1)

	view, err := restored.Position("white", e4.FEN)
	require.NoError(t, err)
	require.Len(t, view.Moves, 1)
	assert.Equal(t, "c5", view.Moves[0].SAN)
}

func TestBackupAndRestoreFromBackup(t *testing.T) {
	dir := t.TempDir()
	rot, err := backup.NewRotator(dir, backup.Retention{Daily: 3}, backup.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	s := newTestService(t, Config{Backups: rot, Metrics: metrics.New()})
	mustAdd(t, s, "black", board.StartFEN, "e4")
	paths, err := s.Backup()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "white-2024-06-01.json.zst"),
		filepath.Join(dir, "black-2024-06-01.json.zst"),
	}, paths)
	require.NoError(t, s.Shutdown(time.Second))

	rot, err = backup.NewRotator(dir, backup.Retention{Daily: 3})
	require.NoError(t, err)
	restored := newTestService(t, Config{Backups: rot})
	require.NoError(t, restored.Load())
	defer restored.Shutdown(time.Second)

	view, err := restored.Position("black", "")
	require.NoError(t, err)
	require.Len(t, view.Moves, 1)
	assert.Equal(t, "e4", view.Moves[0].SAN)

	none := newTestService(t, Config{})
	_, err = none.Backup()
	assert.ErrorIs(t, err, ErrBackupsDisabled)
}

func TestRestoreAndExport(t *testing.T) {
	s := newTestService(t, Config{})
	mustAdd(t, s, "white", board.StartFEN, "d4")
	data, err := s.Export("white")
	require.NoError(t, err)

	other := newTestService(t, Config{})
	stats, rev, err := other.Restore("white", data)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Moves)
	assert.Equal(t, uint64(1), rev)

	_, _, err = other.Restore("black", data)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, _, err = other.Restore("white", []byte("{"))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAuth(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	s := newTestService(t, Config{
		Store:  openStore(t, filepath.Join(t.TempDir(), "auth.db")),
		Secret: secret,
	})
	defer s.Shutdown(time.Second)
	assert.True(t, s.AuthEnabled())

	_, err := s.CreateUser(" coach ", "s3cret")
	require.NoError(t, err)

	_, err = s.Login("coach", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tok, err := s.Login("COACH", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "coach", tok.Username)
	assert.Equal(t, testNow.Add(DefaultTokenTTL), tok.ExpiresAt)

	userID, claims, err := s.ValidateToken(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, tok.UserID, userID)
	assert.Equal(t, "coach", claims["username"])

	issued, err := s.IssueToken("coach")
	require.NoError(t, err)
	assert.Equal(t, tok.UserID, issued.UserID)

	_, _, err = s.ValidateToken(tok.Value + "x")
	assert.Error(t, err)
}

func TestAuthDisabled(t *testing.T) {
	s := newTestService(t, Config{})
	assert.False(t, s.AuthEnabled())
	assert.Equal(t, "disabled", s.GetStorageHealth())
	_, err := s.Login("a", "b")
	assert.ErrorIs(t, err, ErrAuthDisabled)
	_, err = s.CreateUser("a", "b")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestRepertoiresOverview(t *testing.T) {
	s := newTestService(t, Config{})
	mustAdd(t, s, "white", board.StartFEN, "e4")

	all := s.Repertoires()
	require.Len(t, all, 2)
	assert.Equal(t, "white", all[0].Stats.Side)
	assert.Equal(t, 1, all[0].Stats.Moves)
	assert.Equal(t, 1, all[0].Summary.New)
	assert.Equal(t, uint64(1), all[0].Revision)
	assert.Equal(t, board.StartFEN, all[1].Root)

	_, err := s.Overview("purple")
	assert.ErrorIs(t, err, ErrUnknownRepertoire)
}
