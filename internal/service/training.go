// FILE: internal/service/training.go
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repertoire/internal/board"
	"repertoire/internal/srs"
	"repertoire/internal/storage"
	"repertoire/internal/tags"
	"repertoire/internal/training"
)

// SessionSpec selects the drills of a training session
type SessionSpec struct {
	Sides           []string // both sides when empty
	Modes           []srs.Mode
	DifficultyLimit float64 // the service default when zero
	WholeVariations bool
	Shuffle         bool
	Tag             string // "/"-separated tag path; needs exactly one side
}

// Session is a selected set of drills
type Session struct {
	ID     string
	Drills []training.Drill
}

// TrainingInput is one drilled move as reported by a client
type TrainingInput struct {
	SessionID      string
	Side           string
	FEN            string
	SAN            string
	Attempts       int
	Elapsed        time.Duration
	AttemptedMoves []string
	Grade          *srs.Grade // derived from Attempts and Elapsed when nil
}

// TrainingResult is the outcome of a recorded repetition
type TrainingResult struct {
	FEN    string
	SAN    string
	Grade  srs.Grade
	Record *srs.Record
}

// trainingOptions returns the selector defaults; callers hold s.mu
func (s *Service) trainingOptions() training.Options {
	return training.Options{
		Modes:           []srs.Mode{srs.ModeCram},
		DifficultyLimit: s.difficultyLimit,
		Now:             s.now(),
		Location:        s.location,
	}
}

// StartSession selects drills across the requested repertoires
func (s *Service) StartSession(req SessionSpec) (Session, error) {
	if len(req.Modes) == 0 {
		return Session{}, fmt.Errorf("%w: at least one mode is required", ErrInvalidRequest)
	}
	sides := req.Sides
	if len(sides) == 0 {
		sides = []string{board.White.String(), board.Black.String()}
	}
	if req.Tag != "" && len(sides) != 1 {
		return Session{}, fmt.Errorf("%w: a tag session needs exactly one side", ErrInvalidRequest)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	opts := s.trainingOptions()
	opts.Modes = req.Modes
	opts.WholeVariations = req.WholeVariations
	opts.Shuffle = req.Shuffle
	if req.DifficultyLimit > 0 {
		opts.DifficultyLimit = req.DifficultyLimit
	}

	var sources []training.Source
	seen := make(map[board.Color]bool)
	for _, side := range sides {
		rep, c, err := s.repertoireFor(side)
		if err != nil {
			return Session{}, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		if req.Tag != "" {
			t, err := rep.Tags().Find(tags.ParsePath(req.Tag))
			if err != nil {
				return Session{}, fmt.Errorf("%w: %s", err, req.Tag)
			}
			opts.StartFEN = t.FEN
		}
		sources = append(sources, rep)
	}

	session := Session{
		ID:     uuid.NewString(),
		Drills: training.Select(sources, opts),
	}
	s.metrics.SessionStarted()
	s.log.Info("training session started",
		zap.String("session", session.ID),
		zap.Strings("sides", sides),
		zap.Int("drills", len(session.Drills)))
	return session, nil
}

// RecordTraining grades a drilled move, updates its schedule and logs the
// event to storage
func (s *Service) RecordTraining(in TrainingInput) (TrainingResult, error) {
	if in.Grade == nil && in.Attempts < 1 {
		return TrainingResult{}, fmt.Errorf("%w: attempts must be at least 1", ErrInvalidRequest)
	}
	grade := training.DeriveGrade(in.Attempts, in.Elapsed)
	if in.Grade != nil {
		grade = *in.Grade
	}
	if !grade.IsValid() {
		return TrainingResult{}, fmt.Errorf("%w: %d", srs.ErrInvalidGrade, int(grade))
	}

	if err := s.lockWrite(); err != nil {
		return TrainingResult{}, err
	}
	defer s.mu.Unlock()

	rep, c, err := s.repertoireFor(in.Side)
	if err != nil {
		return TrainingResult{}, err
	}
	norm, err := normalize(in.FEN)
	if err != nil {
		return TrainingResult{}, err
	}

	attempt := srs.Attempt{
		Moves:   in.AttemptedMoves,
		Elapsed: in.Elapsed,
	}
	rec, err := rep.Train(norm, in.SAN, grade, attempt)
	if err != nil {
		return TrainingResult{}, err
	}
	s.commit(c, rep)

	ev, _ := rec.LastEvent()
	san, _ := hasMove(rep, norm, in.SAN)
	s.metrics.TrainingEvent(grade.String())
	if s.store != nil {
		s.store.RecordTrainingEvent(storage.TrainingEventRecord{
			SessionID:      in.SessionID,
			Repertoire:     rep.Name(),
			FEN:            norm,
			SAN:            san,
			Grade:          int(grade),
			Attempts:       in.Attempts,
			ElapsedMS:      in.Elapsed.Milliseconds(),
			AttemptedMoves: strings.Join(in.AttemptedMoves, " "),
			Easiness:       ev.Easiness,
			TrainedAt:      s.now(),
		})
	}
	s.log.Debug("training event",
		zap.String("repertoire", rep.Name()),
		zap.String("san", san),
		zap.String("grade", grade.String()))

	return TrainingResult{FEN: norm, SAN: san, Grade: grade, Record: rec}, nil
}
