// FILE: internal/srs/mode.go
package srs

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects which moves a training session includes
type Mode int

const (
	ModeNew       Mode = iota // never trained
	ModeScheduled             // due today or earlier
	ModeCram                  // everything
	ModeDifficult             // trained, with low easiness
)

// DefaultDifficultyLimit is the easiness at or below which a move counts
// as difficult
const DefaultDifficultyLimit = 2.0

var modeNames = [...]string{
	ModeNew:       "new",
	ModeScheduled: "scheduled",
	ModeCram:      "cram",
	ModeDifficult: "difficult",
}

func (m Mode) String() string {
	if m >= ModeNew && m <= ModeDifficult {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts a mode name, case-insensitively
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if m < ModeNew || m > ModeDifficult {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return []byte(modeNames[m]), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Criteria carries the inputs of the inclusion predicates
type Criteria struct {
	Now             time.Time
	Location        *time.Location // calendar used for the scheduled check, time.Local when nil
	DifficultyLimit float64
}

// IsNew reports whether the move has never been trained
func (r *Record) IsNew() bool {
	return len(r.History) == 0
}

// IsScheduled reports whether the review date, as a calendar day in loc,
// is today or earlier. Untrained records are never scheduled.
func (r *Record) IsScheduled(now time.Time, loc *time.Location) bool {
	if r.ScheduledTimestamp == nil {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	return !midnight(time.UnixMilli(*r.ScheduledTimestamp), loc).After(midnight(now, loc))
}

// IsDifficult reports whether a trained move has easiness at or below limit
func (r *Record) IsDifficult(limit float64) bool {
	return len(r.History) > 0 && r.Easiness <= limit
}

// Matches evaluates a single mode
func (r *Record) Matches(m Mode, c Criteria) bool {
	switch m {
	case ModeNew:
		return r.IsNew()
	case ModeScheduled:
		return r.IsScheduled(c.Now, c.Location)
	case ModeCram:
		return true
	case ModeDifficult:
		return r.IsDifficult(c.DifficultyLimit)
	}
	return false
}

// MatchesAny reports whether r satisfies at least one of modes
func (r *Record) MatchesAny(modes []Mode, c Criteria) bool {
	for _, m := range modes {
		if r.Matches(m, c) {
			return true
		}
	}
	return false
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
