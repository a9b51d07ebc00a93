// FILE: internal/srs/record.go
package srs

import (
	"fmt"
	"math"
	"time"
)

const (
	InitialEasiness = 2.5
	MinEasiness     = 1.3

	// FirstInterval and SecondInterval are the fixed intervals, in days, of
	// the first two repetitions after a reset
	FirstInterval  = 1.0
	SecondInterval = 4.0

	DayMilliseconds int64 = 86_400_000

	// FarFuture is the largest timestamp a JavaScript Date can hold; every
	// schedule is clamped to it
	FarFuture int64 = 8_640_000_000_000_000

	maxIntervalDays = float64(FarFuture / DayMilliseconds)
)

// Event is one recorded training attempt
type Event struct {
	Easiness            float64  `json:"easiness"` // easiness after the event
	Grade               Grade    `json:"grade"`
	Timestamp           int64    `json:"timestamp"`
	AttemptedMoves      []string `json:"attemptedMoves"`
	ElapsedMilliseconds int64    `json:"elapsedMilliseconds"`
}

// Attempt describes how the user answered: the moves tried before and
// including the correct one, and the response time
type Attempt struct {
	Moves   []string
	Elapsed time.Duration
}

// Record is the SM-2 state of one repertoire move
type Record struct {
	Easiness             float64
	EffectiveIndex       int
	PreviousIntervalDays *float64 // nil before the first event
	ScheduledTimestamp   *int64   // epoch millis, nil before the first event
	History              []Event
}

// NewRecord returns an untrained record
func NewRecord() *Record {
	return &Record{
		Easiness: InitialEasiness,
		History:  []Event{},
	}
}

// AddTrainingEvent applies one graded repetition at clock value now (epoch
// millis). A failing grade restarts the interval ladder; easiness is
// updated for every grade and never drops below MinEasiness.
func (r *Record) AddTrainingEvent(grade Grade, attempt Attempt, now int64) error {
	if !grade.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}

	q := float64(Perfect - grade)
	r.Easiness = math.Max(MinEasiness, r.Easiness+(0.1-q*(0.08+q*0.02)))

	if grade.Passed() {
		r.EffectiveIndex++
	} else {
		r.EffectiveIndex = 1
	}

	interval := r.nextInterval()
	r.PreviousIntervalDays = &interval

	scheduled := FarFuture
	if interval < maxIntervalDays {
		if ms := int64(interval) * DayMilliseconds; now <= FarFuture-ms {
			scheduled = now + ms
		}
	}
	r.ScheduledTimestamp = &scheduled

	r.History = append(r.History, Event{
		Easiness:            r.Easiness,
		Grade:               grade,
		Timestamp:           now,
		AttemptedMoves:      append([]string{}, attempt.Moves...),
		ElapsedMilliseconds: attempt.Elapsed.Milliseconds(),
	})
	return nil
}

// nextInterval selects the interval for the current repetition index,
// capped so the value always stays representable
func (r *Record) nextInterval() float64 {
	switch {
	case r.EffectiveIndex <= 1:
		return FirstInterval
	case r.EffectiveIndex == 2:
		return SecondInterval
	}
	prev := FirstInterval
	if r.PreviousIntervalDays != nil {
		prev = *r.PreviousIntervalDays
	}
	return math.Min(math.Ceil(prev*r.Easiness), maxIntervalDays)
}

// LastEvent returns the most recent training event
func (r *Record) LastEvent() (Event, bool) {
	if len(r.History) == 0 {
		return Event{}, false
	}
	return r.History[len(r.History)-1], true
}

// Scheduled returns the next review time, if any
func (r *Record) Scheduled() (time.Time, bool) {
	if r.ScheduledTimestamp == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*r.ScheduledTimestamp), true
}

// Clone returns a deep copy
func (r *Record) Clone() *Record {
	out := &Record{
		Easiness:       r.Easiness,
		EffectiveIndex: r.EffectiveIndex,
		History:        make([]Event, len(r.History)),
	}
	if r.PreviousIntervalDays != nil {
		v := *r.PreviousIntervalDays
		out.PreviousIntervalDays = &v
	}
	if r.ScheduledTimestamp != nil {
		v := *r.ScheduledTimestamp
		out.ScheduledTimestamp = &v
	}
	for i, e := range r.History {
		e.AttemptedMoves = append([]string{}, e.AttemptedMoves...)
		out.History[i] = e
	}
	return out
}
