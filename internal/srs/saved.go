// FILE: internal/srs/saved.go
package srs

// Saved is the JSON form of a Record
type Saved struct {
	Easiness                     float64  `json:"easiness"`
	EffectiveTrainingIndex       int      `json:"effectiveTrainingIndex"`
	PreviousIntervalDays         *float64 `json:"previousIntervalDays,omitempty"`
	ScheduledRepetitionTimestamp *int64   `json:"scheduledRepetitionTimestamp,omitempty"`
	History                      []Event  `json:"history"`
}

// AsSaved serializes the record with its schedule clamped to FarFuture
func (r *Record) AsSaved() Saved {
	c := r.Clone()
	if c.ScheduledTimestamp != nil && *c.ScheduledTimestamp > FarFuture {
		*c.ScheduledTimestamp = FarFuture
	}
	return Saved{
		Easiness:                     c.Easiness,
		EffectiveTrainingIndex:       c.EffectiveIndex,
		PreviousIntervalDays:         c.PreviousIntervalDays,
		ScheduledRepetitionTimestamp: c.ScheduledTimestamp,
		History:                      c.History,
	}
}

// FromSaved restores a record. Missing history decodes as empty.
func FromSaved(s Saved) *Record {
	r := (&Record{
		Easiness:             s.Easiness,
		EffectiveIndex:       s.EffectiveTrainingIndex,
		PreviousIntervalDays: s.PreviousIntervalDays,
		ScheduledTimestamp:   s.ScheduledRepetitionTimestamp,
		History:              s.History,
	}).Clone()
	if r.ScheduledTimestamp != nil && *r.ScheduledTimestamp > FarFuture {
		*r.ScheduledTimestamp = FarFuture
	}
	return r
}
