// FILE: internal/training/grade.go
package training

import (
	"time"

	"repertoire/internal/srs"
)

const (
	fastAnswer = 2 * time.Second
	slowAnswer = 10 * time.Second
)

// DeriveGrade maps the number of attempts needed (1 for a first-try
// success) and the response time onto an SM-2 grade
func DeriveGrade(attempts int, elapsed time.Duration) srs.Grade {
	switch {
	case attempts <= 1:
		switch {
		case elapsed < fastAnswer:
			return srs.Perfect
		case elapsed < slowAnswer:
			return srs.CorrectHesitant
		default:
			return srs.CorrectHard
		}
	case attempts == 2:
		if elapsed < slowAnswer {
			return srs.IncorrectEasy
		}
		return srs.Incorrect
	default:
		return srs.Blackout
	}
}
