// FILE: internal/srs/grade.go
package srs

import "fmt"

// Grade is the SM-2 response quality, 0 (blackout) to 5 (perfect)
type Grade int

const (
	Blackout Grade = iota
	Incorrect
	IncorrectEasy // wrong, but the answer felt familiar once shown
	CorrectHard
	CorrectHesitant
	Perfect
)

var gradeNames = [...]string{
	Blackout:        "blackout",
	Incorrect:       "incorrect",
	IncorrectEasy:   "incorrect-easy",
	CorrectHard:     "correct-hard",
	CorrectHesitant: "correct-hesitant",
	Perfect:         "perfect",
}

func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// IsValid reports whether g is in 0..5
func (g Grade) IsValid() bool {
	return g >= Blackout && g <= Perfect
}

// Passed reports whether g counts as a successful recall
func (g Grade) Passed() bool {
	return g >= CorrectHard
}
