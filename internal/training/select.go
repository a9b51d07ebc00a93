// FILE: internal/training/select.go
package training

import (
	"math/rand"
	"strings"
	"time"

	"repertoire/internal/board"
	"repertoire/internal/graph"
	"repertoire/internal/srs"
)

// Source is a repertoire as seen by the selector
type Source interface {
	Name() string
	Side() board.Color
	Root() string
	Variations(fen string) []graph.Variation
	Record(fen, san string) (*srs.Record, bool)
}

// Options controls a selection
type Options struct {
	Modes           []srs.Mode
	// DifficultyLimit is the easiness at or below which a move is difficult.
	// Zero selects srs.DefaultDifficultyLimit; easiness never drops below
	// srs.MinEasiness, so any limit under it disables the difficult mode.
	DifficultyLimit float64
	// WholeVariations returns runs of consecutive qualifying moves instead
	// of single moves
	WholeVariations bool
	Shuffle         bool
	Rand            *rand.Rand // used for shuffling, a time-seeded source when nil
	Now             time.Time  // time.Now when zero
	Location        *time.Location
	StartFEN        string // each source's root when empty
}

// Drill is one unit of a training session
type Drill struct {
	Repertoire string          `json:"repertoire"`
	Side       string          `json:"side"`
	Moves      graph.Variation `json:"moves"`
}

// UserMoves returns the number of moves the trainee has to play
func (d Drill) UserMoves() int {
	n := 0
	for _, m := range d.Moves {
		if d.Side == board.SideToMove(m.SourceFEN).String() {
			n++
		}
	}
	return n
}

func (o Options) criteria() srs.Criteria {
	c := srs.Criteria{
		Now:             o.Now,
		Location:        o.Location,
		DifficultyLimit: o.DifficultyLimit,
	}
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	if c.DifficultyLimit == 0 {
		c.DifficultyLimit = srs.DefaultDifficultyLimit
	}
	return c
}

// Select walks every variation of every source and returns the drills whose
// moves qualify under at least one of the requested modes. Only moves of
// the repertoire's side are judged; opponent replies ride along. Moves
// without a record never qualify.
func Select(sources []Source, opts Options) []Drill {
	c := opts.criteria()
	drills := []Drill{}
	seen := make(map[string]bool)

	for _, src := range sources {
		start := opts.StartFEN
		if start == "" {
			start = src.Root()
		}
		side := src.Side()

		qualifies := func(m graph.VariationMove) bool {
			r, ok := src.Record(m.SourceFEN, m.SAN)
			return ok && r.MatchesAny(opts.Modes, c)
		}
		isUser := func(m graph.VariationMove) bool {
			return board.SideToMove(m.SourceFEN) == side
		}

		emit := func(moves graph.Variation) {
			key := src.Name() + "|" + moves[0].SourceFEN + "|" + strings.Join(moves.SANs(), " ")
			if seen[key] {
				return
			}
			seen[key] = true
			drills = append(drills, Drill{
				Repertoire: src.Name(),
				Side:       side.String(),
				Moves:      append(graph.Variation(nil), moves...),
			})
		}

		for _, v := range src.Variations(start) {
			if opts.WholeVariations {
				for _, run := range runs(v, isUser, qualifies) {
					emit(run)
				}
				continue
			}
			for _, m := range v {
				if isUser(m) && qualifies(m) {
					emit(graph.Variation{m})
				}
			}
		}
	}

	if opts.Shuffle {
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		rng.Shuffle(len(drills), func(i, j int) { drills[i], drills[j] = drills[j], drills[i] })
	}
	return drills
}

// runs splits v at every user move that fails to qualify. Trailing opponent
// moves are trimmed and runs with no user move are dropped.
func runs(v graph.Variation, isUser, qualifies func(graph.VariationMove) bool) []graph.Variation {
	var out []graph.Variation
	var cur graph.Variation

	flush := func() {
		last := len(cur) - 1
		for last >= 0 && !isUser(cur[last]) {
			last--
		}
		if last >= 0 {
			out = append(out, cur[:last+1])
		}
		cur = nil
	}

	for _, m := range v {
		if isUser(m) && !qualifies(m) {
			flush()
			continue
		}
		cur = append(cur, m)
	}
	flush()
	return out
}

// Summary counts the user moves of a repertoire per mode
type Summary struct {
	Moves     int `json:"moves"`
	New       int `json:"new"`
	Scheduled int `json:"scheduled"`
	Difficult int `json:"difficult"`
}

// Summarize counts the distinct user moves reachable from the source root
func Summarize(src Source, opts Options) Summary {
	c := opts.criteria()
	var s Summary
	seen := make(map[string]bool)
	side := src.Side()
	for _, v := range src.Variations(src.Root()) {
		for _, m := range v {
			if board.SideToMove(m.SourceFEN) != side || seen[m.SourceFEN+"|"+m.SAN] {
				continue
			}
			seen[m.SourceFEN+"|"+m.SAN] = true
			s.Moves++
			r, ok := src.Record(m.SourceFEN, m.SAN)
			if !ok {
				continue
			}
			if r.IsNew() {
				s.New++
			}
			if r.IsScheduled(c.Now, c.Location) {
				s.Scheduled++
			}
			if r.IsDifficult(c.DifficultyLimit) {
				s.Difficult++
			}
		}
	}
	return s
}
