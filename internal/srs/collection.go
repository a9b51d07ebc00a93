// FILE: internal/srs/collection.go
package srs

// Collection holds the records of a repertoire keyed by position, then move
type Collection map[string]map[string]*Record

// Get returns the record of (fen, san)
func (c Collection) Get(fen, san string) (*Record, bool) {
	r, ok := c[fen][san]
	return r, ok
}

// Ensure returns the record of (fen, san), creating an untrained one
func (c Collection) Ensure(fen, san string) *Record {
	moves, ok := c[fen]
	if !ok {
		moves = make(map[string]*Record)
		c[fen] = moves
	}
	r, ok := moves[san]
	if !ok {
		r = NewRecord()
		moves[san] = r
	}
	return r
}

// Delete drops the record of (fen, san)
func (c Collection) Delete(fen, san string) {
	moves, ok := c[fen]
	if !ok {
		return
	}
	delete(moves, san)
	if len(moves) == 0 {
		delete(c, fen)
	}
}

// DeletePosition drops every record of moves out of fen
func (c Collection) DeletePosition(fen string) {
	delete(c, fen)
}

// Len returns the number of records
func (c Collection) Len() int {
	n := 0
	for _, moves := range c {
		n += len(moves)
	}
	return n
}

// AsSaved serializes every record
func (c Collection) AsSaved() map[string]map[string]Saved {
	out := make(map[string]map[string]Saved, len(c))
	for fen, moves := range c {
		m := make(map[string]Saved, len(moves))
		for san, r := range moves {
			m[san] = r.AsSaved()
		}
		out[fen] = m
	}
	return out
}

// CollectionFromSaved restores a collection
func CollectionFromSaved(saved map[string]map[string]Saved) Collection {
	c := make(Collection, len(saved))
	for fen, moves := range saved {
		m := make(map[string]*Record, len(moves))
		for san, s := range moves {
			m[san] = FromSaved(s)
		}
		c[fen] = m
	}
	return c
}
