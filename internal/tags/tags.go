// FILE: internal/tags/tags.go

// Package tags keeps a tree of named bookmarks onto repertoire positions.
package tags

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("tags: tag not found")
	ErrExists   = errors.New("tags: tag already exists")
	ErrEmpty    = errors.New("tags: empty tag name")
)

// PathSeparator separates tag names in a textual path
const PathSeparator = "/"

// Tag names a position; children refine it
type Tag struct {
	Name     string `json:"name"`
	FEN      string `json:"fen"`
	Children []*Tag `json:"children"`
}

// Tree is an ordered forest of tags. The zero value is empty and ready.
type Tree struct {
	roots []*Tag
}

// ParsePath splits "a/b/c" into its names; blank segments are dropped
func ParsePath(s string) []string {
	var path []string
	for _, p := range strings.Split(s, PathSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			path = append(path, p)
		}
	}
	return path
}

// Roots returns the top-level tags
func (t *Tree) Roots() []*Tag {
	return t.roots
}

// Add creates a tag named name under parent (nil for top level)
func (t *Tree) Add(parent []string, name, fen string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmpty
	}

	siblings := &t.roots
	if len(parent) > 0 {
		p, err := t.Find(parent)
		if err != nil {
			return nil, err
		}
		siblings = &p.Children
	}
	for _, s := range *siblings {
		if s.Name == name {
			return nil, fmt.Errorf("%w: %s", ErrExists, name)
		}
	}

	tag := &Tag{Name: name, FEN: fen, Children: []*Tag{}}
	*siblings = append(*siblings, tag)
	return tag, nil
}

// Find resolves a path of names
func (t *Tree) Find(path []string) (*Tag, error) {
	if len(path) == 0 {
		return nil, ErrNotFound
	}
	level := t.roots
	var found *Tag
	for _, name := range path {
		found = nil
		for _, tag := range level {
			if tag.Name == name {
				found = tag
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(path, PathSeparator))
		}
		level = found.Children
	}
	return found, nil
}

// Remove deletes the tag at path together with its children
func (t *Tree) Remove(path []string) error {
	if len(path) == 0 {
		return ErrNotFound
	}
	siblings := &t.roots
	if len(path) > 1 {
		p, err := t.Find(path[:len(path)-1])
		if err != nil {
			return err
		}
		siblings = &p.Children
	}
	name := path[len(path)-1]
	for i, tag := range *siblings {
		if tag.Name == name {
			*siblings = append((*siblings)[:i], (*siblings)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, strings.Join(path, PathSeparator))
}

// Walk visits every tag in preorder with its full path
func (t *Tree) Walk(fn func(path []string, tag *Tag)) {
	var visit func(prefix []string, level []*Tag)
	visit = func(prefix []string, level []*Tag) {
		for _, tag := range level {
			path := append(append([]string(nil), prefix...), tag.Name)
			fn(path, tag)
			visit(path, tag.Children)
		}
	}
	visit(nil, t.roots)
}

// PruneFENs removes tags pointing at any of the removed positions. Children
// of a removed tag move up to its parent. Returns the number removed.
func (t *Tree) PruneFENs(removed []string) int {
	if len(removed) == 0 {
		return 0
	}
	gone := make(map[string]bool, len(removed))
	for _, fen := range removed {
		gone[fen] = true
	}
	var n int
	t.roots = prune(t.roots, gone, &n)
	return n
}

func prune(level []*Tag, gone map[string]bool, n *int) []*Tag {
	out := make([]*Tag, 0, len(level))
	for _, tag := range level {
		tag.Children = prune(tag.Children, gone, n)
		if gone[tag.FEN] {
			*n++
			out = append(out, tag.Children...)
			continue
		}
		out = append(out, tag)
	}
	return out
}

// Len returns the number of tags in the tree
func (t *Tree) Len() int {
	n := 0
	t.Walk(func([]string, *Tag) { n++ })
	return n
}

func (t Tree) MarshalJSON() ([]byte, error) {
	if t.roots == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.roots)
}

func (t *Tree) UnmarshalJSON(data []byte) error {
	var roots []*Tag
	if err := json.Unmarshal(data, &roots); err != nil {
		return err
	}
	t.roots = roots
	return nil
}
