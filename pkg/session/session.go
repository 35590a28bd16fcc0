// Package session holds the process-wide last-used query, page, and grid
// shape, so stateless polling clients can invoke endpoints with partial or
// no parameters. Single-tenant by design: last write wins, visible to every
// subsequent read.
package session

import (
	"sync"
	"time"
)

// State is the whole session record. It is always read and replaced as a
// unit; concurrent writers race benignly (no partial-field interleaving).
type State struct {
	Query        string
	PageIndex    int
	Cols         int
	Rows         int
	Sheet        []byte
	SheetBuiltAt time.Time
}

// Params carries optional overrides. Nil fields leave the current value.
type Params struct {
	Query     *string
	PageIndex *int
	Cols      *int
	Rows      *int
}

// Store is a mutex-guarded single-slot session store.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore seeds the slot so the first stateless poll is never empty.
func NewStore(defaultQuery string, cols, rows int) *Store {
	return &Store{
		state: State{
			Query: defaultQuery,
			Cols:  cols,
			Rows:  rows,
		},
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Merge applies the explicitly provided params and returns the merged
// snapshot. The sheet buffer is untouched.
func (s *Store) Merge(p Params) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Query != nil && *p.Query != "" {
		s.state.Query = *p.Query
	}
	if p.PageIndex != nil && *p.PageIndex >= 0 {
		s.state.PageIndex = *p.PageIndex
	}
	if p.Cols != nil && *p.Cols > 0 {
		s.state.Cols = *p.Cols
	}
	if p.Rows != nil && *p.Rows > 0 {
		s.state.Rows = *p.Rows
	}
	return s.state
}

// SetSheet stores a freshly composited sheet buffer.
func (s *Store) SetSheet(buf []byte, builtAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Sheet = buf
	s.state.SheetBuiltAt = builtAt
}
