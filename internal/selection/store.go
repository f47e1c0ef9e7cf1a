// Package selection holds the accepted screenshots of one session.
package selection

import (
	"context"
	"fmt"
	"log"
	"sync"

	"sentiscope/internal/domain"
	"sentiscope/internal/port"
)

// Entry is one accepted file and its optional preview handle.
type Entry struct {
	File    domain.FileCandidate `json:"file"`
	Preview *port.Preview        `json:"preview,omitempty"`
}

// Store is the ordered accepted selection. Capacity is enforced by the intake
// validator; the store trusts its caller.
//
// Preview acquisition is split from the commit so callers can do the network
// work before taking their own locks: Acquire, then Append or Swap. Once
// closed, the store refuses commits and releases whatever it was handed.
type Store struct {
	mu       sync.RWMutex
	mode     domain.SelectionMode
	entries  []Entry
	previews port.PreviewProvider
	closed   bool
}

// NewStore creates an empty selection. previews may be nil, in which case no
// preview resources are acquired.
func NewStore(mode domain.SelectionMode, previews port.PreviewProvider) *Store {
	return &Store{mode: mode, previews: previews}
}

// Mode returns the selection mode.
func (s *Store) Mode() domain.SelectionMode {
	return s.mode
}

// Len returns the number of selected files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Files returns a copy of the selected files in insertion order.
func (s *Store) Files() []domain.FileCandidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FileCandidate, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.File
	}
	return out
}

// Entries returns a copy of the selection including preview handles.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Acquire builds entries for files and acquires their previews. It holds no
// lock and does not change the selection.
func (s *Store) Acquire(ctx context.Context, files []domain.FileCandidate) []Entry {
	out := make([]Entry, len(files))
	for i, f := range files {
		out[i] = Entry{File: f, Preview: s.acquire(ctx, f)}
	}
	return out
}

// Append commits entries in order. A closed store releases them and returns
// domain.ErrSessionClosed.
func (s *Store) Append(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.Release(ctx, entries...)
		return domain.ErrSessionClosed
	}
	s.entries = append(s.entries, entries...)
	s.mu.Unlock()
	return nil
}

// Swap commits next as the only entry and returns the entries it displaced.
// The caller releases them. Single-file mode only.
func (s *Store) Swap(ctx context.Context, next Entry) ([]Entry, error) {
	if s.mode != domain.SelectionModeSingle {
		s.Release(ctx, next)
		return nil, domain.ErrSingleModeOnly
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.Release(ctx, next)
		return nil, domain.ErrSessionClosed
	}
	old := s.entries
	s.entries = []Entry{next}
	s.mu.Unlock()
	return old, nil
}

// Take removes the entry at index without releasing its preview. Later
// entries shift down.
func (s *Store) Take(index int) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.entries) {
		return Entry{}, fmt.Errorf("remove %d of %d: %w", index, len(s.entries), domain.ErrIndexOutOfRange)
	}
	removed := s.entries[index]
	s.entries = append(s.entries[:index], s.entries[index+1:]...)
	return removed, nil
}

// TakeAll empties the selection and returns what it held.
func (s *Store) TakeAll() []Entry {
	s.mu.Lock()
	old := s.entries
	s.entries = nil
	s.mu.Unlock()
	return old
}

// Release returns the previews of entries to the provider.
func (s *Store) Release(ctx context.Context, entries ...Entry) {
	for _, e := range entries {
		s.release(ctx, e)
	}
}

// AddAccepted appends files in order. Empty input is a no-op.
func (s *Store) AddAccepted(ctx context.Context, files []domain.FileCandidate) error {
	if len(files) == 0 {
		return nil
	}
	return s.Append(ctx, s.Acquire(ctx, files))
}

// RemoveAt removes the entry at index and releases its preview.
func (s *Store) RemoveAt(ctx context.Context, index int) error {
	removed, err := s.Take(index)
	if err != nil {
		return err
	}
	s.release(ctx, removed)
	return nil
}

// ReplaceAll discards the current selection and holds only file. Single-file
// mode only.
func (s *Store) ReplaceAll(ctx context.Context, file domain.FileCandidate) error {
	if s.mode != domain.SelectionModeSingle {
		return domain.ErrSingleModeOnly
	}
	old, err := s.Swap(ctx, s.Acquire(ctx, []domain.FileCandidate{file})[0])
	if err != nil {
		return err
	}
	s.Release(ctx, old...)
	return nil
}

// Clear empties the selection and releases every preview.
func (s *Store) Clear(ctx context.Context) {
	s.Release(ctx, s.TakeAll()...)
}

// Close empties the selection, releases every preview and refuses later
// commits. It is safe to call more than once.
func (s *Store) Close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	old := s.entries
	s.entries = nil
	s.mu.Unlock()
	s.Release(ctx, old...)
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) acquire(ctx context.Context, f domain.FileCandidate) *port.Preview {
	if s.previews == nil {
		return nil
	}
	p, err := s.previews.Acquire(ctx, f)
	if err != nil {
		log.Printf("selection.acquire: preview for %s unavailable: %v", f.Name, err)
		return nil
	}
	return p
}

func (s *Store) release(ctx context.Context, e Entry) {
	if s.previews == nil || e.Preview == nil {
		return
	}
	if err := s.previews.Release(ctx, e.Preview); err != nil {
		log.Printf("selection.release: preview %s: %v", e.Preview.Key, err)
	}
}
