// Package session keeps loaded lessons in memory so their nodes can be
// retagged by hand and re-sliced.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/dgallion1/lessonslice/internal/classify"
	"github.com/dgallion1/lessonslice/internal/export"
	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/dgallion1/lessonslice/internal/segment"
	"github.com/google/uuid"
)

// Session is one loaded lesson. All access goes through its mutex, so the
// document's tags have a single writer at a time.
type Session struct {
	mu sync.Mutex

	ID       string
	Filename string

	CreatedAt time.Time
	UpdatedAt time.Time

	doc      *lesson.Document
	tally    classify.Tally
	sections []lesson.Section
}

// New classifies doc and computes its initial sections.
func New(filename string, doc *lesson.Document) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		doc:       doc,
	}
	s.tally = classify.Document(doc)
	s.sections = segment.Sections(doc.Nodes())
	return s
}

// LessonID is the numeric identifier of the loaded lesson.
func (s *Session) LessonID() int {
	return s.doc.ID
}

// Rotate advances the manual tag of the node at index and re-slices the
// whole lesson. Automatic classification is not re-run.
func (s *Session) Rotate(index int) (lesson.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, err := s.doc.Rotate(index)
	if err != nil {
		return lesson.TagNone, err
	}
	s.sections = segment.Sections(s.doc.Nodes())
	s.UpdatedAt = time.Now()
	return tag, nil
}

// Sections returns a copy of the current sections.
func (s *Session) Sections() []lesson.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]lesson.Section, len(s.sections))
	copy(out, s.sections)
	return out
}

// Export serializes the current sections.
func (s *Session) Export() (export.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.NewFile(s.doc.ID, s.sections)
}

func (s *Session) touch() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[id]
}

// Delete removes a session and reports whether it existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Cleanup removes sessions idle for longer than the TTL.
func (st *Store) Cleanup() {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	for id, s := range st.sessions {
		if now.Sub(s.touch()) > st.ttl {
			delete(st.sessions, id)
		}
	}
}

// Run evicts idle sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Cleanup()
		}
	}
}
