// Package concurrency guards problem edits against lost updates. An edit
// session remembers the version of each problem its form was rendered with;
// a submission is only accepted when that version is still current.
package concurrency

import (
	"context"
	"sort"
	"sync"

	"github.com/YusovID/citizen-connect/internal/apperrors"
)

const StaleMessage = "Sorry, someone else has modified the Problem during the time you were working on it. " +
	"Please double-check your changes to make sure they're still necessary."

// StaleVersionError is returned when the version remembered by the session
// differs from the stored one.
type StaleVersionError struct {
	IssueID int64
	Seen    int
	Current int
}

func (e *StaleVersionError) Error() string { return StaleMessage }

func (e *StaleVersionError) Is(target error) bool { return target == apperrors.ErrStaleVersion }

// Change is one pending write of a session entry. A nil Version removes it.
type Change struct {
	IssueID int64
	Version *int
}

// Session is the per-user map of issue id to the version seen when the edit
// form was loaded. It is safe for concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	versions map[int64]int
	changes  map[int64]*int
}

func NewSession(id string, versions map[int64]int) *Session {
	if versions == nil {
		versions = map[int64]int{}
	}

	return &Session{
		ID:       id,
		versions: versions,
		changes:  map[int64]*int{},
	}
}

// BeginEdit records version against issueID, overwriting any earlier entry.
func (s *Session) BeginEdit(issueID int64, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set(issueID, version)
}

// CheckAndConsume compares the remembered version of issueID with current.
// A session that never loaded the issue has nothing to protect and passes.
// On success the entry is removed; on a mismatch it is re-synced to current
// and a *StaleVersionError is returned, so an immediate resubmission passes.
func (s *Session) CheckAndConsume(issueID int64, current int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen, ok := s.versions[issueID]
	if !ok {
		return nil
	}

	if seen != current {
		s.set(issueID, current)
		return &StaleVersionError{IssueID: issueID, Seen: seen, Current: current}
	}

	s.remove(issueID)

	return nil
}

// Forget clears the entry of an issue whose form was submitted without
// touching the issue itself.
func (s *Session) Forget(issueID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.versions[issueID]; ok {
		s.remove(issueID)
	}
}

func (s *Session) Seen(issueID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[issueID]

	return v, ok
}

func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.changes) > 0
}

// Changes returns the pending writes ordered by issue id and clears them.
func (s *Session) Changes() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	changes := make([]Change, 0, len(s.changes))
	for id, v := range s.changes {
		changes = append(changes, Change{IssueID: id, Version: v})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].IssueID < changes[j].IssueID })

	s.changes = map[int64]*int{}

	return changes
}

func (s *Session) set(issueID int64, version int) {
	s.versions[issueID] = version
	s.changes[issueID] = &version
}

func (s *Session) remove(issueID int64) {
	delete(s.versions, issueID)
	s.changes[issueID] = nil
}

// Store persists sessions. Load returns an empty session for an unknown id.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
}
