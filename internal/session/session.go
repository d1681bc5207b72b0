// Package session holds the per-user scratch state for an in-progress flow:
// the draft (uncommitted selections), the navigation stack, and the cached
// last-rendered text per screen. Sessions are in-memory only and are lost on
// restart, which is acceptable: profiles are durable and flows re-enter from
// the main menu.
package session

import (
	"sync"

	"partyfinder/internal/domain"
)

// Draft is the not-yet-committed part of a flow: search criteria built across
// steps. Profile edits commit to the store immediately on acceptance, so they
// never live here.
type Draft struct {
	Criteria domain.Criteria
}

// Session is one user's conversation scratch state. The dispatcher guarantees
// events for one user are handled serially, so Session methods need no
// internal locking; the Manager lock only guards the map.
type Session struct {
	UserID       int64
	State        domain.State
	Screen       domain.ScreenID // screen currently shown, pushed when leaving
	Draft        Draft
	navStack     []domain.ScreenID
	lastRendered map[domain.ScreenID]string

	// mu serializes event handling for this user. The transport delivers
	// per-user events in order, but the dispatcher still takes this lock so
	// a slow handler can never overlap a later event for the same user.
	mu sync.Mutex
}

func newSession(userID int64) *Session {
	return &Session{
		UserID:       userID,
		State:        domain.StateIdle,
		Screen:       domain.ScreenMainMenu,
		lastRendered: make(map[domain.ScreenID]string),
	}
}

// Lock takes the per-user event lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-user event lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Push records the screen the user is leaving so Back can return to it.
func (s *Session) Push(id domain.ScreenID) {
	s.navStack = append(s.navStack, id)
}

// Pop removes and returns the most recent screen. ok is false when the stack
// is empty.
func (s *Session) Pop() (domain.ScreenID, bool) {
	if len(s.navStack) == 0 {
		return "", false
	}
	id := s.navStack[len(s.navStack)-1]
	s.navStack = s.navStack[:len(s.navStack)-1]
	return id, true
}

// StackDepth reports how many screens Back can unwind.
func (s *Session) StackDepth() int { return len(s.navStack) }

// SetLastRendered caches the verbatim text shown for a screen so Back can
// restore it byte-identically instead of recomputing.
func (s *Session) SetLastRendered(id domain.ScreenID, text string) {
	s.lastRendered[id] = text
}

// LastRendered returns the cached text for a screen, if any.
func (s *Session) LastRendered(id domain.ScreenID) (string, bool) {
	text, ok := s.lastRendered[id]
	return text, ok
}

// Reset clears the draft, the stack, and the render cache, returning the
// conversation to idle. Called on main menu and on flow completion.
func (s *Session) Reset() {
	s.State = domain.StateIdle
	s.Screen = domain.ScreenMainMenu
	s.Draft = Draft{}
	s.navStack = s.navStack[:0]
	s.lastRendered = make(map[domain.ScreenID]string)
}

// Manager hands out sessions keyed by user id, creating them lazily on first
// interaction. Sessions are never evicted; see DESIGN.md on expiry.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating it if absent.
func (m *Manager) Get(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = newSession(userID)
		m.sessions[userID] = s
	}
	return s
}

// Len reports the number of live sessions, for the stats endpoint.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
