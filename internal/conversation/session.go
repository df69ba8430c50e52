package conversation

import (
	"sync"
	"time"

	"github.com/dvloznov/fintalk/internal/domain"
)

// State names the phases of the per-chat confirmation dialog. Idle is both
// the initial and the recurring rest state; nothing is terminal.
type State string

const (
	StateIdle                   State = "IDLE"
	StateAwaitingConfirmation   State = "AWAITING_CONFIRMATION"
	StateAwaitingCategoryChoice State = "AWAITING_CATEGORY_CHOICE"
	StateAwaitingCorrection     State = "AWAITING_CORRECTION"
)

// Session is the per-chat conversational state. Its mutex is held for the
// entire handling of one inbound message or action, which is what serializes
// same-chat traffic while distinct chats proceed concurrently.
type Session struct {
	mu sync.Mutex

	ChatID string
	UserID string

	State         State
	Draft         *domain.TransactionDraft
	Candidates    []domain.Category // offered when a hint was ambiguous
	Resolved      *domain.Category  // category already settled for the draft
	SuggestedName string            // proposed new-category name, NotFound case
	Defects       []string          // outstanding correction prompts

	LastSeen time.Time
}

// reset returns the session to idle, discarding any pending draft.
func (s *Session) reset(now time.Time) {
	s.State = StateIdle
	s.Draft = nil
	s.Candidates = nil
	s.Resolved = nil
	s.SuggestedName = ""
	s.Defects = nil
	s.LastSeen = now
}

// Sessions is the keyed session store: chat id -> session, created lazily.
type Sessions struct {
	mu  sync.Mutex
	m   map[string]*Session
	ttl time.Duration
}

// NewSessions creates a session store with the given inactivity window.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{m: make(map[string]*Session), ttl: ttl}
}

// acquire returns the chat's session with its mutex held; the caller must
// unlock it when done. A session that sat in a non-idle state past the
// inactivity window is reset before being handed out, so a stale draft is
// never resurrected.
func (s *Sessions) acquire(chatID, userID string, now time.Time) *Session {
	s.mu.Lock()
	sess, ok := s.m[chatID]
	if !ok {
		sess = &Session{ChatID: chatID, UserID: userID, State: StateIdle, LastSeen: now}
		s.m[chatID] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	if sess.State != StateIdle && s.ttl > 0 && now.Sub(sess.LastSeen) > s.ttl {
		sess.reset(now)
	}
	sess.LastSeen = now
	return sess
}
