package chat

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ranjit123-yst/ananya/internal/model/chat"
	"github.com/ranjit123-yst/ananya/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")

// maxMessages caps per-session history; the oldest turns are dropped first.
const maxMessages = 50

// Service owns conversation state per visitor. Sessions and their messages
// live in an injected key-value store keyed by session id.
type Service struct {
	sessions store.KV[chat.Session]
	ttl      time.Duration
}

// NewService builds the session store. ttl is the idle lifetime after which
// Sweep garbage-collects a session.
func NewService(sessions store.KV[chat.Session], ttl time.Duration) *Service {
	return &Service{sessions: sessions, ttl: ttl}
}

// GetOrCreate resolves the visitor's session. A supplied session id wins only
// when its owner matches; otherwise the visitor's existing session is found by
// scan, so clients that lost their id still recover their history. A visitor
// with no session gets a fresh empty one.
func (s *Service) GetOrCreate(_ context.Context, visitor, sessionID string) (chat.Session, error) {
	if sessionID != "" {
		if session, ok := s.sessions.Get(sessionID); ok && session.Visitor == visitor {
			return cloneSession(session), nil
		}
	}

	if session, ok := s.findByVisitor(visitor); ok {
		return cloneSession(session), nil
	}

	now := time.Now().UTC()
	session := chat.Session{
		ID:        uuid.NewString(),
		Visitor:   visitor,
		Messages:  []chat.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions.Set(session.ID, session)
	return cloneSession(session), nil
}

// FindByVisitor returns the visitor's live session, if any.
func (s *Service) FindByVisitor(_ context.Context, visitor string) (chat.Session, bool) {
	session, ok := s.findByVisitor(visitor)
	if !ok {
		return chat.Session{}, false
	}
	return cloneSession(session), true
}

// Append creates a message and adds it to the session, enforcing the
// retention cap and bumping UpdatedAt.
func (s *Service) Append(_ context.Context, sessionID, role, content, mode string) (chat.Message, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message := chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Mode:      mode,
		Timestamp: time.Now().UTC(),
	}

	session.Messages = append(session.Messages, message)
	if len(session.Messages) > maxMessages {
		session.Messages = session.Messages[len(session.Messages)-maxMessages:]
	}
	session.UpdatedAt = time.Now().UTC()
	s.sessions.Set(session.ID, session)

	return message, nil
}

// Retract removes a previously appended message, used to roll back the user
// turn when the model call fails. Unknown ids are ignored.
func (s *Service) Retract(_ context.Context, sessionID, messageID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	for i := len(session.Messages) - 1; i >= 0; i-- {
		if session.Messages[i].ID == messageID {
			session.Messages = append(session.Messages[:i], session.Messages[i+1:]...)
			s.sessions.Set(session.ID, session)
			return
		}
	}
}

// History returns the full message sequence. An unknown session yields an
// empty slice; absence of history is a valid state for a new visitor.
func (s *Service) History(_ context.Context, sessionID string) []chat.Message {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return []chat.Message{}
	}
	return cloneMessages(session.Messages)
}

// Recent returns the last n messages, bounding the context sent to the model.
func (s *Service) Recent(_ context.Context, sessionID string, n int) []chat.Message {
	session, ok := s.sessions.Get(sessionID)
	if !ok || n <= 0 {
		return []chat.Message{}
	}
	messages := session.Messages
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	return cloneMessages(messages)
}

// Sweep deletes sessions idle longer than the configured ttl and reports how
// many were removed.
func (s *Service) Sweep(_ context.Context) int {
	cutoff := time.Now().UTC().Add(-s.ttl)

	var stale []string
	s.sessions.Scan(func(id string, session chat.Session) bool {
		if session.UpdatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
		return true
	})

	for _, id := range stale {
		s.sessions.Delete(id)
	}
	return len(stale)
}

// StartSweeper runs Sweep on a fixed schedule until ctx is done, independent
// of request handling.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(ctx); n > 0 {
					log.Printf("[chat] swept %d stale sessions", n)
				}
			}
		}
	}()
}

func (s *Service) findByVisitor(visitor string) (chat.Session, bool) {
	var found chat.Session
	var ok bool
	s.sessions.Scan(func(_ string, session chat.Session) bool {
		if session.Visitor == visitor {
			found = session
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

func cloneSession(session chat.Session) chat.Session {
	session.Messages = cloneMessages(session.Messages)
	return session
}

func cloneMessages(messages []chat.Message) []chat.Message {
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied
}
