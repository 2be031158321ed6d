// Package conversation implements the in-memory conversation store and
// its context-window trimming derivation.
package conversation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a conversation's ordered history.
type Message struct {
	Role      string
	TextParts []string
	HasImage  bool
	ImageCount int
}

// Metadata carries conversation-level bookkeeping.
type Metadata struct {
	Model       string
	TotalTokens int64
	TurnCount   int
	ProjectPath string
}

// Conversation is the tuple the spec names: an id, ordered messages, and
// timestamps plus metadata.
type Conversation struct {
	ID        string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
	Metadata  Metadata
}

// Store is the in-memory mapping from conversation id to conversation
// entity. Append-message is the only mutation.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	sessionTimeout time.Duration
}

// NewStore builds an empty store. sessionTimeout configures the idle
// cleanup sweep.
func NewStore(sessionTimeout time.Duration) *Store {
	return &Store{
		conversations:  make(map[string]*Conversation),
		sessionTimeout: sessionTimeout,
	}
}

// GetOrCreate returns the conversation for id, creating one on demand
// when id is unknown or empty.
func (s *Store) GetOrCreate(id string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if c, ok := s.conversations[id]; ok {
			return c
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	c := &Conversation{ID: id, CreatedAt: now, UpdatedAt: now}
	s.conversations[id] = c
	return c
}

// Get returns the conversation for id without creating it.
func (s *Store) Get(id string) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	return c, ok
}

// Append atomically adds messages to a conversation's history, touches
// its updated_at and increments its turn count. Token metadata is not
// changed.
func (s *Store) Append(id string, msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return
	}
	c.Messages = append(c.Messages, msgs...)
	c.UpdatedAt = time.Now()
	c.Metadata.TurnCount++
}

// Delete explicitly removes a conversation.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
}

// Cleanup removes conversations untouched longer than the store's
// session timeout. Intended to run every five minutes on a background
// timer.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, c := range s.conversations {
		if now.Sub(c.UpdatedAt) > s.sessionTimeout {
			delete(s.conversations, id)
		}
	}
}

// RunCleanup starts a background goroutine calling Cleanup on the given
// interval until stop is closed.
func (s *Store) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

const isSystemRole = "system"

func isSystem(m Message) bool { return m.Role == isSystemRole }

// estimateTokens applies the spec's approximate token-estimate policy:
// textual content ~= len(text)/4; each image part contributes 100
// tokens; a message with no content contributes 50.
func estimateTokens(m Message) int {
	if len(m.TextParts) == 0 && !m.HasImage {
		return 50
	}
	total := 0
	if m.HasImage {
		total += m.ImageCount * 100
	}
	for _, t := range m.TextParts {
		total += len(t) / 4
	}
	return total
}

// DeriveContext computes the prompt sequence sent to the agent: all
// system messages, kept in full, plus as much of the non-system tail
// (newest first) as fits under maxContextTokens, restored to
// chronological order. The newest non-system message is always kept,
// even when it alone exceeds the budget. It never mutates the stored
// history.
func DeriveContext(history []Message, maxContextTokens int) []Message {
	type indexed struct {
		idx int
		msg Message
	}

	var system []indexed
	var nonSystem []indexed
	for i, m := range history {
		if isSystem(m) {
			system = append(system, indexed{i, m})
		} else {
			nonSystem = append(nonSystem, indexed{i, m})
		}
	}

	budget := maxContextTokens

	var kept []indexed
	for i := len(nonSystem) - 1; i >= 0; i-- {
		cost := estimateTokens(nonSystem[i].msg)
		if budget-cost < 0 && len(kept) > 0 {
			break
		}
		kept = append(kept, nonSystem[i])
		budget -= cost
	}

	merged := make([]indexed, 0, len(system)+len(kept))
	merged = append(merged, system...)
	merged = append(merged, kept...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].idx < merged[j].idx })

	result := make([]Message, len(merged))
	for i, e := range merged {
		result[i] = e.msg
	}
	return result
}
