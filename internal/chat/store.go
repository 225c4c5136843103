package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"chatd/pkg/types"
)

// Conversation is a point-in-time copy of one stored conversation.
type Conversation struct {
	ID        string
	Messages  []types.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

type conversation struct {
	messages  []types.Message
	createdAt time.Time
	updatedAt time.Time
}

// Store holds conversations in memory for the life of the process. Chat
// state is deliberately unpersisted; only the model artifact survives a
// restart.
type Store struct {
	mu    sync.RWMutex
	convs map[string]*conversation
}

// NewStore returns an empty conversation store.
func NewStore() *Store {
	return &Store{convs: make(map[string]*conversation)}
}

// Create opens a new empty conversation and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()
	now := time.Now()
	s.mu.Lock()
	s.convs[id] = &conversation{createdAt: now, updatedAt: now}
	s.mu.Unlock()
	return id
}

// History returns a copy of the conversation's messages in order.
func (s *Store) History(id string) ([]types.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, false
	}
	return copyMessages(conv.messages), true
}

// Get returns a copy of the conversation with its timestamps.
func (s *Store) Get(id string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[id]
	if !ok {
		return Conversation{}, false
	}
	return Conversation{
		ID:        id,
		Messages:  copyMessages(conv.messages),
		CreatedAt: conv.createdAt,
		UpdatedAt: conv.updatedAt,
	}, true
}

// Append adds msgs to the conversation, creating it when absent. Clients
// may carry an id across a server restart; their next exchange restarts
// the conversation under the same id instead of failing.
func (s *Store) Append(id string, msgs ...types.Message) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		conv = &conversation{createdAt: now}
		s.convs[id] = conv
	}
	conv.messages = append(conv.messages, msgs...)
	conv.updatedAt = now
}

// Delete drops the conversation. Unknown ids are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.convs, id)
	s.mu.Unlock()
}

// Len reports how many conversations are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

func copyMessages(msgs []types.Message) []types.Message {
	out := make([]types.Message, len(msgs))
	copy(out, msgs)
	return out
}
