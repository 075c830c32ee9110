package api

import (
	"sync"

	"github.com/google/uuid"

	"github.com/david/funding-advisor/internal/models"
)

// conversation is one conversation's session state. The per-conversation
// mutex serializes turns: the pipeline is single-writer per conversation, and
// two concurrent requests on the same token must not interleave their
// read-modify-write of the session context.
type conversation struct {
	mu      sync.Mutex
	session models.SessionContext
}

// sessionRegistry maps conversation ids to their session state. Conversations
// never share a SessionContext instance.
type sessionRegistry struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*conversation
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{conversations: make(map[uuid.UUID]*conversation)}
}

// get returns the conversation for id, creating it when unknown. An expired
// or evicted conversation simply starts over with empty context.
func (r *sessionRegistry) get(id uuid.UUID) *conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		c = &conversation{}
		r.conversations[id] = c
	}
	return c
}

// reset clears a conversation's context.
func (r *sessionRegistry) reset(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, id)
}
