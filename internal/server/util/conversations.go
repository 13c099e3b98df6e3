package util

import (
	"sync"
	"time"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/cache"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/synth"
)

// Turns kept per conversation. Only the most recent ones feed the prompt.
const maxStoredTurns = 10

// ConversationStore keeps recent chat turns per conversation id. Idle
// conversations expire with the underlying cache TTL. The cache only
// coordinates individual reads and writes, so the read-modify-write in
// Append holds the store mutex.
type ConversationStore struct {
	mu    sync.Mutex
	cache *cache.Cache[[]synth.Turn]
}

// NewConversationStore creates a store expiring idle conversations after ttl
// and holding at most maxConversations concurrently.
func NewConversationStore(ttl time.Duration, maxConversations int) *ConversationStore {
	return &ConversationStore{
		cache: cache.New[[]synth.Turn](ttl, maxConversations),
	}
}

// Append records a completed turn for the conversation. The stored slice is
// rebuilt on every append so slices handed out by Recent are never mutated.
func (s *ConversationStore) Append(conversationID string, turn synth.Turn) {
	if conversationID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, _ := s.cache.Get(conversationID)
	turns := make([]synth.Turn, 0, len(prev)+1)
	turns = append(turns, prev...)
	turns = append(turns, turn)
	if len(turns) > maxStoredTurns {
		turns = turns[len(turns)-maxStoredTurns:]
	}
	s.cache.Set(conversationID, turns)
}

// Recent returns up to n most recent turns of the conversation, oldest
// first.
func (s *ConversationStore) Recent(conversationID string, n int) []synth.Turn {
	if conversationID == "" {
		return nil
	}

	turns, ok := s.cache.Get(conversationID)
	if !ok {
		return nil
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}
