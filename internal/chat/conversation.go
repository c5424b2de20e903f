package chat

import (
	"github.com/tidechat/relay/internal/protocol"
)

// keySeparator joins the sorted username pair into a conversation key. No
// escaping is performed, so a username containing ":" can collide with a
// different pair. Known wart, kept for wire compatibility.
const keySeparator = ":"

// ConversationStore holds the append-only message history between every pair
// of usernames that has ever exchanged a message. Conversations are created
// lazily and never pruned: history outlives the sessions that produced it
// for the life of the process.
type ConversationStore struct {
	conversations map[string][]protocol.Message
}

// NewConversationStore returns an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{conversations: make(map[string][]protocol.Message)}
}

// KeyFor canonicalizes an unordered username pair into a conversation key by
// sorting the two names and joining them, so (a,b) and (b,a) index the same
// conversation.
func KeyFor(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + keySeparator + b
}

// Append records a new message from sender to target, creating the
// conversation on first use, and returns the stored message.
func (s *ConversationStore) Append(from, target, content string) protocol.Message {
	msg := protocol.Message{From: from, Target: target, Content: content}
	key := KeyFor(from, target)
	s.conversations[key] = append(s.conversations[key], msg)
	return msg
}

// LatestBetween returns the most recent message exchanged between the two
// usernames. The second return is false when no conversation exists yet or
// it holds no messages. Tail access, not a scan.
func (s *ConversationStore) LatestBetween(a, b string) (protocol.Message, bool) {
	log, ok := s.conversations[KeyFor(a, b)]
	if !ok || len(log) == 0 {
		return protocol.Message{}, false
	}
	return log[len(log)-1], true
}

// Len returns the number of distinct conversations.
func (s *ConversationStore) Len() int {
	return len(s.conversations)
}

// History returns the full ordered log between two usernames. The returned
// slice is the store's backing array and must not be mutated.
func (s *ConversationStore) History(a, b string) []protocol.Message {
	return s.conversations[KeyFor(a, b)]
}
