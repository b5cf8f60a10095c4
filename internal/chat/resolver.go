// Package chat implements the two-party chat core: deterministic chat
// identity, the live thread list, and the per-chat message stream.
package chat

import (
	"context"
	"strings"

	"github.com/qolda/qolda-backend/internal/auth"
	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

// CanonicalKey derives the chat id for an unordered pair of user ids:
// lexicographically sorted, joined with an underscore. Symmetric by
// construction, so both sides of a first contact compute the same id.
func CanonicalKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// ParticipantPair returns the pair in the same sorted order the canonical
// key uses, which is also the order stored on the chat document.
func ParticipantPair(a, b string) []string {
	if b < a {
		a, b = b, a
	}
	return []string{a, b}
}

// Resolver maps a participant pair to exactly one chat. Because the
// canonical key doubles as the document id, creation is a single idempotent
// create-if-absent: two simultaneous first contacts converge on one record
// instead of racing a read-then-write.
type Resolver struct {
	session auth.Session
	chats   store.ChatRepository
}

func NewResolver(session auth.Session, chats store.ChatRepository) *Resolver {
	return &Resolver{session: session, chats: chats}
}

// GetOrCreate resolves the chat between the current user and peerUID,
// creating it on first contact.
func (r *Resolver) GetOrCreate(ctx context.Context, peerUID string) (*model.Chat, error) {
	self := r.session.CurrentUID()
	if self == "" {
		return nil, ErrNotAuthenticated
	}
	peerUID = strings.TrimSpace(peerUID)
	if peerUID == "" || peerUID == self {
		return nil, ErrInvalidPeer
	}

	chat := &model.Chat{
		ID:           CanonicalKey(self, peerUID),
		Participants: ParticipantPair(self, peerUID),
	}
	resolved, _, err := r.chats.GetOrCreate(ctx, chat)
	if err != nil {
		return nil, unavailable(err)
	}
	return resolved, nil
}
