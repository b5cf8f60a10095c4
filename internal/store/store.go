// Package store defines the document-store collaborators the application is
// built against: get-by-id, equality and array-membership queries, create,
// partial update, delete, and live-subscription variants that keep firing
// until explicitly cancelled. Production runs on Firestore; an in-memory
// implementation backs tests and credential-less local runs.
package store

import (
	"context"
	"errors"

	"github.com/qolda/qolda-backend/internal/model"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrExists   = errors.New("document already exists")
)

// ChatRepository manages the chats collection and the messages subcollection
// nested under each chat document.
type ChatRepository interface {
	// GetOrCreate creates the chat under its canonical id if absent and
	// reports whether a new document was written. Safe against concurrent
	// first contacts: the id is deterministic, so both sides converge on the
	// same document.
	GetOrCreate(ctx context.Context, chat *model.Chat) (*model.Chat, bool, error)
	Get(ctx context.Context, id string) (*model.Chat, error)
	ListByParticipant(ctx context.Context, uid string) ([]model.Chat, error)
	// WatchByParticipant delivers the full set of the user's chats on every
	// change until the subscription is cancelled.
	WatchByParticipant(ctx context.Context, uid string) (*ChatSubscription, error)
	SetLastMessage(ctx context.Context, id, preview string) error
	// Delete removes the chat and its entire message log. Deleting an absent
	// chat is a no-op.
	Delete(ctx context.Context, id string) error

	AppendMessage(ctx context.Context, chatID string, msg *model.Message) (*model.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]model.Message, error)
	// WatchMessages delivers the chat's full message log, ordered by the
	// store-assigned send timestamp, on every change.
	WatchMessages(ctx context.Context, chatID string) (*MessageSubscription, error)
}

type UserRepository interface {
	Get(ctx context.Context, uid string) (*model.UserProfile, error)
	Set(ctx context.Context, profile *model.UserProfile) error
	// Update merges the given fields into the profile document.
	Update(ctx context.Context, uid string, fields map[string]interface{}) error
	Count(ctx context.Context) (int64, error)
}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) (*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	// List returns listings newest first, optionally filtered by category.
	List(ctx context.Context, category string) ([]model.Listing, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	Set(ctx context.Context, category *model.Category) error
}

// Store groups the per-collection repositories behind a single handle so the
// whole backing store can be swapped at once.
type Store interface {
	Chats() ChatRepository
	Users() UserRepository
	Listings() ListingRepository
	Categories() CategoryRepository
	Close() error
}
