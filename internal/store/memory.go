package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qolda/qolda-backend/internal/model"
)

// memoryStore keeps every collection in locked maps and fans out live
// subscription updates synchronously on each mutation. It stands in for
// Firestore in tests and when the server runs without credentials.
type memoryStore struct {
	mu sync.RWMutex

	chats      map[string]*model.Chat
	messages   map[string][]model.Message // chat id -> ordered log
	users      map[string]*model.UserProfile
	listings   map[string]*model.Listing
	categories map[string]*model.Category

	chatWatchers    map[*ChatSubscription]string    // sub -> participant uid
	messageWatchers map[*MessageSubscription]string // sub -> chat id

	lastStamp time.Time
}

func NewMemory() Store {
	return &memoryStore{
		chats:           make(map[string]*model.Chat),
		messages:        make(map[string][]model.Message),
		users:           make(map[string]*model.UserProfile),
		listings:        make(map[string]*model.Listing),
		categories:      make(map[string]*model.Category),
		chatWatchers:    make(map[*ChatSubscription]string),
		messageWatchers: make(map[*MessageSubscription]string),
	}
}

func (s *memoryStore) Chats() ChatRepository          { return (*memoryChats)(s) }
func (s *memoryStore) Users() UserRepository          { return (*memoryUsers)(s) }
func (s *memoryStore) Listings() ListingRepository    { return (*memoryListings)(s) }
func (s *memoryStore) Categories() CategoryRepository { return (*memoryCategories)(s) }

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.chatWatchers {
		delete(s.chatWatchers, sub)
		sub.close()
	}
	for sub := range s.messageWatchers {
		delete(s.messageWatchers, sub)
		sub.close()
	}
	return nil
}

// stamp returns a strictly increasing server time, mirroring the monotonic
// per-store timestamps the real backend assigns.
func (s *memoryStore) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

// callers must hold s.mu.
func (s *memoryStore) chatsOf(uid string) []model.Chat {
	out := make([]model.Chat, 0)
	for _, chat := range s.chats {
		if chat.HasParticipant(uid) {
			out = append(out, *chat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// callers must hold s.mu.
func (s *memoryStore) logOf(chatID string) []model.Message {
	log := s.messages[chatID]
	out := make([]model.Message, len(log))
	copy(out, log)
	return out
}

// callers must hold s.mu.
func (s *memoryStore) notifyChatWatchers(participants []string) {
	for sub, uid := range s.chatWatchers {
		for _, p := range participants {
			if p == uid {
				sub.publish(s.chatsOf(uid))
				break
			}
		}
	}
}

// callers must hold s.mu.
func (s *memoryStore) notifyMessageWatchers(chatID string) {
	for sub, id := range s.messageWatchers {
		if id == chatID {
			sub.publish(s.logOf(chatID))
		}
	}
}

type memoryChats memoryStore

func (r *memoryChats) store() *memoryStore { return (*memoryStore)(r) }

func (r *memoryChats) GetOrCreate(_ context.Context, chat *model.Chat) (*model.Chat, bool, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.chats[chat.ID]; ok {
		out := *existing
		return &out, false, nil
	}
	created := *chat
	created.CreatedAt = s.stamp()
	s.chats[chat.ID] = &created
	s.notifyChatWatchers(created.Participants)
	out := created
	return &out, true, nil
}

func (r *memoryChats) Get(_ context.Context, id string) (*model.Chat, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *chat
	return &out, nil
}

func (r *memoryChats) ListByParticipant(_ context.Context, uid string) ([]model.Chat, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatsOf(uid), nil
}

func (r *memoryChats) WatchByParticipant(ctx context.Context, uid string) (*ChatSubscription, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var sub *ChatSubscription
	sub = NewChatSubscription(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.chatWatchers[sub]; ok {
			delete(s.chatWatchers, sub)
			sub.close()
		}
	})
	s.chatWatchers[sub] = uid
	sub.publish(s.chatsOf(uid))
	go func() {
		<-ctx.Done()
		sub.Cancel()
	}()
	return sub, nil
}

func (r *memoryChats) SetLastMessage(_ context.Context, id, preview string) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok {
		return ErrNotFound
	}
	chat.LastMessage = preview
	s.notifyChatWatchers(chat.Participants)
	return nil
}

func (r *memoryChats) Delete(_ context.Context, id string) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok {
		// Deleting an absent chat is a no-op, matching the backend.
		return nil
	}
	delete(s.chats, id)
	delete(s.messages, id)
	s.notifyChatWatchers(chat.Participants)
	s.notifyMessageWatchers(id)
	return nil
}

func (r *memoryChats) AppendMessage(_ context.Context, chatID string, msg *model.Message) (*model.Message, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *msg
	stored.ID = uuid.NewString()
	stored.SentAt = s.stamp()
	s.messages[chatID] = append(s.messages[chatID], stored)
	s.notifyMessageWatchers(chatID)
	out := stored
	return &out, nil
}

func (r *memoryChats) ListMessages(_ context.Context, chatID string) ([]model.Message, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logOf(chatID), nil
}

func (r *memoryChats) WatchMessages(ctx context.Context, chatID string) (*MessageSubscription, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var sub *MessageSubscription
	sub = NewMessageSubscription(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.messageWatchers[sub]; ok {
			delete(s.messageWatchers, sub)
			sub.close()
		}
	})
	s.messageWatchers[sub] = chatID
	sub.publish(s.logOf(chatID))
	go func() {
		<-ctx.Done()
		sub.Cancel()
	}()
	return sub, nil
}

type memoryUsers memoryStore

func (r *memoryUsers) store() *memoryStore { return (*memoryStore)(r) }

func (r *memoryUsers) Get(_ context.Context, uid string) (*model.UserProfile, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	out := *profile
	return &out, nil
}

func (r *memoryUsers) Set(_ context.Context, profile *model.UserProfile) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *profile
	s.users[profile.UID] = &stored
	return nil
}

func (r *memoryUsers) Update(_ context.Context, uid string, fields map[string]interface{}) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.users[uid]
	if !ok {
		return ErrNotFound
	}
	for path, value := range fields {
		text, _ := value.(string)
		switch path {
		case "name":
			profile.Name = text
		case "phone":
			profile.Phone = text
		case "bio":
			profile.Bio = text
		case "avatar":
			profile.AvatarURL = text
		}
	}
	return nil
}

func (r *memoryUsers) Count(_ context.Context) (int64, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

type memoryListings memoryStore

func (r *memoryListings) store() *memoryStore { return (*memoryStore)(r) }

func (r *memoryListings) Create(_ context.Context, listing *model.Listing) (*model.Listing, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *listing
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.stamp()
	s.listings[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *memoryListings) Get(_ context.Context, id string) (*model.Listing, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	listing, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *listing
	return &out, nil
}

func (r *memoryListings) List(_ context.Context, category string) ([]model.Listing, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Listing, 0)
	for _, listing := range s.listings {
		if category != "" && !strings.EqualFold(listing.Category, category) {
			continue
		}
		out = append(out, *listing)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryListings) Delete(_ context.Context, id string) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listings, id)
	return nil
}

func (r *memoryListings) Count(_ context.Context) (int64, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.listings)), nil
}

type memoryCategories memoryStore

func (r *memoryCategories) store() *memoryStore { return (*memoryStore)(r) }

func (r *memoryCategories) List(_ context.Context) ([]model.Category, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, category := range s.categories {
		out = append(out, *category)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memoryCategories) Set(_ context.Context, category *model.Category) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *category
	s.categories[category.ID] = &stored
	return nil
}
