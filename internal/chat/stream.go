package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/qolda/qolda-backend/internal/auth"
	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/profile"
	"github.com/qolda/qolda-backend/internal/store"
)

// StreamOption tweaks a MessageStream.
type StreamOption func(*MessageStream)

// WithQuietPeriod overrides the composing-indicator debounce.
func WithQuietPeriod(d time.Duration) StreamOption {
	return func(s *MessageStream) {
		s.typing = newComposing(d)
	}
}

// MessageStream is the live view over one chat's ordered message log for one
// authorized participant. Opening it performs the entry validation; from
// then on the log updates through the store subscription until Close.
type MessageStream struct {
	chatID string
	self   string
	chats  store.ChatRepository

	selfProfile *model.UserProfile
	peerProfile *model.UserProfile

	mu       sync.Mutex
	messages []model.Message
	draft    string

	typing *composing

	sub     *store.MessageSubscription
	updates chan []model.Message
	done    chan struct{}
}

// OpenMessageStream validates access to the chat and, on success, starts the
// live message subscription. Terminal outcomes are reported as errors:
// ErrNotFound when no such chat exists, ErrUnauthorized when the current
// user is not one of its two participants. In both cases no message
// subscription is ever registered.
func OpenMessageStream(ctx context.Context, session auth.Session, st store.Store, chatID string, opts ...StreamOption) (*MessageStream, error) {
	chats := st.Chats()
	c, err := Authorize(ctx, session, chats, chatID)
	if err != nil {
		return nil, err
	}
	self := session.CurrentUID()

	s := &MessageStream{
		chatID:  chatID,
		self:    self,
		chats:   chats,
		typing:  newComposing(DefaultQuietPeriod),
		updates: make(chan []model.Message, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Both participants' display data, best effort, before the log attaches.
	profiles := profile.NewResolver(st.Users())
	s.selfProfile = profiles.Lookup(ctx, self)
	s.peerProfile = profiles.Lookup(ctx, c.Other(self))

	sub, err := chats.WatchMessages(ctx, chatID)
	if err != nil {
		return nil, unavailable(err)
	}
	s.sub = sub

	go func() {
		defer close(s.done)
		for msgs := range sub.Updates() {
			s.setMessages(msgs)
		}
	}()

	return s, nil
}

func (s *MessageStream) setMessages(msgs []model.Message) {
	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()

	for {
		select {
		case s.updates <- msgs:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Messages returns the current log snapshot, ordered by send timestamp.
func (s *MessageStream) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Updates delivers the full log after every change; the newly sent message
// becomes visible here once the subscription fires, not synchronously with
// Send.
func (s *MessageStream) Updates() <-chan []model.Message {
	return s.updates
}

func (s *MessageStream) ChatID() string { return s.chatID }

func (s *MessageStream) Self() *model.UserProfile { return s.selfProfile }
func (s *MessageStream) Peer() *model.UserProfile { return s.peerProfile }

// Compose records the in-progress input and bumps the composing indicator.
func (s *MessageStream) Compose(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
	s.typing.Touch()
}

func (s *MessageStream) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Composing reports the debounced local typing flag.
func (s *MessageStream) Composing() bool {
	return s.typing.Active()
}

// Send appends text to the chat. Empty or whitespace-only input is a silent
// no-op. The draft and composing flag are cleared before the append is
// acknowledged (optimistic clear); the authoritative log still comes from
// the subscription.
func (s *MessageStream) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	s.draft = ""
	s.mu.Unlock()
	s.typing.Clear()

	return sendMessage(ctx, s.chats, s.chatID, s.self, text)
}

// Delete removes the chat and its whole log. Idempotent: deleting an
// already-deleted chat succeeds.
func (s *MessageStream) Delete(ctx context.Context) error {
	if err := s.chats.Delete(ctx, s.chatID); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close cancels the message subscription and the typing timer. Blocks until
// the update loop has exited.
func (s *MessageStream) Close() {
	s.sub.Cancel()
	s.typing.Clear()
	<-s.done
}
