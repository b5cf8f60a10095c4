package store

import (
	"sync"

	"github.com/qolda/qolda-backend/internal/model"
)

// ChatSubscription is a standing query over a user's chats. Updates carries
// the full result set after every change; the channel is closed once the
// subscription is cancelled or the backing stream ends.
type ChatSubscription struct {
	updates chan []model.Chat
	stop    func()
	once    sync.Once
}

func NewChatSubscription(stop func()) *ChatSubscription {
	return &ChatSubscription{
		updates: make(chan []model.Chat, 1),
		stop:    stop,
	}
}

func (s *ChatSubscription) Updates() <-chan []model.Chat {
	return s.updates
}

// Cancel detaches the subscription. Idempotent.
func (s *ChatSubscription) Cancel() {
	s.once.Do(s.stop)
}

// publish hands a fresh result set to the consumer. A still-pending older
// snapshot is dropped first: only the latest state matters.
func (s *ChatSubscription) publish(chats []model.Chat) {
	for {
		select {
		case s.updates <- chats:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

func (s *ChatSubscription) close() {
	close(s.updates)
}

// MessageSubscription is a standing query over one chat's ordered message log.
type MessageSubscription struct {
	updates chan []model.Message
	stop    func()
	once    sync.Once
}

func NewMessageSubscription(stop func()) *MessageSubscription {
	return &MessageSubscription{
		updates: make(chan []model.Message, 1),
		stop:    stop,
	}
}

func (s *MessageSubscription) Updates() <-chan []model.Message {
	return s.updates
}

func (s *MessageSubscription) Cancel() {
	s.once.Do(s.stop)
}

func (s *MessageSubscription) publish(msgs []model.Message) {
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

func (s *MessageSubscription) close() {
	close(s.updates)
}
