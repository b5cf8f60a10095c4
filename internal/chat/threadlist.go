package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/qolda/qolda-backend/internal/auth"
	"github.com/qolda/qolda-backend/internal/logger"
	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/profile"
	"github.com/qolda/qolda-backend/internal/store"
)

// PlaceholderLastMessage is shown for chats that have no messages yet.
const PlaceholderLastMessage = "No messages"

// ThreadRow is one denormalized entry of the thread list: the counterpart's
// display data plus the chat's last message preview.
type ThreadRow struct {
	ChatID        string `json:"chatId"`
	PeerUID       string `json:"peerUid"`
	PeerName      string `json:"peerName"`
	PeerAvatarURL string `json:"peerAvatar"`
	LastMessage   string `json:"lastMessage"`
}

// ThreadList keeps a live view of every chat the current user participates
// in. The chat subscription only runs while the session has a user: it
// starts when the identity becomes available and is cancelled on sign-out
// and on Close.
type ThreadList struct {
	session  auth.Session
	chats    store.ChatRepository
	profiles *profile.Resolver

	mu   sync.Mutex
	rows []ThreadRow

	updates chan []ThreadRow
	closed  chan struct{}
	done    chan struct{}
	started bool
	once    sync.Once
}

func NewThreadList(session auth.Session, st store.Store) *ThreadList {
	return &ThreadList{
		session:  session,
		chats:    st.Chats(),
		profiles: profile.NewResolver(st.Users()),
		updates:  make(chan []ThreadRow, 1),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the view's event loop. It returns immediately; rows arrive
// through Updates and Rows as the store fans changes out.
func (l *ThreadList) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()
	go l.run(ctx)
}

func (l *ThreadList) run(ctx context.Context) {
	defer close(l.done)

	watch := l.session.Watch()
	defer watch.Cancel()

	var (
		uid        string
		sub        *store.ChatSubscription
		subUpdates <-chan []model.Chat
	)
	stopSub := func() {
		if sub != nil {
			sub.Cancel()
			sub, subUpdates = nil, nil
		}
	}
	defer stopSub()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.closed:
			return
		case next, ok := <-watch.Updates():
			if !ok {
				return
			}
			if next == uid {
				continue
			}
			uid = next
			stopSub()
			l.setRows(nil)
			if uid == "" {
				continue
			}
			cs, err := l.chats.WatchByParticipant(ctx, uid)
			if err != nil {
				logger.Log.Warn("thread list subscription failed",
					zap.String("uid", uid), zap.Error(err))
				continue
			}
			sub = cs
			subUpdates = sub.Updates()
		case chats, ok := <-subUpdates:
			if !ok {
				subUpdates = nil
				continue
			}
			l.setRows(l.buildRows(ctx, uid, chats))
		}
	}
}

func (l *ThreadList) buildRows(ctx context.Context, uid string, chats []model.Chat) []ThreadRow {
	return buildThreadRows(ctx, uid, chats, l.profiles)
}

func buildThreadRows(ctx context.Context, uid string, chats []model.Chat, profiles *profile.Resolver) []ThreadRow {
	rows := make([]ThreadRow, 0, len(chats))
	for _, c := range chats {
		peer := c.Other(uid)
		p := profiles.Lookup(ctx, peer)
		last := c.LastMessage
		if last == "" {
			last = PlaceholderLastMessage
		}
		rows = append(rows, ThreadRow{
			ChatID:        c.ID,
			PeerUID:       peer,
			PeerName:      p.Name,
			PeerAvatarURL: p.AvatarURL,
			LastMessage:   last,
		})
	}
	return rows
}

// SnapshotRows materializes the thread list once, without standing up a
// subscription. Used by request-scoped callers.
func SnapshotRows(ctx context.Context, session auth.Session, st store.Store) ([]ThreadRow, error) {
	uid := session.CurrentUID()
	if uid == "" {
		return nil, ErrNotAuthenticated
	}
	chats, err := st.Chats().ListByParticipant(ctx, uid)
	if err != nil {
		return nil, unavailable(err)
	}
	return buildThreadRows(ctx, uid, chats, profile.NewResolver(st.Users())), nil
}

func (l *ThreadList) setRows(rows []ThreadRow) {
	l.mu.Lock()
	l.rows = rows
	l.mu.Unlock()

	for {
		select {
		case l.updates <- rows:
			return
		default:
			select {
			case <-l.updates:
			default:
			}
		}
	}
}

// Rows returns the current materialized list.
func (l *ThreadList) Rows() []ThreadRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ThreadRow, len(l.rows))
	copy(out, l.rows)
	return out
}

// Updates delivers the full row set after every change, keeping only the
// most recent unconsumed state.
func (l *ThreadList) Updates() <-chan []ThreadRow {
	return l.updates
}

// Close tears the view down, cancelling its subscriptions. Blocks until the
// event loop has exited, so no callback can mutate state afterwards.
func (l *ThreadList) Close() {
	l.once.Do(func() { close(l.closed) })
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if started {
		<-l.done
	}
}
