package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolda/qolda-backend/internal/auth"
	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/profile"
	"github.com/qolda/qolda-backend/internal/store"
)

// waitForRows polls the list's update channel until pred holds or the
// deadline passes.
func waitForRows(t *testing.T, l *ThreadList, pred func([]ThreadRow) bool) []ThreadRow {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case rows := <-l.Updates():
			if pred(rows) {
				return rows
			}
		case <-deadline:
			t.Fatalf("timed out waiting for thread rows, have %v", l.Rows())
			return nil
		}
	}
}

func TestSnapshotRowsFallbacks(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Users().Set(ctx, &model.UserProfile{UID: "bob", Name: "Bob B.", AvatarURL: "https://example.com/bob.png"}))

	newChat(t, st, "alice", "bob")     // known peer, no messages yet
	newChat(t, st, "alice", "ghost")   // peer with no profile document
	c := newChat(t, st, "alice", "carol")
	require.NoError(t, Send(ctx, auth.Static("alice"), st.Chats(), c.ID, "see you at 5"))

	rows, err := SnapshotRows(ctx, auth.Static("alice"), st)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byPeer := make(map[string]ThreadRow, len(rows))
	for _, row := range rows {
		byPeer[row.PeerUID] = row
	}

	assert.Equal(t, "Bob B.", byPeer["bob"].PeerName)
	assert.Equal(t, "https://example.com/bob.png", byPeer["bob"].PeerAvatarURL)
	assert.Equal(t, PlaceholderLastMessage, byPeer["bob"].LastMessage)

	assert.Equal(t, profile.PlaceholderName, byPeer["ghost"].PeerName)
	assert.Equal(t, profile.PlaceholderAvatar, byPeer["ghost"].PeerAvatarURL)

	assert.Equal(t, "see you at 5", byPeer["carol"].LastMessage)
}

func TestSnapshotRowsRequiresUser(t *testing.T) {
	_, err := SnapshotRows(context.Background(), auth.Static(""), store.NewMemory())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestThreadListFollowsSession(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	newChat(t, st, "alice", "bob")

	session := auth.NewLocal()
	l := NewThreadList(session, st)
	l.Start(ctx)
	defer l.Close()

	// Signed out: nothing to show, no subscription running.
	assert.Empty(t, l.Rows())

	session.SignIn("alice")
	rows := waitForRows(t, l, func(rows []ThreadRow) bool { return len(rows) == 1 })
	assert.Equal(t, "bob", rows[0].PeerUID)

	// A new chat fans out through the standing subscription.
	newChat(t, st, "alice", "carol")
	waitForRows(t, l, func(rows []ThreadRow) bool { return len(rows) == 2 })

	// Sign-out cancels the subscription and empties the view.
	session.SignOut()
	waitForRows(t, l, func(rows []ThreadRow) bool { return len(rows) == 0 })

	// Chats created while signed out stay invisible.
	newChat(t, st, "alice", "dana")
	select {
	case rows := <-l.Updates():
		assert.Empty(t, rows)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestThreadListSwitchingUsers(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	newChat(t, st, "alice", "bob")
	newChat(t, st, "carol", "dana")
	newChat(t, st, "carol", "bob")

	session := auth.NewLocal()
	session.SignIn("alice")

	l := NewThreadList(session, st)
	l.Start(ctx)
	defer l.Close()

	waitForRows(t, l, func(rows []ThreadRow) bool { return len(rows) == 1 })

	session.SignIn("carol")
	rows := waitForRows(t, l, func(rows []ThreadRow) bool { return len(rows) == 2 })
	for _, row := range rows {
		assert.NotEqual(t, "carol", row.PeerUID)
	}
}

func TestThreadListCloseWithoutStart(t *testing.T) {
	l := NewThreadList(auth.NewLocal(), store.NewMemory())
	done := make(chan struct{})
	go func() {
		l.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked without a running event loop")
	}
}

func TestThreadListDoubleStartAndClose(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	session := auth.NewLocal()
	session.SignIn("alice")

	l := NewThreadList(session, st)
	l.Start(ctx)
	l.Start(ctx) // second start is ignored
	l.Close()
	l.Close() // second close is a no-op
}
