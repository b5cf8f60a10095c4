package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolda/qolda-backend/internal/model"
)

func recvChats(t *testing.T, sub *ChatSubscription) []model.Chat {
	t.Helper()
	select {
	case chats := <-sub.Updates():
		return chats
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chat update")
		return nil
	}
}

func recvMessages(t *testing.T, sub *MessageSubscription) []model.Message {
	t.Helper()
	select {
	case msgs := <-sub.Updates():
		return msgs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message update")
		return nil
	}
}

func TestChatGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	chat := &model.Chat{ID: "a_b", Participants: []string{"a", "b"}}
	created, isNew, err := s.Chats().GetOrCreate(ctx, chat)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.False(t, created.CreatedAt.IsZero(), "creation assigns the server timestamp")

	again, isNew, err := s.Chats().GetOrCreate(ctx, &model.Chat{ID: "a_b", Participants: []string{"a", "b"}})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.CreatedAt, again.CreatedAt)
}

func TestAppendMessageAssignsMonotonicTimestamps(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_, _, err := s.Chats().GetOrCreate(ctx, &model.Chat{ID: "a_b", Participants: []string{"a", "b"}})
	require.NoError(t, err)

	var prev time.Time
	for i := 0; i < 50; i++ {
		msg, err := s.Chats().AppendMessage(ctx, "a_b", &model.Message{SenderUID: "a", Text: "x"})
		require.NoError(t, err)
		assert.NotEmpty(t, msg.ID)
		assert.True(t, msg.SentAt.After(prev), "timestamps must be strictly increasing")
		prev = msg.SentAt
	}

	msgs, err := s.Chats().ListMessages(ctx, "a_b")
	require.NoError(t, err)
	assert.Len(t, msgs, 50)
}

func TestWatchByParticipant(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	sub, err := s.Chats().WatchByParticipant(ctx, "a")
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Empty(t, recvChats(t, sub), "initial snapshot fires immediately")

	_, _, err = s.Chats().GetOrCreate(ctx, &model.Chat{ID: "a_b", Participants: []string{"a", "b"}})
	require.NoError(t, err)
	chats := recvChats(t, sub)
	require.Len(t, chats, 1)
	assert.Equal(t, "a_b", chats[0].ID)

	// Unrelated chats do not wake this watcher with their members, but the
	// coalesced snapshot still only holds a's chats.
	_, _, err = s.Chats().GetOrCreate(ctx, &model.Chat{ID: "c_d", Participants: []string{"c", "d"}})
	require.NoError(t, err)

	require.NoError(t, s.Chats().SetLastMessage(ctx, "a_b", "hi"))
	chats = recvChats(t, sub)
	require.Len(t, chats, 1)
	assert.Equal(t, "hi", chats[0].LastMessage)
}

func TestWatchStopsAfterCancel(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	sub, err := s.Chats().WatchByParticipant(ctx, "a")
	require.NoError(t, err)
	recvChats(t, sub)
	sub.Cancel()
	sub.Cancel() // idempotent

	_, ok := <-sub.Updates()
	assert.False(t, ok, "updates channel closes on cancel")

	// Mutations after cancel must not panic on the closed channel.
	_, _, err = s.Chats().GetOrCreate(ctx, &model.Chat{ID: "a_b", Participants: []string{"a", "b"}})
	require.NoError(t, err)
}

func TestWatchMessagesCascadeDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_, _, err := s.Chats().GetOrCreate(ctx, &model.Chat{ID: "a_b", Participants: []string{"a", "b"}})
	require.NoError(t, err)

	sub, err := s.Chats().WatchMessages(ctx, "a_b")
	require.NoError(t, err)
	defer sub.Cancel()
	assert.Empty(t, recvMessages(t, sub))

	_, err = s.Chats().AppendMessage(ctx, "a_b", &model.Message{SenderUID: "a", Text: "hi"})
	require.NoError(t, err)
	assert.Len(t, recvMessages(t, sub), 1)

	require.NoError(t, s.Chats().Delete(ctx, "a_b"))
	assert.Empty(t, recvMessages(t, sub), "delete empties the watched log")

	require.NoError(t, s.Chats().Delete(ctx, "a_b"), "deleting an absent chat is a no-op")

	_, err = s.Chats().Get(ctx, "a_b")
	assert.ErrorIs(t, err, ErrNotFound)
	msgs, err := s.Chats().ListMessages(ctx, "a_b")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestWatchCancelledByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemory()

	sub, err := s.Chats().WatchByParticipant(ctx, "a")
	require.NoError(t, err)
	recvChats(t, sub)

	cancel()
	select {
	case _, ok := <-sub.Updates():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not cancelled with its context")
	}
}

func TestUserUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Users().Set(ctx, &model.UserProfile{UID: "a", Name: "Aliya", Bio: "tutor"}))

	require.NoError(t, s.Users().Update(ctx, "a", map[string]interface{}{"phone": "+7 700 000 00 00"}))
	p, err := s.Users().Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Aliya", p.Name, "untouched fields survive the merge")
	assert.Equal(t, "+7 700 000 00 00", p.Phone)

	assert.ErrorIs(t, s.Users().Update(ctx, "nobody", map[string]interface{}{"name": "x"}), ErrNotFound)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestListingsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	for _, l := range []model.Listing{
		{Title: "Math tutoring", Category: "tutoring"},
		{Title: "Shelf assembly", Category: "home-repair"},
		{Title: "English tutoring", Category: "tutoring"},
	} {
		listing := l
		_, err := s.Listings().Create(ctx, &listing)
		require.NoError(t, err)
	}

	all, err := s.Listings().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "English tutoring", all[0].Title, "newest first")

	tutoring, err := s.Listings().List(ctx, "tutoring")
	require.NoError(t, err)
	assert.Len(t, tutoring, 2)

	n, err := s.Listings().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
