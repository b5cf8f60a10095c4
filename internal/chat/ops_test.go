package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolda/qolda-backend/internal/auth"
	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

func newChat(t *testing.T, st store.Store, a, b string) *model.Chat {
	t.Helper()
	c, err := NewResolver(auth.Static(a), st.Chats()).GetOrCreate(context.Background(), b)
	require.NoError(t, err)
	return c
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := newChat(t, st, "alice", "bob")

	_, err := Authorize(ctx, auth.Static(""), st.Chats(), c.ID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = Authorize(ctx, auth.Static("alice"), st.Chats(), "no_such_chat")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Authorize(ctx, auth.Static("mallory"), st.Chats(), c.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := Authorize(ctx, auth.Static("bob"), st.Chats(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestSendWhitespaceIsNoOp(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := newChat(t, st, "alice", "bob")

	require.NoError(t, Send(ctx, auth.Static("alice"), st.Chats(), c.ID, "   \n\t  "))

	msgs, err := st.Chats().ListMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	got, err := st.Chats().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LastMessage)
}

func TestSendAppendsAndUpdatesPreview(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := newChat(t, st, "alice", "bob")

	require.NoError(t, Send(ctx, auth.Static("alice"), st.Chats(), c.ID, "salam"))
	require.NoError(t, Send(ctx, auth.Static("bob"), st.Chats(), c.ID, "hello"))

	msgs, err := Messages(ctx, auth.Static("alice"), st.Chats(), c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice", msgs[0].SenderUID)
	assert.Equal(t, "salam", msgs[0].Text)
	assert.Equal(t, "hello", msgs[1].Text)
	assert.False(t, msgs[1].SentAt.Before(msgs[0].SentAt))

	got, err := st.Chats().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.LastMessage)
}

func TestSendRequiresMembership(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := newChat(t, st, "alice", "bob")

	err := Send(ctx, auth.Static("mallory"), st.Chats(), c.ID, "let me in")
	assert.ErrorIs(t, err, ErrUnauthorized)

	msgs, err := st.Chats().ListMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDeleteCascadesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := newChat(t, st, "alice", "bob")
	sess := auth.Static("alice")

	require.NoError(t, Send(ctx, sess, st.Chats(), c.ID, "salam"))

	require.NoError(t, Delete(ctx, sess, st.Chats(), c.ID))
	_, err := Authorize(ctx, sess, st.Chats(), c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Already gone counts as deleted.
	require.NoError(t, Delete(ctx, sess, st.Chats(), c.ID))

	// Recreating the pair yields a fresh, empty log: the old messages went
	// with the chat.
	c2 := newChat(t, st, "alice", "bob")
	msgs, err := Messages(ctx, sess, st.Chats(), c2.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
