package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

func doJSON(t *testing.T, uid, method, target, body string, h echo.HandlerFunc, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set("uid", uid)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	require.NoError(t, h(c))
	return rec
}

func TestChatCreateAndList(t *testing.T) {
	st := store.NewMemory()
	h := NewChatHandler(st)

	rec := doJSON(t, "alice", http.MethodPost, "/api/chats", `{"peerUid":"bob"}`, h.Create)
	require.Equal(t, http.StatusOK, rec.Code)

	var created ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "alice_bob", created.ChatID)
	assert.Equal(t, []string{"alice", "bob"}, created.Participants)

	// Same pair from the other side resolves to the same chat.
	rec = doJSON(t, "bob", http.MethodPost, "/api/chats", `{"peerUid":"alice"}`, h.Create)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, "alice", http.MethodGet, "/api/chats", "", h.List)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "No messages", rows[0]["lastMessage"])
	assert.Equal(t, "Unknown user", rows[0]["peerName"])
}

func TestChatCreateRejections(t *testing.T) {
	h := NewChatHandler(store.NewMemory())

	rec := doJSON(t, "", http.MethodPost, "/api/chats", `{"peerUid":"bob"}`, h.Create)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, "alice", http.MethodPost, "/api/chats", `{"peerUid":"alice"}`, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, "alice", http.MethodPost, "/api/chats", `{"peerUid":""}`, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatAccessControl(t *testing.T) {
	st := store.NewMemory()
	h := NewChatHandler(st)

	rec := doJSON(t, "alice", http.MethodPost, "/api/chats", `{"peerUid":"bob"}`, h.Create)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, "mallory", http.MethodGet, "/api/chats/alice_bob", "", h.Get, "id", "alice_bob")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, "alice", http.MethodGet, "/api/chats/no_such", "", h.Get, "id", "no_such")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, "bob", http.MethodGet, "/api/chats/alice_bob", "", h.Get, "id", "alice_bob")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendMessageEndpoint(t *testing.T) {
	st := store.NewMemory()
	h := NewChatHandler(st)

	doJSON(t, "alice", http.MethodPost, "/api/chats", `{"peerUid":"bob"}`, h.Create)

	// Whitespace-only is accepted and dropped.
	rec := doJSON(t, "alice", http.MethodPost, "/api/chats/alice_bob/messages", `{"text":"   "}`, h.SendMessage, "id", "alice_bob")
	require.Equal(t, http.StatusNoContent, rec.Code)
	msgs, err := st.Chats().ListMessages(context.Background(), "alice_bob")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	rec = doJSON(t, "alice", http.MethodPost, "/api/chats/alice_bob/messages", `{"text":"salam"}`, h.SendMessage, "id", "alice_bob")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, "bob", http.MethodGet, "/api/chats/alice_bob/messages", "", h.ListMessages, "id", "alice_bob")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].SenderUID)
	assert.Equal(t, "salam", got[0].Text)
}

func TestDeleteChatEndpoint(t *testing.T) {
	st := store.NewMemory()
	h := NewChatHandler(st)

	doJSON(t, "alice", http.MethodPost, "/api/chats", `{"peerUid":"bob"}`, h.Create)

	rec := doJSON(t, "mallory", http.MethodDelete, "/api/chats/alice_bob", "", h.Delete, "id", "alice_bob")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, "alice", http.MethodDelete, "/api/chats/alice_bob", "", h.Delete, "id", "alice_bob")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Idempotent: deleting again still succeeds.
	rec = doJSON(t, "alice", http.MethodDelete, "/api/chats/alice_bob", "", h.Delete, "id", "alice_bob")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPublicProfileEndpoint(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Users().Set(context.Background(), &model.UserProfile{UID: "bob", Name: "Bob B."}))
	h := NewProfileHandler(nil, st.Users())

	rec := doJSON(t, "", http.MethodGet, "/api/users/bob/public", "", h.GetPublic, "uid", "bob")
	require.Equal(t, http.StatusOK, rec.Code)
	var got PublicUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Bob B.", got.Name)

	rec = doJSON(t, "", http.MethodGet, "/api/users/ghost/public", "", h.GetPublic, "uid", "ghost")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Unknown user", got.Name)
	assert.Equal(t, "/placeholder.svg", got.Avatar)
}
