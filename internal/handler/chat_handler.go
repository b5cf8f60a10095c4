package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qolda/qolda-backend/internal/auth"
	"github.com/qolda/qolda-backend/internal/chat"
	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

type ChatHandler struct {
	store store.Store
}

func NewChatHandler(st store.Store) *ChatHandler {
	return &ChatHandler{store: st}
}

type CreateChatRequest struct {
	PeerUID string `json:"peerUid"`
}

type ChatResponse struct {
	ChatID       string   `json:"chatId"`
	Participants []string `json:"participants"`
	LastMessage  string   `json:"lastMessage,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}

type MessageResponse struct {
	ID        string `json:"id"`
	SenderUID string `json:"senderId"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

func toChatResponse(c *model.Chat) ChatResponse {
	resp := ChatResponse{
		ChatID:       c.ID,
		Participants: c.Participants,
		LastMessage:  c.LastMessage,
	}
	if !c.CreatedAt.IsZero() {
		resp.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func toMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SenderUID: m.SenderUID,
		Text:      m.Text,
		Timestamp: m.SentAt.Format(time.RFC3339Nano),
	}
}

func session(c echo.Context) (auth.Session, bool) {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return nil, false
	}
	return auth.Static(uid), true
}

// chatError maps the chat core's taxonomy onto HTTP. Validation failures
// are the caller's cue to navigate away; store failures are transient.
func chatError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, chat.ErrNotAuthenticated):
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "sign in required"))
	case errors.Is(err, chat.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "chat not found"))
	case errors.Is(err, chat.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
	case errors.Is(err, chat.ErrInvalidPeer):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid peer"))
	default:
		return c.JSON(http.StatusBadGateway, NewErrorResponse("store_unavailable", "try again"))
	}
}

// Create resolves (or creates) the chat between the caller and peerUid.
func (h *ChatHandler) Create(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req CreateChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	resolver := chat.NewResolver(sess, h.store.Chats())
	resolved, err := resolver.GetOrCreate(c.Request().Context(), req.PeerUID)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, toChatResponse(resolved))
}

// List returns the caller's thread rows once.
func (h *ChatHandler) List(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	rows, err := chat.SnapshotRows(c.Request().Context(), sess, h.store)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Get returns chat metadata, running the same entry validation the message
// view performs.
func (h *ChatHandler) Get(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	resolved, err := chat.Authorize(c.Request().Context(), sess, h.store.Chats(), c.Param("id"))
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, toChatResponse(resolved))
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	msgs, err := chat.Messages(c.Request().Context(), sess, h.store.Chats(), c.Param("id"))
	if err != nil {
		return chatError(c, err)
	}
	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	return c.JSON(http.StatusOK, resp)
}

// SendMessage appends a message. Whitespace-only text is accepted and
// dropped, mirroring the client-side no-op.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := chat.Send(c.Request().Context(), sess, h.store.Chats(), c.Param("id"), req.Text); err != nil {
		return chatError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes the chat and its messages, then the client navigates away.
func (h *ChatHandler) Delete(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	if err := chat.Delete(c.Request().Context(), sess, h.store.Chats(), c.Param("id")); err != nil {
		return chatError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StreamThreads pushes the caller's thread rows over SSE on every change.
func (h *ChatHandler) StreamThreads(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	ctx := c.Request().Context()

	list := chat.NewThreadList(sess, h.store)
	list.Start(ctx)
	defer list.Close()

	prepareEventStream(c)
	for {
		select {
		case <-ctx.Done():
			return nil
		case rows, ok := <-list.Updates():
			if !ok {
				return nil
			}
			if err := writeEvent(c, rows); err != nil {
				return nil
			}
		}
	}
}

// StreamMessages pushes one chat's ordered log over SSE on every change.
// Entry validation happens before the stream is established, so an outsider
// never gets a subscription.
func (h *ChatHandler) StreamMessages(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	ctx := c.Request().Context()

	stream, err := chat.OpenMessageStream(ctx, sess, h.store, c.Param("id"))
	if err != nil {
		return chatError(c, err)
	}
	defer stream.Close()

	prepareEventStream(c)
	if err := writeEvent(c, messageEvent(stream.Messages())); err != nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msgs, ok := <-stream.Updates():
			if !ok {
				return nil
			}
			if err := writeEvent(c, messageEvent(msgs)); err != nil {
				return nil
			}
		}
	}
}

func messageEvent(msgs []model.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func prepareEventStream(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-store")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()
}

func writeEvent(c echo.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
