package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/comigor/chatbot-go/internal/auth"
	"github.com/comigor/chatbot-go/internal/chat"
	"github.com/comigor/chatbot-go/internal/conversation"
	"github.com/comigor/chatbot-go/internal/history"
	"github.com/comigor/chatbot-go/internal/llm"
)

const testSecret = "server-test-secret"

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(context.Context, chat.ChatType, []chat.Turn) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestEngine(t *testing.T, comp *stubCompleter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := conversation.NewService(history.NewMemoryStore(), comp)
	return New(svc, auth.NewVerifier(testSecret))
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := auth.NewToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, r http.Handler, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthzAndRequestID(t *testing.T) {
	r := newTestEngine(t, &stubCompleter{})
	w := do(t, r, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestAdHoc(t *testing.T) {
	r := newTestEngine(t, &stubCompleter{reply: "Hello!"})

	w := do(t, r, http.MethodPost, "/api/chat/message/", "", gin.H{"message": "Hi"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	require.Equal(t, "Hi", body["message"])
	require.Equal(t, "Hello!", body["response"])
	require.NotEmpty(t, body["created_at"])

	w = do(t, r, http.MethodPost, "/api/chat/message/", "", gin.H{"message": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Message is required", decode[map[string]string](t, w)["error"])
}

func TestAdHoc_BackendFailureIs500WithMessage(t *testing.T) {
	comp := &stubCompleter{err: &llm.CompletionError{Kind: llm.FailureAuth, Err: errors.New("401")}}
	r := newTestEngine(t, comp)

	w := do(t, r, http.MethodPost, "/api/chat/message/", "", gin.H{"message": "Hi"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, comp.err.(*llm.CompletionError).Message(), decode[map[string]string](t, w)["error"])
}

func TestAuthRequired(t *testing.T) {
	r := newTestEngine(t, &stubCompleter{reply: "x"})

	for _, authz := range []string{"", "Bearer nope"} {
		w := do(t, r, http.MethodGet, "/api/auth/chat/conversations/", authz, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.NotEmpty(t, decode[map[string]string](t, w)["error"])
	}
}

func TestNewExchangeThenContinue(t *testing.T) {
	comp := &stubCompleter{reply: "Sure."}
	r := newTestEngine(t, comp)
	alice := bearer(t, 1)

	w := do(t, r, http.MethodPost, "/api/auth/chat/message/", alice, gin.H{"message": "Help me code", "chatType": "coding"})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[map[string]any](t, w)
	require.Equal(t, "coding", created["chatbot_type"])
	require.Equal(t, "Sure.", created["response"])
	id := uint(created["conversation_id"].(float64))

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/auth/conversations/%d/send/", id), alice, gin.H{"content": "More please"})
	require.Equal(t, http.StatusCreated, w.Code)
	cont := decode[conversation.ContinueOutput](t, w)
	require.Equal(t, "More please", cont.UserMessage.Content)
	require.Equal(t, chat.RoleAssistant, cont.AIMessage.Role)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/auth/conversations/%d/", id), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	full := decode[conversationResponse](t, w)
	require.Len(t, full.Messages, 4)
	require.False(t, full.IsVisible)

	// another user cannot see or extend it
	bob := bearer(t, 2)
	calls := comp.calls
	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/auth/conversations/%d/send/", id), bob, gin.H{"content": "hi"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Conversation not found", decode[map[string]string](t, w)["error"])
	require.Equal(t, calls, comp.calls)

	w = do(t, r, http.MethodGet, "/api/auth/conversations/abc/", alice, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/auth/conversations/%d/send/", id), alice, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveListHistoryClear(t *testing.T) {
	r := newTestEngine(t, &stubCompleter{reply: "Paris Trip"})
	alice := bearer(t, 1)

	w := do(t, r, http.MethodPost, "/api/auth/chat/save/", alice, gin.H{
		"chatType": "travel",
		"messages": []gin.H{
			{"role": "user", "content": "Hi"},
			{"role": "assistant", "content": "Hello"},
			{"role": "user", "content": "Tell me about Paris"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	saved := decode[saveResponse](t, w)
	require.Equal(t, "Paris Trip", saved.Title)
	require.Equal(t, "success", saved.Status)

	w = do(t, r, http.MethodGet, "/api/auth/chat/conversations/", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]conversation.Summary](t, w)
	require.Len(t, list, 1)
	require.Equal(t, "Tell me about Paris", list[0].LastMessage)

	w = do(t, r, http.MethodGet, "/api/auth/chat/history/", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]conversation.HistoryEntry](t, w), 1)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/auth/chat/history/%d/", saved.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]conversation.HistoryEntry](t, w), 3)

	for i := 0; i < 2; i++ {
		w = do(t, r, http.MethodPost, "/api/auth/chat/clear/", alice, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, decode[map[string]string](t, w)["message"])
	}

	w = do(t, r, http.MethodGet, "/api/auth/chat/conversations/", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", w.Body.String())
}

func TestSave_EmptyMessagesIs400(t *testing.T) {
	r := newTestEngine(t, &stubCompleter{})
	w := do(t, r, http.MethodPost, "/api/auth/chat/save/", bearer(t, 1), gin.H{"messages": []gin.H{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteConversation(t *testing.T) {
	r := newTestEngine(t, &stubCompleter{reply: "ok"})
	alice := bearer(t, 1)

	w := do(t, r, http.MethodPost, "/api/auth/chat/message/", alice, gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	id := uint(decode[map[string]any](t, w)["conversation_id"].(float64))

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/auth/conversations/%d/", id), bearer(t, 2), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/auth/conversations/%d/", id), alice, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/auth/chat/history/%d/", id), alice, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnexpectedErrorIsGeneric(t *testing.T) {
	r := newTestEngine(t, &stubCompleter{err: errors.New("secret internals")})
	w := do(t, r, http.MethodPost, "/api/chat/message/", "", gin.H{"message": "Hi"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "internal server error", decode[map[string]string](t, w)["error"])
}
