package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comigor/chatbot-go/internal/chat"
	"github.com/comigor/chatbot-go/internal/conversation"
	"github.com/comigor/chatbot-go/internal/history"
)

type chatRequest struct {
	Message  string      `json:"message"`
	ChatType string      `json:"chatType"`
	Context  []chat.Turn `json:"context"`
}

type sendRequest struct {
	Content string `json:"content"`
	Message string `json:"message"`
}

type saveRequest struct {
	Messages []chat.Turn `json:"messages"`
	ChatType string      `json:"chatType"`
}

type saveResponse struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type conversationResponse struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	ChatbotType chat.ChatType     `json:"chatbot_type"`
	IsVisible   bool              `json:"is_visible"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Messages    []history.Message `json:"messages"`
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// conversationID parses the :id path segment. Non-numeric ids cannot name a
// conversation, so they are reported as not found.
func conversationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) adHoc(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.svc.AdHoc(c.Request.Context(), req.Message, chat.ParseType(req.ChatType))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) newExchange(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.svc.NewExchange(c.Request.Context(), conversation.NewExchangeInput{
		UserID:      currentUser(c),
		Message:     req.Message,
		ChatbotType: chat.ParseType(req.ChatType),
		Context:     req.Context,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) send(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	var req sendRequest
	if !bindJSON(c, &req) {
		return
	}
	content := req.Content
	if content == "" {
		content = req.Message
	}

	out, err := h.svc.Continue(c.Request.Context(), conversation.ContinueInput{
		UserID:         currentUser(c),
		ConversationID: id,
		Message:        content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) listConversations(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) save(c *gin.Context) {
	var req saveRequest
	if !bindJSON(c, &req) {
		return
	}
	conv, err := h.svc.Save(c.Request.Context(), conversation.SaveInput{
		UserID:      currentUser(c),
		Messages:    req.Messages,
		ChatbotType: chat.ParseType(req.ChatType),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saveResponse{ID: conv.ID, Title: conv.Title, Status: "success"})
}

func (h *Handler) history(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) conversationHistory(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	entries, err := h.svc.ConversationHistory(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) clear(c *gin.Context) {
	if _, err := h.svc.Clear(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared successfully"})
}

func (h *Handler) getConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	conv, err := h.svc.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	msgs := conv.Messages
	if msgs == nil {
		msgs = []history.Message{}
	}
	c.JSON(http.StatusOK, conversationResponse{
		ID:          conv.ID,
		Title:       conv.Title,
		ChatbotType: conv.ChatbotType,
		IsVisible:   conv.IsVisible,
		CreatedAt:   conv.CreatedAt,
		UpdatedAt:   conv.UpdatedAt,
		Messages:    msgs,
	})
}

func (h *Handler) deleteConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
