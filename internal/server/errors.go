package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comigor/chatbot-go/internal/conversation"
	"github.com/comigor/chatbot-go/internal/llm"
	"github.com/comigor/chatbot-go/internal/logger"
)

const (
	msgNotFound = "Conversation not found"
	msgInternal = "internal server error"
)

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondError maps service errors onto status codes. Unexpected errors are
// logged and replaced with a generic message.
func respondError(c *gin.Context, err error) {
	var verr *conversation.ValidationError
	var cerr *llm.CompletionError

	switch {
	case errors.As(err, &verr):
		abortWithError(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, conversation.ErrNotFound):
		abortWithError(c, http.StatusNotFound, msgNotFound)
	case errors.As(err, &cerr):
		abortWithError(c, http.StatusInternalServerError, cerr.Message())
	default:
		logger.FromContext(c.Request.Context()).Errorw("unexpected error", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusInternalServerError, msgInternal)
	}
}
