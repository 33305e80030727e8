package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/comigor/chatbot-go/internal/auth"
	"github.com/comigor/chatbot-go/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	userIDKey       = "user_id"
)

// requestID tags the request context with an id, reusing the caller's when given.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.FromContext(c.Request.Context()).Infow("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's user id on the context.
func requireAuth(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := v.FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			logger.FromContext(c.Request.Context()).Infow("rejected credentials", "error", err)
			msg := auth.ErrInvalidToken.Error()
			if errors.Is(err, auth.ErrMissingToken) {
				msg = err.Error()
			}
			abortWithError(c, http.StatusUnauthorized, msg)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
