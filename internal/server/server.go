// Package server exposes the conversation service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comigor/chatbot-go/internal/auth"
	"github.com/comigor/chatbot-go/internal/conversation"
	"github.com/comigor/chatbot-go/internal/logger"
)

type Handler struct {
	svc      *conversation.Service
	verifier *auth.Verifier
}

// New builds the gin engine with every route registered.
func New(svc *conversation.Service, verifier *auth.Verifier) *gin.Engine {
	h := &Handler{svc: svc, verifier: verifier}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	api.POST("/chat/message/", h.adHoc)

	authed := api.Group("/auth", requireAuth(verifier))
	registerChatRoutes(authed, h)
	registerConversationRoutes(authed, h)

	return r
}

func registerChatRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.POST("/chat/message/", h.newExchange)
	rg.GET("/chat/conversations/", h.listConversations)
	rg.POST("/chat/save/", h.save)
	rg.GET("/chat/history/", h.history)
	rg.GET("/chat/history/:id/", h.conversationHistory)
	rg.POST("/chat/clear/", h.clear)
}

func registerConversationRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.GET("/conversations/:id/", h.getConversation)
	rg.DELETE("/conversations/:id/", h.deleteConversation)
	rg.POST("/conversations/:id/send/", h.send)
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Infow("starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L.Infow("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
