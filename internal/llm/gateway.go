package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/chatbot-go/internal/chat"
	"github.com/comigor/chatbot-go/internal/config"
	"github.com/comigor/chatbot-go/internal/logger"
)

// ErrCompletion matches every *CompletionError via errors.Is.
var ErrCompletion = errors.New("completion failed")

// FailureKind classifies why a completion call did not yield a reply.
type FailureKind string

const (
	FailureAuth    FailureKind = "auth"
	FailureNetwork FailureKind = "network"
	FailureEmpty   FailureKind = "empty"
	FailureBackend FailureKind = "backend"
)

// CompletionError is the failure variant of a completion call.
type CompletionError struct {
	Kind FailureKind
	Err  error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("completion failed (%s)", e.Kind)
	}
	return fmt.Sprintf("completion failed (%s): %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

func (e *CompletionError) Is(target error) bool { return target == ErrCompletion }

// Message is the human-readable text safe to hand to API clients.
func (e *CompletionError) Message() string {
	switch e.Kind {
	case FailureAuth:
		return "The completion service rejected the configured API key."
	case FailureNetwork:
		return "The completion service could not be reached. Please try again."
	case FailureEmpty:
		return "The completion service returned no response."
	default:
		return "The completion service failed to produce a response."
	}
}

// Completer is what the orchestrator needs from the gateway.
type Completer interface {
	Complete(ctx context.Context, t chat.ChatType, turns []chat.Turn) (string, error)
}

// Gateway performs exactly one chat completion call per invocation and
// normalises its outcome into reply text or a *CompletionError.
type Gateway struct {
	client    Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewGateway builds a gateway over client using the model settings in cfg.
func NewGateway(client Client, cfg config.LLMConfig) *Gateway {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &Gateway{
		client:    client,
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
	}
}

// Complete sends turns with t's sampling parameters. No retry is attempted.
func (g *Gateway) Complete(ctx context.Context, t chat.ChatType, turns []chat.Turn) (string, error) {
	persona, _ := chat.Lookup(t)
	log := logger.FromContext(ctx)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	log.Debugw("sending completion request", "chatbot_type", string(persona.Type), "turns", len(messages), "model", g.model)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            g.model,
		Messages:         messages,
		MaxTokens:        g.maxTokens,
		Temperature:      persona.Sampling.Temperature,
		PresencePenalty:  persona.Sampling.PresencePenalty,
		FrequencyPenalty: persona.Sampling.FrequencyPenalty,
	})
	if err != nil {
		cerr := classify(err)
		log.Errorw("completion call failed", "kind", string(cerr.Kind), "error", err)
		return "", cerr
	}

	if len(resp.Choices) == 0 {
		log.Errorw("completion returned no choices")
		return "", &CompletionError{Kind: FailureEmpty, Err: errors.New("no choices in response")}
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		log.Errorw("completion returned empty content")
		return "", &CompletionError{Kind: FailureEmpty, Err: errors.New("empty message content")}
	}

	return text, nil
}

func classify(err error) *CompletionError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return &CompletionError{Kind: FailureAuth, Err: err}
		}
		return &CompletionError{Kind: FailureBackend, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden {
			return &CompletionError{Kind: FailureAuth, Err: err}
		}
		return &CompletionError{Kind: FailureBackend, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &CompletionError{Kind: FailureNetwork, Err: err}
	}

	if strings.Contains(strings.ToLower(err.Error()), "api_key") {
		return &CompletionError{Kind: FailureAuth, Err: err}
	}

	return &CompletionError{Kind: FailureBackend, Err: err}
}
