package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/comigor/chatbot-go/internal/chat"
)

// PersonasTool lists the chatbot personas and their sampling settings.
type PersonasTool struct{}

func (PersonasTool) Name() string { return "personas" }

func (PersonasTool) Description() string {
	return "List the available chatbot personas with their system prompts and sampling parameters."
}

func (p PersonasTool) Definition() mcp.Tool {
	return mcp.NewTool(p.Name(), mcp.WithDescription(p.Description()))
}

type personaView struct {
	Type             chat.ChatType `json:"type"`
	Prompt           string        `json:"prompt"`
	Temperature      float32       `json:"temperature"`
	PresencePenalty  float32       `json:"presence_penalty"`
	FrequencyPenalty float32       `json:"frequency_penalty"`
}

func (PersonasTool) Run(context.Context, map[string]any) (string, error) {
	ps := chat.Personas()
	out := make([]personaView, 0, len(ps))
	for _, p := range ps {
		out = append(out, personaView{
			Type:             p.Type,
			Prompt:           p.Prompt,
			Temperature:      p.Sampling.Temperature,
			PresencePenalty:  p.Sampling.PresencePenalty,
			FrequencyPenalty: p.Sampling.FrequencyPenalty,
		})
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
