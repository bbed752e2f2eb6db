package platform

import (
	"context"

	"github.com/baikal-ai/baikalctl/internal/gateway"
)

// Assistant dispatches chat turns to the backend AI endpoint.
type Assistant struct {
	client *gateway.Client
}

func NewAssistant(client *gateway.Client) *Assistant {
	return &Assistant{client: client}
}

// Chat sends one message with the full prior history and returns the reply.
func (a *Assistant) Chat(ctx context.Context, message string, history []TurnMessage) (string, error) {
	resp, err := a.client.Post(ctx, "/ai/chat", map[string]any{
		"message": message,
		"history": history,
	})
	if err != nil {
		return "", err
	}
	var result struct {
		Reply string `json:"reply"`
	}
	if err := gateway.DecodeJSON(resp, &result); err != nil {
		return "", err
	}
	return result.Reply, nil
}
