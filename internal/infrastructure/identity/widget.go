package identity

import (
	"context"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
)

// widget is the platform-backed invisible verification widget. Tokens are
// minted server-side per challenge start.
type widget struct {
	client      *Client
	containerID string
}

// Widget implements ports.WidgetFactory.
func (c *Client) Widget(ctx context.Context, containerID string) (ports.ChallengeWidget, error) {
	return &widget{client: c, containerID: containerID}, nil
}

func (w *widget) ContainerID() string { return w.containerID }

// Token implements ports.ChallengeWidget.
func (w *widget) Token(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := w.client.post(ctx, "challenges:token", map[string]any{
		"containerId": w.containerID,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}
