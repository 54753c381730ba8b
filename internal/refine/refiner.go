package refine

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Refiner binds a client to the preferences and model in force.
type Refiner struct {
	client  *Client
	prefs   Preferences
	model   string
	timeout time.Duration
}

func NewRefiner(client *Client, prefs Preferences, model string, timeout time.Duration) *Refiner {
	return &Refiner{client: client, prefs: prefs, model: model, timeout: timeout}
}

// Model returns the model name sent with each request.
func (r *Refiner) Model() string {
	return r.model
}

func (r *Refiner) Preferences() Preferences {
	return r.prefs
}

// Refine returns the cleaned-up text for raw. An empty model answer is an error.
func (r *Refiner) Refine(ctx context.Context, raw string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.client.Complete(ctx, Request{
		SystemPrompt: BuildSystemPrompt(r.prefs),
		UserText:     raw,
		Model:        r.model,
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(out) == "" {
		return "", errors.New("refinement returned empty text")
	}
	return out, nil
}
