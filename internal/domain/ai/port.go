package ai

import "context"

// Prompt is one system + user exchange.
type Prompt struct {
	System string
	User   string
}

type Client interface {
	// Complete returns the model's JSON answer.
	Complete(ctx context.Context, p Prompt) (string, error)
	Provider() string
}
