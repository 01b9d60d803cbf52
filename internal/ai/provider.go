// Package ai defines the text generation collaborator used to turn a
// player's prompt into a result.
package ai

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the upstream answers without content
var ErrEmptyCompletion = errors.New("completion has no content")

// Provider generates text for a prompt
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a plain function to Provider
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f
func (f ProviderFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
