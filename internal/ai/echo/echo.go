// Package echo is an offline Provider for local development and demos
package echo

import (
	"context"
	"fmt"
	"strings"
)

// Client answers every prompt by quoting it back
type Client struct{}

// New creates an echo Client
func New() *Client {
	return &Client{}
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("You asked for: %s", strings.TrimSpace(prompt)), nil
}
