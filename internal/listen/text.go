// Package listen acquires one user utterance per turn, typed or spoken.
package listen

import (
	"context"
	"strings"
)

type Prompter interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// Text reads one typed line with no timeout.
type Text struct {
	console Prompter
}

func NewText(p Prompter) *Text {
	return &Text{console: p}
}

func (t *Text) Listen(ctx context.Context) (string, error) {
	line, err := t.console.Prompt(ctx, "\nYou: ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
