// Package chat sends the conversation transcript to the OpenAI
// chat-completion API and returns the guide's next reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"marhaba/internal/dialogue"
)

const DefaultModel = openai.ChatModelGPT3_5Turbo

var (
	ErrNoChoices    = errors.New("no choices in response")
	ErrEmptyContent = errors.New("empty message content")
)

type Client struct {
	api   openai.Client
	model openai.ChatModel
}

func New(api openai.Client, model string) *Client {
	m := openai.ChatModel(model)
	if model == "" {
		m = DefaultModel
	}
	return &Client{api: api, model: m}
}

func (c *Client) Model() string { return string(c.model) }

func (c *Client) Complete(ctx context.Context, transcript []dialogue.Utterance) (string, error) {
	msgs, err := messages(transcript)
	if err != nil {
		return "", err
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    c.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyContent
	}

	log.Debug("Chat reply", "model", c.model, "tokens", resp.Usage.TotalTokens)
	return content, nil
}

func messages(transcript []dialogue.Utterance) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript))
	for i, u := range transcript {
		switch u.Role {
		case dialogue.RoleSystem:
			out = append(out, openai.SystemMessage(u.Content))
		case dialogue.RoleUser:
			out = append(out, openai.UserMessage(u.Content))
		case dialogue.RoleAssistant:
			out = append(out, openai.AssistantMessage(u.Content))
		default:
			return nil, fmt.Errorf("utterance %d: unknown role %q", i, u.Role)
		}
	}
	return out, nil
}
