package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marhaba/internal/dialogue"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, model string, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api := openai.NewClient(
		option.WithAPIKey("sk-test"),
		option.WithBaseURL(srv.URL+"/v1/"),
		option.WithMaxRetries(0),
	)
	return New(api, model)
}

func reply(w http.ResponseWriter, content string, choices bool) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-3.5-turbo",
		"choices": []any{},
		"usage":   map[string]int{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
	}
	if choices {
		body["choices"] = []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": content},
		}}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestComplete_SendsTranscript(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		reply(w, "  hi  ", true)
	})

	transcript := []dialogue.Utterance{
		{Role: dialogue.RoleSystem, Content: "You are a guide."},
		{Role: dialogue.RoleUser, Content: "hello"},
		{Role: dialogue.RoleAssistant, Content: "salam"},
		{Role: dialogue.RoleUser, Content: "where to eat?"},
	}

	out, err := c.Complete(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hi" {
		t.Errorf("expected trimmed reply, got %q", out)
	}

	if got.Model != "gpt-3.5-turbo" {
		t.Errorf("expected default model, got %q", got.Model)
	}
	if len(got.Messages) != len(transcript) {
		t.Fatalf("expected %d messages, got %d", len(transcript), len(got.Messages))
	}
	for i, u := range transcript {
		if got.Messages[i].Role != string(u.Role) || got.Messages[i].Content != u.Content {
			t.Errorf("message %d: got %+v, want %+v", i, got.Messages[i], u)
		}
	}
}

func TestComplete_CustomModel(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		reply(w, "ok", true)
	})

	if _, err := c.Complete(context.Background(), []dialogue.Utterance{{Role: dialogue.RoleUser, Content: "hi"}}); err != nil {
		t.Fatal(err)
	}
	if got.Model != "gpt-4o-mini" || c.Model() != "gpt-4o-mini" {
		t.Errorf("expected custom model, got %q", got.Model)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) { reply(w, "", false) },
			want:    ErrNoChoices,
		},
		{
			name:    "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) { reply(w, "   ", true) },
			want:    ErrEmptyContent,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "", tt.handler)
			_, err := c.Complete(context.Background(), []dialogue.Utterance{{Role: dialogue.RoleUser, Content: "hi"}})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestComplete_UnknownRole(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.Complete(context.Background(), []dialogue.Utterance{{Role: "tool", Content: "x"}})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}
