package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("hello\r\nlast"), &out)
	ctx := context.Background()

	line, err := c.Prompt(ctx, "You: ")
	if err != nil || line != "hello" {
		t.Fatalf("unexpected first line %q, %v", line, err)
	}

	line, err = c.Prompt(ctx, "You: ")
	if err != nil || line != "last" {
		t.Fatalf("unexpected last line %q, %v", line, err)
	}

	if _, err := c.Prompt(ctx, "You: "); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}

	if out.String() != "You: You: You: " {
		t.Errorf("unexpected prompts %q", out.String())
	}
}

func TestPrompt_Cancelled(t *testing.T) {
	c := New(strings.NewReader("hello\n"), io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Prompt(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPrompt_CancelledWhileReading(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	c := New(r, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Prompt(ctx, "You: ")
		errc <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Prompt still blocked after cancel")
	}

	// a line typed after the cancelled prompt goes to the next one
	go func() { _, _ = io.WriteString(w, "still here\n") }()

	line, err := c.Prompt(context.Background(), "You: ")
	if err != nil || line != "still here" {
		t.Fatalf("unexpected line after cancel %q, %v", line, err)
	}
}
