package listen

import (
	"context"
	"errors"

	"marhaba/internal/dialogue"
)

type heard struct {
	text string
	err  error
}

// Queue serves injected inputs (from the control socket) ahead of the
// wrapped listener. An input that arrives while the wrapped listener is
// blocked interrupts it.
type Queue struct {
	inner   dialogue.Listener
	in      <-chan string
	pending *heard
}

func NewQueue(inner dialogue.Listener, in <-chan string) *Queue {
	return &Queue{inner: inner, in: in}
}

func (q *Queue) Listen(ctx context.Context) (string, error) {
	if p := q.pending; p != nil {
		q.pending = nil
		return p.text, p.err
	}

	select {
	case s, ok := <-q.in:
		if ok {
			return s, nil
		}
		q.in = nil
	default:
	}

	if q.in == nil {
		return q.inner.Listen(ctx)
	}

	innerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan heard, 1)
	go func() {
		s, err := q.inner.Listen(innerCtx)
		done <- heard{text: s, err: err}
	}()

	for {
		select {
		case h := <-done:
			return h.text, h.err

		case s, ok := <-q.in:
			if !ok {
				q.in = nil
				continue
			}
			cancel()
			// the inner listener may have finished a turn at the same time
			if h := <-done; keep(h) {
				q.pending = &h
			}
			return s, nil

		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func keep(h heard) bool {
	if h.err != nil {
		return !errors.Is(h.err, context.Canceled)
	}
	return h.text != ""
}
