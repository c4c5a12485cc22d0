// Package notify plays the short cue that tells the user the microphone
// is open.
package notify

import (
	"context"
	"errors"
	"os"
)

type Player interface {
	PlayFile(ctx context.Context, path string) error
}

type Beep struct {
	player Player
	path   string
}

// NewBeep returns nil when path is empty so callers can skip the cue.
func NewBeep(player Player, path string) (*Beep, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return &Beep{player: player, path: path}, nil
}

func (b *Beep) Play(ctx context.Context) error {
	if b == nil {
		return errors.New("no cue configured")
	}
	return b.player.PlayFile(ctx, b.path)
}
