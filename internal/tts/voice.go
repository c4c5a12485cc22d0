// Package tts synthesizes the guide's replies and plays them back to
// completion before returning.
package tts

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
)

// Synthesizer turns text into an encoded audio clip. ext is the file
// extension the player should use, e.g. ".mp3".
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio []byte, ext string, err error)
}

type Player interface {
	PlayFile(ctx context.Context, path string) error
}

// Ducker quiets other applications while the guide talks.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Voice struct {
	synth  Synthesizer
	player Player
	ducker Ducker
	tmpDir string
}

type Option func(*Voice)

func WithDucker(d Ducker) Option {
	return func(v *Voice) { v.ducker = d }
}

// WithTempDir sets where clips are written; "" means os.TempDir.
func WithTempDir(dir string) Option {
	return func(v *Voice) { v.tmpDir = dir }
}

func NewVoice(synth Synthesizer, player Player, opts ...Option) *Voice {
	v := &Voice{synth: synth, player: player}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Speak synthesizes text into a temporary file and plays it. The file is
// removed before Speak returns, whether or not playback worked.
func (v *Voice) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	clip, ext, err := v.synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	f, err := os.CreateTemp(v.tmpDir, "marhaba-*"+ext)
	if err != nil {
		return fmt.Errorf("create temp clip: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Warn("Failed to remove clip", "path", path, "err", err)
		}
	}()

	_, werr := f.Write(clip)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("write temp clip: %w", werr)
	}

	if v.ducker != nil {
		if err := v.ducker.Duck(ctx); err != nil {
			log.Debug("Failed to duck other streams", "err", err)
		}
		defer func() {
			if err := v.ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				log.Debug("Failed to restore other streams", "err", err)
			}
		}()
	}

	if err := v.player.PlayFile(ctx, path); err != nil {
		return fmt.Errorf("play clip: %w", err)
	}
	return nil
}
