package listen

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"time"

	"marhaba/pkg/stt"
)

const (
	DefaultWait   = 10 * time.Second
	DefaultPhrase = 10 * time.Second
)

// Recorder captures 16 kHz mono speech. No speech before wait elapses
// yields an empty slice.
type Recorder interface {
	Record(ctx context.Context, wait, phrase time.Duration) ([]float32, error)
}

type Cue interface {
	Play(ctx context.Context) error
}

type VoiceConfig struct {
	Recorder Recorder
	Engine   stt.Engine
	Cue      Cue // optional
	Console  io.Writer
	Wait     time.Duration
	Phrase   time.Duration
}

// Voice records one phrase and transcribes it. Every failure mode is
// reported as no input so a bad turn never ends the conversation.
type Voice struct {
	rec    Recorder
	engine stt.Engine
	cue    Cue
	out    io.Writer
	wait   time.Duration
	phrase time.Duration
}

func NewVoice(cfg VoiceConfig) *Voice {
	v := &Voice{
		rec:    cfg.Recorder,
		engine: cfg.Engine,
		cue:    cfg.Cue,
		out:    cfg.Console,
		wait:   cfg.Wait,
		phrase: cfg.Phrase,
	}
	if v.wait <= 0 {
		v.wait = DefaultWait
	}
	if v.phrase <= 0 {
		v.phrase = DefaultPhrase
	}
	if v.out == nil {
		v.out = io.Discard
	}
	return v
}

func (v *Voice) Listen(ctx context.Context) (string, error) {
	if v.cue != nil {
		if err := v.cue.Play(ctx); err != nil {
			log.Debug("Failed to play listening cue", "err", err)
		}
	}

	fmt.Fprintln(v.out, "\nListening...")

	pcm, err := v.rec.Record(ctx, v.wait, v.phrase)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		log.Error("Failed to record", "err", err)
		return "", nil
	}
	if len(pcm) == 0 {
		log.Debug("No speech before timeout", "wait", v.wait)
		return "", nil
	}

	log.Debug("Recorded", "samples", len(pcm))

	res, err := v.engine.Transcribe(ctx, pcm)
	if err != nil {
		log.Warn("Speech recognition service unavailable", "err", err)
		fmt.Fprintln(v.out, "Speech recognition service unavailable.")
		return "", nil
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		fmt.Fprintln(v.out, "Could not understand audio.")
		return "", nil
	}

	log.Info("Transcribed", "text", text, "lang", res.Language)
	fmt.Fprintf(v.out, "Heard: %s\n", text)
	return text, nil
}
