// Package speech builds the configured speech-to-text engine.
package speech

import (
	"context"
	log "log/slog"
	"strings"

	"marhaba/internal/config"
	"marhaba/pkg/stt"
	"marhaba/pkg/stt/whisper"
)

func NewEngine(ctx context.Context, cfg config.Speech) (stt.Engine, error) {
	kind, err := stt.ParseKind(cfg.Engine)
	if err != nil {
		return nil, err
	}

	switch kind {
	case stt.KindWhisper:
		opt := WhisperOptions(cfg)
		log.Debug("Loading whisper", "model", cfg.WhisperModel, "language", opt.Language, "beam", opt.BeamSize)
		return whisper.New(cfg.WhisperModel, opt)
	default:
		return stt.NewGoogle(ctx, stt.GoogleOptions{
			Language:        cfg.Language,
			CredentialsFile: cfg.CredentialsFile,
		})
	}
}

// WhisperOptions maps the settings onto whisper, which takes a bare
// language code rather than a BCP-47 tag.
func WhisperOptions(cfg config.Speech) whisper.Options {
	lang, _, _ := strings.Cut(cfg.Language, "-")
	return whisper.Options{
		Language:      strings.ToLower(lang),
		Translate:     cfg.WhisperTranslate,
		Threads:       cfg.WhisperThreads,
		InitialPrompt: cfg.WhisperPrompt,
		BeamSize:      cfg.WhisperBeam,
	}
}
