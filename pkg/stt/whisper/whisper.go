// Package whisper runs a local whisper.cpp model as a speech engine.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	whispercpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"marhaba/pkg/stt"
)

type Options struct {
	Language      string // e.g. "auto", "en", "fr"
	Translate     bool   // translate non-English speech to English
	Threads       int    // <=0 => NumCPU()
	InitialPrompt string // biases decoding, e.g. towards place names
	BeamSize      int    // 0 = greedy; >0 enables beam search
}

type Transcriber struct {
	model whispercpp.Model // interface, not pointer
	opt   Options
}

var _ stt.Engine = (*Transcriber)(nil)

func New(modelPath string, opt Options) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whispercpp.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if opt.Language == "" {
		opt.Language = "auto"
	}
	return &Transcriber{model: m, opt: opt}, nil
}

func (t *Transcriber) Close() error {
	if t.model == nil {
		return nil
	}
	return t.model.Close()
}

// Transcribe expects mono 16 kHz float32 in [-1, 1].
func (t *Transcriber) Transcribe(ctx context.Context, pcm16k []float32) (stt.Result, error) {
	if t.model == nil {
		return stt.Result{}, errors.New("nil model")
	}
	if len(pcm16k) == 0 {
		return stt.Result{}, errors.New("no audio samples provided")
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return stt.Result{}, fmt.Errorf("new context: %w", err)
	}

	if err := wctx.SetLanguage(t.opt.Language); err != nil {
		return stt.Result{}, fmt.Errorf("set language: %w", err)
	}
	wctx.SetTranslate(t.opt.Translate)

	threads := t.opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))

	if t.opt.BeamSize > 0 {
		wctx.SetBeamSize(t.opt.BeamSize)
	}
	if t.opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(t.opt.InitialPrompt)
	}

	if err := wctx.Process(pcm16k, nil, nil, nil); err != nil {
		return stt.Result{}, fmt.Errorf("process: %w", err)
	}

	var (
		segs  []stt.Segment
		texts []string
	)
	for {
		select {
		case <-ctx.Done():
			return stt.Result{}, ctx.Err()
		default:
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stt.Result{}, fmt.Errorf("next segment: %w", err)
		}

		segs = append(segs, stt.Segment{
			Text:     s.Text,
			StartSec: s.Start.Seconds(),
			EndSec:   s.End.Seconds(),
		})
		if text := strings.TrimSpace(s.Text); !nonSpeech(text) {
			texts = append(texts, text)
		}
	}

	lang := wctx.DetectedLanguage()
	if lang == "" {
		lang = wctx.Language()
	}

	return stt.Result{
		Text:     strings.Join(texts, " "),
		Segments: segs,
		Language: lang,
	}, nil
}

// nonSpeech reports markers such as [BLANK_AUDIO] or (music) that whisper
// emits for silence and noise.
func nonSpeech(text string) bool {
	if text == "" {
		return true
	}
	return (strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")) ||
		(strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")"))
}
