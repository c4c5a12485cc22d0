package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Player plays audio files through the default output device. The speaker
// is initialised once at the first file's sample rate; later files are
// resampled to it.
type Player struct {
	mu   sync.Mutex
	rate beep.SampleRate
}

func NewPlayer() *Player { return &Player{} }

// PlayFile blocks until the file has played out or ctx is done.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate == 0 {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		p.rate = format.SampleRate
	}

	var s beep.Streamer = streamer
	if format.SampleRate != p.rate {
		s = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate != 0 {
		speaker.Close()
		p.rate = 0
	}
}
