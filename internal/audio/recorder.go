package audio

import (
	"context"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate = 16000
	frameSize  = 320 // 20ms
	frameDur   = 20 * time.Millisecond

	minSilenceRMS   = 0.015
	silenceDuration = 600 * time.Millisecond
)

type Recorder struct {
	threshold float64
}

func NewRecorder() *Recorder { return &Recorder{threshold: minSilenceRMS} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Calibrate samples background noise for d and raises the speech threshold
// above it.
func (r *Recorder) Calibrate(d time.Duration) (float64, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return 0, err
	}
	defer stream.Stop()

	var peak float64
	for i := 0; i < int(d/frameDur); i++ {
		if err := stream.Read(); err != nil {
			return 0, err
		}
		peak = math.Max(peak, frameRMS(buf))
	}

	r.threshold = math.Max(minSilenceRMS, peak*1.5)
	return r.threshold, nil
}

// Record waits up to wait for speech to start, then captures until a
// trailing silence or until phrase has elapsed. An empty slice means nobody
// spoke in time.
func (r *Recorder) Record(ctx context.Context, wait, phrase time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	c := newCapture(wait, phrase)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		switch c.step(frameRMS(buf) > r.threshold) {
		case frameTimeout:
			return nil, nil
		case frameSkip:
		case frameKeep:
			out = append(out, buf...)
		case frameLast:
			return append(out, buf...), nil
		}
	}
}

type verdict int

const (
	frameSkip    verdict = iota // still waiting for speech
	frameKeep                   // part of the phrase
	frameLast                   // part of the phrase, and the phrase is over
	frameTimeout                // nobody spoke within the wait
)

// capture does the frame accounting for Record: wait for the first loud
// frame, then keep frames until a trailing silence or the phrase limit.
type capture struct {
	waitFrames   int
	phraseFrames int
	silenceMax   int

	speaking      bool
	waitedFrames  int
	spokenFrames  int
	silenceFrames int
}

func newCapture(wait, phrase time.Duration) *capture {
	return &capture{
		waitFrames:   framesIn(wait),
		phraseFrames: framesIn(phrase),
		silenceMax:   framesIn(silenceDuration),
	}
}

// framesIn rounds d up to whole frames, never below one.
func framesIn(d time.Duration) int {
	return max(1, int((d+frameDur-1)/frameDur))
}

func (c *capture) step(loud bool) verdict {
	if !c.speaking {
		if !loud {
			c.waitedFrames++
			if c.waitedFrames >= c.waitFrames {
				return frameTimeout
			}
			return frameSkip
		}
		c.speaking = true
	}

	c.spokenFrames++
	if c.spokenFrames >= c.phraseFrames {
		return frameLast
	}

	if loud {
		c.silenceFrames = 0
		return frameKeep
	}
	c.silenceFrames++
	if c.silenceFrames >= c.silenceMax {
		return frameLast
	}
	return frameKeep
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
