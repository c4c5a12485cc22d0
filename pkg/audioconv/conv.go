// Package audioconv decodes recorded audio files into the 16 kHz mono float
// PCM the speech engines expect.
package audioconv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

// libopusfile always decodes at this rate.
const opusRate = 48000

type Options struct {
	MaxSamples int // 0 = no limit
}

// clip is interleaved float PCM as decoded from a file.
type clip struct {
	samples  []float32
	channels int
	rate     int
}

type decoder func(io.ReadSeeker) (clip, error)

var byExt = map[string]decoder{
	".wav":  decodeWAV,
	".mp3":  decodeMP3,
	".ogg":  decodeOgg,
	".oga":  decodeOgg,
	".opus": decodeOgg,
}

var byMagic = map[string]decoder{
	"RIFF": decodeWAV,
	"OggS": decodeOgg,
}

func ConvertFileToPCM16k(_ context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := byExt[ext]
	if !ok {
		magic, _ := bufio.NewReader(f).Peek(4)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		if decode, ok = byMagic[string(magic)]; !ok {
			return nil, fmt.Errorf("unsupported format %q (want wav, mp3, ogg vorbis or ogg opus)", ext)
		}
	}

	c, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	out := c.mono().resample(TargetRate).samples
	if opt.MaxSamples > 0 && len(out) > opt.MaxSamples {
		out = out[:opt.MaxSamples]
	}
	return out, nil
}

// decodeOgg tries Vorbis first and falls back to Opus.
func decodeOgg(r io.ReadSeeker) (clip, error) {
	c, verr := decodeVorbis(r)
	if verr == nil {
		return c, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return clip{}, err
	}
	c, oerr := decodeOpus(r)
	if oerr != nil {
		return clip{}, fmt.Errorf("not vorbis (%v) and not opus: %w", verr, oerr)
	}
	return c, nil
}

func decodeWAV(r io.ReadSeeker) (clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return clip{}, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return clip{}, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return clip{}, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	full := float64(int64(1) << (depth - 1))

	c := clip{samples: make([]float32, len(buf.Data)), channels: 1, rate: 44100}
	for i, v := range buf.Data {
		c.samples[i] = float32(math.Max(-1, math.Min(1, float64(v)/full)))
	}
	if buf.Format != nil {
		c.channels = cmpOr(buf.Format.NumChannels, 1)
		c.rate = cmpOr(buf.Format.SampleRate, 44100)
	}
	return c, nil
}

// decodeMP3 reads go-mp3's output, which is always 16-bit little-endian
// interleaved stereo.
func decodeMP3(r io.ReadSeeker) (clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return clip{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return clip{}, err
	}

	c := clip{samples: make([]float32, len(raw)/2), channels: 2, rate: cmpOr(dec.SampleRate(), 44100)}
	for i := range c.samples {
		c.samples[i] = s16(int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8))
	}
	return c, nil
}

func decodeVorbis(r io.Reader) (clip, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return clip{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return clip{}, errors.New("invalid ogg vorbis stream")
	}
	return clip{samples: pcm, channels: format.Channels, rate: format.SampleRate}, nil
}

func decodeOpus(r io.ReadSeeker) (clip, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return clip{}, err
	}
	defer dec.Destroy()

	c := clip{channels: cmpOr(dec.ChannelCount(), 1), rate: opusRate}
	buf := make([]int16, opusRate/2*c.channels)
	for {
		n, err := dec.Read(buf) // samples per channel
		for _, v := range buf[:n*c.channels] {
			c.samples = append(c.samples, s16(v))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return clip{}, err
		}
	}

	if len(c.samples) == 0 {
		return clip{}, errors.New("empty opus stream")
	}
	return c, nil
}

// mono averages interleaved channels into one.
func (c clip) mono() clip {
	if c.channels <= 1 {
		return c
	}
	frames := len(c.samples) / c.channels
	out := make([]float32, frames)
	for i := range out {
		var sum float64
		for _, v := range c.samples[i*c.channels : (i+1)*c.channels] {
			sum += float64(v)
		}
		out[i] = float32(sum / float64(c.channels))
	}
	return clip{samples: out, channels: 1, rate: c.rate}
}

// resample converts a mono clip to rate by linear interpolation.
func (c clip) resample(rate int) clip {
	if c.rate == rate || len(c.samples) == 0 {
		return c
	}
	in := c.samples
	step := float64(c.rate) / float64(rate)
	out := make([]float32, int(math.Ceil(float64(len(in))/step)))
	last := len(in) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j] + (in[j+1]-in[j])*frac
	}
	return clip{samples: out, channels: 1, rate: rate}
}

func s16(v int16) float32 { return float32(v) / 32768 }

func cmpOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
