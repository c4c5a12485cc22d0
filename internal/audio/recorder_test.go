package audio

import (
	"slices"
	"testing"
	"time"
)

// frames expands a pattern such as "..##." into loud (#) and quiet (.) frames.
func frames(pattern string) []bool {
	out := make([]bool, len(pattern))
	for i, r := range pattern {
		out[i] = r == '#'
	}
	return out
}

// feed steps c until a terminal verdict or the frames run out.
func feed(c *capture, loud []bool) []verdict {
	var got []verdict
	for _, l := range loud {
		v := c.step(l)
		got = append(got, v)
		if v == frameLast || v == frameTimeout {
			break
		}
	}
	return got
}

func repeat(v verdict, n int) []verdict {
	out := make([]verdict, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCapture(t *testing.T) {
	silence := int(silenceDuration / frameDur)

	tests := []struct {
		name   string
		wait   time.Duration
		phrase time.Duration
		loud   []bool
		want   []verdict
	}{
		{
			name:   "wait expires",
			wait:   100 * time.Millisecond,
			phrase: time.Second,
			loud:   frames("........"),
			want:   append(repeat(frameSkip, 4), frameTimeout),
		},
		{
			name:   "speech after waiting",
			wait:   100 * time.Millisecond,
			phrase: time.Second,
			loud:   frames("...##"),
			want:   []verdict{frameSkip, frameSkip, frameSkip, frameKeep, frameKeep},
		},
		{
			name:   "phrase cap",
			wait:   time.Second,
			phrase: 100 * time.Millisecond,
			loud:   frames("##########"),
			want:   append(repeat(frameKeep, 4), frameLast),
		},
		{
			name:   "trailing silence cut",
			wait:   time.Second,
			phrase: 10 * time.Second,
			loud:   append(frames("###"), make([]bool, silence+5)...),
			want:   append(repeat(frameKeep, 3+silence-1), frameLast),
		},
		{
			name:   "loud frame resets silence",
			wait:   time.Second,
			phrase: 10 * time.Second,
			loud:   slices.Concat(frames("#"), make([]bool, silence-1), frames("#"), make([]bool, silence)),
			want:   append(repeat(frameKeep, 1+silence-1+1+silence-1), frameLast),
		},
		{
			name:   "wait shorter than a frame, quiet",
			wait:   5 * time.Millisecond,
			phrase: time.Second,
			loud:   frames(".."),
			want:   []verdict{frameTimeout},
		},
		{
			name:   "wait shorter than a frame, loud",
			wait:   5 * time.Millisecond,
			phrase: time.Second,
			loud:   frames("#"),
			want:   []verdict{frameKeep},
		},
		{
			name:   "zero phrase keeps one frame",
			wait:   time.Second,
			phrase: 0,
			loud:   frames("##"),
			want:   []verdict{frameLast},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed(newCapture(tt.wait, tt.phrase), tt.loud)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFramesIn(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 1},
		{5 * time.Millisecond, 1},
		{20 * time.Millisecond, 1},
		{21 * time.Millisecond, 2},
		{10 * time.Second, 500},
	}
	for _, tt := range tests {
		if got := framesIn(tt.d); got != tt.want {
			t.Errorf("framesIn(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}
