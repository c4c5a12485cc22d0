// Package stt turns 16 kHz mono speech into text.
package stt

import (
	"context"
	"fmt"
)

type Segment struct {
	Text     string
	StartSec float64
	EndSec   float64
}

type Result struct {
	Text     string
	Segments []Segment
	Language string // detected or forced
}

// Engine transcribes mono 16 kHz float32 samples in [-1, 1].
type Engine interface {
	Transcribe(ctx context.Context, pcm16k []float32) (Result, error)
	Close() error
}

type Kind string

const (
	KindGoogle  Kind = "google"
	KindWhisper Kind = "whisper"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindGoogle, KindWhisper:
		return k, nil
	case "":
		return KindGoogle, nil
	default:
		return "", fmt.Errorf("unknown speech engine %q (want google or whisper)", s)
	}
}
