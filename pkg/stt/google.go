package stt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

type GoogleOptions struct {
	Language        string // BCP-47, e.g. "en-US"
	CredentialsFile string // empty = Application Default Credentials
}

// Google uses the Cloud Speech synchronous Recognize call, which fits the
// short single-phrase turns of the conversation.
type Google struct {
	client   *speech.Client
	language string
}

func NewGoogle(ctx context.Context, opt GoogleOptions) (*Google, error) {
	var opts []option.ClientOption
	if opt.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(opt.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	lang := opt.Language
	if lang == "" {
		lang = "en-US"
	}

	return &Google{client: client, language: lang}, nil
}

func (g *Google) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Google) Transcribe(ctx context.Context, pcm16k []float32) (Result, error) {
	if len(pcm16k) == 0 {
		return Result{}, errors.New("no audio samples provided")
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            16000,
			AudioChannelCount:          1,
			LanguageCode:               g.language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: Linear16(pcm16k)},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("recognize: %w", err)
	}

	var parts []string
	for _, r := range resp.Results {
		if len(r.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(r.Alternatives[0].Transcript))
		}
	}

	return Result{
		Text:     strings.Join(parts, " "),
		Language: g.language,
	}, nil
}

// Linear16 encodes float samples as little-endian signed 16-bit PCM.
func Linear16(pcm []float32) []byte {
	out := make([]byte, 2*len(pcm))
	for i, x := range pcm {
		v := math.Max(-1, math.Min(1, float64(x)))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out
}
