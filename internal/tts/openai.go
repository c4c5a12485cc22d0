package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/openai/openai-go/v3"
)

const (
	DefaultModel = openai.SpeechModelTTS1
	DefaultVoice = openai.AudioSpeechNewParamsVoiceSage
)

// OpenAI synthesizes mp3 clips with the audio speech endpoint.
type OpenAI struct {
	api   openai.Client
	model openai.SpeechModel
	voice openai.AudioSpeechNewParamsVoice
}

func NewOpenAI(api openai.Client, model, voice string) *OpenAI {
	s := &OpenAI{
		api:   api,
		model: openai.SpeechModel(model),
		voice: openai.AudioSpeechNewParamsVoice(voice),
	}
	if model == "" {
		s.model = DefaultModel
	}
	if voice == "" {
		s.voice = DefaultVoice
	}
	return s
}

func (s *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	resp, err := s.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          s.model,
		Voice:          s.voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, "", fmt.Errorf("speech: %w", err)
	}
	defer resp.Body.Close()

	clip, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read speech: %w", err)
	}
	if len(clip) == 0 {
		return nil, "", fmt.Errorf("speech: empty audio")
	}

	return clip, ".mp3", nil
}
