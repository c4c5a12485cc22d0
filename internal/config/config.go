package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	OpenAIKey      string
	VisionKey      string
	VisionEndpoint string
	Model          string
	Persona        string
	ChatMaxRetries int
	HTTPTimeout    time.Duration
	Speech         Speech
	ListenTimeout  time.Duration
	PhraseLimit    time.Duration
	Calibrate      time.Duration
	TTSEngine      string
	TTSModel       string
	TTSVoice       string
	EspeakVoice    string
	ListenCue      string
	DuckOthers     bool
	BusURL         string
	ControlSocket  string
}

// Speech configures the speech-to-text engine. It is shared by the guide
// and the transcription tool, which needs none of the service keys.
type Speech struct {
	Engine           string
	Language         string // BCP-47
	CredentialsFile  string // Google; empty = application default
	WhisperModel     string
	WhisperPrompt    string // biases whisper towards local place names
	WhisperThreads   int    // 0 = all CPUs
	WhisperBeam      int    // 0 = greedy
	WhisperTranslate bool
}

const defaultWhisperPrompt = "Marrakech, Fes, Chefchaouen, Essaouira, Casablanca, Rabat, " +
	"Jemaa el-Fnaa, Majorelle, Koutoubia, medina, souk, riad, kasbah, tagine, Atlas."

// MissingError lists every required variable that was unset.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

type loader struct {
	missing []string
	errs    []error
}

// Load reads the process environment. Required keys are reported together
// in a *MissingError; malformed optional values are joined into the error.
func Load() (Config, error) {
	var l loader

	cfg := Config{
		OpenAIKey:      l.required("OPENAI_API_KEY"),
		VisionKey:      l.required("AZURE_SUBSCRIPTION_KEY"),
		VisionEndpoint: l.required("AZURE_ENDPOINT"),
		Model:          envStr("MARHABA_MODEL", "gpt-3.5-turbo"),
		Persona:        envStr("MARHABA_PERSONA", "karima"),
		ChatMaxRetries: l.envCount("CHAT_MAX_RETRIES", 0),
		HTTPTimeout:    l.envDuration("HTTP_TIMEOUT", 120*time.Second),
		Speech:         l.speech(),
		ListenTimeout:  l.envDuration("LISTEN_TIMEOUT", 10*time.Second),
		PhraseLimit:    l.envDuration("PHRASE_LIMIT", 10*time.Second),
		Calibrate:      l.envDuration("AMBIENT_CALIBRATION", 2*time.Second),
		TTSEngine:      l.oneOf("TTS_ENGINE", "openai", "openai", "espeak"),
		TTSModel:       envStr("TTS_MODEL", "tts-1"),
		TTSVoice:       envStr("TTS_VOICE", "sage"),
		EspeakVoice:    envStr("ESPEAK_VOICE", "en"),
		ListenCue:      envStr("LISTEN_CUE", ""),
		DuckOthers:     l.envBool("DUCK_OTHERS", false),
		BusURL:         envStr("BUS_URL", ""),
		ControlSocket:  envStr("CONTROL_SOCKET", "/tmp/marhaba.sock"),
	}

	if len(l.missing) > 0 {
		l.errs = append([]error{&MissingError{Keys: l.missing}}, l.errs...)
	}
	return cfg, errors.Join(l.errs...)
}

// LoadSpeech reads only the speech-to-text settings.
func LoadSpeech() (Speech, error) {
	var l loader
	sp := l.speech()
	return sp, errors.Join(l.errs...)
}

func (l *loader) speech() Speech {
	return Speech{
		Engine:           l.oneOf("STT_ENGINE", "google", "google", "whisper"),
		Language:         envStr("SPEECH_LANGUAGE", "en-US"),
		CredentialsFile:  envStr("GOOGLE_APPLICATION_CREDENTIALS", ""),
		WhisperModel:     envStr("WHISPER_MODEL", "third_party/whisper.cpp/models/ggml-medium.bin"),
		WhisperPrompt:    envStr("WHISPER_PROMPT", defaultWhisperPrompt),
		WhisperThreads:   l.envCount("WHISPER_THREADS", 0),
		WhisperBeam:      l.envCount("WHISPER_BEAM", 0),
		WhisperTranslate: l.envBool("WHISPER_TRANSLATE", false),
	}
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (l *loader) required(key string) string {
	v := envStr(key, "")
	if v == "" {
		l.missing = append(l.missing, key)
	}
	return v
}

func (l *loader) envInt(key string, fallback int) int {
	v := envStr(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

// envCount is envInt restricted to values >= 0.
func (l *loader) envCount(key string, fallback int) int {
	n := l.envInt(key, fallback)
	if n < 0 {
		l.errs = append(l.errs, fmt.Errorf("%s: must not be negative, got %d", key, n))
		return fallback
	}
	return n
}

func (l *loader) envBool(key string, fallback bool) bool {
	v := envStr(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func (l *loader) envDuration(key string, fallback time.Duration) time.Duration {
	v := envStr(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	if d < 0 {
		l.errs = append(l.errs, fmt.Errorf("%s: negative duration %s", key, v))
		return fallback
	}
	return d
}

func (l *loader) oneOf(key, fallback string, allowed ...string) string {
	v := strings.ToLower(envStr(key, fallback))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	l.errs = append(l.errs, fmt.Errorf("%s: %q is not one of %s", key, v, strings.Join(allowed, ", ")))
	return fallback
}
