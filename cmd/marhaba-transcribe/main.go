package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"marhaba/internal/config"
	"marhaba/internal/speech"
	"marhaba/pkg/audioconv"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	engineName := cli.StringP("engine", "s", "", "Speech engine: google or whisper (default STT_ENGINE)")
	language := cli.StringP("lang", "L", "", "Language, BCP-47 (default SPEECH_LANGUAGE)")
	maxSec := cli.Int("max-seconds", 0, "Only transcribe the first N seconds (0 = all)")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Parse()

	var level log.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = log.LevelWarn
	}
	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))

	if cli.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: marhaba-transcribe [flags] <audio file>")
		return 2
	}

	_ = godotenv.Load(*envFile)
	if *engineName != "" {
		os.Setenv("STT_ENGINE", *engineName)
	}
	if *language != "" {
		os.Setenv("SPEECH_LANGUAGE", *language)
	}

	cfg, err := config.LoadSpeech()
	if err != nil {
		log.Error("Invalid speech configuration", "err", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	pcm, err := audioconv.ConvertFileToPCM16k(ctx, cli.Arg(0), audioconv.Options{
		MaxSamples: *maxSec * audioconv.TargetRate,
	})
	if err != nil {
		log.Error("Failed to decode audio", "path", cli.Arg(0), "err", err)
		return 1
	}
	log.Debug("Decoded", "samples", len(pcm), "took", time.Since(start))

	engine, err := speech.NewEngine(ctx, cfg)
	if err != nil {
		log.Error("Failed to start speech engine", "engine", cfg.Engine, "err", err)
		return 1
	}
	defer engine.Close()

	res, err := engine.Transcribe(ctx, pcm)
	if err != nil {
		log.Error("Failed to transcribe", "err", err)
		return 1
	}
	log.Debug("Transcribed", "language", res.Language, "segments", len(res.Segments), "took", time.Since(start))

	fmt.Println(res.Text)
	return 0
}
