package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marhaba/internal/audio"
	"marhaba/internal/bus"
	"marhaba/internal/chat"
	"marhaba/internal/config"
	"marhaba/internal/console"
	"marhaba/internal/dialogue"
	"marhaba/internal/ipc"
	"marhaba/internal/listen"
	"marhaba/internal/notify"
	"marhaba/internal/persona"
	"marhaba/internal/proxy"
	"marhaba/internal/speech"
	"marhaba/internal/tts"
	"marhaba/internal/tts/espeak"
	"marhaba/internal/vision"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup (control socket, bus,
// audio devices) happens before the process exits.
func run() int {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (empty = direct)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	textOnly := cli.BoolP("text", "t", false, "Start in text mode and skip the microphone")
	personaName := cli.StringP("persona", "g", "", "Guide persona name or YAML file")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile, "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		return 1
	}
	if *personaName != "" {
		cfg.Persona = *personaName
	}

	guide, err := persona.Load(cfg.Persona)
	if err != nil {
		log.Error("Failed to load persona", "persona", cfg.Persona, "err", err)
		return 1
	}

	log.Debug("Loaded persona", "name", guide.Name, "images", guide.Images)

	httpClient, err := proxy.NewClient(*proxyAddr, cfg.HTTPTimeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
		return 1
	}

	api := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.ChatMaxRetries),
	)

	analyzer, err := vision.New(cfg.VisionEndpoint, cfg.VisionKey, httpClient)
	if err != nil {
		log.Error("Invalid vision endpoint", "endpoint", cfg.VisionEndpoint, "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := console.New(os.Stdin, os.Stdout)
	player := audio.NewPlayer()
	defer player.Close()

	speaker := newSpeaker(cfg, api, player)

	var voice dialogue.Listener
	if !*textOnly {
		v, closeVoice, err := newVoice(ctx, cfg, term, player)
		if err != nil {
			log.Warn("Voice input unavailable, continuing in text mode", "err", err)
		} else {
			defer closeVoice()
			voice = v
		}
	}

	remote := make(chan string, 8)
	srv, err := ipc.StartServer(cfg.ControlSocket, ipc.Forward(remote))
	if err != nil {
		log.Warn("Control socket disabled", "path", cfg.ControlSocket, "err", err)
	} else {
		defer srv.Close()
	}

	text := listen.NewQueue(listen.NewText(term), remote)
	if voice != nil {
		voice = listen.NewQueue(voice, remote)
	}

	var sink dialogue.Sink
	if cfg.BusURL != "" {
		b, err := bus.NewBus(cfg.BusURL)
		if err != nil {
			log.Warn("Bus unavailable", "url", cfg.BusURL, "err", err)
		} else {
			defer b.Close()
			sink = b
		}
	}

	mode := dialogue.ModeVoice
	if *textOnly {
		mode = dialogue.ModeText
	}

	loop, err := dialogue.New(dialogue.Config{
		Persona: guide,
		Chat:    chat.New(api, cfg.Model),
		Speaker: speaker,
		Text:    text,
		Voice:   voice,
		Images:  vision.NewFilePicker(term),
		Vision:  analyzer,
		Sink:    sink,
		Console: term,
		Mode:    mode,
	})
	if err != nil {
		log.Error("Failed to build dialogue", "err", err)
		return 1
	}

	log.Info("Boot up - successful", "persona", guide.Name, "mode", loop.Mode())

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("Conversation stopped", "err", err)
		return 1
	}
	return 0
}

func newSpeaker(cfg config.Config, api openai.Client, player *audio.Player) dialogue.Speaker {
	if cfg.TTSEngine == "espeak" {
		return espeak.New(cfg.EspeakVoice)
	}

	var opts []tts.Option
	if cfg.DuckOthers {
		opts = append(opts, tts.WithDucker(audio.NewDucker([]string{"marhaba"}, 5, 0.2, 300*time.Millisecond)))
	}
	return tts.NewVoice(tts.NewOpenAI(api, cfg.TTSModel, cfg.TTSVoice), player, opts...)
}

// newVoice opens the microphone, calibrates it and loads the speech engine.
func newVoice(ctx context.Context, cfg config.Config, term *console.Console, player *audio.Player) (dialogue.Listener, func(), error) {
	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		return nil, nil, err
	}

	log.Info("Calibrating for ambient noise", "duration", cfg.Calibrate)
	threshold, err := rec.Calibrate(cfg.Calibrate)
	if err != nil {
		rec.Close()
		return nil, nil, err
	}
	log.Debug("Calibrated recorder", "threshold", threshold)

	engine, err := speech.NewEngine(ctx, cfg.Speech)
	if err != nil {
		rec.Close()
		return nil, nil, err
	}

	vc := listen.VoiceConfig{
		Recorder: rec,
		Engine:   engine,
		Console:  term,
		Wait:     cfg.ListenTimeout,
		Phrase:   cfg.PhraseLimit,
	}

	beep, err := notify.NewBeep(player, cfg.ListenCue)
	if err != nil {
		log.Warn("Listening cue disabled", "path", cfg.ListenCue, "err", err)
	} else if beep != nil {
		vc.Cue = beep
	}

	closeFn := func() {
		if err := engine.Close(); err != nil {
			log.Debug("Failed to close speech engine", "err", err)
		}
		rec.Close()
	}
	return listen.NewVoice(vc), closeFn, nil
}
