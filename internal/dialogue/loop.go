// Package dialogue drives the guide's turn-taking conversation: acquire one
// input, dispatch it, speak the answer, repeat until the user says exit.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"marhaba/internal/persona"
)

type Mode int

const (
	ModeVoice Mode = iota
	ModeText
)

func (m Mode) String() string {
	if m == ModeText {
		return "text"
	}
	return "voice"
}

type State int

const (
	AwaitingInput State = iota
	Dispatching
	Ended
)

func (s State) String() string {
	switch s {
	case Dispatching:
		return "dispatching"
	case Ended:
		return "ended"
	default:
		return "awaiting-input"
	}
}

// Listener acquires one input. An empty string means no input (timeout,
// unrecognized speech); errors are reserved for the input source going
// away, e.g. io.EOF on the console.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type Chatter interface {
	Complete(ctx context.Context, transcript []Utterance) (string, error)
}

// Speaker renders text audibly and returns once playback has finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// ImageSource returns nil bytes and a nil error when the user picked nothing.
type ImageSource interface {
	PickImage(ctx context.Context) ([]byte, error)
}

// Describer returns "" and a nil error when the image has no description.
type Describer interface {
	Describe(ctx context.Context, image []byte) (string, error)
}

type Config struct {
	Persona *persona.Persona

	Chat    Chatter
	Speaker Speaker
	Text    Listener
	Voice   Listener // optional; without it the loop stays in text mode

	Images ImageSource // both required for "open image"
	Vision Describer

	Sink    Sink
	Console io.Writer
	Mode    Mode
	Rand    *rand.Rand
}

type Loop struct {
	persona *persona.Persona

	chat    Chatter
	speaker Speaker
	text    Listener
	voice   Listener
	images  ImageSource
	vision  Describer
	sink    Sink
	out     io.Writer
	rng     *rand.Rand

	transcript *Transcript
	mode       Mode
	state      State
}

func New(cfg Config) (*Loop, error) {
	switch {
	case cfg.Persona == nil:
		return nil, errors.New("dialogue: persona is required")
	case cfg.Chat == nil:
		return nil, errors.New("dialogue: chat client is required")
	case cfg.Speaker == nil:
		return nil, errors.New("dialogue: speaker is required")
	case cfg.Text == nil:
		return nil, errors.New("dialogue: text listener is required")
	case cfg.Console == nil:
		return nil, errors.New("dialogue: console is required")
	}

	l := &Loop{
		persona:    cfg.Persona,
		chat:       cfg.Chat,
		speaker:    cfg.Speaker,
		text:       cfg.Text,
		voice:      cfg.Voice,
		images:     cfg.Images,
		vision:     cfg.Vision,
		sink:       cfg.Sink,
		out:        cfg.Console,
		rng:        cfg.Rand,
		transcript: NewTranscript(cfg.Persona.SystemPrompt),
		mode:       cfg.Mode,
		state:      AwaitingInput,
	}

	if l.sink == nil {
		l.sink = nopSink{}
	}
	if l.rng == nil {
		seed := uint64(time.Now().UnixNano())
		l.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if l.voice == nil {
		l.mode = ModeText
	}

	return l, nil
}

func (l *Loop) Mode() Mode   { return l.mode }
func (l *Loop) State() State { return l.state }

func (l *Loop) Transcript() []Utterance {
	return l.transcript.Utterances()
}

func (l *Loop) imagesEnabled() bool {
	return l.persona.Images && l.images != nil && l.vision != nil
}

// Run greets the user and steps until exit, end of input, or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.banner()
	l.say(ctx, l.persona.Greeting(l.rng))

	for l.state != Ended {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Step(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Step acquires a single input with the current mode's listener and handles it.
func (l *Loop) Step(ctx context.Context) error {
	if l.state == Ended {
		return nil
	}

	in, err := l.listener().Listen(ctx)
	if errors.Is(err, io.EOF) {
		log.Info("Input closed, ending conversation")
		l.end()
		return nil
	}
	if err != nil {
		return fmt.Errorf("acquire input: %w", err)
	}

	l.Handle(ctx, in)
	return nil
}

func (l *Loop) listener() Listener {
	if l.mode == ModeVoice && l.voice != nil {
		return l.voice
	}
	return l.text
}

// Handle applies one input to the conversation.
func (l *Loop) Handle(ctx context.Context, in string) {
	if l.state == Ended {
		return
	}

	cmd := ParseCommand(in, l.imagesEnabled())
	log.Debug("Handling input", "cmd", cmd, "mode", l.mode)

	switch cmd {
	case CmdNone:
		return

	case CmdToggleMode:
		l.toggleMode()

	case CmdExit:
		l.say(ctx, l.persona.Farewell)
		l.end()

	case CmdOpenImage:
		l.state = Dispatching
		l.openImage(ctx)
		l.state = AwaitingInput

	case CmdChat:
		l.state = Dispatching
		l.converse(ctx, strings.TrimSpace(in))
		l.state = AwaitingInput
	}
}

func (l *Loop) toggleMode() {
	if l.mode == ModeText && l.voice == nil {
		fmt.Fprintln(l.out, "\nVoice input is not available.")
		return
	}

	if l.mode == ModeText {
		l.mode = ModeVoice
	} else {
		l.mode = ModeText
	}

	log.Info("Switched input mode", "mode", l.mode)
	l.sink.Publish(Event{Kind: EventMode, Content: l.mode.String()})
}

func (l *Loop) converse(ctx context.Context, text string) {
	user := Utterance{Role: RoleUser, Content: text}

	reply, err := l.chat.Complete(ctx, l.transcript.With(user))
	if err != nil {
		log.Error("Chat completion failed", "err", err)
		l.say(ctx, l.persona.Apology)
		return
	}

	l.record(user)
	l.record(Utterance{Role: RoleAssistant, Content: reply})

	l.print(reply)
	if line := l.persona.AmbianceLine(l.rng); line != "" {
		fmt.Fprintf(l.out, "\n%s\n", line)
	}
	l.speak(ctx, reply)
}

func (l *Loop) openImage(ctx context.Context) {
	img, err := l.images.PickImage(ctx)
	if err != nil {
		log.Error("Failed to read image", "err", err)
		l.say(ctx, l.persona.Apology)
		return
	}
	if img == nil {
		l.say(ctx, l.persona.NoImage)
		return
	}

	caption, err := l.vision.Describe(ctx, img)
	if err != nil {
		log.Error("Image analysis failed", "err", err)
		l.say(ctx, l.persona.Apology)
		return
	}
	if caption == "" {
		l.say(ctx, l.persona.NoDescription)
		return
	}

	log.Info("Image described", "caption", caption)

	user := Utterance{Role: RoleUser, Content: fmt.Sprintf(l.persona.ImagePrompt, caption)}
	prediction, err := l.chat.Complete(ctx, l.transcript.With(user))
	if err != nil {
		log.Error("Location guess failed", "err", err)
		l.say(ctx, l.persona.Apology)
		return
	}

	l.record(user)
	l.record(Utterance{Role: RoleAssistant, Content: prediction})

	l.say(ctx, fmt.Sprintf(l.persona.ImageReply, strings.TrimSpace(prediction)))
}

func (l *Loop) record(u Utterance) {
	if err := l.transcript.Append(u); err != nil {
		// only user and assistant entries reach here
		log.Error("Failed to append utterance", "err", err)
		return
	}
	l.sink.Publish(Event{Kind: EventUtterance, Role: u.Role, Content: u.Content})
}

func (l *Loop) end() {
	l.state = Ended
	l.sink.Publish(Event{Kind: EventEnded})
}

func (l *Loop) say(ctx context.Context, text string) {
	l.print(text)
	l.speak(ctx, text)
}

func (l *Loop) print(text string) {
	fmt.Fprintf(l.out, "\nGuide: %s\n", text)
}

func (l *Loop) speak(ctx context.Context, text string) {
	l.sink.Publish(Event{Kind: EventSpoken, Role: RoleAssistant, Content: text})

	if err := l.speaker.Speak(ctx, Plain(text)); err != nil {
		log.Warn("Failed to play speech", "err", err)
	}
}

func (l *Loop) banner() {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(l.out, rule)
	fmt.Fprintf(l.out, "Welcome to your Moroccan adventure with %s!\n", l.persona.Name)
	fmt.Fprintln(l.out, rule)
	fmt.Fprintln(l.out, "\nSpeak or type 'text mode' to switch input mode")
	if l.imagesEnabled() {
		fmt.Fprintln(l.out, "Speak or type 'open image' to ask about a photo")
	}
	fmt.Fprintln(l.out, "Say or type 'exit' to end the conversation")
}

var markup = strings.NewReplacer("*", "", "#", "", "`", "")

// Plain strips the markdown the chat model likes to emit so the speech
// engine does not read it out.
func Plain(text string) string {
	return strings.TrimSpace(markup.Replace(text))
}
