package dialogue

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Utterance struct {
	Role    Role
	Content string
}

var ErrSystemAppend = errors.New("system utterance only allowed at the start of a transcript")

// Transcript is the ordered context sent to the chat service on every call.
// It always starts with exactly one system utterance.
type Transcript struct {
	entries []Utterance
}

func NewTranscript(systemPrompt string) *Transcript {
	return &Transcript{
		entries: []Utterance{{Role: RoleSystem, Content: systemPrompt}},
	}
}

func (t *Transcript) Append(u Utterance) error {
	switch u.Role {
	case RoleUser, RoleAssistant:
	case RoleSystem:
		return ErrSystemAppend
	default:
		return fmt.Errorf("unknown role %q", u.Role)
	}

	t.entries = append(t.entries, u)
	return nil
}

func (t *Transcript) Len() int {
	return len(t.entries)
}

// Utterances returns a copy of the entries.
func (t *Transcript) Utterances() []Utterance {
	return append([]Utterance(nil), t.entries...)
}

// With returns a copy of the entries followed by extra, leaving the
// transcript untouched.
func (t *Transcript) With(extra ...Utterance) []Utterance {
	out := make([]Utterance, 0, len(t.entries)+len(extra))
	out = append(out, t.entries...)
	return append(out, extra...)
}
