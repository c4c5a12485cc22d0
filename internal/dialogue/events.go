package dialogue

type EventKind string

const (
	EventUtterance EventKind = "utterance"
	EventSpoken    EventKind = "spoken"
	EventMode      EventKind = "mode"
	EventEnded     EventKind = "ended"
)

type Event struct {
	Kind    EventKind
	Role    Role
	Content string
}

// Sink observes the conversation. Publish must not block the loop for long
// and must not fail it.
type Sink interface {
	Publish(Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}
