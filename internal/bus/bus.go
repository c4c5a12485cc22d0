// Package bus mirrors the conversation to a websocket hub so other shards
// can follow what the guide hears and says.
package bus

import (
	"encoding/json"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"marhaba/internal/dialogue"
)

const writeTimeout = 2 * time.Second

type Bus struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	session string
}

type BusMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
	Session string `json:"session"`
}

func NewBus(wsURL string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	b := &Bus{conn: conn, session: uuid.NewString()}
	log.Info("Connected to bus", "url", wsURL, "session", b.session)
	return b, nil
}

func (b *Bus) Session() string { return b.session }

// Publish implements dialogue.Sink. Write errors are logged only.
func (b *Bus) Publish(e dialogue.Event) {
	m := &BusMessage{
		From:    "marhaba",
		To:      "ALL",
		Kind:    string(e.Kind),
		Role:    string(e.Role),
		Content: e.Content,
		Session: b.session,
	}
	if err := b.Write(m); err != nil {
		log.Warn("Failed to publish to bus", "kind", e.Kind, "err", err)
	}
}

func (b *Bus) Write(m *BusMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_ = b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return b.conn.Close()
}
