// Package ipc is the local control socket: marhaba-ctl sends a line and the
// running guide treats it as the user's next input.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"strings"
	"time"
)

const DefaultSocketPath = "/tmp/marhaba.sock"

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Server struct {
	ln   net.Listener
	path string
}

var ErrInUse = errors.New("control socket is in use by another process")

// StartServer listens on path and calls handler for every message. A stale
// socket file from a previous run is removed first; a live one is left to
// its owner.
func StartServer(path string, handler func(ControlMessage)) (*Server, error) {
	if path == "" {
		path = DefaultSocketPath
	}
	if _, err := os.Stat(path); err == nil {
		if conn, err := net.DialTimeout("unix", path, time.Second); err == nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", path, ErrInUse)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if err != nil {
				log.Warn("Control socket accept failed", "err", err)
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return &Server{ln: ln, path: path}, nil
}

func (s *Server) Close() error {
	err := s.ln.Close()
	_ = os.Remove(s.path)
	return err
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Debug("Bad control message", "err", err)
		return
	}
	handler(msg)
}

func SendCommand(path string, msg ControlMessage) error {
	if path == "" {
		path = DefaultSocketPath
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}

// Say builds the message that injects text as user input.
func Say(text string) ControlMessage {
	return ControlMessage{Cmd: "say", Text: strings.TrimSpace(text)}
}

// Forward returns a handler that pushes "say" messages into out without
// blocking the socket when the queue is full.
func Forward(out chan<- string) func(ControlMessage) {
	return func(msg ControlMessage) {
		if msg.Cmd != "say" {
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return
		}
		select {
		case out <- msg.Text:
			log.Debug("Queued remote input", "text", msg.Text)
		default:
			log.Warn("Remote input queue full, dropping", "text", msg.Text)
		}
	}
}
