package ipc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSendCommand_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.sock")
	got := make(chan ControlMessage, 1)

	srv, err := StartServer(path, func(m ControlMessage) { got <- m })
	if err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	defer srv.Close()

	if err := SendCommand(path, Say("  text mode ")); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	select {
	case m := <-got:
		if m.Cmd != "say" || m.Text != "text mode" {
			t.Errorf("unexpected message %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSendCommand_NoServer(t *testing.T) {
	if err := SendCommand(filepath.Join(t.TempDir(), "none.sock"), Say("exit")); err == nil {
		t.Fatal("expected error without a server")
	}
}

func TestForward(t *testing.T) {
	out := make(chan string, 1)
	h := Forward(out)

	h(ControlMessage{Cmd: "reboot"})
	h(Say("exit"))
	h(Say("dropped"))

	if len(out) != 1 {
		t.Fatalf("expected 1 queued input, got %d", len(out))
	}
	if s := <-out; s != "exit" {
		t.Errorf("unexpected queued input %q", s)
	}
}

func TestStartServer_LiveSocketKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.sock")
	got := make(chan ControlMessage, 1)

	first, err := StartServer(path, func(m ControlMessage) { got <- m })
	if err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	defer first.Close()

	if second, err := StartServer(path, func(ControlMessage) {}); !errors.Is(err, ErrInUse) {
		if second != nil {
			second.Close()
		}
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	if err := SendCommand(path, Say("exit")); err != nil {
		t.Fatalf("first server lost its socket: %v", err)
	}
	select {
	case m := <-got:
		if m.Text != "exit" {
			t.Errorf("unexpected message %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first server no longer receives messages")
	}
}

func TestStartServer_StaleFileReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	srv, err := StartServer(path, func(ControlMessage) {})
	if err != nil {
		t.Fatalf("expected stale file to be replaced, got %v", err)
	}
	srv.Close()
}
