package vision

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const fullAnalysis = `{
  "categories": [{"name": "outdoor_street", "score": 0.9}],
  "description": {
    "tags": ["outdoor", "market", "people"],
    "captions": [
      {"text": "a crowded market square", "confidence": 0.81},
      {"text": "people in a street", "confidence": 0.4}
    ]
  },
  "color": {"dominantColors": ["Brown"], "accentColor": "B2692E", "isBwImg": false},
  "requestId": "req-1"
}`

func newTestServer(t *testing.T, status int, body string, check func(r *http.Request)) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "sub-key", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestAnalyze_Request(t *testing.T) {
	img := []byte{0xff, 0xd8, 0xff}

	c := newTestServer(t, http.StatusOK, fullAnalysis, func(r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/vision/v3.1/analyze" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("visualFeatures"); got != "Categories,Description,Color" {
			t.Errorf("unexpected features %q", got)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "sub-key" {
			t.Errorf("unexpected key %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/octet-stream" {
			t.Errorf("unexpected content type %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != string(img) {
			t.Errorf("unexpected body %v", body)
		}
	})

	a, err := c.Analyze(context.Background(), img)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	caption, err := a.Caption()
	if err != nil || caption != "a crowded market square" {
		t.Errorf("unexpected caption %q, %v", caption, err)
	}
	if tags := a.Tags(); len(tags) != 3 || tags[1] != "market" {
		t.Errorf("unexpected tags %v", tags)
	}
	if a.Color == nil || a.Color.AccentColor != "B2692E" {
		t.Errorf("unexpected color %+v", a.Color)
	}
}

func TestDescribe_NoDescription(t *testing.T) {
	for _, body := range []string{
		`{"categories": []}`,
		`{"description": {"tags": ["wall"], "captions": []}}`,
	} {
		c := newTestServer(t, http.StatusOK, body, nil)

		caption, err := c.Describe(context.Background(), []byte("x"))
		if err != nil || caption != "" {
			t.Errorf("body %s: expected empty caption, got %q, %v", body, caption, err)
		}

		a, err := c.Analyze(context.Background(), []byte("x"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := a.Caption(); !errors.Is(err, ErrNoDescription) {
			t.Errorf("body %s: expected ErrNoDescription, got %v", body, err)
		}
	}
}

func TestAnalyze_StatusError(t *testing.T) {
	c := newTestServer(t, http.StatusUnauthorized, `{"error":{"code":"401"}}`, nil)

	_, err := c.Describe(context.Background(), []byte("x"))

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected status %d", se.StatusCode)
	}
}

func TestAnalyze_BadJSON(t *testing.T) {
	c := newTestServer(t, http.StatusOK, `not json`, nil)

	if _, err := c.Analyze(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNew_Endpoint(t *testing.T) {
	c, err := New("https://example.cognitiveservices.azure.com", "k", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "https://example.cognitiveservices.azure.com/vision/v3.1/analyze?visualFeatures=Categories%2CDescription%2CColor"
	if c.analyzeURL != want {
		t.Errorf("unexpected url %s", c.analyzeURL)
	}

	if _, err := New("not a url", "k", nil); err == nil {
		t.Error("expected error for relative endpoint")
	}
}

type stubPrompter struct {
	answer string
	err    error
}

func (s stubPrompter) Prompt(context.Context, string) (string, error) {
	return s.answer, s.err
}

func TestFilePicker(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "medina.JPG")
	if err := os.WriteFile(img, []byte("jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		answer  string
		want    string
		wantErr bool
	}{
		{"empty", "  ", "", false},
		{"image", img, "jpeg", false},
		{"quoted", `"` + img + `"`, "jpeg", false},
		{"wrong type", txt, "", true},
		{"missing", filepath.Join(dir, "gone.png"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewFilePicker(stubPrompter{answer: tt.answer}).PickImage(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, data)
			}
			if tt.want == "" && data != nil {
				t.Errorf("expected nil bytes, got %v", data)
			}
		})
	}
}
