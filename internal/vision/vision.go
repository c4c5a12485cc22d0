// Package vision talks to the Azure Computer Vision v3.1 analyze endpoint.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	analyzePath = "vision/v3.1/analyze"
	features    = "Categories,Description,Color"
)

var ErrNoDescription = errors.New("no description available for this image")

// StatusError is returned for any non-2xx answer from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vision: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

type Category struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type Caption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type Description struct {
	Tags     []string  `json:"tags"`
	Captions []Caption `json:"captions"`
}

type Color struct {
	DominantColorForeground string   `json:"dominantColorForeground"`
	DominantColorBackground string   `json:"dominantColorBackground"`
	DominantColors          []string `json:"dominantColors"`
	AccentColor             string   `json:"accentColor"`
	IsBWImg                 bool     `json:"isBwImg"`
}

type Analysis struct {
	Categories  []Category   `json:"categories"`
	Description *Description `json:"description"`
	Color       *Color       `json:"color"`
	RequestID   string       `json:"requestId"`
}

// Caption returns the top-ranked caption.
func (a *Analysis) Caption() (string, error) {
	if a.Description == nil || len(a.Description.Captions) == 0 {
		return "", ErrNoDescription
	}
	return a.Description.Captions[0].Text, nil
}

func (a *Analysis) Tags() []string {
	if a.Description == nil {
		return nil
	}
	return a.Description.Tags
}

type Client struct {
	analyzeURL string
	key        string
	http       *http.Client
}

func New(endpoint, key string, httpClient *http.Client) (*Client, error) {
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not an absolute url", endpoint)
	}

	u := base.JoinPath(analyzePath)
	u.RawQuery = url.Values{"visualFeatures": {features}}.Encode()

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		analyzeURL: u.String(),
		key:        key,
		http:       httpClient,
	}, nil
}

func (c *Client) Analyze(ctx context.Context, image []byte) (*Analysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out Analysis
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	log.Debug("Image analyzed", "request", out.RequestID, "categories", len(out.Categories))
	return &out, nil
}

// Describe returns the top caption, or "" when the service had none.
func (c *Client) Describe(ctx context.Context, image []byte) (string, error) {
	a, err := c.Analyze(ctx, image)
	if err != nil {
		return "", err
	}

	caption, err := a.Caption()
	if errors.Is(err, ErrNoDescription) {
		return "", nil
	}
	return caption, err
}
