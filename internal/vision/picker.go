package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
}

type Prompter interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// FilePicker asks for an image path on the console.
type FilePicker struct {
	prompter Prompter
}

func NewFilePicker(p Prompter) *FilePicker {
	return &FilePicker{prompter: p}
}

// PickImage returns nil bytes when the user enters nothing.
func (p *FilePicker) PickImage(ctx context.Context) ([]byte, error) {
	answer, err := p.prompter.Prompt(ctx, "Image path (empty to cancel): ")
	if err != nil {
		return nil, err
	}

	path := strings.Trim(strings.TrimSpace(answer), `"'`)
	if path == "" {
		return nil, nil
	}

	return ReadImage(path)
}

// ReadImage loads an image file with one of the supported extensions.
func ReadImage(path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageExts[ext] {
		return nil, fmt.Errorf("unsupported image type %q (want jpg, jpeg, png, bmp or gif)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
