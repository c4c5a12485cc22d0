// Package persona holds the guide's character: the system prompt sent as the
// first transcript entry and the fixed lines the guide speaks on its own.
package persona

import (
	"embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed personas/*.yaml
var builtin embed.FS

const (
	DefaultName = "karima"

	defaultNoImage       = "No image selected."
	defaultNoDescription = "No description available for this image."
	defaultImagePrompt   = "The image shows: '%s'. Based on this and our conversation so far, where might this photo have been taken? Describe the place."
	defaultImageReply    = "Based on the analysis and our conversation, you might be at: %s"
)

type Persona struct {
	Name         string   `yaml:"name"`
	SystemPrompt string   `yaml:"system_prompt"`
	Greetings    []string `yaml:"greetings"`
	Farewell     string   `yaml:"farewell"`
	Apology      string   `yaml:"apology"`

	// Images enables the "open image" command.
	Images        bool   `yaml:"images"`
	NoImage       string `yaml:"no_image"`
	NoDescription string `yaml:"no_description"`
	ImagePrompt   string `yaml:"image_prompt"` // %s = caption
	ImageReply    string `yaml:"image_reply"`  // %s = prediction

	Ambiance       []string `yaml:"ambiance"`
	AmbianceChance float64  `yaml:"ambiance_chance"`
}

// Load resolves name as a file path first and falls back to the built-in
// personas.
func Load(name string) (*Persona, error) {
	if name == "" {
		name = DefaultName
	}

	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		data, err = builtin.ReadFile("personas/" + strings.ToLower(name) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("persona %q not found", name)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read persona: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode persona: %w", err)
	}

	if p.NoImage == "" {
		p.NoImage = defaultNoImage
	}
	if p.NoDescription == "" {
		p.NoDescription = defaultNoDescription
	}
	if p.ImagePrompt == "" {
		p.ImagePrompt = defaultImagePrompt
	}
	if p.ImageReply == "" {
		p.ImageReply = defaultImageReply
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Persona) Validate() error {
	var missing []string
	if strings.TrimSpace(p.SystemPrompt) == "" {
		missing = append(missing, "system_prompt")
	}
	if len(p.Greetings) == 0 {
		missing = append(missing, "greetings")
	}
	if p.Farewell == "" {
		missing = append(missing, "farewell")
	}
	if p.Apology == "" {
		missing = append(missing, "apology")
	}
	if len(missing) > 0 {
		return fmt.Errorf("persona %q: missing %s", p.Name, strings.Join(missing, ", "))
	}

	if p.AmbianceChance < 0 || p.AmbianceChance > 1 {
		return fmt.Errorf("persona %q: ambiance_chance %v out of [0, 1]", p.Name, p.AmbianceChance)
	}
	return nil
}

// Greeting picks one of the opening lines.
func (p *Persona) Greeting(rng *rand.Rand) string {
	return p.Greetings[rng.IntN(len(p.Greetings))]
}

// AmbianceLine returns a background line or "" when the roll misses.
func (p *Persona) AmbianceLine(rng *rand.Rand) string {
	if len(p.Ambiance) == 0 || rng.Float64() >= p.AmbianceChance {
		return ""
	}
	return p.Ambiance[rng.IntN(len(p.Ambiance))]
}
