package commentary

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPrompt is the system prompt used when the selected personality is
// unknown.
const DefaultPrompt = "You are a professional golf announcer providing live commentary. " +
	"Keep commentary concise (1-2 sentences max)."

//go:embed personalities.yaml
var builtinPersonalities []byte

// Persona is one commentator personality.
type Persona struct {
	Name      string   `yaml:"name"`
	Prompt    string   `yaml:"prompt"`
	VoiceRate int      `yaml:"voice_rate"`
	Examples  []string `yaml:"examples"`
}

// SystemPrompt returns the prompt with the example lines appended.
func (p Persona) SystemPrompt() string {
	prompt := strings.TrimSpace(p.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}
	if len(p.Examples) == 0 {
		return prompt
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nExamples of your style:")
	for _, e := range p.Examples {
		b.WriteString("\n- ")
		b.WriteString(e)
	}
	return b.String()
}

// Personas maps a mode key (e.g. "pirate") to its persona.
type Personas map[string]Persona

type personaFile struct {
	Personalities Personas `yaml:"personalities"`
}

// ParsePersonas decodes a personalities document. JSON documents are
// accepted as well, being valid YAML.
func ParsePersonas(data []byte) (Personas, error) {
	var f personaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("commentary: parse personalities: %w", err)
	}
	for key, p := range f.Personalities {
		if strings.TrimSpace(p.Prompt) == "" {
			return nil, fmt.Errorf("commentary: personality %q has no prompt", key)
		}
		if p.Name == "" {
			p.Name = key
			f.Personalities[key] = p
		}
	}
	return f.Personalities, nil
}

// LoadPersonas reads the file at path and merges it over the built-in
// personalities. An empty path returns the built-ins.
func LoadPersonas(path string) (Personas, error) {
	out := Builtin()
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("commentary: read personalities: %w", err)
	}
	loaded, err := ParsePersonas(data)
	if err != nil {
		return nil, err
	}
	maps.Copy(out, loaded)
	return out, nil
}

// Builtin returns the personalities shipped with the binary.
func Builtin() Personas {
	p, err := ParsePersonas(builtinPersonalities)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup returns the persona for mode and whether it exists. Unknown modes
// get a persona with DefaultPrompt.
func (ps Personas) Lookup(mode string) (Persona, bool) {
	if p, ok := ps[strings.ToLower(mode)]; ok {
		return p, true
	}
	return Persona{Name: mode, Prompt: DefaultPrompt}, false
}

// Keys returns the mode keys in sorted order.
func (ps Personas) Keys() []string {
	return slices.Sorted(maps.Keys(ps))
}
