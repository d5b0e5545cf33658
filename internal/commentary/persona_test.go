package commentary

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestBuiltin(t *testing.T) {
	t.Parallel()
	ps := Builtin()
	want := []string{"british", "hype", "normal", "pirate", "smartass", "zen"}
	if got := ps.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
	for _, k := range want {
		p := ps[k]
		if p.Prompt == "" || p.VoiceRate == 0 || p.Name == "" {
			t.Errorf("%s: incomplete persona %+v", k, p)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()
	ps := Builtin()
	if p, ok := ps.Lookup("Pirate"); !ok || p.Name != "Pirate Captain" {
		t.Errorf("Lookup(Pirate) = %+v, %v", p, ok)
	}
	p, ok := ps.Lookup("drunk")
	if ok {
		t.Error("unknown mode reported as found")
	}
	if p.Prompt != DefaultPrompt {
		t.Errorf("fallback prompt = %q", p.Prompt)
	}
}

func TestLoadPersonas_JSONOverride(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "personalities.json")
	doc := `{"personalities": {
		"normal": {"name": "Dad", "prompt": "You are a proud golf dad.", "voice_rate": 140},
		"drunk": {"prompt": "You had a few at the turn."}
	}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	ps, err := LoadPersonas(path)
	if err != nil {
		t.Fatalf("LoadPersonas: %v", err)
	}
	if ps["normal"].Name != "Dad" || ps["normal"].VoiceRate != 140 {
		t.Errorf("normal = %+v", ps["normal"])
	}
	if ps["drunk"].Name != "drunk" {
		t.Errorf("drunk name = %q, want key as fallback", ps["drunk"].Name)
	}
	if _, ok := ps["pirate"]; !ok {
		t.Error("built-in personas should remain")
	}
}

func TestLoadPersonas_Errors(t *testing.T) {
	t.Parallel()
	if _, err := LoadPersonas(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ParsePersonas([]byte("personalities:\n  x:\n    name: X\n")); err == nil {
		t.Error("expected error for persona without prompt")
	}
	if ps, err := LoadPersonas(""); err != nil || len(ps) != 6 {
		t.Errorf("LoadPersonas(\"\") = %d personas, %v", len(ps), err)
	}
}

func TestSystemPrompt(t *testing.T) {
	t.Parallel()
	p := Persona{Prompt: "  Be zen.  ", Examples: []string{"Breathe.", "The ball knows."}}
	got := p.SystemPrompt()
	if !strings.HasPrefix(got, "Be zen.\n\nExamples of your style:") || !strings.HasSuffix(got, "\n- The ball knows.") {
		t.Errorf("SystemPrompt = %q", got)
	}
	if (Persona{}).SystemPrompt() != DefaultPrompt {
		t.Error("empty persona should use DefaultPrompt")
	}
}
