package cmdrun

import (
	"slices"
	"testing"
)

func TestSplit(t *testing.T) {
	t.Parallel()
	name, args, err := Split("  aplay -q -r {rate}  ")
	if err != nil || name != "aplay" || !slices.Equal(args, []string{"-q", "-r", "{rate}"}) {
		t.Errorf("Split = %q %v %v", name, args, err)
	}
	if _, _, err := Split("   "); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()
	got := Expand([]string{"-r", "{rate}", "-c{channels}", "plain"}, map[string]string{"rate": "16000", "channels": "1"})
	want := []string{"-r", "16000", "-c1", "plain"}
	if !slices.Equal(got, want) {
		t.Errorf("Expand = %v, want %v", got, want)
	}
}
