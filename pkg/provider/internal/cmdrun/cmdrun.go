// Package cmdrun runs external helper programs (tesseract, screenshot
// tools, audio players) for the exec-backed providers.
package cmdrun

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner runs name with args, feeding stdin, and returns stdout.
type Runner func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)

// Exec is the default Runner backed by os/exec. Failures include the tail
// of stderr.
func Exec(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[len(msg)-200:]
		}
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Split breaks a configured command line into program and arguments on
// whitespace. Quoting is not supported.
func Split(command string) (string, []string, error) {
	f := strings.Fields(command)
	if len(f) == 0 {
		return "", nil, fmt.Errorf("cmdrun: empty command")
	}
	return f[0], f[1:], nil
}

// Expand replaces {key} placeholders in args with values.
func Expand(args []string, values map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		for k, v := range values {
			a = strings.ReplaceAll(a, "{"+k+"}", v)
		}
		out[i] = a
	}
	return out
}
