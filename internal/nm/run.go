package nm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultPath is the dump utility looked up on PATH when none is configured.
const DefaultPath = "nm"

// Runner invokes the symbol dump utility on a file.
type Runner struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// Dump runs the utility on file and returns its complete standard output.
// A non-zero exit is an error carrying the utility's stderr.
func (r Runner) Dump(ctx context.Context, file string) ([]byte, error) {
	path := r.Path
	if path == "" {
		path = DefaultPath
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, r.Args...), file)
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", path, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", path, strings.Join(args, " "), err)
	}
	return out, nil
}
