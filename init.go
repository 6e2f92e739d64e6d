package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/serialcheck/internal/config"
)

const (
	sentinelStart = "# serialcheck:start"
	sentinelEnd   = "# serialcheck:end"
)

// newInitCmd implements `serialcheck init`, which writes (or updates) the
// default settings block in a config file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [flags] [path]",
		Short: "Write a default config file",
		Long: `Write the default serialcheck settings to a config file. The block is wrapped
in sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. Creates the file if it does not exist.

path defaults to ./` + config.DefaultPath + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := generateSection()
			if err != nil {
				return err
			}

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := config.DefaultPath
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			if !strings.Contains(string(existing), sentinelStart) && hasSettings(string(existing)) {
				return fmt.Errorf("%s already has settings outside a serialcheck block", path)
			}
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(stderr, "wrote serialcheck settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped default settings block.
func generateSection() (string, error) {
	body, err := config.Default().Marshal()
	if err != nil {
		return "", fmt.Errorf("encoding defaults: %w", err)
	}

	header := `# Settings for serialcheck. Command-line flags override these values.
# SERIALCHECK_NM, SERIALCHECK_NM_ARGS and SERIALCHECK_LOG_LEVEL override the
# matching keys from the environment or a .env file.
`
	return sentinelStart + "\n" + header + strings.TrimRight(string(body), "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}

	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}

// hasSettings reports whether content holds anything besides comments and
// blank lines.
func hasSettings(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return true
		}
	}
	return false
}
