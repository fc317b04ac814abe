// Package envfile edits KEY=VALUE entries in a dotenv file in place, writing
// a timestamped backup beside the original first.
package envfile

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// backupStamp is the timestamp layout appended to backup file names.
const backupStamp = "20060102T150405"

// Config holds envfile command configuration.
type Config struct {
	Path   string
	Sets   map[string]string
	Unsets []string
}

// ParseConfig parses flags into a Config. -set and -unset repeat.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Sets: make(map[string]string)}

	fs.StringVar(&cfg.Path, "file", ".env", "dotenv file to edit")
	fs.Func("set", "KEY=VALUE entry to set (repeatable)", func(value string) error {
		key, val, ok := strings.Cut(value, "=")
		if !ok || key == "" {
			return fmt.Errorf("-set wants KEY=VALUE, got %q", value)
		}
		cfg.Sets[key] = val
		return nil
	})
	fs.Func("unset", "KEY to remove (repeatable)", func(key string) error {
		if key == "" {
			return errors.New("-unset wants a non-empty KEY")
		}
		cfg.Unsets = append(cfg.Unsets, key)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the envfile command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	return run(cfg, out, time.Now)
}

func run(cfg Config, out io.Writer, now func() time.Time) error {
	if out == nil {
		out = io.Discard
	}
	if len(cfg.Sets) == 0 && len(cfg.Unsets) == 0 {
		return errors.New("nothing to do: pass -set and/or -unset")
	}

	original, err := os.ReadFile(cfg.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Path, err)
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", cfg.Path, err)
	}

	backupPath := cfg.Path + ".bak." + now().UTC().Format(backupStamp)
	if err := os.WriteFile(backupPath, original, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	rewritten, changed := Rewrite(string(original), cfg.Sets, cfg.Unsets)
	if err := os.WriteFile(cfg.Path, []byte(rewritten), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Path, err)
	}

	fmt.Fprintf(out, "Backup written to %s\n", backupPath)
	fmt.Fprintf(out, "Updated %s (%d entries changed)\n", cfg.Path, changed)
	return nil
}

// Rewrite applies sets and unsets to dotenv content. Comments, blank lines,
// and the order of untouched entries are preserved; keys not already present
// are appended at the end. It returns the new content and how many entries
// changed.
func Rewrite(content string, sets map[string]string, unsets []string) (string, int) {
	unset := make(map[string]bool, len(unsets))
	for _, key := range unsets {
		unset[key] = true
	}
	pending := make(map[string]string, len(sets))
	for key, value := range sets {
		pending[key] = value
	}

	hadTrailingNewline := strings.HasSuffix(content, "\n")
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	if content == "" {
		lines = nil
	}

	changed := 0
	var result []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}
		key, current, ok := strings.Cut(trimmed, "=")
		if !ok {
			result = append(result, line)
			continue
		}
		key = strings.TrimSpace(key)
		if unset[key] {
			changed++
			continue
		}
		if value, found := pending[key]; found {
			delete(pending, key)
			if value != current {
				changed++
			}
			result = append(result, key+"="+value)
			continue
		}
		result = append(result, line)
	}

	// New keys append in sorted order; map iteration would shuffle them.
	appended := make([]string, 0, len(pending))
	for key := range pending {
		appended = append(appended, key)
	}
	sort.Strings(appended)
	for _, key := range appended {
		result = append(result, key+"="+pending[key])
		changed++
	}

	rewritten := strings.Join(result, "\n")
	if rewritten != "" && (hadTrailingNewline || len(appended) > 0) {
		rewritten += "\n"
	}
	return rewritten, changed
}
