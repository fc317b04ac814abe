// Package deployenv pushes environment variables to a deployment by shelling
// out to the deployment CLI, one secrets invocation per key.
package deployenv

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Config holds deploy-env command configuration.
type Config struct {
	CLI    string
	App    string
	File   string
	Sets   map[string]string
	DryRun bool
}

// ParseConfig parses flags into a Config. -set repeats; -file loads KEY=VALUE
// pairs from a dotenv file, with -set entries winning on collisions.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Sets: make(map[string]string)}

	fs.StringVar(&cfg.CLI, "cli", "flyctl", "deployment CLI binary")
	fs.StringVar(&cfg.App, "app", "", "deployment app name, passed as -a when set")
	fs.StringVar(&cfg.File, "file", "", "dotenv file to load KEY=VALUE pairs from")
	fs.Func("set", "KEY=VALUE secret to push (repeatable)", func(value string) error {
		key, val, ok := strings.Cut(value, "=")
		if !ok || key == "" {
			return fmt.Errorf("-set wants KEY=VALUE, got %q", value)
		}
		cfg.Sets[key] = val
		return nil
	})
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "print commands instead of running them")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// runner executes one CLI invocation. Swapped out in tests.
type runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Run executes the deploy-env command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	return runWithRunner(ctx, cfg, execRunner, out)
}

// runWithRunner contains the push logic with an injectable process runner.
func runWithRunner(ctx context.Context, cfg Config, run runner, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if run == nil {
		return errors.New("process runner is not configured")
	}
	if cfg.CLI == "" {
		return errors.New("-cli is required")
	}

	pairs, err := collectPairs(cfg)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return errors.New("nothing to push: pass -set and/or -file")
	}

	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		args := []string{"secrets", "set"}
		if cfg.App != "" {
			args = append(args, "-a", cfg.App)
		}
		args = append(args, key+"="+pairs[key])

		if cfg.DryRun {
			fmt.Fprintf(out, "%s %s\n", cfg.CLI, strings.Join(args, " "))
			continue
		}
		if err := run(ctx, cfg.CLI, args...); err != nil {
			return fmt.Errorf("push %s: %w", key, err)
		}
		fmt.Fprintf(out, "Pushed %s\n", key)
	}
	return nil
}

// collectPairs merges the -file contents under the explicit -set entries.
func collectPairs(cfg Config) (map[string]string, error) {
	pairs := make(map[string]string)
	if cfg.File != "" {
		data, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", cfg.File, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			key, value, ok := strings.Cut(trimmed, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			pairs[strings.TrimSpace(key)] = value
		}
	}
	for key, value := range cfg.Sets {
		pairs[key] = value
	}
	return pairs, nil
}
