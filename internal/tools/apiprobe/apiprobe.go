// Package apiprobe fires one request at a configured third-party provider and
// prints the raw response, for checking credentials and availability.
package apiprobe

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/arvela/crmops/internal/enrich"
)

// Known probe services.
const (
	ServiceEnrich = "enrich"
	ServiceSpeech = "speech"
)

// Config holds api-probe command configuration.
type Config struct {
	Service      string
	Payload      string
	JSONOutput   bool
	EnrichURL    string        `env:"CRMOPS_ENRICH_URL"`
	EnrichAPIKey string        `env:"CRMOPS_ENRICH_API_KEY"`
	SpeechURL    string        `env:"CRMOPS_SPEECH_URL"`
	SpeechAPIKey string        `env:"CRMOPS_SPEECH_API_KEY"`
	Timeout      time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"30s"`
}

type envConfig struct {
	EnrichURL    string        `env:"CRMOPS_ENRICH_URL"`
	EnrichAPIKey string        `env:"CRMOPS_ENRICH_API_KEY"`
	SpeechURL    string        `env:"CRMOPS_SPEECH_URL"`
	SpeechAPIKey string        `env:"CRMOPS_SPEECH_API_KEY"`
	Timeout      time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"30s"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		EnrichURL:    envCfg.EnrichURL,
		EnrichAPIKey: envCfg.EnrichAPIKey,
		SpeechURL:    envCfg.SpeechURL,
		SpeechAPIKey: envCfg.SpeechAPIKey,
		Timeout:      envCfg.Timeout,
	}

	fs.StringVar(&cfg.Service, "service", ServiceEnrich, "provider to probe: enrich or speech")
	fs.StringVar(&cfg.Payload, "payload", "", "JSON body to POST; empty issues a GET")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output the probe result as JSON")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// target resolves which URL and key the configured service uses.
func target(cfg Config) (url, apiKey string, err error) {
	switch cfg.Service {
	case ServiceEnrich:
		url, apiKey = cfg.EnrichURL, cfg.EnrichAPIKey
		if url == "" {
			return "", "", errors.New("CRMOPS_ENRICH_URL is not set")
		}
	case ServiceSpeech:
		url, apiKey = cfg.SpeechURL, cfg.SpeechAPIKey
		if url == "" {
			return "", "", errors.New("CRMOPS_SPEECH_URL is not set")
		}
	default:
		return "", "", fmt.Errorf("unknown service %q (want enrich or speech)", cfg.Service)
	}
	return url, apiKey, nil
}

// Run executes the api-probe command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	return runWithClient(ctx, cfg, enrich.NewClient(nil), out)
}

type prober interface {
	Probe(ctx context.Context, probe enrich.ProbeRequest) (enrich.ProbeResult, error)
}

// runWithClient contains the probe logic with an injectable client.
func runWithClient(ctx context.Context, cfg Config, client prober, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if client == nil {
		return errors.New("probe client is not configured")
	}

	url, apiKey, err := target(cfg)
	if err != nil {
		return err
	}

	var payload []byte
	if cfg.Payload != "" {
		if !json.Valid([]byte(cfg.Payload)) {
			return errors.New("-payload is not valid JSON")
		}
		payload = []byte(cfg.Payload)
	}

	result, err := client.Probe(ctx, enrich.ProbeRequest{URL: url, APIKey: apiKey, Payload: payload})
	if err != nil {
		return fmt.Errorf("probe %s: %w", cfg.Service, err)
	}

	if cfg.JSONOutput {
		encoded, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(out, string(encoded))
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", cfg.Service, result.Status)
	fmt.Fprintln(out, result.Body)
	return nil
}
