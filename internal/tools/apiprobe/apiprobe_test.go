package apiprobe

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"

	"github.com/arvela/crmops/internal/enrich"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("api-probe", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Service != ServiceEnrich {
		t.Fatalf("service = %q, want enrich", cfg.Service)
	}
}

func TestTarget(t *testing.T) {
	cfg := Config{
		EnrichURL:    "https://enrich.example/v1",
		EnrichAPIKey: "ek",
		SpeechURL:    "https://speech.example/v1",
		SpeechAPIKey: "sk",
	}

	cfg.Service = ServiceEnrich
	url, key, err := target(cfg)
	if err != nil || url != "https://enrich.example/v1" || key != "ek" {
		t.Fatalf("enrich target = %q %q %v", url, key, err)
	}

	cfg.Service = ServiceSpeech
	url, key, err = target(cfg)
	if err != nil || url != "https://speech.example/v1" || key != "sk" {
		t.Fatalf("speech target = %q %q %v", url, key, err)
	}

	cfg.Service = "other"
	if _, _, err := target(cfg); err == nil || !strings.Contains(err.Error(), "unknown service") {
		t.Fatalf("err = %v", err)
	}

	cfg = Config{Service: ServiceSpeech}
	if _, _, err := target(cfg); err == nil || !strings.Contains(err.Error(), "CRMOPS_SPEECH_URL") {
		t.Fatalf("err = %v", err)
	}
}

type fakeProber struct {
	got    enrich.ProbeRequest
	result enrich.ProbeResult
}

func (f *fakeProber) Probe(ctx context.Context, probe enrich.ProbeRequest) (enrich.ProbeResult, error) {
	f.got = probe
	return f.result, nil
}

func TestRunWithClientPrintsResponse(t *testing.T) {
	client := &fakeProber{result: enrich.ProbeResult{Status: "200 OK", StatusCode: 200, Body: `{"ok":true}`}}
	cfg := Config{Service: ServiceEnrich, EnrichURL: "https://enrich.example", EnrichAPIKey: "ek"}
	var out bytes.Buffer
	if err := runWithClient(context.Background(), cfg, client, &out); err != nil {
		t.Fatalf("runWithClient: %v", err)
	}
	if client.got.URL != "https://enrich.example" || client.got.APIKey != "ek" {
		t.Fatalf("probe request = %+v", client.got)
	}
	if !strings.Contains(out.String(), "enrich 200 OK") || !strings.Contains(out.String(), `{"ok":true}`) {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunWithClientPayload(t *testing.T) {
	client := &fakeProber{}
	cfg := Config{Service: ServiceEnrich, EnrichURL: "https://enrich.example", Payload: `{"q":"acme"}`}
	if err := runWithClient(context.Background(), cfg, client, nil); err != nil {
		t.Fatalf("runWithClient: %v", err)
	}
	if string(client.got.Payload) != `{"q":"acme"}` {
		t.Fatalf("payload = %q", client.got.Payload)
	}
}

func TestRunWithClientRejectsBadPayload(t *testing.T) {
	cfg := Config{Service: ServiceEnrich, EnrichURL: "https://enrich.example", Payload: "{nope"}
	err := runWithClient(context.Background(), cfg, &fakeProber{}, nil)
	if err == nil || !strings.Contains(err.Error(), "valid JSON") {
		t.Fatalf("err = %v", err)
	}
}
