package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "info", Service: "estimate-api", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Str("estimate_id", "e1").Msg("estimate created")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "estimate-api" {
		t.Fatalf("service not attached: %v", entry)
	}
	if entry["estimate_id"] != "e1" || entry["message"] != "estimate created" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestInit_Singleton(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var first, second bytes.Buffer
	Init(Options{Output: &first})
	Init(Options{Output: &second})

	l := Get()
	l.Info().Msg("hello")
	if first.Len() == 0 || second.Len() != 0 {
		t.Fatalf("expected only the first Init to take effect")
	}
}
