package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/spigell/recruit-panel/internal/ai/gemini"
	"github.com/spigell/recruit-panel/internal/ai/openai"
	"github.com/spigell/recruit-panel/internal/recruitment"
	"github.com/spigell/recruit-panel/internal/secrets"
)

func TestNewBackend(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("sk-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	backend, err := newBackend(context.Background(), &AIConfig{
		Provider: "OpenAI",
		Model:    "gpt-4o",
		OpenAI:   &KeyConfig{APIKeyFile: keyFile, BaseURL: "https://openrouter.ai/api/v1/"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.Name() != openai.ProviderName || backend.Model() != "gpt-4o" {
		t.Fatalf("unexpected backend %s/%s", backend.Name(), backend.Model())
	}

	t.Setenv("GEMINI_API_KEY", "")
	if _, err := newBackend(context.Background(), &AIConfig{Provider: gemini.ProviderName}); !errors.Is(err, secrets.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := newBackend(context.Background(), &AIConfig{Provider: "mistral"}); err == nil {
		t.Fatal("expected unsupported provider error")
	}
	if _, err := newBackend(context.Background(), nil); err == nil {
		t.Fatal("expected error without ai config")
	}
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	config := &Config{
		AI:    &AIConfig{OpenAI: &KeyConfig{APIKey: "sk-live", BaseURL: "https://api"}},
		Store: &StoreConfig{Driver: "postgres", DSN: "postgres://user:pass@db/panel"},
	}

	out := redacted(config)
	if out.AI.OpenAI.APIKey != "***" || out.AI.OpenAI.BaseURL != "https://api" || out.Store.DSN != "***" {
		t.Fatalf("secrets not hidden: %+v %+v", out.AI.OpenAI, out.Store)
	}
	if config.AI.OpenAI.APIKey != "sk-live" || config.Store.DSN == "***" {
		t.Fatal("original config was modified")
	}
}

func TestResultJobID(t *testing.T) {
	t.Parallel()

	cand := &recruitment.Candidate{ID: "cand-1", PreferentialJobIDs: []string{"job-2"}}
	tests := []struct {
		name string
		flag string
		cand *recruitment.Candidate
		want string
	}{
		{name: "flag wins", flag: "job-9", cand: cand, want: "job-9"},
		{name: "preferential job", cand: cand, want: "job-2"},
		{name: "no candidate", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resultJobID(tt.flag, tt.cand); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExportPath(t *testing.T) {
	t.Parallel()

	if got := exportPath("out/panel.xlsx", "cand-1", 1); got != "out/panel.xlsx" {
		t.Fatalf("single candidate path changed: %q", got)
	}
	if got := exportPath("out/panel.xlsx", "cand-1", 3); got != "out/panel-cand-1.xlsx" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestPrintVersion(t *testing.T) {
	info := &debug.BuildInfo{
		GoVersion: "go1.24.1",
		Main:      debug.Module{Path: "github.com/spigell/recruit-panel", Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "4f2a9c1"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-10-01T09:00:00Z"},
		},
	}

	var out bytes.Buffer
	printVersion(&out, info)

	for _, want := range []string{
		"recruit-panel version: v0.3.0\n",
		"module: github.com/spigell/recruit-panel\n",
		"go: go1.24.1\n",
		"revision: 4f2a9c1 (modified)\n",
		"built from commit at: 2026-10-01T09:00:00Z\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in:\n%s", want, out.String())
		}
	}

	out.Reset()
	printVersion(&out, nil)
	if out.String() != "recruit-panel version: unknown\n" {
		t.Fatalf("unexpected output without build info: %q", out.String())
	}
}
