package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.SessionDuration != 24*time.Hour {
		t.Errorf("SessionDuration = %v, want 24h", cfg.SessionDuration)
	}
	if cfg.SandboxDelay != 1500*time.Millisecond {
		t.Errorf("SandboxDelay = %v, want 1.5s", cfg.SandboxDelay)
	}
	if !cfg.SeedBadWords {
		t.Error("SeedBadWords should default to true")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://hub@localhost/hub")
	t.Setenv("SANDBOX_DELAY", "0s")
	t.Setenv("SEED_BAD_WORDS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %q, want postgres", cfg.DatabaseType)
	}
	if cfg.DatabaseURL != "postgres://hub@localhost/hub" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.SandboxDelay != 0 {
		t.Errorf("SandboxDelay = %v, want 0", cfg.SandboxDelay)
	}
	if cfg.SeedBadWords {
		t.Error("SeedBadWords should be false")
	}
}

func TestSplitOrigins(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "list", input: []string{"http://a", "http://b"}, want: []string{"http://a", "http://b"}},
		{name: "comma separated", input: []string{"http://a, http://b"}, want: []string{"http://a", "http://b"}},
		{name: "blank entries", input: []string{" , "}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitOrigins(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitOrigins(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
