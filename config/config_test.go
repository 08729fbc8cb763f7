package config

import (
	"errors"
	"flag"
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("Expected 127.0.0.1:8080, got %s", cfg.Addr())
	}
	if cfg.Workers <= 0 {
		t.Errorf("Expected positive default workers, got %d", cfg.Workers)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("Expected 10s read timeout, got %v", cfg.ReadTimeout)
	}
}

func TestLoadFlagsAndEnv(t *testing.T) {
	cfg, err := Load(
		[]string{"-port", "9000", "-read-timeout", "2s"},
		env(map[string]string{
			"DISPATCH_PORT":       "7000", // flag wins
			"DISPATCH_WORKERS":    "3",
			"DISPATCH_LOG_LEVEL":  "debug",
			"DISPATCH_REUSE_PORT": "true",
		}),
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Expected flag port 9000, got %d", cfg.Port)
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected env workers 3, got %d", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected env log level debug, got %s", cfg.LogLevel)
	}
	if !cfg.ReusePort {
		t.Error("Expected reuse-port from env")
	}
	if cfg.ReadTimeout != 2*time.Second {
		t.Errorf("Expected 2s, got %v", cfg.ReadTimeout)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"zero workers", []string{"-workers", "0"}, nil, "workers must be positive"},
		{"bad port", []string{"-port", "70000"}, nil, "out of range"},
		{"bad level", []string{"-log-level", "loud"}, nil, "not a valid logrus Level"},
		{"bad format", []string{"-log-format", "xml"}, nil, "log-format"},
		{"bad env", nil, map[string]string{"DISPATCH_WORKERS": "many"}, "DISPATCH_WORKERS"},
		{"unknown flag", []string{"-nope"}, nil, "not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, env(tt.env))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadHelp(t *testing.T) {
	for _, arg := range []string{"-h", "-help"} {
		_, err := Load([]string{arg}, nil)
		if !errors.Is(err, flag.ErrHelp) {
			t.Errorf("%s: expected flag.ErrHelp, got %v", arg, err)
		}
	}
}
