package config

import (
	"fmt"
	"testing"
)

// mapBackend is a test double for the Backend interface.
type mapBackend map[string]any

func (m mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m[key]
	if !ok {
		return "", false, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return fmt.Sprintf("%v", v), true, nil
	}
	return s, true, nil
}

func (m mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}
	i, isInt := v.(int)
	if !isInt {
		return 0, true, fmt.Errorf("invalid type for %s", key)
	}
	return i, true, nil
}

func (m mapBackend) SetString(key, val string) error { m[key] = val; return nil }
func (m mapBackend) SetInt(key string, val int) error { m[key] = val; return nil }
func (m mapBackend) Delete(key string) error          { delete(m, key); return nil }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies default values survive an empty backend.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(mapBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != "30s" {
		t.Errorf("API.Timeout = %q, want 30s", cfg.API.Timeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Poll.InitialDelay != "1.5s" {
		t.Errorf("Poll.InitialDelay = %q, want 1.5s", cfg.Poll.InitialDelay)
	}
	if cfg.Poll.MaxAttempts != 8 {
		t.Errorf("Poll.MaxAttempts = %d, want 8", cfg.Poll.MaxAttempts)
	}
	if cfg.Archive.DataDir == "" {
		t.Error("Archive.DataDir should default to a data dir")
	}
}

// TestBackendValues verifies all typed keys are read from the backend.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(mapBackend{
		"api.base_url":       "https://console.baikal.ai/api",
		"api.timeout":        "10s",
		"log.level":          "debug",
		"archive.data_dir":   "/tmp/baikalctl-test",
		"poll.initial_delay": "2s",
		"poll.max_attempts":  3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://console.baikal.ai/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != "10s" {
		t.Errorf("API.Timeout = %q", cfg.API.Timeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Archive.DataDir != "/tmp/baikalctl-test" {
		t.Errorf("Archive.DataDir = %q", cfg.Archive.DataDir)
	}
	if cfg.Poll.InitialDelay != "2s" {
		t.Errorf("Poll.InitialDelay = %q", cfg.Poll.InitialDelay)
	}
	if cfg.Poll.MaxAttempts != 3 {
		t.Errorf("Poll.MaxAttempts = %d", cfg.Poll.MaxAttempts)
	}
}

// TestEnvOverride verifies environment variables win over backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("BAIKAL_API_BASE_URL", "https://env.baikal.ai")
	t.Setenv("BAIKAL_POLL_MAX_ATTEMPTS", "12")

	cfg, err := loadWith(mapBackend{
		"api.base_url":      "https://file.baikal.ai",
		"poll.max_attempts": 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://env.baikal.ai" {
		t.Errorf("API.BaseURL = %q, want env value", cfg.API.BaseURL)
	}
	if cfg.Poll.MaxAttempts != 12 {
		t.Errorf("Poll.MaxAttempts = %d, want 12", cfg.Poll.MaxAttempts)
	}
}

// TestEnvOverride_BadIntFallsBack verifies an unparsable integer env var is
// ignored with the backend value kept.
func TestEnvOverride_BadIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("BAIKAL_POLL_MAX_ATTEMPTS", "lots")

	cfg, err := loadWith(mapBackend{"poll.max_attempts": 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Poll.MaxAttempts != 5 {
		t.Errorf("Poll.MaxAttempts = %d, want backend value 5", cfg.Poll.MaxAttempts)
	}
}

func TestShowAll_CoversEveryKey(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(mapBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	infos := ShowAll(cfg)
	if len(infos) != len(specs) {
		t.Fatalf("ShowAll returned %d keys, want %d", len(infos), len(specs))
	}
	for _, info := range infos {
		if info.Key == "" || info.EnvVar == "" {
			t.Errorf("incomplete key info: %+v", info)
		}
	}
}
