package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "api.base_url", typ: kString, env: "BAIKAL_API_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.API.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.API.BaseURL },
	},
	{
		key: "api.timeout", typ: kString, env: "BAIKAL_API_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.API.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Timeout },
	},
	{
		key: "log.level", typ: kString, env: "BAIKAL_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "archive.data_dir", typ: kString, env: "BAIKAL_ARCHIVE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Archive.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Archive.DataDir },
	},
	{
		key: "poll.initial_delay", typ: kString, env: "BAIKAL_POLL_INITIAL_DELAY",
		apply:   func(cfg *Config, v any) { cfg.Poll.InitialDelay = v.(string) },
		extract: func(cfg Config) any { return cfg.Poll.InitialDelay },
	},
	{
		key: "poll.max_attempts", typ: kInt, env: "BAIKAL_POLL_MAX_ATTEMPTS",
		apply:   func(cfg *Config, v any) { cfg.Poll.MaxAttempts = v.(int) },
		extract: func(cfg Config) any { return cfg.Poll.MaxAttempts },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
