// Package config holds baikalctl's configuration: a typed key table backed
// by a JSON file under the XDG config dir, with BAIKAL_* environment
// overrides.
package config

type Config struct {
	API     APIConfig
	Log     LogConfig
	Archive ArchiveConfig
	Poll    PollConfig
}

type APIConfig struct {
	// BaseURL is the backend root, e.g. https://console.baikal.ai/api.
	BaseURL string
	// Timeout is a Go duration string for the HTTP client.
	Timeout string
}

type LogConfig struct {
	Level string
}

type ArchiveConfig struct {
	// DataDir holds the local chat transcript archive.
	DataDir string
}

type PollConfig struct {
	// InitialDelay is a Go duration string: the wait before the first
	// run-history refresh after triggering a run.
	InitialDelay string
	// MaxAttempts bounds the settle-polling loop.
	MaxAttempts int
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: "30s",
		},
		Log: LogConfig{
			Level: "info",
		},
		Archive: ArchiveConfig{
			DataDir: defaultDataDir(),
		},
		Poll: PollConfig{
			InitialDelay: "1.5s",
			MaxAttempts:  8,
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/baikalctl/config.json, then applies BAIKAL_*
// environment overrides on top.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
