package zecs

import (
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// EngineConfig holds the settings of an Engine. It can be loaded from a TOML file and
// overridden with ZECS_ prefixed environment variables.
type EngineConfig struct {
	// Maximum number of systems running at once. 0 uses GOMAXPROCS.
	Workers int `toml:"workers" env:"WORKERS"`

	// Ticks per second. 0 ticks as fast as possible.
	TickRate float64 `toml:"tick_rate" env:"TICK_RATE"`

	// Stop after this many ticks. 0 runs until cancelled or an AppExit event is sent.
	MaxTicks uint64 `toml:"max_ticks" env:"MAX_TICKS"`

	QueryCacheCapacity int `toml:"query_cache_capacity" env:"QUERY_CACHE_CAPACITY"`

	Log LogConfig `toml:"log" envPrefix:"LOG_"`
}

type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"` // "json" or "console"
}

const envPrefix = "ZECS_"

// DefaultEngineConfig returns the configuration used when nothing is overridden.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Workers:            0,
		TickRate:           60,
		MaxTicks:           0,
		QueryCacheCapacity: defaultQueryCacheCapacity,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadEngineConfig starts from the defaults, applies the TOML file at path when path is not
// empty, then applies environment overrides and validates the result.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, eris.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, eris.Wrap(err, "failed to parse engine config from environment")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}
	return cfg, nil
}

func (cfg *EngineConfig) validate() error {
	if cfg.Workers < 0 {
		return eris.New("workers cannot be negative")
	}
	if cfg.TickRate < 0 {
		return eris.New("tick rate cannot be negative")
	}
	if cfg.QueryCacheCapacity < 1 {
		return eris.New("query cache capacity must be at least 1")
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return eris.Wrapf(err, "invalid log level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return eris.Errorf("invalid log format %q: must be either 'json' or 'console'", cfg.Log.Format)
	}
	return nil
}

// NewLogger builds the logger described by the config, writing to out (stderr if nil).
func (cfg LogConfig) NewLogger(out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
