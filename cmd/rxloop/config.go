package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeycumines/go-rxloop"
	"github.com/joeycumines/logiface"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

const (
	defaultStrategy = "invoke"
	defaultLogLevel = "warning"
	defaultCount    = 10
	defaultPeriod   = 10 * time.Millisecond
	defaultPeriod1  = 10 * time.Millisecond
	defaultPeriod2  = 20 * time.Millisecond
)

// config is the resolved configuration of a command. Fields may be loaded
// from a YAML file, and are then overridden by any flags that were set.
type config struct {
	Strategy string        `yaml:"strategy"`
	LogLevel string        `yaml:"log_level"`
	Count    int           `yaml:"count"`
	Period   time.Duration `yaml:"period"`
	Period1  time.Duration `yaml:"period1"`
	Period2  time.Duration `yaml:"period2"`
}

func defaultConfig() config {
	return config{
		Strategy: defaultStrategy,
		LogLevel: defaultLogLevel,
		Count:    defaultCount,
		Period:   defaultPeriod,
		Period1:  defaultPeriod1,
		Period2:  defaultPeriod2,
	}
}

// decodeConfig overlays the YAML document read from r onto cfg. Unknown keys
// are rejected.
func decodeConfig(r io.Reader, cfg *config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func loadConfigFile(path string, cfg *config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := decodeConfig(f, cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func resolveConfig(c *cli.Context) (config, error) {
	cfg := defaultConfig()

	if path := c.String(flagConfig); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return config{}, err
		}
	}

	if isSet(c, flagStrategy, envStrategy) {
		cfg.Strategy = c.String(flagStrategy)
	}
	if isSet(c, flagLogLevel, envLogLevel) {
		cfg.LogLevel = c.String(flagLogLevel)
	}
	if c.IsSet(flagCount) {
		cfg.Count = c.Int(flagCount)
	}
	if c.IsSet(flagPeriod) {
		cfg.Period = c.Duration(flagPeriod)
	}
	if c.IsSet(flagPeriod1) {
		cfg.Period1 = c.Duration(flagPeriod1)
	}
	if c.IsSet(flagPeriod2) {
		cfg.Period2 = c.Duration(flagPeriod2)
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// isSet reports whether a flag was provided, either directly or through its
// environment variable.
func isSet(c *cli.Context, name, env string) bool {
	if c.IsSet(name) {
		return true
	}
	_, ok := os.LookupEnv(env)
	return ok
}

func (x config) validate() error {
	if _, err := rxloop.ParseStrategy(x.Strategy); err != nil {
		return err
	}
	if _, err := parseLevel(x.LogLevel); err != nil {
		return err
	}
	if x.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", x.Count)
	}
	for name, d := range map[string]time.Duration{
		flagPeriod:  x.Period,
		flagPeriod1: x.Period1,
		flagPeriod2: x.Period2,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

func (x config) strategy() rxloop.Strategy {
	s, _ := rxloop.ParseStrategy(x.Strategy)
	return s
}

func parseLevel(s string) (logiface.Level, error) {
	for _, level := range [...]logiface.Level{
		logiface.LevelDisabled,
		logiface.LevelEmergency,
		logiface.LevelAlert,
		logiface.LevelCritical,
		logiface.LevelError,
		logiface.LevelWarning,
		logiface.LevelNotice,
		logiface.LevelInformational,
		logiface.LevelDebug,
		logiface.LevelTrace,
	} {
		if level.String() == s {
			return level, nil
		}
	}
	return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", s)
}
