package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/go-rxloop"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestDecodeConfig(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, decodeConfig(strings.NewReader(`
strategy: self-check
count: 4
period2: 35ms
`), &cfg))

	assert.Equal(t, config{
		Strategy: `self-check`,
		LogLevel: defaultLogLevel,
		Count:    4,
		Period:   defaultPeriod,
		Period1:  defaultPeriod1,
		Period2:  35 * time.Millisecond,
	}, cfg)
	assert.Equal(t, rxloop.StrategySelfCheck, cfg.strategy())
}

func TestDecodeConfig_empty(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, decodeConfig(strings.NewReader(``), &cfg))
	assert.Equal(t, defaultConfig(), cfg)
}

func TestDecodeConfig_unknownField(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, decodeConfig(strings.NewReader("bogus: 1\n"), &cfg))
}

func TestConfig_validate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(*config)
		err    string
	}{
		{`ok`, func(*config) {}, ``},
		{`strategy`, func(c *config) { c.Strategy = `bogus` }, `unknown strategy`},
		{`log level`, func(c *config) { c.LogLevel = `loud` }, `unknown log level`},
		{`count`, func(c *config) { c.Count = 0 }, `count must be positive`},
		{`period`, func(c *config) { c.Period = -time.Second }, `period must be positive`},
		{`period2`, func(c *config) { c.Period2 = 0 }, `period2 must be positive`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.modify(&cfg)
			err := cfg.validate()
			if tc.err == `` {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel(`debug`)
	require.NoError(t, err)
	assert.Equal(t, logiface.LevelDebug, level)

	level, err = parseLevel(`disabled`)
	require.NoError(t, err)
	assert.Equal(t, logiface.LevelDisabled, level)

	_, err = parseLevel(`DEBUG`)
	assert.Error(t, err)
}

// resolveWith runs a command that captures the resolved config.
func resolveWith(t *testing.T, args ...string) (config, error) {
	t.Helper()
	var (
		cfg config
		err error
	)
	app := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	app.Commands = []cli.Command{{
		Name:  `probe`,
		Flags: append(commonFlags(), cli.DurationFlag{Name: flagPeriod, Value: defaultPeriod}),
		Action: func(c *cli.Context) error {
			cfg, err = resolveConfig(c)
			return nil
		},
	}}
	require.NoError(t, app.Run(append([]string{`rxloop`, `probe`}, args...)))
	return cfg, err
}

func TestResolveConfig_flagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), `rxloop.yaml`)
	require.NoError(t, os.WriteFile(path, []byte("strategy: self-check\ncount: 3\nperiod: 7ms\n"), 0o600))

	cfg, err := resolveWith(t, `--config`, path)
	require.NoError(t, err)
	assert.Equal(t, `self-check`, cfg.Strategy)
	assert.Equal(t, 3, cfg.Count)
	assert.Equal(t, 7*time.Millisecond, cfg.Period)

	cfg, err = resolveWith(t, `--config`, path, `--count`, `5`, `--strategy`, `invoke`)
	require.NoError(t, err)
	assert.Equal(t, `invoke`, cfg.Strategy)
	assert.Equal(t, 5, cfg.Count)
	assert.Equal(t, 7*time.Millisecond, cfg.Period)
}

func TestResolveConfig_defaults(t *testing.T) {
	cfg, err := resolveWith(t)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestResolveConfig_envVar(t *testing.T) {
	t.Setenv(`RXLOOP_STRATEGY`, `self-check`)
	cfg, err := resolveWith(t)
	require.NoError(t, err)
	assert.Equal(t, `self-check`, cfg.Strategy)
}

func TestResolveConfig_errors(t *testing.T) {
	_, err := resolveWith(t, `--config`, filepath.Join(t.TempDir(), `missing.yaml`))
	assert.ErrorContains(t, err, `open config`)

	_, err = resolveWith(t, `--log-level`, `loud`)
	assert.ErrorContains(t, err, `unknown log level`)
}
