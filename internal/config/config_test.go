package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, path string) *viper.Viper {
	t.Helper()
	v := viper.New()
	Init(v, path)
	require.NoError(t, ReadFile(v))
	return v
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.Equal(t, log.TextFormatter, cfg.LogFormat)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, 3, cfg.Months)
	assert.True(t, cfg.Start.IsZero())
	assert.True(t, cfg.Source.IsSample())
	assert.Equal(t, []string{"team"}, cfg.Fields.Team)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpgantt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source: data/checkpoints.csv
tz: UTC
log-level: debug
log-format: json
months: 6
start: "2025-03-01"
style:
  rowHeight: 32
palette: ["#111111", "#222222"]
fields:
  team: squad
  cp5: shipDate
`), 0o644))

	cfg, err := Load(newViper(t, path))
	require.NoError(t, err)

	assert.Equal(t, "data/checkpoints.csv", cfg.Source.Path)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
	assert.Equal(t, log.JSONFormatter, cfg.LogFormat)
	assert.Equal(t, 6, cfg.Months)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), cfg.Start)
	assert.EqualValues(t, 32, cfg.Style["rowheight"])
	assert.Equal(t, []string{"#111111", "#222222"}, cfg.Palette)
	assert.Equal(t, []string{"squad", "team"}, cfg.Fields.Team)
	assert.Equal(t, "shipDate", cfg.Fields.CP5[0])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpgantt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("months: 6\n"), 0o644))
	t.Setenv("CPGANTT_MONTHS", "12")
	t.Setenv("CPGANTT_LOG_LEVEL", "warn")

	cfg, err := Load(newViper(t, path))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Months)
	assert.Equal(t, log.WarnLevel, cfg.LogLevel)
}

func TestLoad_MissingConfigFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	v := viper.New()
	Init(v, "")
	assert.NoError(t, ReadFile(v))
}

func TestValidate_Rejects(t *testing.T) {
	base := RawInput{Months: 3, TZ: "UTC"}

	cases := map[string]RawInput{
		"bad tz":          func() RawInput { in := base; in.TZ = "Mars/Olympus"; return in }(),
		"negative width":  func() RawInput { in := base; in.Width = -1; return in }(),
		"negative height": func() RawInput { in := base; in.Height = -5; return in }(),
		"months zero":     func() RawInput { in := base; in.Months = 0; return in }(),
		"months 13":       func() RawInput { in := base; in.Months = 13; return in }(),
		"bad start":       func() RawInput { in := base; in.Start = "someday"; return in }(),
		"bad driver":      func() RawInput { in := base; in.Driver = "oracle"; return in }(),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := in.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestValidate_DriverUsesSourceAsDSN(t *testing.T) {
	cfg, err := RawInput{Months: 1, Source: "postgres://u@h/db", Driver: "postgres", Table: "cp"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u@h/db", cfg.Source.DSN)
	assert.Equal(t, "cp", cfg.Source.Table)
	assert.False(t, cfg.Source.IsSample())
}
