// Package config resolves cpgantt settings from defaults, a config file, CPGANTT_*
// environment variables and command flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"cpgantt/internal/dateparse"
	"cpgantt/internal/logging"
	"cpgantt/internal/shape"
	"cpgantt/internal/source"
	"cpgantt/internal/viewport"
)

// Defaults.
const (
	DefaultAddr   = "127.0.0.1:8080"
	DefaultWidth  = 1200
	DefaultHeight = 0
	EnvPrefix     = "CPGANTT"
	fileName      = ".cpgantt"
)

var ErrInvalidConfig = errors.New("config: invalid")

// RawInput holds the unvalidated settings as viper resolves them.
type RawInput struct {
	Config    string            `mapstructure:"config"`
	Source    string            `mapstructure:"source"`
	Driver    string            `mapstructure:"driver"`
	Query     string            `mapstructure:"query"`
	Table     string            `mapstructure:"table"`
	TZ        string            `mapstructure:"tz"`
	LogLevel  string            `mapstructure:"log-level"`
	LogFile   string            `mapstructure:"log-file"`
	LogFormat string            `mapstructure:"log-format"`
	Addr      string            `mapstructure:"addr"`
	Width     int               `mapstructure:"width"`
	Height    int               `mapstructure:"height"`
	Months    int               `mapstructure:"months"`
	Start     string            `mapstructure:"start"`
	Style     map[string]any    `mapstructure:"style"`
	Palette   []string          `mapstructure:"palette"`
	Fields    map[string]string `mapstructure:"fields"`
}

// Config is the validated configuration shared by every command.
type Config struct {
	Source    source.Spec
	Location  *time.Location
	LogLevel  log.Level
	LogFile   string
	LogFormat log.Formatter
	Addr      string
	Width     int
	Height    int
	Months    int
	// Start is the requested window start; zero means "fit the data".
	Start   time.Time
	Style   map[string]any
	Palette []string
	Fields  shape.FieldMap
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tz", "Local")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("width", DefaultWidth)
	v.SetDefault("height", DefaultHeight)
	v.SetDefault("months", viewport.DefaultMonths)
}

// Init points v at the config file and environment. An explicit path wins over the
// .cpgantt file lookup in the working directory and $HOME.
func Init(v *viper.Viper, path string) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// ReadFile loads the config file if one exists. A missing file is not an error.
func ReadFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Load unmarshals and validates the resolved settings.
func Load(v *viper.Viper) (Config, error) {
	var in RawInput
	if err := v.Unmarshal(&in); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return in.Validate()
}

// Validate turns raw settings into a Config.
func (in RawInput) Validate() (Config, error) {
	loc, err := loadLocation(in.TZ)
	if err != nil {
		return Config{}, err
	}
	if in.Width < 0 || in.Height < 0 {
		return Config{}, fmt.Errorf("%w: width and height must not be negative (got %dx%d)", ErrInvalidConfig, in.Width, in.Height)
	}
	if in.Months < 1 || in.Months > 12 {
		return Config{}, fmt.Errorf("%w: months must be between 1 and 12 (got %d)", ErrInvalidConfig, in.Months)
	}

	cfg := Config{
		Location:  loc,
		LogLevel:  logging.ParseLevel(in.LogLevel),
		LogFile:   strings.TrimSpace(in.LogFile),
		LogFormat: logging.ParseFormatter(in.LogFormat),
		Addr:      strings.TrimSpace(in.Addr),
		Width:     in.Width,
		Height:    in.Height,
		Months:    in.Months,
		Style:     in.Style,
		Palette:   in.Palette,
		Fields:    shape.DefaultFieldMap().WithOverrides(in.Fields),
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	cfg.Source = source.Spec{
		Path:   strings.TrimSpace(in.Source),
		Driver: strings.TrimSpace(in.Driver),
		Query:  in.Query,
		Table:  strings.TrimSpace(in.Table),
	}
	if cfg.Source.Driver != "" {
		if _, err := source.DriverName(cfg.Source.Driver); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		cfg.Source.DSN = cfg.Source.Path
	}

	if s := strings.TrimSpace(in.Start); s != "" {
		t, ok := dateparse.Parser{Location: loc}.Parse(s)
		if !ok {
			return Config{}, fmt.Errorf("%w: start %q is not a date", ErrInvalidConfig, in.Start)
		}
		cfg.Start = t
	}
	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q: %v", ErrInvalidConfig, name, err)
	}
	return loc, nil
}
