// FILE: internal/config/config.go

// Package config loads server settings from built-in defaults, an optional
// YAML file and REPERTOIRE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("config: invalid configuration")

// EnvPrefix prefixes every environment override
const EnvPrefix = "REPERTOIRE_"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Backup   BackupConfig   `yaml:"backup"`
	Auth     AuthConfig     `yaml:"auth"`
	Training TrainingConfig `yaml:"training"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host    string `yaml:"host" validate:"required"`
	Port    int    `yaml:"port" validate:"min=1,max=65535"`
	Dev     bool   `yaml:"dev"`
	PID     string `yaml:"pid"`
	PIDLock bool   `yaml:"pidLock"`
}

// StorageConfig disables persistence when Path is empty
type StorageConfig struct {
	Path string `yaml:"path"`
}

// BackupConfig disables backups when Dir is empty. Yearly 0 keeps every year.
type BackupConfig struct {
	Dir      string        `yaml:"dir"`
	Interval time.Duration `yaml:"interval" validate:"min=0"`
	Daily    int           `yaml:"daily" validate:"min=0"`
	Monthly  int           `yaml:"monthly" validate:"min=0"`
	Yearly   int           `yaml:"yearly" validate:"min=0"`
}

// AuthConfig disables bearer authentication when Secret is empty
type AuthConfig struct {
	Secret   string        `yaml:"secret" validate:"omitempty,min=32"`
	TokenTTL time.Duration `yaml:"tokenTTL" validate:"min=0"`
}

type TrainingConfig struct {
	DifficultyLimit float64 `yaml:"difficultyLimit" validate:"gt=0"`
	Timezone        string  `yaml:"timezone"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Backup: BackupConfig{
			Interval: 24 * time.Hour,
			Daily:    7,
			Monthly:  12,
			Yearly:   0,
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Training: TrainingConfig{
			DifficultyLimit: 2.0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults (skipped when path is empty), applies
// environment overrides and validates the result
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(parts, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Server.PIDLock && c.Server.PID == "" {
		return fmt.Errorf("%w: server.pidLock requires server.pid", ErrInvalid)
	}
	if _, err := c.Training.Location(); err != nil {
		return fmt.Errorf("%w: training.timezone: %v", ErrInvalid, err)
	}
	return nil
}

// Location resolves the training timezone; empty means the local zone
func (t TrainingConfig) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(t.Timezone)
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"SERVER_HOST":       &c.Server.Host,
		"SERVER_PID":        &c.Server.PID,
		"STORAGE_PATH":      &c.Storage.Path,
		"BACKUP_DIR":        &c.Backup.Dir,
		"AUTH_SECRET":       &c.Auth.Secret,
		"TRAINING_TIMEZONE": &c.Training.Timezone,
		"LOG_LEVEL":         &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SERVER_PORT":    &c.Server.Port,
		"BACKUP_DAILY":   &c.Backup.Daily,
		"BACKUP_MONTHLY": &c.Backup.Monthly,
		"BACKUP_YEARLY":  &c.Backup.Yearly,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, EnvPrefix, key, v)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"SERVER_DEV":      &c.Server.Dev,
		"SERVER_PID_LOCK": &c.Server.PIDLock,
		"LOG_DEVELOPMENT": &c.Log.Development,
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalid, EnvPrefix, key, v)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"BACKUP_INTERVAL": &c.Backup.Interval,
		"AUTH_TOKEN_TTL":  &c.Auth.TokenTTL,
	}
	for key, dst := range durations {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a duration", ErrInvalid, EnvPrefix, key, v)
			}
			*dst = d
		}
	}

	if v, ok := lookup(EnvPrefix + "TRAINING_DIFFICULTY_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sTRAINING_DIFFICULTY_LIMIT=%q is not a number", ErrInvalid, EnvPrefix, v)
		}
		c.Training.DifficultyLimit = f
	}
	return nil
}
