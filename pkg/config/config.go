// Package config holds the settings of the surrealdir command: which
// store backs the directory, how to reach it and how to log.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory  = "mem"
	BackendSurreal = "surreal"
)

// Environment variables read by ApplyEnv.
const (
	EnvURL       = "SURREALDB_URL"
	EnvBackend   = "SURREALDIR_BACKEND"
	EnvNamespace = "SURREALDIR_NAMESPACE"
	EnvDatabase  = "SURREALDIR_DATABASE"
	EnvUser      = "SURREALDIR_USER"
	EnvPassword  = "SURREALDIR_PASS"
	EnvFixture   = "SURREALDIR_FIXTURE"
	EnvSnapshot  = "SURREALDIR_SNAPSHOT"
	EnvTimeout   = "SURREALDIR_TIMEOUT"
	EnvLogLevel  = "SURREALDIR_LOG_LEVEL"
	EnvLogPath   = "SURREALDIR_LOG_PATH"
	EnvBatch     = "SURREALDIR_BATCH"
)

type Config struct {
	Backend   string    `yaml:"backend" validate:"oneof=mem surreal"`
	SurrealDB SurrealDB `yaml:"surrealdb"`
	Memory    Memory    `yaml:"memory"`

	// Timeout bounds every store round trip. Zero disables it.
	Timeout          time.Duration `yaml:"timeout" validate:"gte=0s"`
	BatchConcurrency int           `yaml:"batch_concurrency" validate:"gte=1,lte=256"`

	Log Log `yaml:"log"`
}

type SurrealDB struct {
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	Namespace string `yaml:"namespace"`
	Database  string `yaml:"database"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// Memory configures the in-memory backend. Fixture seeds an empty store;
// Snapshot is loaded at start when it exists and written back on exit.
type Memory struct {
	Fixture  string `yaml:"fixture"`
	Snapshot string `yaml:"snapshot"`
}

type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	// Path switches logging from stderr to a JSON lines file.
	Path string `yaml:"path"`
}

func Default() Config {
	return Config{
		Backend: BackendMemory,
		SurrealDB: SurrealDB{
			Endpoint:  "ws://localhost:8000",
			Namespace: "surrealdir",
			Database:  "directory",
		},
		Timeout:          10 * time.Second,
		BatchConcurrency: 8,
		Log:              Log{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		EnvURL:       &c.SurrealDB.Endpoint,
		EnvBackend:   &c.Backend,
		EnvNamespace: &c.SurrealDB.Namespace,
		EnvDatabase:  &c.SurrealDB.Database,
		EnvUser:      &c.SurrealDB.Username,
		EnvPassword:  &c.SurrealDB.Password,
		EnvFixture:   &c.Memory.Fixture,
		EnvSnapshot:  &c.Memory.Snapshot,
		EnvLogLevel:  &c.Log.Level,
		EnvLogPath:   &c.Log.Path,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := os.LookupEnv(EnvBatch); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBatch, err)
		}
		c.BatchConcurrency = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and that the SurrealDB backend has an
// endpoint it can dial.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Backend != BackendSurreal {
		return nil
	}
	u, err := url.Parse(c.SurrealDB.Endpoint)
	if err != nil || c.SurrealDB.Endpoint == "" {
		return fmt.Errorf("invalid config: surrealdb endpoint %q", c.SurrealDB.Endpoint)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("invalid config: unsupported endpoint scheme %q", u.Scheme)
	}
	if c.SurrealDB.Namespace == "" || c.SurrealDB.Database == "" {
		return errors.New("invalid config: surrealdb namespace and database are required")
	}
	return nil
}
