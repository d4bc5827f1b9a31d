// Package config loads takas settings from takas.yaml, an optional .env file
// and the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "takas.yaml"

// Store drivers.
const (
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

// Config is the top-level takas.yaml structure.
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Store     Store     `yaml:"store"`
	Translate Translate `yaml:"translate"`
	Redis     Redis     `yaml:"redis"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	// WriteTimeout also bounds how long the bulk translation endpoint can
	// take to answer. A run that outlives it still completes in the
	// background, but the client gets no summary.
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// CORSOrigins lists the web front-ends allowed to call the API.
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

type Database struct {
	// Path is the SQLite file holding operators, settings and, with the
	// sqlite driver, the listings themselves.
	Path string `yaml:"path"`
}

type Store struct {
	// Driver selects where listings live: "sqlite" or "firestore".
	Driver          string `yaml:"driver"`
	ProjectID       string `yaml:"project_id,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

type Translate struct {
	Endpoint     string `yaml:"endpoint"`
	ContactEmail string `yaml:"contact_email,omitempty"`
	SourceLang   string `yaml:"source_lang"`
	// Timeout applies to each outbound translation request.
	Timeout       time.Duration `yaml:"timeout"`
	BatchSize     int           `yaml:"batch_size"`
	BatchInterval time.Duration `yaml:"batch_interval"`
}

// Redis enables the translation cache when Addr is set.
type Redis struct {
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: Database{Path: "takas.sqlite3"},
		Store:    Store{Driver: DriverSQLite},
		Translate: Translate{
			Endpoint:      "https://api.mymemory.translated.net/get",
			SourceLang:    "tr",
			Timeout:       15 * time.Second,
			BatchSize:     5,
			BatchInterval: time.Second,
		},
		Redis: Redis{TTL: 30 * 24 * time.Hour},
		Log:   Log{Level: "info"},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// a file that exists but does not parse is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TAKAS_ADDR":                     &c.Server.Addr,
		"TAKAS_DB":                       &c.Database.Path,
		"TAKAS_STORE":                    &c.Store.Driver,
		"FIREBASE_PROJECT_ID":            &c.Store.ProjectID,
		"GOOGLE_APPLICATION_CREDENTIALS": &c.Store.CredentialsFile,
		"MYMEMORY_ENDPOINT":              &c.Translate.Endpoint,
		"MYMEMORY_EMAIL":                 &c.Translate.ContactEmail,
		"REDIS_ADDR":                     &c.Redis.Addr,
		"REDIS_PASSWORD":                 &c.Redis.Password,
		"TAKAS_LOG_LEVEL":                &c.Log.Level,
		"TAKAS_LOG_FILE":                 &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("TAKAS_CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, origin)
			}
		}
	}
	if v, ok := lookup("TAKAS_BATCH_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TAKAS_BATCH_SIZE: %w", err)
		}
		c.Translate.BatchSize = n
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverFirestore:
		if c.Store.ProjectID == "" {
			return errors.New("store.project_id is required for the firestore driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Translate.Endpoint == "" {
		return errors.New("translate.endpoint is required")
	}
	if c.Translate.BatchSize <= 0 {
		return fmt.Errorf("translate.batch_size must be positive, got %d", c.Translate.BatchSize)
	}
	if c.Translate.BatchInterval < 0 {
		return errors.New("translate.batch_interval must not be negative")
	}
	if c.Translate.Timeout <= 0 {
		return errors.New("translate.timeout must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
