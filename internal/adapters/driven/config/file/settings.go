// Package file provides TOML-backed configuration for the corpora CLI.
// Settings live in ~/.corpora/config.toml; a handful of environment
// variables override the file for deployment and CI use.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// Environment variables that override file values.
const (
	EnvMongoURL     = "MONGODB_URL"
	EnvDatabaseName = "DATABASE_NAME"
	EnvOpenAIKey    = "OPENAI_API_KEY"
)

// Settings holds every knob the pipeline reads at startup.
type Settings struct {
	MongoURL     string `toml:"mongodb_url"`
	DatabaseName string `toml:"database_name"`
	OpenAIKey    string `toml:"openai_api_key"`

	// InsecureSkipTLSVerify disables certificate validation on the
	// store connection. For development clusters only.
	InsecureSkipTLSVerify bool `toml:"insecure_skip_tls_verify"`

	Collection string `toml:"collection"`
	Index      string `toml:"index"`

	EmbeddingModel string `toml:"embedding_model"`
	Dimensions     int    `toml:"dimensions"`

	BatchSize    int           `toml:"batch_size"`
	BatchDelay   time.Duration `toml:"-"`
	BatchDelayMS int64         `toml:"batch_delay_ms"`

	TopK int `toml:"top_k"`
}

// Defaults returns a Settings populated with the stock pipeline values.
func Defaults() Settings {
	return Settings{
		Collection:     "combined_vectors",
		Index:          "combined_index",
		EmbeddingModel: "text-embedding-3-large",
		Dimensions:     3072,
		BatchSize:      50,
		BatchDelay:     500 * time.Millisecond,
		TopK:           5,
	}
}

// Load reads settings from configDir/config.toml, falling back to
// defaults for anything the file omits, then applies environment
// overrides. If configDir is empty, ~/.corpora is used. A missing
// config file is not an error.
func Load(configDir string) (Settings, error) {
	s := Defaults()

	path, err := resolvePath(configDir)
	if err != nil {
		return s, err
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return s, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse config %s: %w", path, err)
		}
		if s.BatchDelayMS > 0 {
			s.BatchDelay = time.Duration(s.BatchDelayMS) * time.Millisecond
		}
	}

	s.applyEnv()
	return s, nil
}

// Save writes the settings to configDir/config.toml, creating the
// directory if needed. Secrets are written with restricted permissions.
func Save(configDir string, s Settings) error {
	path, err := resolvePath(configDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	s.BatchDelayMS = s.BatchDelay.Milliseconds()
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Validate reports whether the settings are complete enough to open a
// store connection and call the embedding API.
func (s Settings) Validate() error {
	if s.MongoURL == "" {
		return fmt.Errorf("%w: mongodb_url is required (set %s or config.toml)", domain.ErrInvalidConfig, EnvMongoURL)
	}
	if s.DatabaseName == "" {
		return fmt.Errorf("%w: database_name is required (set %s or config.toml)", domain.ErrInvalidConfig, EnvDatabaseName)
	}
	if s.OpenAIKey == "" {
		return fmt.Errorf("%w: openai_api_key is required (set %s or config.toml)", domain.ErrInvalidConfig, EnvOpenAIKey)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive", domain.ErrInvalidConfig)
	}
	if s.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func (s *Settings) applyEnv() {
	if v := os.Getenv(EnvMongoURL); v != "" {
		s.MongoURL = v
	}
	if v := os.Getenv(EnvDatabaseName); v != "" {
		s.DatabaseName = v
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		s.OpenAIKey = v
	}
}

func resolvePath(configDir string) (string, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".corpora")
	}
	return filepath.Join(configDir, "config.toml"), nil
}
