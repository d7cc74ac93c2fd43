package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CorpusConfig locates the question/answer CSV and controls index building.
type CorpusConfig struct {
	Path           string `yaml:"path"`
	QuestionColumn string `yaml:"question_column"`
	AnswerColumn   string `yaml:"answer_column"`
	SampleSize     int    `yaml:"sample_size"`
	BatchSize      int    `yaml:"batch_size"`
	Workers        int    `yaml:"workers"`
}

// HashingEncoderConfig holds configuration for the local feature-hashing encoder.
type HashingEncoderConfig struct {
	Dimension int `yaml:"dimension"`
	NGramMin  int `yaml:"ngram_min"`
	NGramMax  int `yaml:"ngram_max"`
}

// OpenAIEncoderConfig holds configuration for the OpenAI-compatible encoder.
type OpenAIEncoderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EncoderConfig selects and configures the text encoder implementation.
type EncoderConfig struct {
	Type          string                `yaml:"type"`
	MaxInputRunes int                   `yaml:"max_input_runes"`
	Hashing       *HashingEncoderConfig `yaml:"hashing,omitempty"`
	OpenAI        *OpenAIEncoderConfig  `yaml:"openai,omitempty"`
}

// SQLiteConfig locates the snapshot database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// IndexStoreConfig selects where built indexes are cached.
type IndexStoreConfig struct {
	Type   string        `yaml:"type"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
}

// LogConfig controls the log file and debug output.
type LogConfig struct {
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Encoder    EncoderConfig    `yaml:"encoder"`
	IndexStore IndexStoreConfig `yaml:"index_store"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings that cannot produce a working index.
func (c *AppConfig) Validate() error {
	switch {
	case c.Corpus.SampleSize < 0:
		return fmt.Errorf("corpus.sample_size must not be negative, got %d", c.Corpus.SampleSize)
	case c.Corpus.BatchSize < 0:
		return fmt.Errorf("corpus.batch_size must not be negative, got %d", c.Corpus.BatchSize)
	case c.Corpus.Workers < 0:
		return fmt.Errorf("corpus.workers must not be negative, got %d", c.Corpus.Workers)
	case c.Encoder.MaxInputRunes < 0:
		return fmt.Errorf("encoder.max_input_runes must not be negative, got %d", c.Encoder.MaxInputRunes)
	}
	switch c.Encoder.Type {
	case "hashing", "tfidf":
	case "openai":
		if c.Encoder.OpenAI == nil || c.Encoder.OpenAI.Model == "" {
			return errors.New("encoder.openai.model is required")
		}
	default:
		return fmt.Errorf("unknown encoder type %q", c.Encoder.Type)
	}
	switch c.IndexStore.Type {
	case "none":
	case "sqlite":
		if c.IndexStore.SQLite == nil || c.IndexStore.SQLite.Path == "" {
			return errors.New("index_store.sqlite.path is required")
		}
	default:
		return fmt.Errorf("unknown index store type %q", c.IndexStore.Type)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragqa"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus:     CorpusConfig{Path: "data/tamil_agri_qa.csv"},
		Encoder:    EncoderConfig{Type: "hashing"},
		IndexStore: IndexStoreConfig{Type: "sqlite"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Corpus.QuestionColumn == "" {
		cfg.Corpus.QuestionColumn = "question"
	}
	if cfg.Corpus.AnswerColumn == "" {
		cfg.Corpus.AnswerColumn = "answer"
	}
	if cfg.Corpus.SampleSize == 0 {
		cfg.Corpus.SampleSize = 20000
	}
	if cfg.Corpus.BatchSize == 0 {
		cfg.Corpus.BatchSize = 256
	}
	if cfg.Corpus.Workers == 0 {
		cfg.Corpus.Workers = 4
	}
	if cfg.Encoder.Type == "" {
		cfg.Encoder.Type = "hashing"
	}
	if cfg.Encoder.MaxInputRunes == 0 {
		cfg.Encoder.MaxInputRunes = 2048
	}
	if cfg.Encoder.Type == "hashing" {
		if cfg.Encoder.Hashing == nil {
			cfg.Encoder.Hashing = &HashingEncoderConfig{}
		}
		if cfg.Encoder.Hashing.Dimension == 0 {
			cfg.Encoder.Hashing.Dimension = 512
		}
		if cfg.Encoder.Hashing.NGramMin == 0 {
			cfg.Encoder.Hashing.NGramMin = 2
		}
		if cfg.Encoder.Hashing.NGramMax == 0 {
			cfg.Encoder.Hashing.NGramMax = 4
		}
	}
	if cfg.Encoder.Type == "openai" {
		if cfg.Encoder.OpenAI == nil {
			cfg.Encoder.OpenAI = &OpenAIEncoderConfig{}
		}
		if cfg.Encoder.OpenAI.BaseURL == "" {
			cfg.Encoder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Encoder.OpenAI.APIKeyEnv == "" {
			cfg.Encoder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Encoder.OpenAI.Model == "" {
			cfg.Encoder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Encoder.OpenAI.TimeoutSecs == 0 {
			cfg.Encoder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Encoder.OpenAI.MaxRetries == 0 {
			cfg.Encoder.OpenAI.MaxRetries = 3
		}
	}
	if cfg.IndexStore.Type == "" {
		cfg.IndexStore.Type = "sqlite"
	}
	if cfg.IndexStore.Type == "sqlite" {
		if cfg.IndexStore.SQLite == nil {
			cfg.IndexStore.SQLite = &SQLiteConfig{}
		}
		if cfg.IndexStore.SQLite.Path == "" {
			if dir, err := userConfigDir(); err == nil {
				cfg.IndexStore.SQLite.Path = filepath.Join(dir, "index.db")
			} else {
				cfg.IndexStore.SQLite.Path = "ragqa.db"
			}
		}
	}
}
