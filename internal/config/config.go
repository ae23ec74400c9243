package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"docsum/internal/summarizer"
)

// CompletionConfig selects the chat model used for summaries and answers.
type CompletionConfig struct {
	Provider        string `yaml:"provider" toml:"provider" validate:"oneof=openai anthropic gemini extractive"`
	Model           string `yaml:"model" toml:"model"`
	CompareProvider string `yaml:"compare_provider,omitempty" toml:"compare_provider,omitempty" validate:"omitempty,oneof=openai anthropic gemini extractive"`
	CompareModel    string `yaml:"compare_model,omitempty" toml:"compare_model,omitempty"`
}

// EmbeddingConfig selects the embedding model used to build the index.
type EmbeddingConfig struct {
	Provider string `yaml:"provider" toml:"provider" validate:"oneof=openai gemini tfidf"`
	Model    string `yaml:"model" toml:"model"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	MaxChars int `yaml:"max_chars" toml:"max_chars" validate:"gt=0"`
	Overlap  int `yaml:"overlap" toml:"overlap" validate:"gte=0,ltfield=MaxChars"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k" toml:"top_k" validate:"gt=0"`
}

type SummaryConfig struct {
	MaxOutputTokens int      `yaml:"max_output_tokens" toml:"max_output_tokens" validate:"gt=0"`
	MaxInputChars   int      `yaml:"max_input_chars" toml:"max_input_chars" validate:"gt=0"`
	HeaderLabels    []string `yaml:"header_labels" toml:"header_labels"`
}

type AnswerConfig struct {
	MaxOutputTokens int `yaml:"max_output_tokens" toml:"max_output_tokens" validate:"gt=0"`
}

// ProviderConfig holds connection details for one hosted model provider.
type ProviderConfig struct {
	BaseURL           string  `yaml:"base_url,omitempty" toml:"base_url,omitempty" validate:"omitempty,url"`
	APIKeyEnv         string  `yaml:"api_key_env" toml:"api_key_env"`
	TimeoutSecs       int     `yaml:"timeout_secs" toml:"timeout_secs" validate:"gte=0"`
	MaxRetries        int     `yaml:"max_retries" toml:"max_retries" validate:"gte=0"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" toml:"requests_per_second,omitempty" validate:"gte=0"`
}

type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai" toml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic" toml:"anthropic"`
	Gemini    ProviderConfig `yaml:"gemini" toml:"gemini"`
}

type InputConfig struct {
	MaxFileMB int `yaml:"max_file_mb" toml:"max_file_mb" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=console json"`
	File   string `yaml:"file,omitempty" toml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Completion CompletionConfig `yaml:"completion" toml:"completion"`
	Embedding  EmbeddingConfig  `yaml:"embedding" toml:"embedding"`
	Chunker    ChunkerConfig    `yaml:"chunker" toml:"chunker"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" toml:"retrieval"`
	Summary    SummaryConfig    `yaml:"summary" toml:"summary"`
	Answer     AnswerConfig     `yaml:"answer" toml:"answer"`
	Input      InputConfig      `yaml:"input" toml:"input"`
	Providers  ProvidersConfig  `yaml:"providers" toml:"providers"`
	Log        LogConfig        `yaml:"log" toml:"log"`
}

// Provider returns the connection settings for a named provider. Local
// providers get an empty config.
func (c *AppConfig) Provider(name string) ProviderConfig {
	switch name {
	case "openai":
		return c.Providers.OpenAI
	case "anthropic":
		return c.Providers.Anthropic
	case "gemini":
		return c.Providers.Gemini
	}
	return ProviderConfig{}
}

// Validate checks field constraints after defaults are applied.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a config from path, YAML or TOML by extension. If the file does
// not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./docsum.yaml and ./docsum.toml first, then
// ~/.config/docsum/config.yaml. If none exists, it writes defaults to the
// user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	for _, p := range []string{"docsum.yaml", "docsum.toml"} {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
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
	data, err := Marshal(path, cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes cfg in the format implied by path.
func Marshal(path string, cfg *AppConfig) ([]byte, error) {
	if isTOML(path) {
		return toml.Marshal(cfg)
	}
	return yaml.Marshal(cfg)
}

func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsum", "config.yaml"), nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Completion.Provider == "" {
		cfg.Completion.Provider = "openai"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = defaultCompletionModel(cfg.Completion.Provider)
	}
	if cfg.Completion.CompareProvider != "" && cfg.Completion.CompareModel == "" {
		cfg.Completion.CompareModel = defaultCompletionModel(cfg.Completion.CompareProvider)
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaultEmbeddingModel(cfg.Embedding.Provider)
	}
	if cfg.Chunker.MaxChars == 0 {
		cfg.Chunker.MaxChars = 1500
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 200
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Summary.MaxOutputTokens == 0 {
		cfg.Summary.MaxOutputTokens = summarizer.DefaultMaxOutputTokens
	}
	if cfg.Summary.MaxInputChars == 0 {
		cfg.Summary.MaxInputChars = summarizer.DefaultMaxInputChars
	}
	if len(cfg.Summary.HeaderLabels) == 0 {
		cfg.Summary.HeaderLabels = append([]string(nil), summarizer.DefaultHeaderLabels...)
	}
	if cfg.Answer.MaxOutputTokens == 0 {
		cfg.Answer.MaxOutputTokens = 300
	}
	if cfg.Input.MaxFileMB == 0 {
		cfg.Input.MaxFileMB = 50
	}
	providerDefaults(&cfg.Providers.OpenAI, "OPENAI_API_KEY", 60)
	providerDefaults(&cfg.Providers.Anthropic, "ANTHROPIC_API_KEY", 120)
	providerDefaults(&cfg.Providers.Gemini, "GEMINI_API_KEY", 60)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func providerDefaults(p *ProviderConfig, keyEnv string, timeoutSecs int) {
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = keyEnv
	}
	if p.TimeoutSecs == 0 {
		p.TimeoutSecs = timeoutSecs
	}
}

func defaultCompletionModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "gemini":
		return "gemini-2.0-flash"
	case "extractive":
		return "extractive"
	}
	return "gpt-4o-mini"
}

func defaultEmbeddingModel(provider string) string {
	switch provider {
	case "gemini":
		return "text-embedding-004"
	case "tfidf":
		return "tfidf"
	}
	return "text-embedding-3-small"
}
