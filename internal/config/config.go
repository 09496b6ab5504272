package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const envPrefix = "WEBMATH_"

type Config struct {
	Mode      Mode   `koanf:"mode" yaml:"mode"`
	HTTPAddr  string `koanf:"http_addr" yaml:"http_addr"`
	PublicURL string `koanf:"public_url" yaml:"public_url"`

	DBDriver string `koanf:"db_driver" yaml:"db_driver"`
	DBDSN    string `koanf:"db_dsn" yaml:"db_dsn"`

	BlobBasePath string `koanf:"blob_base_path" yaml:"blob_base_path"`
	IndexDir     string `koanf:"index_dir" yaml:"index_dir"`

	SecretKey           string        `koanf:"secret_key" yaml:"secret_key"`
	SessionName         string        `koanf:"session_name" yaml:"session_name"`
	RequireConfirmation bool          `koanf:"require_confirmation" yaml:"require_confirmation"`
	ConfirmTokenTTL     time.Duration `koanf:"confirm_token_ttl" yaml:"confirm_token_ttl"`

	CORSOriginsOnline  []string `koanf:"cors_origins_online" yaml:"cors_origins_online"`
	CORSOriginsOffline []string `koanf:"cors_origins_offline" yaml:"cors_origins_offline"`

	// HardCasesSource is a CSV file path or an http(s) URL.
	HardCasesSource string `koanf:"hard_cases_source" yaml:"hard_cases_source"`

	Log        LogConfig        `koanf:"log" yaml:"log"`
	Mail       MailConfig       `koanf:"mail" yaml:"mail"`
	LLM        LLMConfig        `koanf:"llm" yaml:"llm"`
	Embeddings EmbeddingsConfig `koanf:"embeddings" yaml:"embeddings"`
	Teacher    CorpusConfig     `koanf:"teacher" yaml:"teacher"`
	Methodist  CorpusConfig     `koanf:"methodist" yaml:"methodist"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	JSON  bool   `koanf:"json" yaml:"json"`
}

type MailConfig struct {
	Provider    string `koanf:"provider" yaml:"provider"` // console|sendgrid
	FromName    string `koanf:"from_name" yaml:"from_name"`
	FromAddress string `koanf:"from_address" yaml:"from_address"`
	SendgridKey string `koanf:"sendgrid_key" yaml:"sendgrid_key"`
}

type LLMConfig struct {
	Provider    string  `koanf:"provider" yaml:"provider"` // openai|deepseek|static
	BaseURL     string  `koanf:"base_url" yaml:"base_url"`
	APIKey      string  `koanf:"api_key" yaml:"-"`
	Model       string  `koanf:"model" yaml:"model"`
	Temperature float64 `koanf:"temperature" yaml:"temperature"`
	MaxTokens   int     `koanf:"max_tokens" yaml:"max_tokens"`

	// RequestsPerMinute throttles calls to the hosted model; 0 disables.
	RequestsPerMinute int `koanf:"requests_per_minute" yaml:"requests_per_minute"`
}

type EmbeddingsConfig struct {
	Provider   string `koanf:"provider" yaml:"provider"` // openai|ollama|local
	Model      string `koanf:"model" yaml:"model"`
	BaseURL    string `koanf:"base_url" yaml:"base_url"`
	APIKey     string `koanf:"api_key" yaml:"-"`
	Dimensions int    `koanf:"dimensions" yaml:"dimensions"`
}

// CorpusConfig describes one retrieval corpus. Source is a file path, a
// directory or a Google Docs URL.
type CorpusConfig struct {
	Source       string `koanf:"source" yaml:"source"`
	ChunkSize    int    `koanf:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int    `koanf:"chunk_overlap" yaml:"chunk_overlap"`
	TopK         int    `koanf:"top_k" yaml:"top_k"`
}

func Default() Config {
	return Config{
		Mode:                ModeOffline,
		HTTPAddr:            ":5005",
		DBDriver:            "sqlite",
		BlobBasePath:        "./data",
		IndexDir:            "./data/index",
		SecretKey:           "dev-secret-change-me",
		SessionName:         "webmath-session",
		RequireConfirmation: false,
		ConfirmTokenTTL:     72 * time.Hour,
		CORSOriginsOnline:   []string{"https://webmath.example.com"},
		CORSOriginsOffline:  []string{"http://localhost:3000", "http://localhost:5005"},
		Log:                 LogConfig{Level: "info"},
		Mail: MailConfig{
			Provider:    "console",
			FromName:    "Webmath",
			FromAddress: "no-reply@webmath.local",
		},
		LLM: LLMConfig{
			Provider:    "deepseek",
			BaseURL:     "https://api.deepseek.com/v1",
			Model:       "deepseek-chat",
			Temperature: 0.1,
			MaxTokens:   200,

			RequestsPerMinute: 60,
		},
		// Dimensions stays 0 so every provider uses its own native size.
		Embeddings: EmbeddingsConfig{Provider: "local"},
		Teacher: CorpusConfig{
			Source:       "./data/rus/ege.txt",
			ChunkSize:    250,
			ChunkOverlap: 50,
			TopK:         1,
		},
		Methodist: CorpusConfig{
			Source:       "./data/methodist",
			ChunkSize:    300,
			ChunkOverlap: 50,
			TopK:         2,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// WEBMATH_* environment variables, in that order. A nested key is addressed
// with a double underscore: WEBMATH_LLM__MODEL -> llm.model.
func Load(path string, dotenvPath string) (Config, error) {
	cfg := Default()

	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading %s: %w", dotenvPath, err)
		}
	}

	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("loading env overrides: %w", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyProviderEnv(&cfg)
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// applyProviderEnv picks up the conventional unprefixed keys that the hosted
// providers document.
func applyProviderEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "deepseek":
			cfg.LLM.APIKey = os.Getenv("DEEPSEEK_API_KEY")
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if m := os.Getenv("DEEPSEEK_MODEL_NAME"); m != "" && cfg.LLM.Provider == "deepseek" {
		cfg.LLM.Model = m
	}
	if cfg.Embeddings.APIKey == "" && cfg.Embeddings.Provider == "openai" {
		cfg.Embeddings.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Mail.SendgridKey == "" {
		cfg.Mail.SendgridKey = os.Getenv("SENDGRID_API_KEY")
	}
}

var (
	validDrivers    = map[string]bool{"sqlite": true, "postgres": true}
	validLLM        = map[string]bool{"deepseek": true, "openai": true, "static": true}
	validEmbeddings = map[string]bool{"openai": true, "ollama": true, "local": true}
	validMail       = map[string]bool{"console": true, "sendgrid": true}
)

func (c Config) Validate() error {
	if c.Mode != ModeOffline && c.Mode != ModeOnline {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if !validDrivers[c.DBDriver] {
		return fmt.Errorf("invalid db_driver %q: must be sqlite or postgres", c.DBDriver)
	}
	if !validLLM[c.LLM.Provider] {
		return fmt.Errorf("invalid llm.provider %q", c.LLM.Provider)
	}
	if !validEmbeddings[c.Embeddings.Provider] {
		return fmt.Errorf("invalid embeddings.provider %q", c.Embeddings.Provider)
	}
	if !validMail[c.Mail.Provider] {
		return fmt.Errorf("invalid mail.provider %q", c.Mail.Provider)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key is required")
	}
	if c.Mode == ModeOnline && c.SecretKey == Default().SecretKey {
		return fmt.Errorf("secret_key must be changed in online mode")
	}
	for name, cc := range map[string]CorpusConfig{"teacher": c.Teacher, "methodist": c.Methodist} {
		if cc.ChunkSize <= 0 {
			return fmt.Errorf("%s.chunk_size must be positive", name)
		}
		if cc.ChunkOverlap < 0 || cc.ChunkOverlap >= cc.ChunkSize {
			return fmt.Errorf("%s.chunk_overlap must be in [0, chunk_size)", name)
		}
		if cc.TopK < 1 {
			return fmt.Errorf("%s.top_k must be at least 1", name)
		}
	}
	return nil
}

// CORSOrigins returns the allowed origins for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}
