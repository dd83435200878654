package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8000"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"./data/blog.db"`

	DatasetStore  string `env:"DATASET_STORE" envDefault:"./data/comics.db"`
	DatasetSource string `env:"DATASET_SOURCE" envDefault:"./data/comics.csv"`
	DatasetTable  string `env:"DATASET_TABLE" envDefault:"comics"`

	OpenAIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	CompletionModel string        `env:"COMPLETION_MODEL" envDefault:"gpt-4o-mini"`
	AgentModel      string        `env:"AGENT_MODEL" envDefault:"gpt-4o-mini"`
	AgentTopK       int           `env:"AGENT_TOP_K" envDefault:"10"`
	ChatTimeout     time.Duration `env:"CHAT_TIMEOUT" envDefault:"60s"`
	ChatMaxRetries  int           `env:"CHAT_MAX_RETRIES" envDefault:"2"`
	DefaultChatMode string        `env:"DEFAULT_CHAT_MODE" envDefault:"grounded"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	LogFile   string `env:"LOG_FILE"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// ConfigError reports a setting that prevents the server from starting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// LoadEnvFile loads variables from path into the environment. Variables
// already set in the environment take precedence.
func LoadEnvFile(path string) error {
	if path == "" {
		log.Printf("no env file specified, using os.Environ only")
		return nil
	}

	log.Printf("loading env from file %s", path)
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file '%s': %w", path, err)
	}
	return nil
}

// Parse reads the config from the environment without validating it, for
// tools that only need part of it.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return &cfg, nil
}

func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAIKey) == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Reason: "must be set"}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{Field: "PORT", Reason: fmt.Sprintf("%d is not a valid port", c.Port)}
	}
	if c.ChatTimeout <= 0 {
		return &ConfigError{Field: "CHAT_TIMEOUT", Reason: "must be positive"}
	}
	if c.AgentTopK <= 0 {
		return &ConfigError{Field: "AGENT_TOP_K", Reason: "must be positive"}
	}
	if c.ChatMaxRetries < 0 {
		return &ConfigError{Field: "CHAT_MAX_RETRIES", Reason: "cannot be negative"}
	}
	switch strings.ToLower(c.DefaultChatMode) {
	case "direct", "grounded":
	default:
		return &ConfigError{Field: "DEFAULT_CHAT_MODE", Reason: fmt.Sprintf("'%s' is not one of direct, grounded", c.DefaultChatMode)}
	}
	if c.S3EndpointURL != "" && (c.S3AccessKeyID == "" || c.S3SecretAccessKey == "") {
		log.Println("Warning: S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing.")
	}
	return nil
}
