package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, resolved from environment variables.
type Config struct {
	Log    LogConfig    `envconfig:"LOG"`
	Agent  AgentConfig  `envconfig:"AGENT"`
	Search SearchConfig `envconfig:"SEARCH"`
	Redis  RedisConfig  `envconfig:"REDIS"`
	SQLite SQLiteConfig `envconfig:"SQLITE"`
	OpenAI OpenAIConfig `envconfig:"OPENAI"`
}

type LogConfig struct {
	Level    string `envconfig:"LEVEL" default:"info"`
	Format   string `envconfig:"FORMAT" default:"console"`
	Output   string `envconfig:"OUTPUT" default:"stdout"`
	FilePath string `envconfig:"FILE_PATH" default:"logs/minerva.log"`
}

type AgentConfig struct {
	HistoryLimit int           `envconfig:"HISTORY_LIMIT" default:"12"`
	ResetKeyword string        `envconfig:"RESET_KEYWORD" default:"start a new conversation"`
	LLMTimeout   time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	ChatDigest   bool          `envconfig:"CHAT_DIGEST" default:"false"`
	PromptsFile  string        `envconfig:"PROMPTS_FILE" default:"config.yaml"`
}

type SearchConfig struct {
	RetryCount     int           `envconfig:"RETRY_COUNT" default:"5"`
	ResultCount    int           `envconfig:"RESULT_COUNT" default:"4"`
	MinimumResults int           `envconfig:"MINIMUM_RESULTS" default:"1"`
	RetryDelay     time.Duration `envconfig:"RETRY_DELAY" default:"500ms"`
	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
}

type RedisConfig struct {
	URL string        `envconfig:"URL"`
	TTL time.Duration `envconfig:"TTL" default:"72h"`
}

type SQLiteConfig struct {
	Path string `envconfig:"PATH" default:"data/user_data.db"`
}

type OpenAIConfig struct {
	APIKey      string  `envconfig:"API_KEY"`
	BaseURL     string  `envconfig:"BASE_URL" default:"https://api.openai.com/v1"`
	Model       string  `envconfig:"MODEL" default:"gpt-4o"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"2048"`
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.7"`
}

// Load resolves the configuration from the environment.
func Load() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	return &config, nil
}
