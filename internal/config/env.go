package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type EnvVars struct {
	AppEnv    string `envconfig:"APP_ENV" default:"dev"`
	Port      string `envconfig:"PORT" default:"9090"`
	ConfigDir string `envconfig:"CONFIG_DIR" default:"definitions"`

	// Default completion endpoint, used by every agent that does not override it.
	LLMProvider    string        `envconfig:"LLM_PROVIDER" default:"openai"`
	LLMBaseURL     string        `envconfig:"LLM_BASE_URL"`
	LLMAPIKey      string        `envconfig:"LLM_API_KEY"`
	LLMModel       string        `envconfig:"LLM_MODEL_NAME" default:"gpt-4.1-mini"`
	LLMTimeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	LLMTemperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.2"`

	APIKey       string        `envconfig:"API_KEY"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	LogColor     bool          `envconfig:"LOG_COLOR" default:"true"`
	DefaultTopic string        `envconfig:"DEFAULT_TOPIC" default:"CrewAI vs LangGraph"`
	UIMaxRuns    int           `envconfig:"UI_MAX_RUNS" default:"50"`
	ToolsTimeout time.Duration `envconfig:"TOOLS_TIMEOUT" default:"10s"`
}

// LoadEnv loads the given .env files plus ./.env when present, without
// overriding variables already set, and then processes EnvVars.
func LoadEnv(dotenvPaths ...string) (*EnvVars, error) {
	for _, p := range append(dotenvPaths, ".env") {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
	}

	var v EnvVars
	if err := envconfig.Process("", &v); err != nil {
		return nil, err
	}
	return &v, nil
}
