// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment.
type Config struct {
	AnthropicAPIKey string // enables the LLM collaborators
	AdminKey        string // enables admin POST endpoints
	RandomOrgKey    string // enables the random.org entropy source
	ModelName       string // overrides the default model
}

// Load reads .env if present, then the environment. A missing .env is not
// an error; deployed environments set variables directly.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg := Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AdminKey:        os.Getenv("SOLWARD_ADMIN_KEY"),
		RandomOrgKey:    os.Getenv("RANDOM_ORG_KEY"),
		ModelName:       os.Getenv("SOLWARD_MODEL"),
	}

	if cfg.AnthropicAPIKey == "" {
		slog.Warn("ANTHROPIC_API_KEY not set, LLM collaborators disabled")
	}
	if cfg.AdminKey == "" {
		slog.Warn("SOLWARD_ADMIN_KEY not set, admin POST endpoints disabled")
	}
	return cfg
}
