package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvLLMProvider       = "LLM_PROVIDER"
	EnvOllamaBaseURL     = "OLLAMA_BASE_URL"
	EnvOllamaModel       = "OLLAMA_MODEL"
	EnvGoogleCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
)

const defaultOpenAIKeyEnvVar = "OPENAI_API_KEY"

// Load reads a YAML file over the defaults and applies environment overrides.
// An empty filename returns the defaults with environment overrides.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLLMProvider); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv(EnvOllamaBaseURL); v != "" {
		c.LLM.Ollama.BaseURL = v
	}
	if v := os.Getenv(EnvOllamaModel); v != "" {
		c.LLM.Ollama.Model = v
	}
	if v := os.Getenv(EnvGoogleCredentials); v != "" && c.TTS.CredentialsFile == "" {
		c.TTS.CredentialsFile = v
	}
	if c.LLM.OpenAI.APIKeyEnv == "" {
		c.LLM.OpenAI.APIKeyEnv = defaultOpenAIKeyEnvVar
	}
	c.LLM.OpenAI.APIKey = os.Getenv(c.LLM.OpenAI.APIKeyEnv)
}

// Save writes the configuration as YAML.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
