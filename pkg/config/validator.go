package config

import (
	"fmt"
	"os"
)

// ValidationError represents a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
	Value   string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return "config validation error: " + e.Field + ": " + e.Message + " (got: " + e.Value + ")"
	}
	return "config validation error: " + e.Field + ": " + e.Message
}

// ConfigValidator validates configuration consistency.
type ConfigValidator struct {
	config *Config
	errors []error
	warns  []string
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{config: cfg}
}

// Validate checks every section and returns an error listing all problems found.
func (v *ConfigValidator) Validate() error {
	v.validatePaths()
	v.validateLLM()
	v.validateTTS()
	if err := v.config.Logging.Validate(); err != nil {
		v.errors = append(v.errors, err)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("configuration validation failed with %d errors: %v", len(v.errors), v.errors)
	}
	return nil
}

// GetWarnings returns all validation warnings
func (v *ConfigValidator) GetWarnings() []string {
	return v.warns
}

func (v *ConfigValidator) validatePaths() {
	if v.config.OutputDir == "" {
		v.errors = append(v.errors, &ValidationError{Field: "outputDir", Message: "is required"})
	}
	if v.config.Database == "" {
		v.errors = append(v.errors, &ValidationError{Field: "database", Message: "is required"})
	}
}

func (v *ConfigValidator) validateLLM() {
	llm := v.config.LLM
	if err := oneOf("llm.provider", llm.Provider, ProviderOpenAI, ProviderOllama); err != nil {
		v.errors = append(v.errors, err)
	}
	if llm.Ollama.BaseURL == "" {
		v.errors = append(v.errors, &ValidationError{Field: "llm.ollama.baseURL", Message: "is required"})
	}
	if llm.Ollama.Model == "" {
		v.errors = append(v.errors, &ValidationError{Field: "llm.ollama.model", Message: "is required"})
	}
	if llm.Provider == ProviderOpenAI && llm.OpenAI.APIKey == "" {
		v.warns = append(v.warns, fmt.Sprintf("llm.provider is openai but %s is not set", llm.OpenAI.APIKeyEnv))
	}
}

func (v *ConfigValidator) validateTTS() {
	t := v.config.TTS
	if err := oneOf("tts.backend", t.Backend, BackendGoogle, BackendOpenAI); err != nil {
		v.errors = append(v.errors, err)
	}
	if t.SampleRate <= 0 || t.SampleRate > 48000 {
		v.errors = append(v.errors, &ValidationError{
			Field: "tts.sampleRate", Message: "must be between 1 and 48000", Value: fmt.Sprint(t.SampleRate),
		})
	}
	if t.SpeakingRate < 0.25 || t.SpeakingRate > 4.0 {
		v.errors = append(v.errors, &ValidationError{
			Field: "tts.speakingRate", Message: "must be between 0.25 and 4.0", Value: fmt.Sprint(t.SpeakingRate),
		})
	}
	if t.Pitch < -20 || t.Pitch > 20 {
		v.errors = append(v.errors, &ValidationError{
			Field: "tts.pitch", Message: "must be between -20 and 20", Value: fmt.Sprint(t.Pitch),
		})
	}
	if t.VolumeGainDB < -96 || t.VolumeGainDB > 16 {
		v.errors = append(v.errors, &ValidationError{
			Field: "tts.volumeGainDb", Message: "must be between -96 and 16", Value: fmt.Sprint(t.VolumeGainDB),
		})
	}
	if t.RequestsPerSecond < 0 {
		v.errors = append(v.errors, &ValidationError{
			Field: "tts.requestsPerSecond", Message: "must not be negative", Value: fmt.Sprint(t.RequestsPerSecond),
		})
	}
	if t.CredentialsFile != "" {
		if _, err := os.Stat(t.CredentialsFile); err != nil {
			v.warns = append(v.warns, fmt.Sprintf("tts.credentialsFile %s: %v", t.CredentialsFile, err))
		}
	}
}

// Validate is shorthand for NewConfigValidator(c).Validate().
func (c *Config) Validate() error {
	return NewConfigValidator(c).Validate()
}
