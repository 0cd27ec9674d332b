// Package config defines the YAML configuration of the training data generator.
//
// A configuration file looks like:
//
//	outputDir: output
//	database: data/training.db
//	llm:
//	  provider: ollama
//	  language: Turkish
//	  ollama:
//	    baseURL: http://localhost:11434
//	    model: llama3.1:8b
//	tts:
//	  backend: google
//	  voice: tr-TR-Wavenet-D
//	  languageCode: tr-TR
//	  sampleRate: 22050
//	logging:
//	  level: info
//	  format: text
package config

// Config is the root configuration document.
type Config struct {
	// OutputDir is the root directory for audio files and export manifests.
	OutputDir string `yaml:"outputDir"`

	// Database is the SQLite database path.
	Database string `yaml:"database"`

	LLM     LLMConfig     `yaml:"llm"`
	TTS     TTSConfig     `yaml:"tts"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LLMConfig selects and configures the sentence generation backends.
type LLMConfig struct {
	// Provider is the default provider: "openai" or "ollama".
	Provider string `yaml:"provider"`

	// Language is the language sentences are written in.
	Language string `yaml:"language"`

	OpenAI OpenAIConfig `yaml:"openai"`
	Ollama OllamaConfig `yaml:"ollama"`
}

// OpenAIConfig configures the hosted chat completion backend.
type OpenAIConfig struct {
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"apiKeyEnv"`
	// BaseURL overrides the API endpoint. Empty uses the public API.
	BaseURL string `yaml:"baseURL,omitempty"`

	// APIKey is resolved from APIKeyEnv and never read from the file.
	APIKey string `yaml:"-"`
}

// OllamaConfig configures the local model server.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	// Backend is "google" or "openai".
	Backend string `yaml:"backend"`

	// CredentialsFile is the Google service account file. Empty uses application default credentials.
	CredentialsFile string `yaml:"credentialsFile,omitempty"`

	Voice        string  `yaml:"voice"`
	LanguageCode string  `yaml:"languageCode"`
	SampleRate   int     `yaml:"sampleRate"`
	SpeakingRate float64 `yaml:"speakingRate"`
	Pitch        float64 `yaml:"pitch"`
	VolumeGainDB float64 `yaml:"volumeGainDb"`

	// RequestsPerSecond throttles TTS calls. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`

	OpenAI OpenAITTSConfig `yaml:"openai"`
}

// OpenAITTSConfig configures the OpenAI speech backend.
type OpenAITTSConfig struct {
	Model string `yaml:"model"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9090". Empty disables the exporter.
	Addr string `yaml:"addr,omitempty"`
}

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// TTS backend names.
const (
	BackendGoogle = "google"
	BackendOpenAI = "openai"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		OutputDir: "output",
		Database:  "data/training.db",
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Language: "Turkish",
			OpenAI: OpenAIConfig{
				APIKeyEnv: "OPENAI_API_KEY",
			},
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3.1:8b",
			},
		},
		TTS: TTSConfig{
			Backend:      BackendGoogle,
			Voice:        "tr-TR-Wavenet-D",
			LanguageCode: "tr-TR",
			SampleRate:   22050,
			SpeakingRate: 1.0,
			OpenAI: OpenAITTSConfig{
				Model: "tts-1",
			},
		},
		Logging: DefaultLoggingConfig(),
	}
}
