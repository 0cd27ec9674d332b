package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/config"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/export"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
	metrics "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/metrics/prometheus"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence/sqlite"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers/ollama"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers/openai"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/sentences"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/synthesis"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/tts"
)

// appBuilder creates the services of one invocation.
type appBuilder func(ctx context.Context, cfg *config.Config) (*app, error)

// ttsFactory opens the configured TTS backend.
type ttsFactory func(ctx context.Context, cfg *config.Config) (tts.Service, error)

// app wires the store, the LLM registry, the TTS backend and the exporter.
// The TTS backend is opened on first use so that commands that never
// synthesize do not need credentials.
type app struct {
	cfg       *config.Config
	store     persistence.TrainingItemStore
	registry  *providers.Registry
	sentences *sentences.Generator
	packager  *export.Packager
	exporter  *metrics.Exporter

	newTTS   ttsFactory
	ttsOnce  sync.Once
	ttsSvc   tts.Service
	ttsErr   error
	audioGen *synthesis.AudioGenerator
}

// buildApp opens the database and registers the LLM providers.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := sqlite.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	registry, err := newRegistry(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a := newApp(cfg, store, registry, openTTS)
	if cfg.Metrics.Addr != "" {
		a.exporter = metrics.NewExporter(cfg.Metrics.Addr,
			metrics.WithHealthCheck("database", store.Ping))
		a.exporter.StartBackground(func(err error) {
			logger.ErrorContext(ctx, "Metrics exporter stopped", "error", err)
		})
	}
	return a, nil
}

func newApp(cfg *config.Config, store persistence.TrainingItemStore, registry *providers.Registry, newTTS ttsFactory) *app {
	return &app{
		cfg:      cfg,
		store:    store,
		registry: registry,
		sentences: sentences.NewGenerator(registry,
			sentences.WithRecorder(store),
			sentences.WithLanguage(cfg.LLM.Language)),
		packager: export.NewPackager(store, cfg.OutputDir),
		newTTS:   newTTS,
	}
}

// newRegistry registers both providers; the configured one is the default.
func newRegistry(cfg *config.Config) (*providers.Registry, error) {
	kind, err := providers.ParseKind(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}
	r := providers.NewRegistry(providers.Selection{Kind: kind})

	var openaiOpts []openai.Option
	if cfg.LLM.OpenAI.BaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.LLM.OpenAI.BaseURL))
	}
	r.Register(providers.KindOpenAI, openai.NewProvider(cfg.LLM.OpenAI.APIKey, openaiOpts...))
	r.Register(providers.KindOllama, ollama.NewProvider(cfg.LLM.Ollama.BaseURL, cfg.LLM.Ollama.Model))

	if kind == providers.KindOllama {
		return r, r.SetDefault(providers.Selection{Kind: kind, Model: cfg.LLM.Ollama.Model})
	}
	return r, nil
}

// openTTS opens the backend named by cfg.TTS.Backend.
func openTTS(ctx context.Context, cfg *config.Config) (tts.Service, error) {
	switch cfg.TTS.Backend {
	case config.BackendGoogle:
		var opts []tts.GoogleOption
		if cfg.TTS.CredentialsFile != "" {
			opts = append(opts, tts.WithCredentialsFile(cfg.TTS.CredentialsFile))
		}
		return tts.NewGoogle(ctx, opts...)
	case config.BackendOpenAI:
		if cfg.LLM.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("%s is not set", cfg.LLM.OpenAI.APIKeyEnv)
		}
		return tts.NewOpenAI(cfg.LLM.OpenAI.APIKey,
			tts.WithOpenAIBaseURL(cfg.LLM.OpenAI.BaseURL),
			tts.WithOpenAIModel(cfg.TTS.OpenAI.Model)), nil
	default:
		return nil, fmt.Errorf("unknown TTS backend %q", cfg.TTS.Backend)
	}
}

// ttsService opens the TTS backend once.
func (a *app) ttsService(ctx context.Context) (tts.Service, error) {
	a.ttsOnce.Do(func() {
		a.ttsSvc, a.ttsErr = a.newTTS(ctx, a.cfg)
		if a.ttsErr == nil {
			a.audioGen = synthesis.NewAudioGenerator(
				synthesis.NewSynthesizer(a.ttsSvc, synthesis.WithRateLimit(a.cfg.TTS.RequestsPerSecond)),
				a.store, a.cfg.OutputDir)
		}
	})
	return a.ttsSvc, a.ttsErr
}

// audio returns the audio generator, opening the TTS backend if needed.
func (a *app) audio(ctx context.Context) (*synthesis.AudioGenerator, error) {
	if _, err := a.ttsService(ctx); err != nil {
		return nil, err
	}
	return a.audioGen, nil
}

// folders returns an audio generator for folder operations that never synthesize.
func (a *app) folders() *synthesis.AudioGenerator {
	if a.audioGen != nil {
		return a.audioGen
	}
	return synthesis.NewAudioGenerator(nil, a.store, a.cfg.OutputDir)
}

// params returns the configured voice settings.
func (a *app) params() synthesis.Params {
	return synthesis.Params{
		Voice:        a.cfg.TTS.Voice,
		Language:     a.cfg.TTS.LanguageCode,
		SampleRate:   a.cfg.TTS.SampleRate,
		SpeakingRate: a.cfg.TTS.SpeakingRate,
		Pitch:        a.cfg.TTS.Pitch,
		VolumeGainDB: a.cfg.TTS.VolumeGainDB,
	}
}

// Close releases every opened resource.
func (a *app) Close() error {
	var errs []error
	if c, ok := a.ttsSvc.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, a.registry.Close(), a.store.Close())
	if a.exporter != nil {
		errs = append(errs, a.exporter.Shutdown(context.Background()))
	}
	return errors.Join(errs...)
}
