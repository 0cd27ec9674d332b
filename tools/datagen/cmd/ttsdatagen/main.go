package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/config"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/version"
)

const envPrefix = "TTSDATAGEN"

// Flag names shared by several commands.
const (
	flagConfig      = "config"
	flagOutputDir   = "output-dir"
	flagDatabase    = "database"
	flagProvider    = "provider"
	flagModel       = "model"
	flagLanguage    = "language"
	flagTTSBackend  = "tts-backend"
	flagVoice       = "voice"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
	flagMetricsAddr = "metrics-addr"
	flagVerbose     = "verbose"
	flagJSON        = "json"
)

// cli holds the state shared by the commands of one invocation.
type cli struct {
	v     *viper.Viper
	cfg   *config.Config
	build appBuilder
	app   *app
}

func newCLI(build appBuilder) *cli {
	return &cli{v: viper.New(), build: build}
}

// command assembles the command tree.
func (c *cli) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "ttsdatagen",
		Short:         "Generate Turkish TTS training data",
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `ttsdatagen writes example sentences for a word with an LLM, synthesizes
each sentence with a TTS backend and packages the audio with a metadata.csv
manifest for TTS model training.`,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(version.GetVersionInfo() + "\n")

	pf := root.PersistentFlags()
	pf.StringP(flagConfig, "c", "", "Configuration file path (YAML)")
	pf.String(flagOutputDir, "", "Root directory for audio and manifests")
	pf.String(flagDatabase, "", "SQLite database path")
	pf.String(flagProvider, "", "Default LLM provider (openai or ollama)")
	pf.String(flagTTSBackend, "", "TTS backend (google or openai)")
	pf.String(flagLogLevel, "", "Log level (trace, debug, info, warn, error)")
	pf.String(flagLogFormat, "", "Log format (text or json)")
	pf.String(flagMetricsAddr, "", "Serve Prometheus metrics on this address")
	pf.BoolP(flagVerbose, "v", false, "Enable debug logging")
	pf.Bool(flagJSON, false, "Print results as JSON")

	for _, name := range []string{flagOutputDir, flagDatabase, flagProvider, flagTTSBackend,
		flagLogLevel, flagLogFormat, flagMetricsAddr} {
		_ = c.v.BindPFlag(name, pf.Lookup(name))
	}
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		newGenerateCmd(c),
		newRegenerateCmd(c),
		newSynthesizeCmd(c),
		newPipelineCmd(c),
		newItemsCmd(c),
		newStatsCmd(c),
		newExportCmd(c),
		newVoicesCmd(c),
		newLLMCmd(c),
		newVersionCmd(c),
	)
	return root
}

// setup loads configuration and configures logging. Services are built on
// first use by the commands that need them.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env", "error", err)
	}

	path, _ := cmd.Flags().GetString(flagConfig)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	validator := config.NewConfigValidator(cfg)
	if err := validator.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if verbose, _ := cmd.Flags().GetBool(flagVerbose); verbose {
		logger.SetVerbose(true)
	}
	version.LogStartup()
	for _, w := range validator.GetWarnings() {
		logger.Warn("Configuration warning", "warning", w)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithRequestID(ctx, uuid.NewString()))
	return nil
}

// applyOverrides layers flags and TTSDATAGEN_* variables over the file.
func (c *cli) applyOverrides(cfg *config.Config) {
	set := func(key string, dst *string) {
		if v := c.v.GetString(key); v != "" {
			*dst = v
		}
	}
	set(flagOutputDir, &cfg.OutputDir)
	set(flagDatabase, &cfg.Database)
	set(flagProvider, &cfg.LLM.Provider)
	set(flagTTSBackend, &cfg.TTS.Backend)
	set(flagLogLevel, &cfg.Logging.Level)
	set(flagLogFormat, &cfg.Logging.Format)
	set(flagMetricsAddr, &cfg.Metrics.Addr)
}

// services builds the application on first use.
func (c *cli) services(cmd *cobra.Command) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.build(cmd.Context(), c.cfg)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool(flagJSON)
	return v
}

// Execute runs the root command with a context cancelled on interrupt.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(buildApp)
	err := c.command().ExecuteContext(ctx)
	if closeErr := c.close(); closeErr != nil {
		logger.Warn("Failed to close services", "error", closeErr)
	}
	if err != nil {
		// Error already printed by cobra
		return 1
	}
	return 0
}

func main() {
	os.Exit(Execute())
}
