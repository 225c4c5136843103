package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatd/internal/artifact"
	"chatd/internal/chat"
	"chatd/internal/config"
	"chatd/internal/device"
	"chatd/internal/engine"
	"chatd/internal/manager"
	"chatd/internal/metrics"
)

// eventBufferSize bounds the in-memory lifecycle event ring kept for
// diagnostics.
const eventBufferSize = 32

// cliOptions collects flag values before they are merged into the effective
// configuration. Flag defaults come from CHATD_* environment variables, so
// the precedence is config file, then environment, then explicit flags.
type cliOptions struct {
	configPath  string
	corsOrigins string
	flags       config.Config
}

// buildRootCmd constructs the Cobra command tree.
func buildRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "chatd",
		Short:         "On-device chat service around a single local LLM",
		Long: "chatd serves a chat API backed by one locally stored language model.\n" +
			"The model is loaded on demand, guarded by a device capability check,\n" +
			"and released on request to give memory back to the host.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", envOr("CHATD_CONFIG", ""), "Config file: .yaml, .json or .toml")
	pf.StringVar(&opts.flags.Addr, "addr", envOr("CHATD_ADDR", ""), "HTTP listen address, e.g. :8090")
	pf.StringVar(&opts.flags.AssetsDir, "assets-dir", envOr("CHATD_ASSETS_DIR", ""), "Read-only directory holding packaged model files")
	pf.StringVar(&opts.flags.DataDir, "data-dir", envOr("CHATD_DATA_DIR", ""), "Writable directory for model working copies")
	pf.StringVar(&opts.flags.Model, "model", envOr("CHATD_MODEL", ""), "Model artifact file name inside the assets dir")
	pf.StringVar(&opts.flags.Engine, "engine", envOr("CHATD_ENGINE", ""), "Inference backend: llama or mock")
	pf.Int64Var(&opts.flags.ExpectedSizeBytes, "expected-size-bytes", envInt64("CHATD_EXPECTED_SIZE_BYTES"), "Exact artifact size to verify (0 disables)")
	pf.StringVar(&opts.corsOrigins, "cors-origins", envOr("CHATD_CORS_ORIGINS", ""), "Comma-separated origins allowed via CORS (empty disables)")
	pf.BoolVar(&opts.flags.DisableMetrics, "disable-metrics", envBool("CHATD_DISABLE_METRICS"), "Turn off performance counters")
	pf.StringVar(&opts.flags.LogLevel, "log-level", envOr("CHATD_LOG_LEVEL", ""), "Log level: debug|info|warn|error")
	pf.StringVar(&opts.flags.LogFormat, "log-format", envOr("CHATD_LOG_FORMAT", ""), "Log format: console|json")

	root.AddCommand(newServeCmd(opts), newAskCmd(opts), newCheckCmd(opts), newVersionCmd())
	return root
}

// resolveConfig merges the config file, environment defaults and explicit
// flags into a validated configuration.
func resolveConfig(cmd *cobra.Command, opts *cliOptions) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config %s: %w", opts.configPath, err)
		}
		cfg = loaded
	}

	f := opts.flags
	if f.Addr != "" {
		cfg.Addr = f.Addr
	}
	if f.AssetsDir != "" {
		cfg.AssetsDir = f.AssetsDir
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.Model != "" {
		cfg.Model = f.Model
	}
	if f.Engine != "" {
		cfg.Engine = f.Engine
	}
	if f.ExpectedSizeBytes != 0 {
		cfg.ExpectedSizeBytes = f.ExpectedSizeBytes
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		cfg.LogFormat = f.LogFormat
	}
	if cmd.Flags().Changed("disable-metrics") || f.DisableMetrics {
		cfg.DisableMetrics = f.DisableMetrics
	}
	if opts.corsOrigins != "" {
		cfg.CORSOrigins = splitCSV(opts.corsOrigins)
	}

	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the configured level and format.
func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stderr
	if cfg.LogFormat != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// app bundles the collaborators the CLI commands run against.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	store   *artifact.Store
	dev     *device.Checker
	tracker *metrics.Tracker
	events  *manager.MemoryPublisher
	mgr     *manager.Manager
	svc     *chat.Service
}

// buildApp wires the artifact store, engine, lifecycle manager and chat
// service out of one resolved configuration.
func buildApp(cfg config.Config) (*app, error) {
	log := newLogger(cfg)

	store, err := artifact.NewStore(cfg.AssetsDir, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	eng, err := newEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}

	tracker := metrics.NewTracker(!cfg.DisableMetrics)
	dev := device.New(cfg.MinMemoryMB, cfg.RecommendedMemoryMB)
	events := manager.NewMemoryPublisher(eventBufferSize)

	mgrLog := log.With().Str("component", "manager").Logger()
	mgr := manager.New(manager.Config{
		Engine:       eng,
		Store:        store,
		Device:       dev,
		Metrics:      tracker,
		Publisher:    events,
		Logger:       &mgrLog,
		Model:        cfg.Model,
		ExpectedSize: cfg.ExpectedSizeBytes,
		Options: engine.Options{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopK:        cfg.TopK,
			Seed:        cfg.Seed,
			CtxSize:     cfg.CtxSize,
			Threads:     cfg.Threads,
		},
		LoadTimeout: cfg.LoadTimeout(),
	})

	chatLog := log.With().Str("component", "chat").Logger()
	client := chat.New(chat.Config{
		Manager:        mgr,
		Metrics:        tracker,
		Logger:         &chatLog,
		ReplyTimeout:   cfg.ReplyTimeout(),
		QueueWait:      cfg.QueueWait(),
		MaxQueueDepth:  cfg.MaxQueueDepth,
		MaxPromptChars: cfg.MaxPromptChars,
	})
	svc := chat.NewService(chat.ServiceConfig{
		Client:    client,
		Manager:   mgr,
		Artifacts: store,
		Device:    dev,
		Metrics:   tracker,
		Events:    events,
		Engine:    cfg.Engine,
	})

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		dev:     dev,
		tracker: tracker,
		events:  events,
		mgr:     mgr,
		svc:     svc,
	}, nil
}

// newEngine maps the configured backend name to its constructor.
func newEngine(name string) (engine.Engine, error) {
	switch name {
	case config.EngineLlama:
		return engine.NewLlama(), nil
	case config.EngineMock:
		return engine.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want %q or %q)", name, config.EngineLlama, config.EngineMock)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string) int64 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false
	}
	return v
}
