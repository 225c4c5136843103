// Package config holds the immutable runtime configuration for chatd.
// A Config is assembled once at process start (file, then flags, then env
// defaults) and handed to every component; nothing mutates it afterwards.
package config

import (
	"fmt"
	"time"
)

// Engine backend names accepted by Config.Engine.
const (
	EngineLlama = "llama"
	EngineMock  = "mock"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by defaults via Normalized.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	AssetsDir string `json:"assets_dir" yaml:"assets_dir" toml:"assets_dir"`
	DataDir   string `json:"data_dir" yaml:"data_dir" toml:"data_dir"`

	// Model is the artifact file name looked up inside AssetsDir.
	Model string `json:"model" yaml:"model" toml:"model"`
	// ExpectedSizeBytes enables exact size verification of the working copy.
	// 0 disables the check.
	ExpectedSizeBytes int64  `json:"expected_size_bytes" yaml:"expected_size_bytes" toml:"expected_size_bytes"`
	Engine            string `json:"engine" yaml:"engine" toml:"engine"`

	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopK        int     `json:"top_k" yaml:"top_k" toml:"top_k"`
	Seed        int     `json:"seed" yaml:"seed" toml:"seed"`
	CtxSize     int     `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads     int     `json:"threads" yaml:"threads" toml:"threads"`

	LoadTimeoutSec  int `json:"load_timeout_sec" yaml:"load_timeout_sec" toml:"load_timeout_sec"`
	ReplyTimeoutSec int `json:"reply_timeout_sec" yaml:"reply_timeout_sec" toml:"reply_timeout_sec"`
	QueueWaitSec    int `json:"queue_wait_sec" yaml:"queue_wait_sec" toml:"queue_wait_sec"`
	MaxQueueDepth   int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`

	MinMemoryMB         int `json:"min_memory_mb" yaml:"min_memory_mb" toml:"min_memory_mb"`
	RecommendedMemoryMB int `json:"recommended_memory_mb" yaml:"recommended_memory_mb" toml:"recommended_memory_mb"`

	MaxPromptChars int `json:"max_prompt_chars" yaml:"max_prompt_chars" toml:"max_prompt_chars"`

	// DisableMetrics turns the performance counters off; the zero value
	// keeps them on.
	DisableMetrics bool `json:"disable_metrics" yaml:"disable_metrics" toml:"disable_metrics"`

	// CORSOrigins enables CORS for the listed origins; empty leaves it off.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// Default returns the built-in configuration. The model parameters mirror
// the Gemma 2B instruction-tuned defaults the service was tuned for.
func Default() Config {
	return Config{
		Addr:                ":8090",
		AssetsDir:           "/usr/share/chatd/assets",
		DataDir:             "~/.local/share/chatd",
		Model:               "gemma-2b-it.Q8_0.gguf",
		Engine:              EngineLlama,
		MaxTokens:           512,
		Temperature:         0.8,
		TopK:                40,
		CtxSize:             4096,
		LoadTimeoutSec:      60,
		ReplyTimeoutSec:     30,
		QueueWaitSec:        15,
		MaxQueueDepth:       8,
		MinMemoryMB:         3072,
		RecommendedMemoryMB: 4096,
		MaxPromptChars:      8000,
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// Normalized returns c with unspecified fields filled from Default.
func (c Config) Normalized() Config {
	d := Default()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.AssetsDir == "" {
		c.AssetsDir = d.AssetsDir
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.Engine == "" {
		c.Engine = d.Engine
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = d.Temperature
	}
	if c.TopK == 0 {
		c.TopK = d.TopK
	}
	if c.CtxSize == 0 {
		c.CtxSize = d.CtxSize
	}
	if c.LoadTimeoutSec == 0 {
		c.LoadTimeoutSec = d.LoadTimeoutSec
	}
	if c.ReplyTimeoutSec == 0 {
		c.ReplyTimeoutSec = d.ReplyTimeoutSec
	}
	if c.QueueWaitSec == 0 {
		c.QueueWaitSec = d.QueueWaitSec
	}
	if c.MaxQueueDepth == 0 {
		c.MaxQueueDepth = d.MaxQueueDepth
	}
	if c.MinMemoryMB == 0 {
		c.MinMemoryMB = d.MinMemoryMB
	}
	if c.RecommendedMemoryMB == 0 {
		c.RecommendedMemoryMB = d.RecommendedMemoryMB
	}
	if c.MaxPromptChars == 0 {
		c.MaxPromptChars = d.MaxPromptChars
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	return c
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	switch c.Engine {
	case EngineLlama, EngineMock:
	default:
		return fmt.Errorf("unknown engine %q (want %q or %q)", c.Engine, EngineLlama, EngineMock)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("temperature must not be negative, got %g", c.Temperature)
	}
	if c.LoadTimeoutSec < 1 || c.ReplyTimeoutSec < 1 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.RecommendedMemoryMB < c.MinMemoryMB {
		return fmt.Errorf("recommended_memory_mb (%d) below min_memory_mb (%d)",
			c.RecommendedMemoryMB, c.MinMemoryMB)
	}
	if c.MaxPromptChars < 1 {
		return fmt.Errorf("max_prompt_chars must be positive, got %d", c.MaxPromptChars)
	}
	return nil
}

// LoadTimeout is LoadTimeoutSec as a duration.
func (c Config) LoadTimeout() time.Duration { return time.Duration(c.LoadTimeoutSec) * time.Second }

// ReplyTimeout is ReplyTimeoutSec as a duration.
func (c Config) ReplyTimeout() time.Duration { return time.Duration(c.ReplyTimeoutSec) * time.Second }

// QueueWait is QueueWaitSec as a duration.
func (c Config) QueueWait() time.Duration { return time.Duration(c.QueueWaitSec) * time.Second }
