// Package chat turns conversation history into model replies. The client
// owns the request path between the HTTP surface and the lifecycle manager:
// admission, prompt shaping, the generation deadline, output cleaning, and
// failure classification.
package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/manager"
	"chatd/internal/metrics"
	"chatd/internal/prompt"
	"chatd/pkg/types"
)

// Apology is the reply when the model's output cleans down to nothing.
const Apology = "I'm sorry, I couldn't come up with a response. Please try again."

// Defaults applied by Config.normalize.
const (
	DefaultReplyTimeout  = 30 * time.Second
	DefaultQueueWait     = 15 * time.Second
	DefaultMaxQueueDepth = 8
)

// Config carries the client's collaborators and bounds.
type Config struct {
	// Manager owns the model lifecycle. Required.
	Manager *manager.Manager

	// Metrics records inference counts and durations. Nil disables recording.
	Metrics *metrics.Tracker

	// Logger for request-path logging. Nil uses a no-op logger.
	Logger *zerolog.Logger

	// ReplyTimeout bounds one generation call. Zero means DefaultReplyTimeout.
	ReplyTimeout time.Duration

	// QueueWait bounds how long a request may wait for the generation slot.
	// Zero means DefaultQueueWait.
	QueueWait time.Duration

	// MaxQueueDepth bounds requests waiting behind the in-flight one.
	// Zero means DefaultMaxQueueDepth.
	MaxQueueDepth int

	// MaxPromptChars is the formatted-prompt ceiling before truncation.
	// Zero means prompt.DefaultMaxChars.
	MaxPromptChars int
}

func (c *Config) normalize() {
	if c.Metrics == nil {
		c.Metrics = metrics.NewTracker(false)
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = DefaultReplyTimeout
	}
	if c.QueueWait <= 0 {
		c.QueueWait = DefaultQueueWait
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = prompt.DefaultMaxChars
	}
}

// Stats describes one completed generation.
type Stats struct {
	Elapsed   time.Duration
	EstTokens int
}

// Client serializes generation against the single loaded model.
type Client struct {
	cfg     Config
	queueCh chan struct{}
	genCh   chan struct{}
}

// New constructs a Client.
func New(cfg Config) *Client {
	cfg.normalize()
	return &Client{
		cfg:     cfg,
		queueCh: make(chan struct{}, cfg.MaxQueueDepth),
		genCh:   make(chan struct{}, 1),
	}
}

// Reply generates the model's answer to history, whose last element is the
// pending user message. The model is initialized on first use, so the first
// reply of a session pays the load latency.
//
// Caller cancellation propagates unwrapped; every other failure comes back
// classified. The returned message is already cleaned of turn markers.
func (c *Client) Reply(ctx context.Context, history []types.Message) (types.Message, Stats, error) {
	if err := ctx.Err(); err != nil {
		return types.Message{}, Stats{}, err
	}

	release, err := c.acquireSlot(ctx)
	if err != nil {
		c.countError(err)
		return types.Message{}, Stats{}, err
	}
	defer release()

	if !c.cfg.Manager.Ready() {
		// Init-path failures are recorded by the manager itself.
		if err := c.cfg.Manager.Initialize(ctx); err != nil {
			return types.Message{}, Stats{}, err
		}
	}
	handle, err := c.cfg.Manager.Handle()
	if err != nil {
		c.countError(err)
		return types.Message{}, Stats{}, err
	}

	p, _ := prompt.Fit(history, c.cfg.MaxPromptChars)
	if err := ctx.Err(); err != nil {
		return types.Message{}, Stats{}, err
	}

	start := time.Now()
	genCtx, cancel := context.WithTimeout(ctx, c.cfg.ReplyTimeout)
	defer cancel()
	raw, genErr := handle.Generate(genCtx, p)
	elapsed := time.Since(start)

	if genErr != nil {
		err := c.classifyGenerate(ctx, genErr)
		c.countError(err)
		if !manager.IsCanceled(err) {
			c.cfg.Metrics.RecordInference(elapsed, 0, metrics.OutcomeError)
		}
		return types.Message{}, Stats{}, err
	}

	reply := prompt.Clean(raw)
	if reply == "" {
		reply = Apology
	}
	msg := types.NewMessage(types.RoleAssistant, reply)
	stats := Stats{Elapsed: elapsed, EstTokens: metrics.EstimateTokens(reply)}
	c.cfg.Metrics.RecordInference(elapsed, stats.EstTokens, metrics.OutcomeOK)
	c.cfg.Metrics.SampleMemory()
	c.cfg.Logger.Debug().
		Dur("elapsed", elapsed).
		Int("prompt_chars", len(p)).
		Int("est_tokens", stats.EstTokens).
		Msg("reply generated")
	return msg, stats, nil
}

// Queue reports admission occupancy for status reporting.
func (c *Client) Queue() types.QueueStatus {
	inflight := len(c.genCh)
	queued := len(c.queueCh) - inflight
	if queued < 0 {
		queued = 0
	}
	return types.QueueStatus{
		Inflight: inflight,
		Queued:   queued,
		MaxDepth: cap(c.queueCh),
	}
}

// classifyGenerate maps a raw Generate failure into the taxonomy. ctx is
// the caller's context: its cancellation passes through unwrapped, while
// the expired service deadline reads as a timeout. Memory exhaustion
// releases the model so the next request starts from a clean slate.
func (c *Client) classifyGenerate(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil && manager.IsCanceled(err):
		return ctx.Err()
	case manager.IsCanceled(err):
		return manager.ErrTimeout(manager.PhaseGenerate, c.cfg.ReplyTimeout)
	case manager.LooksOutOfMemory(err):
		c.cfg.Logger.Warn().Err(err).Msg("generation exhausted memory, releasing model")
		c.cfg.Manager.Release()
		return manager.ErrExhausted(manager.PhaseGenerate, err)
	default:
		return manager.ErrEngine(err)
	}
}

func (c *Client) countError(err error) {
	if err == nil || manager.IsCanceled(err) {
		return
	}
	c.cfg.Metrics.RecordError(manager.Kind(err))
}
