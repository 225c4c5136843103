package chat

import (
	"context"
	"strings"
	"time"

	"chatd/internal/artifact"
	"chatd/internal/device"
	"chatd/internal/manager"
	"chatd/internal/metrics"
	"chatd/pkg/types"
)

// ServiceConfig carries the service's collaborators.
type ServiceConfig struct {
	// Client generates replies. Required.
	Client *Client

	// Manager owns the model lifecycle. Required.
	Manager *manager.Manager

	// Store holds server-side conversations. Nil starts empty.
	Store *Store

	// Artifacts enriches /status with the artifact size. Optional.
	Artifacts *artifact.Store

	// Device enriches /status with the capability verdict. Optional.
	Device *device.Checker

	// Metrics supplies the /status counters. Nil omits them.
	Metrics *metrics.Tracker

	// Events supplies recent lifecycle events for /status. Optional.
	Events *manager.MemoryPublisher

	// Engine is the backend name reported by /status.
	Engine string
}

// Service ties the chat client, conversation store and lifecycle manager
// into the surface the HTTP layer serves.
type Service struct {
	cfg     ServiceConfig
	started time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Store == nil {
		cfg.Store = NewStore()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewTracker(false)
	}
	return &Service{cfg: cfg, started: time.Now()}
}

// Chat resolves the request's history, generates a reply and stores the
// exchange when a server-side conversation is involved.
//
// Two request forms are served. With Messages the client holds the history
// itself and nothing is stored. With a ConversationID (or bare Content,
// which opens a fresh conversation) the server prepends the stored history
// and persists both sides of the exchange. Failed exchanges are not stored,
// so a retry does not duplicate the user's turn.
func (s *Service) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	history := make([]types.Message, 0, len(req.Messages)+1)
	var id string
	switch {
	case req.ConversationID != "":
		id = req.ConversationID
		stored, _ := s.cfg.Store.History(id)
		history = append(history, stored...)
	case len(req.Messages) == 0:
		id = s.cfg.Store.Create()
	}
	history = append(history, req.Messages...)

	var userMsg types.Message
	if trimmed := strings.TrimSpace(req.Content); trimmed != "" {
		userMsg = types.NewMessage(types.RoleUser, trimmed)
		history = append(history, userMsg)
	}

	reply, stats, err := s.cfg.Client.Reply(ctx, history)
	if err != nil {
		return types.ChatResponse{}, err
	}

	if id != "" {
		exchange := make([]types.Message, 0, len(req.Messages)+2)
		exchange = append(exchange, req.Messages...)
		if userMsg.ID != "" {
			exchange = append(exchange, userMsg)
		}
		exchange = append(exchange, reply)
		s.cfg.Store.Append(id, exchange...)
	}

	return types.ChatResponse{
		ConversationID: id,
		Reply:          reply,
		ElapsedMS:      stats.Elapsed.Milliseconds(),
		EstTokens:      stats.EstTokens,
	}, nil
}

// Warmup initializes the model ahead of the first chat.
func (s *Service) Warmup(ctx context.Context) error {
	return s.cfg.Manager.Initialize(ctx)
}

// Release frees the model and its memory.
func (s *Service) Release() {
	s.cfg.Manager.Release()
}

// Ready reports whether the model holds a live handle.
func (s *Service) Ready() bool {
	return s.cfg.Manager.Ready()
}

// State reports the lifecycle state as its wire string.
func (s *Service) State() string {
	return string(s.cfg.Manager.State())
}

// Conversation returns the stored conversation for id.
func (s *Service) Conversation(id string) (types.ConversationResponse, bool) {
	conv, ok := s.cfg.Store.Get(id)
	if !ok {
		return types.ConversationResponse{}, false
	}
	return types.ConversationResponse{
		ID:            conv.ID,
		Messages:      conv.Messages,
		CreatedAtUnix: conv.CreatedAt.Unix(),
		UpdatedAtUnix: conv.UpdatedAt.Unix(),
	}, true
}

// DeleteConversation drops the stored conversation for id.
func (s *Service) DeleteConversation(id string) {
	s.cfg.Store.Delete(id)
}

// Status assembles the full lifecycle, device and performance view.
func (s *Service) Status() types.StatusResponse {
	snap := s.cfg.Manager.Snapshot()
	model := types.ModelStatus{
		Name:      snap.ModelName,
		Path:      snap.ModelPath,
		Attempts:  snap.Attempts,
		LastError: snap.LastErr,
	}
	if !snap.LoadedAt.IsZero() {
		model.LoadedAtUnix = snap.LoadedAt.Unix()
	}
	if s.cfg.Artifacts != nil {
		if _, size, ok := s.cfg.Artifacts.Stat(snap.ModelName); ok {
			model.SizeBytes = size
		}
	}

	dev := types.DeviceStatus{Capable: true}
	if s.cfg.Device != nil {
		v := s.cfg.Device.Check()
		dev = types.DeviceStatus{
			TotalMB:     v.Stat.TotalMB,
			AvailableMB: v.Stat.AvailableMB,
			Capable:     v.Capable,
			Warning:     v.Warning,
			LowMemory:   s.cfg.Device.LowMemory(),
		}
	}

	var events []types.LifecycleEvent
	if s.cfg.Events != nil {
		for _, ev := range s.cfg.Events.Events() {
			events = append(events, types.LifecycleEvent{
				Type:   ev.Type,
				Model:  ev.Model,
				AtUnix: ev.At.Unix(),
				Err:    ev.Err,
			})
		}
	}

	return types.StatusResponse{
		State:          string(snap.State),
		Engine:         s.cfg.Engine,
		Model:          model,
		Device:         dev,
		Metrics:        s.cfg.Metrics.Summary(),
		Queue:          s.cfg.Client.Queue(),
		Events:         events,
		UptimeSeconds:  int64(time.Since(s.started).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
}
